package cli

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lingo-quest-service/internal/app"
	"lingo-quest-service/internal/config"
	"lingo-quest-service/internal/domain"
	"lingo-quest-service/internal/infra/memory"
	pgstore "lingo-quest-service/internal/infra/postgres"
	redisstore "lingo-quest-service/internal/infra/redis"
	transport "lingo-quest-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quest attempt server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	var pool *pgxpool.Pool
	var bunDB *bun.DB
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Postgres.URL)))
		bunDB = bun.NewDB(sqldb, pgdialect.New())
		defer bunDB.Close()
	}

	var loader memory.QuestLoader = memory.NewStaticQuestLoader(sampleQuests())
	if pool != nil {
		loader = pgstore.NewQuestLoader(pool)
	}

	questTTL := config.TTLDuration(cfg.Quest.TTL, 10*time.Minute)
	var questRepo app.QuestRepository
	if redisClient != nil {
		questRepo = redisstore.NewQuestRepository(redisClient, loader, questTTL)
	} else {
		questRepo = memory.NewQuestRepository(loader, questTTL)
	}

	var attempts app.AttemptStore = memory.NewAttemptStore()
	if bunDB != nil {
		attempts = pgstore.NewAttemptStore(bunDB)
	}

	var ledger app.ProfileLedger = memory.NewProfileLedger()
	switch {
	case bunDB != nil:
		ledger = pgstore.NewProfileLedger(bunDB)
	case redisClient != nil:
		ledger = redisstore.NewProfileLedger(redisClient)
	}

	service := app.NewAttemptService(questRepo, attempts, ledger)
	wsHandler := transport.NewWSHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/attempts", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting quest service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleQuests provides minimal demo content; the Postgres loader replaces
// this in production.
func sampleQuests() map[string]domain.Quest {
	bonus := 15.0
	return map[string]domain.Quest{
		"quest-1": {
			ID:                    "quest-1",
			LessonID:              "lesson-1",
			Title:                 "Greetings",
			MinScoreToPassPercent: 70,
			MaxAttempts:           3,
			XPRewardPerCorrect:    5,
			CoinsRewardPerCorrect: 2,
			TimeLimitSeconds:      120,
			Questions: []domain.QuestQuestion{
				{
					ID:    "qq1",
					Order: 1,
					Question: domain.Question{
						ID:     "q1",
						Type:   domain.QuestionMultipleChoice,
						Prompt: "How do you greet someone in the morning?",
						OptionsByLetter: map[string]string{
							"A": "Selamat pagi",
							"B": "Selamat malam",
							"C": "Sampai jumpa",
						},
						CorrectLetter: "A",
						Points:        10,
					},
				},
				{
					ID:    "qq2",
					Order: 2,
					Question: domain.Question{
						ID:            "q2",
						Type:          domain.QuestionTrueFalse,
						Prompt:        "\"Terima kasih\" means thank you.",
						CorrectAnswer: domain.LabelTrue,
						Points:        10,
					},
				},
				{
					ID:             "qq3",
					Order:          3,
					PointsOverride: &bonus,
					Question: domain.Question{
						ID:            "q3",
						Type:          domain.QuestionShortAnswer,
						Prompt:        "Translate \"good night\".",
						CorrectAnswer: "Selamat malam",
						Points:        10,
					},
				},
			},
		},
	}
}
