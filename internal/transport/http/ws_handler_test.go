package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"lingo-quest-service/internal/app"
	"lingo-quest-service/internal/domain"
	"lingo-quest-service/internal/infra/memory"
	"github.com/gorilla/websocket"
)

func TestWebSocketAttemptFlow(t *testing.T) {
	service, _ := newTestService(sampleQuests())
	server := newTestServer(service)
	defer server.Close()

	conn := dial(t, server, "quest-1", "s1")
	defer conn.Close()

	msgType, payload := readNext(conn, t, "questions")
	if msgType != "questions" {
		t.Fatalf("expected questions, got %s", msgType)
	}
	questions, ok := payload["questions"].([]any)
	if !ok || len(questions) != 2 {
		t.Fatalf("expected 2 questions in payload, got %+v", payload)
	}
	for _, q := range questions {
		if _, leaked := q.(map[string]any)["correctLetter"]; leaked {
			t.Fatalf("answer key leaked to client: %+v", q)
		}
	}

	sendAnswer(t, conn, "qq1", "A")
	readNext(conn, t, "answerAck")
	sendAnswer(t, conn, "qq2", "paris")
	readNext(conn, t, "answerAck")

	if err := conn.WriteJSON(map[string]any{"type": "submit"}); err != nil {
		t.Fatalf("write submit: %v", err)
	}

	_, result := readNext(conn, t, "result")
	if passed, _ := result["passed"].(bool); !passed {
		t.Fatalf("expected passing result, got %+v", result)
	}
	if xp, _ := result["xpEarned"].(float64); xp != 10 {
		t.Fatalf("expected 10 xp earned, got %+v", result)
	}
	if n, _ := result["attemptNumber"].(float64); n != 1 {
		t.Fatalf("expected attempt number 1, got %+v", result)
	}
}

func TestWebSocketRejectsWhenAttemptsExhausted(t *testing.T) {
	service, attempts := newTestService(sampleQuests())
	ctx := context.Background()
	for n := 1; n <= domain.DefaultMaxAttempts; n++ {
		if err := attempts.Save(ctx, domain.AttemptRecord{
			StudentID: "s1", QuestID: "quest-1", AttemptNumber: n, CompletedAt: time.Now(),
		}); err != nil {
			t.Fatalf("seed attempt: %v", err)
		}
	}

	server := newTestServer(service)
	defer server.Close()

	conn := dial(t, server, "quest-1", "s1")
	defer conn.Close()

	_, payload := readNext(conn, t, "error")
	if msg, _ := payload["message"].(string); msg != domain.ErrMaxAttemptsReached.Error() {
		t.Fatalf("expected fixed attempt-limit message, got %+v", payload)
	}
}

func TestWebSocketCountdownAutoSubmits(t *testing.T) {
	quests := sampleQuests()
	quest := quests["quest-1"]
	quest.TimeLimitSeconds = 1
	quests["quest-1"] = quest

	service, _ := newTestService(quests)
	server := newTestServer(service)
	defer server.Close()

	conn := dial(t, server, "quest-1", "s1")
	defer conn.Close()

	readNext(conn, t, "questions")
	sendAnswer(t, conn, "qq1", "A")
	readNext(conn, t, "answerAck")

	// No submit: the countdown grades whatever answers exist at expiry.
	_, result := readNext(conn, t, "result")
	if score, _ := result["score"].(float64); score != 10 {
		t.Fatalf("expected auto-submitted partial score 10, got %+v", result)
	}
	if wrong, _ := result["wrongCount"].(float64); wrong != 1 {
		t.Fatalf("expected unanswered question counted wrong, got %+v", result)
	}
}

func newTestService(quests map[string]domain.Quest) (*app.AttemptService, *memory.AttemptStore) {
	attempts := memory.NewAttemptStore()
	repo := memory.NewQuestRepository(memory.NewStaticQuestLoader(quests), time.Minute)
	return app.NewAttemptService(repo, attempts, memory.NewProfileLedger()), attempts
}

func newTestServer(service *app.AttemptService) *httptest.Server {
	wsHandler := NewWSHandler(service)
	mux := http.NewServeMux()
	mux.HandleFunc("/attempts", wsHandler.ServeWS)
	return httptest.NewServer(mux)
}

func dial(t *testing.T, server *httptest.Server, questID, studentID string) *websocket.Conn {
	t.Helper()
	u := "ws" + server.URL[len("http"):] + "/attempts?questId=" + questID + "&studentId=" + studentID
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func sendAnswer(t *testing.T, conn *websocket.Conn, questionID, answer string) {
	t.Helper()
	msg := map[string]any{
		"type": "answer",
		"payload": map[string]any{
			"questionId": questionID,
			"answer":     answer,
		},
	}
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("write answer: %v", err)
	}
}

func readNext(conn *websocket.Conn, t *testing.T, expect string) (string, map[string]any) {
	t.Helper()
	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if expect != "" && msg.Type != expect {
		t.Fatalf("expected type %s, got %s", expect, msg.Type)
	}
	return msg.Type, msg.Payload
}

func sampleQuests() map[string]domain.Quest {
	return map[string]domain.Quest{
		"quest-1": {
			ID:                    "quest-1",
			MinScoreToPassPercent: 70,
			XPRewardPerCorrect:    5,
			CoinsRewardPerCorrect: 2,
			Questions: []domain.QuestQuestion{
				{
					ID:    "qq1",
					Order: 1,
					Question: domain.Question{
						ID:              "q1",
						Type:            domain.QuestionMultipleChoice,
						Prompt:          "What is 2 + 2?",
						OptionsByLetter: map[string]string{"A": "4", "B": "5"},
						CorrectLetter:   "A",
						Points:          10,
					},
				},
				{
					ID:    "qq2",
					Order: 2,
					Question: domain.Question{
						ID:            "q2",
						Type:          domain.QuestionShortAnswer,
						Prompt:        "Capital of France?",
						CorrectAnswer: "Paris",
						Points:        10,
					},
				},
			},
		},
	}
}
