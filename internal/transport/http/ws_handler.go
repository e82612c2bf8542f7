package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"lingo-quest-service/internal/app"
	"lingo-quest-service/internal/domain"
	"github.com/gorilla/websocket"
)

// WSHandler runs attempt sessions over a websocket: questions are pushed on
// connect, answers are collected as the student works, and the attempt is
// graded on an explicit submit or when the countdown expires.
type WSHandler struct {
	service  *app.AttemptService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.AttemptService) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	QuestionID string `json:"questionId"`
	Answer     string `json:"answer"`
}

type answerAck struct {
	QuestionID string `json:"questionId"`
	Answered   int    `json:"answered"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades HTTP requests to websockets and wires them into the
// attempt use cases.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	questID := r.URL.Query().Get("questId")
	studentID := r.URL.Query().Get("studentId")
	if questID == "" || studentID == "" {
		http.Error(w, "missing questId or studentId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	// The attempt limit is enforced here, before any questions are shown.
	view, err := h.service.Start(r.Context(), studentID, questID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}

	send := make(chan outboundMessage[any], 16)
	writerDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	send <- outboundMessage[any]{Type: "questions", Payload: view}

	var (
		mu      sync.Mutex
		answers = make(domain.SubmittedAnswers)
		once    sync.Once
	)

	// finish grades whatever answers exist; the once guard makes an explicit
	// submit racing the countdown expiry submit exactly once.
	finish := func() {
		once.Do(func() {
			mu.Lock()
			submitted := make(domain.SubmittedAnswers, len(answers))
			for id, answer := range answers {
				submitted[id] = answer
			}
			mu.Unlock()

			summary, err := h.service.Submit(r.Context(), studentID, questID, submitted)
			if err != nil {
				if errors.Is(err, domain.ErrAttemptSaveFailed) {
					// The score is still shown; the client may retry the save.
					send <- outboundMessage[any]{Type: "result", Payload: summary}
				}
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
				return
			}
			send <- outboundMessage[any]{Type: "result", Payload: summary}
		})
	}

	var timer *time.Timer
	if view.TimeLimitSeconds > 0 {
		timer = time.AfterFunc(time.Duration(view.TimeLimitSeconds)*time.Second, func() {
			finish()
			conn.Close()
		})
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.QuestionID == "" {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid answer payload"}}
				continue
			}
			mu.Lock()
			answers[payload.QuestionID] = payload.Answer
			answered := len(answers)
			mu.Unlock()
			send <- outboundMessage[any]{Type: "answerAck", Payload: answerAck{QuestionID: payload.QuestionID, Answered: answered}}
		case "submit":
			finish()
		default:
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}
		}
		if inbound.Type == "submit" {
			break
		}
	}

	// A disconnect without a submit does not consume an attempt. The empty
	// Do blocks until an in-flight countdown submission has finished its
	// sends and keeps a late timer fire from submitting after close.
	if timer != nil {
		timer.Stop()
	}
	once.Do(func() {})
	close(send)
	<-writerDone
}
