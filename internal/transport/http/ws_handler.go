package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"timed-quiz/internal/app"
	"timed-quiz/internal/domain"
)

type WSHandler struct {
	service       *app.QuizService
	defaultSource string
	clock         app.Clock
	tickInterval  time.Duration
	upgrader      websocket.Upgrader
}

func NewWSHandler(service *app.QuizService, defaultSource string) *WSHandler {
	return &WSHandler{
		service:       service,
		defaultSource: defaultSource,
		clock:         app.SystemClock,
		tickInterval:  time.Second,
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

type startPayload struct {
	Source string `json:"source"`
}

type answerPayload struct {
	QuestionID string `json:"questionId"`
	ChoiceID   string `json:"choiceId"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// questionView leaves out the correct choice and explanation.
type questionView struct {
	ID       string          `json:"id"`
	Category domain.Category `json:"category"`
	Prompt   string          `json:"prompt"`
	Choices  []domain.Choice `json:"choices"`
}

type sessionView struct {
	SessionID      string        `json:"sessionId"`
	Resumed        bool          `json:"resumed"`
	Index          int           `json:"index"`
	Total          int           `json:"total"`
	Answered       int           `json:"answered"`
	Question       *questionView `json:"question,omitempty"`
	ElapsedSeconds int           `json:"elapsedSeconds"`
	Elapsed        string        `json:"elapsed"`
	IsComplete     bool          `json:"isComplete"`
}

type answerResult struct {
	QuestionID      string `json:"questionId"`
	Correct         bool   `json:"correct"`
	CorrectChoiceID string `json:"correctChoiceId"`
	Explanation     string `json:"explanation"`
}

type tickPayload struct {
	ElapsedSeconds int    `json:"elapsedSeconds"`
	Display        string `json:"display"`
}

// ServeWS upgrades HTTP requests to websockets and drives one user's quiz.
// The connection goroutine is the single writer of the session value.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		http.Error(w, "missing userId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctx := r.Context()
	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	tickerDone := make(chan struct{})

	// start time of the running session in ms, 0 while nothing runs
	var startedAt atomic.Int64

	go func() {
		defer close(writerDone)
		failed := false
		for msg := range send {
			if failed {
				continue
			}
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				failed = true
			}
		}
	}()

	go func() {
		defer close(tickerDone)
		ticker := time.NewTicker(h.tickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				start := startedAt.Load()
				if start == 0 {
					continue
				}
				secs := app.ElapsedSeconds(start, h.clock())
				select {
				case send <- outboundMessage[any]{Type: "tick", Payload: tickPayload{ElapsedSeconds: secs, Display: app.FormatTime(secs)}}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	var session domain.Session
	active := false
	sendError := func(msg string) {
		send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: msg}}
	}
	finish := func() {
		done, result := h.service.Finish(ctx, userID, session)
		session = done
		active = false
		startedAt.Store(0)
		send <- outboundMessage[any]{Type: "result", Payload: result}
	}

	if resumed, ok := h.service.Resume(ctx, userID); ok {
		session = resumed
		active = true
		if session.IsComplete {
			finish()
		} else {
			startedAt.Store(session.StartTime)
			send <- outboundMessage[any]{Type: "session", Payload: h.view(session, true)}
		}
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "start":
			var payload startPayload
			if len(inbound.Payload) > 0 {
				if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
					sendError("invalid start payload")
					continue
				}
			}
			source := payload.Source
			if source == "" {
				source = h.defaultSource
			}
			started, err := h.service.Start(ctx, userID, source)
			if err != nil {
				sendError(startErrorMessage(err))
				continue
			}
			session = started
			active = true
			startedAt.Store(session.StartTime)
			send <- outboundMessage[any]{Type: "session", Payload: h.view(session, false)}
		case "answer":
			if !active {
				sendError("no quiz in progress")
				continue
			}
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				sendError("invalid answer payload")
				continue
			}
			next, answer, err := h.service.Answer(ctx, userID, session, payload.QuestionID, payload.ChoiceID)
			if err != nil {
				sendError(err.Error())
				continue
			}
			session = next
			question, _ := findQuestion(session, answer.QuestionID)
			send <- outboundMessage[any]{Type: "answerResult", Payload: answerResult{
				QuestionID:      answer.QuestionID,
				Correct:         answer.IsCorrect,
				CorrectChoiceID: question.CorrectChoiceID,
				Explanation:     question.Explanation,
			}}
			if session.IsComplete {
				finish()
			}
		case "next":
			if !active {
				sendError("no quiz in progress")
				continue
			}
			session = h.service.Next(ctx, userID, session)
			send <- outboundMessage[any]{Type: "session", Payload: h.view(session, false)}
		case "finish":
			if !active {
				sendError("no quiz in progress")
				continue
			}
			finish()
		case "abandon":
			if err := h.service.Abandon(ctx, userID); err != nil {
				log.Printf("abandon %s: %v", userID, err)
			}
			session = domain.Session{}
			active = false
			startedAt.Store(0)
		case "history":
			send <- outboundMessage[any]{Type: "history", Payload: h.service.History(ctx, userID)}
		default:
			sendError("unsupported message type")
		}
	}

	close(closeSignals)
	<-tickerDone
	close(send)
	<-writerDone
}

func (h *WSHandler) view(session domain.Session, resumed bool) sessionView {
	elapsed := h.service.Elapsed(session)
	v := sessionView{
		SessionID:      session.ID,
		Resumed:        resumed,
		Index:          session.CurrentQuestionIndex,
		Total:          len(session.Questions),
		Answered:       len(session.Answers),
		ElapsedSeconds: elapsed,
		Elapsed:        app.FormatTime(elapsed),
		IsComplete:     session.IsComplete,
	}
	if q, ok := h.service.CurrentQuestion(session); ok {
		v.Question = &questionView{ID: q.ID, Category: q.Category, Prompt: q.Prompt, Choices: q.Choices}
	}
	return v
}

func findQuestion(session domain.Session, questionID string) (domain.Question, bool) {
	for _, q := range session.Questions {
		if q.ID == questionID {
			return q, true
		}
	}
	return domain.Question{}, false
}

// startErrorMessage names the shortfall for pool errors so the client can show it.
func startErrorMessage(err error) string {
	var pool *domain.InsufficientPoolError
	if errors.As(err, &pool) {
		return pool.Error()
	}
	if errors.Is(err, domain.ErrSourceNotFound) {
		return "question source not found"
	}
	return "could not load questions"
}
