package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"timed-quiz/internal/app"
	"timed-quiz/internal/domain"
	"timed-quiz/internal/domain/domaintest"
	"timed-quiz/internal/infra/memory"
)

type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func TestWebSocketQuizFlow(t *testing.T) {
	store := memory.NewKeyValueStore()
	server := newTestServer(t, store, time.Second)
	defer server.Close()

	conn := dial(t, server, "u1")
	defer conn.Close()

	send(t, conn, "start", map[string]any{"source": "en"})
	var view sessionView
	decode(t, readUntil(t, conn, "session"), &view)
	if view.Total != domain.QuizSize || view.Question == nil || view.Resumed {
		t.Fatalf("unexpected initial view %+v", view)
	}

	// answer every question with its correct choice, which is always "<id>-a"
	for i := 0; i < domain.QuizSize; i++ {
		send(t, conn, "answer", map[string]any{"questionId": view.Question.ID, "choiceId": view.Question.ID + "-a"})
		var res answerResult
		decode(t, readUntil(t, conn, "answerResult"), &res)
		if !res.Correct || res.QuestionID != view.Question.ID {
			t.Fatalf("expected correct answer for %s, got %+v", view.Question.ID, res)
		}
		if i == domain.QuizSize-1 {
			break
		}
		send(t, conn, "next", nil)
		decode(t, readUntil(t, conn, "session"), &view)
	}

	var result domain.Result
	decode(t, readUntil(t, conn, "result"), &result)
	if result.CorrectAnswers != domain.QuizSize || result.PercentageScore != 100 {
		t.Fatalf("expected perfect score, got %+v", result)
	}

	send(t, conn, "history", nil)
	var history []domain.Result
	decode(t, readUntil(t, conn, "history"), &history)
	if len(history) != 1 || history[0].SessionID != result.SessionID {
		t.Fatalf("expected archived result, got %+v", history)
	}
}

func TestWebSocketResumesAndTicks(t *testing.T) {
	store := memory.NewKeyValueStore()
	server := newTestServer(t, store, 10*time.Millisecond)
	defer server.Close()

	first := dial(t, server, "u2")
	send(t, first, "start", nil)
	var started sessionView
	decode(t, readUntil(t, first, "session"), &started)
	send(t, first, "answer", map[string]any{"questionId": started.Question.ID, "choiceId": "wrong"})
	var res answerResult
	decode(t, readUntil(t, first, "answerResult"), &res)
	if res.Correct {
		t.Fatalf("expected incorrect answer")
	}
	first.Close()

	second := dial(t, server, "u2")
	defer second.Close()
	var resumed sessionView
	decode(t, readUntil(t, second, "session"), &resumed)
	if !resumed.Resumed || resumed.SessionID != started.SessionID || resumed.Answered != 1 {
		t.Fatalf("expected resumed session with one answer, got %+v", resumed)
	}

	var tick tickPayload
	decode(t, readUntil(t, second, "tick"), &tick)
	if tick.Display != app.FormatTime(tick.ElapsedSeconds) {
		t.Fatalf("tick display %q does not match %d seconds", tick.Display, tick.ElapsedSeconds)
	}
}

func TestWebSocketReportsShortPool(t *testing.T) {
	server := newTestServer(t, memory.NewKeyValueStore(), time.Second)
	defer server.Close()

	conn := dial(t, server, "u3")
	defer conn.Close()

	send(t, conn, "start", map[string]any{"source": "short"})
	var payload errorPayload
	decode(t, readUntil(t, conn, "error"), &payload)
	if payload.Message != "insufficient question pool: 15 available, 20 required" {
		t.Fatalf("unexpected error message %q", payload.Message)
	}
}

func newTestServer(t *testing.T, store app.KeyValueStore, tick time.Duration) *httptest.Server {
	t.Helper()
	loader := memory.NewStaticQuestionLoader(map[string][]domain.Question{
		"en":    domaintest.Pool(10),
		"short": domaintest.PoolOf(domain.CategoryTools, 15),
	})
	service := app.NewQuizService(loader, store, "quiz-state")
	wsHandler := NewWSHandler(service, "en")
	wsHandler.tickInterval = tick

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	return httptest.NewServer(mux)
}

func dial(t *testing.T, server *httptest.Server, userID string) *websocket.Conn {
	t.Helper()
	u := "ws" + server.URL[len("http"):] + "/ws?userId=" + userID
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func send(t *testing.T, conn *websocket.Conn, typ string, payload any) {
	t.Helper()
	msg := map[string]any{"type": typ}
	if payload != nil {
		msg["payload"] = payload
	}
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("write %s: %v", typ, err)
	}
}

// readUntil skips messages of other types, such as ticks.
func readUntil(t *testing.T, conn *websocket.Conn, typ string) json.RawMessage {
	t.Helper()
	for i := 0; i < 200; i++ {
		var msg envelope
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read json waiting for %s: %v", typ, err)
		}
		if msg.Type == typ {
			return msg.Payload
		}
		if msg.Type == "error" && typ != "error" {
			t.Fatalf("unexpected error while waiting for %s: %s", typ, msg.Payload)
		}
	}
	t.Fatalf("no %s message received", typ)
	return nil
}

func decode(t *testing.T, raw json.RawMessage, v any) {
	t.Helper()
	if err := json.Unmarshal(raw, v); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
}
