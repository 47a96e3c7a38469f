package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ingelean/leanbot/internal/domain"
	"github.com/ingelean/leanbot/internal/domain/user"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(&Config{BaseURL: srv.URL + "/", Timeout: time.Second})
}

func TestPing(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" || r.Method != http.MethodGet {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"message":"LEAN BOT API funcionando correctamente","version":"2.0"}`))
	})

	if err := c.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}

func TestPing_ServerError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	err := c.Ping(context.Background())
	if !errors.Is(err, domain.ErrBackendUnavailable) {
		t.Fatalf("expected ErrBackendUnavailable, got %v", err)
	}
	var se *domain.BackendStatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusBadGateway || se.Op != "ping" {
		t.Errorf("expected status error for ping/502, got %v", err)
	}
}

func TestPing_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	c := New(&Config{BaseURL: srv.URL, Timeout: 50 * time.Millisecond})

	start := time.Now()
	err := c.Ping(context.Background())
	if !errors.Is(err, domain.ErrBackendUnavailable) {
		t.Fatalf("expected ErrBackendUnavailable, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded in chain, got %v", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Error("timeout not enforced")
	}
}

func TestPing_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New(&Config{BaseURL: url, Timeout: time.Second})
	if err := c.Ping(context.Background()); !errors.Is(err, domain.ErrBackendUnavailable) {
		t.Fatalf("expected ErrBackendUnavailable, got %v", err)
	}
}

func TestConfigureAPIKey(t *testing.T) {
	var got apiKeyRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/config/gemini_api_key" || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("unexpected content type %q", ct)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"status":"success","message":"API key configurada correctamente"}`))
	})

	if err := c.ConfigureAPIKey(context.Background(), "AIza-test"); err != nil {
		t.Fatalf("ConfigureAPIKey: %v", err)
	}
	if got.APIKey != "AIza-test" {
		t.Errorf("expected api_key forwarded, got %q", got.APIKey)
	}
}

func TestConfigureAPIKey_Rejected(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status":"error","message":"API key vacía"}`))
	})

	if err := c.ConfigureAPIKey(context.Background(), " "); !errors.Is(err, domain.ErrBackendUnavailable) {
		t.Fatalf("expected ErrBackendUnavailable, got %v", err)
	}
}

func TestRegisterUser(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/usuarios/" || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var in registerRequest
		_ = json.NewDecoder(r.Body).Decode(&in)
		if in.DocID != 1234567 {
			t.Errorf("expected doc_id 1234567, got %d", in.DocID)
		}
		_, _ = w.Write([]byte(`{
			"id": "42", "doc_id": 1234567,
			"chat": {"id": 77, "mensajes": [
				{"message": "hola", "response": "¡Hola!", "score": "7.5", "timestamp": "2025-03-01T10:00:00.123456"}
			], "score": null}
		}`))
	})

	reg, err := c.RegisterUser(context.Background(), user.DocID(1234567))
	if err != nil {
		t.Fatalf("RegisterUser: %v", err)
	}
	if reg.UserID != 42 || reg.ChatID != "77" || reg.DocID != 1234567 {
		t.Errorf("unexpected registration: %+v", reg)
	}
	if reg.Score != nil {
		t.Errorf("expected nil score, got %v", *reg.Score)
	}
	if len(reg.Messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(reg.Messages))
	}
	m := reg.Messages[0]
	if m.Score == nil || *m.Score != 7.5 {
		t.Errorf("expected score 7.5, got %v", m.Score)
	}
	want := time.Date(2025, 3, 1, 10, 0, 0, 123456000, time.UTC)
	if !m.Timestamp.Equal(want) {
		t.Errorf("expected timestamp %v, got %v", want, m.Timestamp)
	}
}

func TestRegisterUser_MissingChat(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"id": "42", "doc_id": 1234567, "chat": {}}`))
	})

	if _, err := c.RegisterUser(context.Background(), 1234567); !errors.Is(err, domain.ErrBackendUnavailable) {
		t.Fatalf("expected ErrBackendUnavailable, got %v", err)
	}
}

func TestSendMessage(t *testing.T) {
	at := time.Date(2025, 3, 1, 12, 30, 0, 0, time.UTC)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/usuarios/1234567/message" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var in sendMessageRequest
		_ = json.NewDecoder(r.Body).Decode(&in)
		if in.Message != "¿qué es el proyecto?" {
			t.Errorf("unexpected message %q", in.Message)
		}
		if in.Timestamp != "2025-03-01T12:30:00Z" {
			t.Errorf("unexpected timestamp %q", in.Timestamp)
		}
		_, _ = w.Write([]byte(`{"message":"¿qué es el proyecto?","response":"Un estudio.","score":8,"timestamp":"2025-03-01T12:30:01Z"}`))
	})

	msg, err := c.SendMessage(context.Background(), 1234567, "¿qué es el proyecto?", at)
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if msg.Response != "Un estudio." {
		t.Errorf("unexpected response %q", msg.Response)
	}
	if msg.Score == nil || *msg.Score != 8 {
		t.Errorf("expected score 8, got %v", msg.Score)
	}
}

func TestSendMessage_FillsMissingFields(t *testing.T) {
	at := time.Date(2025, 3, 1, 12, 30, 0, 0, time.UTC)
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"response":"ok"}`))
	})

	msg, err := c.SendMessage(context.Background(), 1234567, "hola", at)
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if msg.Message != "hola" || !msg.Timestamp.Equal(at) || msg.Score != nil {
		t.Errorf("unexpected message: %+v", msg)
	}
}

func TestSendMessage_MalformedBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html>oops</html>`))
	})

	_, err := c.SendMessage(context.Background(), 1234567, "hola", time.Now())
	if !errors.Is(err, domain.ErrBackendUnavailable) {
		t.Fatalf("expected ErrBackendUnavailable, got %v", err)
	}
}

func TestHistory(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/usuarios/1234567/messages" || r.Method != http.MethodGet {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"mensajes":[
			{"message":"a","response":"b","score":6,"timestamp":"2025-03-01T10:00:00Z"},
			{"message":"c","response":"d","timestamp":"2025-03-01 10:05:00"}
		]}`))
	})

	msgs, err := c.History(context.Background(), 1234567)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[1].Score != nil {
		t.Error("expected nil score for unscored message")
	}
	if msgs[1].Timestamp.Minute() != 5 {
		t.Errorf("expected naive timestamp parsed, got %v", msgs[1].Timestamp)
	}
}

func TestChatScore(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chats/77/score" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"score": 6.5}`))
	})

	score, err := c.ChatScore(context.Background(), "77")
	if err != nil {
		t.Fatalf("ChatScore: %v", err)
	}
	if score == nil || *score != 6.5 {
		t.Errorf("expected 6.5, got %v", score)
	}
}

func TestAllChats(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/admin/all-chats" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"chats":[
			{"doc_id": 111, "mensajes": [{"message":"hola","score":9,"timestamp":"2025-03-01T10:00:00Z"}], "score": 9},
			{"doc_id": null, "mensajes": [], "score": null}
		]}`))
	})

	convs, err := c.AllChats(context.Background())
	if err != nil {
		t.Fatalf("AllChats: %v", err)
	}
	if len(convs) != 2 {
		t.Fatalf("expected 2 chats, got %d", len(convs))
	}
	if convs[0].DocID != 111 || len(convs[0].Messages) != 1 {
		t.Errorf("unexpected first chat: %+v", convs[0])
	}
	if convs[1].DocID != 0 || convs[1].Score != nil {
		t.Errorf("unexpected second chat: %+v", convs[1])
	}
}

func TestTestLLM(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		wantOK bool
	}{
		{"success", `{"status":"success","message":"Conexión con Gemini API establecida correctamente","lean_bot":"LEAN BOT listo para funcionar"}`, true},
		{"error", `{"status":"error","message":"No se pudo conectar con Gemini API","lean_bot":"LEAN BOT no disponible"}`, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(tc.body))
			})

			st, err := c.TestLLM(context.Background())
			if err != nil {
				t.Fatalf("TestLLM: %v", err)
			}
			if st.OK != tc.wantOK || st.Via != "backend" || st.Message == "" {
				t.Errorf("unexpected status: %+v", st)
			}
		})
	}
}

func TestFlexScore(t *testing.T) {
	tests := []struct {
		in      string
		want    *float64
		wantErr bool
	}{
		{`7`, ptr(7), false},
		{`"4.5"`, ptr(4.5), false},
		{`null`, nil, false},
		{`""`, nil, false},
		{`"high"`, nil, true},
	}

	for _, tc := range tests {
		var s flexScore
		err := json.Unmarshal([]byte(tc.in), &s)
		if (err != nil) != tc.wantErr {
			t.Errorf("%s: unexpected error state: %v", tc.in, err)
			continue
		}
		if tc.wantErr {
			continue
		}
		switch {
		case tc.want == nil && s.v != nil:
			t.Errorf("%s: expected nil, got %v", tc.in, *s.v)
		case tc.want != nil && (s.v == nil || *s.v != *tc.want):
			t.Errorf("%s: expected %v, got %v", tc.in, *tc.want, s.v)
		}
	}
}

func ptr(f float64) *float64 { return &f }
