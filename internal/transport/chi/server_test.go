package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ingelean/leanbot/internal/db/memory"
	"github.com/ingelean/leanbot/internal/domain"
	"github.com/ingelean/leanbot/internal/domain/chat"
	"github.com/ingelean/leanbot/internal/domain/corpus"
	"github.com/ingelean/leanbot/internal/domain/synonym"
	"github.com/ingelean/leanbot/internal/domain/user"
	sessionrepo "github.com/ingelean/leanbot/internal/repository/session"
	chatuc "github.com/ingelean/leanbot/internal/usecase/chat"
	dashboarduc "github.com/ingelean/leanbot/internal/usecase/dashboard"
	healthuc "github.com/ingelean/leanbot/internal/usecase/health"
	"github.com/ingelean/leanbot/internal/usecase/match"
	sessionuc "github.com/ingelean/leanbot/internal/usecase/session"
)

// --- Fakes ---

type fakeBackend struct {
	chats    []chat.Conversation
	chatsErr error
}

func (f *fakeBackend) History(_ context.Context, _ user.DocID) ([]chat.Message, error) {
	return nil, domain.ErrBackendUnavailable
}

func (f *fakeBackend) AllChats(_ context.Context) ([]chat.Conversation, error) {
	return f.chats, f.chatsErr
}

func (f *fakeBackend) ChatScore(_ context.Context, _ string) (*float64, error) {
	return nil, domain.ErrBackendUnavailable
}

type availability bool

func (a availability) Available() bool { return bool(a) }

// --- Helpers ---

type testEnv struct {
	handler http.Handler
	backend *fakeBackend
}

func newTestEnv(t *testing.T, backendUp bool, apiKeys []string) *testEnv {
	t.Helper()

	store := memory.NewStore()
	sessions := sessionuc.New(sessionrepo.New(store, time.Hour), nil, nil, nil)

	faq := corpus.New([]corpus.Entry{
		{Question: "¿Qué es LEAN BOT?", Answer: "Un **asistente** virtual."},
		{Question: "¿Quiénes son los participantes?", Answer: "El equipo de investigación."},
	})
	matcher := match.New(faq, synonym.Table{}, match.Config{})
	chatSvc := chatuc.New(nil, nil, sessions, nil).
		WithMatcher(matcher).
		WithPicker(func(int) int { return 0 })

	backend := &fakeBackend{}
	dashboards := dashboarduc.New(backend, availability(backendUp), sessions, nil)
	health := healthuc.New(store, nil, nil, faq.Len()).WithSessionCounter(sessions)

	srv := NewServer(sessions, chatSvc, dashboards, health, zap.NewNop())
	h := HandlerWithOptions(srv, ChiServerOptions{
		BaseRouter:       chi.NewRouter(),
		AdminMiddlewares: []func(http.Handler) http.Handler{BearerAuthMiddleware(apiKeys)},
		ErrorHandlerFunc: func(w http.ResponseWriter, _ *http.Request, err error) {
			writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, err.Error())
		},
	})
	return &testEnv{handler: h, backend: backend}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rr := httptest.NewRecorder()
	e.handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rr.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rr.Body.String())
	}
	return v
}

func expectError(t *testing.T, rr *httptest.ResponseRecorder, status int, code ErrorCode) {
	t.Helper()
	if rr.Code != status {
		t.Fatalf("status = %d, want %d (body %q)", rr.Code, status, rr.Body.String())
	}
	if got := decode[ErrorResponse](t, rr); got.Code != code {
		t.Errorf("code = %q, want %q", got.Code, code)
	}
}

func (e *testEnv) login(t *testing.T, docID string) SessionResponse {
	t.Helper()
	rr := e.do(t, http.MethodPost, "/api/v1/sessions", CreateSessionRequest{DocID: docID})
	if rr.Code != http.StatusOK {
		t.Fatalf("login status = %d (body %q)", rr.Code, rr.Body.String())
	}
	return decode[SessionResponse](t, rr)
}

// --- Sessions ---

func TestCreateSession(t *testing.T) {
	env := newTestEnv(t, false, nil)

	sess := env.login(t, "1020-304")

	if sess.DocID != "1020304" {
		t.Errorf("doc_id = %q, want 1020304", sess.DocID)
	}
	if !sess.LocalChat || !strings.HasPrefix(sess.ChatID, "local-") {
		t.Errorf("expected local chat, got %+v", sess)
	}
}

func TestCreateSession_InvalidDocID(t *testing.T) {
	env := newTestEnv(t, false, nil)

	rr := env.do(t, http.MethodPost, "/api/v1/sessions", CreateSessionRequest{DocID: "ab"})

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
	resp := decode[ErrorResponse](t, rr)
	if resp.Code != ErrorCodeInvalidDocID {
		t.Errorf("code = %q", resp.Code)
	}
	if !strings.Contains(resp.Message, "at least 3 characters") {
		t.Errorf("message = %q, want the validation reason", resp.Message)
	}
}

func TestCreateSession_BadBody(t *testing.T) {
	env := newTestEnv(t, false, nil)

	rr := env.do(t, http.MethodPost, "/api/v1/sessions", "{not json")

	expectError(t, rr, http.StatusBadRequest, ErrorCodeBadRequest)
}

func TestResetChat(t *testing.T) {
	env := newTestEnv(t, false, nil)
	before := env.login(t, "123456")
	env.do(t, http.MethodPost, "/api/v1/chats/123456/messages", SendMessageRequest{Message: "hola"})

	rr := env.do(t, http.MethodDelete, "/api/v1/sessions/123456/chat", nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	after := decode[SessionResponse](t, rr)
	if after.OfflineMessages != 0 {
		t.Errorf("offline messages = %d, want 0", after.OfflineMessages)
	}
	if after.ChatID == before.ChatID {
		t.Error("expected a new chat id")
	}
}

func TestResetChat_NoSession(t *testing.T) {
	env := newTestEnv(t, false, nil)

	rr := env.do(t, http.MethodDelete, "/api/v1/sessions/123456/chat", nil)

	expectError(t, rr, http.StatusNotFound, ErrorCodeSessionNotFound)
}

func TestDeleteSession(t *testing.T) {
	env := newTestEnv(t, false, nil)
	env.login(t, "123456")

	rr := env.do(t, http.MethodDelete, "/api/v1/sessions/123456", nil)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rr.Code)
	}

	rr = env.do(t, http.MethodGet, "/api/v1/chats/123456/messages", nil)
	expectError(t, rr, http.StatusNotFound, ErrorCodeSessionNotFound)
}

// --- Chat ---

func TestSendMessage_CorpusAnswer(t *testing.T) {
	env := newTestEnv(t, false, nil)
	env.login(t, "123456")

	rr := env.do(t, http.MethodPost, "/api/v1/chats/123456/messages", SendMessageRequest{Message: "¿Qué es LEAN BOT?"})

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d (body %q)", rr.Code, rr.Body.String())
	}
	if got := rr.Header().Get("X-Reply-Source"); got != "corpus" {
		t.Errorf("X-Reply-Source = %q", got)
	}
	resp := decode[ReplyResponse](t, rr)
	if resp.Text != "Un **asistente** virtual." {
		t.Errorf("text = %q", resp.Text)
	}
	if !resp.Fallback || resp.Source != "corpus" {
		t.Errorf("unexpected source: %+v", resp)
	}
	if resp.Similarity == nil || *resp.Similarity < 0.99 {
		t.Errorf("similarity = %v, want ~1", resp.Similarity)
	}
	if resp.HTML != nil {
		t.Error("html should be absent without format=html")
	}

	rr = env.do(t, http.MethodGet, "/api/v1/chats/123456/messages", nil)
	list := decode[MessageListResponse](t, rr)
	if len(list.Items) != 1 || list.Items[0].Response != resp.Text {
		t.Errorf("history = %+v", list.Items)
	}
}

func TestSendMessage_HTML(t *testing.T) {
	env := newTestEnv(t, false, nil)
	env.login(t, "123456")

	rr := env.do(t, http.MethodPost, "/api/v1/chats/123456/messages?format=html",
		SendMessageRequest{Message: "qué es lean bot"})

	resp := decode[ReplyResponse](t, rr)
	if resp.HTML == nil || !strings.Contains(*resp.HTML, "<strong>asistente</strong>") {
		t.Errorf("html = %v", resp.HTML)
	}
}

func TestSendMessage_InvalidFormat(t *testing.T) {
	env := newTestEnv(t, false, nil)
	env.login(t, "123456")

	rr := env.do(t, http.MethodPost, "/api/v1/chats/123456/messages?format=xml", SendMessageRequest{Message: "hola"})

	expectError(t, rr, http.StatusBadRequest, ErrorCodeBadRequest)
}

func TestSendMessage_Intent(t *testing.T) {
	env := newTestEnv(t, false, nil)
	env.login(t, "123456")

	rr := env.do(t, http.MethodPost, "/api/v1/chats/123456/messages", SendMessageRequest{Message: "hola"})

	resp := decode[ReplyResponse](t, rr)
	if resp.Source != "intent" || resp.Similarity != nil {
		t.Errorf("unexpected reply: %+v", resp)
	}
}

func TestSendMessage_Errors(t *testing.T) {
	env := newTestEnv(t, false, nil)
	env.login(t, "123456")

	tests := []struct {
		name   string
		path   string
		body   any
		status int
		code   ErrorCode
	}{
		{"empty message", "/api/v1/chats/123456/messages", SendMessageRequest{Message: "   "},
			http.StatusBadRequest, ErrorCodeEmptyMessage},
		{"no session", "/api/v1/chats/999999/messages", SendMessageRequest{Message: "hola"},
			http.StatusNotFound, ErrorCodeSessionNotFound},
		{"invalid doc id", "/api/v1/chats/x!/messages", SendMessageRequest{Message: "hola"},
			http.StatusBadRequest, ErrorCodeInvalidDocID},
		{"bad body", "/api/v1/chats/123456/messages", "[]",
			http.StatusBadRequest, ErrorCodeBadRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := env.do(t, http.MethodPost, tc.path, tc.body)
			expectError(t, rr, tc.status, tc.code)
		})
	}
}

// --- Dashboards ---

func TestGetUserDashboard_Offline(t *testing.T) {
	env := newTestEnv(t, false, nil)
	env.login(t, "123456")
	env.do(t, http.MethodPost, "/api/v1/chats/123456/messages", SendMessageRequest{Message: "hola"})
	env.do(t, http.MethodPost, "/api/v1/chats/123456/messages", SendMessageRequest{Message: "gracias"})

	rr := env.do(t, http.MethodGet, "/api/v1/chats/123456/dashboard", nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	d := decode[UserDashboardResponse](t, rr)
	if d.TotalMessages != 2 || !d.Offline {
		t.Errorf("dashboard = %+v", d)
	}
	if d.Sentiment.Neutral != 100 {
		t.Errorf("unscored messages should be neutral: %+v", d.Sentiment)
	}
	if len(d.Trend) != 7 {
		t.Errorf("trend length = %d", len(d.Trend))
	}
}

func TestGetAdminOverview(t *testing.T) {
	env := newTestEnv(t, true, []string{"admin-key"})
	env.backend.chats = []chat.Conversation{{ChatID: "c1", DocID: 1, Messages: []chat.Message{
		{Message: "Necesito ayuda", Timestamp: time.Now()},
	}}}

	rr := env.do(t, http.MethodGet, "/api/v1/admin/overview", nil)
	expectError(t, rr, http.StatusUnauthorized, ErrorCodeUnauthorized)

	rr = env.do(t, http.MethodGet, "/api/v1/admin/overview", nil, "Authorization", "Bearer admin-key")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d (body %q)", rr.Code, rr.Body.String())
	}
	o := decode[AdminOverviewResponse](t, rr)
	if o.TotalChats != 1 || o.TotalUsers != 1 || len(o.Hourly) != 24 {
		t.Errorf("overview = %+v", o)
	}
	if len(o.RecentChats) != 1 || o.RecentChats[0].ChatID != "c1" {
		t.Errorf("recent chats = %+v", o.RecentChats)
	}
}

func TestGetAdminOverview_BackendDown(t *testing.T) {
	env := newTestEnv(t, false, nil)

	rr := env.do(t, http.MethodGet, "/api/v1/admin/overview", nil)

	expectError(t, rr, http.StatusServiceUnavailable, ErrorCodeBackendUnavailable)
}

func TestGetAdminOverview_BackendStatus(t *testing.T) {
	env := newTestEnv(t, true, nil)
	env.backend.chatsErr = domain.NewBackendStatus("all_chats", http.StatusInternalServerError)

	rr := env.do(t, http.MethodGet, "/api/v1/admin/overview", nil)

	if rr.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rr.Code)
	}
	if got := rr.Header().Get("X-Backend-Status"); got != "500" {
		t.Errorf("X-Backend-Status = %q", got)
	}
	body := decode[map[string]any](t, rr)
	if body["backend_status"] != float64(500) {
		t.Errorf("body = %v", body)
	}
}

// --- Operational ---

func TestHealthCheck(t *testing.T) {
	env := newTestEnv(t, false, nil)
	env.do(t, http.MethodPost, "/api/v1/sessions", CreateSessionRequest{DocID: "1234567"})

	rr := env.do(t, http.MethodGet, "/health", nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	resp := decode[HealthResponse](t, rr)
	if resp.Status != "ok" || resp.Checks["sessions"] != "ok" || resp.Checks["corpus"] != "ok" {
		t.Errorf("health = %+v", resp)
	}
	if resp.ActiveSessions == nil || *resp.ActiveSessions != 1 {
		t.Errorf("active_sessions = %v, want 1", resp.ActiveSessions)
	}
}

func TestGetLLMStatus_NotConfigured(t *testing.T) {
	env := newTestEnv(t, false, nil)

	rr := env.do(t, http.MethodGet, "/api/v1/llm/status", nil)

	resp := decode[LLMStatusResponse](t, rr)
	if resp.OK || resp.Via != "direct" {
		t.Errorf("status = %+v", resp)
	}
}

func TestMetrics(t *testing.T) {
	env := newTestEnv(t, false, nil)

	rr := env.do(t, http.MethodGet, "/metrics", nil)

	if rr.Code != http.StatusOK {
		t.Errorf("status = %d", rr.Code)
	}
}

func TestSafeDomainMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{domain.ErrSessionNotFound, "session not found"},
		{domain.NewBackendStatus("ping", 500), "backend unavailable"},
		{context.DeadlineExceeded, "internal error"},
	}
	for _, tc := range tests {
		if got := safeDomainMessage(tc.err); got != tc.want {
			t.Errorf("safeDomainMessage(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}
