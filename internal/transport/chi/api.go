package chi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

// ErrorCode is the machine-readable code of an error response.
type ErrorCode string

const (
	ErrorCodeBadRequest         ErrorCode = "bad_request"
	ErrorCodeUnauthorized       ErrorCode = "unauthorized"
	ErrorCodeInvalidDocID       ErrorCode = "invalid_doc_id"
	ErrorCodeEmptyMessage       ErrorCode = "empty_message"
	ErrorCodeSessionNotFound    ErrorCode = "session_not_found"
	ErrorCodeBackendUnavailable ErrorCode = "backend_unavailable"
	ErrorCodeCorpusUnavailable  ErrorCode = "corpus_unavailable"
	ErrorCodeLLMNotConfigured   ErrorCode = "llm_not_configured"
	ErrorCodeLLMUnavailable     ErrorCode = "llm_unavailable"
	ErrorCodeInternalError      ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// DocIDParam is the raw user document id from the path.
type DocIDParam = string

// ReplyFormat selects how reply text is rendered.
type ReplyFormat string

const (
	ReplyFormatText ReplyFormat = "text"
	ReplyFormatHTML ReplyFormat = "html"
)

// SendMessageParams are the query parameters of SendMessage.
type SendMessageParams struct {
	Format *ReplyFormat `form:"format,omitempty" json:"format,omitempty"`
}

// CreateSessionRequest is the login body.
type CreateSessionRequest struct {
	DocID string `json:"doc_id"`
}

// SessionResponse describes a user session.
type SessionResponse struct {
	DocID           string    `json:"doc_id"`
	UserID          int64     `json:"user_id,omitempty"`
	ChatID          string    `json:"chat_id"`
	LocalChat       bool      `json:"local_chat"`
	OfflineMessages int       `json:"offline_messages"`
	CreatedAt       time.Time `json:"created_at"`
}

// SendMessageRequest is a user chat message.
type SendMessageRequest struct {
	Message string `json:"message"`
}

// ReplyResponse is the bot answer to a message.
type ReplyResponse struct {
	Text       string    `json:"text"`
	HTML       *string   `json:"html,omitempty"`
	Source     string    `json:"source"`
	Fallback   bool      `json:"fallback"`
	Score      *float64  `json:"score,omitempty"`
	Similarity *float64  `json:"similarity,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// MessageItem is one exchange of a chat history.
type MessageItem struct {
	Message   string    `json:"message"`
	Response  string    `json:"response,omitempty"`
	Score     *float64  `json:"score,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// MessageListResponse is a chat history.
type MessageListResponse struct {
	Items []MessageItem `json:"items"`
}

// SentimentBreakdown holds rounded sentiment percentages.
type SentimentBreakdown struct {
	Positive int `json:"positive"`
	Neutral  int `json:"neutral"`
	Negative int `json:"negative"`
}

// TrendPoint is one day of the sentiment trend.
type TrendPoint struct {
	Day     string `json:"day"`
	Label   string `json:"label"`
	Percent int    `json:"percent"`
}

// UserDashboardResponse is the user dashboard.
type UserDashboardResponse struct {
	TotalMessages int                `json:"total_messages"`
	Sentiment     SentimentBreakdown `json:"sentiment"`
	Trend         []TrendPoint       `json:"trend"`
	ChatScore     *float64           `json:"chat_score,omitempty"`
	Offline       bool               `json:"offline"`
}

// KeywordItem is a frequent word of the admin overview.
type KeywordItem struct {
	Word      string `json:"word"`
	Count     int    `json:"count"`
	Sentiment string `json:"sentiment"`
}

// RecentChatItem is a row of the admin recent chats table.
type RecentChatItem struct {
	ChatID          string    `json:"chat_id"`
	DocID           int64     `json:"doc_id"`
	Messages        int       `json:"messages"`
	Sentiment       string    `json:"sentiment"`
	LastAt          time.Time `json:"last_at"`
	DurationMinutes int       `json:"duration_minutes"`
}

// AdminOverviewResponse is the admin panel aggregate.
type AdminOverviewResponse struct {
	TotalUsers    int                `json:"total_users"`
	TotalChats    int                `json:"total_chats"`
	TotalMessages int                `json:"total_messages"`
	AvgSentiment  int                `json:"avg_sentiment"`
	TopKeywords   []KeywordItem      `json:"top_keywords"`
	Hourly        []int              `json:"hourly"`
	RecentChats   []RecentChatItem   `json:"recent_chats"`
	Distribution  SentimentBreakdown `json:"distribution"`
}

// LLMStatusResponse is the LLM probe outcome.
type LLMStatusResponse struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
	Via     string `json:"via"`
}

// HealthResponse is the health report.
type HealthResponse struct {
	Status         string            `json:"status"`
	Checks         map[string]string `json:"checks"`
	ActiveSessions *int              `json:"active_sessions,omitempty"`
}

// ServerInterface is the set of HTTP operations of the gateway.
type ServerInterface interface {
	// (POST /api/v1/sessions)
	CreateSession(w http.ResponseWriter, r *http.Request)
	// (DELETE /api/v1/sessions/{doc_id})
	DeleteSession(w http.ResponseWriter, r *http.Request, docID DocIDParam)
	// (DELETE /api/v1/sessions/{doc_id}/chat)
	ResetChat(w http.ResponseWriter, r *http.Request, docID DocIDParam)
	// (POST /api/v1/chats/{doc_id}/messages)
	SendMessage(w http.ResponseWriter, r *http.Request, docID DocIDParam, params SendMessageParams)
	// (GET /api/v1/chats/{doc_id}/messages)
	ListMessages(w http.ResponseWriter, r *http.Request, docID DocIDParam)
	// (GET /api/v1/chats/{doc_id}/dashboard)
	GetUserDashboard(w http.ResponseWriter, r *http.Request, docID DocIDParam)
	// (GET /api/v1/admin/overview)
	GetAdminOverview(w http.ResponseWriter, r *http.Request)
	// (GET /api/v1/llm/status)
	GetLLMStatus(w http.ResponseWriter, r *http.Request)
	// (GET /health)
	HealthCheck(w http.ResponseWriter, r *http.Request)
	// (GET /metrics)
	Metrics(w http.ResponseWriter, r *http.Request)
}

// InvalidParamFormatError reports a parameter that failed to bind.
type InvalidParamFormatError struct {
	ParamName string
	Err       error
}

func (e *InvalidParamFormatError) Error() string {
	return fmt.Sprintf("invalid format for parameter %s: %s", e.ParamName, e.Err.Error())
}

func (e *InvalidParamFormatError) Unwrap() error { return e.Err }

// ChiServerOptions configures route registration.
type ChiServerOptions struct {
	BaseRouter chi.Router
	// AdminMiddlewares wrap only the admin routes.
	AdminMiddlewares []func(http.Handler) http.Handler
	ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

// HandlerWithOptions registers every operation of si on the base router.
func HandlerWithOptions(si ServerInterface, options ChiServerOptions) http.Handler {
	r := options.BaseRouter
	if r == nil {
		r = chi.NewRouter()
	}
	if options.ErrorHandlerFunc == nil {
		options.ErrorHandlerFunc = func(w http.ResponseWriter, _ *http.Request, err error) {
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
	}
	w := &serverInterfaceWrapper{handler: si, errorHandlerFunc: options.ErrorHandlerFunc}

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/sessions", si.CreateSession)
		r.Delete("/sessions/{doc_id}", w.withDocID(si.DeleteSession))
		r.Delete("/sessions/{doc_id}/chat", w.withDocID(si.ResetChat))
		r.Post("/chats/{doc_id}/messages", w.sendMessage)
		r.Get("/chats/{doc_id}/messages", w.withDocID(si.ListMessages))
		r.Get("/chats/{doc_id}/dashboard", w.withDocID(si.GetUserDashboard))
		r.Get("/llm/status", si.GetLLMStatus)
		r.Group(func(r chi.Router) {
			r.Use(options.AdminMiddlewares...)
			r.Get("/admin/overview", si.GetAdminOverview)
		})
	})
	r.Get("/health", si.HealthCheck)
	r.Get("/metrics", si.Metrics)

	return r
}

type serverInterfaceWrapper struct {
	handler          ServerInterface
	errorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

func (siw *serverInterfaceWrapper) bindDocID(w http.ResponseWriter, r *http.Request) (DocIDParam, bool) {
	var docID DocIDParam
	err := runtime.BindStyledParameterWithOptions("simple", "doc_id", chi.URLParam(r, "doc_id"), &docID,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		siw.errorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "doc_id", Err: err})
		return "", false
	}
	return docID, true
}

func (siw *serverInterfaceWrapper) withDocID(
	h func(w http.ResponseWriter, r *http.Request, docID DocIDParam),
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		docID, ok := siw.bindDocID(w, r)
		if !ok {
			return
		}
		h(w, r, docID)
	}
}

func (siw *serverInterfaceWrapper) sendMessage(w http.ResponseWriter, r *http.Request) {
	docID, ok := siw.bindDocID(w, r)
	if !ok {
		return
	}

	var params SendMessageParams
	err := runtime.BindQueryParameter("form", true, false, "format", r.URL.Query(), &params.Format)
	if err != nil {
		siw.errorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "format", Err: err})
		return
	}

	siw.handler.SendMessage(w, r, docID, params)
}
