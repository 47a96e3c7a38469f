// Package chi is the HTTP transport of the gateway, served by a chi router.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ingelean/leanbot/internal/domain"
	"github.com/ingelean/leanbot/internal/domain/chat"
	"github.com/ingelean/leanbot/internal/domain/user"
	"github.com/ingelean/leanbot/internal/logger"
	"github.com/ingelean/leanbot/internal/metrics"
	chatuc "github.com/ingelean/leanbot/internal/usecase/chat"
	dashboarduc "github.com/ingelean/leanbot/internal/usecase/dashboard"
	healthuc "github.com/ingelean/leanbot/internal/usecase/health"
	sessionuc "github.com/ingelean/leanbot/internal/usecase/session"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server implements ServerInterface.
type Server struct {
	sessions      *sessionuc.Service
	chat          *chatuc.Service
	dashboards    *dashboarduc.Service
	health        *healthuc.Service
	markdown      *Markdown
	logger        *zap.Logger
	errorHandlers []errorHandler
}

var _ ServerInterface = (*Server)(nil)

// NewServer creates an HTTP API server.
func NewServer(
	sessions *sessionuc.Service,
	chatSvc *chatuc.Service,
	dashboards *dashboarduc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		sessions:   sessions,
		chat:       chatSvc,
		dashboards: dashboards,
		health:     health,
		markdown:   NewMarkdown(),
		logger:     logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidDocID, http.StatusBadRequest, ErrorCodeInvalidDocID),
		sentinelHandler(domain.ErrEmptyMessage, http.StatusBadRequest, ErrorCodeEmptyMessage),
		sentinelHandler(domain.ErrSessionNotFound, http.StatusNotFound, ErrorCodeSessionNotFound),
		backendStatusHandler,
		sentinelHandler(domain.ErrBackendUnavailable, http.StatusServiceUnavailable, ErrorCodeBackendUnavailable),
		sentinelHandler(domain.ErrCorpusUnavailable, http.StatusServiceUnavailable, ErrorCodeCorpusUnavailable),
		sentinelHandler(domain.ErrLLMNotConfigured, http.StatusServiceUnavailable, ErrorCodeLLMNotConfigured),
		sentinelHandler(domain.ErrLLMUnavailable, http.StatusBadGateway, ErrorCodeLLMUnavailable),
	}
	return s
}

// CreateSession handles POST /api/v1/sessions.
func (s *Server) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	sess, err := s.sessions.Login(r.Context(), req.DocID)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, sessionToResponse(sess))
}

// DeleteSession handles DELETE /api/v1/sessions/{doc_id}.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request, rawDocID DocIDParam) {
	docID, err := user.ParseDocID(rawDocID)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	if err := s.sessions.Logout(r.Context(), docID); err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ResetChat handles DELETE /api/v1/sessions/{doc_id}/chat.
func (s *Server) ResetChat(w http.ResponseWriter, r *http.Request, rawDocID DocIDParam) {
	docID, err := user.ParseDocID(rawDocID)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	sess, err := s.sessions.Reset(r.Context(), docID)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, sessionToResponse(sess))
}

// SendMessage handles POST /api/v1/chats/{doc_id}/messages.
func (s *Server) SendMessage(w http.ResponseWriter, r *http.Request, rawDocID DocIDParam, params SendMessageParams) {
	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	format := ReplyFormatText
	if params.Format != nil {
		format = *params.Format
	}
	if format != ReplyFormatText && format != ReplyFormatHTML {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "format must be text or html")
		return
	}

	docID, err := user.ParseDocID(rawDocID)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	r = r.WithContext(logger.With(r.Context(), zap.Stringer("doc_id", docID)))
	ctx := r.Context()
	if _, err := s.sessions.Get(ctx, docID); err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	reply, err := s.chat.Reply(ctx, docID, req.Message)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	resp := replyToResponse(reply)
	if format == ReplyFormatHTML {
		html, err := s.markdown.Render(reply.Text)
		if err != nil {
			logger.FromContextOr(ctx, s.logger).Warn("Markdown rendering failed", zap.Error(err))
		} else {
			resp.HTML = &html
		}
	}

	w.Header().Set(metrics.ReplySourceHeader, string(reply.Source))
	writeJSON(w, http.StatusOK, resp)
}

// ListMessages handles GET /api/v1/chats/{doc_id}/messages.
func (s *Server) ListMessages(w http.ResponseWriter, r *http.Request, rawDocID DocIDParam) {
	docID, err := user.ParseDocID(rawDocID)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	r = r.WithContext(logger.With(r.Context(), zap.Stringer("doc_id", docID)))
	msgs, err := s.chat.History(r.Context(), docID)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	items := make([]MessageItem, len(msgs))
	for i, m := range msgs {
		items[i] = messageToItem(m)
	}
	writeJSON(w, http.StatusOK, MessageListResponse{Items: items})
}

// GetUserDashboard handles GET /api/v1/chats/{doc_id}/dashboard.
func (s *Server) GetUserDashboard(w http.ResponseWriter, r *http.Request, rawDocID DocIDParam) {
	docID, err := user.ParseDocID(rawDocID)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	r = r.WithContext(logger.With(r.Context(), zap.Stringer("doc_id", docID)))
	d, err := s.dashboards.User(r.Context(), docID)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	trend := make([]TrendPoint, len(d.Trend))
	for i, p := range d.Trend {
		trend[i] = TrendPoint{Day: p.Day, Label: p.Label, Percent: p.Percent}
	}
	writeJSON(w, http.StatusOK, UserDashboardResponse{
		TotalMessages: d.TotalMessages,
		Sentiment:     breakdownToResponse(d.Sentiment),
		Trend:         trend,
		ChatScore:     d.ChatScore,
		Offline:       d.Offline,
	})
}

// GetAdminOverview handles GET /api/v1/admin/overview.
func (s *Server) GetAdminOverview(w http.ResponseWriter, r *http.Request) {
	o, err := s.dashboards.Overview(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, overviewToResponse(o))
}

// GetLLMStatus handles GET /api/v1/llm/status.
func (s *Server) GetLLMStatus(w http.ResponseWriter, r *http.Request) {
	st := s.health.LLMStatus(r.Context())
	writeJSON(w, http.StatusOK, LLMStatusResponse{OK: st.OK, Message: st.Message, Via: st.Via})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	// A degraded gateway still answers from its local fallback.
	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status:         string(report.Status),
		Checks:         checks,
		ActiveSessions: report.ActiveSessions,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	// Validation errors carry a user-facing reason.
	if errors.Is(err, domain.ErrInvalidDocID) {
		return err.Error()
	}
	sentinels := []error{
		domain.ErrEmptyMessage,
		domain.ErrSessionNotFound,
		domain.ErrBackendUnavailable,
		domain.ErrCorpusUnavailable,
		domain.ErrLLMNotConfigured,
		domain.ErrLLMUnavailable,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// backendStatusHandler reports the upstream status of a failed backend call.
func backendStatusHandler(w http.ResponseWriter, err error, msg string) bool {
	var bse *domain.BackendStatusError
	if !errors.As(err, &bse) {
		return false
	}
	w.Header().Set("X-Backend-Status", strconv.Itoa(bse.StatusCode))
	writeJSON(w, http.StatusBadGateway, map[string]any{
		"code":           ErrorCodeBackendUnavailable,
		"message":        msg,
		"backend_status": bse.StatusCode,
	})
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContextOr(r.Context(), s.logger)
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal error")
}

func sessionToResponse(s user.Session) SessionResponse {
	return SessionResponse{
		DocID:           s.DocID.String(),
		UserID:          s.UserID,
		ChatID:          s.ChatID,
		LocalChat:       s.LocalChat,
		OfflineMessages: len(s.Offline),
		CreatedAt:       s.CreatedAt,
	}
}

func replyToResponse(r chat.Reply) ReplyResponse {
	resp := ReplyResponse{
		Text:      r.Text,
		Source:    string(r.Source),
		Fallback:  r.Source.IsFallback(),
		Score:     r.Score,
		Timestamp: r.Timestamp,
	}
	if r.Source == chat.SourceCorpus || r.Source == chat.SourceLLM {
		sim := r.Similarity
		resp.Similarity = &sim
	}
	return resp
}

func messageToItem(m chat.Message) MessageItem {
	return MessageItem{
		Message:   m.Message,
		Response:  m.Response,
		Score:     m.Score,
		Timestamp: m.Timestamp,
	}
}

func breakdownToResponse(b dashboarduc.Breakdown) SentimentBreakdown {
	return SentimentBreakdown{Positive: b.Positive, Neutral: b.Neutral, Negative: b.Negative}
}

func overviewToResponse(o dashboarduc.Overview) AdminOverviewResponse {
	keywords := make([]KeywordItem, len(o.TopKeywords))
	for i, k := range o.TopKeywords {
		keywords[i] = KeywordItem{Word: k.Word, Count: k.Count, Sentiment: string(k.Sentiment)}
	}
	recent := make([]RecentChatItem, len(o.RecentChats))
	for i, c := range o.RecentChats {
		recent[i] = RecentChatItem{
			ChatID:          c.ChatID,
			DocID:           c.DocID,
			Messages:        c.Messages,
			Sentiment:       string(c.Sentiment),
			LastAt:          c.LastAt,
			DurationMinutes: c.DurationMinutes,
		}
	}
	return AdminOverviewResponse{
		TotalUsers:    o.TotalUsers,
		TotalChats:    o.TotalChats,
		TotalMessages: o.TotalMessages,
		AvgSentiment:  o.AvgSentiment,
		TopKeywords:   keywords,
		Hourly:        o.Hourly[:],
		RecentChats:   recent,
		Distribution:  breakdownToResponse(o.Distribution),
	}
}
