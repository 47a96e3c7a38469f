// Package backend is the REST client for the remote LEAN BOT backend, which owns
// users, chat transcripts, sentiment scores and the backend-side Gemini integration.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ingelean/leanbot/internal/domain"
	"github.com/ingelean/leanbot/internal/domain/chat"
	"github.com/ingelean/leanbot/internal/domain/user"
	"github.com/ingelean/leanbot/internal/metrics"
)

// DefaultTimeout bounds a single backend call.
const DefaultTimeout = 10 * time.Second

// maxBodySize caps decoded responses; admin listings carry every transcript.
const maxBodySize = 16 << 20

// Config holds backend client settings.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Client talks to the backend. One attempt per call, no retries.
type Client struct {
	baseURL string
	timeout time.Duration
	http    *http.Client
	logger  *zap.Logger
}

// New creates a backend client.
func New(cfg *Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		timeout: timeout,
		http:    hc,
		logger:  logger,
	}
}

// Ping checks that the backend answers on its root endpoint.
func (c *Client) Ping(ctx context.Context) error {
	var out rootResponse
	if err := c.do(ctx, "ping", http.MethodGet, "/", nil, &out); err != nil {
		return err
	}
	c.logger.Debug("Backend reachable", zap.String("message", out.Message), zap.String("version", out.Version))
	return nil
}

// ConfigureAPIKey forwards the Gemini API key so the backend can answer with the LLM.
func (c *Client) ConfigureAPIKey(ctx context.Context, apiKey string) error {
	var out statusResponse
	if err := c.do(ctx, "configure_api_key", http.MethodPost, "/config/gemini_api_key", apiKeyRequest{APIKey: apiKey}, &out); err != nil {
		return err
	}
	if out.Status == "error" {
		return fmt.Errorf("configure api key: %s: %w", out.Message, domain.ErrBackendUnavailable)
	}
	return nil
}

// RegisterUser creates the user and its chat, or returns the existing ones.
func (c *Client) RegisterUser(ctx context.Context, docID user.DocID) (user.Registration, error) {
	var out registerResponse
	if err := c.do(ctx, "register_user", http.MethodPost, "/usuarios/", registerRequest{DocID: int64(docID)}, &out); err != nil {
		return user.Registration{}, err
	}

	reg := user.Registration{
		DocID:    docID,
		ChatID:   string(out.Chat.ID),
		Messages: messagesToDomain(out.Chat.Mensajes),
		Score:    out.Chat.Score.v,
	}
	if n, err := parseUserID(string(out.ID)); err == nil {
		reg.UserID = n
	}
	if reg.ChatID == "" {
		return user.Registration{}, fmt.Errorf("register user: empty chat id: %w", domain.ErrBackendUnavailable)
	}
	return reg, nil
}

// SendMessage posts a user message and returns the scored exchange.
func (c *Client) SendMessage(ctx context.Context, docID user.DocID, text string, at time.Time) (chat.Message, error) {
	in := sendMessageRequest{Message: text, Timestamp: at.UTC().Format(time.RFC3339Nano)}
	var out messageDTO
	path := "/usuarios/" + url.PathEscape(docID.String()) + "/message"
	if err := c.do(ctx, "send_message", http.MethodPost, path, in, &out); err != nil {
		return chat.Message{}, err
	}

	msg := out.toDomain()
	if msg.Message == "" {
		msg.Message = text
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = at
	}
	return msg, nil
}

// History returns the user's transcript in backend order.
func (c *Client) History(ctx context.Context, docID user.DocID) ([]chat.Message, error) {
	var out historyResponse
	path := "/usuarios/" + url.PathEscape(docID.String()) + "/messages"
	if err := c.do(ctx, "history", http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return messagesToDomain(out.Mensajes), nil
}

// ChatScore returns the aggregate chat score, nil when the backend has none.
func (c *Client) ChatScore(ctx context.Context, chatID string) (*float64, error) {
	var out scoreResponse
	path := "/chats/" + url.PathEscape(chatID) + "/score"
	if err := c.do(ctx, "chat_score", http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Score.v, nil
}

// AllChats lists every chat with its transcript for the admin overview.
func (c *Client) AllChats(ctx context.Context) ([]chat.Conversation, error) {
	var out allChatsResponse
	if err := c.do(ctx, "all_chats", http.MethodGet, "/admin/all-chats", nil, &out); err != nil {
		return nil, err
	}

	convs := make([]chat.Conversation, 0, len(out.Chats))
	for _, ch := range out.Chats {
		conv := chat.Conversation{
			Messages: messagesToDomain(ch.Mensajes),
			Score:    ch.Score.v,
		}
		if ch.DocID != nil {
			conv.DocID = *ch.DocID
		}
		convs = append(convs, conv)
	}
	return convs, nil
}

// TestLLM asks the backend to probe its Gemini integration.
func (c *Client) TestLLM(ctx context.Context) (chat.LLMStatus, error) {
	var out statusResponse
	if err := c.do(ctx, "test_llm", http.MethodGet, "/test/gemini", nil, &out); err != nil {
		return chat.LLMStatus{}, err
	}
	return chat.LLMStatus{
		OK:      out.Status == "success",
		Message: out.Message,
		Via:     "backend",
	}, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, in, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body io.Reader = http.NoBody
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", op, err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build %s request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.BackendRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		status := "error"
		if errors.Is(err, context.DeadlineExceeded) {
			status = "timeout"
		}
		metrics.BackendRequestsTotal.WithLabelValues(op, status).Inc()
		return fmt.Errorf("%s: %w: %w", op, domain.ErrBackendUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	metrics.BackendRequestsTotal.WithLabelValues(op, statusClass(resp.StatusCode)).Inc()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))
		return domain.NewBackendStatus(op, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodySize)).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w: %w", op, domain.ErrBackendUnavailable, err)
	}
	return nil
}

func statusClass(code int) string {
	return fmt.Sprintf("%dxx", code/100)
}

func parseUserID(s string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse user id %q: %w", s, err)
	}
	return n, nil
}
