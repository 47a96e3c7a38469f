package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/ingelean/leanbot/internal/domain"
	"github.com/ingelean/leanbot/internal/metrics"
)

const (
	// DefaultBaseURL is Gemini's OpenAI-compatible endpoint.
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"
	// DefaultModel is the Gemini model used for general questions.
	DefaultModel = "gemini-1.5-flash-latest"
	// DefaultTimeout bounds a single completion.
	DefaultTimeout = 10 * time.Second

	promptPrefix = "Eres un asistente virtual que proporciona respuestas breves y concisas a preguntas generales. " +
		"Limita tus respuestas a 2-3 oraciones. Aquí está mi pregunta: "
	probePrompt = "Responde únicamente con la palabra 'OK' para verificar que la conexión está funcionando."

	answerTemperature = 0.7
	answerMaxTokens   = 150
	probeTemperature  = 0.1
	probeMaxTokens    = 10
	topP              = 0.95
)

// Config holds the LLM client settings.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
	Logger  *zap.Logger
}

// Client answers general questions through an OpenAI-compatible chat completion API.
// The first Ask runs a connectivity probe; its outcome is cached until the next HealthCheck.
type Client struct {
	client  *openai.Client
	apiKey  string
	model   string
	timeout time.Duration
	logger  *zap.Logger

	mu      sync.Mutex
	probed  bool
	working bool
}

// NewClient creates an LLM client.
func NewClient(cfg *Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = strings.TrimRight(baseURL, "/")

	return &Client{
		client:  openai.NewClientWithConfig(clientCfg),
		apiKey:  strings.TrimSpace(cfg.APIKey),
		model:   model,
		timeout: timeout,
		logger:  logger,
	}
}

// Configured reports whether an API key is set.
func (c *Client) Configured() bool { return c.apiKey != "" }

// Model returns the model name.
func (c *Client) Model() string { return c.model }

// Ask returns a short answer to question.
func (c *Client) Ask(ctx context.Context, question string) (string, error) {
	if !c.Configured() {
		return "", domain.ErrLLMNotConfigured
	}
	if !c.ready(ctx) {
		return "", fmt.Errorf("connectivity probe failed: %w", domain.ErrLLMUnavailable)
	}

	answer, err := c.complete(ctx, promptPrefix+question, answerTemperature, answerMaxTokens)
	if err != nil {
		c.logger.Warn("LLM request failed", zap.String("model", c.model), zap.Error(err))
		return "", err
	}
	return answer, nil
}

// HealthCheck runs the connectivity probe and refreshes the cached outcome.
func (c *Client) HealthCheck(ctx context.Context) error {
	if !c.Configured() {
		return domain.ErrLLMNotConfigured
	}
	err := c.probe(ctx)

	c.mu.Lock()
	c.probed, c.working = true, err == nil
	c.mu.Unlock()
	return err
}

func (c *Client) ready(ctx context.Context) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.probed {
		err := c.probe(ctx)
		if err != nil {
			c.logger.Warn("LLM connectivity probe failed", zap.String("model", c.model), zap.Error(err))
		}
		c.probed, c.working = true, err == nil
	}
	return c.working
}

func (c *Client) probe(ctx context.Context) error {
	_, err := c.complete(ctx, probePrompt, probeTemperature, probeMaxTokens)
	return err
}

func (c *Client) complete(ctx context.Context, prompt string, temperature float32, maxTokens int) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
		TopP:        topP,
	}

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, req)
	metrics.LLMRequestDuration.WithLabelValues(c.model).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.LLMRequestsTotal.WithLabelValues(c.model, "error").Inc()
		return "", parseAPIError(err)
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		metrics.LLMRequestsTotal.WithLabelValues(c.model, "empty").Inc()
		return "", fmt.Errorf("empty completion: %w", domain.ErrLLMUnavailable)
	}

	metrics.LLMRequestsTotal.WithLabelValues(c.model, "success").Inc()
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// parseAPIError extracts a readable error from the API response.
// All errors wrap domain.ErrLLMUnavailable.
func parseAPIError(err error) error {
	wrap := domain.ErrLLMUnavailable

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if detail := extractDetail(reqErr.Body); detail != "" {
			return fmt.Errorf("llm API error %d: %s: %w", reqErr.HTTPStatusCode, detail, wrap)
		}
		return fmt.Errorf("llm API error %d: %s: %w", reqErr.HTTPStatusCode, string(reqErr.Body), wrap)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("llm API error %d: %s: %w", apiErr.HTTPStatusCode, apiErr.Message, wrap)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("llm request timed out: %w", wrap)
	}
	return fmt.Errorf("llm request failed: %v: %w", err, wrap)
}

// extractDetail reads the "detail" field some compatible providers return instead of "error".
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}
