package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
	openaigo "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"garden-server/internal/config"
)

// ErrCompletionFailed covers every transient completion failure: transport,
// auth, timeout, empty response. Call sites recover from it locally and
// never surface it to the child/parent UI.
var ErrCompletionFailed = errors.New("completion request failed")

// Backend names a completion provider.
type Backend string

const (
	BackendOpenAI Backend = "openai"
	BackendOllama Backend = "ollama"
)

// ParseBackend validates a backend name from the API surface.
func ParseBackend(s string) (Backend, error) {
	switch Backend(strings.ToLower(strings.TrimSpace(s))) {
	case BackendOpenAI:
		return BackendOpenAI, nil
	case BackendOllama:
		return BackendOllama, nil
	default:
		return "", fmt.Errorf("unknown completion backend: %q", s)
	}
}

// CompletionClient sends a prompt to a named backend and returns the
// generated text. An empty model selects the backend's configured default.
type CompletionClient interface {
	Complete(ctx context.Context, prompt string, backend Backend, model string) (string, error)
}

// Gateway is the production CompletionClient. It holds one client per
// backend and dispatches per call, so a single session can be driven by
// either provider.
type Gateway struct {
	openai      *openaigo.Client
	ollama      *api.Client
	openaiModel string
	ollamaModel string
	timeout     time.Duration
	logger      *zap.Logger
	temperature float32
}

// NewGateway builds a Gateway from config. The Ollama client is created
// unconditionally; it only costs a struct until a call selects it.
func NewGateway(cfg *config.Config, logger *zap.Logger) (*Gateway, error) {
	openaiCfg := openaigo.DefaultConfig(cfg.AIAPIKey)
	openaiCfg.BaseURL = cfg.AIBaseURL
	openaiCfg.HTTPClient = &http.Client{Timeout: cfg.AITimeout}

	ollamaURL := strings.TrimSuffix(strings.TrimSuffix(cfg.OllamaBaseURL, "/"), "/v1")
	parsedURL, err := url.Parse(ollamaURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse ollama base url %q: %w", cfg.OllamaBaseURL, err)
	}

	return &Gateway{
		openai:      openaigo.NewClientWithConfig(openaiCfg),
		ollama:      api.NewClient(parsedURL, &http.Client{Timeout: cfg.AITimeout}),
		openaiModel: cfg.AIModel,
		ollamaModel: cfg.OllamaModel,
		timeout:     cfg.AITimeout,
		logger:      logger.Named("AIGateway"),
		temperature: 0.8,
	}, nil
}

// Complete sends the prompt as a single user message and returns the text.
func (g *Gateway) Complete(ctx context.Context, prompt string, backend Backend, model string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", fmt.Errorf("%w: empty prompt", ErrCompletionFailed)
	}

	start := time.Now()
	observePromptSize(backend, prompt)

	var (
		text string
		err  error
	)
	switch backend {
	case BackendOpenAI:
		if model == "" {
			model = g.openaiModel
		}
		text, err = g.completeOpenAI(ctx, prompt, model)
	case BackendOllama:
		if model == "" {
			model = g.ollamaModel
		}
		text, err = g.completeOllama(ctx, prompt, model)
	default:
		return "", fmt.Errorf("%w: unknown backend %q", ErrCompletionFailed, backend)
	}

	duration := time.Since(start)
	if err != nil {
		completionRequestsTotal.WithLabelValues(string(backend), model, "error").Inc()
		g.logger.Warn("completion request failed",
			zap.String("backend", string(backend)),
			zap.String("model", model),
			zap.Duration("duration", duration),
			zap.Error(err))
		return "", err
	}

	completionRequestsTotal.WithLabelValues(string(backend), model, "success").Inc()
	completionRequestDuration.WithLabelValues(string(backend), model).Observe(duration.Seconds())
	g.logger.Debug("completion request succeeded",
		zap.String("backend", string(backend)),
		zap.String("model", model),
		zap.Duration("duration", duration),
		zap.Int("response_chars", len(text)))
	return text, nil
}

func (g *Gateway) completeOpenAI(ctx context.Context, prompt, model string) (string, error) {
	resp, err := g.openai.CreateChatCompletion(ctx, openaigo.ChatCompletionRequest{
		Model: model,
		Messages: []openaigo.ChatCompletionMessage{
			{Role: openaigo.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: g.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCompletionFailed, err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("%w: empty response", ErrCompletionFailed)
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (g *Gateway) completeOllama(ctx context.Context, prompt, model string) (string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	stream := false
	req := &api.ChatRequest{
		Model:    model,
		Messages: []api.Message{{Role: "user", Content: prompt}},
		Stream:   &stream,
		Options: map[string]interface{}{
			"temperature": float64(g.temperature),
		},
	}

	var resp api.ChatResponse
	err := g.ollama.Chat(reqCtx, req, func(r api.ChatResponse) error {
		resp = r
		return nil
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: timeout after %v", ErrCompletionFailed, g.timeout)
		}
		return "", fmt.Errorf("%w: %v", ErrCompletionFailed, err)
	}
	if strings.TrimSpace(resp.Message.Content) == "" {
		return "", fmt.Errorf("%w: empty response", ErrCompletionFailed)
	}
	return strings.TrimSpace(resp.Message.Content), nil
}
