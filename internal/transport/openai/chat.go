package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/trailsearch/internal/domain"
	"github.com/kailas-cloud/trailsearch/internal/domain/llm"
	"github.com/kailas-cloud/trailsearch/internal/metrics"
)

// DefaultCallTimeout bounds one streamed completion when Config.CallTimeout is unset.
const DefaultCallTimeout = 30 * time.Second

// Chat streams completions from an OpenAI-compatible API.
type Chat struct {
	client      *openai.Client
	model       string
	user        string
	provider    string
	callTimeout time.Duration
	logger      *zap.Logger
}

// Config holds the chat provider settings.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	User        string
	Provider    string
	CallTimeout time.Duration
	Logger      *zap.Logger
}

// NewChat creates an OpenAI-compatible chat client.
func NewChat(cfg *Config) *Chat {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	timeout := cfg.CallTimeout
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Chat{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		user:        cfg.User,
		provider:    cfg.Provider,
		callTimeout: timeout,
		logger:      logger,
	}
}

// Stream implements llm.Client. The call deadline covers the whole stream;
// closing the stream releases it.
func (c *Chat) Stream(ctx context.Context, req llm.Request) (llm.Stream, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.callTimeout)

	start := time.Now()
	s, err := c.client.CreateChatCompletionStream(callCtx, c.buildRequest(req))
	if err != nil {
		cancel()
		err = c.classify(ctx, callCtx, err)
		c.recordError(err)
		return nil, err
	}
	metrics.LLMRequestDuration.WithLabelValues(c.provider, c.model).Observe(time.Since(start).Seconds())

	return &stream{chat: c, parent: ctx, callCtx: callCtx, cancel: cancel, inner: s}, nil
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (c *Chat) HealthCheck(ctx context.Context) error {
	if _, err := c.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

func (c *Chat) buildRequest(req llm.Request) openai.ChatCompletionRequest {
	out := openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    make([]openai.ChatCompletionMessage, 0, len(req.Messages)),
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		User:        c.user,
		Stream:      true,
	}
	for _, m := range req.Messages {
		msg := openai.ChatCompletionMessage{
			Role:       string(m.Role),
			Content:    m.Content,
			ToolCallID: m.ToolCallID,
		}
		for _, tc := range m.ToolCalls {
			msg.ToolCalls = append(msg.ToolCalls, openai.ToolCall{
				ID:   tc.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      tc.Name,
					Arguments: tc.Arguments,
				},
			})
		}
		out.Messages = append(out.Messages, msg)
	}
	for _, t := range req.Tools {
		out.Tools = append(out.Tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}
	return out
}

// classify maps transport failures onto domain sentinels.
// Cancellation of the caller's context passes through unchanged.
func (c *Chat) classify(parent, callCtx context.Context, err error) error {
	if parent.Err() != nil {
		return parent.Err()
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("completion exceeded %s: %w", c.callTimeout, domain.ErrLLMTimeout)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("completion timed out: %w", domain.ErrLLMTimeout)
	}
	return parseAPIError(err)
}

func (c *Chat) recordError(err error) {
	errType := "unavailable"
	switch {
	case errors.Is(err, context.Canceled):
		errType = "canceled"
	case errors.Is(err, domain.ErrRateLimited):
		errType = "rate_limited"
	case errors.Is(err, domain.ErrLLMTimeout):
		errType = "timeout"
	}
	metrics.LLMRequestsTotal.WithLabelValues(c.provider, c.model, "error").Inc()
	metrics.LLMErrorsTotal.WithLabelValues(c.provider, c.model, errType).Inc()
	c.logger.Debug("Completion failed", zap.String("error_type", errType), zap.Error(err))
}

type stream struct {
	chat    *Chat
	parent  context.Context
	callCtx context.Context
	cancel  context.CancelFunc
	inner   *openai.ChatCompletionStream
	done    bool
}

func (s *stream) Recv() (llm.Chunk, error) {
	resp, err := s.inner.Recv()
	if errors.Is(err, io.EOF) {
		if !s.done {
			s.done = true
			metrics.LLMRequestsTotal.WithLabelValues(s.chat.provider, s.chat.model, "success").Inc()
		}
		return llm.Chunk{}, io.EOF
	}
	if err != nil {
		err = s.chat.classify(s.parent, s.callCtx, err)
		if !s.done {
			s.done = true
			s.chat.recordError(err)
		}
		return llm.Chunk{}, err
	}

	var chunk llm.Chunk
	if len(resp.Choices) == 0 {
		return chunk, nil
	}
	choice := resp.Choices[0]
	chunk.Content = choice.Delta.Content
	chunk.FinishReason = string(choice.FinishReason)
	for i, tc := range choice.Delta.ToolCalls {
		idx := i
		if tc.Index != nil {
			idx = *tc.Index
		}
		chunk.ToolCalls = append(chunk.ToolCalls, llm.ToolCallDelta{
			Index:     idx,
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return chunk, nil
}

func (s *stream) Close() error {
	defer s.cancel()
	if err := s.inner.Close(); err != nil {
		return fmt.Errorf("close stream: %w", err)
	}
	return nil
}

// parseAPIError extracts a human-readable error from the API response.
// 429 maps to domain.ErrRateLimited, 408/504 to domain.ErrLLMTimeout,
// everything else to domain.ErrLLMUnavailable.
func parseAPIError(err error) error {
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		wrap := sentinelForStatus(reqErr.HTTPStatusCode)
		if detail := extractDetail(reqErr.Body); detail != "" {
			return fmt.Errorf("chat API error %d: %s: %w", reqErr.HTTPStatusCode, detail, wrap)
		}
		return fmt.Errorf("chat API error %d: %w", reqErr.HTTPStatusCode, wrap)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("chat API error %d: %s: %w",
			apiErr.HTTPStatusCode, apiErr.Message, sentinelForStatus(apiErr.HTTPStatusCode))
	}

	return fmt.Errorf("chat request failed: %v: %w", err, domain.ErrLLMUnavailable)
}

func sentinelForStatus(code int) error {
	switch code {
	case http.StatusTooManyRequests:
		return domain.ErrRateLimited
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return domain.ErrLLMTimeout
	}
	return domain.ErrLLMUnavailable
}

// extractDetail extracts the "detail" field from a JSON error body (Nebius error format).
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}
