// Package completion adapts the OpenAI chat completion API to the single
// prompt-in, reply-out call the ATC engine needs.
package completion

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/avsim/atc-engine/internal/config"
	"github.com/avsim/atc-engine/pkg/logger"
)

// ErrUnavailable indicates the completion backend could not produce a
// reply. Callers are expected to fall back, not retry.
var ErrUnavailable = errors.New("completion service unavailable")

// Service wraps the OpenAI client with the configured model parameters.
type Service struct {
	client  openai.Client
	model   string
	temp    float64
	maxTok  int64
	timeout time.Duration
	logger  *logger.Logger
}

// New creates a completion service from the OpenAI config section.
func New(cfg config.OpenAIConfig, log *logger.Logger) *Service {
	return &Service{
		client:  openai.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:   cfg.Model,
		temp:    cfg.Temperature,
		maxTok:  int64(cfg.MaxTokens),
		timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		logger:  log.Named("completion"),
	}
}

// Complete sends the prompt as a single user message and returns the
// model's reply with surrounding whitespace trimmed.
func (s *Service) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	resp, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: s.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(s.temp),
		MaxTokens:   openai.Int(s.maxTok),
	})
	if err != nil {
		s.logger.Error("Chat completion request failed",
			logger.String("model", s.model),
			logger.Error(err))
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty response", ErrUnavailable)
	}

	reply := strings.TrimSpace(resp.Choices[0].Message.Content)
	if reply == "" {
		return "", fmt.Errorf("%w: empty reply text", ErrUnavailable)
	}

	s.logger.Debug("Chat completion succeeded",
		logger.String("model", s.model),
		logger.Int("prompt_chars", len(prompt)),
		logger.Int("reply_chars", len(reply)),
		logger.Duration("elapsed", time.Since(start)))

	return reply, nil
}
