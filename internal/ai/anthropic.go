// Package ai adapts the Anthropic SDK to the selector's generative
// capability interface.
package ai

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/jmorrell/daycoach/internal/core/selector"
)

// DefaultModel is the model used when none is configured.
const DefaultModel = "claude-3-5-haiku-latest"

// Config holds client configuration.
type Config struct {
	// Model to use (defaults to DefaultModel).
	Model string

	// Transport-level retry settings for rate limits, server errors,
	// and timeouts. The selector's own retry protocol handles malformed
	// replies separately.
	MaxRetries     int
	RetryBaseDelay time.Duration

	// RequestTimeout bounds a single API call.
	RequestTimeout time.Duration

	// APIKey source (if empty, uses ANTHROPIC_API_KEY env).
	APIKey string
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Model:          DefaultModel,
		MaxRetries:     3,
		RetryBaseDelay: time.Second,
		RequestTimeout: 60 * time.Second,
	}
}

// Client wraps the Anthropic SDK as a selector.Capability.
type Client struct {
	cfg    *Config
	client anthropic.Client
}

var _ selector.Capability = (*Client)(nil)

// New creates a new client.
func New(cfg *Config) (*Client, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return nil, errors.New("ai: no API key: set ANTHROPIC_API_KEY or configure ai.api_key")
	}

	return &Client{
		cfg:    cfg,
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
	}, nil
}

// Complete sends the conversation and returns the reply text.
// Retries transient transport failures with exponential backoff.
func (c *Client) Complete(ctx context.Context, req selector.Request) (string, error) {
	var lastErr error

	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := c.cfg.RetryBaseDelay * time.Duration(math.Pow(2, float64(attempt-1)))
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(delay):
			}
		}

		result, err := c.doRequest(ctx, req)
		if err == nil {
			return result, nil
		}

		lastErr = err

		if !isRetryable(err) {
			return "", err
		}
	}

	return "", fmt.Errorf("ai: max retries exceeded: %w", lastErr)
}

// doRequest performs a single API request.
func (c *Client) doRequest(ctx context.Context, req selector.Request) (string, error) {
	model := c.cfg.Model
	if model == "" {
		model = DefaultModel
	}

	if c.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.RequestTimeout)
		defer cancel()
	}

	messages := make([]anthropic.MessageParam, 0, len(req.Messages))
	for _, msg := range req.Messages {
		block := anthropic.NewTextBlock(msg.Content)
		switch msg.Role {
		case selector.RoleAssistant:
			messages = append(messages, anthropic.NewAssistantMessage(block))
		default:
			messages = append(messages, anthropic.NewUserMessage(block))
		}
	}

	resp, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(req.MaxTokens),
		System: []anthropic.TextBlockParam{
			{Text: req.System},
		},
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("ai request: %w", err)
	}

	var result strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			result.WriteString(block.Text)
		}
	}

	return result.String(), nil
}

// isRetryable checks if an error should be retried at the transport level.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}

	errStr := err.Error()

	// Rate limits
	if strings.Contains(errStr, "rate_limit") || strings.Contains(errStr, "429") {
		return true
	}

	// Server errors
	if strings.Contains(errStr, "500") || strings.Contains(errStr, "502") ||
		strings.Contains(errStr, "503") || strings.Contains(errStr, "504") {
		return true
	}

	// Timeouts
	if strings.Contains(errStr, "timeout") || strings.Contains(errStr, "deadline") {
		return true
	}

	return false
}
