// Package openai provides a unified client for OpenAI API access
// with support for both Azure OpenAI (primary) and OpenAI platform (fallback).
// Client implements emailgen.TextGenerator.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"webinarwins/internal/config"
	"webinarwins/internal/emailgen"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"
)

// BreakerSettings controls when the provider circuit opens
type BreakerSettings struct {
	FailureThreshold int
	OpenTimeout      time.Duration
}

// Client wraps OpenAI client with Azure OpenAI support, fallback capability
// and a circuit breaker around provider calls
type Client struct {
	primary      *openai.Client
	fallback     *openai.Client
	breaker      *gobreaker.CircuitBreaker
	useAzure     bool
	deployment   string // Azure deployment used instead of the requested model
	providerName string
	logger       zerolog.Logger
}

// NewClient creates a new OpenAI client with Azure as primary and OpenAI as fallback
func NewClient(cfg *config.Config, logger zerolog.Logger) (*Client, error) {
	var (
		primary  *openai.ClientConfig
		fallback *openai.ClientConfig
	)

	// Try Azure OpenAI first (primary)
	if cfg.UseAzureOpenAI() {
		azureConfig := openai.DefaultAzureConfig(cfg.AzureOpenAIKey, cfg.AzureOpenAIEndpoint)
		primary = &azureConfig
	}

	// Setup OpenAI as fallback (or primary if Azure not configured)
	if cfg.HasOpenAIFallback() {
		openaiConfig := openai.DefaultConfig(cfg.OpenAIKey)
		if primary == nil {
			primary = &openaiConfig
		} else {
			fallback = &openaiConfig
		}
	}

	if primary == nil {
		return nil, fmt.Errorf("no OpenAI provider configured: set AZURE_OPENAI_ENDPOINT + AZURE_OPENAI_KEY or OPENAI_API_KEY")
	}

	deployment := ""
	if cfg.UseAzureOpenAI() {
		deployment = cfg.AzureOpenAIGPTDeployment
	}

	client := newClient(*primary, fallback, deployment, BreakerSettings{
		FailureThreshold: cfg.BreakerFailureThreshold,
		OpenTimeout:      time.Duration(cfg.BreakerOpenSeconds) * time.Second,
	}, logger)

	if client.useAzure {
		client.logger.Info().Str("endpoint", cfg.AzureOpenAIEndpoint).Bool("fallback", fallback != nil).Msg("Primary provider: Azure OpenAI")
	} else {
		client.logger.Info().Msg("Primary provider: OpenAI (Azure not configured)")
	}
	return client, nil
}

func newClient(primary openai.ClientConfig, fallback *openai.ClientConfig, deployment string, settings BreakerSettings, logger zerolog.Logger) *Client {
	client := &Client{
		primary:      openai.NewClientWithConfig(primary),
		useAzure:     deployment != "",
		deployment:   deployment,
		providerName: "OpenAI",
		logger:       logger.With().Str("component", "openai").Logger(),
	}
	if client.useAzure {
		client.providerName = "Azure OpenAI"
	}
	if fallback != nil {
		client.fallback = openai.NewClientWithConfig(*fallback)
	}

	threshold := settings.FailureThreshold
	if threshold < 1 {
		threshold = 5
	}
	client.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "openai",
		MaxRequests: 1,
		Timeout:     settings.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(threshold)
		},
		IsSuccessful: func(err error) bool {
			// cancellations come from the caller, not the provider
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			client.logger.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("Provider circuit state changed")
		},
	})
	return client
}

// TestConnection verifies the API connection works
func (c *Client) TestConnection(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if _, err := c.primary.ListModels(ctx); err != nil {
		return fmt.Errorf("failed to connect to %s: %w", c.providerName, err)
	}

	c.logger.Info().Str("provider", c.providerName).Msg("Connection test successful")
	return nil
}

// Generate sends one chat completion through the circuit breaker.
// Client errors that retrying cannot fix, and an open circuit, are marked permanent.
func (c *Client) Generate(ctx context.Context, req emailgen.Request) (*emailgen.Response, error) {
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	out, err := c.breaker.Execute(func() (interface{}, error) {
		return c.createChatCompletion(ctx, req)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, emailgen.Permanent(fmt.Errorf("%s unavailable: %w", c.providerName, err))
		}
		if isPermanent(err) {
			return nil, emailgen.Permanent(err)
		}
		return nil, err
	}
	return out.(*emailgen.Response), nil
}

// createChatCompletion generates a chat completion, trying the fallback provider when the primary fails
func (c *Client) createChatCompletion(ctx context.Context, req emailgen.Request) (*emailgen.Response, error) {
	chatReq := openai.ChatCompletionRequest{
		Model: req.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: req.UserPrompt},
		},
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}
	if c.useAzure {
		chatReq.Model = c.deployment
	}

	resp, err := c.primary.CreateChatCompletion(ctx, chatReq)
	if err != nil && c.fallback != nil && ctx.Err() == nil {
		// Try fallback provider with the OpenAI model name
		c.logger.Warn().Err(err).Msg("Primary chat failed, trying fallback")
		chatReq.Model = req.Model
		resp, err = c.fallback.CreateChatCompletion(ctx, chatReq)
		if err != nil {
			return nil, fmt.Errorf("both providers failed: %w", err)
		}
		c.logger.Info().Msg("Fallback chat succeeded")
	} else if err != nil {
		return nil, err
	}

	if len(resp.Choices) == 0 {
		return nil, errors.New("completion returned no choices")
	}
	text := resp.Choices[0].Message.Content
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("completion returned empty content")
	}

	model := resp.Model
	if model == "" {
		model = chatReq.Model
	}
	return &emailgen.Response{
		Text:        text,
		TotalTokens: resp.Usage.TotalTokens,
		Model:       model,
	}, nil
}

// isPermanent reports provider rejections that will fail the same way on retry
func isPermanent(err error) bool {
	status := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}
	switch status {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
		return true
	}
	return false
}

// GetProviderName returns the current primary provider name
func (c *Client) GetProviderName() string {
	return c.providerName
}

// IsUsingAzure returns true if Azure OpenAI is the primary provider
func (c *Client) IsUsingAzure() bool {
	return c.useAzure
}

// BreakerState returns the provider circuit state, e.g. "closed" or "open"
func (c *Client) BreakerState() string {
	return c.breaker.State().String()
}
