// Package emailgen turns an attendee's engagement into a personalized follow-up
// email: it renders the tier prompt, calls the text generator with bounded
// retries, parses the answer and validates the content.
package emailgen

import (
	"context"
	"errors"
	"fmt"
	"time"

	"webinarwins/internal/config"
	"webinarwins/internal/metrics"
	"webinarwins/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Request is one call to the external text generator
type Request struct {
	Model        string
	SystemPrompt string
	UserPrompt   string
	MaxTokens    int
	Temperature  float32
	Timeout      time.Duration
}

// Response is the raw text returned by the generator. TotalTokens is only reported.
type Response struct {
	Text        string
	TotalTokens int
	Model       string
}

// TextGenerator is the text-in/text-out boundary to a language model provider
type TextGenerator interface {
	Generate(ctx context.Context, req Request) (*Response, error)
}

// Options configures generation calls
type Options struct {
	Model          string
	MaxTokens      int
	Temperature    float32
	Timeout        time.Duration
	MaxRetries     int
	RetryBaseDelay time.Duration
}

// DefaultOptions mirrors the configuration defaults
func DefaultOptions() Options {
	return Options{
		Model:          "gpt-4o",
		MaxTokens:      2000,
		Temperature:    0.8,
		Timeout:        30 * time.Second,
		MaxRetries:     3,
		RetryBaseDelay: time.Second,
	}
}

// OptionsFromConfig builds Options from the application configuration
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Model:          cfg.OpenAIModel,
		MaxTokens:      cfg.OpenAIMaxTokens,
		Temperature:    cfg.OpenAITemperature,
		Timeout:        cfg.RequestTimeout(),
		MaxRetries:     cfg.OpenAIMaxRetries,
		RetryBaseDelay: cfg.RetryBaseDelay(),
	}
}

// Input is one attendee with the webinar it registered for and its chat messages
type Input struct {
	Attendee models.Attendee
	Webinar  models.Webinar
	Messages []models.ChatMessage
}

// Result is a parsed email and its validation verdict. Callers must check
// Verdict.Valid before storing Email.
type Result struct {
	Email   models.GeneratedEmail
	Verdict Verdict
}

// Generator produces follow-up emails through a TextGenerator
type Generator struct {
	client  TextGenerator
	opts    Options
	sleep   func(ctx context.Context, d time.Duration) error
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

// NewGenerator creates a Generator
func NewGenerator(client TextGenerator, opts Options, logger zerolog.Logger) *Generator {
	return &Generator{
		client: client,
		opts:   opts,
		logger: logger.With().Str("component", "emailgen").Logger(),
	}
}

// WithMetrics records generator calls, retries and tokens on m
func (g *Generator) WithMetrics(m *metrics.Metrics) *Generator {
	g.metrics = m
	return g
}

// WithSleep replaces the backoff sleeper
func (g *Generator) WithSleep(sleep func(ctx context.Context, d time.Duration) error) *Generator {
	g.sleep = sleep
	return g
}

// Options returns the generator's options
func (g *Generator) Options() Options {
	return g.opts
}

// BuildRequest renders the system and tier prompt for pc
func (g *Generator) BuildRequest(pc PromptContext) Request {
	return Request{
		Model:        g.opts.Model,
		SystemPrompt: SystemPrompt(),
		UserPrompt:   BuildUserPrompt(pc),
		MaxTokens:    g.opts.MaxTokens,
		Temperature:  g.opts.Temperature,
		Timeout:      g.opts.Timeout,
	}
}

// Generate renders, calls, parses and validates one attendee's email. Transport
// and parse failures are retried; once attempts run out a *GenerationError is
// returned. A validation rejection is reported in Result.Verdict, not as an error.
func (g *Generator) Generate(ctx context.Context, in Input) (*Result, error) {
	pc := BuildContext(in.Attendee, in.Webinar, in.Messages)
	req := g.BuildRequest(pc)
	requestID := uuid.NewString()

	logger := g.logger.With().
		Str("request_id", requestID).
		Str("attendee_email", pc.AttendeeEmail).
		Str("tier", pc.Tier.String()).
		Logger()

	policy := RetryPolicy{
		MaxAttempts: g.opts.MaxRetries,
		BaseDelay:   g.opts.RetryBaseDelay,
		Sleep:       g.sleep,
		OnRetry: func(attempt int, delay time.Duration, err error) {
			g.metrics.ObserveRetry()
			logger.Warn().
				Err(err).
				Int("attempt", attempt).
				Int("max_attempts", g.opts.MaxRetries).
				Int64("backoff_ms", delay.Milliseconds()).
				Msg("Generation attempt failed, retrying")
		},
	}

	var (
		parsed ParsedEmail
		resp   *Response
	)
	attempts, err := policy.Do(ctx, func(ctx context.Context, attempt int) error {
		r, p, callErr := g.call(ctx, req)
		if callErr != nil {
			return callErr
		}
		resp, parsed = r, p
		return nil
	})
	if err != nil {
		logger.Error().Err(err).Int("attempts", attempts).Msg("Email generation failed")
		return nil, &GenerationError{Attempts: attempts, Err: err}
	}

	g.metrics.ObserveTokens(resp.TotalTokens)

	modelUsed := resp.Model
	if modelUsed == "" {
		modelUsed = req.Model
	}

	email := models.GeneratedEmail{
		AttendeeID:      in.Attendee.ID,
		SubjectLine:     parsed.Subject,
		EmailBodyText:   parsed.Body,
		EngagementScore: pc.EngagementScore,
		EngagementTier:  pc.Tier,
		PersonalizationElements: models.Personalization{
			EngagementScore:   pc.EngagementScore,
			EngagementTier:    pc.Tier,
			FocusPercent:      pc.FocusPercent,
			AttendancePercent: pc.AttendancePercent,
			MessageCount:      pc.MessageCount,
			QuestionCount:     pc.QuestionCount,
			ChatReferences:    chatReferences(in.Messages),
			AISelectionInfo: models.SelectionInfo{
				SelectedProbability: parsed.Probability,
				ModelUsed:           modelUsed,
				GenerationMethod:    GenerationMethod,
			},
		},
		GenerationMetadata: models.GenerationMetadata{
			RequestID:      requestID,
			ModelUsed:      modelUsed,
			TokensConsumed: resp.TotalTokens,
			Temperature:    req.Temperature,
			MaxTokens:      req.MaxTokens,
			Attempts:       attempts,
		},
		SentStatus: models.SentStatusDraft,
	}

	verdict := Validate(parsed.Subject, parsed.Body)
	if !verdict.Valid {
		logger.Warn().Strs("reasons", verdict.Reasons).Msg("Generated email failed validation")
	} else {
		logger.Debug().
			Int("attempts", attempts).
			Int("tokens", resp.TotalTokens).
			Int("probability", parsed.Probability).
			Msg("Email generated")
	}

	return &Result{Email: email, Verdict: verdict}, nil
}

// call makes a single generator call under the per-call timeout and parses the answer
func (g *Generator) call(ctx context.Context, req Request) (*Response, ParsedEmail, error) {
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := g.client.Generate(ctx, req)
	elapsed := time.Since(start).Seconds()
	if err == nil && resp == nil {
		err = errors.New("generator returned no response")
	}
	if err != nil {
		g.metrics.ObserveGeneratorCall(metrics.CallError, elapsed)
		return nil, ParsedEmail{}, fmt.Errorf("generator call: %w", err)
	}

	parsed, err := ParseResponse(resp.Text)
	if err != nil {
		g.metrics.ObserveGeneratorCall(metrics.CallParseError, elapsed)
		return nil, ParsedEmail{}, err
	}
	g.metrics.ObserveGeneratorCall(metrics.CallSuccess, elapsed)
	return resp, parsed, nil
}

func chatReferences(messages []models.ChatMessage) []models.ChatReference {
	refs := make([]models.ChatReference, 0, len(messages))
	for _, msg := range messages {
		refs = append(refs, models.ChatReference{
			Message:    msg.MessageText,
			IsQuestion: msg.IsQuestion,
			Timestamp:  msg.Timestamp,
		})
	}
	return refs
}
