// Package pipeline runs the attendee engagement flow: ingest and score the
// webinar exports, generate follow-up emails in batches with partial-success
// reporting, and deliver them.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"webinarwins/internal/cache"
	"webinarwins/internal/config"
	"webinarwins/internal/email"
	"webinarwins/internal/emailgen"
	"webinarwins/internal/metrics"
	"webinarwins/internal/models"
	"webinarwins/internal/scoring"

	"github.com/rs/zerolog"
)

// ErrInvalidRequest marks caller mistakes such as an unknown tier filter
var ErrInvalidRequest = errors.New("invalid request")

// Store is the persistence collaborator
type Store interface {
	CreateWebinar(ctx context.Context, w *models.Webinar, attendees []models.Attendee, messages []models.ChatMessage) error
	GetWebinar(ctx context.Context, id int64) (*models.Webinar, error)
	ListAttendees(ctx context.Context, webinarID int64) ([]models.Attendee, error)
	ListChatMessages(ctx context.Context, webinarID int64) ([]models.ChatMessage, error)
	GetGeneratedEmail(ctx context.Context, id int64) (*models.GeneratedEmailResponse, error)
	ListGeneratedEmails(ctx context.Context, webinarID int64) ([]models.GeneratedEmailResponse, error)
	SaveGeneratedEmail(ctx context.Context, e *models.GeneratedEmail) error
	MarkEmailSent(ctx context.Context, id int64, status string, sentAt *time.Time) error
}

// EmailGenerator produces one attendee's follow-up
type EmailGenerator interface {
	Generate(ctx context.Context, in emailgen.Input) (*emailgen.Result, error)
}

// Mailer delivers a follow-up
type Mailer interface {
	Send(ctx context.Context, msg email.Message) error
}

// UsageTracker records usage analytics. Tracking failures never fail an operation.
type UsageTracker interface {
	TrackIngest(ctx context.Context, webinarID int64, attendees, chatMessages int) error
	TrackGeneration(ctx context.Context, tier string, tokens int, model string) error
	TrackGenerationFailure(ctx context.Context, tier string, rejected bool) error
	TrackSendGridEmail(ctx context.Context, emailType string, recipient string) error
}

// Options configures the pipeline
type Options struct {
	BatchErrorLimit int // errors kept in a batch report
	CacheTTL        time.Duration
}

// DefaultOptions mirrors the configuration defaults
func DefaultOptions() Options {
	return Options{
		BatchErrorLimit: 10,
		CacheTTL:        time.Minute,
	}
}

// OptionsFromConfig builds Options from the application configuration
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		BatchErrorLimit: cfg.BatchErrorLimit,
		CacheTTL:        cfg.CacheTTL(),
	}
}

// Service wires the ingest, scoring, generation and delivery steps
type Service struct {
	store     Store
	generator EmailGenerator
	mailer    Mailer
	tracker   UsageTracker
	metrics   *metrics.Metrics
	model     scoring.Model
	opts      Options
	logger    zerolog.Logger
	now       func() time.Time

	webinars *cache.Cache[*models.WebinarResponse]
	emails   *cache.Cache[[]models.GeneratedEmailResponse]
}

// New creates a pipeline service. Mailer, tracker and metrics are optional.
func New(store Store, generator EmailGenerator, opts Options, logger zerolog.Logger) *Service {
	return &Service{
		store:     store,
		generator: generator,
		model:     scoring.DefaultModel(),
		opts:      opts,
		logger:    logger.With().Str("component", "pipeline").Logger(),
		now:       func() time.Time { return time.Now().UTC() },
		webinars:  cache.New[*models.WebinarResponse](opts.CacheTTL),
		emails:    cache.New[[]models.GeneratedEmailResponse](opts.CacheTTL),
	}
}

// WithMailer enables delivery
func (s *Service) WithMailer(m Mailer) *Service {
	s.mailer = m
	return s
}

// WithTracker records usage analytics on t
func (s *Service) WithTracker(t UsageTracker) *Service {
	s.tracker = t
	return s
}

// WithMetrics records pipeline outcomes on m
func (s *Service) WithMetrics(m *metrics.Metrics) *Service {
	s.metrics = m
	return s
}

// WithModel replaces the scoring model
func (s *Service) WithModel(m scoring.Model) *Service {
	s.model = m
	return s
}

func (s *Service) track(name string, fn func(UsageTracker) error) {
	if s.tracker == nil {
		return
	}
	if err := fn(s.tracker); err != nil {
		s.logger.Warn().Err(err).Str("event", name).Msg("Failed to track usage")
	}
}

func webinarKey(id int64) string {
	return fmt.Sprintf("webinar:%d", id)
}

func emailsKey(webinarID int64) string {
	return fmt.Sprintf("emails:%d", webinarID)
}
