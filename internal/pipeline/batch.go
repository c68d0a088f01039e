package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"webinarwins/internal/database"
	"webinarwins/internal/email"
	"webinarwins/internal/emailgen"
	"webinarwins/internal/ingest"
	"webinarwins/internal/metrics"
	"webinarwins/internal/models"
	"webinarwins/internal/scoring"

	"github.com/google/uuid"
)

// BatchRequest selects the attendees of one generation batch
type BatchRequest struct {
	WebinarID  int64
	Regenerate bool          // replace existing emails that were not edited by a user
	Tier       *scoring.Tier // nil means every tier
}

// batchTally is the running outcome of a batch. Attendees are processed one at
// a time, so each outcome is recorded before the next attendee starts.
type batchTally struct {
	details models.BatchDetails
	limit   int
}

func newBatchTally(total, limit int) *batchTally {
	return &batchTally{
		details: models.BatchDetails{
			TotalAttendees: total,
			Errors:         []string{},
			TierBreakdown:  map[string]int{},
		},
		limit: limit,
	}
}

func (t *batchTally) success(tier scoring.Tier) {
	t.details.Successful++
	t.details.TierBreakdown[tier.String()]++
}

func (t *batchTally) skip() {
	t.details.Skipped++
}

func (t *batchTally) fail(msg string, rejected bool) {
	t.details.Failed++
	if rejected {
		t.details.FailedValidation++
	}
	if t.limit <= 0 || len(t.details.Errors) < t.limit {
		t.details.Errors = append(t.details.Errors, msg)
	}
}

func (t *batchTally) status() string {
	switch {
	case t.details.Failed == 0:
		return models.BatchStatusCompleted
	case t.details.Successful > 0:
		return models.BatchStatusPartialSuccess
	default:
		return models.BatchStatusFailed
	}
}

// GenerateBatch generates follow-ups for the attendees of a webinar, one
// attendee at a time. A failing attendee is recorded in the report and never
// aborts the batch. Attendees that already have an email are skipped unless
// Regenerate is set; emails edited by a user are always skipped.
func (s *Service) GenerateBatch(ctx context.Context, req BatchRequest) (*models.GenerateEmailsResponse, error) {
	start := time.Now()

	webinar, err := s.store.GetWebinar(ctx, req.WebinarID)
	if err != nil {
		return nil, err
	}
	attendees, err := s.store.ListAttendees(ctx, req.WebinarID)
	if err != nil {
		return nil, err
	}
	messages, err := s.store.ListChatMessages(ctx, req.WebinarID)
	if err != nil {
		return nil, err
	}
	stored, err := s.store.ListGeneratedEmails(ctx, req.WebinarID)
	if err != nil {
		return nil, err
	}

	existing := make(map[int64]models.GeneratedEmailResponse, len(stored))
	for _, e := range stored {
		existing[e.AttendeeID] = e
	}

	if req.Tier != nil {
		filtered := attendees[:0:0]
		for _, a := range attendees {
			if a.EngagementTier == *req.Tier {
				filtered = append(filtered, a)
			}
		}
		attendees = filtered
	}

	batchID := uuid.NewString()
	logger := s.logger.With().Str("batch_id", batchID).Int64("webinar_id", req.WebinarID).Logger()

	chats := ingest.MatchAttendeesToChats(attendees, messages)
	tally := newBatchTally(len(attendees), s.opts.BatchErrorLimit)

	for _, attendee := range attendees {
		if prev, ok := existing[attendee.ID]; ok && (prev.UserEdited || !req.Regenerate) {
			tally.skip()
			s.metrics.ObserveResult(metrics.ResultSkipped, attendee.EngagementTier.String())
			continue
		}

		result := s.generateOne(ctx, *webinar, attendee, chats[attendee.Email])
		switch {
		case result.skipped:
			tally.skip()
		case result.err != nil:
			logger.Warn().Err(result.err).Str("attendee_email", attendee.Email).Msg("Failed to generate email")
			tally.fail(fmt.Sprintf("Failed for %s: %v", attendee.Name, result.err), result.rejected)
		default:
			tally.success(attendee.EngagementTier)
		}
	}

	s.emails.Delete(emailsKey(req.WebinarID))
	s.metrics.ObserveBatch(time.Since(start).Seconds())

	details := tally.details
	resp := &models.GenerateEmailsResponse{
		BatchID:         batchID,
		WebinarID:       req.WebinarID,
		Status:          tally.status(),
		EmailsGenerated: details.Successful,
		Message:         fmt.Sprintf("Generated %d emails, skipped %d, failed %d", details.Successful, details.Skipped, details.Failed),
		Details:         details,
	}

	logger.Info().
		Str("status", resp.Status).
		Int("total", details.TotalAttendees).
		Int("successful", details.Successful).
		Int("skipped", details.Skipped).
		Int("failed", details.Failed).
		Int("failed_validation", details.FailedValidation).
		Dur("duration", time.Since(start)).
		Msg("Email batch finished")

	return resp, nil
}

type attendeeOutcome struct {
	skipped  bool
	rejected bool
	err      error
}

// generateOne generates, validates and stores one attendee's email
func (s *Service) generateOne(ctx context.Context, webinar models.Webinar, attendee models.Attendee, messages []models.ChatMessage) attendeeOutcome {
	tier := attendee.EngagementTier.String()

	result, err := s.generator.Generate(ctx, emailgen.Input{
		Attendee: attendee,
		Webinar:  webinar,
		Messages: messages,
	})
	if err != nil {
		s.metrics.ObserveResult(metrics.ResultFailed, tier)
		s.track("generation_failed", func(t UsageTracker) error {
			return t.TrackGenerationFailure(ctx, tier, false)
		})
		return attendeeOutcome{err: err}
	}

	if !result.Verdict.Valid {
		s.metrics.ObserveResult(metrics.ResultFailedValidation, tier)
		s.track("validation_rejected", func(t UsageTracker) error {
			return t.TrackGenerationFailure(ctx, tier, true)
		})
		return attendeeOutcome{
			rejected: true,
			err:      fmt.Errorf("failed validation: %s", strings.Join(result.Verdict.Reasons, "; ")),
		}
	}

	generated := result.Email
	htmlBody := email.TextToHTML(generated.EmailBodyText)
	generated.EmailBodyHTML = &htmlBody

	if err := s.store.SaveGeneratedEmail(ctx, &generated); err != nil {
		if errors.Is(err, database.ErrUserEdited) {
			s.metrics.ObserveResult(metrics.ResultSkipped, tier)
			return attendeeOutcome{skipped: true}
		}
		s.metrics.ObserveResult(metrics.ResultFailed, tier)
		return attendeeOutcome{err: err}
	}

	s.metrics.ObserveResult(metrics.ResultSuccess, tier)
	meta := generated.GenerationMetadata
	s.track("generation", func(t UsageTracker) error {
		return t.TrackGeneration(ctx, tier, meta.TokensConsumed, meta.ModelUsed)
	})
	return attendeeOutcome{}
}
