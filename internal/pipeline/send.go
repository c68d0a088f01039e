package pipeline

import (
	"context"
	"errors"
	"fmt"

	"webinarwins/internal/email"
	"webinarwins/internal/models"
	"webinarwins/internal/scoring"
)

// ErrDeliveryUnavailable is returned when no mailer is configured
var ErrDeliveryUnavailable = errors.New("email delivery is not configured")

const (
	sendTypeFollowUp = "follow_up"
	sendTypeNoShow   = "no_show"
)

// SendEmail delivers one generated email and records its sent status
func (s *Service) SendEmail(ctx context.Context, emailID int64) (*models.SendResponse, error) {
	if s.mailer == nil {
		return nil, ErrDeliveryUnavailable
	}

	generated, err := s.store.GetGeneratedEmail(ctx, emailID)
	if err != nil {
		return nil, err
	}

	if err := s.deliver(ctx, generated, sendTypeFollowUp); err != nil {
		return &models.SendResponse{Success: false, Message: "Failed to send email", Error: err.Error()}, nil
	}
	return &models.SendResponse{Success: true, Message: "Email sent successfully"}, nil
}

// SendNoShows delivers every unsent email generated for a No-Show attendee of the webinar
func (s *Service) SendNoShows(ctx context.Context, webinarID int64) (*models.BulkSendResponse, error) {
	if s.mailer == nil {
		return nil, ErrDeliveryUnavailable
	}

	if _, err := s.store.GetWebinar(ctx, webinarID); err != nil {
		return nil, err
	}
	emails, err := s.store.ListGeneratedEmails(ctx, webinarID)
	if err != nil {
		return nil, err
	}

	resp := &models.BulkSendResponse{Errors: []string{}}
	for i := range emails {
		e := &emails[i]
		if e.EngagementTier != scoring.NoShow {
			continue
		}
		if e.SentStatus == models.SentStatusSent {
			resp.Skipped++
			continue
		}

		if err := s.deliver(ctx, e, sendTypeNoShow); err != nil {
			resp.Failed++
			if s.opts.BatchErrorLimit <= 0 || len(resp.Errors) < s.opts.BatchErrorLimit {
				resp.Errors = append(resp.Errors, fmt.Sprintf("Failed for %s: %v", e.AttendeeName, err))
			}
			continue
		}
		resp.Sent++
	}

	s.logger.Info().
		Int64("webinar_id", webinarID).
		Int("sent", resp.Sent).
		Int("failed", resp.Failed).
		Int("skipped", resp.Skipped).
		Msg("No-show emails sent")

	return resp, nil
}

// deliver sends one email and stores the outcome on its row
func (s *Service) deliver(ctx context.Context, e *models.GeneratedEmailResponse, sendType string) error {
	msg := email.Message{
		ToName:  e.AttendeeName,
		ToEmail: e.AttendeeEmail,
		Subject: e.SubjectLine,
		Text:    e.EmailBodyText,
	}
	if e.EmailBodyHTML != nil {
		msg.HTML = *e.EmailBodyHTML
	}
	// sent status changes either way
	defer s.emails.Clear()

	if err := s.mailer.Send(ctx, msg); err != nil {
		s.metrics.ObserveSend(models.SentStatusFailed)
		s.logger.Warn().Err(err).Int64("email_id", e.ID).Str("attendee_email", e.AttendeeEmail).Msg("Failed to send email")
		if markErr := s.store.MarkEmailSent(ctx, e.ID, models.SentStatusFailed, nil); markErr != nil {
			s.logger.Error().Err(markErr).Int64("email_id", e.ID).Msg("Failed to record send failure")
		}
		return err
	}

	sentAt := s.now()
	s.metrics.ObserveSend(models.SentStatusSent)
	s.track("sendgrid", func(t UsageTracker) error {
		return t.TrackSendGridEmail(ctx, sendType, e.AttendeeEmail)
	})
	if err := s.store.MarkEmailSent(ctx, e.ID, models.SentStatusSent, &sentAt); err != nil {
		return fmt.Errorf("email sent but status not recorded: %w", err)
	}
	return nil
}
