package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"webinarwins/internal/models"

	"github.com/jmoiron/sqlx"
)

var (
	// ErrNotFound is returned when a webinar, attendee or email row does not exist
	ErrNotFound = errors.New("not found")

	// ErrUserEdited is returned when saving over an email a user has edited
	ErrUserEdited = errors.New("generated email was edited by a user")
)

const (
	webinarColumns = `id, title, topic, offer_name, COALESCE(offer_description, '') AS offer_description, price,
		deadline, replay_url, skipped_attendee_rows, skipped_chat_rows, created_at`

	attendeeColumns = `id, webinar_id, name, email, attended, attendance_percent, focus_percent,
		attendance_minutes, join_time, exit_time, location, engagement_score, engagement_tier, created_at`

	chatColumns = `id, webinar_id, COALESCE(attendee_id, 0) AS attendee_id, name, email, message_text, timestamp, is_question`

	emailColumns = `ge.id, ge.attendee_id, ge.subject_line, ge.email_body_text, ge.email_body_html,
		ge.engagement_score, ge.engagement_tier, ge.personalization_elements, ge.generation_metadata,
		ge.user_edited, ge.sent_status, ge.sent_at, ge.created_at, ge.updated_at`
)

// WebinarStore persists webinars, their attendees, chat messages and generated emails
type WebinarStore struct {
	wc *WriteClient
}

// NewWebinarStore creates a new webinar store
func NewWebinarStore(writeClient *WriteClient) (*WebinarStore, error) {
	if writeClient == nil {
		return nil, fmt.Errorf("write client is required for webinar store")
	}
	return &WebinarStore{wc: writeClient}, nil
}

// CreateWebinar stores a webinar with its attendees and chat messages in one
// transaction. Generated ids are written back into w, attendees and messages.
// Messages are linked to the attendee with the same email; messages from
// unregistered senders are kept unlinked.
func (s *WebinarStore) CreateWebinar(ctx context.Context, w *models.Webinar, attendees []models.Attendee, messages []models.ChatMessage) error {
	now := time.Now().UTC()

	err := s.wc.WithTx(ctx, func(tx *sqlx.Tx) error {
		webinarID, err := s.wc.insertReturningID(ctx, tx, `
			INSERT INTO webinars (title, topic, offer_name, offer_description, price, deadline, replay_url,
				skipped_attendee_rows, skipped_chat_rows, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			w.Title, w.Topic, w.OfferName, w.OfferDescription, w.Price, w.Deadline, w.ReplayURL,
			w.SkippedAttendeeRows, w.SkippedChatRows, now)
		if err != nil {
			return fmt.Errorf("failed to insert webinar: %w", err)
		}

		attendeeIDs := make(map[string]int64, len(attendees))
		for i := range attendees {
			a := &attendees[i]
			id, err := s.wc.insertReturningID(ctx, tx, `
				INSERT INTO attendees (webinar_id, name, email, attended, attendance_percent, focus_percent,
					attendance_minutes, join_time, exit_time, location, engagement_score, engagement_tier, created_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				webinarID, a.Name, a.Email, a.Attended, a.AttendancePercent, a.FocusPercent,
				a.AttendanceMinutes, a.JoinTime, a.ExitTime, a.Location, a.EngagementScore, a.EngagementTier, now)
			if err != nil {
				return fmt.Errorf("failed to insert attendee %s: %w", a.Email, err)
			}
			a.ID, a.WebinarID, a.CreatedAt = id, webinarID, now
			// later duplicates win, matching the matcher's map semantics
			attendeeIDs[a.Email] = id
		}

		for i := range messages {
			m := &messages[i]
			var attendeeID interface{}
			if id, ok := attendeeIDs[m.Email]; ok {
				attendeeID = id
				m.AttendeeID = id
			}
			id, err := s.wc.insertReturningID(ctx, tx, `
				INSERT INTO chat_messages (webinar_id, attendee_id, name, email, message_text, timestamp, is_question)
				VALUES (?, ?, ?, ?, ?, ?, ?)`,
				webinarID, attendeeID, m.Name, m.Email, m.MessageText, m.Timestamp, m.IsQuestion)
			if err != nil {
				return fmt.Errorf("failed to insert chat message: %w", err)
			}
			m.ID, m.WebinarID = id, webinarID
		}

		w.ID, w.CreatedAt = webinarID, now
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to create webinar: %w", err)
	}
	return nil
}

// GetWebinar retrieves a webinar by id
func (s *WebinarStore) GetWebinar(ctx context.Context, id int64) (*models.Webinar, error) {
	var w models.Webinar
	err := s.wc.ExecuteWriteQuerySingle(ctx, &w, `SELECT `+webinarColumns+` FROM webinars WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get webinar: %w", err)
	}
	return &w, nil
}

// ListAttendees returns a webinar's attendees in upload order
func (s *WebinarStore) ListAttendees(ctx context.Context, webinarID int64) ([]models.Attendee, error) {
	attendees := []models.Attendee{}
	err := ExecuteReadOnlyQuery(ctx, s.wc.GetDB(), &attendees,
		s.wc.Rebind(`SELECT `+attendeeColumns+` FROM attendees WHERE webinar_id = ? ORDER BY id`), webinarID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendees: %w", err)
	}
	return attendees, nil
}

// ListChatMessages returns a webinar's chat messages in upload order
func (s *WebinarStore) ListChatMessages(ctx context.Context, webinarID int64) ([]models.ChatMessage, error) {
	messages := []models.ChatMessage{}
	err := ExecuteReadOnlyQuery(ctx, s.wc.GetDB(), &messages,
		s.wc.Rebind(`SELECT `+chatColumns+` FROM chat_messages WHERE webinar_id = ? ORDER BY id`), webinarID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chat messages: %w", err)
	}
	return messages, nil
}

// GetGeneratedEmail retrieves a generated email by id
func (s *WebinarStore) GetGeneratedEmail(ctx context.Context, id int64) (*models.GeneratedEmailResponse, error) {
	var e models.GeneratedEmailResponse
	err := s.wc.ExecuteWriteQuerySingle(ctx, &e, `
		SELECT `+emailColumns+`, a.name AS attendee_name, a.email AS attendee_email
		FROM generated_emails ge
		JOIN attendees a ON a.id = ge.attendee_id
		WHERE ge.id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get generated email: %w", err)
	}
	return &e, nil
}

// ListGeneratedEmails returns the current email of every attendee of a webinar that has one
func (s *WebinarStore) ListGeneratedEmails(ctx context.Context, webinarID int64) ([]models.GeneratedEmailResponse, error) {
	emails := []models.GeneratedEmailResponse{}
	err := ExecuteReadOnlyQuery(ctx, s.wc.GetDB(), &emails, s.wc.Rebind(`
		SELECT `+emailColumns+`, a.name AS attendee_name, a.email AS attendee_email
		FROM generated_emails ge
		JOIN attendees a ON a.id = ge.attendee_id
		WHERE a.webinar_id = ?
		ORDER BY ge.engagement_score DESC, a.name`), webinarID)
	if err != nil {
		return nil, fmt.Errorf("failed to list generated emails: %w", err)
	}
	return emails, nil
}

// SaveGeneratedEmail inserts or replaces the current email of e.AttendeeID.
// An existing email a user has edited is never replaced: ErrUserEdited is returned.
func (s *WebinarStore) SaveGeneratedEmail(ctx context.Context, e *models.GeneratedEmail) error {
	now := time.Now().UTC()
	if e.SentStatus == "" {
		e.SentStatus = models.SentStatusDraft
	}

	return s.wc.WithTx(ctx, func(tx *sqlx.Tx) error {
		var existing struct {
			ID         int64 `db:"id"`
			UserEdited bool  `db:"user_edited"`
		}
		err := tx.GetContext(ctx, &existing,
			tx.Rebind(`SELECT id, user_edited FROM generated_emails WHERE attendee_id = ?`), e.AttendeeID)

		switch {
		case errors.Is(err, sql.ErrNoRows):
			id, err := s.wc.insertReturningID(ctx, tx, `
				INSERT INTO generated_emails (attendee_id, subject_line, email_body_text, email_body_html,
					engagement_score, engagement_tier, personalization_elements, generation_metadata,
					user_edited, sent_status, created_at, updated_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				e.AttendeeID, e.SubjectLine, e.EmailBodyText, e.EmailBodyHTML,
				e.EngagementScore, e.EngagementTier, e.PersonalizationElements, e.GenerationMetadata,
				e.UserEdited, e.SentStatus, now, now)
			if err != nil {
				return fmt.Errorf("failed to insert generated email: %w", err)
			}
			e.ID, e.CreatedAt, e.UpdatedAt = id, now, now
			return nil
		case err != nil:
			return fmt.Errorf("failed to look up generated email: %w", err)
		case existing.UserEdited:
			return ErrUserEdited
		}

		_, err = tx.ExecContext(ctx, tx.Rebind(`
			UPDATE generated_emails
			SET subject_line = ?, email_body_text = ?, email_body_html = ?, engagement_score = ?,
				engagement_tier = ?, personalization_elements = ?, generation_metadata = ?,
				sent_status = ?, sent_at = NULL, updated_at = ?
			WHERE id = ?`),
			e.SubjectLine, e.EmailBodyText, e.EmailBodyHTML, e.EngagementScore,
			e.EngagementTier, e.PersonalizationElements, e.GenerationMetadata,
			e.SentStatus, now, existing.ID)
		if err != nil {
			return fmt.Errorf("failed to update generated email: %w", err)
		}
		e.ID, e.UpdatedAt = existing.ID, now
		return nil
	})
}

// MarkEmailSent records a delivery outcome for a generated email
func (s *WebinarStore) MarkEmailSent(ctx context.Context, id int64, status string, sentAt *time.Time) error {
	res, err := s.wc.ExecuteWriteQuery(ctx,
		`UPDATE generated_emails SET sent_status = ?, sent_at = ?, updated_at = ? WHERE id = ?`,
		status, sentAt, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update sent status: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
