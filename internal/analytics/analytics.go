package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"webinarwins/internal/database"
	"webinarwins/internal/models"

	"github.com/rs/zerolog"
)

// EventType constants for tracking different events
const (
	EventWebinarIngest      = "webinar_ingest"
	EventEmailGenerated     = "email_generated"
	EventGenerationFailed   = "generation_failed"
	EventValidationRejected = "validation_rejected"
	EventOpenAICall         = "openai_call"
	EventSendGridCall       = "sendgrid_call"
)

// Period constants for analytics queries
const (
	PeriodToday      = "today"
	PeriodYesterday  = "yesterday"
	PeriodLast7Days  = "last_7_days"
	PeriodLast30Days = "last_30_days"
)

// Service handles analytics tracking and retrieval
type Service struct {
	writeClient *database.WriteClient
	logger      zerolog.Logger
	now         func() time.Time
	mu          sync.Mutex
}

// NewService creates a new analytics service
func NewService(writeClient *database.WriteClient, logger zerolog.Logger) (*Service, error) {
	if writeClient == nil {
		return nil, fmt.Errorf("write client is required for analytics service")
	}

	return &Service{
		writeClient: writeClient,
		logger:      logger.With().Str("component", "analytics").Logger(),
		now:         func() time.Time { return time.Now().UTC() },
	}, nil
}

// CreateTables creates the analytics tables in the database
func (s *Service) CreateTables(ctx context.Context) error {
	primaryKey := "BIGINT AUTO_INCREMENT PRIMARY KEY"
	if s.writeClient.Driver() == database.DriverPostgres {
		primaryKey = "BIGSERIAL PRIMARY KEY"
	}

	queries := []string{
		// Analytics events table
		`CREATE TABLE IF NOT EXISTS analytics_events (
			id ` + primaryKey + `,
			event_type VARCHAR(50) NOT NULL,
			count INT NOT NULL DEFAULT 1,
			tokens INT NOT NULL DEFAULT 0,
			metadata TEXT,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		// Daily aggregates table for faster queries
		`CREATE TABLE IF NOT EXISTS analytics_daily (
			date DATE NOT NULL,
			event_type VARCHAR(50) NOT NULL,
			total_count INT NOT NULL DEFAULT 0,
			total_tokens INT NOT NULL DEFAULT 0,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (date, event_type)
		)`,
	}

	for _, query := range queries {
		if _, err := s.writeClient.ExecuteWriteQuery(ctx, query); err != nil {
			return fmt.Errorf("failed to create analytics tables: %w", err)
		}
	}

	return nil
}

// TrackEvent records an analytics event and folds it into the daily aggregate
func (s *Service) TrackEvent(ctx context.Context, eventType string, count, tokens int, metadata map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var metadataJSON *string
	if metadata != nil {
		jsonBytes, err := json.Marshal(metadata)
		if err == nil {
			str := string(jsonBytes)
			metadataJSON = &str
		}
	}

	now := s.now()
	query := `INSERT INTO analytics_events (event_type, count, tokens, metadata, created_at) VALUES (?, ?, ?, ?, ?)`
	if _, err := s.writeClient.ExecuteWriteQuery(ctx, query, eventType, count, tokens, metadataJSON, now); err != nil {
		return fmt.Errorf("failed to track event: %w", err)
	}

	if _, err := s.writeClient.ExecuteWriteQuery(ctx, s.aggregateQuery(), now.Format("2006-01-02"), eventType, count, tokens); err != nil {
		s.logger.Warn().Err(err).Str("event_type", eventType).Msg("Failed to update daily aggregate")
	}

	return nil
}

func (s *Service) aggregateQuery() string {
	if s.writeClient.Driver() == database.DriverPostgres {
		return `
		INSERT INTO analytics_daily (date, event_type, total_count, total_tokens)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (date, event_type) DO UPDATE SET
			total_count = analytics_daily.total_count + EXCLUDED.total_count,
			total_tokens = analytics_daily.total_tokens + EXCLUDED.total_tokens,
			updated_at = CURRENT_TIMESTAMP`
	}
	return `
		INSERT INTO analytics_daily (date, event_type, total_count, total_tokens)
		VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			total_count = total_count + VALUES(total_count),
			total_tokens = total_tokens + VALUES(total_tokens),
			updated_at = CURRENT_TIMESTAMP`
}

// TrackIngest records an uploaded webinar
func (s *Service) TrackIngest(ctx context.Context, webinarID int64, attendees, chatMessages int) error {
	metadata := map[string]interface{}{
		"webinar_id":    webinarID,
		"attendees":     attendees,
		"chat_messages": chatMessages,
	}
	return s.TrackEvent(ctx, EventWebinarIngest, attendees, 0, metadata)
}

// TrackGeneration records an accepted email and the generator call that produced it
func (s *Service) TrackGeneration(ctx context.Context, tier string, tokens int, model string) error {
	if err := s.TrackEvent(ctx, EventEmailGenerated, 1, 0, map[string]interface{}{"tier": tier}); err != nil {
		return err
	}

	// Track OpenAI call
	openAIMetadata := map[string]interface{}{
		"tokens": tokens,
		"model":  model,
	}
	return s.TrackEvent(ctx, EventOpenAICall, 1, tokens, openAIMetadata)
}

// TrackGenerationFailure records an attendee whose email could not be produced.
// Rejected content is tracked apart from generator failures.
func (s *Service) TrackGenerationFailure(ctx context.Context, tier string, rejected bool) error {
	eventType := EventGenerationFailed
	if rejected {
		eventType = EventValidationRejected
	}
	return s.TrackEvent(ctx, eventType, 1, 0, map[string]interface{}{"tier": tier})
}

// TrackSendGridEmail records a SendGrid email sent
func (s *Service) TrackSendGridEmail(ctx context.Context, emailType string, recipient string) error {
	metadata := map[string]interface{}{
		"type":           emailType,
		"recipient_hash": hashEmail(recipient),
	}
	return s.TrackEvent(ctx, EventSendGridCall, 1, 0, metadata)
}

// periodRange resolves a period name against now. Unknown periods mean today.
func periodRange(period string, now time.Time) (string, time.Time, time.Time) {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	switch period {
	case PeriodYesterday:
		return period, midnight.AddDate(0, 0, -1), midnight
	case PeriodLast7Days:
		return period, now.AddDate(0, 0, -7), now
	case PeriodLast30Days:
		return period, now.AddDate(0, 0, -30), now
	case PeriodToday:
		return period, midnight, now
	default:
		return PeriodToday, midnight, now
	}
}

// GetSummary retrieves analytics summary for a time period
func (s *Service) GetSummary(ctx context.Context, period string) (*models.AnalyticsSummary, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	period, startDate, endDate := periodRange(period, s.now())
	summary := &models.AnalyticsSummary{
		Period:    period,
		StartDate: startDate,
		EndDate:   endDate,
	}

	// Get event counts from daily aggregates
	var rows []struct {
		EventType string `db:"event_type"`
		Total     int    `db:"total"`
		Tokens    int    `db:"tokens"`
	}
	query := `
		SELECT event_type, COALESCE(SUM(total_count), 0) AS total, COALESCE(SUM(total_tokens), 0) AS tokens
		FROM analytics_daily
		WHERE date >= ? AND date <= ?
		GROUP BY event_type`
	err := s.writeClient.ExecuteWriteQueryWithResult(ctx, &rows, query, startDate.Format("2006-01-02"), endDate.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("failed to get analytics summary: %w", err)
	}

	for _, row := range rows {
		switch row.EventType {
		case EventWebinarIngest:
			summary.AttendeesIngested = row.Total
		case EventEmailGenerated:
			summary.EmailsGenerated = row.Total
		case EventGenerationFailed:
			summary.GenerationFailures = row.Total
		case EventValidationRejected:
			summary.ValidationRejected = row.Total
		case EventOpenAICall:
			summary.OpenAICalls = row.Total
			summary.OpenAITokensUsed = row.Tokens
		case EventSendGridCall:
			summary.SendGridEmailsSent = row.Total
		}
	}

	// ingest events count attendees, so uploads are counted from the raw events
	countQuery := `SELECT COUNT(*) FROM analytics_events WHERE event_type = ? AND created_at >= ? AND created_at <= ?`
	if err := s.writeClient.ExecuteWriteQuerySingle(ctx, &summary.WebinarsIngested, countQuery, EventWebinarIngest, startDate, endDate); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to count webinar uploads")
	}

	return summary, nil
}

// GetDailyReport returns yesterday's complete summary
func (s *Service) GetDailyReport(ctx context.Context) (*models.AnalyticsSummary, error) {
	return s.GetSummary(ctx, PeriodYesterday)
}

// hashEmail creates a simple hash of an email for privacy
func hashEmail(email string) string {
	if len(email) < 3 {
		return "***"
	}
	return email[:2] + "***" + email[len(email)-3:]
}
