package models

import "time"

// AnalyticsEvent represents a tracked event
type AnalyticsEvent struct {
	ID        int       `db:"id" json:"id"`
	EventType string    `db:"event_type" json:"event_type"` // webinar_ingest, email_generated, generation_failed, validation_rejected, openai_call, sendgrid_call
	Count     int       `db:"count" json:"count"`
	Tokens    int       `db:"tokens" json:"tokens"`
	Metadata  *string   `db:"metadata" json:"metadata,omitempty"` // JSON metadata (tokens used, model, tier)
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// AnalyticsSummary represents aggregated analytics for a time period
type AnalyticsSummary struct {
	Period             string    `json:"period"`               // "today", "yesterday", "last_7_days", "last_30_days"
	WebinarsIngested   int       `json:"webinars_ingested"`    // CSV uploads processed
	AttendeesIngested  int       `json:"attendees_ingested"`   // Attendee rows stored
	EmailsGenerated    int       `json:"emails_generated"`     // Emails accepted from the generator
	GenerationFailures int       `json:"generation_failures"`  // Attendees whose generation exhausted retries
	ValidationRejected int       `json:"validation_rejected"`  // Outputs rejected by content validation
	OpenAICalls        int       `json:"openai_calls"`         // Total generator calls
	OpenAITokensUsed   int       `json:"openai_tokens_used"`   // Total tokens consumed
	SendGridEmailsSent int       `json:"sendgrid_emails_sent"` // Emails sent via SendGrid
	StartDate          time.Time `json:"start_date"`           // Period start
	EndDate            time.Time `json:"end_date"`             // Period end
}

// AnalyticsResponse represents the API response for analytics
// @Description Analytics response payload
type AnalyticsResponse struct {
	Success bool              `json:"success" example:"true"`
	Summary *AnalyticsSummary `json:"summary,omitempty"`
	Error   string            `json:"error,omitempty" example:""`
}
