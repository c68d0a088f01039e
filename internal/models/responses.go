package models

import "time"

// HealthResponse represents a basic health check response
// @Description Health check response
type HealthResponse struct {
	Status    string    `json:"status" example:"healthy"`                 // Health status
	Timestamp time.Time `json:"timestamp" example:"2023-01-01T00:00:00Z"` // Timestamp of the check
	Version   string    `json:"version" example:"1.0.0"`                  // Application version
}

// DBHealthResponse represents a database health check response
// @Description Database health check response
type DBHealthResponse struct {
	Status    string        `json:"status" example:"healthy"`                   // Health status
	Timestamp time.Time     `json:"timestamp" example:"2023-01-01T00:00:00Z"`   // Timestamp of the check
	Connected bool          `json:"connected" example:"true"`                   // Database connection status
	Latency   time.Duration `json:"latency" swaggertype:"string" example:"1ms"` // Database ping latency
	Error     string        `json:"error,omitempty" example:""`                 // Error message if any
}

// ErrorResponse is returned by every endpoint on failure
type ErrorResponse struct {
	Error string `json:"error" example:"Webinar not found"`
}

// LoginRequest carries operator credentials
type LoginRequest struct {
	Username string `json:"username" example:"operator"`
	Password string `json:"password" example:"secret"`
}

// LoginResponse represents the response to an operator login
type LoginResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token,omitempty"`
	Error   string `json:"error,omitempty"`
}

// WebinarStats summarizes an ingested webinar
// @Description Attendance and tier breakdown of a webinar
type WebinarStats struct {
	TotalRegistrants     int      `json:"total_registrants" example:"120"`
	TotalAttendees       int      `json:"total_attendees" example:"80"`
	NoShows              int      `json:"no_shows" example:"40"`
	AttendanceRate       float64  `json:"attendance_rate" example:"66.7"` // percent, one decimal
	HotLeads             int      `json:"hot_leads" example:"12"`
	WarmLeads            int      `json:"warm_leads" example:"20"`
	CoolLeads            int      `json:"cool_leads" example:"25"`
	ColdLeads            int      `json:"cold_leads" example:"23"`
	AvgFocusPercent      *float64 `json:"avg_focus_percent,omitempty" example:"71.5"`
	AvgAttendancePercent *float64 `json:"avg_attendance_percent,omitempty" example:"64.2"`
	TotalChatMessages    int      `json:"total_chat_messages" example:"213"`
	SkippedAttendeeRows  int      `json:"skipped_attendee_rows" example:"0"`
	SkippedChatRows      int      `json:"skipped_chat_rows" example:"2"`
}

// WebinarResponse is a webinar with its stats
// @Description Webinar payload
type WebinarResponse struct {
	Webinar
	Stats *WebinarStats `json:"stats,omitempty"`
}

// AttendeeResponse is an attendee with chat activity counts
// @Description Attendee payload
type AttendeeResponse struct {
	Attendee
	TierColor     string `json:"tier_color" example:"red"`
	TierPriority  int    `json:"tier_priority" example:"1"`
	MessageCount  int    `json:"message_count" example:"4"`
	QuestionCount int    `json:"question_count" example:"1"`
}

// Batch statuses
const (
	BatchStatusCompleted      = "completed"
	BatchStatusPartialSuccess = "partial_success"
	BatchStatusFailed         = "failed"
)

// BatchDetails carries the per-attendee outcome counts of a generation batch
type BatchDetails struct {
	TotalAttendees   int            `json:"total_attendees" example:"3"`
	Successful       int            `json:"successful" example:"1"`
	Failed           int            `json:"failed" example:"1"`
	FailedValidation int            `json:"failed_validation" example:"0"` // subset of Failed
	Skipped          int            `json:"skipped" example:"1"`
	Errors           []string       `json:"errors"`
	TierBreakdown    map[string]int `json:"tier_breakdown"`
}

// GenerateEmailsResponse is the report of one batch generation run
// @Description Batch email generation report
type GenerateEmailsResponse struct {
	BatchID         string       `json:"batch_id" example:"5f0c7c1e-4a4b-4a55-9a0b-3f4f3c1e2d10"`
	WebinarID       int64        `json:"webinar_id" example:"1"`
	Status          string       `json:"status" example:"partial_success"`
	EmailsGenerated int          `json:"emails_generated" example:"1"`
	Message         string       `json:"message" example:"Generated 1 emails, skipped 1, failed 1"`
	Details         BatchDetails `json:"details"`
}

// GeneratedEmailResponse is a generated email with its attendee
// @Description Generated email payload
type GeneratedEmailResponse struct {
	GeneratedEmail
	AttendeeName  string `db:"attendee_name" json:"attendee_name"`
	AttendeeEmail string `db:"attendee_email" json:"attendee_email"`
}

// SendResponse reports the outcome of sending one email
// @Description Send email response payload
type SendResponse struct {
	Success bool   `json:"success" example:"true"`
	Message string `json:"message" example:"Email sent successfully"`
	Error   string `json:"error,omitempty" example:""`
}

// BulkSendResponse reports a bulk send run
// @Description Bulk send response payload
type BulkSendResponse struct {
	Sent    int      `json:"sent" example:"10"`
	Failed  int      `json:"failed" example:"0"`
	Skipped int      `json:"skipped" example:"2"`
	Errors  []string `json:"errors"`
}
