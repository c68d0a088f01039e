package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"webinarwins/internal/scoring"
)

// Webinar is one hosted session together with the offer pitched at the end
type Webinar struct {
	ID               int64     `db:"id" json:"id"`
	Title            string    `db:"title" json:"title"`
	Topic            string    `db:"topic" json:"topic,omitempty"`
	OfferName        string    `db:"offer_name" json:"offer_name,omitempty"`
	OfferDescription string    `db:"offer_description" json:"offer_description,omitempty"`
	Price            *float64  `db:"price" json:"price,omitempty"`
	Deadline         string    `db:"deadline" json:"deadline,omitempty"` // free text, e.g. "48 hours"
	ReplayURL        string    `db:"replay_url" json:"replay_url,omitempty"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`

	// rows dropped by the normalizer at upload time
	SkippedAttendeeRows int `db:"skipped_attendee_rows" json:"-"`
	SkippedChatRows     int `db:"skipped_chat_rows" json:"-"`
}

// Attendee is one registrant row from the attendance export, with its engagement result
type Attendee struct {
	ID                int64        `db:"id" json:"id"`
	WebinarID         int64        `db:"webinar_id" json:"webinar_id"`
	Name              string       `db:"name" json:"name"`
	Email             string       `db:"email" json:"email"` // lower-cased, trimmed join key
	Attended          bool         `db:"attended" json:"attended"`
	AttendancePercent *int         `db:"attendance_percent" json:"attendance_percent,omitempty"`
	FocusPercent      *int         `db:"focus_percent" json:"focus_percent,omitempty"`
	AttendanceMinutes int          `db:"attendance_minutes" json:"attendance_minutes"`
	JoinTime          *time.Time   `db:"join_time" json:"join_time,omitempty"`
	ExitTime          *time.Time   `db:"exit_time" json:"exit_time,omitempty"`
	Location          string       `db:"location" json:"location,omitempty"`
	EngagementScore   int          `db:"engagement_score" json:"engagement_score"`
	EngagementTier    scoring.Tier `db:"engagement_tier" json:"engagement_tier"`
	CreatedAt         time.Time    `db:"created_at" json:"created_at"`
}

// ChatMessage is one row from the chat export
type ChatMessage struct {
	ID          int64      `db:"id" json:"id"`
	WebinarID   int64      `db:"webinar_id" json:"webinar_id"`
	AttendeeID  int64      `db:"attendee_id" json:"attendee_id,omitempty"` // 0 when the sender did not register
	Name        string     `db:"name" json:"name,omitempty"`
	Email       string     `db:"email" json:"email"`
	MessageText string     `db:"message_text" json:"message_text"`
	Timestamp   *time.Time `db:"timestamp" json:"timestamp,omitempty"`
	IsQuestion  bool       `db:"is_question" json:"is_question"`
}

// Sent statuses of a generated email
const (
	SentStatusDraft  = "draft"
	SentStatusSent   = "sent"
	SentStatusFailed = "failed"
)

// GeneratedEmail is the current AI follow-up for one attendee
type GeneratedEmail struct {
	ID                      int64              `db:"id" json:"id"`
	AttendeeID              int64              `db:"attendee_id" json:"attendee_id"`
	SubjectLine             string             `db:"subject_line" json:"subject_line"`
	EmailBodyText           string             `db:"email_body_text" json:"email_body_text"`
	EmailBodyHTML           *string            `db:"email_body_html" json:"email_body_html,omitempty"`
	EngagementScore         int                `db:"engagement_score" json:"engagement_score"`
	EngagementTier          scoring.Tier       `db:"engagement_tier" json:"engagement_tier"`
	PersonalizationElements Personalization    `db:"personalization_elements" json:"personalization_elements"`
	GenerationMetadata      GenerationMetadata `db:"generation_metadata" json:"generation_metadata"`
	UserEdited              bool               `db:"user_edited" json:"user_edited"`
	SentStatus              string             `db:"sent_status" json:"sent_status"`
	SentAt                  *time.Time         `db:"sent_at" json:"sent_at,omitempty"`
	CreatedAt               time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt               time.Time          `db:"updated_at" json:"updated_at"`
}

// ChatReference is a chat excerpt that was available to the generator
type ChatReference struct {
	Message    string     `json:"message"`
	IsQuestion bool       `json:"is_question"`
	Timestamp  *time.Time `json:"timestamp"`
}

// SelectionInfo describes which of the drafted versions was kept
type SelectionInfo struct {
	SelectedProbability int    `json:"selected_probability"`
	ModelUsed           string `json:"model_used"`
	GenerationMethod    string `json:"generation_method"`
}

// Personalization echoes the context an email was generated from
type Personalization struct {
	EngagementScore   int             `json:"engagement_score"`
	EngagementTier    scoring.Tier    `json:"engagement_tier"`
	FocusPercent      int             `json:"focus_percent"`
	AttendancePercent int             `json:"attendance_percent"`
	MessageCount      int             `json:"message_count"`
	QuestionCount     int             `json:"question_count"`
	ChatReferences    []ChatReference `json:"chat_references"`
	AISelectionInfo   SelectionInfo   `json:"ai_selection_info"`
}

// GenerationMetadata records how the generator was called
type GenerationMetadata struct {
	RequestID      string  `json:"request_id"`
	ModelUsed      string  `json:"model_used"`
	TokensConsumed int     `json:"tokens_consumed"`
	Temperature    float32 `json:"temperature"`
	MaxTokens      int     `json:"max_tokens"`
	Attempts       int     `json:"attempts"`
}

// Value stores the personalization block as JSON
func (p Personalization) Value() (driver.Value, error) {
	return jsonValue(p)
}

// Scan reads a JSON personalization block
func (p *Personalization) Scan(src interface{}) error {
	return jsonScan(src, p)
}

// Value stores the generation metadata as JSON
func (g GenerationMetadata) Value() (driver.Value, error) {
	return jsonValue(g)
}

// Scan reads JSON generation metadata
func (g *GenerationMetadata) Scan(src interface{}) error {
	return jsonScan(src, g)
}

func jsonValue(v interface{}) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func jsonScan(src interface{}, dest interface{}) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, dest)
	case string:
		return json.Unmarshal([]byte(v), dest)
	default:
		return fmt.Errorf("cannot scan %T as JSON", src)
	}
}
