package emailgen

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"webinarwins/internal/models"
	"webinarwins/internal/scoring"
)

// scripted is one canned generator outcome
type scripted struct {
	text string
	err  error
}

// scriptedGenerator replays outcomes in order, repeating the last one
type scriptedGenerator struct {
	mu       sync.Mutex
	script   []scripted
	requests []Request
}

func (s *scriptedGenerator) Generate(ctx context.Context, req Request) (*Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.requests = append(s.requests, req)
	i := len(s.requests) - 1
	if i >= len(s.script) {
		i = len(s.script) - 1
	}
	outcome := s.script[i]
	if outcome.err != nil {
		return nil, outcome.err
	}
	return &Response{Text: outcome.text, TotalTokens: 321}, nil
}

func (s *scriptedGenerator) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

// sleepRecorder captures backoff delays without waiting
type sleepRecorder struct {
	delays []time.Duration
}

func (r *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	return ctx.Err()
}

func words(n int) string {
	return strings.TrimSpace(strings.Repeat("word ", n))
}

func generatedText(subject string, bodyWords, probability int) string {
	return fmt.Sprintf("Subject: %s\n\n%s\n\nTalk soon,\nDana\n\n---\nSELECTED VERSION PROBABILITY: %d%%",
		subject, words(bodyWords), probability)
}

func intPtr(v int) *int { return &v }

func hotAttendee() models.Attendee {
	return models.Attendee{
		ID:                7,
		Name:              "Ada Lovelace",
		Email:             "ada@example.com",
		Attended:          true,
		FocusPercent:      intPtr(90),
		AttendancePercent: intPtr(95),
		EngagementScore:   100,
		EngagementTier:    scoring.HotLead,
	}
}

func testWebinar() models.Webinar {
	price := 497.0
	return models.Webinar{
		ID:               1,
		Title:            "Scaling Without Burnout",
		Topic:            "sustainable growth",
		OfferName:        "Growth Lab",
		OfferDescription: "a 6-week cohort",
		Price:            &price,
		Deadline:         "Friday midnight",
		ReplayURL:        "https://example.com/replay",
	}
}

func testMessages() []models.ChatMessage {
	ts := time.Date(2024, 3, 5, 18, 10, 0, 0, time.UTC)
	return []models.ChatMessage{
		{Email: "ada@example.com", MessageText: "Is this recorded?", IsQuestion: true, Timestamp: &ts},
		{Email: "ada@example.com", MessageText: "Loved the burnout framework."},
	}
}
