package pipeline

import (
	"context"
	"fmt"
	"io"
	"strings"

	"webinarwins/internal/ingest"
	"webinarwins/internal/models"
	"webinarwins/internal/scoring"
)

// Ingest parses both exports, scores every attendee and stores the webinar.
// chatCSV may be nil when no chat export was provided. A structurally broken
// export is returned as an *ingest.InputError and nothing is stored.
func (s *Service) Ingest(ctx context.Context, meta models.Webinar, attendanceCSV, chatCSV io.Reader) (*models.WebinarResponse, error) {
	if strings.TrimSpace(meta.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidRequest)
	}
	if attendanceCSV == nil {
		return nil, fmt.Errorf("%w: attendance CSV is required", ErrInvalidRequest)
	}

	attendance, err := ingest.ParseAttendanceCSV(attendanceCSV)
	if err != nil {
		return nil, err
	}

	chat := &ingest.Chat{Records: []models.ChatMessage{}}
	if chatCSV != nil {
		if chat, err = ingest.ParseChatCSV(chatCSV); err != nil {
			return nil, err
		}
	}

	attendees := attendance.Records
	s.Score(attendees, chat.Records)

	webinar := meta
	webinar.SkippedAttendeeRows = attendance.SkippedRows
	webinar.SkippedChatRows = chat.SkippedRows

	if err := s.store.CreateWebinar(ctx, &webinar, attendees, chat.Records); err != nil {
		return nil, err
	}

	stats := statsFor(&webinar, attendees, len(chat.Records))
	resp := &models.WebinarResponse{Webinar: webinar, Stats: &stats}
	s.webinars.Set(webinarKey(webinar.ID), resp)

	tiers := make([]string, len(attendees))
	for i, a := range attendees {
		tiers[i] = a.EngagementTier.String()
	}
	s.metrics.ObserveIngest(tiers, len(chat.Records), attendance.SkippedRows, chat.SkippedRows)
	s.track("ingest", func(t UsageTracker) error {
		return t.TrackIngest(ctx, webinar.ID, len(attendees), len(chat.Records))
	})

	s.logger.Debug().
		Int64("webinar_id", webinar.ID).
		Int("skipped_attendee_rows", attendance.SkippedRows).
		Int("skipped_chat_rows", chat.SkippedRows).
		Msg("Skipped export rows")
	s.logger.Info().
		Int64("webinar_id", webinar.ID).
		Int("attendees", len(attendees)).
		Int("chat_messages", len(chat.Records)).
		Int("hot_leads", stats.HotLeads).
		Msg("Webinar ingested")

	return resp, nil
}

// Score sets the engagement score and tier of each attendee from its matched chat messages
func (s *Service) Score(attendees []models.Attendee, messages []models.ChatMessage) {
	byEmail := ingest.MatchAttendeesToChats(attendees, messages)
	for i := range attendees {
		a := &attendees[i]
		chats := byEmail[a.Email]
		res := s.model.Evaluate(scoring.EngagementContext{
			FocusPercent:      a.FocusPercent,
			AttendancePercent: a.AttendancePercent,
			MessageCount:      len(chats),
			QuestionCount:     ingest.CountQuestions(chats),
		}, a.Attended)
		a.EngagementScore = res.Score
		a.EngagementTier = res.Tier
	}
}

// GetWebinar returns a stored webinar with its stats
func (s *Service) GetWebinar(ctx context.Context, id int64) (*models.WebinarResponse, error) {
	if cached, ok := s.webinars.Get(webinarKey(id)); ok {
		return cached, nil
	}

	webinar, err := s.store.GetWebinar(ctx, id)
	if err != nil {
		return nil, err
	}
	attendees, err := s.store.ListAttendees(ctx, id)
	if err != nil {
		return nil, err
	}
	messages, err := s.store.ListChatMessages(ctx, id)
	if err != nil {
		return nil, err
	}

	stats := statsFor(webinar, attendees, len(messages))
	resp := &models.WebinarResponse{Webinar: *webinar, Stats: &stats}
	s.webinars.Set(webinarKey(id), resp)
	return resp, nil
}

func statsFor(w *models.Webinar, attendees []models.Attendee, chatMessages int) models.WebinarStats {
	stats := ingest.ComputeStats(attendees, chatMessages)
	stats.SkippedAttendeeRows = w.SkippedAttendeeRows
	stats.SkippedChatRows = w.SkippedChatRows
	return stats
}
