package pipeline

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"webinarwins/internal/ingest"
	"webinarwins/internal/models"
	"webinarwins/internal/scoring"
)

// ListAttendees returns the attendees of a webinar, highest score first, ties
// broken by name descending. tier may use any boundary spelling ("hot-lead",
// "Hot Lead", "hot"); empty means every tier.
func (s *Service) ListAttendees(ctx context.Context, webinarID int64, tier string) ([]models.AttendeeResponse, error) {
	var filter *scoring.Tier
	if strings.TrimSpace(tier) != "" {
		t, err := scoring.ParseTier(tier)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		filter = &t
	}

	if _, err := s.store.GetWebinar(ctx, webinarID); err != nil {
		return nil, err
	}
	attendees, err := s.store.ListAttendees(ctx, webinarID)
	if err != nil {
		return nil, err
	}
	messages, err := s.store.ListChatMessages(ctx, webinarID)
	if err != nil {
		return nil, err
	}

	chats := ingest.MatchAttendeesToChats(attendees, messages)
	result := make([]models.AttendeeResponse, 0, len(attendees))
	for _, a := range attendees {
		if filter != nil && a.EngagementTier != *filter {
			continue
		}
		msgs := chats[a.Email]
		result = append(result, models.AttendeeResponse{
			Attendee:      a,
			TierColor:     a.EngagementTier.Color(),
			TierPriority:  a.EngagementTier.Priority(),
			MessageCount:  len(msgs),
			QuestionCount: ingest.CountQuestions(msgs),
		})
	}

	SortAttendees(result)
	return result, nil
}

// SortAttendees orders attendees by score descending, then name descending
func SortAttendees(attendees []models.AttendeeResponse) {
	sort.SliceStable(attendees, func(i, j int) bool {
		if attendees[i].EngagementScore != attendees[j].EngagementScore {
			return attendees[i].EngagementScore > attendees[j].EngagementScore
		}
		return attendees[i].Name > attendees[j].Name
	})
}

// ListEmails returns the generated emails of a webinar
func (s *Service) ListEmails(ctx context.Context, webinarID int64) ([]models.GeneratedEmailResponse, error) {
	if cached, ok := s.emails.Get(emailsKey(webinarID)); ok {
		return cached, nil
	}

	if _, err := s.store.GetWebinar(ctx, webinarID); err != nil {
		return nil, err
	}
	emails, err := s.store.ListGeneratedEmails(ctx, webinarID)
	if err != nil {
		return nil, err
	}

	s.emails.Set(emailsKey(webinarID), emails)
	return emails, nil
}
