package ingest

import "webinarwins/internal/models"

// MatchAttendeesToChats groups chat messages by normalized email, keeping
// source order. Every attendee gets an entry, empty when they never chatted.
// Attendees sharing an email share one list.
func MatchAttendeesToChats(attendees []models.Attendee, messages []models.ChatMessage) map[string][]models.ChatMessage {
	byEmail := make(map[string][]models.ChatMessage, len(attendees))
	for _, a := range attendees {
		key := NormalizeEmail(a.Email)
		if _, ok := byEmail[key]; !ok {
			byEmail[key] = []models.ChatMessage{}
		}
	}

	for _, msg := range messages {
		key := NormalizeEmail(msg.Email)
		byEmail[key] = append(byEmail[key], msg)
	}

	return byEmail
}

// CountQuestions returns how many messages are questions
func CountQuestions(messages []models.ChatMessage) int {
	n := 0
	for _, msg := range messages {
		if msg.IsQuestion {
			n++
		}
	}
	return n
}
