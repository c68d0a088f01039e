package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"webinarwins/internal/database"
	"webinarwins/internal/email"
	"webinarwins/internal/emailgen"
	"webinarwins/internal/models"

	"github.com/rs/zerolog"
)

// memStore is an in-memory Store
type memStore struct {
	mu        sync.Mutex
	nextID    int64
	webinars  map[int64]models.Webinar
	attendees map[int64][]models.Attendee
	messages  map[int64][]models.ChatMessage
	emails    map[int64]*models.GeneratedEmail // by attendee id
	saveErr   map[int64]error                  // by attendee id
	createErr error
	gets      int
}

func newMemStore() *memStore {
	return &memStore{
		webinars:  map[int64]models.Webinar{},
		attendees: map[int64][]models.Attendee{},
		messages:  map[int64][]models.ChatMessage{},
		emails:    map[int64]*models.GeneratedEmail{},
		saveErr:   map[int64]error{},
	}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memStore) CreateWebinar(_ context.Context, w *models.Webinar, attendees []models.Attendee, messages []models.ChatMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}

	w.ID = m.id()
	ids := map[string]int64{}
	for i := range attendees {
		attendees[i].ID = m.id()
		attendees[i].WebinarID = w.ID
		ids[attendees[i].Email] = attendees[i].ID
	}
	for i := range messages {
		messages[i].ID = m.id()
		messages[i].WebinarID = w.ID
		messages[i].AttendeeID = ids[messages[i].Email]
	}
	m.webinars[w.ID] = *w
	m.attendees[w.ID] = append([]models.Attendee(nil), attendees...)
	m.messages[w.ID] = append([]models.ChatMessage(nil), messages...)
	return nil
}

func (m *memStore) GetWebinar(_ context.Context, id int64) (*models.Webinar, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	w, ok := m.webinars[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	return &w, nil
}

func (m *memStore) ListAttendees(_ context.Context, webinarID int64) ([]models.Attendee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Attendee(nil), m.attendees[webinarID]...), nil
}

func (m *memStore) ListChatMessages(_ context.Context, webinarID int64) ([]models.ChatMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.ChatMessage(nil), m.messages[webinarID]...), nil
}

func (m *memStore) response(e *models.GeneratedEmail) models.GeneratedEmailResponse {
	resp := models.GeneratedEmailResponse{GeneratedEmail: *e}
	for _, list := range m.attendees {
		for _, a := range list {
			if a.ID == e.AttendeeID {
				resp.AttendeeName, resp.AttendeeEmail = a.Name, a.Email
			}
		}
	}
	return resp
}

func (m *memStore) GetGeneratedEmail(_ context.Context, id int64) (*models.GeneratedEmailResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.emails {
		if e.ID == id {
			resp := m.response(e)
			return &resp, nil
		}
	}
	return nil, database.ErrNotFound
}

func (m *memStore) ListGeneratedEmails(_ context.Context, webinarID int64) ([]models.GeneratedEmailResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := []models.GeneratedEmailResponse{}
	for _, a := range m.attendees[webinarID] {
		if e, ok := m.emails[a.ID]; ok {
			result = append(result, m.response(e))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *memStore) SaveGeneratedEmail(_ context.Context, e *models.GeneratedEmail) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.saveErr[e.AttendeeID]; err != nil {
		return err
	}
	if prev, ok := m.emails[e.AttendeeID]; ok {
		if prev.UserEdited {
			return database.ErrUserEdited
		}
		e.ID = prev.ID
	} else {
		e.ID = m.id()
	}
	stored := *e
	m.emails[e.AttendeeID] = &stored
	return nil
}

func (m *memStore) MarkEmailSent(_ context.Context, id int64, status string, sentAt *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.emails {
		if e.ID == id {
			e.SentStatus = status
			e.SentAt = sentAt
			return nil
		}
	}
	return database.ErrNotFound
}

func (m *memStore) emailFor(attendeeID int64) *models.GeneratedEmail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.emails[attendeeID]
}

// promptGenerator answers per attendee, keyed by the attendee name in the prompt
type promptGenerator struct {
	mu      sync.Mutex
	answers map[string]func() (*emailgen.Response, error)
	calls   map[string]int
}

func newPromptGenerator() *promptGenerator {
	return &promptGenerator{
		answers: map[string]func() (*emailgen.Response, error){},
		calls:   map[string]int{},
	}
}

func (g *promptGenerator) succeed(name string) {
	g.answers[name] = func() (*emailgen.Response, error) {
		return &emailgen.Response{Text: validText(name), TotalTokens: 640, Model: "gpt-4o"}, nil
	}
}

func (g *promptGenerator) fail(name string, err error) {
	g.answers[name] = func() (*emailgen.Response, error) { return nil, err }
}

func (g *promptGenerator) answer(name, text string) {
	g.answers[name] = func() (*emailgen.Response, error) {
		return &emailgen.Response{Text: text, TotalTokens: 200}, nil
	}
}

func (g *promptGenerator) Generate(_ context.Context, req emailgen.Request) (*emailgen.Response, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for name, fn := range g.answers {
		if strings.Contains(req.UserPrompt, "- Name: "+name+"\n") {
			g.calls[name]++
			return fn()
		}
	}
	return nil, errors.New("unexpected attendee in prompt")
}

func (g *promptGenerator) callsFor(name string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[name]
}

func validText(name string) string {
	first := strings.Fields(name)[0]
	body := strings.TrimSpace(strings.Repeat("thanks for showing up and asking sharp questions today ", 7))
	return fmt.Sprintf("Subject: %s, your next step\n\nHi %s,\n\n%s\n\nBest,\nDana\n\n---\nSELECTED VERSION PROBABILITY: 12%%", first, first, body)
}

// recordingMailer captures sent messages, failing for listed recipients
type recordingMailer struct {
	mu     sync.Mutex
	sent   []email.Message
	failTo map[string]error
}

func (r *recordingMailer) Send(_ context.Context, msg email.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.failTo[msg.ToEmail]; err != nil {
		return err
	}
	r.sent = append(r.sent, msg)
	return nil
}

// recordingTracker counts tracked usage events
type recordingTracker struct {
	mu     sync.Mutex
	events []string
	tokens int
}

func (r *recordingTracker) add(event string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingTracker) TrackIngest(_ context.Context, _ int64, attendees, chatMessages int) error {
	r.add(fmt.Sprintf("ingest:%d:%d", attendees, chatMessages))
	return nil
}

func (r *recordingTracker) TrackGeneration(_ context.Context, tier string, tokens int, _ string) error {
	r.mu.Lock()
	r.tokens += tokens
	r.mu.Unlock()
	r.add("generated:" + tier)
	return nil
}

func (r *recordingTracker) TrackGenerationFailure(_ context.Context, tier string, rejected bool) error {
	if rejected {
		r.add("rejected:" + tier)
		return nil
	}
	r.add("failed:" + tier)
	return nil
}

func (r *recordingTracker) TrackSendGridEmail(_ context.Context, emailType string, _ string) error {
	r.add("sent:" + emailType)
	return errors.New("analytics table missing")
}

func noSleep(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
}

func newTestService(store Store, gen emailgen.TextGenerator) *Service {
	opts := emailgen.DefaultOptions()
	opts.Timeout = 0
	generator := emailgen.NewGenerator(gen, opts, zerolog.Nop()).WithSleep(noSleep)
	return New(store, generator, DefaultOptions(), zerolog.Nop())
}
