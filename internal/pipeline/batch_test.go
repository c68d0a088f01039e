package pipeline

import (
	"context"
	"errors"
	"testing"

	"webinarwins/internal/database"
	"webinarwins/internal/emailgen"
	"webinarwins/internal/models"
	"webinarwins/internal/scoring"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storeEmail(store *memStore, attendeeID int64, userEdited bool) {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.emails[attendeeID] = &models.GeneratedEmail{
		ID:            store.id(),
		AttendeeID:    attendeeID,
		SubjectLine:   "Earlier draft",
		EmailBodyText: "Earlier body",
		UserEdited:    userEdited,
		SentStatus:    models.SentStatusDraft,
	}
}

func TestGenerateBatch_PartialSuccess(t *testing.T) {
	store := newMemStore()
	gen := newPromptGenerator()
	tracker := &recordingTracker{}
	svc := newTestService(store, gen).WithTracker(tracker)
	webinar := ingestFixture(t, svc)

	grace := attendeeByName(t, store, webinar.ID, "Grace Hopper")
	storeEmail(store, grace.ID, false)

	gen.succeed("Ada Lovelace")
	gen.fail("Alan Turing", errors.New("upstream 502"))
	gen.succeed("Grace Hopper")

	resp, err := svc.GenerateBatch(context.Background(), BatchRequest{WebinarID: webinar.ID})
	require.NoError(t, err)

	d := resp.Details
	assert.Equal(t, 3, d.TotalAttendees)
	assert.Equal(t, 1, d.Successful)
	assert.Equal(t, 1, d.Failed)
	assert.Equal(t, 0, d.FailedValidation)
	assert.Equal(t, 1, d.Skipped)
	assert.Equal(t, d.TotalAttendees, d.Successful+d.Failed+d.Skipped)
	assert.Equal(t, models.BatchStatusPartialSuccess, resp.Status)
	assert.Equal(t, 1, resp.EmailsGenerated)
	assert.Equal(t, "Generated 1 emails, skipped 1, failed 1", resp.Message)
	assert.Equal(t, map[string]int{"Hot Lead": 1}, d.TierBreakdown)
	assert.NotEmpty(t, resp.BatchID)
	assert.Equal(t, webinar.ID, resp.WebinarID)

	require.Len(t, d.Errors, 1)
	assert.Contains(t, d.Errors[0], "Failed for Alan Turing: failed to generate email after 3 attempts")
	assert.Contains(t, d.Errors[0], "upstream 502")

	assert.Equal(t, 1, gen.callsFor("Ada Lovelace"))
	assert.Equal(t, 3, gen.callsFor("Alan Turing"))
	assert.Equal(t, 0, gen.callsFor("Grace Hopper"))

	ada := attendeeByName(t, store, webinar.ID, "Ada Lovelace")
	saved := store.emailFor(ada.ID)
	require.NotNil(t, saved)
	assert.Equal(t, "Ada, your next step", saved.SubjectLine)
	assert.Equal(t, scoring.HotLead, saved.EngagementTier)
	assert.Equal(t, 100, saved.EngagementScore)
	assert.Equal(t, models.SentStatusDraft, saved.SentStatus)
	require.NotNil(t, saved.EmailBodyHTML)
	assert.Contains(t, *saved.EmailBodyHTML, "<p>Hi Ada,</p>")
	assert.Equal(t, 640, saved.GenerationMetadata.TokensConsumed)
	assert.Equal(t, 12, saved.PersonalizationElements.AISelectionInfo.SelectedProbability)
	assert.Len(t, saved.PersonalizationElements.ChatReferences, 6)

	assert.Equal(t, "Earlier draft", store.emailFor(grace.ID).SubjectLine)
	assert.Nil(t, store.emailFor(attendeeByName(t, store, webinar.ID, "Alan Turing").ID))

	assert.ElementsMatch(t, []string{"ingest:3:9", "generated:Hot Lead", "failed:No-Show"}, tracker.events)
	assert.Equal(t, 640, tracker.tokens)
}

func TestGenerateBatch_Regenerate(t *testing.T) {
	store := newMemStore()
	gen := newPromptGenerator()
	svc := newTestService(store, gen)
	webinar := ingestFixture(t, svc)

	ada := attendeeByName(t, store, webinar.ID, "Ada Lovelace")
	grace := attendeeByName(t, store, webinar.ID, "Grace Hopper")
	storeEmail(store, ada.ID, true)
	storeEmail(store, grace.ID, false)
	previousID := store.emailFor(grace.ID).ID

	for _, name := range []string{"Ada Lovelace", "Grace Hopper", "Alan Turing"} {
		gen.succeed(name)
	}

	resp, err := svc.GenerateBatch(context.Background(), BatchRequest{WebinarID: webinar.ID, Regenerate: true})
	require.NoError(t, err)

	assert.Equal(t, models.BatchStatusCompleted, resp.Status)
	assert.Equal(t, 2, resp.Details.Successful)
	assert.Equal(t, 1, resp.Details.Skipped)
	assert.Empty(t, resp.Details.Errors)
	assert.Equal(t, map[string]int{"Cold Lead": 1, "No-Show": 1}, resp.Details.TierBreakdown)

	assert.Equal(t, 0, gen.callsFor("Ada Lovelace"), "user-edited email is never regenerated")
	assert.Equal(t, "Earlier draft", store.emailFor(ada.ID).SubjectLine)

	regenerated := store.emailFor(grace.ID)
	assert.Equal(t, previousID, regenerated.ID)
	assert.Equal(t, "Grace, your next step", regenerated.SubjectLine)
}

func TestGenerateBatch_ValidationRejected(t *testing.T) {
	store := newMemStore()
	gen := newPromptGenerator()
	svc := newTestService(store, gen)
	webinar := ingestFixture(t, svc)

	gen.answer("Ada Lovelace", "Subject: Hi\n\nToo short to send.\n\n---\nSELECTED VERSION PROBABILITY: 40%")
	hot := scoring.HotLead

	resp, err := svc.GenerateBatch(context.Background(), BatchRequest{WebinarID: webinar.ID, Tier: &hot})
	require.NoError(t, err)

	assert.Equal(t, 1, resp.Details.TotalAttendees)
	assert.Equal(t, 1, resp.Details.Failed)
	assert.Equal(t, 1, resp.Details.FailedValidation)
	assert.Equal(t, models.BatchStatusFailed, resp.Status)
	require.Len(t, resp.Details.Errors, 1)
	assert.Contains(t, resp.Details.Errors[0], "Failed for Ada Lovelace: failed validation")
	assert.Contains(t, resp.Details.Errors[0], "subject has 2 characters")
	assert.Empty(t, resp.Details.TierBreakdown)

	assert.Equal(t, 1, gen.callsFor("Ada Lovelace"), "rejected content is not retried")
	assert.Nil(t, store.emailFor(attendeeByName(t, store, webinar.ID, "Ada Lovelace").ID))
}

func TestGenerateBatch_SaveOutcomes(t *testing.T) {
	store := newMemStore()
	gen := newPromptGenerator()
	svc := newTestService(store, gen)
	webinar := ingestFixture(t, svc)

	ada := attendeeByName(t, store, webinar.ID, "Ada Lovelace")
	grace := attendeeByName(t, store, webinar.ID, "Grace Hopper")
	store.saveErr[ada.ID] = database.ErrUserEdited
	store.saveErr[grace.ID] = errors.New("deadlock detected")
	for _, name := range []string{"Ada Lovelace", "Grace Hopper", "Alan Turing"} {
		gen.succeed(name)
	}

	resp, err := svc.GenerateBatch(context.Background(), BatchRequest{WebinarID: webinar.ID, Regenerate: true})
	require.NoError(t, err)

	assert.Equal(t, 1, resp.Details.Successful)
	assert.Equal(t, 1, resp.Details.Skipped, "an edit that lands mid-batch is kept")
	assert.Equal(t, 1, resp.Details.Failed)
	require.Len(t, resp.Details.Errors, 1)
	assert.Equal(t, "Failed for Grace Hopper: deadlock detected", resp.Details.Errors[0])
}

func TestGenerateBatch_ErrorLimit(t *testing.T) {
	store := newMemStore()
	gen := newPromptGenerator()
	opts := emailgen.DefaultOptions()
	opts.MaxRetries = 1
	generator := emailgen.NewGenerator(gen, opts, testLogger()).WithSleep(noSleep)
	svc := New(store, generator, Options{BatchErrorLimit: 1}, testLogger())
	webinar := ingestFixture(t, svc)

	for _, name := range []string{"Ada Lovelace", "Grace Hopper", "Alan Turing"} {
		gen.fail(name, errors.New("quota exceeded"))
	}

	resp, err := svc.GenerateBatch(context.Background(), BatchRequest{WebinarID: webinar.ID})
	require.NoError(t, err)

	assert.Equal(t, 3, resp.Details.Failed)
	assert.Len(t, resp.Details.Errors, 1)
	assert.Equal(t, models.BatchStatusFailed, resp.Status)
	assert.Equal(t, "Generated 0 emails, skipped 0, failed 3", resp.Message)
}

func TestGenerateBatch_UnknownWebinar(t *testing.T) {
	svc := newTestService(newMemStore(), newPromptGenerator())
	_, err := svc.GenerateBatch(context.Background(), BatchRequest{WebinarID: 42})
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestGenerateBatch_InvalidatesEmailList(t *testing.T) {
	store := newMemStore()
	gen := newPromptGenerator()
	svc := newTestService(store, gen)
	webinar := ingestFixture(t, svc)

	before, err := svc.ListEmails(context.Background(), webinar.ID)
	require.NoError(t, err)
	assert.Empty(t, before)

	for _, name := range []string{"Ada Lovelace", "Grace Hopper", "Alan Turing"} {
		gen.succeed(name)
	}
	_, err = svc.GenerateBatch(context.Background(), BatchRequest{WebinarID: webinar.ID})
	require.NoError(t, err)

	after, err := svc.ListEmails(context.Background(), webinar.ID)
	require.NoError(t, err)
	assert.Len(t, after, 3)
	assert.Equal(t, "Ada Lovelace", after[0].AttendeeName)
}

func TestBatchTally_Status(t *testing.T) {
	tests := []struct {
		name       string
		successful int
		failed     int
		skipped    int
		expected   string
	}{
		{"all succeeded", 3, 0, 0, models.BatchStatusCompleted},
		{"all skipped", 0, 0, 3, models.BatchStatusCompleted},
		{"empty batch", 0, 0, 0, models.BatchStatusCompleted},
		{"some failed", 2, 1, 0, models.BatchStatusPartialSuccess},
		{"all failed", 0, 3, 0, models.BatchStatusFailed},
		{"failed and skipped", 0, 1, 2, models.BatchStatusFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tally := newBatchTally(tt.successful+tt.failed+tt.skipped, 10)
			for i := 0; i < tt.successful; i++ {
				tally.success(scoring.WarmLead)
			}
			for i := 0; i < tt.failed; i++ {
				tally.fail("boom", false)
			}
			for i := 0; i < tt.skipped; i++ {
				tally.skip()
			}
			assert.Equal(t, tt.expected, tally.status())
		})
	}
}
