package main

import (
	"errors"
	"strings"
	"testing"

	"webinarwins/internal/ingest"
	"webinarwins/internal/scoring"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const attendance = `Full Name,Email Address,Attended,Attendance,Focus
Ada Lovelace,ada@example.com,yes,95%,85%
Grace Hopper,grace@example.com,yes,60,50
Alan Turing,alan@example.com,no,,
`

const chat = `Email,Message
ada@example.com,Is this recorded?
ada@example.com,Great
grace@example.com,Thanks.
grace@example.com,Bye.
`

func TestScore(t *testing.T) {
	out, err := score(strings.NewReader(attendance), strings.NewReader(chat), nil)
	require.NoError(t, err)

	assert.Equal(t, 3, out.Stats.TotalRegistrants)
	assert.Equal(t, 1, out.Stats.NoShows)
	require.Len(t, out.Attendees, 3)

	ada := out.Attendees[0]
	assert.Equal(t, "Ada Lovelace", ada.Name)
	assert.Equal(t, 40+30+8+7, ada.EngagementScore)
	assert.Equal(t, scoring.HotLead, ada.EngagementTier)
	assert.Equal(t, 2, ada.MessageCount)
	assert.Equal(t, 1, ada.QuestionCount)

	grace := out.Attendees[1]
	assert.Equal(t, 36, grace.EngagementScore)
	assert.Equal(t, scoring.ColdLead, grace.EngagementTier)

	assert.Equal(t, scoring.NoShow, out.Attendees[2].EngagementTier)
}

func TestScore_TierFilter(t *testing.T) {
	cold := scoring.ColdLead
	out, err := score(strings.NewReader(attendance), nil, &cold)
	require.NoError(t, err)

	require.Len(t, out.Attendees, 1)
	assert.Equal(t, "Grace Hopper", out.Attendees[0].Name)
	assert.Equal(t, 28, out.Attendees[0].EngagementScore)
}

func TestScore_MalformedInput(t *testing.T) {
	_, err := score(strings.NewReader("Name,Email\n\xff,x\n"), nil, nil)
	assert.True(t, errors.Is(err, ingest.ErrMalformedInput))
}
