package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func intPtr(v int) *int { return &v }

func TestCalculateEngagementScore(t *testing.T) {
	tests := []struct {
		name       string
		focus      *int
		attendance *int
		messages   int
		questions  int
		expected   int
	}{
		{"maximum engagement", intPtr(85), intPtr(95), 6, 3, 100},
		{"mixed bands", intPtr(50), intPtr(60), 2, 0, 36},
		{"nothing at all", intPtr(0), intPtr(0), 0, 0, 0},
		{"absent percents score like zero", nil, nil, 0, 0, 0},
		{"absent focus only", nil, intPtr(90), 5, 2, 60},
		{"focus boundary 80", intPtr(80), intPtr(0), 0, 0, 40},
		{"focus just below 80", intPtr(79), intPtr(0), 0, 0, 28},
		{"focus boundary 60", intPtr(60), intPtr(0), 0, 0, 28},
		{"focus boundary 40", intPtr(40), intPtr(0), 0, 0, 16},
		{"focus 39", intPtr(39), intPtr(0), 0, 0, 0},
		{"attendance boundary 90", intPtr(0), intPtr(90), 0, 0, 30},
		{"attendance boundary 75", intPtr(0), intPtr(75), 0, 0, 21},
		{"attendance boundary 50", intPtr(0), intPtr(50), 0, 0, 12},
		{"attendance 49", intPtr(0), intPtr(49), 0, 0, 0},
		{"five messages", nil, nil, 5, 0, 20},
		{"three messages", nil, nil, 3, 0, 14},
		{"one message", nil, nil, 1, 0, 8},
		{"two questions", nil, nil, 0, 2, 10},
		{"one question", nil, nil, 0, 1, 7},
		{"huge counts stay capped", intPtr(100), intPtr(100), 500, 500, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score := CalculateEngagementScore(tt.focus, tt.attendance, tt.messages, tt.questions)
			assert.Equal(t, tt.expected, score)
		})
	}
}

func TestDetermineTier(t *testing.T) {
	tests := []struct {
		name     string
		score    int
		attended bool
		expected Tier
	}{
		{"hot at 80", 80, true, HotLead},
		{"hot at 100", 100, true, HotLead},
		{"warm at 79", 79, true, WarmLead},
		{"warm at 60", 60, true, WarmLead},
		{"cool at 59", 59, true, CoolLead},
		{"cool at 40", 40, true, CoolLead},
		{"cold at 39", 39, true, ColdLead},
		{"cold at 0", 0, true, ColdLead},
		{"no-show with perfect score", 100, false, NoShow},
		{"no-show with zero score", 0, false, NoShow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DetermineTier(tt.score, tt.attended))
		})
	}
}

func TestDetermineTier_NotAttendedIsAlwaysNoShow(t *testing.T) {
	for score := -10; score <= 110; score++ {
		assert.Equal(t, NoShow, DetermineTier(score, false), "score %d", score)
	}
}

func TestModel_Evaluate(t *testing.T) {
	m := DefaultModel()

	hot := m.Evaluate(EngagementContext{
		FocusPercent:      intPtr(85),
		AttendancePercent: intPtr(95),
		MessageCount:      6,
		QuestionCount:     3,
	}, true)
	assert.Equal(t, Result{Score: 100, Tier: HotLead}, hot)

	cold := m.Evaluate(EngagementContext{
		FocusPercent:      intPtr(50),
		AttendancePercent: intPtr(60),
		MessageCount:      2,
	}, true)
	assert.Equal(t, Result{Score: 36, Tier: ColdLead}, cold)

	// score is still computed for no-shows
	noShow := m.Evaluate(EngagementContext{FocusPercent: intPtr(85)}, false)
	assert.Equal(t, Result{Score: 40, Tier: NoShow}, noShow)
}

func TestModel_CustomBandsAreClamped(t *testing.T) {
	m := DefaultModel()
	m.Messages = []Band{{1, 90}}

	score := m.Score(EngagementContext{
		FocusPercent:      intPtr(90),
		AttendancePercent: intPtr(90),
		MessageCount:      1,
	})
	assert.Equal(t, 100, score)
}
