// Package scoring turns webinar engagement signals into a 0-100 score and a tier.
//
// Each signal is bucketed with a step function rather than interpolated, so
// small noise in self-reported percentages does not move an attendee.
package scoring

// Band awards Points when a signal is at least Min.
type Band struct {
	Min    int
	Points int
}

// Model holds the band tables and tier cut-offs. Bands must be ordered by Min descending.
type Model struct {
	Focus      []Band
	Attendance []Band
	Messages   []Band
	Questions  []Band

	HotMin  int
	WarmMin int
	CoolMin int
}

// DefaultModel returns the production weights: focus 40, attendance 30, chat 20, questions 10.
func DefaultModel() Model {
	return Model{
		Focus:      []Band{{80, 40}, {60, 28}, {40, 16}},
		Attendance: []Band{{90, 30}, {75, 21}, {50, 12}},
		Messages:   []Band{{5, 20}, {3, 14}, {1, 8}},
		Questions:  []Band{{2, 10}, {1, 7}},
		HotMin:     80,
		WarmMin:    60,
		CoolMin:    40,
	}
}

// EngagementContext is the input to scoring. A nil percent means the column
// was absent; it scores like 0%.
type EngagementContext struct {
	FocusPercent      *int
	AttendancePercent *int
	MessageCount      int
	QuestionCount     int
}

// Result is the score and tier computed for one attendee
type Result struct {
	Score int  `json:"engagement_score"`
	Tier  Tier `json:"engagement_tier"`
}

// Score computes the composite engagement score in [0,100]
func (m Model) Score(ec EngagementContext) int {
	total := 0
	if ec.FocusPercent != nil {
		total += award(m.Focus, *ec.FocusPercent)
	}
	if ec.AttendancePercent != nil {
		total += award(m.Attendance, *ec.AttendancePercent)
	}
	total += award(m.Messages, ec.MessageCount)
	total += award(m.Questions, ec.QuestionCount)
	return clamp(total, 0, 100)
}

// Tier maps a score to a tier. Attendees who did not attend are always NoShow.
func (m Model) Tier(score int, attended bool) Tier {
	switch {
	case !attended:
		return NoShow
	case score >= m.HotMin:
		return HotLead
	case score >= m.WarmMin:
		return WarmLead
	case score >= m.CoolMin:
		return CoolLead
	default:
		return ColdLead
	}
}

// Evaluate scores the context and derives the tier
func (m Model) Evaluate(ec EngagementContext, attended bool) Result {
	score := m.Score(ec)
	return Result{Score: score, Tier: m.Tier(score, attended)}
}

// CalculateEngagementScore scores signals with the default model
func CalculateEngagementScore(focusPercent, attendancePercent *int, messageCount, questionCount int) int {
	return DefaultModel().Score(EngagementContext{
		FocusPercent:      focusPercent,
		AttendancePercent: attendancePercent,
		MessageCount:      messageCount,
		QuestionCount:     questionCount,
	})
}

// DetermineTier derives the tier with the default cut-offs
func DetermineTier(score int, attended bool) Tier {
	return DefaultModel().Tier(score, attended)
}

func award(bands []Band, value int) int {
	for _, b := range bands {
		if value >= b.Min {
			return b.Points
		}
	}
	return 0
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
