package ingest

import (
	"math"

	"webinarwins/internal/models"
	"webinarwins/internal/scoring"
)

// ComputeStats summarizes scored attendees of one webinar
func ComputeStats(attendees []models.Attendee, totalChatMessages int) models.WebinarStats {
	stats := models.WebinarStats{
		TotalRegistrants:  len(attendees),
		TotalChatMessages: totalChatMessages,
	}

	var focusSum, attendanceSum int
	for _, a := range attendees {
		switch a.EngagementTier {
		case scoring.HotLead:
			stats.HotLeads++
		case scoring.WarmLead:
			stats.WarmLeads++
		case scoring.CoolLead:
			stats.CoolLeads++
		case scoring.ColdLead:
			stats.ColdLeads++
		}
		if !a.Attended {
			continue
		}
		stats.TotalAttendees++
		if a.FocusPercent != nil {
			focusSum += *a.FocusPercent
		}
		if a.AttendancePercent != nil {
			attendanceSum += *a.AttendancePercent
		}
	}

	stats.NoShows = stats.TotalRegistrants - stats.TotalAttendees
	if stats.TotalRegistrants > 0 {
		stats.AttendanceRate = round1(float64(stats.TotalAttendees) / float64(stats.TotalRegistrants) * 100)
	}
	if stats.TotalAttendees > 0 {
		stats.AvgFocusPercent = nonZeroAverage(focusSum, stats.TotalAttendees)
		stats.AvgAttendancePercent = nonZeroAverage(attendanceSum, stats.TotalAttendees)
	}

	return stats
}

func nonZeroAverage(sum, n int) *float64 {
	if sum == 0 {
		return nil
	}
	avg := round1(float64(sum) / float64(n))
	return &avg
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
