package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"webinarwins/internal/ingest"
	"webinarwins/internal/models"
	"webinarwins/internal/pipeline"
	"webinarwins/internal/scoring"

	"github.com/rs/zerolog"
)

type report struct {
	Stats     models.WebinarStats       `json:"stats"`
	Attendees []models.AttendeeResponse `json:"attendees"`
}

func main() {
	attendancePath := flag.String("attendance", "", "Path to the attendance CSV export")
	chatPath := flag.String("chat", "", "Path to the chat CSV export (optional)")
	tier := flag.String("tier", "", "Only print attendees of this tier, e.g. hot-lead")
	flag.Parse()

	if *attendancePath == "" {
		fmt.Println("Usage:")
		fmt.Println("  Score attendees:   score-csv -attendance attendees.csv -chat chat.csv")
		fmt.Println("  Filter by tier:    score-csv -attendance attendees.csv -tier hot-lead")
		os.Exit(1)
	}

	var filter *scoring.Tier
	if *tier != "" {
		t, err := scoring.ParseTier(*tier)
		if err != nil {
			log.Fatalf("Invalid tier: %v", err)
		}
		filter = &t
	}

	attendanceFile, err := os.Open(*attendancePath)
	if err != nil {
		log.Fatalf("Failed to open attendance CSV: %v", err)
	}
	defer attendanceFile.Close()

	var chatReader io.Reader
	if *chatPath != "" {
		chatFile, err := os.Open(*chatPath)
		if err != nil {
			log.Fatalf("Failed to open chat CSV: %v", err)
		}
		defer chatFile.Close()
		chatReader = chatFile
	}

	out, err := score(attendanceFile, chatReader, filter)
	if err != nil {
		log.Fatalf("Failed to score attendees: %v", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		log.Fatalf("Failed to write report: %v", err)
	}
}

// score runs the normalizer, matcher and scoring engine without storage or generation
func score(attendanceCSV, chatCSV io.Reader, filter *scoring.Tier) (*report, error) {
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

	svc := pipeline.New(nil, nil, pipeline.DefaultOptions(), zerolog.Nop())
	attendees := attendance.Records
	svc.Score(attendees, chat.Records)

	stats := ingest.ComputeStats(attendees, len(chat.Records))
	stats.SkippedAttendeeRows = attendance.SkippedRows
	stats.SkippedChatRows = chat.SkippedRows

	byEmail := ingest.MatchAttendeesToChats(attendees, chat.Records)
	rows := make([]models.AttendeeResponse, 0, len(attendees))
	for _, a := range attendees {
		if filter != nil && a.EngagementTier != *filter {
			continue
		}
		msgs := byEmail[a.Email]
		rows = append(rows, models.AttendeeResponse{
			Attendee:      a,
			TierColor:     a.EngagementTier.Color(),
			TierPriority:  a.EngagementTier.Priority(),
			MessageCount:  len(msgs),
			QuestionCount: ingest.CountQuestions(msgs),
		})
	}
	pipeline.SortAttendees(rows)

	return &report{Stats: stats, Attendees: rows}, nil
}
