// Package ingest normalizes webinar platform exports (attendance and chat CSVs)
// into attendee and chat records and joins them by email.
package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"webinarwins/internal/models"
)

const (
	fileAttendance = "attendance"
	fileChat       = "chat"
)

// Header synonyms, matched case-insensitively after trimming
var (
	colName              = []string{"name", "full name"}
	colEmail             = []string{"email", "email address"}
	colAttended          = []string{"attended"}
	colAttendancePercent = []string{"attendance %", "attendance", "attendance percent"}
	colFocusPercent      = []string{"focus %", "focus", "focus percent"}
	colAttendanceMinutes = []string{"attendance minutes", "minutes"}
	colJoinTime          = []string{"join time"}
	colExitTime          = []string{"exit time"}
	colLocation          = []string{"location"}
	colTimestamp         = []string{"timestamp", "time"}
	colMessage           = []string{"message", "text"}
	colIsQuestion        = []string{"is question", "is_question"}
)

// Attendance is a parsed attendance export
type Attendance struct {
	Records     []models.Attendee
	SkippedRows int // rows missing name or email
}

// Chat is a parsed chat export
type Chat struct {
	Records     []models.ChatMessage
	SkippedRows int // rows missing email or message
}

// ParseAttendanceCSV parses an attendance export. Rows without a name or
// email are skipped; malformed numbers and dates fall back to defaults.
func ParseAttendanceCSV(r io.Reader) (*Attendance, error) {
	table, err := readTable(r, fileAttendance)
	if err != nil {
		return nil, err
	}

	attendancePercent := table.column(colAttendancePercent)
	focusPercent := table.column(colFocusPercent)

	result := &Attendance{Records: []models.Attendee{}, SkippedRows: table.badRows}
	for _, row := range table.rows {
		name := strings.TrimSpace(row.get(table.column(colName)))
		email := NormalizeEmail(row.get(table.column(colEmail)))
		if name == "" || email == "" {
			result.SkippedRows++
			continue
		}

		attendee := models.Attendee{
			Name:              name,
			Email:             email,
			Attended:          ParseBool(row.get(table.column(colAttended))),
			AttendanceMinutes: ParseMinutes(row.get(table.column(colAttendanceMinutes))),
			JoinTime:          ParseDateTime(row.get(table.column(colJoinTime))),
			ExitTime:          ParseDateTime(row.get(table.column(colExitTime))),
			Location:          strings.TrimSpace(row.get(table.column(colLocation))),
		}
		// a missing column means "no data"; a present but bad cell means 0
		if attendancePercent >= 0 {
			v := ParsePercent(row.get(attendancePercent))
			attendee.AttendancePercent = &v
		}
		if focusPercent >= 0 {
			v := ParsePercent(row.get(focusPercent))
			attendee.FocusPercent = &v
		}

		result.Records = append(result.Records, attendee)
	}

	return result, nil
}

// ParseChatCSV parses a chat export. Rows without an email or message are
// skipped. A message is a question when flagged so, or when no flag is given
// and it ends with "?".
func ParseChatCSV(r io.Reader) (*Chat, error) {
	table, err := readTable(r, fileChat)
	if err != nil {
		return nil, err
	}

	result := &Chat{Records: []models.ChatMessage{}, SkippedRows: table.badRows}
	for _, row := range table.rows {
		email := NormalizeEmail(row.get(table.column(colEmail)))
		text := strings.TrimSpace(row.get(table.column(colMessage)))
		if email == "" || text == "" {
			result.SkippedRows++
			continue
		}

		// a trailing ? marks a question even when the flag cell says otherwise
		isQuestion := ParseBool(row.get(table.column(colIsQuestion))) || strings.HasSuffix(text, "?")

		result.Records = append(result.Records, models.ChatMessage{
			Name:        strings.TrimSpace(row.get(table.column(colName))),
			Email:       email,
			MessageText: text,
			Timestamp:   ParseDateTime(row.get(table.column(colTimestamp))),
			IsQuestion:  isQuestion,
		})
	}

	return result, nil
}

type row []string

func (r row) get(idx int) string {
	if idx < 0 || idx >= len(r) {
		return ""
	}
	return r[idx]
}

type table struct {
	header  map[string]int
	rows    []row
	badRows int
}

// column returns the index of the first synonym present in the header, or -1
func (t *table) column(synonyms []string) int {
	for _, name := range synonyms {
		if idx, ok := t.header[name]; ok {
			return idx
		}
	}
	return -1
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// readTable buffers the whole export; callers need aggregate counts before records are stored
func readTable(r io.Reader, file string) (*table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &InputError{File: file, Err: fmt.Errorf("failed to read file: %w", err)}
	}
	if !utf8.Valid(data) {
		return nil, &InputError{File: file, Err: errors.New("file is not valid UTF-8")}
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	t := &table{header: map[string]int{}}

	headerRow, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return t, nil
	}
	if err != nil {
		return nil, &InputError{File: file, Err: fmt.Errorf("failed to read header row: %w", err)}
	}
	for i, name := range headerRow {
		key := strings.ToLower(strings.TrimSpace(name))
		if _, dup := t.header[key]; !dup {
			t.header[key] = i
		}
	}

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			t.badRows++
			continue
		}
		if err != nil {
			return nil, &InputError{File: file, Err: err}
		}
		if isBlank(record) {
			continue
		}
		t.rows = append(t.rows, record)
	}

	return t, nil
}

func isBlank(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
