package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// mysqlDuplicateKeyName is returned by MySQL when an index already exists
const mysqlDuplicateKeyName = 1061

// dialect holds the DDL fragments that differ between PostgreSQL and MySQL
type dialect struct {
	primaryKey string
}

func dialectFor(driver string) dialect {
	if driver == DriverPostgres {
		return dialect{primaryKey: "BIGSERIAL PRIMARY KEY"}
	}
	return dialect{primaryKey: "BIGINT AUTO_INCREMENT PRIMARY KEY"}
}

func schemaTables(d dialect) []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS webinars (
			id ` + d.primaryKey + `,
			title VARCHAR(255) NOT NULL,
			topic VARCHAR(255) NOT NULL DEFAULT '',
			offer_name VARCHAR(255) NOT NULL DEFAULT '',
			offer_description TEXT,
			price DOUBLE PRECISION NULL,
			deadline VARCHAR(255) NOT NULL DEFAULT '',
			replay_url VARCHAR(1024) NOT NULL DEFAULT '',
			skipped_attendee_rows INT NOT NULL DEFAULT 0,
			skipped_chat_rows INT NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS attendees (
			id ` + d.primaryKey + `,
			webinar_id BIGINT NOT NULL,
			name VARCHAR(255) NOT NULL,
			email VARCHAR(255) NOT NULL,
			attended BOOLEAN NOT NULL DEFAULT FALSE,
			attendance_percent INT NULL,
			focus_percent INT NULL,
			attendance_minutes INT NOT NULL DEFAULT 0,
			join_time TIMESTAMP NULL,
			exit_time TIMESTAMP NULL,
			location VARCHAR(255) NOT NULL DEFAULT '',
			engagement_score INT NOT NULL DEFAULT 0,
			engagement_tier VARCHAR(20) NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (webinar_id) REFERENCES webinars(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS chat_messages (
			id ` + d.primaryKey + `,
			webinar_id BIGINT NOT NULL,
			attendee_id BIGINT NULL,
			name VARCHAR(255) NOT NULL DEFAULT '',
			email VARCHAR(255) NOT NULL,
			message_text TEXT NOT NULL,
			timestamp TIMESTAMP NULL,
			is_question BOOLEAN NOT NULL DEFAULT FALSE,
			FOREIGN KEY (webinar_id) REFERENCES webinars(id) ON DELETE CASCADE,
			FOREIGN KEY (attendee_id) REFERENCES attendees(id) ON DELETE SET NULL
		)`,
		`CREATE TABLE IF NOT EXISTS generated_emails (
			id ` + d.primaryKey + `,
			attendee_id BIGINT NOT NULL UNIQUE,
			subject_line VARCHAR(255) NOT NULL,
			email_body_text TEXT NOT NULL,
			email_body_html TEXT NULL,
			engagement_score INT NOT NULL DEFAULT 0,
			engagement_tier VARCHAR(20) NOT NULL,
			personalization_elements TEXT,
			generation_metadata TEXT,
			user_edited BOOLEAN NOT NULL DEFAULT FALSE,
			sent_status VARCHAR(20) NOT NULL DEFAULT 'draft',
			sent_at TIMESTAMP NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (attendee_id) REFERENCES attendees(id) ON DELETE CASCADE
		)`,
	}
}

var schemaIndexes = []string{
	`CREATE INDEX idx_attendees_webinar_id ON attendees(webinar_id)`,
	`CREATE INDEX idx_attendees_email ON attendees(email)`,
	`CREATE INDEX idx_chat_messages_webinar_id ON chat_messages(webinar_id)`,
	`CREATE INDEX idx_chat_messages_attendee_id ON chat_messages(attendee_id)`,
}

// CreateTables creates the webinar tables if they don't exist
func (s *WebinarStore) CreateTables(ctx context.Context) error {
	for _, query := range schemaTables(dialectFor(s.wc.Driver())) {
		if _, err := s.wc.ExecuteWriteQuery(ctx, query); err != nil {
			return fmt.Errorf("failed to create webinar tables: %w", err)
		}
	}

	for _, query := range schemaIndexes {
		if s.wc.Driver() == DriverPostgres {
			query = strings.Replace(query, "CREATE INDEX", "CREATE INDEX IF NOT EXISTS", 1)
		}
		if _, err := s.wc.ExecuteWriteQuery(ctx, query); err != nil && !isDuplicateIndex(err) {
			return fmt.Errorf("failed to create webinar indexes: %w", err)
		}
	}

	return nil
}

// isDuplicateIndex reports a MySQL duplicate index error. MySQL has no
// CREATE INDEX IF NOT EXISTS, so it shows up on every restart.
func isDuplicateIndex(err error) bool {
	var myErr *mysql.MySQLError
	return errors.As(err, &myErr) && myErr.Number == mysqlDuplicateKeyName
}
