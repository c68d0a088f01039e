package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// writeTimeout bounds a single write statement
const writeTimeout = 30 * time.Second

// WriteClient provides write access to the database for the webinar store and analytics
type WriteClient struct {
	db     *sqlx.DB
	driver string
}

// NewWriteClient creates a new write-enabled database client (supports both MySQL and PostgreSQL)
func NewWriteClient(databaseURL string) (*WriteClient, error) {
	driver := DriverFor(databaseURL)

	db, err := sqlx.Connect(driver, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database with write access: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	// Test the connection
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &WriteClient{db: db, driver: driver}, nil
}

// NewWriteClientFromDB wraps an existing connection. The driver name of db selects the SQL dialect.
func NewWriteClientFromDB(db *sqlx.DB) *WriteClient {
	driver := DriverMySQL
	if db.DriverName() == DriverPostgres {
		driver = DriverPostgres
	}
	return &WriteClient{db: db, driver: driver}
}

// GetDB returns the underlying database connection
func (wc *WriteClient) GetDB() *sqlx.DB {
	return wc.db
}

// Driver returns the SQL dialect in use
func (wc *WriteClient) Driver() string {
	return wc.driver
}

// Rebind converts ? placeholders to the driver's bind variables
func (wc *WriteClient) Rebind(query string) string {
	return wc.db.Rebind(query)
}

// ExecuteWriteQuery executes a write query and returns the result
func (wc *WriteClient) ExecuteWriteQuery(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	return wc.db.ExecContext(ctx, wc.Rebind(query), args...)
}

// ExecuteWriteQueryWithResult executes a query and scans the result into dest
func (wc *WriteClient) ExecuteWriteQueryWithResult(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	return wc.db.SelectContext(ctx, dest, wc.Rebind(query), args...)
}

// ExecuteWriteQuerySingle executes a query and scans a single result into dest
func (wc *WriteClient) ExecuteWriteQuerySingle(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	return wc.db.GetContext(ctx, dest, wc.Rebind(query), args...)
}

// WithTx runs fn inside a transaction, committing when it returns nil
func (wc *WriteClient) WithTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := wc.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// insertReturningID inserts one row and returns its generated id. PostgreSQL
// needs RETURNING, MySQL reports the id through LastInsertId.
func (wc *WriteClient) insertReturningID(ctx context.Context, tx *sqlx.Tx, query string, args ...interface{}) (int64, error) {
	var id int64
	if wc.driver == DriverPostgres {
		err := tx.QueryRowxContext(ctx, tx.Rebind(query+" RETURNING id"), args...).Scan(&id)
		return id, err
	}

	res, err := tx.ExecContext(ctx, tx.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// Close closes the database connection
func (wc *WriteClient) Close() error {
	return wc.db.Close()
}
