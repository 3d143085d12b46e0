package config

import (
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver
)

// SetupDatabase initializes the database connection
func SetupDatabase(cfg *Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.Database.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	// Create tables if they don't exist
	if err := createTables(db); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return db, nil
}

// createTables creates the necessary tables in the database
func createTables(db *sqlx.DB) error {
	// Create accounts table
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS accounts (
			id VARCHAR(36) PRIMARY KEY,
			username VARCHAR(255) UNIQUE NOT NULL,
			name VARCHAR(255) NOT NULL,
			password VARCHAR(255) NOT NULL,
			role VARCHAR(20) NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_by VARCHAR(36) REFERENCES accounts(id),
			event_quota INTEGER NOT NULL DEFAULT 0,
			events_used INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return err
	}

	// Create events table
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS events (
			id VARCHAR(36) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			location VARCHAR(255) NOT NULL DEFAULT '',
			event_date VARCHAR(10) NOT NULL,
			start_time VARCHAR(5) NOT NULL DEFAULT '',
			end_time VARCHAR(5) NOT NULL DEFAULT '',
			event_manager_id VARCHAR(36) NOT NULL REFERENCES accounts(id),
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return err
	}

	// Create guests table
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS guests (
			id VARCHAR(36) PRIMARY KEY,
			event_id VARCHAR(36) NOT NULL REFERENCES events(id) ON DELETE CASCADE,
			name VARCHAR(255) NOT NULL DEFAULT '',
			phone VARCHAR(50) NOT NULL DEFAULT '',
			category VARCHAR(20) NOT NULL DEFAULT 'regular',
			companions INTEGER NOT NULL DEFAULT 0,
			notes TEXT NOT NULL DEFAULT '',
			qr_code VARCHAR(36) UNIQUE NOT NULL,
			is_checked_in BOOLEAN NOT NULL DEFAULT FALSE,
			checked_in_at TIMESTAMP,
			checked_in_by VARCHAR(36),
			created_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return err
	}

	// Create event_organizers table (assignment graph)
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS event_organizers (
			event_id VARCHAR(36) NOT NULL REFERENCES events(id) ON DELETE CASCADE,
			organizer_id VARCHAR(36) NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
			created_at TIMESTAMP NOT NULL,
			PRIMARY KEY (event_id, organizer_id)
		)
	`)
	if err != nil {
		return err
	}

	// Create audit_logs table
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS audit_logs (
			id VARCHAR(36) PRIMARY KEY,
			event_id VARCHAR(36) NOT NULL REFERENCES events(id) ON DELETE CASCADE,
			actor_id VARCHAR(36) NOT NULL,
			action VARCHAR(50) NOT NULL,
			detail TEXT NOT NULL DEFAULT '',
			guest_id VARCHAR(36),
			created_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return err
	}

	// Create indexes for better performance
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_accounts_created_by ON accounts(created_by)",
		"CREATE INDEX IF NOT EXISTS idx_events_manager ON events(event_manager_id)",
		"CREATE INDEX IF NOT EXISTS idx_guests_event_id ON guests(event_id)",
		"CREATE INDEX IF NOT EXISTS idx_guests_qr_code ON guests(qr_code)",
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_event ON audit_logs(event_id, created_at)",
	}

	for _, idx := range indexes {
		_, err = db.Exec(idx)
		if err != nil {
			log.Printf("Warning: Failed to create index: %v", err)
			// Don't return error here, indexes are not critical
		}
	}

	return nil
}
