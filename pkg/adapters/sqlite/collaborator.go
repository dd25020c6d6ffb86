// Package sqlite stores the collaborator calls of the interview in a SQLite database:
// persisted answers, recorded events and an outbox of resume links waiting to be mailed.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/aretw0/actbot/pkg/domain"
	"github.com/aretw0/actbot/pkg/ports"
)

// Collaborator implements ports.AnswerPersister, ports.EventRecorder and
// ports.ResumeMailer on SQLite.
type Collaborator struct {
	db  *sql.DB
	now func() time.Time
}

// Open creates or opens the database at dbPath.
func Open(dbPath string) (*Collaborator, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// WAL mode for concurrent readers while the service writes.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	c := &Collaborator{db: db, now: time.Now}
	if err := c.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return c, nil
}

func (c *Collaborator) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS answers (
		identity TEXT NOT NULL,
		field TEXT NOT NULL,
		value_json TEXT NOT NULL,
		updated_at INTEGER NOT NULL,
		PRIMARY KEY (identity, field)
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		identity TEXT NOT NULL,
		details_json TEXT,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_events_identity ON events(identity);

	CREATE TABLE IF NOT EXISTS resume_links (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		email TEXT NOT NULL,
		stage INTEGER NOT NULL,
		answers_json TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_resume_links_email ON resume_links(email);
	`
	if _, err := c.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (c *Collaborator) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// Close closes the database.
func (c *Collaborator) Close() error {
	return c.db.Close()
}

// PersistAnswer upserts the changed fields of identity. Nil values delete the field.
func (c *Collaborator) PersistAnswer(ctx context.Context, identity string, fields map[string]any) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := c.now().UnixNano()
	for field, value := range fields {
		if value == nil {
			if _, err := tx.ExecContext(ctx,
				`DELETE FROM answers WHERE identity = ? AND field = ?`, identity, field); err != nil {
				return fmt.Errorf("delete answer %s: %w", field, err)
			}
			continue
		}
		data, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("marshal answer %s: %w", field, err)
		}
		_, err = tx.ExecContext(ctx, `
		INSERT INTO answers (identity, field, value_json, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(identity, field) DO UPDATE SET
			value_json = excluded.value_json,
			updated_at = excluded.updated_at`,
			identity, field, string(data), now)
		if err != nil {
			return fmt.Errorf("upsert answer %s: %w", field, err)
		}
	}
	return tx.Commit()
}

// RecordEvent inserts an event row.
func (c *Collaborator) RecordEvent(ctx context.Context, name, identity string, details map[string]any) error {
	data, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("marshal event details: %w", err)
	}
	_, err = c.db.ExecContext(ctx,
		`INSERT INTO events (name, identity, details_json, created_at) VALUES (?, ?, ?, ?)`,
		name, identity, string(data), c.now().UnixNano())
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// EmailResumeLink queues the link in the resume_links outbox.
func (c *Collaborator) EmailResumeLink(ctx context.Context, email string, stage int, answers map[string]any) error {
	data, err := json.Marshal(answers)
	if err != nil {
		return fmt.Errorf("marshal resume answers: %w", err)
	}
	_, err = c.db.ExecContext(ctx,
		`INSERT INTO resume_links (email, stage, answers_json, created_at) VALUES (?, ?, ?, ?)`,
		email, stage, string(data), c.now().UnixNano())
	if err != nil {
		return fmt.Errorf("insert resume link: %w", err)
	}
	return nil
}

// Answers returns the persisted fields of identity.
func (c *Collaborator) Answers(ctx context.Context, identity string) (map[string]any, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT field, value_json FROM answers WHERE identity = ?`, identity)
	if err != nil {
		return nil, fmt.Errorf("query answers: %w", err)
	}
	defer rows.Close()

	out := make(map[string]any)
	for rows.Next() {
		var field, raw string
		if err := rows.Scan(&field, &raw); err != nil {
			return nil, fmt.Errorf("scan answer row: %w", err)
		}
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return nil, fmt.Errorf("unmarshal answer %s: %w", field, err)
		}
		out[field] = v
	}
	return out, rows.Err()
}

// Events returns the events of identity in insertion order.
// An empty identity returns every event.
func (c *Collaborator) Events(ctx context.Context, identity string) ([]domain.RecordedEvent, error) {
	query := `SELECT name, identity, details_json, created_at FROM events`
	var args []any
	if identity != "" {
		query += ` WHERE identity = ?`
		args = append(args, identity)
	}
	query += ` ORDER BY id`

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var out []domain.RecordedEvent
	for rows.Next() {
		var ev domain.RecordedEvent
		var details sql.NullString
		var created int64
		if err := rows.Scan(&ev.Name, &ev.SessionID, &details, &created); err != nil {
			return nil, fmt.Errorf("scan event row: %w", err)
		}
		if details.Valid && details.String != "" {
			if err := json.Unmarshal([]byte(details.String), &ev.Details); err != nil {
				return nil, fmt.Errorf("unmarshal event details: %w", err)
			}
		}
		ev.At = time.Unix(0, created)
		out = append(out, ev)
	}
	return out, rows.Err()
}

// ResumeLinks returns the links queued for email in insertion order.
func (c *Collaborator) ResumeLinks(ctx context.Context, email string) ([]ports.ResumeLink, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT email, stage, answers_json, created_at FROM resume_links WHERE email = ? ORDER BY id`, email)
	if err != nil {
		return nil, fmt.Errorf("query resume links: %w", err)
	}
	defer rows.Close()

	var out []ports.ResumeLink
	for rows.Next() {
		var l ports.ResumeLink
		var raw string
		var created int64
		if err := rows.Scan(&l.Email, &l.Stage, &raw, &created); err != nil {
			return nil, fmt.Errorf("scan resume link row: %w", err)
		}
		if err := json.Unmarshal([]byte(raw), &l.Answers); err != nil {
			return nil, fmt.Errorf("unmarshal resume answers: %w", err)
		}
		l.SentAt = time.Unix(0, created)
		out = append(out, l)
	}
	return out, rows.Err()
}
