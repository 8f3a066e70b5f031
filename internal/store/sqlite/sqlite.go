// Package sqlite persists store snapshots in a SQLite database using the
// pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aatumaykin/postbot/internal/logger"
	"github.com/aatumaykin/postbot/internal/post"
	"github.com/aatumaykin/postbot/internal/store"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schema string

// Persister implements store.Persister. Save replaces the stored snapshot in
// a single transaction.
type Persister struct {
	db     *sql.DB
	loc    *time.Location
	logger *logger.Logger
}

// Open creates or opens the database at path and applies the schema.
func Open(ctx context.Context, path string, loc *time.Location, log *logger.Logger) (*Persister, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if loc == nil {
		loc = time.UTC
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create directory for %s: %w", path, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	_, _ = db.ExecContext(ctx, "PRAGMA busy_timeout = 5000")
	_, _ = db.ExecContext(ctx, "PRAGMA journal_mode = WAL")
	_, _ = db.ExecContext(ctx, "PRAGMA synchronous = NORMAL")

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Persister{db: db, loc: loc, logger: log.Component("sqlite")}, nil
}

// Load reads every task and channel binding.
func (p *Persister) Load(ctx context.Context) (store.Snapshot, error) {
	snap := store.EmptySnapshot()

	rows, err := p.db.QueryContext(ctx, `SELECT id, owner_id, target_at, chat_id, message_id, preview, recurrence, created_at
		FROM tasks ORDER BY owner_id, position`)
	if err != nil {
		return store.Snapshot{}, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			owner      int64
			rec        store.Record
			targetAt   string
			recurrence sql.NullString
			createdAt  sql.NullString
		)
		if err := rows.Scan(&rec.ID, &owner, &targetAt, &rec.ChatID, &rec.MessageID, &rec.Preview, &recurrence, &createdAt); err != nil {
			return store.Snapshot{}, fmt.Errorf("scan task: %w", err)
		}

		rec.Time, err = time.Parse(time.RFC3339Nano, targetAt)
		if err != nil {
			p.logger.WarnCtx(ctx, "skipping task with malformed time",
				logger.Field{Key: "task_id", Value: rec.ID},
				logger.Field{Key: "time", Value: targetAt})
			continue
		}
		if recurrence.Valid && recurrence.String != "" {
			var r post.Recurrence
			if err := json.Unmarshal([]byte(recurrence.String), &r); err != nil {
				p.logger.WarnCtx(ctx, "skipping task with malformed recurrence",
					logger.Field{Key: "task_id", Value: rec.ID})
				continue
			}
			rec.Recurrence = &r
		}
		if createdAt.Valid && createdAt.String != "" {
			if ts, err := time.Parse(time.RFC3339Nano, createdAt.String); err == nil {
				rec.CreatedAt = &ts
			}
		}

		task, err := rec.Task(post.OwnerID(owner), p.loc)
		if err != nil {
			p.logger.WarnCtx(ctx, "skipping malformed task", logger.Field{Key: "reason", Value: err.Error()})
			continue
		}
		snap.Tasks[task.Owner] = append(snap.Tasks[task.Owner], task)
	}
	if err := rows.Err(); err != nil {
		return store.Snapshot{}, fmt.Errorf("iterate tasks: %w", err)
	}

	chanRows, err := p.db.QueryContext(ctx, `SELECT owner_id, chat_id FROM channels`)
	if err != nil {
		return store.Snapshot{}, fmt.Errorf("query channels: %w", err)
	}
	defer chanRows.Close()

	for chanRows.Next() {
		var owner int64
		var chat string
		if err := chanRows.Scan(&owner, &chat); err != nil {
			return store.Snapshot{}, fmt.Errorf("scan channel: %w", err)
		}
		snap.Channels[post.OwnerID(owner)] = chat
	}
	if err := chanRows.Err(); err != nil {
		return store.Snapshot{}, fmt.Errorf("iterate channels: %w", err)
	}

	return snap, nil
}

// Save replaces the stored state with snap.
func (p *Persister) Save(ctx context.Context, snap store.Snapshot) (err error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM tasks`); err != nil {
		return fmt.Errorf("clear tasks: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM channels`); err != nil {
		return fmt.Errorf("clear channels: %w", err)
	}

	insertTask, err := tx.PrepareContext(ctx, `INSERT INTO tasks
		(id, owner_id, position, target_at, chat_id, message_id, preview, recurrence, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare task insert: %w", err)
	}
	defer insertTask.Close()

	for owner, tasks := range snap.Tasks {
		for i, t := range tasks {
			var recurrence sql.NullString
			if t.Recurrence.IsSet() {
				data, mErr := json.Marshal(t.Recurrence)
				if mErr != nil {
					return fmt.Errorf("encode recurrence for %s: %w", t.ID, mErr)
				}
				recurrence = sql.NullString{String: string(data), Valid: true}
			}
			var createdAt sql.NullString
			if !t.CreatedAt.IsZero() {
				createdAt = sql.NullString{String: t.CreatedAt.Format(time.RFC3339Nano), Valid: true}
			}
			if _, err = insertTask.ExecContext(ctx, t.ID, int64(owner), i, t.TargetAt.Format(time.RFC3339Nano),
				t.Payload.ChatID, t.Payload.MessageID, t.Preview, recurrence, createdAt); err != nil {
				return fmt.Errorf("insert task %s: %w", t.ID, err)
			}
		}
	}

	for owner, chat := range snap.Channels {
		if _, err = tx.ExecContext(ctx, `INSERT INTO channels (owner_id, chat_id) VALUES (?, ?)`, int64(owner), chat); err != nil {
			return fmt.Errorf("insert channel for %d: %w", owner, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Close closes the database.
func (p *Persister) Close() error {
	if p == nil || p.db == nil {
		return nil
	}
	return p.db.Close()
}
