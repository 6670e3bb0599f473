// Package db provides the optional Postgres audit trail: every
// execute_tool dispatch is recorded to the tool_calls table when
// DATABASE_URL is configured. Without a database the server runs with
// auditing disabled.
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/tooldesk/tooldesk/internal/core"
)

// Store wraps the Postgres connection pool and implements the
// dispatcher's Recorder.
type Store struct {
	conn *sql.DB
}

var _ core.Recorder = (*Store)(nil)

// Open connects to Postgres, verifies connectivity, and applies the
// embedded migrations.
func Open(databaseURL string) (*Store, error) {
	conn, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}
	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	if err := applyMigrations(ctx, conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("db migrate: %w", err)
	}
	return &Store{conn: conn}, nil
}

// Close closes the connection pool.
func (s *Store) Close() error {
	return s.conn.Close()
}

// ToolCall is one audited tool invocation as stored.
type ToolCall struct {
	ID         int64           `json:"id"`
	TraceID    string          `json:"trace_id"`
	ToolName   string          `json:"tool_name"`
	Arguments  json.RawMessage `json:"arguments"`
	Content    string          `json:"content"`
	Status     string          `json:"status"`
	DurationMS int64           `json:"duration_ms"`
	CreatedAt  time.Time       `json:"created_at"`
}

// RecordToolCall implements core.Recorder.
func (s *Store) RecordToolCall(ctx context.Context, rec core.ToolCallRecord) error {
	args, err := json.Marshal(rec.Arguments)
	if err != nil {
		return fmt.Errorf("marshal arguments: %w", err)
	}
	_, err = s.conn.ExecContext(ctx,
		`INSERT INTO tool_calls (trace_id, tool_name, arguments, content, status, duration_ms, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rec.TraceID, rec.Tool, args, rec.Content, rec.Status, rec.Duration.Milliseconds(), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert tool_call: %w", err)
	}
	return nil
}

// ListRecent returns the newest tool calls, most recent first.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]*ToolCall, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.conn.QueryContext(ctx,
		`SELECT id, trace_id, tool_name, arguments, content, status, duration_ms, created_at
		 FROM tool_calls ORDER BY id DESC LIMIT $1`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list tool_calls: %w", err)
	}
	defer rows.Close()

	out := make([]*ToolCall, 0)
	for rows.Next() {
		tc := &ToolCall{}
		var args []byte
		if err := rows.Scan(&tc.ID, &tc.TraceID, &tc.ToolName, &args, &tc.Content, &tc.Status, &tc.DurationMS, &tc.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan tool_call: %w", err)
		}
		tc.Arguments = json.RawMessage(args)
		out = append(out, tc)
	}
	return out, rows.Err()
}
