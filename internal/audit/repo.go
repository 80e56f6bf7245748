package audit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const schema = `
CREATE TABLE IF NOT EXISTS attendance_audit (
	id          TEXT PRIMARY KEY,
	event_type  TEXT NOT NULL,
	student_id  TEXT NOT NULL DEFAULT '',
	name        TEXT NOT NULL DEFAULT '',
	class       TEXT NOT NULL DEFAULT '',
	check_in    TEXT NOT NULL DEFAULT '',
	status      TEXT NOT NULL DEFAULT '',
	day         TEXT NOT NULL DEFAULT '',
	occurred_at TIMESTAMPTZ NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_attendance_audit_student ON attendance_audit(student_id);
CREATE INDEX IF NOT EXISTS idx_attendance_audit_day ON attendance_audit(day);
`

// Entry is one archived ledger event.
type Entry struct {
	ID         string    `json:"id"`
	EventType  string    `json:"event_type"`
	StudentID  string    `json:"student_id"`
	Name       string    `json:"name"`
	Class      string    `json:"class"`
	CheckIn    string    `json:"check_in"`
	Status     string    `json:"status"`
	Day        string    `json:"day"`
	OccurredAt time.Time `json:"occurred_at"`
	CreatedAt  time.Time `json:"created_at"`
}

// Query filters List. Zero values match everything.
type Query struct {
	StudentID string
	Day       string
	Class     string
	Limit     int
	Offset    int
}

// Repository persists the audit trail in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// EnsureSchema creates the audit table if it does not exist.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, schema)
	return err
}

// Insert writes an entry. Re-delivered events with the same id are ignored.
func (r *Repository) Insert(ctx context.Context, e Entry) error {
	if e.EventType == "" {
		return errors.New("event type required")
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO attendance_audit (id, event_type, student_id, name, class, check_in, status, day, occurred_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (id) DO NOTHING
	`, e.ID, e.EventType, e.StudentID, e.Name, e.Class, e.CheckIn, e.Status, e.Day, e.OccurredAt)
	return err
}

// List returns entries newest first.
func (r *Repository) List(ctx context.Context, q Query) ([]Entry, error) {
	query, args := buildListQuery(q)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.EventType, &e.StudentID, &e.Name, &e.Class, &e.CheckIn, &e.Status, &e.Day, &e.OccurredAt, &e.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

func buildListQuery(q Query) (string, []any) {
	if q.Limit <= 0 {
		q.Limit = 50
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	query := `SELECT id, event_type, student_id, name, class, check_in, status, day, occurred_at, created_at FROM attendance_audit`
	args := []any{}
	clauses := []string{}
	add := func(col, val string) {
		if val == "" {
			return
		}
		args = append(args, val)
		clauses = append(clauses, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	add("student_id", q.StudentID)
	add("day", q.Day)
	add("class", q.Class)
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += fmt.Sprintf(" ORDER BY occurred_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, q.Limit, q.Offset)
	return query, args
}
