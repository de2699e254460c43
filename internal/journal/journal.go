package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/mukhtar/internal/device"
)

// Entry kinds.
const (
	KindDevice  = "device"
	KindAlert   = "alert"
	KindMode    = "mode"
	KindCommand = "command"
)

const (
	defaultLimit = 50
	maxLimit     = 200

	// Fixed width so that created_at sorts lexically.
	timeLayout = "2006-01-02T15:04:05.000000Z"
)

// ErrInvalidEntry is returned when an entry lacks a kind or subject.
var ErrInvalidEntry = errors.New("journal: invalid entry")

// Entry is one journal row.
type Entry struct {
	ID        string         `json:"id"`
	Kind      string         `json:"kind"`
	Subject   string         `json:"subject"`
	Source    string         `json:"source"`
	Details   map[string]any `json:"details,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// Filter selects entries for List.
type Filter struct {
	Kind    string
	Subject string
	Limit   int // default 50, max 200
	Offset  int
}

// ListResult is a page of entries, newest first.
type ListResult struct {
	Entries []Entry `json:"entries"`
	Total   int     `json:"total"`
	Limit   int     `json:"limit"`
	Offset  int     `json:"offset"`
}

// Logger defines the logging interface used by the Journal.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Journal is the append-only event log. Nothing in the controller reads
// it back into state.
type Journal struct {
	db     *sql.DB
	logger Logger
	now    func() time.Time
}

// New creates a journal on a migrated database.
func New(db *sql.DB) *Journal {
	return &Journal{db: db, logger: noopLogger{}, now: time.Now}
}

// SetLogger sets the logger for the journal.
func (j *Journal) SetLogger(logger Logger) {
	j.logger = logger
}

// Record appends e. ID, Source and CreatedAt are filled in when empty.
func (j *Journal) Record(ctx context.Context, e *Entry) error {
	if e.Kind == "" || e.Subject == "" {
		return fmt.Errorf("%w: kind and subject are required", ErrInvalidEntry)
	}
	if e.ID == "" {
		e.ID = "evt-" + uuid.NewString()
	}
	if e.Source == "" {
		e.Source = "controller"
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = j.now()
	}
	e.CreatedAt = e.CreatedAt.UTC()

	var details *string
	if len(e.Details) > 0 {
		b, err := json.Marshal(e.Details)
		if err != nil {
			return fmt.Errorf("marshalling journal details: %w", err)
		}
		s := string(b)
		details = &s
	}

	_, err := j.db.ExecContext(ctx,
		`INSERT INTO journal (id, kind, subject, source, details, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.Kind, e.Subject, e.Source, details, e.CreatedAt.Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("inserting journal entry: %w", err)
	}
	return nil
}

// List returns entries matching f, newest first.
func (j *Journal) List(ctx context.Context, f Filter) (*ListResult, error) {
	if f.Limit <= 0 {
		f.Limit = defaultLimit
	}
	if f.Limit > maxLimit {
		f.Limit = maxLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	var conds []string
	var args []any
	if f.Kind != "" {
		conds = append(conds, "kind = ?")
		args = append(args, f.Kind)
	}
	if f.Subject != "" {
		conds = append(conds, "subject = ?")
		args = append(args, f.Subject)
	}
	where := ""
	if len(conds) > 0 {
		where = "WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM journal " + where //nolint:gosec // conditions are placeholders only
	if err := j.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting journal entries: %w", err)
	}

	query := "SELECT id, kind, subject, source, details, created_at FROM journal " + where + //nolint:gosec // conditions are placeholders only
		" ORDER BY created_at DESC, rowid DESC LIMIT ? OFFSET ?"
	rows, err := j.db.QueryContext(ctx, query, append(args, f.Limit, f.Offset)...)
	if err != nil {
		return nil, fmt.Errorf("querying journal: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		var details sql.NullString
		var createdAt string
		if err := rows.Scan(&e.ID, &e.Kind, &e.Subject, &e.Source, &details, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning journal entry: %w", err)
		}
		if details.Valid && details.String != "" {
			_ = json.Unmarshal([]byte(details.String), &e.Details) //nolint:errcheck // written by Record
		}
		if e.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
			return nil, fmt.Errorf("parsing journal timestamp %q: %w", createdAt, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating journal: %w", err)
	}

	return &ListResult{Entries: entries, Total: total, Limit: f.Limit, Offset: f.Offset}, nil
}

// DeviceChanged records an acknowledged actuation. It implements
// device.Observer; failures are logged, never surfaced to the actuator.
func (j *Journal) DeviceChanged(ctx context.Context, c device.Change) {
	state := "off"
	if c.On {
		state = "on"
	}
	j.record(ctx, &Entry{
		Kind:      KindDevice,
		Subject:   c.Device,
		Details:   map[string]any{"state": state},
		CreatedAt: c.At,
	})
}

// ModeChanged records an automation mode switch.
func (j *Journal) ModeChanged(ctx context.Context, auto bool) {
	mode := "manual"
	if auto {
		mode = "auto"
	}
	j.record(ctx, &Entry{Kind: KindMode, Subject: mode})
}

// CommandHandled records a text command and its outcome.
func (j *Journal) CommandHandled(ctx context.Context, source, text, action string, ok bool) {
	j.record(ctx, &Entry{
		Kind:    KindCommand,
		Subject: action,
		Source:  source,
		Details: map[string]any{"text": text, "ok": ok},
	})
}

func (j *Journal) record(ctx context.Context, e *Entry) {
	if err := j.Record(ctx, e); err != nil {
		j.logger.Warn("journal write failed", "kind", e.Kind, "subject", e.Subject, "error", err)
	}
}

var _ device.Observer = (*Journal)(nil)
