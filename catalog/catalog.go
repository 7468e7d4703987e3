// Package catalog keeps a local SQLite history of uploads, issued share
// links and deletions so an operator can find object ids again later.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sagarc03/sialo"

	_ "modernc.org/sqlite" // SQLite driver
)

const historyTable = "history"

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Kind identifies the operation a history entry records.
type Kind string

// History entry kinds.
const (
	KindUpload Kind = "upload"
	KindShare  Kind = "share"
	KindDelete Kind = "delete"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindUpload, KindShare, KindDelete:
		return true
	}
	return false
}

// Errors returned by the catalog.
var (
	ErrInvalidKind    = errors.New("invalid history kind")
	ErrSchemaMismatch = errors.New("history schema mismatch")
)

// Entry is one recorded operation.
type Entry struct {
	ID        uuid.UUID      `json:"id"`
	Kind      Kind           `json:"kind"`
	ObjectID  sialo.ObjectID `json:"object_id"`
	Detail    string         `json:"detail,omitempty"` // local path for uploads, link for shares
	Size      uint64         `json:"size_bytes"`
	ExpiresAt *time.Time     `json:"expires_at,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// Query filters a history listing. Zero values match everything.
type Query struct {
	Kind     Kind
	ObjectID *sialo.ObjectID
	Limit    int
}

// Catalog is a SQLite-backed history store.
type Catalog struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (creating if needed) the history database at path, runs
// migrations and validates the schema. ":memory:" opens a private
// in-memory database.
func Open(ctx context.Context, path string) (*Catalog, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(filepath.Clean(path)), 0o700); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection keeps ":memory:" databases coherent and
	// serializes writers on file databases.
	db.SetMaxOpenConns(1)

	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	if err = migrate(ctx, db, historyTable); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}

	if err = validateTableSchema(ctx, db, historyTable, historyTableSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("validate sqlite schema: %w", err)
	}

	return &Catalog{db: db, now: time.Now}, nil
}

// Close closes the database.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// Record stores e. ID and CreatedAt are assigned when zero.
func (c *Catalog) Record(ctx context.Context, e Entry) error {
	if !e.Kind.Valid() {
		return fmt.Errorf("record: %w: %q", ErrInvalidKind, e.Kind)
	}
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = c.now()
	}

	var expiresAt sql.NullString
	if e.ExpiresAt != nil {
		expiresAt = sql.NullString{String: e.ExpiresAt.UTC().Format(timeLayout), Valid: true}
	}

	query := fmt.Sprintf( //nolint:gosec // G201: table name is a constant
		`INSERT INTO %s (id, kind, object_id, detail, size_bytes, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`, quoteIdentifier(historyTable))

	_, err := c.db.ExecContext(ctx, query,
		e.ID.String(), string(e.Kind), e.ObjectID.String(), e.Detail, int64(e.Size), //nolint:gosec // sizes fit in int64
		expiresAt, e.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("record: insert: %w", err)
	}
	return nil
}

// List returns entries matching q, newest first.
func (c *Catalog) List(ctx context.Context, q Query) ([]Entry, error) {
	var (
		where []string
		args  []any
	)
	if q.Kind != "" {
		if !q.Kind.Valid() {
			return nil, fmt.Errorf("list: %w: %q", ErrInvalidKind, q.Kind)
		}
		where = append(where, "kind = ?")
		args = append(args, string(q.Kind))
	}
	if q.ObjectID != nil {
		where = append(where, "object_id = ?")
		args = append(args, q.ObjectID.String())
	}

	query := fmt.Sprintf(`SELECT id, kind, object_id, detail, size_bytes, expires_at, created_at FROM %s`, quoteIdentifier(historyTable))
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id"
	if q.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, q.Limit)
	}

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	defer func() { _ = rows.Close() }()

	entries := []Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("list: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list: rows error: %w", err)
	}

	return entries, nil
}

// Clear removes all history.
func (c *Catalog) Clear(ctx context.Context) error {
	if err := dropTables(ctx, c.db, historyTable); err != nil {
		return fmt.Errorf("clear: %w", err)
	}
	if err := migrate(ctx, c.db, historyTable); err != nil {
		return fmt.Errorf("clear: %w", err)
	}
	return nil
}

func scanEntry(rows *sql.Rows) (Entry, error) {
	var (
		e                     Entry
		idStr, kind, objectID string
		size                  int64
		expiresAt             sql.NullString
		createdAt             string
	)

	if err := rows.Scan(&idStr, &kind, &objectID, &e.Detail, &size, &expiresAt, &createdAt); err != nil {
		return Entry{}, fmt.Errorf("scan: %w", err)
	}

	var err error
	if e.ID, err = uuid.Parse(idStr); err != nil {
		return Entry{}, fmt.Errorf("parse uuid: %w", err)
	}
	if e.ObjectID, err = sialo.ParseObjectID(objectID); err != nil {
		return Entry{}, err
	}
	e.Kind = Kind(kind)
	e.Size = uint64(size) //nolint:gosec // stored from a uint64

	if e.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return Entry{}, fmt.Errorf("parse created_at: %w", err)
	}
	if expiresAt.Valid {
		t, err := time.Parse(timeLayout, expiresAt.String)
		if err != nil {
			return Entry{}, fmt.Errorf("parse expires_at: %w", err)
		}
		e.ExpiresAt = &t
	}

	return e, nil
}
