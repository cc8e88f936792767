package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

type dialect struct {
	name       string
	numbered   bool   // $1-style placeholders
	lockClause string // appended to the read inside Update
}

var (
	postgresDialect = dialect{name: "postgres", numbered: true, lockClause: " FOR UPDATE"}
	sqliteDialect   = dialect{name: "sqlite"}
)

// rebind rewrites ? placeholders for dialects that number them.
func (d dialect) rebind(query string) string {
	if !d.numbered {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	collection TEXT NOT NULL,
	id         TEXT NOT NULL,
	body       TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (collection, id)
)`

// SQLDocuments stores documents in a single table keyed by (collection, id).
type SQLDocuments struct {
	db *DB
}

// NewSQLDocuments migrates the documents table and returns the store.
func NewSQLDocuments(ctx context.Context, db *DB) (*SQLDocuments, error) {
	if _, err := db.Client.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("migrate documents (%s): %w", db.dialect.name, err)
	}
	return &SQLDocuments{db: db}, nil
}

// Close closes the underlying database.
func (s *SQLDocuments) Close() error { return s.db.Close() }

func (s *SQLDocuments) q(query string) string { return s.db.dialect.rebind(query) }

func (s *SQLDocuments) Get(ctx context.Context, path string) ([]byte, error) {
	col, id, err := splitPath(path)
	if err != nil {
		return nil, err
	}
	var body string
	err = s.db.Client.QueryRowContext(ctx, s.q(`SELECT body FROM documents WHERE collection = ? AND id = ?`), col, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return []byte(body), nil
}

func (s *SQLDocuments) List(ctx context.Context, collection string) (map[string][]byte, error) {
	rows, err := s.db.Client.QueryContext(ctx, s.q(`SELECT id, body FROM documents WHERE collection = ?`), collection)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string][]byte)
	for rows.Next() {
		var id, body string
		if err := rows.Scan(&id, &body); err != nil {
			return nil, err
		}
		out[id] = []byte(body)
	}
	return out, rows.Err()
}

const upsert = `
	INSERT INTO documents (collection, id, body) VALUES (?, ?, ?)
	ON CONFLICT (collection, id) DO UPDATE SET body = excluded.body, updated_at = CURRENT_TIMESTAMP`

func (s *SQLDocuments) Set(ctx context.Context, path string, doc []byte) error {
	col, id, err := splitPath(path)
	if err != nil {
		return err
	}
	_, err = s.db.Client.ExecContext(ctx, s.q(upsert), col, id, string(doc))
	return err
}

func (s *SQLDocuments) Update(ctx context.Context, path string, fields map[string]any) error {
	col, id, err := splitPath(path)
	if err != nil {
		return err
	}
	tx, err := s.db.Client.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var body string
	err = tx.QueryRowContext(ctx, s.q(`SELECT body FROM documents WHERE collection = ? AND id = ?`+s.db.dialect.lockClause), col, id).Scan(&body)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return err
	}
	merged, err := mergeFields([]byte(body), fields)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, s.q(upsert), col, id, string(merged)); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLDocuments) Push(ctx context.Context, collection string, doc []byte) (string, error) {
	id := uuid.NewString()
	if err := s.Set(ctx, Path(collection, id), doc); err != nil {
		return "", err
	}
	return id, nil
}

func (s *SQLDocuments) CompareAndSwap(ctx context.Context, path string, old, next []byte) (bool, error) {
	col, id, err := splitPath(path)
	if err != nil {
		return false, err
	}
	var res sql.Result
	switch {
	case old == nil && next == nil:
		cur, err := s.Get(ctx, path)
		return cur == nil, err
	case old == nil:
		res, err = s.db.Client.ExecContext(ctx,
			s.q(`INSERT INTO documents (collection, id, body) VALUES (?, ?, ?) ON CONFLICT (collection, id) DO NOTHING`),
			col, id, string(next))
	case next == nil:
		res, err = s.db.Client.ExecContext(ctx,
			s.q(`DELETE FROM documents WHERE collection = ? AND id = ? AND body = ?`),
			col, id, string(old))
	default:
		res, err = s.db.Client.ExecContext(ctx,
			s.q(`UPDATE documents SET body = ?, updated_at = CURRENT_TIMESTAMP WHERE collection = ? AND id = ? AND body = ?`),
			string(next), col, id, string(old))
	}
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *SQLDocuments) Delete(ctx context.Context, path string) error {
	col, id, err := splitPath(path)
	if err != nil {
		return err
	}
	_, err = s.db.Client.ExecContext(ctx, s.q(`DELETE FROM documents WHERE collection = ? AND id = ?`), col, id)
	return err
}

func (s *SQLDocuments) Ping(ctx context.Context) error {
	return s.db.Client.PingContext(ctx)
}
