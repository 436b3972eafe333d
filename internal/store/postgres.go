package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/Quicexo28/Fitracker-editor/internal/catalog"
)

// Open connects to Postgres through the pgx stdlib driver.
func Open(ctx context.Context, databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetMaxIdleConns(10)
	db.SetMaxOpenConns(20)

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return db, nil
}

// Postgres keeps each catalog file in a single row keyed by
// (path, branch), with an append-only revisions table as the history.
// The conditional UPDATE on the stored sha is what enforces the
// optimistic-concurrency token check.
type Postgres struct {
	db     *sql.DB
	author string
}

func NewPostgres(db *sql.DB, author string) *Postgres {
	if author == "" {
		author = "fitracker-editor"
	}
	return &Postgres{db: db, author: author}
}

// EnsureSchema creates the two tables on first run.
func (s *Postgres) EnsureSchema(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS documents (
	path text NOT NULL,
	branch text NOT NULL,
	content bytea NOT NULL,
	sha text NOT NULL,
	updated_at timestamptz NOT NULL DEFAULT now(),
	PRIMARY KEY (path, branch)
);
CREATE TABLE IF NOT EXISTS revisions (
	id bigserial PRIMARY KEY,
	path text NOT NULL,
	branch text NOT NULL,
	sha text NOT NULL,
	message text NOT NULL,
	author text NOT NULL,
	created_at timestamptz NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS revisions_path_branch_idx ON revisions (path, branch, id DESC);
`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

func (s *Postgres) Fetch(ctx context.Context, path, branch string) (catalog.Document, string, error) {
	const query = `SELECT content, sha FROM documents WHERE path = $1 AND branch = $2`
	var content []byte
	var sha string
	err := s.db.QueryRowContext(ctx, query, path, branch).Scan(&content, &sha)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", ErrNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("load document: %w", err)
	}

	doc, err := DecodeDocument(content)
	if err != nil {
		return nil, "", err
	}
	return doc, sha, nil
}

func (s *Postgres) Commit(ctx context.Context, path, branch string, doc catalog.Document, expectedToken, message string) (string, error) {
	payload, err := MarshalDocument(doc)
	if err != nil {
		return "", err
	}
	newToken := BlobSHA(payload)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if expectedToken == "" {
		const insert = `
			INSERT INTO documents (path, branch, content, sha)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (path, branch) DO NOTHING
		`
		result, err := tx.ExecContext(ctx, insert, path, branch, payload, newToken)
		if err != nil {
			return "", fmt.Errorf("insert document: %w", err)
		}
		if affected, _ := result.RowsAffected(); affected == 0 {
			return "", fmt.Errorf("%w: document already exists", ErrConflict)
		}
	} else {
		const update = `
			UPDATE documents
			SET content = $4, sha = $5, updated_at = now()
			WHERE path = $1 AND branch = $2 AND sha = $3
		`
		result, err := tx.ExecContext(ctx, update, path, branch, expectedToken, payload, newToken)
		if err != nil {
			return "", fmt.Errorf("update document: %w", err)
		}
		if affected, _ := result.RowsAffected(); affected == 0 {
			var current string
			err := tx.QueryRowContext(ctx,
				`SELECT sha FROM documents WHERE path = $1 AND branch = $2`, path, branch).Scan(&current)
			if errors.Is(err, sql.ErrNoRows) {
				return "", ErrNotFound
			}
			if err != nil {
				return "", fmt.Errorf("check current sha: %w", err)
			}
			return "", fmt.Errorf("%w: expected %s, store has %s", ErrConflict, shortToken(expectedToken), shortToken(current))
		}
	}

	const insertRevision = `
		INSERT INTO revisions (path, branch, sha, message, author)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := tx.ExecContext(ctx, insertRevision, path, branch, newToken, message, s.author); err != nil {
		return "", fmt.Errorf("insert revision: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit tx: %w", err)
	}
	return newToken, nil
}

func (s *Postgres) History(ctx context.Context, path, branch string, limit int) ([]Revision, error) {
	const query = `
		SELECT sha, message, author, created_at
		FROM revisions
		WHERE path = $1 AND branch = $2
		ORDER BY id DESC
		LIMIT $3
	`
	rows, err := s.db.QueryContext(ctx, query, path, branch, limit)
	if err != nil {
		return nil, fmt.Errorf("load revisions: %w", err)
	}
	defer rows.Close()

	revisions := make([]Revision, 0, limit)
	for rows.Next() {
		var rev Revision
		if err := rows.Scan(&rev.SHA, &rev.Message, &rev.Author, &rev.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan revision: %w", err)
		}
		revisions = append(revisions, rev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate revisions: %w", err)
	}
	return revisions, nil
}

func (s *Postgres) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
