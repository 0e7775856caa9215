// Package postgres implements the conversation and memory stores on
// PostgreSQL.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agrivaani/agrivaani"
)

// Store bundles the conversation and memory stores over one pool and
// provides a transactional reset across both.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a postgres store from a connection string.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return &Store{pool: pool}, nil
}

// EnsureSchema creates the tables if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS messages (
			id BIGSERIAL PRIMARY KEY,
			text TEXT NOT NULL,
			role TEXT NOT NULL,
			language TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS messages_created_at_idx ON messages (created_at);
		CREATE TABLE IF NOT EXISTS facts (
			id BIGSERIAL PRIMARY KEY,
			key TEXT NOT NULL,
			value TEXT NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("ensuring schema: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// Conversations returns the message log backed by this store.
func (s *Store) Conversations() agrivaani.ConversationStore {
	return &conversationStore{pool: s.pool}
}

// Facts returns the fact store backed by this store.
func (s *Store) Facts() agrivaani.MemoryStore {
	return &factStore{pool: s.pool}
}

// Reset empties both tables in one transaction, so a partial clear cannot
// be observed as success.
func (s *Store) Reset(ctx context.Context) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return agrivaani.NewPersistenceError("beginning reset", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM messages`); err != nil {
		return agrivaani.NewPersistenceError("clearing messages", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM facts`); err != nil {
		return agrivaani.NewPersistenceError("clearing facts", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return agrivaani.NewPersistenceError("committing reset", err)
	}
	return nil
}

type conversationStore struct {
	pool *pgxpool.Pool
}

func (s *conversationStore) Append(ctx context.Context, msg agrivaani.Message) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO messages (text, role, language, created_at) VALUES ($1, $2, $3, $4)`,
		msg.Text, string(msg.Role), msg.Language, msg.CreatedAt,
	)
	if err != nil {
		return agrivaani.NewPersistenceError("appending message", err)
	}
	return nil
}

func (s *conversationStore) Recent(ctx context.Context, n int) ([]agrivaani.Message, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT text, role, language, created_at
		FROM (
			SELECT text, role, language, created_at
			FROM messages
			ORDER BY created_at DESC
			LIMIT $1
		) recent
		ORDER BY created_at ASC
	`, n)
	if err != nil {
		return nil, agrivaani.NewPersistenceError("loading recent messages", err)
	}
	defer rows.Close()

	return scanMessages(rows)
}

func (s *conversationStore) All(ctx context.Context) ([]agrivaani.Message, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT text, role, language, created_at
		FROM messages
		ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, agrivaani.NewPersistenceError("loading messages", err)
	}
	defer rows.Close()

	return scanMessages(rows)
}

func (s *conversationStore) Clear(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM messages`); err != nil {
		return agrivaani.NewPersistenceError("clearing messages", err)
	}
	return nil
}

type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanMessages(rows rowScanner) ([]agrivaani.Message, error) {
	var messages []agrivaani.Message
	for rows.Next() {
		var msg agrivaani.Message
		var role string
		if err := rows.Scan(&msg.Text, &role, &msg.Language, &msg.CreatedAt); err != nil {
			return nil, agrivaani.NewPersistenceError("scanning message", err)
		}
		msg.Role = agrivaani.Role(role)
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, agrivaani.NewPersistenceError("reading messages", err)
	}
	return messages, nil
}

type factStore struct {
	pool *pgxpool.Pool
}

func (s *factStore) Append(ctx context.Context, fact agrivaani.Fact) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO facts (key, value) VALUES ($1, $2)`,
		fact.Key, fact.Value,
	)
	if err != nil {
		return agrivaani.NewPersistenceError("appending fact", err)
	}
	return nil
}

func (s *factStore) All(ctx context.Context) ([]agrivaani.Fact, error) {
	rows, err := s.pool.Query(ctx, `SELECT key, value FROM facts ORDER BY id ASC`)
	if err != nil {
		return nil, agrivaani.NewPersistenceError("loading facts", err)
	}
	defer rows.Close()

	var facts []agrivaani.Fact
	for rows.Next() {
		var fact agrivaani.Fact
		if err := rows.Scan(&fact.Key, &fact.Value); err != nil {
			return nil, agrivaani.NewPersistenceError("scanning fact", err)
		}
		facts = append(facts, fact)
	}
	if err := rows.Err(); err != nil {
		return nil, agrivaani.NewPersistenceError("reading facts", err)
	}
	return facts, nil
}

func (s *factStore) Clear(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM facts`); err != nil {
		return agrivaani.NewPersistenceError("clearing facts", err)
	}
	return nil
}
