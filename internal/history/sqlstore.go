package history

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/relayd/relayd/internal/db"
	"github.com/relayd/relayd/internal/db/dialect"
)

// SQLStore persists messages in SQLite or PostgreSQL through a writer/reader
// pool. The store owns the pool and closes it on Close.
type SQLStore struct {
	pool   *db.Pool
	driver string
}

// NewSQLStore creates the store and initializes the schema. On schema failure
// the pool is closed before returning.
func NewSQLStore(pool *db.Pool) (*SQLStore, error) {
	s := &SQLStore{pool: pool, driver: pool.Writer().DriverName()}
	if err := s.initSchema(); err != nil {
		if closeErr := pool.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to close database after schema error: %w", closeErr)
		}
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

// initSchema creates the messages table if it doesn't exist
func (s *SQLStore) initSchema() error {
	timestampType := "DATETIME"
	if dialect.IsPostgres(s.driver) {
		timestampType = "TIMESTAMPTZ"
	}

	createTable := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS messages (
			id TEXT PRIMARY KEY,
			client_id TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at %s NOT NULL
		)
	`, timestampType)
	if _, err := s.pool.Writer().Exec(createTable); err != nil {
		return err
	}

	_, err := s.pool.Writer().Exec(`CREATE INDEX IF NOT EXISTS idx_messages_created_at ON messages(created_at)`)
	return err
}

// Append stores one message.
func (s *SQLStore) Append(ctx context.Context, clientID, content string) (*Entry, error) {
	entry := Entry{
		ID:        uuid.New().String(),
		ClientID:  clientID,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}

	query := s.pool.Writer().Rebind(`
		INSERT INTO messages (id, client_id, content, created_at)
		VALUES (?, ?, ?, ?)
	`)
	if _, err := s.pool.Writer().ExecContext(ctx, query, entry.ID, entry.ClientID, entry.Content, entry.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to store message: %w", err)
	}

	return &entry, nil
}

// Recent returns up to limit entries, oldest first.
func (s *SQLStore) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		return nil, nil
	}

	query := s.pool.Reader().Rebind(`
		SELECT id, client_id, content, created_at
		FROM messages
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`)
	var entries []Entry
	if err := s.pool.Reader().SelectContext(ctx, &entries, query, limit); err != nil {
		return nil, fmt.Errorf("failed to load recent messages: %w", err)
	}

	// The query yields newest first; reverse to chronological order.
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}

// Count returns the number of stored entries.
func (s *SQLStore) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.pool.Reader().GetContext(ctx, &count, `SELECT COUNT(*) FROM messages`); err != nil {
		return 0, fmt.Errorf("failed to count messages: %w", err)
	}
	return count, nil
}

// Close closes the backing pool.
func (s *SQLStore) Close() error {
	return s.pool.Close()
}
