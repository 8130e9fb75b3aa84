package db

import "github.com/jmoiron/sqlx"

// Pool pairs the write and read connections the history store runs on.
// For SQLite the two sides are distinct (single writer, read-only reader
// pool); for Postgres both return the same pgx-backed *sqlx.DB.
type Pool struct {
	writer *sqlx.DB
	reader *sqlx.DB
}

// NewPool creates a Pool from writer and reader connections. Passing the
// same *sqlx.DB for both is allowed.
func NewPool(writer, reader *sqlx.DB) *Pool {
	return &Pool{writer: writer, reader: reader}
}

// Writer returns the connection for INSERT, UPDATE, DELETE and schema work.
func (p *Pool) Writer() *sqlx.DB { return p.writer }

// Reader returns the connection for SELECT queries.
func (p *Pool) Reader() *sqlx.DB { return p.reader }

// Close closes both sides, guarding against double-close when they share
// one *sqlx.DB.
func (p *Pool) Close() error {
	wErr := p.writer.Close()
	if p.reader != p.writer {
		if rErr := p.reader.Close(); rErr != nil && wErr == nil {
			return rErr
		}
	}
	return wErr
}
