package localstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fekuna/omnipos-storefront/internal/retry"
	"github.com/jmoiron/sqlx"
)

const schema = `
CREATE TABLE IF NOT EXISTS local_records (
    collection TEXT NOT NULL,
    id TEXT NOT NULL,
    body TEXT NOT NULL,
    seq BIGINT NOT NULL,
    updated_at BIGINT NOT NULL,
    PRIMARY KEY (collection, id)
)`

type record struct {
	Collection string `db:"collection"`
	ID         string `db:"id"`
	Body       string `db:"body"`
	Seq        int64  `db:"seq"`
	UpdatedAt  int64  `db:"updated_at"`
}

// SQLStore persists records in a single table. Works with the "sqlite"
// (modernc) and "postgres" (lib/pq) drivers.
type SQLStore struct {
	DB *sqlx.DB

	mu      sync.Mutex
	lastSeq int64
}

type SQLConfig struct {
	Driver       string
	DSN          string
	PingAttempts int
	PingDelay    time.Duration
}

// OpenSQL connects, retrying the ping with a linear back-off, and ensures
// the schema exists.
func OpenSQL(ctx context.Context, cfg SQLConfig) (*SQLStore, error) {
	db, err := sqlx.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Driver, err)
	}
	if cfg.Driver == "sqlite" {
		// one writer; also keeps ":memory:" databases on a single connection
		db.SetMaxOpenConns(1)
	}

	err = retry.Linear(ctx, cfg.PingAttempts, cfg.PingDelay, func(int) error {
		return db.PingContext(ctx)
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", cfg.Driver, err)
	}

	return NewSQLStore(ctx, db)
}

func NewSQLStore(ctx context.Context, db *sqlx.DB) (*SQLStore, error) {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("create local_records: %w", err)
	}
	return &SQLStore{DB: db}, nil
}

func (s *SQLStore) All(ctx context.Context, collection string) ([]json.RawMessage, error) {
	var rows []record
	query := s.DB.Rebind(`SELECT * FROM local_records WHERE collection = ? ORDER BY seq, id`)
	if err := s.DB.SelectContext(ctx, &rows, query, collection); err != nil {
		return nil, err
	}

	out := make([]json.RawMessage, 0, len(rows))
	for _, r := range rows {
		out = append(out, json.RawMessage(r.Body))
	}
	return out, nil
}

func (s *SQLStore) Get(ctx context.Context, collection, id string) (json.RawMessage, error) {
	var body string
	query := s.DB.Rebind(`SELECT body FROM local_records WHERE collection = ? AND id = ? LIMIT 1`)
	err := s.DB.GetContext(ctx, &body, query, collection, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return json.RawMessage(body), nil
}

func (s *SQLStore) Put(ctx context.Context, collection, id string, doc json.RawMessage) error {
	r := record{
		Collection: collection,
		ID:         id,
		Body:       string(doc),
		Seq:        s.nextSeq(),
		UpdatedAt:  time.Now().UnixNano(),
	}
	query := `
        INSERT INTO local_records (collection, id, body, seq, updated_at)
        VALUES (:collection, :id, :body, :seq, :updated_at)
        ON CONFLICT (collection, id)
        DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at
    `
	_, err := s.DB.NamedExecContext(ctx, query, r)
	return err
}

func (s *SQLStore) Delete(ctx context.Context, collection, id string) error {
	query := s.DB.Rebind(`DELETE FROM local_records WHERE collection = ? AND id = ?`)
	_, err := s.DB.ExecContext(ctx, query, collection, id)
	return err
}

func (s *SQLStore) Count(ctx context.Context, collection string) (int, error) {
	var count int
	query := s.DB.Rebind(`SELECT count(*) FROM local_records WHERE collection = ?`)
	err := s.DB.GetContext(ctx, &count, query, collection)
	return count, err
}

func (s *SQLStore) Close() error { return s.DB.Close() }

// nextSeq is a strictly increasing insertion stamp.
func (s *SQLStore) nextSeq() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	seq := time.Now().UnixNano()
	if seq <= s.lastSeq {
		seq = s.lastSeq + 1
	}
	s.lastSeq = seq
	return seq
}
