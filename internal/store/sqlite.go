package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ashureev/skillpath/internal/domain"
	"github.com/ashureev/skillpath/internal/shared"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite. The full session is kept as a
// JSON document; stage and timestamps are mirrored into columns for queries.
type SQLiteStore struct {
	db    *sql.DB
	retry shared.RetryPolicy
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLite creates a new SQLite-backed session store.
func NewSQLite(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// WAL lets readers proceed while a session is being written.
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db, retry: shared.DefaultRetryPolicy}
	if err := store.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		stage TEXT NOT NULL,
		selected_domain TEXT,
		data TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_updated ON sessions(updated_at);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Create allocates a new session.
func (s *SQLiteStore) Create(ctx context.Context) (*domain.Session, error) {
	sess := newSession()
	data, err := json.Marshal(sess)
	if err != nil {
		return nil, fmt.Errorf("marshal session: %w", err)
	}

	query := `
	INSERT INTO sessions (id, stage, selected_domain, data, created_at, updated_at)
	VALUES (?, ?, NULL, ?, ?, ?)`

	err = shared.RetrySQLite(ctx, "create session", s.retry, func() error {
		_, err := s.db.ExecContext(ctx, query,
			sess.ID, string(sess.Stage), string(data),
			sess.CreatedAt.Unix(), sess.UpdatedAt.Unix(),
		)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	return sess, nil
}

// Get retrieves a session by id.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM sessions WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan session row: %w", err)
	}

	var sess domain.Session
	if err := json.Unmarshal([]byte(data), &sess); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	return &sess, nil
}

// Put creates or replaces a session.
func (s *SQLiteStore) Put(ctx context.Context, sess *domain.Session) error {
	sess.UpdatedAt = timeNow().UTC()
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	query := `
	UPDATE sessions
	SET stage = ?, selected_domain = ?, data = ?, updated_at = ?
	WHERE id = ?`

	var selected any
	if sess.SelectedDomain != "" {
		selected = sess.SelectedDomain
	}

	var updated int64
	err = shared.RetrySQLite(ctx, "put session", s.retry, func() error {
		res, err := s.db.ExecContext(ctx, query,
			string(sess.Stage), selected, string(data), sess.UpdatedAt.Unix(), sess.ID,
		)
		if err != nil {
			return err
		}
		updated, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	if updated == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

// Delete removes a session.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	err := shared.RetrySQLite(ctx, "delete session", s.retry, func() error {
		_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
		return err
	})
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteExpired removes sessions whose last update is older than ttl.
func (s *SQLiteStore) DeleteExpired(ctx context.Context, ttl time.Duration) ([]string, error) {
	cutoff := timeNow().Add(-ttl).Unix()

	var ids []string
	err := shared.RetrySQLite(ctx, "delete expired sessions", s.retry, func() error {
		ids = ids[:0]
		rows, err := s.db.QueryContext(ctx, `DELETE FROM sessions WHERE updated_at < ? RETURNING id`, cutoff)
		if err != nil {
			return err
		}
		defer func() { _ = rows.Close() }()

		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				return err
			}
			ids = append(ids, id)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("delete expired sessions: %w", err)
	}
	return ids, nil
}

// CountByStage returns how many stored sessions are in each stage.
func (s *SQLiteStore) CountByStage(ctx context.Context) (map[domain.Stage]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT stage, COUNT(*) FROM sessions GROUP BY stage`)
	if err != nil {
		return nil, fmt.Errorf("query stage counts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[domain.Stage]int)
	for rows.Next() {
		var stage string
		var n int
		if err := rows.Scan(&stage, &n); err != nil {
			return nil, fmt.Errorf("scan stage count: %w", err)
		}
		counts[domain.Stage(stage)] = n
	}
	return counts, rows.Err()
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
