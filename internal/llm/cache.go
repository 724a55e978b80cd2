package llm

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mailsift/mailsift/internal/model"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// VerdictCache stores recent spam verdicts keyed by content hash. It only
// pre-fills the proposed verdict; every cached verdict still goes through
// human review.
type VerdictCache struct {
	db  *sql.DB
	ttl time.Duration
}

const verdictCacheSchema = `
CREATE TABLE IF NOT EXISTS verdicts (
	content_hash  TEXT PRIMARY KEY,
	verdict       TEXT NOT NULL,
	model_version TEXT NOT NULL,
	created_at    TIMESTAMP NOT NULL
);`

// NewVerdictCache opens (creating if necessary) a verdict cache at dbPath.
// Entries older than ttl are treated as absent.
func NewVerdictCache(dbPath string, ttl time.Duration) (*VerdictCache, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	// SQLite doesn't benefit from multiple connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec(verdictCacheSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize cache schema: %w", err)
	}

	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	return &VerdictCache{db: db, ttl: ttl}, nil
}

// Close closes the cache database.
func (c *VerdictCache) Close() error {
	return c.db.Close()
}

// Get returns the cached verdict for a content hash, or ok=false when the
// hash is unknown or the entry has expired.
func (c *VerdictCache) Get(ctx context.Context, contentHash string) (model.SpamVerdict, bool, error) {
	var (
		raw       string
		createdAt time.Time
	)
	row := c.db.QueryRowContext(ctx,
		"SELECT verdict, created_at FROM verdicts WHERE content_hash = ?", contentHash)
	if err := row.Scan(&raw, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.SpamVerdict{}, false, nil
		}
		return model.SpamVerdict{}, false, fmt.Errorf("failed to query verdict cache: %w", err)
	}

	if time.Since(createdAt) > c.ttl {
		return model.SpamVerdict{}, false, nil
	}

	var verdict model.SpamVerdict
	if err := json.Unmarshal([]byte(raw), &verdict); err != nil {
		return model.SpamVerdict{}, false, fmt.Errorf("failed to decode cached verdict: %w", err)
	}
	return verdict, true, nil
}

// Put stores or replaces the verdict for a content hash.
func (c *VerdictCache) Put(ctx context.Context, contentHash string, verdict model.SpamVerdict, modelVersion string) error {
	raw, err := json.Marshal(verdict)
	if err != nil {
		return fmt.Errorf("failed to encode verdict: %w", err)
	}

	_, err = c.db.ExecContext(ctx,
		`INSERT INTO verdicts (content_hash, verdict, model_version, created_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(content_hash) DO UPDATE SET
		   verdict = excluded.verdict,
		   model_version = excluded.model_version,
		   created_at = excluded.created_at`,
		contentHash, string(raw), modelVersion, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to store verdict: %w", err)
	}
	return nil
}

// Prune removes expired entries.
func (c *VerdictCache) Prune(ctx context.Context) (int64, error) {
	res, err := c.db.ExecContext(ctx,
		"DELETE FROM verdicts WHERE created_at < ?", time.Now().UTC().Add(-c.ttl))
	if err != nil {
		return 0, fmt.Errorf("failed to prune verdict cache: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
