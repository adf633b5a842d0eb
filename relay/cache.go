package relay

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/yllada/mullvad-ping/common"
)

const cacheSchema = `
CREATE TABLE IF NOT EXISTS relays (
	position INTEGER PRIMARY KEY,
	hostname TEXT NOT NULL,
	data     TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);`

const fetchedAtKey = "fetched_at"

// Cache stores the most recently downloaded relay list in sqlite.
// Only the catalog is cached; probe results are never written.
type Cache struct {
	db  *sql.DB
	now func() time.Time
}

// OpenCache opens (or creates) the cache database at path.
func OpenCache(path string) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open relay cache: %w", err)
	}
	// a single writer keeps sqlite from returning SQLITE_BUSY
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(cacheSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize relay cache: %w", err)
	}

	return &Cache{db: db, now: time.Now}, nil
}

// OpenDefaultCache opens the cache in the user cache directory.
func OpenDefaultCache() (*Cache, error) {
	dir, err := common.GetCacheDir()
	if err != nil {
		return nil, err
	}
	return OpenCache(filepath.Join(dir, common.CacheFileName))
}

// Close closes the database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Save replaces the cached catalog with servers.
func (c *Cache) Save(ctx context.Context, servers []Server) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM relays`); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO relays (position, hostname, data) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, s := range servers {
		data, err := json.Marshal(s)
		if err != nil {
			return fmt.Errorf("failed to encode relay %s: %w", s.Hostname, err)
		}
		if _, err := stmt.ExecContext(ctx, i, s.Hostname, string(data)); err != nil {
			return err
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO meta (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		fetchedAtKey, c.now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return err
	}

	return tx.Commit()
}

// Load returns the cached catalog in its original order and whether it is
// younger than maxAge. An empty cache returns (nil, false, nil).
func (c *Cache) Load(ctx context.Context, maxAge time.Duration) ([]Server, bool, error) {
	var stamp string
	err := c.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = ?`, fetchedAtKey).Scan(&stamp)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	fetchedAt, err := time.Parse(time.RFC3339Nano, stamp)
	if err != nil {
		return nil, false, fmt.Errorf("corrupt cache timestamp %q: %w", stamp, err)
	}

	rows, err := c.db.QueryContext(ctx, `SELECT data FROM relays ORDER BY position`)
	if err != nil {
		return nil, false, err
	}
	defer rows.Close()

	var servers []Server
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, false, err
		}
		var s Server
		if err := json.Unmarshal([]byte(data), &s); err != nil {
			return nil, false, fmt.Errorf("corrupt cache entry: %w", err)
		}
		servers = append(servers, s)
	}
	if err := rows.Err(); err != nil {
		return nil, false, err
	}

	fresh := len(servers) > 0 && c.now().Sub(fetchedAt) <= maxAge
	return servers, fresh, nil
}
