// Package cache is the device agent's durable local store. It survives
// restarts and offline periods; the sync loop reconciles it with the server
// whenever connectivity allows.
package cache

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"ptc_mining/internal/domain"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Cache wraps a SQLite connection holding the device snapshot and identity.
type Cache struct {
	conn *sql.DB
	path string
}

// Open creates or opens the cache database at the given path.
func Open(dbPath string) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	conn, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}

	conn.SetMaxOpenConns(1) // SQLite is single-writer

	c := &Cache{conn: conn, path: dbPath}
	if err := c.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate cache: %w", err)
	}

	return c, nil
}

func (c *Cache) migrate() error {
	_, err := c.conn.Exec(`
		CREATE TABLE IF NOT EXISTS snapshot (
			user_id           INTEGER PRIMARY KEY,
			mining_start_time INTEGER NOT NULL DEFAULT 0,
			mining_end_time   INTEGER NOT NULL DEFAULT 0,
			ad_buff_expiry    INTEGER NOT NULL DEFAULT 0,
			total_coins       REAL    NOT NULL DEFAULT 0,
			synced_at         INTEGER NOT NULL DEFAULT 0
		);

		CREATE TABLE IF NOT EXISTS device (
			id        INTEGER PRIMARY KEY CHECK (id = 1),
			device_id TEXT NOT NULL
		);
	`)
	return err
}

// DeviceID returns the stable device identifier, generating one on first use.
func (c *Cache) DeviceID() (string, error) {
	var id string
	err := c.conn.QueryRow(`SELECT device_id FROM device WHERE id = 1`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		id = uuid.NewString()
		if _, err := c.conn.Exec(`INSERT INTO device (id, device_id) VALUES (1, ?)`, id); err != nil {
			return "", fmt.Errorf("store device id: %w", err)
		}
		return id, nil
	}
	if err != nil {
		return "", fmt.Errorf("load device id: %w", err)
	}
	return id, nil
}

// Load returns the stored snapshot for the user. A user with no row yet gets
// a zero snapshot, not an error.
func (c *Cache) Load(userID int64) (domain.CacheSnapshot, error) {
	snap := domain.CacheSnapshot{UserID: userID}
	err := c.conn.QueryRow(`
		SELECT mining_start_time, mining_end_time, ad_buff_expiry, total_coins, synced_at
		FROM snapshot WHERE user_id = ?`, userID).
		Scan(&snap.MiningStartTime, &snap.MiningEndTime, &snap.AdBuffExpiry, &snap.TotalCoins, &snap.SyncedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return snap, nil
	}
	if err != nil {
		return snap, fmt.Errorf("load snapshot: %w", err)
	}
	return snap, nil
}

// Save merges the given snapshot into the stored one and persists the
// result. Merging here too means a stale writer can never roll the cache
// back.
func (c *Cache) Save(snap domain.CacheSnapshot) (domain.CacheSnapshot, error) {
	current, err := c.Load(snap.UserID)
	if err != nil {
		return snap, err
	}
	merged := domain.MergeSnapshots(current, snap)

	_, err = c.conn.Exec(`
		INSERT INTO snapshot (user_id, mining_start_time, mining_end_time, ad_buff_expiry, total_coins, synced_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			mining_start_time = excluded.mining_start_time,
			mining_end_time   = excluded.mining_end_time,
			ad_buff_expiry    = excluded.ad_buff_expiry,
			total_coins       = excluded.total_coins,
			synced_at         = excluded.synced_at`,
		merged.UserID, merged.MiningStartTime, merged.MiningEndTime,
		merged.AdBuffExpiry, merged.TotalCoins, merged.SyncedAt)
	if err != nil {
		return merged, fmt.Errorf("save snapshot: %w", err)
	}
	return merged, nil
}

// Overwrite replaces the stored snapshot without merging. Used after a
// server round-trip whose result is already the merged truth, including
// cleared session fields after a completion.
func (c *Cache) Overwrite(snap domain.CacheSnapshot) error {
	_, err := c.conn.Exec(`
		INSERT INTO snapshot (user_id, mining_start_time, mining_end_time, ad_buff_expiry, total_coins, synced_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			mining_start_time = excluded.mining_start_time,
			mining_end_time   = excluded.mining_end_time,
			ad_buff_expiry    = excluded.ad_buff_expiry,
			total_coins       = excluded.total_coins,
			synced_at         = excluded.synced_at`,
		snap.UserID, snap.MiningStartTime, snap.MiningEndTime,
		snap.AdBuffExpiry, snap.TotalCoins, snap.SyncedAt)
	if err != nil {
		return fmt.Errorf("overwrite snapshot: %w", err)
	}
	return nil
}

// Path returns the database file path.
func (c *Cache) Path() string {
	return c.path
}

// Close closes the database connection.
func (c *Cache) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
