// Package persistence stores game sessions in SQLite and moves them in and
// out of portable files.
package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/pigeon-pope/internal/engine"
)

// ErrNoSave is returned by Load when the slot is empty.
var ErrNoSave = errors.New("no save in slot")

// DB wraps a SQLite connection for session persistence.
type DB struct {
	conn *sqlx.DB
}

// SlotInfo describes a stored save without decoding it.
type SlotInfo struct {
	Slot    string    `db:"slot" json:"slot"`
	Version int       `db:"version" json:"version"`
	Tick    uint64    `db:"tick" json:"tick"`
	SavedAt time.Time `db:"saved_at" json:"saved_at"`
	Size    int       `db:"size" json:"size"`
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	conn.SetMaxOpenConns(1)

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS save_slots (
		slot TEXT PRIMARY KEY,
		version INTEGER NOT NULL,
		tick INTEGER NOT NULL,
		saved_at DATETIME NOT NULL,
		payload BLOB NOT NULL
	);

	CREATE TABLE IF NOT EXISTS chronicle (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		slot TEXT NOT NULL,
		tick INTEGER NOT NULL,
		description TEXT NOT NULL,
		category TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_chronicle_slot ON chronicle(slot, tick);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// Save writes a session to a slot, replacing whatever was there. The
// chronicle is mirrored into its own table so it can be queried without
// decoding the payload.
func (db *DB) Save(ctx context.Context, slot string, data SaveData) error {
	payload, err := encode(data)
	if err != nil {
		return err
	}

	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"INSERT OR REPLACE INTO save_slots (slot, version, tick, saved_at, payload) VALUES (?, ?, ?, ?, ?)",
		slot, data.Version, data.Tick, time.Now().UTC(), payload,
	); err != nil {
		return fmt.Errorf("write slot: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM chronicle WHERE slot = ?", slot); err != nil {
		return fmt.Errorf("clear chronicle: %w", err)
	}
	stmt, err := tx.PreparexContext(ctx, "INSERT INTO chronicle (slot, tick, description, category) VALUES (?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, e := range data.Chronicle {
		if _, err := stmt.ExecContext(ctx, slot, e.Tick, e.Description, e.Category); err != nil {
			return fmt.Errorf("write chronicle: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT OR REPLACE INTO meta (key, value) VALUES ('last_slot', ?), ('last_tick', ?)",
		slot, strconv.FormatUint(data.Tick, 10),
	); err != nil {
		return fmt.Errorf("write meta: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	slog.Debug("session saved", "slot", slot, "tick", data.Tick, "bytes", len(payload))
	return nil
}

// Load reads the session in a slot. An empty slot yields ErrNoSave and a save
// from another version yields ErrSaveVersionMismatch.
func (db *DB) Load(ctx context.Context, slot string) (SaveData, error) {
	var payload []byte
	err := db.conn.GetContext(ctx, &payload, "SELECT payload FROM save_slots WHERE slot = ?", slot)
	if errors.Is(err, sql.ErrNoRows) {
		return SaveData{}, ErrNoSave
	}
	if err != nil {
		return SaveData{}, fmt.Errorf("read slot: %w", err)
	}
	return decode(payload)
}

// Slots lists stored saves, most recent first.
func (db *DB) Slots(ctx context.Context) ([]SlotInfo, error) {
	var slots []SlotInfo
	err := db.conn.SelectContext(ctx, &slots,
		"SELECT slot, version, tick, saved_at, length(payload) AS size FROM save_slots ORDER BY saved_at DESC")
	return slots, err
}

// Delete removes a slot and its chronicle.
func (db *DB) Delete(ctx context.Context, slot string) error {
	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, "DELETE FROM save_slots WHERE slot = ?", slot); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM chronicle WHERE slot = ?", slot); err != nil {
		return err
	}
	return tx.Commit()
}

// RecentChronicle returns the newest limit entries of a slot's chronicle,
// newest first.
func (db *DB) RecentChronicle(ctx context.Context, slot string, limit int) ([]engine.Event, error) {
	var events []engine.Event
	err := db.conn.SelectContext(ctx, &events,
		"SELECT tick, description, category FROM chronicle WHERE slot = ? ORDER BY id DESC LIMIT ?",
		slot, limit,
	)
	return events, err
}

// SaveMeta stores a key-value pair.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec("INSERT OR REPLACE INTO meta (key, value) VALUES (?, ?)", key, value)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM meta WHERE key = ?", key)
	return value, err
}
