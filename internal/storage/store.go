// Package storage provides SQLite-backed persistence for channel snapshots,
// the append-only event log, and the compliance timestamp.
//
// The engine requires single-writer semantics per channel: the
// record/check/transition sequence must be atomic with respect to
// concurrent events on the same channel. SaveChannel enforces that here
// with an optimistic version check instead of a lock — a stale snapshot
// fails with ErrVersionConflict and the caller reloads and replays.
package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/veilborne/strata/internal/progression"
	"github.com/veilborne/strata/internal/tier"
)

// Store provides SQLite-backed persistence for the escalation engine.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if err := Migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// New returns a Store bound to an existing database handle.
func New(db *sql.DB) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// SeedChannels inserts a zero-state row for every configured channel ID
// that does not already exist. Existing rows are left untouched so re-init
// never resets progression.
func (s *Store) SeedChannels(ids []string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	for _, id := range ids {
		snapshot, err := json.Marshal(progression.Channel{ID: id})
		if err != nil {
			return fmt.Errorf("seed %s: marshal: %w", id, err)
		}
		_, err = s.db.Exec(
			`INSERT OR IGNORE INTO channels (id, snapshot, version, updated_at) VALUES (?, ?, 0, ?)`,
			id, string(snapshot), now,
		)
		if err != nil {
			return fmt.Errorf("seed %s: insert: %w", id, err)
		}
	}
	return nil
}

// Channel loads one snapshot and its current version for the save-time
// compare-and-swap.
func (s *Store) Channel(id string) (progression.Channel, int64, error) {
	var raw string
	var version int64
	err := s.db.QueryRow(`SELECT snapshot, version FROM channels WHERE id = ?`, id).
		Scan(&raw, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return progression.Channel{}, 0, fmt.Errorf("channel %q: %w", id, ErrChannelNotFound)
	}
	if err != nil {
		return progression.Channel{}, 0, fmt.Errorf("load channel %q: %w", id, err)
	}

	var c progression.Channel
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return progression.Channel{}, 0, fmt.Errorf("decode channel %q: %w", id, err)
	}
	return c, version, nil
}

// SaveChannel writes a new snapshot if the row still carries
// expectedVersion. A lost race returns ErrVersionConflict and writes
// nothing — the caller reloads the channel and replays its sequence.
func (s *Store) SaveChannel(c progression.Channel, expectedVersion int64) error {
	snapshot, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("save channel %q: marshal: %w", c.ID, err)
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	res, err := s.db.Exec(
		`UPDATE channels SET snapshot = ?, version = version + 1, updated_at = ? WHERE id = ? AND version = ?`,
		string(snapshot), now, c.ID, expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("save channel %q: update: %w", c.ID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("save channel %q: rows affected: %w", c.ID, err)
	}
	if affected == 0 {
		var exists int
		if err := s.db.QueryRow(`SELECT COUNT(*) FROM channels WHERE id = ?`, c.ID).Scan(&exists); err != nil {
			return fmt.Errorf("save channel %q: recheck: %w", c.ID, err)
		}
		if exists == 0 {
			return fmt.Errorf("channel %q: %w", c.ID, ErrChannelNotFound)
		}
		return fmt.Errorf("channel %q at version %d: %w", c.ID, expectedVersion, ErrVersionConflict)
	}
	return nil
}

// Channels loads every snapshot, giving the aggregate readers one
// consistent set to work from.
func (s *Store) Channels() ([]progression.Channel, error) {
	rows, err := s.db.Query(`SELECT snapshot FROM channels ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}
	defer rows.Close()

	var out []progression.Channel
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("list channels: scan: %w", err)
		}
		var c progression.Channel
		if err := json.Unmarshal([]byte(raw), &c); err != nil {
			return nil, fmt.Errorf("list channels: decode: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// LogEvent appends an immutable event row. audit marks events logged
// against a suspended channel: observed, but excluded from counters.
// Events are never edited or deleted; corrections are new events.
func (s *Store) LogEvent(ev progression.Event, audit bool) error {
	if ev.ID == "" {
		return ErrEventIDRequired
	}
	tags, err := json.Marshal(ev.ContextTags)
	if err != nil {
		return fmt.Errorf("log event %s: marshal tags: %w", ev.ID, err)
	}
	measurements, err := json.Marshal(ev.Measurements)
	if err != nil {
		return fmt.Errorf("log event %s: marshal measurements: %w", ev.ID, err)
	}

	auditFlag := 0
	if audit {
		auditFlag = 1
	}
	_, err = s.db.Exec(
		`INSERT INTO events (id, channel_id, at, classification, description, context_tags, measurements, audit)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.ID, ev.ChannelID, ev.Timestamp.UTC().Format(time.RFC3339Nano),
		string(ev.Classification), ev.Description, string(tags), string(measurements), auditFlag,
	)
	if err != nil {
		return fmt.Errorf("log event %s: insert: %w", ev.ID, err)
	}
	return nil
}

// Events returns the most recent events for a channel, newest first.
// limit <= 0 returns all of them.
func (s *Store) Events(channelID string, limit int) ([]progression.Event, error) {
	query := `SELECT id, channel_id, at, classification, description, context_tags, measurements
	          FROM events WHERE channel_id = ? ORDER BY at DESC`
	args := []any{channelID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list events for %q: %w", channelID, err)
	}
	defer rows.Close()

	var out []progression.Event
	for rows.Next() {
		var ev progression.Event
		var at string
		var description, tags, measurements sql.NullString
		if err := rows.Scan(&ev.ID, &ev.ChannelID, &at, &ev.Classification, &description, &tags, &measurements); err != nil {
			return nil, fmt.Errorf("list events for %q: scan: %w", channelID, err)
		}
		ev.Timestamp, err = time.Parse(time.RFC3339Nano, at)
		if err != nil {
			return nil, fmt.Errorf("list events for %q: parse time: %w", channelID, err)
		}
		ev.Description = description.String
		if tags.Valid && tags.String != "" && tags.String != "null" {
			if err := json.Unmarshal([]byte(tags.String), &ev.ContextTags); err != nil {
				return nil, fmt.Errorf("list events for %q: decode tags: %w", channelID, err)
			}
		}
		if measurements.Valid && measurements.String != "" && measurements.String != "null" {
			if err := json.Unmarshal([]byte(measurements.String), &ev.Measurements); err != nil {
				return nil, fmt.Errorf("list events for %q: decode measurements: %w", channelID, err)
			}
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

// Compliance loads the consequence tier state. A missing row reads as the
// zero state: a new user is compliant since account creation.
func (s *Store) Compliance() (tier.State, error) {
	var at sql.NullString
	err := s.db.QueryRow(`SELECT last_compliance_at FROM compliance WHERE id = 1`).Scan(&at)
	if errors.Is(err, sql.ErrNoRows) {
		return tier.State{}, nil
	}
	if err != nil {
		return tier.State{}, fmt.Errorf("load compliance: %w", err)
	}
	if !at.Valid || at.String == "" {
		return tier.State{}, nil
	}

	t, err := time.Parse(time.RFC3339Nano, at.String)
	if err != nil {
		return tier.State{}, fmt.Errorf("load compliance: parse time: %w", err)
	}
	return tier.State{LastComplianceAt: t}, nil
}

// RecordCompliance stamps the single compliance timestamp. Last-write-wins
// on the one scalar, which makes concurrent calls idempotent.
func (s *Store) RecordCompliance(now time.Time) error {
	_, err := s.db.Exec(
		`INSERT INTO compliance (id, last_compliance_at) VALUES (1, ?)
		 ON CONFLICT (id) DO UPDATE SET last_compliance_at = excluded.last_compliance_at`,
		now.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("record compliance: %w", err)
	}
	return nil
}

// SaveSummaryAverage records one composite average so the next summary can
// detect regression against it.
func (s *Store) SaveSummaryAverage(average float64, now time.Time) error {
	_, err := s.db.Exec(
		`INSERT INTO summaries (at, average) VALUES (?, ?)`,
		now.UTC().Format(time.RFC3339Nano), average,
	)
	if err != nil {
		return fmt.Errorf("save summary average: %w", err)
	}
	return nil
}

// PriorAverage returns the most recently recorded composite average, or -1
// when no prior period exists (the engine treats a negative prior as "no
// regression baseline").
func (s *Store) PriorAverage() (float64, error) {
	var avg float64
	err := s.db.QueryRow(`SELECT average FROM summaries ORDER BY id DESC LIMIT 1`).Scan(&avg)
	if errors.Is(err, sql.ErrNoRows) {
		return -1, nil
	}
	if err != nil {
		return -1, fmt.Errorf("load prior average: %w", err)
	}
	return avg, nil
}
