// Package sqlite provides SQLite-based persistent storage for the
// rewards engine. Uses WAL mode for concurrent reads and crash-safe
// writes. Every mutating operation on an aggregate is a single
// conditional statement (or one transaction), so two concurrent
// requests for the same user cannot both observe the old state and
// both apply the same transition.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver (no CGO required)
)

// DB wraps a SQLite connection with WAL mode and migrations.
type DB struct {
	db *sql.DB
}

// Open creates or opens the SQLite database at dir/rewards.db.
// Enables WAL mode, foreign keys, and 5-second busy timeout.
func Open(dir string) (*DB, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	dbPath := filepath.Join(dir, "rewards.db")
	dsn := dbPath + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	// Connection pool settings for SQLite
	db.SetMaxOpenConns(1) // SQLite is single-writer
	db.SetMaxIdleConns(1)

	d := &DB{db: db}
	if err := d.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return d, nil
}

// Close cleanly shuts down the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// Ping checks database connectivity.
func (d *DB) Ping() error {
	return d.db.Ping()
}

// migrate runs idempotent schema migrations.
func (d *DB) migrate() error {
	migrations := []string{
		// Subscription accounts. Promo fields are set by promo-code
		// redemption and ignored past expiry, never cleared.
		`CREATE TABLE IF NOT EXISTS accounts (
			user_id             TEXT PRIMARY KEY,
			base_tier           INTEGER NOT NULL DEFAULT 1,
			promo_tier          INTEGER NOT NULL DEFAULT 0,
			promo_expires_at    INTEGER,
			welcome_bonus_given BOOLEAN DEFAULT 0,
			created_at          INTEGER NOT NULL
		)`,

		// Promo codes and their per-user redemptions
		`CREATE TABLE IF NOT EXISTS promo_codes (
			code          TEXT PRIMARY KEY,
			tier          INTEGER NOT NULL,
			duration_days INTEGER NOT NULL,
			max_uses      INTEGER NOT NULL DEFAULT 0,
			uses          INTEGER NOT NULL DEFAULT 0,
			expires_at    INTEGER
		)`,
		`CREATE TABLE IF NOT EXISTS promo_redemptions (
			code        TEXT NOT NULL,
			user_id     TEXT NOT NULL,
			redeemed_at INTEGER NOT NULL,
			PRIMARY KEY (code, user_id)
		)`,

		// Power-up credit ledger, one row per user
		`CREATE TABLE IF NOT EXISTS power_up_ledgers (
			user_id   TEXT PRIMARY KEY,
			allowance INTEGER NOT NULL DEFAULT 0,
			used      INTEGER NOT NULL DEFAULT 0,
			reset_at  INTEGER
		)`,

		// Per-conversation activations. Presence means "already
		// charged" — created once, never removed.
		`CREATE TABLE IF NOT EXISTS conversation_power_ups (
			conversation_id TEXT NOT NULL,
			kind            TEXT NOT NULL,
			user_id         TEXT NOT NULL,
			created_at      INTEGER NOT NULL,
			PRIMARY KEY (conversation_id, kind)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_activations_user ON conversation_power_ups(user_id)`,

		// Streak state, one row per user. last_check_in is a UTC
		// day key ("YYYY-MM-DD") so day comparison is exact.
		`CREATE TABLE IF NOT EXISTS streaks (
			user_id         TEXT PRIMARY KEY,
			current_streak  INTEGER NOT NULL DEFAULT 0,
			longest_streak  INTEGER NOT NULL DEFAULT 0,
			last_check_in   TEXT NOT NULL DEFAULT '',
			total_check_ins INTEGER NOT NULL DEFAULT 0,
			points          INTEGER NOT NULL DEFAULT 0,
			freezes         INTEGER NOT NULL DEFAULT 0
		)`,

		// Referral funnel, one row per generated code
		`CREATE TABLE IF NOT EXISTS referrals (
			code                TEXT PRIMARY KEY,
			referrer_id         TEXT NOT NULL,
			invited_user_id     TEXT,
			status              TEXT NOT NULL DEFAULT 'pending',
			signup_reward_given BOOLEAN DEFAULT 0,
			hire_reward_given   BOOLEAN DEFAULT 0,
			created_at          INTEGER NOT NULL,
			signed_up_at        INTEGER,
			hired_at            INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_referrals_referrer ON referrals(referrer_id)`,
		`CREATE INDEX IF NOT EXISTS idx_referrals_invited ON referrals(invited_user_id)`,

		// Daily spin budgets, one row per user per game
		`CREATE TABLE IF NOT EXISTS spin_states (
			user_id       TEXT NOT NULL,
			game          TEXT NOT NULL,
			spins_used    INTEGER NOT NULL DEFAULT 0,
			spins_total   INTEGER NOT NULL DEFAULT 0,
			last_reset_at INTEGER NOT NULL,
			session_score INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (user_id, game)
		)`,

		// Daily challenges, one row per user per day
		`CREATE TABLE IF NOT EXISTS challenges (
			user_id        TEXT NOT NULL,
			day            TEXT NOT NULL,
			action_kind    TEXT NOT NULL,
			target         INTEGER NOT NULL,
			progress       INTEGER NOT NULL DEFAULT 0,
			completed      BOOLEAN DEFAULT 0,
			reward_credits INTEGER NOT NULL DEFAULT 0,
			created_at     INTEGER NOT NULL,
			PRIMARY KEY (user_id, day)
		)`,

		// Lifetime action counters (hire counts, challenge sources)
		`CREATE TABLE IF NOT EXISTS action_counts (
			user_id TEXT NOT NULL,
			kind    TEXT NOT NULL,
			count   INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (user_id, kind)
		)`,

		// Notification log, consumed by the delivery sink
		`CREATE TABLE IF NOT EXISTS notifications (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id    TEXT NOT NULL,
			type       TEXT NOT NULL,
			title      TEXT NOT NULL,
			body       TEXT NOT NULL,
			link       TEXT NOT NULL DEFAULT '',
			created_at INTEGER NOT NULL,
			shown      BOOLEAN DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_notif_user ON notifications(user_id, created_at)`,
	}

	for _, m := range migrations {
		if _, err := d.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}
	return nil
}

// ─── Helpers ────────────────────────────────────────────────────────────────

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// nullTime converts a nullable unix-seconds column to a time.Time,
// zero if NULL.
func nullTime(v sql.NullInt64) time.Time {
	if !v.Valid {
		return time.Time{}
	}
	return time.Unix(v.Int64, 0).UTC()
}
