// Package store handles SQLite persistence for characters, kills, trainers,
// lastys, pets, scanned files, merge snapshots and the optional full-text
// line index.
package store

import (
	"database/sql"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Store wraps SQLite access for aggregated log data.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// The scanner commits per character concurrently; a single connection
	// keeps modernc's file locking out of the picture.
	db.SetMaxOpenConns(1)
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS characters (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			profession TEXT NOT NULL DEFAULT 'Unknown',
			logins INTEGER NOT NULL DEFAULT 0,
			departs INTEGER NOT NULL DEFAULT 0,
			deaths INTEGER NOT NULL DEFAULT 0,
			esteem INTEGER NOT NULL DEFAULT 0,
			coins_picked_up INTEGER NOT NULL DEFAULT 0,
			chest_coins INTEGER NOT NULL DEFAULT 0,
			bounty_coins INTEGER NOT NULL DEFAULT 0,
			casino_won INTEGER NOT NULL DEFAULT 0,
			casino_lost INTEGER NOT NULL DEFAULT 0,
			fur_coins INTEGER NOT NULL DEFAULT 0,
			mandible_coins INTEGER NOT NULL DEFAULT 0,
			blood_coins INTEGER NOT NULL DEFAULT 0,
			fur_worth INTEGER NOT NULL DEFAULT 0,
			mandible_worth INTEGER NOT NULL DEFAULT 0,
			blood_worth INTEGER NOT NULL DEFAULT 0,
			bells_used INTEGER NOT NULL DEFAULT 0,
			bells_broken INTEGER NOT NULL DEFAULT 0,
			chains_used INTEGER NOT NULL DEFAULT 0,
			chains_broken INTEGER NOT NULL DEFAULT 0,
			shieldstones_used INTEGER NOT NULL DEFAULT 0,
			shieldstones_broken INTEGER NOT NULL DEFAULT 0,
			ethereal_portals INTEGER NOT NULL DEFAULT 0,
			portal_stones_broken INTEGER NOT NULL DEFAULT 0,
			good_karma INTEGER NOT NULL DEFAULT 0,
			bad_karma INTEGER NOT NULL DEFAULT 0,
			untrainings INTEGER NOT NULL DEFAULT 0,
			coin_level INTEGER NOT NULL DEFAULT 0,
			start_date TEXT NOT NULL DEFAULT '',
			merged_into INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE TABLE IF NOT EXISTS kills (
			id INTEGER PRIMARY KEY,
			character_id INTEGER NOT NULL,
			creature_name TEXT NOT NULL,
			killed INTEGER NOT NULL DEFAULT 0,
			slaughtered INTEGER NOT NULL DEFAULT 0,
			vanquished INTEGER NOT NULL DEFAULT 0,
			dispatched INTEGER NOT NULL DEFAULT 0,
			assisted_kill INTEGER NOT NULL DEFAULT 0,
			assisted_slaughter INTEGER NOT NULL DEFAULT 0,
			assisted_vanquish INTEGER NOT NULL DEFAULT 0,
			assisted_dispatch INTEGER NOT NULL DEFAULT 0,
			killed_by INTEGER NOT NULL DEFAULT 0,
			date_first TEXT NOT NULL DEFAULT '',
			date_last TEXT NOT NULL DEFAULT '',
			date_last_killed TEXT NOT NULL DEFAULT '',
			date_last_slaughtered TEXT NOT NULL DEFAULT '',
			date_last_vanquished TEXT NOT NULL DEFAULT '',
			date_last_dispatched TEXT NOT NULL DEFAULT '',
			creature_value INTEGER NOT NULL DEFAULT 0,
			UNIQUE (character_id, creature_name)
		);`,
		`CREATE TABLE IF NOT EXISTS trainers (
			id INTEGER PRIMARY KEY,
			character_id INTEGER NOT NULL,
			trainer_name TEXT NOT NULL,
			ranks INTEGER NOT NULL DEFAULT 0,
			modified_ranks INTEGER NOT NULL DEFAULT 0,
			apply_learning_ranks INTEGER NOT NULL DEFAULT 0,
			apply_learning_unknown_count INTEGER NOT NULL DEFAULT 0,
			rank_mode TEXT NOT NULL DEFAULT 'modifier',
			override_date TEXT NOT NULL DEFAULT '',
			date_of_last_rank TEXT NOT NULL DEFAULT '',
			UNIQUE (character_id, trainer_name)
		);`,
		`CREATE TABLE IF NOT EXISTS lastys (
			id INTEGER PRIMARY KEY,
			character_id INTEGER NOT NULL,
			creature_name TEXT NOT NULL,
			lasty_type TEXT NOT NULL,
			finished INTEGER NOT NULL DEFAULT 0,
			message_count INTEGER NOT NULL DEFAULT 0,
			first_seen_date TEXT NOT NULL DEFAULT '',
			last_seen_date TEXT NOT NULL DEFAULT '',
			completed_date TEXT NOT NULL DEFAULT '',
			abandoned_date TEXT NOT NULL DEFAULT '',
			UNIQUE (character_id, creature_name, lasty_type)
		);`,
		`CREATE TABLE IF NOT EXISTS pets (
			id INTEGER PRIMARY KEY,
			character_id INTEGER NOT NULL,
			pet_name TEXT NOT NULL,
			creature_name TEXT NOT NULL,
			UNIQUE (character_id, pet_name)
		);`,
		`CREATE TABLE IF NOT EXISTS scanned_files (
			id INTEGER PRIMARY KEY,
			character_id INTEGER NOT NULL,
			path TEXT NOT NULL,
			fingerprint TEXT NOT NULL UNIQUE,
			scanned_at TEXT NOT NULL,
			lines INTEGER NOT NULL DEFAULT 0,
			events INTEGER NOT NULL DEFAULT 0,
			contribution TEXT NOT NULL DEFAULT '{}'
		);`,
		`CREATE TABLE IF NOT EXISTS merge_snapshots (
			id INTEGER PRIMARY KEY,
			source_id INTEGER NOT NULL UNIQUE,
			target_id INTEGER NOT NULL,
			merged_at TEXT NOT NULL,
			stale INTEGER NOT NULL DEFAULT 0,
			snapshot TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_kills_character ON kills(character_id);`,
		`CREATE INDEX IF NOT EXISTS idx_trainers_character ON trainers(character_id);`,
		`CREATE INDEX IF NOT EXISTS idx_lastys_character ON lastys(character_id);`,
		`CREATE INDEX IF NOT EXISTS idx_scanned_files_path ON scanned_files(path);`,
		`CREATE VIRTUAL TABLE IF NOT EXISTS log_lines USING fts5(
			content,
			character_id UNINDEXED,
			line_date UNINDEXED,
			fingerprint UNINDEXED
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
