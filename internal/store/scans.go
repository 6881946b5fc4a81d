package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pyrrhio/annalist/internal/model"
)

// IsPathScanned reports whether a file path has already been processed.
// Fast pre-check; the content fingerprint is authoritative.
func (s *Store) IsPathScanned(ctx context.Context, path string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM scanned_files WHERE path = ?`, path).Scan(&n)
	return n > 0, err
}

// IsFingerprintScanned reports whether identical content was already
// processed, possibly under another path.
func (s *Store) IsFingerprintScanned(ctx context.Context, fingerprint string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM scanned_files WHERE fingerprint = ?`, fingerprint).Scan(&n)
	return n > 0, err
}

// GetScannedFile loads the scan record for a fingerprint along with the
// contribution delta it applied.
func (s *Store) GetScannedFile(ctx context.Context, fingerprint string) (*model.ScannedFile, *model.Delta, error) {
	var sf model.ScannedFile
	var contribution string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, character_id, path, fingerprint, scanned_at, lines, events, contribution
		 FROM scanned_files WHERE fingerprint = ?`, fingerprint).
		Scan(&sf.ID, &sf.CharacterID, &sf.Path, &sf.Fingerprint, &sf.ScannedAt, &sf.Lines, &sf.Events, &contribution)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	var d model.Delta
	if err := json.Unmarshal([]byte(contribution), &d); err != nil {
		return nil, nil, fmt.Errorf("store: decode contribution for %s: %w", sf.Path, err)
	}
	return &sf, &d, nil
}

// MarkScanned records a processed file with the delta it contributed, so a
// force re-scan can retract exactly that contribution later.
func (s *Store) MarkScanned(ctx context.Context, sf *model.ScannedFile, d *model.Delta) error {
	contribution, err := json.Marshal(d)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO scanned_files (character_id, path, fingerprint, scanned_at, lines, events, contribution)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (fingerprint) DO UPDATE SET
			character_id = excluded.character_id,
			path = excluded.path,
			scanned_at = excluded.scanned_at,
			lines = excluded.lines,
			events = excluded.events,
			contribution = excluded.contribution`,
		sf.CharacterID, sf.Path, sf.Fingerprint, sf.ScannedAt, sf.Lines, sf.Events, string(contribution))
	return err
}

// ScanCommit bundles everything one processed log file writes: an optional
// retraction of the prior contribution recorded under the same fingerprint,
// the new contribution, the scan record itself, and any lines bound for the
// full-text index.
type ScanCommit struct {
	File  *model.ScannedFile
	Delta *model.Delta

	// PrevCharacterID and PrevDelta describe the contribution to retract
	// before applying, when forcing re-processing of content already on
	// record. A nil PrevDelta means nothing to retract.
	PrevCharacterID int64
	PrevDelta       *model.Delta

	Lines []IndexedLine
}

// CommitScan applies a ScanCommit in a single transaction. Counters, the
// scan record and indexed lines land together or not at all, so an
// interrupted scan can never leave a contribution applied without the
// fingerprint that guards against re-applying it.
func (s *Store) CommitScan(ctx context.Context, c *ScanCommit) error {
	contribution, err := json.Marshal(c.Delta)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	if c.PrevDelta != nil {
		if err = applyDeltaTx(ctx, tx, c.PrevCharacterID, c.PrevDelta.Neg()); err != nil {
			return err
		}
		if err = pruneEmptyRows(ctx, tx, c.PrevCharacterID); err != nil {
			return err
		}
		if _, err = tx.ExecContext(ctx,
			`DELETE FROM scanned_files WHERE fingerprint = ?`, c.File.Fingerprint); err != nil {
			return err
		}
		if _, err = tx.ExecContext(ctx,
			`DELETE FROM log_lines WHERE fingerprint = ?`, c.File.Fingerprint); err != nil {
			return err
		}
	}

	if err = applyDeltaTx(ctx, tx, c.File.CharacterID, c.Delta); err != nil {
		return err
	}
	if err = markSnapshotsStale(ctx, tx, c.File.CharacterID); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO scanned_files (character_id, path, fingerprint, scanned_at, lines, events, contribution)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.File.CharacterID, c.File.Path, c.File.Fingerprint, c.File.ScannedAt,
		c.File.Lines, c.File.Events, string(contribution)); err != nil {
		return err
	}
	if err = indexLinesOn(ctx, tx, c.File.CharacterID, c.File.Fingerprint, c.Lines); err != nil {
		return err
	}
	err = tx.Commit()
	return err
}

// DeleteScannedFile drops the scan record and any indexed lines for a
// fingerprint. Called during force re-processing after retraction.
func (s *Store) DeleteScannedFile(ctx context.Context, fingerprint string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM scanned_files WHERE fingerprint = ?`, fingerprint); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM log_lines WHERE fingerprint = ?`, fingerprint)
	return err
}

// ListScannedFiles returns scan records for one character, newest first.
func (s *Store) ListScannedFiles(ctx context.Context, charID int64) ([]*model.ScannedFile, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, character_id, path, fingerprint, scanned_at, lines, events
		 FROM scanned_files WHERE character_id = ? ORDER BY scanned_at DESC`, charID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []*model.ScannedFile
	for rows.Next() {
		var sf model.ScannedFile
		if err := rows.Scan(&sf.ID, &sf.CharacterID, &sf.Path, &sf.Fingerprint,
			&sf.ScannedAt, &sf.Lines, &sf.Events); err != nil {
			return nil, err
		}
		result = append(result, &sf)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
