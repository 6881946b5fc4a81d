package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/pyrrhio/annalist/internal/model"
)

// ListKills returns a character's kill records ordered by creature name.
func (s *Store) ListKills(ctx context.Context, charID int64) ([]*model.Kill, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT
		id, character_id, creature_name,
		killed, slaughtered, vanquished, dispatched,
		assisted_kill, assisted_slaughter, assisted_vanquish, assisted_dispatch,
		killed_by,
		date_first, date_last,
		date_last_killed, date_last_slaughtered, date_last_vanquished, date_last_dispatched,
		creature_value
	FROM kills WHERE character_id = ? ORDER BY creature_name`, charID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []*model.Kill
	for rows.Next() {
		var k model.Kill
		if err := rows.Scan(
			&k.ID, &k.CharacterID, &k.CreatureName,
			&k.Killed, &k.Slaughtered, &k.Vanquished, &k.Dispatched,
			&k.AssistedKill, &k.AssistedSlaughter, &k.AssistedVanquish, &k.AssistedDispatch,
			&k.KilledBy,
			&k.DateFirst, &k.DateLast,
			&k.DateLastKilled, &k.DateLastSlaughtered, &k.DateLastVanquished, &k.DateLastDispatched,
			&k.CreatureValue,
		); err != nil {
			return nil, err
		}
		result = append(result, &k)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// HighestKill returns the creature whose solo kills have earned a character
// the most, scored as total solo kills times creature value. ok is false
// when no kill of a valued creature is on record.
func (s *Store) HighestKill(ctx context.Context, charID int64) (creature string, score int64, ok bool, err error) {
	err = s.db.QueryRowContext(ctx, `SELECT creature_name,
		(killed + slaughtered + vanquished + dispatched) * creature_value AS score
	FROM kills WHERE character_id = ? AND creature_value > 0
	ORDER BY score DESC LIMIT 1`, charID).Scan(&creature, &score)
	if errors.Is(err, sql.ErrNoRows) {
		return "", 0, false, nil
	}
	if err != nil {
		return "", 0, false, err
	}
	return creature, score, true, nil
}

// Nemesis returns the creature that has killed a character the most. ok is
// false when nothing has killed the character yet.
func (s *Store) Nemesis(ctx context.Context, charID int64) (creature string, count int64, ok bool, err error) {
	err = s.db.QueryRowContext(ctx, `SELECT creature_name, killed_by
	FROM kills WHERE character_id = ? AND killed_by > 0
	ORDER BY killed_by DESC LIMIT 1`, charID).Scan(&creature, &count)
	if errors.Is(err, sql.ErrNoRows) {
		return "", 0, false, nil
	}
	if err != nil {
		return "", 0, false, err
	}
	return creature, count, true, nil
}
