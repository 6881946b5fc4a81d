package store

import (
	"context"

	"github.com/pyrrhio/annalist/internal/model"
)

// ListLastys returns a character's creature studies ordered by creature
// name then study type.
func (s *Store) ListLastys(ctx context.Context, charID int64) ([]*model.Lasty, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT
		id, character_id, creature_name, lasty_type,
		finished, message_count,
		first_seen_date, last_seen_date, completed_date, abandoned_date
	FROM lastys WHERE character_id = ?
	ORDER BY creature_name, lasty_type`, charID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []*model.Lasty
	for rows.Next() {
		var l model.Lasty
		var typ string
		if err := rows.Scan(
			&l.ID, &l.CharacterID, &l.CreatureName, &typ,
			&l.Finished, &l.MessageCount,
			&l.FirstSeenDate, &l.LastSeenDate, &l.CompletedDate, &l.AbandonedDate,
		); err != nil {
			return nil, err
		}
		l.LastyType = model.LastyType(typ)
		result = append(result, &l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
