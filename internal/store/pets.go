package store

import (
	"context"

	"github.com/pyrrhio/annalist/internal/model"
)

// ListPets returns a character's pets ordered by name.
func (s *Store) ListPets(ctx context.Context, charID int64) ([]*model.Pet, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT
		id, character_id, pet_name, creature_name
	FROM pets WHERE character_id = ? ORDER BY pet_name`, charID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []*model.Pet
	for rows.Next() {
		var p model.Pet
		if err := rows.Scan(&p.ID, &p.CharacterID, &p.PetName, &p.CreatureName); err != nil {
			return nil, err
		}
		result = append(result, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
