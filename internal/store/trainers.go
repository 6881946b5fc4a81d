package store

import (
	"context"
	"fmt"

	"github.com/pyrrhio/annalist/internal/model"
)

// ListTrainers returns a character's trainer records ordered by name.
func (s *Store) ListTrainers(ctx context.Context, charID int64) ([]*model.Trainer, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT
		id, character_id, trainer_name,
		ranks, modified_ranks, apply_learning_ranks, apply_learning_unknown_count,
		rank_mode, override_date, date_of_last_rank
	FROM trainers WHERE character_id = ? ORDER BY trainer_name`, charID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []*model.Trainer
	for rows.Next() {
		var t model.Trainer
		if err := rows.Scan(
			&t.ID, &t.CharacterID, &t.TrainerName,
			&t.Ranks, &t.ModifiedRanks, &t.ApplyLearningRanks, &t.ApplyLearningUnknownCount,
			&t.RankMode, &t.OverrideDate, &t.DateOfLastRank,
		); err != nil {
			return nil, err
		}
		result = append(result, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// SetTrainerAdjustment records a manual rank correction for one trainer.
// The adjustment lives next to, never inside, the log-derived count, so a
// re-scan cannot destroy it.
func (s *Store) SetTrainerAdjustment(ctx context.Context, charID int64, trainer string, modifiedRanks int64, mode, overrideDate string) error {
	switch mode {
	case model.RankModeModifier, model.RankModeOverride, model.RankModeOverrideUntilDate:
	default:
		return fmt.Errorf("store: unknown rank mode %q", mode)
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO trainers (
		character_id, trainer_name, modified_ranks, rank_mode, override_date)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT (character_id, trainer_name) DO UPDATE SET
		modified_ranks = excluded.modified_ranks,
		rank_mode = excluded.rank_mode,
		override_date = excluded.override_date`,
		charID, trainer, modifiedRanks, mode, overrideDate)
	return err
}
