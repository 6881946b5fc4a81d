package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/pyrrhio/annalist/internal/model"
)

// Merge validation errors.
var (
	ErrTargetMerged  = errors.New("store: target is itself merged into another character")
	ErrSelfMerge     = errors.New("store: cannot merge a character into itself")
	ErrAlreadyMerged = errors.New("store: source is already merged")
	ErrNotMerged     = errors.New("store: character is not merged")
)

// Merge folds each source character's stats into the target. The exact
// contribution is captured as a snapshot keyed by source id, the source is
// hidden rather than deleted, and Unmerge subtracts the snapshot to restore
// the pre-merge state.
func (s *Store) Merge(ctx context.Context, sourceIDs []int64, targetID int64) error {
	target, err := s.GetCharacter(ctx, targetID)
	if err != nil {
		return err
	}
	if target.MergedInto != 0 {
		return ErrTargetMerged
	}

	for _, sourceID := range sourceIDs {
		if sourceID == targetID {
			return ErrSelfMerge
		}
		source, err := s.GetCharacter(ctx, sourceID)
		if err != nil {
			return err
		}
		if source.MergedInto != 0 {
			return ErrAlreadyMerged
		}
		if err := s.mergeOne(ctx, source, targetID); err != nil {
			return err
		}
	}

	_, err = s.RecalcCoinLevel(ctx, targetID)
	return err
}

func (s *Store) mergeOne(ctx context.Context, source *model.Character, targetID int64) error {
	snap, err := s.snapshotDelta(ctx, source)
	if err != nil {
		return err
	}
	// Record only the pets the merge actually adds, so unmerge can remove
	// exactly those and leave the target's own pets alone.
	snap.Pets, err = s.newPetsFor(ctx, targetID, snap.Pets)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(snap)
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

	if err = applyDeltaTx(ctx, tx, targetID, snap); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO merge_snapshots (source_id, target_id, merged_at, snapshot)
		 VALUES (?, ?, ?, ?)`,
		source.ID, targetID, time.Now().UTC().Format("2006-01-02 15:04:05"), string(raw)); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx,
		`UPDATE characters SET merged_into = ? WHERE id = ?`, targetID, source.ID); err != nil {
		return err
	}
	err = tx.Commit()
	return err
}

// Unmerge subtracts the merge snapshot from the primary and restores the
// source to visible. The returned flag is true when scans touched the
// primary after the merge, meaning the subtraction may not be exact.
func (s *Store) Unmerge(ctx context.Context, sourceID int64) (stale bool, err error) {
	var targetID int64
	var staleInt int64
	var raw string
	err = s.db.QueryRowContext(ctx,
		`SELECT target_id, stale, snapshot FROM merge_snapshots WHERE source_id = ?`,
		sourceID).Scan(&targetID, &staleInt, &raw)
	if errors.Is(err, sql.ErrNoRows) {
		return false, ErrNotMerged
	}
	if err != nil {
		return false, err
	}
	var snap model.Delta
	if err = json.Unmarshal([]byte(raw), &snap); err != nil {
		return false, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	if err = applyDeltaTx(ctx, tx, targetID, snap.Neg()); err != nil {
		return false, err
	}
	if err = pruneEmptyRows(ctx, tx, targetID); err != nil {
		return false, err
	}
	for _, pet := range snap.Pets {
		if _, err = tx.ExecContext(ctx,
			`DELETE FROM pets WHERE character_id = ? AND pet_name = ?`,
			targetID, pet); err != nil {
			return false, err
		}
	}
	if _, err = tx.ExecContext(ctx,
		`DELETE FROM merge_snapshots WHERE source_id = ?`, sourceID); err != nil {
		return false, err
	}
	if _, err = tx.ExecContext(ctx,
		`UPDATE characters SET merged_into = 0 WHERE id = ?`, sourceID); err != nil {
		return false, err
	}
	if err = tx.Commit(); err != nil {
		return false, err
	}

	if _, err = s.RecalcCoinLevel(ctx, targetID); err != nil {
		return false, err
	}
	return staleInt != 0, nil
}

// snapshotDelta captures a character's full current state as a Delta.
func (s *Store) snapshotDelta(ctx context.Context, c *model.Character) (*model.Delta, error) {
	d := &model.Delta{
		Counters: model.CounterDelta{
			Logins:  c.Logins,
			Departs: c.Departs,
			Deaths:  c.Deaths,
			Esteem:  c.Esteem,

			CoinsPickedUp: c.CoinsPickedUp,
			ChestCoins:    c.ChestCoins,
			BountyCoins:   c.BountyCoins,
			CasinoWon:     c.CasinoWon,
			CasinoLost:    c.CasinoLost,
			FurCoins:      c.FurCoins,
			MandibleCoins: c.MandibleCoins,
			BloodCoins:    c.BloodCoins,
			FurWorth:      c.FurWorth,
			MandibleWorth: c.MandibleWorth,
			BloodWorth:    c.BloodWorth,

			BellsUsed:          c.BellsUsed,
			BellsBroken:        c.BellsBroken,
			ChainsUsed:         c.ChainsUsed,
			ChainsBroken:       c.ChainsBroken,
			ShieldstonesUsed:   c.ShieldstonesUsed,
			ShieldstonesBroken: c.ShieldstonesBroken,
			EtherealPortals:    c.EtherealPortals,
			PortalStonesBroken: c.PortalStonesBroken,

			GoodKarma:   c.GoodKarma,
			BadKarma:    c.BadKarma,
			Untrainings: c.Untrainings,
		},
		StartDate: c.StartDate,
	}

	kills, err := s.ListKills(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	for _, k := range kills {
		d.Kills = appendKillSnapshot(d.Kills, k)
	}

	trainers, err := s.ListTrainers(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	for _, t := range trainers {
		dt := d.Trainer(t.TrainerName)
		dt.Ranks = t.Ranks
		dt.ModifiedRanks = t.ModifiedRanks
		dt.ApplyLearningRanks = t.ApplyLearningRanks
		dt.ApplyLearningUnknownCount = t.ApplyLearningUnknownCount
		dt.DateOfLastRank = t.DateOfLastRank
	}

	lastys, err := s.ListLastys(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	for _, l := range lastys {
		dl := d.Lasty(l.CreatureName, l.LastyType)
		dl.MessageCount = l.MessageCount
		dl.FirstSeenDate = l.FirstSeenDate
		dl.LastSeenDate = l.LastSeenDate
		switch {
		case l.Finished:
			dl.Status = model.LastyStatusFinished
			dl.CompletedDate = l.CompletedDate
		case l.AbandonedDate != "":
			dl.Status = model.LastyStatusAbandoned
			dl.AbandonedDate = l.AbandonedDate
		}
	}

	pets, err := s.ListPets(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	for _, p := range pets {
		d.Pets = append(d.Pets, p.PetName)
	}

	return d, nil
}

func appendKillSnapshot(kills map[string]*model.KillDelta, k *model.Kill) map[string]*model.KillDelta {
	if kills == nil {
		kills = make(map[string]*model.KillDelta)
	}
	kills[k.CreatureName] = &model.KillDelta{
		Killed:      k.Killed,
		Slaughtered: k.Slaughtered,
		Vanquished:  k.Vanquished,
		Dispatched:  k.Dispatched,

		AssistedKill:      k.AssistedKill,
		AssistedSlaughter: k.AssistedSlaughter,
		AssistedVanquish:  k.AssistedVanquish,
		AssistedDispatch:  k.AssistedDispatch,

		KilledBy: k.KilledBy,

		DateFirst: k.DateFirst,
		DateLast:  k.DateLast,

		DateLastKilled:      k.DateLastKilled,
		DateLastSlaughtered: k.DateLastSlaughtered,
		DateLastVanquished:  k.DateLastVanquished,
		DateLastDispatched:  k.DateLastDispatched,

		CreatureValue: k.CreatureValue,
	}
	return kills
}

// newPetsFor filters pet names down to the ones the target does not
// already have.
func (s *Store) newPetsFor(ctx context.Context, targetID int64, pets []string) ([]string, error) {
	if len(pets) == 0 {
		return nil, nil
	}
	existing, err := s.ListPets(ctx, targetID)
	if err != nil {
		return nil, err
	}
	has := make(map[string]bool, len(existing))
	for _, p := range existing {
		has[p.PetName] = true
	}
	var out []string
	for _, name := range pets {
		if !has[name] {
			out = append(out, name)
		}
	}
	return out, nil
}
