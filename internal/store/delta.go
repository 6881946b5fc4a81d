package store

import (
	"context"
	"database/sql"

	"github.com/pyrrhio/annalist/internal/model"
)

// ApplyDelta folds one source's contribution into a character inside a
// single transaction. Any merge snapshot involving the character, as target
// or as merged-away source, is marked stale, since its exact-inverse
// guarantee no longer holds.
func (s *Store) ApplyDelta(ctx context.Context, charID int64, d *model.Delta) error {
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

	if err = applyDeltaTx(ctx, tx, charID, d); err != nil {
		return err
	}
	if err = markSnapshotsStale(ctx, tx, charID); err != nil {
		return err
	}
	err = tx.Commit()
	return err
}

// markSnapshotsStale flags every merge snapshot touching a character. New
// data on a merge target invalidates the recorded inverse; new data on a
// hidden merged source means its snapshot no longer reflects what was
// folded in.
func markSnapshotsStale(ctx context.Context, tx *sql.Tx, charID int64) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE merge_snapshots SET stale = 1 WHERE target_id = ? OR source_id = ?`,
		charID, charID)
	return err
}

// RetractDelta removes a previously applied contribution: counters are
// negated exactly, and rows left with no counts are pruned. Dates, terminal
// statuses and pets stay, they are monotone and converge on re-apply.
func (s *Store) RetractDelta(ctx context.Context, charID int64, d *model.Delta) error {
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

	if err = applyDeltaTx(ctx, tx, charID, d.Neg()); err != nil {
		return err
	}
	if err = pruneEmptyRows(ctx, tx, charID); err != nil {
		return err
	}
	err = tx.Commit()
	return err
}

func applyDeltaTx(ctx context.Context, tx *sql.Tx, charID int64, d *model.Delta) error {
	c := d.Counters
	_, err := tx.ExecContext(ctx, `UPDATE characters SET
		logins = logins + ?,
		departs = MAX(departs + ?, ?),
		deaths = deaths + ?,
		esteem = esteem + ?,
		coins_picked_up = coins_picked_up + ?,
		chest_coins = chest_coins + ?,
		bounty_coins = bounty_coins + ?,
		casino_won = casino_won + ?,
		casino_lost = casino_lost + ?,
		fur_coins = fur_coins + ?,
		mandible_coins = mandible_coins + ?,
		blood_coins = blood_coins + ?,
		fur_worth = fur_worth + ?,
		mandible_worth = mandible_worth + ?,
		blood_worth = blood_worth + ?,
		bells_used = bells_used + ?,
		bells_broken = bells_broken + ?,
		chains_used = chains_used + ?,
		chains_broken = chains_broken + ?,
		shieldstones_used = shieldstones_used + ?,
		shieldstones_broken = shieldstones_broken + ?,
		ethereal_portals = ethereal_portals + ?,
		portal_stones_broken = portal_stones_broken + ?,
		good_karma = good_karma + ?,
		bad_karma = bad_karma + ?,
		untrainings = untrainings + ?,
		start_date = CASE
			WHEN ? = '' THEN start_date
			WHEN start_date = '' OR ? < start_date THEN ?
			ELSE start_date
		END
		WHERE id = ?`,
		c.Logins, c.Departs, d.DepartsAbsolute, c.Deaths, c.Esteem,
		c.CoinsPickedUp, c.ChestCoins, c.BountyCoins, c.CasinoWon, c.CasinoLost,
		c.FurCoins, c.MandibleCoins, c.BloodCoins,
		c.FurWorth, c.MandibleWorth, c.BloodWorth,
		c.BellsUsed, c.BellsBroken, c.ChainsUsed, c.ChainsBroken,
		c.ShieldstonesUsed, c.ShieldstonesBroken, c.EtherealPortals, c.PortalStonesBroken,
		c.GoodKarma, c.BadKarma, c.Untrainings,
		d.StartDate, d.StartDate, d.StartDate,
		charID)
	if err != nil {
		return err
	}

	if d.Profession != "" && d.Profession != model.ProfessionUnknown {
		if _, err := tx.ExecContext(ctx,
			`UPDATE characters SET profession = ? WHERE id = ?`,
			string(d.Profession), charID); err != nil {
			return err
		}
	}

	for creature, k := range d.Kills {
		if err := upsertKill(ctx, tx, charID, creature, k); err != nil {
			return err
		}
	}
	for name, t := range d.Trainers {
		if err := upsertTrainer(ctx, tx, charID, name, t); err != nil {
			return err
		}
	}

	// Abandons cover prior records of the creature; in-delta statuses are
	// applied afterwards so a restart in the same source wins.
	for creature, date := range d.LastyAbandons {
		if _, err := tx.ExecContext(ctx,
			`UPDATE lastys SET abandoned_date = ?
			 WHERE character_id = ? AND creature_name = ? AND finished = 0`,
			date, charID, creature); err != nil {
			return err
		}
	}
	for key, l := range d.Lastys {
		creature := model.LastyKeyCreature(key)
		if err := upsertLasty(ctx, tx, charID, creature, l); err != nil {
			return err
		}
	}
	for i := int64(0); i < d.LastyCompletions; i++ {
		if _, err := tx.ExecContext(ctx,
			`UPDATE lastys SET finished = 1, abandoned_date = ''
			 WHERE id = (
				SELECT id FROM lastys
				WHERE character_id = ? AND finished = 0
				ORDER BY last_seen_date DESC, id DESC LIMIT 1
			 )`, charID); err != nil {
			return err
		}
	}

	for _, creature := range d.Pets {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO pets (character_id, pet_name, creature_name)
			 VALUES (?, ?, ?)`, charID, creature, creature); err != nil {
			return err
		}
	}

	return nil
}

func upsertKill(ctx context.Context, tx *sql.Tx, charID int64, creature string, k *model.KillDelta) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO kills (
		character_id, creature_name,
		killed, slaughtered, vanquished, dispatched,
		assisted_kill, assisted_slaughter, assisted_vanquish, assisted_dispatch,
		killed_by,
		date_first, date_last,
		date_last_killed, date_last_slaughtered, date_last_vanquished, date_last_dispatched,
		creature_value)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (character_id, creature_name) DO UPDATE SET
		killed = killed + excluded.killed,
		slaughtered = slaughtered + excluded.slaughtered,
		vanquished = vanquished + excluded.vanquished,
		dispatched = dispatched + excluded.dispatched,
		assisted_kill = assisted_kill + excluded.assisted_kill,
		assisted_slaughter = assisted_slaughter + excluded.assisted_slaughter,
		assisted_vanquish = assisted_vanquish + excluded.assisted_vanquish,
		assisted_dispatch = assisted_dispatch + excluded.assisted_dispatch,
		killed_by = killed_by + excluded.killed_by,
		date_first = CASE
			WHEN excluded.date_first = '' THEN date_first
			WHEN date_first = '' OR excluded.date_first < date_first THEN excluded.date_first
			ELSE date_first
		END,
		date_last = MAX(date_last, excluded.date_last),
		date_last_killed = MAX(date_last_killed, excluded.date_last_killed),
		date_last_slaughtered = MAX(date_last_slaughtered, excluded.date_last_slaughtered),
		date_last_vanquished = MAX(date_last_vanquished, excluded.date_last_vanquished),
		date_last_dispatched = MAX(date_last_dispatched, excluded.date_last_dispatched),
		creature_value = CASE
			WHEN excluded.creature_value <> 0 THEN excluded.creature_value
			ELSE creature_value
		END`,
		charID, creature,
		k.Killed, k.Slaughtered, k.Vanquished, k.Dispatched,
		k.AssistedKill, k.AssistedSlaughter, k.AssistedVanquish, k.AssistedDispatch,
		k.KilledBy,
		k.DateFirst, k.DateLast,
		k.DateLastKilled, k.DateLastSlaughtered, k.DateLastVanquished, k.DateLastDispatched,
		k.CreatureValue)
	return err
}

func upsertTrainer(ctx context.Context, tx *sql.Tx, charID int64, name string, t *model.TrainerDelta) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO trainers (
		character_id, trainer_name,
		ranks, modified_ranks, apply_learning_ranks, apply_learning_unknown_count,
		date_of_last_rank)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (character_id, trainer_name) DO UPDATE SET
		ranks = ranks + excluded.ranks,
		modified_ranks = modified_ranks + excluded.modified_ranks,
		apply_learning_ranks = apply_learning_ranks + excluded.apply_learning_ranks,
		apply_learning_unknown_count = apply_learning_unknown_count + excluded.apply_learning_unknown_count,
		date_of_last_rank = MAX(date_of_last_rank, excluded.date_of_last_rank)`,
		charID, name,
		t.Ranks, t.ModifiedRanks, t.ApplyLearningRanks, t.ApplyLearningUnknownCount,
		t.DateOfLastRank)
	return err
}

func upsertLasty(ctx context.Context, tx *sql.Tx, charID int64, creature string, l *model.LastyDelta) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO lastys (
		character_id, creature_name, lasty_type,
		message_count, first_seen_date, last_seen_date)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT (character_id, creature_name, lasty_type) DO UPDATE SET
		message_count = message_count + excluded.message_count,
		first_seen_date = CASE
			WHEN excluded.first_seen_date = '' THEN first_seen_date
			WHEN first_seen_date = '' OR excluded.first_seen_date < first_seen_date THEN excluded.first_seen_date
			ELSE first_seen_date
		END,
		last_seen_date = MAX(last_seen_date, excluded.last_seen_date)`,
		charID, creature, string(l.LastyType),
		l.MessageCount, l.FirstSeenDate, l.LastSeenDate)
	if err != nil {
		return err
	}

	switch l.Status {
	case model.LastyStatusFinished:
		_, err = tx.ExecContext(ctx,
			`UPDATE lastys SET finished = 1, abandoned_date = '',
				completed_date = CASE WHEN completed_date = '' THEN ? ELSE completed_date END
			 WHERE character_id = ? AND creature_name = ? AND lasty_type = ?`,
			l.CompletedDate, charID, creature, string(l.LastyType))
	case model.LastyStatusAbandoned:
		_, err = tx.ExecContext(ctx,
			`UPDATE lastys SET abandoned_date = ?
			 WHERE character_id = ? AND creature_name = ? AND lasty_type = ? AND finished = 0`,
			l.AbandonedDate, charID, creature, string(l.LastyType))
	case model.LastyStatusRestarted:
		_, err = tx.ExecContext(ctx,
			`UPDATE lastys SET abandoned_date = ''
			 WHERE character_id = ? AND creature_name = ? AND lasty_type = ? AND finished = 0`,
			charID, creature, string(l.LastyType))
	}
	return err
}

// pruneEmptyRows drops dependent rows a retraction emptied out. Trainer
// rows with a manual override or adjustment survive, re-scanning must never
// destroy user corrections.
func pruneEmptyRows(ctx context.Context, tx *sql.Tx, charID int64) error {
	stmts := []string{
		`DELETE FROM kills WHERE character_id = ?
			AND killed <= 0 AND slaughtered <= 0 AND vanquished <= 0 AND dispatched <= 0
			AND assisted_kill <= 0 AND assisted_slaughter <= 0
			AND assisted_vanquish <= 0 AND assisted_dispatch <= 0
			AND killed_by <= 0`,
		`DELETE FROM trainers WHERE character_id = ?
			AND ranks <= 0 AND modified_ranks = 0
			AND apply_learning_ranks <= 0 AND apply_learning_unknown_count <= 0
			AND rank_mode = 'modifier'`,
		`DELETE FROM lastys WHERE character_id = ? AND message_count <= 0`,
	}
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt, charID); err != nil {
			return err
		}
	}
	return nil
}
