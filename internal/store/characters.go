package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pyrrhio/annalist/internal/model"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("store: not found")

const characterColumns = `id, name, profession,
	logins, departs, deaths, esteem,
	coins_picked_up, chest_coins, bounty_coins, casino_won, casino_lost,
	fur_coins, mandible_coins, blood_coins,
	fur_worth, mandible_worth, blood_worth,
	bells_used, bells_broken, chains_used, chains_broken,
	shieldstones_used, shieldstones_broken, ethereal_portals, portal_stones_broken,
	good_karma, bad_karma, untrainings,
	coin_level, start_date, merged_into`

func scanCharacter(row interface{ Scan(...any) error }) (*model.Character, error) {
	var c model.Character
	var profession string
	err := row.Scan(&c.ID, &c.Name, &profession,
		&c.Logins, &c.Departs, &c.Deaths, &c.Esteem,
		&c.CoinsPickedUp, &c.ChestCoins, &c.BountyCoins, &c.CasinoWon, &c.CasinoLost,
		&c.FurCoins, &c.MandibleCoins, &c.BloodCoins,
		&c.FurWorth, &c.MandibleWorth, &c.BloodWorth,
		&c.BellsUsed, &c.BellsBroken, &c.ChainsUsed, &c.ChainsBroken,
		&c.ShieldstonesUsed, &c.ShieldstonesBroken, &c.EtherealPortals, &c.PortalStonesBroken,
		&c.GoodKarma, &c.BadKarma, &c.Untrainings,
		&c.CoinLevel, &c.StartDate, &c.MergedInto)
	if err != nil {
		return nil, err
	}
	c.Profession = model.ParseProfession(profession)
	return &c, nil
}

// GetOrCreateCharacter returns the id for a character name, creating the
// record on first encounter.
func (s *Store) GetOrCreateCharacter(ctx context.Context, name string) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM characters WHERE name = ?`, name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO characters (name) VALUES (?)`, name)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetCharacter loads a character by id.
func (s *Store) GetCharacter(ctx context.Context, id int64) (*model.Character, error) {
	row := s.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT %s FROM characters WHERE id = ?`, characterColumns), id)
	c, err := scanCharacter(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return c, err
}

// GetCharacterByName loads a character by exact name.
func (s *Store) GetCharacterByName(ctx context.Context, name string) (*model.Character, error) {
	row := s.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT %s FROM characters WHERE name = ?`, characterColumns), name)
	c, err := scanCharacter(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return c, err
}

// ListCharacters returns characters ordered by name. Characters folded into
// a primary are hidden unless includeMerged is set.
func (s *Store) ListCharacters(ctx context.Context, includeMerged bool) ([]*model.Character, error) {
	query := fmt.Sprintf(`SELECT %s FROM characters`, characterColumns)
	if !includeMerged {
		query += ` WHERE merged_into = 0`
	}
	query += ` ORDER BY name`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []*model.Character
	for rows.Next() {
		c, err := scanCharacter(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// UpdateProfession sets a character's profession.
func (s *Store) UpdateProfession(ctx context.Context, id int64, p model.Profession) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE characters SET profession = ? WHERE id = ?`, string(p), id)
	return err
}

// RecalcCoinLevel recomputes coin_level from the character's trainer rows.
func (s *Store) RecalcCoinLevel(ctx context.Context, id int64) (int64, error) {
	var level int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(ranks + modified_ranks + apply_learning_ranks), 0)
		 FROM trainers WHERE character_id = ?`, id).Scan(&level)
	if err != nil {
		return 0, err
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE characters SET coin_level = ? WHERE id = ?`, level, id)
	return level, err
}

// DeleteCharacter removes a character and all its dependent records.
func (s *Store) DeleteCharacter(ctx context.Context, id int64) error {
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

	for _, stmt := range []string{
		`DELETE FROM kills WHERE character_id = ?`,
		`DELETE FROM trainers WHERE character_id = ?`,
		`DELETE FROM lastys WHERE character_id = ?`,
		`DELETE FROM pets WHERE character_id = ?`,
		`DELETE FROM scanned_files WHERE character_id = ?`,
		`DELETE FROM log_lines WHERE character_id = ?`,
		`DELETE FROM merge_snapshots WHERE source_id = ?`,
		`DELETE FROM characters WHERE id = ?`,
	} {
		if _, err = tx.ExecContext(ctx, stmt, id); err != nil {
			return err
		}
	}
	err = tx.Commit()
	return err
}

// Reset drops all aggregated data. Used by the explicit reset command only.
func (s *Store) Reset(ctx context.Context) error {
	for _, stmt := range []string{
		`DELETE FROM kills`,
		`DELETE FROM trainers`,
		`DELETE FROM lastys`,
		`DELETE FROM pets`,
		`DELETE FROM scanned_files`,
		`DELETE FROM merge_snapshots`,
		`DELETE FROM log_lines`,
		`DELETE FROM characters`,
	} {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
