// Package importer reads a legacy Scribius (Core Data) SQLite database and
// folds its characters into an annalist store. Legacy rows become one
// contribution per character, applied through the same path scans use.
package importer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/pyrrhio/annalist/internal/gamedata"
	"github.com/pyrrhio/annalist/internal/model"
	"github.com/pyrrhio/annalist/internal/store"

	_ "modernc.org/sqlite" // SQLite driver.
)

// coreDataEpochOffset converts Core Data timestamps (seconds since
// 2001-01-01 UTC) to Unix seconds.
const coreDataEpochOffset = 978307200

// ErrSchemaMismatch means the source database does not look like a Scribius
// Core Data store.
var ErrSchemaMismatch = errors.New("importer: source is not a Scribius database")

// Result summarizes an import run.
type Result struct {
	CharactersImported int
	CharactersSkipped  int
	TrainersImported   int
	KillsImported      int
	PetsImported       int
	LastysImported     int
	Warnings           []string
}

// spuriousNames are macOS bundle directory names that old Scribius versions
// recorded as characters when pointed at the wrong folder.
var spuriousNames = map[string]bool{
	"contents": true, "frameworks": true, "resources": true, "macos": true,
	"_codesignature": true, "helpers": true, "plugins": true,
	"xpcservices": true, "sparkle.framework": true, "versions": true,
	"current": true, "updater.app": true, "autoupdate.app": true,
	"sparkle_relaunchhelper.app": true,
}

func validCharacterName(name string) bool {
	if name == "" {
		return false
	}
	if strings.ContainsAny(name, "./\\") {
		return false
	}
	return !spuriousNames[strings.ToLower(name)]
}

// coreDataDate converts a Core Data timestamp to a stored date string.
// Zero means unset.
func coreDataDate(ts float64) string {
	if ts == 0 || ts != ts {
		return ""
	}
	return time.Unix(int64(ts)+coreDataEpochOffset, 0).UTC().Format("2006-01-02")
}

func mapProfession(s string) model.Profession {
	if s == "" || strings.EqualFold(s, "exile") {
		return model.ProfessionUnknown
	}
	return model.ParseProfession(s)
}

// legacyCharacter accumulates one Scribius character and its related rows
// before being applied as a single delta.
type legacyCharacter struct {
	name       string
	profession model.Profession
	delta      *model.Delta
	trainers   int
	kills      int
	pets       int
	lastys     int
}

// Import reads sourcePath and applies every valid legacy character to st.
// Characters already present in the store are skipped, never overwritten.
func Import(ctx context.Context, st *store.Store, sourcePath string, logger *slog.Logger) (*Result, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if _, err := os.Stat(sourcePath); err != nil {
		return nil, fmt.Errorf("importer: %w", err)
	}

	src, err := sql.Open("sqlite", "file:"+sourcePath+"?mode=ro")
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := src.Close(); cerr != nil {
			// Best-effort close of the read-only source.
			_ = cerr
		}
	}()

	creatures, err := gamedata.Creatures()
	if err != nil {
		return nil, err
	}

	res := &Result{}

	chars, err := readCharacters(ctx, src, res)
	if err != nil {
		return nil, err
	}
	if err := readTrainers(ctx, src, chars); err != nil {
		return nil, err
	}
	if err := readKills(ctx, src, chars, creatures); err != nil {
		return nil, err
	}
	if err := readPets(ctx, src, chars); err != nil {
		return nil, err
	}
	if err := readLastys(ctx, src, chars); err != nil {
		return nil, err
	}

	for _, lc := range chars {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		_, err := st.GetCharacterByName(ctx, lc.name)
		if err == nil {
			res.CharactersSkipped++
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("character %q already exists, skipped", lc.name))
			continue
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}

		id, err := st.GetOrCreateCharacter(ctx, lc.name)
		if err != nil {
			return nil, err
		}
		if err := st.ApplyDelta(ctx, id, lc.delta); err != nil {
			return nil, err
		}
		if lc.profession != model.ProfessionUnknown {
			if err := st.UpdateProfession(ctx, id, lc.profession); err != nil {
				return nil, err
			}
		}
		if _, err := st.RecalcCoinLevel(ctx, id); err != nil {
			return nil, err
		}

		logger.Info("imported character", "name", lc.name,
			"trainers", lc.trainers, "kills", lc.kills)
		res.CharactersImported++
		res.TrainersImported += lc.trainers
		res.KillsImported += lc.kills
		res.PetsImported += lc.pets
		res.LastysImported += lc.lastys
	}

	return res, nil
}

func readCharacters(ctx context.Context, src *sql.DB, res *Result) (map[int64]*legacyCharacter, error) {
	rows, err := src.QueryContext(ctx, `SELECT Z_PK, ZCHARACTERNAME, ZPROFESSION,
		ZLOGINS, ZDEPARTS, ZFALLS, ZESTEEM,
		ZCASINOCOINSWON, ZCASINOCOINSLOST, ZCHESTVALUE, ZMYBOUNTY,
		ZMYFURS, ZMYMANDIBLES, ZMYBLOOD,
		ZMYRECOVEREDFURS, ZMYRECOVEREDMANDIBLES, ZMYRECOVEREDBLOOD,
		ZBELLSUSED, ZBELLSBROKEN, ZCHAINSUSED, ZCHAINSBROKEN,
		ZSHIELDSTONESUSED, ZSHIELDSTONESBROKEN,
		ZEPS, ZEPSBREAKS, ZGK, ZSTARTDATE
		FROM ZMODELCHARACTERS`)
	if err != nil {
		return nil, ErrSchemaMismatch
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	chars := make(map[int64]*legacyCharacter)
	for rows.Next() {
		var (
			pk         int64
			name, prof sql.NullString
			logins, departs, deaths, esteem,
			casinoWon, casinoLost, chestCoins, bountyCoins,
			furCoins, mandibleCoins, bloodCoins,
			furWorth, mandibleWorth, bloodWorth,
			bellsUsed, bellsBroken, chainsUsed, chainsBroken,
			stonesUsed, stonesBroken,
			portals, portalBreaks, goodKarma sql.NullInt64
			startDate sql.NullFloat64
		)
		if err := rows.Scan(&pk, &name, &prof,
			&logins, &departs, &deaths, &esteem,
			&casinoWon, &casinoLost, &chestCoins, &bountyCoins,
			&furCoins, &mandibleCoins, &bloodCoins,
			&furWorth, &mandibleWorth, &bloodWorth,
			&bellsUsed, &bellsBroken, &chainsUsed, &chainsBroken,
			&stonesUsed, &stonesBroken,
			&portals, &portalBreaks, &goodKarma, &startDate); err != nil {
			return nil, err
		}

		if !validCharacterName(name.String) {
			res.CharactersSkipped++
			if name.String != "" {
				res.Warnings = append(res.Warnings,
					fmt.Sprintf("skipped entry with invalid name %q", name.String))
			}
			continue
		}

		d := &model.Delta{
			Counters: model.CounterDelta{
				Logins:             logins.Int64,
				Deaths:             deaths.Int64,
				Esteem:             esteem.Int64,
				CasinoWon:          casinoWon.Int64,
				CasinoLost:         casinoLost.Int64,
				ChestCoins:         chestCoins.Int64,
				BountyCoins:        bountyCoins.Int64,
				FurCoins:           furCoins.Int64,
				MandibleCoins:      mandibleCoins.Int64,
				BloodCoins:         bloodCoins.Int64,
				FurWorth:           furWorth.Int64,
				MandibleWorth:      mandibleWorth.Int64,
				BloodWorth:         bloodWorth.Int64,
				BellsUsed:          bellsUsed.Int64,
				BellsBroken:        bellsBroken.Int64,
				ChainsUsed:         chainsUsed.Int64,
				ChainsBroken:       chainsBroken.Int64,
				ShieldstonesUsed:   stonesUsed.Int64,
				ShieldstonesBroken: stonesBroken.Int64,
				EtherealPortals:    portals.Int64,
				PortalStonesBroken: portalBreaks.Int64,
				GoodKarma:          goodKarma.Int64,
			},
			DepartsAbsolute: departs.Int64,
			StartDate:       coreDataDate(startDate.Float64),
		}
		chars[pk] = &legacyCharacter{
			name:       name.String,
			profession: mapProfession(prof.String),
			delta:      d,
		}
	}
	return chars, rows.Err()
}

func readTrainers(ctx context.Context, src *sql.DB, chars map[int64]*legacyCharacter) error {
	rows, err := src.QueryContext(ctx,
		`SELECT ZRELATIONSHIP, ZTRAINERNAME, ZRANKS, ZMODIFIEDRANKS, ZLASTTRAINED
		 FROM ZMODELTRAINERS`)
	if err != nil {
		// Table is absent in some Scribius versions.
		return nil
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	for rows.Next() {
		var pk sql.NullInt64
		var name sql.NullString
		var ranks, modified sql.NullInt64
		var lastTrained sql.NullFloat64
		if err := rows.Scan(&pk, &name, &ranks, &modified, &lastTrained); err != nil {
			return err
		}
		lc := chars[pk.Int64]
		if lc == nil || name.String == "" {
			continue
		}
		t := lc.delta.Trainer(name.String)
		t.Ranks = ranks.Int64
		t.ModifiedRanks = modified.Int64
		t.DateOfLastRank = coreDataDate(lastTrained.Float64)
		lc.trainers++
	}
	return rows.Err()
}

func readKills(ctx context.Context, src *sql.DB, chars map[int64]*legacyCharacter, creatures *gamedata.CreatureTable) error {
	rows, err := src.QueryContext(ctx,
		`SELECT ZRELATIONSHIP, ZNAME, ZKILL, ZSLAUGHTER, ZDISP, ZVANQ, ZKILLEDBY,
			ZCOINLEVEL, ZDATEFIRSTKILL, ZDATEFIRSTSLAUGHTER, ZDATEFIRSTDISP,
			ZDATELASTENCOUNTER
		 FROM ZMODELKILLS`)
	if err != nil {
		return nil
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	for rows.Next() {
		var pk sql.NullInt64
		var name sql.NullString
		var killed, slaughtered, dispatched, vanquished, killedBy, coinValue sql.NullInt64
		var firstKill, firstSlaughter, firstDisp, lastEnc sql.NullFloat64
		if err := rows.Scan(&pk, &name, &killed, &slaughtered, &dispatched,
			&vanquished, &killedBy, &coinValue,
			&firstKill, &firstSlaughter, &firstDisp, &lastEnc); err != nil {
			return err
		}
		lc := chars[pk.Int64]
		if lc == nil || name.String == "" {
			continue
		}

		k := lc.delta.Kill(name.String)
		k.Killed = killed.Int64
		k.Slaughtered = slaughtered.Int64
		k.Dispatched = dispatched.Int64
		k.Vanquished = vanquished.Int64
		k.KilledBy = killedBy.Int64

		// The bundled creature table wins; the legacy per-row value is
		// the fallback.
		if v, ok := creatures.Value(name.String); ok {
			k.CreatureValue = v
		} else {
			k.CreatureValue = coinValue.Int64
		}

		k.DateFirst = earliestCoreDataDate(firstKill.Float64, firstSlaughter.Float64, firstDisp.Float64)
		k.DateLast = coreDataDate(lastEnc.Float64)
		lc.kills++
	}
	return rows.Err()
}

func earliestCoreDataDate(stamps ...float64) string {
	best := 0.0
	for _, ts := range stamps {
		if ts == 0 {
			continue
		}
		if best == 0 || ts < best {
			best = ts
		}
	}
	return coreDataDate(best)
}

func readPets(ctx context.Context, src *sql.DB, chars map[int64]*legacyCharacter) error {
	rows, err := src.QueryContext(ctx,
		`SELECT ZRELATIONSHIP, ZPETNAME, ZMAXCREATURENAME FROM ZMODELPETS`)
	if err != nil {
		return nil
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	for rows.Next() {
		var pk sql.NullInt64
		var petName, creatureName sql.NullString
		if err := rows.Scan(&pk, &petName, &creatureName); err != nil {
			return err
		}
		lc := chars[pk.Int64]
		if lc == nil || petName.String == "" {
			continue
		}
		lc.delta.Pets = append(lc.delta.Pets, petName.String)
		lc.pets++
	}
	return rows.Err()
}

func readLastys(ctx context.Context, src *sql.DB, chars map[int64]*legacyCharacter) error {
	rows, err := src.QueryContext(ctx,
		`SELECT ZRELATIONSHIP, ZCREATURENAME, ZLASTYTYPE, ZFINISHED, ZMESSAGECOUNT
		 FROM ZMODELLASTYS`)
	if err != nil {
		return nil
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	for rows.Next() {
		var pk sql.NullInt64
		var creature, typ sql.NullString
		var finished, messages sql.NullInt64
		if err := rows.Scan(&pk, &creature, &typ, &finished, &messages); err != nil {
			return err
		}
		lc := chars[pk.Int64]
		if lc == nil || creature.String == "" {
			continue
		}
		l := lc.delta.Lasty(creature.String, model.LastyType(typ.String))
		l.MessageCount = messages.Int64
		if finished.Int64 != 0 {
			l.Status = model.LastyStatusFinished
		}
		lc.lastys++
	}
	return rows.Err()
}
