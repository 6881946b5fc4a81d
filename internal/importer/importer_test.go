package importer

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/pyrrhio/annalist/internal/model"
	"github.com/pyrrhio/annalist/internal/store"
)

// buildScribiusDB creates a minimal Core Data style source database.
func buildScribiusDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scribius.sqlite")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open source: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			t.Fatalf("close source: %v", err)
		}
	}()

	stmts := []string{
		`CREATE TABLE ZMODELCHARACTERS (
			Z_PK INTEGER PRIMARY KEY,
			ZCHARACTERNAME TEXT, ZPROFESSION TEXT,
			ZLOGINS INTEGER, ZDEPARTS INTEGER, ZFALLS INTEGER, ZESTEEM INTEGER,
			ZCASINOCOINSWON INTEGER, ZCASINOCOINSLOST INTEGER,
			ZCHESTVALUE INTEGER, ZMYBOUNTY INTEGER,
			ZMYFURS INTEGER, ZMYMANDIBLES INTEGER, ZMYBLOOD INTEGER,
			ZMYRECOVEREDFURS INTEGER, ZMYRECOVEREDMANDIBLES INTEGER, ZMYRECOVEREDBLOOD INTEGER,
			ZBELLSUSED INTEGER, ZBELLSBROKEN INTEGER,
			ZCHAINSUSED INTEGER, ZCHAINSBROKEN INTEGER,
			ZSHIELDSTONESUSED INTEGER, ZSHIELDSTONESBROKEN INTEGER,
			ZEPS INTEGER, ZEPSBREAKS INTEGER, ZGK INTEGER,
			ZSTARTDATE REAL
		)`,
		`CREATE TABLE ZMODELTRAINERS (
			Z_PK INTEGER PRIMARY KEY, ZRELATIONSHIP INTEGER,
			ZTRAINERNAME TEXT, ZRANKS INTEGER, ZMODIFIEDRANKS INTEGER,
			ZLASTTRAINED REAL
		)`,
		`CREATE TABLE ZMODELKILLS (
			Z_PK INTEGER PRIMARY KEY, ZRELATIONSHIP INTEGER,
			ZNAME TEXT, ZKILL INTEGER, ZSLAUGHTER INTEGER,
			ZDISP INTEGER, ZVANQ INTEGER, ZKILLEDBY INTEGER,
			ZCOINLEVEL INTEGER,
			ZDATEFIRSTKILL REAL, ZDATEFIRSTSLAUGHTER REAL, ZDATEFIRSTDISP REAL,
			ZDATELASTENCOUNTER REAL
		)`,
		`CREATE TABLE ZMODELPETS (
			Z_PK INTEGER PRIMARY KEY, ZRELATIONSHIP INTEGER,
			ZPETNAME TEXT, ZMAXCREATURENAME TEXT
		)`,
		`CREATE TABLE ZMODELLASTYS (
			Z_PK INTEGER PRIMARY KEY, ZRELATIONSHIP INTEGER,
			ZCREATURENAME TEXT, ZLASTYTYPE TEXT,
			ZFINISHED INTEGER, ZMESSAGECOUNT INTEGER
		)`,

		// 726969600 seconds after the Core Data epoch is 2024-01-15.
		`INSERT INTO ZMODELCHARACTERS VALUES (
			1, 'Ruuk', 'Fighter',
			12, 34, 5, 7,
			100, 40, 250, 75,
			300, 50, 20,
			900, 150, 60,
			2, 1, 3, 1,
			4, 2,
			6, 1, 9,
			726969600.0
		)`,
		`INSERT INTO ZMODELCHARACTERS VALUES (
			2, 'Contents', '', 0, 0, 0, 0,
			0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
			0, 0, 0, 0, 0, 0, 0, 0, 0, 0
		)`,
		`INSERT INTO ZMODELTRAINERS VALUES (1, 1, 'Atkus', 40, 5, 726969600.0)`,
		`INSERT INTO ZMODELTRAINERS VALUES (2, 1, 'Darkus', 25, 0, 0)`,
		`INSERT INTO ZMODELKILLS VALUES (1, 1, 'Rat', 50, 2, 1, 0, 3, 99, 726969600.0, 0, 0, 727056000.0)`,
		`INSERT INTO ZMODELKILLS VALUES (2, 1, 'Unknown Beast', 1, 0, 0, 0, 0, 42, 0, 0, 0, 0)`,
		`INSERT INTO ZMODELPETS VALUES (1, 1, 'Feral', 'Feral')`,
		`INSERT INTO ZMODELLASTYS VALUES (1, 1, 'Feral', 'Befriend', 1, 12)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("exec %q: %v", stmt[:30], err)
		}
	}
	return path
}

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() {
		if err := st.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return st
}

func TestImport(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)
	src := buildScribiusDB(t)

	res, err := Import(ctx, st, src, nil)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if res.CharactersImported != 1 {
		t.Fatalf("CharactersImported = %d", res.CharactersImported)
	}
	if res.CharactersSkipped != 1 {
		t.Fatalf("CharactersSkipped = %d, want the spurious bundle entry", res.CharactersSkipped)
	}
	if res.TrainersImported != 2 || res.KillsImported != 2 || res.PetsImported != 1 || res.LastysImported != 1 {
		t.Fatalf("result = %+v", res)
	}

	c, err := st.GetCharacterByName(ctx, "Ruuk")
	if err != nil {
		t.Fatalf("GetCharacterByName: %v", err)
	}
	if c.Profession != model.ProfessionFighter {
		t.Fatalf("Profession = %q", c.Profession)
	}
	if c.Logins != 12 || c.Departs != 34 || c.Deaths != 5 {
		t.Fatalf("counters = %+v", c)
	}
	if c.FurCoins != 300 || c.FurWorth != 900 {
		t.Fatalf("loot = %+v", c)
	}
	if c.StartDate != "2024-01-15" {
		t.Fatalf("StartDate = %q", c.StartDate)
	}
	if c.CoinLevel != 70 {
		t.Fatalf("CoinLevel = %d, want ranks plus modified", c.CoinLevel)
	}

	kills, err := st.ListKills(ctx, c.ID)
	if err != nil {
		t.Fatalf("ListKills: %v", err)
	}
	byName := make(map[string]int64)
	values := make(map[string]int64)
	for _, k := range kills {
		byName[k.CreatureName] = k.Killed
		values[k.CreatureName] = k.CreatureValue
	}
	if byName["Rat"] != 50 {
		t.Fatalf("Rat kills = %d", byName["Rat"])
	}
	// The bundled table overrides the legacy per-row value for known
	// creatures; unknown ones keep the legacy value.
	if values["Rat"] != 2 {
		t.Fatalf("Rat value = %d, want bundled 2", values["Rat"])
	}
	if values["Unknown Beast"] != 42 {
		t.Fatalf("Unknown Beast value = %d, want legacy 42", values["Unknown Beast"])
	}

	lastys, err := st.ListLastys(ctx, c.ID)
	if err != nil {
		t.Fatalf("ListLastys: %v", err)
	}
	if len(lastys) != 1 || !lastys[0].Finished || lastys[0].MessageCount != 12 {
		t.Fatalf("lastys = %+v", lastys)
	}
	pets, err := st.ListPets(ctx, c.ID)
	if err != nil {
		t.Fatalf("ListPets: %v", err)
	}
	if len(pets) != 1 || pets[0].PetName != "Feral" {
		t.Fatalf("pets = %+v", pets)
	}
}

func TestImportSkipsExisting(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)
	src := buildScribiusDB(t)

	id, err := st.GetOrCreateCharacter(ctx, "Ruuk")
	if err != nil {
		t.Fatalf("GetOrCreateCharacter: %v", err)
	}
	if err := st.ApplyDelta(ctx, id, &model.Delta{Counters: model.CounterDelta{Logins: 99}}); err != nil {
		t.Fatalf("ApplyDelta: %v", err)
	}

	res, err := Import(ctx, st, src, nil)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if res.CharactersImported != 0 {
		t.Fatalf("CharactersImported = %d, want existing skipped", res.CharactersImported)
	}
	if len(res.Warnings) == 0 {
		t.Fatalf("expected a skip warning")
	}

	c, err := st.GetCharacterByName(ctx, "Ruuk")
	if err != nil {
		t.Fatalf("GetCharacterByName: %v", err)
	}
	if c.Logins != 99 {
		t.Fatalf("existing character was overwritten: %+v", c)
	}
}

func TestImportSchemaMismatch(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	path := filepath.Join(t.TempDir(), "other.sqlite")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := db.Exec(`CREATE TABLE notes (id INTEGER PRIMARY KEY)`); err != nil {
		t.Fatalf("exec: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if _, err := Import(ctx, st, path, nil); !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("Import = %v, want ErrSchemaMismatch", err)
	}
}

func TestCoreDataDate(t *testing.T) {
	if got := coreDataDate(726969600); got != "2024-01-15" {
		t.Errorf("coreDataDate(726969600) = %q", got)
	}
	if got := coreDataDate(0); got != "" {
		t.Errorf("coreDataDate(0) = %q", got)
	}
}

func TestValidCharacterName(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"Ruuk", true},
		{"olga", true},
		{"", false},
		{"Contents", false},
		{"Sparkle.framework", false},
		{"com.dfsw.Scribius", false},
		{"/Users/squib/Applications", false},
	}
	for _, tt := range tests {
		if got := validCharacterName(tt.name); got != tt.want {
			t.Errorf("validCharacterName(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
