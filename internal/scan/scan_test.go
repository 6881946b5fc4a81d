package scan

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pyrrhio/annalist/internal/model"
	"github.com/pyrrhio/annalist/internal/store"
)

// writeLog writes a legacy-encoded log file: CR line endings and the 0xA5
// sentinel byte, the way old clients wrote them.
func writeLog(t *testing.T, dir, name string, lines ...string) string {
	t.Helper()
	content := strings.Join(lines, "\r") + "\r"
	content = strings.ReplaceAll(content, "•", "\xa5")
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func newTestScanner(t *testing.T, opts Options) (*Scanner, *store.Store) {
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
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	sc, err := New(st, logger, opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return sc, st
}

func fenFolder(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "fen")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	writeLog(t, dir, "CL Log 2025-03-01.txt",
		"3/1/25 6:00:00p Welcome to Clan Lord, Fen!",
		"3/1/25 6:05:00p You killed an Orga Warrior.",
		"3/1/25 6:06:00p * You pick up 37 coins.",
		"3/1/25 6:07:00p • You feel tougher.",
	)
	writeLog(t, dir, "CL Log 2025-03-02.txt",
		"3/2/25 7:00:00p Welcome back, Fen!",
		"3/2/25 7:10:00p You slaughtered an Orga Warrior.",
		"3/2/25 7:15:00p • You feel tougher.",
	)
	return dir
}

func TestScanFolder(t *testing.T) {
	ctx := context.Background()
	sc, st := newTestScanner(t, Options{Workers: 2})
	dir := fenFolder(t)

	res, err := sc.ScanFolder(ctx, dir)
	if err != nil {
		t.Fatalf("ScanFolder: %v", err)
	}
	if res.FilesScanned != 2 || res.Skipped != 0 || res.Errors != 0 {
		t.Fatalf("result = %+v", res)
	}
	if len(res.Characters) != 1 || res.Characters[0] != "Fen" {
		t.Fatalf("characters = %v", res.Characters)
	}
	if res.EventsFound == 0 || res.LinesParsed != 7 {
		t.Fatalf("lines/events = %d/%d", res.LinesParsed, res.EventsFound)
	}

	c, err := st.GetCharacterByName(ctx, "Fen")
	if err != nil {
		t.Fatalf("GetCharacterByName: %v", err)
	}
	if c.Logins != 2 {
		t.Fatalf("Logins = %d, want one per file", c.Logins)
	}
	if c.CoinsPickedUp != 37 {
		t.Fatalf("CoinsPickedUp = %d", c.CoinsPickedUp)
	}
	if c.StartDate != "2025-03-01 18:00:00" {
		t.Fatalf("StartDate = %q", c.StartDate)
	}

	kills, err := st.ListKills(ctx, c.ID)
	if err != nil {
		t.Fatalf("ListKills: %v", err)
	}
	if len(kills) != 1 || kills[0].CreatureName != "Orga Warrior" {
		t.Fatalf("kills = %+v", kills)
	}
	if kills[0].Killed != 1 || kills[0].Slaughtered != 1 {
		t.Fatalf("kill counts = %+v", kills[0])
	}

	trainers, err := st.ListTrainers(ctx, c.ID)
	if err != nil {
		t.Fatalf("ListTrainers: %v", err)
	}
	if len(trainers) != 1 || trainers[0].TrainerName != "Farly Buff" || trainers[0].Ranks != 2 {
		t.Fatalf("trainers = %+v", trainers)
	}
	// Farly Buff is a Ranger trainer and no announcement overrode it.
	if c.Profession != model.ProfessionRanger {
		t.Fatalf("Profession = %q", c.Profession)
	}
	if c.CoinLevel != 2 {
		t.Fatalf("CoinLevel = %d", c.CoinLevel)
	}
}

func TestScanFolderDedup(t *testing.T) {
	ctx := context.Background()
	sc, st := newTestScanner(t, Options{})
	dir := fenFolder(t)

	if _, err := sc.ScanFolder(ctx, dir); err != nil {
		t.Fatalf("first scan: %v", err)
	}
	res, err := sc.ScanFolder(ctx, dir)
	if err != nil {
		t.Fatalf("second scan: %v", err)
	}
	if res.FilesScanned != 0 || res.Skipped != 2 {
		t.Fatalf("second scan result = %+v", res)
	}

	c, err := st.GetCharacterByName(ctx, "Fen")
	if err != nil {
		t.Fatalf("GetCharacterByName: %v", err)
	}
	if c.Logins != 2 {
		t.Fatalf("Logins after re-scan = %d, want unchanged 2", c.Logins)
	}
}

func TestScanRenamedFileDedup(t *testing.T) {
	ctx := context.Background()
	sc, st := newTestScanner(t, Options{})
	dir := fenFolder(t)

	if _, err := sc.ScanFolder(ctx, dir); err != nil {
		t.Fatalf("first scan: %v", err)
	}
	// Same content under a new name: the path check misses but the
	// fingerprint catches it.
	src := filepath.Join(dir, "CL Log 2025-03-01.txt")
	raw, err := os.ReadFile(src)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "CL Log 2025-03-03.txt"), raw, 0o644); err != nil {
		t.Fatalf("write copy: %v", err)
	}

	res, err := sc.ScanFolder(ctx, dir)
	if err != nil {
		t.Fatalf("second scan: %v", err)
	}
	if res.FilesScanned != 0 || res.Skipped != 3 {
		t.Fatalf("second scan result = %+v", res)
	}

	c, err := st.GetCharacterByName(ctx, "Fen")
	if err != nil {
		t.Fatalf("GetCharacterByName: %v", err)
	}
	if c.Logins != 2 {
		t.Fatalf("Logins = %d, duplicate content leaked through", c.Logins)
	}
}

func TestScanForceConverges(t *testing.T) {
	ctx := context.Background()
	sc, st := newTestScanner(t, Options{})
	dir := fenFolder(t)

	if _, err := sc.ScanFolder(ctx, dir); err != nil {
		t.Fatalf("first scan: %v", err)
	}

	forced, err := New(st, nil, Options{Force: true})
	if err != nil {
		t.Fatalf("New forced: %v", err)
	}
	res, err := forced.ScanFolder(ctx, dir)
	if err != nil {
		t.Fatalf("forced scan: %v", err)
	}
	if res.FilesScanned != 2 {
		t.Fatalf("forced result = %+v", res)
	}

	c, err := st.GetCharacterByName(ctx, "Fen")
	if err != nil {
		t.Fatalf("GetCharacterByName: %v", err)
	}
	if c.Logins != 2 || c.CoinsPickedUp != 37 {
		t.Fatalf("counters after forced re-scan = %+v, want identical totals", c)
	}
	kills, err := st.ListKills(ctx, c.ID)
	if err != nil {
		t.Fatalf("ListKills: %v", err)
	}
	if len(kills) != 1 || kills[0].Killed != 1 || kills[0].Slaughtered != 1 {
		t.Fatalf("kills after forced re-scan = %+v", kills)
	}
}

func TestScanFilesNameResolution(t *testing.T) {
	ctx := context.Background()
	sc, st := newTestScanner(t, Options{})

	root := t.TempDir()
	named := writeLog(t, root, "CL Log 2025-04-01.txt",
		"4/1/25 9:00:00a Welcome to Clan Lord, Aldernon!",
		"4/1/25 9:05:00a You killed a Rat.",
	)
	dir := filepath.Join(root, "puddleby jones")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	anon := writeLog(t, dir, "CL Log 2025-04-02.txt",
		"4/2/25 9:00:00a You killed a Rat.",
	)

	res, err := sc.ScanFiles(ctx, []string{named, anon})
	if err != nil {
		t.Fatalf("ScanFiles: %v", err)
	}
	if len(res.Characters) != 2 {
		t.Fatalf("characters = %v", res.Characters)
	}

	if _, err := st.GetCharacterByName(ctx, "Aldernon"); err != nil {
		t.Fatalf("welcome-named character missing: %v", err)
	}
	// No welcome line, so the parent folder names the character.
	if _, err := st.GetCharacterByName(ctx, "Puddleby Jones"); err != nil {
		t.Fatalf("folder-named character missing: %v", err)
	}
}

func TestScanRecursive(t *testing.T) {
	ctx := context.Background()
	sc, st := newTestScanner(t, Options{})

	root := t.TempDir()
	for _, sub := range []string{"chars/fen", "chars/aldernon", "CL_Movies", ".trash/old"} {
		if err := os.MkdirAll(filepath.Join(root, sub), 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", sub, err)
		}
	}
	writeLog(t, filepath.Join(root, "chars/fen"), "CL Log 2025-03-01.txt",
		"3/1/25 6:00:00p Welcome to Clan Lord, Fen!",
		"3/1/25 6:05:00p You killed a Rat.",
	)
	writeLog(t, filepath.Join(root, "chars/aldernon"), "CL Log 2025-03-01.txt",
		"3/1/25 6:00:00p Welcome to Clan Lord, Aldernon!",
	)
	writeLog(t, filepath.Join(root, "CL_Movies"), "CL Log 2025-03-01.txt",
		"3/1/25 6:00:00p Welcome to Clan Lord, Nobody!",
	)
	writeLog(t, filepath.Join(root, ".trash/old"), "CL Log 2025-03-01.txt",
		"3/1/25 6:00:00p Welcome to Clan Lord, Ghost!",
	)

	res, err := sc.ScanRecursive(ctx, root)
	if err != nil {
		t.Fatalf("ScanRecursive: %v", err)
	}
	if len(res.Characters) != 2 {
		t.Fatalf("characters = %v", res.Characters)
	}
	if res.Characters[0] != "Aldernon" || res.Characters[1] != "Fen" {
		t.Fatalf("characters = %v", res.Characters)
	}
	if _, err := st.GetCharacterByName(ctx, "Nobody"); err == nil {
		t.Fatalf("movie folder was scanned")
	}
	if _, err := st.GetCharacterByName(ctx, "Ghost"); err == nil {
		t.Fatalf("hidden folder was scanned")
	}
}

func TestScanIndexesLines(t *testing.T) {
	ctx := context.Background()
	sc, st := newTestScanner(t, Options{IndexLines: true})
	dir := fenFolder(t)

	if _, err := sc.ScanFolder(ctx, dir); err != nil {
		t.Fatalf("ScanFolder: %v", err)
	}
	c, err := st.GetCharacterByName(ctx, "Fen")
	if err != nil {
		t.Fatalf("GetCharacterByName: %v", err)
	}
	hits, err := st.Search(ctx, "orga", c.ID, 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("hits = %d, want both kill lines indexed", len(hits))
	}
}

func TestScanUnreadableFileCounted(t *testing.T) {
	ctx := context.Background()
	sc, _ := newTestScanner(t, Options{})

	dir := filepath.Join(t.TempDir(), "fen")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	good := writeLog(t, dir, "CL Log 2025-03-01.txt",
		"3/1/25 6:00:00p Welcome to Clan Lord, Fen!",
	)
	missing := filepath.Join(dir, "CL Log 2025-03-02.txt")

	res, err := sc.ScanFiles(ctx, []string{good, missing})
	if err != nil {
		t.Fatalf("ScanFiles: %v", err)
	}
	if res.Errors != 1 || res.FilesScanned != 1 {
		t.Fatalf("result = %+v", res)
	}
}

func TestIsLogFile(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"CL Log 2025-03-01.txt", true},
		{"CL Log old.txt", true},
		{"CL Log 2025-03-01.mov", false},
		{"notes.txt", false},
		{"cl log 2025-03-01.txt", false},
	}
	for _, tt := range tests {
		if got := IsLogFile(tt.name); got != tt.want {
			t.Errorf("IsLogFile(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestScanContinuesPastFailedCommit(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "annalist.db")
	st, err := store.Open(dbPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() {
		if err := st.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	sc, err := New(st, logger, Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// Break kill persistence only. Files without kill events still
	// commit, so a per-file failure must not abort the run.
	raw, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("open raw: %v", err)
	}
	if _, err := raw.ExecContext(ctx, `DROP TABLE kills`); err != nil {
		t.Fatalf("drop kills: %v", err)
	}
	if err := raw.Close(); err != nil {
		t.Fatalf("close raw: %v", err)
	}

	dir := filepath.Join(t.TempDir(), "fen")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	broken := writeLog(t, dir, "CL Log 2025-03-01.txt",
		"3/1/25 6:00:00p Welcome to Clan Lord, Fen!",
		"3/1/25 6:05:00p You killed a Rat.",
	)
	writeLog(t, dir, "CL Log 2025-03-02.txt",
		"3/2/25 7:00:00p Welcome back, Fen!",
		"3/2/25 7:01:00p * You pick up 12 coins.",
	)

	res, err := sc.ScanFolder(ctx, dir)
	if err != nil {
		t.Fatalf("ScanFolder: %v", err)
	}
	if res.Errors != 1 || res.FilesScanned != 1 {
		t.Fatalf("result = %+v, want 1 error and 1 scanned", res)
	}

	c, err := st.GetCharacterByName(ctx, "Fen")
	if err != nil {
		t.Fatalf("GetCharacterByName: %v", err)
	}
	if c.Logins != 1 || c.CoinsPickedUp != 12 {
		t.Fatalf("counters = %+v, want only the clean file applied", c)
	}
	// The failed file left nothing behind and stays unscanned.
	seen, err := st.IsPathScanned(ctx, broken)
	if err != nil {
		t.Fatalf("IsPathScanned: %v", err)
	}
	if seen {
		t.Fatalf("failed file marked scanned")
	}
}

func TestScanFilesFallenNameFallback(t *testing.T) {
	ctx := context.Background()
	sc, st := newTestScanner(t, Options{})

	dir := filepath.Join(t.TempDir(), "shared logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	// No welcome banner; the most frequent fallen subject outranks the
	// folder name.
	path := writeLog(t, dir, "CL Log 2025-05-01.txt",
		"5/1/25 1:00:00p Fen has fallen to a Rat.",
		"5/1/25 1:10:00p Fen has fallen to a Large Vermine.",
		"5/1/25 1:20:00p Aldernon has fallen to a Rat.",
	)

	res, err := sc.ScanFiles(ctx, []string{path})
	if err != nil {
		t.Fatalf("ScanFiles: %v", err)
	}
	if len(res.Characters) != 1 || res.Characters[0] != "Fen" {
		t.Fatalf("characters = %v, want [Fen]", res.Characters)
	}
	if _, err := st.GetCharacterByName(ctx, "Fen"); err != nil {
		t.Fatalf("fallen-named character missing: %v", err)
	}
	if _, err := st.GetCharacterByName(ctx, "Shared Logs"); err == nil {
		t.Fatalf("folder hint used despite fallen majority")
	}
}
