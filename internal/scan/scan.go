// Package scan discovers Clan Lord log files, runs them through the decode
// and extraction pipeline, and commits each file's contribution to the
// store. Parsing is parallel; commits are serialized in chronological file
// order so date folds behave.
package scan

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pyrrhio/annalist/internal/aggregate"
	"github.com/pyrrhio/annalist/internal/encoding"
	"github.com/pyrrhio/annalist/internal/gamedata"
	"github.com/pyrrhio/annalist/internal/model"
	"github.com/pyrrhio/annalist/internal/parse"
	"github.com/pyrrhio/annalist/internal/rank"
	"github.com/pyrrhio/annalist/internal/resolve"
	"github.com/pyrrhio/annalist/internal/store"
)

// moviesDir is the client's movie capture folder; its files are not logs.
const moviesDir = "CL_Movies"

// ProgressFunc receives per-file progress. Called from the commit loop and
// may be nil.
type ProgressFunc func(path string, done, total int)

// Options controls a scan run.
type Options struct {
	// Force re-processes files whose content was already scanned,
	// retracting the prior contribution first.
	Force bool

	// Workers bounds parallel file parsing. Zero means GOMAXPROCS.
	Workers int

	// IndexLines feeds decoded lines into the full-text index.
	IndexLines bool

	Progress ProgressFunc
}

// Result summarizes one scan run.
type Result struct {
	Characters   []string
	FilesScanned int
	Skipped      int
	LinesParsed  int64
	EventsFound  int64
	Errors       int
}

// Scanner runs log files through decoding, extraction and aggregation.
type Scanner struct {
	store     *store.Store
	extractor *parse.Extractor
	creatures *gamedata.CreatureTable
	trainers  *gamedata.TrainerTable
	log       *slog.Logger
	opts      Options
}

// New builds a Scanner backed by the embedded game data tables.
func New(st *store.Store, logger *slog.Logger, opts Options) (*Scanner, error) {
	trainers, err := gamedata.Trainers()
	if err != nil {
		return nil, err
	}
	creatures, err := gamedata.Creatures()
	if err != nil {
		return nil, err
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{
		store:     st,
		extractor: parse.NewExtractor(trainers),
		creatures: creatures,
		trainers:  trainers,
		log:       logger,
		opts:      opts,
	}, nil
}

// parsedFile is the outcome of decoding and extracting one log file.
type parsedFile struct {
	path        string
	fingerprint string
	lines       int64
	events      []parse.Event
	indexed     []store.IndexedLine
	firstDate   string
	err         error
}

// ScanFolder processes one character's log folder. The character name comes
// from a welcome line in the earliest files, falling back to the folder
// name.
func (sc *Scanner) ScanFolder(ctx context.Context, dir string) (*Result, error) {
	files, err := logFilesIn(dir)
	if err != nil {
		return nil, err
	}
	res := &Result{}
	if err := sc.scanCharacterFolder(ctx, dir, files, res); err != nil {
		return nil, err
	}
	return res, nil
}

// ScanFiles processes individual log files. Each file resolves its own
// character: a welcome line inside it, else the parent folder name, else
// Unknown.
func (sc *Scanner) ScanFiles(ctx context.Context, paths []string) (*Result, error) {
	res := &Result{}
	sorted := append([]string(nil), paths...)
	sort.Strings(sorted)

	var work []string
	for _, path := range sorted {
		if !sc.opts.Force {
			seen, err := sc.store.IsPathScanned(ctx, path)
			if err != nil {
				return nil, err
			}
			if seen {
				res.Skipped++
				continue
			}
		}
		work = append(work, path)
	}

	parsed, err := sc.parseAll(ctx, work)
	if err != nil {
		return nil, err
	}

	seenNames := make(map[string]bool)
	for i, pf := range parsed {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if pf.err != nil {
			sc.log.Warn("skipping unreadable log", "path", pf.path, "err", pf.err)
			res.Errors++
			continue
		}
		hint := filepath.Base(filepath.Dir(pf.path))
		if hint == "." || hint == string(filepath.Separator) {
			hint = ""
		}
		name := resolve.Name(pf.events, hint)
		if err := sc.commit(ctx, name, pf, res); err != nil {
			if ctx.Err() != nil {
				return nil, err
			}
			sc.log.Warn("failed to record log", "path", pf.path, "err", err)
			res.Errors++
			continue
		}
		seenNames[name] = true
		if sc.opts.Progress != nil {
			sc.opts.Progress(pf.path, i+1, len(parsed))
		}
	}

	for name := range seenNames {
		if err := sc.finalize(ctx, name); err != nil {
			return nil, err
		}
		res.Characters = append(res.Characters, name)
	}
	sort.Strings(res.Characters)
	return res, nil
}

// ScanRecursive walks a directory tree and scans every character folder it
// finds. A character folder is a directory that directly contains log
// files. Hidden directories and the movie capture folder are skipped, and
// the walk does not descend past a folder that already holds logs.
func (sc *Scanner) ScanRecursive(ctx context.Context, root string) (*Result, error) {
	folders, err := discoverLogFolders(root)
	if err != nil {
		return nil, err
	}
	res := &Result{}
	for _, dir := range folders {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		files, err := logFilesIn(dir)
		if err != nil {
			sc.log.Warn("skipping unreadable folder", "dir", dir, "err", err)
			res.Errors++
			continue
		}
		if err := sc.scanCharacterFolder(ctx, dir, files, res); err != nil {
			return nil, err
		}
	}
	sort.Strings(res.Characters)
	return res, nil
}

func (sc *Scanner) scanCharacterFolder(ctx context.Context, dir string, files []string, res *Result) error {
	var work []string
	for _, path := range files {
		if !sc.opts.Force {
			seen, err := sc.store.IsPathScanned(ctx, path)
			if err != nil {
				return err
			}
			if seen {
				res.Skipped++
				continue
			}
		}
		work = append(work, path)
	}

	parsed, err := sc.parseAll(ctx, work)
	if err != nil {
		return err
	}

	// Earliest files carry the welcome line naming the character, with
	// the folder name as the last fallback.
	var events []parse.Event
	for _, pf := range parsed {
		if pf.err == nil {
			events = append(events, pf.events...)
		}
	}
	name := resolve.Name(events, filepath.Base(dir))

	committed := false
	for i, pf := range parsed {
		if err := ctx.Err(); err != nil {
			return err
		}
		if pf.err != nil {
			sc.log.Warn("skipping unreadable log", "path", pf.path, "err", pf.err)
			res.Errors++
			continue
		}
		if err := sc.commit(ctx, name, pf, res); err != nil {
			if ctx.Err() != nil {
				return err
			}
			sc.log.Warn("failed to record log", "path", pf.path, "err", err)
			res.Errors++
			continue
		}
		committed = true
		if sc.opts.Progress != nil {
			sc.opts.Progress(pf.path, i+1, len(parsed))
		}
	}

	if committed {
		if err := sc.finalize(ctx, name); err != nil {
			return err
		}
		res.Characters = append(res.Characters, name)
	}
	return nil
}

// parseAll decodes and extracts files in parallel, preserving input order.
func (sc *Scanner) parseAll(ctx context.Context, paths []string) ([]*parsedFile, error) {
	parsed := make([]*parsedFile, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(sc.opts.Workers)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			parsed[i] = sc.parseFile(path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return parsed, nil
}

func (sc *Scanner) parseFile(path string) *parsedFile {
	pf := &parsedFile{path: path}
	raw, err := os.ReadFile(path)
	if err != nil {
		pf.err = err
		return pf
	}
	sum := sha256.Sum256(raw)
	pf.fingerprint = hex.EncodeToString(sum[:])

	text := encoding.Decode(raw)
	for _, line := range encoding.Lines(text) {
		if line == "" {
			continue
		}
		pf.lines++
		ts, _, hasTime := parse.SplitTimestamp(line)
		date := ""
		if hasTime {
			date = ts.Format(parse.DateLayout)
			if pf.firstDate == "" {
				pf.firstDate = date
			}
		}
		if sc.opts.IndexLines {
			pf.indexed = append(pf.indexed, store.IndexedLine{Content: line, Date: date})
		}
		if ev, ok := sc.extractor.ParseLine(line); ok {
			pf.events = append(pf.events, ev)
		}
	}
	return pf
}

// commit applies one parsed file's contribution in a single store
// transaction, so counters and the guarding scan record land together.
// Content already scanned is skipped, or retracted and replaced when
// forcing.
func (sc *Scanner) commit(ctx context.Context, name string, pf *parsedFile, res *Result) error {
	sm := &store.ScanCommit{}
	seen, err := sc.store.IsFingerprintScanned(ctx, pf.fingerprint)
	if err != nil {
		return err
	}
	if seen {
		if !sc.opts.Force {
			res.Skipped++
			return nil
		}
		prev, contribution, err := sc.store.GetScannedFile(ctx, pf.fingerprint)
		if err != nil {
			return err
		}
		sm.PrevCharacterID = prev.CharacterID
		sm.PrevDelta = contribution
	}

	charID, err := sc.store.GetOrCreateCharacter(ctx, name)
	if err != nil {
		return err
	}

	delta := aggregate.Fold(pf.events, name, sc.creatures)
	if delta.StartDate == "" {
		// No event carried a timestamp; the file's first dated line
		// still anchors the character's start.
		delta.StartDate = pf.firstDate
	}
	sm.File = &model.ScannedFile{
		CharacterID: charID,
		Path:        pf.path,
		Fingerprint: pf.fingerprint,
		ScannedAt:   time.Now().UTC().Format(parse.DateLayout),
		Lines:       pf.lines,
		Events:      int64(len(pf.events)),
	}
	sm.Delta = delta
	if sc.opts.IndexLines {
		sm.Lines = pf.indexed
	}
	if err := sc.store.CommitScan(ctx, sm); err != nil {
		return err
	}

	res.FilesScanned++
	res.LinesParsed += pf.lines
	res.EventsFound += int64(len(pf.events))
	return nil
}

// finalize derives the profession from trainer data when no announcement
// set it, and refreshes the coin level.
func (sc *Scanner) finalize(ctx context.Context, name string) error {
	c, err := sc.store.GetCharacterByName(ctx, name)
	if err != nil {
		return err
	}
	if c.Profession == model.ProfessionUnknown || c.Profession == "" {
		trainers, err := sc.store.ListTrainers(ctx, c.ID)
		if err != nil {
			return err
		}
		if p := rank.DeriveProfession(trainers, sc.trainers); p != model.ProfessionUnknown {
			if err := sc.store.UpdateProfession(ctx, c.ID, p); err != nil {
				return err
			}
		}
	}
	_, err = sc.store.RecalcCoinLevel(ctx, c.ID)
	return err
}

// IsLogFile reports whether a file name looks like a client log.
func IsLogFile(name string) bool {
	return strings.HasPrefix(name, "CL Log ") && strings.HasSuffix(name, ".txt")
}

// logFilesIn lists log files directly inside dir, sorted by name. Log file
// names embed the date, so lexical order is chronological.
func logFilesIn(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !IsLogFile(e.Name()) {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// discoverLogFolders finds directories that directly contain log files,
// without descending into hidden folders, the movie folder, or below a
// folder that already holds logs.
func discoverLogFolders(root string) ([]string, error) {
	var folders []string
	var walk func(dir string) error
	walk = func(dir string) error {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return err
		}
		hasLogs := false
		for _, e := range entries {
			if !e.IsDir() && IsLogFile(e.Name()) {
				hasLogs = true
				break
			}
		}
		if hasLogs {
			folders = append(folders, dir)
			return nil
		}
		for _, e := range entries {
			if !e.IsDir() {
				continue
			}
			name := e.Name()
			if strings.HasPrefix(name, ".") || name == moviesDir {
				continue
			}
			if err := walk(filepath.Join(dir, name)); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(root); err != nil {
		return nil, err
	}
	sort.Strings(folders)
	return folders, nil
}
