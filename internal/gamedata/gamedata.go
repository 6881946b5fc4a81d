// Package gamedata bundles the static trainer and creature tables the
// scanner and rank model depend on. Tables are embedded at build time and
// loaded once; lookups are read-only and safe for concurrent use.
package gamedata

import (
	"embed"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
)

//go:embed data/trainers.toml data/creatures.toml
var dataFS embed.FS

// Trainer describes one trainer: the study phrases that credit it, its
// profession category, and how its ranks weigh into effective totals.
type Trainer struct {
	Name       string   `toml:"name"`
	Profession string   `toml:"profession"`
	Multiplier float64  `toml:"multiplier"`
	Combo      []string `toml:"combo"`
	Phrases    []string `toml:"phrases"`
}

// IsCombo reports whether the trainer's ranks decompose into component
// trainers.
func (t Trainer) IsCombo() bool { return len(t.Combo) > 0 }

// TrainerTable answers phrase and metadata lookups for the bundled trainers.
type TrainerTable struct {
	byPhrase map[string]string
	byName   map[string]Trainer
}

type trainerFile struct {
	Trainers []Trainer `toml:"trainers"`
}

// TrainerForPhrase resolves a system line body to a trainer name. Exact
// match first, then with the trailing period added or removed, since a few
// bundled phrases historically carried inconsistent punctuation.
func (tt *TrainerTable) TrainerForPhrase(body string) (string, bool) {
	trimmed := strings.TrimSpace(body)
	if name, ok := tt.byPhrase[trimmed]; ok {
		return name, true
	}
	if cut, ok := strings.CutSuffix(trimmed, "."); ok {
		if name, ok := tt.byPhrase[cut]; ok {
			return name, true
		}
	} else if name, ok := tt.byPhrase[trimmed+"."]; ok {
		return name, true
	}
	return "", false
}

// Profession returns the trainer's profession category, or "" for an
// unknown trainer. Categories include the six classes plus Language, Arts
// and Trades.
func (tt *TrainerTable) Profession(name string) string {
	return tt.byName[name].Profession
}

// Multiplier returns the trainer's effective rank multiplier, defaulting
// to 1.0.
func (tt *TrainerTable) Multiplier(name string) float64 {
	if t, ok := tt.byName[name]; ok && t.Multiplier != 0 {
		return t.Multiplier
	}
	return 1.0
}

// ComboComponents returns the component trainer names for a combo trainer,
// or nil.
func (tt *TrainerTable) ComboComponents(name string) []string {
	return tt.byName[name].Combo
}

// Lookup returns the full trainer record by name.
func (tt *TrainerTable) Lookup(name string) (Trainer, bool) {
	t, ok := tt.byName[name]
	return t, ok
}

// All returns every trainer sorted by name.
func (tt *TrainerTable) All() []Trainer {
	out := make([]Trainer, 0, len(tt.byName))
	for _, t := range tt.byName {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Len returns the number of known study phrases.
func (tt *TrainerTable) Len() int { return len(tt.byPhrase) }

// CreatureTable answers creature kill value lookups.
type CreatureTable struct {
	values map[string]int64
}

type creatureFile struct {
	Values map[string]int64 `toml:"values"`
}

// Value returns a creature's kill value. Names with a "the " prefix fall
// back to the bare name when no boss entry exists.
func (ct *CreatureTable) Value(name string) (int64, bool) {
	if v, ok := ct.values[name]; ok {
		return v, true
	}
	if bare, ok := strings.CutPrefix(name, "the "); ok {
		if v, ok := ct.values[bare]; ok {
			return v, true
		}
	}
	return 0, false
}

// Names returns every creature name sorted.
func (ct *CreatureTable) Names() []string {
	out := make([]string, 0, len(ct.values))
	for name := range ct.values {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of creature entries.
func (ct *CreatureTable) Len() int { return len(ct.values) }

var (
	loadOnce  sync.Once
	trainers  *TrainerTable
	creatures *CreatureTable
	loadErr   error
)

func load() {
	trainers, loadErr = loadTrainers()
	if loadErr != nil {
		return
	}
	creatures, loadErr = loadCreatures()
}

func loadTrainers() (*TrainerTable, error) {
	raw, err := dataFS.ReadFile("data/trainers.toml")
	if err != nil {
		return nil, err
	}
	var f trainerFile
	if err := toml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("gamedata: decode trainers: %w", err)
	}
	tt := &TrainerTable{
		byPhrase: make(map[string]string),
		byName:   make(map[string]Trainer),
	}
	for _, t := range f.Trainers {
		if t.Name == "" {
			return nil, fmt.Errorf("gamedata: trainer entry without a name")
		}
		tt.byName[t.Name] = t
		for _, p := range t.Phrases {
			phrase := strings.TrimSpace(p)
			if phrase == "" {
				continue
			}
			if prev, dup := tt.byPhrase[phrase]; dup && prev != t.Name {
				return nil, fmt.Errorf("gamedata: phrase %q claimed by %s and %s", phrase, prev, t.Name)
			}
			tt.byPhrase[phrase] = t.Name
		}
	}
	return tt, nil
}

func loadCreatures() (*CreatureTable, error) {
	raw, err := dataFS.ReadFile("data/creatures.toml")
	if err != nil {
		return nil, err
	}
	var f creatureFile
	if err := toml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("gamedata: decode creatures: %w", err)
	}
	return &CreatureTable{values: f.Values}, nil
}

// Trainers returns the bundled trainer table.
func Trainers() (*TrainerTable, error) {
	loadOnce.Do(load)
	return trainers, loadErr
}

// Creatures returns the bundled creature table.
func Creatures() (*CreatureTable, error) {
	loadOnce.Do(load)
	return creatures, loadErr
}
