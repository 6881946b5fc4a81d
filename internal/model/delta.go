package model

import "strings"

// Delta is the full contribution of one source (a scanned file or a merge
// snapshot) to a character's persistent state. Deltas are applied inside a
// single transaction, and the stored JSON form is what makes force re-scans
// and unmerges retractable: retracting applies the negation.
//
// Counter fields and per-record counts invert exactly. Date fields and
// terminal statuses are monotone folds (min/max or sticky) and are left in
// place by a retraction; re-applying the same content converges to the same
// state either way.
type Delta struct {
	Counters CounterDelta `json:"counters"`

	// DepartsAbsolute carries the cumulative count from a "spirit has
	// departed your body N times" line. Applied as max(current, N).
	DepartsAbsolute int64 `json:"departs_absolute,omitempty"`

	// StartDate is the earliest timestamp observed in the source,
	// min-folded into the character's start date.
	StartDate string `json:"start_date,omitempty"`

	// Profession is set by a direct in-game announcement and wins over
	// trainer-derived detection. Empty means no announcement seen.
	Profession Profession `json:"profession,omitempty"`

	Kills    map[string]*KillDelta    `json:"kills,omitempty"`
	Trainers map[string]*TrainerDelta `json:"trainers,omitempty"`
	Lastys   map[string]*LastyDelta   `json:"lastys,omitempty"`

	// Pets lists creature names befriended in this source.
	Pets []string `json:"pets,omitempty"`

	// LastyAbandons maps creature name to abandon date. The abandon
	// message names no study type, so it applies to every unfinished lasty
	// of that creature. Applied before per-key statuses so a later restart
	// in the same source wins.
	LastyAbandons map[string]string `json:"lasty_abandons,omitempty"`

	// LastyCompletions counts "completed your training" events; each one
	// marks the most recently touched unfinished lasty finished.
	LastyCompletions int64 `json:"lasty_completions,omitempty"`
}

// CounterDelta mirrors the Character counter columns as increments.
type CounterDelta struct {
	Logins  int64 `json:"logins,omitempty"`
	Departs int64 `json:"departs,omitempty"`
	Deaths  int64 `json:"deaths,omitempty"`
	Esteem  int64 `json:"esteem,omitempty"`

	CoinsPickedUp int64 `json:"coins_picked_up,omitempty"`
	ChestCoins    int64 `json:"chest_coins,omitempty"`
	BountyCoins   int64 `json:"bounty_coins,omitempty"`
	CasinoWon     int64 `json:"casino_won,omitempty"`
	CasinoLost    int64 `json:"casino_lost,omitempty"`
	FurCoins      int64 `json:"fur_coins,omitempty"`
	MandibleCoins int64 `json:"mandible_coins,omitempty"`
	BloodCoins    int64 `json:"blood_coins,omitempty"`
	FurWorth      int64 `json:"fur_worth,omitempty"`
	MandibleWorth int64 `json:"mandible_worth,omitempty"`
	BloodWorth    int64 `json:"blood_worth,omitempty"`

	BellsUsed          int64 `json:"bells_used,omitempty"`
	BellsBroken        int64 `json:"bells_broken,omitempty"`
	ChainsUsed         int64 `json:"chains_used,omitempty"`
	ChainsBroken       int64 `json:"chains_broken,omitempty"`
	ShieldstonesUsed   int64 `json:"shieldstones_used,omitempty"`
	ShieldstonesBroken int64 `json:"shieldstones_broken,omitempty"`
	EtherealPortals    int64 `json:"ethereal_portals,omitempty"`
	PortalStonesBroken int64 `json:"portal_stones_broken,omitempty"`

	GoodKarma   int64 `json:"good_karma,omitempty"`
	BadKarma    int64 `json:"bad_karma,omitempty"`
	Untrainings int64 `json:"untrainings,omitempty"`
}

// KillDelta holds per-creature kill counter increments.
type KillDelta struct {
	Killed      int64 `json:"killed,omitempty"`
	Slaughtered int64 `json:"slaughtered,omitempty"`
	Vanquished  int64 `json:"vanquished,omitempty"`
	Dispatched  int64 `json:"dispatched,omitempty"`

	AssistedKill      int64 `json:"assisted_kill,omitempty"`
	AssistedSlaughter int64 `json:"assisted_slaughter,omitempty"`
	AssistedVanquish  int64 `json:"assisted_vanquish,omitempty"`
	AssistedDispatch  int64 `json:"assisted_dispatch,omitempty"`

	KilledBy int64 `json:"killed_by,omitempty"`

	DateFirst string `json:"date_first,omitempty"`
	DateLast  string `json:"date_last,omitempty"`

	DateLastKilled      string `json:"date_last_killed,omitempty"`
	DateLastSlaughtered string `json:"date_last_slaughtered,omitempty"`
	DateLastVanquished  string `json:"date_last_vanquished,omitempty"`
	DateLastDispatched  string `json:"date_last_dispatched,omitempty"`

	CreatureValue int64 `json:"creature_value,omitempty"`
}

// TrainerDelta holds per-trainer rank increments.
type TrainerDelta struct {
	Ranks                     int64  `json:"ranks,omitempty"`
	ModifiedRanks             int64  `json:"modified_ranks,omitempty"`
	ApplyLearningRanks        int64  `json:"apply_learning_ranks,omitempty"`
	ApplyLearningUnknownCount int64  `json:"apply_learning_unknown_count,omitempty"`
	DateOfLastRank            string `json:"date_of_last_rank,omitempty"`
}

// Lasty status transitions carried by a LastyDelta. The value is the net
// status after the source's own lines have been folded in order.
const (
	LastyStatusNone      = ""
	LastyStatusFinished  = "finished"
	LastyStatusAbandoned = "abandoned"
	LastyStatusRestarted = "restarted"
)

// LastyDelta holds per-(creature, type) study progress.
type LastyDelta struct {
	LastyType    LastyType `json:"lasty_type"`
	MessageCount int64     `json:"message_count,omitempty"`

	Status string `json:"status,omitempty"`

	FirstSeenDate string `json:"first_seen_date,omitempty"`
	LastSeenDate  string `json:"last_seen_date,omitempty"`
	CompletedDate string `json:"completed_date,omitempty"`
	AbandonedDate string `json:"abandoned_date,omitempty"`
}

// Neg returns the exact counter negation of d. Dates, statuses, professions
// and the departs absolute are dropped: they are monotone and not retracted.
func (d *Delta) Neg() *Delta {
	out := &Delta{Counters: d.Counters.neg()}
	if len(d.Kills) > 0 {
		out.Kills = make(map[string]*KillDelta, len(d.Kills))
		for name, k := range d.Kills {
			out.Kills[name] = &KillDelta{
				Killed:            -k.Killed,
				Slaughtered:       -k.Slaughtered,
				Vanquished:        -k.Vanquished,
				Dispatched:        -k.Dispatched,
				AssistedKill:      -k.AssistedKill,
				AssistedSlaughter: -k.AssistedSlaughter,
				AssistedVanquish:  -k.AssistedVanquish,
				AssistedDispatch:  -k.AssistedDispatch,
				KilledBy:          -k.KilledBy,
				CreatureValue:     k.CreatureValue,
			}
		}
	}
	if len(d.Trainers) > 0 {
		out.Trainers = make(map[string]*TrainerDelta, len(d.Trainers))
		for name, t := range d.Trainers {
			out.Trainers[name] = &TrainerDelta{
				Ranks:                     -t.Ranks,
				ModifiedRanks:             -t.ModifiedRanks,
				ApplyLearningRanks:        -t.ApplyLearningRanks,
				ApplyLearningUnknownCount: -t.ApplyLearningUnknownCount,
			}
		}
	}
	if len(d.Lastys) > 0 {
		out.Lastys = make(map[string]*LastyDelta, len(d.Lastys))
		for key, l := range d.Lastys {
			out.Lastys[key] = &LastyDelta{
				LastyType:    l.LastyType,
				MessageCount: -l.MessageCount,
			}
		}
	}
	return out
}

func (c CounterDelta) neg() CounterDelta {
	return CounterDelta{
		Logins:  -c.Logins,
		Departs: -c.Departs,
		Deaths:  -c.Deaths,
		Esteem:  -c.Esteem,

		CoinsPickedUp: -c.CoinsPickedUp,
		ChestCoins:    -c.ChestCoins,
		BountyCoins:   -c.BountyCoins,
		CasinoWon:     -c.CasinoWon,
		CasinoLost:    -c.CasinoLost,
		FurCoins:      -c.FurCoins,
		MandibleCoins: -c.MandibleCoins,
		BloodCoins:    -c.BloodCoins,
		FurWorth:      -c.FurWorth,
		MandibleWorth: -c.MandibleWorth,
		BloodWorth:    -c.BloodWorth,

		BellsUsed:          -c.BellsUsed,
		BellsBroken:        -c.BellsBroken,
		ChainsUsed:         -c.ChainsUsed,
		ChainsBroken:       -c.ChainsBroken,
		ShieldstonesUsed:   -c.ShieldstonesUsed,
		ShieldstonesBroken: -c.ShieldstonesBroken,
		EtherealPortals:    -c.EtherealPortals,
		PortalStonesBroken: -c.PortalStonesBroken,

		GoodKarma:   -c.GoodKarma,
		BadKarma:    -c.BadKarma,
		Untrainings: -c.Untrainings,
	}
}

// LastyKey builds the map key used for Lastys entries.
func LastyKey(creature string, typ LastyType) string {
	return creature + "\x00" + string(typ)
}

// LastyKeyCreature returns the creature part of a Lastys map key.
func LastyKeyCreature(key string) string {
	if i := strings.IndexByte(key, 0); i >= 0 {
		return key[:i]
	}
	return key
}

// Kill returns the KillDelta for a creature, creating it if needed.
func (d *Delta) Kill(creature string) *KillDelta {
	if d.Kills == nil {
		d.Kills = make(map[string]*KillDelta)
	}
	k, ok := d.Kills[creature]
	if !ok {
		k = &KillDelta{}
		d.Kills[creature] = k
	}
	return k
}

// Trainer returns the TrainerDelta for a trainer, creating it if needed.
func (d *Delta) Trainer(name string) *TrainerDelta {
	if d.Trainers == nil {
		d.Trainers = make(map[string]*TrainerDelta)
	}
	t, ok := d.Trainers[name]
	if !ok {
		t = &TrainerDelta{}
		d.Trainers[name] = t
	}
	return t
}

// Lasty returns the LastyDelta for a (creature, type) pair, creating it if
// needed.
func (d *Delta) Lasty(creature string, typ LastyType) *LastyDelta {
	if d.Lastys == nil {
		d.Lastys = make(map[string]*LastyDelta)
	}
	key := LastyKey(creature, typ)
	l, ok := d.Lastys[key]
	if !ok {
		l = &LastyDelta{LastyType: typ}
		d.Lastys[key] = l
	}
	return l
}
