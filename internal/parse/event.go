// Package parse turns decoded Clan Lord log lines into typed events.
//
// Classification is an ordered rule list: the first matching pattern wins and
// no line ever yields more than one event. The order matters in a few places,
// called out inline in classify.go.
package parse

import (
	"time"

	"github.com/pyrrhio/annalist/internal/model"
)

// EventKind tags what a classified line means.
type EventKind uint8

const (
	KindNone EventKind = iota

	// KindWelcome and KindReconnect carry the character name in Name.
	KindWelcome
	KindReconnect

	// KindSoloKill and KindAssistedKill carry Creature and Verb.
	KindSoloKill
	KindAssistedKill

	// KindFallen carries the fallen Name and the Creature that caused it.
	// A bare "X has fallen." reconnect line never produces this.
	KindFallen

	KindFirstDepart
	// KindDepartCount carries the cumulative count in Count.
	KindDepartCount

	// KindCoinsPickedUp carries Amount.
	KindCoinsPickedUp
	// KindLoot carries LootType, Worth (full item value) and Amount (what
	// the character actually received; equal to Worth on a solo recovery).
	KindLoot
	// KindStudyCharge carries Amount.
	KindStudyCharge

	KindBellUsed
	KindBellBroken
	KindChainUsed
	KindChainBroken
	KindShieldstoneUsed
	KindShieldstoneBroken
	KindPortalOpened
	KindPortalStoneSpent

	// KindKarma carries Good.
	KindKarma
	KindEsteem
	KindUntrained

	// KindProfession carries the announced Name and Profession.
	KindProfession

	// KindTrainerRank carries Trainer.
	KindTrainerRank
	// KindApplyLearning carries Name (the congratulated character),
	// Trainer, and Full (true for the "much more" confirmation).
	KindApplyLearning

	// Lasty kinds carry Creature and LastyType, except KindLastyCompleted
	// (Trainer only, closes the most recent open study) and
	// KindLastyAbandon (Creature only, the message names no study type).
	KindLastyBegin
	KindLastyProgress
	KindLastyFinished
	KindLastyAbandon
	KindLastyCompleted
)

// KillVerb is the verb the game used for a kill message.
type KillVerb uint8

const (
	VerbKilled KillVerb = iota
	VerbSlaughtered
	VerbVanquished
	VerbDispatched
)

// LootType distinguishes the three harvestable loot kinds.
type LootType uint8

const (
	LootFur LootType = iota
	LootBlood
	LootMandible
	LootOther
)

// Event is one classified log line. Only the fields relevant to Kind are
// set; see the kind constants for which.
type Event struct {
	Kind EventKind

	// When is the line's timestamp; HasTime is false for lines without
	// the leading date prefix.
	When    time.Time
	HasTime bool

	Name     string
	Creature string
	Trainer  string

	Verb     KillVerb
	LootType LootType

	Amount int64
	Worth  int64
	Count  int64

	Good bool
	Full bool

	LastyType  model.LastyType
	Profession model.Profession
}

// DateLayout is the canonical stored form of log timestamps.
const DateLayout = "2006-01-02 15:04:05"

// Date returns the event timestamp in stored form, or "" without one.
func (e *Event) Date() string {
	if !e.HasTime {
		return ""
	}
	return e.When.Format(DateLayout)
}
