// Package aggregate folds a file's event stream into a model.Delta, the
// single contribution unit the store applies transactionally. The fold is
// pure: it owns no state and touches no storage, which is what lets a force
// re-scan retract a file's exact prior contribution before re-applying.
package aggregate

import (
	"strings"

	"github.com/pyrrhio/annalist/internal/gamedata"
	"github.com/pyrrhio/annalist/internal/model"
	"github.com/pyrrhio/annalist/internal/parse"
)

// Fold builds the Delta for one file's events, attributed to character.
// Events naming a different character (deaths of bystanders, someone else's
// circle test) are skipped for counting.
func Fold(events []parse.Event, character string, creatures *gamedata.CreatureTable) *model.Delta {
	d := &model.Delta{}
	// Every successfully scanned file is one login, banner or not.
	d.Counters.Logins = 1

	// Key of the most recently touched lasty, for the generic completion
	// message that names a trainer but no creature.
	lastLastyKey := ""

	for i := range events {
		ev := &events[i]
		date := ev.Date()

		if d.StartDate == "" && date != "" {
			d.StartDate = date
		}

		switch ev.Kind {
		case parse.KindWelcome, parse.KindReconnect:
			// Banners resolve the name elsewhere; nothing to count.

		case parse.KindSoloKill:
			k := d.Kill(ev.Creature)
			switch ev.Verb {
			case parse.VerbKilled:
				k.Killed++
				k.DateLastKilled = maxDate(k.DateLastKilled, date)
			case parse.VerbSlaughtered:
				k.Slaughtered++
				k.DateLastSlaughtered = maxDate(k.DateLastSlaughtered, date)
			case parse.VerbVanquished:
				k.Vanquished++
				k.DateLastVanquished = maxDate(k.DateLastVanquished, date)
			case parse.VerbDispatched:
				k.Dispatched++
				k.DateLastDispatched = maxDate(k.DateLastDispatched, date)
			}
			touchKillDates(k, date)
			setCreatureValue(k, ev.Creature, creatures)

		case parse.KindAssistedKill:
			k := d.Kill(ev.Creature)
			switch ev.Verb {
			case parse.VerbKilled:
				k.AssistedKill++
			case parse.VerbSlaughtered:
				k.AssistedSlaughter++
			case parse.VerbVanquished:
				k.AssistedVanquish++
			case parse.VerbDispatched:
				k.AssistedDispatch++
			}
			touchKillDates(k, date)
			setCreatureValue(k, ev.Creature, creatures)

		case parse.KindFallen:
			if !strings.EqualFold(ev.Name, character) {
				continue
			}
			d.Counters.Deaths++
			k := d.Kill(ev.Creature)
			k.KilledBy++
			touchKillDates(k, date)
			setCreatureValue(k, ev.Creature, creatures)

		case parse.KindFirstDepart:
			if d.DepartsAbsolute < 1 {
				d.DepartsAbsolute = 1
			}

		case parse.KindDepartCount:
			if ev.Count > d.DepartsAbsolute {
				d.DepartsAbsolute = ev.Count
			}

		case parse.KindCoinsPickedUp:
			d.Counters.CoinsPickedUp += ev.Amount

		case parse.KindLoot:
			switch ev.LootType {
			case parse.LootFur:
				d.Counters.FurCoins += ev.Amount
				d.Counters.FurWorth += ev.Worth
			case parse.LootBlood:
				d.Counters.BloodCoins += ev.Amount
				d.Counters.BloodWorth += ev.Worth
			case parse.LootMandible:
				d.Counters.MandibleCoins += ev.Amount
				d.Counters.MandibleWorth += ev.Worth
			default:
				d.Counters.BountyCoins += ev.Amount
			}

		case parse.KindStudyCharge:
			d.Counters.ChestCoins += ev.Amount

		case parse.KindBellUsed:
			d.Counters.BellsUsed++
		case parse.KindBellBroken:
			d.Counters.BellsBroken++
		case parse.KindChainUsed:
			d.Counters.ChainsUsed++
		case parse.KindChainBroken:
			d.Counters.ChainsBroken++
		case parse.KindShieldstoneUsed:
			d.Counters.ShieldstonesUsed++
		case parse.KindShieldstoneBroken:
			d.Counters.ShieldstonesBroken++
		case parse.KindPortalOpened:
			d.Counters.EtherealPortals++
		case parse.KindPortalStoneSpent:
			// A spent portal stone both opened a portal and broke.
			d.Counters.EtherealPortals++
			d.Counters.PortalStonesBroken++

		case parse.KindKarma:
			if ev.Good {
				d.Counters.GoodKarma++
			} else {
				d.Counters.BadKarma++
			}

		case parse.KindEsteem:
			d.Counters.Esteem++

		case parse.KindUntrained:
			d.Counters.Untrainings++

		case parse.KindProfession:
			if strings.EqualFold(ev.Name, character) {
				d.Profession = ev.Profession
			}

		case parse.KindTrainerRank:
			t := d.Trainer(ev.Trainer)
			t.Ranks++
			t.DateOfLastRank = maxDate(t.DateOfLastRank, date)

		case parse.KindApplyLearning:
			if !strings.EqualFold(ev.Name, character) {
				continue
			}
			t := d.Trainer(ev.Trainer)
			if ev.Full {
				t.ApplyLearningRanks += 10
			} else {
				t.ApplyLearningUnknownCount++
			}
			t.DateOfLastRank = maxDate(t.DateOfLastRank, date)

		case parse.KindLastyBegin, parse.KindLastyProgress:
			l := d.Lasty(ev.Creature, ev.LastyType)
			l.MessageCount++
			touchLastyDates(l, date)
			// Studying again after an abandon restarts the cycle.
			if l.Status == model.LastyStatusAbandoned {
				l.Status = model.LastyStatusRestarted
				l.AbandonedDate = ""
			}
			lastLastyKey = model.LastyKey(ev.Creature, ev.LastyType)

		case parse.KindLastyFinished:
			l := d.Lasty(ev.Creature, ev.LastyType)
			l.MessageCount++
			touchLastyDates(l, date)
			l.Status = model.LastyStatusFinished
			l.CompletedDate = date
			l.AbandonedDate = ""
			if ev.LastyType == model.LastyBefriend {
				d.Pets = append(d.Pets, ev.Creature)
			}
			lastLastyKey = model.LastyKey(ev.Creature, ev.LastyType)

		case parse.KindLastyAbandon:
			// The abandon line names no study type; it ends every
			// unfinished study of the creature, both in this delta and
			// in previously stored records.
			if d.LastyAbandons == nil {
				d.LastyAbandons = make(map[string]string)
			}
			d.LastyAbandons[ev.Creature] = date
			for key, l := range d.Lastys {
				if model.LastyKeyCreature(key) == ev.Creature && l.Status != model.LastyStatusFinished {
					l.Status = model.LastyStatusAbandoned
					l.AbandonedDate = date
				}
			}

		case parse.KindLastyCompleted:
			// The completion line names the trainer, not the creature.
			// Prefer the study most recently touched in this file; fall
			// back to the store resolving against prior records.
			if l, ok := d.Lastys[lastLastyKey]; ok && l.Status != model.LastyStatusFinished {
				l.Status = model.LastyStatusFinished
				l.CompletedDate = date
				l.AbandonedDate = ""
			} else {
				d.LastyCompletions++
			}
		}
	}

	return d
}

func touchKillDates(k *model.KillDelta, date string) {
	k.DateFirst = minDate(k.DateFirst, date)
	k.DateLast = maxDate(k.DateLast, date)
}

func touchLastyDates(l *model.LastyDelta, date string) {
	l.FirstSeenDate = minDate(l.FirstSeenDate, date)
	l.LastSeenDate = maxDate(l.LastSeenDate, date)
}

func setCreatureValue(k *model.KillDelta, creature string, creatures *gamedata.CreatureTable) {
	if k.CreatureValue != 0 || creatures == nil {
		return
	}
	if v, ok := creatures.Value(creature); ok {
		k.CreatureValue = v
	}
}

// Stored dates sort lexicographically, so min/max folds are string compares.
func minDate(cur, next string) string {
	if next == "" {
		return cur
	}
	if cur == "" || next < cur {
		return next
	}
	return cur
}

func maxDate(cur, next string) string {
	if next > cur {
		return next
	}
	return cur
}
