package parse

import (
	"strconv"
	"strings"

	"github.com/pyrrhio/annalist/internal/model"
)

// TrainerPhrases resolves a sentinel-prefixed message body to the trainer
// whose rank-up it announces.
type TrainerPhrases interface {
	TrainerForPhrase(body string) (string, bool)
}

// Extractor classifies decoded log lines into events.
type Extractor struct {
	trainers TrainerPhrases
}

func NewExtractor(trainers TrainerPhrases) *Extractor {
	return &Extractor{trainers: trainers}
}

// ParseLine splits the timestamp off a raw line and classifies the message.
// Lines the rules do not recognize return ok=false; that is not an error.
func (x *Extractor) ParseLine(line string) (Event, bool) {
	ts, msg, hasTime := SplitTimestamp(line)
	ev, ok := x.Classify(msg)
	if !ok {
		return Event{}, false
	}
	ev.When = ts
	ev.HasTime = hasTime
	return ev, true
}

// Classify matches a message body (timestamp already removed) against the
// rule list. The first matching rule wins.
func (x *Extractor) Classify(msg string) (Event, bool) {
	if msg == "" {
		return Event{}, false
	}

	// Karma, apply-learning confirmations, profession announcements and
	// the untraining confirmation are NPC speech, so they have to be
	// matched before the speech filter. "much more" is checked before
	// "more" since the partial pattern also matches the full text.
	if m := reKarma.FindStringSubmatch(msg); m != nil {
		return Event{Kind: KindKarma, Good: m[1] == "good"}, true
	}
	if m := reApplyFull.FindStringSubmatch(msg); m != nil {
		return Event{Kind: KindApplyLearning, Name: m[1], Trainer: m[2], Full: true}, true
	}
	if m := reApplyPartial.FindStringSubmatch(msg); m != nil {
		return Event{Kind: KindApplyLearning, Name: m[1], Trainer: m[2]}, true
	}
	if m := reCircleTest.FindStringSubmatch(msg); m != nil {
		return Event{Kind: KindProfession, Name: m[1], Profession: normalizeProfession(m[2])}, true
	}
	if m := reBecome.FindStringSubmatch(msg); m != nil {
		return Event{Kind: KindProfession, Name: m[1], Profession: normalizeProfession(m[2])}, true
	}
	if reUntrained.MatchString(msg) {
		return Event{Kind: KindUntrained}, true
	}

	if reSpeech.MatchString(msg) || reEmote.MatchString(msg) {
		return Event{}, false
	}

	if body, ok := stripSentinel(msg); ok {
		return x.classifySystem(body)
	}

	if m := reWelcome.FindStringSubmatch(msg); m != nil {
		return Event{Kind: KindWelcome, Name: m[1]}, true
	}
	if m := reWelcomeBack.FindStringSubmatch(msg); m != nil {
		return Event{Kind: KindReconnect, Name: m[1]}, true
	}

	if m := reSoloKill.FindStringSubmatch(msg); m != nil {
		return Event{Kind: KindSoloKill, Verb: killVerb(m[1]), Creature: StripArticle(m[2])}, true
	}
	if m := reAssistedKill.FindStringSubmatch(msg); m != nil {
		return Event{Kind: KindAssistedKill, Verb: killVerb(m[1]), Creature: StripArticle(m[2])}, true
	}

	if m := reFallen.FindStringSubmatch(msg); m != nil {
		return Event{Kind: KindFallen, Name: m[1], Creature: m[2]}, true
	}
	if reFirstDepart.MatchString(msg) {
		return Event{Kind: KindFirstDepart}, true
	}
	if m := reDepartCount.FindStringSubmatch(msg); m != nil {
		return Event{Kind: KindDepartCount, Count: atoi64(m[1])}, true
	}

	if m := reCoinsPickedUp.FindStringSubmatch(msg); m != nil {
		return Event{Kind: KindCoinsPickedUp, Amount: atoi64(m[1])}, true
	}
	// The share clause is the only thing distinguishing shared from solo
	// loot, so the share pattern runs first.
	if m := reLootShare.FindStringSubmatch(msg); m != nil {
		return Event{
			Kind:     KindLoot,
			Creature: m[1],
			LootType: lootType(m[2]),
			Worth:    atoi64(m[3]),
			Amount:   atoi64(m[4]),
		}, true
	}
	if m := reLootSolo.FindStringSubmatch(msg); m != nil {
		worth := atoi64(m[3])
		return Event{
			Kind:     KindLoot,
			Creature: m[1],
			LootType: lootType(m[2]),
			Worth:    worth,
			Amount:   worth,
		}, true
	}

	if reBellBroken.MatchString(msg) {
		return Event{Kind: KindBellBroken}, true
	}
	if reBellUsed.MatchString(msg) {
		return Event{Kind: KindBellUsed}, true
	}
	if reChainBreak.MatchString(msg) || reChainShatter.MatchString(msg) || reChainSnap.MatchString(msg) {
		return Event{Kind: KindChainBroken}, true
	}
	if m := reChainDrag.FindStringSubmatch(msg); m != nil {
		return Event{Kind: KindChainUsed, Name: m[1]}, true
	}
	if reShieldstoneUsed.MatchString(msg) {
		return Event{Kind: KindShieldstoneUsed}, true
	}
	if reShieldstoneBroken.MatchString(msg) {
		return Event{Kind: KindShieldstoneBroken}, true
	}
	if rePortalOpened.MatchString(msg) {
		return Event{Kind: KindPortalOpened}, true
	}
	if rePortalStoneSpent.MatchString(msg) {
		return Event{Kind: KindPortalStoneSpent}, true
	}

	if reEsteem.MatchString(msg) {
		return Event{Kind: KindEsteem}, true
	}

	return Event{}, false
}

// classifySystem handles sentinel-prefixed lines: trainer rank-ups, study
// and lasty messages, and assorted system chatter.
func (x *Extractor) classifySystem(body string) (Event, bool) {
	if m := reStudyCharge.FindStringSubmatch(body); m != nil {
		return Event{Kind: KindStudyCharge, Amount: atoi64(m[1])}, true
	}
	if reStudyProgress.MatchString(body) {
		return Event{}, false
	}
	if m := reStudyAbandon.FindStringSubmatch(body); m != nil {
		return Event{Kind: KindLastyAbandon, Creature: m[1]}, true
	}

	if m := reLastyBegin.FindStringSubmatch(body); m != nil {
		return Event{Kind: KindLastyBegin, LastyType: studyTrack(m[1]), Creature: m[2]}, true
	}
	if m := reLastyLearn.FindStringSubmatch(body); m != nil {
		return Event{Kind: KindLastyProgress, LastyType: studyTrack(m[1]), Creature: m[2]}, true
	}
	if m := reLastyBefriend.FindStringSubmatch(body); m != nil {
		return Event{Kind: KindLastyFinished, LastyType: model.LastyBefriend, Creature: m[1]}, true
	}
	if m := reLastyMorph.FindStringSubmatch(body); m != nil {
		return Event{Kind: KindLastyFinished, LastyType: model.LastyMorph, Creature: m[1]}, true
	}
	if m := reLastyFight.FindStringSubmatch(body); m != nil {
		return Event{Kind: KindLastyFinished, LastyType: model.LastyMovements, Creature: m[1]}, true
	}
	if m := reLastyComplete.FindStringSubmatch(body); m != nil {
		return Event{Kind: KindLastyCompleted, Trainer: m[1]}, true
	}

	if reSysHealingSense.MatchString(body) || reSysSunEvent.MatchString(body) ||
		reSysStudyGain.MatchString(body) || reSysStudyConcurrent.MatchString(body) {
		return Event{}, false
	}

	if x.trainers != nil {
		if name, ok := x.trainers.TrainerForPhrase(body); ok {
			return Event{Kind: KindTrainerRank, Trainer: name}, true
		}
	}

	return Event{}, false
}

// stripSentinel removes the system-message prefix: the bullet written by
// modern clients or the yen sign legacy Windows-1252 files decode to.
// Either may be followed by a space.
func stripSentinel(msg string) (string, bool) {
	for _, prefix := range []string{"•", "¥"} {
		if rest, ok := strings.CutPrefix(msg, prefix); ok {
			return strings.TrimPrefix(rest, " "), true
		}
	}
	return msg, false
}

// StripArticle drops a leading "a "/"an " from a creature name. "the " is
// kept: it marks unique boss creatures and is part of the name.
func StripArticle(name string) string {
	if rest, ok := strings.CutPrefix(name, "an "); ok {
		return rest
	}
	if rest, ok := strings.CutPrefix(name, "a "); ok {
		return rest
	}
	return name
}

func killVerb(s string) KillVerb {
	switch s {
	case "killed", "kill":
		return VerbKilled
	case "slaughtered", "slaughter":
		return VerbSlaughtered
	case "vanquished", "vanquish":
		return VerbVanquished
	default:
		return VerbDispatched
	}
}

func lootType(s string) LootType {
	switch s {
	case "fur":
		return LootFur
	case "blood":
		return LootBlood
	case "mandible", "mandibles":
		return LootMandible
	default:
		return LootOther
	}
}

func studyTrack(s string) model.LastyType {
	switch s {
	case "ways":
		return model.LastyBefriend
	case "movements":
		return model.LastyMovements
	default:
		return model.LastyMorph
	}
}

func normalizeProfession(raw string) model.Profession {
	if raw == "" {
		return model.ProfessionUnknown
	}
	titled := strings.ToUpper(raw[:1]) + strings.ToLower(raw[1:])
	return model.ParseProfession(titled)
}

func atoi64(s string) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
