// Package model defines shared data structures.
package model

// Profession is a character's class, derived from trainer data or a direct
// in-game announcement.
type Profession string

const (
	ProfessionFighter   Profession = "Fighter"
	ProfessionHealer    Profession = "Healer"
	ProfessionMystic    Profession = "Mystic"
	ProfessionRanger    Profession = "Ranger"
	ProfessionBloodmage Profession = "Bloodmage"
	ProfessionChampion  Profession = "Champion"
	ProfessionUnknown   Profession = "Unknown"
)

// ParseProfession maps a stored string back to a Profession, defaulting to
// Unknown for anything unrecognized.
func ParseProfession(s string) Profession {
	switch Profession(s) {
	case ProfessionFighter, ProfessionHealer, ProfessionMystic,
		ProfessionRanger, ProfessionBloodmage, ProfessionChampion:
		return Profession(s)
	default:
		return ProfessionUnknown
	}
}

// LastyType identifies one of the three creature study tracks.
type LastyType string

const (
	LastyBefriend  LastyType = "Befriend"
	LastyMorph     LastyType = "Morph"
	LastyMovements LastyType = "Movements"
)

// Character is a tracked in-game identity with its cumulative counters.
// MergedInto is 0 for visible characters; a non-zero value is the id of the
// primary character this one has been folded into.
type Character struct {
	ID         int64
	Name       string
	Profession Profession

	Logins  int64
	Departs int64
	Deaths  int64
	Esteem  int64

	CoinsPickedUp int64
	ChestCoins    int64
	BountyCoins   int64
	CasinoWon     int64
	CasinoLost    int64
	FurCoins      int64
	MandibleCoins int64
	BloodCoins    int64
	FurWorth      int64
	MandibleWorth int64
	BloodWorth    int64

	BellsUsed          int64
	BellsBroken        int64
	ChainsUsed         int64
	ChainsBroken       int64
	ShieldstonesUsed   int64
	ShieldstonesBroken int64
	EtherealPortals    int64
	PortalStonesBroken int64

	GoodKarma   int64
	BadKarma    int64
	Untrainings int64

	CoinLevel  int64
	StartDate  string
	MergedInto int64
}

// Kill accumulates per-creature kill counters for one character.
type Kill struct {
	ID           int64
	CharacterID  int64
	CreatureName string

	Killed      int64
	Slaughtered int64
	Vanquished  int64
	Dispatched  int64

	AssistedKill      int64
	AssistedSlaughter int64
	AssistedVanquish  int64
	AssistedDispatch  int64

	KilledBy int64

	DateFirst string
	DateLast  string

	DateLastKilled      string
	DateLastSlaughtered string
	DateLastVanquished  string
	DateLastDispatched  string

	CreatureValue int64
}

// TotalSolo returns the sum of all solo kill verbs.
func (k *Kill) TotalSolo() int64 {
	return k.Killed + k.Slaughtered + k.Vanquished + k.Dispatched
}

// TotalAssisted returns the sum of all assisted kill verbs.
func (k *Kill) TotalAssisted() int64 {
	return k.AssistedKill + k.AssistedSlaughter + k.AssistedVanquish + k.AssistedDispatch
}

// TotalAll returns solo plus assisted kills.
func (k *Kill) TotalAll() int64 {
	return k.TotalSolo() + k.TotalAssisted()
}

// Rank modes for trainer records. Overrides live in ModifiedRanks so that
// re-scanning never destroys user corrections.
const (
	RankModeModifier          = "modifier"
	RankModeOverride          = "override"
	RankModeOverrideUntilDate = "override_until_date"
)

// Trainer accumulates rank data for one (character, trainer) pair.
type Trainer struct {
	ID          int64
	CharacterID int64
	TrainerName string

	Ranks         int64
	ModifiedRanks int64

	ApplyLearningRanks        int64
	ApplyLearningUnknownCount int64

	RankMode     string
	OverrideDate string

	DateOfLastRank string
}

// Lasty tracks a multi-stage creature study for one character. Finished and
// AbandonedDate are mutually exclusive terminal states.
type Lasty struct {
	ID           int64
	CharacterID  int64
	CreatureName string
	LastyType    LastyType

	Finished     bool
	MessageCount int64

	FirstSeenDate string
	LastSeenDate  string
	CompletedDate string
	AbandonedDate string
}

// Pet is a befriended creature. Never removed by a scan, only by reset.
type Pet struct {
	ID           int64
	CharacterID  int64
	PetName      string
	CreatureName string
}

// ScannedFile records one successfully processed log file, keyed by content
// fingerprint.
type ScannedFile struct {
	ID          int64
	CharacterID int64
	Path        string
	Fingerprint string
	ScannedAt   string
	Lines       int64
	Events      int64
}
