// Package rank computes effective and weighted trainer ranks and derives a
// character's profession from them. All functions are pure; persistent state
// stays in the store.
package rank

import (
	"github.com/pyrrhio/annalist/internal/gamedata"
	"github.com/pyrrhio/annalist/internal/model"
)

// Effective returns the rank total for a trainer record under its rank mode.
//
// modifier: ranks + modified_ranks + apply_learning_ranks.
// override: modified_ranks alone, the manual value replaces the logs.
// override_until_date: modified_ranks acts as a baseline for history that
// predates log coverage, so logged ranks still count on top of it. The
// cutoff date is informational and does not gate the formula.
func Effective(t *model.Trainer) int64 {
	switch t.RankMode {
	case model.RankModeOverride:
		return t.ModifiedRanks
	case model.RankModeOverrideUntilDate:
		return t.ModifiedRanks + t.Ranks + t.ApplyLearningRanks
	default:
		return t.Ranks + t.ModifiedRanks + t.ApplyLearningRanks
	}
}

// Weighted multiplies the effective rank by the trainer's static multiplier.
// Ordinary trainers carry 1.0; combo trainers reflect the component ranks
// they stand in for.
func Weighted(t *model.Trainer, trainers *gamedata.TrainerTable) float64 {
	return float64(Effective(t)) * trainers.Multiplier(t.TrainerName)
}

// CoinLevel sums all rank sources across a character's trainer records. It
// is used as the default creature value ceiling elsewhere.
func CoinLevel(records []*model.Trainer) int64 {
	var total int64
	for _, t := range records {
		total += t.Ranks + t.ModifiedRanks + t.ApplyLearningRanks
	}
	return total
}

// specialization professions outrank base professions whenever any of their
// trainers hold a positive effective rank.
var specializations = []model.Profession{
	model.ProfessionRanger,
	model.ProfessionBloodmage,
	model.ProfessionChampion,
}

var baseProfessions = []model.Profession{
	model.ProfessionFighter,
	model.ProfessionHealer,
	model.ProfessionMystic,
}

// DeriveProfession infers a character's profession from summed effective
// ranks per profession. A specialization with any positive rank wins over
// the base classes; ties break in the slice order above. Trainers in
// non-class categories (Language, Arts, Trades) never influence the result.
// Returns Unknown when no class trainer has a positive rank.
func DeriveProfession(records []*model.Trainer, trainers *gamedata.TrainerTable) model.Profession {
	sums := make(map[model.Profession]int64)
	for _, t := range records {
		prof := model.ParseProfession(trainers.Profession(t.TrainerName))
		if prof == model.ProfessionUnknown {
			continue
		}
		sums[prof] += Effective(t)
	}

	if best := pickBest(sums, specializations); best != model.ProfessionUnknown {
		return best
	}
	return pickBest(sums, baseProfessions)
}

func pickBest(sums map[model.Profession]int64, order []model.Profession) model.Profession {
	best := model.ProfessionUnknown
	var bestSum int64
	for _, p := range order {
		if s := sums[p]; s > bestSum {
			best, bestSum = p, s
		}
	}
	return best
}
