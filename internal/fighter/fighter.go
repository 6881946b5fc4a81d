// Package fighter computes derived combat statistics from trainer ranks,
// following the formulas of Gorvin's Fighter Calculator for the human race.
package fighter

import "math"

// Human race base stats.
const (
	raceAccuracy    = 300
	raceMinDamage   = 100
	raceMaxDamage   = 200
	raceBalance     = 5000
	raceBalRegen    = 400
	raceHealth      = 3000
	raceDefense     = 300
	raceHealthRegen = 100
	raceSpirit      = 800
	raceSpiritRegen = 600
)

// Human race slaughter point base.
const raceSP = raceAccuracy + raceMinDamage + raceMaxDamage + raceBalance/3 +
	raceBalRegen + raceHealth/3 + raceDefense + raceHealthRegen +
	raceSpirit + raceSpiritRegen

// Slaughter point cost per rank, keyed by formula name.
var spCost = map[string]int64{
	"Atkus":      21,
	"Darkus":     19,
	"Balthus":    18,
	"Regia":      18,
	"Evus":       24,
	"Swengus":    18,
	"Histia":     29,
	"Detha":      22,
	"Bodrus":     24,
	"Hardia":     30,
	"Troilus":    20,
	"Spiritus":   20,
	"Aktur":      22,
	"Atkia":      21,
	"Darktur":    20,
	"Angilsa":    10,
	"Knox":       12,
	"Heen":       20,
	"Bangus":     23,
	"Farly":      22,
	"Stedfustus": 25,
	"Forvyola":   23,
	"Anemia":     24,
	"Rodnus":     20,
	"Erthron":    29,
}

// formulaName maps stored trainer names to the names the formulas use.
func formulaName(name string) string {
	switch name {
	case "Bangus Anmash":
		return "Bangus"
	case "Farly Buff":
		return "Farly"
	}
	return name
}

// Stats holds the computed fighter statistics.
type Stats struct {
	TrainedRanks    int64
	EffectiveRanks  float64
	SlaughterPoints int64

	Accuracy  int64
	DamageMin int64
	DamageMax int64
	Offense   int64

	Balance         int64
	BalanceRegen    int64
	BalancePerFrame float64

	Health         int64
	HealthRegen    int64
	HealthPerFrame float64

	Defense int64

	Spirit         int64
	SpiritRegen    int64
	SpiritPerFrame float64

	HealReceptivity  int64
	BalancePerSwing  int64
	ShieldstoneDrain int64
}

// Compute derives fighter stats from total ranks per trainer name and the
// per-trainer effective rank multipliers. Unknown trainers still count
// toward trained and effective ranks but contribute no combat stats.
func Compute(ranks map[string]int64, multipliers map[string]float64) Stats {
	r := make(map[string]int64, len(ranks))
	for name, total := range ranks {
		r[formulaName(name)] += total
	}

	atkus := r["Atkus"]
	darkus := r["Darkus"]
	balthus := r["Balthus"]
	regia := r["Regia"]
	evus := r["Evus"]
	swengus := r["Swengus"]
	histia := r["Histia"]
	detha := r["Detha"]
	bodrus := r["Bodrus"]
	hardia := r["Hardia"]
	troilus := r["Troilus"]
	spiritus := r["Spiritus"]
	aktur := r["Aktur"]
	atkia := r["Atkia"]
	darktur := r["Darktur"]
	angilsa := r["Angilsa"]
	knox := r["Knox"]
	heen := r["Heen"]
	bangus := r["Bangus"]
	farly := r["Farly"]
	stedfustus := r["Stedfustus"]
	forvyola := r["Forvyola"]
	anemia := r["Anemia"]
	rodnus := r["Rodnus"]
	erthron := r["Erthron"]

	accuracy := atkus*16 + evus*4 + bodrus*4 + aktur*25 + atkia*13 -
		knox*4 - angilsa*4 + bangus*2 + erthron*3

	minDamage := darkus*6 + evus + bodrus + knox*11 - angilsa +
		erthron + atkia*3 + darktur*10 + bangus*2

	maxDamage := darkus*6 + evus + bodrus + knox*11 - angilsa +
		erthron + atkia*3 + darktur*10 + bangus*3 + hardia

	balance := balthus*51 + evus*18 + bodrus*9 + atkus*15 + darkus*18 +
		swengus*30 + knox*18 - angilsa*18 + bangus*21 + erthron*15

	balRegen := regia*15 + evus*4 + bodrus*3 + atkus + darkus +
		swengus*7 - knox*2 + angilsa*26 + forvyola*8 + bangus*5 +
		erthron*3 + atkia*3 + stedfustus*6 + anemia*8

	health := histia*111 + evus*24 + bodrus*24 + detha*3 + rodnus*36 +
		farly*48 - knox*24 - angilsa*24 + forvyola*54 + bangus*6 +
		erthron*24 + spiritus*21 + stedfustus*54 + anemia*69

	defense := detha*19 + evus + bodrus + hardia + farly*2 -
		knox - angilsa + erthron*7

	healthRegen := troilus*6 + farly*4 + bangus - anemia

	spirit := spiritus * 9
	var spiritRegen int64 // no spirit regen trainers for the base fighter

	healReceptivity := 2*rodnus + spiritus

	totalAccuracy := accuracy + raceAccuracy
	totalMinDmg := minDamage + raceMinDamage
	totalMaxDmg := maxDamage + raceMaxDamage
	totalBalance := balance + raceBalance
	totalBalRegen := balRegen + raceBalRegen
	totalHealth := health + raceHealth
	totalDefense := defense + raceDefense
	totalHealthRegen := healthRegen + raceHealthRegen
	totalSpirit := spirit + raceSpirit
	totalSpiritRegen := spiritRegen + raceSpiritRegen

	damageMin := max64(totalMinDmg, 0) + 100
	damageMax := max64(totalMaxDmg*3, 0) + 100

	offense := totalAccuracy + (3*totalMaxDmg+totalMinDmg)/4
	balancePerSwing := 5 * max64(offense, 200) / 3

	var shieldstoneDrain int64
	switch {
	case heen == 0:
		shieldstoneDrain = 1066
	case heen < 50:
		shieldstoneDrain = int64(math.Round(float64(1066*49-436*heen) / 49.0))
	default:
		shieldstoneDrain = int64(math.Round(float64(628*50) / float64(heen)))
	}

	var trainedRanks int64
	for _, total := range ranks {
		trainedRanks += total
	}

	var effectiveRanks float64
	for name, total := range ranks {
		mult, ok := multipliers[name]
		if !ok {
			mult = 1.0
		}
		effectiveRanks += float64(total) * mult
	}
	effectiveRanks = math.Round(effectiveRanks*10) / 10

	slaughterPoints := int64(raceSP)
	for name, total := range ranks {
		if cost, ok := spCost[formulaName(name)]; ok {
			slaughterPoints += total * cost
		}
	}

	return Stats{
		TrainedRanks:     trainedRanks,
		EffectiveRanks:   effectiveRanks,
		SlaughterPoints:  slaughterPoints,
		Accuracy:         totalAccuracy,
		DamageMin:        damageMin,
		DamageMax:        damageMax,
		Offense:          offense,
		Balance:          totalBalance,
		BalanceRegen:     totalBalRegen,
		BalancePerFrame:  float64(totalBalRegen) / 6.0,
		Health:           totalHealth,
		HealthRegen:      totalHealthRegen,
		HealthPerFrame:   float64(totalHealthRegen) / 100.0,
		Defense:          totalDefense,
		Spirit:           totalSpirit,
		SpiritRegen:      totalSpiritRegen,
		SpiritPerFrame:   float64(totalSpiritRegen) / 100.0,
		HealReceptivity:  healReceptivity,
		BalancePerSwing:  balancePerSwing,
		ShieldstoneDrain: shieldstoneDrain,
	}
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
