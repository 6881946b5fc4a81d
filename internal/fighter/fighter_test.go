package fighter

import "testing"

func TestComputeZeroRanks(t *testing.T) {
	stats := Compute(nil, nil)

	if stats.TrainedRanks != 0 {
		t.Errorf("TrainedRanks = %d, want 0", stats.TrainedRanks)
	}
	if stats.Accuracy != raceAccuracy {
		t.Errorf("Accuracy = %d, want %d", stats.Accuracy, raceAccuracy)
	}
	if stats.Health != raceHealth {
		t.Errorf("Health = %d, want %d", stats.Health, raceHealth)
	}
	if stats.Defense != raceDefense {
		t.Errorf("Defense = %d, want %d", stats.Defense, raceDefense)
	}
	if stats.Balance != raceBalance {
		t.Errorf("Balance = %d, want %d", stats.Balance, raceBalance)
	}
	if want := int64(raceMinDamage) + 100; stats.DamageMin != want {
		t.Errorf("DamageMin = %d, want %d", stats.DamageMin, want)
	}
	if want := int64(raceMaxDamage)*3 + 100; stats.DamageMax != want {
		t.Errorf("DamageMax = %d, want %d", stats.DamageMax, want)
	}
	if stats.SlaughterPoints != raceSP {
		t.Errorf("SlaughterPoints = %d, want %d", stats.SlaughterPoints, raceSP)
	}
	if stats.ShieldstoneDrain != 1066 {
		t.Errorf("ShieldstoneDrain = %d, want 1066", stats.ShieldstoneDrain)
	}
}

func TestComputeSingleTrainer(t *testing.T) {
	stats := Compute(map[string]int64{"Atkus": 10}, nil)

	// Atkus per rank: accuracy +16, balance +15, balance regen +1.
	if want := int64(raceAccuracy + 160); stats.Accuracy != want {
		t.Errorf("Accuracy = %d, want %d", stats.Accuracy, want)
	}
	if want := int64(raceBalance + 150); stats.Balance != want {
		t.Errorf("Balance = %d, want %d", stats.Balance, want)
	}
	if want := int64(raceBalRegen + 10); stats.BalanceRegen != want {
		t.Errorf("BalanceRegen = %d, want %d", stats.BalanceRegen, want)
	}
	if want := int64(raceSP + 10*21); stats.SlaughterPoints != want {
		t.Errorf("SlaughterPoints = %d, want %d", stats.SlaughterPoints, want)
	}
	if stats.TrainedRanks != 10 {
		t.Errorf("TrainedRanks = %d, want 10", stats.TrainedRanks)
	}
}

func TestComputeNameAliases(t *testing.T) {
	stats := Compute(map[string]int64{"Bangus Anmash": 5}, nil)

	// Bangus per rank: accuracy +2, balance +21, health +6, SP cost 23.
	if want := int64(raceAccuracy + 10); stats.Accuracy != want {
		t.Errorf("Accuracy = %d, want %d", stats.Accuracy, want)
	}
	if want := int64(raceBalance + 105); stats.Balance != want {
		t.Errorf("Balance = %d, want %d", stats.Balance, want)
	}
	if want := int64(raceHealth + 30); stats.Health != want {
		t.Errorf("Health = %d, want %d", stats.Health, want)
	}
	if want := int64(raceSP + 5*23); stats.SlaughterPoints != want {
		t.Errorf("SlaughterPoints = %d, want %d", stats.SlaughterPoints, want)
	}

	stats = Compute(map[string]int64{"Farly Buff": 10}, nil)
	// Farly per rank: health +48, defense +2, health regen +4, SP cost 22.
	if want := int64(raceHealth + 480); stats.Health != want {
		t.Errorf("Health = %d, want %d", stats.Health, want)
	}
	if want := int64(raceDefense + 20); stats.Defense != want {
		t.Errorf("Defense = %d, want %d", stats.Defense, want)
	}
	if want := int64(raceHealthRegen + 40); stats.HealthRegen != want {
		t.Errorf("HealthRegen = %d, want %d", stats.HealthRegen, want)
	}
	if want := int64(raceSP + 10*22); stats.SlaughterPoints != want {
		t.Errorf("SlaughterPoints = %d, want %d", stats.SlaughterPoints, want)
	}
}

func TestComputeNegativeContributions(t *testing.T) {
	stats := Compute(map[string]int64{"Knox": 10}, nil)

	// Knox per rank: accuracy -4, health -24, balance +18.
	if want := int64(raceAccuracy - 40); stats.Accuracy != want {
		t.Errorf("Accuracy = %d, want %d", stats.Accuracy, want)
	}
	if want := int64(raceHealth - 240); stats.Health != want {
		t.Errorf("Health = %d, want %d", stats.Health, want)
	}
	if want := int64(raceBalance + 180); stats.Balance != want {
		t.Errorf("Balance = %d, want %d", stats.Balance, want)
	}
}

func TestShieldstoneDrain(t *testing.T) {
	cases := []struct {
		heen int64
		want int64
	}{
		{0, 1066},
		{25, 844}, // round(1066 - 436*25/49)
		{50, 628}, // boundary takes the high branch: round(628*50/50)
		{100, 314},
	}
	for _, c := range cases {
		stats := Compute(map[string]int64{"Heen": c.heen}, nil)
		if stats.ShieldstoneDrain != c.want {
			t.Errorf("heen=%d: ShieldstoneDrain = %d, want %d", c.heen, stats.ShieldstoneDrain, c.want)
		}
	}
}

func TestDerivedStats(t *testing.T) {
	stats := Compute(map[string]int64{
		"Atkus":  20, // accuracy +16, balance +15, bal regen +1
		"Darkus": 10, // min/max dmg +6, balance +18, bal regen +1
		"Detha":  15, // defense +19, health +3
	}, nil)

	expAccuracy := int64(raceAccuracy + 20*16)
	expMinDmg := int64(raceMinDamage + 10*6)
	expMaxDmg := int64(raceMaxDamage + 10*6)
	expDefense := int64(raceDefense + 15*19)
	expBalance := int64(raceBalance + 20*15 + 10*18)
	expHealth := int64(raceHealth + 15*3)

	if stats.Accuracy != expAccuracy {
		t.Errorf("Accuracy = %d, want %d", stats.Accuracy, expAccuracy)
	}
	if stats.Balance != expBalance {
		t.Errorf("Balance = %d, want %d", stats.Balance, expBalance)
	}
	if stats.Defense != expDefense {
		t.Errorf("Defense = %d, want %d", stats.Defense, expDefense)
	}
	if stats.Health != expHealth {
		t.Errorf("Health = %d, want %d", stats.Health, expHealth)
	}
	if want := expMinDmg + 100; stats.DamageMin != want {
		t.Errorf("DamageMin = %d, want %d", stats.DamageMin, want)
	}
	if want := expMaxDmg*3 + 100; stats.DamageMax != want {
		t.Errorf("DamageMax = %d, want %d", stats.DamageMax, want)
	}

	expOffense := expAccuracy + (3*expMaxDmg+expMinDmg)/4
	if stats.Offense != expOffense {
		t.Errorf("Offense = %d, want %d", stats.Offense, expOffense)
	}
	if want := 5 * expOffense / 3; stats.BalancePerSwing != want {
		t.Errorf("BalancePerSwing = %d, want %d", stats.BalancePerSwing, want)
	}
	if stats.TrainedRanks != 45 {
		t.Errorf("TrainedRanks = %d, want 45", stats.TrainedRanks)
	}
	if want := int64(raceSP + 20*21 + 10*19 + 15*22); stats.SlaughterPoints != want {
		t.Errorf("SlaughterPoints = %d, want %d", stats.SlaughterPoints, want)
	}
}

func TestPerFrameRates(t *testing.T) {
	stats := Compute(map[string]int64{
		"Troilus": 10, // health regen +6
		"Regia":   20, // bal regen +15
	}, nil)

	expHealthRegen := int64(raceHealthRegen + 10*6)
	expBalRegen := int64(raceBalRegen + 20*15)

	if stats.HealthRegen != expHealthRegen {
		t.Errorf("HealthRegen = %d, want %d", stats.HealthRegen, expHealthRegen)
	}
	if stats.BalanceRegen != expBalRegen {
		t.Errorf("BalanceRegen = %d, want %d", stats.BalanceRegen, expBalRegen)
	}
	if want := float64(expHealthRegen) / 100.0; stats.HealthPerFrame != want {
		t.Errorf("HealthPerFrame = %v, want %v", stats.HealthPerFrame, want)
	}
	if want := float64(expBalRegen) / 6.0; stats.BalancePerFrame != want {
		t.Errorf("BalancePerFrame = %v, want %v", stats.BalancePerFrame, want)
	}
	if want := float64(raceSpiritRegen) / 100.0; stats.SpiritPerFrame != want {
		t.Errorf("SpiritPerFrame = %v, want %v", stats.SpiritPerFrame, want)
	}
}

func TestEffectiveRanksAndUnknownTrainers(t *testing.T) {
	stats := Compute(
		map[string]int64{"Histia": 100},
		map[string]float64{"Histia": 0.5},
	)
	if stats.EffectiveRanks != 50.0 {
		t.Errorf("EffectiveRanks = %v, want 50", stats.EffectiveRanks)
	}

	stats = Compute(map[string]int64{"SomeRandomTrainer": 50}, nil)
	if stats.SlaughterPoints != raceSP {
		t.Errorf("unknown trainer added SP: %d", stats.SlaughterPoints)
	}
	if stats.TrainedRanks != 50 {
		t.Errorf("TrainedRanks = %d, want 50", stats.TrainedRanks)
	}
	if stats.EffectiveRanks != 50.0 {
		t.Errorf("EffectiveRanks = %v, want 50", stats.EffectiveRanks)
	}
	if stats.Accuracy != raceAccuracy {
		t.Errorf("unknown trainer changed accuracy: %d", stats.Accuracy)
	}
}

func TestHealReceptivity(t *testing.T) {
	stats := Compute(map[string]int64{"Rodnus": 10, "Spiritus": 5}, nil)
	if want := int64(2*10 + 5); stats.HealReceptivity != want {
		t.Errorf("HealReceptivity = %d, want %d", stats.HealReceptivity, want)
	}
}
