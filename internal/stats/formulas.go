package stats

import (
	"math"

	"grindfall/server/internal/state"
)

const (
	// ArmorFactor is the K constant of the armor diminishing returns curve.
	ArmorFactor = 100.0
	// MonsterIncreaseFactor scales monster life and damage per area level.
	MonsterIncreaseFactor = 0.12
	// SkillCostIncreaseFactor scales skill upgrade costs per upgrade level.
	SkillCostIncreaseFactor = 0.31
	// ExperienceIncreaseFactor scales the experience needed per player level.
	ExperienceIncreaseFactor = 0.39
	// SkillUpgradeMore is the compounding damage bonus of each skill level.
	SkillUpgradeMore = 20.0
)

// Exponential returns 10^((level-1)*factor). Levels below one count as one.
func Exponential(level int, factor float64) float64 {
	if level < 1 {
		level = 1
	}
	return math.Pow(10, float64(level-1)*factor)
}

// Diminishing returns amount/(amount+factor), zero for negative amounts.
func Diminishing(amount, factor float64) float64 {
	if amount < 0 {
		return 0
	}
	if amount+factor == 0 {
		return 0
	}
	return amount / (amount + factor)
}

// ArmorReduction is the share of damage removed by armor.
func ArmorReduction(armor float64) float64 {
	return Diminishing(armor, ArmorFactor)
}

// PlayerLevelUpCost is the experience needed to leave level.
func PlayerLevelUpCost(level int) float64 {
	return math.Round(20 * Exponential(level, ExperienceIncreaseFactor))
}

// SkillUpgradeCost is the gold cost of the upgrade after the current one.
func SkillUpgradeCost(current float64, upgradeLevel int) float64 {
	return current + math.Round(10*Exponential(upgradeLevel, SkillCostIncreaseFactor))
}

// AreaLevelEffects scales monster life and damage with the area level.
func AreaLevelEffects(level int) []state.StatEffect {
	more := (Exponential(level, MonsterIncreaseFactor) - 1) * 100
	if more == 0 {
		return nil
	}
	return []state.StatEffect{
		{Stat: state.Stat{Kind: state.StatLife}, Modifier: state.ModifierMore, Value: more},
		{Stat: state.Stat{Kind: state.StatDamage}, Modifier: state.ModifierMore, Value: more},
	}
}

// ThreatEffects scales per-level threat effects by the current threat level.
// "More" effects compound once per level, flat and increased effects add up.
func ThreatEffects(perLevel []state.StatEffect, level int) []state.StatEffect {
	if level <= 0 || len(perLevel) == 0 {
		return nil
	}
	out := make([]state.StatEffect, 0, len(perLevel))
	for _, effect := range perLevel {
		scaled := effect
		if effect.Modifier == state.ModifierMore {
			scaled.Value = (math.Pow(1+effect.Value/100, float64(level)) - 1) * 100
		} else {
			scaled.Value = effect.Value * float64(level)
		}
		out = append(out, scaled)
	}
	return out
}

// UpgradeMore returns the compounding bonus of a skill upgrade level.
func UpgradeMore(upgradeLevel int) float64 {
	if upgradeLevel <= 1 {
		return 0
	}
	return (math.Pow(1+SkillUpgradeMore/100, float64(upgradeLevel-1)) - 1) * 100
}
