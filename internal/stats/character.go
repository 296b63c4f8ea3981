package stats

import "grindfall/server/internal/state"

// ComputeCharacter folds effects over base and returns the effective specs.
// Effects is expected in fold order; it is stored combined on the result.
func ComputeCharacter(base state.CharacterSpecs, effects []state.StatEffect, triggers []state.TriggerSpecs) state.CharacterSpecs {
	specs := base.Clone()

	specs.MaxLife = Fold(base.MaxLife, effects, state.StatLife, state.SkillAny, state.DamageAny)
	specs.LifeRegen = Fold(base.LifeRegen, effects, state.StatLifeRegen, state.SkillAny, state.DamageAny)
	specs.MaxMana = Fold(base.MaxMana, effects, state.StatMana, state.SkillAny, state.DamageAny)
	specs.ManaRegen = Fold(base.ManaRegen, effects, state.StatManaRegen, state.SkillAny, state.DamageAny)

	specs.Armor = make(map[state.DamageType]float64)
	specs.Resistance = make(map[state.DamageType]float64)
	for _, dt := range state.DamageTypes() {
		if armor := Fold(base.Armor[dt], effects, state.StatArmor, state.SkillAny, dt); armor != 0 {
			specs.Armor[dt] = armor
		}
		if res := Fold(base.Resistance[dt], effects, state.StatResistance, state.SkillAny, dt); res != 0 {
			specs.Resistance[dt] = clamp(res, -100, 100)
		}
	}

	specs.Block = clamp(Fold(base.Block, effects, state.StatBlock, state.SkillAny, state.DamageAny), 0, 100)
	specs.BlockSpell = clamp(Fold(base.BlockSpell, effects, state.StatBlockSpell, state.SkillAny, state.DamageAny), 0, 100)
	specs.BlockDamage = clamp(Fold(base.BlockDamage, effects, state.StatBlockDamage, state.SkillAny, state.DamageAny), 0, 100)
	specs.Evade = clamp(Fold(base.Evade, effects, state.StatEvade, state.SkillAny, state.DamageAny), 0, 100)
	specs.TakeFromMana = clamp(Fold(base.TakeFromMana, effects, state.StatTakeFromMana, state.SkillAny, state.DamageAny), 0, 100)
	specs.Luck = Fold(base.Luck, effects, state.StatLuck, state.SkillAny, state.DamageAny)

	specs.Triggers = append(specs.Triggers, triggers...)
	specs.Effects = Combine(effects)
	return specs
}
