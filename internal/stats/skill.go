package stats

import (
	"math"

	"grindfall/server/internal/state"
)

const minimumSpeedFactor = 0.01

// ComputeSkill rebuilds the effective numbers of skill from its base,
// upgrade level and the owner's effects.
func ComputeSkill(skill state.SkillSpecs, effects []state.StatEffect) state.SkillSpecs {
	base := skill.Base
	out := skill
	out.Base = base.Clone()

	speed := Fold(1, effects, state.StatSpeed, base.SkillType, state.DamageAny)
	out.Cooldown = base.Cooldown / math.Max(speed, minimumSpeedFactor)
	out.ManaCost = base.ManaCost

	upgrade := UpgradeMore(skill.UpgradeLevel)
	out.Targets = make([]state.TargetGroup, len(base.Targets))
	for i, group := range base.Targets {
		computed := group.Clone()
		for j, effect := range computed.Effects {
			computed.Effects[j] = ModifyEffect(effect, base.SkillType, effects, upgrade)
		}
		out.Targets[i] = computed
	}
	return out
}

// ModifyEffect applies stat effects and an extra compounding bonus to one
// skill effect. It serves both owned skills and triggered effects.
func ModifyEffect(effect state.SkillEffect, skillType state.SkillType, effects []state.StatEffect, more float64) state.SkillEffect {
	out := effect.Clone()
	switch effect.Kind {
	case state.EffectDamage:
		out.Damage = modifyDamage(effect.Damage, skillType, effects, more)
		crit := NewValue(effect.CritChance)
		crit.ApplyMatching(effects, state.StatCritChance, skillType, state.DamageAny)
		out.CritChance = clamp(crit.Evaluate(), 0, 100)
		critDamage := NewValue(effect.CritDamage)
		critDamage.ApplyMatching(effects, state.StatCritDamage, skillType, state.DamageAny)
		out.CritDamage = critDamage.Evaluate()
	case state.EffectHeal, state.EffectRestoreMana:
		out.AmountMin = scaleMore(effect.AmountMin, more)
		out.AmountMax = scaleMore(effect.AmountMax, more)
	case state.EffectApplyStatus:
		if effect.Status == nil {
			break
		}
		status := out.Status
		power := NewValue(0)
		power.ApplyMatching(effects, state.StatStatusPower, skillType, state.DamageAny)
		if status.Specs.Kind == state.StatusDamageOverTime {
			power.ApplyMatching(effects, state.StatDamage, skillType, status.Specs.DamageType)
		}
		power.Apply(state.ModifierMore, more)
		status.ValueMin = applyValue(status.ValueMin, power)
		status.ValueMax = applyValue(status.ValueMax, power)

		duration := NewValue(0)
		duration.ApplyMatching(effects, state.StatStatusDuration, skillType, state.DamageAny)
		status.DurationMin = applyValue(status.DurationMin, duration)
		status.DurationMax = applyValue(status.DurationMax, duration)
	}
	return out
}

func modifyDamage(damage map[state.DamageType]state.DamageRange, skillType state.SkillType, effects []state.StatEffect, more float64) map[state.DamageType]state.DamageRange {
	out := make(map[state.DamageType]state.DamageRange)
	for _, dt := range state.DamageTypes() {
		base := damage[dt]
		min := NewValue(base.Min)
		max := NewValue(base.Max)
		for _, v := range []*Value{&min, &max} {
			v.ApplyMatching(effects, state.StatDamage, skillType, dt)
			if skillType == state.SkillSpell {
				for _, effect := range effects {
					if effect.Stat.Kind == state.StatSpellPower {
						v.Apply(state.ModifierIncreased, effect.Value)
					}
				}
			}
			v.Apply(state.ModifierMore, more)
		}
		min.ApplyMatching(effects, state.StatMinDamage, skillType, dt)
		max.ApplyMatching(effects, state.StatMaxDamage, skillType, dt)

		r := state.DamageRange{Min: math.Max(0, min.Evaluate()), Max: math.Max(0, max.Evaluate())}
		if r.Max < r.Min {
			r.Max = r.Min
		}
		if r.Max > 0 {
			out[dt] = r
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// applyValue evaluates base with the modifiers accumulated in v.
func applyValue(base float64, v Value) float64 {
	v.Base = base
	return v.Evaluate()
}

func scaleMore(amount, more float64) float64 {
	return amount * (1 + more/100)
}
