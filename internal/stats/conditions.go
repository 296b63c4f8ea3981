package stats

import "grindfall/server/internal/state"

// fullThreshold is the share of a maximum that still counts as full.
const fullThreshold = 0.99

// ConditionHolds reports whether c is satisfied by a character with the given
// effective specs and runtime state.
func ConditionHolds(c state.Condition, specs state.CharacterSpecs, cs state.CharacterState) bool {
	switch c.Kind {
	case state.ConditionHasStatus:
		for _, status := range cs.Status {
			if c.Status != "" && status.Specs.Kind != c.Status {
				continue
			}
			if c.Source != state.SkillAny && status.Source != c.Source {
				continue
			}
			return true
		}
		return false
	case state.ConditionMaximumLife:
		return cs.Life >= specs.MaxLife*fullThreshold
	case state.ConditionMaximumMana:
		return cs.Mana >= specs.MaxMana*fullThreshold
	}
	return false
}

// ActiveConditionals reports, per modifier, whether all of its conditions
// hold. It returns nil for an empty list.
func ActiveConditionals(mods []state.ConditionalModifier, specs state.CharacterSpecs, cs state.CharacterState) []bool {
	if len(mods) == 0 {
		return nil
	}
	active := make([]bool, len(mods))
	for i, mod := range mods {
		active[i] = true
		for _, cond := range mod.Conditions {
			if !ConditionHolds(cond, specs, cs) {
				active[i] = false
				break
			}
		}
	}
	return active
}

// ConditionalEffects returns the effects of the modifiers flagged in active.
func ConditionalEffects(mods []state.ConditionalModifier, active []bool) []state.StatEffect {
	var out []state.StatEffect
	for i, mod := range mods {
		if i < len(active) && active[i] {
			out = append(out, mod.Effects...)
		}
	}
	return out
}
