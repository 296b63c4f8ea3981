package stats

import "grindfall/server/internal/state"

// Sources lists the effect contributions of a character in fold order.
type Sources struct {
	Items    []state.StatEffect
	Passives []state.StatEffect
	Statuses []state.StatEffect
	Area     []state.StatEffect
}

// Ordered concatenates the sources: items, then passives, then statuses, then
// area scaling.
func (s Sources) Ordered() []state.StatEffect {
	total := len(s.Items) + len(s.Passives) + len(s.Statuses) + len(s.Area)
	if total == 0 {
		return nil
	}
	out := make([]state.StatEffect, 0, total)
	out = append(out, s.Items...)
	out = append(out, s.Passives...)
	out = append(out, s.Statuses...)
	out = append(out, s.Area...)
	return out
}

// Combine folds effects into one entry per (stat, modifier) key. Entries keep
// the order their key first appeared in. Flat and increased values sum,
// "more" values compound.
func Combine(effects []state.StatEffect) []state.StatEffect {
	if len(effects) == 0 {
		return nil
	}
	index := make(map[state.EffectKey]int, len(effects))
	out := make([]state.StatEffect, 0, len(effects))
	for _, effect := range effects {
		key := effect.Key()
		idx, ok := index[key]
		if !ok {
			index[key] = len(out)
			out = append(out, effect)
			continue
		}
		if effect.Modifier == state.ModifierMore {
			out[idx].Value = CompoundMore(out[idx].Value, effect.Value)
		} else {
			out[idx].Value += effect.Value
		}
	}
	return out
}

// StatusEffects returns the stat effects of active stat-modifier statuses.
// Debuffs contribute negatively.
func StatusEffects(statuses []state.StatusInstance) []state.StatEffect {
	var out []state.StatEffect
	for _, status := range statuses {
		if status.Specs.Kind != state.StatusStatModifier {
			continue
		}
		value := status.Value
		if status.Specs.Debuff {
			value = -value
		}
		out = append(out, state.StatEffect{
			Stat:     status.Specs.Stat,
			Modifier: status.Specs.Modifier,
			Value:    value,
		})
	}
	return out
}

// StatusTriggers returns the triggers granted by active trigger statuses.
func StatusTriggers(statuses []state.StatusInstance) []state.TriggerSpecs {
	var out []state.TriggerSpecs
	for _, status := range statuses {
		if status.Specs.Kind != state.StatusTrigger || status.Specs.Trigger == nil {
			continue
		}
		out = append(out, status.Specs.Trigger.Clone())
	}
	return out
}

// PassiveEffects returns the effects and triggers of owned passive nodes in
// tree order. Ascended nodes scale by one plus their ascend level.
func PassiveEffects(tree state.PassivesTreeSpecs, owned state.PassivesTreeState) ([]state.StatEffect, []state.TriggerSpecs) {
	var effects []state.StatEffect
	var triggers []state.TriggerSpecs
	for _, node := range tree.Nodes {
		if !owned.Owns(node.ID) {
			continue
		}
		factor := 1.0 + float64(owned.Ascended[node.ID])
		for _, effect := range node.Effects {
			effects = append(effects, effect.Scaled(factor))
		}
		for _, trigger := range node.Triggers {
			triggers = append(triggers, trigger.Clone())
		}
	}
	return effects, triggers
}
