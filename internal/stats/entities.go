package stats

import "grindfall/server/internal/state"

// PlayerInputs gathers everything the player's specs depend on besides its
// own base.
type PlayerInputs struct {
	Inventory *state.Inventory
	Passives  state.PassivesTreeSpecs
	Owned     state.PassivesTreeState
	Statuses  []state.StatusInstance
	// Character is the runtime state conditional modifiers are checked
	// against. Nil evaluates them against Statuses alone.
	Character *state.CharacterState
}

// ComputePlayer recomputes the player's character and skill specs.
// Conditional modifiers of equipped items are checked against the previous
// effective specs and contribute to the item effects.
func ComputePlayer(specs state.PlayerSpecs, in PlayerInputs) state.PlayerSpecs {
	passiveEffects, passiveTriggers := PassiveEffects(in.Passives, in.Owned)
	current := state.CharacterState{Status: in.Statuses}
	if in.Character != nil {
		current = *in.Character
	}
	conditionals := in.Inventory.Conditionals()
	active := ActiveConditionals(conditionals, specs.Character, current)
	itemEffects := in.Inventory.Effects()
	itemEffects = append(itemEffects, ConditionalEffects(conditionals, active)...)
	sources := Sources{
		Items:    itemEffects,
		Passives: passiveEffects,
		Statuses: StatusEffects(in.Statuses),
	}
	effects := sources.Ordered()

	var triggers []state.TriggerSpecs
	triggers = append(triggers, in.Inventory.Triggers()...)
	triggers = append(triggers, passiveTriggers...)
	triggers = append(triggers, StatusTriggers(in.Statuses)...)

	out := specs
	out.Skills = make([]state.SkillSpecs, len(specs.Skills))
	for i, skill := range specs.Skills {
		out.Skills[i] = ComputeSkill(skill, effects)
		for _, trigger := range skill.Base.Triggers {
			triggers = append(triggers, trigger.Clone())
		}
	}
	out.AutoSkills = append([]bool(nil), specs.AutoSkills...)
	out.Character = ComputeCharacter(specs.Base, effects, triggers)
	out.GoldFind = Fold(100, effects, state.StatGoldFind, state.SkillAny, state.DamageAny)
	out.ThreatGain = Fold(100, effects, state.StatThreatGain, state.SkillAny, state.DamageAny)
	return out
}

// MonsterInputs gathers the context a monster's specs depend on.
type MonsterInputs struct {
	AreaLevel    int
	ThreatLevel  int
	ThreatEffect []state.StatEffect
	Statuses     []state.StatusInstance
}

// ComputeMonster recomputes a monster's specs from its base, the area level
// scaling, the threat scaling and its statuses.
func ComputeMonster(specs state.MonsterSpecs, in MonsterInputs) state.MonsterSpecs {
	area := AreaLevelEffects(in.AreaLevel)
	area = append(area, ThreatEffects(in.ThreatEffect, in.ThreatLevel)...)
	sources := Sources{
		Statuses: StatusEffects(in.Statuses),
		Area:     area,
	}
	effects := sources.Ordered()

	triggers := StatusTriggers(in.Statuses)
	out := specs
	out.Skills = make([]state.SkillSpecs, len(specs.Skills))
	for i, skill := range specs.Skills {
		out.Skills[i] = ComputeSkill(skill, effects)
		for _, trigger := range skill.Base.Triggers {
			triggers = append(triggers, trigger.Clone())
		}
	}
	out.Character = ComputeCharacter(specs.Base, effects, triggers)
	return out
}
