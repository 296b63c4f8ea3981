package state

// StatKind names a numeric field the stat pipeline can modify.
type StatKind string

const (
	StatLife           StatKind = "life"
	StatLifeRegen      StatKind = "life_regen"
	StatMana           StatKind = "mana"
	StatManaRegen      StatKind = "mana_regen"
	StatArmor          StatKind = "armor"
	StatResistance     StatKind = "resistance"
	StatBlock          StatKind = "block"
	StatBlockSpell     StatKind = "block_spell"
	StatBlockDamage    StatKind = "block_damage"
	StatEvade          StatKind = "evade"
	StatTakeFromMana   StatKind = "take_from_mana"
	StatDamage         StatKind = "damage"
	StatMinDamage      StatKind = "min_damage"
	StatMaxDamage      StatKind = "max_damage"
	StatSpellPower     StatKind = "spell_power"
	StatCritChance     StatKind = "crit_chance"
	StatCritDamage     StatKind = "crit_damage"
	StatSpeed          StatKind = "speed"
	StatStatusPower    StatKind = "status_power"
	StatStatusDuration StatKind = "status_duration"
	StatGoldFind       StatKind = "gold_find"
	StatThreatGain     StatKind = "threat_gain"
	StatLuck           StatKind = "luck"
)

// Stat identifies a modifiable field. Skill and Damage narrow the stat to a
// skill type or damage type; their empty values match any.
type Stat struct {
	Kind   StatKind   `json:"kind" yaml:"kind"`
	Skill  SkillType  `json:"skill,omitempty" yaml:"skill,omitempty"`
	Damage DamageType `json:"damage,omitempty" yaml:"damage,omitempty"`
}

// Applies reports whether the stat contributes to a field scoped to the given
// skill type and damage type.
func (s Stat) Applies(kind StatKind, skill SkillType, damage DamageType) bool {
	if s.Kind != kind {
		return false
	}
	if s.Skill != SkillAny && s.Skill != skill {
		return false
	}
	if s.Damage != DamageAny && s.Damage != damage {
		return false
	}
	return true
}

// StatEffect is a single contribution to a stat.
type StatEffect struct {
	Stat     Stat     `json:"stat" yaml:"stat"`
	Modifier Modifier `json:"modifier" yaml:"modifier"`
	Value    float64  `json:"value" yaml:"value"`
}

// EffectKey identifies one entry of an aggregated effects map.
type EffectKey struct {
	Stat     Stat
	Modifier Modifier
}

// Key returns the aggregation key of the effect.
func (e StatEffect) Key() EffectKey {
	return EffectKey{Stat: e.Stat, Modifier: e.Modifier}
}

// Scaled returns a copy of the effect with its value multiplied by factor.
func (e StatEffect) Scaled(factor float64) StatEffect {
	e.Value *= factor
	return e
}

// CloneEffects copies an effect slice.
func CloneEffects(effects []StatEffect) []StatEffect {
	if len(effects) == 0 {
		return nil
	}
	cloned := make([]StatEffect, len(effects))
	copy(cloned, effects)
	return cloned
}
