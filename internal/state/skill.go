package state

// DamageRange is the inclusive roll range of one damage type.
type DamageRange struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// SkillEffectKind enumerates what a skill effect does to its targets.
type SkillEffectKind string

const (
	EffectDamage      SkillEffectKind = "damage"
	EffectHeal        SkillEffectKind = "heal"
	EffectApplyStatus SkillEffectKind = "apply_status"
	EffectRestoreMana SkillEffectKind = "restore_mana"
)

// StatusApplication describes a status an effect applies.
type StatusApplication struct {
	Specs       StatusSpecs `json:"specs" yaml:"specs"`
	ValueMin    float64     `json:"value_min" yaml:"value_min"`
	ValueMax    float64     `json:"value_max" yaml:"value_max"`
	DurationMin float64     `json:"duration_min" yaml:"duration_min"`
	DurationMax float64     `json:"duration_max" yaml:"duration_max"`
	Permanent   bool        `json:"permanent,omitempty" yaml:"permanent,omitempty"`
	Cumulative  bool        `json:"cumulative,omitempty" yaml:"cumulative,omitempty"`
}

// SkillEffect is one entry of a target group's effect list.
type SkillEffect struct {
	Kind          SkillEffectKind `json:"kind" yaml:"kind"`
	FailureChance float64         `json:"failure_chance,omitempty" yaml:"failure_chance,omitempty"`

	Damage     map[DamageType]DamageRange `json:"damage,omitempty" yaml:"damage,omitempty"`
	CritChance float64                    `json:"crit_chance,omitempty" yaml:"crit_chance,omitempty"`
	CritDamage float64                    `json:"crit_damage,omitempty" yaml:"crit_damage,omitempty"`

	AmountMin float64 `json:"amount_min,omitempty" yaml:"amount_min,omitempty"`
	AmountMax float64 `json:"amount_max,omitempty" yaml:"amount_max,omitempty"`

	Status *StatusApplication `json:"status,omitempty" yaml:"status,omitempty"`
}

// Clone returns a deep copy of the effect.
func (e SkillEffect) Clone() SkillEffect {
	cloned := e
	if len(e.Damage) > 0 {
		cloned.Damage = make(map[DamageType]DamageRange, len(e.Damage))
		for k, v := range e.Damage {
			cloned.Damage[k] = v
		}
	}
	if e.Status != nil {
		status := *e.Status
		status.Specs = e.Status.Specs.Clone()
		cloned.Status = &status
	}
	return cloned
}

// TargetGroup selects targets and lists the effects applied to them.
type TargetGroup struct {
	Range      Range         `json:"range,omitempty" yaml:"range,omitempty"`
	TargetType TargetType    `json:"target_type" yaml:"target_type"`
	Shape      Shape         `json:"shape" yaml:"shape"`
	RepeatMin  int           `json:"repeat_min,omitempty" yaml:"repeat_min,omitempty"`
	RepeatMax  int           `json:"repeat_max,omitempty" yaml:"repeat_max,omitempty"`
	AllowDead  bool          `json:"allow_dead,omitempty" yaml:"allow_dead,omitempty"`
	Effects    []SkillEffect `json:"effects" yaml:"effects"`
}

// Clone returns a deep copy of the group.
func (g TargetGroup) Clone() TargetGroup {
	cloned := g
	cloned.Effects = CloneSkillEffects(g.Effects)
	return cloned
}

// CloneSkillEffects deep-copies an effect list.
func CloneSkillEffects(effects []SkillEffect) []SkillEffect {
	if len(effects) == 0 {
		return nil
	}
	cloned := make([]SkillEffect, len(effects))
	for i, effect := range effects {
		cloned[i] = effect.Clone()
	}
	return cloned
}

// SkillBase is the static definition a skill's specs are computed from.
type SkillBase struct {
	ID          string         `json:"id" yaml:"id"`
	Name        string         `json:"name" yaml:"name"`
	SkillType   SkillType      `json:"skill_type" yaml:"skill_type"`
	Cooldown    float64        `json:"cooldown" yaml:"cooldown"`
	ManaCost    float64        `json:"mana_cost" yaml:"mana_cost"`
	UpgradeCost float64        `json:"upgrade_cost" yaml:"upgrade_cost"`
	Targets     []TargetGroup  `json:"targets" yaml:"targets"`
	Triggers    []TriggerSpecs `json:"triggers,omitempty" yaml:"triggers,omitempty"`
}

// Clone returns a deep copy of the base.
func (b SkillBase) Clone() SkillBase {
	cloned := b
	if len(b.Targets) > 0 {
		cloned.Targets = make([]TargetGroup, len(b.Targets))
		for i, group := range b.Targets {
			cloned.Targets[i] = group.Clone()
		}
	}
	if len(b.Triggers) > 0 {
		cloned.Triggers = make([]TriggerSpecs, len(b.Triggers))
		for i, trigger := range b.Triggers {
			cloned.Triggers[i] = trigger.Clone()
		}
	}
	return cloned
}

// SkillSpecs holds the effective numbers of an owned skill.
type SkillSpecs struct {
	Base            SkillBase     `json:"base"`
	Cooldown        float64       `json:"cooldown"`
	ManaCost        float64       `json:"mana_cost"`
	UpgradeLevel    int           `json:"upgrade_level"`
	NextUpgradeCost float64       `json:"next_upgrade_cost"`
	Targets         []TargetGroup `json:"targets"`
	// ItemSlot is set on skills granted by the weapon equipped in that slot.
	ItemSlot ItemSlot `json:"item_slot,omitempty"`
}

// NewSkillSpecs returns level one specs for base.
func NewSkillSpecs(base SkillBase) SkillSpecs {
	specs := SkillSpecs{
		Base:            base.Clone(),
		Cooldown:        base.Cooldown,
		ManaCost:        base.ManaCost,
		UpgradeLevel:    1,
		NextUpgradeCost: base.UpgradeCost,
	}
	specs.Targets = make([]TargetGroup, len(base.Targets))
	for i, group := range base.Targets {
		specs.Targets[i] = group.Clone()
	}
	return specs
}

// SkillState tracks the cooldown of an owned skill.
type SkillState struct {
	ElapsedCooldown float64 `json:"elapsed_cooldown"`
	IsReady         bool    `json:"is_ready"`
	JustTriggered   bool    `json:"just_triggered,omitempty"`
}
