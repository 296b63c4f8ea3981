package state

// EventTriggerKind enumerates the events a trigger listens to.
type EventTriggerKind string

const (
	TriggerOnHit             EventTriggerKind = "on_hit"
	TriggerOnTakeHit         EventTriggerKind = "on_take_hit"
	TriggerOnKill            EventTriggerKind = "on_kill"
	TriggerOnWaveCompleted   EventTriggerKind = "on_wave_completed"
	TriggerOnThreatIncreased EventTriggerKind = "on_threat_increased"
	TriggerOnDeath           EventTriggerKind = "on_death"
)

// HitFilter narrows hit triggers. Empty enums and nil flags match anything.
type HitFilter struct {
	SkillType   SkillType  `json:"skill_type,omitempty" yaml:"skill_type,omitempty"`
	Range       Range      `json:"range,omitempty" yaml:"range,omitempty"`
	DamageType  DamageType `json:"damage_type,omitempty" yaml:"damage_type,omitempty"`
	IsCrit      *bool      `json:"is_crit,omitempty" yaml:"is_crit,omitempty"`
	IsBlocked   *bool      `json:"is_blocked,omitempty" yaml:"is_blocked,omitempty"`
	IsHurt      *bool      `json:"is_hurt,omitempty" yaml:"is_hurt,omitempty"`
	IsTriggered *bool      `json:"is_triggered,omitempty" yaml:"is_triggered,omitempty"`
}

// TriggerTarget selects who a triggered effect lands on.
type TriggerTarget string

const (
	TriggerTargetSame   TriggerTarget = "same_target"
	TriggerTargetSource TriggerTarget = "source"
	TriggerTargetMe     TriggerTarget = "me"
)

// ModifierSource names the quantity a trigger modifier scales from.
type ModifierSource string

const (
	SourceHitDamage      ModifierSource = "hit_damage"
	SourceAreaLevel      ModifierSource = "area_level"
	SourceStatusValue    ModifierSource = "status_value"
	SourceStatusDuration ModifierSource = "status_duration"
	SourceStatusStacks   ModifierSource = "status_stacks"
)

// TriggerModifier turns a percentage of a source quantity into a stat
// effect applied to the triggered effects.
type TriggerModifier struct {
	Stat       Stat           `json:"stat" yaml:"stat"`
	Modifier   Modifier       `json:"modifier" yaml:"modifier"`
	Factor     float64        `json:"factor" yaml:"factor"`
	Source     ModifierSource `json:"source" yaml:"source"`
	DamageType DamageType     `json:"damage_type,omitempty" yaml:"damage_type,omitempty"`
	StatusKind StatusKind     `json:"status_kind,omitempty" yaml:"status_kind,omitempty"`
}

// TriggerSpecs is a conditional secondary effect.
type TriggerSpecs struct {
	ID        string            `json:"id" yaml:"id"`
	Event     EventTriggerKind  `json:"event" yaml:"event"`
	Hit       HitFilter         `json:"hit,omitempty" yaml:"hit,omitempty"`
	Target    TriggerTarget     `json:"target" yaml:"target"`
	SkillType SkillType         `json:"skill_type" yaml:"skill_type"`
	Range     Range             `json:"range,omitempty" yaml:"range,omitempty"`
	Modifiers []TriggerModifier `json:"modifiers,omitempty" yaml:"modifiers,omitempty"`
	Effects   []SkillEffect     `json:"effects" yaml:"effects"`
}

// Clone returns a deep copy of the trigger.
func (t TriggerSpecs) Clone() TriggerSpecs {
	cloned := t
	if len(t.Modifiers) > 0 {
		cloned.Modifiers = make([]TriggerModifier, len(t.Modifiers))
		copy(cloned.Modifiers, t.Modifiers)
	}
	cloned.Effects = CloneSkillEffects(t.Effects)
	return cloned
}
