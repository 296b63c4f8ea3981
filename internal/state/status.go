package state

// PermanentDuration stands in for the duration of a permanent status when
// comparing applications.
const PermanentDuration = 1e12

// StatusKind enumerates the status behaviours.
type StatusKind string

const (
	StatusStun           StatusKind = "stun"
	StatusDamageOverTime StatusKind = "damage_over_time"
	StatusStatModifier   StatusKind = "stat_modifier"
	StatusTrigger        StatusKind = "trigger"
)

// StatusSpecs describes what an applied status does.
type StatusSpecs struct {
	Kind       StatusKind    `json:"kind" yaml:"kind"`
	DamageType DamageType    `json:"damage_type,omitempty" yaml:"damage_type,omitempty"`
	Stat       Stat          `json:"stat,omitempty" yaml:"stat,omitempty"`
	Modifier   Modifier      `json:"modifier,omitempty" yaml:"modifier,omitempty"`
	Debuff     bool          `json:"debuff,omitempty" yaml:"debuff,omitempty"`
	Trigger    *TriggerSpecs `json:"trigger,omitempty" yaml:"trigger,omitempty"`
}

// StatusID is the identity two status applications share when they replace
// each other instead of stacking.
type StatusID struct {
	Kind       StatusKind
	DamageType DamageType
	Stat       Stat
	Modifier   Modifier
	Debuff     bool
	TriggerID  string
}

// ID returns the identity of the specs.
func (s StatusSpecs) ID() StatusID {
	id := StatusID{
		Kind:       s.Kind,
		DamageType: s.DamageType,
		Stat:       s.Stat,
		Modifier:   s.Modifier,
		Debuff:     s.Debuff,
	}
	if s.Trigger != nil {
		id.TriggerID = s.Trigger.ID
	}
	return id
}

// ModifiesSpecs reports whether adding or removing the status changes the
// owner's specs.
func (s StatusSpecs) ModifiesSpecs() bool {
	return s.Kind == StatusStatModifier || s.Kind == StatusTrigger
}

// Clone returns a deep copy of the specs.
func (s StatusSpecs) Clone() StatusSpecs {
	cloned := s
	if s.Trigger != nil {
		trigger := s.Trigger.Clone()
		cloned.Trigger = &trigger
	}
	return cloned
}

// StatusInstance is a status currently applied to a character. Source is the
// skill type of the application, one unique instance exists per
// (status id, source) pair unless Cumulative is set. Applier is the
// character credited with kills caused by the status.
type StatusInstance struct {
	Specs      StatusSpecs  `json:"specs"`
	Source     SkillType    `json:"source"`
	Applier    CharacterRef `json:"applier"`
	Value      float64      `json:"value"`
	Duration   float64      `json:"duration"`
	Permanent  bool         `json:"permanent,omitempty"`
	Cumulative bool         `json:"cumulative,omitempty"`
}

// Strength is the quantity compared when a unique status is reapplied.
func (s StatusInstance) Strength() float64 {
	duration := s.Duration
	if s.Permanent {
		duration = PermanentDuration
	}
	return (s.Value + 1) * duration
}

// Clone returns a deep copy of the instance.
func (s StatusInstance) Clone() StatusInstance {
	cloned := s
	cloned.Specs = s.Specs.Clone()
	return cloned
}
