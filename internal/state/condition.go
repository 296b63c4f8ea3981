package state

// ConditionKind enumerates the checks a conditional modifier can depend on.
type ConditionKind string

const (
	ConditionHasStatus   ConditionKind = "has_status"
	ConditionMaximumLife ConditionKind = "maximum_life"
	ConditionMaximumMana ConditionKind = "maximum_mana"
)

// Condition is one check of a conditional modifier. Status and Source narrow
// has_status to a status kind and the skill type that applied it; empty
// values match any.
type Condition struct {
	Kind   ConditionKind `json:"kind" yaml:"kind"`
	Status StatusKind    `json:"status,omitempty" yaml:"status,omitempty"`
	Source SkillType     `json:"source,omitempty" yaml:"source,omitempty"`
}

// ConditionalModifier grants Effects while every condition holds.
type ConditionalModifier struct {
	Conditions []Condition  `json:"conditions" yaml:"conditions"`
	Effects    []StatEffect `json:"effects" yaml:"effects"`
}

// CloneConditionals deep-copies a modifier list.
func CloneConditionals(mods []ConditionalModifier) []ConditionalModifier {
	if len(mods) == 0 {
		return nil
	}
	cloned := make([]ConditionalModifier, len(mods))
	for i, mod := range mods {
		cloned[i] = ConditionalModifier{
			Conditions: append([]Condition(nil), mod.Conditions...),
			Effects:    CloneEffects(mod.Effects),
		}
	}
	return cloned
}

// IsKnownCondition reports whether kind is a recognised condition.
func IsKnownCondition(kind ConditionKind) bool {
	switch kind {
	case ConditionHasStatus, ConditionMaximumLife, ConditionMaximumMana:
		return true
	}
	return false
}
