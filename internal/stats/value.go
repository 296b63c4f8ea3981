// Package stats folds ordered modifier lists into effective character, skill
// and monster specs.
package stats

import (
	"math"

	"grindfall/server/internal/state"
)

// Value accumulates the three modifier passes of one numeric field.
type Value struct {
	Base      float64
	Flat      float64
	Increased float64
	More      float64
}

// NewValue starts a fold from base.
func NewValue(base float64) Value {
	return Value{Base: base}
}

// Apply adds a modifier contribution. Flat values and percentage increases sum,
// "more" percentages compound.
func (v *Value) Apply(mod state.Modifier, amount float64) {
	if v == nil {
		return
	}
	switch mod {
	case state.ModifierFlat:
		v.Flat += amount
	case state.ModifierIncreased:
		v.Increased += amount
	case state.ModifierMore:
		v.More = CompoundMore(v.More, amount)
	}
}

// ApplyMatching applies every effect whose stat applies to the field.
func (v *Value) ApplyMatching(effects []state.StatEffect, kind state.StatKind, skill state.SkillType, damage state.DamageType) {
	for _, effect := range effects {
		if effect.Stat.Applies(kind, skill, damage) {
			v.Apply(effect.Modifier, effect.Value)
		}
	}
}

// Evaluate returns (base+flat) * (1+increased%) * (1+more%). A negative flat
// base skips both percentage passes.
func (v Value) Evaluate() float64 {
	b := v.Base + v.Flat
	if b < 0 {
		return b
	}
	increased := math.Max(0, 1+v.Increased/100)
	more := math.Max(0, 1+v.More/100)
	return b * increased * more
}

// CompoundMore combines two "more" percentages multiplicatively.
func CompoundMore(current, amount float64) float64 {
	return current + amount + current*amount/100
}

// Fold evaluates base with every effect that applies to the field.
func Fold(base float64, effects []state.StatEffect, kind state.StatKind, skill state.SkillType, damage state.DamageType) float64 {
	v := NewValue(base)
	v.ApplyMatching(effects, kind, skill, damage)
	return v.Evaluate()
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
