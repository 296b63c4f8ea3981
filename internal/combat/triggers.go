package combat

import (
	"context"
	"math"

	"grindfall/server/internal/state"
	"grindfall/server/internal/stats"
	loggingcombat "grindfall/server/logging/combat"
)

// TriggerContext carries instance-wide values trigger modifiers may scale
// from.
type TriggerContext struct {
	AreaLevel int
}

type firedTrigger struct {
	trigger state.TriggerSpecs
	owner   state.CharacterRef
	target  state.CharacterRef
	hit     *HitEvent
}

// ResolveTriggers matches events against the triggers of every character and
// applies the triggered effects. Events produced while applying them are
// queued for the next call, so a trigger never reacts to its own output
// within the same tick.
func (r *Resolver) ResolveTriggers(battle *Battle, events []Event, ctx TriggerContext) int {
	var fired []firedTrigger
	for _, event := range events {
		fired = append(fired, r.matchEvent(battle, event)...)
	}
	for _, f := range fired {
		r.fire(battle, f, ctx)
	}
	return len(fired)
}

func (r *Resolver) matchEvent(battle *Battle, event Event) []firedTrigger {
	var out []firedTrigger
	collect := func(owner state.CharacterRef, kind state.EventTriggerKind, source, target state.CharacterRef, hit *HitEvent) {
		c, ok := battle.Get(owner)
		if !ok {
			return
		}
		for _, trigger := range c.Specs.Triggers {
			if trigger.Event != kind {
				continue
			}
			if hit != nil && !matchHit(trigger.Hit, *hit) {
				continue
			}
			out = append(out, firedTrigger{
				trigger: trigger,
				owner:   owner,
				target:  resolveTriggerTarget(trigger.Target, owner, source, target),
				hit:     hit,
			})
		}
	}

	switch event.Kind {
	case EventHit:
		if event.Hit == nil {
			return nil
		}
		hit := event.Hit
		collect(hit.Source, state.TriggerOnHit, hit.Source, hit.Target, hit)
		collect(hit.Target, state.TriggerOnTakeHit, hit.Source, hit.Target, hit)
	case EventKill:
		collect(event.Source, state.TriggerOnKill, event.Source, event.Target, nil)
		collect(event.Target, state.TriggerOnDeath, event.Source, event.Target, nil)
	case EventWaveCompleted:
		player := state.PlayerRef()
		collect(player, state.TriggerOnWaveCompleted, player, player, nil)
	case EventThreatIncreased:
		for _, ref := range battle.Refs() {
			collect(ref, state.TriggerOnThreatIncreased, ref, ref, nil)
		}
	}
	return out
}

func resolveTriggerTarget(target state.TriggerTarget, owner, source, hitTarget state.CharacterRef) state.CharacterRef {
	switch target {
	case state.TriggerTargetSource:
		return source
	case state.TriggerTargetMe:
		return owner
	default:
		return hitTarget
	}
}

func matchHit(filter state.HitFilter, hit HitEvent) bool {
	if filter.SkillType != state.SkillAny && filter.SkillType != hit.SkillType {
		return false
	}
	if filter.Range != state.RangeAny && filter.Range != hit.Range {
		return false
	}
	if filter.DamageType != state.DamageAny && hit.Damage[filter.DamageType] <= 0 {
		return false
	}
	return matchFlag(filter.IsCrit, hit.Crit) &&
		matchFlag(filter.IsBlocked, hit.Blocked) &&
		matchFlag(filter.IsHurt, hit.Hurt) &&
		matchFlag(filter.IsTriggered, hit.Triggered)
}

func matchFlag(want *bool, got bool) bool {
	return want == nil || *want == got
}

func (r *Resolver) fire(battle *Battle, f firedTrigger, ctx TriggerContext) {
	if _, ok := battle.Get(f.owner); !ok {
		return
	}
	modifiers := r.triggerModifiers(battle, f, ctx)
	origin := Origin{
		Source:    f.owner,
		Skill:     f.trigger.ID,
		SkillType: f.trigger.SkillType,
		Range:     f.trigger.Range,
		Triggered: true,
	}
	targets := []state.CharacterRef{f.target}
	for _, effect := range f.trigger.Effects {
		computed := stats.ModifyEffect(effect, f.trigger.SkillType, modifiers, 0)
		r.applyEffect(battle, origin, computed, targets)
	}
	loggingcombat.TriggerFired(context.Background(), r.pub, r.tick(), r.entity(f.owner), loggingcombat.TriggerFiredPayload{
		Trigger: f.trigger.ID,
		Event:   string(f.trigger.Event),
	}, nil)
}

// triggerModifiers converts each modifier into a stat effect worth factor
// percent of its source quantity.
func (r *Resolver) triggerModifiers(battle *Battle, f firedTrigger, ctx TriggerContext) []state.StatEffect {
	if len(f.trigger.Modifiers) == 0 {
		return nil
	}
	target, _ := battle.Get(f.target)
	out := make([]state.StatEffect, 0, len(f.trigger.Modifiers))
	for _, mod := range f.trigger.Modifiers {
		var quantity float64
		switch mod.Source {
		case state.SourceHitDamage:
			if f.hit != nil {
				if mod.DamageType == state.DamageAny {
					quantity = f.hit.Total()
				} else {
					quantity = f.hit.Damage[mod.DamageType]
				}
			}
		case state.SourceAreaLevel:
			quantity = float64(ctx.AreaLevel)
		case state.SourceStatusValue, state.SourceStatusDuration, state.SourceStatusStacks:
			if target.State != nil {
				quantity = statusQuantity(target.State.Status, mod)
			}
		}
		out = append(out, state.StatEffect{
			Stat:     mod.Stat,
			Modifier: mod.Modifier,
			Value:    mod.Factor * quantity / 100,
		})
	}
	return out
}

// statusQuantity sums values, keeps the longest remaining duration or counts
// stacks of the statuses of the modifier's kind.
func statusQuantity(statuses []state.StatusInstance, mod state.TriggerModifier) float64 {
	quantity := 0.0
	for _, status := range statuses {
		if mod.StatusKind != "" && status.Specs.Kind != mod.StatusKind {
			continue
		}
		switch mod.Source {
		case state.SourceStatusValue:
			quantity += status.Value
		case state.SourceStatusDuration:
			quantity = math.Max(quantity, status.Duration)
		case state.SourceStatusStacks:
			quantity++
		}
	}
	return quantity
}
