package combat

import (
	"context"
	"math"

	"grindfall/server/internal/rng"
	"grindfall/server/internal/state"
	"grindfall/server/internal/stats"
	"grindfall/server/logging"
	loggingcombat "grindfall/server/logging/combat"
	loggingstatus "grindfall/server/logging/status"
)

// Config captures the dependencies of a Resolver.
type Config struct {
	RNG         *rng.Service
	Publisher   logging.Publisher
	Entity      func(ref state.CharacterRef) logging.EntityRef
	CurrentTick func() uint64
}

// Resolver applies skills and their consequences to a Battle. It owns the
// events queue of its game instance and, like the instance, is driven by a
// single goroutine.
type Resolver struct {
	rng    *rng.Service
	pub    logging.Publisher
	entity func(ref state.CharacterRef) logging.EntityRef
	tick   func() uint64

	Events EventsQueue
}

// NewResolver constructs a resolver. Missing dependencies fall back to a
// fixed-seed generator and a no-op publisher.
func NewResolver(cfg Config) *Resolver {
	r := &Resolver{
		rng:    cfg.RNG,
		pub:    cfg.Publisher,
		entity: cfg.Entity,
		tick:   cfg.CurrentTick,
	}
	if r.rng == nil {
		r.rng = rng.New("", "combat")
	}
	if r.pub == nil {
		r.pub = logging.NopPublisher()
	}
	if r.entity == nil {
		r.entity = defaultEntity
	}
	if r.tick == nil {
		r.tick = func() uint64 { return 0 }
	}
	return r
}

func defaultEntity(ref state.CharacterRef) logging.EntityRef {
	if ref.Kind == state.KindMonster {
		return logging.MonsterEntity(ref.Index)
	}
	return logging.EntityRef{Kind: logging.EntityKindPlayer}
}

// Origin describes where an effect comes from.
type Origin struct {
	Source    state.CharacterRef
	Skill     string
	SkillType state.SkillType
	Range     state.Range
	Triggered bool
}

// UseSkill fires skill for actor. Mana and cooldown are only committed when
// at least one target group found a target. It reports whether the skill
// was used.
func (r *Resolver) UseSkill(battle *Battle, actor state.CharacterRef, skill *state.SkillSpecs, skillState *state.SkillState) bool {
	if skill == nil || skillState == nil {
		return false
	}
	me, ok := battle.Get(actor)
	if !ok || !me.State.Alive || me.State.IsStunned() {
		return false
	}
	if !skillState.IsReady || me.State.Mana < skill.ManaCost {
		return false
	}

	origin := Origin{Source: actor, Skill: skill.Base.ID, SkillType: skill.Base.SkillType}
	luck := rng.LuckOf(me.Specs.Luck)
	affected := 0
	for _, group := range skill.Targets {
		origin.Range = group.Range
		repeat := 1
		if group.RepeatMax > 1 {
			repeat = r.rng.IntRange(max(group.RepeatMin, 1), group.RepeatMax, luck)
		}
		for i := 0; i < repeat; i++ {
			targets := r.FindTargets(battle, actor, group)
			if len(targets) == 0 {
				break
			}
			affected += len(targets)
			for _, effect := range group.Effects {
				if effect.FailureChance > 0 && r.rng.Chance(effect.FailureChance, rng.Neutral) {
					continue
				}
				r.applyEffect(battle, origin, effect, targets)
			}
		}
	}
	if affected == 0 {
		return false
	}

	me.State.Mana -= skill.ManaCost
	skillState.ElapsedCooldown = 0
	skillState.IsReady = false
	skillState.JustTriggered = true
	loggingcombat.SkillUsed(context.Background(), r.pub, r.tick(), r.entity(actor), loggingcombat.SkillUsedPayload{
		Skill:   skill.Base.ID,
		Targets: affected,
	}, nil)
	return true
}

func (r *Resolver) applyEffect(battle *Battle, origin Origin, effect state.SkillEffect, targets []state.CharacterRef) {
	source, ok := battle.Get(origin.Source)
	if !ok {
		return
	}
	luck := rng.LuckOf(source.Specs.Luck)

	switch effect.Kind {
	case state.EffectDamage:
		crit := r.rng.Chance(effect.CritChance, luck)
		raw := make(map[state.DamageType]float64, len(effect.Damage))
		for _, dt := range state.DamageTypes() {
			dr, ok := effect.Damage[dt]
			if !ok {
				continue
			}
			amount := r.rng.Range(dr.Min, dr.Max, luck)
			if crit {
				amount *= 1 + effect.CritDamage/100
			}
			raw[dt] = amount
		}
		for _, target := range targets {
			r.ApplyDamage(battle, origin, target, raw, crit)
		}
	case state.EffectHeal:
		amount := r.rng.Range(effect.AmountMin, effect.AmountMax, luck)
		for _, target := range targets {
			r.Heal(battle, target, amount)
		}
	case state.EffectRestoreMana:
		amount := r.rng.Range(effect.AmountMin, effect.AmountMax, luck)
		for _, target := range targets {
			r.RestoreMana(battle, target, amount)
		}
	case state.EffectApplyStatus:
		if effect.Status == nil {
			return
		}
		app := effect.Status
		instance := state.StatusInstance{
			Specs:      app.Specs.Clone(),
			Source:     origin.SkillType,
			Applier:    origin.Source,
			Value:      r.rng.Range(app.ValueMin, app.ValueMax, luck),
			Duration:   r.rng.Range(app.DurationMin, app.DurationMax, luck),
			Permanent:  app.Permanent,
			Cumulative: app.Cumulative,
		}
		for _, target := range targets {
			r.ApplyStatus(battle, target, instance.Clone())
		}
	}
}

// ApplyDamage resolves one hit of raw damage against target. Reductions run
// in order: evade (attacks only), resistance, armor, block, then the mana
// share. Life is not clamped so overkill stays visible.
func (r *Resolver) ApplyDamage(battle *Battle, origin Origin, target state.CharacterRef, raw map[state.DamageType]float64, crit bool) (HitEvent, bool) {
	t, ok := battle.Get(target)
	if !ok || !t.State.Alive || len(raw) == 0 {
		return HitEvent{}, false
	}
	luck := rng.LuckOf(t.Specs.Luck)

	if origin.SkillType == state.SkillAttack && r.rng.Chance(t.Specs.Evade, luck) {
		t.State.JustEvaded = true
		loggingcombat.Hit(context.Background(), r.pub, r.tick(), r.entity(origin.Source), r.entity(target), loggingcombat.HitPayload{
			Skill:      origin.Skill,
			Evaded:     true,
			Triggered:  origin.Triggered,
			TargetLife: t.State.Life,
		}, nil)
		return HitEvent{}, false
	}

	blockChance := t.Specs.Block
	if origin.SkillType == state.SkillSpell {
		blockChance = t.Specs.BlockSpell
	}
	blocked := r.rng.Chance(blockChance, luck)

	final := make(map[state.DamageType]float64, len(raw))
	total := 0.0
	for _, dt := range state.DamageTypes() {
		amount, ok := raw[dt]
		if !ok {
			continue
		}
		amount *= 1 - t.Specs.Resistance[dt]/100
		amount *= 1 - stats.ArmorReduction(t.Specs.Armor[dt])
		if blocked {
			amount *= 1 - t.Specs.BlockDamage/100
		}
		amount = math.Max(0, amount)
		final[dt] = amount
		total += amount
	}

	hurt := r.takeDamage(t, total)
	if blocked {
		t.State.JustBlocked = true
	}
	if hurt && crit {
		t.State.JustHurtCrit = true
	}

	hit := HitEvent{
		Source:    origin.Source,
		Target:    target,
		SkillType: origin.SkillType,
		Range:     origin.Range,
		Crit:      crit,
		Blocked:   blocked,
		Hurt:      hurt,
		Triggered: origin.Triggered,
		Damage:    final,
	}
	r.Events.Push(Event{Kind: EventHit, Hit: &hit})
	loggingcombat.Hit(context.Background(), r.pub, r.tick(), r.entity(origin.Source), r.entity(target), loggingcombat.HitPayload{
		Skill:      origin.Skill,
		Damage:     damageLabels(final),
		Crit:       crit,
		Blocked:    blocked,
		Triggered:  origin.Triggered,
		TargetLife: t.State.Life,
	}, nil)
	r.checkDeath(t, origin.Source, target, origin.Skill)
	return hit, true
}

// takeDamage removes amount from mana, up to the take-from-mana share, and
// the rest from life.
func (r *Resolver) takeDamage(c Combatant, amount float64) bool {
	if amount <= 0 {
		return false
	}
	fromMana := math.Min(c.State.Mana, amount*c.Specs.TakeFromMana/100)
	if fromMana < 0 {
		fromMana = 0
	}
	c.State.Mana -= fromMana
	c.State.Life -= amount - fromMana
	c.State.JustHurt = true
	return true
}

func (r *Resolver) checkDeath(c Combatant, killer, victim state.CharacterRef, skill string) {
	if !c.State.Alive || c.State.Life > 0 {
		return
	}
	c.State.Alive = false
	r.Events.Push(Event{Kind: EventKill, Source: killer, Target: victim})
	loggingcombat.Kill(context.Background(), r.pub, r.tick(), r.entity(killer), r.entity(victim), loggingcombat.KillPayload{Skill: skill}, nil)
}

// Heal restores life up to the maximum.
func (r *Resolver) Heal(battle *Battle, target state.CharacterRef, amount float64) {
	t, ok := battle.Get(target)
	if !ok || !t.State.Alive || amount <= 0 {
		return
	}
	t.State.Life = math.Min(t.Specs.MaxLife, t.State.Life+amount)
}

// RestoreMana restores mana up to the maximum.
func (r *Resolver) RestoreMana(battle *Battle, target state.CharacterRef, amount float64) {
	t, ok := battle.Get(target)
	if !ok || !t.State.Alive || amount <= 0 {
		return
	}
	t.State.Mana = math.Min(t.Specs.MaxMana, t.State.Mana+amount)
}

// ApplyStatus adds instance to target. A non-cumulative status replaces the
// instance with the same identity and source only when it is stronger; a
// weaker reapplication is dropped and reported as not applied.
func (r *Resolver) ApplyStatus(battle *Battle, target state.CharacterRef, instance state.StatusInstance) bool {
	t, ok := battle.Get(target)
	if !ok || !t.State.Alive {
		return false
	}
	payload := statusPayload(instance)

	if !instance.Cumulative {
		id := instance.Specs.ID()
		for i := range t.State.Status {
			existing := &t.State.Status[i]
			if existing.Cumulative || existing.Source != instance.Source || existing.Specs.ID() != id {
				continue
			}
			if instance.Strength() <= existing.Strength() {
				loggingstatus.Rejected(context.Background(), r.pub, r.tick(), r.entity(instance.Applier), r.entity(target), payload, nil)
				return false
			}
			*existing = instance
			r.statusChanged(t, instance)
			loggingstatus.Applied(context.Background(), r.pub, r.tick(), r.entity(instance.Applier), r.entity(target), payload, nil)
			return true
		}
	}

	t.State.Status = append(t.State.Status, instance)
	r.statusChanged(t, instance)
	loggingstatus.Applied(context.Background(), r.pub, r.tick(), r.entity(instance.Applier), r.entity(target), payload, nil)
	return true
}

func (r *Resolver) statusChanged(c Combatant, instance state.StatusInstance) {
	if instance.Specs.ModifiesSpecs() {
		c.State.DirtySpecs = true
	}
}

// TickStatuses advances the statuses of ref by elapsed seconds. Damage over
// time deals value per second for the part of elapsed the status was
// active. Expired statuses are removed.
func (r *Resolver) TickStatuses(battle *Battle, ref state.CharacterRef, elapsed float64) {
	c, ok := battle.Get(ref)
	if !ok || !c.State.Alive || len(c.State.Status) == 0 {
		return
	}
	kept := c.State.Status[:0]
	var killer *state.CharacterRef
	for _, status := range c.State.Status {
		if status.Specs.Kind == state.StatusDamageOverTime {
			active := elapsed
			if !status.Permanent {
				active = math.Min(elapsed, status.Duration)
			}
			if r.takeDamage(c, status.Value*active) {
				applier := status.Applier
				killer = &applier
			}
		}
		if !status.Permanent {
			status.Duration -= elapsed
			if status.Duration <= 0 {
				r.statusChanged(c, status)
				loggingstatus.Expired(context.Background(), r.pub, r.tick(), r.entity(ref), statusPayload(status), nil)
				continue
			}
		}
		kept = append(kept, status)
	}
	for i := len(kept); i < len(c.State.Status); i++ {
		c.State.Status[i] = state.StatusInstance{}
	}
	c.State.Status = kept
	if killer != nil {
		r.checkDeath(c, *killer, ref, "")
	}
}

// TickCooldowns advances skill cooldowns. A skill becomes ready exactly when
// its elapsed cooldown reaches the cooldown.
func TickCooldowns(skills []state.SkillSpecs, states []state.SkillState, elapsed float64) {
	for i := range states {
		if i >= len(skills) {
			break
		}
		st := &states[i]
		if !st.IsReady {
			st.ElapsedCooldown += elapsed
		}
		st.IsReady = st.ElapsedCooldown >= skills[i].Cooldown
	}
}

// Regenerate restores life and mana by their regen percentage of the
// maximum per second.
func Regenerate(c Combatant, elapsed float64) {
	if c.Specs == nil || c.State == nil || !c.State.Alive {
		return
	}
	c.State.Life = math.Min(c.Specs.MaxLife, c.State.Life+elapsed*c.Specs.LifeRegen*c.Specs.MaxLife/100)
	c.State.Mana = math.Min(c.Specs.MaxMana, c.State.Mana+elapsed*c.Specs.ManaRegen*c.Specs.MaxMana/100)
	if c.State.Mana < 0 {
		c.State.Mana = 0
	}
}

func statusPayload(instance state.StatusInstance) loggingstatus.Payload {
	return loggingstatus.Payload{
		Kind:       string(instance.Specs.Kind),
		Source:     string(instance.Source),
		Value:      instance.Value,
		Duration:   instance.Duration,
		Permanent:  instance.Permanent,
		Cumulative: instance.Cumulative,
	}
}

func damageLabels(damage map[state.DamageType]float64) map[string]float64 {
	if len(damage) == 0 {
		return nil
	}
	out := make(map[string]float64, len(damage))
	for dt, amount := range damage {
		out[string(dt)] = amount
	}
	return out
}
