package combat

import (
	"math"
	"testing"

	"grindfall/server/internal/rng"
	"grindfall/server/internal/state"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

type fighter struct {
	specs state.CharacterSpecs
	state state.CharacterState
}

func newFighter(x, y int, life, mana float64) *fighter {
	f := &fighter{specs: state.CharacterSpecs{
		Name:    "fighter",
		Size:    state.SizeSmall,
		X:       x,
		Y:       y,
		MaxLife: life,
		MaxMana: mana,
	}}
	f.state = state.NewCharacterState(f.specs)
	return f
}

func (f *fighter) combatant() Combatant {
	return Combatant{Specs: &f.specs, State: &f.state}
}

func newBattle(player *fighter, monsters ...*fighter) *Battle {
	b := &Battle{Player: player.combatant()}
	for _, m := range monsters {
		b.Monsters = append(b.Monsters, m.combatant())
	}
	return b
}

func newTestResolver() *Resolver {
	return NewResolver(Config{RNG: rng.New("test", "combat")})
}

func flatDamage(dt state.DamageType, amount float64) state.SkillEffect {
	return state.SkillEffect{
		Kind:   state.EffectDamage,
		Damage: map[state.DamageType]state.DamageRange{dt: {Min: amount, Max: amount}},
	}
}

func meleeSkill(manaCost float64, effects ...state.SkillEffect) state.SkillSpecs {
	return state.NewSkillSpecs(state.SkillBase{
		ID:        "strike",
		SkillType: state.SkillAttack,
		Cooldown:  1,
		ManaCost:  manaCost,
		Targets: []state.TargetGroup{{
			Range:      state.RangeMelee,
			TargetType: state.TargetEnemy,
			Shape:      state.ShapeSingle,
			Effects:    effects,
		}},
	})
}

func TestArmorHalvesDamageAtArmorFactor(t *testing.T) {
	player := newFighter(0, 1, 100, 0)
	monster := newFighter(1, 1, 100, 0)
	monster.specs.Armor = map[state.DamageType]float64{state.DamagePhysical: 100}
	battle := newBattle(player, monster)

	r := newTestResolver()
	origin := Origin{Source: state.PlayerRef(), SkillType: state.SkillAttack, Range: state.RangeMelee}
	hit, ok := r.ApplyDamage(battle, origin, state.MonsterRef(0), map[state.DamageType]float64{state.DamagePhysical: 50}, false)
	if !ok {
		t.Fatalf("expected the hit to land")
	}
	if !approx(hit.Damage[state.DamagePhysical], 25) {
		t.Fatalf("expected 25 damage after armor, got %v", hit.Damage[state.DamagePhysical])
	}
	if !approx(monster.state.Life, 75) {
		t.Fatalf("expected life 75, got %v", monster.state.Life)
	}
	if !monster.state.JustHurt {
		t.Fatalf("expected just-hurt flag")
	}
}

func TestTakeFromManaSplitsDamage(t *testing.T) {
	player := newFighter(0, 1, 100, 100)
	player.specs.TakeFromMana = 40
	player.state.Mana = 10
	monster := newFighter(1, 1, 100, 0)
	battle := newBattle(player, monster)

	r := newTestResolver()
	origin := Origin{Source: state.MonsterRef(0), SkillType: state.SkillSpell}
	if _, ok := r.ApplyDamage(battle, origin, state.PlayerRef(), map[state.DamageType]float64{state.DamageFire: 50}, false); !ok {
		t.Fatalf("expected the hit to land")
	}
	if !approx(player.state.Mana, 0) || !approx(player.state.Life, 60) {
		t.Fatalf("expected mana 0 and life 60, got mana %v life %v", player.state.Mana, player.state.Life)
	}
}

func TestResistanceAndBlockReduceDamage(t *testing.T) {
	player := newFighter(0, 1, 100, 0)
	monster := newFighter(1, 1, 100, 0)
	monster.specs.Resistance = map[state.DamageType]float64{state.DamageFire: 50}
	monster.specs.BlockSpell = 100
	monster.specs.BlockDamage = 50
	battle := newBattle(player, monster)

	r := newTestResolver()
	origin := Origin{Source: state.PlayerRef(), SkillType: state.SkillSpell}
	hit, _ := r.ApplyDamage(battle, origin, state.MonsterRef(0), map[state.DamageType]float64{state.DamageFire: 40}, false)
	if !hit.Blocked || !monster.state.JustBlocked {
		t.Fatalf("expected spell block to succeed")
	}
	if !approx(hit.Damage[state.DamageFire], 10) {
		t.Fatalf("expected 40 * 0.5 * 0.5 = 10, got %v", hit.Damage[state.DamageFire])
	}
}

func TestEvadeOnlyAppliesToAttacks(t *testing.T) {
	player := newFighter(0, 1, 100, 0)
	monster := newFighter(1, 1, 100, 0)
	monster.specs.Evade = 100
	battle := newBattle(player, monster)
	r := newTestResolver()
	raw := map[state.DamageType]float64{state.DamagePhysical: 10}

	if _, ok := r.ApplyDamage(battle, Origin{Source: state.PlayerRef(), SkillType: state.SkillAttack}, state.MonsterRef(0), raw, false); ok {
		t.Fatalf("expected the attack to be evaded")
	}
	if !monster.state.JustEvaded || monster.state.Life != 100 {
		t.Fatalf("evaded attack must not deal damage")
	}
	if _, ok := r.ApplyDamage(battle, Origin{Source: state.PlayerRef(), SkillType: state.SkillSpell}, state.MonsterRef(0), raw, false); !ok {
		t.Fatalf("spells cannot be evaded")
	}
}

func TestLethalHitQueuesKill(t *testing.T) {
	player := newFighter(0, 1, 100, 0)
	monster := newFighter(1, 1, 10, 0)
	battle := newBattle(player, monster)
	r := newTestResolver()

	r.ApplyDamage(battle, Origin{Source: state.PlayerRef(), SkillType: state.SkillSpell}, state.MonsterRef(0), map[state.DamageType]float64{state.DamagePhysical: 25}, false)
	if monster.state.Alive {
		t.Fatalf("expected the monster to die")
	}
	if monster.state.Life != -15 {
		t.Fatalf("expected overkill to stay visible, got %v", monster.state.Life)
	}
	events := r.Events.Drain()
	if len(events) != 2 || events[0].Kind != EventHit || events[1].Kind != EventKill {
		t.Fatalf("expected hit then kill events, got %+v", events)
	}
	if events[1].Source != state.PlayerRef() || events[1].Target != state.MonsterRef(0) {
		t.Fatalf("unexpected kill refs %+v", events[1])
	}
	if r.Events.Len() != 0 {
		t.Fatalf("drain must empty the queue")
	}
}

func TestMeleeTieBreaksOnIterationOrder(t *testing.T) {
	player := newFighter(0, 1, 100, 0)
	first := newFighter(2, 1, 100, 0)
	second := newFighter(2, 2, 100, 0)
	far := newFighter(4, 1, 100, 0)
	battle := newBattle(player, far, first, second)

	r := newTestResolver()
	group := state.TargetGroup{Range: state.RangeMelee, TargetType: state.TargetEnemy, Shape: state.ShapeSingle}
	targets := r.FindTargets(battle, state.PlayerRef(), group)
	if len(targets) != 1 || targets[0] != state.MonsterRef(1) {
		t.Fatalf("expected the first closest monster, got %+v", targets)
	}

	group.Range = state.RangeDistance
	targets = r.FindTargets(battle, state.PlayerRef(), group)
	if len(targets) != 1 || targets[0] != state.MonsterRef(0) {
		t.Fatalf("expected the farthest monster, got %+v", targets)
	}
}

func TestShapesExpandAwayFromCaster(t *testing.T) {
	player := newFighter(0, 1, 100, 0)
	a := newFighter(1, 1, 100, 0)
	b := newFighter(2, 1, 100, 0)
	c := newFighter(3, 1, 100, 0)
	d := newFighter(1, 2, 100, 0)
	big := newFighter(4, 1, 100, 0)
	big.specs.Size = state.SizeHuge
	battle := newBattle(player, a, b, c, d, big)
	r := newTestResolver()

	cases := []struct {
		shape state.Shape
		want  []int
	}{
		{shape: state.ShapeSingle, want: []int{0}},
		{shape: state.ShapeHorizontal2, want: []int{0, 1}},
		{shape: state.ShapeHorizontal3, want: []int{0, 1, 2}},
		{shape: state.ShapeVertical2, want: []int{0, 3}},
		{shape: state.ShapeSquare4, want: []int{0, 1, 3}},
		{shape: state.ShapeAll, want: []int{0, 1, 2, 3, 4}},
	}
	for _, tc := range cases {
		t.Run(string(tc.shape), func(t *testing.T) {
			group := state.TargetGroup{Range: state.RangeMelee, TargetType: state.TargetEnemy, Shape: tc.shape}
			got := r.FindTargets(battle, state.PlayerRef(), group)
			if len(got) != len(tc.want) {
				t.Fatalf("expected %d targets, got %+v", len(tc.want), got)
			}
			for i, idx := range tc.want {
				if got[i] != state.MonsterRef(idx) {
					t.Fatalf("target %d: expected monster %d, got %+v", i, idx, got[i])
				}
			}
		})
	}
}

func TestUseSkillCommitsOnlyWithTargets(t *testing.T) {
	player := newFighter(0, 1, 100, 50)
	monster := newFighter(1, 1, 100, 0)
	monster.state.Alive = false
	battle := newBattle(player, monster)
	r := newTestResolver()

	skill := meleeSkill(20, flatDamage(state.DamagePhysical, 10))
	st := state.SkillState{IsReady: true, ElapsedCooldown: 1}
	if r.UseSkill(battle, state.PlayerRef(), &skill, &st) {
		t.Fatalf("skill with no living target must not fire")
	}
	if player.state.Mana != 50 || !st.IsReady || st.ElapsedCooldown != 1 {
		t.Fatalf("failed use must not consume resources, mana=%v state=%+v", player.state.Mana, st)
	}

	monster.state.Alive = true
	if !r.UseSkill(battle, state.PlayerRef(), &skill, &st) {
		t.Fatalf("expected the skill to fire")
	}
	if player.state.Mana != 30 {
		t.Fatalf("expected mana cost to be paid, got %v", player.state.Mana)
	}
	if st.IsReady || st.ElapsedCooldown != 0 || !st.JustTriggered {
		t.Fatalf("unexpected skill state after use: %+v", st)
	}
	if monster.state.Life != 90 {
		t.Fatalf("expected 10 damage, got life %v", monster.state.Life)
	}
	if r.UseSkill(battle, state.PlayerRef(), &skill, &st) {
		t.Fatalf("skill on cooldown must not fire")
	}
}

func TestUseSkillRequiresManaAndNoStun(t *testing.T) {
	player := newFighter(0, 1, 100, 10)
	monster := newFighter(1, 1, 100, 0)
	battle := newBattle(player, monster)
	r := newTestResolver()

	skill := meleeSkill(20, flatDamage(state.DamagePhysical, 10))
	st := state.SkillState{IsReady: true}
	if r.UseSkill(battle, state.PlayerRef(), &skill, &st) {
		t.Fatalf("expected insufficient mana to block the skill")
	}

	player.state.Mana = 50
	player.state.Status = []state.StatusInstance{{Specs: state.StatusSpecs{Kind: state.StatusStun}, Duration: 1}}
	if r.UseSkill(battle, state.PlayerRef(), &skill, &st) {
		t.Fatalf("stunned characters cannot act")
	}
}

func TestCooldownReadyExactlyAtThreshold(t *testing.T) {
	skills := []state.SkillSpecs{{Cooldown: 1}}
	states := []state.SkillState{{}}

	TickCooldowns(skills, states, 0.5)
	if states[0].IsReady {
		t.Fatalf("skill must not be ready before its cooldown")
	}
	TickCooldowns(skills, states, 0.5)
	if !states[0].IsReady {
		t.Fatalf("skill must be ready once elapsed reaches the cooldown")
	}
}

func TestStatusReapplicationKeepsStronger(t *testing.T) {
	player := newFighter(0, 1, 100, 0)
	monster := newFighter(1, 1, 100, 0)
	battle := newBattle(player, monster)
	r := newTestResolver()

	specs := state.StatusSpecs{Kind: state.StatusStatModifier, Stat: state.Stat{Kind: state.StatArmor}, Modifier: state.ModifierFlat}
	strong := state.StatusInstance{Specs: specs, Source: state.SkillSpell, Value: 10, Duration: 5}
	weak := state.StatusInstance{Specs: specs, Source: state.SkillSpell, Value: 3, Duration: 5}

	if !r.ApplyStatus(battle, state.MonsterRef(0), strong) {
		t.Fatalf("first application must succeed")
	}
	if !monster.state.DirtySpecs {
		t.Fatalf("stat modifier must mark specs dirty")
	}
	if r.ApplyStatus(battle, state.MonsterRef(0), weak) {
		t.Fatalf("weaker reapplication must be rejected")
	}
	if len(monster.state.Status) != 1 || monster.state.Status[0].Value != 10 {
		t.Fatalf("existing status must be unchanged, got %+v", monster.state.Status)
	}

	otherSource := weak
	otherSource.Source = state.SkillAttack
	if !r.ApplyStatus(battle, state.MonsterRef(0), otherSource) {
		t.Fatalf("a different source must get its own instance")
	}

	stacking := state.StatusInstance{Specs: state.StatusSpecs{Kind: state.StatusDamageOverTime, DamageType: state.DamagePoison}, Value: 1, Duration: 1, Cumulative: true}
	r.ApplyStatus(battle, state.MonsterRef(0), stacking)
	r.ApplyStatus(battle, state.MonsterRef(0), stacking)
	if len(monster.state.Status) != 4 {
		t.Fatalf("cumulative statuses must stack, got %d", len(monster.state.Status))
	}
}

func TestDamageOverTimeTicksAndExpires(t *testing.T) {
	player := newFighter(0, 1, 100, 0)
	monster := newFighter(1, 1, 100, 0)
	battle := newBattle(player, monster)
	r := newTestResolver()

	monster.state.Status = []state.StatusInstance{
		{Specs: state.StatusSpecs{Kind: state.StatusDamageOverTime, DamageType: state.DamagePoison}, Applier: state.PlayerRef(), Value: 10, Duration: 0.5},
		{Specs: state.StatusSpecs{Kind: state.StatusStatModifier, Stat: state.Stat{Kind: state.StatArmor}, Modifier: state.ModifierFlat}, Value: 5, Duration: 3},
	}
	r.TickStatuses(battle, state.MonsterRef(0), 1)

	if !approx(monster.state.Life, 95) {
		t.Fatalf("expected DoT limited to its remaining duration, got life %v", monster.state.Life)
	}
	if len(monster.state.Status) != 1 || monster.state.Status[0].Specs.Kind != state.StatusStatModifier {
		t.Fatalf("expected only the expired DoT to be removed, got %+v", monster.state.Status)
	}
	if monster.state.DirtySpecs {
		t.Fatalf("removing a DoT must not dirty specs")
	}

	r.TickStatuses(battle, state.MonsterRef(0), 3)
	if len(monster.state.Status) != 0 || !monster.state.DirtySpecs {
		t.Fatalf("expired stat modifier must be removed and dirty specs")
	}
}

func TestRegenerateClampsToMaximum(t *testing.T) {
	f := newFighter(0, 1, 100, 50)
	f.specs.LifeRegen = 10
	f.specs.ManaRegen = 10
	f.state.Life = 95
	f.state.Mana = 10
	Regenerate(f.combatant(), 1)
	if f.state.Life != 100 || f.state.Mana != 15 {
		t.Fatalf("unexpected regen result life=%v mana=%v", f.state.Life, f.state.Mana)
	}
}

func TestOnHitTriggerFiresWithScaledDamage(t *testing.T) {
	player := newFighter(0, 1, 100, 0)
	critOnly := true
	player.specs.Triggers = []state.TriggerSpecs{{
		ID:        "ember",
		Event:     state.TriggerOnHit,
		Hit:       state.HitFilter{IsCrit: &critOnly},
		Target:    state.TriggerTargetSame,
		SkillType: state.SkillSpell,
		Modifiers: []state.TriggerModifier{{
			Stat:       state.Stat{Kind: state.StatDamage, Damage: state.DamageFire},
			Modifier:   state.ModifierFlat,
			Factor:     50,
			Source:     state.SourceHitDamage,
			DamageType: state.DamagePhysical,
		}},
		Effects: []state.SkillEffect{{Kind: state.EffectDamage}},
	}}
	monster := newFighter(1, 1, 100, 0)
	battle := newBattle(player, monster)
	r := newTestResolver()

	origin := Origin{Source: state.PlayerRef(), SkillType: state.SkillAttack, Range: state.RangeMelee}
	r.ApplyDamage(battle, origin, state.MonsterRef(0), map[state.DamageType]float64{state.DamagePhysical: 20}, false)
	if fired := r.ResolveTriggers(battle, r.Events.Drain(), TriggerContext{}); fired != 0 {
		t.Fatalf("non-crit hit must not fire a crit-only trigger, fired %d", fired)
	}

	r.ApplyDamage(battle, origin, state.MonsterRef(0), map[state.DamageType]float64{state.DamagePhysical: 20}, true)
	if fired := r.ResolveTriggers(battle, r.Events.Drain(), TriggerContext{}); fired != 1 {
		t.Fatalf("expected one trigger, fired %d", fired)
	}
	if !approx(monster.state.Life, 50) {
		t.Fatalf("expected 20 + 20 + 10 triggered damage, got life %v", monster.state.Life)
	}

	deferred := r.Events.Drain()
	if len(deferred) != 1 || deferred[0].Hit == nil || !deferred[0].Hit.Triggered {
		t.Fatalf("expected the triggered hit to wait for the next tick, got %+v", deferred)
	}
}
