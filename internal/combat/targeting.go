package combat

import (
	"grindfall/server/internal/state"
)

type cell struct {
	x, y int
}

// FindTargets selects the characters a target group affects when used by
// actor. Melee groups aim at the closest candidate and distance groups at
// the farthest, ties going to the first candidate in battle order. The shape
// then expands the primary target's cell into neighbouring cells.
func (r *Resolver) FindTargets(battle *Battle, actor state.CharacterRef, group state.TargetGroup) []state.CharacterRef {
	me, ok := battle.Get(actor)
	if !ok {
		return nil
	}
	candidates := r.candidates(battle, actor, group)
	if len(candidates) == 0 {
		return nil
	}

	var primary state.CharacterRef
	switch group.Range {
	case state.RangeMelee, state.RangeDistance:
		best := -1
		for _, ref := range candidates {
			c, _ := battle.Get(ref)
			d := abs(c.Specs.X - me.Specs.X)
			if best < 0 ||
				(group.Range == state.RangeMelee && d < best) ||
				(group.Range == state.RangeDistance && d > best) {
				best = d
				primary = ref
			}
		}
	default:
		primary = candidates[r.rng.Pick(len(candidates))]
	}

	target, _ := battle.Get(primary)
	origin := cell{x: target.Specs.X, y: target.Specs.Y}
	dx := r.direction(group.Range, origin.x-me.Specs.X)

	out := make([]state.CharacterRef, 0, len(candidates))
	for _, ref := range candidates {
		c, _ := battle.Get(ref)
		if occupiesShape(c.Specs, group.Shape, origin, dx) {
			out = append(out, ref)
		}
	}
	return out
}

func (r *Resolver) candidates(battle *Battle, actor state.CharacterRef, group state.TargetGroup) []state.CharacterRef {
	var pool []state.CharacterRef
	switch group.TargetType {
	case state.TargetEnemy:
		pool = battle.Opponents(actor)
	case state.TargetFriend:
		pool = battle.Allies(actor)
	case state.TargetSelf:
		pool = []state.CharacterRef{actor}
	}
	out := pool[:0:0]
	for _, ref := range pool {
		c, ok := battle.Get(ref)
		if !ok {
			continue
		}
		if !c.State.Alive && !group.AllowDead {
			continue
		}
		out = append(out, ref)
	}
	return out
}

// direction returns the column step of horizontal shapes. Melee shapes extend
// away from the caster, distance shapes back towards it and untargeted
// shapes pick a side at random.
func (r *Resolver) direction(kind state.Range, delta int) int {
	away := 1
	if delta < 0 {
		away = -1
	}
	switch kind {
	case state.RangeMelee:
		return away
	case state.RangeDistance:
		return -away
	default:
		if r.rng.Pick(2) == 0 {
			return 1
		}
		return -1
	}
}

func occupiesShape(specs *state.CharacterSpecs, shape state.Shape, origin cell, dx int) bool {
	w, h := specs.Size.Footprint()
	for x := specs.X; x < specs.X+w; x++ {
		for y := specs.Y; y < specs.Y+h; y++ {
			if inShape(shape, cell{x: x, y: y}, origin, dx) {
				return true
			}
		}
	}
	return false
}

func inShape(shape state.Shape, pos, origin cell, dx int) bool {
	fullColumn := pos.y >= FirstRow && pos.y <= LastRow
	switch shape {
	case state.ShapeVertical2:
		return pos.x == origin.x && fullColumn
	case state.ShapeHorizontal2:
		return (pos.x == origin.x || pos.x == origin.x+dx) && pos.y == origin.y
	case state.ShapeHorizontal3:
		return (pos.x == origin.x || pos.x == origin.x+dx || pos.x == origin.x+2*dx) && pos.y == origin.y
	case state.ShapeSquare4:
		return (pos.x == origin.x || pos.x == origin.x+dx) && fullColumn
	case state.ShapeAll:
		return true
	default:
		return pos == origin
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
