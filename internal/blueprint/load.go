package blueprint

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"grindfall/server/internal/state"
)

//go:embed default.yaml
var defaultCatalog []byte

// Default parses the catalog bundled with the server.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// LoadFile parses the catalog stored at path.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read blueprint %s: %w", path, err)
	}
	catalog, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("blueprint %s: %w", path, err)
	}
	return catalog, nil
}

// Parse decodes and validates a YAML catalog. Unknown fields are rejected so
// typos in balance files fail at startup.
func Parse(data []byte) (*Catalog, error) {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	var catalog Catalog
	if err := decoder.Decode(&catalog); err != nil {
		return nil, fmt.Errorf("decode blueprint: %w", err)
	}
	if err := catalog.Validate(); err != nil {
		return nil, err
	}
	return &catalog, nil
}

// Validate checks the cross references of the catalog and reports every
// problem found.
func (c *Catalog) Validate() error {
	if c == nil {
		return errors.New("blueprint: nil catalog")
	}
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	skills := make(map[string]bool, len(c.Skills))
	for _, skill := range c.Skills {
		if skill.ID == "" {
			fail("skill without id")
			continue
		}
		if skills[skill.ID] {
			fail("duplicate skill %q", skill.ID)
		}
		skills[skill.ID] = true
		if len(skill.Targets) == 0 {
			fail("skill %q has no target groups", skill.ID)
		}
		for _, group := range skill.Targets {
			if !validShape(group.Shape) {
				fail("skill %q uses unknown shape %q", skill.ID, group.Shape)
			}
		}
	}

	for _, id := range c.Player.Skills {
		if !skills[id] {
			fail("player skill %q is not defined", id)
		}
	}
	for _, id := range c.Player.Shop {
		if !skills[id] {
			fail("shop skill %q is not defined", id)
		}
	}
	if c.Player.Character.MaxLife <= 0 {
		fail("player max_life must be positive")
	}

	monsters := make(map[string]bool, len(c.Monsters))
	for _, monster := range c.Monsters {
		if monsters[monster.ID] {
			fail("duplicate monster %q", monster.ID)
		}
		monsters[monster.ID] = true
		for _, id := range monster.Skills {
			if !skills[id] {
				fail("monster %q uses undefined skill %q", monster.ID, id)
			}
		}
		if monster.InitiativeMax < monster.InitiativeMin {
			fail("monster %q has initiative_max below initiative_min", monster.ID)
		}
	}

	if len(c.Areas) == 0 {
		fail("no area defined")
	}
	for _, area := range c.Areas {
		if len(area.Waves) == 0 {
			fail("area %q has no waves", area.Specs.ID)
		}
		for _, wave := range append(append([]WaveBlueprint(nil), area.Waves...), area.BossWaves...) {
			for _, spawn := range wave.Spawns {
				if !monsters[spawn.Monster] {
					fail("area %q spawns undefined monster %q", area.Specs.ID, spawn.Monster)
				}
				if spawn.Max < spawn.Min {
					fail("area %q spawn of %q has max below min", area.Specs.ID, spawn.Monster)
				}
			}
		}
	}

	for _, base := range c.Items {
		if !state.IsKnownSlot(base.Slot) {
			fail("item %q uses unknown slot %q", base.ID, base.Slot)
		}
		if w := base.Weapon; w != nil {
			if w.MaxDamage < w.MinDamage {
				fail("item %q weapon has max_damage below min_damage", base.ID)
			}
			if w.Shape != "" && !validShape(w.Shape) {
				fail("item %q weapon uses unknown shape %q", base.ID, w.Shape)
			}
		}
		for _, mod := range base.Conditional {
			for _, cond := range mod.Conditions {
				if !state.IsKnownCondition(cond.Kind) {
					fail("item %q uses unknown condition %q", base.ID, cond.Kind)
				}
			}
		}
	}

	nodes := make(map[string]bool, len(c.Passives.Nodes))
	for _, node := range c.Passives.Nodes {
		nodes[node.ID] = true
	}
	for _, conn := range c.Passives.Connections {
		if !nodes[conn.From] || !nodes[conn.To] {
			fail("passive connection %s-%s references an unknown node", conn.From, conn.To)
		}
	}

	return errors.Join(errs...)
}

func validShape(shape state.Shape) bool {
	switch shape {
	case state.ShapeSingle, state.ShapeVertical2, state.ShapeHorizontal2,
		state.ShapeHorizontal3, state.ShapeSquare4, state.ShapeAll:
		return true
	}
	return false
}
