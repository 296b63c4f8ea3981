package blueprint

import (
	"strings"
	"testing"

	"grindfall/server/internal/items"
	"grindfall/server/internal/state"
)

func TestDefaultCatalogIsValid(t *testing.T) {
	catalog, err := Default()
	if err != nil {
		t.Fatalf("default catalog: %v", err)
	}
	if _, ok := catalog.Skill("weapon_attack"); !ok {
		t.Fatalf("expected weapon_attack skill")
	}
	area, ok := catalog.Area("")
	if !ok || area.Specs.ID != "sewers" {
		t.Fatalf("expected the first area to be the default, got %+v", area.Specs)
	}
	ogre, ok := catalog.Monster("ogre")
	if !ok || ogre.Rarity != state.MonsterBoss || ogre.Character.Size != state.SizeHuge {
		t.Fatalf("unexpected ogre blueprint %+v", ogre)
	}
	if len(catalog.Passives.Nodes) == 0 || len(catalog.Threat) == 0 {
		t.Fatalf("expected passives and threat effects")
	}
	skill, _ := catalog.Skill("magic_missile")
	if skill.Targets[0].Effects[0].Damage[state.DamageFire].Max != 6 {
		t.Fatalf("expected fire damage map to decode, got %+v", skill.Targets[0].Effects[0].Damage)
	}
}

func TestParseRejectsUnknownFields(t *testing.T) {
	_, err := Parse([]byte("player:\n  charactr: {}\n"))
	if err == nil {
		t.Fatalf("expected unknown field to fail")
	}
}

func TestValidateReportsBrokenReferences(t *testing.T) {
	catalog := &Catalog{
		Player: PlayerBlueprint{
			Character: state.CharacterSpecs{MaxLife: 10},
			Skills:    []string{"missing"},
		},
		Monsters: []MonsterBlueprint{{ID: "rat", Skills: []string{"bite"}}},
		Areas: []AreaBlueprint{{
			Specs: state.AreaSpecs{ID: "cave"},
			Waves: []WaveBlueprint{{Weight: 1, Spawns: []SpawnBlueprint{{Monster: "bat", Min: 1, Max: 1}}}},
		}},
	}
	err := catalog.Validate()
	if err == nil {
		t.Fatalf("expected validation errors")
	}
	for _, want := range []string{`player skill "missing"`, `undefined skill "bite"`, `undefined monster "bat"`} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %q in %v", want, err)
		}
	}
}

func TestValidateChecksWeaponsAndConditions(t *testing.T) {
	catalog, err := Default()
	if err != nil {
		t.Fatalf("default catalog: %v", err)
	}
	var sword *state.WeaponSpecs
	for _, base := range catalog.Items {
		if base.ID == "short_sword" {
			sword = base.Weapon
		}
	}
	if sword == nil || sword.MaxDamage < sword.MinDamage || sword.Shape != state.ShapeSingle {
		t.Fatalf("expected short_sword weapon specs, got %+v", sword)
	}

	catalog.Items = append(catalog.Items, items.ItemBase{
		ID:     "bent_spoon",
		Slot:   state.SlotWeapon,
		Weapon: &state.WeaponSpecs{MinDamage: 5, MaxDamage: 1, Shape: "blob"},
		Conditional: []state.ConditionalModifier{{
			Conditions: []state.Condition{{Kind: "full_moon"}},
		}},
	})
	err = catalog.Validate()
	if err == nil {
		t.Fatalf("expected validation errors")
	}
	for _, want := range []string{"max_damage below min_damage", `unknown shape "blob"`, `unknown condition "full_moon"`} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %q in %v", want, err)
		}
	}
}

func TestWaveAvailability(t *testing.T) {
	wave := WaveBlueprint{MinLevel: 3, MaxLevel: 5}
	if wave.Available(2) || !wave.Available(3) || !wave.Available(5) || wave.Available(6) {
		t.Fatalf("unexpected availability bounds")
	}
	if !(WaveBlueprint{}).Available(100) {
		t.Fatalf("open bounds accept any level")
	}
}
