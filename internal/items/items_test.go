package items

import (
	"errors"
	"testing"

	"pgregory.net/rapid"

	"grindfall/server/internal/rng"
	"grindfall/server/internal/state"
)

func item(name string, rarity state.Rarity, level int) state.ItemSpecs {
	return state.ItemSpecs{
		BaseID:   name,
		Name:     name,
		Slot:     state.SlotWeapon,
		Category: state.CategoryAttackWeapon,
		Rarity:   rarity,
		Level:    level,
	}
}

func TestDropAssignsIncreasingIdentifiers(t *testing.T) {
	q := NewLootQueue(5)
	first := q.Drop(item("a", state.RarityNormal, 1))
	second := q.Drop(item("b", state.RarityNormal, 1))
	if second.Identifier <= first.Identifier {
		t.Fatalf("expected increasing identifiers, got %d then %d", first.Identifier, second.Identifier)
	}
}

func TestDropEvictsOldestWhenFull(t *testing.T) {
	q := NewLootQueue(3)
	for _, name := range []string{"a", "b", "c"} {
		q.Drop(item(name, state.RarityNormal, 1))
	}
	res := q.Drop(item("d", state.RarityNormal, 1))
	if !res.Kept {
		t.Fatalf("expected incoming item to be kept")
	}
	if len(res.Evicted) != 1 || res.Evicted[0].Item.Name != "a" {
		t.Fatalf("expected oldest item to be evicted, got %+v", res.Evicted)
	}
	if q.Live() != 3 {
		t.Fatalf("expected 3 live items, got %d", q.Live())
	}
}

func TestDropProtectsHigherScoringItem(t *testing.T) {
	q := NewLootQueue(2)
	q.Drop(item("unique", state.RarityUnique, 1))
	q.Drop(item("b", state.RarityNormal, 1))

	res := q.Drop(item("c", state.RarityNormal, 1))
	if res.Kept {
		t.Fatalf("expected the incoming normal item to be discarded")
	}
	for _, entry := range q.Items {
		if entry.Item.Name == "unique" && entry.State == state.LootHasDisappeared {
			t.Fatalf("unique item was evicted by a normal drop")
		}
	}
}

func TestPreferenceOutranksRarity(t *testing.T) {
	q := NewLootQueue(1)
	q.SetPreference(state.CategoryArmor)
	q.Drop(item("rare-weapon", state.RarityRare, 10))

	armor := item("armor", state.RarityNormal, 1)
	armor.Category = state.CategoryArmor
	res := q.Drop(armor)
	if !res.Kept {
		t.Fatalf("expected preferred category to outrank rarity")
	}
}

func TestWillDisappearMarksNextEviction(t *testing.T) {
	q := NewLootQueue(3)
	q.Drop(item("a", state.RarityNormal, 1))
	q.Drop(item("b", state.RarityNormal, 1))
	if q.Items[0].State != state.LootNormal {
		t.Fatalf("no warning expected below capacity, got %s", q.Items[0].State)
	}
	q.Drop(item("c", state.RarityNormal, 1))
	if q.Items[0].State != state.LootWillDisappear {
		t.Fatalf("expected oldest item to be flagged, got %s", q.Items[0].State)
	}
	if q.Items[1].State != state.LootNormal {
		t.Fatalf("only the oldest item should be flagged, got %s", q.Items[1].State)
	}
}

func TestPickupFullInventoryRequeues(t *testing.T) {
	q := NewLootQueue(5)
	res := q.Drop(item("a", state.RarityNormal, 1))
	inv := NewInventory(1)
	inv.Bag = append(inv.Bag, item("held", state.RarityNormal, 1))

	err := q.Pickup(res.Identifier, &inv)
	if !errors.Is(err, ErrInventoryFull) {
		t.Fatalf("expected ErrInventoryFull, got %v", err)
	}
	if q.Live() != 1 {
		t.Fatalf("expected the item to stay queued, got %d live", q.Live())
	}

	inv.Bag = nil
	if err := q.Pickup(res.Identifier, &inv); err != nil {
		t.Fatalf("pickup: %v", err)
	}
	if len(inv.Bag) != 1 || q.Live() != 0 {
		t.Fatalf("expected item moved to bag, bag=%d live=%d", len(inv.Bag), q.Live())
	}
	if err := q.Pickup(res.Identifier, &inv); !errors.Is(err, ErrLootNotFound) {
		t.Fatalf("expected ErrLootNotFound, got %v", err)
	}
}

func TestLootQueueBoundProperty(t *testing.T) {
	rarities := []state.Rarity{state.RarityNormal, state.RarityMagic, state.RarityRare, state.RarityUnique}
	rapid.Check(t, func(t *rapid.T) {
		size := rapid.IntRange(1, 6).Draw(t, "size")
		q := NewLootQueue(size)
		drops := rapid.SliceOfN(rapid.IntRange(0, len(rarities)-1), 1, 60).Draw(t, "drops")

		uniques := map[uint32]bool{}
		for i, r := range drops {
			rarity := rarities[r]
			res := q.Drop(item("x", rarity, i%7))
			if rarity == state.RarityUnique && res.Kept {
				uniques[res.Identifier] = true
			}
			if q.Live() > size {
				t.Fatalf("live entries %d exceed bound %d", q.Live(), size)
			}
			if rarity != state.RarityNormal {
				continue
			}
			for _, evicted := range res.Evicted {
				if uniques[evicted.Identifier] {
					t.Fatalf("unique %d evicted by a later normal drop", evicted.Identifier)
				}
			}
		}
	})
}

func TestEquipSwapsWithEquippedItem(t *testing.T) {
	inv := NewInventory(10)
	inv.Bag = []state.ItemSpecs{item("sword", state.RarityNormal, 1), item("axe", state.RarityMagic, 2)}

	if err := Equip(&inv, 0); err != nil {
		t.Fatalf("equip: %v", err)
	}
	if len(inv.Bag) != 1 || inv.Bag[0].Name != "axe" {
		t.Fatalf("expected sword to leave the bag, got %+v", inv.Bag)
	}
	if err := Equip(&inv, 0); err != nil {
		t.Fatalf("equip: %v", err)
	}
	equipped, _ := inv.Equipment.Get(state.SlotWeapon)
	if equipped.Name != "axe" || inv.Bag[0].Name != "sword" {
		t.Fatalf("expected axe equipped and sword back in bag, equipped=%s bag=%+v", equipped.Name, inv.Bag)
	}
	if err := Equip(&inv, 5); !errors.Is(err, ErrInvalidBagIndex) {
		t.Fatalf("expected ErrInvalidBagIndex, got %v", err)
	}
}

func TestUnequipRequiresBagSpace(t *testing.T) {
	inv := NewInventory(1)
	inv.Equipment.Set(state.SlotWeapon, item("sword", state.RarityNormal, 1))
	inv.Bag = []state.ItemSpecs{item("other", state.RarityNormal, 1)}

	if err := Unequip(&inv, state.SlotWeapon); !errors.Is(err, ErrInventoryFull) {
		t.Fatalf("expected ErrInventoryFull, got %v", err)
	}
	if err := Unequip(&inv, state.SlotHelmet); !errors.Is(err, ErrSlotEmpty) {
		t.Fatalf("expected ErrSlotEmpty, got %v", err)
	}
	if err := Unequip(&inv, "tail"); !errors.Is(err, ErrInvalidSlot) {
		t.Fatalf("expected ErrInvalidSlot, got %v", err)
	}
}

func TestSellRemovesItemsAndPays(t *testing.T) {
	inv := NewInventory(10)
	inv.Bag = []state.ItemSpecs{
		item("a", state.RarityNormal, 10),
		item("b", state.RarityUnique, 10),
		item("c", state.RarityNormal, 10),
	}
	gold, sold, err := Sell(&inv, []int{0, 2, 2})
	if err != nil {
		t.Fatalf("sell: %v", err)
	}
	if len(sold) != 2 || len(inv.Bag) != 1 || inv.Bag[0].Name != "b" {
		t.Fatalf("unexpected bag after sell: %+v", inv.Bag)
	}
	if gold != 40 {
		t.Fatalf("expected 40 gold, got %v", gold)
	}
	if _, _, err := Sell(&inv, []int{3}); !errors.Is(err, ErrInvalidBagIndex) {
		t.Fatalf("expected ErrInvalidBagIndex, got %v", err)
	}
	if len(inv.Bag) != 1 {
		t.Fatalf("failed sell must not remove items")
	}
}

func TestGeneratorRespectsLevelAndAffixes(t *testing.T) {
	gen := &Generator{
		Bases: []ItemBase{
			{ID: "dagger", Name: "Dagger", Slot: state.SlotWeapon, Category: state.CategoryAttackWeapon, MinLevel: 1, Weight: 1},
			{ID: "runeblade", Name: "Runeblade", Slot: state.SlotWeapon, Category: state.CategoryAttackWeapon, MinLevel: 50, Weight: 100},
		},
		Affixes: []AffixBase{
			{ID: "life", Name: "of Life", Stat: state.Stat{Kind: state.StatLife}, Modifier: state.ModifierFlat, Weight: 1,
				Tiers: []AffixTier{{MinLevel: 1, Min: 5, Max: 10}}},
		},
		Rarity: RarityWeights{Magic: 1},
	}
	r := rng.New("seed", "generator")
	for i := 0; i < 20; i++ {
		got, ok := gen.Roll(r, 5, rng.Neutral)
		if !ok {
			t.Fatalf("expected an item")
		}
		if got.BaseID != "dagger" {
			t.Fatalf("expected only level-eligible bases, got %s", got.BaseID)
		}
		if got.Rarity != state.RarityMagic || len(got.Affixes) != 1 {
			t.Fatalf("expected a magic item with one affix, got %s with %d", got.Rarity, len(got.Affixes))
		}
		value := got.Affixes[0].Effects[0].Value
		if value < 5 || value > 10 {
			t.Fatalf("affix value %v outside tier range", value)
		}
	}
	if _, ok := gen.Roll(r, 0, rng.Neutral); ok {
		t.Fatalf("expected no item below every base level")
	}
}

func weapon(name string, minDamage, maxDamage float64) state.ItemSpecs {
	w := item(name, state.RarityNormal, 1)
	w.Weapon = &state.WeaponSpecs{Cooldown: 1.5, MinDamage: minDamage, MaxDamage: maxDamage, Range: state.RangeMelee}
	return w
}

func TestWeaponSkillFromSpecs(t *testing.T) {
	base, ok := WeaponSkill(weapon("sword", 12, 8))
	if !ok {
		t.Fatalf("expected a weapon skill")
	}
	if base.ID != WeaponSkillID || base.SkillType != state.SkillAttack || base.Cooldown != 1.5 {
		t.Fatalf("unexpected skill %+v", base)
	}
	group := base.Targets[0]
	if group.Shape != state.ShapeSingle || group.TargetType != state.TargetEnemy {
		t.Fatalf("unexpected target group %+v", group)
	}
	damage := group.Effects[0].Damage[state.DamagePhysical]
	if damage.Min != 8 || damage.Max != 8 {
		t.Fatalf("expected min clamped to max, got %+v", damage)
	}
	if _, ok := WeaponSkill(item("cap", state.RarityNormal, 1)); ok {
		t.Fatalf("items without weapon specs grant no skill")
	}
}

func TestSyncWeaponSkillReplacesSlotSkill(t *testing.T) {
	inv := NewInventory(10)
	inv.Bag = []state.ItemSpecs{weapon("sword", 2, 4), weapon("axe", 6, 9)}
	specs := state.PlayerSpecs{
		Skills:     []state.SkillSpecs{state.NewSkillSpecs(state.SkillBase{ID: "fireball"})},
		AutoSkills: []bool{false},
	}
	skills := []state.SkillState{{ElapsedCooldown: 0.5}}

	if err := Equip(&inv, 0); err != nil {
		t.Fatalf("equip: %v", err)
	}
	SyncWeaponSkill(&specs, &skills, &inv, state.SlotWeapon)
	if len(specs.Skills) != 2 || len(specs.AutoSkills) != 2 || len(skills) != 2 {
		t.Fatalf("expected two aligned skills, got %d/%d/%d", len(specs.Skills), len(specs.AutoSkills), len(skills))
	}
	if specs.Skills[0].ItemSlot != state.SlotWeapon || specs.Skills[0].Base.Name != "sword" || !specs.AutoSkills[0] {
		t.Fatalf("expected the sword skill first and auto used, got %+v", specs.Skills[0])
	}
	if specs.Skills[1].Base.ID != "fireball" || skills[1].ElapsedCooldown != 0.5 {
		t.Fatalf("existing skill must keep its state")
	}

	if err := Equip(&inv, 0); err != nil {
		t.Fatalf("equip: %v", err)
	}
	SyncWeaponSkill(&specs, &skills, &inv, state.SlotWeapon)
	if len(specs.Skills) != 2 || specs.Skills[0].Base.Name != "axe" {
		t.Fatalf("expected the axe skill to replace the sword skill, got %+v", specs.Skills)
	}

	if err := Unequip(&inv, state.SlotWeapon); err != nil {
		t.Fatalf("unequip: %v", err)
	}
	SyncWeaponSkill(&specs, &skills, &inv, state.SlotWeapon)
	if len(specs.Skills) != 1 || specs.Skills[0].Base.ID != "fireball" || len(skills) != 1 || len(specs.AutoSkills) != 1 {
		t.Fatalf("expected only the bought skill left, got %+v", specs.Skills)
	}
}

func TestGeneratorCopiesWeaponAndConditionals(t *testing.T) {
	gen := &Generator{
		Bases: []ItemBase{{
			ID: "club", Name: "Club", Slot: state.SlotWeapon, Category: state.CategoryAttackWeapon, MinLevel: 1, Weight: 1,
			Weapon: &state.WeaponSpecs{Cooldown: 1, MinDamage: 1, MaxDamage: 3},
			Conditional: []state.ConditionalModifier{{
				Conditions: []state.Condition{{Kind: state.ConditionMaximumLife}},
				Effects:    []state.StatEffect{{Stat: state.Stat{Kind: state.StatArmor}, Modifier: state.ModifierFlat, Value: 5}},
			}},
		}},
		Rarity: RarityWeights{Normal: 1},
	}
	got, ok := gen.Roll(rng.New("seed", "generator"), 1, rng.Neutral)
	if !ok {
		t.Fatalf("expected an item")
	}
	if got.Weapon == nil || got.Weapon == gen.Bases[0].Weapon {
		t.Fatalf("expected a copied weapon, got %+v", got.Weapon)
	}
	got.Conditional[0].Effects[0].Value = 99
	if gen.Bases[0].Conditional[0].Effects[0].Value != 5 {
		t.Fatalf("rolled items must not share conditional effects with the base")
	}
}
