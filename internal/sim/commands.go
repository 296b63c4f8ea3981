package sim

import (
	"context"
	"errors"
	"fmt"
	"math"

	"grindfall/server/internal/gameerr"
	"grindfall/server/internal/items"
	"grindfall/server/internal/rng"
	"grindfall/server/internal/state"
	"grindfall/server/internal/stats"
	loggingeconomy "grindfall/server/logging/economy"
	logginglifecycle "grindfall/server/logging/lifecycle"
)

// ErrUnknownCommand reports a command type the instance does not handle.
var ErrUnknownCommand = errors.New("unknown command")

func missingPayload(cmd Command) error {
	return gameerr.Protocol(fmt.Sprintf("command %s", cmd.Type), errors.New("missing payload"))
}

// apply mutates the state for one command. Every returned error is
// classified through gameerr.
func (i *Instance) apply(cmd Command) error {
	switch cmd.Type {
	case CommandHeartbeat:
		return nil
	case CommandUseSkill:
		if cmd.Skill == nil {
			return missingPayload(cmd)
		}
		if err := i.checkSkillIndex(cmd.Skill.Index); err != nil {
			return err
		}
		i.state.queuedSkills = append(i.state.queuedSkills, cmd.Skill.Index)
		return nil
	case CommandSetAutoSkill:
		if cmd.Skill == nil {
			return missingPayload(cmd)
		}
		if err := i.checkSkillIndex(cmd.Skill.Index); err != nil {
			return err
		}
		i.state.PlayerSpecs.Mutate().AutoSkills[cmd.Skill.Index] = cmd.Skill.Enabled
		return nil
	case CommandLevelUpSkill:
		if cmd.Skill == nil {
			return missingPayload(cmd)
		}
		return i.levelUpSkill(cmd.Skill.Index, max(cmd.Skill.Amount, 1))
	case CommandBuySkill:
		return i.buySkill(cmd.SkillID)
	case CommandLevelUpPlayer:
		return i.levelUpPlayer(max(cmd.Amount, 1))
	case CommandEquipItem:
		if cmd.Item == nil || len(cmd.Item.Indexes) == 0 {
			return missingPayload(cmd)
		}
		var slot state.ItemSlot
		err := i.mutateInventory(func(inv *state.Inventory) error {
			if idx := cmd.Item.Indexes[0]; idx >= 0 && idx < len(inv.Bag) {
				slot = inv.Bag[idx].Slot
			}
			return items.Equip(inv, cmd.Item.Indexes[0])
		})
		if err != nil {
			return err
		}
		i.syncWeaponSkill(slot)
		return nil
	case CommandUnequipItem:
		if cmd.Item == nil {
			return missingPayload(cmd)
		}
		err := i.mutateInventory(func(inv *state.Inventory) error {
			return items.Unequip(inv, cmd.Item.Slot)
		})
		if err != nil {
			return err
		}
		i.syncWeaponSkill(cmd.Item.Slot)
		return nil
	case CommandSellItem, CommandSellItems:
		if cmd.Item == nil || len(cmd.Item.Indexes) == 0 {
			return missingPayload(cmd)
		}
		indexes := cmd.Item.Indexes
		if cmd.Type == CommandSellItem {
			indexes = indexes[:1]
		}
		return i.sellItems(indexes)
	case CommandFilterLoot:
		if cmd.Loot == nil {
			return missingPayload(cmd)
		}
		if !knownCategory(cmd.Loot.Category) {
			return gameerr.Userf("unknown loot category %q", cmd.Loot.Category)
		}
		i.state.Loot.Mutate().SetPreference(cmd.Loot.Category)
		return nil
	case CommandPickupLoot:
		if cmd.Loot == nil {
			return missingPayload(cmd)
		}
		return i.pickupLoot(cmd.Loot.Identifier, cmd.Loot.Sell)
	case CommandSetAutoProgress:
		if cmd.Area == nil {
			return missingPayload(cmd)
		}
		i.state.AreaState.Mutate().AutoProgress = cmd.Area.AutoProgress
		return nil
	case CommandGoBack:
		if cmd.Area == nil {
			return missingPayload(cmd)
		}
		if cmd.Area.Amount < 1 {
			return gameerr.Userf("go back amount must be positive")
		}
		area := i.state.AreaState.Mutate()
		area.GoingBack += cmd.Area.Amount
		area.AutoProgress = false
		return nil
	case CommandPurchasePassive:
		return i.purchasePassive(cmd.NodeID)
	case CommandEndQuest:
		i.endQuest()
		return nil
	case CommandTerminateQuest:
		return i.terminateQuest(cmd.RewardIndex)
	default:
		return gameerr.Protocol("apply command", fmt.Errorf("%w: %q", ErrUnknownCommand, cmd.Type))
	}
}

func (i *Instance) checkSkillIndex(index int) error {
	specs := i.state.PlayerSpecs.Read()
	if index < 0 || index >= len(specs.Skills) || index >= len(specs.AutoSkills) {
		return gameerr.NotFound("skill slot %d", index)
	}
	return nil
}

func (i *Instance) mutateInventory(fn func(inv *state.Inventory) error) error {
	inv := i.state.Inventory.Read()
	if err := fn(&inv); err != nil {
		return gameerr.User(err)
	}
	i.state.Inventory.Set(inv)
	return nil
}

// syncWeaponSkill swaps the skill granted by the weapon in slot after an
// equipment change.
func (i *Instance) syncWeaponSkill(slot state.ItemSlot) {
	s := i.state
	inv := s.Inventory.Read()
	items.SyncWeaponSkill(s.PlayerSpecs.Mutate(), &s.PlayerState.Skills, &inv, slot)
}

func knownCategory(category state.ItemCategory) bool {
	switch category {
	case state.CategoryAny,
		state.CategoryAttackWeapon,
		state.CategorySpellWeapon,
		state.CategoryArmor,
		state.CategoryShield,
		state.CategoryAccessory:
		return true
	}
	return false
}

// levelUpSkill buys up to amount upgrades of the skill at index. It fails
// only when not even one upgrade is affordable.
func (i *Instance) levelUpSkill(index, amount int) error {
	if err := i.checkSkillIndex(index); err != nil {
		return err
	}
	s := i.state
	bought := 0
	for ; bought < amount; bought++ {
		skill := s.PlayerSpecs.Read().Skills[index]
		if s.Resources.Read().Gold < skill.NextUpgradeCost {
			break
		}
		s.Resources.Mutate().Gold -= skill.NextUpgradeCost
		upgraded := &s.PlayerSpecs.Mutate().Skills[index]
		upgraded.UpgradeLevel++
		upgraded.NextUpgradeCost = stats.SkillUpgradeCost(upgraded.NextUpgradeCost, upgraded.UpgradeLevel)
	}
	if bought == 0 {
		return gameerr.Userf("not enough gold to upgrade skill")
	}
	return nil
}

func (i *Instance) buySkill(id string) error {
	s := i.state
	specs := s.PlayerSpecs.Read()
	if !i.inShop(id) {
		return gameerr.NotFound("skill %q", id)
	}
	if specs.HasSkill(id) {
		return gameerr.Userf("skill %q already owned", id)
	}
	if len(specs.Skills) >= specs.MaxSkills {
		return gameerr.Userf("no free skill slot")
	}
	cost := specs.BuySkillCost
	if s.Resources.Read().Gold < cost {
		return gameerr.Userf("not enough gold to buy skill")
	}
	base, ok := i.catalog.Skill(id)
	if !ok {
		return gameerr.NotFound("skill %q", id)
	}

	s.Resources.Mutate().Gold -= cost
	player := s.PlayerSpecs.Mutate()
	player.Skills = append(player.Skills, state.NewSkillSpecs(base))
	player.AutoSkills = append(player.AutoSkills, true)
	if cost > 0 {
		player.BuySkillCost = math.Round(cost * SkillCostFactor)
	} else {
		player.BuySkillCost = math.Round(SkillBaseCost * SkillCostFactor)
	}
	s.PlayerState.Skills = append(s.PlayerState.Skills, state.SkillState{})
	return nil
}

func (i *Instance) inShop(id string) bool {
	for _, candidate := range i.catalog.Player.Shop {
		if candidate == id {
			return true
		}
	}
	return false
}

// levelUpPlayer spends experience on up to amount levels. Each level grants a
// passive point and base life.
func (i *Instance) levelUpPlayer(amount int) error {
	s := i.state
	gained := 0
	for ; gained < amount; gained++ {
		needed := s.PlayerSpecs.Read().ExperienceNeeded
		if s.Resources.Read().Experience < needed {
			break
		}
		resources := s.Resources.Mutate()
		resources.Experience -= needed
		resources.PassivePoints++
		player := s.PlayerSpecs.Mutate()
		player.Level++
		player.ExperienceNeeded = stats.PlayerLevelUpCost(player.Level)
		player.Base.MaxLife += PlayerLifePerLevel
		s.PlayerState.JustLeveledUp = true
	}
	if gained == 0 {
		return gameerr.Userf("not enough experience to level up")
	}
	return nil
}

func (i *Instance) sellItems(indexes []int) error {
	s := i.state
	inv := s.Inventory.Read()
	gold, sold, err := items.Sell(&inv, indexes)
	if err != nil {
		return gameerr.User(err)
	}
	s.Inventory.Set(inv)
	s.Resources.Mutate().Gold += gold
	s.Stats.ItemsSold += len(sold)
	loggingeconomy.ItemsSold(context.Background(), i.deps.Publisher, s.Tick, i.actor, loggingeconomy.ItemsSoldPayload{
		Count: len(sold),
		Gold:  gold,
	}, nil)
	return nil
}

func (i *Instance) pickupLoot(id uint32, sell bool) error {
	s := i.state
	loot := s.Loot.Read()
	loot.Items = append([]state.QueuedLoot(nil), loot.Items...)
	if sell {
		item, err := loot.Take(id)
		if err != nil {
			return gameerr.User(err)
		}
		s.Loot.Set(loot)
		price := items.SellPrice(item)
		s.Resources.Mutate().Gold += price
		s.Stats.ItemsSold++
		loggingeconomy.ItemsSold(context.Background(), i.deps.Publisher, s.Tick, i.actor, loggingeconomy.ItemsSoldPayload{
			Count: 1,
			Gold:  price,
		}, nil)
		return nil
	}

	inv := s.Inventory.Read()
	err := loot.Pickup(id, &inv)
	if err != nil && !errors.Is(err, items.ErrInventoryFull) {
		return gameerr.User(err)
	}
	// A full bag requeues the entry, so the queue changed either way.
	s.Loot.Set(loot)
	if err != nil {
		return gameerr.User(err)
	}
	s.Inventory.Set(inv)
	picked := inv.Bag[len(inv.Bag)-1]
	loggingeconomy.LootPickedUp(context.Background(), i.deps.Publisher, s.Tick, i.actor, loggingeconomy.LootPayload{
		Identifier: id,
		Item:       picked.BaseID,
		Rarity:     string(picked.Rarity),
		Level:      picked.Level,
	}, nil)
	return nil
}

// purchasePassive spends a passive point on a node adjacent to an owned
// node, or on a root node.
func (i *Instance) purchasePassive(id string) error {
	s := i.state
	tree := &i.catalog.Passives
	node, ok := tree.Node(id)
	if !ok {
		return gameerr.NotFound("passive %q", id)
	}
	if s.Resources.Read().PassivePoints < 1 {
		return gameerr.Userf("no passive point available")
	}
	owned := s.Passives.Read()
	if owned.Owns(id) {
		return gameerr.Userf("passive %q already purchased", id)
	}
	if !node.Root && !connectedToOwned(tree, &owned, id) {
		return gameerr.Userf("passive %q is not connected to an owned node", id)
	}

	passives := s.Passives.Mutate()
	if passives.Purchased == nil {
		passives.Purchased = make(map[string]bool)
	}
	passives.Purchased[id] = true
	s.Resources.Mutate().PassivePoints--
	loggingeconomy.Purchase(context.Background(), i.deps.Publisher, s.Tick, i.actor, loggingeconomy.PurchasePayload{
		What:     "passive:" + id,
		Currency: "passive_points",
		Cost:     1,
		Amount:   1,
	}, nil)
	return nil
}

func connectedToOwned(tree *state.PassivesTreeSpecs, owned *state.PassivesTreeState, id string) bool {
	for _, neighbour := range tree.Neighbours(id) {
		if owned.Owns(neighbour) {
			return true
		}
	}
	return false
}

// endQuest stops combat and rolls the reward choices. Ending twice is a
// no-op.
func (i *Instance) endQuest() {
	s := i.state
	area := s.AreaState.Read()
	if area.EndQuest {
		return
	}
	s.AreaState.Mutate().EndQuest = true

	generator := i.catalog.Generator()
	luck := rng.LuckOf(s.PlayerSpecs.Read().Character.Luck)
	level := max(area.AreaLevel+s.Area.ItemLevelModifier, 1)
	rewards := make([]state.ItemSpecs, 0, QuestRewardChoices)
	for len(rewards) < QuestRewardChoices {
		item, ok := generator.Roll(i.rng, level, luck)
		if !ok {
			break
		}
		rewards = append(rewards, item)
	}
	s.QuestRewards.Set(rewards)

	logginglifecycle.QuestEnded(context.Background(), i.deps.Publisher, s.Tick, i.actor, logginglifecycle.QuestEndedPayload{
		AreaLevel:      area.AreaLevel,
		MonstersKilled: uint64(s.Stats.MonstersKilled),
	}, nil)
}

// terminateQuest claims the optional reward and marks the run terminal.
func (i *Instance) terminateQuest(rewardIndex *int) error {
	s := i.state
	area := s.AreaState.Read()
	if !area.EndQuest {
		return gameerr.Userf("grind not yet ended")
	}
	if s.Terminated {
		return gameerr.Userf("grind already terminated")
	}
	if rewardIndex != nil {
		rewards := s.QuestRewards.Read()
		idx := *rewardIndex
		if idx < 0 || idx >= len(rewards) {
			return gameerr.NotFound("quest reward %d", idx)
		}
		inv := s.Inventory.Read()
		if inv.BagFull() {
			return gameerr.User(items.ErrInventoryFull)
		}
		inv.Bag = append(append([]state.ItemSpecs(nil), inv.Bag...), rewards[idx].Clone())
		s.Inventory.Set(inv)
	}
	s.Terminated = true

	logginglifecycle.QuestEnded(context.Background(), i.deps.Publisher, s.Tick, i.actor, logginglifecycle.QuestEndedPayload{
		AreaLevel:      area.AreaLevel,
		MonstersKilled: uint64(s.Stats.MonstersKilled),
		Terminated:     true,
	}, nil)
	return nil
}
