package sim

// Init builds the full snapshot for a newly attached connection and clears
// every dirty flag, so the next Update only carries later changes.
//
// Messages reference live state; a Conn must encode them before its send
// method returns.
func (i *Instance) Init() InitGame {
	if i == nil {
		return InitGame{}
	}
	s := i.state
	s.MarkAllDirty()
	areaState, _ := s.AreaState.Sync()
	passives, _ := s.Passives.Sync()
	playerSpecs, _ := s.PlayerSpecs.Sync()
	inventory, _ := s.Inventory.Sync()
	resources, _ := s.Resources.Sync()
	monsters, _ := s.Monsters.Sync()
	loot, _ := s.Loot.Sync()
	rewards, _ := s.QuestRewards.Sync()
	return InitGame{
		Area:          s.Area,
		AreaState:     areaState,
		AreaThreat:    s.AreaThreat,
		PassivesTree:  i.catalog.Passives,
		Passives:      passives,
		PlayerSpecs:   playerSpecs,
		PlayerState:   s.PlayerState,
		Inventory:     inventory,
		Resources:     resources,
		Monsters:      monsters,
		MonsterStates: s.MonsterStates,
		Loot:          loot.Peek(),
		QuestRewards:  rewards,
		Stats:         s.Stats,
		Shop:          i.catalog.Shop(),
	}
}

// Update builds the delta of the tick that just ran. Cells are included
// only when they changed and are clean afterwards.
func (i *Instance) Update() UpdateGame {
	if i == nil {
		return UpdateGame{}
	}
	s := i.state
	msg := UpdateGame{
		AreaThreat:    s.AreaThreat,
		PlayerState:   s.PlayerState,
		MonsterStates: s.MonsterStates,
		Stats:         s.Stats,
	}
	if v, ok := s.AreaState.Sync(); ok {
		msg.AreaState = &v
	}
	if v, ok := s.Passives.Sync(); ok {
		msg.Passives = &v
	}
	if v, ok := s.PlayerSpecs.Sync(); ok {
		msg.PlayerSpecs = &v
	}
	if v, ok := s.Inventory.Sync(); ok {
		msg.Inventory = &v
	}
	if v, ok := s.Resources.Sync(); ok {
		msg.Resources = &v
	}
	if v, ok := s.Monsters.Sync(); ok {
		msg.Monsters = &v
	}
	if v, ok := s.Loot.Sync(); ok {
		loot := v.Peek()
		msg.Loot = &loot
	}
	if v, ok := s.QuestRewards.Sync(); ok {
		msg.QuestRewards = &v
	}
	return msg
}
