package sim

import (
	"context"

	"grindfall/server/internal/gameerr"
	"grindfall/server/internal/state"
)

// InitGame is the full snapshot sent once when a connection attaches.
type InitGame struct {
	Area          state.AreaSpecs         `json:"area"`
	AreaState     state.AreaState         `json:"area_state"`
	AreaThreat    state.AreaThreat        `json:"area_threat"`
	PassivesTree  state.PassivesTreeSpecs `json:"passives_tree"`
	Passives      state.PassivesTreeState `json:"passives"`
	PlayerSpecs   state.PlayerSpecs       `json:"player_specs"`
	PlayerState   state.PlayerState       `json:"player_state"`
	Inventory     state.Inventory         `json:"inventory"`
	Resources     state.PlayerResources   `json:"resources"`
	Monsters      []state.MonsterSpecs    `json:"monsters"`
	MonsterStates []state.MonsterState    `json:"monster_states"`
	Loot          []state.QueuedLoot      `json:"loot"`
	QuestRewards  []state.ItemSpecs       `json:"quest_rewards,omitempty"`
	Stats         state.GameStats         `json:"stats"`
	Shop          []state.SkillBase       `json:"shop"`
}

// UpdateGame is the per-tick delta. Pointer fields are present only when the
// sub-state changed since the previous update.
type UpdateGame struct {
	AreaState     *state.AreaState         `json:"area_state,omitempty"`
	AreaThreat    state.AreaThreat         `json:"area_threat"`
	Passives      *state.PassivesTreeState `json:"passives,omitempty"`
	PlayerSpecs   *state.PlayerSpecs       `json:"player_specs,omitempty"`
	PlayerState   state.PlayerState        `json:"player_state"`
	Inventory     *state.Inventory         `json:"inventory,omitempty"`
	Resources     *state.PlayerResources   `json:"resources,omitempty"`
	Monsters      *[]state.MonsterSpecs    `json:"monsters,omitempty"`
	MonsterStates []state.MonsterState     `json:"monster_states"`
	Loot          *[]state.QueuedLoot      `json:"loot,omitempty"`
	QuestRewards  *[]state.ItemSpecs       `json:"quest_rewards,omitempty"`
	Stats         state.GameStats          `json:"stats"`
}

// ErrorKind tells the client who is at fault.
type ErrorKind string

const (
	ErrorServer ErrorKind = "server"
	ErrorGame   ErrorKind = "game"
)

// ErrorNotice reports a failure to the client.
type ErrorNotice struct {
	Kind           ErrorKind `json:"kind"`
	Message        string    `json:"message"`
	MustDisconnect bool      `json:"must_disconnect,omitempty"`
}

// NoticeFor converts err into the notice the client receives. User and
// not-found errors are game errors; anything else is a server error whose
// details stay in the logs.
func NoticeFor(err error) ErrorNotice {
	switch {
	case gameerr.IsUserFacing(err):
		return ErrorNotice{Kind: ErrorGame, Message: err.Error()}
	case gameerr.MustDisconnect(err):
		return ErrorNotice{Kind: ErrorServer, Message: err.Error(), MustDisconnect: true}
	default:
		return ErrorNotice{Kind: ErrorServer, Message: "internal server error"}
	}
}

// Disconnect tells the client the session is over.
type Disconnect struct {
	Reason   string `json:"reason,omitempty"`
	EndQuest bool   `json:"end_quest,omitempty"`
}

// Conn is the outbound half of a client connection as seen by an instance.
// Done closes when the client goes away.
type Conn interface {
	SendInit(ctx context.Context, msg InitGame) error
	SendUpdate(ctx context.Context, msg UpdateGame) error
	SendError(ctx context.Context, msg ErrorNotice) error
	SendDisconnect(ctx context.Context, msg Disconnect) error
	Done() <-chan struct{}
}
