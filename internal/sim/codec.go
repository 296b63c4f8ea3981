package sim

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"grindfall/server/internal/gameerr"
)

// StateVersion is the layout version written into every save blob.
const StateVersion = 1

// ErrUnsupportedVersion reports a save blob written by an unknown layout.
var ErrUnsupportedVersion = errors.New("sim: unsupported state version")

type stateEnvelope struct {
	Version int             `json:"v"`
	State   cbor.RawMessage `json:"state"`
}

var stateEncMode = func() cbor.EncMode {
	mode, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("sim: state encoder: %v", err))
	}
	return mode
}()

// EncodeState serializes s into a self-describing CBOR blob.
func EncodeState(s *State) ([]byte, error) {
	if s == nil {
		return nil, gameerr.Infrastructure("encode state", errors.New("nil state"))
	}
	body, err := stateEncMode.Marshal(s)
	if err != nil {
		return nil, gameerr.Infrastructure("encode state", err)
	}
	blob, err := stateEncMode.Marshal(stateEnvelope{Version: StateVersion, State: body})
	if err != nil {
		return nil, gameerr.Infrastructure("encode state envelope", err)
	}
	return blob, nil
}

// DecodeState restores a blob written by EncodeState. Every cell comes back
// dirty and every character is flagged for a specs recomputation.
func DecodeState(blob []byte) (*State, error) {
	var env stateEnvelope
	if err := cbor.Unmarshal(blob, &env); err != nil {
		return nil, gameerr.Infrastructure("decode state envelope", err)
	}
	if env.Version != StateVersion {
		return nil, gameerr.Infrastructure("decode state", fmt.Errorf("%w: %d", ErrUnsupportedVersion, env.Version))
	}
	var s State
	if err := cbor.Unmarshal(env.State, &s); err != nil {
		return nil, gameerr.Infrastructure("decode state", err)
	}
	s.PlayerState.Character.DirtySpecs = true
	for i := range s.MonsterStates {
		s.MonsterStates[i].Character.DirtySpecs = true
	}
	s.MarkAllDirty()
	return &s, nil
}
