// Package intake turns decoded client frames into simulation commands and
// stages them on the running instance.
package intake

import (
	"errors"
	"time"

	"grindfall/server/internal/gameerr"
	"grindfall/server/internal/net/proto"
	"grindfall/server/internal/sim"
)

// ErrQueueFull reports a command dropped because the instance is saturated.
var ErrQueueFull = errors.New("server busy, command dropped")

// ErrNoInstance reports a gameplay frame received before the session
// attached to an instance.
var ErrNoInstance = errors.New("no active game")

// Enqueuer accepts commands for the next tick.
type Enqueuer interface {
	Enqueue(cmd sim.Command) bool
}

// CommandContext carries what staging needs from the session.
type CommandContext struct {
	Instance Enqueuer
	Now      func() time.Time
}

// StageClientCommand validates msg and enqueues the command it carries.
// Malformed frames return protocol errors; a full queue returns a user
// error so the client learns the command was lost.
func StageClientCommand(ctx CommandContext, msg proto.ClientMessage) (sim.Command, error) {
	var zero sim.Command

	command, err := proto.ClientCommand(msg)
	if err != nil {
		return zero, err
	}
	if ctx.Instance == nil {
		return zero, gameerr.Protocol("stage command", ErrNoInstance)
	}
	if ctx.Now != nil {
		command.IssuedAt = ctx.Now()
	} else {
		command.IssuedAt = time.Now()
	}
	if !ctx.Instance.Enqueue(command) {
		return zero, gameerr.User(ErrQueueFull)
	}
	return command, nil
}
