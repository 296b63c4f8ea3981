package ws

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"grindfall/server/internal/auth"
	"grindfall/server/internal/gameerr"
	"grindfall/server/internal/net/intake"
	"grindfall/server/internal/net/proto"
	"grindfall/server/internal/sim"
	"grindfall/server/logging"
	"grindfall/server/logging/network"
)

var (
	// ErrNotConnected reports a gameplay frame sent before connect.
	ErrNotConnected = errors.New("connect must be the first message")
	// ErrAlreadyConnected reports a second connect frame.
	ErrAlreadyConnected = errors.New("already connected")
	// ErrSlowConsumer reports a client that does not drain its frames.
	ErrSlowConsumer = errors.New("client is not reading fast enough")
	// ErrClosed reports a send on a closed connection.
	ErrClosed = errors.New("connection closed")
)

// clientSession is one websocket connection. It implements sim.Conn; frames
// are encoded synchronously by the send methods and written by the write
// pump.
type clientSession struct {
	h      *Handler
	conn   *websocket.Conn
	id     string
	remote string

	identity auth.Identity
	actor    logging.EntityRef
	instance *sim.Instance

	outbound  chan []byte
	done      chan struct{}
	closeOnce sync.Once
	reason    string
}

var _ sim.Conn = (*clientSession)(nil)

func newSession(h *Handler, conn *websocket.Conn, remote string) *clientSession {
	return &clientSession{
		h:        h,
		conn:     conn,
		id:       uuid.NewString(),
		remote:   remote,
		outbound: make(chan []byte, h.cfg.SendQueue),
		done:     make(chan struct{}),
	}
}

func (s *clientSession) serve(ctx context.Context) {
	cfg := s.h.cfg
	s.conn.SetReadLimit(cfg.ReadLimit)
	defer s.conn.Close()

	msg, err := s.awaitConnect()
	if err != nil {
		s.reject(ctx, err)
		return
	}
	identity, err := cfg.Verifier.Verify(msg.Token, msg.CharacterID)
	if err != nil {
		s.reject(ctx, err)
		return
	}
	s.identity = identity
	s.actor = logging.PlayerEntity(identity.CharacterID)

	state, err := cfg.Registry.CreateOrResume(ctx, identity.CharacterID, msg.AreaID)
	if err != nil {
		s.reject(ctx, err)
		return
	}
	instance, err := sim.NewInstance(state, cfg.Catalog, cfg.Sim, sim.Deps{
		Logger:    cfg.Logger,
		Metrics:   cfg.Metrics,
		Publisher: cfg.Publisher,
		Clock:     cfg.Clock,
		Saver:     cfg.Saver,
	})
	if err != nil {
		cfg.Logger.Printf("[ws] failed to start instance for %s: %v", identity.CharacterID, err)
		if releaseErr := cfg.Registry.Release(context.WithoutCancel(ctx), identity.CharacterID, state); releaseErr != nil {
			cfg.Logger.Printf("[ws] failed to release %s: %v", identity.CharacterID, releaseErr)
		}
		s.reject(ctx, err)
		return
	}

	s.instance = instance
	network.Connected(ctx, cfg.Publisher, s.actor, network.ConnectionPayload{ConnectionID: s.id, Remote: s.remote}, nil)
	s.conn.SetReadDeadline(time.Now().Add(cfg.PongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(cfg.PongWait))
	})
	if err := s.enqueue(proto.EncodeConnectAck(proto.ConnectAck{ConnectionID: s.id, CharacterID: identity.CharacterID})); err != nil {
		cfg.Logger.Printf("[ws] failed to acknowledge %s: %v", identity.CharacterID, err)
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		s.writePump(groupCtx)
		return nil
	})
	group.Go(func() error {
		s.readPump(groupCtx, instance)
		return nil
	})
	group.Go(func() error {
		defer s.close("instance stopped")
		return instance.Run(groupCtx, s)
	})
	if err := group.Wait(); err != nil {
		cfg.Logger.Printf("[ws] instance of %s stopped: %v", identity.CharacterID, err)
	}

	instance.WaitSaves()
	if err := cfg.Registry.Release(context.WithoutCancel(ctx), identity.CharacterID, instance.State()); err != nil {
		cfg.Logger.Printf("[ws] failed to release %s: %v", identity.CharacterID, err)
	}
	network.Disconnected(ctx, cfg.Publisher, s.actor, network.ConnectionPayload{ConnectionID: s.id, Remote: s.remote, Reason: s.reason}, nil)
}

// awaitConnect reads the first frame, which must be a connect frame.
func (s *clientSession) awaitConnect() (proto.ClientMessage, error) {
	s.conn.SetReadDeadline(time.Now().Add(s.h.cfg.ConnectTimeout))
	_, payload, err := s.conn.ReadMessage()
	if err != nil {
		return proto.ClientMessage{}, gameerr.Protocol("read connect", err)
	}
	msg, err := proto.DecodeClientMessage(payload)
	if err != nil {
		return msg, err
	}
	if msg.Type != proto.TypeConnect {
		return msg, gameerr.Protocol("read connect", fmt.Errorf("%w, got %q", ErrNotConnected, msg.Type))
	}
	return msg, nil
}

// reject reports err to a client that never got an instance and closes the
// connection.
func (s *clientSession) reject(ctx context.Context, err error) {
	if gameerr.MustDisconnect(err) {
		s.h.cfg.Metrics.Add(metricProtocolErrors, 1)
		network.ProtocolError(ctx, s.h.cfg.Publisher, s.actor, network.ConnectionPayload{ConnectionID: s.id, Remote: s.remote, Reason: err.Error()}, nil)
	} else {
		s.h.cfg.Logger.Printf("[ws] rejecting connection %s: %v", s.id, err)
	}
	notice := sim.NoticeFor(err)
	notice.MustDisconnect = true
	deadline := time.Now().Add(s.h.cfg.WriteTimeout)
	if frame, encErr := proto.EncodeError(notice); encErr == nil {
		s.conn.SetWriteDeadline(deadline)
		s.conn.WriteMessage(websocket.BinaryMessage, frame)
	}
	s.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, closeText(notice.Message)), deadline)
}

func (s *clientSession) readPump(ctx context.Context, instance *sim.Instance) {
	defer s.close("client closed")
	staging := intake.CommandContext{Instance: instance, Now: s.h.cfg.Clock.Now}
	for {
		_, payload, err := s.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				select {
				case <-s.done:
				default:
					s.h.cfg.Logger.Printf("[ws] read failed for %s: %v", s.identity.CharacterID, err)
				}
			}
			return
		}
		s.conn.SetReadDeadline(time.Now().Add(s.h.cfg.PongWait))

		msg, err := proto.DecodeClientMessage(payload)
		if err == nil {
			err = s.handle(staging, msg)
		}
		if err == nil {
			continue
		}
		if gameerr.MustDisconnect(err) {
			s.protocolError(ctx, err)
			return
		}
		if sendErr := s.SendError(ctx, sim.NoticeFor(err)); sendErr != nil {
			return
		}
	}
}

func (s *clientSession) handle(staging intake.CommandContext, msg proto.ClientMessage) error {
	switch msg.Type {
	case proto.TypeConnect:
		return gameerr.Protocol("handle connect", ErrAlreadyConnected)
	case proto.TypeHeartbeat:
		now := s.h.cfg.Clock.Now()
		if err := s.enqueue(proto.EncodeHeartbeat(proto.Heartbeat{ServerTime: now.UnixMilli(), ClientTime: msg.SentAt})); err != nil {
			return err
		}
	}
	_, err := intake.StageClientCommand(staging, msg)
	return err
}

func (s *clientSession) protocolError(ctx context.Context, err error) {
	s.h.cfg.Metrics.Add(metricProtocolErrors, 1)
	network.ProtocolError(ctx, s.h.cfg.Publisher, s.actor, network.ConnectionPayload{ConnectionID: s.id, Remote: s.remote, Reason: err.Error()}, nil)
	s.SendError(ctx, sim.NoticeFor(err))
	s.close("protocol error")
}

// writePump owns every write on the connection. Once the session closes it
// flushes what is queued, says goodbye and closes the socket, which also
// unblocks the read pump.
func (s *clientSession) writePump(ctx context.Context) {
	ping := time.NewTicker(s.h.cfg.PongWait * 9 / 10)
	defer func() {
		ping.Stop()
		s.conn.Close()
	}()
	for {
		select {
		case frame := <-s.outbound:
			if err := s.write(websocket.BinaryMessage, frame); err != nil {
				s.close("write failed")
				return
			}
		case <-ping.C:
			if err := s.write(websocket.PingMessage, nil); err != nil {
				s.close("write failed")
				return
			}
		case <-ctx.Done():
			s.close("server shutting down")
			s.flush()
			return
		case <-s.done:
			s.flush()
			return
		}
	}
}

func (s *clientSession) flush() {
	for {
		select {
		case frame := <-s.outbound:
			if err := s.write(websocket.BinaryMessage, frame); err != nil {
				return
			}
		default:
			s.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, closeText(s.reason)), time.Now().Add(s.h.cfg.WriteTimeout))
			return
		}
	}
}

// closeText fits reason into the payload of a close frame.
func closeText(reason string) string {
	const limit = 120
	if len(reason) <= limit {
		return reason
	}
	return reason[:limit]
}

func (s *clientSession) write(messageType int, data []byte) error {
	s.conn.SetWriteDeadline(time.Now().Add(s.h.cfg.WriteTimeout))
	return s.conn.WriteMessage(messageType, data)
}

func (s *clientSession) close(reason string) {
	s.closeOnce.Do(func() {
		s.reason = reason
		close(s.done)
	})
}

// enqueue hands an encoded frame to the write pump. A client that lets its
// queue fill up is disconnected, dropping a delta would desynchronize it.
func (s *clientSession) enqueue(frame []byte, err error) error {
	if err != nil {
		return err
	}
	select {
	case <-s.done:
		return ErrClosed
	default:
	}
	select {
	case s.outbound <- frame:
		return nil
	default:
		s.h.cfg.Metrics.Add(metricBackpressure, 1)
		s.close("slow consumer")
		return ErrSlowConsumer
	}
}

// tick is only read from the instance goroutine, which owns the state.
func (s *clientSession) tick() uint64 {
	if s.instance == nil {
		return 0
	}
	return s.instance.State().Tick
}

func (s *clientSession) SendInit(_ context.Context, msg sim.InitGame) error {
	return s.enqueue(proto.EncodeInitGame(s.tick(), msg))
}

func (s *clientSession) SendUpdate(_ context.Context, msg sim.UpdateGame) error {
	return s.enqueue(proto.EncodeUpdateGame(s.tick(), msg))
}

func (s *clientSession) SendError(_ context.Context, msg sim.ErrorNotice) error {
	return s.enqueue(proto.EncodeError(msg))
}

func (s *clientSession) SendDisconnect(_ context.Context, msg sim.Disconnect) error {
	return s.enqueue(proto.EncodeDisconnect(msg))
}

func (s *clientSession) Done() <-chan struct{} {
	return s.done
}
