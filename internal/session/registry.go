// Package session keeps game instances of disconnected characters in memory
// and hands them out exclusively to the connection that resumes them.
package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/remeh/sizedwaitgroup"
	"github.com/sasha-s/go-deadlock"

	"grindfall/server/internal/gameerr"
	"grindfall/server/internal/sim"
	"grindfall/server/internal/storage"
	"grindfall/server/internal/telemetry"
	"grindfall/server/logging"
	"grindfall/server/logging/lifecycle"
	"grindfall/server/logging/persistence"
)

const (
	metricCached       = "session_cached"
	metricActive       = "session_active"
	metricSaveFailures = "session_save_failures_total"
	metricExpired      = "session_expired_total"
)

var (
	// ErrAlreadyActive reports a second checkout of a character whose
	// instance is currently running.
	ErrAlreadyActive = errors.New("character is already playing")
	// ErrMissingStore indicates a registry built without persistence.
	ErrMissingStore = errors.New("session: store is nil")
	// ErrMissingFactory indicates a registry that cannot build fresh states.
	ErrMissingFactory = errors.New("session: factory is nil")
)

// Config tunes the idle sweep and the persistence fan-out.
type Config struct {
	IdleTimeout     time.Duration
	SweepInterval   time.Duration
	SaveConcurrency int
	SaveTimeout     time.Duration
}

// DefaultConfig returns the production registry settings.
func DefaultConfig() Config {
	return Config{
		IdleTimeout:     5 * time.Minute,
		SweepInterval:   time.Minute,
		SaveConcurrency: 8,
		SaveTimeout:     10 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = def.IdleTimeout
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = def.SweepInterval
	}
	if c.SaveConcurrency <= 0 {
		c.SaveConcurrency = def.SaveConcurrency
	}
	if c.SaveTimeout <= 0 {
		c.SaveTimeout = def.SaveTimeout
	}
	return c
}

// Factory builds the state of a character that has nothing saved yet.
type Factory func(characterID, areaID string) (*sim.State, error)

// Deps bundles the collaborators shared by every registry operation.
type Deps struct {
	Logger    telemetry.Logger
	Metrics   telemetry.Metrics
	Publisher logging.Publisher
	Clock     logging.Clock
}

type entry struct {
	state      *sim.State
	lastActive time.Time
}

// Registry owns the cached instances. The lock guards the maps only and is
// never held across I/O or simulation work.
type Registry struct {
	mu      deadlock.Mutex
	entries map[string]entry
	active  map[string]struct{}
	// saving holds entries taken out of the map by a sweep or flush. The
	// channel closes once the write finished.
	saving map[string]chan struct{}

	store   storage.Store
	factory Factory
	config  Config
	deps    Deps
}

// NewRegistry constructs a registry persisting through store.
func NewRegistry(store storage.Store, factory Factory, cfg Config, deps Deps) (*Registry, error) {
	if store == nil {
		return nil, gameerr.Infrastructure("new registry", ErrMissingStore)
	}
	if factory == nil {
		return nil, gameerr.Infrastructure("new registry", ErrMissingFactory)
	}
	if deps.Logger == nil {
		deps.Logger = telemetry.LoggerFunc(nil)
	}
	if deps.Metrics == nil {
		deps.Metrics = telemetry.Nop()
	}
	if deps.Publisher == nil {
		deps.Publisher = logging.NopPublisher()
	}
	if deps.Clock == nil {
		deps.Clock = logging.ClockFunc(time.Now)
	}
	return &Registry{
		entries: make(map[string]entry),
		active:  make(map[string]struct{}),
		saving:  make(map[string]chan struct{}),
		store:   store,
		factory: factory,
		config:  cfg.withDefaults(),
		deps:    deps,
	}, nil
}

// CreateOrResume checks characterID out of the registry. A cached state is
// removed from the map and returned; otherwise the saved blob is loaded, or
// a fresh state is built when nothing was saved. The caller owns the state
// until it calls Release.
func (r *Registry) CreateOrResume(ctx context.Context, characterID, areaID string) (*sim.State, error) {
	if r == nil {
		return nil, gameerr.Infrastructure("resume session", errors.New("registry is nil"))
	}
	id, err := storage.NormalizeID(characterID)
	if err != nil {
		return nil, gameerr.User(err)
	}

	var (
		cached entry
		ok     bool
	)
	for {
		r.mu.Lock()
		if _, busy := r.active[id]; busy {
			r.mu.Unlock()
			return nil, gameerr.User(ErrAlreadyActive)
		}
		if done, saving := r.saving[id]; saving {
			r.mu.Unlock()
			select {
			case <-done:
				continue
			case <-ctx.Done():
				return nil, gameerr.Infrastructure("resume session", ctx.Err())
			}
		}
		r.active[id] = struct{}{}
		cached, ok = r.entries[id]
		if ok {
			delete(r.entries, id)
		}
		r.storeGaugesLocked()
		r.mu.Unlock()
		break
	}

	if ok && !cached.state.QuestTerminated() {
		lifecycle.SessionStarted(ctx, r.deps.Publisher, logging.PlayerEntity(id), lifecycle.SessionPayload{Origin: "cache"}, nil)
		return cached.state, nil
	}

	s, origin, err := r.load(ctx, id, areaID)
	if err != nil {
		r.mu.Lock()
		delete(r.active, id)
		r.storeGaugesLocked()
		r.mu.Unlock()
		return nil, err
	}
	lifecycle.SessionStarted(ctx, r.deps.Publisher, logging.PlayerEntity(id), lifecycle.SessionPayload{Origin: origin}, nil)
	return s, nil
}

// load reads the saved run of id. A terminated run starts over.
func (r *Registry) load(ctx context.Context, id, areaID string) (*sim.State, string, error) {
	blob, found, err := r.store.Load(ctx, id)
	if err != nil {
		persistence.LoadFailed(ctx, r.deps.Publisher, logging.PlayerEntity(id), persistence.FailurePayload{Reason: "resume", Error: err.Error()}, nil)
		return nil, "", gameerr.Infrastructure("load session", err)
	}
	if found {
		s, err := sim.DecodeState(blob)
		if err != nil {
			persistence.LoadFailed(ctx, r.deps.Publisher, logging.PlayerEntity(id), persistence.FailurePayload{Reason: "decode", Error: err.Error()}, nil)
			return nil, "", err
		}
		if !s.QuestTerminated() {
			s.CharacterID = id
			return s, "store", nil
		}
	}
	s, err := r.factory(id, areaID)
	if err != nil {
		return nil, "", err
	}
	return s, "fresh", nil
}

// Release hands the state of a finished connection back. A terminated quest
// is persisted and dropped; anything else stays cached until it goes idle.
func (r *Registry) Release(ctx context.Context, characterID string, s *sim.State) error {
	if r == nil {
		return nil
	}
	id, err := storage.NormalizeID(characterID)
	if err != nil {
		return gameerr.User(err)
	}
	if s == nil {
		r.mu.Lock()
		delete(r.active, id)
		r.storeGaugesLocked()
		r.mu.Unlock()
		return nil
	}

	if s.QuestTerminated() {
		err := r.persist(ctx, id, s, "quest terminated")
		r.mu.Lock()
		delete(r.active, id)
		if err != nil {
			r.entries[id] = entry{state: s, lastActive: r.deps.Clock.Now()}
		}
		r.storeGaugesLocked()
		r.mu.Unlock()
		lifecycle.SessionReleased(ctx, r.deps.Publisher, s.Tick, logging.PlayerEntity(id), lifecycle.SessionPayload{Reason: "quest terminated"}, nil)
		return err
	}

	r.mu.Lock()
	delete(r.active, id)
	r.entries[id] = entry{state: s, lastActive: r.deps.Clock.Now()}
	r.storeGaugesLocked()
	r.mu.Unlock()
	lifecycle.SessionReleased(ctx, r.deps.Publisher, s.Tick, logging.PlayerEntity(id), lifecycle.SessionPayload{Reason: "disconnected"}, nil)
	return nil
}

// Sweep persists and evicts every cached entry idle since before
// now-IdleTimeout. Entries whose save fails stay cached for the next sweep.
// It returns the number of evicted entries.
func (r *Registry) Sweep(ctx context.Context, now time.Time) int {
	if r == nil {
		return 0
	}
	cutoff := now.Add(-r.config.IdleTimeout)
	idle := r.takeForSave(func(e entry) bool { return e.lastActive.Before(cutoff) })
	if len(idle) == 0 {
		return 0
	}
	failed := r.persistAll(ctx, idle, "idle")
	r.finishSave(idle, failed)

	evicted := len(idle) - len(failed)
	for id := range idle {
		if _, ok := failed[id]; ok {
			continue
		}
		lifecycle.SessionExpired(ctx, r.deps.Publisher, logging.PlayerEntity(id), lifecycle.SessionPayload{Reason: "idle"}, nil)
	}
	r.deps.Metrics.Add(metricExpired, uint64(evicted))
	return evicted
}

// Flush persists every cached entry, typically on shutdown. Entries stay
// cached; the returned error lists the characters that could not be saved.
func (r *Registry) Flush(ctx context.Context) error {
	if r == nil {
		return nil
	}
	all := r.takeForSave(func(entry) bool { return true })
	failed := r.persistAll(ctx, all, "shutdown")
	r.finishSave(all, all)
	if len(failed) == 0 {
		return nil
	}
	ids := make([]string, 0, len(failed))
	for id := range failed {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return gameerr.Infrastructure("flush sessions", fmt.Errorf("%d of %d saves failed: %v", len(failed), len(all), ids))
}

// takeForSave removes the matching entries from the map and marks them as
// being saved, so a concurrent checkout waits instead of reading a stale
// blob from the store.
func (r *Registry) takeForSave(match func(entry) bool) map[string]entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	taken := make(map[string]entry)
	for id, e := range r.entries {
		if !match(e) {
			continue
		}
		taken[id] = e
		delete(r.entries, id)
		r.saving[id] = make(chan struct{})
	}
	r.storeGaugesLocked()
	return taken
}

// finishSave puts keep back into the map and wakes checkouts waiting on any
// of the taken entries.
func (r *Registry) finishSave(taken, keep map[string]entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, e := range keep {
		r.entries[id] = e
	}
	for id := range taken {
		if done, ok := r.saving[id]; ok {
			close(done)
			delete(r.saving, id)
		}
	}
	r.storeGaugesLocked()
}

// Run sweeps on every SweepInterval until ctx is cancelled.
func (r *Registry) Run(ctx context.Context) error {
	if r == nil {
		return nil
	}
	ticker := time.NewTicker(r.config.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := r.Sweep(ctx, r.deps.Clock.Now()); n > 0 {
				r.deps.Logger.Printf("[session] evicted %d idle instances", n)
			}
		}
	}
}

// Len reports the number of cached, not checked out, entries.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Active reports whether characterID is currently checked out.
func (r *Registry) Active(characterID string) bool {
	if r == nil {
		return false
	}
	id, err := storage.NormalizeID(characterID)
	if err != nil {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.active[id]
	return ok
}

func (r *Registry) persistAll(ctx context.Context, entries map[string]entry, reason string) map[string]entry {
	var (
		mu     deadlock.Mutex
		failed = make(map[string]entry)
	)
	swg := sizedwaitgroup.New(r.config.SaveConcurrency)
	for id, e := range entries {
		if err := swg.AddWithContext(ctx); err != nil {
			mu.Lock()
			failed[id] = e
			mu.Unlock()
			continue
		}
		go func(id string, e entry) {
			defer swg.Done()
			if err := r.persist(ctx, id, e.state, reason); err != nil {
				mu.Lock()
				failed[id] = e
				mu.Unlock()
			}
		}(id, e)
	}
	swg.Wait()
	return failed
}

func (r *Registry) persist(ctx context.Context, id string, s *sim.State, reason string) error {
	blob, err := sim.EncodeState(s)
	if err == nil {
		saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.config.SaveTimeout)
		err = r.store.Save(saveCtx, id, blob)
		cancel()
	}
	if err != nil {
		r.deps.Metrics.Add(metricSaveFailures, 1)
		r.deps.Logger.Printf("[session] failed to save %s (%s): %v", id, reason, err)
		persistence.SaveFailed(ctx, r.deps.Publisher, s.Tick, logging.PlayerEntity(id), persistence.FailurePayload{Reason: reason, Error: err.Error()}, nil)
		return gameerr.Infrastructure("save session", err)
	}
	persistence.Saved(ctx, r.deps.Publisher, s.Tick, logging.PlayerEntity(id), persistence.SavedPayload{Bytes: len(blob), Reason: reason}, nil)
	return nil
}

func (r *Registry) storeGaugesLocked() {
	r.deps.Metrics.Store(metricCached, uint64(len(r.entries)))
	r.deps.Metrics.Store(metricActive, uint64(len(r.active)))
}
