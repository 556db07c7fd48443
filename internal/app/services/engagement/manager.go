package engagement

import (
	"context"
	"fmt"
	"sync"

	"github.com/glazehub/glazehub/internal/app/domain/feed"
	"github.com/glazehub/glazehub/internal/app/metrics"
	"github.com/glazehub/glazehub/internal/app/services/praise"
	"github.com/glazehub/glazehub/internal/app/system"
	"github.com/glazehub/glazehub/pkg/logger"
)

var _ system.Service = (*Manager)(nil)

// Manager tracks at most one simulator per post and ties their lifetime to
// the application lifecycle: stopping the manager stops every simulator.
type Manager struct {
	gen *praise.Engine
	cfg Config
	log *logger.Logger

	mu      sync.Mutex
	sims    map[string]*Simulator
	runCtx  context.Context
	cancel  context.CancelFunc
	running bool
}

// NewManager creates a simulator manager.
func NewManager(gen *praise.Engine, cfg Config, log *logger.Logger) *Manager {
	if gen == nil {
		gen = praise.NewEngine()
	}
	if log == nil {
		log = logger.NewDefault("engagement-manager")
	}
	cfg.normalize()
	return &Manager{
		gen:  gen,
		cfg:  cfg,
		log:  log,
		sims: make(map[string]*Simulator),
	}
}

func (m *Manager) Name() string { return "engagement-manager" }

func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return nil
	}
	m.runCtx, m.cancel = context.WithCancel(ctx)
	m.running = true
	m.log.Info("engagement manager started")
	return nil
}

func (m *Manager) Stop(ctx context.Context) error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return nil
	}
	m.running = false
	cancel := m.cancel
	m.cancel = nil
	sims := make([]*Simulator, 0, len(m.sims))
	for _, sim := range m.sims {
		sims = append(sims, sim)
	}
	m.sims = make(map[string]*Simulator)
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	for _, sim := range sims {
		if err := sim.Stop(ctx); err != nil {
			return err
		}
		metrics.SimulationStopped()
	}
	m.log.Info("engagement manager stopped")
	return nil
}

// Mount starts a simulator for the post, returning the existing one when the
// post is already mounted.
func (m *Manager) Mount(post feed.Post) (*Simulator, error) {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return nil, fmt.Errorf("engagement manager not started")
	}
	if sim, ok := m.sims[post.ID]; ok {
		m.mu.Unlock()
		return sim, nil
	}

	sim := NewSimulator(post, m.gen, m.cfg, m.log)
	m.sims[post.ID] = sim
	ctx := m.runCtx
	m.mu.Unlock()

	if err := sim.Start(ctx); err != nil {
		m.mu.Lock()
		delete(m.sims, post.ID)
		m.mu.Unlock()
		return nil, err
	}
	metrics.SimulationStarted()
	return sim, nil
}

// Unmount stops and removes the post's simulator. Unknown posts are a no-op.
func (m *Manager) Unmount(ctx context.Context, postID string) error {
	m.mu.Lock()
	sim, ok := m.sims[postID]
	delete(m.sims, postID)
	m.mu.Unlock()

	if !ok {
		return nil
	}
	if err := sim.Stop(ctx); err != nil {
		return err
	}
	metrics.SimulationStopped()
	return nil
}

// Get returns the simulator mounted for the post, if any.
func (m *Manager) Get(postID string) (*Simulator, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sim, ok := m.sims[postID]
	return sim, ok
}
