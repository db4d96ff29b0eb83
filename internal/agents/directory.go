// Package agents exposes the platform's agent directory to the training
// engine through a narrow interface, with an injectable caching decorator.
package agents

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/praxislabs/praxis/internal/cache"
	"github.com/praxislabs/praxis/internal/metrics"
	"github.com/praxislabs/praxis/pkg/models"
)

// ErrNotFound is returned when an agent is unknown to the directory.
var ErrNotFound = errors.New("agent not found")

// Directory is the training engine's view of the agent roster
type Directory interface {
	GetAgent(ctx context.Context, id string) (*models.Agent, error)
	GetAllAgents(ctx context.Context) ([]*models.Agent, error)
}

// StaticDirectory is a Directory over a fixed agent roster, used for
// standalone deployments and tests.
type StaticDirectory struct {
	mu     sync.RWMutex
	agents map[string]*models.Agent
}

// NewStaticDirectory creates a directory over the given agents
func NewStaticDirectory(agents ...*models.Agent) *StaticDirectory {
	d := &StaticDirectory{agents: make(map[string]*models.Agent)}
	for _, a := range agents {
		d.agents[a.ID] = a
	}
	return d
}

var _ Directory = (*StaticDirectory)(nil)

// Add registers or replaces an agent
func (d *StaticDirectory) Add(a *models.Agent) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.agents[a.ID] = a
}

func (d *StaticDirectory) GetAgent(ctx context.Context, id string) (*models.Agent, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	a, ok := d.agents[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := *a
	return &c, nil
}

func (d *StaticDirectory) GetAllAgents(ctx context.Context) ([]*models.Agent, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]*models.Agent, 0, len(d.agents))
	for _, a := range d.agents {
		c := *a
		out = append(out, &c)
	}
	return out, nil
}

// CachedDirectory decorates a Directory with a TTL cache. The cache is owned
// by this component and invalidated explicitly, never through ambient global
// state.
type CachedDirectory struct {
	inner   Directory
	cache   cache.Backend
	ttl     time.Duration
	metrics *metrics.Metrics
}

// NewCachedDirectory wraps a directory with the given cache backend
func NewCachedDirectory(inner Directory, backend cache.Backend, ttl time.Duration, m *metrics.Metrics) *CachedDirectory {
	return &CachedDirectory{inner: inner, cache: backend, ttl: ttl, metrics: m}
}

var _ Directory = (*CachedDirectory)(nil)

const allAgentsKey = "agents:all"

func (d *CachedDirectory) GetAgent(ctx context.Context, id string) (*models.Agent, error) {
	key := "agents:" + id
	if entry, ok := d.cache.Get(ctx, key); ok {
		var a models.Agent
		if err := json.Unmarshal(entry.Value, &a); err == nil {
			d.countHit(true)
			return &a, nil
		}
	}
	d.countHit(false)

	a, err := d.inner.GetAgent(ctx, id)
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(a); err == nil {
		_ = d.cache.Set(ctx, key, raw, d.ttl)
	}
	return a, nil
}

func (d *CachedDirectory) GetAllAgents(ctx context.Context) ([]*models.Agent, error) {
	if entry, ok := d.cache.Get(ctx, allAgentsKey); ok {
		var agents []*models.Agent
		if err := json.Unmarshal(entry.Value, &agents); err == nil {
			d.countHit(true)
			return agents, nil
		}
	}
	d.countHit(false)

	agents, err := d.inner.GetAllAgents(ctx)
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(agents); err == nil {
		_ = d.cache.Set(ctx, allAgentsKey, raw, d.ttl)
	}
	return agents, nil
}

// Invalidate drops cached state for one agent and the roster listing
func (d *CachedDirectory) Invalidate(ctx context.Context, id string) {
	d.cache.Delete(ctx, "agents:"+id)
	d.cache.Delete(ctx, allAgentsKey)
}

func (d *CachedDirectory) countHit(hit bool) {
	if d.metrics == nil {
		return
	}
	if hit {
		d.metrics.CacheHits.Inc()
	} else {
		d.metrics.CacheMisses.Inc()
	}
}
