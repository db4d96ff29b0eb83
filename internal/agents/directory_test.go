package agents

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/praxislabs/praxis/internal/cache"
	"github.com/praxislabs/praxis/pkg/models"
)

type countingDirectory struct {
	inner Directory
	calls int
}

func (c *countingDirectory) GetAgent(ctx context.Context, id string) (*models.Agent, error) {
	c.calls++
	return c.inner.GetAgent(ctx, id)
}

func (c *countingDirectory) GetAllAgents(ctx context.Context) ([]*models.Agent, error) {
	c.calls++
	return c.inner.GetAllAgents(ctx)
}

func TestStaticDirectoryNotFound(t *testing.T) {
	d := NewStaticDirectory()
	_, err := d.GetAgent(context.Background(), "ghost")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCachedDirectoryServesFromCache(t *testing.T) {
	inner := &countingDirectory{inner: NewStaticDirectory(
		&models.Agent{ID: "agent-1", Name: "researcher", Status: "idle"},
	)}
	backend := cache.New(&cache.Config{Enabled: true, DefaultTTL: time.Minute, MaxSize: 100})
	d := NewCachedDirectory(inner, backend, time.Minute, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		a, err := d.GetAgent(ctx, "agent-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if a.Name != "researcher" {
			t.Errorf("got name %q", a.Name)
		}
	}
	if inner.calls != 1 {
		t.Errorf("inner directory called %d times, want 1", inner.calls)
	}
}

func TestCachedDirectoryInvalidate(t *testing.T) {
	inner := &countingDirectory{inner: NewStaticDirectory(
		&models.Agent{ID: "agent-1", Name: "researcher"},
	)}
	backend := cache.New(&cache.Config{Enabled: true, DefaultTTL: time.Minute, MaxSize: 100})
	d := NewCachedDirectory(inner, backend, time.Minute, nil)
	ctx := context.Background()

	d.GetAgent(ctx, "agent-1")
	d.Invalidate(ctx, "agent-1")
	d.GetAgent(ctx, "agent-1")

	if inner.calls != 2 {
		t.Errorf("inner directory called %d times after invalidation, want 2", inner.calls)
	}
}
