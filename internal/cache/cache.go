// Package cache stores computed project summaries between ledger changes.
package cache

import (
	"context"
	"sync"

	"github.com/vilanovax/dangi-sub000/pkg/api"
)

// SummaryCache holds one summary per project, generation and period.
//
// Invalidate advances a project's generation. A reader takes the generation
// before reading the ledger and stores its result under it, so a summary
// computed from a ledger that changed mid-flight lands under a generation
// nobody reads anymore.
//
// Implementations must be safe for concurrent use.
type SummaryCache interface {
	// Generation returns the project's current generation.
	Generation(ctx context.Context, projectID string) (int64, error)
	// Get returns the cached summary; ok is false on a miss.
	Get(ctx context.Context, projectID string, gen int64, period string) (summary *api.Summary, ok bool, err error)
	Set(ctx context.Context, projectID string, gen int64, period string, summary *api.Summary) error
	// Invalidate retires every cached period of the project.
	Invalidate(ctx context.Context, projectID string) error
	Close() error
}

// Noop never stores anything.
type Noop struct{}

func (Noop) Generation(context.Context, string) (int64, error) { return 0, nil }
func (Noop) Get(context.Context, string, int64, string) (*api.Summary, bool, error) {
	return nil, false, nil
}
func (Noop) Set(context.Context, string, int64, string, *api.Summary) error { return nil }
func (Noop) Invalidate(context.Context, string) error { return nil }
func (Noop) Close() error { return nil }

type memoryKey struct {
	projectID string
	period    string
}

// Memory is an in-process cache without expiry. It stores and returns copies,
// so callers may modify the summaries they pass in or get back.
type Memory struct {
	mu          sync.Mutex
	generations map[string]int64
	items       map[memoryKey]*api.Summary
}

func NewMemory() *Memory {
	return &Memory{
		generations: make(map[string]int64),
		items:       make(map[memoryKey]*api.Summary),
	}
}

func (m *Memory) Generation(_ context.Context, projectID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.generations[projectID], nil
}

func (m *Memory) Get(_ context.Context, projectID string, gen int64, period string) (*api.Summary, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.generations[projectID] {
		return nil, false, nil
	}
	s, ok := m.items[memoryKey{projectID, period}]
	if !ok {
		return nil, false, nil
	}
	return clone(s), true, nil
}

// Set drops summaries computed under a retired generation.
func (m *Memory) Set(_ context.Context, projectID string, gen int64, period string, summary *api.Summary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.generations[projectID] {
		return nil
	}
	m.items[memoryKey{projectID, period}] = clone(summary)
	return nil
}

func (m *Memory) Invalidate(_ context.Context, projectID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.generations[projectID]++
	for k := range m.items {
		if k.projectID == projectID {
			delete(m.items, k)
		}
	}
	return nil
}

func (m *Memory) Close() error { return nil }

func clone(s *api.Summary) *api.Summary {
	if s == nil {
		return nil
	}
	out := *s
	out.Balances = cloneAll(s.Balances)
	out.Settlements = cloneAll(s.Settlements)
	out.ChargeDebts = cloneAll(s.ChargeDebts)
	return &out
}

func cloneAll[T any](in []*T) []*T {
	if in == nil {
		return nil
	}
	out := make([]*T, len(in))
	for i, v := range in {
		if v != nil {
			c := *v
			out[i] = &c
		}
	}
	return out
}
