// Package memory holds process-local completion state for the CLI and tests.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"onchain-leveling-backend/internal/features/completion/models"
)

func slot(address string, taskID uint64) string {
	return fmt.Sprintf("%s:%d", strings.ToLower(address), taskID)
}

// Guard ignores the TTL; slots are held until released.
type Guard struct {
	mu   sync.Mutex
	held map[string]string
}

func NewGuard() *Guard {
	return &Guard{held: make(map[string]string)}
}

func (g *Guard) Acquire(ctx context.Context, address string, taskID uint64, attemptID string, ttl time.Duration) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	k := slot(address, taskID)
	if _, taken := g.held[k]; taken {
		return false, nil
	}
	g.held[k] = attemptID
	return true, nil
}

func (g *Guard) Refresh(ctx context.Context, address string, taskID uint64, attemptID string, ttl time.Duration) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.held[slot(address, taskID)] == attemptID, nil
}

func (g *Guard) Release(ctx context.Context, address string, taskID uint64, attemptID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	k := slot(address, taskID)
	if g.held[k] == attemptID {
		delete(g.held, k)
	}
	return nil
}

type Records struct {
	mu   sync.Mutex
	last map[string]time.Time
}

func NewRecords() *Records {
	return &Records{last: make(map[string]time.Time)}
}

func (r *Records) LastCompleted(ctx context.Context, address string, taskID uint64) (time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last[slot(address, taskID)], nil
}

func (r *Records) MarkCompleted(ctx context.Context, address string, taskID uint64, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.last[slot(address, taskID)] = at
	return nil
}

// Journal keeps transitions in insertion order.
type Journal struct {
	mu      sync.Mutex
	entries []models.Transition
}

func NewJournal() *Journal {
	return &Journal{}
}

func (j *Journal) Append(ctx context.Context, t models.Transition) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, t)
	return nil
}

// History returns the newest transitions first.
func (j *Journal) History(ctx context.Context, address string, limit int) ([]models.Transition, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	var out []models.Transition
	for i := len(j.entries) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		if strings.EqualFold(j.entries[i].Address, address) {
			out = append(out, j.entries[i])
		}
	}
	return out, nil
}

type Publisher struct {
	mu     sync.Mutex
	Events []models.ProgressEvent
}

func (p *Publisher) PublishProgress(ctx context.Context, event models.ProgressEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Events = append(p.Events, event)
	return nil
}

func (p *Publisher) Published() []models.ProgressEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.ProgressEvent(nil), p.Events...)
}
