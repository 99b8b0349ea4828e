package service

import (
	"strings"
	"sync"

	"onchain-leveling-backend/internal/features/completion/models"
)

// Broker fans attempt snapshots out to live subscribers, keyed by address.
type Broker struct {
	mu   sync.RWMutex
	subs map[string]map[chan models.Attempt]struct{}
}

func NewBroker() *Broker {
	return &Broker{subs: make(map[string]map[chan models.Attempt]struct{})}
}

func (b *Broker) Subscribe(address string) chan models.Attempt {
	key := strings.ToLower(address)
	ch := make(chan models.Attempt, 16)
	b.mu.Lock()
	if b.subs[key] == nil {
		b.subs[key] = make(map[chan models.Attempt]struct{})
	}
	b.subs[key][ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *Broker) Unsubscribe(address string, ch chan models.Attempt) {
	key := strings.ToLower(address)
	b.mu.Lock()
	if _, ok := b.subs[key][ch]; ok {
		delete(b.subs[key], ch)
		close(ch)
	}
	if len(b.subs[key]) == 0 {
		delete(b.subs, key)
	}
	b.mu.Unlock()
}

// Publish never blocks; slow subscribers miss updates.
func (b *Broker) Publish(a models.Attempt) {
	b.mu.RLock()
	for ch := range b.subs[strings.ToLower(a.Address)] {
		select {
		case ch <- a:
		default:
		}
	}
	b.mu.RUnlock()
}
