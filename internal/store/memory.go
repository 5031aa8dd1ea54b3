package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps evaluations in process memory. It is used when no
// database URL is configured and in tests. Nothing survives a restart; run
// with a database in production.
type MemoryStore struct {
	mu    sync.RWMutex
	byID  map[uuid.UUID]*Evaluation
	order []uuid.UUID
	max   int
}

type MemoryOption func(*MemoryStore)

// WithMaxEvaluations caps how many evaluations are retained. Past the cap
// the oldest is evicted on every insert. n <= 0 means unbounded.
func WithMaxEvaluations(n int) MemoryOption {
	return func(s *MemoryStore) { s.max = n }
}

func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{byID: make(map[uuid.UUID]*Evaluation)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) CreateEvaluation(_ context.Context, e *Evaluation) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	cp := *e

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[e.ID]; ok {
		return fmt.Errorf("evaluation %s already exists", e.ID)
	}
	s.byID[e.ID] = &cp
	s.order = append(s.order, e.ID)
	if s.max > 0 && len(s.order) > s.max {
		evict := len(s.order) - s.max
		for _, id := range s.order[:evict] {
			delete(s.byID, id)
		}
		s.order = append([]uuid.UUID(nil), s.order[evict:]...)
	}
	return nil
}

func (s *MemoryStore) GetEvaluation(_ context.Context, id uuid.UUID) (*Evaluation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *e
	return &cp, nil
}

// ListEvaluations returns matches newest first.
func (s *MemoryStore) ListEvaluations(_ context.Context, filter EvaluationFilter) ([]*Evaluation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Evaluation
	skipped := 0
	for i := len(s.order) - 1; i >= 0; i-- {
		e := s.byID[s.order[i]]
		if filter.Status != nil && e.Status != *filter.Status {
			continue
		}
		if filter.Email != "" && e.Email != filter.Email {
			continue
		}
		if skipped < filter.Offset {
			skipped++
			continue
		}
		cp := *e
		out = append(out, &cp)
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}

func (s *MemoryStore) UpdateDelivery(_ context.Context, id uuid.UUID, delivered bool, deliveryErr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("evaluation %s not found", id)
	}
	e.Delivered = delivered
	e.DeliveryError = deliveryErr
	return nil
}

func (s *MemoryStore) GetStats(_ context.Context) (*EvaluationStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &EvaluationStats{FailuresByKind: make(map[string]int)}
	for _, e := range s.byID {
		switch e.Status {
		case StatusCompleted:
			stats.TotalCompleted++
		case StatusFailed:
			stats.TotalFailed++
			stats.FailuresByKind[e.ErrorKind]++
		}
		if e.Delivered {
			stats.TotalDelivered++
		}
	}
	return stats, nil
}

func (s *MemoryStore) Close() error { return nil }
