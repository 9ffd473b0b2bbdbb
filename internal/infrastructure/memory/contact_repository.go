package memory

import (
	"context"
	"sort"
	"sync"

	domain "github.com/asif4762/bookbarn-final-server/internal/domain/contact"
)

type ContactRepository struct {
	mu       sync.RWMutex
	messages []*domain.Message
}

func NewContactRepository() *ContactRepository {
	return &ContactRepository{}
}

func (r *ContactRepository) Insert(ctx context.Context, m *domain.Message) error {
	_ = ctx
	if m == nil || m.ID == "" {
		return domain.ErrMissingField
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	clone := *m
	r.messages = append(r.messages, &clone)
	return nil
}

func (r *ContactRepository) List(ctx context.Context) ([]*domain.Message, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Message, 0, len(r.messages))
	for _, m := range r.messages {
		clone := *m
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
