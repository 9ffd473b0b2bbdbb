package memory

import (
	"context"
	"sort"
	"sync"

	domain "github.com/asif4762/bookbarn-final-server/internal/domain/review"
)

type ReviewRepository struct {
	mu      sync.RWMutex
	reviews map[string]*domain.Review
	byPair  map[string]struct{}
}

func NewReviewRepository() *ReviewRepository {
	return &ReviewRepository{
		reviews: make(map[string]*domain.Review),
		byPair:  make(map[string]struct{}),
	}
}

func (r *ReviewRepository) Insert(ctx context.Context, rv *domain.Review) error {
	_ = ctx
	if rv == nil || rv.ID == "" {
		return domain.ErrMissingField
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	pair := rv.BookID + "/" + rv.BuyerEmail
	if _, exists := r.byPair[pair]; exists {
		return domain.ErrDuplicate
	}
	clone := *rv
	r.reviews[rv.ID] = &clone
	r.byPair[pair] = struct{}{}
	return nil
}

func (r *ReviewRepository) List(ctx context.Context) ([]*domain.Review, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Review, 0, len(r.reviews))
	for _, rv := range r.reviews {
		clone := *rv
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
