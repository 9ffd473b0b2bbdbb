package memory

import (
	"context"
	"sort"
	"sync"

	domain "github.com/asif4762/bookbarn-final-server/internal/domain/cart"
)

type CartRepository struct {
	mu    sync.RWMutex
	carts map[string]map[string]*domain.Item
}

func NewCartRepository() *CartRepository {
	return &CartRepository{
		carts: make(map[string]map[string]*domain.Item),
	}
}

func (r *CartRepository) ListByBuyer(ctx context.Context, buyerEmail string) ([]*domain.Item, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	items := make([]*domain.Item, 0, len(r.carts[buyerEmail]))
	for _, item := range r.carts[buyerEmail] {
		items = append(items, cloneItem(item))
	}
	sort.Slice(items, func(i, j int) bool { return items[i].BookID < items[j].BookID })
	return items, nil
}

func (r *CartRepository) Upsert(ctx context.Context, item *domain.Item) error {
	_ = ctx
	if item == nil || item.BuyerEmail == "" || item.BookID == "" {
		return domain.ErrMissingField
	}
	if item.Count < 1 {
		return domain.ErrInvalidCount
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	buyerCart, ok := r.carts[item.BuyerEmail]
	if !ok {
		buyerCart = make(map[string]*domain.Item)
		r.carts[item.BuyerEmail] = buyerCart
	}
	if existing, ok := buyerCart[item.BookID]; ok {
		existing.Count = item.Count
		return nil
	}
	buyerCart[item.BookID] = cloneItem(item)
	return nil
}

func (r *CartRepository) UpdateCount(ctx context.Context, buyerEmail, bookID string, count int) error {
	_ = ctx
	if count < 1 {
		return domain.ErrInvalidCount
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.carts[buyerEmail][bookID]
	if !ok {
		return domain.ErrNotFound
	}
	item.Count = count
	return nil
}

func (r *CartRepository) Remove(ctx context.Context, buyerEmail, bookID string) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.carts[buyerEmail][bookID]; !ok {
		return domain.ErrNotFound
	}
	delete(r.carts[buyerEmail], bookID)
	return nil
}

func (r *CartRepository) Clear(ctx context.Context, buyerEmail string) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.carts, buyerEmail)
	return nil
}

func cloneItem(item *domain.Item) *domain.Item {
	if item == nil {
		return nil
	}
	clone := *item
	return &clone
}
