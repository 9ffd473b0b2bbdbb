package memory

import (
	"context"
	"sort"
	"sync"

	domain "github.com/asif4762/bookbarn-final-server/internal/domain/catalog"
)

// CatalogRepository keeps listings in process memory. DecrementStock holds
// one lock across check and write, which is what makes it the single atomic
// conditional operation the checkout flow depends on.
type CatalogRepository struct {
	mu       sync.RWMutex
	listings map[string]*domain.Listing
	// applied records the outcome of every decrement keyed by
	// dedupKey + "/" + listingID, so retried confirmations replay the first
	// outcome instead of touching stock twice.
	applied map[string]domain.DecrementOutcome
}

func NewCatalogRepository() *CatalogRepository {
	return &CatalogRepository{
		listings: make(map[string]*domain.Listing),
		applied:  make(map[string]domain.DecrementOutcome),
	}
}

func (r *CatalogRepository) Insert(ctx context.Context, listing *domain.Listing) error {
	_ = ctx
	if listing == nil || listing.ID == "" {
		return domain.ErrMissingField
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.listings[listing.ID]; exists {
		return domain.ErrConflict
	}
	r.listings[listing.ID] = cloneListing(listing)
	return nil
}

func (r *CatalogRepository) FindByID(ctx context.Context, id string) (*domain.Listing, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	listing, ok := r.listings[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneListing(listing), nil
}

func (r *CatalogRepository) List(ctx context.Context, filter domain.Filter) ([]*domain.Listing, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Listing, 0, len(r.listings))
	for _, l := range r.listings {
		if filter.SellerEmail != "" && l.SellerEmail != filter.SellerEmail {
			continue
		}
		if filter.Category != "" && l.Category != filter.Category {
			continue
		}
		out = append(out, cloneListing(l))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *CatalogRepository) Delete(ctx context.Context, id string) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.listings[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.listings, id)
	return nil
}

func (r *CatalogRepository) DecrementStock(ctx context.Context, id string, amount int, dedupKey string) (domain.DecrementOutcome, error) {
	_ = ctx
	if amount <= 0 {
		return domain.DecrementInsufficientStock, domain.ErrInvalidQuantity
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := dedupKey + "/" + id
	if outcome, seen := r.applied[key]; seen {
		return outcome, nil
	}

	listing, ok := r.listings[id]
	outcome := domain.DecrementListingNotFound
	switch {
	case !ok:
		// recorded below so a late-added listing cannot change a replay
	case listing.Quantity < amount:
		outcome = domain.DecrementInsufficientStock
	default:
		listing.Quantity -= amount
		listing.OrderCount += amount
		listing.Touch()
		outcome = domain.DecrementApplied
	}

	r.applied[key] = outcome
	return outcome, nil
}

func cloneListing(l *domain.Listing) *domain.Listing {
	if l == nil {
		return nil
	}
	clone := *l
	return &clone
}
