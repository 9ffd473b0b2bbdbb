package catalog

import "context"

// DecrementOutcome is the per-line result of a conditional stock decrement.
type DecrementOutcome string

const (
	DecrementApplied           DecrementOutcome = "applied"
	DecrementInsufficientStock DecrementOutcome = "insufficient_stock"
	DecrementListingNotFound   DecrementOutcome = "not_found"
)

// Applied reports whether the decrement actually changed stock.
func (o DecrementOutcome) Applied() bool { return o == DecrementApplied }

// Filter narrows List results. Zero values match everything.
type Filter struct {
	SellerEmail string
	Category    string
}

type Repository interface {
	Insert(ctx context.Context, listing *Listing) error
	FindByID(ctx context.Context, id string) (*Listing, error)
	List(ctx context.Context, filter Filter) ([]*Listing, error)
	Delete(ctx context.Context, id string) error

	// DecrementStock atomically decrements Quantity by amount and increments
	// OrderCount by amount, only when Quantity >= amount. The operation is
	// idempotent per (dedupKey, id): a repeat invocation with the same pair
	// returns the first outcome without touching stock again. Only storage
	// failures surface as errors; insufficient stock and missing listings are
	// outcomes, not errors.
	DecrementStock(ctx context.Context, id string, amount int, dedupKey string) (DecrementOutcome, error)
}
