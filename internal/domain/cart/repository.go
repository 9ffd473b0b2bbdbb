package cart

import "context"

type Repository interface {
	ListByBuyer(ctx context.Context, buyerEmail string) ([]*Item, error)
	// Upsert inserts the item, or replaces the count of an existing
	// (BuyerEmail, BookID) line with the incoming one.
	Upsert(ctx context.Context, item *Item) error
	UpdateCount(ctx context.Context, buyerEmail, bookID string, count int) error
	Remove(ctx context.Context, buyerEmail, bookID string) error
	// Clear removes every item the buyer holds. Clearing an empty cart is a
	// no-op, not an error.
	Clear(ctx context.Context, buyerEmail string) error
}
