package cart

import (
	"errors"
	"time"
)

var (
	ErrNotFound     = errors.New("cart: item not found")
	ErrInvalidCount = errors.New("cart: count must be at least one")
	ErrMissingField = errors.New("cart: buyer email and book id are required")
)

// Item is one line of a buyer's cart, unique per (BuyerEmail, BookID). It
// caches a snapshot of the listing so the cart can render without a catalog
// lookup; the snapshot is never trusted for pricing at checkout.
type Item struct {
	BuyerEmail string
	BookID     string
	Title      string
	Author     string
	Image      string
	Price      int64
	Count      int
	AddedAt    time.Time
}

func NewItem(buyerEmail, bookID string, count int) (*Item, error) {
	if buyerEmail == "" || bookID == "" {
		return nil, ErrMissingField
	}
	if count < 1 {
		return nil, ErrInvalidCount
	}
	return &Item{
		BuyerEmail: buyerEmail,
		BookID:     bookID,
		Count:      count,
		AddedAt:    time.Now().UTC(),
	}, nil
}

func (i *Item) SetCount(count int) error {
	if count < 1 {
		return ErrInvalidCount
	}
	i.Count = count
	return nil
}
