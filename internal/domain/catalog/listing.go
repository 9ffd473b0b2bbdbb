package catalog

import (
	"errors"
	"time"
)

var (
	ErrNotFound        = errors.New("catalog: listing not found")
	ErrConflict        = errors.New("catalog: listing already exists")
	ErrInvalidPrice    = errors.New("catalog: price must be greater than zero")
	ErrInvalidQuantity = errors.New("catalog: quantity must be zero or greater")
	ErrMissingField    = errors.New("catalog: required field missing")
)

// Listing is a used-textbook offer placed by a seller. Price is in minor
// currency units. Quantity never goes below zero; OrderCount only grows.
type Listing struct {
	ID          string
	Title       string
	Author      string
	Course      string
	Condition   string
	Category    string
	Description string
	Location    string
	Image       string
	SellerEmail string
	Price       int64
	Quantity    int
	OrderCount  int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func New(id, title, author, sellerEmail string, price int64, quantity int) (*Listing, error) {
	if id == "" || title == "" || author == "" || sellerEmail == "" {
		return nil, ErrMissingField
	}
	if price <= 0 {
		return nil, ErrInvalidPrice
	}
	if quantity < 0 {
		return nil, ErrInvalidQuantity
	}

	now := time.Now().UTC()
	return &Listing{
		ID:          id,
		Title:       title,
		Author:      author,
		SellerEmail: sellerEmail,
		Price:       price,
		Quantity:    quantity,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func (l *Listing) Touch() {
	l.UpdatedAt = time.Now().UTC()
}
