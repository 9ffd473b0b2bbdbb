package review

import (
	"context"
	"errors"
	"time"
)

var (
	ErrDuplicate     = errors.New("review: book already reviewed by this buyer")
	ErrInvalidRating = errors.New("review: rating must be between 1 and 5")
	ErrMissingField  = errors.New("review: required field missing")
)

type Review struct {
	ID         string
	BookID     string
	BuyerEmail string
	Name       string
	Title      string
	Message    string
	Rating     int
	CreatedAt  time.Time
}

func New(id, bookID, buyerEmail, name, title, message string, rating int) (*Review, error) {
	if id == "" || bookID == "" || buyerEmail == "" || name == "" || title == "" || message == "" {
		return nil, ErrMissingField
	}
	if rating < 1 || rating > 5 {
		return nil, ErrInvalidRating
	}
	return &Review{
		ID:         id,
		BookID:     bookID,
		BuyerEmail: buyerEmail,
		Name:       name,
		Title:      title,
		Message:    message,
		Rating:     rating,
		CreatedAt:  time.Now().UTC(),
	}, nil
}

type Repository interface {
	// Insert fails with ErrDuplicate when (BookID, BuyerEmail) already exists.
	Insert(ctx context.Context, r *Review) error
	List(ctx context.Context) ([]*Review, error)
}
