package billing

import (
	"errors"
	"time"
)

var (
	ErrNotFound             = errors.New("billing: record not found")
	ErrDuplicateTransaction = errors.New("billing: transaction already recorded")
	ErrMissingField         = errors.New("billing: id, buyer email and transaction id are required")
)

// Line snapshots one cart item at the moment of fulfillment. Fulfilled is
// false when the conditional stock decrement was skipped; Reason then carries
// the decrement outcome so a downstream refund flow can act on it.
type Line struct {
	BookID    string
	Title     string
	Author    string
	Image     string
	Price     int64
	Count     int
	Fulfilled bool
	Reason    string
}

// Record is an immutable ledger entry. TransactionID is unique for all time
// and is the idempotency anchor of the whole checkout flow.
type Record struct {
	ID            string
	BuyerEmail    string
	TransactionID string
	Lines         []Line
	PurchasedAt   time.Time
}

func NewRecord(id, buyerEmail, transactionID string, lines []Line) (*Record, error) {
	if id == "" || buyerEmail == "" || transactionID == "" {
		return nil, ErrMissingField
	}
	return &Record{
		ID:            id,
		BuyerEmail:    buyerEmail,
		TransactionID: transactionID,
		Lines:         append([]Line(nil), lines...),
		PurchasedAt:   time.Now().UTC(),
	}, nil
}

// Total is the sum over every line, fulfilled or not, matching the amount the
// gateway session was created with.
func (r *Record) Total() int64 {
	var total int64
	for _, l := range r.Lines {
		total += l.Price * int64(l.Count)
	}
	return total
}
