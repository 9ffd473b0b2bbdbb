package billing

import "context"

// Ledger is append-only. Append enforces the TransactionID uniqueness
// constraint that makes gateway-callback replays harmless.
type Ledger interface {
	Append(ctx context.Context, record *Record) error
	FindByTransaction(ctx context.Context, transactionID string) (*Record, error)
	// ListByBuyer returns records ordered most-recent-first.
	ListByBuyer(ctx context.Context, buyerEmail string) ([]*Record, error)
}
