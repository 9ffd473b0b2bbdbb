package memory

import (
	"context"
	"sort"
	"sync"

	domain "github.com/asif4762/bookbarn-final-server/internal/domain/billing"
)

// BillingLedger is append-only; byTransaction is the uniqueness index that
// enforces at most one record per transaction id.
type BillingLedger struct {
	mu            sync.RWMutex
	records       map[string]*domain.Record
	byTransaction map[string]string
}

func NewBillingLedger() *BillingLedger {
	return &BillingLedger{
		records:       make(map[string]*domain.Record),
		byTransaction: make(map[string]string),
	}
}

func (l *BillingLedger) Append(ctx context.Context, record *domain.Record) error {
	_ = ctx
	if record == nil || record.ID == "" || record.TransactionID == "" {
		return domain.ErrMissingField
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.byTransaction[record.TransactionID]; exists {
		return domain.ErrDuplicateTransaction
	}
	l.records[record.ID] = cloneRecord(record)
	l.byTransaction[record.TransactionID] = record.ID
	return nil
}

func (l *BillingLedger) FindByTransaction(ctx context.Context, transactionID string) (*domain.Record, error) {
	_ = ctx

	l.mu.RLock()
	defer l.mu.RUnlock()

	id, ok := l.byTransaction[transactionID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	record, found := l.records[id]
	if !found {
		return nil, domain.ErrNotFound
	}
	return cloneRecord(record), nil
}

func (l *BillingLedger) ListByBuyer(ctx context.Context, buyerEmail string) ([]*domain.Record, error) {
	_ = ctx

	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]*domain.Record, 0)
	for _, record := range l.records {
		if record.BuyerEmail == buyerEmail {
			out = append(out, cloneRecord(record))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PurchasedAt.After(out[j].PurchasedAt) })
	return out, nil
}

func cloneRecord(record *domain.Record) *domain.Record {
	if record == nil {
		return nil
	}
	clone := *record
	clone.Lines = append([]domain.Line(nil), record.Lines...)
	return &clone
}
