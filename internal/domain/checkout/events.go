package checkout

import "time"

// SessionCreatedEvent is emitted when a hosted-payment session is obtained
// and the buyer is about to be redirected.
type SessionCreatedEvent struct {
	TransactionID string
	BuyerEmail    string
	TotalAmount   int64
	OccurredAt    time.Time
}

func (SessionCreatedEvent) EventName() string { return "checkout.session_created" }

func NewSessionCreatedEvent(c *Checkout) SessionCreatedEvent {
	return SessionCreatedEvent{
		TransactionID: c.TransactionID,
		BuyerEmail:    c.BuyerEmail,
		TotalAmount:   c.TotalAmount,
		OccurredAt:    time.Now().UTC(),
	}
}

// CompletedLine reports one reconciled cart line inside a completed checkout.
type CompletedLine struct {
	BookID    string
	Count     int
	Fulfilled bool
}

// CompletedEvent is emitted after the ledger record is written and the cart
// cleared. Other contexts (stock watcher, notifications) react to it.
type CompletedEvent struct {
	TransactionID string
	BuyerEmail    string
	TotalAmount   int64
	Lines         []CompletedLine
	OccurredAt    time.Time
}

func (CompletedEvent) EventName() string { return "checkout.completed" }

func NewCompletedEvent(transactionID, buyerEmail string, totalAmount int64, lines []CompletedLine) CompletedEvent {
	return CompletedEvent{
		TransactionID: transactionID,
		BuyerEmail:    buyerEmail,
		TotalAmount:   totalAmount,
		Lines:         lines,
		OccurredAt:    time.Now().UTC(),
	}
}
