package checkout

import (
	"errors"
	"time"
)

var (
	ErrValidation             = errors.New("checkout: validation failed")
	ErrGateway                = errors.New("checkout: payment gateway failure")
	ErrEmptyCart              = errors.New("checkout: nothing to fulfill")
	ErrInvalidStateTransition = errors.New("checkout: invalid state transition")
)

type Status string

const (
	StatusStarted        Status = "started"
	StatusSessionCreated Status = "session_created"
	StatusConfirmed      Status = "confirmed"
	StatusReconciled     Status = "reconciled"
	StatusFailed         Status = "failed"
)

// transitions holds the legal forward edges of the fulfillment lifecycle.
// Failed is absorbing and reachable from every non-terminal state.
var transitions = map[Status][]Status{
	StatusStarted:        {StatusSessionCreated, StatusFailed},
	StatusSessionCreated: {StatusConfirmed, StatusFailed},
	StatusConfirmed:      {StatusReconciled, StatusFailed},
}

func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s Status) Terminal() bool {
	return s == StatusReconciled || s == StatusFailed
}

// Checkout is the in-process view of one fulfillment attempt. It is not
// persisted: until the ledger record exists the transaction id is the only
// artifact, and the ledger itself marks Reconciled.
type Checkout struct {
	TransactionID string
	BuyerEmail    string
	TotalAmount   int64
	Status        Status
	FailureReason string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// New starts a fresh checkout on the initiate path.
func New(transactionID, buyerEmail string, totalAmount int64) *Checkout {
	now := time.Now().UTC()
	return &Checkout{
		TransactionID: transactionID,
		BuyerEmail:    buyerEmail,
		TotalAmount:   totalAmount,
		Status:        StatusStarted,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// FromCallback resumes a checkout from a gateway confirmation callback. The
// gateway redirect already happened, so the attempt rejoins as Confirmed.
func FromCallback(transactionID, buyerEmail string) *Checkout {
	now := time.Now().UTC()
	return &Checkout{
		TransactionID: transactionID,
		BuyerEmail:    buyerEmail,
		Status:        StatusConfirmed,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func (c *Checkout) SessionCreated() error { return c.transition(StatusSessionCreated) }
func (c *Checkout) Confirmed() error      { return c.transition(StatusConfirmed) }
func (c *Checkout) Reconciled() error     { return c.transition(StatusReconciled) }

func (c *Checkout) Fail(reason string) error {
	if c.Status.Terminal() {
		return ErrInvalidStateTransition
	}
	c.Status = StatusFailed
	c.FailureReason = reason
	c.touch()
	return nil
}

func (c *Checkout) transition(next Status) error {
	if !c.Status.CanTransitionTo(next) {
		return ErrInvalidStateTransition
	}
	c.Status = next
	c.touch()
	return nil
}

func (c *Checkout) touch() {
	c.UpdatedAt = time.Now().UTC()
}
