package checkout

import "context"

// SessionRequest is the input to hosted-session creation. TotalAmount is in
// minor currency units.
type SessionRequest struct {
	TransactionID string
	BuyerEmail    string
	TotalAmount   int64
}

// GatewaySession is ephemeral: the gateway retains it, we only keep the
// transaction id (implicitly, through the billing ledger).
type GatewaySession struct {
	TransactionID string
	BuyerEmail    string
	TotalAmount   int64
	RedirectURL   string
}

// Gateway wraps the external payment processor's session creation. It is a
// pure boundary: one outbound call, no internal retries beyond its own
// timeout budget, every failure mode folded into ErrGateway.
type Gateway interface {
	CreateSession(ctx context.Context, req SessionRequest) (*GatewaySession, error)
}
