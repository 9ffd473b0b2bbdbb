package checkout

// IDGenerator issues unique identifiers for transactions and ledger records.
// Implementations must be collision-free under concurrent calls.
type IDGenerator interface {
	NewID() string
}
