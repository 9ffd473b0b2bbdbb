package id

import "github.com/google/uuid"

// UUIDGenerator issues v4 UUIDs. Used for transaction ids among other things,
// so identifiers must stay collision-free under concurrent requests; never
// derive them from wall-clock time.
type UUIDGenerator struct{}

func NewUUIDGenerator() UUIDGenerator {
	return UUIDGenerator{}
}

func (UUIDGenerator) NewID() string {
	return uuid.NewString()
}
