// Package util provides identifier and time helpers for stratplan.
package util

import (
	"encoding/binary"

	"github.com/google/uuid"
)

// IDGenerator hands out time-ordered UUIDv7 identifiers.
type IDGenerator struct{}

// NewIDGenerator creates a new ID generator.
func NewIDGenerator() *IDGenerator {
	return &IDGenerator{}
}

// NewID generates a new UUIDv7 identifier from this generator.
func (g *IDGenerator) NewID() string {
	return NewID()
}

// NewID generates a new UUIDv7 identifier. UUIDv7 values sort by creation
// time, which keeps calculation history ordered by primary key.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// Only fails when the random source does.
		return uuid.NewString()
	}
	return id.String()
}

// DeterministicID derives a stable UUID from a seed. Used for seed data so
// repeated seeding produces the same identifiers.
func DeterministicID(seed int64) string {
	var b [16]byte
	binary.BigEndian.PutUint64(b[0:8], uint64(seed))
	binary.BigEndian.PutUint64(b[8:16], uint64(seed*31))

	b[6] = (b[6] & 0x0F) | 0x40
	b[8] = (b[8] & 0x3F) | 0x80

	return uuid.UUID(b).String()
}
