package id

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// UUIDGenerator issues random v4 identifiers.
type UUIDGenerator struct{}

func NewUUIDGenerator() UUIDGenerator { return UUIDGenerator{} }

func (UUIDGenerator) NewID() string { return uuid.NewString() }

// OrderNumberGenerator issues human-readable order numbers: ORD-YYYYMMDD-XXXXXXXX.
type OrderNumberGenerator struct {
	now func() time.Time
}

func NewOrderNumberGenerator() OrderNumberGenerator {
	return OrderNumberGenerator{now: time.Now}
}

func (g OrderNumberGenerator) NewOrderNumber() string {
	now := time.Now
	if g.now != nil {
		now = g.now
	}
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("ORD-%s-%s", now().UTC().Format("20060102"), suffix)
}

// TrackingNumberGenerator issues carrier tracking numbers when the carrier does not supply one.
type TrackingNumberGenerator struct{}

func (TrackingNumberGenerator) NewTrackingNumber(carrier string) string {
	prefix := strings.ToUpper(strings.TrimSpace(carrier))
	if prefix == "" {
		prefix = "TRK"
	}
	return prefix + "-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
}
