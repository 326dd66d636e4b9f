package id

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOrderNumberFormat(t *testing.T) {
	g := OrderNumberGenerator{now: func() time.Time { return time.Date(2026, 10, 15, 23, 0, 0, 0, time.UTC) }}
	n := g.NewOrderNumber()
	assert.Regexp(t, regexp.MustCompile(`^ORD-20261015-[0-9A-F]{8}$`), n)
	assert.NotEqual(t, n, g.NewOrderNumber())
}

func TestTrackingNumber(t *testing.T) {
	var g TrackingNumberGenerator
	assert.Regexp(t, `^CJ-[0-9A-F]{12}$`, g.NewTrackingNumber("cj"))
	assert.Regexp(t, `^TRK-`, g.NewTrackingNumber(""))
	assert.NotEmpty(t, NewUUIDGenerator().NewID())
}
