package api_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"

	"github.com/warp/leave-engine/api"
)

func TestIPRateLimiter_EvictsIdleClients(t *testing.T) {
	// GIVEN: A limiter with a one minute idle TTL and two clients at t0
	// WHEN: Only the first client comes back before a lookup at t0+75s
	// THEN: The idle client is evicted; the active one keeps its bucket

	now := time.Date(2025, time.June, 2, 9, 0, 0, 0, time.UTC)
	l := api.NewIPRateLimiter(rate.Limit(1), 1)
	l.Now = func() time.Time { return now }
	l.IdleTTL = time.Minute

	first := l.Limiter("10.0.0.1")
	second := l.Limiter("10.0.0.2")
	assert.Equal(t, 2, l.Len())
	assert.Same(t, first, l.Limiter("10.0.0.1"))

	now = now.Add(30 * time.Second)
	l.Limiter("10.0.0.1")

	now = now.Add(45 * time.Second)
	l.Limiter("10.0.0.3")
	assert.Equal(t, 2, l.Len())
	assert.Same(t, first, l.Limiter("10.0.0.1"))
	assert.NotSame(t, second, l.Limiter("10.0.0.2"))
}
