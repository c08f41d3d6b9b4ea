package records

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/joshuafuller/beacon/internal/message"
)

func TestThrottle_Allow_DeniesWithinOneSecondOfLastMulticast(t *testing.T) {
	rr := NewPTR(message.MustName("_http._tcp.local"),
		NewSRV(message.MustName("Web._http._tcp.local"), message.MustName("host.local"), 80))

	th := NewThrottle()
	assert.True(t, th.Allow(rr), "Allow() before any multicast")
	th.Record(rr)
	assert.False(t, th.Allow(rr), "RFC 6762 §6.2 one-second floor should deny immediately after Record()")
}

func TestThrottle_AllowBurst_PermitsAfterTwoHundredFiftyMillis(t *testing.T) {
	rr := NewPTR(message.MustName("_http._tcp.local"),
		NewSRV(message.MustName("Web._http._tcp.local"), message.MustName("host.local"), 80))

	th := NewThrottle()
	th.Record(rr)
	assert.False(t, th.AllowBurst(rr), "relaxed 250ms floor should still deny immediately after Record()")
	assert.False(t, th.Allow(rr), "standard 1-second floor should deny immediately after Record()")

	time.Sleep(260 * time.Millisecond)
	assert.True(t, th.AllowBurst(rr), "relaxed 250ms floor should allow once it has elapsed")
	assert.False(t, th.Allow(rr), "standard 1-second floor should still deny at 260ms")
}

func TestThrottle_Allow_IndependentPerRecord(t *testing.T) {
	srv := NewSRV(message.MustName("Web._http._tcp.local"), message.MustName("host.local"), 80)
	ptrA := NewPTR(message.MustName("_http._tcp.local"), srv)
	ptrB := NewPTR(message.MustName("_ipp._tcp.local"), srv)

	th := NewThrottle()
	th.Record(ptrA)

	assert.True(t, th.Allow(ptrB), "throttle keys by type+name, not target; ptrB is unaffected by recording ptrA")
}
