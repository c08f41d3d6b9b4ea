package records

import (
	"fmt"
	"time"

	"github.com/joshuafuller/beacon/internal/message"
)

// Throttle tracks per-record multicast timestamps to enforce RFC 6762 §6.2:
// "A Multicast DNS responder MUST NOT multicast a given resource record...
// until at least one second has elapsed since the last time that resource
// record was multicast", with a relaxed 250ms allowance for the rapid
// re-assertion this responder performs when a service is first registered.
type Throttle struct {
	lastMulticast map[string]int64
}

// NewThrottle returns an empty Throttle.
func NewThrottle() *Throttle {
	return &Throttle{lastMulticast: make(map[string]int64)}
}

// Allow reports whether rr may be multicast now given the standard 1-second
// floor.
func (t *Throttle) Allow(rr *message.ResourceRecord) bool {
	return t.allow(rr, time.Second)
}

// AllowBurst reports whether rr may be multicast now given the relaxed
// 250ms floor used for a record's own announcement burst.
func (t *Throttle) AllowBurst(rr *message.ResourceRecord) bool {
	return t.allow(rr, 250*time.Millisecond)
}

func (t *Throttle) allow(rr *message.ResourceRecord, floor time.Duration) bool {
	last, ok := t.lastMulticast[recordKey(rr)]
	if !ok {
		return true
	}
	return time.Duration(nowNano()-last) >= floor
}

// Record marks rr as having just been multicast.
func (t *Throttle) Record(rr *message.ResourceRecord) {
	t.lastMulticast[recordKey(rr)] = nowNano()
}

func nowNano() int64 { return time.Now().UnixNano() }

func recordKey(rr *message.ResourceRecord) string {
	return fmt.Sprintf("%d:%s", rr.Type, rr.Name)
}
