// Package message implements the DNS wire format: domain names, typed
// resource record data, and full packet parsing/encoding, per RFC 1035 and
// the mDNS/DNS-SD extensions in RFC 6762/6763.
package message

import "github.com/joshuafuller/beacon/internal/protocol"

// Header is the 12-byte DNS message header per RFC 1035 §4.1.1.
type Header struct {
	ID      uint16
	Flags   uint16
	QDCount uint16
	ANCount uint16
	NSCount uint16
	ARCount uint16
}

// IsQuery reports whether the QR bit indicates a query (0).
func (h Header) IsQuery() bool { return h.Flags&protocol.FlagQR == 0 }

// IsStandardQuery reports whether this is a standard query per RFC 6762 §18.2/§18.3.
func (h Header) IsStandardQuery() bool { return protocol.IsStandardQuery(h.Flags) }

// Question is a DNS question-section entry per RFC 1035 §4.1.2.
type Question struct {
	Name  Name
	Type  uint16
	Class uint16
	// UnicastQuery is the top bit of the class field (RFC 6762 §5.4):
	// the querier is asking for a direct unicast reply rather than a
	// multicast one.
	UnicastQuery bool
}

// ResourceRecord is a single DNS resource record — an answer, authority, or
// additional-section entry per RFC 1035 §4.1.3 — generalized here to also
// serve as the record store's persisted entry type.
type ResourceRecord struct {
	Name Name
	Type uint16
	// Class is always ClassIN in this responder; CacheFlush is carried
	// out-of-band so Class never needs masking at rest.
	Class uint16
	// CacheFlush sets the high bit of the class field on outgoing answers
	// per RFC 6762 §10.2.
	CacheFlush bool
	TTL        uint32
	Data       RecordData
}

// Equal implements entry_eq: names match case-insensitively, types match,
// classes match ignoring the cache-flush bit, and payloads are equal per
// the RecordData's own Equal.
func (rr *ResourceRecord) Equal(other *ResourceRecord) bool {
	if rr == nil || other == nil {
		return rr == other
	}
	if rr.Type != other.Type {
		return false
	}
	if !rr.Name.Equal(other.Name) {
		return false
	}
	if (rr.Class &^ protocol.ClassCacheFlushBit) != (other.Class &^ protocol.ClassCacheFlushBit) {
		return false
	}
	if rr.Data == nil || other.Data == nil {
		return rr.Data == other.Data
	}
	return rr.Data.Equal(other.Data)
}

// Message is a complete DNS packet per RFC 1035 §4.1: header plus the four
// sections.
type Message struct {
	Header      Header
	Questions   []Question
	Answers     []*ResourceRecord
	Authorities []*ResourceRecord
	Additionals []*ResourceRecord
}
