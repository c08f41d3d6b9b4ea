// Package protocol defines mDNS/DNS-SD wire constants per RFC 6762/6763.
package protocol

import "net"

// mDNS transport constants per RFC 6762 §5.
const (
	// Port is the mDNS port number (5353).
	Port = 5353

	// MulticastAddrIPv4 is the mDNS IPv4 multicast group address (224.0.0.251).
	MulticastAddrIPv4 = "224.0.0.251"
)

// MulticastGroupIPv4 returns the mDNS IPv4 multicast group address.
func MulticastGroupIPv4() *net.UDPAddr {
	return &net.UDPAddr{
		IP:   net.ParseIP(MulticastAddrIPv4), // nosemgrep: beacon-hardcoded-multicast-address
		Port: Port,
	}
}

// RecordType identifies a DNS resource record type per RFC 1035 §3.2.2.
type RecordType uint16

// Record types carried on the wire per the six supported by this responder.
const (
	RecordTypeA     RecordType = 1  // RFC 1035 §3.4.1
	RecordTypePTR   RecordType = 12 // RFC 1035 §3.3.12
	RecordTypeTXT   RecordType = 16 // RFC 1035 §3.3.14
	RecordTypeAAAA  RecordType = 28 // RFC 3596 §2.1
	RecordTypeSRV   RecordType = 33 // RFC 2782
	RecordTypeNSEC  RecordType = 47 // RFC 4034 §4.1
	RecordTypeANY   RecordType = 255
)

// String returns the human-readable name of rt.
func (rt RecordType) String() string {
	switch rt {
	case RecordTypeA:
		return "A"
	case RecordTypePTR:
		return "PTR"
	case RecordTypeTXT:
		return "TXT"
	case RecordTypeAAAA:
		return "AAAA"
	case RecordTypeSRV:
		return "SRV"
	case RecordTypeNSEC:
		return "NSEC"
	case RecordTypeANY:
		return "ANY"
	default:
		return "UNKNOWN"
	}
}

// IsStoredType reports whether rt is one of the six types the record store holds.
// RR_ANY is a query wildcard, never a stored type.
func (rt RecordType) IsStoredType() bool {
	switch rt {
	case RecordTypeA, RecordTypeAAAA, RecordTypePTR, RecordTypeSRV, RecordTypeTXT, RecordTypeNSEC:
		return true
	default:
		return false
	}
}

// DNSClass represents a DNS class per RFC 1035 §3.2.4.
type DNSClass uint16

// ClassIN is the Internet class, the only class this responder speaks.
const ClassIN DNSClass = 1

// ClassCacheFlushBit is the high bit of a resource record's class field,
// marking the record as the complete, authoritative set at that name/type
// per RFC 6762 §10.2.
const ClassCacheFlushBit uint16 = 1 << 15

// ClassUnicastBit is the high bit of a question's class field, marking the
// question as requesting a unicast rather than multicast reply, per RFC
// 6762 §5.4.
const ClassUnicastBit uint16 = 1 << 15

// Header flag bits per RFC 1035 §4.1.1.
const (
	FlagQR uint16 = 1 << 15 // Query/Response
	FlagAA uint16 = 1 << 10 // Authoritative Answer
	FlagTC uint16 = 1 << 9  // Truncated
	FlagRD uint16 = 1 << 8  // Recursion Desired
)

// OpcodeQuery is the standard-query OPCODE (0); RFC 6762 §18.3 requires it
// on every mDNS message.
const OpcodeQuery uint16 = 0

// RCodeNoError is the no-error RCODE (0); RFC 6762 §18.11 says messages with
// a non-zero RCODE must be ignored.
const RCodeNoError uint16 = 0

// DNS name constraints per RFC 1035 §3.1.
const (
	// MaxLabelLength is the maximum length of a single label (63 bytes).
	MaxLabelLength = 63

	// MaxNameLength is the maximum wire-encoded length of a name (255 bytes).
	MaxNameLength = 255

	// MaxCompressionPointers bounds the number of label reads performed while
	// decoding a single name, guarding against circular compression pointers.
	MaxCompressionPointers = 128
)

// CompressionMask identifies a compression pointer octet: the top two bits
// of a length byte being set (0xC0) per RFC 1035 §4.1.4.
const CompressionMask byte = 0xC0

// TTL values per RFC 6762 §10. Records whose name or rdata is bound to a
// specific host (A, AAAA, SRV, and the NSEC record co-located with a host
// address) use the shorter TTL since they track host identity; all other
// records (PTR, TXT) use the longer one.
const (
	// TTLHostBound is the TTL for records tied to host identity (120s).
	TTLHostBound uint32 = 120

	// TTLGeneric is the TTL for records not tied to host identity (4500s).
	TTLGeneric uint32 = 4500
)
