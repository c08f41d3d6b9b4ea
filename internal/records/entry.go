// Package records implements the in-memory resource record store: a
// group-keyed index, construction helpers for the six supported record
// types, and multicast rate-limiting per RFC 6762 §6.2.
package records

import (
	"net"

	"github.com/joshuafuller/beacon/internal/message"
	"github.com/joshuafuller/beacon/internal/protocol"
)

// NewA builds an A record for hostname, cache-flush set, TTLHostBound.
func NewA(hostname message.Name, addr net.IP) (*message.ResourceRecord, error) {
	data, err := message.NewAData(addr)
	if err != nil {
		return nil, err
	}
	return &message.ResourceRecord{
		Name:       hostname,
		Type:       uint16(protocol.RecordTypeA),
		Class:      uint16(protocol.ClassIN),
		CacheFlush: true,
		TTL:        protocol.TTLHostBound,
		Data:       data,
	}, nil
}

// NewAAAA builds an AAAA record for hostname, cache-flush set, TTLHostBound.
func NewAAAA(hostname message.Name, addr net.IP) (*message.ResourceRecord, error) {
	data, err := message.NewAAAAData(addr)
	if err != nil {
		return nil, err
	}
	return &message.ResourceRecord{
		Name:       hostname,
		Type:       uint16(protocol.RecordTypeAAAA),
		Class:      uint16(protocol.ClassIN),
		CacheFlush: true,
		TTL:        protocol.TTLHostBound,
		Data:       data,
	}, nil
}

// NewSRV builds an SRV record pointing an instance name at a host and port,
// cache-flush set, TTLHostBound per RFC 6762 §10 (bound to host identity).
func NewSRV(instance message.Name, target message.Name, port uint16) *message.ResourceRecord {
	return &message.ResourceRecord{
		Name:       instance,
		Type:       uint16(protocol.RecordTypeSRV),
		Class:      uint16(protocol.ClassIN),
		CacheFlush: true,
		TTL:        protocol.TTLHostBound,
		Data:       message.SRVData{Priority: 0, Weight: 0, Port: port, Target: target},
	}
}

// NewPTR builds a PTR record at serviceType pointing at an existing record
// (normally the SRV record for a service instance). TTLGeneric, shared
// (no cache-flush) per RFC 6762 §10.2 — multiple responders may share a
// service type.
func NewPTR(serviceType message.Name, target *message.ResourceRecord) *message.ResourceRecord {
	return &message.ResourceRecord{
		Name:       serviceType,
		Type:       uint16(protocol.RecordTypePTR),
		Class:      uint16(protocol.ClassIN),
		CacheFlush: false,
		TTL:        protocol.TTLGeneric,
		Data:       message.NewPTRData(target),
	}
}

// NewTXT builds a TXT record at instance carrying strs verbatim, cache-flush
// set, TTLGeneric.
func NewTXT(instance message.Name, strs []string) *message.ResourceRecord {
	return &message.ResourceRecord{
		Name:       instance,
		Type:       uint16(protocol.RecordTypeTXT),
		Class:      uint16(protocol.ClassIN),
		CacheFlush: true,
		TTL:        protocol.TTLGeneric,
		Data:       message.TXTData{Strings: strs},
	}
}

// NewNSEC builds an NSEC record asserting that only types exist at name,
// cache-flush set, TTLHostBound (co-located with a host address record).
func NewNSEC(name message.Name, types ...uint16) *message.ResourceRecord {
	return &message.ResourceRecord{
		Name:       name,
		Type:       uint16(protocol.RecordTypeNSEC),
		Class:      uint16(protocol.ClassIN),
		CacheFlush: true,
		TTL:        protocol.TTLHostBound,
		Data:       message.NSECData{Next: name, Types: append([]uint16{}, types...)},
	}
}
