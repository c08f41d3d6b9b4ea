package message

import (
	"net"
	"sort"

	"github.com/joshuafuller/beacon/internal/errors"
	"github.com/joshuafuller/beacon/internal/protocol"
)

// RecordData is the type-specific payload of a resource record. Each
// implementation knows how to write itself into a packet (participating in
// the shared name-compression table for any embedded names) and how to
// compare itself against another payload of the same type.
type RecordData interface {
	// Type returns the RR type this payload encodes.
	Type() uint16
	// encode appends the wire rdata bytes (not including RDLENGTH) to w.
	encode(w *Writer) error
	// Equal reports byte-for-byte payload equality against another
	// RecordData of the same concrete type.
	Equal(other RecordData) bool
}

// AData is the payload of an A record: an IPv4 address.
type AData struct {
	Addr [4]byte
}

// NewAData builds an AData from a net.IP, which must carry a 4-byte form.
func NewAData(ip net.IP) (AData, error) {
	v4 := ip.To4()
	if v4 == nil {
		return AData{}, &errors.ValidationError{Field: "addr", Value: ip.String(), Message: "not an IPv4 address"}
	}
	var d AData
	copy(d.Addr[:], v4)
	return d, nil
}

func (AData) Type() uint16 { return uint16(protocol.RecordTypeA) }

func (d AData) encode(w *Writer) error {
	w.WriteBytes(d.Addr[:])
	return nil
}

func (d AData) Equal(other RecordData) bool {
	o, ok := other.(AData)
	return ok && d.Addr == o.Addr
}

// IP returns the address as a net.IP.
func (d AData) IP() net.IP { return net.IP(d.Addr[:]) }

// AAAAData is the payload of an AAAA record: an IPv6 address.
type AAAAData struct {
	Addr [16]byte
}

// NewAAAAData builds an AAAAData from a net.IP, which must carry a 16-byte form.
func NewAAAAData(ip net.IP) (AAAAData, error) {
	v6 := ip.To16()
	if v6 == nil || ip.To4() != nil {
		return AAAAData{}, &errors.ValidationError{Field: "addr", Value: ip.String(), Message: "not an IPv6 address"}
	}
	var d AAAAData
	copy(d.Addr[:], v6)
	return d, nil
}

func (AAAAData) Type() uint16 { return uint16(protocol.RecordTypeAAAA) }

func (d AAAAData) encode(w *Writer) error {
	w.WriteBytes(d.Addr[:])
	return nil
}

func (d AAAAData) Equal(other RecordData) bool {
	o, ok := other.(AAAAData)
	return ok && d.Addr == o.Addr
}

// IP returns the address as a net.IP.
func (d AAAAData) IP() net.IP { return net.IP(d.Addr[:]) }

// PTRData is the payload of a PTR record: a reference to another record.
//
// Target is the non-owning, identity-comparable reference into the store
// used by Store.RemoveReferrer's "find the PTR referencing this record"
// scan. It is nil for PTR payloads decoded off the wire, which carry only
// TargetName — Equal only ever needs name equality, never identity.
type PTRData struct {
	Target     *ResourceRecord
	TargetName Name
}

// NewPTRData builds a PTRData holding a non-owning reference to target.
func NewPTRData(target *ResourceRecord) PTRData {
	return PTRData{Target: target, TargetName: target.Name}
}

func (PTRData) Type() uint16 { return uint16(protocol.RecordTypePTR) }

func (d PTRData) encode(w *Writer) error {
	return w.WriteName(d.TargetName)
}

func (d PTRData) Equal(other RecordData) bool {
	o, ok := other.(PTRData)
	return ok && d.TargetName.Equal(o.TargetName)
}

// SRVData is the payload of an SRV record per RFC 2782.
type SRVData struct {
	Priority uint16
	Weight   uint16
	Port     uint16
	Target   Name
}

func (SRVData) Type() uint16 { return uint16(protocol.RecordTypeSRV) }

func (d SRVData) encode(w *Writer) error {
	w.WriteUint16(d.Priority)
	w.WriteUint16(d.Weight)
	w.WriteUint16(d.Port)
	return w.WriteName(d.Target)
}

func (d SRVData) Equal(other RecordData) bool {
	o, ok := other.(SRVData)
	return ok && d.Priority == o.Priority && d.Weight == o.Weight &&
		d.Port == o.Port && d.Target.Equal(o.Target)
}

// TXTData is the payload of a TXT record: an ordered list of key[=value]
// strings, each ≤255 bytes, per RFC 6763 §6.
type TXTData struct {
	Strings []string
}

func (TXTData) Type() uint16 { return uint16(protocol.RecordTypeTXT) }

func (d TXTData) encode(w *Writer) error {
	if len(d.Strings) == 0 {
		// RFC 6763 §6.1: a service with no TXT data still carries one
		// empty string (a single zero length byte).
		w.WriteByte(0)
		return nil
	}
	for _, s := range d.Strings {
		if len(s) > protocol.MaxLabelLength*4 && len(s) > 255 {
			return &errors.CodecError{Kind: errors.KindMalformed, Operation: "encode TXT", Offset: w.Offset(), Message: "TXT string exceeds 255 bytes"}
		}
		w.WriteByte(byte(len(s)))
		w.WriteBytes([]byte(s))
	}
	return nil
}

// Equal is order-sensitive per spec.md's explicit resolution of the TXT
// equality open question: differently-ordered but set-equal string lists
// are NOT equal.
func (d TXTData) Equal(other RecordData) bool {
	o, ok := other.(TXTData)
	if !ok || len(d.Strings) != len(o.Strings) {
		return false
	}
	for i := range d.Strings {
		if d.Strings[i] != o.Strings[i] {
			return false
		}
	}
	return true
}

// NSECData is the payload of an NSEC record per RFC 4034 §4.1, used here
// only to advertise which address-family records exist at a host name.
type NSECData struct {
	Next  Name
	Types []uint16
}

func (NSECData) Type() uint16 { return uint16(protocol.RecordTypeNSEC) }

// HasType reports whether t is present in the bitmap.
func (d NSECData) HasType(t uint16) bool {
	for _, existing := range d.Types {
		if existing == t {
			return true
		}
	}
	return false
}

// WithType returns a copy of d with t added to the type bitmap (idempotent).
func (d NSECData) WithType(t uint16) NSECData {
	if d.HasType(t) {
		return d
	}
	types := append(append([]uint16{}, d.Types...), t)
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return NSECData{Next: d.Next, Types: types}
}

func (d NSECData) encode(w *Writer) error {
	if err := w.WriteName(d.Next); err != nil {
		return err
	}

	// RFC 4034 §4.1.2: windowed bitmap, one window per 256-type block.
	// Every type this responder emits is <256, so there is at most one
	// window (window block 0).
	byWindow := map[byte][]byte{}
	for _, t := range d.Types {
		window := byte(t / 256)
		bit := int(t % 256)
		buf := byWindow[window]
		need := bit/8 + 1
		for len(buf) < need {
			buf = append(buf, 0)
		}
		buf[bit/8] |= 0x80 >> uint(bit%8)
		byWindow[window] = buf
	}

	windows := make([]byte, 0, len(byWindow))
	for window := range byWindow {
		windows = append(windows, window)
	}
	sort.Slice(windows, func(i, j int) bool { return windows[i] < windows[j] })

	for _, window := range windows {
		bitmap := byWindow[window]
		w.WriteByte(window)
		w.WriteByte(byte(len(bitmap)))
		w.WriteBytes(bitmap)
	}
	return nil
}

func (d NSECData) Equal(other RecordData) bool {
	o, ok := other.(NSECData)
	if !ok || !d.Next.Equal(o.Next) || len(d.Types) != len(o.Types) {
		return false
	}
	for i := range d.Types {
		if d.Types[i] != o.Types[i] {
			return false
		}
	}
	return true
}

// RawData is the payload of a record whose type this responder does not
// recognize. It is produced only by the parser, never by the store, and
// always compares unequal (an unknown incoming record can never satisfy
// known-answer suppression against one of our own answers).
type RawData struct {
	TypeVal uint16
	Bytes   []byte
}

func (d RawData) Type() uint16 { return d.TypeVal }

func (d RawData) encode(w *Writer) error {
	w.WriteBytes(d.Bytes)
	return nil
}

func (RawData) Equal(RecordData) bool { return false }
