// Package message implements the DNS wire format: domain names, typed
// resource record data, and full packet parsing/encoding, per RFC 1035 and
// the mDNS/DNS-SD extensions in RFC 6762/6763.
package message

import (
	"strings"

	"github.com/joshuafuller/beacon/internal/errors"
	"github.com/joshuafuller/beacon/internal/protocol"
)

// Name is a domain name in its at-rest wire form: a contiguous sequence of
// length-prefixed labels (1..63 bytes each) terminated by a zero-length
// label. Compression pointers never appear in a Name at rest — they exist
// only transiently while a packet is being read or written.
type Name []byte

// NewName builds a Name from its dotted string representation
// ("printer._ipp._tcp.local"), validating each label per RFC 1035 §3.1.
func NewName(dotted string) (Name, error) {
	if err := protocol.ValidateName(dotted); err != nil {
		return nil, err
	}
	return buildName(dotted)
}

// NewNameLoose builds a Name the same way as NewName but validates only
// label and total length, not label characters. Use it for names built
// from a user-supplied DNS-SD instance name, which RFC 6763 §4.1 allows
// to be arbitrary UTF-8.
func NewNameLoose(dotted string) (Name, error) {
	if err := protocol.ValidateNameLength(dotted); err != nil {
		return nil, err
	}
	return buildName(dotted)
}

func buildName(dotted string) (Name, error) {
	trimmed := strings.TrimSuffix(dotted, ".")
	if trimmed == "" {
		return Name{0}, nil
	}

	labels := strings.Split(trimmed, ".")
	out := make([]byte, 0, len(trimmed)+len(labels)+1)
	for _, label := range labels {
		out = append(out, byte(len(label)))
		out = append(out, label...)
	}
	out = append(out, 0)
	return Name(out), nil
}

// MustName is NewName for names known valid at compile time (tests, fixed
// protocol names like the meta-PTR).
func MustName(dotted string) Name {
	n, err := NewName(dotted)
	if err != nil {
		panic(err)
	}
	return n
}

// String renders the Name back to dotted form.
func (n Name) String() string {
	labels := n.Labels()
	if len(labels) == 0 {
		return "."
	}
	parts := make([]string, len(labels))
	for i, l := range labels {
		parts[i] = string(l)
	}
	return strings.Join(parts, ".")
}

// Labels splits the wire form into its individual label byte slices,
// excluding the zero-length terminator.
func (n Name) Labels() [][]byte {
	var labels [][]byte
	pos := 0
	for pos < len(n) {
		length := int(n[pos])
		if length == 0 {
			break
		}
		labels = append(labels, n[pos+1:pos+1+length])
		pos += 1 + length
	}
	return labels
}

// Equal reports case-insensitive, byte-for-byte equality of two Names:
// label boundaries and lengths must match exactly, and label contents
// compare ASCII case-insensitively.
func (n Name) Equal(other Name) bool {
	if len(n) != len(other) {
		return false
	}
	for i := range n {
		if asciiLower(n[i]) != asciiLower(other[i]) {
			return false
		}
	}
	return true
}

func asciiLower(b byte) byte {
	if b >= 'A' && b <= 'Z' {
		return b + ('a' - 'A')
	}
	return b
}

// canonicalKey returns a case-folded copy of a Name suffix, used as the
// compression offset-table key so that suffixes differing only in case
// still compress against each other.
func canonicalKey(suffix []byte) string {
	buf := make([]byte, len(suffix))
	for i, b := range suffix {
		buf[i] = asciiLower(b)
	}
	return string(buf)
}

// DecodeName reads a Name starting at offset within msg, following
// compression pointers per RFC 1035 §4.1.4, and returns the decompressed
// Name plus the offset immediately following the name's encoding in msg
// (i.e. just past the terminator or, if compression was used, just past
// the first pointer encountered).
func DecodeName(msg []byte, offset int) (Name, int, error) {
	if offset < 0 || offset >= len(msg) {
		return nil, offset, &errors.CodecError{
			Kind:      errors.KindTruncated,
			Operation: "decode name",
			Offset:    offset,
			Message:   "offset out of bounds",
		}
	}

	out := make([]byte, 0, 64)
	pos := offset
	endOffset := -1
	labelReads := 0

	for {
		if pos >= len(msg) {
			return nil, offset, &errors.CodecError{
				Kind:      errors.KindTruncated,
				Operation: "decode name",
				Offset:    pos,
				Message:   "unexpected end of message while parsing name",
			}
		}

		length := msg[pos]

		if (length & protocol.CompressionMask) == protocol.CompressionMask {
			if pos+1 >= len(msg) {
				return nil, offset, &errors.CodecError{
					Kind:      errors.KindTruncated,
					Operation: "decode name",
					Offset:    pos,
					Message:   "truncated compression pointer",
				}
			}

			pointerOffset := int(msg[pos]&^protocol.CompressionMask)<<8 | int(msg[pos+1])

			if pointerOffset >= pos {
				return nil, offset, &errors.CodecError{
					Kind:      errors.KindForwardPointer,
					Operation: "decode name",
					Offset:    pos,
					Message:   "compression pointer does not point strictly backward",
				}
			}

			if endOffset < 0 {
				endOffset = pos + 2
			}

			pos = pointerOffset
			labelReads++
			if labelReads > protocol.MaxCompressionPointers {
				return nil, offset, &errors.CodecError{
					Kind:      errors.KindNameLoop,
					Operation: "decode name",
					Offset:    pos,
					Message:   "too many label reads, likely a compression loop",
				}
			}
			continue
		}

		if length == 0 {
			out = append(out, 0)
			if endOffset < 0 {
				endOffset = pos + 1
			}
			break
		}

		if length > protocol.MaxLabelLength {
			return nil, offset, &errors.CodecError{
				Kind:      errors.KindMalformed,
				Operation: "decode name",
				Offset:    pos,
				Message:   "label exceeds 63 bytes",
			}
		}
		if pos+1+int(length) > len(msg) {
			return nil, offset, &errors.CodecError{
				Kind:      errors.KindTruncated,
				Operation: "decode name",
				Offset:    pos,
				Message:   "truncated label",
			}
		}

		out = append(out, length)
		out = append(out, msg[pos+1:pos+1+int(length)]...)
		pos += 1 + int(length)

		labelReads++
		if labelReads > protocol.MaxCompressionPointers {
			return nil, offset, &errors.CodecError{
				Kind:      errors.KindNameLoop,
				Operation: "decode name",
				Offset:    pos,
				Message:   "too many label reads, likely a compression loop",
			}
		}

		if len(out) > protocol.MaxNameLength {
			return nil, offset, &errors.CodecError{
				Kind:      errors.KindMalformed,
				Operation: "decode name",
				Offset:    offset,
				Message:   "decoded name exceeds 255 bytes",
			}
		}
	}

	return Name(out), endOffset, nil
}

// Writer accumulates an outgoing DNS packet, sharing one compression offset
// table across the whole message so repeated name suffixes — especially
// ".local" and service types — compress per RFC 1035 §4.1.4.
type Writer struct {
	buf   []byte
	table map[string]uint16
}

// NewWriter returns an empty packet Writer.
func NewWriter() *Writer {
	return &Writer{
		buf:   make([]byte, 0, 512),
		table: make(map[string]uint16),
	}
}

// Offset returns the current absolute write position.
func (w *Writer) Offset() int { return len(w.buf) }

// Bytes returns the accumulated packet.
func (w *Writer) Bytes() []byte { return w.buf }

// WriteByte appends a single byte.
func (w *Writer) WriteByte(b byte) { w.buf = append(w.buf, b) }

// WriteBytes appends raw bytes verbatim.
func (w *Writer) WriteBytes(b []byte) { w.buf = append(w.buf, b...) }

// WriteUint16 appends a big-endian uint16.
func (w *Writer) WriteUint16(v uint16) {
	w.buf = append(w.buf, byte(v>>8), byte(v))
}

// WriteUint32 appends a big-endian uint32.
func (w *Writer) WriteUint32(v uint32) {
	w.buf = append(w.buf, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

// PatchUint16 overwrites the big-endian uint16 at a previously written
// offset, used to back-patch RDLENGTH once a record's rdata is known.
func (w *Writer) PatchUint16(offset int, v uint16) {
	w.buf[offset] = byte(v >> 8)
	w.buf[offset+1] = byte(v)
}

// WriteName writes a Name using compression per RFC 1035 §4.1.4: before each
// remaining suffix, the offset table is consulted; a match emits a 2-byte
// pointer and stops, otherwise the next label is emitted and the suffix's
// offset recorded (only if it still fits the pointer's 14-bit offset field).
func (w *Writer) WriteName(n Name) error {
	if len(n) > protocol.MaxNameLength {
		return &errors.CodecError{
			Kind:      errors.KindNameTooLong,
			Operation: "encode name",
			Offset:    w.Offset(),
			Message:   "name exceeds 255 bytes",
		}
	}

	pos := 0
	for pos < len(n) {
		length := int(n[pos])
		if length == 0 {
			break
		}

		suffix := n[pos:]
		key := canonicalKey(suffix)
		if off, ok := w.table[key]; ok {
			w.WriteByte(protocol.CompressionMask | byte(off>>8))
			w.WriteByte(byte(off))
			return nil
		}

		if w.Offset() <= 0x3FFF {
			w.table[key] = uint16(w.Offset())
		}

		w.WriteByte(byte(length))
		w.WriteBytes(n[pos+1 : pos+1+length])
		pos += 1 + length
	}

	w.WriteByte(0)
	return nil
}
