package message

import (
	"github.com/joshuafuller/beacon/internal/errors"
	"github.com/joshuafuller/beacon/internal/protocol"
)

// EncodeMessage serializes a Message to wire format per RFC 1035 §4.1,
// sharing one name-compression table across the header, question, and all
// three record sections per §4.1.4.
func EncodeMessage(msg *Message) ([]byte, error) {
	w := NewWriter()

	header := msg.Header
	header.QDCount = uint16(len(msg.Questions))
	header.ANCount = uint16(len(msg.Answers))
	header.NSCount = uint16(len(msg.Authorities))
	header.ARCount = uint16(len(msg.Additionals))

	w.WriteUint16(header.ID)
	w.WriteUint16(header.Flags)
	w.WriteUint16(header.QDCount)
	w.WriteUint16(header.ANCount)
	w.WriteUint16(header.NSCount)
	w.WriteUint16(header.ARCount)

	for _, q := range msg.Questions {
		if err := w.WriteName(q.Name); err != nil {
			return nil, err
		}
		w.WriteUint16(q.Type)
		class := q.Class
		if q.UnicastQuery {
			class |= protocol.ClassUnicastBit
		}
		w.WriteUint16(class)
	}

	for _, section := range [][]*ResourceRecord{msg.Answers, msg.Authorities, msg.Additionals} {
		for _, rr := range section {
			if err := encodeResourceRecord(w, rr); err != nil {
				return nil, err
			}
		}
	}

	return w.Bytes(), nil
}

func encodeResourceRecord(w *Writer, rr *ResourceRecord) error {
	if rr == nil || rr.Data == nil {
		return &errors.ValidationError{Field: "ResourceRecord", Message: "cannot encode nil record or payload"}
	}

	if err := w.WriteName(rr.Name); err != nil {
		return err
	}

	w.WriteUint16(rr.Type)

	class := rr.Class
	if rr.CacheFlush {
		class |= protocol.ClassCacheFlushBit
	}
	w.WriteUint16(class)

	w.WriteUint32(rr.TTL)

	rdlengthOffset := w.Offset()
	w.WriteUint16(0) // placeholder, back-patched below

	rdataStart := w.Offset()
	if err := rr.Data.encode(w); err != nil {
		return err
	}
	rdlength := w.Offset() - rdataStart
	if rdlength > 0xFFFF {
		return &errors.CodecError{Kind: errors.KindMalformed, Operation: "encode record", Offset: rdataStart, Message: "rdata exceeds 65535 bytes"}
	}
	w.PatchUint16(rdlengthOffset, uint16(rdlength))

	return nil
}
