package message

import (
	"encoding/binary"

	"github.com/joshuafuller/beacon/internal/errors"
	"github.com/joshuafuller/beacon/internal/protocol"
)

// DecodeMessage parses a complete DNS message from wire format per RFC 1035
// §4.1. A malformed or truncated packet returns a *errors.CodecError and the
// caller drops the packet rather than answering it, per the receive loop's
// error handling.
func DecodeMessage(buf []byte) (*Message, error) {
	header, err := decodeHeader(buf)
	if err != nil {
		return nil, err
	}

	offset := 12

	questions := make([]Question, 0, header.QDCount)
	for i := uint16(0); i < header.QDCount; i++ {
		q, next, err := decodeQuestion(buf, offset)
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
		offset = next
	}

	answers, offset, err := decodeRecords(buf, offset, int(header.ANCount))
	if err != nil {
		return nil, err
	}
	authorities, offset, err := decodeRecords(buf, offset, int(header.NSCount))
	if err != nil {
		return nil, err
	}
	additionals, _, err := decodeRecords(buf, offset, int(header.ARCount))
	if err != nil {
		return nil, err
	}

	return &Message{
		Header:      header,
		Questions:   questions,
		Answers:     answers,
		Authorities: authorities,
		Additionals: additionals,
	}, nil
}

func decodeHeader(buf []byte) (Header, error) {
	if len(buf) < 12 {
		return Header{}, &errors.CodecError{
			Kind:      errors.KindTruncated,
			Operation: "decode header",
			Offset:    0,
			Message:   "message shorter than 12-byte header",
		}
	}
	return Header{
		ID:      binary.BigEndian.Uint16(buf[0:2]),
		Flags:   binary.BigEndian.Uint16(buf[2:4]),
		QDCount: binary.BigEndian.Uint16(buf[4:6]),
		ANCount: binary.BigEndian.Uint16(buf[6:8]),
		NSCount: binary.BigEndian.Uint16(buf[8:10]),
		ARCount: binary.BigEndian.Uint16(buf[10:12]),
	}, nil
}

func decodeQuestion(buf []byte, offset int) (Question, int, error) {
	name, next, err := DecodeName(buf, offset)
	if err != nil {
		return Question{}, offset, err
	}
	if next+4 > len(buf) {
		return Question{}, offset, &errors.CodecError{
			Kind:      errors.KindTruncated,
			Operation: "decode question",
			Offset:    next,
			Message:   "truncated QTYPE/QCLASS",
		}
	}
	qtype := binary.BigEndian.Uint16(buf[next : next+2])
	rawClass := binary.BigEndian.Uint16(buf[next+2 : next+4])

	return Question{
		Name:         name,
		Type:         qtype,
		Class:        rawClass &^ protocol.ClassUnicastBit,
		UnicastQuery: rawClass&protocol.ClassUnicastBit != 0,
	}, next + 4, nil
}

func decodeRecords(buf []byte, offset, count int) ([]*ResourceRecord, int, error) {
	records := make([]*ResourceRecord, 0, count)
	for i := 0; i < count; i++ {
		rr, next, err := decodeResourceRecord(buf, offset)
		if err != nil {
			return nil, offset, err
		}
		records = append(records, rr)
		offset = next
	}
	return records, offset, nil
}

func decodeResourceRecord(buf []byte, offset int) (*ResourceRecord, int, error) {
	name, next, err := DecodeName(buf, offset)
	if err != nil {
		return nil, offset, err
	}
	if next+10 > len(buf) {
		return nil, offset, &errors.CodecError{
			Kind:      errors.KindTruncated,
			Operation: "decode record",
			Offset:    next,
			Message:   "truncated TYPE/CLASS/TTL/RDLENGTH",
		}
	}

	rtype := binary.BigEndian.Uint16(buf[next : next+2])
	rawClass := binary.BigEndian.Uint16(buf[next+2 : next+4])
	ttl := binary.BigEndian.Uint32(buf[next+4 : next+8])
	rdlength := int(binary.BigEndian.Uint16(buf[next+8 : next+10]))
	next += 10

	if next+rdlength > len(buf) {
		return nil, offset, &errors.CodecError{
			Kind:      errors.KindTruncated,
			Operation: "decode record",
			Offset:    next,
			Message:   "RDLENGTH exceeds remaining message",
		}
	}

	data, err := decodeRData(buf, rtype, next, rdlength)
	if err != nil {
		return nil, offset, err
	}

	rr := &ResourceRecord{
		Name:       name,
		Type:       rtype,
		Class:      rawClass &^ protocol.ClassCacheFlushBit,
		CacheFlush: rawClass&protocol.ClassCacheFlushBit != 0,
		TTL:        ttl,
		Data:       data,
	}
	return rr, next + rdlength, nil
}

// decodeRData parses the type-specific payload of a record starting at
// offset within the full message buf (not just the rdata slice), since
// PTR/SRV/NSEC payloads may carry compression pointers referencing earlier
// parts of the packet.
func decodeRData(buf []byte, rtype uint16, offset, rdlength int) (RecordData, error) {
	rdata := buf[offset : offset+rdlength]

	switch protocol.RecordType(rtype) {
	case protocol.RecordTypeA:
		if len(rdata) != 4 {
			return nil, &errors.CodecError{Kind: errors.KindMalformed, Operation: "decode A", Offset: offset, Message: "A rdata must be 4 bytes"}
		}
		var d AData
		copy(d.Addr[:], rdata)
		return d, nil

	case protocol.RecordTypeAAAA:
		if len(rdata) != 16 {
			return nil, &errors.CodecError{Kind: errors.KindMalformed, Operation: "decode AAAA", Offset: offset, Message: "AAAA rdata must be 16 bytes"}
		}
		var d AAAAData
		copy(d.Addr[:], rdata)
		return d, nil

	case protocol.RecordTypePTR:
		target, _, err := DecodeName(buf, offset)
		if err != nil {
			return nil, err
		}
		return PTRData{TargetName: target}, nil

	case protocol.RecordTypeSRV:
		if len(rdata) < 6 {
			return nil, &errors.CodecError{Kind: errors.KindTruncated, Operation: "decode SRV", Offset: offset, Message: "SRV rdata shorter than 6 bytes"}
		}
		target, _, err := DecodeName(buf, offset+6)
		if err != nil {
			return nil, err
		}
		return SRVData{
			Priority: binary.BigEndian.Uint16(rdata[0:2]),
			Weight:   binary.BigEndian.Uint16(rdata[2:4]),
			Port:     binary.BigEndian.Uint16(rdata[4:6]),
			Target:   target,
		}, nil

	case protocol.RecordTypeTXT:
		var strs []string
		pos := 0
		for pos < len(rdata) {
			length := int(rdata[pos])
			pos++
			if pos+length > len(rdata) {
				return nil, &errors.CodecError{Kind: errors.KindTruncated, Operation: "decode TXT", Offset: offset + pos, Message: "truncated TXT string"}
			}
			strs = append(strs, string(rdata[pos:pos+length]))
			pos += length
		}
		return TXTData{Strings: strs}, nil

	case protocol.RecordTypeNSEC:
		next, nameEnd, err := DecodeName(buf, offset)
		if err != nil {
			return nil, err
		}
		bitmapStart := nameEnd - offset
		types, err := decodeNSECBitmap(rdata[bitmapStart:], offset+bitmapStart)
		if err != nil {
			return nil, err
		}
		return NSECData{Next: next, Types: types}, nil

	default:
		cp := make([]byte, len(rdata))
		copy(cp, rdata)
		return RawData{TypeVal: rtype, Bytes: cp}, nil
	}
}

// decodeNSECBitmap parses the RFC 4034 §4.1.2 windowed type bitmap.
func decodeNSECBitmap(buf []byte, offset int) ([]uint16, error) {
	var types []uint16
	pos := 0
	for pos < len(buf) {
		if pos+2 > len(buf) {
			return nil, &errors.CodecError{Kind: errors.KindTruncated, Operation: "decode NSEC bitmap", Offset: offset + pos, Message: "truncated window header"}
		}
		window := buf[pos]
		length := int(buf[pos+1])
		pos += 2
		if pos+length > len(buf) {
			return nil, &errors.CodecError{Kind: errors.KindTruncated, Operation: "decode NSEC bitmap", Offset: offset + pos, Message: "truncated bitmap block"}
		}
		for i := 0; i < length; i++ {
			b := buf[pos+i]
			for bit := 0; bit < 8; bit++ {
				if b&(0x80>>uint(bit)) != 0 {
					types = append(types, uint16(window)*256+uint16(i*8+bit))
				}
			}
		}
		pos += length
	}
	return types, nil
}
