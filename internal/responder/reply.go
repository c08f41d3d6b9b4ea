// Package responder builds mDNS response messages from the record store:
// question matching, known-answer suppression (RFC 6762 §7.1), and the
// additional-record closure. It holds no service-registration state
// of its own — that lives in the public responder.Engine, which owns the
// store these functions read.
package responder

import (
	"github.com/joshuafuller/beacon/internal/message"
	"github.com/joshuafuller/beacon/internal/protocol"
	"github.com/joshuafuller/beacon/internal/records"
)

// BuildReply constructs the answer to a standard query against store. It
// reports (nil, false) if none of the query's questions match anything
// this store holds, or if every match is suppressed by a known answer the
// querier already holds (per RFC 6762 §7.1: a record is suppressed when
// the known answer's TTL is at least half the record's own TTL).
//
// The returned message carries QR+AA set and no header ID/question section
// filled in; the caller stamps those before sending.
func BuildReply(store *records.Store, query *message.Message) (*message.Message, bool) {
	var answers []*message.ResourceRecord
	seen := map[*message.ResourceRecord]bool{}

	addAnswer := func(rr *message.ResourceRecord) {
		if rr == nil || seen[rr] {
			return
		}
		if suppressedByKnownAnswer(rr, query.Answers) {
			return
		}
		seen[rr] = true
		answers = append(answers, rr)
	}

	for _, q := range query.Questions {
		matchQuestion(store, q, addAnswer)
	}

	if len(answers) == 0 {
		return nil, false
	}

	msg := &message.Message{
		Header: message.Header{
			Flags: protocol.FlagQR | protocol.FlagAA,
		},
		Answers:     answers,
		Additionals: ExpandAdditionals(store, answers),
	}
	return msg, true
}

// matchQuestion reports every store entry satisfying q to add. RR_ANY
// matches every type at the name except NSEC, which is suppressed from
// RR_ANY matches and only ever appears as an additional record; everything
// else matches its own type.
func matchQuestion(store *records.Store, q message.Question, add func(*message.ResourceRecord)) {
	if protocol.RecordType(q.Type) == protocol.RecordTypeANY {
		for _, e := range store.Group(q.Name) {
			if protocol.RecordType(e.Type) == protocol.RecordTypeNSEC {
				continue
			}
			add(e)
		}
		return
	}
	for _, e := range store.FindAll(q.Name, q.Type) {
		add(e)
	}
}

// suppressedByKnownAnswer implements the RFC 6762 §7.1 known-answer
// suppression test: rr is withheld if the querier already listed an equal
// record whose remaining TTL is at least half of rr's own TTL.
func suppressedByKnownAnswer(rr *message.ResourceRecord, known []*message.ResourceRecord) bool {
	for _, k := range known {
		if rr.Equal(k) && k.TTL >= rr.TTL/2 {
			return true
		}
	}
	return false
}

// ExpandAdditionals computes the additional-record section:
//
//   - a PTR answer pulls in every record at its target name except NSEC
//     (the SRV, TXT, and host address records of the advertised instance);
//   - an SRV answer pulls in every record at its target name (the host's A
//     and AAAA) plus the TXT record at its own name;
//   - an A or AAAA answer pulls in the NSEC record at its own name.
//
// The same expansion is applied a second time over the additionals just
// collected, so a PTR answer's pulled-in SRV record in turn pulls in its
// own host's address/NSEC records. Exported so the announce/goodbye paths
// (responder.Engine) can apply the identical closure to non-query traffic.
func ExpandAdditionals(store *records.Store, answers []*message.ResourceRecord) []*message.ResourceRecord {
	seen := map[*message.ResourceRecord]bool{}
	for _, rr := range answers {
		seen[rr] = true
	}

	var additionals []*message.ResourceRecord
	add := func(rr *message.ResourceRecord) {
		if rr == nil || seen[rr] {
			return
		}
		seen[rr] = true
		additionals = append(additionals, rr)
	}

	expand := func(rr *message.ResourceRecord) {
		switch protocol.RecordType(rr.Type) {
		case protocol.RecordTypePTR:
			ptr, ok := rr.Data.(message.PTRData)
			if !ok {
				return
			}
			for _, e := range store.Group(ptr.TargetName) {
				if protocol.RecordType(e.Type) != protocol.RecordTypeNSEC {
					add(e)
				}
			}
		case protocol.RecordTypeSRV:
			srv, ok := rr.Data.(message.SRVData)
			if !ok {
				return
			}
			for _, e := range store.Group(srv.Target) {
				add(e)
			}
			for _, e := range store.FindAll(rr.Name, uint16(protocol.RecordTypeTXT)) {
				add(e)
			}
		case protocol.RecordTypeA, protocol.RecordTypeAAAA:
			if nsec := store.Find(rr.Name, uint16(protocol.RecordTypeNSEC)); nsec != nil {
				add(nsec)
			}
		}
	}

	for _, rr := range answers {
		expand(rr)
	}
	// Second pass: additionals pulled in by the first pass may themselves
	// have related records (an SRV pulled in by a PTR still needs its own
	// host's address records).
	firstPass := append([]*message.ResourceRecord{}, additionals...)
	for _, rr := range firstPass {
		expand(rr)
	}

	return additionals
}
