package records

import (
	"sort"

	"github.com/joshuafuller/beacon/internal/message"
)

// group is the list of entries sharing one owner name, in insertion order.
// PTR groups (service type names) commonly hold more than one PTR — one
// per registered instance of that type; other groups hold one entry per
// record type in practice (e.g. SRV+TXT at an instance name, A+NSEC at a
// host name), but nothing here enforces that.
type group struct {
	name    message.Name
	entries []*message.ResourceRecord
}

// Store is the in-memory resource record store: a collection of per-name
// groups, each holding that name's resource records. Store carries no
// internal locking — callers (the responder engine) serialize access.
type Store struct {
	groups []*group
}

// NewStore returns an empty record store.
func NewStore() *Store {
	return &Store{}
}

func (s *Store) findGroup(name message.Name) *group {
	for _, g := range s.groups {
		if g.name.Equal(name) {
			return g
		}
	}
	return nil
}

// Group returns every entry owned by name, regardless of type, in insertion
// order. Used to answer RR_ANY queries and to collect the records related
// to an answer for the additional section.
func (s *Store) Group(name message.Name) []*message.ResourceRecord {
	g := s.findGroup(name)
	if g == nil {
		return nil
	}
	return append([]*message.ResourceRecord{}, g.entries...)
}

// Find returns the first entry at name with the given type, or nil.
func (s *Store) Find(name message.Name, rtype uint16) *message.ResourceRecord {
	g := s.findGroup(name)
	if g == nil {
		return nil
	}
	for _, e := range g.entries {
		if e.Type == rtype {
			return e
		}
	}
	return nil
}

// FindAll returns every entry at name with the given type, in insertion
// order — used for PTR groups, where multiple service instances share a
// service-type name.
func (s *Store) FindAll(name message.Name, rtype uint16) []*message.ResourceRecord {
	g := s.findGroup(name)
	if g == nil {
		return nil
	}
	var out []*message.ResourceRecord
	for _, e := range g.entries {
		if e.Type == rtype {
			out = append(out, e)
		}
	}
	return out
}

// Add appends rr to its name's group, creating the group if necessary.
// A duplicate (per entry_eq) is not added twice; Add reports whether it
// inserted a new entry.
func (s *Store) Add(rr *message.ResourceRecord) bool {
	g := s.findGroup(rr.Name)
	if g == nil {
		g = &group{name: rr.Name}
		s.groups = append(s.groups, g)
	}
	for _, e := range g.entries {
		if e.Equal(rr) {
			return false
		}
	}
	g.entries = append(g.entries, rr)
	return true
}

// Remove deletes rr (by identity) from the store, cleaning up its group if
// the group becomes empty.
func (s *Store) Remove(rr *message.ResourceRecord) {
	g := s.findGroup(rr.Name)
	if g == nil {
		return
	}
	for i, e := range g.entries {
		if e == rr {
			g.entries = append(g.entries[:i], g.entries[i+1:]...)
			break
		}
	}
	s.cleanGroup(g)
}

// RemoveReferrer scans every group for a PTR entry whose target is target
// (identity comparison, not name equality — two distinct SRV records can
// legitimately share a name during a rapid re-register), removes it, and
// returns it. Used when withdrawing a service to also withdraw the PTR that
// advertises it under its service type.
func (s *Store) RemoveReferrer(target *message.ResourceRecord) *message.ResourceRecord {
	for _, g := range s.groups {
		for i, e := range g.entries {
			ptr, ok := e.Data.(message.PTRData)
			if !ok || ptr.Target != target {
				continue
			}
			g.entries = append(g.entries[:i], g.entries[i+1:]...)
			s.cleanGroup(g)
			return e
		}
	}
	return nil
}

// cleanGroup drops g from the store if it holds no entries.
func (s *Store) cleanGroup(g *group) {
	if len(g.entries) > 0 {
		return
	}
	for i, candidate := range s.groups {
		if candidate == g {
			s.groups = append(s.groups[:i], s.groups[i+1:]...)
			return
		}
	}
}

// Types returns the sorted set of record types present at name, the form
// an NSEC type bitmap takes.
func (s *Store) Types(name message.Name) []uint16 {
	g := s.findGroup(name)
	if g == nil {
		return nil
	}
	seen := map[uint16]bool{}
	var types []uint16
	for _, e := range g.entries {
		if !seen[e.Type] {
			seen[e.Type] = true
			types = append(types, e.Type)
		}
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// All returns every entry in the store across all groups, in group-creation
// then insertion order.
func (s *Store) All() []*message.ResourceRecord {
	var out []*message.ResourceRecord
	for _, g := range s.groups {
		out = append(out, g.entries...)
	}
	return out
}
