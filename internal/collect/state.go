package collect

import "sync"

// Outcome is the resolution state of a collected name. A name starts
// Pending and settles exactly once, either to Resolved with an address
// or to Unresolved when the backend fails, times out, returns no record,
// or is disabled.
type Outcome int

const (
	OutcomePending Outcome = iota
	OutcomeResolved
	OutcomeUnresolved
)

func (o Outcome) String() string {
	switch o {
	case OutcomeResolved:
		return "resolved"
	case OutcomeUnresolved:
		return "unresolved"
	default:
		return "pending"
	}
}

// NameEntry is the externally visible view of one collected name.
type NameEntry struct {
	Name    string
	Outcome Outcome
	Address string
}

// Snapshot is an immutable copy of a chat's collection state, safe to
// read while the chat keeps collecting.
type Snapshot struct {
	Watching  bool
	Addresses []string
	Names     []NameEntry
}

// ResolvedCount returns how many names in the snapshot settled with an
// address.
func (s Snapshot) ResolvedCount() int {
	count := 0
	for _, entry := range s.Names {
		if entry.Outcome == OutcomeResolved {
			count++
		}
	}
	return count
}

type nameRecord struct {
	outcome Outcome
	address string
}

// ChatState is the per-chat mutable aggregate: the watching gate, the
// deduplicated lowercase address set, and the name cache in insertion
// order. All methods are safe for concurrent use; detached resolution
// goroutines settle entries through the same mutex.
type ChatState struct {
	mu        sync.Mutex
	watching  bool
	addresses map[string]struct{}
	nameOrder []string
	names     map[string]*nameRecord
}

func newChatState() *ChatState {
	return &ChatState{
		addresses: make(map[string]struct{}),
		names:     make(map[string]*nameRecord),
	}
}

func (s *ChatState) Watching() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.watching
}

func (s *ChatState) SetWatching(watching bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watching = watching
}

// AddAddress records a lowercase address and reports whether it was new.
// Re-adding an existing address is a no-op.
func (s *ChatState) AddAddress(address string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.addresses[address]; exists {
		return false
	}
	s.addresses[address] = struct{}{}
	return true
}

// LookupOrSchedule returns the current outcome for name and, when the
// name was not seen before, inserts it as pending and reports that a
// resolution should be scheduled. The pending insertion is synchronous,
// so a near-simultaneous second occurrence of the same name never
// schedules a duplicate attempt.
func (s *ChatState) LookupOrSchedule(name string) (Outcome, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if record, exists := s.names[name]; exists {
		return record.outcome, false
	}
	s.names[name] = &nameRecord{outcome: OutcomePending}
	s.nameOrder = append(s.nameOrder, name)
	return OutcomePending, true
}

// Settle transitions a pending name to its terminal outcome. A non-empty
// address settles to Resolved, an empty one to Unresolved. Settling an
// already terminal entry is a no-op.
func (s *ChatState) Settle(name, address string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, exists := s.names[name]
	if !exists || record.outcome != OutcomePending {
		return
	}
	if address == "" {
		record.outcome = OutcomeUnresolved
		return
	}
	record.outcome = OutcomeResolved
	record.address = address
}

// Snapshot copies the current state. Addresses come out in map order
// (callers sort for display); names keep insertion order.
func (s *ChatState) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := Snapshot{
		Watching:  s.watching,
		Addresses: make([]string, 0, len(s.addresses)),
		Names:     make([]NameEntry, 0, len(s.nameOrder)),
	}
	for address := range s.addresses {
		snapshot.Addresses = append(snapshot.Addresses, address)
	}
	for _, name := range s.nameOrder {
		record := s.names[name]
		snapshot.Names = append(snapshot.Names, NameEntry{
			Name:    name,
			Outcome: record.outcome,
			Address: record.address,
		})
	}
	return snapshot
}
