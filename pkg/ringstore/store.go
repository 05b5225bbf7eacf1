// Package ringstore implements a fixed-capacity circular store of short text
// records. Inserting into a full store evicts the oldest record instead of
// growing; consuming removes and returns the oldest record.
package ringstore

import (
	"sync"

	"github.com/pkg/errors"
)

// Stats counts store activity since creation. Counters are monotonic.
type Stats struct {
	Inserted uint64
	Evicted  uint64
	Consumed uint64
}

// ------|----------------|--------------------|
//    readIdx          writeIdx            capacity
// writeIdx == (readIdx + count) % capacity

// Store is a ring of record slots guarded by a single mutex. All index and
// count updates happen under the lock so no caller can observe a partial
// transition.
type Store struct {
	slots    [][]byte
	capacity int
	max      int // usable bytes per record
	readIdx  int // slot holding the oldest unconsumed record
	writeIdx int // slot the next Insert will occupy
	count    int
	stats    Stats
	mu       sync.Mutex
}

// New creates an empty store with capacity slots of recordSize bytes each.
// One byte of every slot is reserved for the record terminator, so a record
// holds at most recordSize-1 bytes.
func New(capacity, recordSize int) (*Store, error) {
	if capacity <= 0 || recordSize <= 1 {
		return nil, errors.Errorf("invalid ring sizing: capacity=%d recordSize=%d", capacity, recordSize)
	}
	slots := make([][]byte, capacity)
	for i := range slots {
		slots[i] = make([]byte, 0, recordSize-1)
	}
	return &Store{slots: slots, capacity: capacity, max: recordSize - 1}, nil
}

// Insert copies data into the slot at writeIdx. Input longer than the usable
// record size is truncated silently; callers never pre-validate. Insert never
// fails: when the store is full it advances readIdx, discarding the oldest
// record, and count stays pinned at capacity.
func (s *Store) Insert(data []byte) {
	if len(data) > s.max {
		data = data[:s.max]
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.slots[s.writeIdx] = append(s.slots[s.writeIdx][:0], data...)
	s.writeIdx = (s.writeIdx + 1) % s.capacity
	s.stats.Inserted++

	if s.count < s.capacity {
		s.count++
	} else {
		s.readIdx = (s.readIdx + 1) % s.capacity
		s.stats.Evicted++
	}
}

// Consume removes the oldest record and returns a copy of it. The second
// result is false when the store is empty, which leaves all state untouched.
// The returned slice is owned by the caller; the slot it came from may be
// overwritten by any later Insert.
func (s *Store) Consume() ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.count == 0 {
		return nil, false
	}

	rec := append([]byte(nil), s.slots[s.readIdx]...)
	s.readIdx = (s.readIdx + 1) % s.capacity
	s.count--
	s.stats.Consumed++
	return rec, true
}

// Peek returns a copy of the oldest record without consuming it.
func (s *Store) Peek() ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.count == 0 {
		return nil, false
	}
	return append([]byte(nil), s.slots[s.readIdx]...), true
}

// Len returns the number of live records, between 0 and Cap.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// Cap returns the fixed slot count.
func (s *Store) Cap() int {
	return s.capacity
}

// Stats returns a snapshot of the activity counters.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}
