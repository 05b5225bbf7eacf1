// Package session maps open/read/write handles onto ring store operations.
// Each session represents one open handle and may consume at most one record
// before it signals end-of-stream, so a polling client that keeps reading the
// same handle cannot loop forever on an already-drained ring.
package session

import (
	"io"

	"github.com/pkg/errors"

	"ouroboros/pkg/ringstore"
)

// ErrEmpty reports that the ring held no record at the time of the first read
// on a session. It is a normal "nothing available" result, distinct from the
// io.EOF a session returns once its one permitted read has happened.
var ErrEmpty = errors.New("ring store empty")

// Broker hands out sessions over a shared ring store.
type Broker struct {
	store *ringstore.Store
}

func NewBroker(store *ringstore.Store) *Broker {
	return &Broker{store: store}
}

// Begin opens a fresh session. Sessions are private to one handle and are not
// safe for concurrent use; the shared ring underneath is.
func (b *Broker) Begin() *Session {
	return &Session{store: b.store}
}

// Store exposes the underlying ring for read-only diagnostics.
func (b *Broker) Store() *ringstore.Store {
	return b.store
}

// Session tracks whether its one permitted read has already happened.
type Session struct {
	store   *ringstore.Store
	hasRead bool
}

// Read returns the oldest record on the first call. Whether or not a record
// was available, every later call returns io.EOF — even if another session
// inserted new data in between. A first read on an empty ring returns
// ErrEmpty.
//
// The returned slice is a copy owned by the caller, so a failed transfer to
// the host's buffer afterwards cannot corrupt ring state; the record is
// simply gone, as it is in the reference host.
func (s *Session) Read() ([]byte, error) {
	if s.hasRead {
		return nil, io.EOF
	}
	s.hasRead = true

	rec, ok := s.store.Consume()
	if !ok {
		return nil, ErrEmpty
	}
	return rec, nil
}

// Write appends one record. Writes are not gated by the read state and never
// fail: oversized input is truncated by the ring, yet the full input length
// is reported as consumed so stream hosts do not re-send the cut tail.
func (s *Session) Write(data []byte) (int, error) {
	s.store.Insert(data)
	return len(data), nil
}
