// Package sockhost binds ring sessions to a unix stream socket.
//
// One accepted connection is one open handle. Every newline-terminated line
// the client sends becomes one record (the newline is stripped). A client
// that half-closes its write side without sending a line is a reader: the
// handler emits the session's one permitted record, if any, and closes the
// connection. The connection close is the end-of-stream signal.
package sockhost

import (
	"net"
	"os"
	"sync"

	"github.com/gammazero/deque"
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"ouroboros/pkg/logging"
	"ouroboros/pkg/session"
)

// Options configures the listener.
type Options struct {
	Path    string      // socket file path
	Mode    os.FileMode // permission bits applied to the socket file
	Workers int         // goroutines serving accepted connections
}

// Server accepts connections and serves each one as a single ring session.
// Accepted connections are queued on a backlog drained by a fixed worker
// pool.
type Server struct {
	opts   Options
	broker *session.Broker
	logger *logging.Logger

	ln net.Listener
	wg sync.WaitGroup

	mu      sync.Mutex
	cond    *sync.Cond
	backlog deque.Deque[net.Conn]
	closing bool
}

func New(broker *session.Broker, logger *logging.Logger, opts Options) *Server {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	s := &Server{opts: opts, broker: broker, logger: logger.With("component", "sockhost")}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Listen creates the socket file and applies the configured permission bits.
// A stale socket file from an earlier run is removed first.
func (s *Server) Listen() error {
	if err := os.Remove(s.opts.Path); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "remove stale socket %q", s.opts.Path)
	}

	ln, err := net.Listen("unix", s.opts.Path)
	if err != nil {
		return errors.Wrapf(err, "listen on %q", s.opts.Path)
	}
	if err := unix.Chmod(s.opts.Path, uint32(s.opts.Mode.Perm())); err != nil {
		ln.Close()
		return errors.Wrapf(err, "chmod socket %q", s.opts.Path)
	}

	s.ln = ln
	s.logger.Info("listening", "socket", s.opts.Path, "mode", s.opts.Mode.Perm().String())
	return nil
}

// Serve accepts connections until Close is called. Listen must have
// succeeded before.
func (s *Server) Serve() error {
	for i := 0; i < s.opts.Workers; i++ {
		s.wg.Add(1)
		go s.worker()
	}

	for {
		conn, err := s.ln.Accept()
		if err != nil {
			s.mu.Lock()
			closing := s.closing
			s.mu.Unlock()
			if closing {
				return nil
			}
			return errors.Wrap(err, "accept")
		}
		s.mu.Lock()
		s.backlog.PushBack(conn)
		s.mu.Unlock()
		s.cond.Signal()
	}
}

func (s *Server) worker() {
	defer s.wg.Done()
	for {
		s.mu.Lock()
		for s.backlog.Len() == 0 && !s.closing {
			s.cond.Wait()
		}
		if s.backlog.Len() == 0 {
			s.mu.Unlock()
			return
		}
		conn := s.backlog.PopFront()
		s.mu.Unlock()

		s.handle(conn)
	}
}

// Close stops accepting, drains the backlog and waits for in-flight
// connections. The socket file is unlinked when the listener closes.
func (s *Server) Close() error {
	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		return nil
	}
	s.closing = true
	s.mu.Unlock()

	var err error
	if s.ln != nil {
		err = s.ln.Close()
	}
	s.cond.Broadcast()
	s.wg.Wait()
	s.logger.Info("stopped", "socket", s.opts.Path)
	return err
}
