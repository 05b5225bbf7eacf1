package sockhost

import (
	"bufio"
	"io"
	"net"

	"github.com/pkg/errors"

	"ouroboros/pkg/session"
)

// handle serves one connection as one session: lines in are writes; a
// connection that sent no line gets the session's single read.
func (s *Server) handle(conn net.Conn) {
	defer conn.Close()

	sess := s.broker.Begin()
	wrote := false

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		n, _ := sess.Write(scanner.Bytes()) // session writes never fail
		wrote = true
		s.logger.Debug("record written", "bytes", n)
	}
	if err := scanner.Err(); err != nil {
		s.logger.Warn("client stream broke", "err", err)
		return
	}
	if wrote {
		return
	}

	// Pure reader: drain the session. The contract yields at most one record
	// before io.EOF, and an empty ring yields none.
	for {
		rec, err := sess.Read()
		switch {
		case err == nil:
			// The record is already a private copy, so a failed transfer to
			// the client leaves the ring state intact.
			if _, werr := conn.Write(append(rec, '\n')); werr != nil {
				s.logger.Warn("transfer to client failed", "err", errors.Wrap(werr, "write record"))
				return
			}
			s.logger.Debug("record read", "bytes", len(rec))
		case errors.Is(err, session.ErrEmpty):
			s.logger.Debug("ring empty on read")
		case errors.Is(err, io.EOF):
			return
		default:
			s.logger.Error("session read failed", "err", err)
			return
		}
	}
}
