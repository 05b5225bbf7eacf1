package repl

import (
	"fmt"
	"io"
	"strings"

	"ouroboros/pkg/ringstore"
)

// ForStore builds the diagnostics REPL over a ring store.
func ForStore(s *ringstore.Store) *REPL {
	r := NewRepl()
	r.AddCommand("len", lenHandler(s), "Prints the live record count and capacity. usage: len")
	r.AddCommand("peek", peekHandler(s), "Prints the oldest record without consuming it. usage: peek")
	r.AddCommand("stats", statsHandler(s), "Prints the insert/evict/consume counters. usage: stats")
	r.AddCommand("insert", insertHandler(s), "Appends one record to the ring. usage: insert <text>")
	r.AddCommand("consume", consumeHandler(s), "Removes and prints the oldest record. usage: consume")
	return r
}

func lenHandler(s *ringstore.Store) func(string, *REPLConfig) error {
	return func(input string, config *REPLConfig) error {
		if len(strings.Fields(input)) != 1 {
			return fmt.Errorf("usage: len")
		}
		_, err := io.WriteString(config.Writer, fmt.Sprintf("%d/%d records\n", s.Len(), s.Cap()))
		return err
	}
}

func peekHandler(s *ringstore.Store) func(string, *REPLConfig) error {
	return func(input string, config *REPLConfig) error {
		if len(strings.Fields(input)) != 1 {
			return fmt.Errorf("usage: peek")
		}
		rec, ok := s.Peek()
		if !ok {
			_, err := io.WriteString(config.Writer, "(empty)\n")
			return err
		}
		_, err := io.WriteString(config.Writer, fmt.Sprintf("%s\n", rec))
		return err
	}
}

func statsHandler(s *ringstore.Store) func(string, *REPLConfig) error {
	return func(input string, config *REPLConfig) error {
		if len(strings.Fields(input)) != 1 {
			return fmt.Errorf("usage: stats")
		}
		st := s.Stats()
		_, err := io.WriteString(config.Writer,
			fmt.Sprintf("inserted=%d evicted=%d consumed=%d\n", st.Inserted, st.Evicted, st.Consumed))
		return err
	}
}

func insertHandler(s *ringstore.Store) func(string, *REPLConfig) error {
	return func(input string, config *REPLConfig) error {
		parts := strings.SplitN(input, " ", 2)
		if len(parts) != 2 || parts[1] == "" {
			return fmt.Errorf("usage: insert <text>")
		}
		s.Insert([]byte(parts[1]))
		_, err := io.WriteString(config.Writer, "ok\n")
		return err
	}
}

func consumeHandler(s *ringstore.Store) func(string, *REPLConfig) error {
	return func(input string, config *REPLConfig) error {
		if len(strings.Fields(input)) != 1 {
			return fmt.Errorf("usage: consume")
		}
		rec, ok := s.Consume()
		if !ok {
			_, err := io.WriteString(config.Writer, "(empty)\n")
			return err
		}
		_, err := io.WriteString(config.Writer, fmt.Sprintf("%s\n", rec))
		return err
	}
}
