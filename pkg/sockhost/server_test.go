package sockhost

import (
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"ouroboros/pkg/logging"
	"ouroboros/pkg/ringstore"
	"ouroboros/pkg/session"
)

func startServer(t *testing.T, capacity int) (string, *ringstore.Store) {
	t.Helper()

	store, err := ringstore.New(capacity, 64)
	if err != nil {
		t.Fatalf("ringstore.New failed: %v", err)
	}
	logger, err := logging.New("", "error")
	if err != nil {
		t.Fatalf("logging.New failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "ring.sock")
	srv := New(session.NewBroker(store), logger, Options{Path: path, Mode: 0o600, Workers: 2})
	if err := srv.Listen(); err != nil {
		t.Fatalf("Listen failed: %v", err)
	}
	go srv.Serve()
	t.Cleanup(func() { srv.Close() })

	return path, store
}

func clientWrite(t *testing.T, path string, lines ...string) {
	t.Helper()
	conn, err := net.Dial("unix", path)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()
	for _, line := range lines {
		if _, err := conn.Write([]byte(line + "\n")); err != nil {
			t.Fatalf("client write failed: %v", err)
		}
	}
}

func clientRead(t *testing.T, path string) string {
	t.Helper()
	conn, err := net.Dial("unix", path)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()
	if err := conn.(*net.UnixConn).CloseWrite(); err != nil {
		t.Fatalf("half-close failed: %v", err)
	}
	data, err := io.ReadAll(conn)
	if err != nil {
		t.Fatalf("client read failed: %v", err)
	}
	return string(data)
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestServer_WriteThenRead(t *testing.T) {
	path, store := startServer(t, 10)

	clientWrite(t, path, "Hello, World!")
	waitFor(t, "record to land", func() bool { return store.Len() == 1 })

	if got := clientRead(t, path); got != "Hello, World!\n" {
		t.Fatalf("expect %q but got %q", "Hello, World!\n", got)
	}
	if store.Len() != 0 {
		t.Fatalf("expect drained ring but got %d records", store.Len())
	}
}

func TestServer_OneRecordPerConnection(t *testing.T) {
	path, store := startServer(t, 10)

	clientWrite(t, path, "first", "second")
	waitFor(t, "records to land", func() bool { return store.Len() == 2 })

	// Each read connection drains exactly one record; "second" survives the
	// first connection even though it was pending.
	if got := clientRead(t, path); got != "first\n" {
		t.Fatalf("expect %q but got %q", "first\n", got)
	}
	if got := clientRead(t, path); got != "second\n" {
		t.Fatalf("expect %q but got %q", "second\n", got)
	}
}

func TestServer_ReadOnEmptyRing(t *testing.T) {
	path, _ := startServer(t, 10)

	if got := clientRead(t, path); got != "" {
		t.Fatalf("expect no bytes from an empty ring but got %q", got)
	}
}

func TestServer_OverflowEvictsOldest(t *testing.T) {
	path, store := startServer(t, 10)

	for i := 0; i < 12; i++ {
		clientWrite(t, path, fmt.Sprintf("r%d", i))
		// One write per connection keeps insert order deterministic.
		want := i + 1
		if want > 10 {
			want = 10
		}
		n := uint64(i + 1)
		waitFor(t, "record to land", func() bool { return store.Stats().Inserted == n && store.Len() == want })
	}

	for i := 2; i < 12; i++ {
		want := fmt.Sprintf("r%d\n", i)
		if got := clientRead(t, path); got != want {
			t.Fatalf("expect %q but got %q", want, got)
		}
	}
	if got := clientRead(t, path); got != "" {
		t.Fatalf("expect drained ring but got %q", got)
	}
}

func TestServer_SocketMode(t *testing.T) {
	path, _ := startServer(t, 10)

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat socket: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("expect socket mode 0600 but got %o", perm)
	}
}

func TestServer_CloseIsIdempotent(t *testing.T) {
	store, err := ringstore.New(4, 64)
	if err != nil {
		t.Fatalf("ringstore.New failed: %v", err)
	}
	logger, err := logging.New("", "error")
	if err != nil {
		t.Fatalf("logging.New failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "ring.sock")
	srv := New(session.NewBroker(store), logger, Options{Path: path, Mode: 0o666, Workers: 1})
	if err := srv.Listen(); err != nil {
		t.Fatalf("Listen failed: %v", err)
	}
	done := make(chan error, 1)
	go func() { done <- srv.Serve() }()

	if err := srv.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := srv.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}
	if err := <-done; err != nil {
		t.Fatalf("Serve returned %v after Close", err)
	}
}
