package repl

import (
	"bytes"
	"strings"
	"testing"

	"ouroboros/pkg/ringstore"
)

func newStoreRepl(t *testing.T) (*ringstore.Store, *REPL) {
	t.Helper()
	s, err := ringstore.New(3, 64)
	if err != nil {
		t.Fatalf("ringstore.New failed: %v", err)
	}
	return s, ForStore(s)
}

func runCommand(t *testing.T, r *REPL, input string) string {
	t.Helper()
	cmd := strings.Split(input, " ")[0]
	handler, ok := r.Commands[cmd]
	if !ok {
		t.Fatalf("command %q not registered", cmd)
	}
	var out bytes.Buffer
	if err := handler(input, &REPLConfig{Writer: &out}); err != nil {
		t.Fatalf("command %q failed: %v", input, err)
	}
	return out.String()
}

func TestForStore_InsertConsumeRoundTrip(t *testing.T) {
	_, r := newStoreRepl(t)

	runCommand(t, r, "insert Hello, World!")
	if got := runCommand(t, r, "peek"); got != "Hello, World!\n" {
		t.Fatalf("expect peek output %q but got %q", "Hello, World!\n", got)
	}
	if got := runCommand(t, r, "consume"); got != "Hello, World!\n" {
		t.Fatalf("expect consume output %q but got %q", "Hello, World!\n", got)
	}
	if got := runCommand(t, r, "consume"); got != "(empty)\n" {
		t.Fatalf("expect empty marker but got %q", got)
	}
}

func TestForStore_LenAndStats(t *testing.T) {
	_, r := newStoreRepl(t)

	for i := 0; i < 4; i++ { // one eviction at capacity 3
		runCommand(t, r, "insert x")
	}
	if got := runCommand(t, r, "len"); got != "3/3 records\n" {
		t.Fatalf("expect %q but got %q", "3/3 records\n", got)
	}
	if got := runCommand(t, r, "stats"); got != "inserted=4 evicted=1 consumed=0\n" {
		t.Fatalf("unexpected stats output %q", got)
	}
}

func TestForStore_UsageErrors(t *testing.T) {
	_, r := newStoreRepl(t)

	for _, input := range []string{"insert", "len extra", "peek extra", "consume extra", "stats extra"} {
		cmd := strings.Split(input, " ")[0]
		var out bytes.Buffer
		if err := r.Commands[cmd](input, &REPLConfig{Writer: &out}); err == nil {
			t.Errorf("expect usage error for %q but got nil", input)
		}
	}
}

func TestRun_DispatchesAndPrompts(t *testing.T) {
	_, r := newStoreRepl(t)

	in := strings.NewReader("insert hi\nconsume\nbogus\n")
	var out bytes.Buffer
	r.Run(in, &out)

	output := out.String()
	if !strings.Contains(output, "ok\n") {
		t.Errorf("expect insert acknowledgement in %q", output)
	}
	if !strings.Contains(output, "hi\n") {
		t.Errorf("expect consumed record in %q", output)
	}
	if !strings.Contains(output, "Invalid command: bogus") {
		t.Errorf("expect invalid-command message in %q", output)
	}
}
