package task

import (
	"encoding/json"
	"testing"
)

func TestCommandShellJSON(t *testing.T) {
	data, err := json.Marshal(Shell("echo hello world"))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `"echo hello world"` {
		t.Errorf("shell command must encode as a JSON string, got %s", data)
	}
}

func TestCommandArgvJSON(t *testing.T) {
	data, err := json.Marshal(Argv("echo", "hello", "world"))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `["echo","hello","world"]` {
		t.Errorf("argv command must encode as a JSON array, got %s", data)
	}
}

func TestCommandZeroValueJSON(t *testing.T) {
	var c Command
	data, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `[]` {
		t.Errorf("zero command must encode as an empty array, got %s", data)
	}
}

func TestCommandUnmarshal(t *testing.T) {
	var c Command
	if err := json.Unmarshal([]byte(`"ls -l"`), &c); err != nil {
		t.Fatalf("unmarshal string: %v", err)
	}
	if !c.IsShell() || c.String() != "ls -l" {
		t.Errorf("expected shell command, got %+v", c)
	}

	if err := json.Unmarshal([]byte(`["ls","-l"]`), &c); err != nil {
		t.Fatalf("unmarshal array: %v", err)
	}
	if c.IsShell() {
		t.Error("array form must not be a shell command")
	}
	if got := c.Argv(); len(got) != 2 || got[0] != "ls" || got[1] != "-l" {
		t.Errorf("unexpected argv: %v", got)
	}

	if err := json.Unmarshal([]byte(`{"cmd":"ls"}`), &c); err == nil {
		t.Error("expected error for object form, got nil")
	}
}

func TestCommandIsZero(t *testing.T) {
	if !(Command{}).IsZero() {
		t.Error("zero value must be zero")
	}
	if !Shell("").IsZero() {
		t.Error("empty shell string must be zero")
	}
	if Shell("ls").IsZero() || Argv("ls").IsZero() {
		t.Error("populated commands must not be zero")
	}
}

func TestCommandArgvCopies(t *testing.T) {
	c := Argv("a", "b")
	got := c.Argv()
	got[0] = "mutated"
	if c.Argv()[0] != "a" {
		t.Error("Argv must return a copy")
	}
}

// The descriptor layout is consumed by external queue workers, so the
// key names are a wire contract.
func TestSignatureJSONShape(t *testing.T) {
	sig := Signature{
		Task:      DefaultTask,
		Args:      []Command{Shell("echo hi")},
		Kwargs:    Kwargs{Name: "job1", WorkDir: "/work/job1"},
		Immutable: true,
	}
	data, err := json.Marshal(sig)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	want := `{"task":"proctor.run","args":["echo hi"],"kwargs":{"name":"job1","wdir":"/work/job1"},"immutable":true}`
	if string(data) != want {
		t.Errorf("descriptor layout drifted:\n got %s\nwant %s", data, want)
	}
}

func TestSignatureCommand(t *testing.T) {
	sig := Signature{}
	if _, ok := sig.Command(); ok {
		t.Error("empty args must report no command")
	}

	sig.Args = []Command{Argv("sleep", "5")}
	cmd, ok := sig.Command()
	if !ok {
		t.Fatal("expected a command")
	}
	if cmd.String() != "sleep 5" {
		t.Errorf("unexpected command: %s", cmd.String())
	}
}
