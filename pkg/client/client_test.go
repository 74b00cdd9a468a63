package client

import (
	"context"
	"errors"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/loykin/proctor/internal/registry"
	"github.com/loykin/proctor/internal/server"
)

func setupAPI(t *testing.T) (*Client, *registry.Registry) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	reg := registry.New(t.TempDir())
	ts := httptest.NewServer(server.NewRouter(reg, "/api").Handler())
	t.Cleanup(ts.Close)
	c := New(Config{BaseURL: ts.URL + "/api", Timeout: 5 * time.Second})
	return c, reg
}

func putRecord(t *testing.T, reg *registry.Registry, name string, rec registry.Record) {
	t.Helper()
	st := reg.Store()
	if err := os.MkdirAll(st.EntryDir(name), 0o755); err != nil {
		t.Fatalf("mkdir entry dir: %v", err)
	}
	if err := st.Put(name, rec); err != nil {
		t.Fatalf("put record: %v", err)
	}
}

func intPtr(v int) *int { return &v }

func TestClientListAndRecords(t *testing.T) {
	c, reg := setupAPI(t)
	putRecord(t, reg, "alpha", registry.Record{PID: 100, WorkDir: "/work/alpha"})
	putRecord(t, reg, "beta", registry.Record{PID: 200, ReturnCode: intPtr(0), WorkDir: "/work/beta"})

	ctx := context.Background()
	names, err := c.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(names) != 2 {
		t.Fatalf("expected 2 names, got %v", names)
	}

	entries, err := c.Records(ctx)
	if err != nil {
		t.Fatalf("records: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}

	entry, err := c.GetRecord(ctx, "beta")
	if err != nil {
		t.Fatalf("get record: %v", err)
	}
	if entry.Name != "beta" || entry.Record.PID != 200 || !entry.Record.Terminated() {
		t.Fatalf("unexpected entry: %+v", entry)
	}
}

func TestClientGetRecordMissing(t *testing.T) {
	c, _ := setupAPI(t)
	_, err := c.GetRecord(context.Background(), "ghost")
	if err == nil {
		t.Fatalf("expected error for missing record")
	}
	if !strings.Contains(err.Error(), "API error:") {
		t.Fatalf("expected API error, got %v", err)
	}
}

func TestClientSubmit(t *testing.T) {
	c, _ := setupAPI(t)
	sig, err := c.Submit(context.Background(), SubmitRequest{Command: "echo hi", Name: "job1"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if sig.Task != "proctor.run" || sig.Kwargs.Name != "job1" || !sig.Immutable {
		t.Fatalf("unexpected signature: %+v", sig)
	}
	if len(sig.Args) != 1 || string(sig.Args[0]) != `"echo hi"` {
		t.Fatalf("unexpected args: %v", sig.Args)
	}
}

func TestClientSubmitArgv(t *testing.T) {
	c, _ := setupAPI(t)
	sig, err := c.Submit(context.Background(), SubmitRequest{Command: []string{"echo", "hi"}})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if len(sig.Args) != 1 || string(sig.Args[0]) != `["echo","hi"]` {
		t.Fatalf("unexpected args: %v", sig.Args)
	}
}

func TestClientSignalTerminatedSkips(t *testing.T) {
	c, reg := setupAPI(t)
	putRecord(t, reg, "done", registry.Record{PID: 12345, ReturnCode: intPtr(0)})

	if err := c.SendSignal(context.Background(), "done", 15); err != nil {
		t.Fatalf("signal: %v", err)
	}
	if err := c.Terminate(context.Background(), "done"); err != nil {
		t.Fatalf("terminate: %v", err)
	}
}

func TestClientRemoveAndCleanup(t *testing.T) {
	c, reg := setupAPI(t)
	putRecord(t, reg, "done", registry.Record{PID: 12345, ReturnCode: intPtr(0)})
	putRecord(t, reg, "live", registry.Record{PID: 99999999})

	ctx := context.Background()
	if err := c.Remove(ctx, "done", false); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := reg.Get("done"); !errors.Is(err, registry.ErrNotFound) {
		t.Fatalf("expected record gone, got %v", err)
	}

	// live entry without force must be refused
	if err := c.Remove(ctx, "live", false); err == nil {
		t.Fatalf("expected refusal for live entry")
	}

	if err := c.Cleanup(ctx, false); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	names, err := reg.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(names) != 1 || names[0] != "live" {
		t.Fatalf("cleanup must keep live entries, got %v", names)
	}
}

func TestClientStats(t *testing.T) {
	c, reg := setupAPI(t)
	putRecord(t, reg, "me", registry.Record{PID: os.Getpid()})

	stats, err := c.Stats(context.Background())
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if len(stats) != 1 || stats[0].Name != "me" || stats[0].MemoryRSS == 0 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestClientIsReachable(t *testing.T) {
	c, _ := setupAPI(t)
	if !c.IsReachable(context.Background()) {
		t.Fatalf("expected daemon to be reachable")
	}

	dead := New(Config{BaseURL: "http://127.0.0.1:1/api", Timeout: time.Second})
	if dead.IsReachable(context.Background()) {
		t.Fatalf("expected dead daemon to be unreachable")
	}
}
