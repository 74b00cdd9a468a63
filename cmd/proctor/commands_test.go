package main

import (
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/loykin/proctor"
)

func putRecord(t *testing.T, reg *proctor.Registry, name string, rec proctor.Record) {
	t.Helper()
	st := reg.Store()
	if err := os.MkdirAll(st.EntryDir(name), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := st.Put(name, rec); err != nil {
		t.Fatalf("put record: %v", err)
	}
}

func intPtr(v int) *int { return &v }

func TestRegistryRootRequired(t *testing.T) {
	c := command{global: &GlobalFlags{}}
	err := c.List(ListFlags{})
	if err == nil || !strings.Contains(err.Error(), "registry root required") {
		t.Fatalf("expected root required error, got %v", err)
	}
}

func TestRegistryRootFromConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.toml")
	content := "root = \"registry\"\n\n[locking]\nenabled = true\n"
	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	c := command{global: &GlobalFlags{ConfigPath: cfgPath}}
	reg, err := c.registry()
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	if reg.Root() != filepath.Join(dir, "registry") {
		t.Fatalf("unexpected root: %s", reg.Root())
	}
}

func TestRootFlagOverridesConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(cfgPath, []byte("root = \"from-config\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	override := filepath.Join(dir, "override")
	c := command{global: &GlobalFlags{ConfigPath: cfgPath, Root: override}}
	reg, err := c.registry()
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	if reg.Root() != override {
		t.Fatalf("expected --root to win, got %s", reg.Root())
	}
}

func TestListLocal(t *testing.T) {
	dir := t.TempDir()
	reg := proctor.New(dir)
	putRecord(t, reg, "alpha", proctor.Record{PID: 101, ReturnCode: intPtr(0)})

	c := command{global: &GlobalFlags{Root: dir}}
	out, err := captureStdout(t, func() error { return c.List(ListFlags{}) })
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "alpha") {
		t.Fatalf("expected alpha in output, got %q", out)
	}
}

func TestStatusLocal(t *testing.T) {
	dir := t.TempDir()
	reg := proctor.New(dir)
	putRecord(t, reg, "beta", proctor.Record{PID: 202, ReturnCode: intPtr(1)})

	c := command{global: &GlobalFlags{Root: dir}}
	out, err := captureStdout(t, func() error { return c.Status(StatusFlags{Name: "beta"}) })
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(out, "\"beta\"") || !strings.Contains(out, "\"returncode\": 1") {
		t.Fatalf("unexpected status output: %q", out)
	}

	out, err = captureStdout(t, func() error { return c.Status(StatusFlags{}) })
	if err != nil {
		t.Fatalf("status all: %v", err)
	}
	if !strings.Contains(out, "\"beta\"") {
		t.Fatalf("expected beta in listing, got %q", out)
	}

	if err := c.Status(StatusFlags{Name: "missing"}); !errors.Is(err, proctor.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStatsLocalIncludesSelf(t *testing.T) {
	dir := t.TempDir()
	reg := proctor.New(dir)
	putRecord(t, reg, "self", proctor.Record{PID: os.Getpid()})

	c := command{global: &GlobalFlags{Root: dir}}
	out, err := captureStdout(t, func() error { return c.Stats(StatsFlags{}) })
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if !strings.Contains(out, "\"self\"") {
		t.Fatalf("expected self sample in output, got %q", out)
	}
}

func TestSubmitLocalShell(t *testing.T) {
	dir := t.TempDir()
	c := command{global: &GlobalFlags{Root: dir}}
	out, err := captureStdout(t, func() error {
		return c.Submit(SubmitFlags{Cmd: "echo hi", Name: "job1"})
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !strings.Contains(out, "proctor.run") || !strings.Contains(out, "\"job1\"") {
		t.Fatalf("unexpected submit output: %q", out)
	}
}

func TestSubmitLocalArgv(t *testing.T) {
	dir := t.TempDir()
	c := command{global: &GlobalFlags{Root: dir}}
	out, err := captureStdout(t, func() error {
		return c.Submit(SubmitFlags{Argv: []string{"echo", "hi"}, Name: "job2", Task: "custom.run"})
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !strings.Contains(out, "custom.run") || !strings.Contains(out, "\"job2\"") {
		t.Fatalf("unexpected submit output: %q", out)
	}
}

func TestSubmitFlagConflicts(t *testing.T) {
	c := command{global: &GlobalFlags{Root: t.TempDir()}}
	if err := c.Submit(SubmitFlags{}); err == nil {
		t.Fatalf("expected error when no command given")
	}
	if err := c.Submit(SubmitFlags{Cmd: "echo", Argv: []string{"echo"}}); err == nil {
		t.Fatalf("expected error when both --cmd and argv given")
	}
	if err := c.Submit(SubmitFlags{File: "req.json", Cmd: "echo"}); err == nil {
		t.Fatalf("expected error when --file combined with --cmd")
	}
}

func TestSubmitFromFile(t *testing.T) {
	dir := t.TempDir()
	reqPath := filepath.Join(dir, "req.json")
	data := `{"command": ["echo", "hello"], "name": "filejob", "task": "custom.run"}`
	if err := os.WriteFile(reqPath, []byte(data), 0o644); err != nil {
		t.Fatalf("write request file: %v", err)
	}

	c := command{global: &GlobalFlags{Root: dir}}
	out, err := captureStdout(t, func() error { return c.Submit(SubmitFlags{File: reqPath}) })
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !strings.Contains(out, "custom.run") || !strings.Contains(out, "\"filejob\"") {
		t.Fatalf("unexpected submit output: %q", out)
	}
}

func TestSignalLocalTerminatedSkips(t *testing.T) {
	dir := t.TempDir()
	reg := proctor.New(dir)
	putRecord(t, reg, "done", proctor.Record{PID: 424242, ReturnCode: intPtr(0)})

	c := command{global: &GlobalFlags{Root: dir}}
	out, err := captureStdout(t, func() error {
		return c.Signal(SignalFlags{Name: "done", Signal: 15})
	})
	if err != nil {
		t.Fatalf("signal: %v", err)
	}
	if !strings.Contains(out, "Sent signal 15 to 'done'") {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestTerminateAndKillLocalTerminatedSkip(t *testing.T) {
	dir := t.TempDir()
	reg := proctor.New(dir)
	putRecord(t, reg, "done", proctor.Record{PID: 424242, ReturnCode: intPtr(0)})

	c := command{global: &GlobalFlags{Root: dir}}
	if _, err := captureStdout(t, func() error { return c.Terminate(SignalFlags{Name: "done"}) }); err != nil {
		t.Fatalf("terminate: %v", err)
	}
	if _, err := captureStdout(t, func() error { return c.Kill(SignalFlags{Name: "done"}) }); err != nil {
		t.Fatalf("kill: %v", err)
	}
}

func TestSignalLocalUnknownName(t *testing.T) {
	c := command{global: &GlobalFlags{Root: t.TempDir()}}
	if err := c.Signal(SignalFlags{Name: "ghost", Signal: 15}); !errors.Is(err, proctor.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRemoveLocal(t *testing.T) {
	dir := t.TempDir()
	reg := proctor.New(dir)
	putRecord(t, reg, "dead", proctor.Record{PID: 424242, ReturnCode: intPtr(0)})
	putRecord(t, reg, "live", proctor.Record{PID: 99999999})

	c := command{global: &GlobalFlags{Root: dir}}
	if _, err := captureStdout(t, func() error { return c.Remove(RemoveFlags{Name: "dead"}) }); err != nil {
		t.Fatalf("remove dead: %v", err)
	}
	if _, err := reg.Get("dead"); !errors.Is(err, proctor.ErrNotFound) {
		t.Fatalf("expected record gone, got %v", err)
	}

	// Live records are refused without force; no signal is attempted
	if err := c.Remove(RemoveFlags{Name: "live"}); !errors.Is(err, proctor.ErrNotTerminated) {
		t.Fatalf("expected ErrNotTerminated, got %v", err)
	}
	if _, err := reg.Get("live"); err != nil {
		t.Fatalf("live record should survive: %v", err)
	}
}

func TestCleanupLocal(t *testing.T) {
	dir := t.TempDir()
	reg := proctor.New(dir)
	putRecord(t, reg, "done1", proctor.Record{PID: 424242, ReturnCode: intPtr(0)})
	putRecord(t, reg, "done2", proctor.Record{PID: 424243, ReturnCode: intPtr(137)})
	putRecord(t, reg, "running", proctor.Record{PID: 99999999})

	c := command{global: &GlobalFlags{Root: dir}}
	out, err := captureStdout(t, func() error { return c.Cleanup(CleanupFlags{}) })
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if !strings.Contains(out, "Cleanup complete") {
		t.Fatalf("unexpected output: %q", out)
	}

	names, err := reg.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(names) != 1 || names[0] != "running" {
		t.Fatalf("expected only the live record to survive, got %v", names)
	}
}

func TestAPIUnreachable(t *testing.T) {
	c := command{global: &GlobalFlags{}}
	err := c.List(ListFlags{APIUrl: "http://127.0.0.1:1/api", APITimeout: 200 * time.Millisecond})
	if err == nil || !strings.Contains(err.Error(), "daemon not reachable") {
		t.Fatalf("expected unreachable error, got %v", err)
	}
}

func TestListViaAPI(t *testing.T) {
	gin.SetMode(gin.TestMode)
	dir := t.TempDir()
	reg := proctor.New(dir)
	putRecord(t, reg, "apijob", proctor.Record{PID: 31337, ReturnCode: intPtr(0)})

	srv := httptest.NewServer(proctor.NewHandler(reg, "/api"))
	defer srv.Close()

	c := command{global: &GlobalFlags{}}
	out, err := captureStdout(t, func() error {
		return c.List(ListFlags{APIUrl: srv.URL + "/api", APITimeout: 2 * time.Second})
	})
	if err != nil {
		t.Fatalf("list via api: %v", err)
	}
	if !strings.Contains(out, "apijob") {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestRemoveViaAPI(t *testing.T) {
	gin.SetMode(gin.TestMode)
	dir := t.TempDir()
	reg := proctor.New(dir)
	putRecord(t, reg, "apijob", proctor.Record{PID: 31337, ReturnCode: intPtr(0)})

	srv := httptest.NewServer(proctor.NewHandler(reg, "/api"))
	defer srv.Close()

	c := command{global: &GlobalFlags{}}
	if _, err := captureStdout(t, func() error {
		return c.Remove(RemoveFlags{Name: "apijob", APIUrl: srv.URL + "/api", APITimeout: 2 * time.Second})
	}); err != nil {
		t.Fatalf("remove via api: %v", err)
	}
	if _, err := reg.Get("apijob"); !errors.Is(err, proctor.ErrNotFound) {
		t.Fatalf("expected record gone, got %v", err)
	}
}
