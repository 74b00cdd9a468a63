package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/loykin/proctor/internal/fsutil"
	"github.com/loykin/proctor/internal/history"
	"github.com/loykin/proctor/internal/metrics"
	"github.com/loykin/proctor/internal/task"
)

const (
	lockFileName = ".lock"
	sinkTimeout  = 5 * time.Second
)

// Registry supervises background processes whose lifecycle metadata is
// persisted under a shared root directory. It never spawns anything
// itself: an external queue worker runs the descriptors built by Submit
// and keeps the records up to date. The registry reads those records,
// delivers signals to the recorded PIDs, heals records whose process
// vanished, and enforces the removal policy.
//
// All operations are synchronous filesystem and signal calls. Several
// processes may share one root; they coordinate only through the
// directory tree unless advisory locking is enabled with SetLocking.
type Registry struct {
	root    string
	store   *Store
	policy  SignalPolicy
	logger  *slog.Logger
	sink    history.Sink
	locking bool
}

// New returns a Registry rooted at dir. The directory does not need to
// exist yet; an empty registry enumerates as empty and signals report
// ErrNotFound.
func New(dir string) *Registry {
	return &Registry{
		root:   dir,
		store:  NewStore(dir),
		policy: newSignalPolicy(),
		logger: slog.Default(),
	}
}

// Root returns the registry root directory.
func (r *Registry) Root() string { return r.root }

// Store exposes the underlying record store. Runner-side collaborators
// use it to create initial records and to locate entry directories.
func (r *Registry) Store() *Store { return r.store }

// SetLogger replaces the registry logger. Passing nil restores the
// process default.
func (r *Registry) SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.Default()
	}
	r.logger = l
}

// SetHistorySink configures an export destination for lifecycle events.
// Passing nil disables export. Sink failures are logged and never
// surface through registry operations.
func (r *Registry) SetHistorySink(s history.Sink) { r.sink = s }

// SetLocking toggles an advisory flock on <root>/.lock around the
// read-modify-write spans of SendSignal and Remove. Off by default: the
// on-disk format carries no versioning and cooperating processes that
// do not opt in remain best-effort either way. Enabling it creates the
// root directory on first use.
func (r *Registry) SetLocking(enabled bool) { r.locking = enabled }

// setPolicy swaps the signal policy, for tests.
func (r *Registry) setPolicy(p SignalPolicy) { r.policy = p }

// List returns the entry names currently present, in no defined order.
func (r *Registry) List() ([]string, error) {
	return r.store.List()
}

// Get returns the record stored under name or ErrNotFound.
func (r *Registry) Get(name string) (Record, error) {
	return r.store.Get(name)
}

// Entries returns a snapshot of name and record pairs. Entries whose
// record cannot be loaded, because it is partially written or was
// deleted mid-scan, are skipped so bulk inspection keeps working.
func (r *Registry) Entries() ([]Entry, error) {
	names, err := r.store.List()
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(names))
	for _, name := range names {
		rec, err := r.store.Get(name)
		if err != nil {
			r.logger.Debug("skipping unreadable entry", "name", name, "error", err)
			continue
		}
		entries = append(entries, Entry{Name: name, Record: rec})
	}
	return entries, nil
}

// Submit builds the deferred task descriptor an external queue worker
// consumes to actually run command. Nothing is executed or persisted
// here; the worker creates the entry directory and the initial record
// when it picks the task up. An empty name gets a fresh UUID, an empty
// taskName falls back to task.DefaultTask, and the working directory is
// always <root>/<name>.
func (r *Registry) Submit(command task.Command, name, taskName string) *task.Signature {
	if name == "" {
		name = uuid.NewString()
	}
	if taskName == "" {
		taskName = task.DefaultTask
	}
	return &task.Signature{
		Task: taskName,
		Args: []task.Command{command},
		Kwargs: task.Kwargs{
			Name:    name,
			WorkDir: filepath.Join(r.root, name),
		},
		Immutable: true,
	}
}

// SendSignal delivers sig to the process recorded under name.
//
// A record that already carries a return code is left alone and no OS
// call is made: its PID may have been recycled by an unrelated process.
// When the OS reports the target is gone, the record is healed to the
// -1 return code sentinel before the failure is surfaced as
// ErrProcessGone, so the on-disk state reflects reality even though the
// caller still sees the error.
func (r *Registry) SendSignal(name string, sig syscall.Signal) error {
	start := time.Now()
	defer func() { metrics.ObserveOp("send_signal", time.Since(start).Seconds()) }()

	if err := r.policy.Validate(sig); err != nil {
		return fmt.Errorf("signal %d: %w", sig, err)
	}
	release, err := r.acquireLock()
	if err != nil {
		return err
	}
	defer release()

	return r.deliverSignal(name, sig)
}

// Terminate sends SIGTERM to the named process.
func (r *Registry) Terminate(name string) error {
	return r.SendSignal(name, syscall.SIGTERM)
}

// Kill sends the platform force-kill signal to the named process,
// SIGKILL on Unix and SIGTERM on Windows.
func (r *Registry) Kill(name string) error {
	return r.SendSignal(name, r.policy.ForceKillSignal())
}

// Remove deletes the entry for name along with its directory. Removing
// an unknown name is a no-op. A record without a return code is refused
// with ErrNotTerminated unless force is set; with force the process is
// killed first, a target that is already gone being the expected case
// and ignored, and the entry is deleted even when the kill only
// confirmed the process had vanished. Any other kill failure aborts the
// removal so the entry stays inspectable.
func (r *Registry) Remove(name string, force bool) error {
	start := time.Now()
	defer func() { metrics.ObserveOp("remove", time.Since(start).Seconds()) }()

	release, err := r.acquireLock()
	if err != nil {
		return err
	}
	defer release()

	rec, err := r.store.Get(name)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}
	if !rec.Terminated() && !force {
		metrics.IncRemove("refused")
		return fmt.Errorf("%q: %w", name, ErrNotTerminated)
	}
	err = r.deliverSignal(name, r.policy.ForceKillSignal())
	if err != nil && !errors.Is(err, ErrProcessGone) && !errors.Is(err, ErrNotFound) {
		return err
	}
	if err := r.store.Delete(name); err != nil {
		return err
	}
	r.logger.Debug("removed process entry", "name", name, "pid", rec.PID)
	metrics.IncRemove("removed")
	r.emit(history.EventRemove, name, rec)
	return nil
}

// Cleanup removes every terminated entry. Entries that are still live
// do not stop the scan: their ErrNotTerminated is swallowed and the
// next entry is visited. With force set live entries are killed and
// removed as well. Any other failure aborts the scan.
func (r *Registry) Cleanup(force bool) error {
	start := time.Now()
	defer func() { metrics.ObserveOp("cleanup", time.Since(start).Seconds()) }()

	names, err := r.store.List()
	if err != nil {
		return err
	}
	for _, name := range names {
		if err := r.Remove(name, force); err != nil {
			if errors.Is(err, ErrNotTerminated) {
				continue
			}
			return err
		}
	}
	metrics.IncCleanup()
	return nil
}

// deliverSignal is the shared signal path. Callers hold the advisory
// lock when locking is enabled.
func (r *Registry) deliverSignal(name string, sig syscall.Signal) error {
	if err := r.policy.Validate(sig); err != nil {
		return fmt.Errorf("signal %d: %w", sig, err)
	}
	rec, err := r.store.Get(name)
	if err != nil {
		return err
	}
	if rec.Terminated() {
		r.logger.Debug("signal skipped for terminated process", "name", name, "signal", int(sig))
		return nil
	}
	r.logger.Debug("sending signal", "name", name, "pid", rec.PID, "signal", int(sig))
	if err := r.policy.Send(rec.PID, sig); err != nil {
		if errors.Is(err, ErrProcessGone) {
			if healErr := r.healClosedProcess(name, rec); healErr != nil {
				return healErr
			}
			return fmt.Errorf("%q (pid %d): %w", name, rec.PID, ErrProcessGone)
		}
		return fmt.Errorf("signal %d to %q (pid %d): %w", sig, name, rec.PID, err)
	}
	metrics.IncSignal(int(sig))
	r.emit(history.EventSignal, name, rec)
	return nil
}

// healClosedProcess records the -1 sentinel for a process that vanished
// without an observed exit code. The caller surfaces ErrProcessGone
// afterwards; a failure to persist the heal takes precedence since it
// leaves the record stale.
func (r *Registry) healClosedProcess(name string, rec Record) error {
	r.logger.Warn("process had already aborted unexpectedly", "name", name, "pid", rec.PID)
	code := -1
	rec.ReturnCode = &code
	if err := r.store.Put(name, rec); err != nil {
		return err
	}
	metrics.IncSelfHeal()
	r.emit(history.EventSelfHeal, name, rec)
	return nil
}

// acquireLock takes the advisory registry lock when locking is enabled
// and returns the release func. With locking disabled it is free.
func (r *Registry) acquireLock() (func(), error) {
	if !r.locking {
		return func() {}, nil
	}
	if err := fsutil.MakeDirs(r.root, 0o755); err != nil {
		return nil, err
	}
	fl := flock.New(filepath.Join(r.root, lockFileName))
	if err := fl.Lock(); err != nil {
		return nil, fmt.Errorf("lock registry: %w", err)
	}
	return func() {
		if err := fl.Unlock(); err != nil {
			r.logger.Debug("releasing registry lock", "error", err)
		}
	}, nil
}

func (r *Registry) emit(t history.EventType, name string, rec Record) {
	if r.sink == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), sinkTimeout)
	defer cancel()
	evt := history.Event{
		Type:       t,
		OccurredAt: time.Now().UTC(),
		Name:       name,
		PID:        rec.PID,
		ReturnCode: rec.ReturnCode,
	}
	if err := r.sink.Send(ctx, evt); err != nil {
		r.logger.Debug("history sink send failed", "type", string(t), "name", name, "error", err)
	}
}
