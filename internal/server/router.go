package server

import (
	"errors"
	"net/http"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/loykin/proctor/internal/registry"
	"github.com/loykin/proctor/internal/task"
)

// Router provides embeddable HTTP handlers over a process registry.
// Endpoints:
//   GET  {basePath}/list       -> names of registered processes
//   GET  {basePath}/records    -> all entries; query name=... for one
//   GET  {basePath}/stats      -> resource usage of live processes
//   POST {basePath}/signal     query: name=...&signal=<number>
//   POST {basePath}/terminate  query: name=...
//   POST {basePath}/kill       query: name=...
//   POST {basePath}/remove     query: name=...&force=true
//   POST {basePath}/cleanup    query: force=true
//   POST {basePath}/submit     body: submit request JSON
// basePath may be empty or start with '/'; no trailing slash.

type Router struct {
	reg      *registry.Registry
	basePath string
}

// NewRouter constructs a new Router with configurable basePath.
// Example basePath: "/abc" results in /abc/list, /abc/signal, ...
func NewRouter(reg *registry.Registry, basePath string) *Router {
	bp := sanitizeBase(basePath)
	return &Router{reg: reg, basePath: bp}
}

// Handler returns an http.Handler powered by gin that can be mounted in any server/mux.
func (r *Router) Handler() http.Handler {
	g := gin.New()
	g.Use(gin.Recovery())
	group := g.Group(r.basePath)
	group.GET("/list", r.handleList)
	group.GET("/records", r.handleRecords)
	group.GET("/stats", r.handleStats)
	group.POST("/signal", r.handleSignal)
	group.POST("/terminate", r.handleTerminate)
	group.POST("/kill", r.handleKill)
	group.POST("/remove", r.handleRemove)
	group.POST("/cleanup", r.handleCleanup)
	group.POST("/submit", r.handleSubmit)
	return g
}

// NewServer starts a standalone HTTP server on addr using this router.
// The returned server can be shut down with its Close or Shutdown
// methods.
func NewServer(addr, basePath string, reg *registry.Registry) (*http.Server, error) {
	r := NewRouter(reg, basePath)
	server := &http.Server{
		Addr:              addr,
		Handler:           r.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() { _ = server.ListenAndServe() }()
	return server, nil
}

// --- Handlers ---

type errorResp struct {
	Error string `json:"error"`
}

type okResp struct {
	OK bool `json:"ok"`
}

// SubmitRequest is the JSON body accepted by the submit endpoint. The
// command is either a shell string or an argv array.
type SubmitRequest struct {
	Command task.Command `json:"command"`
	Name    string       `json:"name"`
	Task    string       `json:"task"`
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, registry.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, registry.ErrUnsupportedSignal):
		return http.StatusBadRequest
	case errors.Is(err, registry.ErrNotTerminated):
		return http.StatusConflict
	case errors.Is(err, registry.ErrProcessGone):
		return http.StatusGone
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	writeJSON(c, statusForError(err), errorResp{Error: err.Error()})
}

// requireName pulls and validates the name query param. It writes the
// error response itself and reports whether the caller may proceed.
func requireName(c *gin.Context) (string, bool) {
	name := c.Query("name")
	if name == "" {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "name query param required"})
		return "", false
	}
	if !isSafeName(name) {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "invalid name: allowed [A-Za-z0-9._-] and no '..' or path separators"})
		return "", false
	}
	return name, true
}

func boolQuery(c *gin.Context, key string) bool {
	v := c.Query(key)
	if v == "" {
		return false
	}
	b, err := strconv.ParseBool(v)
	return err == nil && b
}

func (r *Router) handleList(c *gin.Context) {
	names, err := r.reg.List()
	if err != nil {
		writeError(c, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(c, http.StatusOK, names)
}

func (r *Router) handleRecords(c *gin.Context) {
	if name := c.Query("name"); name != "" {
		if !isSafeName(name) {
			writeJSON(c, http.StatusBadRequest, errorResp{Error: "invalid name: allowed [A-Za-z0-9._-] and no '..' or path separators"})
			return
		}
		rec, err := r.reg.Get(name)
		if err != nil {
			writeError(c, err)
			return
		}
		writeJSON(c, http.StatusOK, registry.Entry{Name: name, Record: rec})
		return
	}
	entries, err := r.reg.Entries()
	if err != nil {
		writeError(c, err)
		return
	}
	if entries == nil {
		entries = []registry.Entry{}
	}
	writeJSON(c, http.StatusOK, entries)
}

func (r *Router) handleStats(c *gin.Context) {
	stats, err := r.reg.Stats()
	if err != nil {
		writeError(c, err)
		return
	}
	if stats == nil {
		stats = []registry.ProcessStats{}
	}
	writeJSON(c, http.StatusOK, stats)
}

func (r *Router) handleSignal(c *gin.Context) {
	name, ok := requireName(c)
	if !ok {
		return
	}
	sigStr := c.Query("signal")
	if sigStr == "" {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "signal query param required"})
		return
	}
	signum, err := strconv.Atoi(sigStr)
	if err != nil {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "invalid signal: " + err.Error()})
		return
	}
	if err := r.reg.SendSignal(name, syscall.Signal(signum)); err != nil {
		writeError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, okResp{OK: true})
}

func (r *Router) handleTerminate(c *gin.Context) {
	name, ok := requireName(c)
	if !ok {
		return
	}
	if err := r.reg.Terminate(name); err != nil {
		writeError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, okResp{OK: true})
}

func (r *Router) handleKill(c *gin.Context) {
	name, ok := requireName(c)
	if !ok {
		return
	}
	if err := r.reg.Kill(name); err != nil {
		writeError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, okResp{OK: true})
}

func (r *Router) handleRemove(c *gin.Context) {
	name, ok := requireName(c)
	if !ok {
		return
	}
	if err := r.reg.Remove(name, boolQuery(c, "force")); err != nil {
		writeError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, okResp{OK: true})
}

func (r *Router) handleCleanup(c *gin.Context) {
	if err := r.reg.Cleanup(boolQuery(c, "force")); err != nil {
		writeError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, okResp{OK: true})
}

func (r *Router) handleSubmit(c *gin.Context) {
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "invalid JSON: " + err.Error()})
		return
	}
	if req.Command.IsZero() {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "command required"})
		return
	}
	if req.Name != "" && !isSafeName(req.Name) {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "invalid name: allowed [A-Za-z0-9._-] and no '..' or path separators"})
		return
	}
	sig := r.reg.Submit(req.Command, req.Name, req.Task)
	writeJSON(c, http.StatusOK, sig)
}
