package client

import (
	"encoding/json"
	"time"
)

// Record mirrors the registry's on-disk process record.
type Record struct {
	PID        int    `json:"pid"`
	Stdin      string `json:"stdin,omitempty"`
	Stdout     string `json:"stdout,omitempty"`
	Stderr     string `json:"stderr,omitempty"`
	ReturnCode *int   `json:"returncode,omitempty"`
	WorkDir    string `json:"wdir"`
}

// Terminated reports whether the record carries an exit code.
func (r Record) Terminated() bool { return r.ReturnCode != nil }

// Entry pairs a process name with its record.
type Entry struct {
	Name   string `json:"name"`
	Record Record `json:"record"`
}

// ProcessStats mirrors a resource usage sample for one live process.
type ProcessStats struct {
	Name       string    `json:"name"`
	PID        int       `json:"pid"`
	CPUPercent float64   `json:"cpu_percent"`
	MemoryRSS  uint64    `json:"memory_rss"`
	MemoryVMS  uint64    `json:"memory_vms"`
	MemoryMB   float64   `json:"memory_mb"`
	NumThreads int32     `json:"num_threads"`
	NumFDs     int32     `json:"num_fds,omitempty"`
	SampledAt  time.Time `json:"sampled_at"`
}

// SubmitRequest represents a request to build a task descriptor.
// Command is either a shell string or an argv []string.
type SubmitRequest struct {
	Command any    `json:"command"`
	Name    string `json:"name,omitempty"`
	Task    string `json:"task,omitempty"`
}

// Kwargs carries the named arguments of a task signature.
type Kwargs struct {
	Name    string `json:"name"`
	WorkDir string `json:"wdir"`
}

// Signature mirrors the deferred task descriptor returned by submit.
// Each arg stays in wire form, a JSON string for shell commands or a
// JSON array for argv commands.
type Signature struct {
	Task      string            `json:"task"`
	Args      []json.RawMessage `json:"args"`
	Kwargs    Kwargs            `json:"kwargs"`
	Immutable bool              `json:"immutable"`
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error string `json:"error"`
}
