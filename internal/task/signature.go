// Package task builds the deferred execution descriptors handed to the
// external queue that actually runs registry processes. Building a
// descriptor has no side effects; execution happens only when a worker
// consumes it.
package task

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DefaultTask is the well-known task identifier queue workers register
// under for running a registry process.
const DefaultTask = "proctor.run"

// Command is the positional argument of a run task: either a single
// shell string or an ordered argv list. The JSON encoding keeps the two
// forms distinguishable (string versus array) so workers know whether
// to involve a shell.
type Command struct {
	args  []string
	shell bool
}

// Shell returns a Command carrying a single shell command line.
func Shell(cmd string) Command { return Command{args: []string{cmd}, shell: true} }

// Argv returns a Command carrying an ordered argument list.
func Argv(args ...string) Command { return Command{args: args} }

// IsShell reports whether the command is the single-string shell form.
func (c Command) IsShell() bool { return c.shell }

// Argv returns the argument list; for the shell form it is a one
// element list holding the command line. The result is a copy.
func (c Command) Argv() []string { return append([]string(nil), c.args...) }

// IsZero reports whether the command carries nothing to run.
func (c Command) IsZero() bool {
	return len(c.args) == 0 || (len(c.args) == 1 && c.args[0] == "")
}

func (c Command) String() string {
	if c.shell && len(c.args) == 1 {
		return c.args[0]
	}
	return strings.Join(c.args, " ")
}

// MarshalJSON encodes the shell form as a JSON string and the argv form
// as a JSON array.
func (c Command) MarshalJSON() ([]byte, error) {
	if c.shell {
		if len(c.args) != 1 {
			return nil, fmt.Errorf("shell command must hold exactly one string, got %d", len(c.args))
		}
		return json.Marshal(c.args[0])
	}
	if c.args == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(c.args)
}

// UnmarshalJSON accepts either form.
func (c *Command) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*c = Shell(s)
		return nil
	}
	var args []string
	if err := json.Unmarshal(data, &args); err != nil {
		return fmt.Errorf("command must be a string or an array of strings")
	}
	*c = Argv(args...)
	return nil
}

// Kwargs are the keyword parameters of a run task: the registry entry
// name and the working directory the process starts in.
type Kwargs struct {
	Name    string `json:"name"`
	WorkDir string `json:"wdir"`
}

// Signature is a deferred execution request: which task to invoke, the
// command it should run, and where the resulting process entry lives.
// Immutable descriptors reject parameter overrides on the worker side.
type Signature struct {
	Task      string    `json:"task"`
	Args      []Command `json:"args"`
	Kwargs    Kwargs    `json:"kwargs"`
	Immutable bool      `json:"immutable"`
}

// Command returns the positional command argument when present.
func (s *Signature) Command() (Command, bool) {
	if len(s.Args) == 0 {
		return Command{}, false
	}
	return s.Args[0], true
}
