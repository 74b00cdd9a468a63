// Package env expands ${VAR} references in configuration values.
// Overrides set programmatically take precedence over the process
// environment, which keeps config loading testable without mutating
// the real environment.
package env

import (
	"os"
	"strings"
)

// Var maps variable names to values.
type Var map[string]string

// Env resolves ${VAR} references against a set of overrides layered on
// top of the process environment.
type Env struct {
	// Var holds overrides consulted before the process environment.
	Var Var

	env Var
}

func New() *Env {
	return &Env{Var: make(Var)}
}

// FromOS snapshots the current process environment as the expansion
// base. Expand calls it lazily, so explicit use is only needed when the
// environment changes between expansions.
func (e *Env) FromOS() {
	base := make(Var)
	for _, kv := range os.Environ() {
		i := strings.IndexByte(kv, '=')
		if i <= 0 {
			continue
		}
		base[kv[:i]] = kv[i+1:]
	}
	e.env = base
}

// Set adds an override consulted before the process environment.
func (e *Env) Set(k, v string) {
	if e.Var == nil {
		e.Var = make(Var)
	}
	e.Var[k] = v
}

// Unset removes an override. The process environment is unaffected.
func (e *Env) Unset(k string) {
	delete(e.Var, k)
}

// Expand replaces ${VAR} references in s until no known reference
// remains. Unknown variables are left untouched so broken references
// surface in downstream errors instead of collapsing to empty strings.
// The pass count is bounded, so cyclic definitions terminate with the
// cycle left in place.
func (e *Env) Expand(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	m := e.composed()
	res := s
	// Enough passes for any acyclic chain; cycles exhaust the limit.
	limit := strings.Count(s, "$") + len(m) + 1
	for i := 0; i < limit; i++ {
		prev := res
		for k, v := range m {
			res = strings.ReplaceAll(res, "${"+k+"}", v)
		}
		if res == prev || !strings.Contains(res, "${") {
			break
		}
	}
	return res
}

func (e *Env) composed() Var {
	if e.env == nil {
		e.FromOS()
	}
	m := make(Var, len(e.env)+len(e.Var))
	for k, v := range e.env {
		m[k] = v
	}
	for k, v := range e.Var {
		if k == "" {
			continue
		}
		m[k] = v
	}
	return m
}
