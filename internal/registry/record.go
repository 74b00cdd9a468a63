package registry

// Record is the persisted snapshot of one supervised process. The
// external runner writes the initial record (pid and stream paths, no
// return code) when it starts the process and fills in ReturnCode when
// the process exits. The registry itself only ever mutates ReturnCode,
// and only to the -1 sentinel when it discovers the OS process has
// vanished without a recorded exit.
type Record struct {
	PID        int    `json:"pid"`
	Stdin      string `json:"stdin,omitempty"`
	Stdout     string `json:"stdout,omitempty"`
	Stderr     string `json:"stderr,omitempty"`
	ReturnCode *int   `json:"returncode,omitempty"`
	WorkDir    string `json:"wdir"`
}

// Terminated reports whether the process is known to have exited. A nil
// ReturnCode means the process is assumed live until a signal attempt
// proves otherwise.
func (r Record) Terminated() bool { return r.ReturnCode != nil }

// Entry pairs a registry name with its loaded record.
type Entry struct {
	Name   string `json:"name"`
	Record Record `json:"record"`
}
