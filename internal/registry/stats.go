package registry

import (
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v4/process"
)

// ProcessStats holds a point-in-time resource sample for one live
// registry entry.
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

// Stats samples CPU and memory usage for every entry still assumed
// live. Entries whose process cannot be inspected, because it exited,
// its record is unreadable, or access is denied, are skipped rather
// than failing the whole sample.
func (r *Registry) Stats() ([]ProcessStats, error) {
	entries, err := r.Entries()
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	stats := make([]ProcessStats, 0, len(entries))
	for _, e := range entries {
		if e.Record.Terminated() {
			continue
		}
		s, err := sampleProcess(e.Name, e.Record.PID, now)
		if err != nil {
			r.logger.Debug("skipping stats for entry", "name", e.Name, "pid", e.Record.PID, "error", err)
			continue
		}
		stats = append(stats, s)
	}
	return stats, nil
}

func sampleProcess(name string, pid int, at time.Time) (ProcessStats, error) {
	proc, err := process.NewProcess(int32(pid))
	if err != nil {
		return ProcessStats{}, err
	}
	memInfo, err := proc.MemoryInfo()
	if err != nil {
		return ProcessStats{}, err
	}

	s := ProcessStats{
		Name:      name,
		PID:       pid,
		MemoryRSS: memInfo.RSS,
		MemoryVMS: memInfo.VMS,
		MemoryMB:  float64(memInfo.RSS) / 1024 / 1024,
		SampledAt: at,
	}
	if cpu, err := proc.CPUPercent(); err == nil {
		s.CPUPercent = cpu
	}
	if threads, err := proc.NumThreads(); err == nil {
		s.NumThreads = threads
	}
	if runtime.GOOS != "windows" {
		if fds, err := proc.NumFDs(); err == nil {
			s.NumFDs = fds
		}
	}
	return s, nil
}
