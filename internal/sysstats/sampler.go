// Package sysstats samples resource usage of the agent's own process so
// snapshots can carry it alongside the application counters.
package sysstats

import (
	"fmt"
	"os"
	"runtime"

	"AppPulse/internal/model"

	"github.com/shirou/gopsutil/v3/process"
)

// Sampler reads CPU and memory usage of the current process.
type Sampler struct {
	proc *process.Process
}

// NewSampler creates a sampler bound to the current process.
func NewSampler() (*Sampler, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, fmt.Errorf("failed to open own process: %w", err)
	}
	return &Sampler{proc: proc}, nil
}

// Sample returns the current resource usage. CPU percent is computed over
// the interval since the previous call.
func (s *Sampler) Sample() (model.SystemStats, error) {
	cpu, err := s.proc.CPUPercent()
	if err != nil {
		return model.SystemStats{}, fmt.Errorf("failed to read cpu usage: %w", err)
	}
	mem, err := s.proc.MemoryInfo()
	if err != nil {
		return model.SystemStats{}, fmt.Errorf("failed to read memory usage: %w", err)
	}
	return model.SystemStats{
		CPUPercent: cpu,
		RSSBytes:   mem.RSS,
		Goroutines: runtime.NumGoroutine(),
	}, nil
}
