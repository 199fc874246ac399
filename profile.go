// Copyright (c) 2025, Lux Industries Inc
// SPDX-License-Identifier: BSD-3-Clause

package lhe

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"runtime/pprof"
	"sort"
	"sync"
	"time"

	"github.com/montanaflynn/stats"
)

// ProfileConfig holds profiling configuration
type ProfileConfig struct {
	// CPUProfile enables CPU profiling to the specified file
	CPUProfile string
	// MemProfile enables heap profiling to the specified file
	MemProfile string
}

// Profiler writes pprof profiles around a workload
type Profiler struct {
	config    ProfileConfig
	cpuFile   *os.File
	startTime time.Time
}

// NewProfiler creates a new profiler with the given configuration
func NewProfiler(config ProfileConfig) *Profiler {
	return &Profiler{config: config}
}

// Start begins profiling
func (p *Profiler) Start() error {
	p.startTime = time.Now()
	if p.config.CPUProfile == "" {
		return nil
	}
	f, err := os.Create(p.config.CPUProfile)
	if err != nil {
		return fmt.Errorf("create CPU profile: %w", err)
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		f.Close()
		return fmt.Errorf("start CPU profile: %w", err)
	}
	p.cpuFile = f
	return nil
}

// Stop ends profiling, writes the heap profile and reports to w
func (p *Profiler) Stop(w io.Writer) error {
	fmt.Fprintf(w, "Profiling duration: %v\n", time.Since(p.startTime))

	if p.cpuFile != nil {
		pprof.StopCPUProfile()
		p.cpuFile.Close()
		p.cpuFile = nil
		fmt.Fprintf(w, "CPU profile written to: %s\n", p.config.CPUProfile)
	}

	if p.config.MemProfile != "" {
		f, err := os.Create(p.config.MemProfile)
		if err != nil {
			return fmt.Errorf("create memory profile: %w", err)
		}
		defer f.Close()
		runtime.GC()
		if err := pprof.WriteHeapProfile(f); err != nil {
			return fmt.Errorf("write memory profile: %w", err)
		}
		fmt.Fprintf(w, "Memory profile written to: %s\n", p.config.MemProfile)
	}
	return nil
}

// PrintMemStats writes heap statistics to w
func PrintMemStats(w io.Writer) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	fmt.Fprintf(w, "Memory Statistics:\n")
	fmt.Fprintf(w, "  Alloc:       %d MB\n", m.Alloc/1024/1024)
	fmt.Fprintf(w, "  TotalAlloc:  %d MB\n", m.TotalAlloc/1024/1024)
	fmt.Fprintf(w, "  Sys:         %d MB\n", m.Sys/1024/1024)
	fmt.Fprintf(w, "  NumGC:       %d\n", m.NumGC)
}

// Timings collects operation latencies by name. It is safe for concurrent
// use.
type Timings struct {
	mu      sync.Mutex
	samples map[string]stats.Float64Data
}

// NewTimings returns an empty collection
func NewTimings() *Timings {
	return &Timings{samples: make(map[string]stats.Float64Data)}
}

// Record adds one sample
func (t *Timings) Record(name string, d time.Duration) {
	t.mu.Lock()
	t.samples[name] = append(t.samples[name], float64(d))
	t.mu.Unlock()
}

// Time runs fn and records its duration under name
func (t *Timings) Time(name string, fn func() error) error {
	start := time.Now()
	err := fn()
	t.Record(name, time.Since(start))
	return err
}

// TimingSummary describes the samples of one operation
type TimingSummary struct {
	Name  string
	Count int
	Mean  time.Duration
	P50   time.Duration
	P99   time.Duration
	Max   time.Duration
}

// Summaries returns one summary per operation, sorted by name
func (t *Timings) Summaries() []TimingSummary {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]TimingSummary, 0, len(t.samples))
	for name, data := range t.samples {
		mean, _ := data.Mean()
		p50, _ := data.Percentile(50)
		p99, _ := data.Percentile(99)
		peak, _ := data.Max()
		out = append(out, TimingSummary{
			Name:  name,
			Count: len(data),
			Mean:  time.Duration(mean),
			P50:   time.Duration(p50),
			P99:   time.Duration(p99),
			Max:   time.Duration(peak),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Print writes a table of the summaries to w
func (t *Timings) Print(w io.Writer) {
	for _, s := range t.Summaries() {
		fmt.Fprintf(w, "%-24s n=%-5d mean=%-12v p50=%-12v p99=%-12v max=%v\n",
			s.Name, s.Count, s.Mean, s.P50, s.P99, s.Max)
	}
}
