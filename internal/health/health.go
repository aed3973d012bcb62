package health

import (
	"encoding/json"
	"fmt"
	"runtime"
	"strings"
	"time"
)

// Snapshot is a runtime health snapshot of the current process.
type Snapshot struct {
	Status     string       `json:"status"`
	Goroutines int          `json:"goroutines"`
	Memory     MemoryInfo   `json:"memory"`
	Runtime    RuntimeInfo  `json:"runtime"`
	Timestamp  string       `json:"timestamp"`
	Summary    *SummaryInfo `json:"summary,omitempty"`
}

// MemoryInfo contains memory statistics in MB.
type MemoryInfo struct {
	AllocMB      float64 `json:"allocMB"`
	TotalAllocMB float64 `json:"totalAllocMB"`
	SysMB        float64 `json:"sysMB"`
	NumGC        uint32  `json:"numGC"`
}

// RuntimeInfo contains Go runtime metadata.
type RuntimeInfo struct {
	Version string `json:"version"`
	OS      string `json:"os"`
	Arch    string `json:"arch"`
	CPUs    int    `json:"cpus"`
}

// SummaryInfo describes the effective summary pipeline settings.
type SummaryInfo struct {
	ConfigPath  string   `json:"configPath,omitempty"`
	ConfigError string   `json:"configError,omitempty"`
	Enabled     bool     `json:"enabled"`
	ServiceURL  string   `json:"serviceUrl"`
	Timeout     string   `json:"timeout"`
	MaxRetries  int      `json:"maxRetries"`
	Postprocess bool     `json:"llmPostprocess"`
	Provider    string   `json:"provider,omitempty"`
	Channels    []string `json:"channels,omitempty"`
}

// Options controls optional health details.
type Options struct {
	Summary *SummaryInfo
}

// Collect returns a health snapshot for the current process. A summary
// section with a configuration error or replies switched off reports
// "degraded".
func Collect(opts Options) Snapshot {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	s := Snapshot{
		Status:     "healthy",
		Goroutines: runtime.NumGoroutine(),
		Memory: MemoryInfo{
			AllocMB:      float64(mem.Alloc) / 1024 / 1024,
			TotalAllocMB: float64(mem.TotalAlloc) / 1024 / 1024,
			SysMB:        float64(mem.Sys) / 1024 / 1024,
			NumGC:        mem.NumGC,
		},
		Runtime: RuntimeInfo{
			Version: runtime.Version(),
			OS:      runtime.GOOS,
			Arch:    runtime.GOARCH,
			CPUs:    runtime.NumCPU(),
		},
		Timestamp: time.Now().Format(time.RFC3339),
		Summary:   opts.Summary,
	}
	if s.Summary != nil && (s.Summary.ConfigError != "" || !s.Summary.Enabled) {
		s.Status = "degraded"
	}
	return s
}

// JSON renders the snapshot as indented JSON.
func (s Snapshot) JSON() (string, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// FormatText formats a snapshot into a human-readable text block.
func FormatText(s Snapshot) string {
	var b strings.Builder
	b.WriteString("urlsummarizer Health\n")
	b.WriteString("====================\n\n")
	b.WriteString(fmt.Sprintf("Status: %s\n\n", s.Status))
	b.WriteString("Memory:\n")
	b.WriteString(fmt.Sprintf("  Allocated: %.2f MB\n", s.Memory.AllocMB))
	b.WriteString(fmt.Sprintf("  Total Allocated: %.2f MB\n", s.Memory.TotalAllocMB))
	b.WriteString(fmt.Sprintf("  System: %.2f MB\n", s.Memory.SysMB))
	b.WriteString(fmt.Sprintf("  GC Cycles: %d\n\n", s.Memory.NumGC))
	b.WriteString("Runtime:\n")
	b.WriteString(fmt.Sprintf("  Go Version: %s\n", s.Runtime.Version))
	b.WriteString(fmt.Sprintf("  OS/Arch: %s/%s\n", s.Runtime.OS, s.Runtime.Arch))
	b.WriteString(fmt.Sprintf("  CPUs: %d\n", s.Runtime.CPUs))
	b.WriteString(fmt.Sprintf("  Goroutines: %d\n", s.Goroutines))

	if s.Summary != nil {
		sum := s.Summary
		b.WriteString("\nSummary:\n")
		if sum.ConfigPath != "" {
			b.WriteString(fmt.Sprintf("  Config: %s\n", sum.ConfigPath))
		}
		b.WriteString(fmt.Sprintf("  Enabled: %t\n", sum.Enabled))
		if sum.ConfigError != "" {
			b.WriteString(fmt.Sprintf("  Config Error: %s\n", sum.ConfigError))
		}
		b.WriteString(fmt.Sprintf("  Service: %s\n", sum.ServiceURL))
		b.WriteString(fmt.Sprintf("  Timeout: %s\n", sum.Timeout))
		b.WriteString(fmt.Sprintf("  Max Retries: %d\n", sum.MaxRetries))
		b.WriteString(fmt.Sprintf("  LLM Postprocess: %t\n", sum.Postprocess))
		if sum.Provider != "" {
			b.WriteString(fmt.Sprintf("  Provider: %s\n", sum.Provider))
		}
		if len(sum.Channels) > 0 {
			b.WriteString(fmt.Sprintf("  Channels: %s\n", strings.Join(sum.Channels, ", ")))
		}
	}
	return b.String()
}
