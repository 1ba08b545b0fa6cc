package app

import (
	"context"
	"runtime"

	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/mem"

	"dockerlab/internal/util"
)

const bytesPerMB = 1024 * 1024

// MemoryUsage describes the Go heap of this process.
type MemoryUsage struct {
	AllocMB uint64 `json:"alloc_mb"`
	SysMB   uint64 `json:"sys_mb"`
	NumGC   uint32 `json:"num_gc"`
}

// SystemUsage describes the host the process runs on.
type SystemUsage struct {
	MemoryPercent float64 `json:"memory_percent"`
	MemoryTotalMB uint64  `json:"memory_total_mb"`
	CPUCount      int     `json:"cpu_count"`
}

// RuntimeInfo is reported by /api/info.
type RuntimeInfo struct {
	GoVersion     string       `json:"go_version"`
	OS            string       `json:"os"`
	Arch          string       `json:"arch"`
	NumCPU        int          `json:"num_cpu"`
	NumGoroutines int          `json:"num_goroutines"`
	MemoryUsage   MemoryUsage  `json:"memory_usage"`
	System        *SystemUsage `json:"system,omitempty"`
}

// RuntimeInfo snapshots process and host figures. Host figures are
// omitted when the platform does not expose them.
func (a *App) RuntimeInfo(ctx context.Context) RuntimeInfo {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	info := RuntimeInfo{
		GoVersion:     runtime.Version(),
		OS:            runtime.GOOS,
		Arch:          runtime.GOARCH,
		NumCPU:        runtime.NumCPU(),
		NumGoroutines: runtime.NumGoroutine(),
		MemoryUsage: MemoryUsage{
			AllocMB: ms.Alloc / bytesPerMB,
			SysMB:   ms.Sys / bytesPerMB,
			NumGC:   ms.NumGC,
		},
	}

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		util.LoggerFromContext(ctx).Debug("host memory unavailable", "err", err)
		return info
	}
	cpus, err := cpu.CountsWithContext(ctx, true)
	if err != nil {
		cpus = info.NumCPU
	}
	info.System = &SystemUsage{
		MemoryPercent: vm.UsedPercent,
		MemoryTotalMB: vm.Total / bytesPerMB,
		CPUCount:      cpus,
	}
	return info
}
