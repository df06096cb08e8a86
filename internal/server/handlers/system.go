package handlers

import (
	"context"
	"net/http"
	"os"
	"runtime"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/seasontracker/internal/logger"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/process"
)

// SystemStats is a snapshot of host and process resource usage.
type SystemStats struct {
	CPUCount          int      `json:"cpu_count"`
	Goroutines        int      `json:"goroutines"`
	MemoryTotal       uint64   `json:"memory_total"`
	MemoryUsedPercent float64  `json:"memory_used_percent"`
	ProcessRSS        uint64   `json:"process_rss"`
	Load1             *float64 `json:"load_1,omitempty"`
	Load5             *float64 `json:"load_5,omitempty"`
}

// CollectSystemStats gathers what the platform supports. Load averages are
// left out where gopsutil cannot read them.
func CollectSystemStats(ctx context.Context) (SystemStats, error) {
	stats := SystemStats{Goroutines: runtime.NumGoroutine()}

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return stats, err
	}
	stats.MemoryTotal = vm.Total
	stats.MemoryUsedPercent = vm.UsedPercent

	if n, err := cpu.CountsWithContext(ctx, true); err == nil {
		stats.CPUCount = n
	} else {
		stats.CPUCount = runtime.NumCPU()
	}

	if avg, err := load.AvgWithContext(ctx); err == nil {
		stats.Load1, stats.Load5 = &avg.Load1, &avg.Load5
	}

	if p, err := process.NewProcessWithContext(ctx, int32(os.Getpid())); err == nil {
		if info, err := p.MemoryInfoWithContext(ctx); err == nil {
			stats.ProcessRSS = info.RSS
		}
	}
	return stats, nil
}

// HandleSystemHealth reports host memory, load and process RSS.
func (h *HealthHandler) HandleSystemHealth(c *gin.Context) {
	stats, err := CollectSystemStats(c.Request.Context())
	if err != nil {
		logger.Warn("failed to collect system stats", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unavailable",
			"error":  err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"system": stats,
	})
}
