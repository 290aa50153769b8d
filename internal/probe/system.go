// internal/probe/system.go
// Package: probe
package probe

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"strings"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
)

const bytesPerGB = 1024 * 1024 * 1024

// SystemInfo describes the host a benchmark ran on. It is read once at start.
type SystemInfo struct {
	CPU           string  `json:"cpu"`
	RAMTotalGB    float64 `json:"ram_gb"`
	Platform      string  `json:"platform"`
	PhysicalCores int     `json:"cores"`
}

// GetSystemInfo reads the CPU label, total RAM (GB, one decimal), platform
// label and physical core count. The CPU label falls back to the machine
// architecture when the model name is unknown.
func GetSystemInfo(ctx context.Context) (SystemInfo, error) {
	var info SystemInfo

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return info, fmt.Errorf("read memory: %w", err)
	}
	info.RAMTotalGB = math.Round(float64(vm.Total)/bytesPerGB*10) / 10

	cores, err := cpu.CountsWithContext(ctx, false)
	if err != nil {
		return info, fmt.Errorf("count cores: %w", err)
	}
	info.PhysicalCores = cores

	arch := runtime.GOARCH
	if h, err := host.InfoWithContext(ctx); err == nil {
		if h.KernelArch != "" {
			arch = h.KernelArch
		}
		info.Platform = platformLabel(h)
	} else {
		info.Platform = runtime.GOOS + "-" + runtime.GOARCH
	}

	info.CPU = arch
	if stats, err := cpu.InfoWithContext(ctx); err == nil && len(stats) > 0 {
		if name := strings.TrimSpace(stats[0].ModelName); name != "" {
			info.CPU = name
		}
	}
	return info, nil
}

func platformLabel(h *host.InfoStat) string {
	parts := []string{h.OS}
	if h.Platform != "" {
		parts = append(parts, h.Platform)
	}
	if h.PlatformVersion != "" {
		parts = append(parts, h.PlatformVersion)
	}
	if h.KernelArch != "" {
		parts = append(parts, h.KernelArch)
	}
	return strings.Join(parts, "-")
}

// CompatibilityScore awards a third of a point each for at least 16 GB of
// RAM, at least 8 physical cores and an ARM CPU.
func CompatibilityScore(info SystemInfo) float64 {
	score := 0
	if info.RAMTotalGB >= 16 {
		score++
	}
	if info.PhysicalCores >= 8 {
		score++
	}
	if strings.Contains(strings.ToLower(info.CPU), "arm") {
		score++
	}
	return float64(score) / 3.0
}
