// internal/probe/probe.go
// Package: probe
package probe

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
)

// Measurement is an optional numeric reading. Valid is false when the reading
// could not be taken.
type Measurement struct {
	Value float64
	Valid bool
}

// Absent is the missing reading.
var Absent = Measurement{}

// Some wraps a present reading.
func Some(v float64) Measurement { return Measurement{Value: v, Valid: true} }

// Probe samples host resources around a generation request.
//
// Every method blocks. CPUPercent blocks for its sampling window (about one
// second by default) and ThermalPower for the powermetrics window, so one
// before/after pair adds roughly four seconds to each sample.
type Probe interface {
	CPUPercent(ctx context.Context) (float64, error)
	RAMUsedGB(ctx context.Context) (float64, error)
	ThermalPower(ctx context.Context) (temp, power Measurement)
}

// ThermalSampler reads CPU temperature and power. Implementations never fail;
// they report absent readings instead.
type ThermalSampler interface {
	Sample(ctx context.Context) (temp, power Measurement)
}

// HostProbe is the gopsutil-backed Probe.
type HostProbe struct {
	// CPUWindow is the blocking window used for each CPU utilization sample.
	CPUWindow time.Duration
	// Thermal may be nil, in which case temperature and power are absent.
	Thermal ThermalSampler
}

// NewHostProbe returns a HostProbe sampling CPU over cpuWindow. A zero
// thermalWindow disables the thermal/power sampler.
func NewHostProbe(cpuWindow, thermalWindow time.Duration) *HostProbe {
	p := &HostProbe{CPUWindow: cpuWindow}
	if thermalWindow > 0 {
		p.Thermal = NewPowermetricsSampler(thermalWindow)
	}
	return p
}

// CPUPercent returns system-wide CPU utilization over the sampling window.
func (p *HostProbe) CPUPercent(ctx context.Context) (float64, error) {
	pct, err := cpu.PercentWithContext(ctx, p.CPUWindow, false)
	if err != nil {
		return 0, fmt.Errorf("sample cpu: %w", err)
	}
	if len(pct) == 0 {
		return 0, errors.New("sample cpu: no reading")
	}
	return pct[0], nil
}

// RAMUsedGB returns the memory currently in use, in GB.
func (p *HostProbe) RAMUsedGB(ctx context.Context) (float64, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("sample memory: %w", err)
	}
	return float64(vm.Used) / bytesPerGB, nil
}

// ThermalPower delegates to the configured sampler.
func (p *HostProbe) ThermalPower(ctx context.Context) (Measurement, Measurement) {
	if p.Thermal == nil {
		return Absent, Absent
	}
	return p.Thermal.Sample(ctx)
}
