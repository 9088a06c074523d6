// SPDX-License-Identifier: MIT

// Package sysinfo probes host resources to tune encoder settings.
// The probe is advisory only: any failure yields safe defaults and
// never blocks the pipeline.
package sysinfo

import (
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
)

// Advice is the encoder tuning derived from the host probe.
type Advice struct {
	// Threads is the encoder thread count; 0 lets the encoder decide.
	Threads int
	// Preset is the speed/efficiency trade-off handed to the encoder.
	Preset string
}

// DefaultAdvice matches the encoder flags used when probing fails.
func DefaultAdvice() Advice {
	return Advice{Threads: 0, Preset: "medium"}
}

// Detect probes logical CPU count and available memory. Encoding is
// capped below the full core count so the service stays responsive,
// and the preset is downgraded under memory pressure.
func Detect() Advice {
	advice := DefaultAdvice()

	if count, err := cpu.Counts(true); err == nil && count > 0 {
		threads := count - 1
		if threads < 1 {
			threads = 1
		}
		if threads > 8 {
			threads = 8
		}
		advice.Threads = threads
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		// x265 at medium needs roughly 2 GiB of headroom for 720p.
		if vm.Available < 2*1024*1024*1024 {
			advice.Preset = "fast"
		}
	}

	return advice
}
