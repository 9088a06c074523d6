// SPDX-License-Identifier: MIT

package health

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// BinaryChecker verifies an external tool is resolvable on PATH.
type BinaryChecker struct {
	name string
	bin  string
}

func NewBinaryChecker(name, bin string) *BinaryChecker {
	return &BinaryChecker{name: name, bin: bin}
}

func (c *BinaryChecker) Name() string { return c.name }

func (c *BinaryChecker) Check(_ context.Context) CheckResult {
	path, err := exec.LookPath(c.bin)
	if err != nil {
		return CheckResult{Status: StatusUnhealthy, Error: fmt.Sprintf("%s not found", c.bin)}
	}
	return CheckResult{Status: StatusHealthy, Message: path}
}

// EncoderChecker verifies the encoder binary exists and advertises
// libx265 support.
type EncoderChecker struct {
	bin string
}

func NewEncoderChecker(bin string) *EncoderChecker {
	return &EncoderChecker{bin: bin}
}

func (c *EncoderChecker) Name() string { return "ffmpeg" }

func (c *EncoderChecker) Check(ctx context.Context) CheckResult {
	if _, err := exec.LookPath(c.bin); err != nil {
		return CheckResult{Status: StatusUnhealthy, Error: fmt.Sprintf("%s not found", c.bin)}
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	out, err := exec.CommandContext(ctx, c.bin, "-hide_banner", "-encoders").Output()
	if err != nil {
		return CheckResult{Status: StatusDegraded, Error: "encoder list unavailable: " + err.Error()}
	}
	if !strings.Contains(string(out), "libx265") {
		return CheckResult{Status: StatusUnhealthy, Error: "libx265 encoder not available"}
	}
	return CheckResult{Status: StatusHealthy, Message: "libx265 available"}
}

// DirChecker verifies a directory exists and is writable.
type DirChecker struct {
	name string
	dir  string
}

func NewDirChecker(name, dir string) *DirChecker {
	return &DirChecker{name: name, dir: dir}
}

func (c *DirChecker) Name() string { return c.name }

func (c *DirChecker) Check(_ context.Context) CheckResult {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return CheckResult{Status: StatusUnhealthy, Error: err.Error()}
	}
	probe := filepath.Join(c.dir, ".writable")
	if err := os.WriteFile(probe, nil, 0o600); err != nil {
		return CheckResult{Status: StatusUnhealthy, Error: "not writable: " + err.Error()}
	}
	_ = os.Remove(probe)
	return CheckResult{Status: StatusHealthy, Message: c.dir}
}

// PingChecker wraps an optional dependency's ping; failure degrades
// rather than breaks readiness.
type PingChecker struct {
	name string
	ping func(context.Context) error
}

func NewPingChecker(name string, ping func(context.Context) error) *PingChecker {
	return &PingChecker{name: name, ping: ping}
}

func (c *PingChecker) Name() string { return c.name }

func (c *PingChecker) Check(ctx context.Context) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := c.ping(ctx); err != nil {
		return CheckResult{Status: StatusDegraded, Error: err.Error()}
	}
	return CheckResult{Status: StatusHealthy}
}
