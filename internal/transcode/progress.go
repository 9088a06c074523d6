// SPDX-License-Identifier: MIT

package transcode

import (
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Progress is a live snapshot of an encode. Its absence never alters
// the outcome; it exists only for observation.
type Progress struct {
	Frame    int
	FPS      float64
	OutTime  time.Duration
	Speed    string
	Duration time.Duration
	// Fraction is OutTime/Duration when both are known, else 0.
	Fraction float64
}

var (
	durationRe = regexp.MustCompile(`Duration:\s*(\d+:\d+:\d+(?:\.\d+)?)`)
	frameRe    = regexp.MustCompile(`frame=\s*(\d+)`)
	fpsRe      = regexp.MustCompile(`fps=\s*([\d.]+)`)
	timeRe     = regexp.MustCompile(`time=\s*(\d+:\d+:\d+(?:\.\d+)?)`)
	speedRe    = regexp.MustCompile(`speed=\s*([\d.]+x)`)
)

// progressParser accumulates encoder progress from both output
// channels: the machine-readable key=value stream and the human
// diagnostic stream.
type progressParser struct {
	mu       sync.Mutex
	cur      Progress
	onUpdate func(Progress)
}

// seedDuration installs the total duration when already known from
// probing, so the completion fraction is available before the encoder
// prints its own header.
func (p *progressParser) seedDuration(d time.Duration) {
	if d <= 0 {
		return
	}
	p.mu.Lock()
	p.cur.Duration = d
	p.mu.Unlock()
}

// consumeProgressLine handles one key=value line from the progress pipe.
func (p *progressParser) consumeProgressLine(line string) {
	key, val, ok := strings.Cut(strings.TrimSpace(line), "=")
	if !ok {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	switch key {
	case "frame":
		if v, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			p.cur.Frame = v
		}
	case "fps":
		if v, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
			p.cur.FPS = v
		}
	case "out_time_us":
		if v, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64); err == nil {
			p.cur.OutTime = time.Duration(v) * time.Microsecond
		}
	case "speed":
		p.cur.Speed = strings.TrimSpace(val)
	case "progress":
		// "progress" is the flush marker for one snapshot block.
		if strings.TrimSpace(val) == "end" {
			p.cur.Fraction = 1.0
		}
		p.flushLocked()
	}
}

// consumeDiagnosticLine scans a diagnostic-stream line for the total
// duration (printed once, early) and the periodic stats counters.
func (p *progressParser) consumeDiagnosticLine(line string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cur.Duration == 0 {
		if m := durationRe.FindStringSubmatch(line); m != nil {
			if d, ok := parseClock(m[1]); ok {
				p.cur.Duration = d
			}
		}
	}

	updated := false
	if m := frameRe.FindStringSubmatch(line); m != nil {
		if v, err := strconv.Atoi(m[1]); err == nil {
			p.cur.Frame = v
			updated = true
		}
	}
	if m := fpsRe.FindStringSubmatch(line); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			p.cur.FPS = v
			updated = true
		}
	}
	if m := timeRe.FindStringSubmatch(line); m != nil {
		if d, ok := parseClock(m[1]); ok {
			p.cur.OutTime = d
			updated = true
		}
	}
	if m := speedRe.FindStringSubmatch(line); m != nil {
		p.cur.Speed = m[1]
		updated = true
	}

	if updated {
		p.flushLocked()
	}
}

func (p *progressParser) flushLocked() {
	if p.cur.Duration > 0 && p.cur.OutTime > 0 && p.cur.Fraction < 1.0 {
		f := float64(p.cur.OutTime) / float64(p.cur.Duration)
		if f > 1.0 {
			f = 1.0
		}
		p.cur.Fraction = f
	}
	if p.onUpdate != nil {
		p.onUpdate(p.cur)
	}
}

// snapshot returns the current progress state.
func (p *progressParser) snapshot() Progress {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cur
}

// parseClock parses an HH:MM:SS[.fraction] timestamp.
func parseClock(s string) (time.Duration, bool) {
	parts := strings.SplitN(s, ":", 3)
	if len(parts) != 3 {
		return 0, false
	}
	h, err1 := strconv.Atoi(parts[0])
	m, err2 := strconv.Atoi(parts[1])
	sec, err3 := strconv.ParseFloat(parts[2], 64)
	if err1 != nil || err2 != nil || err3 != nil {
		return 0, false
	}
	total := time.Duration(h)*time.Hour +
		time.Duration(m)*time.Minute +
		time.Duration(sec*float64(time.Second))
	return total, true
}
