// SPDX-License-Identifier: MIT

package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"sort"
	"strings"

	"github.com/rs/zerolog"
)

// Metadata is the structured description of the remote resource
// returned by metadata resolution.
type Metadata struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Duration float64 `json:"duration"`
	Ext      string  `json:"ext"`
}

// Request carries one strategy invocation against one target.
type Request struct {
	Target      string
	Workspace   string
	Strategy    Strategy
	CookiesFile string // non-empty only when the strategy requires it
}

// Runner abstracts the external extraction capability for testing.
type Runner interface {
	// Resolve performs metadata resolution without content transfer.
	Resolve(ctx context.Context, req Request) (*Metadata, error)
	// Download materializes the media file(s) into the workspace.
	Download(ctx context.Context, req Request) error
}

// CLIRunner invokes the yt-dlp binary. Failure categories are
// distinguishable only through the tool's stderr text, which is
// returned verbatim in the error for phrase classification.
type CLIRunner struct {
	Bin    string
	Logger zerolog.Logger
}

func (r *CLIRunner) Resolve(ctx context.Context, req Request) (*Metadata, error) {
	args := append(r.commonArgs(req), "--skip-download", "--dump-single-json", req.Target)

	out, err := r.run(ctx, args)
	if err != nil {
		return nil, err
	}

	var meta Metadata
	if err := json.Unmarshal(out, &meta); err != nil {
		return nil, fmt.Errorf("could not extract video information: %w", err)
	}
	return &meta, nil
}

func (r *CLIRunner) Download(ctx context.Context, req Request) error {
	args := append(r.commonArgs(req),
		"--output", req.Workspace+"/%(title)s.%(ext)s",
		req.Target,
	)
	_, err := r.run(ctx, args)
	return err
}

// commonArgs merges the strategy's fixed fields with hardening
// defaults: timeout ceilings, fragment-retry limits, and never reading
// local browser state (unsafe in a server context).
func (r *CLIRunner) commonArgs(req Request) []string {
	s := req.Strategy
	args := []string{
		"--no-playlist",
		"--no-warnings",
		"--socket-timeout", "30",
		"--retries", "3",
		"--fragment-retries", "3",
		"--no-keep-fragments",
	}

	if s.UserAgent != "" {
		args = append(args, "--user-agent", s.UserAgent)
	}
	// Stable header order keeps invocations reproducible in logs.
	keys := make([]string, 0, len(s.Headers))
	for k := range s.Headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		args = append(args, "--add-header", k+":"+s.Headers[k])
	}

	if s.Format != "" {
		args = append(args, "--format", s.Format)
	}

	var extractorArgs []string
	if len(s.PlayerClients) > 0 {
		extractorArgs = append(extractorArgs, "player_client="+strings.Join(s.PlayerClients, ","))
	}
	if len(s.InnertubeHosts) > 0 {
		extractorArgs = append(extractorArgs, "innertube_host="+strings.Join(s.InnertubeHosts, ","))
	}
	if len(extractorArgs) > 0 {
		args = append(args, "--extractor-args", "youtube:"+strings.Join(extractorArgs, ";"))
	}

	if s.GeoBypass {
		args = append(args, "--xff", s.GeoCountry)
	}
	if s.IgnoreErrors {
		args = append(args, "--ignore-errors")
	}
	if req.CookiesFile != "" {
		args = append(args, "--cookies", req.CookiesFile)
	}

	return args
}

func (r *CLIRunner) run(ctx context.Context, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, r.Bin, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.Logger.Debug().Str("bin", r.Bin).Strs("args", args).Msg("invoking extractor")

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return nil, fmt.Errorf("%s", msg)
	}
	return stdout.Bytes(), nil
}
