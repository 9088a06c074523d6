// SPDX-License-Identifier: MIT

package extract

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func commonArgString(req Request) string {
	r := &CLIRunner{Bin: "yt-dlp", Logger: zerolog.Nop()}
	return strings.Join(r.commonArgs(req), " ")
}

func TestCommonArgs_HardeningDefaults(t *testing.T) {
	s := commonArgString(Request{Strategy: Catalog()[0]})

	assert.Contains(t, s, "--no-playlist")
	assert.Contains(t, s, "--no-warnings")
	assert.Contains(t, s, "--socket-timeout 30")
	assert.Contains(t, s, "--retries 3")
	assert.Contains(t, s, "--fragment-retries 3")
	assert.Contains(t, s, "--no-keep-fragments")
}

func TestCommonArgs_IdentityProfile(t *testing.T) {
	best := Catalog()[0]
	s := commonArgString(Request{Strategy: best})

	assert.Contains(t, s, "--user-agent "+best.UserAgent)
	assert.Contains(t, s, "--format "+best.Format)
	assert.Contains(t, s, "--extractor-args youtube:player_client=web,android,ios;innertube_host=www.youtube.com,youtubei.googleapis.com")
	// Headers are emitted in stable sorted order.
	assert.Less(t,
		strings.Index(s, "--add-header Accept:"),
		strings.Index(s, "--add-header DNT:"))
}

func TestCommonArgs_GeoBypass(t *testing.T) {
	s := commonArgString(Request{Strategy: Catalog()[3]})
	assert.Contains(t, s, "--xff US")
}

func TestCommonArgs_IgnoreErrors(t *testing.T) {
	assert.Contains(t, commonArgString(Request{Strategy: Catalog()[5]}), "--ignore-errors")
	assert.NotContains(t, commonArgString(Request{Strategy: Catalog()[0]}), "--ignore-errors")
}

func TestCommonArgs_CookiesOnlyWhenProvided(t *testing.T) {
	withCookies := Request{Strategy: Catalog()[1], CookiesFile: "/data/cookies.txt"}
	assert.Contains(t, commonArgString(withCookies), "--cookies /data/cookies.txt")

	without := Request{Strategy: Catalog()[0]}
	assert.NotContains(t, commonArgString(without), "--cookies")
}

func TestCLIRunner_ResolveParsesMetadata(t *testing.T) {
	bin := filepath.Join(t.TempDir(), "fake-ytdlp.sh")
	script := `#!/bin/sh
echo '{"id":"dQw4w9WgXcQ","title":"A Video","duration":212.0,"ext":"mp4"}'
`
	require.NoError(t, os.WriteFile(bin, []byte(script), 0o755))

	r := &CLIRunner{Bin: bin, Logger: zerolog.Nop()}
	meta, err := r.Resolve(context.Background(), Request{Target: "dQw4w9WgXcQ", Strategy: Catalog()[0]})
	require.NoError(t, err)
	assert.Equal(t, "dQw4w9WgXcQ", meta.ID)
	assert.Equal(t, "A Video", meta.Title)
	assert.InDelta(t, 212.0, meta.Duration, 0.001)
}

func TestCLIRunner_StderrBecomesErrorText(t *testing.T) {
	bin := filepath.Join(t.TempDir(), "fake-ytdlp.sh")
	script := `#!/bin/sh
echo "ERROR: Sign in to confirm you're not a bot" >&2
exit 1
`
	require.NoError(t, os.WriteFile(bin, []byte(script), 0o755))

	r := &CLIRunner{Bin: bin, Logger: zerolog.Nop()}
	_, err := r.Resolve(context.Background(), Request{Target: "x", Strategy: Catalog()[0]})
	require.Error(t, err)
	// The verbatim tool text must survive for phrase classification.
	assert.Contains(t, err.Error(), "Sign in to confirm")
}
