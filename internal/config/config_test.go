// SPDX-License-Identifier: MIT

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("CLIPFORGE_STORE_CLOUD_NAME", "demo")
	t.Setenv("CLIPFORGE_STORE_API_KEY", "key")
	t.Setenv("CLIPFORGE_STORE_API_SECRET", "secret")
}

func TestLoad_DefaultsWithRequiredEnv(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Listen)
	assert.Equal(t, "/var/lib/clipforge", cfg.DataDir)
	assert.Equal(t, 500, cfg.MaxVideoSizeMB)
	assert.Equal(t, "ffmpeg", cfg.FFmpegBin)
	assert.Equal(t, 30*time.Minute, cfg.EncodeTimeout())
	assert.Equal(t, 30*time.Second, cfg.ProbeTimeout())
	assert.Equal(t, int64(500)*1024*1024, cfg.MaxVideoBytes())
}

func TestLoad_MissingCredentialsFails(t *testing.T) {
	t.Setenv("CLIPFORGE_STORE_CLOUD_NAME", "")
	t.Setenv("CLIPFORGE_STORE_API_KEY", "")
	t.Setenv("CLIPFORGE_STORE_API_SECRET", "")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CLIPFORGE_STORE_CLOUD_NAME")
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	setRequiredEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"listen: \":9090\"\nmax_video_size_mb: 100\nencode_timeout_s: 600\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Listen)
	assert.Equal(t, 100, cfg.MaxVideoSizeMB)
	assert.Equal(t, 10*time.Minute, cfg.EncodeTimeout())
}

func TestLoad_EnvBeatsFile(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("CLIPFORGE_LISTEN", ":7070")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen: \":9090\"\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Listen)
}

func TestLoad_AutoConfigFromDataDir(t *testing.T) {
	setRequiredEnv(t)
	dataDir := t.TempDir()
	t.Setenv("CLIPFORGE_DATA", dataDir)
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "config.yaml"),
		[]byte("max_video_size_mb: 50\n"), 0o600))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.MaxVideoSizeMB)
	assert.Equal(t, dataDir, cfg.DataDir)
}

func TestLoad_UnreadableFileFails(t *testing.T) {
	setRequiredEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate_Bounds(t *testing.T) {
	cfg := Defaults()
	cfg.StoreCloudName = "c"
	cfg.StoreAPIKey = "k"
	cfg.StoreAPISecret = "s"
	require.NoError(t, cfg.Validate())

	bad := cfg
	bad.MaxVideoSizeMB = 0
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.EncodeTimeoutS = -1
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.DataDir = ""
	assert.Error(t, bad.Validate())
}
