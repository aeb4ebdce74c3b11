package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixdl/pixdl/internal/engine/types"
)

// isolate points every XDG directory into a fresh temp dir
func isolate(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(root, "config"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(root, "state"))
	t.Setenv("XDG_RUNTIME_DIR", filepath.Join(root, "run"))
	return root
}

func TestDirectories_HonourXDG(t *testing.T) {
	root := isolate(t)

	assert.Equal(t, filepath.Join(root, "config", "pixdl"), GetPixdlDir())
	assert.Equal(t, filepath.Join(root, "config", "pixdl", "settings.json"), GetSettingsPath())
	assert.Equal(t, filepath.Join(root, "state", "pixdl"), GetStateDir())
	assert.Equal(t, filepath.Join(root, "state", "pixdl", "logs"), GetLogsDir())
	assert.Equal(t, filepath.Join(root, "state", "pixdl", "history.db"), GetHistoryPath())
	assert.Equal(t, filepath.Join(root, "run", "pixdl"), GetRuntimeDir())

	require.NoError(t, EnsureDirs())
	for _, dir := range []string{GetPixdlDir(), GetStateDir(), GetLogsDir(), GetRuntimeDir()} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir(), dir)
	}
}

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()

	assert.NotEmpty(t, s.General.OutputDir)
	assert.Equal(t, types.GroupNone, s.General.GroupMode)
	assert.Equal(t, 5, s.General.LogRetentionCount)
	assert.Empty(t, s.Network.UserAgent)
	assert.Equal(t, types.RequestTimeout, s.Network.RequestTimeout)
	assert.Equal(t, 4, s.Network.MaxParallel)
	assert.Equal(t, types.RankDaily, s.Rank.Mode)
	assert.Equal(t, 1, s.Rank.Start)
	assert.Equal(t, 50, s.Rank.End)
}

func TestLoadSettings_MissingFile(t *testing.T) {
	isolate(t)

	s, err := LoadSettings()
	require.NoError(t, err)
	assert.Equal(t, DefaultSettings(), s)
}

func TestSaveAndLoadSettings(t *testing.T) {
	isolate(t)

	s := DefaultSettings()
	s.General.OutputDir = "/data/pixiv"
	s.General.GroupMode = types.GroupByAuthor
	s.Network.ProxyURL = "socks5://127.0.0.1:1080"
	s.Network.RequestTimeout = 5 * time.Second
	s.Rank.Mode = types.RankWeekly
	s.Rank.R18 = true

	require.NoError(t, SaveSettings(s))

	_, err := os.Stat(GetSettingsPath() + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file should be renamed away")

	data, err := os.ReadFile(GetSettingsPath())
	require.NoError(t, err)
	assert.Contains(t, string(data), `"group_mode": "author"`)
	assert.Contains(t, string(data), `"mode": "weekly"`)

	loaded, err := LoadSettings()
	require.NoError(t, err)
	assert.Equal(t, s, loaded)
}

func TestLoadSettings_Partial(t *testing.T) {
	isolate(t)
	require.NoError(t, os.MkdirAll(GetPixdlDir(), 0o755))
	require.NoError(t, os.WriteFile(GetSettingsPath(), []byte(`{"rank":{"end":10}}`), 0o644))

	s, err := LoadSettings()
	require.NoError(t, err)
	assert.Equal(t, 10, s.Rank.End)
	assert.Equal(t, 1, s.Rank.Start, "missing fields keep defaults")
	assert.Equal(t, 4, s.Network.MaxParallel)
}

func TestLoadSettings_Corrupted(t *testing.T) {
	isolate(t)
	require.NoError(t, os.MkdirAll(GetPixdlDir(), 0o755))
	require.NoError(t, os.WriteFile(GetSettingsPath(), []byte(`{not json`), 0o644))

	_, err := LoadSettings()
	assert.Error(t, err)
}

func TestLoadSettings_BadEnum(t *testing.T) {
	isolate(t)
	require.NoError(t, os.MkdirAll(GetPixdlDir(), 0o755))
	require.NoError(t, os.WriteFile(GetSettingsPath(), []byte(`{"general":{"group_mode":"tags"}}`), 0o644))

	_, err := LoadSettings()
	assert.Error(t, err)
}

func TestToRuntimeConfig(t *testing.T) {
	s := DefaultSettings()
	s.Network.UserAgent = "pixdl-test"
	s.Network.ProxyURL = "http://proxy:8080"
	s.Network.MaxParallel = 8
	s.Network.SkipTLSVerify = true
	s.General.TitleDirWithID = true

	rc := s.ToRuntimeConfig()
	assert.Equal(t, "pixdl-test", rc.UserAgent)
	assert.Equal(t, "http://proxy:8080", rc.ProxyURL)
	assert.Equal(t, 8, rc.GetMaxParallel())
	assert.Equal(t, types.RequestTimeout, rc.GetRequestTimeout())
	assert.True(t, rc.SkipTLSVerify)
	assert.True(t, rc.TitleDirWithID)
	assert.Equal(t, types.DefaultBaseURL, rc.GetBaseURL())
}

func TestGetSettingsMetadata_CoversEveryCategory(t *testing.T) {
	meta := GetSettingsMetadata()
	for _, cat := range CategoryOrder() {
		require.Contains(t, meta, cat)
		for _, m := range meta[cat] {
			assert.NotEmpty(t, m.Key)
			assert.NotEmpty(t, m.Label)
			assert.NotEmpty(t, m.Description)
			assert.Contains(t, []string{"string", "int", "bool", "duration", "group", "rank"}, m.Type, m.Key)
		}
	}
	assert.Len(t, meta, len(CategoryOrder()))
}

func TestLookup(t *testing.T) {
	cat, meta, ok := Lookup("max_parallel")
	require.True(t, ok)
	assert.Equal(t, "Network", cat)
	assert.Equal(t, "int", meta.Type)

	cat, _, ok = Lookup("rank.mode")
	require.True(t, ok)
	assert.Equal(t, "Rank", cat)

	_, _, ok = Lookup("general.mode")
	assert.False(t, ok, "category qualifier must match")

	_, _, ok = Lookup("nope")
	assert.False(t, ok)
}

func TestSettings_Set(t *testing.T) {
	s := DefaultSettings()

	require.NoError(t, s.Set("output_dir", "/tmp/out"))
	require.NoError(t, s.Set("group_mode", "artwork"))
	require.NoError(t, s.Set("network.max_parallel", "12"))
	require.NoError(t, s.Set("request_timeout", "1m30s"))
	require.NoError(t, s.Set("r18", "true"))
	require.NoError(t, s.Set("rank.mode", "Monthly"))

	assert.Equal(t, "/tmp/out", s.General.OutputDir)
	assert.Equal(t, types.GroupByArtwork, s.General.GroupMode)
	assert.Equal(t, 12, s.Network.MaxParallel)
	assert.Equal(t, 90*time.Second, s.Network.RequestTimeout)
	assert.True(t, s.Rank.R18)
	assert.Equal(t, types.RankMonthly, s.Rank.Mode)

	// untouched fields survive the round trip
	assert.Equal(t, 50, s.Rank.End)
	assert.Equal(t, types.WorkerBuffer, s.Network.WorkerBufferSize)
}

func TestSettings_SetRejectsBadValues(t *testing.T) {
	s := DefaultSettings()

	for key, value := range map[string]string{
		"max_parallel":    "many",
		"r18":             "maybe",
		"request_timeout": "soon",
		"group_mode":      "tags",
		"mode":            "yearly",
		"unknown_key":     "x",
	} {
		assert.Error(t, s.Set(key, value), key)
	}
	assert.Equal(t, DefaultSettings(), s, "failed sets leave settings unchanged")
}

func TestSettings_Get(t *testing.T) {
	s := DefaultSettings()
	s.Network.RequestTimeout = 45 * time.Second
	s.General.GroupMode = types.GroupByAuthor

	v, err := s.Get("request_timeout")
	require.NoError(t, err)
	assert.Equal(t, "45s", v)

	v, err = s.Get("group_mode")
	require.NoError(t, err)
	assert.Equal(t, "author", v)

	v, err = s.Get("end")
	require.NoError(t, err)
	assert.Equal(t, "50", v)

	_, err = s.Get("missing")
	assert.Error(t, err)
}

func TestSaveSettings_ConcurrentWriters(t *testing.T) {
	isolate(t)

	done := make(chan error, 4)
	for i := 0; i < 4; i++ {
		go func(n int) {
			s := DefaultSettings()
			s.Rank.End = 10 * (n + 1)
			done <- SaveSettings(s)
		}(i)
	}
	for i := 0; i < 4; i++ {
		require.NoError(t, <-done)
	}

	s, err := LoadSettings()
	require.NoError(t, err)
	assert.True(t, strings.Contains("10 20 30 40", fmt.Sprint(s.Rank.End)))
}
