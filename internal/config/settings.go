package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"github.com/pixdl/pixdl/internal/engine/types"
)

// Settings holds all user-configurable application settings organized by category.
type Settings struct {
	General GeneralSettings `json:"general"`
	Network NetworkSettings `json:"network"`
	Rank    RankSettings    `json:"rank"`
}

// GeneralSettings contains output and application behaviour settings.
type GeneralSettings struct {
	OutputDir         string          `json:"output_dir"`
	GroupMode         types.GroupMode `json:"group_mode"`
	TitleDirWithID    bool            `json:"title_dir_with_id"`
	Theme             int             `json:"theme"`
	LogRetentionCount int             `json:"log_retention_count"`
}

const (
	ThemeAdaptive = 0
	ThemeLight    = 1
	ThemeDark     = 2
)

// NetworkSettings contains HTTP parameters.
type NetworkSettings struct {
	UserAgent        string        `json:"user_agent"`
	ProxyURL         string        `json:"proxy_url"`
	RequestTimeout   time.Duration `json:"request_timeout"`
	MaxParallel      int           `json:"max_parallel"`
	WorkerBufferSize int           `json:"worker_buffer_size"`
	SkipTLSVerify    bool          `json:"skip_tls_verify"`
}

// RankSettings are the defaults for ranking sweeps.
type RankSettings struct {
	Mode  types.RankMode `json:"mode"`
	R18   bool           `json:"r18"`
	Start int            `json:"start"`
	End   int            `json:"end"`
}

// SettingMeta provides metadata for a single setting (for UI rendering).
type SettingMeta struct {
	Key         string // JSON key name
	Label       string // Human-readable label
	Description string // Help text displayed in right pane
	Type        string // "string", "int", "bool", "duration", "group", "rank"
}

// GetSettingsMetadata returns metadata for all settings organized by category.
func GetSettingsMetadata() map[string][]SettingMeta {
	return map[string][]SettingMeta{
		"General": {
			{Key: "output_dir", Label: "Output Dir", Description: "Directory images are saved to.", Type: "string"},
			{Key: "group_mode", Label: "Group By", Description: "Subdirectory per author, per artwork, or none.", Type: "group"},
			{Key: "title_dir_with_id", Label: "Artwork Dir With ID", Description: "Append the artwork id to per-artwork directories.", Type: "bool"},
			{Key: "theme", Label: "App Theme", Description: "UI Theme (System, Light, Dark).", Type: "int"},
			{Key: "log_retention_count", Label: "Log Retention Count", Description: "Number of recent log files to keep.", Type: "int"},
		},
		"Network": {
			{Key: "user_agent", Label: "User Agent", Description: "Custom User-Agent string for HTTP requests. Leave empty for default.", Type: "string"},
			{Key: "proxy_url", Label: "Proxy URL", Description: "HTTP/HTTPS or socks5:// proxy URL. Leave empty to use system default.", Type: "string"},
			{Key: "request_timeout", Label: "Request Timeout", Description: "Timeout for page and JSON requests (e.g., 30s). Image transfers are not limited.", Type: "duration"},
			{Key: "max_parallel", Label: "Max Parallel Artworks", Description: "Artworks downloaded at once in parallel sweeps.", Type: "int"},
			{Key: "worker_buffer_size", Label: "Buffer Size", Description: "Read buffer per transfer in bytes.", Type: "int"},
			{Key: "skip_tls_verify", Label: "Skip TLS Verify", Description: "Disable certificate verification. Only for debugging proxies.", Type: "bool"},
		},
		"Rank": {
			{Key: "mode", Label: "Default Ranking", Description: "Ranking opened first (daily, weekly, monthly, rookie, original, daily_ai, male, female).", Type: "rank"},
			{Key: "r18", Label: "R-18", Description: "Use the R-18 variant of rankings.", Type: "bool"},
			{Key: "start", Label: "Range Start", Description: "First rank downloaded by sweeps (1-based).", Type: "int"},
			{Key: "end", Label: "Range End", Description: "Last rank downloaded by sweeps (inclusive).", Type: "int"},
		},
	}
}

// CategoryOrder returns the order of categories for UI tabs.
func CategoryOrder() []string {
	return []string{"General", "Network", "Rank"}
}

// DefaultSettings returns a new Settings instance with sensible defaults.
func DefaultSettings() *Settings {
	return &Settings{
		General: GeneralSettings{
			OutputDir:         filepath.Join(homeDir(), "Pictures", "pixiv"),
			GroupMode:         types.GroupNone,
			TitleDirWithID:    false,
			Theme:             ThemeAdaptive,
			LogRetentionCount: 5,
		},
		Network: NetworkSettings{
			UserAgent:        "", // Empty means use default UA
			RequestTimeout:   types.RequestTimeout,
			MaxParallel:      4,
			WorkerBufferSize: types.WorkerBuffer,
		},
		Rank: RankSettings{
			Mode:  types.RankDaily,
			Start: 1,
			End:   50,
		},
	}
}

// GetSettingsPath returns the path to the settings JSON file.
func GetSettingsPath() string {
	return filepath.Join(GetPixdlDir(), "settings.json")
}

// LoadSettings loads settings from disk. Returns defaults if file doesn't exist.
func LoadSettings() (*Settings, error) {
	path := GetSettingsPath()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultSettings(), nil
		}
		return nil, err
	}

	settings := DefaultSettings() // Start with defaults to fill any missing fields
	if err := json.Unmarshal(data, settings); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return settings, nil
}

// SaveSettings saves settings to disk atomically. Concurrent writers (the
// TUI and a `config set` in another shell) are serialised with a lock file.
func SaveSettings(s *Settings) error {
	path := GetSettingsPath()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("locking settings: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	// Atomic write: write to temp file, then rename
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tempPath, path)
}

// ToRuntimeConfig creates the engine RuntimeConfig from user Settings
func (s *Settings) ToRuntimeConfig() *types.RuntimeConfig {
	return &types.RuntimeConfig{
		UserAgent:        s.Network.UserAgent,
		ProxyURL:         s.Network.ProxyURL,
		RequestTimeout:   s.Network.RequestTimeout,
		WorkerBufferSize: s.Network.WorkerBufferSize,
		MaxParallel:      s.Network.MaxParallel,
		TitleDirWithID:   s.General.TitleDirWithID,
		SkipTLSVerify:    s.Network.SkipTLSVerify,
	}
}

// Lookup finds a setting by key. Keys may be bare ("output_dir") or
// qualified with their category ("general.output_dir").
func Lookup(key string) (category string, meta SettingMeta, ok bool) {
	cat, bare := "", strings.ToLower(key)
	if i := strings.IndexByte(bare, '.'); i >= 0 {
		cat, bare = bare[:i], bare[i+1:]
	}
	all := GetSettingsMetadata()
	for _, c := range CategoryOrder() {
		if cat != "" && strings.ToLower(c) != cat {
			continue
		}
		for _, m := range all[c] {
			if m.Key == bare {
				return c, m, true
			}
		}
	}
	return "", SettingMeta{}, false
}

// Set parses value according to the setting's type and stores it in s.
func (s *Settings) Set(key, value string) error {
	category, meta, ok := Lookup(key)
	if !ok {
		return fmt.Errorf("unknown setting %q", key)
	}

	var parsed any
	switch meta.Type {
	case "string":
		parsed = value
	case "int":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s: %w", meta.Key, err)
		}
		parsed = n
	case "bool":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s: %w", meta.Key, err)
		}
		parsed = b
	case "duration":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("%s: %w", meta.Key, err)
		}
		parsed = int64(d)
	case "group":
		g, err := types.ParseGroupMode(value)
		if err != nil {
			return err
		}
		parsed = g.String()
	case "rank":
		m, err := types.ParseRankMode(value)
		if err != nil {
			return err
		}
		parsed = string(m)
	default:
		return fmt.Errorf("setting %q has unsupported type %q", meta.Key, meta.Type)
	}

	// Round-trip through the JSON form so keys stay the single source of truth
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	var tree map[string]map[string]any
	if err := json.Unmarshal(data, &tree); err != nil {
		return err
	}
	tree[strings.ToLower(category)][meta.Key] = parsed
	data, err = json.Marshal(tree)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, s)
}

// Get returns the current value of a setting formatted for display
func (s *Settings) Get(key string) (string, error) {
	category, meta, ok := Lookup(key)
	if !ok {
		return "", fmt.Errorf("unknown setting %q", key)
	}
	data, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	var tree map[string]map[string]any
	if err := json.Unmarshal(data, &tree); err != nil {
		return "", err
	}
	v := tree[strings.ToLower(category)][meta.Key]
	if meta.Type == "duration" {
		if n, ok := v.(float64); ok {
			return time.Duration(int64(n)).String(), nil
		}
	}
	return fmt.Sprint(v), nil
}
