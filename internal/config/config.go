package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// APIKeyEnv overrides AIAPIKey when set.
const APIKeyEnv = "EUNOIA_API_KEY"

// Config holds application configuration.
type Config struct {
	// AIAPIKey authenticates word generation. Empty disables the daily fetch.
	AIAPIKey string `json:"ai_api_key,omitempty"`

	// AIBaseURL is an OpenAI-compatible endpoint (Gemini exposes one under /v1beta/openai/).
	AIBaseURL string `json:"ai_base_url,omitempty"`

	// AIModel is the chat model used to generate words.
	AIModel string `json:"ai_model,omitempty"`

	// AITimeoutSeconds bounds a single generation request.
	AITimeoutSeconds int `json:"ai_timeout_seconds,omitempty"`

	// FetchHour and FetchMinute set the local wall-clock time of the daily fetch.
	// Only applied from overlays when FetchTimeSet is true, so 00:00 is expressible.
	FetchHour    int  `json:"fetch_hour,omitempty"`
	FetchMinute  int  `json:"fetch_minute,omitempty"`
	FetchTimeSet bool `json:"fetch_time_set,omitempty"`

	// FetchIntervalSeconds is the pause between per-category generation calls.
	FetchIntervalSeconds int `json:"fetch_interval_seconds,omitempty"`

	// ConnectivityHost is dialled (host:port) before a scheduled fetch.
	// Empty derives it from AIBaseURL.
	ConnectivityHost string `json:"connectivity_host,omitempty"`

	// LogLevel is a logrus level name ("debug", "info", "warn", ...).
	LogLevel string `json:"log_level,omitempty"`

	// LogFormat is "text" or "json".
	LogFormat string `json:"log_format,omitempty"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// 0 means use sql.DB default (unlimited).
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// AllowedPaths is an allowlist of directories for import/export operations.
	// Paths outside ~/.eunoia/exports require either being in this list or AllowUnsafePaths=true.
	AllowedPaths []string `json:"allowed_paths,omitempty"`

	// AllowUnsafePaths disables directory restrictions for import/export.
	AllowUnsafePaths bool `json:"allow_unsafe_paths,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	DisabledTools []string `json:"disabled_tools,omitempty"`

	// DisabledTypes is a list of tool type prefixes to disable entirely
	// (e.g. "quiz" disables quiz_draw and quiz_answer).
	DisabledTypes []string `json:"disabled_types,omitempty"`

	// WebBind and WebPort configure the JSON API listener.
	WebBind string `json:"web_bind,omitempty"`
	WebPort int    `json:"web_port,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		AIBaseURL:            "https://generativelanguage.googleapis.com/v1beta/openai/",
		AIModel:              "gemini-2.0-flash",
		AITimeoutSeconds:     30,
		FetchHour:            9,
		FetchMinute:          0,
		FetchTimeSet:         true,
		FetchIntervalSeconds: 2,
		LogLevel:             "info",
		LogFormat:            "text",
		WebBind:              "127.0.0.1",
		WebPort:              8217,
	}
}

// AITimeout returns the per-request generation timeout.
func (c *Config) AITimeout() time.Duration {
	return time.Duration(c.AITimeoutSeconds) * time.Second
}

// FetchInterval returns the pause between per-category generation calls.
func (c *Config) FetchInterval() time.Duration {
	return time.Duration(c.FetchIntervalSeconds) * time.Second
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.eunoia.
func Load(baseDir string) (*Config, error) {
	cfg, err := loadFile(filepath.Join(baseDir, "config.json"))
	if err != nil {
		return nil, err
	}
	applyEnv(cfg)
	return cfg, nil
}

// LoadWithRepo loads configuration from both global (~/.eunoia) and repo (.eunoia) directories.
// Repo config is found by walking upward from startDir to find the nearest .eunoia/config.json.
// Repo config takes precedence for scalar values; arrays are merged (deduplicated).
func LoadWithRepo(globalDir, startDir string) (*Config, error) {
	global, err := loadFileRaw(filepath.Join(globalDir, "config.json"))
	if err != nil {
		return nil, err
	}

	repo, err := loadFileRaw(FindRepoConfig(startDir))
	if err != nil {
		return nil, err
	}

	cfg := Merge(Merge(DefaultConfig(), global), repo)
	applyEnv(cfg)
	return cfg, nil
}

// FindRepoConfig walks upward from startDir to find the nearest .eunoia/config.json.
// Returns the path if found, or empty string if not found.
func FindRepoConfig(startDir string) string {
	dir := startDir
	for {
		configPath := filepath.Join(dir, ".eunoia", "config.json")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// applyEnv overlays environment variables.
func applyEnv(cfg *Config) {
	if key := strings.TrimSpace(os.Getenv(APIKeyEnv)); key != "" {
		cfg.AIAPIKey = key
	}
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	if configPath == "" {
		return &Config{}, nil
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	// An explicit hour or minute in the file counts as setting the fetch time.
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err == nil {
		_, hasHour := probe["fetch_hour"]
		_, hasMinute := probe["fetch_minute"]
		if hasHour || hasMinute {
			cfg.FetchTimeSet = true
		}
	}

	return cfg, nil
}

// loadFile loads configuration from a specific file path.
// Returns default config if the file doesn't exist.
func loadFile(configPath string) (*Config, error) {
	cfg, err := loadFileRaw(configPath)
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	result.AIAPIKey = firstString(overlay.AIAPIKey, base.AIAPIKey)
	result.AIBaseURL = firstString(overlay.AIBaseURL, base.AIBaseURL)
	result.AIModel = firstString(overlay.AIModel, base.AIModel)
	result.ConnectivityHost = firstString(overlay.ConnectivityHost, base.ConnectivityHost)
	result.LogLevel = firstString(overlay.LogLevel, base.LogLevel)
	result.LogFormat = firstString(overlay.LogFormat, base.LogFormat)
	result.WebBind = firstString(overlay.WebBind, base.WebBind)

	result.AITimeoutSeconds = firstInt(overlay.AITimeoutSeconds, base.AITimeoutSeconds)
	result.FetchIntervalSeconds = firstInt(overlay.FetchIntervalSeconds, base.FetchIntervalSeconds)
	result.DBMaxOpenConns = firstInt(overlay.DBMaxOpenConns, base.DBMaxOpenConns)
	result.WebPort = firstInt(overlay.WebPort, base.WebPort)

	// Fetch time travels as a pair
	if overlay.FetchTimeSet {
		result.FetchHour, result.FetchMinute, result.FetchTimeSet = overlay.FetchHour, overlay.FetchMinute, true
	} else {
		result.FetchHour, result.FetchMinute, result.FetchTimeSet = base.FetchHour, base.FetchMinute, base.FetchTimeSet
	}

	// Booleans: overlay wins if true, else base
	result.AllowUnsafePaths = base.AllowUnsafePaths || overlay.AllowUnsafePaths

	// Arrays: merge and deduplicate
	result.AllowedPaths = mergeStringSlice(base.AllowedPaths, overlay.AllowedPaths)
	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)
	result.DisabledTypes = mergeStringSlice(base.DisabledTypes, overlay.DisabledTypes)

	return result
}

func firstString(overlay, base string) string {
	if strings.TrimSpace(overlay) != "" {
		return overlay
	}
	return base
}

func firstInt(overlay, base int) int {
	if overlay != 0 {
		return overlay
	}
	return base
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range append(append([]string{}, a...), b...) {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
