package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ericvale0128/cronaswap-interfacev3/internal/id"
	"github.com/ericvale0128/cronaswap-interfacev3/internal/registry"
)

const appDir = "crona"

type GlobalFlags struct {
	ConfigPath     string
	EnvFile        string
	JSON           bool
	Plain          bool
	Select         string
	ResultsOnly    bool
	EnableCommands string
	Strict         bool
	Timeout        string
	Retries        int
	MaxStale       string
	NoStale        bool
	NoCache        bool
	LogLevel       string
}

type Settings struct {
	OutputMode      string
	SelectFields    []string
	ResultsOnly     bool
	EnableCommands  []string
	Strict          bool
	Timeout         time.Duration
	Retries         int
	MaxStale        time.Duration
	NoStale         bool
	CacheEnabled    bool
	CachePath       string
	CacheLockPath   string
	ActionStorePath string
	ActionLockPath  string
	StatePath       string
	StateLockPath   string
	DefaultChain    string
	RPCURLs         map[int64]string
	RPCRateLimit    float64
	ActiveLists     []string
	InactiveLists   []string
	LogLevel        string
}

type fileConfig struct {
	Output   string `yaml:"output"`
	Strict   *bool  `yaml:"strict"`
	Timeout  string `yaml:"timeout"`
	Retries  *int   `yaml:"retries"`
	LogLevel string `yaml:"log_level"`
	Chain    string `yaml:"chain"`
	Cache    struct {
		Enabled  *bool  `yaml:"enabled"`
		MaxStale string `yaml:"max_stale"`
		Path     string `yaml:"path"`
		LockPath string `yaml:"lock_path"`
	} `yaml:"cache"`
	Execution struct {
		ActionsPath     string `yaml:"actions_path"`
		ActionsLockPath string `yaml:"actions_lock_path"`
	} `yaml:"execution"`
	State struct {
		Path     string `yaml:"path"`
		LockPath string `yaml:"lock_path"`
	} `yaml:"state"`
	RPC struct {
		RateLimit *float64          `yaml:"rate_limit"`
		URLs      map[string]string `yaml:"urls"`
	} `yaml:"rpc"`
	TokenLists struct {
		Active   []string `yaml:"active"`
		Inactive []string `yaml:"inactive"`
	} `yaml:"token_lists"`
}

func Load(flags GlobalFlags) (Settings, error) {
	settings, err := defaultSettings()
	if err != nil {
		return Settings{}, err
	}

	cfgPath, err := resolveConfigPath(flags.ConfigPath)
	if err != nil {
		return Settings{}, err
	}

	if err := applyFileConfig(cfgPath, &settings); err != nil {
		return Settings{}, err
	}

	if err := loadEnvFile(flags.EnvFile); err != nil {
		return Settings{}, err
	}

	if err := applyEnv(&settings); err != nil {
		return Settings{}, err
	}

	if err := applyFlags(flags, &settings); err != nil {
		return Settings{}, err
	}

	if settings.OutputMode == "" {
		settings.OutputMode = "json"
	}
	if settings.Timeout <= 0 {
		settings.Timeout = 10 * time.Second
	}
	if settings.Retries < 0 {
		settings.Retries = 0
	}
	if settings.MaxStale < 0 {
		settings.MaxStale = 5 * time.Minute
	}
	if settings.RPCRateLimit < 0 {
		settings.RPCRateLimit = 0
	}
	if _, err := id.ParseChain(settings.DefaultChain); err != nil {
		return Settings{}, fmt.Errorf("default chain: %w", err)
	}
	if !validLogLevel(settings.LogLevel) {
		return Settings{}, fmt.Errorf("log level must be one of trace, debug, info, warn, error, crit")
	}
	for _, list := range append(append([]string{}, settings.ActiveLists...), settings.InactiveLists...) {
		if !registry.IsAllowedListURL(list) {
			return Settings{}, fmt.Errorf("token list url %q must use https", list)
		}
	}

	return settings, nil
}

// RPCURL returns the configured RPC endpoint for chainID, falling back to the
// registry default.
func (s Settings) RPCURL(chainID int64) (string, error) {
	return registry.ResolveRPCURL(s.RPCURLs[chainID], chainID)
}

func defaultSettings() (Settings, error) {
	cachePath, lockPath, err := defaultCachePaths()
	if err != nil {
		return Settings{}, err
	}
	cacheDir := filepath.Dir(cachePath)
	return Settings{
		OutputMode:      "json",
		Timeout:         10 * time.Second,
		Retries:         2,
		MaxStale:        5 * time.Minute,
		CacheEnabled:    true,
		CachePath:       cachePath,
		CacheLockPath:   lockPath,
		ActionStorePath: filepath.Join(cacheDir, "actions.db"),
		ActionLockPath:  filepath.Join(cacheDir, "actions.lock"),
		StatePath:       filepath.Join(cacheDir, "state.db"),
		StateLockPath:   filepath.Join(cacheDir, "state.lock"),
		DefaultChain:    "cronos",
		RPCURLs:         map[int64]string{},
		RPCRateLimit:    10,
		ActiveLists:     registry.DefaultActiveLists(),
		InactiveLists:   registry.DefaultInactiveLists(),
		LogLevel:        "warn",
	}, nil
}

func resolveConfigPath(input string) (string, error) {
	if strings.TrimSpace(input) != "" {
		return input, nil
	}
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, appDir, "config.yaml"), nil
}

func defaultCachePaths() (string, string, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", "", err
		}
		base = filepath.Join(home, ".cache")
	}
	dir := filepath.Join(base, appDir)
	return filepath.Join(dir, "cache.db"), filepath.Join(dir, "cache.lock"), nil
}

// loadEnvFile reads KEY=VALUE pairs into the process environment without
// overriding variables that are already set. A missing default .env is fine;
// a missing explicit file is not.
func loadEnvFile(path string) error {
	explicit := strings.TrimSpace(path) != ""
	if !explicit {
		path = os.Getenv("CRONA_ENV_FILE")
		explicit = path != ""
	}
	if !explicit {
		path = ".env"
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return nil
		}
		return fmt.Errorf("read env file: %w", err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("parse env file: %w", err)
	}
	return nil
}

func applyFileConfig(path string, settings *Settings) error {
	buf, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}

	var cfg fileConfig
	if err := yaml.Unmarshal(buf, &cfg); err != nil {
		return fmt.Errorf("parse config yaml: %w", err)
	}

	if cfg.Output != "" {
		settings.OutputMode = strings.ToLower(cfg.Output)
	}
	if cfg.Strict != nil {
		settings.Strict = *cfg.Strict
	}
	if cfg.Timeout != "" {
		d, err := time.ParseDuration(cfg.Timeout)
		if err != nil {
			return fmt.Errorf("config timeout: %w", err)
		}
		settings.Timeout = d
	}
	if cfg.Retries != nil {
		settings.Retries = *cfg.Retries
	}
	if cfg.LogLevel != "" {
		settings.LogLevel = strings.ToLower(cfg.LogLevel)
	}
	if cfg.Chain != "" {
		settings.DefaultChain = cfg.Chain
	}
	if cfg.Cache.Enabled != nil {
		settings.CacheEnabled = *cfg.Cache.Enabled
	}
	if cfg.Cache.MaxStale != "" {
		d, err := time.ParseDuration(cfg.Cache.MaxStale)
		if err != nil {
			return fmt.Errorf("config cache.max_stale: %w", err)
		}
		settings.MaxStale = d
	}
	if cfg.Cache.Path != "" {
		settings.CachePath = cfg.Cache.Path
	}
	if cfg.Cache.LockPath != "" {
		settings.CacheLockPath = cfg.Cache.LockPath
	}
	if cfg.Execution.ActionsPath != "" {
		settings.ActionStorePath = cfg.Execution.ActionsPath
	}
	if cfg.Execution.ActionsLockPath != "" {
		settings.ActionLockPath = cfg.Execution.ActionsLockPath
	}
	if cfg.State.Path != "" {
		settings.StatePath = cfg.State.Path
	}
	if cfg.State.LockPath != "" {
		settings.StateLockPath = cfg.State.LockPath
	}
	if cfg.RPC.RateLimit != nil {
		settings.RPCRateLimit = *cfg.RPC.RateLimit
	}
	for chainInput, url := range cfg.RPC.URLs {
		if err := setRPCURL(settings, chainInput, url); err != nil {
			return fmt.Errorf("config rpc.urls: %w", err)
		}
	}
	if len(cfg.TokenLists.Active) > 0 {
		settings.ActiveLists = cfg.TokenLists.Active
	}
	if cfg.TokenLists.Inactive != nil {
		settings.InactiveLists = cfg.TokenLists.Inactive
	}

	return nil
}

func applyEnv(settings *Settings) error {
	if v := os.Getenv("CRONA_OUTPUT"); v != "" {
		settings.OutputMode = strings.ToLower(v)
	}
	if v := os.Getenv("CRONA_STRICT"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			settings.Strict = b
		}
	}
	if v := os.Getenv("CRONA_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			settings.Timeout = d
		}
	}
	if v := os.Getenv("CRONA_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			settings.Retries = n
		}
	}
	if v := os.Getenv("CRONA_MAX_STALE"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			settings.MaxStale = d
		}
	}
	if v := os.Getenv("CRONA_NO_STALE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			settings.NoStale = b
		}
	}
	if v := os.Getenv("CRONA_NO_CACHE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			settings.CacheEnabled = !b
		}
	}
	if v := os.Getenv("CRONA_CACHE_PATH"); v != "" {
		settings.CachePath = v
	}
	if v := os.Getenv("CRONA_CACHE_LOCK_PATH"); v != "" {
		settings.CacheLockPath = v
	}
	if v := os.Getenv("CRONA_ACTIONS_PATH"); v != "" {
		settings.ActionStorePath = v
	}
	if v := os.Getenv("CRONA_ACTIONS_LOCK_PATH"); v != "" {
		settings.ActionLockPath = v
	}
	if v := os.Getenv("CRONA_STATE_PATH"); v != "" {
		settings.StatePath = v
	}
	if v := os.Getenv("CRONA_STATE_LOCK_PATH"); v != "" {
		settings.StateLockPath = v
	}
	if v := os.Getenv("CRONA_CHAIN"); v != "" {
		settings.DefaultChain = v
	}
	if v := os.Getenv("CRONA_LOG_LEVEL"); v != "" {
		settings.LogLevel = strings.ToLower(v)
	}
	if v := os.Getenv("CRONA_RPC_RATE_LIMIT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			settings.RPCRateLimit = f
		}
	}
	// CRONA_RPC_URLS=cronos=https://...,ethereum=https://...
	if v := os.Getenv("CRONA_RPC_URLS"); v != "" {
		for _, pair := range splitList(v) {
			chainInput, url, ok := strings.Cut(pair, "=")
			if !ok {
				return fmt.Errorf("CRONA_RPC_URLS: expected chain=url, got %q", pair)
			}
			if err := setRPCURL(settings, chainInput, url); err != nil {
				return fmt.Errorf("CRONA_RPC_URLS: %w", err)
			}
		}
	}
	if v := os.Getenv("CRONA_TOKEN_LISTS"); v != "" {
		settings.ActiveLists = splitList(v)
	}
	if v, ok := os.LookupEnv("CRONA_INACTIVE_TOKEN_LISTS"); ok {
		settings.InactiveLists = splitList(v)
	}
	return nil
}

func applyFlags(flags GlobalFlags, settings *Settings) error {
	if flags.JSON && flags.Plain {
		return fmt.Errorf("cannot use --json and --plain together")
	}
	if flags.JSON {
		settings.OutputMode = "json"
	}
	if flags.Plain {
		settings.OutputMode = "plain"
	}
	if strings.TrimSpace(flags.Select) != "" {
		settings.SelectFields = splitList(flags.Select)
	}
	settings.ResultsOnly = flags.ResultsOnly

	if strings.TrimSpace(flags.EnableCommands) != "" {
		settings.EnableCommands = splitList(flags.EnableCommands)
	}

	if flags.Strict {
		settings.Strict = true
	}
	if flags.Timeout != "" {
		d, err := time.ParseDuration(flags.Timeout)
		if err != nil {
			return fmt.Errorf("parse --timeout: %w", err)
		}
		settings.Timeout = d
	}
	if flags.Retries >= 0 {
		settings.Retries = flags.Retries
	}
	if flags.MaxStale != "" {
		d, err := time.ParseDuration(flags.MaxStale)
		if err != nil {
			return fmt.Errorf("parse --max-stale: %w", err)
		}
		settings.MaxStale = d
	}
	if flags.NoStale {
		settings.NoStale = true
	}
	if flags.NoCache {
		settings.CacheEnabled = false
	}
	if flags.LogLevel != "" {
		settings.LogLevel = strings.ToLower(strings.TrimSpace(flags.LogLevel))
	}

	if settings.OutputMode != "json" && settings.OutputMode != "plain" {
		return fmt.Errorf("output must be json or plain")
	}

	return nil
}

func setRPCURL(settings *Settings, chainInput, url string) error {
	chain, err := id.ParseChain(strings.TrimSpace(chainInput))
	if err != nil {
		return err
	}
	if settings.RPCURLs == nil {
		settings.RPCURLs = map[int64]string{}
	}
	settings.RPCURLs[chain.EVMChainID] = strings.TrimSpace(url)
	return nil
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func validLogLevel(level string) bool {
	switch level {
	case "trace", "debug", "info", "warn", "error", "crit":
		return true
	}
	return false
}
