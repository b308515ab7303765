package kernel

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ServerConfig groups the thin HTTP driver's listener settings.
type ServerConfig struct {
	HTTPAddr string `yaml:"httpAddr"`
}

// MetabolismConfig seeds pkg/metabolism.New.
type MetabolismConfig struct {
	MaxCapacity  float64 `yaml:"maxCapacity"`
	FatigueRatio float64 `yaml:"fatigueRatio"`
	ZombieRatio  float64 `yaml:"zombieRatio"`
	ZombieCritic float64 `yaml:"zombieCritic"`
}

// CacheConfig seeds pkg/memory.New.
type CacheConfig struct {
	Capacity int `yaml:"capacity"`
}

// SchedulerConfig seeds pkg/scheduler.New.
type SchedulerConfig struct {
	CriticalSleepThresholdPercent       float64 `yaml:"criticalSleepThresholdPercent"`
	MaxEntropyCapacity                  float64 `yaml:"maxEntropyCapacity"`
	OptimalConsolidationIntervalSeconds float64 `yaml:"optimalConsolidationIntervalSeconds"`
	IdleWindowSeconds                   float64 `yaml:"idleWindowSeconds"`
}

// EncodingConfig controls the k-mer tokenizer and default vector dimension.
type EncodingConfig struct {
	K           int `yaml:"k"`
	Stride      int `yaml:"stride"`
	MaxKmers    int `yaml:"maxKmers"`
	DefaultDim  int `yaml:"defaultDim"`
	MaxIterations int `yaml:"maxIterations"`
	MemorySnapshotSize int `yaml:"memorySnapshotSize"`
}

// HFSConfig points at the holographic file store root.
type HFSConfig struct {
	RootPath   string `yaml:"rootPath"`
	DefaultDim int    `yaml:"defaultDim"`
}

// MCPConfig controls the MCP tool surface.
type MCPConfig struct {
	Enabled        bool   `yaml:"enabled"`
	Addr           string `yaml:"addr"`
	APIKey         string `yaml:"apiKey"`
	RateLimitRPS   float64 `yaml:"rateLimitRps"`
	RateLimitBurst int     `yaml:"rateLimitBurst"`
}

// SubstrateConfig controls how often the daemon polls the substrate probe.
type SubstrateConfig struct {
	PollIntervalSeconds float64 `yaml:"pollIntervalSeconds"`
}

// Config aggregates every resolvable setting for a cogkerneld instance.
// Resolved through the four-level hierarchy: DefaultConfig() ->
// ConfigFromFile(path) -> ConfigFromEnv(cfg) -> ApplyCLIOverrides(overrides).
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Metabolism MetabolismConfig `yaml:"metabolism"`
	Cache      CacheConfig      `yaml:"cache"`
	Scheduler  SchedulerConfig  `yaml:"scheduler"`
	Encoding   EncodingConfig   `yaml:"encoding"`
	HFS        HFSConfig        `yaml:"hfs"`
	MCP        MCPConfig        `yaml:"mcp"`
	Substrate  SubstrateConfig  `yaml:"substrate"`
}

// DefaultConfig returns a Config populated with the values named throughout
// spec.md's worked examples and testable-property scenarios.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{HTTPAddr: ":7070"},
		Metabolism: MetabolismConfig{
			MaxCapacity:  100,
			FatigueRatio: 0.28,
			ZombieRatio:  0.20,
			ZombieCritic: 0.95,
		},
		Cache: CacheConfig{Capacity: 512},
		Scheduler: SchedulerConfig{
			CriticalSleepThresholdPercent:       0.20,
			MaxEntropyCapacity:                  0.80,
			OptimalConsolidationIntervalSeconds:  120,
			IdleWindowSeconds:                    30,
		},
		Encoding: EncodingConfig{
			K:                  3,
			Stride:             1,
			MaxKmers:           64,
			DefaultDim:         1024,
			MaxIterations:      64,
			MemorySnapshotSize: 12,
		},
		HFS: HFSConfig{RootPath: "./data/hfs", DefaultDim: 1024},
		MCP: MCPConfig{
			Enabled:        false,
			Addr:           ":7071",
			RateLimitRPS:   10,
			RateLimitBurst: 20,
		},
		Substrate: SubstrateConfig{PollIntervalSeconds: 5},
	}
}

// ConfigFromFile reads a YAML configuration file and merges it on top of the
// built-in defaults. Fields absent from the file retain their defaults.
func ConfigFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return cfg, nil
}

// ConfigFromEnv applies COGKERNEL_* environment variable overrides to cfg.
// If cfg is nil, a new default Config is created first.
func ConfigFromEnv(cfg *Config) *Config {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	setEnvStr("COGKERNEL_HTTP_ADDR", &cfg.Server.HTTPAddr)

	setEnvFloat("COGKERNEL_MAX_CAPACITY", &cfg.Metabolism.MaxCapacity)
	setEnvFloat("COGKERNEL_FATIGUE_RATIO", &cfg.Metabolism.FatigueRatio)
	setEnvFloat("COGKERNEL_ZOMBIE_RATIO", &cfg.Metabolism.ZombieRatio)
	setEnvFloat("COGKERNEL_ZOMBIE_CRITIC", &cfg.Metabolism.ZombieCritic)

	setEnvInt("COGKERNEL_CACHE_CAPACITY", &cfg.Cache.Capacity)

	setEnvFloat("COGKERNEL_CRITICAL_SLEEP_THRESHOLD_PERCENT", &cfg.Scheduler.CriticalSleepThresholdPercent)
	setEnvFloat("COGKERNEL_MAX_ENTROPY_CAPACITY", &cfg.Scheduler.MaxEntropyCapacity)
	setEnvFloat("COGKERNEL_OPTIMAL_CONSOLIDATION_INTERVAL_SECONDS", &cfg.Scheduler.OptimalConsolidationIntervalSeconds)
	setEnvFloat("COGKERNEL_IDLE_WINDOW_SECONDS", &cfg.Scheduler.IdleWindowSeconds)

	setEnvInt("COGKERNEL_ENCODING_K", &cfg.Encoding.K)
	setEnvInt("COGKERNEL_ENCODING_STRIDE", &cfg.Encoding.Stride)
	setEnvInt("COGKERNEL_ENCODING_MAX_KMERS", &cfg.Encoding.MaxKmers)
	setEnvInt("COGKERNEL_ENCODING_DEFAULT_DIM", &cfg.Encoding.DefaultDim)
	setEnvInt("COGKERNEL_ENCODING_MAX_ITERATIONS", &cfg.Encoding.MaxIterations)
	setEnvInt("COGKERNEL_ENCODING_MEMORY_SNAPSHOT_SIZE", &cfg.Encoding.MemorySnapshotSize)

	setEnvStr("COGKERNEL_HFS_ROOT_PATH", &cfg.HFS.RootPath)
	setEnvInt("COGKERNEL_HFS_DEFAULT_DIM", &cfg.HFS.DefaultDim)

	setEnvBool("COGKERNEL_MCP_ENABLED", &cfg.MCP.Enabled)
	setEnvStr("COGKERNEL_MCP_ADDR", &cfg.MCP.Addr)
	setEnvStr("COGKERNEL_MCP_API_KEY", &cfg.MCP.APIKey)
	setEnvFloat("COGKERNEL_MCP_RATE_LIMIT_RPS", &cfg.MCP.RateLimitRPS)
	setEnvInt("COGKERNEL_MCP_RATE_LIMIT_BURST", &cfg.MCP.RateLimitBurst)

	setEnvFloat("COGKERNEL_SUBSTRATE_POLL_INTERVAL_SECONDS", &cfg.Substrate.PollIntervalSeconds)

	return cfg
}

// LoadConfig implements the full configuration hierarchy up through the
// environment layer: defaults -> optional YAML file -> environment
// variables. The caller applies CLI overrides afterward via
// ApplyCLIOverrides.
func LoadConfig(configPath string) (*Config, error) {
	var cfg *Config
	if configPath != "" {
		var err error
		cfg, err = ConfigFromFile(configPath)
		if err != nil {
			return nil, err
		}
	} else {
		cfg = DefaultConfig()
	}
	return ConfigFromEnv(cfg), nil
}

// CLIOverrides carries optional values set via command-line flags. Pointer
// fields are nil when the flag was not explicitly provided, so
// ApplyCLIOverrides can distinguish "not set" from the zero value.
type CLIOverrides struct {
	HTTPAddr     *string
	MaxCapacity  *float64
	FatigueRatio *float64
	ZombieRatio  *float64
	CacheCapacity *int
	HFSRootPath  *string
	MCPEnabled   *bool
	MCPAddr      *string
	MCPAPIKey    *string
}

// ApplyCLIOverrides patches cfg with any explicitly-set CLI flags, preserving
// values resolved from earlier hierarchy layers for everything left nil.
func (c *Config) ApplyCLIOverrides(o *CLIOverrides) {
	if o == nil {
		return
	}
	if o.HTTPAddr != nil {
		c.Server.HTTPAddr = *o.HTTPAddr
	}
	if o.MaxCapacity != nil {
		c.Metabolism.MaxCapacity = *o.MaxCapacity
	}
	if o.FatigueRatio != nil {
		c.Metabolism.FatigueRatio = *o.FatigueRatio
	}
	if o.ZombieRatio != nil {
		c.Metabolism.ZombieRatio = *o.ZombieRatio
	}
	if o.CacheCapacity != nil {
		c.Cache.Capacity = *o.CacheCapacity
	}
	if o.HFSRootPath != nil {
		c.HFS.RootPath = *o.HFSRootPath
	}
	if o.MCPEnabled != nil {
		c.MCP.Enabled = *o.MCPEnabled
	}
	if o.MCPAddr != nil {
		c.MCP.Addr = *o.MCPAddr
	}
	if o.MCPAPIKey != nil {
		c.MCP.APIKey = *o.MCPAPIKey
	}
}

// Validate returns a descriptive error for the first out-of-range field
// encountered, and logs soft warnings for risky-but-legal values.
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return fmt.Errorf("server.httpAddr must not be empty")
	}
	if c.Metabolism.MaxCapacity <= 0 {
		return fmt.Errorf("metabolism.maxCapacity must be > 0, got %v", c.Metabolism.MaxCapacity)
	}
	if c.Metabolism.FatigueRatio < 0.01 || c.Metabolism.FatigueRatio > 0.95 {
		return fmt.Errorf("metabolism.fatigueRatio must be in [0.01,0.95], got %v", c.Metabolism.FatigueRatio)
	}
	if c.Metabolism.ZombieRatio < 0.01 || c.Metabolism.ZombieRatio > c.Metabolism.FatigueRatio {
		return fmt.Errorf("metabolism.zombieRatio must be in [0.01,fatigueRatio], got %v", c.Metabolism.ZombieRatio)
	}
	if c.Cache.Capacity < 1 {
		return fmt.Errorf("cache.capacity must be >= 1, got %d", c.Cache.Capacity)
	}
	if c.Scheduler.CriticalSleepThresholdPercent < 0.01 || c.Scheduler.CriticalSleepThresholdPercent > 0.95 {
		return fmt.Errorf("scheduler.criticalSleepThresholdPercent must be in [0.01,0.95], got %v", c.Scheduler.CriticalSleepThresholdPercent)
	}
	if c.Scheduler.MaxEntropyCapacity < 0.05 || c.Scheduler.MaxEntropyCapacity > 1 {
		return fmt.Errorf("scheduler.maxEntropyCapacity must be in [0.05,1], got %v", c.Scheduler.MaxEntropyCapacity)
	}
	if c.Encoding.DefaultDim < 1 || c.Encoding.DefaultDim > 262144 {
		return fmt.Errorf("encoding.defaultDim must be in [1,262144], got %d", c.Encoding.DefaultDim)
	}
	if c.HFS.RootPath == "" {
		return fmt.Errorf("hfs.rootPath must not be empty")
	}

	if c.Metabolism.ZombieRatio > c.Metabolism.FatigueRatio*0.9 {
		log.Printf("⚠ metabolism.zombieRatio=%v is close to fatigueRatio=%v — zombie mode will trigger almost as soon as fatigue does",
			c.Metabolism.ZombieRatio, c.Metabolism.FatigueRatio)
	}
	return nil
}

func setEnvStr(key string, target *string) {
	if v := os.Getenv(key); v != "" {
		*target = v
	}
}

func setEnvBool(key string, target *bool) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*target = b
		}
	}
}

func setEnvInt(key string, target *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*target = n
		}
	}
}

func setEnvFloat(key string, target *float64) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*target = f
		}
	}
}
