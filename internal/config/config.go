package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/mitchelldurbincs/swarmnav/internal/symmetry"
)

// Config holds all configuration for the simulator
type Config struct {
	Match      MatchConfig      `mapstructure:"match"`
	Budget     BudgetConfig     `mapstructure:"budget"`
	Channels   ChannelsConfig   `mapstructure:"channels"`
	Navigation NavigationConfig `mapstructure:"navigation"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Output     OutputConfig     `mapstructure:"output"`
}

// MatchConfig holds the host simulation settings
type MatchConfig struct {
	Width            int     `mapstructure:"width"`
	Height           int     `mapstructure:"height"`
	Seed             int64   `mapstructure:"seed"`
	MaxTurns         int     `mapstructure:"max_turns"`
	UnitsPerTeam     int     `mapstructure:"units_per_team"`
	SpawnEvery       int     `mapstructure:"spawn_every"`
	Symmetry         string  `mapstructure:"symmetry"`
	WallDensity      float64 `mapstructure:"wall_density"`
	Towers           int     `mapstructure:"towers"`
	SensorRadius     int     `mapstructure:"sensor_radius"`
	AttackThreshold  int     `mapstructure:"attack_threshold"`
	RetreatThreshold int     `mapstructure:"retreat_threshold"`
	ParallelAgents   bool    `mapstructure:"parallel_agents"`
	FaultRate        float64 `mapstructure:"fault_rate"`
	MapFile          string  `mapstructure:"map_file"`
}

// BudgetConfig holds per-turn compute allowances
type BudgetConfig struct {
	HQ         int `mapstructure:"hq"`
	Unit       int `mapstructure:"unit"`
	Unsupplied int `mapstructure:"unsupplied"`
}

// ChannelsConfig sizes the shared channel store
type ChannelsConfig struct {
	MaxMapWidth   int `mapstructure:"max_map_width"`
	MaxMapHeight  int `mapstructure:"max_map_height"`
	QueueCapacity int `mapstructure:"queue_capacity"`
	LockPollLimit int `mapstructure:"lock_poll_limit"`
}

// NavigationConfig holds navigator settings
type NavigationConfig struct {
	HistorySize    int  `mapstructure:"history_size"`
	AvoidHostiles  bool `mapstructure:"avoid_hostiles"`
	MaxFollowSteps int  `mapstructure:"max_follow_steps"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// OutputConfig holds offline analysis and spectator outputs. Empty paths
// and addresses disable the output.
type OutputConfig struct {
	SnapshotDir   string `mapstructure:"snapshot_dir"`
	SnapshotEvery int    `mapstructure:"snapshot_every"`
	IndexPath     string `mapstructure:"index_path"`
	HeatmapPath   string `mapstructure:"heatmap_path"`
	HeatmapScale  int    `mapstructure:"heatmap_scale"`
	ObserverAddr  string `mapstructure:"observer_addr"`
	HealthAddr    string `mapstructure:"health_addr"`
}

var (
	// Global config instance
	cfg *Config
	v   *viper.Viper
	mu  sync.RWMutex
)

// setViperDefaults sets all default values using Viper's SetDefault
func setViperDefaults(v *viper.Viper) {
	// Match defaults
	v.SetDefault("match.width", 40)
	v.SetDefault("match.height", 40)
	v.SetDefault("match.seed", 0)
	v.SetDefault("match.max_turns", 500)
	v.SetDefault("match.units_per_team", 6)
	v.SetDefault("match.spawn_every", 10)
	v.SetDefault("match.symmetry", "")
	v.SetDefault("match.wall_density", 0.2)
	v.SetDefault("match.towers", 3)
	v.SetDefault("match.sensor_radius", 4)
	v.SetDefault("match.attack_threshold", 4)
	v.SetDefault("match.retreat_threshold", 2)
	v.SetDefault("match.parallel_agents", false)
	v.SetDefault("match.fault_rate", 0.0)
	v.SetDefault("match.map_file", "")

	// Budget defaults
	v.SetDefault("budget.hq", 9001)
	v.SetDefault("budget.unit", 1500)
	v.SetDefault("budget.unsupplied", 4000)

	// Channel store defaults
	v.SetDefault("channels.max_map_width", 120)
	v.SetDefault("channels.max_map_height", 120)
	v.SetDefault("channels.queue_capacity", 3000)
	v.SetDefault("channels.lock_poll_limit", 3)

	// Navigation defaults
	v.SetDefault("navigation.history_size", 10)
	v.SetDefault("navigation.avoid_hostiles", true)
	v.SetDefault("navigation.max_follow_steps", 400)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	// Output defaults
	v.SetDefault("output.snapshot_dir", "")
	v.SetDefault("output.snapshot_every", 50)
	v.SetDefault("output.index_path", "")
	v.SetDefault("output.heatmap_path", "")
	v.SetDefault("output.heatmap_scale", 8)
	v.SetDefault("output.observer_addr", "")
	v.SetDefault("output.health_addr", "")
}

// Init initializes the configuration
func Init(configPath string) error {
	mu.Lock()
	defer mu.Unlock()

	v = viper.New()
	setViperDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/swarmnav")
	}

	v.SetEnvPrefix("SWARM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// A missing file falls back to defaults; a file that exists but
		// cannot be parsed is an error.
		var notFound viper.ConfigFileNotFoundError
		missing := errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist)
		if !missing {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	next := &Config{}
	if err := v.Unmarshal(next); err != nil {
		return fmt.Errorf("unable to decode config into struct: %w", err)
	}
	if err := Validate(next); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	cfg = next
	return nil
}

// Get returns the global config instance
func Get() *Config {
	mu.RLock()
	c := cfg
	mu.RUnlock()
	if c != nil {
		return c
	}
	if err := Init(""); err != nil {
		panic("failed to initialize config with defaults: " + err.Error())
	}
	mu.RLock()
	defer mu.RUnlock()
	return cfg
}

// GetViper returns the viper instance for advanced usage
func GetViper() *viper.Viper {
	if v == nil {
		panic("config not initialized - call Init() first")
	}
	return v
}

// LoadEnvironmentConfig merges config.<env>.yaml over the loaded config
func LoadEnvironmentConfig(env string) error {
	if env == "" {
		return nil
	}
	mu.Lock()
	defer mu.Unlock()

	envFile := fmt.Sprintf("config.%s.yaml", env)
	v.SetConfigFile(envFile)
	if err := v.MergeInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("error merging environment config %s: %w", envFile, err)
		}
	}
	return reload()
}

// Set allows runtime config updates
func Set(key string, value interface{}) error {
	mu.Lock()
	defer mu.Unlock()
	v.Set(key, value)
	return reload()
}

// reload re-decodes the viper state, keeping the previous config if the
// result is invalid. Callers hold mu.
func reload() error {
	next := &Config{}
	if err := v.Unmarshal(next); err != nil {
		return fmt.Errorf("unable to decode merged config into struct: %w", err)
	}
	if err := Validate(next); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	cfg = next
	return nil
}

// GetString gets a string value from config
func GetString(key string) string {
	return v.GetString(key)
}

// GetInt gets an int value from config
func GetInt(key string) int {
	return v.GetInt(key)
}

// GetBool gets a bool value from config
func GetBool(key string) bool {
	return v.GetBool(key)
}

// ConfigFilePath returns the path of the loaded config file
func ConfigFilePath() string {
	return v.ConfigFileUsed()
}

// WatchConfig enables hot-reloading of the config file. onChange receives
// the reload error, nil on success; an invalid edit leaves the old config
// in place.
func WatchConfig(onChange func(error)) {
	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		mu.Lock()
		err := reload()
		mu.Unlock()
		if onChange != nil {
			onChange(err)
		}
	})
	v.WatchConfig()
}

// Validate validates the configuration values
func Validate(c *Config) error {
	m := c.Match
	if m.Width < 2 || m.Height < 2 {
		return fmt.Errorf("match dimensions must be at least 2x2")
	}
	if m.Width > c.Channels.MaxMapWidth || m.Height > c.Channels.MaxMapHeight {
		return fmt.Errorf("match %dx%d exceeds channels.max_map %dx%d",
			m.Width, m.Height, c.Channels.MaxMapWidth, c.Channels.MaxMapHeight)
	}
	if m.MaxTurns <= 0 {
		return fmt.Errorf("match.max_turns must be positive")
	}
	if m.UnitsPerTeam < 0 {
		return fmt.Errorf("match.units_per_team must be non-negative")
	}
	if m.SpawnEvery <= 0 {
		return fmt.Errorf("match.spawn_every must be positive")
	}
	if m.Symmetry != "" {
		if _, ok := symmetry.ParseTransform(m.Symmetry); !ok {
			return fmt.Errorf("match.symmetry %q is not a known transform", m.Symmetry)
		}
	}
	if m.WallDensity < 0 || m.WallDensity >= 1 {
		return fmt.Errorf("match.wall_density must be in [0, 1)")
	}
	if m.Towers < 0 {
		return fmt.Errorf("match.towers must be non-negative")
	}
	if m.SensorRadius < 1 {
		return fmt.Errorf("match.sensor_radius must be at least 1")
	}
	if m.FaultRate < 0 || m.FaultRate >= 1 {
		return fmt.Errorf("match.fault_rate must be in [0, 1)")
	}
	if m.RetreatThreshold > m.AttackThreshold {
		return fmt.Errorf("match.retreat_threshold must not exceed match.attack_threshold")
	}

	if c.Budget.HQ <= 0 || c.Budget.Unit <= 0 || c.Budget.Unsupplied <= 0 {
		return fmt.Errorf("budget values must be positive")
	}

	if c.Channels.MaxMapWidth <= 0 || c.Channels.MaxMapHeight <= 0 {
		return fmt.Errorf("channels.max_map dimensions must be positive")
	}
	if c.Channels.QueueCapacity <= 0 {
		return fmt.Errorf("channels.queue_capacity must be positive")
	}
	if c.Channels.LockPollLimit <= 0 {
		return fmt.Errorf("channels.lock_poll_limit must be positive")
	}

	if c.Navigation.HistorySize <= 0 {
		return fmt.Errorf("navigation.history_size must be positive")
	}
	if c.Navigation.MaxFollowSteps <= 0 {
		return fmt.Errorf("navigation.max_follow_steps must be positive")
	}

	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json")
	}

	if c.Output.SnapshotEvery <= 0 {
		return fmt.Errorf("output.snapshot_every must be positive")
	}
	if c.Output.HeatmapScale <= 0 {
		return fmt.Errorf("output.heatmap_scale must be positive")
	}

	return nil
}
