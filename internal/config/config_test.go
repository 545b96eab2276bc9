package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetGlobals() {
	cfg = nil
	v = nil
}

func TestInit(t *testing.T) {
	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "config.yaml")

	configContent := `
match:
  width: 60
  height: 30
  symmetry: vertical_reflection
  parallel_agents: true
budget:
  unit: 2000
channels:
  queue_capacity: 500
output:
  index_path: runs.db
`
	require.NoError(t, os.WriteFile(configFile, []byte(configContent), 0644))
	resetGlobals()

	require.NoError(t, Init(configFile))

	c := Get()
	assert.Equal(t, 60, c.Match.Width)
	assert.Equal(t, 30, c.Match.Height)
	assert.Equal(t, "vertical_reflection", c.Match.Symmetry)
	assert.True(t, c.Match.ParallelAgents)
	assert.Equal(t, 2000, c.Budget.Unit)
	assert.Equal(t, 9001, c.Budget.HQ, "unset keys keep their defaults")
	assert.Equal(t, 500, c.Channels.QueueCapacity)
	assert.Equal(t, "runs.db", c.Output.IndexPath)
	assert.Equal(t, configFile, ConfigFilePath())
}

func TestInitWithDefaults(t *testing.T) {
	resetGlobals()

	require.NoError(t, Init("/non/existent/path/config.yaml"))

	c := Get()
	assert.Equal(t, 40, c.Match.Width)
	assert.Equal(t, 500, c.Match.MaxTurns)
	assert.Equal(t, 1500, c.Budget.Unit)
	assert.Equal(t, 4000, c.Budget.Unsupplied)
	assert.Equal(t, 120, c.Channels.MaxMapWidth)
	assert.Equal(t, 3000, c.Channels.QueueCapacity)
	assert.Equal(t, 3, c.Channels.LockPollLimit)
	assert.Equal(t, 10, c.Navigation.HistorySize)
	assert.Equal(t, "console", c.Logging.Format)
}

func TestInit_MalformedFile(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte("match: [unclosed"), 0644))
	resetGlobals()

	err := Init(configFile)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestEnvironmentVariables(t *testing.T) {
	resetGlobals()
	t.Setenv("SWARM_MATCH_MAX_TURNS", "75")
	t.Setenv("SWARM_BUDGET_UNIT", "900")

	require.NoError(t, Init(""))

	c := Get()
	assert.Equal(t, 75, c.Match.MaxTurns)
	assert.Equal(t, 900, c.Budget.Unit)
}

func TestSet(t *testing.T) {
	resetGlobals()
	require.NoError(t, Init(""))

	require.NoError(t, Set("match.max_turns", 12))
	assert.Equal(t, 12, Get().Match.MaxTurns)

	err := Set("match.max_turns", -1)
	require.Error(t, err)
	assert.Equal(t, 12, Get().Match.MaxTurns, "invalid update keeps the previous config")
}

func TestGetHelpers(t *testing.T) {
	resetGlobals()
	require.NoError(t, Init(""))

	assert.Equal(t, "info", GetString("logging.level"))
	assert.Equal(t, 40, GetInt("match.width"))
	assert.True(t, GetBool("navigation.avoid_hostiles"))
}

func TestLoadEnvironmentConfig(t *testing.T) {
	tmpDir := t.TempDir()

	baseConfig := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(baseConfig, []byte(`
match:
  width: 20
  height: 20
logging:
  level: debug
`), 0644))

	envConfig := filepath.Join(tmpDir, "config.prod.yaml")
	require.NoError(t, os.WriteFile(envConfig, []byte(`
match:
  width: 80
logging:
  format: json
`), 0644))

	oldWd, _ := os.Getwd()
	require.NoError(t, os.Chdir(tmpDir))
	defer func() { _ = os.Chdir(oldWd) }()

	resetGlobals()
	require.NoError(t, Init(baseConfig))
	require.NoError(t, LoadEnvironmentConfig("prod"))

	c := Get()
	assert.Equal(t, 80, c.Match.Width)
	assert.Equal(t, 20, c.Match.Height)
	assert.Equal(t, "json", c.Logging.Format)
	assert.Equal(t, "debug", c.Logging.Level)
}

func validConfig() *Config {
	return &Config{
		Match: MatchConfig{
			Width: 30, Height: 30, MaxTurns: 100, UnitsPerTeam: 4, SpawnEvery: 5,
			WallDensity: 0.1, Towers: 2, SensorRadius: 3, AttackThreshold: 4, RetreatThreshold: 2,
		},
		Budget:     BudgetConfig{HQ: 9001, Unit: 1500, Unsupplied: 4000},
		Channels:   ChannelsConfig{MaxMapWidth: 120, MaxMapHeight: 120, QueueCapacity: 3000, LockPollLimit: 3},
		Navigation: NavigationConfig{HistorySize: 10, MaxFollowSteps: 400},
		Logging:    LoggingConfig{Level: "info", Format: "console"},
		Output:     OutputConfig{SnapshotEvery: 50, HeatmapScale: 8},
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, Validate(validConfig()))

	tests := []struct {
		name    string
		mutate  func(*Config)
		message string
	}{
		{"MapTooLargeForChannels", func(c *Config) { c.Match.Width = 200 }, "exceeds channels.max_map"},
		{"UnknownSymmetry", func(c *Config) { c.Match.Symmetry = "spiral" }, "not a known transform"},
		{"WallDensity", func(c *Config) { c.Match.WallDensity = 1.5 }, "wall_density"},
		{"Thresholds", func(c *Config) { c.Match.RetreatThreshold = 9 }, "retreat_threshold"},
		{"ZeroBudget", func(c *Config) { c.Budget.Unit = 0 }, "budget"},
		{"ZeroQueue", func(c *Config) { c.Channels.QueueCapacity = 0 }, "queue_capacity"},
		{"LockPolls", func(c *Config) { c.Channels.LockPollLimit = 0 }, "lock_poll_limit"},
		{"History", func(c *Config) { c.Navigation.HistorySize = 0 }, "history_size"},
		{"LogFormat", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)
			err := Validate(c)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestWatchConfig(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte("match:\n  max_turns: 10\n"), 0644))
	resetGlobals()
	require.NoError(t, Init(configFile))

	reloaded := make(chan error, 16)
	WatchConfig(func(err error) {
		select {
		case reloaded <- err:
		default:
		}
	})

	require.NoError(t, os.WriteFile(configFile, []byte("match:\n  max_turns: 20\n"), 0644))

	assert.Eventually(t, func() bool {
		return Get().Match.MaxTurns == 20
	}, 3*time.Second, 20*time.Millisecond)
	assert.NotEmpty(t, reloaded)
}
