package subscribers_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mitchelldurbincs/swarmnav/internal/game/core"
	"github.com/mitchelldurbincs/swarmnav/internal/game/events"
	"github.com/mitchelldurbincs/swarmnav/internal/game/events/subscribers"
)

func TestLoggerSubscriber(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).With().Timestamp().Logger()

	logSub := subscribers.NewLoggerSubscriber("test-logger", logger, zerolog.InfoLevel)

	assert.Equal(t, "test-logger", logSub.ID())
	assert.True(t, logSub.InterestedIn(events.TypeMatchStarted))
	assert.True(t, logSub.InterestedIn(events.TypeTurnStarted))
	assert.True(t, logSub.InterestedIn("any.event.type"))
}

func TestLoggerSubscriberEventLogging(t *testing.T) {
	testCases := []struct {
		name  string
		event events.Event
		check func(t *testing.T, logLine map[string]interface{})
	}{
		{
			name:  "MatchStartedEvent",
			event: events.NewMatchStartedEvent("match-1", 42, 30, 20, "rotation"),
			check: func(t *testing.T, logLine map[string]interface{}) {
				assert.Equal(t, float64(42), logLine["seed"])
				assert.Equal(t, float64(30), logLine["map_width"])
				assert.Equal(t, float64(20), logLine["map_height"])
				assert.Equal(t, "rotation", logLine["symmetry"])
			},
		},
		{
			name:  "TurnStartedEvent",
			event: events.NewTurnStartedEvent("match-1", 5),
			check: func(t *testing.T, logLine map[string]interface{}) {
				assert.Equal(t, float64(5), logLine["turn"])
			},
		},
		{
			name: "TurnEndedEvent",
			event: events.NewTurnEndedEvent("match-1", 9, []events.TeamStats{
				{Team: 0, Agents: 3, FrontierSize: 12, ResolvedTiles: 40, AttackMode: true},
				{Team: 1, Agents: 2},
			}, 3*time.Millisecond),
			check: func(t *testing.T, logLine map[string]interface{}) {
				assert.Equal(t, float64(9), logLine["turn"])
				teamA, ok := logLine["team_a"].(map[string]interface{})
				require.True(t, ok)
				assert.Equal(t, float64(12), teamA["frontier"])
				assert.Equal(t, true, teamA["attack"])
				assert.Contains(t, logLine, "team_b")
			},
		},
		{
			name:  "AgentSpawnedEvent",
			event: events.NewAgentSpawnedEvent("match-1", 7, 1, core.RoleSoldier, core.NewTile(3, 4)),
			check: func(t *testing.T, logLine map[string]interface{}) {
				assert.Equal(t, float64(7), logLine["agent_id"])
				assert.Equal(t, "soldier", logLine["role"])
				assert.Equal(t, float64(3), logLine["x"])
				assert.Equal(t, float64(4), logLine["y"])
			},
		},
		{
			name:  "LockClearedEvent",
			event: events.NewLockClearedEvent("match-1", 0, 11, 4),
			check: func(t *testing.T, logLine map[string]interface{}) {
				assert.Equal(t, float64(4), logLine["holder"])
				assert.Equal(t, float64(11), logLine["turn"])
			},
		},
		{
			name:  "SymmetryResolvedEvent",
			event: events.NewSymmetryResolvedEvent("match-1", 0, "horizontal", []string{"horizontal", "vertical"}, false),
			check: func(t *testing.T, logLine map[string]interface{}) {
				assert.Equal(t, "horizontal", logLine["transform"])
				assert.Len(t, logLine["candidates"], 2)
				assert.Equal(t, false, logLine["fallback"])
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			logSub := subscribers.NewLoggerSubscriber("event-logger", zerolog.New(&buf), zerolog.InfoLevel)

			logSub.HandleEvent(tc.event)

			var logLine map[string]interface{}
			require.NoError(t, json.Unmarshal(buf.Bytes(), &logLine))
			assert.Equal(t, "Match event", logLine["message"])
			assert.Equal(t, "match-1", logLine["match_id"])
			assert.Equal(t, tc.event.Type(), logLine["event_type"])
			assert.Equal(t, "info", logLine["level"])
			tc.check(t, logLine)
		})
	}
}

func TestLoggerSubscriberFilter(t *testing.T) {
	logSub := subscribers.NewLoggerSubscriber("filtered", zerolog.Nop(), zerolog.DebugLevel)

	logSub.SetEventFilter([]string{events.TypeMatchEnded, events.TypeLockCleared})
	assert.True(t, logSub.InterestedIn(events.TypeMatchEnded))
	assert.True(t, logSub.InterestedIn(events.TypeLockCleared))
	assert.False(t, logSub.InterestedIn(events.TypeTurnStarted))

	logSub.SetEventFilter(nil)
	assert.True(t, logSub.InterestedIn(events.TypeTurnStarted))
}

func TestLoggerSubscriberDevMode(t *testing.T) {
	var buf bytes.Buffer
	logSub := subscribers.NewLoggerSubscriber("dev", zerolog.New(&buf), zerolog.WarnLevel)
	logSub.SetDevMode(true)

	logSub.HandleEvent(events.NewAgentRemovedEvent("match-2", 3, 0, "fault"))

	var logLine map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &logLine))
	assert.Equal(t, "warn", logLine["level"])
	data, ok := logLine["event_data"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "fault", data["reason"])
	assert.Equal(t, "match-2", data["match_id"])
	assert.True(t, strings.HasPrefix(data["type"].(string), "agent."))
}
