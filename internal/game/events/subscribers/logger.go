package subscribers

import (
	"encoding/json"

	"github.com/mitchelldurbincs/swarmnav/internal/game/events"
	"github.com/rs/zerolog"
)

// LoggerSubscriber logs events to structured logs
type LoggerSubscriber struct {
	id              string
	logger          zerolog.Logger
	logLevel        zerolog.Level
	eventTypeFilter map[string]bool // If non-nil, only log these event types
	devMode         bool            // If true, log full event details
}

// NewLoggerSubscriber creates a new logger subscriber
func NewLoggerSubscriber(id string, logger zerolog.Logger, logLevel zerolog.Level) *LoggerSubscriber {
	return &LoggerSubscriber{
		id:       id,
		logger:   logger.With().Str("subscriber", "event_logger").Logger(),
		logLevel: logLevel,
	}
}

// ID returns the subscriber's unique identifier
func (ls *LoggerSubscriber) ID() string {
	return ls.id
}

// SetEventFilter sets which event types to log (nil means log all)
func (ls *LoggerSubscriber) SetEventFilter(eventTypes []string) {
	if len(eventTypes) == 0 {
		ls.eventTypeFilter = nil
		return
	}

	ls.eventTypeFilter = make(map[string]bool, len(eventTypes))
	for _, eventType := range eventTypes {
		ls.eventTypeFilter[eventType] = true
	}
}

// SetDevMode enables or disables development mode logging
func (ls *LoggerSubscriber) SetDevMode(enabled bool) {
	ls.devMode = enabled
}

// InterestedIn returns true if the subscriber wants to receive this event type
func (ls *LoggerSubscriber) InterestedIn(eventType string) bool {
	if ls.eventTypeFilter == nil {
		return true
	}
	return ls.eventTypeFilter[eventType]
}

// HandleEvent processes an event by logging it
func (ls *LoggerSubscriber) HandleEvent(event events.Event) {
	eventLogger := ls.logger.With().
		Str("event_type", event.Type()).
		Str("match_id", event.MatchID()).
		Time("timestamp", event.Timestamp()).
		Logger()

	var logEvent *zerolog.Event
	switch ls.logLevel {
	case zerolog.DebugLevel:
		logEvent = eventLogger.Debug()
	case zerolog.WarnLevel:
		logEvent = eventLogger.Warn()
	case zerolog.ErrorLevel:
		logEvent = eventLogger.Error()
	default:
		logEvent = eventLogger.Info()
	}

	switch e := event.(type) {
	case *events.MatchStartedEvent:
		logEvent.
			Int64("seed", e.Seed).
			Int("map_width", e.MapWidth).
			Int("map_height", e.MapHeight).
			Str("symmetry", e.Symmetry)

	case *events.MatchEndedEvent:
		logEvent.
			Int("winner", e.Winner).
			Str("reason", e.Reason).
			Dur("duration", e.Duration).
			Int("final_turn", e.FinalTurn)

	case *events.TurnStartedEvent:
		logEvent.Int("turn", e.TurnNumber)

	case *events.TurnEndedEvent:
		logEvent.
			Int("turn", e.TurnNumber).
			Dur("process_time", e.ProcessedTime)
		for _, ts := range e.Teams {
			logEvent.Dict("team_"+teamKey(ts.Team), zerolog.Dict().
				Int("agents", ts.Agents).
				Int("frontier", ts.FrontierSize).
				Int("resolved", ts.ResolvedTiles).
				Int("relaxed", ts.Relaxed).
				Bool("attack", ts.AttackMode))
		}

	case *events.AgentSpawnedEvent:
		logEvent.
			Int("agent_id", e.AgentID).
			Int("team", e.Team).
			Str("role", e.Role).
			Int("x", e.Position.X).
			Int("y", e.Position.Y)

	case *events.AgentRemovedEvent:
		logEvent.
			Int("agent_id", e.AgentID).
			Int("team", e.Team).
			Str("reason", e.Reason)

	case *events.SymmetryResolvedEvent:
		logEvent.
			Int("team", e.Team).
			Str("transform", e.Transform).
			Strs("candidates", e.Candidates).
			Bool("fallback", e.Fallback)

	case *events.LockClearedEvent:
		logEvent.
			Int("team", e.Team).
			Int("turn", e.Turn).
			Int32("holder", e.Holder)

	case *events.StateTransitionEvent:
		logEvent.
			Str("from", e.From).
			Str("to", e.To).
			Str("reason", e.Reason)
	}

	if ls.devMode {
		if jsonData, err := json.Marshal(event); err == nil {
			logEvent.RawJSON("event_data", jsonData)
		}
	}

	logEvent.Msg("Match event")
}

func teamKey(team int) string {
	if team == 0 {
		return "a"
	}
	return "b"
}
