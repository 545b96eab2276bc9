package scheduler

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/mitchelldurbincs/swarmnav/internal/distfield"
	"github.com/mitchelldurbincs/swarmnav/internal/game/core"
)

// Executor commits actions. Attempt returns true if the action took effect
// and the rest of the ranked list should be skipped. A target that vanished
// or a blocked move is a plain false, never an error.
type Executor interface {
	Attempt(ctx context.Context, a Action) bool
}

// Agent is everything the scheduler needs from one agent for one turn.
type Agent interface {
	Executor
	ID() int
	Situation() Situation
	Budget() *core.Budget
	// DistributeResources hands supply to nearby allies.
	DistributeResources()
	// Maintain runs one distance-field maintenance step.
	Maintain() distfield.StepResult
}

// TurnReport summarises one agent turn.
type TurnReport struct {
	AgentID    int
	Acted      bool
	Action     Action
	Attempted  int
	Steps      map[distfield.StepResult]int
	BudgetUsed int
	Panicked   bool
}

// MaintenanceSteps returns how many steps did useful work.
func (r TurnReport) MaintenanceSteps() int {
	return r.Steps[distfield.StepExpanded] + r.Steps[distfield.StepDeferred] + r.Steps[distfield.StepDropped]
}

// Scheduler runs agent turns against a policy table.
type Scheduler struct {
	policy PolicyTable
	logger zerolog.Logger
}

// New creates a scheduler.
func New(policy PolicyTable, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		policy: policy,
		logger: logger.With().Str("component", "scheduler").Logger(),
	}
}

// RunTurn executes one agent turn: the first successful action, resource
// distribution, then maintenance steps while budget remains. A panic inside
// the agent is logged and ends only this agent's turn.
func (s *Scheduler) RunTurn(ctx context.Context, turn int, a Agent) (report TurnReport) {
	report.AgentID = a.ID()
	report.Steps = make(map[distfield.StepResult]int)
	logger := s.logger.With().Int("turn", turn).Int("agent_id", a.ID()).Logger()

	defer func() {
		if r := recover(); r != nil {
			report.Panicked = true
			logger.Error().Interface("panic", r).Msg("Recovered panic during agent turn")
		}
		report.BudgetUsed = a.Budget().Used()
	}()

	if ctx.Err() != nil {
		return report
	}

	for _, action := range s.policy.Choose(a.Situation()) {
		report.Attempted++
		if a.Attempt(ctx, action) {
			report.Acted = true
			report.Action = action
			break
		}
	}

	a.DistributeResources()

	budget := a.Budget()
	for budget.Remaining() > 0 && ctx.Err() == nil {
		res := a.Maintain()
		report.Steps[res]++
		if !res.Progressing() {
			break
		}
	}

	logger.Debug().
		Str("action", report.Action.String()).
		Bool("acted", report.Acted).
		Int("maintenance_steps", report.MaintenanceSteps()).
		Int("budget_used", budget.Used()).
		Msg("Agent turn complete")
	return report
}
