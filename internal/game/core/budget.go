package core

// Costs charged against a Budget. They are abstract compute units, not time.
const (
	CostChannelRead  = 5
	CostChannelWrite = 25
	CostSense        = 10
	CostMove         = 40
	CostAttack       = 40
)

// Default per-turn budgets by role and supply state.
const (
	BudgetHQ         = 9001
	BudgetUnit       = 1500
	BudgetUnsupplied = 4000
)

// Budget meters the compute an agent may spend in a single turn.
// A Budget is owned by one agent and is not safe for concurrent use.
type Budget struct {
	limit int
	used  int
}

// NewBudget returns a meter allowing limit units of work.
func NewBudget(limit int) *Budget {
	return &Budget{limit: limit}
}

// Charge records cost as spent. Charging past the limit is allowed; the
// overrun shows up as Exhausted.
func (b *Budget) Charge(cost int) {
	b.used += cost
}

// Affords reports whether cost can still be paid without overrunning.
func (b *Budget) Affords(cost int) bool {
	return b.Remaining() >= cost
}

// Remaining returns the units left this turn, never negative.
func (b *Budget) Remaining() int {
	if r := b.limit - b.used; r > 0 {
		return r
	}
	return 0
}

// Exhausted reports whether nothing is left.
func (b *Budget) Exhausted() bool { return b.used >= b.limit }

// Used returns the units spent so far.
func (b *Budget) Used() int { return b.used }

// Limit returns the turn allowance.
func (b *Budget) Limit() int { return b.limit }

// Reset starts a new turn with a fresh allowance.
func (b *Budget) Reset(limit int) {
	b.limit = limit
	b.used = 0
}
