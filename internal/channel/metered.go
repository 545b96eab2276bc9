package channel

import "github.com/mitchelldurbincs/swarmnav/internal/game/core"

// Metered charges every store access against an agent's turn budget.
type Metered struct {
	store  Channels
	budget *core.Budget
}

// Meter wraps a store so that reads and writes cost budget.
func Meter(store Channels, budget *core.Budget) *Metered {
	return &Metered{store: store, budget: budget}
}

func (m *Metered) Get(ch Channel) int32 {
	m.budget.Charge(core.CostChannelRead)
	return m.store.Get(ch)
}

func (m *Metered) Set(ch Channel, v int32) {
	m.budget.Charge(core.CostChannelWrite)
	m.store.Set(ch, v)
}

func (m *Metered) CompareAndSwap(ch Channel, old, new int32) bool {
	m.budget.Charge(core.CostChannelWrite)
	return m.store.CompareAndSwap(ch, old, new)
}

// Budget exposes the meter being charged.
func (m *Metered) Budget() *core.Budget { return m.budget }
