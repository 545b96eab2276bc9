package channel

import "github.com/mitchelldurbincs/swarmnav/internal/game/core"

// Signals gives named access to the unit-count and coordination channels.
type Signals struct {
	ch     Channels
	layout Layout
}

// NewSignals binds the coordination accessors to a channel view.
func NewSignals(ch Channels, layout Layout) *Signals {
	return &Signals{ch: ch, layout: layout}
}

// UnitCount returns the last published count for a role.
func (s *Signals) UnitCount(role core.Role, enemy bool) int {
	return int(s.ch.Get(s.layout.UnitCountChannel(role, enemy)))
}

// SetUnitCount publishes a role count.
func (s *Signals) SetUnitCount(role core.Role, enemy bool, n int) {
	s.ch.Set(s.layout.UnitCountChannel(role, enemy), int32(n))
}

// AttackMode reports whether the team has been ordered to attack.
func (s *Signals) AttackMode() bool {
	return s.ch.Get(s.layout.AttackModeChannel()) != 0
}

func (s *Signals) SetAttackMode(on bool) {
	s.ch.Set(s.layout.AttackModeChannel(), boolChannel(on))
}

// Advance reports the advance bit.
func (s *Signals) Advance() bool {
	return s.ch.Get(s.layout.AdvanceChannel()) != 0
}

func (s *Signals) SetAdvance(on bool) {
	s.ch.Set(s.layout.AdvanceChannel(), boolChannel(on))
}

// NextTarget returns the rally tile, or false if none is set. The packed
// value 0 means unset, so the home tile itself cannot be a rally point.
func (s *Signals) NextTarget() (core.Tile, bool) {
	v := s.ch.Get(s.layout.NextTargetChannel())
	if v == 0 {
		return core.Tile{}, false
	}
	return UnpackTile(v), true
}

func (s *Signals) SetNextTarget(t core.Tile) {
	s.ch.Set(s.layout.NextTargetChannel(), PackTile(t))
}

func (s *Signals) ClearNextTarget() {
	s.ch.Set(s.layout.NextTargetChannel(), 0)
}

// AlliesInPosition returns how many units reported reaching the rally tile.
func (s *Signals) AlliesInPosition() int {
	return int(s.ch.Get(s.layout.AlliesInPositionChannel()))
}

// ReportInPosition increments the in-position counter. Concurrent reports can
// lose increments.
func (s *Signals) ReportInPosition() {
	c := s.layout.AlliesInPositionChannel()
	s.ch.Set(c, s.ch.Get(c)+1)
}

func (s *Signals) ResetAlliesInPosition() {
	s.ch.Set(s.layout.AlliesInPositionChannel(), 0)
}

func boolChannel(on bool) int32 {
	if on {
		return 1
	}
	return 0
}
