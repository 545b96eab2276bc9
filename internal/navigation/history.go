package navigation

import "github.com/mitchelldurbincs/swarmnav/internal/game/core"

// DefaultHistorySize is how many recent positions cycle detection remembers.
const DefaultHistorySize = 10

// history is a fixed-size ring of recently visited tiles.
type history struct {
	slots []core.Tile
	next  int
	count int
}

func newHistory(size int) *history {
	if size <= 0 {
		size = DefaultHistorySize
	}
	return &history{slots: make([]core.Tile, size)}
}

func (h *history) reset() {
	h.next = 0
	h.count = 0
}

func (h *history) push(t core.Tile) {
	h.slots[h.next] = t
	h.next = (h.next + 1) % len(h.slots)
	if h.count < len(h.slots) {
		h.count++
	}
}

func (h *history) contains(t core.Tile) bool {
	for i := 0; i < h.count; i++ {
		if h.slots[i] == t {
			return true
		}
	}
	return false
}

func (h *history) len() int { return h.count }
