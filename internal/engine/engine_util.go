package engine

import (
	crand "crypto/rand"
	"math/rand/v2"
)

// DefaultAction is what an idle player "submits" when the turn deadline passes.
func DefaultAction(loadout []string) Action {
	return Action{Guess: MinGuess, Slot: 0}
}

func ValidateAction(a Action, loadout []string) error {
	if a.Guess < MinGuess || a.Guess > MaxGuess {
		return ErrBadGuess
	}
	if a.Slot < 0 || a.Slot >= len(loadout) {
		return ErrBadSlot
	}
	return nil
}

type Roller interface {
	Roll(n int) []int
}

type RandomRoller struct {
	rng *rand.Rand
}

// NewRandomRoller seeds a ChaCha8 source from crypto/rand. Not safe for
// concurrent use; each match owns its own roller.
func NewRandomRoller() *RandomRoller {
	var seed [32]byte
	_, _ = crand.Read(seed[:]) // never fails since Go 1.24
	return &RandomRoller{rng: rand.New(rand.NewChaCha8(seed))}
}

func (r *RandomRoller) Roll(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = MinGuess + r.rng.IntN(MaxGuess-MinGuess+1)
	}
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
