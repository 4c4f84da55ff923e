package engine

import (
	"errors"
)

var ErrBadGuess = errors.New("guess out of range")
var ErrBadSlot = errors.New("item slot out of range")
var ErrUnknownItem = errors.New("unknown item")

const (
	MinGuess = 1
	MaxGuess = 6

	// NoPlayer marks "nobody" in seat-valued fields (first actor, bonus actor, winner).
	NoPlayer = -1
)

type Rules struct {
	TurnsPerRound int
	MaxHP         int
}

func DefaultRules() Rules {
	return Rules{TurnsPerRound: 6, MaxHP: 100}
}

type Action struct {
	Guess int
	Slot  int
}

type PlayerResult struct {
	Guess   int
	Slot    int
	Item    string
	Kind    Kind
	Success bool
	Damage  int
	Heal    int
	Dodged  bool
}

type Outcome struct {
	Dice       int
	Players    [2]PlayerResult
	Health     [2]int
	FirstActor int
	BonusActor int
}

func (o Outcome) HasBonus() bool { return o.BonusActor != NoPlayer }

type BonusOutcome struct {
	Actor   int
	Dice    int
	Guess   int
	Slot    int
	Item    string
	Forced  bool
	Success bool
	Damage  int
	Health  [2]int
}

/*
	ResolveTurn: lookup items -> judge success (guess <= dice) -> dodge check
	(max guess, ties count) -> negate damage for a lone dodger -> net health delta -> clamp.
	ResolveBonus: single strike at the opponent, never heals or dodges.
*/

// ResolveTurn is total over validated input: slots must already be checked
// with ValidateAction.
func ResolveTurn(rules Rules, dice int, actions [2]Action, loadouts [2][]string, health [2]int) Outcome {
	out := Outcome{
		Dice:       dice,
		FirstActor: firstActor(actions[0].Guess, actions[1].Guess),
		BonusActor: NoPlayer,
	}

	for i := range 2 {
		a := actions[i]
		item := itemAt(loadouts[i], a.Slot)
		out.Players[i] = PlayerResult{
			Guess:   a.Guess,
			Slot:    a.Slot,
			Item:    item.Name,
			Kind:    item.Kind,
			Success: a.Guess <= dice,
		}
	}

	maxGuess := max(actions[0].Guess, actions[1].Guess)
	for i := range 2 {
		p := &out.Players[i]
		if !p.Success {
			continue
		}
		item := itemAt(loadouts[i], p.Slot)
		switch item.Kind {
		case KindDamage:
			p.Damage = item.Power + p.Guess
		case KindHeal:
			p.Heal = item.Power + p.Guess
		case KindDodge:
			p.Dodged = p.Guess == maxGuess
		}
	}

	switch {
	case out.Players[0].Dodged && out.Players[1].Dodged:
		// Both dodges cancel out. Nobody earns the bonus turn.
	case out.Players[0].Dodged:
		out.Players[1].Damage = 0
		out.BonusActor = 0
	case out.Players[1].Dodged:
		out.Players[0].Damage = 0
		out.BonusActor = 1
	}

	for i := range 2 {
		incoming := out.Players[1-i].Damage
		out.Health[i] = clamp(health[i]+out.Players[i].Heal-incoming, 0, rules.MaxHP)
	}
	return out
}

// ResolveBonus resolves the free strike of actor against the opponent. A nil
// action means the bonus deadline expired and resolves as a miss.
func ResolveBonus(rules Rules, die int, action *Action, loadout []string, health [2]int, actor int) BonusOutcome {
	out := BonusOutcome{
		Actor:  actor,
		Dice:   die,
		Health: health,
	}
	if action == nil {
		out.Forced = true
		return out
	}

	item := itemAt(loadout, action.Slot)
	out.Guess = action.Guess
	out.Slot = action.Slot
	out.Item = item.Name
	out.Success = action.Guess <= die
	if out.Success {
		out.Damage = item.Power + action.Guess
		target := 1 - actor
		out.Health[target] = clamp(health[target]-out.Damage, 0, rules.MaxHP)
	}
	return out
}

func firstActor(g0, g1 int) int {
	switch {
	case g0 > g1:
		return 0
	case g1 > g0:
		return 1
	default:
		return NoPlayer
	}
}
