package engine

import (
	"errors"
	"testing"
)

var (
	swordFirst = []string{"sword", "heal", "dodge"}
	healFirst  = []string{"heal", "sword", "dodge"}
	dodgeFirst = []string{"dodge", "sword", "heal"}
)

func full() [2]int { return [2]int{100, 100} }

func TestResolveTurn_OpeningScenario(t *testing.T) {
	// dice=[3,1,6,2,5,4], turn 1
	out := ResolveTurn(DefaultRules(), 3,
		[2]Action{{Guess: 2, Slot: 0}, {Guess: 5, Slot: 0}},
		[2][]string{swordFirst, healFirst},
		full(),
	)

	if out.Dice != 3 {
		t.Fatalf("dice: got %d, want 3", out.Dice)
	}
	if out.Health != [2]int{100, 95} {
		t.Fatalf("health: got %v, want [100 95]", out.Health)
	}
	p1, p2 := out.Players[0], out.Players[1]
	if !p1.Success || p1.Damage != 5 {
		t.Fatalf("p1: got %+v, want success with dmg 5", p1)
	}
	if p2.Success || p2.Heal != 0 {
		t.Fatalf("p2: got %+v, want miss with heal 0", p2)
	}
	if out.FirstActor != 1 {
		t.Fatalf("firstActor: got %d, want 1", out.FirstActor)
	}
	if out.HasBonus() {
		t.Fatalf("expected no bonus, got actor %d", out.BonusActor)
	}
}

func TestResolveTurn_Table(t *testing.T) {
	cases := []struct {
		name       string
		dice       int
		actions    [2]Action
		loadouts   [2][]string
		health     [2]int
		wantHealth [2]int
		wantBonus  int
		wantFirst  int
	}{
		{
			name:       "lone dodge with higher guess negates damage and earns bonus",
			dice:       6,
			actions:    [2]Action{{Guess: 5, Slot: 0}, {Guess: 3, Slot: 0}},
			loadouts:   [2][]string{dodgeFirst, swordFirst},
			health:     full(),
			wantHealth: [2]int{100, 100},
			wantBonus:  0,
			wantFirst:  0,
		},
		{
			name:       "dodge with lower guess does not trigger",
			dice:       6,
			actions:    [2]Action{{Guess: 2, Slot: 0}, {Guess: 4, Slot: 0}},
			loadouts:   [2][]string{dodgeFirst, swordFirst},
			health:     full(),
			wantHealth: [2]int{93, 100},
			wantBonus:  NoPlayer,
			wantFirst:  1,
		},
		{
			name:       "dodge tie on guesses still counts as max",
			dice:       4,
			actions:    [2]Action{{Guess: 4, Slot: 0}, {Guess: 4, Slot: 0}},
			loadouts:   [2][]string{swordFirst, dodgeFirst},
			health:     full(),
			wantHealth: [2]int{100, 100},
			wantBonus:  1,
			wantFirst:  NoPlayer,
		},
		{
			name:       "both dodging cancels the bonus",
			dice:       5,
			actions:    [2]Action{{Guess: 3, Slot: 0}, {Guess: 3, Slot: 0}},
			loadouts:   [2][]string{dodgeFirst, dodgeFirst},
			health:     [2]int{50, 60},
			wantHealth: [2]int{50, 60},
			wantBonus:  NoPlayer,
			wantFirst:  NoPlayer,
		},
		{
			name:       "failed dodge grants nothing",
			dice:       2,
			actions:    [2]Action{{Guess: 6, Slot: 0}, {Guess: 1, Slot: 0}},
			loadouts:   [2][]string{dodgeFirst, swordFirst},
			health:     full(),
			wantHealth: [2]int{96, 100},
			wantBonus:  NoPlayer,
			wantFirst:  0,
		},
		{
			name:       "heal clamps at max hp",
			dice:       6,
			actions:    [2]Action{{Guess: 6, Slot: 0}, {Guess: 1, Slot: 0}},
			loadouts:   [2][]string{healFirst, swordFirst},
			health:     [2]int{98, 100},
			wantHealth: [2]int{100, 100},
			wantBonus:  NoPlayer,
			wantFirst:  0,
		},
		{
			name:       "damage clamps at zero",
			dice:       6,
			actions:    [2]Action{{Guess: 6, Slot: 0}, {Guess: 6, Slot: 0}},
			loadouts:   [2][]string{swordFirst, swordFirst},
			health:     [2]int{4, 50},
			wantHealth: [2]int{0, 41},
			wantBonus:  NoPlayer,
			wantFirst:  NoPlayer,
		},
		{
			name:       "both miss",
			dice:       1,
			actions:    [2]Action{{Guess: 2, Slot: 0}, {Guess: 3, Slot: 1}},
			loadouts:   [2][]string{swordFirst, healFirst},
			health:     [2]int{70, 70},
			wantHealth: [2]int{70, 70},
			wantBonus:  NoPlayer,
			wantFirst:  1,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out := ResolveTurn(DefaultRules(), tc.dice, tc.actions, tc.loadouts, tc.health)
			if out.Health != tc.wantHealth {
				t.Fatalf("health: got %v, want %v", out.Health, tc.wantHealth)
			}
			if out.BonusActor != tc.wantBonus {
				t.Fatalf("bonus: got %d, want %d", out.BonusActor, tc.wantBonus)
			}
			if out.FirstActor != tc.wantFirst {
				t.Fatalf("firstActor: got %d, want %d", out.FirstActor, tc.wantFirst)
			}
			for i, h := range out.Health {
				if h < 0 || h > DefaultRules().MaxHP {
					t.Fatalf("health[%d]=%d out of bounds", i, h)
				}
			}
		})
	}
}

func TestResolveTurn_DodgerTakesNoDamage(t *testing.T) {
	for g2 := MinGuess; g2 < MaxGuess; g2++ {
		for g1 := g2 + 1; g1 <= MaxGuess; g1++ {
			out := ResolveTurn(DefaultRules(), MaxGuess,
				[2]Action{{Guess: g1, Slot: 0}, {Guess: g2, Slot: 0}},
				[2][]string{dodgeFirst, swordFirst},
				full(),
			)
			if out.Players[1].Damage != 0 {
				t.Fatalf("g1=%d g2=%d: opponent damage %d, want 0", g1, g2, out.Players[1].Damage)
			}
			if out.BonusActor != 0 {
				t.Fatalf("g1=%d g2=%d: bonus actor %d, want 0", g1, g2, out.BonusActor)
			}
		}
	}
}

func TestResolveBonus(t *testing.T) {
	health := [2]int{40, 30}

	hit := ResolveBonus(DefaultRules(), 5, &Action{Guess: 4, Slot: 0}, swordFirst, health, 0)
	if !hit.Success || hit.Damage != 7 || hit.Health != [2]int{40, 23} {
		t.Fatalf("hit: got %+v", hit)
	}

	// heal items strike too during a bonus turn
	healHit := ResolveBonus(DefaultRules(), 5, &Action{Guess: 2, Slot: 0}, healFirst, health, 1)
	if healHit.Health != [2]int{35, 30} {
		t.Fatalf("heal strike: got %+v", healHit)
	}

	miss := ResolveBonus(DefaultRules(), 2, &Action{Guess: 3, Slot: 0}, swordFirst, health, 0)
	if miss.Success || miss.Health != health {
		t.Fatalf("miss: got %+v", miss)
	}

	forced := ResolveBonus(DefaultRules(), 6, nil, swordFirst, health, 0)
	if !forced.Forced || forced.Success || forced.Health != health {
		t.Fatalf("forced: got %+v", forced)
	}
}

func TestValidateAction(t *testing.T) {
	cases := []struct {
		name   string
		action Action
		want   error
	}{
		{name: "ok", action: Action{Guess: 3, Slot: 2}, want: nil},
		{name: "guess too low", action: Action{Guess: 0, Slot: 0}, want: ErrBadGuess},
		{name: "guess too high", action: Action{Guess: 7, Slot: 0}, want: ErrBadGuess},
		{name: "negative slot", action: Action{Guess: 1, Slot: -1}, want: ErrBadSlot},
		{name: "slot past loadout", action: Action{Guess: 1, Slot: 3}, want: ErrBadSlot},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateAction(tc.action, swordFirst)
			if !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
		})
	}
}

func TestDefaultAction_IsAlwaysValid(t *testing.T) {
	a := DefaultAction(swordFirst)
	if err := ValidateAction(a, swordFirst); err != nil {
		t.Fatalf("default action invalid: %v", err)
	}
	if a.Guess != MinGuess || a.Slot != 0 {
		t.Fatalf("got %+v, want lowest guess in first slot", a)
	}
}

func TestNormalizeLoadout(t *testing.T) {
	got := NormalizeLoadout([]string{"Sword", "laser", " potion "})
	if len(got) != 2 || got[0] != "sword" || got[1] != "potion" {
		t.Fatalf("got %v", got)
	}

	empty := NormalizeLoadout(nil)
	if len(empty) != len(DefaultLoadout) {
		t.Fatalf("empty loadout: got %v, want default", empty)
	}
	empty[0] = "axe"
	if DefaultLoadout[0] != "sword" {
		t.Fatalf("normalized loadout aliases DefaultLoadout")
	}
}

func TestRandomRoller_RangeAndLength(t *testing.T) {
	r := NewRandomRoller()
	dice := r.Roll(200)
	if len(dice) != 200 {
		t.Fatalf("len: got %d", len(dice))
	}
	for _, d := range dice {
		if d < MinGuess || d > MaxGuess {
			t.Fatalf("die %d out of range", d)
		}
	}
}
