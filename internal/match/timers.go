package match

import (
	"time"
)

type timerKind string

const (
	timerPrepare timerKind = "prepare"
	timerTurn    timerKind = "turn"
	timerAnim    timerKind = "anim"
	timerBonus   timerKind = "bonus"
	timerRestart timerKind = "round_restart"
	timerIdle    timerKind = "idle"
)

// Timer expirations re-enter the match through its inbox so they are
// handled serially with player messages.
type timerFired struct {
	kind timerKind
	gen  uint64
}

type graceExpired struct {
	playerID string
	gen      uint64
}

func (timerFired) isMatchMsg()   {}
func (graceExpired) isMatchMsg() {}

// phaseTimer is the single phase-advancing timer of a match. Arming always
// cancels the previous timer; a fire that was already queued when its timer
// got cancelled carries an old generation and is dropped by live.
type phaseTimer struct {
	post     func(Msg)
	t        *time.Timer
	kind     timerKind
	gen      uint64
	deadline time.Time
}

func (pt *phaseTimer) arm(kind timerKind, d time.Duration) {
	pt.cancel()
	pt.gen++
	gen, post := pt.gen, pt.post
	pt.kind = kind
	pt.deadline = time.Now().Add(d)
	pt.t = time.AfterFunc(d, func() { post(timerFired{kind: kind, gen: gen}) })
}

func (pt *phaseTimer) cancel() {
	if pt.t != nil {
		pt.t.Stop()
		pt.t = nil
	}
	pt.kind = ""
	pt.deadline = time.Time{}
}

// disarmWhen cancels the timer if pred holds and reports whether it did.
func (pt *phaseTimer) disarmWhen(pred func() bool) bool {
	if !pred() {
		return false
	}
	pt.cancel()
	return true
}

func (pt *phaseTimer) live(f timerFired) bool {
	return pt.t != nil && f.gen == pt.gen && f.kind == pt.kind
}

func (pt *phaseTimer) remaining() time.Duration {
	if pt.deadline.IsZero() {
		return 0
	}
	return max(time.Until(pt.deadline), 0)
}

type graceEntry struct {
	t   *time.Timer
	gen uint64
}

// graceTimers holds one disconnect timer per identity. They never advance
// the phase directly so they run alongside the phase timer.
type graceTimers struct {
	post    func(Msg)
	gen     uint64
	entries map[string]graceEntry
}

func newGraceTimers(post func(Msg)) *graceTimers {
	return &graceTimers{post: post, entries: make(map[string]graceEntry)}
}

func (g *graceTimers) start(playerID string, d time.Duration) {
	g.stop(playerID)
	g.gen++
	gen, post := g.gen, g.post
	g.entries[playerID] = graceEntry{
		gen: gen,
		t:   time.AfterFunc(d, func() { post(graceExpired{playerID: playerID, gen: gen}) }),
	}
}

func (g *graceTimers) stop(playerID string) bool {
	e, ok := g.entries[playerID]
	if !ok {
		return false
	}
	e.t.Stop()
	delete(g.entries, playerID)
	return true
}

// take consumes a fired entry. Stale fires (reconnected, restarted) report false.
func (g *graceTimers) take(f graceExpired) bool {
	e, ok := g.entries[f.playerID]
	if !ok || e.gen != f.gen {
		return false
	}
	delete(g.entries, f.playerID)
	return true
}

func (g *graceTimers) stopAll() {
	for id := range g.entries {
		g.stop(id)
	}
}
