package match

import (
	"context"
	"slices"
	"time"

	"github.com/DoyleJ11/dice-duel-backend/internal/engine"
	"github.com/DoyleJ11/dice-duel-backend/internal/session"
	"github.com/DoyleJ11/dice-duel-backend/internal/storage"
	"github.com/DoyleJ11/dice-duel-backend/pkg/types"
	"go.uber.org/zap"
)

/*
	waiting    -> preparing  (two seats, ready gate passed)       startRound
	preparing  -> playing    (prepare delay)                      beginTurn
	playing    -> results    (both actions or turn deadline)      resolveTurn
	results    -> bonus_move (lone dodge, nobody at 0 hp)          startBonus
	bonus_move -> results    (bonus_guess or bonus deadline)       resolveBonus
	results    -> playing | round_wait (acks or anim timeout)      advance
	round_wait -> preparing  (round_ready or restart delay)        startRound
	any        -> waiting    (grace period expired)                resetToWaiting
*/

const recordTimeout = 5 * time.Second

func (m *Match) handleTimer(kind timerKind) {
	m.timer.cancel()
	switch kind {
	case timerPrepare:
		if m.phase == PhasePreparing {
			m.beginTurn()
		}
	case timerTurn:
		if m.phase == PhasePlaying {
			m.injectDefaults()
			m.resolveTurn()
		}
	case timerAnim:
		if m.phase == PhaseResults {
			m.advance()
		}
	case timerBonus:
		if m.phase == PhaseBonus {
			m.resolveBonus(nil)
		}
	case timerRestart:
		if m.phase == PhaseRoundWait {
			m.startRound(true)
		}
	}
}

// startRound seeds a fresh round from the two seated players. announce marks
// a restart from round_wait, which clients see as new_dice_round.
func (m *Match) startRound(announce bool) {
	fresh := m.round == 0
	m.round++
	if fresh || m.health[0] <= 0 || m.health[1] <= 0 {
		m.health = [2]int{m.rules.MaxHP, m.rules.MaxHP}
	}

	for slot := range session.Seats {
		p := m.roster.Seat(slot)
		m.participants[slot] = participant{ID: p.ID, Loadout: slices.Clone(p.Loadout)}
	}
	m.dice = m.roller.Roll(m.rules.TurnsPerRound)
	m.turn = 0
	m.clearTurn()
	m.roundReady = [2]bool{}
	m.pendingBonus = engine.NoPlayer
	m.bonusActor = engine.NoPlayer
	m.phase = PhasePreparing

	m.log.Info("round starting",
		zap.Int("round", m.round),
		zap.Ints("health", m.health[:]),
		zap.Bool("restart", announce),
	)

	if announce {
		m.broadcast(types.NewDiceRound{Type: types.MsgNewDiceRound, Round: m.round, Health: m.health})
	}
	for slot := range session.Seats {
		m.sendTo(slot, types.GamePrepare{
			Type:              types.MsgGamePrepare,
			Round:             m.round,
			YourIndex:         slot,
			Health:            m.health,
			OpponentSlotCount: len(m.participants[1-slot].Loadout),
			Equipments:        m.participants[slot].Loadout,
		})
	}
	m.timer.arm(timerPrepare, m.timing.PrepareDelay)
}

func (m *Match) clearTurn() {
	m.actions = [2]*engine.Action{}
	m.forced = [2]bool{}
	m.acks = [2]bool{}
}

func (m *Match) beginTurn() {
	m.turn++
	m.clearTurn()
	m.phase = PhasePlaying
	m.timer.arm(timerTurn, m.timing.TurnTimeout)
	m.broadcast(types.TurnStart{
		Type:       types.MsgTurnStart,
		Turn:       m.turn,
		Health:     m.health,
		DeadlineMs: ms(m.timing.TurnTimeout),
	})
}

// handleGuess records a write-once action. Anything out of phase, duplicated
// or out of range is dropped without a reply.
func (m *Match) handleGuess(connID string, a engine.Action) {
	if m.phase != PhasePlaying {
		return
	}
	p := m.roster.ByConn(connID)
	if p == nil || m.actions[p.Slot] != nil {
		return
	}
	if err := engine.ValidateAction(a, m.participants[p.Slot].Loadout); err != nil {
		m.log.Debug("guess rejected", zap.Int("slot", p.Slot), zap.Error(err))
		return
	}
	m.actions[p.Slot] = &a
	if m.actions[0] != nil && m.actions[1] != nil {
		m.resolveTurn()
	}
}

func (m *Match) injectDefaults() {
	for slot := range session.Seats {
		if m.actions[slot] != nil {
			continue
		}
		a := engine.DefaultAction(m.participants[slot].Loadout)
		m.actions[slot] = &a
		m.forced[slot] = true
		m.log.Info("turn deadline, default action injected",
			zap.Int("turn", m.turn),
			zap.Int("slot", slot),
		)
	}
}

func (m *Match) resolveTurn() {
	m.timer.cancel()

	dice := m.dice[m.turn-1]
	out := engine.ResolveTurn(m.rules, dice,
		[2]engine.Action{*m.actions[0], *m.actions[1]},
		[2][]string{m.participants[0].Loadout, m.participants[1].Loadout},
		m.health,
	)
	m.health = out.Health
	m.pendingBonus = engine.NoPlayer
	if out.HasBonus() && m.health[0] > 0 && m.health[1] > 0 {
		m.pendingBonus = out.BonusActor
	}
	m.phase = PhaseResults

	m.log.Debug("turn resolved",
		zap.Int("round", m.round),
		zap.Int("turn", m.turn),
		zap.Int("dice", dice),
		zap.Ints("health", m.health[:]),
		zap.Int("bonus", m.pendingBonus),
	)

	m.broadcast(types.TurnResult{
		Type:        types.MsgTurnResult,
		Turn:        m.turn,
		Dice:        dice,
		Health:      m.health,
		P1:          playerOutcome(out.Players[0], m.forced[0]),
		P2:          playerOutcome(out.Players[1], m.forced[1]),
		FirstActor:  out.FirstActor,
		HasBonus:    m.pendingBonus != engine.NoPlayer,
		BonusPlayer: m.pendingBonus,
	})
	m.armBarrier()
}

func playerOutcome(r engine.PlayerResult, forced bool) types.PlayerOutcome {
	return types.PlayerOutcome{
		Guess:   r.Guess,
		Slot:    r.Slot,
		Item:    r.Item,
		Kind:    string(r.Kind),
		Success: r.Success,
		Damage:  r.Damage,
		Heal:    r.Heal,
		Dodged:  r.Dodged,
		Forced:  forced,
	}
}

func (m *Match) armBarrier() {
	m.acks = [2]bool{}
	m.timer.arm(timerAnim, m.timing.AnimTimeout)
}

func (m *Match) handleAnimDone(connID string) {
	if m.phase != PhaseResults {
		return
	}
	p := m.roster.ByConn(connID)
	if p == nil {
		return
	}
	m.acks[p.Slot] = true
	if m.timer.disarmWhen(m.allConnected(&m.acks)) {
		m.advance()
	}
}

// advance leaves the animation barrier.
func (m *Match) advance() {
	m.timer.cancel()
	switch {
	case m.pendingBonus != engine.NoPlayer:
		m.startBonus()
	case m.roundOver():
		m.endRound()
	default:
		m.beginTurn()
	}
}

func (m *Match) roundOver() bool {
	return m.health[0] <= 0 || m.health[1] <= 0 || m.turn >= m.rules.TurnsPerRound
}

func (m *Match) startBonus() {
	m.bonusActor = m.pendingBonus
	m.pendingBonus = engine.NoPlayer
	m.bonusDie = m.roller.Roll(1)[0]
	m.phase = PhaseBonus
	m.timer.arm(timerBonus, m.timing.TurnTimeout)
	m.broadcast(types.BonusStart{
		Type:        types.MsgBonusStart,
		PlayerIndex: m.bonusActor,
		DeadlineMs:  ms(m.timing.TurnTimeout),
	})
}

func (m *Match) handleBonusGuess(connID string, a engine.Action) {
	if m.phase != PhaseBonus {
		return
	}
	p := m.roster.ByConn(connID)
	if p == nil || p.Slot != m.bonusActor {
		return
	}
	if err := engine.ValidateAction(a, m.participants[p.Slot].Loadout); err != nil {
		m.log.Debug("bonus guess rejected", zap.Int("slot", p.Slot), zap.Error(err))
		return
	}
	m.resolveBonus(&a)
}

// resolveBonus applies the free strike; a nil action is a missed deadline.
func (m *Match) resolveBonus(a *engine.Action) {
	m.timer.cancel()
	actor := m.bonusActor
	out := engine.ResolveBonus(m.rules, m.bonusDie, a, m.participants[actor].Loadout, m.health, actor)
	m.health = out.Health
	m.bonusActor = engine.NoPlayer
	m.phase = PhaseResults

	m.broadcast(types.BonusResult{
		Type:        types.MsgBonusResult,
		PlayerIndex: actor,
		Dice:        out.Dice,
		Guess:       out.Guess,
		Slot:        out.Slot,
		Item:        out.Item,
		Success:     out.Success,
		Damage:      out.Damage,
		Forced:      out.Forced,
		Health:      m.health,
	})
	m.armBarrier()
}

func (m *Match) endRound() {
	winner := engine.NoPlayer
	switch {
	case m.health[0] > m.health[1]:
		winner = 0
	case m.health[1] > m.health[0]:
		winner = 1
	}
	if winner != engine.NoPlayer {
		m.scores[winner]++
	}
	m.phase = PhaseRoundWait
	m.roundReady = [2]bool{}

	m.log.Info("round over",
		zap.Int("round", m.round),
		zap.Int("turns", m.turn),
		zap.Int("winner", winner),
		zap.Ints("health", m.health[:]),
	)

	m.broadcast(types.MatchEnd{
		Type:   types.MsgMatchEnd,
		Round:  m.round,
		Winner: winner,
		Health: m.health,
		Scores: m.scores,
	})
	m.record(winner)
	m.timer.arm(timerRestart, m.timing.RoundRestartDelay)
}

// record stores the finished round off the actor goroutine.
func (m *Match) record(winner int) {
	if m.recorder == nil {
		return
	}
	rec := storage.RoundRecord{
		Room:    m.code,
		Round:   m.round,
		PlayerA: m.participants[0].ID,
		PlayerB: m.participants[1].ID,
		HealthA: m.health[0],
		HealthB: m.health[1],
		Winner:  winner,
		Turns:   m.turn,
		EndedAt: time.Now().UTC(),
	}
	recorder, log := m.recorder, m.log
	go func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(m.ctx), recordTimeout)
		defer cancel()
		if err := recorder.RecordRound(ctx, rec); err != nil {
			log.Error("record round failed", zap.Int("round", rec.Round), zap.Error(err))
		}
	}()
}

func (m *Match) handleRoundReady(connID string) {
	if m.phase != PhaseRoundWait {
		return
	}
	p := m.roster.ByConn(connID)
	if p == nil {
		return
	}
	m.roundReady[p.Slot] = true
	if m.timer.disarmWhen(m.allConnected(&m.roundReady)) {
		m.startRound(true)
	}
}

// resetToWaiting tears the match down after a seat is lost for good. The
// next pair of players starts a fresh match.
func (m *Match) resetToWaiting() {
	m.timer.cancel()
	m.phase = PhaseWaiting
	m.round = 0
	m.turn = 0
	m.dice = nil
	m.health = [2]int{}
	m.scores = [2]int{}
	m.participants = [2]participant{}
	m.clearTurn()
	m.roundReady = [2]bool{}
	m.lobbyReady = [2]bool{} // a new pairing confirms again
	m.pendingBonus = engine.NoPlayer
	m.bonusActor = engine.NoPlayer
}

func (m *Match) snapshot(slot int) types.MatchSnapshot {
	revealed := m.turn
	if m.phase == PhasePlaying || m.phase == PhasePreparing {
		revealed = max(m.turn-1, 0)
	}
	revealed = min(revealed, len(m.dice))

	snap := types.MatchSnapshot{
		Phase:         string(m.phase),
		Round:         m.round,
		Turn:          m.turn,
		TurnsPerRound: m.rules.TurnsPerRound,
		YourIndex:     slot,
		Health:        m.health,
		Scores:        m.scores,
		Dice:          slices.Clone(m.dice[:revealed]),
		BonusPlayer:   m.bonusActor,
		Connected:     m.roster.Connected(),
		RemainingMs:   ms(m.timer.remaining()),
	}
	if m.phase == PhasePlaying {
		snap.Submitted = [2]bool{m.actions[0] != nil, m.actions[1] != nil}
	}

	if m.phase == PhaseWaiting {
		if p := m.roster.Seat(slot); p != nil {
			snap.Equipments = slices.Clone(p.Loadout)
		}
		if opp := m.roster.Opponent(slot); opp != nil {
			snap.OpponentSlotCount = len(opp.Loadout)
		}
		return snap
	}
	snap.Equipments = slices.Clone(m.participants[slot].Loadout)
	snap.OpponentSlotCount = len(m.participants[1-slot].Loadout)
	return snap
}
