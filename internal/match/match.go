// Package match runs one duel room. Each Match is an actor: a single
// goroutine owns the session roster, the phase machine and its timers, and
// everything reaches it as a Msg on the inbox.
package match

import (
	"context"
	"time"

	"github.com/DoyleJ11/dice-duel-backend/internal/engine"
	"github.com/DoyleJ11/dice-duel-backend/internal/session"
	"github.com/DoyleJ11/dice-duel-backend/internal/storage"
	"github.com/DoyleJ11/dice-duel-backend/pkg/types"
	"go.uber.org/zap"
)

type Phase string

const (
	PhaseWaiting   Phase = "waiting"
	PhasePreparing Phase = "preparing"
	PhasePlaying   Phase = "playing"
	PhaseResults   Phase = "results"
	PhaseBonus     Phase = "bonus_move"
	PhaseRoundWait Phase = "round_wait"
)

type Msg interface{ isMatchMsg() }

type Join struct {
	ConnID   string
	PlayerID string // empty for a new player
	Loadout  []string
	Outbox   chan types.Message // closed by the match when the connection is dropped
}

type Leave struct{ ConnID string }

type PlayerReady struct{ ConnID string }

type Guess struct {
	ConnID string
	Action engine.Action
}

type BonusGuess struct {
	ConnID string
	Action engine.Action
}

type AnimDone struct{ ConnID string }

type RoundReady struct{ ConnID string }

type GetState struct {
	Reply chan View
}

type Shutdown struct{}

func (Join) isMatchMsg()        {}
func (Leave) isMatchMsg()       {}
func (PlayerReady) isMatchMsg() {}
func (Guess) isMatchMsg()       {}
func (BonusGuess) isMatchMsg()  {}
func (AnimDone) isMatchMsg()    {}
func (RoundReady) isMatchMsg()  {}
func (GetState) isMatchMsg()    {}
func (Shutdown) isMatchMsg()    {}

type View struct {
	Code      string
	Phase     Phase
	Round     int
	Turn      int
	Health    [2]int
	Scores    [2]int
	Players   int
	PlayerIDs [2]string
	Connected [2]bool
	Snapshots [2]types.MatchSnapshot
}

type Timing struct {
	PrepareDelay      time.Duration
	TurnTimeout       time.Duration
	AnimTimeout       time.Duration
	RoundRestartDelay time.Duration
	GracePeriod       time.Duration
	// RoomIdleTimeout reclaims a room that stays without players this long.
	// Zero keeps the room forever.
	RoomIdleTimeout   time.Duration
}

func DefaultTiming() Timing {
	return Timing{
		PrepareDelay:      1500 * time.Millisecond,
		TurnTimeout:       10 * time.Second,
		AnimTimeout:       15 * time.Second,
		RoundRestartDelay: 12 * time.Second,
		GracePeriod:       30 * time.Second,
		RoomIdleTimeout:   5 * time.Minute,
	}
}

type Recorder interface {
	RecordRound(ctx context.Context, rec storage.RoundRecord) error
}

type Options struct {
	Rules     engine.Rules
	Timing    Timing
	ReadyGate bool
	Roller    engine.Roller // nil: a fresh RandomRoller per match
	Recorder  Recorder      // nil: rounds are not recorded
	Logger    *zap.Logger

	// OnIdle runs on its own goroutine after an empty room stopped itself.
	OnIdle func(m *Match)
}

type participant struct {
	ID      string
	Loadout []string
}

type Match struct {
	code   string
	inbox  chan Msg
	ctx    context.Context
	cancel context.CancelFunc

	log       *zap.Logger
	rules     engine.Rules
	timing    Timing
	readyGate bool
	roller    engine.Roller
	recorder  Recorder
	onIdle    func(*Match)

	roster session.Roster
	conns  map[string]chan types.Message
	slow   []string

	phase        Phase
	round        int
	turn         int
	dice         []int
	health       [2]int
	scores       [2]int
	participants [2]participant
	actions      [2]*engine.Action
	forced       [2]bool
	acks         [2]bool
	roundReady   [2]bool
	lobbyReady   [2]bool
	pendingBonus int
	bonusActor   int
	bonusDie     int

	timer phaseTimer
	idle  phaseTimer
	grace *graceTimers
}

func New(parent context.Context, code string, opts Options) *Match {
	ctx, cancel := context.WithCancel(parent)

	if opts.Rules == (engine.Rules{}) {
		opts.Rules = engine.DefaultRules()
	}
	if opts.Timing == (Timing{}) {
		opts.Timing = DefaultTiming()
	}
	if opts.Roller == nil {
		opts.Roller = engine.NewRandomRoller()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	m := &Match{
		code:         code,
		inbox:        make(chan Msg, 64),
		ctx:          ctx,
		cancel:       cancel,
		log:          opts.Logger.With(zap.String("room", code)),
		rules:        opts.Rules,
		timing:       opts.Timing,
		readyGate:    opts.ReadyGate,
		roller:       opts.Roller,
		recorder:     opts.Recorder,
		onIdle:       opts.OnIdle,
		conns:        make(map[string]chan types.Message),
		phase:        PhaseWaiting,
		pendingBonus: engine.NoPlayer,
		bonusActor:   engine.NoPlayer,
	}
	m.timer.post = m.post
	m.idle.post = m.post
	m.grace = newGraceTimers(m.post)
	m.armIdle()

	go m.loop()
	return m
}

func (m *Match) loop() {
	for {
		select {
		case <-m.ctx.Done():
			m.shutdown()
			return

		case in := <-m.inbox:
			switch msg := in.(type) {
			case Join:
				m.handleJoin(msg)

			case Leave:
				m.disconnect(msg.ConnID)

			case PlayerReady:
				m.handlePlayerReady(msg.ConnID)

			case Guess:
				m.handleGuess(msg.ConnID, msg.Action)

			case BonusGuess:
				m.handleBonusGuess(msg.ConnID, msg.Action)

			case AnimDone:
				m.handleAnimDone(msg.ConnID)

			case RoundReady:
				m.handleRoundReady(msg.ConnID)

			case timerFired:
				if msg.kind == timerIdle {
					if m.idle.live(msg) && m.roster.Count() == 0 {
						m.reclaim()
						return
					}
					break
				}
				if m.timer.live(msg) {
					m.handleTimer(msg.kind)
				}

			case graceExpired:
				if m.grace.take(msg) {
					m.handleGraceExpired(msg.playerID)
				}

			case GetState:
				// test and http read path: reflect state without races
				msg.Reply <- m.view()

			case Shutdown:
				m.shutdown()
				return
			}
			m.reapSlow()
		}
	}
}

// Inbox exposes the actor's mailbox. Prefer Send from goroutines that may
// outlive the match.
func (m *Match) Inbox() chan<- Msg { return m.inbox }

// Send delivers msg unless ctx or the match ends first.
func (m *Match) Send(ctx context.Context, msg Msg) bool {
	select {
	case m.inbox <- msg:
		return true
	case <-ctx.Done():
		return false
	case <-m.ctx.Done():
		return false
	}
}

func (m *Match) Done() <-chan struct{} { return m.ctx.Done() }

func (m *Match) Code() string { return m.code }

func (m *Match) post(msg Msg) {
	select {
	case m.inbox <- msg:
	case <-m.ctx.Done():
	}
}

func (m *Match) shutdown() {
	m.timer.cancel()
	m.idle.cancel()
	m.grace.stopAll()
	for id := range m.conns {
		m.dropConn(id)
	}
	m.cancel()
}

func (m *Match) armIdle() {
	if m.timing.RoomIdleTimeout > 0 {
		m.idle.arm(timerIdle, m.timing.RoomIdleTimeout)
	}
}

// reclaim stops an empty room. Joins racing with it see a closed match.
func (m *Match) reclaim() {
	m.log.Info("room idle, reclaiming", zap.Duration("idle", m.timing.RoomIdleTimeout))
	m.shutdown()
	if m.onIdle != nil {
		go m.onIdle(m)
	}
}

func (m *Match) send(connID string, msg types.Message) {
	ch, ok := m.conns[connID]
	if !ok {
		return
	}
	select {
	case ch <- msg:
	default:
		// Client is slow/full - drop it once the current message is handled.
		m.log.Warn("outbox full, dropping connection",
			zap.String("conn", connID),
			zap.String("msg", string(msg.MessageType())),
		)
		m.slow = append(m.slow, connID)
	}
}

func (m *Match) sendTo(slot int, msg types.Message) {
	p := m.roster.Seat(slot)
	if p == nil || !p.Connected() {
		return
	}
	m.send(p.ConnID, msg)
}

func (m *Match) broadcast(msg types.Message) {
	for slot := range session.Seats {
		m.sendTo(slot, msg)
	}
}

func (m *Match) dropConn(connID string) {
	ch, ok := m.conns[connID]
	if !ok {
		return
	}
	delete(m.conns, connID)
	close(ch)
}

func (m *Match) reapSlow() {
	for len(m.slow) > 0 {
		id := m.slow[0]
		m.slow = m.slow[1:]
		m.disconnect(id)
	}
}

func (m *Match) view() View {
	v := View{
		Code:      m.code,
		Phase:     m.phase,
		Round:     m.round,
		Turn:      m.turn,
		Health:    m.health,
		Scores:    m.scores,
		Players:   m.roster.Count(),
		Connected: m.roster.Connected(),
	}
	for slot := range session.Seats {
		if p := m.roster.Seat(slot); p != nil {
			v.PlayerIDs[slot] = p.ID
			v.Snapshots[slot] = m.snapshot(slot)
		}
	}
	return v
}

func ms(d time.Duration) int64 { return d.Milliseconds() }
