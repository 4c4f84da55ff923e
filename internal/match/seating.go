package match

import (
	"github.com/DoyleJ11/dice-duel-backend/internal/session"
	"github.com/DoyleJ11/dice-duel-backend/pkg/types"
	"go.uber.org/zap"
)

func (m *Match) handleJoin(msg Join) {
	if msg.Outbox == nil {
		return
	}
	if _, dup := m.conns[msg.ConnID]; dup {
		return
	}
	m.conns[msg.ConnID] = msg.Outbox

	kind := m.roster.Classify(msg.PlayerID)
	m.log.Info("join",
		zap.String("conn", msg.ConnID),
		zap.String("player", msg.PlayerID),
		zap.Stringer("kind", kind),
		zap.String("phase", string(m.phase)),
	)

	switch kind {
	case session.JoinReconnect:
		m.reconnect(msg)
	case session.JoinNew:
		m.admit(msg)
	default:
		m.reject(msg.ConnID)
	}
}

func (m *Match) reject(connID string) {
	m.send(connID, types.Full{Type: types.MsgFull})
	m.dropConn(connID)
}

func (m *Match) admit(msg Join) {
	p, err := m.roster.Admit(msg.ConnID, msg.Loadout)
	if err != nil {
		m.reject(msg.ConnID)
		return
	}
	m.idle.cancel()

	m.send(msg.ConnID, types.AssignID{
		Type:       types.MsgAssignID,
		PlayerID:   p.ID,
		YourIndex:  p.Slot,
		Equipments: p.Loadout,
	})

	if !m.roster.Full() {
		m.send(msg.ConnID, types.Wait{Type: types.MsgWait})
		return
	}

	m.broadcast(types.PlayerJoined{Type: types.MsgPlayerJoined, PlayerIndex: p.Slot, Players: m.roster.Count()})
	if m.phase != PhaseWaiting {
		return
	}
	if m.readyGate {
		m.broadcast(types.LobbyReady{Type: types.MsgLobbyReady})
		m.tryStartFromLobby()
		return
	}
	m.startRound(false)
}

func (m *Match) reconnect(msg Join) {
	p, prev, err := m.roster.Rebind(msg.PlayerID, msg.ConnID, msg.Loadout)
	if err != nil {
		m.reject(msg.ConnID)
		return
	}
	m.grace.stop(p.ID)
	if prev != "" && prev != msg.ConnID {
		m.dropConn(prev)
	}

	m.send(msg.ConnID, types.Reconnect{
		Type:       types.MsgReconnect,
		PlayerID:   p.ID,
		Equipments: p.Loadout,
		Snapshot:   m.snapshot(p.Slot),
	})
	m.sendTo(1-p.Slot, types.PlayerReconnected{Type: types.MsgPlayerReconnected, PlayerIndex: p.Slot})
}

// disconnect handles a closed or dropped channel. The seat stays reserved for
// the grace period and the round keeps running; idle turns are defaulted.
func (m *Match) disconnect(connID string) {
	if _, ok := m.conns[connID]; !ok {
		return
	}
	m.dropConn(connID)

	p := m.roster.Disconnect(connID)
	if p == nil {
		return
	}
	m.log.Info("player disconnected",
		zap.String("player", p.ID),
		zap.Int("slot", p.Slot),
		zap.Duration("grace", m.timing.GracePeriod),
	)
	m.grace.start(p.ID, m.timing.GracePeriod)
	m.sendTo(1-p.Slot, types.OpponentLeft{
		Type:        types.MsgOpponentLeft,
		PlayerIndex: p.Slot,
		GraceMs:     ms(m.timing.GracePeriod),
	})

	// The remaining player alone may now satisfy a pending barrier.
	switch m.phase {
	case PhaseResults:
		if m.timer.disarmWhen(m.allConnected(&m.acks)) {
			m.advance()
		}
	case PhaseRoundWait:
		if m.timer.disarmWhen(m.allConnected(&m.roundReady)) {
			m.startRound(true)
		}
	}
}

func (m *Match) handleGraceExpired(playerID string) {
	p := m.roster.Vacate(playerID)
	if p == nil {
		return
	}
	m.lobbyReady[p.Slot] = false
	m.log.Info("grace period expired", zap.String("player", playerID), zap.Int("slot", p.Slot))

	if m.phase != PhaseWaiting {
		m.resetToWaiting()
	}
	m.sendTo(1-p.Slot, types.Wait{Type: types.MsgWait})
	if m.roster.Count() == 0 {
		m.armIdle()
	}
}

func (m *Match) handlePlayerReady(connID string) {
	if !m.readyGate || m.phase != PhaseWaiting {
		return
	}
	p := m.roster.ByConn(connID)
	if p == nil {
		return
	}
	m.lobbyReady[p.Slot] = true
	m.tryStartFromLobby()
}

func (m *Match) tryStartFromLobby() {
	if !m.roster.Full() || !m.lobbyReady[0] || !m.lobbyReady[1] {
		return
	}
	m.broadcast(types.MatchStart{Type: types.MsgMatchStart})
	m.startRound(false)
}

// allConnected reports whether every connected seat has its flag set. With
// nobody connected only the timer may advance.
func (m *Match) allConnected(flags *[2]bool) func() bool {
	return func() bool {
		seen := false
		for slot, ok := range m.roster.Connected() {
			if !ok {
				continue
			}
			seen = true
			if !flags[slot] {
				return false
			}
		}
		return seen
	}
}
