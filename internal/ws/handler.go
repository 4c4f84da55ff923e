package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/DoyleJ11/dice-duel-backend/internal/engine"
	"github.com/DoyleJ11/dice-duel-backend/internal/hub"
	"github.com/DoyleJ11/dice-duel-backend/internal/match"
	"github.com/DoyleJ11/dice-duel-backend/internal/types"
	wire "github.com/DoyleJ11/dice-duel-backend/pkg/types"
	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	outboxSize   = 16
	writeTimeout = 3 * time.Second
	pingInterval = 20 * time.Second
	readLimit    = 4 << 10
)

func Handler(h *hub.Hub, log *zap.Logger) http.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("room")
		if code == "" {
			code = hub.DefaultRoom
		}

		var m *match.Match
		if code == hub.DefaultRoom {
			m = h.Ensure(r.Context(), code)
		} else {
			m = h.Get(r.Context(), code)
		}
		if m == nil {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			// In dev ONLY, you can loosen origin checks:
			// OriginPatterns: []string{"http://localhost:*", "http://127.0.0.1:*"},
		})
		if err != nil {
			log.Debug("websocket accept failed", zap.Error(err))
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")
		conn.SetReadLimit(readLimit)

		connID := uuid.NewString()
		log := log.With(zap.String("room", code), zap.String("conn", connID))
		out := make(chan wire.Message, outboxSize)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()
		defer func() {
			// Unknown conns are ignored by the match, so this is safe before join too.
			m.Send(context.Background(), match.Leave{ConnID: connID})
		}()

		// Writer goroutine. The match closes out when it drops this connection.
		go func() {
			defer cancel()
			for {
				select {
				case <-ctx.Done():
					return
				case msg, ok := <-out:
					if !ok {
						_ = conn.Close(websocket.StatusNormalClosure, "closed by server")
						return
					}
					if err := write(ctx, conn, msg); err != nil {
						log.Debug("write failed", zap.Error(err))
						return
					}
				}
			}
		}()

		go keepAlive(ctx, conn, cancel)

		// Reader loop
		for {
			_, data, err := conn.Read(ctx)
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				default:
					if !errors.Is(err, context.Canceled) {
						log.Debug("read failed", zap.Error(err))
					}
				}
				return
			}

			cm, err := types.Decode(data)
			if err != nil {
				log.Debug("dropping frame", zap.Error(err))
				continue
			}
			if !m.Send(ctx, toMatchMsg(connID, cm, out)) {
				return
			}
		}
	}
}

func write(ctx context.Context, conn *websocket.Conn, msg wire.Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, payload)
}

func keepAlive(ctx context.Context, conn *websocket.Conn, cancel context.CancelFunc) {
	t := time.NewTicker(pingInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			pctx, pcancel := context.WithTimeout(ctx, writeTimeout)
			err := conn.Ping(pctx)
			pcancel()
			if err != nil {
				cancel()
				return
			}
		}
	}
}

func toMatchMsg(connID string, cm types.ClientMessage, out chan wire.Message) match.Msg {
	switch cm.Type {
	case types.ClientJoin:
		return match.Join{ConnID: connID, PlayerID: cm.PlayerID, Loadout: cm.Equipments, Outbox: out}
	case types.ClientReady:
		return match.PlayerReady{ConnID: connID}
	case types.ClientGuess:
		return match.Guess{ConnID: connID, Action: action(cm)}
	case types.ClientBonusGuess:
		return match.BonusGuess{ConnID: connID, Action: action(cm)}
	case types.ClientAnimDone:
		return match.AnimDone{ConnID: connID}
	default:
		return match.RoundReady{ConnID: connID}
	}
}

// action assumes Decode already required both fields.
func action(cm types.ClientMessage) engine.Action {
	return engine.Action{Guess: *cm.Value, Slot: *cm.SlotIndex}
}
