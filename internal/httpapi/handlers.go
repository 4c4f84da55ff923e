package httpapi

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"math/big"
	"net/http"
	"strconv"
	"time"

	"github.com/DoyleJ11/dice-duel-backend/internal/hub"
	"github.com/DoyleJ11/dice-duel-backend/internal/match"
	"github.com/DoyleJ11/dice-duel-backend/internal/storage"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const (
	codeAttempts = 10
	stateTimeout = 2 * time.Second
	maxHistory   = 100
)

// History is the read side of round storage.
type History interface {
	RecentRounds(ctx context.Context, room string, limit int) ([]storage.RoundRecord, error)
}

func GenerateCode() (string, error) {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	code := make([]byte, 6)
	for i := range code {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		code[i] = charset[num.Int64()]
	}
	return string(code), nil
}

func CreateRoom(h *hub.Hub, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		for range codeAttempts {
			code, err := GenerateCode()
			if err != nil {
				http.Error(w, "failed to generate code", http.StatusInternalServerError)
				return
			}
			if h.Create(r.Context(), code) == nil {
				log.Debug("collision on code, regenerating", zap.String("code", code))
				continue
			}
			writeJSON(w, http.StatusCreated, struct {
				Code string `json:"code"`
			}{Code: code})
			return
		}
		http.Error(w, "failed to create room", http.StatusServiceUnavailable)
	}
}

func ListRooms(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		codes := h.List(r.Context())
		if codes == nil {
			codes = []string{}
		}
		writeJSON(w, http.StatusOK, struct {
			Rooms []string `json:"rooms"`
		}{Rooms: codes})
	}
}

type roomView struct {
	Code      string  `json:"code"`
	Phase     string  `json:"phase"`
	Round     int     `json:"round"`
	Turn      int     `json:"turn"`
	Health    [2]int  `json:"health"`
	Scores    [2]int  `json:"scores"`
	Players   int     `json:"players"`
	Connected [2]bool `json:"connected"`
}

func GetRoom(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m := h.Get(r.Context(), chi.URLParam(r, "code"))
		if m == nil {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), stateTimeout)
		defer cancel()
		reply := make(chan match.View, 1)
		if !m.Send(ctx, match.GetState{Reply: reply}) {
			http.Error(w, "room not available", http.StatusServiceUnavailable)
			return
		}
		select {
		case v := <-reply:
			writeJSON(w, http.StatusOK, roomView{
				Code:      v.Code,
				Phase:     string(v.Phase),
				Round:     v.Round,
				Turn:      v.Turn,
				Health:    v.Health,
				Scores:    v.Scores,
				Players:   v.Players,
				Connected: v.Connected,
			})
		case <-ctx.Done():
			http.Error(w, "room not available", http.StatusServiceUnavailable)
		case <-m.Done():
			http.Error(w, "room not available", http.StatusServiceUnavailable)
		}
	}
}

type roundView struct {
	Round   int       `json:"round"`
	Players [2]string `json:"players"`
	Health  [2]int    `json:"health"`
	Winner  int       `json:"winner"`
	Turns   int       `json:"turns"`
	EndedAt time.Time `json:"endedAt"`
}

// RoomHistory lists finished rounds of a room, newest first. A nil store
// means persistence is switched off.
func RoomHistory(store History, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			http.Error(w, "history disabled", http.StatusServiceUnavailable)
			return
		}

		limit := 20
		if s := r.URL.Query().Get("limit"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n <= 0 {
				http.Error(w, "bad limit", http.StatusBadRequest)
				return
			}
			limit = min(n, maxHistory)
		}

		code := chi.URLParam(r, "code")
		recs, err := store.RecentRounds(r.Context(), code, limit)
		if err != nil {
			log.Error("load history", zap.String("room", code), zap.Error(err))
			http.Error(w, "failed to load history", http.StatusInternalServerError)
			return
		}

		out := make([]roundView, 0, len(recs))
		for _, rec := range recs {
			out = append(out, roundView{
				Round:   rec.Round,
				Players: [2]string{rec.PlayerA, rec.PlayerB},
				Health:  [2]int{rec.HealthA, rec.HealthB},
				Winner:  rec.Winner,
				Turns:   rec.Turns,
				EndedAt: rec.EndedAt,
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
