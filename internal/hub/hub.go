package hub

import (
	"context"
	"slices"

	"github.com/DoyleJ11/dice-duel-backend/internal/match"
	"go.uber.org/zap"
)

// DefaultRoom is the room clients land in when they don't name one.
const DefaultRoom = "main"

type HubMsg interface{ isHubMsg() }

// CreateRoom fails (nil reply) when the code is already taken.
type CreateRoom struct {
	Code  string
	Reply chan *match.Match
}

type GetRoom struct {
	Code  string
	Reply chan *match.Match
}

type EnsureRoom struct {
	Code  string
	Reply chan *match.Match
}

// RemoveRoom stops and forgets a room. With Room set, only that exact
// instance is removed, so a late removal cannot hit a reopened code.
type RemoveRoom struct {
	Code string
	Room *match.Match
}

type ListRooms struct {
	Reply chan []string
}

type Hub struct {
	inbox chan HubMsg
	rooms map[string]*match.Match
	opts  match.Options
	log   *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

type ShutdownHub struct{}

func (CreateRoom) isHubMsg()  {}
func (GetRoom) isHubMsg()     {}
func (EnsureRoom) isHubMsg()  {}
func (RemoveRoom) isHubMsg()  {}
func (ListRooms) isHubMsg()   {}
func (ShutdownHub) isHubMsg() {}

// NewHub starts the room registry. Every room is built from opts.
func NewHub(parent context.Context, opts match.Options) *Hub {
	ctx, cancel := context.WithCancel(parent)
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	h := &Hub{
		inbox:  make(chan HubMsg, 64),
		rooms:  make(map[string]*match.Match),
		opts:   opts,
		log:    opts.Logger.Named("hub"),
		ctx:    ctx,
		cancel: cancel,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

func (h *Hub) Done() <-chan struct{} { return h.ctx.Done() }

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case CreateRoom:
				if h.live(msg.Code) != nil {
					msg.Reply <- nil
					break
				}
				msg.Reply <- h.open(msg.Code)

			case GetRoom:
				msg.Reply <- h.live(msg.Code) // May be nil

			case EnsureRoom:
				if r := h.live(msg.Code); r != nil {
					msg.Reply <- r
					break
				}
				msg.Reply <- h.open(msg.Code)

			case RemoveRoom:
				if r := h.rooms[msg.Code]; r != nil && (msg.Room == nil || msg.Room == r) {
					stop(r)
					delete(h.rooms, msg.Code)
					h.log.Info("room removed", zap.String("room", msg.Code))
				}

			case ListRooms:
				codes := make([]string, 0, len(h.rooms))
				for code := range h.rooms {
					if h.live(code) != nil {
						codes = append(codes, code)
					}
				}
				msg.Reply <- codes

			case ShutdownHub:
				h.shutdown()
				return
			}
		}
	}
}

func (h *Hub) open(code string) *match.Match {
	opts := h.opts
	if code == DefaultRoom {
		opts.Timing.RoomIdleTimeout = 0
	}
	opts.OnIdle = func(r *match.Match) { h.post(RemoveRoom{Code: r.Code(), Room: r}) }
	r := match.New(h.ctx, code, opts)
	h.rooms[code] = r
	h.log.Info("room opened", zap.String("room", code))
	return r
}

// live returns the room for code, forgetting it if its actor already stopped.
func (h *Hub) live(code string) *match.Match {
	r := h.rooms[code]
	if r == nil {
		return nil
	}
	select {
	case <-r.Done():
		delete(h.rooms, code)
		return nil
	default:
		return r
	}
}

func (h *Hub) shutdown() {
	for code, r := range h.rooms {
		stop(r)
		delete(h.rooms, code)
	}
	h.cancel()
}

func (h *Hub) post(msg HubMsg) {
	select {
	case h.inbox <- msg:
	case <-h.ctx.Done():
	}
}

func stop(r *match.Match) {
	select {
	case r.Inbox() <- match.Shutdown{}:
	case <-r.Done():
	}
}

// List returns the codes of open rooms, sorted.
func (h *Hub) List(ctx context.Context) []string {
	reply := make(chan []string, 1)
	select {
	case h.inbox <- ListRooms{Reply: reply}:
	case <-ctx.Done():
		return nil
	case <-h.ctx.Done():
		return nil
	}
	select {
	case codes := <-reply:
		slices.Sort(codes)
		return codes
	case <-ctx.Done():
		return nil
	case <-h.ctx.Done():
		return nil
	}
}

// Get is a blocking convenience over GetRoom for request handlers.
func (h *Hub) Get(ctx context.Context, code string) *match.Match {
	return h.ask(ctx, func(reply chan *match.Match) HubMsg { return GetRoom{Code: code, Reply: reply} })
}

// Ensure returns the room for code, creating it if needed.
func (h *Hub) Ensure(ctx context.Context, code string) *match.Match {
	return h.ask(ctx, func(reply chan *match.Match) HubMsg { return EnsureRoom{Code: code, Reply: reply} })
}

// Create opens a new room, returning nil if code is taken.
func (h *Hub) Create(ctx context.Context, code string) *match.Match {
	return h.ask(ctx, func(reply chan *match.Match) HubMsg { return CreateRoom{Code: code, Reply: reply} })
}

func (h *Hub) ask(ctx context.Context, build func(chan *match.Match) HubMsg) *match.Match {
	reply := make(chan *match.Match, 1)
	select {
	case h.inbox <- build(reply):
	case <-ctx.Done():
		return nil
	case <-h.ctx.Done():
		return nil
	}
	select {
	case r := <-reply:
		return r
	case <-ctx.Done():
		return nil
	case <-h.ctx.Done():
		return nil
	}
}
