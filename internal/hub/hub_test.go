package hub

import (
	"context"
	"slices"
	"testing"
	"time"

	"github.com/DoyleJ11/dice-duel-backend/internal/match"
	"github.com/stretchr/testify/require"
)

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return NewHub(ctx, match.Options{})
}

func TestHub_Create_Get_SamePointer(t *testing.T) {
	h := newTestHub(t)
	reply := make(chan *match.Match, 1)

	h.Inbox() <- CreateRoom{Code: "ZED123", Reply: reply}
	r1 := <-reply

	h.Inbox() <- GetRoom{Code: "ZED123", Reply: reply}
	r2 := <-reply

	require.NotNil(t, r1)
	require.Same(t, r1, r2)
	require.Equal(t, "ZED123", r1.Code())
}

func TestHub_CreateTakenCodeFails(t *testing.T) {
	h := newTestHub(t)
	ctx := context.Background()

	require.NotNil(t, h.Create(ctx, "ABC"))
	require.Nil(t, h.Create(ctx, "ABC"))
}

func TestHub_EnsureCreatesOnce(t *testing.T) {
	h := newTestHub(t)
	ctx := context.Background()

	require.Nil(t, h.Get(ctx, DefaultRoom))
	r1 := h.Ensure(ctx, DefaultRoom)
	r2 := h.Ensure(ctx, DefaultRoom)
	require.NotNil(t, r1)
	require.Same(t, r1, r2)
}

func TestHub_RemoveStopsRoom(t *testing.T) {
	h := newTestHub(t)
	ctx := context.Background()
	r := h.Ensure(ctx, "GONE")

	h.Inbox() <- RemoveRoom{Code: "GONE"}

	select {
	case <-r.Done():
	case <-time.After(time.Second):
		t.Fatalf("removed room kept running")
	}
	require.Nil(t, h.Get(ctx, "GONE"))
}

func TestHub_ListRooms(t *testing.T) {
	h := newTestHub(t)
	ctx := context.Background()
	h.Ensure(ctx, "A")
	h.Ensure(ctx, "B")

	reply := make(chan []string, 1)
	h.Inbox() <- ListRooms{Reply: reply}
	require.ElementsMatch(t, []string{"A", "B"}, <-reply)
}

func TestHub_ShutdownStopsEverything(t *testing.T) {
	h := newTestHub(t)
	r := h.Ensure(context.Background(), "X")

	h.Inbox() <- ShutdownHub{}

	for _, done := range []<-chan struct{}{h.Done(), r.Done()} {
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatalf("hub shutdown left an actor running")
		}
	}
	require.Nil(t, h.Get(context.Background(), "X"))
}

func TestHub_CreateReplacesStoppedRoom(t *testing.T) {
	h := newTestHub(t)
	ctx := context.Background()

	r1 := h.Create(ctx, "DEAD01")
	require.NotNil(t, r1)
	r1.Inbox() <- match.Shutdown{}
	<-r1.Done()

	r2 := h.Create(ctx, "DEAD01")
	require.NotNil(t, r2)
	require.NotSame(t, r1, r2)

	// a late removal aimed at the old instance leaves the new one alone
	h.Inbox() <- RemoveRoom{Code: "DEAD01", Room: r1}
	require.Same(t, r2, h.Get(ctx, "DEAD01"))
}

func TestHub_ReclaimsIdleRooms(t *testing.T) {
	timing := match.DefaultTiming()
	timing.RoomIdleTimeout = 30 * time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	h := NewHub(ctx, match.Options{Timing: timing})

	idle := h.Create(ctx, "IDLE01")
	main := h.Ensure(ctx, DefaultRoom)

	select {
	case <-idle.Done():
	case <-time.After(time.Second):
		t.Fatalf("idle room kept running")
	}
	require.Eventually(t, func() bool {
		return slices.Equal(h.List(ctx), []string{DefaultRoom})
	}, time.Second, 10*time.Millisecond)

	select {
	case <-main.Done():
		t.Fatalf("default room must never be reclaimed")
	default:
	}
}
