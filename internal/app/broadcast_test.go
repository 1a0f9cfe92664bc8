package app

import (
	"context"
	"slices"
	"testing"

	"github.com/dkeye/Huddle/internal/core"
	"github.com/dkeye/Huddle/internal/core/mocks"
	"github.com/dkeye/Huddle/internal/domain"
	"go.uber.org/mock/gomock"
)

func setupRoom(t *testing.T, members ...domain.Identity) (*Directory, *Registry, *Broadcaster) {
	t.Helper()
	d := NewDirectory(nil)
	mustCreate(t, d, "Lobby")
	for _, m := range members {
		mustAdd(t, d, "Lobby", m)
	}
	r := NewRegistry()
	return d, r, NewBroadcaster(d, r)
}

func TestBroadcastRecipients(t *testing.T) {
	_, reg, b := setupRoom(t, "a@x.com", "b@x.com", "c@x.com", "offline@x.com")
	a, bb, c, outsider := newFakeConn("a"), newFakeConn("b"), newFakeConn("c"), newFakeConn("o")
	reg.Bind("a@x.com", a)
	reg.Bind("b@x.com", bb)
	reg.Bind("c@x.com", c)
	reg.Bind("outsider@x.com", outsider)
	c.Close()

	ev := core.UserConnected{Email: "b@x.com", PeerID: "pb"}

	res := b.Broadcast("Lobby", ev, bb, false)
	if res.SentTo != 1 || len(res.Dropped) != 0 {
		t.Fatalf("res = %+v", res)
	}
	if got := a.types(t); !slices.Equal(got, []string{core.TypeUserConnected}) {
		t.Fatalf("a got %v", got)
	}
	if len(bb.types(t)) != 0 || len(outsider.types(t)) != 0 {
		t.Fatal("originator or outsider received the event")
	}

	res = b.Broadcast("Lobby", ev, bb, true)
	if res.SentTo != 2 {
		t.Fatalf("include originator: %+v", res)
	}
	if len(bb.types(t)) != 1 {
		t.Fatal("originator not included")
	}
}

func TestBroadcastMissingRoomIsNoop(t *testing.T) {
	_, _, b := setupRoom(t)
	res := b.Broadcast("Nowhere", core.LeaveRoom{PeerID: "p"}, nil, true)
	if res.SentTo != 0 || len(res.Dropped) != 0 {
		t.Fatalf("res = %+v", res)
	}
}

func TestBroadcastIsolatesFailures(t *testing.T) {
	ctrl := gomock.NewController(t)
	_, reg, b := setupRoom(t, "a@x.com", "b@x.com", "c@x.com")

	failing := mocks.NewMockConn(ctrl)
	failing.EXPECT().IsOpen().Return(true).AnyTimes()
	failing.EXPECT().ID().Return("broken").AnyTimes()
	failing.EXPECT().TrySend(gomock.Any()).Return(core.ErrBackpressure)

	a, c := newFakeConn("a"), newFakeConn("c")
	reg.Bind("a@x.com", a)
	reg.Bind("b@x.com", failing)
	reg.Bind("c@x.com", c)

	res := b.Broadcast("Lobby", core.ToggleHand{Email: "a@x.com", HandRaised: true}, nil, true)
	if res.SentTo != 2 || len(res.Dropped) != 1 {
		t.Fatalf("res = %+v", res)
	}
	if res.Dropped[0].Email != "b@x.com" {
		t.Fatalf("dropped = %+v", res.Dropped[0])
	}
	if (SimplePolicy{}).OnDeliveryFailure(res.Dropped[0]) != NoAction {
		t.Fatal("backpressure should not unbind")
	}
	if len(a.types(t)) != 1 || len(c.types(t)) != 1 {
		t.Fatal("healthy recipients missed the event")
	}
}

func TestSimplePolicyUnbindsClosed(t *testing.T) {
	d := Delivery{Email: "a@x.com", Err: core.ErrConnClosed}
	if (SimplePolicy{}).OnDeliveryFailure(d) != UnbindHandle {
		t.Fatal("closed handle kept")
	}
}

func TestBroadcastSeesMembershipAtCallTime(t *testing.T) {
	d, reg, b := setupRoom(t, "a@x.com")
	a, late := newFakeConn("a"), newFakeConn("late")
	reg.Bind("a@x.com", a)
	reg.Bind("late@x.com", late)

	b.Broadcast("Lobby", core.StopScreenShare{PeerID: "p"}, nil, true)
	if _, err := d.AddMember(context.Background(), "Lobby", "late@x.com"); err != nil {
		t.Fatal(err)
	}
	if len(late.types(t)) != 0 {
		t.Fatal("late joiner received an earlier broadcast")
	}
	b.Broadcast("Lobby", core.StopScreenShare{PeerID: "p"}, nil, true)
	if len(late.types(t)) != 1 || len(a.types(t)) != 2 {
		t.Fatal("membership change not picked up")
	}
}
