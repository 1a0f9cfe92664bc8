package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/mock/gomock"

	"github.com/dkeye/Huddle/internal/adapters/rtc"
	"github.com/dkeye/Huddle/internal/app"
	"github.com/dkeye/Huddle/internal/app/orch"
	"github.com/dkeye/Huddle/internal/config"
	"github.com/dkeye/Huddle/internal/core"
	"github.com/dkeye/Huddle/internal/core/mocks"
	"github.com/dkeye/Huddle/internal/domain"
)

func newTestRouter(t *testing.T) (*orch.Orchestrator, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{
		Mode:       "test",
		Secret:     "test-secret",
		ReadLimit:  4096,
		PingPeriod: time.Minute,
		Signal:     config.SignalConfig{SendBuffer: 8},
	}
	o := orch.New(app.NewDirectory(nil), app.NewRegistry(), app.NewBindings(nil))
	return o, SetupRouter(context.Background(), cfg, o, rtc.DefaultWebRTCConfig())
}

func do(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRoomCRUD(t *testing.T) {
	_, r := newTestRouter(t)

	steps := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"create", http.MethodPost, "/api/room", `{"name":"Lobby"}`, http.StatusCreated},
		{"create duplicate", http.MethodPost, "/api/room", `{"name":"Lobby"}`, http.StatusConflict},
		{"create blank", http.MethodPost, "/api/room", `{"name":"  "}`, http.StatusBadRequest},
		{"create bad json", http.MethodPost, "/api/room", `{`, http.StatusBadRequest},
		{"get", http.MethodGet, "/api/room/Lobby", "", http.StatusOK},
		{"get missing", http.MethodGet, "/api/room/Nope", "", http.StatusNotFound},
		{"rename", http.MethodPut, "/api/room/Lobby", `{"name":"Hall"}`, http.StatusOK},
		{"rename missing", http.MethodPut, "/api/room/Lobby", `{"name":"Other"}`, http.StatusNotFound},
		{"join", http.MethodPost, "/api/room/Hall/email", `{"email":"a@x"}`, http.StatusOK},
		{"join again", http.MethodPost, "/api/room/Hall/email", `{"email":"a@x"}`, http.StatusOK},
		{"delete occupied", http.MethodDelete, "/api/room/Hall", "", http.StatusConflict},
		{"replace occupied", http.MethodPut, "/api/room/Hall", `{"name":"Z"}`, http.StatusConflict},
		{"remove", http.MethodDelete, "/api/room/Hall/email/a@x", "", http.StatusNoContent},
		{"remove again", http.MethodDelete, "/api/room/Hall/email/a@x", "", http.StatusNotFound},
		{"delete", http.MethodDelete, "/api/room/Hall", "", http.StatusNoContent},
		{"delete again", http.MethodDelete, "/api/room/Hall", "", http.StatusNotFound},
	}
	for _, s := range steps {
		w := do(r, s.method, s.path, s.body)
		if w.Code != s.want {
			t.Fatalf("%s: status %d, want %d (body %s)", s.name, w.Code, s.want, w.Body.String())
		}
	}
}

func TestAddParticipantReturnsRoom(t *testing.T) {
	_, r := newTestRouter(t)
	do(r, http.MethodPost, "/api/room", `{"name":"Lobby"}`)
	do(r, http.MethodPost, "/api/room/Lobby/email", `{"email":"a@x"}`)
	w := do(r, http.MethodPost, "/api/room/Lobby/email", `{"email":"b@x"}`)

	var room domain.Room
	if err := json.Unmarshal(w.Body.Bytes(), &room); err != nil {
		t.Fatal(err)
	}
	if room.Name != "Lobby" || len(room.Emails) != 2 {
		t.Fatalf("room = %+v", room)
	}

	w = do(r, http.MethodGet, "/api/room", "")
	var list struct {
		Rooms []domain.Room `json:"rooms"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatal(err)
	}
	if len(list.Rooms) != 1 || len(list.Rooms[0].Emails) != 2 {
		t.Fatalf("list = %+v", list)
	}
}

func TestRemoveParticipantBroadcastsLeave(t *testing.T) {
	ctrl := gomock.NewController(t)
	o, r := newTestRouter(t)
	ctx := context.Background()

	if _, err := o.Rooms.Create(ctx, "Lobby"); err != nil {
		t.Fatal(err)
	}
	for _, id := range []domain.Identity{"a@x", "b@x"} {
		if _, err := o.Rooms.AddMember(ctx, "Lobby", id); err != nil {
			t.Fatal(err)
		}
	}
	if err := o.Peers.SetPeerID(ctx, "a@x", "peer-a"); err != nil {
		t.Fatal(err)
	}

	var sent []core.Frame
	conn := mocks.NewMockConn(ctrl)
	conn.EXPECT().ID().Return("b").AnyTimes()
	conn.EXPECT().IsOpen().Return(true).AnyTimes()
	conn.EXPECT().TrySend(gomock.Any()).DoAndReturn(func(f core.Frame) error {
		sent = append(sent, f)
		return nil
	}).Times(1)
	o.Conns.Bind("b@x", conn)

	w := do(r, http.MethodDelete, "/api/room/Lobby/email/a@x", "")
	if w.Code != http.StatusNoContent {
		t.Fatalf("status %d", w.Code)
	}

	var got map[string]any
	if err := json.Unmarshal(sent[0], &got); err != nil {
		t.Fatal(err)
	}
	if got["type"] != "leave-room" || got["peerId"] != "peer-a" {
		t.Fatalf("frame = %v", got)
	}
}

func TestPeerBindingEndpoints(t *testing.T) {
	_, r := newTestRouter(t)

	if w := do(r, http.MethodPost, "/api/user", `{"email":"a@x","peerId":"p1"}`); w.Code != http.StatusNoContent {
		t.Fatalf("bind status %d", w.Code)
	}
	if w := do(r, http.MethodPost, "/api/user", `{"email":"a@x"}`); w.Code != http.StatusBadRequest {
		t.Fatalf("bind without peer status %d", w.Code)
	}

	w := do(r, http.MethodGet, "/api/peer/p1/email", "")
	if w.Code != http.StatusOK || strings.TrimSpace(w.Body.String()) != `"a@x"` {
		t.Fatalf("email for peer: %d %s", w.Code, w.Body.String())
	}
	w = do(r, http.MethodGet, "/api/user/a@x/peer", "")
	if w.Code != http.StatusOK || strings.TrimSpace(w.Body.String()) != `"p1"` {
		t.Fatalf("peer for email: %d %s", w.Code, w.Body.String())
	}
	if w := do(r, http.MethodGet, "/api/peer/unknown/email", ""); w.Code != http.StatusNotFound {
		t.Fatalf("unknown peer status %d", w.Code)
	}
}

func TestICEEndpoint(t *testing.T) {
	_, r := newTestRouter(t)
	w := do(r, http.MethodGet, "/api/ice", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	var body struct {
		ICEServers []struct {
			URLs []string `json:"urls"`
		} `json:"iceServers"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if len(body.ICEServers) == 0 || len(body.ICEServers[0].URLs) == 0 {
		t.Fatalf("ice = %s", w.Body.String())
	}
}

func TestClientTokenCookie(t *testing.T) {
	_, r := newTestRouter(t)
	w := do(r, http.MethodGet, "/api/room", "")
	found := false
	for _, c := range w.Result().Cookies() {
		if c.Name == "ct" && c.Value != "" {
			found = true
		}
	}
	if !found {
		t.Fatal("client token cookie not set")
	}
}

func TestSignalSocketBindsSessionIdentity(t *testing.T) {
	o, r := newTestRouter(t)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	client := &http.Client{Jar: jar}
	resp, err := client.Post(srv.URL+"/api/user", "application/json", strings.NewReader(`{"email":"a@x","peerId":"p1"}`))
	if err != nil {
		t.Fatal(err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("bind status %d", resp.StatusCode)
	}

	dialer := websocket.Dialer{Jar: jar}
	ws, _, err := dialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/api/ws/signal", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = ws.Close() })

	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, ok := o.Conns.Lookup("a@x"); ok {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("socket not bound to the session identity")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestSignalSocketWithoutSessionStaysUnbound(t *testing.T) {
	o, r := newTestRouter(t)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	ws, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/api/ws/signal", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = ws.Close() })

	if err := ws.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping"}`)); err != nil {
		t.Fatal(err)
	}
	_ = ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := ws.ReadMessage(); err != nil {
		t.Fatal(err)
	}
	if o.Conns.Len() != 0 {
		t.Fatalf("registry has %d handles", o.Conns.Len())
	}
}
