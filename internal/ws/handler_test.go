package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playmatatu/pocketpool/internal/auth"
	"github.com/playmatatu/pocketpool/internal/game"
	"github.com/playmatatu/pocketpool/internal/level"
	"github.com/playmatatu/pocketpool/internal/match"
)

type harness struct {
	hub     *Hub
	manager *game.Manager
	signer  *auth.Signer
	srv     *httptest.Server
}

func newHarness(t *testing.T, sessions func(*game.Manager) Sessions, spectate bool) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	settings, err := level.Default()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(nil)
	go hub.Run(ctx)

	manager := game.NewManager(game.ManagerConfig{Settings: settings, Outbox: hub})
	signer := auth.NewSigner("test-secret", time.Hour)

	var src Sessions = manager
	if sessions != nil {
		src = sessions(manager)
	}
	h := NewHandler(hub, src, signer, nil, spectate, nil)
	r := gin.New()
	r.GET("/sessions/:id/ws", h.HandleWebSocket)
	srv := httptest.NewServer(r)

	t.Cleanup(func() {
		srv.Close()
		manager.Shutdown()
		cancel()
	})
	return &harness{hub: hub, manager: manager, signer: signer, srv: srv}
}

func (h *harness) url(id, token string) string {
	return "ws" + strings.TrimPrefix(h.srv.URL, "http") + "/sessions/" + id + "/ws?token=" + token
}

func (h *harness) dial(t *testing.T, id string) *websocket.Conn {
	t.Helper()
	tok, err := h.signer.Issue(id)
	require.NoError(t, err)
	conn, resp, err := websocket.DefaultDialer.Dial(h.url(id, tok), nil)
	if resp != nil {
		resp.Body.Close()
	}
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

type frame struct {
	Type     string         `json:"type"`
	Message  string         `json:"message"`
	Snapshot *game.Snapshot `json:"snapshot"`
}

func readFrame(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var f frame
	require.NoError(t, json.Unmarshal(data, &f))
	return f
}

// readUntil skips frames until one of type typ arrives.
func readUntil(t *testing.T, conn *websocket.Conn, typ string) frame {
	t.Helper()
	for i := 0; i < 500; i++ {
		if f := readFrame(t, conn); f.Type == typ {
			return f
		}
	}
	t.Fatalf("no %s frame received", typ)
	return frame{}
}

func send(t *testing.T, conn *websocket.Conn, typ string, data interface{}) {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(WSMessage{Type: typ, Data: raw}))
}

func TestPlayerReceivesSnapshotAndEvents(t *testing.T) {
	h := newHarness(t, nil, false)
	s, err := h.manager.Create()
	require.NoError(t, err)

	conn := h.dial(t, s.ID())

	first := readFrame(t, conn)
	assert.Equal(t, string(game.NotifySnapshot), first.Type)
	require.NotNil(t, first.Snapshot)
	assert.Equal(t, match.Idle, first.Snapshot.State)

	send(t, conn, MsgCommand, game.Command{Name: game.CmdStart})
	readUntil(t, conn, string(game.NotifyGameStart))

	send(t, conn, MsgGetState, nil)
	f := readUntil(t, conn, string(game.NotifySnapshot))
	require.NotNil(t, f.Snapshot)
	assert.Equal(t, match.Running, f.Snapshot.State)
}

func TestInvalidMessagesGetErrors(t *testing.T) {
	h := newHarness(t, nil, false)
	s, err := h.manager.Create()
	require.NoError(t, err)
	conn := h.dial(t, s.ID())
	readFrame(t, conn)

	send(t, conn, "dance", nil)
	assert.Equal(t, "unknown message type", readUntil(t, conn, MsgError).Message)

	send(t, conn, MsgCommand, game.Command{Name: "warp"})
	assert.Contains(t, readUntil(t, conn, MsgError).Message, "unknown command")
}

func TestRejectsBadToken(t *testing.T) {
	h := newHarness(t, nil, false)
	s, err := h.manager.Create()
	require.NoError(t, err)
	other, err := h.signer.Issue("someone-else")
	require.NoError(t, err)

	_, resp, err := websocket.DefaultDialer.Dial(h.url(s.ID(), other), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestUnknownSessionIsNotFound(t *testing.T) {
	h := newHarness(t, nil, false)
	tok, err := h.signer.Issue("missing")
	require.NoError(t, err)

	_, resp, err := websocket.DefaultDialer.Dial(h.url("missing", tok), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestClosingSessionDisconnectsClients(t *testing.T) {
	h := newHarness(t, nil, false)
	s, err := h.manager.Create()
	require.NoError(t, err)
	conn := h.dial(t, s.ID())
	readFrame(t, conn)

	require.NoError(t, h.manager.Remove(s.ID()))

	readUntil(t, conn, string(game.NotifyClosed))
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
}

type remoteSessions struct {
	snap game.Snapshot
}

func (r remoteSessions) Get(string) (*game.Session, error) { return nil, game.ErrSessionNotFound }

func (r remoteSessions) LoadSnapshot(context.Context, string) (game.Snapshot, error) {
	return r.snap, nil
}

func TestSpectatorReceivesRelayedEvents(t *testing.T) {
	snap := game.Snapshot{SessionID: "remote", State: match.Running, Score: 2}
	h := newHarness(t, func(*game.Manager) Sessions { return remoteSessions{snap: snap} }, true)

	conn := h.dial(t, "remote")
	first := readFrame(t, conn)
	require.NotNil(t, first.Snapshot)
	assert.Equal(t, 2, first.Snapshot.Score)

	require.Eventually(t, func() bool { return h.hub.RoomSize("remote") == 1 }, time.Second, 10*time.Millisecond)
	score := 3
	h.hub.Deliver(game.Notification{Type: game.NotifyScoreChanged, SessionID: "remote", Score: &score})
	assert.Equal(t, string(game.NotifyScoreChanged), readFrame(t, conn).Type)

	send(t, conn, MsgCommand, game.Command{Name: game.CmdStart})
	assert.Equal(t, "spectators cannot control the table", readUntil(t, conn, MsgError).Message)
}

func TestHubIgnoresEmptyRooms(t *testing.T) {
	hub := NewHub(nil)

	assert.NotPanics(t, func() {
		hub.Deliver(game.Notification{Type: game.NotifyClosed, SessionID: "nobody"})
	})
	assert.Equal(t, 0, hub.RoomSize("nobody"))
}
