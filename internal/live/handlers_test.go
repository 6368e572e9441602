package live

import (
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/wellingtonpereira12/cycling-streak/internal/session"
	"github.com/wellingtonpereira12/cycling-streak/internal/stream"

	"github.com/gofiber/fiber/v2"
	"github.com/gorilla/websocket"
)

func TestLiveHandlersUpgradeRequired(t *testing.T) {
	app := fiber.New()
	RegisterRoutes(app.Group("/live"), NewController(nil, stream.NewHub(nil)))

	req := httptest.NewRequest(http.MethodGet, "/live/ws/user-1", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request error: %v", err)
	}
	if resp.StatusCode == http.StatusOK {
		t.Fatalf("expected non-200 for non-websocket request")
	}
}

func TestLiveHandlersSessionFlow(t *testing.T) {
	hub := stream.NewHub(nil)
	ctl := NewController(nil, hub)
	app := fiber.New()
	RegisterRoutes(app.Group("/live"), ctl)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen error: %v", err)
	}
	defer ln.Close()

	go func() {
		_ = app.Listener(ln)
	}()
	defer func() { _ = app.Shutdown() }()

	wsURL := "ws://" + ln.Addr().String() + "/live/ws/user-1"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial error: %v", err)
	}
	defer conn.Close()

	spectator := hub.Register("user-1")
	defer hub.Unregister(spectator)

	err = conn.WriteJSON(wsMessage{Type: "points", Points: []session.Position{
		{Latitude: -23.5505, Longitude: -46.6333},
		{Latitude: -23.5506, Longitude: -46.6333},
	}})
	if err != nil {
		t.Fatalf("write points: %v", err)
	}

	// Wait for the snapshot broadcast so the batch is ingested before stop.
	select {
	case <-spectator.Send:
	case <-time.After(time.Second):
		t.Fatalf("timeout waiting for snapshot broadcast")
	}

	if err := conn.WriteJSON(wsMessage{Type: "stop", Save: false}); err != nil {
		t.Fatalf("write stop: %v", err)
	}

	var result session.Result
	if err := conn.ReadJSON(&result); err != nil {
		t.Fatalf("read result: %v", err)
	}
	if len(result.Path) != 2 {
		t.Fatalf("unexpected final path: %+v", result)
	}
}

func TestLiveHandlersRejectsSecondSession(t *testing.T) {
	hub := stream.NewHub(nil)
	ctl := NewController(nil, hub)
	app := fiber.New()
	RegisterRoutes(app.Group("/live"), ctl)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen error: %v", err)
	}
	defer ln.Close()

	go func() {
		_ = app.Listener(ln)
	}()
	defer func() { _ = app.Shutdown() }()

	wsURL := "ws://" + ln.Addr().String() + "/live/ws/user-1"
	first, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial error: %v", err)
	}
	defer first.Close()

	// The session is registered after the handshake; wait for it.
	deadline := time.Now().Add(time.Second)
	for {
		if _, err := ctl.lookup("user-1"); err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("first session never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	second, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial error: %v", err)
	}
	defer second.Close()

	var failure struct {
		Error string `json:"error"`
	}
	if err := second.ReadJSON(&failure); err != nil {
		t.Fatalf("read error payload: %v", err)
	}
	if failure.Error == "" {
		t.Fatalf("expected conflict error for second session")
	}
}
