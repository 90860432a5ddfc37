package session

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/chromedp/cdproto"
	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
)

// fakeChromeServer speaks just enough raw WebSocket framing, via
// github.com/gobwas/ws, to exercise Conn/Transport against traffic shapes
// gorilla/websocket's own server side would never produce by accident: a
// text frame followed immediately by a ping, interleaved on the same
// connection, the way real Chrome's devtools_http_handler does.
func fakeChromeServer(t *testing.T, serverConn chan<- net.Conn) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, _, _, err := ws.UpgradeHTTP(r, w)
		if err != nil {
			t.Errorf("gobwas/ws upgrade failed: %v", err)
			return
		}
		serverConn <- conn
	}))
}

func TestConnReceivesTextFrameAroundPing(t *testing.T) {
	conns := make(chan net.Conn, 1)
	srv := fakeChromeServer(t, conns)
	defer srv.Close()

	wsURL := "ws" + srv.URL[len("http"):]
	c, err := Dial(context.Background(), wsURL)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer c.Close()

	server := <-conns
	defer server.Close()

	payload := []byte(`{"id":1,"result":{}}`)
	if err := wsutil.WriteServerMessage(server, ws.OpText, payload); err != nil {
		t.Fatalf("write text frame: %v", err)
	}
	if err := ws.WriteFrame(server, ws.NewPingFrame(nil)); err != nil {
		t.Fatalf("write ping frame: %v", err)
	}
	if err := wsutil.WriteServerMessage(server, ws.OpText, []byte(`{"id":2,"result":{}}`)); err != nil {
		t.Fatalf("write second text frame: %v", err)
	}

	var got []*cdproto.Message
	timeout := time.After(2 * time.Second)
	for len(got) < 2 {
		select {
		case msg := <-c.Inbound():
			got = append(got, msg)
		case <-timeout:
			t.Fatalf("timed out waiting for frames, got %d so far", len(got))
		}
	}

	if got[0].ID != 1 || got[1].ID != 2 {
		t.Fatalf("got IDs %d, %d; want 1, 2 (ping frame should not have disrupted ordering)", got[0].ID, got[1].ID)
	}
}

func TestConnClosesOnServerHangup(t *testing.T) {
	conns := make(chan net.Conn, 1)
	srv := fakeChromeServer(t, conns)
	defer srv.Close()

	wsURL := "ws" + srv.URL[len("http"):]
	c, err := Dial(context.Background(), wsURL)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer c.Close()

	server := <-conns
	server.Close()

	select {
	case _, ok := <-c.Inbound():
		if ok {
			t.Fatal("Inbound() delivered a message after server hangup")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Inbound() channel never closed after server hangup")
	}
	if c.Err() == nil {
		t.Fatal("Err() = nil after an unexpected hangup, want non-nil")
	}
}
