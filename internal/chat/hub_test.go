package chat_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"termchat/internal/chat"

	"github.com/gorilla/websocket"
)

// connPair builds a real websocket connection and returns the server side
// wrapped in chat.Conn plus the raw client side for reading replies.
func connPair(t *testing.T) (*chat.Conn, *websocket.Conn) {
	t.Helper()

	upgrader := websocket.Upgrader{}
	serverSide := make(chan *websocket.Conn, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		serverSide <- ws
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	select {
	case ws := <-serverSide:
		conn := chat.NewConn(ws)
		t.Cleanup(func() { _ = conn.Close() })
		return conn, client
	case <-time.After(5 * time.Second):
		t.Fatal("server connection never arrived")
		return nil, nil
	}
}

func readText(t *testing.T, client *websocket.Conn) string {
	t.Helper()
	_ = client.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := client.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	return string(data)
}

func TestHubPersonalAndBroadcast(t *testing.T) {
	hub := chat.NewHub()
	connA, clientA := connPair(t)
	connB, clientB := connPair(t)
	hub.Register(connA)
	hub.Register(connB)

	hub.SendPersonal(connA, "only for a")
	if got := readText(t, clientA); got != "only for a" {
		t.Fatalf("personal = %q", got)
	}

	hub.Broadcast("for everyone")
	if got := readText(t, clientA); got != "for everyone" {
		t.Fatalf("broadcast to a = %q", got)
	}
	if got := readText(t, clientB); got != "for everyone" {
		t.Fatalf("broadcast to b = %q", got)
	}

	hub.BroadcastExcept(connA, "not for a")
	if got := readText(t, clientB); got != "not for a" {
		t.Fatalf("broadcast except to b = %q", got)
	}
	hub.SendPersonal(connA, "marker")
	// A receives the marker next, proving the excluded broadcast skipped it.
	if got := readText(t, clientA); got != "marker" {
		t.Fatalf("a received %q, want marker", got)
	}
}

func TestHubConnectedUsers(t *testing.T) {
	hub := chat.NewHub()
	connA, _ := connPair(t)
	connB, _ := connPair(t)
	connC, _ := connPair(t)
	hub.Register(connA)
	hub.Register(connB)
	hub.Register(connC)

	if users := hub.ConnectedUsers(); len(users) != 0 {
		t.Fatalf("users before login = %v", users)
	}

	hub.SetUsername(connA, "alice")
	hub.SetUsername(connB, "bob")
	// Same account on a second connection must not duplicate the listing.
	hub.SetUsername(connC, "alice")

	users := hub.ConnectedUsers()
	if len(users) != 2 || users[0] != "alice" || users[1] != "bob" {
		t.Fatalf("users = %v", users)
	}
	if got := hub.UsernameOf(connA); got != "alice" {
		t.Fatalf("username of a = %q", got)
	}

	hub.Unregister(connA)
	hub.SetUsername(connC, "")
	users = hub.ConnectedUsers()
	if len(users) != 1 || users[0] != "bob" {
		t.Fatalf("users after unregister = %v", users)
	}
}
