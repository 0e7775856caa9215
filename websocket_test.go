package agrivaani

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
)

func TestWebSocketStream(t *testing.T) {
	gen := &fakeGenerator{stream: &fakeStream{fragments: []string{"Hello", ", ", "world"}}}
	server := httptest.NewServer(newTestServer(t, gen, &fakeSynthesizer{}))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v (resp %v)", err, resp)
	}
	defer conn.Close()

	if err := conn.WriteJSON(StreamRequest{Prompt: "hi there"}); err != nil {
		t.Fatal(err)
	}

	var events []StreamEvent
	for {
		var event StreamEvent
		if err := conn.ReadJSON(&event); err != nil {
			t.Fatalf("read failed after %d events: %v", len(events), err)
		}
		events = append(events, event)
		if event.Terminal() {
			break
		}
	}

	if len(events) != 4 {
		t.Fatalf("expected 4 events, got %+v", events)
	}
	var text strings.Builder
	for _, ev := range events[:3] {
		text.WriteString(ev.Token)
	}
	if text.String() != "Hello, world" {
		t.Errorf("streamed text = %q", text.String())
	}
	if !events[3].Done {
		t.Errorf("terminal event = %+v, want done", events[3])
	}
}

func TestWebSocketInvalidFirstFrame(t *testing.T) {
	server := httptest.NewServer(newTestServer(t, &fakeGenerator{stream: &fakeStream{}}, &fakeSynthesizer{}))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	if err := conn.WriteMessage(websocket.TextMessage, []byte("not json")); err != nil {
		t.Fatal(err)
	}

	var event StreamEvent
	if err := conn.ReadJSON(&event); err != nil {
		t.Fatal(err)
	}
	if event.Error == "" {
		t.Errorf("expected error event, got %+v", event)
	}
}
