package web

import (
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/noventa-dev/noventa/pkg/diag"
)

func dialLive(t *testing.T, tsURL string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(tsURL, "http") + "/_noventa/live"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func liveRoundTrip(t *testing.T, conn *websocket.Conn, req liveRequest) liveResponse {
	t.Helper()
	if err := conn.WriteJSON(req); err != nil {
		t.Fatal(err)
	}
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var resp liveResponse
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatal(err)
	}
	return resp
}

func TestLiveFirstRenderShipsFullPage(t *testing.T) {
	_, ts := testProject(t, false)
	conn := dialLive(t, ts.URL)

	resp := liveRoundTrip(t, conn, liveRequest{Path: "/"})
	if resp.Error != "" {
		t.Fatalf("error = %s (%s)", resp.Error, resp.Code)
	}
	if !strings.Contains(resp.HTML, `<span id="c">0</span>`) {
		t.Errorf("html = %q", resp.HTML)
	}
	if len(resp.Patches) != 0 {
		t.Errorf("baseline response carried %d patches", len(resp.Patches))
	}
}

func TestLiveActionAnswersWithPatches(t *testing.T) {
	_, ts := testProject(t, false)
	conn := dialLive(t, ts.URL)

	if resp := liveRoundTrip(t, conn, liveRequest{Path: "/"}); resp.Error != "" {
		t.Fatal(resp.Error)
	}

	resp := liveRoundTrip(t, conn, liveRequest{
		Path: "/",
		Form: map[string]string{"action": "increment", "component_id": "index"},
	})
	if resp.Error != "" {
		t.Fatalf("error = %s (%s)", resp.Error, resp.Code)
	}
	if resp.HTML != "" {
		t.Error("patched response carried full HTML")
	}
	if len(resp.Patches) == 0 {
		t.Fatal("no patches for a changed tree")
	}
}

func TestLiveUnchangedRenderYieldsNoPatches(t *testing.T) {
	_, ts := testProject(t, false)
	conn := dialLive(t, ts.URL)

	liveRoundTrip(t, conn, liveRequest{Path: "/about"})
	resp := liveRoundTrip(t, conn, liveRequest{Path: "/about"})
	if resp.Error != "" {
		t.Fatal(resp.Error)
	}
	if len(resp.Patches) != 0 {
		t.Errorf("identical renders produced %d patches", len(resp.Patches))
	}
}

func TestLiveUnknownPathReportsError(t *testing.T) {
	_, ts := testProject(t, false)
	conn := dialLive(t, ts.URL)

	resp := liveRoundTrip(t, conn, liveRequest{Path: "/nowhere"})
	if resp.Code != "E020" {
		t.Errorf("code = %q, error = %q", resp.Code, resp.Error)
	}
}

func TestDiagStreamDeliversEvents(t *testing.T) {
	server, ts := testProject(t, true)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/_noventa/diag"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	// Subscription happens inside the handler goroutine; wait for it
	// before broadcasting.
	deadline := time.Now().Add(2 * time.Second)
	for server.opts.Diag.SubscriberCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("diag handler never subscribed")
		}
		time.Sleep(5 * time.Millisecond)
	}

	server.opts.Diag.Broadcast(errors.New("script blew up"))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev diag.Event
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatal(err)
	}
	if ev.Message != "script blew up" {
		t.Errorf("message = %q", ev.Message)
	}
	if ev.Kind == "" {
		t.Error("event missing kind")
	}
}

func TestDiagStreamOffInProduction(t *testing.T) {
	_, ts := testProject(t, false)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/_noventa/diag"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("diag stream reachable in production")
	}
	if resp != nil {
		defer resp.Body.Close()
		if resp.StatusCode == http.StatusSwitchingProtocols {
			t.Errorf("status = %d", resp.StatusCode)
		}
	}
}
