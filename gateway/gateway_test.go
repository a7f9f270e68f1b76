package gateway

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/tsellier/ghostpatch/engine"
	"github.com/tsellier/ghostpatch/loader"
	"github.com/tsellier/ghostpatch/types"
)

func testDefs() *loader.Defs {
	return &loader.Defs{
		Game: types.GameDef{Title: "Gateway Test", Start: "lobby"},
		Rooms: map[string]types.RoomDef{
			"lobby": {
				ID:          "lobby",
				Name:        "Entry Module",
				Description: "Boilerplate as far as the eye can see.",
				Complexity:  0.2,
				Exits:       map[string]string{"north": "annex"},
			},
			"annex": {
				ID:          "annex",
				Name:        "Annex",
				Description: "A quiet utility package.",
				Exits:       map[string]string{"south": "lobby"},
			},
		},
		Ghosts: map[string]types.Ghost{
			"leak": {
				ID:       "leak",
				Name:     "The Memory Leak",
				Smell:    types.SmellMemoryLeak,
				Severity: 4,
				Rooms:    []string{"lobby"},
				Topics: map[string]types.Topic{
					"heap": {Text: "The heap only grows.", ReadySignal: true},
				},
				FixPatterns: []types.FixPattern{
					{ID: "evict", Description: "Evict stale entries", Diff: "+ evict()\n", Risk: 0.2, Stability: 6, Insight: 5},
				},
			},
		},
	}
}

func dialTestServer(t *testing.T) *websocket.Conn {
	t.Helper()

	eng := engine.New(testDefs(), engine.Options{Seed: 1}, zerolog.Nop())
	srv := NewServer(eng, "*", zerolog.Nop())
	mux := http.NewServeMux()
	srv.Attach(mux)

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	if resp != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readUntil decodes messages until one of the wanted type arrives.
// Forwarded bus events may interleave with command responses.
func readUntil(t *testing.T, conn *websocket.Conn, msgType string) map[string]any {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	conn.SetReadDeadline(deadline)
	for time.Now().Before(deadline) {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		var msg map[string]any
		if err := json.Unmarshal(payload, &msg); err != nil {
			t.Fatalf("unmarshal %s: %v", payload, err)
		}
		if msg["type"] == msgType {
			return msg
		}
	}
	t.Fatalf("no %q message before deadline", msgType)
	return nil
}

func send(t *testing.T, conn *websocket.Conn, msg map[string]any) {
	t.Helper()
	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestConnect_SendsRoomDescription(t *testing.T) {
	conn := dialTestServer(t)
	msg := readUntil(t, conn, "output")
	lines, _ := msg["lines"].([]any)
	joined := ""
	for _, l := range lines {
		joined += l.(string) + "\n"
	}
	if !strings.Contains(joined, "Entry Module") {
		t.Errorf("initial output missing room name: %s", joined)
	}
}

func TestMove_AndLook(t *testing.T) {
	conn := dialTestServer(t)
	readUntil(t, conn, "output")

	send(t, conn, map[string]any{"type": "move", "direction": "north"})
	msg := readUntil(t, conn, "output")
	if !strings.Contains(flatten(msg["lines"]), "Annex") {
		t.Errorf("move output = %v", msg["lines"])
	}

	send(t, conn, map[string]any{"type": "move", "direction": "up"})
	errMsg := readUntil(t, conn, "error")
	if errMsg["message"] == "" {
		t.Error("empty error message")
	}
}

func TestEncounter_FullExchange(t *testing.T) {
	conn := dialTestServer(t)
	readUntil(t, conn, "output")

	send(t, conn, map[string]any{"type": "encounter", "ghost": "leak"})
	session := readUntil(t, conn, "session")
	sid, _ := session["session"].(string)
	if sid == "" {
		t.Fatal("no session ID")
	}

	send(t, conn, map[string]any{"type": "say", "session": sid, "text": "what about the heap?"})
	dlg := readUntil(t, conn, "dialogue")
	if dlg["phase"] != string(types.PhaseSelection) {
		t.Fatalf("phase = %v, want %v", dlg["phase"], types.PhaseSelection)
	}
	options, _ := dlg["options"].([]any)
	if len(options) == 0 {
		t.Fatal("no patch options")
	}
	first, _ := options[0].(map[string]any)
	patch, _ := first["patch"].(map[string]any)
	patchID, _ := patch["id"].(string)
	if patchID == "" {
		t.Fatal("no patch ID in option")
	}

	send(t, conn, map[string]any{"type": "patch", "patch": patchID, "action": "apply"})
	result := readUntil(t, conn, "patch_result")
	if result["feedback"] == "" {
		t.Error("empty patch feedback")
	}

	send(t, conn, map[string]any{"type": "complete", "session": sid})
	outcome := readUntil(t, conn, "outcome")
	if outcome["outcome"] == nil {
		t.Error("missing outcome body")
	}
}

func TestMeters_Query(t *testing.T) {
	conn := dialTestServer(t)
	readUntil(t, conn, "output")

	send(t, conn, map[string]any{"type": "meters"})
	msg := readUntil(t, conn, "meters")
	if msg["stability"].(float64) != 80 {
		t.Errorf("stability = %v, want 80", msg["stability"])
	}
}

func TestEvents_ForwardedToClient(t *testing.T) {
	conn := dialTestServer(t)
	readUntil(t, conn, "output")

	// Starting an encounter emits encounter_started on the bus, which the
	// gateway forwards before the command response.
	send(t, conn, map[string]any{"type": "encounter", "ghost": "leak"})
	evt := readUntil(t, conn, "event")
	if evt["kind"] != "encounter_started" {
		t.Errorf("kind = %v, want encounter_started", evt["kind"])
	}
}

func TestUnknownCommand(t *testing.T) {
	conn := dialTestServer(t)
	readUntil(t, conn, "output")

	send(t, conn, map[string]any{"type": "dance"})
	msg := readUntil(t, conn, "error")
	if !strings.Contains(msg["message"].(string), "unknown message type") {
		t.Errorf("message = %v", msg["message"])
	}
}

func flatten(v any) string {
	lines, _ := v.([]any)
	var b strings.Builder
	for _, l := range lines {
		if s, ok := l.(string); ok {
			b.WriteString(s)
			b.WriteByte('\n')
		}
	}
	return b.String()
}
