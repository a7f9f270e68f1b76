// Package gateway exposes the engine to a browser front end over a
// websocket. Clients send small JSON commands and receive typed JSON
// responses; every bus event is also forwarded so the renderer can react.
package gateway

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/tsellier/ghostpatch/engine"
	"github.com/tsellier/ghostpatch/engine/events"
	"github.com/tsellier/ghostpatch/types"
)

// clientMessage is the envelope for every command a client sends.
type clientMessage struct {
	Type      string   `json:"type"`
	Direction string   `json:"direction,omitempty"`
	Ghost     string   `json:"ghost,omitempty"`
	Session   string   `json:"session,omitempty"`
	Text      string   `json:"text,omitempty"`
	Patch     string   `json:"patch,omitempty"`
	Action    string   `json:"action,omitempty"`
	Keywords  []string `json:"keywords,omitempty"`
	Slot      string   `json:"slot,omitempty"`
}

type outputMessage struct {
	Type  string   `json:"type"`
	Lines []string `json:"lines"`
}

type errorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type sessionMessage struct {
	Type    string `json:"type"`
	Session string `json:"session"`
	Ghost   string `json:"ghost"`
	Opening string `json:"opening"`
}

type dialogueMessage struct {
	Type    string              `json:"type"`
	Session string              `json:"session"`
	Text    string              `json:"text"`
	Phase   types.Phase         `json:"phase"`
	Options []types.PatchOption `json:"options,omitempty"`
}

type patchResultMessage struct {
	Type         string                  `json:"type"`
	Success      bool                    `json:"success"`
	Feedback     string                  `json:"feedback"`
	Phase        types.Phase             `json:"phase"`
	Consequences []types.GameConsequence `json:"consequences,omitempty"`
}

type metersMessage struct {
	Type      string `json:"type"`
	Stability int    `json:"stability"`
	Insight   int    `json:"insight"`
}

type timelineMessage struct {
	Type    string                `json:"type"`
	Entries []types.TimelineEntry `json:"entries"`
}

type eventMessage struct {
	Type  string         `json:"type"`
	Kind  string         `json:"kind"`
	Data  map[string]any `json:"data,omitempty"`
	Since int64          `json:"ts"`
}

// subscriber serializes writes to one connection.
type subscriber struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *subscriber) writeJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

// Server bridges websocket clients onto one shared engine.
type Server struct {
	engine   *engine.Engine
	log      zerolog.Logger
	upgrader websocket.Upgrader

	mu   sync.Mutex
	subs map[*subscriber]struct{}
}

// forwarded lists the bus event kinds pushed to every client.
var forwarded = []events.Kind{
	events.MeterChanged,
	events.EncounterStarted,
	events.EncounterCompleted,
	events.PatchGenerated,
	events.PatchApplied,
	events.RoomEntered,
	events.CriticalEvent,
	events.VisualTriggered,
	events.ContentUnlocked,
	events.GameOver,
	events.Victory,
}

// NewServer wires a gateway onto an engine and starts forwarding its
// bus events to connected clients.
func NewServer(eng *engine.Engine, allowedOrigins string, log zerolog.Logger) *Server {
	s := &Server{
		engine: eng,
		log:    log.With().Str("component", "gateway").Logger(),
		subs:   map[*subscriber]struct{}{},
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
	for _, kind := range forwarded {
		k := kind
		eng.Bus.On(k, func(e events.Event) {
			s.broadcast(eventMessage{
				Type:  "event",
				Kind:  string(k),
				Data:  e.Data,
				Since: e.Timestamp.UnixMilli(),
			})
		})
	}
	return s
}

func originChecker(allowed string) func(*http.Request) bool {
	if strings.TrimSpace(allowed) == "*" {
		return func(*http.Request) bool { return true }
	}
	origins := map[string]bool{}
	for _, o := range strings.Split(allowed, ",") {
		origins[strings.TrimSpace(o)] = true
	}
	return func(r *http.Request) bool {
		return origins[r.Header.Get("Origin")]
	}
}

// Attach registers the gateway's routes on a mux.
func (s *Server) Attach(mux *http.ServeMux) {
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	sub := &subscriber{conn: conn}
	s.mu.Lock()
	s.subs[sub] = struct{}{}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.subs, sub)
		s.mu.Unlock()
		conn.Close()
	}()

	if err := sub.writeJSON(outputMessage{Type: "output", Lines: s.engine.DescribeRoom()}); err != nil {
		return
	}

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var msg clientMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			s.log.Warn().Err(err).Msg("discarding malformed message")
			continue
		}
		if !s.dispatch(sub, msg) {
			return
		}
	}
}

// dispatch handles one client command. It reports false when the
// connection is no longer writable.
func (s *Server) dispatch(sub *subscriber, msg clientMessage) bool {
	fail := func(err error) bool {
		return sub.writeJSON(errorMessage{Type: "error", Message: err.Error()}) == nil
	}

	switch msg.Type {
	case "look":
		return sub.writeJSON(outputMessage{Type: "output", Lines: s.engine.DescribeRoom()}) == nil

	case "move":
		lines, err := s.engine.Move(msg.Direction)
		if err != nil {
			return fail(err)
		}
		return sub.writeJSON(outputMessage{Type: "output", Lines: lines}) == nil

	case "encounter":
		session, opening, err := s.engine.StartEncounter(msg.Ghost)
		if err != nil {
			return fail(err)
		}
		return sub.writeJSON(sessionMessage{
			Type:    "session",
			Session: session.ID,
			Ghost:   session.GhostID,
			Opening: opening,
		}) == nil

	case "say":
		res, err := s.engine.Converse(msg.Session, msg.Text)
		if err != nil {
			return fail(err)
		}
		return sub.writeJSON(dialogueMessage{
			Type:    "dialogue",
			Session: msg.Session,
			Text:    res.Text,
			Phase:   res.Phase,
			Options: res.Options,
		}) == nil

	case "patch":
		res, err := s.engine.DecidePatch(msg.Patch, types.PatchAction(msg.Action))
		if err != nil {
			return fail(err)
		}
		return sub.writeJSON(patchResultMessage{
			Type:         "patch_result",
			Success:      res.Success,
			Feedback:     res.Feedback,
			Phase:        res.Phase,
			Consequences: res.Consequences,
		}) == nil

	case "complete":
		outcome, err := s.engine.Conclude(msg.Session)
		if err != nil {
			return fail(err)
		}
		return sub.writeJSON(struct {
			Type    string                  `json:"type"`
			Outcome *types.EncounterOutcome `json:"outcome"`
		}{Type: "outcome", Outcome: outcome}) == nil

	case "meters":
		stability, insight := s.engine.Meters.Snapshot()
		return sub.writeJSON(metersMessage{Type: "meters", Stability: stability, Insight: insight}) == nil

	case "timeline":
		var entries []types.TimelineEntry
		if len(msg.Keywords) == 0 {
			entries = s.engine.Timeline.Entries()
		} else {
			entries = s.engine.Timeline.Search(msg.Keywords...)
		}
		return sub.writeJSON(timelineMessage{Type: "timeline", Entries: entries}) == nil

	case "save":
		if err := s.engine.Save(msg.Slot); err != nil {
			return fail(err)
		}
		return sub.writeJSON(outputMessage{Type: "output", Lines: []string{"Saved to " + msg.Slot + "."}}) == nil

	case "load":
		if err := s.engine.Load(msg.Slot); err != nil {
			return fail(err)
		}
		return sub.writeJSON(outputMessage{Type: "output", Lines: s.engine.DescribeRoom()}) == nil

	default:
		s.log.Warn().Str("type", msg.Type).Msg("unknown message type")
		return sub.writeJSON(errorMessage{Type: "error", Message: "unknown message type " + msg.Type}) == nil
	}
}

func (s *Server) broadcast(v any) {
	s.mu.Lock()
	subs := make([]*subscriber, 0, len(s.subs))
	for sub := range s.subs {
		subs = append(subs, sub)
	}
	s.mu.Unlock()

	for _, sub := range subs {
		if err := sub.writeJSON(v); err != nil {
			s.mu.Lock()
			delete(s.subs, sub)
			s.mu.Unlock()
		}
	}
}
