// Package dialogue implements the ghost topic system. Each ghost speaks
// through authored topics; the player's free-text input selects them, and
// certain topics (or direct debugging intent) hand control to the patch
// pipeline.
package dialogue

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/tsellier/ghostpatch/engine/encounter"
	"github.com/tsellier/ghostpatch/types"
)

// intentKeywords are inputs that signal debugging readiness regardless of
// the ghost's topics.
var intentKeywords = []string{"fix", "debug", "patch", "repair", "refactor"}

type session struct {
	ghost types.Ghost
	flags map[string]bool // "asked_<topic>" flags
}

// Engine holds the per-session dialogue state for every active ghost
// conversation.
type Engine struct {
	mu       sync.Mutex
	sessions map[string]*session
	seq      int
	log      zerolog.Logger
}

func NewEngine(log zerolog.Logger) *Engine {
	return &Engine{
		sessions: map[string]*session{},
		log:      log.With().Str("component", "dialogue").Logger(),
	}
}

// StartDialogue opens a conversation and returns the ghost's opening line.
func (e *Engine) StartDialogue(ghost types.Ghost) (string, string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.seq++
	id := fmt.Sprintf("dlg-%d", e.seq)
	e.sessions[id] = &session{ghost: ghost, flags: map[string]bool{}}

	opening := ghost.Description
	if opening == "" {
		opening = fmt.Sprintf("%s regards you in silence.", ghost.Name)
	}
	return id, opening, nil
}

// ProcessPlayerInput matches input against the ghost's available topics,
// then against debugging intent keywords. Selecting a topic sets its
// asked-flag, which can unlock further topics.
func (e *Engine) ProcessPlayerInput(sessionID, input string) (encounter.DialogueResponse, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, ok := e.sessions[sessionID]
	if !ok {
		return encounter.DialogueResponse{}, fmt.Errorf("no dialogue session %s", sessionID)
	}

	lowered := strings.ToLower(input)

	if key, topic, found := e.matchTopic(s, lowered); found {
		s.flags["asked_"+key] = true
		resp := encounter.DialogueResponse{
			Text:              topic.Text,
			ReadyForDebugging: topic.ReadySignal,
		}
		if topic.Effects.Stability != 0 || topic.Effects.Insight != 0 {
			effects := topic.Effects
			resp.Effects = &effects
		}
		return resp, nil
	}

	for _, kw := range intentKeywords {
		if strings.Contains(lowered, kw) {
			return encounter.DialogueResponse{
				Text:              fmt.Sprintf("%s shudders. \"Then look closely at what I've become.\"", s.ghost.Name),
				ReadyForDebugging: true,
			}, nil
		}
	}

	return encounter.DialogueResponse{Text: e.promptText(s)}, nil
}

// EndDialogue drops a conversation's state.
func (e *Engine) EndDialogue(sessionID string) {
	e.mu.Lock()
	delete(e.sessions, sessionID)
	e.mu.Unlock()
}

// matchTopic finds the first available topic whose key appears in the
// input. Keys are checked in sorted order so matching is deterministic.
func (e *Engine) matchTopic(s *session, input string) (string, types.Topic, bool) {
	keys := make([]string, 0, len(s.ghost.Topics))
	for key := range s.ghost.Topics {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		topic := s.ghost.Topics[key]
		if !strings.Contains(input, key) {
			continue
		}
		if !flagsMet(topic.RequiresFlags, s.flags) {
			continue
		}
		return key, topic, true
	}
	return "", types.Topic{}, false
}

// promptText lists the topics currently open to the player.
func (e *Engine) promptText(s *session) string {
	var available []string
	for key, topic := range s.ghost.Topics {
		if flagsMet(topic.RequiresFlags, s.flags) {
			available = append(available, key)
		}
	}
	sort.Strings(available)
	if len(available) == 0 {
		return fmt.Sprintf("%s says nothing. Perhaps it is time to debug.", s.ghost.Name)
	}
	return fmt.Sprintf("%s waits. You could ask about: %s.",
		s.ghost.Name, strings.Join(available, ", "))
}

func flagsMet(required []string, flags map[string]bool) bool {
	for _, f := range required {
		if !flags[f] {
			return false
		}
	}
	return true
}
