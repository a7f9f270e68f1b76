// Package timeline is the post-mortem bookkeeping layer: an append-only
// evidence log, insight-driven room unlocks, and the victory/game-over
// rules. Everything here is derived from events the rest of the engine
// already emits.
package timeline

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tsellier/ghostpatch/engine/events"
	"github.com/tsellier/ghostpatch/types"
)

// Timeline is the append-only evidence log. Entries are assigned IDs and
// timestamps on append and are never mutated or deleted afterwards.
type Timeline struct {
	mu      sync.RWMutex
	entries []types.TimelineEntry
	seq     int
	log     zerolog.Logger
	now     func() time.Time
}

func NewTimeline(log zerolog.Logger) *Timeline {
	return &Timeline{
		log: log.With().Str("component", "timeline").Logger(),
		now: time.Now,
	}
}

// Append records one entry and returns its assigned ID.
func (t *Timeline) Append(entry types.TimelineEntry) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.seq++
	entry.ID = fmt.Sprintf("ev-%d", t.seq)
	entry.Timestamp = t.now()
	t.entries = append(t.entries, entry)
	return entry.ID
}

// Entries returns a copy of the full log in append order.
func (t *Timeline) Entries() []types.TimelineEntry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]types.TimelineEntry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Len reports the number of entries.
func (t *Timeline) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// Search returns entries matching any of the given keywords against the
// entry's keywords, concepts, category, or text. Matching is
// case-insensitive.
func (t *Timeline) Search(keywords ...string) []types.TimelineEntry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var out []types.TimelineEntry
	for _, e := range t.entries {
		if matchesAny(e, keywords) {
			out = append(out, e)
		}
	}
	return out
}

// BySession returns all entries linked to one encounter session.
func (t *Timeline) BySession(sessionID string) []types.TimelineEntry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var out []types.TimelineEntry
	for _, e := range t.entries {
		if e.SessionID == sessionID {
			out = append(out, e)
		}
	}
	return out
}

// Restore replaces the log from a save. The sequence counter resumes
// past the highest restored index so future IDs stay unique.
func (t *Timeline) Restore(entries []types.TimelineEntry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = make([]types.TimelineEntry, len(entries))
	copy(t.entries, entries)
	t.seq = len(entries)
}

// BindBus makes the timeline record the notable gameplay events.
func (t *Timeline) BindBus(bus *events.Bus) {
	bus.On(events.EncounterStarted, func(e events.Event) {
		t.Append(types.TimelineEntry{
			Category:  "encounter",
			Outcome:   "started",
			RiskLevel: types.SafetySafe,
			Text:      fmt.Sprintf("Encounter with %s began in %s.", str(e, "ghost"), str(e, "room")),
			Keywords:  []string{str(e, "ghost"), "encounter"},
			SessionID: str(e, "session"),
			RoomID:    str(e, "room"),
		})
	})
	bus.On(events.EncounterCompleted, func(e events.Event) {
		outcome := "failed"
		if b, _ := e.Data["success"].(bool); b {
			outcome = "resolved"
		}
		t.Append(types.TimelineEntry{
			Category:  "encounter",
			Outcome:   outcome,
			RiskLevel: types.SafetySafe,
			Text:      fmt.Sprintf("Encounter with %s %s.", str(e, "ghost"), outcome),
			Keywords:  []string{str(e, "ghost"), "encounter", outcome},
			SessionID: str(e, "session"),
		})
	})
	bus.On(events.PatchApplied, func(e events.Event) {
		outcome := "failure"
		risk := types.SafetyCaution
		if b, _ := e.Data["success"].(bool); b {
			outcome = "success"
			risk = types.SafetySafe
		}
		t.Append(types.TimelineEntry{
			Category:  "patch",
			Outcome:   outcome,
			RiskLevel: risk,
			Concepts:  []string{"patching", str(e, "action")},
			Text:      fmt.Sprintf("Patch %s: %s (%s).", str(e, "patch"), outcome, str(e, "action")),
			Keywords:  []string{"patch", str(e, "action"), outcome},
		})
	})
	bus.On(events.CriticalEvent, func(e events.Event) {
		t.Append(types.TimelineEntry{
			Category:  "critical",
			Outcome:   "triggered",
			RiskLevel: types.SafetyDanger,
			Text:      str(e, "description"),
			Keywords:  []string{"critical"},
		})
	})
	bus.On(events.RoomEntered, func(e events.Event) {
		t.Append(types.TimelineEntry{
			Category: "exploration",
			Outcome:  "entered",
			Text:     fmt.Sprintf("Entered %s.", str(e, "room")),
			Keywords: []string{"room", str(e, "room")},
			RoomID:   str(e, "room"),
		})
	})
}

func matchesAny(e types.TimelineEntry, keywords []string) bool {
	for _, kw := range keywords {
		kw = strings.ToLower(kw)
		if kw == "" {
			continue
		}
		if strings.Contains(strings.ToLower(e.Text), kw) ||
			strings.Contains(strings.ToLower(e.Category), kw) {
			return true
		}
		for _, k := range e.Keywords {
			if strings.ToLower(k) == kw {
				return true
			}
		}
		for _, c := range e.Concepts {
			if strings.ToLower(c) == kw {
				return true
			}
		}
	}
	return false
}

func str(e events.Event, key string) string {
	s, _ := e.Data[key].(string)
	return s
}
