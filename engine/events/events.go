// Package events implements the engine-wide event bus. Delivery is
// synchronous and in subscription order; priority is advisory metadata
// carried on the event, not a delivery-order guarantee.
package events

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Kind names a bus event type.
type Kind string

const (
	MeterChanged       Kind = "meter_changed"
	EncounterStarted   Kind = "encounter_started"
	EncounterCompleted Kind = "encounter_completed"
	PatchGenerated     Kind = "patch_generated"
	PatchApplied       Kind = "patch_applied"
	DialogueChoice     Kind = "dialogue_choice"
	RoomEntered        Kind = "room_entered"
	CriticalEvent      Kind = "critical_event"
	VisualTriggered    Kind = "visual_effect_triggered"
	ContentUnlocked    Kind = "content_unlocked"
	SystemError        Kind = "system_error"
	GameOver           Kind = "game_over"
	Victory            Kind = "victory"
)

// Event is one bus message.
type Event struct {
	Type      Kind           `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Source    string         `json:"source"`
	Data      map[string]any `json:"data,omitempty"`
	Priority  int            `json:"priority"`
}

// Handler consumes one event. Handlers must not assume any ordering
// beyond "emitted before delivered".
type Handler func(Event)

// Bus is the only cross-component shared resource in the engine.
// Constructed once and injected; no ambient global instance.
type Bus struct {
	mu       sync.RWMutex
	handlers map[Kind][]Handler
	log      zerolog.Logger
}

// NewBus creates an empty event bus.
func NewBus(log zerolog.Logger) *Bus {
	return &Bus{
		handlers: map[Kind][]Handler{},
		log:      log.With().Str("component", "bus").Logger(),
	}
}

// On registers a handler for an event kind.
func (b *Bus) On(kind Kind, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[kind] = append(b.handlers[kind], h)
}

// Emit delivers the event to every handler registered for its kind.
// A panicking handler is contained and logged; remaining handlers still run.
func (b *Bus) Emit(e Event) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}

	b.mu.RLock()
	hs := make([]Handler, len(b.handlers[e.Type]))
	copy(hs, b.handlers[e.Type])
	b.mu.RUnlock()

	for _, h := range hs {
		b.deliver(e, h)
	}
}

func (b *Bus) deliver(e Event, h Handler) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error().Str("event", string(e.Type)).Any("panic", r).
				Msg("event handler panicked")
		}
	}()
	h(e)
}
