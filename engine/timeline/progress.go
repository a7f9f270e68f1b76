package timeline

import (
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/tsellier/ghostpatch/engine/events"
	"github.com/tsellier/ghostpatch/types"
)

// Progress derives room unlocks from the insight meter. Unlocks are
// one-way; a room never re-locks when insight later drops.
type Progress struct {
	mu       sync.Mutex
	rooms    []types.RoomDef
	unlocked map[string]bool
	insight  int

	bus *events.Bus
	log zerolog.Logger
}

func NewProgress(rooms []types.RoomDef, bus *events.Bus, log zerolog.Logger) *Progress {
	p := &Progress{
		rooms:    rooms,
		unlocked: map[string]bool{},
		bus:      bus,
		log:      log.With().Str("component", "progress").Logger(),
	}
	for _, r := range rooms {
		if r.UnlockAt <= 0 {
			p.unlocked[r.ID] = true
		}
	}
	return p
}

// NoteInsight records the current insight total and returns any rooms it
// newly unlocked, in ID order.
func (p *Progress) NoteInsight(insight int) []types.RoomDef {
	p.mu.Lock()
	p.insight = insight
	var opened []types.RoomDef
	for _, r := range p.rooms {
		if !p.unlocked[r.ID] && insight >= r.UnlockAt {
			p.unlocked[r.ID] = true
			opened = append(opened, r)
		}
	}
	p.mu.Unlock()

	sort.Slice(opened, func(i, j int) bool { return opened[i].ID < opened[j].ID })
	for _, r := range opened {
		p.log.Info().Str("room", r.ID).Int("insight", insight).Msg("room unlocked")
		p.bus.Emit(events.Event{
			Type:   events.ContentUnlocked,
			Source: "progress",
			Data:   map[string]any{"room": r.ID, "name": r.Name},
		})
	}
	return opened
}

// Unlocked reports whether a room is currently open.
func (p *Progress) Unlocked(roomID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.unlocked[roomID]
}

// UnlockedRooms returns the open room IDs in sorted order.
func (p *Progress) UnlockedRooms() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.unlocked))
	for id := range p.unlocked {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Restore reopens a saved set of rooms.
func (p *Progress) Restore(roomIDs []string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, id := range roomIDs {
		p.unlocked[id] = true
	}
}

// BindBus tracks insight through meter-changed events.
func (p *Progress) BindBus(bus *events.Bus) {
	bus.On(events.MeterChanged, func(e events.Event) {
		if v, ok := numData(e, "insight"); ok {
			p.NoteInsight(v)
		}
	})
}

func numData(e events.Event, key string) (int, bool) {
	switch v := e.Data[key].(type) {
	case int:
		return v, true
	case float64:
		return int(v), true
	}
	return 0, false
}
