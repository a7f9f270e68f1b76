package timeline

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/tsellier/ghostpatch/engine/events"
)

// Conditions evaluates the two end-of-game rules: stability reaching zero
// ends the game, resolving every ghost wins it. Each terminal event fires
// at most once.
type Conditions struct {
	mu       sync.Mutex
	ghosts   map[string]bool // ghost ID → resolved
	gameOver bool
	victory  bool

	bus *events.Bus
	log zerolog.Logger
}

func NewConditions(ghostIDs []string, bus *events.Bus, log zerolog.Logger) *Conditions {
	c := &Conditions{
		ghosts: map[string]bool{},
		bus:    bus,
		log:    log.With().Str("component", "conditions").Logger(),
	}
	for _, id := range ghostIDs {
		c.ghosts[id] = false
	}
	return c
}

// NoteStability checks the game-over rule against the current meter value.
func (c *Conditions) NoteStability(stability int) {
	c.mu.Lock()
	if c.gameOver || c.victory || stability > 0 {
		c.mu.Unlock()
		return
	}
	c.gameOver = true
	c.mu.Unlock()

	c.log.Info().Int("stability", stability).Msg("system collapsed")
	c.bus.Emit(events.Event{
		Type:     events.GameOver,
		Source:   "conditions",
		Priority: 1,
		Data:     map[string]any{"reason": "stability_collapse"},
	})
}

// ResolveGhost marks a ghost as laid to rest and checks the victory rule.
func (c *Conditions) ResolveGhost(ghostID string) {
	c.mu.Lock()
	if _, known := c.ghosts[ghostID]; !known {
		c.mu.Unlock()
		return
	}
	c.ghosts[ghostID] = true
	if c.gameOver || c.victory || !c.allResolvedLocked() {
		c.mu.Unlock()
		return
	}
	c.victory = true
	c.mu.Unlock()

	c.log.Info().Msg("all ghosts resolved")
	c.bus.Emit(events.Event{
		Type:     events.Victory,
		Source:   "conditions",
		Priority: 1,
	})
}

// Terminal reports whether the game has ended either way.
func (c *Conditions) Terminal() (gameOver, victory bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gameOver, c.victory
}

// ResolvedGhosts returns the IDs of resolved ghosts.
func (c *Conditions) ResolvedGhosts() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []string
	for id, done := range c.ghosts {
		if done {
			out = append(out, id)
		}
	}
	return out
}

// Restore marks a saved set of ghosts as resolved without re-triggering
// terminal events.
func (c *Conditions) Restore(resolved []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range resolved {
		if _, known := c.ghosts[id]; known {
			c.ghosts[id] = true
		}
	}
}

func (c *Conditions) allResolvedLocked() bool {
	for _, done := range c.ghosts {
		if !done {
			return false
		}
	}
	return len(c.ghosts) > 0
}

// BindBus wires the rules to meter and encounter events. A completed
// encounter only resolves its ghost when it succeeded.
func (c *Conditions) BindBus(bus *events.Bus) {
	bus.On(events.MeterChanged, func(e events.Event) {
		if v, ok := numData(e, "stability"); ok {
			c.NoteStability(v)
		}
	})
	bus.On(events.EncounterCompleted, func(e events.Event) {
		if success, _ := e.Data["success"].(bool); success {
			if ghost, _ := e.Data["ghost"].(string); ghost != "" {
				c.ResolveGhost(ghost)
			}
		}
	})
}
