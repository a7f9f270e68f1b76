// Package meters owns the two global game meters. All mutation goes through
// Apply, which clamps to [0,100] and announces the change on the bus —
// the single authoritative path for meter state.
package meters

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/tsellier/ghostpatch/engine/events"
	"github.com/tsellier/ghostpatch/types"
)

// Default starting values for a fresh game.
const (
	DefaultStability = 80
	DefaultInsight   = 0
)

// Meters holds the stability and insight scalars.
type Meters struct {
	mu        sync.Mutex
	stability int
	insight   int
	bus       *events.Bus
	log       zerolog.Logger
}

// New creates meters at the default starting values.
func New(bus *events.Bus, log zerolog.Logger) *Meters {
	return NewAt(bus, log, DefaultStability, DefaultInsight)
}

// NewAt creates meters at explicit values, clamped to [0,100].
func NewAt(bus *events.Bus, log zerolog.Logger, stability, insight int) *Meters {
	return &Meters{
		stability: clampMeter(stability),
		insight:   clampMeter(insight),
		bus:       bus,
		log:       log.With().Str("component", "meters").Logger(),
	}
}

// Apply adds one meter delta, clamping both meters to [0,100], and emits a
// meter_changed event carrying the deltas and the new values.
func (m *Meters) Apply(e types.MeterEffects) (stability, insight int) {
	m.mu.Lock()
	m.stability = clampMeter(m.stability + e.Stability)
	m.insight = clampMeter(m.insight + e.Insight)
	stability, insight = m.stability, m.insight
	m.mu.Unlock()

	m.log.Debug().Int("dStability", e.Stability).Int("dInsight", e.Insight).
		Int("stability", stability).Int("insight", insight).Msg("meters changed")

	if m.bus != nil && (e.Stability != 0 || e.Insight != 0) {
		m.bus.Emit(events.Event{
			Type:   events.MeterChanged,
			Source: "meters",
			Data: map[string]any{
				"dStability":  e.Stability,
				"dInsight":    e.Insight,
				"stability":   stability,
				"insight":     insight,
				"description": e.Description,
			},
		})
	}
	return stability, insight
}

// ApplyAll applies a consequence batch in emission order.
func (m *Meters) ApplyAll(effects []types.MeterEffects) {
	for _, e := range effects {
		m.Apply(e)
	}
}

// Snapshot returns the current meter values.
func (m *Meters) Snapshot() (stability, insight int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stability, m.insight
}

// Restore sets both meters directly (save/load), clamped.
func (m *Meters) Restore(stability, insight int) {
	m.mu.Lock()
	m.stability = clampMeter(stability)
	m.insight = clampMeter(insight)
	m.mu.Unlock()
}

func clampMeter(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
