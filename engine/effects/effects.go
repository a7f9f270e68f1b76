// Package effects mediates every request to trigger visual or audio
// feedback. All upstream systems funnel through one coordinator that
// enforces accessibility constraints, a concurrency ceiling, and
// priority-based conflict resolution before anything reaches the renderer.
package effects

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tsellier/ghostpatch/engine/events"
	"github.com/tsellier/ghostpatch/types"
)

// Renderer is the external effects backend. All calls are fire-and-forget.
type Renderer interface {
	TriggerVisualEffect(id string, effect types.VisualEffect)
	TriggerAudioEffect(id string, effect types.AudioEffect)
	FadeOutEffect(id string, duration time.Duration)
	StopEffect(id string)
}

// Trigger outcomes. A real effect ID is returned on dispatch.
const (
	StatusQueued   = "queued"
	StatusRejected = "rejected"
	StatusError    = "error"
)

type queuedTrigger struct {
	set    types.EffectSet
	source string
}

type activeRecord struct {
	effect types.ActiveEffect
	visual bool
	timer  *time.Timer
}

// Coordinator serializes effect triggering. Public methods never panic
// and never return errors; failures degrade to no visual feedback.
type Coordinator struct {
	mu          sync.Mutex
	initialized bool
	pending     []queuedTrigger // pre-init FIFO, replayed on Initialize
	queue       []queuedTrigger // conflict-deferred, drained on expiry
	active      map[string]*activeRecord
	seq         int

	access    types.AccessibilitySettings
	perf      types.PerformanceSettings
	frameRate func() float64 // nil means assume target met

	renderer Renderer
	log      zerolog.Logger
	now      func() time.Time
}

// NewCoordinator builds an uninitialized coordinator. Triggers queue up
// until Initialize attaches a renderer.
func NewCoordinator(access types.AccessibilitySettings, perf types.PerformanceSettings, log zerolog.Logger) *Coordinator {
	if access.IntensityScale <= 0 {
		access.IntensityScale = 1.0
	}
	if perf.MaxConcurrentEffects <= 0 {
		perf.MaxConcurrentEffects = 8
	}
	if perf.QualityScale <= 0 {
		perf.QualityScale = 1.0
	}
	if perf.TargetFrameRate <= 0 {
		perf.TargetFrameRate = 60
	}
	return &Coordinator{
		active: map[string]*activeRecord{},
		access: access,
		perf:   perf,
		log:    log.With().Str("component", "effects").Logger(),
		now:    time.Now,
	}
}

// Initialize attaches the renderer and replays every trigger that arrived
// before it.
func (c *Coordinator) Initialize(r Renderer) {
	c.mu.Lock()
	c.renderer = r
	c.initialized = true
	backlog := c.pending
	c.pending = nil
	c.mu.Unlock()

	for _, q := range backlog {
		c.TriggerEffect(q.set, q.source)
	}
}

// SetFrameRateSource installs a measured-FPS probe. Without one the
// coordinator assumes the target frame rate is being met.
func (c *Coordinator) SetFrameRateSource(f func() float64) {
	c.mu.Lock()
	c.frameRate = f
	c.mu.Unlock()
}

// TriggerEffect runs the full admission pipeline for one effect set and
// returns the assigned effect ID, or one of StatusQueued, StatusRejected,
// StatusError.
func (c *Coordinator) TriggerEffect(set types.EffectSet, source string) (status string) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error().Interface("panic", r).Str("source", source).Msg("effect trigger panicked")
			status = StatusError
		}
	}()

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.initialized {
		c.pending = append(c.pending, queuedTrigger{set, source})
		return StatusQueued
	}

	set = c.applyAccessibility(set)

	if c.frameRate != nil {
		if fps := c.frameRate(); fps < 0.8*float64(c.perf.TargetFrameRate) {
			c.log.Debug().Float64("fps", fps).Msg("effect rejected, frame rate low")
			return StatusRejected
		}
	}

	decision := c.resolveConflicts(set)
	switch decision.verdict {
	case verdictQueue:
		c.queue = append(c.queue, queuedTrigger{set, source})
		return StatusQueued
	case verdictReplace:
		c.removeLocked(decision.victimID, true)
	case verdictMerge:
		set.Intensity = decision.mergedIntensity
		for i := range set.Visuals {
			set.Visuals[i].Intensity = decision.mergedIntensity
		}
	case verdictAllow:
		if len(c.active) >= c.perf.MaxConcurrentEffects {
			return StatusRejected
		}
	}

	return c.dispatchLocked(set, source)
}

// dispatchLocked sends the sub-effects to the renderer and registers the
// effect with auto-expiry. Caller holds c.mu.
func (c *Coordinator) dispatchLocked(set types.EffectSet, source string) string {
	c.seq++
	id := fmt.Sprintf("fx-%d", c.seq)

	for _, v := range set.Visuals {
		v.Intensity = clamp01(v.Intensity * c.perf.QualityScale)
		c.renderer.TriggerVisualEffect(id, v)
	}
	for _, a := range set.Audio {
		c.renderer.TriggerAudioEffect(id, a)
	}

	rec := &activeRecord{
		effect: types.ActiveEffect{
			ID:        id,
			Type:      set.Type,
			Intensity: set.Intensity,
			StartedAt: c.now(),
			Duration:  set.Duration,
		},
		visual: len(set.Visuals) > 0,
	}
	if set.Duration > 0 {
		rec.timer = time.AfterFunc(set.Duration, func() { c.expire(id) })
	}
	c.active[id] = rec

	c.log.Debug().Str("id", id).Str("type", set.Type).Str("source", source).Msg("effect dispatched")
	return id
}

// StopEffect cancels an effect before its natural expiry.
func (c *Coordinator) StopEffect(id string) {
	c.mu.Lock()
	c.removeLocked(id, true)
	c.mu.Unlock()
	c.drainQueue()
}

func (c *Coordinator) expire(id string) {
	c.mu.Lock()
	c.removeLocked(id, true)
	c.mu.Unlock()
	c.drainQueue()
}

// removeLocked drops an active effect and tells the renderer to stop it.
// Caller holds c.mu.
func (c *Coordinator) removeLocked(id string, notify bool) {
	rec, ok := c.active[id]
	if !ok {
		return
	}
	if rec.timer != nil {
		rec.timer.Stop()
	}
	delete(c.active, id)
	if notify && c.renderer != nil {
		c.renderer.StopEffect(id)
	}
}

// drainQueue retries deferred effects now that capacity may exist.
func (c *Coordinator) drainQueue() {
	c.mu.Lock()
	if len(c.queue) == 0 {
		c.mu.Unlock()
		return
	}
	next := c.queue[0]
	c.queue = c.queue[1:]
	c.mu.Unlock()

	c.TriggerEffect(next.set, next.source)
}

// ActiveEffects returns a snapshot of the in-flight effects.
func (c *Coordinator) ActiveEffects() []types.ActiveEffect {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]types.ActiveEffect, 0, len(c.active))
	for _, rec := range c.active {
		out = append(out, rec.effect)
	}
	return out
}

// UpdateAccessibility replaces the accessibility constraints. Takes effect
// on the next trigger; active effects are untouched.
func (c *Coordinator) UpdateAccessibility(a types.AccessibilitySettings) {
	if a.IntensityScale <= 0 {
		a.IntensityScale = 1.0
	}
	c.mu.Lock()
	c.access = a
	c.mu.Unlock()
}

// OptimizeForDevice lowers the performance envelope for constrained hosts.
// Adjustments are one-way; settings only ever tighten.
func (c *Coordinator) OptimizeForDevice(caps types.DeviceCapabilities) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if caps.Mobile && caps.LowGPU {
		c.lowerLocked(3, 0.5, 30)
	} else if caps.Mobile {
		c.lowerLocked(4, 0.6, 30)
	} else if caps.LowGPU {
		c.lowerLocked(5, 0.7, 45)
	}
	if caps.MemoryGB > 0 && caps.MemoryGB < 2 {
		if c.perf.MaxConcurrentEffects > 4 {
			c.perf.MaxConcurrentEffects = 4
		}
	}
}

func (c *Coordinator) lowerLocked(maxEffects int, quality float64, frameRate int) {
	if c.perf.MaxConcurrentEffects > maxEffects {
		c.perf.MaxConcurrentEffects = maxEffects
	}
	if c.perf.QualityScale > quality {
		c.perf.QualityScale = quality
	}
	if c.perf.TargetFrameRate > frameRate {
		c.perf.TargetFrameRate = frameRate
	}
}

// applyAccessibility rewrites an effect set under the current constraints.
// Caller holds c.mu.
func (c *Coordinator) applyAccessibility(set types.EffectSet) types.EffectSet {
	scale := c.access.IntensityScale
	set.Intensity = clamp01(set.Intensity * scale)

	visuals := make([]types.VisualEffect, len(set.Visuals))
	copy(visuals, set.Visuals)
	for i := range visuals {
		v := &visuals[i]
		v.Intensity = clamp01(v.Intensity * scale)
		if c.access.ReduceMotion && (v.Kind == types.VisualScreenShake || v.Kind == types.VisualDistortion) {
			v.Intensity *= 0.3
		}
		if c.access.DisableFlashing && (v.Kind == types.VisualFlash || v.Kind == types.VisualGlitch) {
			v.Kind = types.VisualFade
			v.Intensity *= 0.5
		}
		if c.access.HighContrast && v.Kind == types.VisualColorShift {
			v.Intensity = clamp01(v.Intensity * 1.5)
		}
	}
	set.Visuals = visuals
	return set
}

// BindBus subscribes the coordinator's effect-set builders to the bus.
func (c *Coordinator) BindBus(bus *events.Bus) {
	bus.On(events.MeterChanged, func(e events.Event) {
		c.ProcessMeterChange(intData(e, "dStability"), intData(e, "dInsight"))
	})
	bus.On(events.EncounterStarted, func(e events.Event) {
		c.ProcessEncounterStart(stringData(e, "ghost"))
	})
	bus.On(events.EncounterCompleted, func(e events.Event) {
		success, _ := e.Data["success"].(bool)
		c.ProcessEncounterComplete(success)
	})
	bus.On(events.PatchApplied, func(e events.Event) {
		success, _ := e.Data["success"].(bool)
		c.ProcessPatchApplication(success)
	})
	bus.On(events.PatchGenerated, func(e events.Event) {
		c.ProcessPatchGeneration()
	})
	bus.On(events.DialogueChoice, func(e events.Event) {
		c.ProcessDialogueChoice()
	})
	bus.On(events.RoomEntered, func(e events.Event) {
		c.ProcessRoomChange(stringData(e, "room"))
	})
	bus.On(events.CriticalEvent, func(e events.Event) {
		c.ProcessCriticalEvent(stringData(e, "description"))
	})
	bus.On(events.VisualTriggered, func(e events.Event) {
		effect := stringData(e, "effect")
		intensity, _ := e.Data["intensity"].(float64)
		c.ProcessVisualRequest(effect, intensity)
	})
}

func intData(e events.Event, key string) int {
	switch v := e.Data[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return 0
}

func stringData(e events.Event, key string) string {
	s, _ := e.Data[key].(string)
	return s
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
