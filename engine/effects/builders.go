package effects

import (
	"math"
	"time"

	"github.com/tsellier/ghostpatch/types"
)

// ProcessMeterChange turns meter deltas into feedback. Large stability
// drops show as glitches, gains as fades; large insight swings shift the
// palette.
func (c *Coordinator) ProcessMeterChange(dStability, dInsight int) {
	var visuals []types.VisualEffect
	var audio []types.AudioEffect

	if abs(dStability) > 10 {
		kind := types.VisualFade
		if dStability < 0 {
			kind = types.VisualGlitch
		}
		intensity := clamp01(float64(abs(dStability)) / 25)
		visuals = append(visuals, types.VisualEffect{
			Kind:      kind,
			Intensity: intensity,
			Duration:  800 * time.Millisecond,
		})
		sound := "stability_up"
		if dStability < 0 {
			sound = "stability_down"
		}
		audio = append(audio, types.AudioEffect{Sound: sound, Volume: intensity})
	}
	if abs(dInsight) > 15 {
		hue := 120.0 // green for gains
		if dInsight < 0 {
			hue = 0
		}
		visuals = append(visuals, types.VisualEffect{
			Kind:      types.VisualColorShift,
			Intensity: clamp01(float64(abs(dInsight)) / 30),
			Duration:  1200 * time.Millisecond,
			Hue:       hue,
		})
	}
	if len(visuals) == 0 && len(audio) == 0 {
		return
	}

	c.TriggerEffect(types.EffectSet{
		Type:      "meter_change",
		Intensity: clamp01(math.Max(float64(abs(dStability))/25, float64(abs(dInsight))/30)),
		Duration:  1200 * time.Millisecond,
		Visuals:   visuals,
		Audio:     audio,
	}, "meters")
}

// ProcessEncounterStart announces a ghost's arrival.
func (c *Coordinator) ProcessEncounterStart(ghostID string) {
	c.TriggerEffect(types.EffectSet{
		Type:      "encounter_start",
		Intensity: 0.6,
		Duration:  1500 * time.Millisecond,
		Visuals: []types.VisualEffect{
			{Kind: types.VisualDistortion, Intensity: 0.6, Duration: 1500 * time.Millisecond},
		},
		Audio: []types.AudioEffect{{Sound: "ghost_appear", Volume: 0.7}},
	}, "encounter:"+ghostID)
}

// ProcessEncounterComplete marks the end of an encounter.
func (c *Coordinator) ProcessEncounterComplete(success bool) {
	kind := types.VisualGlitch
	sound := "encounter_fail"
	if success {
		kind = types.VisualFade
		sound = "encounter_resolve"
	}
	c.TriggerEffect(types.EffectSet{
		Type:      "encounter_complete",
		Intensity: 0.5,
		Duration:  time.Second,
		Visuals:   []types.VisualEffect{{Kind: kind, Intensity: 0.5, Duration: time.Second}},
		Audio:     []types.AudioEffect{{Sound: sound, Volume: 0.6}},
	}, "encounter")
}

// ProcessPatchApplication flashes the outcome of a patch.
func (c *Coordinator) ProcessPatchApplication(success bool) {
	if success {
		c.TriggerEffect(types.EffectSet{
			Type:      "patch_applied",
			Intensity: 0.4,
			Duration:  600 * time.Millisecond,
			Visuals:   []types.VisualEffect{{Kind: types.VisualFlash, Intensity: 0.4, Duration: 600 * time.Millisecond}},
			Audio:     []types.AudioEffect{{Sound: "patch_success", Volume: 0.5}},
		}, "patches")
		return
	}
	c.TriggerEffect(types.EffectSet{
		Type:      "patch_failed",
		Intensity: 0.7,
		Duration:  time.Second,
		Visuals: []types.VisualEffect{
			{Kind: types.VisualGlitch, Intensity: 0.7, Duration: time.Second},
			{Kind: types.VisualScreenShake, Intensity: 0.5, Duration: 400 * time.Millisecond},
		},
		Audio: []types.AudioEffect{{Sound: "patch_failure", Volume: 0.7}},
	}, "patches")
}

// ProcessPatchGeneration gives a subtle cue that options are ready.
func (c *Coordinator) ProcessPatchGeneration() {
	c.TriggerEffect(types.EffectSet{
		Type:      "patch_generated",
		Intensity: 0.2,
		Duration:  400 * time.Millisecond,
		Audio:     []types.AudioEffect{{Sound: "options_ready", Volume: 0.4}},
	}, "patches")
}

// ProcessDialogueChoice gives quiet typing feedback.
func (c *Coordinator) ProcessDialogueChoice() {
	c.TriggerEffect(types.EffectSet{
		Type:      "dialogue",
		Intensity: 0.1,
		Duration:  200 * time.Millisecond,
		Audio:     []types.AudioEffect{{Sound: "dialogue_tick", Volume: 0.3}},
	}, "dialogue")
}

// ProcessRoomChange fades the scene on entry.
func (c *Coordinator) ProcessRoomChange(roomID string) {
	c.TriggerEffect(types.EffectSet{
		Type:      "room_transition",
		Intensity: 0.5,
		Duration:  time.Second,
		Visuals:   []types.VisualEffect{{Kind: types.VisualFade, Intensity: 0.5, Duration: time.Second}},
		Audio:     []types.AudioEffect{{Sound: "door", Volume: 0.5}},
	}, "room:"+roomID)
}

// ProcessCriticalEvent is the loudest effect the coordinator emits.
func (c *Coordinator) ProcessCriticalEvent(description string) {
	c.TriggerEffect(types.EffectSet{
		Type:      "critical_alert",
		Intensity: 0.9,
		Duration:  2 * time.Second,
		Visuals: []types.VisualEffect{
			{Kind: types.VisualFlash, Intensity: 0.9, Duration: 300 * time.Millisecond},
			{Kind: types.VisualScreenShake, Intensity: 0.8, Duration: 800 * time.Millisecond},
		},
		Audio: []types.AudioEffect{{Sound: "alarm", Volume: 0.9}},
	}, "critical")
}

// ProcessVisualRequest handles direct visual requests from consequences.
func (c *Coordinator) ProcessVisualRequest(effect string, intensity float64) {
	if effect == "" {
		return
	}
	c.TriggerEffect(types.EffectSet{
		Type:      "consequence_visual",
		Intensity: clamp01(intensity),
		Duration:  time.Second,
		Visuals: []types.VisualEffect{
			{Kind: types.VisualEffectKind(effect), Intensity: clamp01(intensity), Duration: time.Second},
		},
	}, "consequences")
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
