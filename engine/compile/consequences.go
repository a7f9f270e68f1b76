package compile

import (
	"math"
	"time"

	"github.com/tsellier/ghostpatch/types"
)

// ProcessConsequences fans a patch result out into typed game consequences.
// One meter_change is always emitted; the rest fire on fixed thresholds:
// stability delta below −15 adds a major visual_effect, |stability| above 10
// adds an audio_cue, insight above 15 adds unlock_content, and every
// security-violation compile event adds a critical trigger_event.
func ProcessConsequences(result types.PatchResult) []types.GameConsequence {
	var out []types.GameConsequence

	st := result.Effects.Stability
	in := result.Effects.Insight

	out = append(out, types.GameConsequence{
		Kind:        types.ConsequenceMeterChange,
		Severity:    meterSeverity(st),
		Description: result.Effects.Description,
		Payload:     types.MeterChangePayload{Effects: result.Effects},
	})

	if st < -15 {
		out = append(out, types.GameConsequence{
			Kind:        types.ConsequenceVisualEffect,
			Severity:    types.SeverityMajor,
			Description: "The room distorts as stability drains away.",
			Duration:    2 * time.Second,
			Payload: types.VisualEffectPayload{
				Effect:    string(types.VisualDistortion),
				Intensity: clampIntensity(math.Abs(float64(st)) / 30),
			},
		})
	}

	if st > 10 || st < -10 {
		sound := "stability_gain"
		if st < 0 {
			sound = "stability_drop"
		}
		out = append(out, types.GameConsequence{
			Kind:        types.ConsequenceAudioCue,
			Severity:    types.SeverityModerate,
			Description: "A tone cuts through the room hum.",
			Payload:     types.AudioCuePayload{Sound: sound, Volume: 0.8},
		})
	}

	if in > 15 {
		out = append(out, types.GameConsequence{
			Kind:        types.ConsequenceUnlockContent,
			Severity:    types.SeverityModerate,
			Description: "A new page appears in the evidence archive.",
			Payload:     types.UnlockContentPayload{Unlocks: []string{"insight_archive"}},
		})
	}

	for _, e := range result.Events {
		if e.Kind != types.CompileSecurityViolation {
			continue
		}
		out = append(out, types.GameConsequence{
			Kind:        types.ConsequenceTriggerEvent,
			Severity:    types.SeverityCritical,
			Description: e.Message,
			Payload:     types.TriggerEventPayload{Event: "security_breach"},
		})
	}

	return out
}

func meterSeverity(stability int) types.Severity {
	switch {
	case stability <= -15:
		return types.SeverityMajor
	case stability <= -8 || stability >= 8:
		return types.SeverityModerate
	default:
		return types.SeverityMinor
	}
}

func clampIntensity(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < 0 {
		return 0
	}
	return v
}
