package encounter

import (
	"fmt"
	"math"

	"github.com/tsellier/ghostpatch/engine/compile"
	"github.com/tsellier/ghostpatch/engine/events"
	"github.com/tsellier/ghostpatch/types"
)

// ApplyResult reports what happened when the player acted on a patch.
// Collaborator faults are reported here with Success=false instead of an
// error so the player always gets a playable response.
type ApplyResult struct {
	Success      bool
	Feedback     string
	Consequences []types.GameConsequence
	Phase        types.Phase
}

// ApplyPatchChoice resolves the patch ID against every open session,
// applies the chosen action through the patch collaborator, fans the
// result out into game consequences, moves the meters, and advances the
// session. Questioning a patch returns the session to dialogue; every
// other action completes the encounter.
func (o *Orchestrator) ApplyPatchChoice(patchID string, action types.PatchAction) (ApplyResult, error) {
	o.mu.Lock()
	session, patch, ok := o.findPatch(patchID)
	if !ok {
		o.mu.Unlock()
		return ApplyResult{}, fmt.Errorf("no pending patch with id %s", patchID)
	}
	session.Phase = types.PhaseConsequences
	o.mu.Unlock()

	application, err := o.generator.ApplyPatch(patch, action)
	if err != nil {
		o.log.Error().Err(err).Str("patch", patchID).Msg("patch application failed")
		o.bus.Emit(events.Event{
			Type:     events.SystemError,
			Source:   "encounter",
			Priority: 1,
			Data:     map[string]any{"patch": patchID, "error": err.Error()},
		})
		o.mu.Lock()
		session.Phase = types.PhaseSelection
		o.mu.Unlock()
		return ApplyResult{
			Success:  false,
			Feedback: "The patch slips through your fingers. The system is unchanged.",
			Phase:    types.PhaseSelection,
		}, nil
	}

	consequences := actionConsequences(patch, action, application)

	if action == types.ActionApply || action == types.ActionRefactor {
		fanned := compile.ProcessConsequences(types.PatchResult{
			Success: application.Success,
			Effects: application.Effects,
			Events:  application.Events,
		})
		for _, c := range fanned {
			// The action table already carries the aggregate meter delta.
			if c.Kind == types.ConsequenceMeterChange {
				continue
			}
			consequences = append(consequences, c)
		}
		for _, ev := range application.Events {
			if ev.Kind == types.CompileSecurityViolation {
				o.meters.Apply(ev.Effects)
			}
		}
	}

	for _, c := range consequences {
		if mc, ok := c.Payload.(types.MeterChangePayload); ok {
			o.meters.Apply(mc.Effects)
		}
	}

	o.mu.Lock()
	session.Applied = append(session.Applied, types.AppliedPatch{
		Patch:     patch,
		Action:    action,
		Success:   application.Success,
		AppliedAt: o.now(),
	})
	session.Consequences = append(session.Consequences, consequences...)

	next := types.PhaseCompleted
	if action == types.ActionQuestion {
		next = types.PhaseDialogue
	}
	session.Phase = next
	if next == types.PhaseCompleted {
		session.Complete = true
	}
	o.mu.Unlock()

	o.bus.Emit(events.Event{
		Type:   events.PatchApplied,
		Source: "encounter",
		Data: map[string]any{
			"patch":   patchID,
			"action":  string(action),
			"success": application.Success,
		},
	})

	o.emitConsequenceEvents(session.ID, consequences)

	return ApplyResult{
		Success:      application.Success,
		Feedback:     application.Feedback,
		Consequences: consequences,
		Phase:        next,
	}, nil
}

// emitConsequenceEvents puts the non-meter consequences on the bus so the
// effect coordinator, the timeline, and connected clients see them.
func (o *Orchestrator) emitConsequenceEvents(sessionID string, consequences []types.GameConsequence) {
	for _, c := range consequences {
		switch p := c.Payload.(type) {
		case types.TriggerEventPayload:
			o.bus.Emit(events.Event{
				Type:     events.CriticalEvent,
				Source:   "encounter",
				Priority: 1,
				Data: map[string]any{
					"event":       p.Event,
					"description": c.Description,
					"session":     sessionID,
				},
			})
		case types.VisualEffectPayload:
			o.bus.Emit(events.Event{
				Type:   events.VisualTriggered,
				Source: "encounter",
				Data:   map[string]any{"effect": p.Effect, "intensity": p.Intensity},
			})
		case types.UnlockContentPayload:
			o.bus.Emit(events.Event{
				Type:   events.ContentUnlocked,
				Source: "encounter",
				Data:   map[string]any{"unlocks": p.Unlocks, "session": sessionID},
			})
		}
	}
}

// findPatch locates a pending patch option across every open session.
// Caller holds o.mu.
func (o *Orchestrator) findPatch(patchID string) (*types.EncounterSession, types.PatchPlan, bool) {
	for _, s := range o.sessions {
		for _, opt := range s.Options {
			if opt.Patch.ID == patchID {
				return s, opt.Patch, true
			}
		}
	}
	return nil, types.PatchPlan{}, false
}

// actionConsequences is the rule table mapping (action, success) to game
// consequences. Meter numbers here come from the chosen action, not from
// the simulation; the simulation's own effects arrive inside application.
func actionConsequences(patch types.PatchPlan, action types.PatchAction, app PatchApplication) []types.GameConsequence {
	var out []types.GameConsequence

	switch action {
	case types.ActionApply:
		if app.Success {
			sev := types.SeverityMinor
			if patch.Risk > 0.7 {
				sev = types.SeverityModerate
			}
			out = append(out, meterConsequence(sev, app.Effects,
				"The patch lands. "+patch.Description))
			out = append(out, meterConsequence(types.SeverityMinor,
				types.MeterEffects{Insight: int(math.Floor(patch.Risk * 10))},
				"You learn from what the change touched."))
		} else {
			stab := app.Effects.Stability
			if stab == 0 {
				stab = 10
			}
			out = append(out, meterConsequence(types.SeverityMajor,
				types.MeterEffects{
					Stability: -abs(stab),
					Insight:   int(float64(app.Effects.Insight) * 0.3),
				},
				"The patch fails. The system shudders."))
		}
	case types.ActionRefactor:
		out = append(out, meterConsequence(types.SeverityModerate,
			types.MeterEffects{
				Stability: int(math.Round(float64(patch.Effects.Stability) * 1.2)),
				Insight:   int(math.Round(float64(patch.Effects.Insight) * 1.5)),
			},
			"You restructure instead of patching over."))
		out = append(out, meterConsequence(types.SeverityMinor,
			types.MeterEffects{Insight: 20},
			"The architecture becomes legible."))
	case types.ActionQuestion:
		out = append(out, meterConsequence(types.SeverityMinor,
			types.MeterEffects{Insight: int(math.Floor(15 + patch.Risk*10))},
			"You interrogate the patch before trusting it."))
		out = append(out, meterConsequence(types.SeverityMinor,
			types.MeterEffects{Insight: 5},
			"Doubt, applied carefully, is a tool."))
	case types.ActionReject:
		out = append(out, meterConsequence(types.SeverityMinor,
			types.MeterEffects{Stability: -2, Insight: 3},
			"You walk away from the change. The ghost lingers."))
	}

	if action == types.ActionApply && patch.Risk > 0.8 {
		out = append(out, meterConsequence(types.SeverityModerate,
			types.MeterEffects{Stability: -3, Insight: 8},
			"High-risk change survived. Barely."))
	}
	return out
}

func meterConsequence(sev types.Severity, effects types.MeterEffects, desc string) types.GameConsequence {
	return types.GameConsequence{
		Kind:        types.ConsequenceMeterChange,
		Severity:    sev,
		Description: desc,
		Payload:     types.MeterChangePayload{Effects: effects},
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
