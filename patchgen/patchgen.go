// Package patchgen generates patch plans from a ghost's fix patterns and
// applies them through the simulation pipeline. It is the in-process
// implementation of the patch-generation collaborator the encounter
// orchestrator talks to.
package patchgen

import (
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/tsellier/ghostpatch/engine/compile"
	"github.com/tsellier/ghostpatch/engine/encounter"
	"github.com/tsellier/ghostpatch/engine/sim"
	"github.com/tsellier/ghostpatch/types"
)

// Generator turns fix patterns into concrete patch plans and remembers
// which ghost each plan targets so application can rebuild the simulation
// context.
type Generator struct {
	mu    sync.Mutex
	seq   int
	plans map[string]planRecord

	processor *compile.Processor
	log       zerolog.Logger

	// Simulation context knobs, set by the engine from game state.
	PlayerSkill    float64
	RoomComplexity float64
	SystemLoad     float64
}

type planRecord struct {
	plan  types.PatchPlan
	ghost types.Ghost
}

func NewGenerator(processor *compile.Processor, log zerolog.Logger) *Generator {
	return &Generator{
		plans:       map[string]planRecord{},
		processor:   processor,
		log:         log.With().Str("component", "patchgen").Logger(),
		PlayerSkill: 0.5,
	}
}

// GeneratePatch builds a plan from the fix pattern best matching the
// player's stated intent. Without a match it falls back to the ghost's
// lowest-risk pattern.
func (g *Generator) GeneratePatch(intent string, ghost types.Ghost) (types.PatchPlan, error) {
	if len(ghost.FixPatterns) == 0 {
		return types.PatchPlan{}, fmt.Errorf("ghost %s has no fix patterns", ghost.ID)
	}

	pattern := matchPattern(intent, ghost.FixPatterns)
	plan := g.planFromPattern(pattern, ghost)
	g.remember(plan, ghost)
	return plan, nil
}

// GenerateAlternative produces a more conservative option: a different,
// lower-risk fix pattern when the ghost has one, otherwise a cautious
// variant of the original at reduced risk and effect.
func (g *Generator) GenerateAlternative(patch types.PatchPlan, ghost types.Ghost) (types.PatchPlan, error) {
	g.mu.Lock()
	rec, known := g.plans[patch.ID]
	g.mu.Unlock()
	if !known {
		return types.PatchPlan{}, fmt.Errorf("unknown patch %s", patch.ID)
	}

	if alt, ok := lowerRiskPattern(patch, ghost.FixPatterns); ok {
		plan := g.planFromPattern(alt, ghost)
		g.remember(plan, ghost)
		return plan, nil
	}

	plan := types.PatchPlan{
		Diff:        patch.Diff,
		Description: patch.Description + " (conservative variant)",
		Risk:        patch.Risk * 0.6,
		Effects: types.MeterEffects{
			Stability: int(math.Round(float64(patch.Effects.Stability) * 0.7)),
			Insight:   patch.Effects.Insight,
		},
		GhostResponse: rec.ghost.Name + " eyes the smaller change warily.",
	}
	g.assignID(&plan)
	g.remember(plan, ghost)
	return plan, nil
}

// ApplyPatch runs the chosen action. Apply and refactor go through the
// full simulation pipeline; question and reject never touch the code and
// always succeed.
func (g *Generator) ApplyPatch(plan types.PatchPlan, action types.PatchAction) (encounter.PatchApplication, error) {
	g.mu.Lock()
	rec, known := g.plans[plan.ID]
	g.mu.Unlock()
	if !known {
		return encounter.PatchApplication{}, fmt.Errorf("unknown patch %s", plan.ID)
	}

	switch action {
	case types.ActionQuestion:
		return encounter.PatchApplication{
			Success:  true,
			Feedback: "You set the patch aside and turn back to the ghost.",
		}, nil
	case types.ActionReject:
		return encounter.PatchApplication{
			Success:  true,
			Feedback: "You discard the patch unapplied.",
		}, nil
	}

	ctx := sim.Context{
		Patch:          rec.plan,
		Ghost:          rec.ghost,
		PlayerSkill:    g.PlayerSkill,
		RoomComplexity: g.RoomComplexity,
		SystemLoad:     g.SystemLoad,
	}
	result := g.processor.ExecutePatches(ctx)

	g.log.Debug().Str("patch", plan.ID).Str("action", string(action)).
		Bool("success", result.Success).Msg("patch applied")

	feedback := result.Dialogue
	if feedback == "" {
		feedback = "The build goes green. " + rec.ghost.Name + " seems diminished."
	}
	return encounter.PatchApplication{
		Success:  result.Success,
		Effects:  result.Effects,
		Events:   result.Events,
		Feedback: feedback,
	}, nil
}

func (g *Generator) planFromPattern(p types.FixPattern, ghost types.Ghost) types.PatchPlan {
	plan := types.PatchPlan{
		Diff:        p.Diff,
		Description: p.Description,
		Risk:        p.Risk,
		Effects: types.MeterEffects{
			Stability: p.Stability,
			Insight:   p.Insight,
		},
		GhostResponse: ghostResponse(ghost, p),
	}
	g.assignID(&plan)
	return plan
}

func (g *Generator) assignID(plan *types.PatchPlan) {
	g.mu.Lock()
	g.seq++
	plan.ID = fmt.Sprintf("patch-%d", g.seq)
	g.mu.Unlock()
}

func (g *Generator) remember(plan types.PatchPlan, ghost types.Ghost) {
	g.mu.Lock()
	g.plans[plan.ID] = planRecord{plan: plan, ghost: ghost}
	g.mu.Unlock()
}

// matchPattern scores fix patterns against the intent text and returns
// the best match, falling back to the lowest-risk pattern.
func matchPattern(intent string, patterns []types.FixPattern) types.FixPattern {
	lowered := strings.ToLower(intent)
	best := -1
	bestScore := 0
	for i, p := range patterns {
		score := 0
		for _, word := range strings.Fields(strings.ToLower(p.Description)) {
			if len(word) >= 4 && strings.Contains(lowered, word) {
				score++
			}
		}
		if strings.Contains(lowered, strings.ToLower(p.ID)) {
			score += 2
		}
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	if best >= 0 {
		return patterns[best]
	}

	lowest := patterns[0]
	for _, p := range patterns[1:] {
		if p.Risk < lowest.Risk {
			lowest = p
		}
	}
	return lowest
}

// lowerRiskPattern finds a pattern strictly safer than the given patch.
func lowerRiskPattern(patch types.PatchPlan, patterns []types.FixPattern) (types.FixPattern, bool) {
	var best types.FixPattern
	found := false
	for _, p := range patterns {
		if p.Diff == patch.Diff {
			continue
		}
		if p.Risk >= patch.Risk {
			continue
		}
		if !found || p.Risk < best.Risk {
			best = p
			found = true
		}
	}
	return best, found
}

func ghostResponse(ghost types.Ghost, p types.FixPattern) string {
	if p.Risk > 0.6 {
		return fmt.Sprintf("%s recoils. \"That would tear me apart.\"", ghost.Name)
	}
	return fmt.Sprintf("%s watches the diff scroll past, unreadable.", ghost.Name)
}
