package encounter

import (
	"fmt"
	"strings"

	"github.com/tsellier/ghostpatch/engine/compile"
	"github.com/tsellier/ghostpatch/engine/events"
	"github.com/tsellier/ghostpatch/types"
)

// GeneratePatchOptions asks the generator for a primary patch and, best
// effort, one safer alternative. A primary-patch failure is an error; an
// alternative failure only costs the player a second option.
func (o *Orchestrator) GeneratePatchOptions(intent string, ghost types.Ghost) ([]types.PatchOption, error) {
	primary, err := o.generator.GeneratePatch(intent, ghost)
	if err != nil {
		return nil, fmt.Errorf("generating patch for %s: %w", ghost.ID, err)
	}

	options := []types.PatchOption{o.buildOption(primary, ghost)}

	alt, err := o.generator.GenerateAlternative(primary, ghost)
	if err != nil {
		o.log.Debug().Err(err).Str("ghost", ghost.ID).Msg("no alternative patch")
	} else {
		options = append(options, o.buildOption(alt, ghost))
	}

	o.bus.Emit(events.Event{
		Type:   events.PatchGenerated,
		Source: "encounter",
		Data:   map[string]any{"ghost": ghost.ID, "options": len(options)},
	})
	return options, nil
}

func (o *Orchestrator) buildOption(patch types.PatchPlan, ghost types.Ghost) types.PatchOption {
	return types.PatchOption{
		Patch:      patch,
		Confidence: confidence(patch, ghost),
		Risk: types.RiskAssessment{
			OverallRisk: patch.Risk,
			Safety:      compile.SafetyFor(patch.Risk),
		},
	}
}

// confidence estimates how sure the engine is that a patch addresses the
// ghost. Severity and declared risk pull it down; small focused diffs pull
// it up, sprawling ones down. Clamped to [0.1, 1.0].
func confidence(patch types.PatchPlan, ghost types.Ghost) float64 {
	c := 0.7 - float64(ghost.Severity)/20 - patch.Risk*0.3
	if diffLines(patch.Diff) > 30 {
		c -= 0.05
	} else {
		c += 0.05
	}
	if c < 0.1 {
		return 0.1
	}
	if c > 1.0 {
		return 1.0
	}
	return c
}

func diffLines(diff string) int {
	if diff == "" {
		return 0
	}
	return strings.Count(diff, "\n") + 1
}
