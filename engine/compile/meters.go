package compile

import (
	"math"

	"github.com/tsellier/ghostpatch/types"
)

// ghostMultiplier scales the final meter deltas by ghost personality.
type ghostMultiplier struct {
	stability float64
	insight   float64
}

// Ghost-type multiplier table. The circular_dependency stability multiplier
// is negative on purpose: patching a dependency cycle inverts the stability
// delta's sign.
var ghostMultipliers = map[types.Smell]ghostMultiplier{
	types.SmellCircularDependency: {stability: -1.2, insight: 1.1},
	types.SmellMemoryLeak:         {stability: 1.1, insight: 1.0},
	types.SmellRaceCondition:      {stability: 0.9, insight: 1.3},
	types.SmellGodObject:          {stability: 1.0, insight: 1.2},
	types.SmellSpaghettiCode:      {stability: 0.8, insight: 1.15},
	types.SmellDeadCode:           {stability: 1.05, insight: 0.9},
	types.SmellMagicNumbers:       {stability: 1.0, insight: 1.0},
	types.SmellCopyPaste:          {stability: 0.95, insight: 1.05},
}

// CalculateEffectsFromResults aggregates the final meter delta for a patch.
// The ordering is a preserved design decision: every additive adjustment
// first, then the multiplicative ghost personality scaling applied last,
// then rounding to integers.
func CalculateEffectsFromResults(patch types.PatchPlan, results types.ExecutionResults,
	ghost types.Ghost) types.MeterEffects {

	stability := float64(patch.Effects.Stability)
	insight := float64(patch.Effects.Insight)

	if results.OverallSuccess {
		stability += 5
		insight += 2
	} else {
		stability -= 5
	}

	q := results.Quality.Overall
	stability += math.Round((q - 0.5) * 10)
	insight += math.Max(1, math.Round(q*3))

	if results.Performance.CPUUsage > 0.8 {
		stability -= 3
	}
	if results.Performance.MemoryMB > 50 {
		stability -= 2
	}

	stability -= math.Round(results.Risk.OverallRisk * 8)

	m, ok := ghostMultipliers[ghost.Smell]
	if !ok {
		m = ghostMultiplier{stability: 1, insight: 1}
	}

	desc := patch.Effects.Description
	if desc == "" {
		desc = "Consequences of " + patch.Description
	}

	return types.MeterEffects{
		Stability:   int(math.Round(stability * m.stability)),
		Insight:     int(math.Round(insight * m.insight)),
		Description: desc,
	}
}
