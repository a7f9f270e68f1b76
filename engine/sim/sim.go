// Package sim fabricates compilation output, performance metrics, and
// code-quality scores from a patch's diff text — without ever executing
// code. Riskier and more complex patches are statistically more likely
// to fail and incur worse metrics. Every output is a pure function of
// (patch, context): identical inputs replay identically.
package sim

import (
	"github.com/tsellier/ghostpatch/types"
)

// Context is the simulation input for one patch.
type Context struct {
	Patch          types.PatchPlan
	Ghost          types.Ghost
	PlayerSkill    float64 // 0–1
	RoomComplexity float64 // 0–1
	SystemLoad     float64 // 0–1
}

// Simulator synthesizes execution results. It carries no mutable state
// besides its quality rule set, so one instance can serve every encounter.
type Simulator struct {
	rules []QualityRule
}

// New creates a simulator with the default quality rule set.
func New() *Simulator {
	return &Simulator{rules: defaultQualityRules()}
}

// AddRule appends a quality rule. Rules are independently pluggable;
// each inspects the analyzed diff and reports at most one issue.
func (s *Simulator) AddRule(r QualityRule) {
	s.rules = append(s.rules, r)
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

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
