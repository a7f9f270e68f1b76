package compile

import (
	"fmt"

	"github.com/tsellier/ghostpatch/types"
)

// SafetyFor maps an overall risk value to its safety band. Pure function of
// the risk value; re-derivable at any boundary. Thresholds are fixed at
// 0.3 / 0.6 / 0.8.
func SafetyFor(risk float64) types.Safety {
	switch {
	case risk >= 0.8:
		return types.SafetyDanger
	case risk >= 0.6:
		return types.SafetyWarning
	case risk >= 0.3:
		return types.SafetyCaution
	default:
		return types.SafetySafe
	}
}

// AssessOverallRisk aggregates every risk contribution for one patch
// application. Risk starts from the patch's declared risk and only grows
// via additive penalties; the result is clamped to [0,1].
func AssessOverallRisk(patch types.PatchPlan, comp types.CompilationOutput,
	perf types.PerformanceImpact, qual types.CodeQualityMetrics) types.RiskAssessment {

	overall := patch.Risk
	var factors []types.RiskFactor

	if n := len(comp.Errors); n > 0 {
		sev := types.SeverityMajor
		for _, e := range comp.Errors {
			if e.Severity == "fatal" {
				sev = types.SeverityCritical
				break
			}
		}
		impact := 0.15 * float64(n)
		overall += impact
		factors = append(factors, types.RiskFactor{
			Kind:        "compilation",
			Severity:    sev,
			Description: fmt.Sprintf("%d compilation error(s)", n),
			Impact:      impact,
		})
	}

	if perf.CPUUsage > 0.8 {
		overall += 0.2
		factors = append(factors, types.RiskFactor{
			Kind:        "performance",
			Severity:    types.SeverityModerate,
			Description: fmt.Sprintf("cpu usage at %.0f%%", perf.CPUUsage*100),
			Impact:      0.2,
		})
	}
	if perf.MemoryMB > 50 {
		overall += 0.1
		factors = append(factors, types.RiskFactor{
			Kind:        "performance",
			Severity:    types.SeverityMinor,
			Description: fmt.Sprintf("memory footprint %.0fMB", perf.MemoryMB),
			Impact:      0.1,
		})
	}

	if qual.Security < 0.5 {
		sev := types.SeverityMajor
		if qual.Security < 0.3 {
			sev = types.SeverityCritical
		}
		impact := (1 - qual.Security) * 0.3
		overall += impact
		factors = append(factors, types.RiskFactor{
			Kind:        "security",
			Severity:    sev,
			Description: fmt.Sprintf("security score %.2f", qual.Security),
			Impact:      impact,
		})
	}

	if qual.Complexity.Cyclomatic > 15 {
		overall += 0.1
		factors = append(factors, types.RiskFactor{
			Kind:        "complexity",
			Severity:    types.SeverityMinor,
			Description: fmt.Sprintf("cyclomatic complexity %d", qual.Complexity.Cyclomatic),
			Impact:      0.1,
		})
	}

	for _, b := range perf.Bottlenecks {
		if b.Severity != types.SeverityMajor && b.Severity != types.SeverityCritical {
			continue
		}
		impact := b.Impact * 0.15
		overall += impact
		factors = append(factors, types.RiskFactor{
			Kind:        "performance",
			Severity:    b.Severity,
			Description: fmt.Sprintf("%s bottleneck", b.Kind),
			Impact:      impact,
		})
	}

	if overall > 1 {
		overall = 1
	}
	if overall < 0 {
		overall = 0
	}

	return types.RiskAssessment{
		OverallRisk:     overall,
		Factors:         factors,
		Recommendations: recommendations(overall, factors),
		Safety:          SafetyFor(overall),
	}
}

// recommendations is a simple rule lookup per risk band and factor kind.
func recommendations(overall float64, factors []types.RiskFactor) []string {
	var recs []string

	switch SafetyFor(overall) {
	case types.SafetyDanger:
		recs = append(recs, "do not apply without a rollback plan")
	case types.SafetyWarning:
		recs = append(recs, "apply only after reviewing the flagged factors")
	case types.SafetyCaution:
		recs = append(recs, "acceptable, but keep an eye on the meters")
	}

	seen := map[string]bool{}
	for _, f := range factors {
		if seen[f.Kind] {
			continue
		}
		seen[f.Kind] = true
		switch f.Kind {
		case "security":
			recs = append(recs, "remove dynamic evaluation and sanitize inputs before applying")
		case "performance":
			recs = append(recs, "consider a lighter-weight variant of this patch")
		case "complexity":
			recs = append(recs, "split the change into smaller patches")
		}
	}

	if len(recs) == 0 {
		recs = append(recs, "patch appears safe")
	}
	return recs
}
