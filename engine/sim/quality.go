package sim

import (
	"strings"

	"github.com/tsellier/ghostpatch/types"
)

// QualityRule inspects the analyzed diff and reports at most one issue.
// Rules are independent: a rule returning nil contributes nothing.
type QualityRule struct {
	Name  string
	Check func(an DiffAnalysis, cm types.CodeComplexityMetrics, ctx Context) *types.CodeQualityIssue
}

// CalculateCodeQuality fabricates a quality report: complexity metrics from
// the diff text, issues from the rule engine, and five sub-scores averaged
// into the overall score. All scores are clamped to [0,1].
func (s *Simulator) CalculateCodeQuality(ctx Context) types.CodeQualityMetrics {
	an := analyzeDiff(ctx.Patch.Diff)
	cm := complexityMetrics(an)

	var issues []types.CodeQualityIssue
	for _, rule := range s.rules {
		if issue := rule.Check(an, cm, ctx); issue != nil {
			issues = append(issues, *issue)
		}
	}

	q := types.CodeQualityMetrics{
		Complexity:      cm,
		Issues:          issues,
		Maintainability: clamp01(1 - float64(cm.Cyclomatic)/40 - float64(cm.DuplicateLines)*0.02 - ctx.Patch.Risk*0.2 + ctx.PlayerSkill*0.05),
		Readability:     clamp01(1 - float64(cm.NestingDepth)*0.08 - float64(cm.Cognitive)/60),
		Testability:     clamp01(1 - float64(cm.Cyclomatic)/30 - float64(cm.NestingDepth)*0.04 - ioPenalty(an)),
		Security:        securityScore(an, ctx),
		Performance:     performanceScore(an, cm),
	}
	q.Overall = (q.Maintainability + q.Readability + q.Testability + q.Security + q.Performance) / 5
	return q
}

// complexityMetrics derives the structural metrics from added lines.
func complexityMetrics(an DiffAnalysis) types.CodeComplexityMetrics {
	var cm types.CodeComplexityMetrics
	cm.Cyclomatic = 1
	depth := 0
	maxDepth := 0
	seen := map[string]int{}

	for _, raw := range an.AddedLines {
		line := strings.ToLower(strings.TrimSpace(raw))

		// Cyclomatic: decision-point counting.
		for _, kw := range []string{"if ", "if(", "for ", "for(", "while ", "while(", "case ", "catch", "&&", "||", "?"} {
			cm.Cyclomatic += strings.Count(line, kw)
		}

		// Cognitive: decisions weigh more the deeper they nest.
		if strings.Contains(line, "if") || strings.Contains(line, "for") ||
			strings.Contains(line, "while") || strings.Contains(line, "switch") {
			cm.Cognitive += 1 + depth
		}

		// Nesting via brace balance.
		depth += strings.Count(line, "{") - strings.Count(line, "}")
		if depth < 0 {
			depth = 0
		}
		if depth > maxDepth {
			maxDepth = depth
		}

		// Duplicate-line counting over substantive lines.
		if len(line) > 5 {
			seen[line]++
		}
	}

	for _, n := range seen {
		if n > 1 {
			cm.DuplicateLines += n - 1
		}
	}

	if cm.Cyclomatic > 20 {
		cm.Cyclomatic = 20
	}
	if cm.Cognitive > 25 {
		cm.Cognitive = 25
	}
	cm.NestingDepth = maxDepth
	if cm.NestingDepth > 10 {
		cm.NestingDepth = 10
	}
	return cm
}

func ioPenalty(an DiffAnalysis) float64 {
	if an.HasNetwork || an.HasDatabase {
		return 0.15
	}
	return 0
}

func securityScore(an DiffAnalysis, ctx Context) float64 {
	score := 1.0
	if an.HasEval {
		score -= 0.4
	}
	if an.HasInnerHTML {
		score -= 0.25
	}
	if an.HasSecret {
		score -= 0.2
	}
	score -= ctx.Patch.Risk * 0.15
	return clamp01(score)
}

func performanceScore(an DiffAnalysis, cm types.CodeComplexityMetrics) float64 {
	score := 1.0
	if an.HasLoops && cm.NestingDepth > 2 {
		score -= 0.25
	}
	if an.HasNetwork {
		score -= 0.1
	}
	if an.HasDisk || an.HasDatabase {
		score -= 0.1
	}
	score -= float64(cm.Cognitive) / 100
	return clamp01(score)
}

// defaultQualityRules is the built-in rule set: one rule per quality
// dimension, each independently pluggable.
func defaultQualityRules() []QualityRule {
	return []QualityRule{
		{
			Name: "high_cyclomatic_complexity",
			Check: func(an DiffAnalysis, cm types.CodeComplexityMetrics, ctx Context) *types.CodeQualityIssue {
				if cm.Cyclomatic > 15 {
					return &types.CodeQualityIssue{
						Kind:     "complexity",
						Severity: types.SeverityMajor,
						Message:  "patched code has very high cyclomatic complexity",
					}
				}
				return nil
			},
		},
		{
			Name: "high_cognitive_load",
			Check: func(an DiffAnalysis, cm types.CodeComplexityMetrics, ctx Context) *types.CodeQualityIssue {
				if cm.Cognitive > 20 {
					return &types.CodeQualityIssue{
						Kind:     "complexity",
						Severity: types.SeverityModerate,
						Message:  "patched code is hard to follow",
					}
				}
				return nil
			},
		},
		{
			Name: "dynamic_evaluation",
			Check: func(an DiffAnalysis, cm types.CodeComplexityMetrics, ctx Context) *types.CodeQualityIssue {
				if an.HasEval {
					return &types.CodeQualityIssue{
						Kind:     "vulnerability",
						Severity: types.SeverityCritical,
						Message:  "patch introduces dynamic code evaluation",
					}
				}
				return nil
			},
		},
		{
			Name: "raw_markup_injection",
			Check: func(an DiffAnalysis, cm types.CodeComplexityMetrics, ctx Context) *types.CodeQualityIssue {
				if an.HasInnerHTML {
					return &types.CodeQualityIssue{
						Kind:     "vulnerability",
						Severity: types.SeverityMajor,
						Message:  "patch writes raw markup without sanitization",
					}
				}
				return nil
			},
		},
		{
			Name: "hardcoded_secret",
			Check: func(an DiffAnalysis, cm types.CodeComplexityMetrics, ctx Context) *types.CodeQualityIssue {
				if an.HasSecret {
					return &types.CodeQualityIssue{
						Kind:     "vulnerability",
						Severity: types.SeverityMajor,
						Message:  "patch embeds a credential in source",
					}
				}
				return nil
			},
		},
		{
			Name: "duplicated_lines",
			Check: func(an DiffAnalysis, cm types.CodeComplexityMetrics, ctx Context) *types.CodeQualityIssue {
				if cm.DuplicateLines > 8 {
					return &types.CodeQualityIssue{
						Kind:     "maintainability",
						Severity: types.SeverityModerate,
						Message:  "patch copies the same lines repeatedly",
					}
				}
				return nil
			},
		},
		{
			Name: "nested_loops",
			Check: func(an DiffAnalysis, cm types.CodeComplexityMetrics, ctx Context) *types.CodeQualityIssue {
				if an.HasLoops && cm.NestingDepth > 3 {
					return &types.CodeQualityIssue{
						Kind:     "performance",
						Severity: types.SeverityModerate,
						Message:  "deeply nested loops in patched code",
					}
				}
				return nil
			},
		},
		{
			Name: "possible_undefined_reference",
			Check: func(an DiffAnalysis, cm types.CodeComplexityMetrics, ctx Context) *types.CodeQualityIssue {
				if an.HasUndefined {
					return &types.CodeQualityIssue{
						Kind:     "reliability",
						Severity: types.SeverityMajor,
						Message:  "patched code may dereference an undefined value",
					}
				}
				return nil
			},
		},
	}
}
