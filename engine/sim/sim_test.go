package sim

import (
	"reflect"
	"strings"
	"testing"

	"github.com/tsellier/ghostpatch/types"
)

// testContext builds a simulation context with sensible defaults.
func testContext(diff string, risk float64, smell types.Smell) Context {
	return Context{
		Patch: types.PatchPlan{
			ID:   "patch-1",
			Diff: diff,
			Risk: risk,
		},
		Ghost: types.Ghost{
			ID:       "ghost-1",
			Smell:    smell,
			Severity: 5,
		},
		PlayerSkill:    0.5,
		RoomComplexity: 0.3,
		SystemLoad:     0.2,
	}
}

const safeDiff = `--- a/cache.js
+++ b/cache.js
+function release(handle) {
+  handle.close()
+  registry.delete(handle.id)
+}
-function release(handle) {
-  registry.delete(handle.id)
-}
`

const dangerousDiff = `+++ b/hack.js
+const result = eval(userInput)
+el.innerHTML = result
+while (true) {
+  if (maybe) {
+    for (i = 0; i < n; i++) {
+      fetch("http://example.com/" + i)
+    }
+  }
+}
`

func TestCompilationDeterminism(t *testing.T) {
	s := New()
	ctx := testContext(safeDiff, 0.4, types.SmellMemoryLeak)

	first := s.GenerateCompilationOutput(ctx)
	for i := 0; i < 5; i++ {
		got := s.GenerateCompilationOutput(ctx)
		if !reflect.DeepEqual(first, got) {
			t.Fatalf("run %d differs: %+v vs %+v", i, first, got)
		}
	}
}

func TestPerformanceAndQualityDeterminism(t *testing.T) {
	s := New()
	ctx := testContext(dangerousDiff, 0.7, types.SmellRaceCondition)

	p1 := s.SimulatePerformanceImpact(ctx)
	p2 := s.SimulatePerformanceImpact(ctx)
	if !reflect.DeepEqual(p1, p2) {
		t.Errorf("performance not deterministic: %+v vs %+v", p1, p2)
	}

	q1 := s.CalculateCodeQuality(ctx)
	q2 := s.CalculateCodeQuality(ctx)
	if !reflect.DeepEqual(q1, q2) {
		t.Errorf("quality not deterministic: %+v vs %+v", q1, q2)
	}
}

func TestCompilationInvariants(t *testing.T) {
	s := New()
	cases := []struct {
		name  string
		diff  string
		risk  float64
		smell types.Smell
	}{
		{"safe low risk", safeDiff, 0.1, types.SmellMemoryLeak},
		{"dangerous high risk", dangerousDiff, 0.9, types.SmellRaceCondition},
		{"empty diff", "", 0.5, types.SmellDeadCode},
		{"malformed diff", "not a diff at all", 0.5, types.SmellGodObject},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out := s.GenerateCompilationOutput(testContext(tc.diff, tc.risk, tc.smell))

			if out.DurationMS < 100 {
				t.Errorf("duration %.1fms below the 100ms floor", out.DurationMS)
			}
			if out.MemoryMB <= 0 {
				t.Errorf("memory %.1f not positive", out.MemoryMB)
			}
			if out.ExitCode == 0 && len(out.Errors) > 0 {
				t.Errorf("success with %d errors", len(out.Errors))
			}
			if out.ExitCode != 0 && len(out.Errors) == 0 {
				t.Error("failure without synthetic errors")
			}
		})
	}
}

func TestCompileWarningSelection(t *testing.T) {
	s := New()

	// risk > 0.6 must produce the null-deref warning.
	out := s.GenerateCompilationOutput(testContext(safeDiff, 0.7, types.SmellMemoryLeak))
	if !hasWarning(out.Warnings, "W1201") {
		t.Error("risk > 0.6 did not produce null-deref warning")
	}

	// circular_dependency ghosts must produce the dependency warning.
	out = s.GenerateCompilationOutput(testContext(safeDiff, 0.1, types.SmellCircularDependency))
	if !hasWarning(out.Warnings, "W1102") {
		t.Error("circular dependency ghost did not produce dependency warning")
	}

	// Low risk, plain diff, neutral ghost: neither fires.
	out = s.GenerateCompilationOutput(testContext("+x := 1\n", 0.1, types.SmellMagicNumbers))
	if hasWarning(out.Warnings, "W1201") || hasWarning(out.Warnings, "W1102") {
		t.Errorf("unexpected warnings for clean low-risk patch: %+v", out.Warnings)
	}
}

func hasWarning(warns []types.CompilerMessage, code string) bool {
	for _, w := range warns {
		if w.Code == code {
			return true
		}
	}
	return false
}

func TestBottleneckDetection(t *testing.T) {
	cases := []struct {
		name     string
		impact   types.PerformanceImpact
		kinds    []string
		severity map[string]types.Severity
	}{
		{
			name:     "hot cpu",
			impact:   types.PerformanceImpact{CPUUsage: 0.85, CacheHitRate: 0.9},
			kinds:    []string{"cpu"},
			severity: map[string]types.Severity{"cpu": types.SeverityMajor},
		},
		{
			name:     "critical cpu",
			impact:   types.PerformanceImpact{CPUUsage: 0.97, CacheHitRate: 0.9},
			kinds:    []string{"cpu"},
			severity: map[string]types.Severity{"cpu": types.SeverityCritical},
		},
		{
			name:   "heavy memory",
			impact: types.PerformanceImpact{CPUUsage: 0.2, MemoryMB: 150, CacheHitRate: 0.9},
			kinds:  []string{"memory"},
		},
		{
			name:   "cold cache and chatty network",
			impact: types.PerformanceImpact{CPUUsage: 0.2, CacheHitRate: 0.3, NetworkCalls: 15},
			kinds:  []string{"cache", "network"},
		},
		{
			name:   "all quiet",
			impact: types.PerformanceImpact{CPUUsage: 0.4, MemoryMB: 50, CacheHitRate: 0.9, NetworkCalls: 2},
			kinds:  nil,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			found := detectBottlenecks(tc.impact)
			var kinds []string
			for _, b := range found {
				kinds = append(kinds, b.Kind)
				if b.Impact < 0 || b.Impact > 1 {
					t.Errorf("bottleneck %s impact %.2f out of [0,1]", b.Kind, b.Impact)
				}
				if want, ok := tc.severity[b.Kind]; ok && b.Severity != want {
					t.Errorf("bottleneck %s severity = %s, want %s", b.Kind, b.Severity, want)
				}
			}
			if !reflect.DeepEqual(kinds, tc.kinds) {
				t.Errorf("kinds = %v, want %v", kinds, tc.kinds)
			}
		})
	}
}

func TestQualityScoresClamped(t *testing.T) {
	s := New()
	for _, risk := range []float64{0, 0.5, 1} {
		for _, diff := range []string{safeDiff, dangerousDiff, "", strings.Repeat("+x\n", 500)} {
			q := s.CalculateCodeQuality(testContext(diff, risk, types.SmellSpaghettiCode))
			for name, score := range map[string]float64{
				"overall":         q.Overall,
				"maintainability": q.Maintainability,
				"readability":     q.Readability,
				"testability":     q.Testability,
				"security":        q.Security,
				"performance":     q.Performance,
			} {
				if score < 0 || score > 1 {
					t.Errorf("risk %.1f: %s score %.3f out of [0,1]", risk, name, score)
				}
			}
		}
	}
}

func TestQualityRuleEngine(t *testing.T) {
	s := New()

	q := s.CalculateCodeQuality(testContext(dangerousDiff, 0.5, types.SmellRaceCondition))
	if !hasIssue(q.Issues, "vulnerability", types.SeverityCritical) {
		t.Error("eval() diff did not raise a critical vulnerability")
	}
	if q.Security >= 1 {
		t.Errorf("security score %.2f untouched by dangerous patterns", q.Security)
	}

	q = s.CalculateCodeQuality(testContext(safeDiff, 0.1, types.SmellMemoryLeak))
	if hasIssue(q.Issues, "vulnerability", "") {
		t.Errorf("safe diff raised a vulnerability: %+v", q.Issues)
	}
}

func TestAddRule(t *testing.T) {
	s := New()
	s.AddRule(QualityRule{
		Name: "always_fires",
		Check: func(an DiffAnalysis, cm types.CodeComplexityMetrics, ctx Context) *types.CodeQualityIssue {
			return &types.CodeQualityIssue{Kind: "reliability", Severity: types.SeverityMinor, Message: "test"}
		},
	})
	q := s.CalculateCodeQuality(testContext(safeDiff, 0.1, types.SmellDeadCode))
	if !hasIssue(q.Issues, "reliability", types.SeverityMinor) {
		t.Error("added rule did not fire")
	}
}

func hasIssue(issues []types.CodeQualityIssue, kind string, sev types.Severity) bool {
	for _, i := range issues {
		if i.Kind == kind && (sev == "" || i.Severity == sev) {
			return true
		}
	}
	return false
}

func TestComplexityCaps(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 60; i++ {
		b.WriteString("+if (a && b || c) {\n")
	}
	an := analyzeDiff(b.String())
	cm := complexityMetrics(an)

	if cm.Cyclomatic > 20 {
		t.Errorf("cyclomatic %d above cap", cm.Cyclomatic)
	}
	if cm.Cognitive > 25 {
		t.Errorf("cognitive %d above cap", cm.Cognitive)
	}
	if cm.NestingDepth > 10 {
		t.Errorf("nesting %d above cap", cm.NestingDepth)
	}
	if cm.DuplicateLines == 0 {
		t.Error("repeated lines not counted as duplicates")
	}
}

func TestAnalyzeDiffEmptyIsNeutral(t *testing.T) {
	an := analyzeDiff("")
	if an.Modified != 0 || an.patternPenalty() != 0 || an.complexityPenalty() != 0 {
		t.Errorf("empty diff not neutral: %+v", an)
	}
}
