package sim

import (
	"fmt"

	"github.com/tsellier/ghostpatch/types"
)

// Canned compiler messages, selected by risk thresholds and detected patterns.
var (
	errorMessages = []struct {
		code string
		text string
	}{
		{"E1001", "cannot resolve symbol introduced by patch"},
		{"E1002", "type mismatch in patched expression"},
		{"E1003", "unreachable code after patched return"},
		{"E1004", "cyclic import introduced by patched module"},
		{"E1005", "missing declaration for patched identifier"},
	}

	fatalMessage = struct {
		code string
		text string
	}{"E9001", "internal compiler error while linking patched unit"}
)

// GenerateCompilationOutput fabricates a compiler run for the patch.
// Success is decided by the diff-seeded deterministic stream against
// successRate = clamp(1 − risk·0.8 − complexityPenalty − patternPenalty,
// 0.1, 0.95), so identical patches yield identical outcomes.
func (s *Simulator) GenerateCompilationOutput(ctx Context) types.CompilationOutput {
	an := analyzeDiff(ctx.Patch.Diff)
	rng := newPRNG(ctx.Patch.Diff, "compile")

	successRate := clamp(1-ctx.Patch.Risk*0.8-an.complexityPenalty()-an.patternPenalty(), 0.1, 0.95)
	success := rng.next() < successRate

	out := types.CompilationOutput{
		Warnings: compileWarnings(ctx, an),
	}

	// Execution time and memory are linear in modified lines, complexity,
	// risk, and system load, plus bounded jitter. Time floors at 100ms.
	out.DurationMS = 60 + 9*float64(an.Modified) + 300*an.complexityPenalty() +
		120*ctx.Patch.Risk + 200*ctx.SystemLoad + 150*ctx.RoomComplexity + rng.jitter(40)
	if out.DurationMS < 100 {
		out.DurationMS = 100
	}
	out.MemoryMB = 8 + 0.35*float64(an.Modified) + 20*ctx.Patch.Risk +
		10*ctx.SystemLoad + rng.jitter(6)

	if success {
		out.ExitCode = 0
		out.Stdout = fmt.Sprintf("compiled %d changed lines in %.0fms (%d warnings)",
			an.Modified, out.DurationMS, len(out.Warnings))
		return out
	}

	// Failure: at least one synthetic error; riskier patches emit more.
	count := 1 + rng.intn(1+int(ctx.Patch.Risk*2.99))
	maxLine := an.Added
	if maxLine < 1 {
		maxLine = 1
	}
	for i := 0; i < count; i++ {
		msg := errorMessages[rng.intn(len(errorMessages))]
		if an.HasEval && i == 0 {
			// Dangerous dynamic evaluation always surfaces as the lead error.
			msg = fatalMessage
		}
		sev := "error"
		if msg.code == fatalMessage.code {
			sev = "fatal"
		}
		out.Errors = append(out.Errors, types.CompilerMessage{
			Line:     1 + rng.intn(maxLine),
			Column:   1 + rng.intn(80),
			Severity: sev,
			Code:     msg.code,
			Message:  msg.text,
		})
	}

	out.ExitCode = 1
	out.Stderr = fmt.Sprintf("compilation failed with %d error(s)", len(out.Errors))
	return out
}

// compileWarnings selects canned warnings by risk thresholds and patterns.
func compileWarnings(ctx Context, an DiffAnalysis) []types.CompilerMessage {
	var warns []types.CompilerMessage

	add := func(code, msg string) {
		warns = append(warns, types.CompilerMessage{
			Line: 1, Column: 1, Severity: "warning", Code: code, Message: msg,
		})
	}

	if ctx.Patch.Risk > 0.6 {
		add("W1201", "possible null dereference in patched path")
	}
	if ctx.Ghost.Smell == types.SmellCircularDependency {
		add("W1102", "module dependency chain grows with this patch")
	}
	if an.HasLoops && ctx.Patch.Risk > 0.4 {
		add("W1310", "loop bounds depend on unvalidated input")
	}
	if an.HasNetwork {
		add("W1405", "network call result is not checked for errors")
	}
	if an.HasUndefined {
		add("W1502", "reference may be undefined at runtime")
	}
	return warns
}
