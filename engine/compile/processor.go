// Package compile turns simulator output into a pass/fail verdict, a risk
// assessment, meter-effect deltas, narrative compile events, and typed game
// consequences. ExecutePatches is the fail-closed public entry point: a
// simulation bug yields a fixed penalty result, never a crash.
package compile

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/tsellier/ghostpatch/engine/sim"
	"github.com/tsellier/ghostpatch/types"
)

// Processor orchestrates the simulator for one patch application.
type Processor struct {
	sim *sim.Simulator
	log zerolog.Logger
}

// New creates a processor around the given simulator.
func New(s *sim.Simulator, log zerolog.Logger) *Processor {
	return &Processor{
		sim: s,
		log: log.With().Str("component", "compile").Logger(),
	}
}

// GenerateExecutionResults runs the simulator's three analyses concurrently
// (they share no state and have no ordering dependency), then assesses risk
// and decides overall success. All three gates are required: a failing exit
// code, a risk at or above 0.8, or a quality score at or below 0.3 each veto
// success regardless of the others.
func (p *Processor) GenerateExecutionResults(ctx sim.Context) types.ExecutionResults {
	var (
		wg     sync.WaitGroup
		comp   types.CompilationOutput
		perf   types.PerformanceImpact
		qual   types.CodeQualityMetrics
		panics [3]any
	)

	// Each analysis recovers in its own goroutine and re-panics on the
	// caller's side, so ExecutePatches' fail-closed recover still applies.
	run := func(i int, f func()) {
		defer wg.Done()
		defer func() { panics[i] = recover() }()
		f()
	}

	wg.Add(3)
	go run(0, func() { comp = p.sim.GenerateCompilationOutput(ctx) })
	go run(1, func() { perf = p.sim.SimulatePerformanceImpact(ctx) })
	go run(2, func() { qual = p.sim.CalculateCodeQuality(ctx) })
	wg.Wait()

	for _, r := range panics {
		if r != nil {
			panic(r)
		}
	}

	risk := AssessOverallRisk(ctx.Patch, comp, perf, qual)

	return types.ExecutionResults{
		Compilation:    comp,
		Performance:    perf,
		Quality:        qual,
		Risk:           risk,
		OverallSuccess: successGate(comp.ExitCode, risk.OverallRisk, qual.Overall),
	}
}

// successGate is the three-way conjunction deciding overall success.
// Each conjunct vetoes success independently of the other two.
func successGate(exitCode int, overallRisk, qualityScore float64) bool {
	return exitCode == 0 && overallRisk < 0.8 && qualityScore > 0.3
}

// SimulateCompilation exposes the compilation analysis alone, for harnesses
// and fixtures that don't need the full pipeline.
func (p *Processor) SimulateCompilation(ctx sim.Context) types.CompilationOutput {
	return p.sim.GenerateCompilationOutput(ctx)
}

// ExecutePatches runs the whole pipeline for one patch. On any internal
// failure it returns the fixed fallback result (−10 stability, +2 insight,
// one Error compile event) instead of propagating — a simulation bug must
// never crash an encounter.
func (p *Processor) ExecutePatches(ctx sim.Context) (result types.PatchResult) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error().Any("panic", r).Str("patch", ctx.Patch.ID).
				Msg("patch execution failed, returning fallback result")
			result = fallbackResult()
		}
	}()

	results := p.GenerateExecutionResults(ctx)
	effects := CalculateEffectsFromResults(ctx.Patch, results, ctx.Ghost)
	events := GenerateCompileEventsFromResults(results)

	result = types.PatchResult{
		Success: results.OverallSuccess,
		Effects: effects,
		Events:  events,
		Results: &results,
	}
	if !results.OverallSuccess {
		result.Dialogue = failureDialogue(results)
	}
	return result
}

// fallbackResult is the fail-closed contract of ExecutePatches.
func fallbackResult() types.PatchResult {
	return types.PatchResult{
		Success: false,
		Effects: types.MeterEffects{
			Stability:   -10,
			Insight:     2,
			Description: "The patch backfired in an unexpected way.",
		},
		Events: []types.CompileEvent{{
			Kind:    types.CompileError,
			Message: "The compiler output dissolves into static.",
		}},
		Dialogue: "The ghost flickers, unreadable. Something went wrong deep in the machine.",
	}
}
