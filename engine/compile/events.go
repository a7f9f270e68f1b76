package compile

import (
	"fmt"

	"github.com/tsellier/ghostpatch/types"
)

// GenerateCompileEventsFromResults translates execution results into
// narrative compile events: one success/failure event, one event per
// compiler warning, performance events above fixed thresholds, and a
// security-violation event for every vulnerability finding.
func GenerateCompileEventsFromResults(results types.ExecutionResults) []types.CompileEvent {
	var events []types.CompileEvent

	if results.Compilation.ExitCode == 0 {
		events = append(events, types.CompileEvent{
			Kind:    types.CompileSuccess,
			Message: "The build light flickers green. The ghost recoils.",
		})
	} else {
		events = append(events, types.CompileEvent{
			Kind: types.CompileFailure,
			Message: fmt.Sprintf("The build collapses with %d error(s). The ghost grins.",
				len(results.Compilation.Errors)),
		})
	}

	for _, w := range results.Compilation.Warnings {
		events = append(events, types.CompileEvent{
			Kind:    types.CompileWarning,
			Message: fmt.Sprintf("A warning scrolls past: %s (%s)", w.Message, w.Code),
		})
	}

	if results.Performance.CPUUsage > 0.7 {
		events = append(events, types.CompileEvent{
			Kind: types.CompilePerformance,
			Message: fmt.Sprintf("The fans spin up — cpu at %.0f%%.",
				results.Performance.CPUUsage*100),
		})
	}
	if results.Performance.MemoryMB > 20 {
		events = append(events, types.CompileEvent{
			Kind: types.CompilePerformance,
			Message: fmt.Sprintf("Memory creeps up to %.0fMB.",
				results.Performance.MemoryMB),
		})
	}

	for _, issue := range results.Quality.Issues {
		if issue.Kind != "vulnerability" {
			continue
		}
		penalty := -8
		if issue.Severity == types.SeverityCritical {
			penalty = -15
		}
		events = append(events, types.CompileEvent{
			Kind:    types.CompileSecurityViolation,
			Message: "Security violation: " + issue.Message,
			Effects: types.MeterEffects{Stability: penalty},
		})
	}

	return events
}

// failureDialogue picks in-fiction feedback for a failed execution by a
// fixed priority list: security issues, then compile failure, then
// danger-level risk, then cpu overload, then generic disappointment.
// A failed patch always yields narrative content, never a raw error.
func failureDialogue(results types.ExecutionResults) string {
	for _, issue := range results.Quality.Issues {
		if issue.Kind == "vulnerability" {
			return "\"You left a door open,\" the ghost whispers. \"Wider than the one I came through.\""
		}
	}
	if results.Compilation.ExitCode != 0 {
		return "\"It doesn't even build,\" the ghost laughs, pointing at the scrolling errors."
	}
	if results.Risk.Safety == types.SafetyDanger {
		return "\"Reckless,\" the ghost murmurs. \"This will haunt you worse than I do.\""
	}
	if results.Performance.CPUUsage > 0.8 {
		return "The ghost watches the fans howl. \"You traded me for a furnace.\""
	}
	return "The ghost shakes its head slowly. \"Not good enough. Try again.\""
}
