package sim

import "github.com/tsellier/ghostpatch/types"

// performanceProfile is the per-smell baseline the patch layers on top of.
type performanceProfile struct {
	baseCPU     float64 // 0–1
	baseMemMB   float64
	networkMult float64
	ioMult      float64
}

var performanceProfiles = map[types.Smell]performanceProfile{
	types.SmellCircularDependency: {baseCPU: 0.55, baseMemMB: 60, networkMult: 1.0, ioMult: 1.0},
	types.SmellMemoryLeak:         {baseCPU: 0.45, baseMemMB: 120, networkMult: 1.0, ioMult: 1.1},
	types.SmellRaceCondition:      {baseCPU: 0.75, baseMemMB: 40, networkMult: 1.2, ioMult: 1.0},
	types.SmellGodObject:          {baseCPU: 0.65, baseMemMB: 90, networkMult: 1.0, ioMult: 1.2},
	types.SmellSpaghettiCode:      {baseCPU: 0.60, baseMemMB: 50, networkMult: 1.1, ioMult: 1.1},
	types.SmellDeadCode:           {baseCPU: 0.30, baseMemMB: 30, networkMult: 1.0, ioMult: 1.0},
	types.SmellMagicNumbers:       {baseCPU: 0.35, baseMemMB: 25, networkMult: 1.0, ioMult: 1.0},
	types.SmellCopyPaste:          {baseCPU: 0.50, baseMemMB: 45, networkMult: 1.0, ioMult: 1.0},
}

var defaultProfile = performanceProfile{baseCPU: 0.40, baseMemMB: 40, networkMult: 1.0, ioMult: 1.0}

// SimulatePerformanceImpact fabricates a runtime profile: the ghost's smell
// profile plus patch-derived adjustments, then bottleneck detection.
func (s *Simulator) SimulatePerformanceImpact(ctx Context) types.PerformanceImpact {
	an := analyzeDiff(ctx.Patch.Diff)
	rng := newPRNG(ctx.Patch.Diff, "perf")

	profile, ok := performanceProfiles[ctx.Ghost.Smell]
	if !ok {
		// Unknown ghost types degrade to the neutral profile, never fail.
		profile = defaultProfile
	}

	impact := types.PerformanceImpact{
		CPUUsage: clamp01(profile.baseCPU + ctx.Patch.Risk*0.25 + ctx.SystemLoad*0.2 + rng.jitter(0.05)),
		MemoryMB: profile.baseMemMB*(0.6+ctx.Patch.Risk*0.8) + float64(an.Modified)*0.3 + rng.jitter(8),
		ExecTimeMS: 50 + 7*float64(an.Modified) + 250*ctx.RoomComplexity +
			180*ctx.SystemLoad + rng.jitter(30),
		CacheHitRate: clamp01(0.95 - ctx.Patch.Risk*0.45 - ctx.SystemLoad*0.15 - rng.jitter(0.1)),
	}

	if an.HasNetwork {
		impact.NetworkCalls = 4 + int(rng.jitter(12*profile.networkMult))
	} else {
		impact.NetworkCalls = rng.intn(3)
	}
	if an.HasDisk || an.HasDatabase {
		impact.DiskOps = 6 + int(rng.jitter(20*profile.ioMult))
	} else {
		impact.DiskOps = rng.intn(4)
	}
	if an.HasCache {
		impact.CacheHitRate = clamp01(impact.CacheHitRate + 0.1)
	}

	impact.Bottlenecks = detectBottlenecks(impact)
	return impact
}

// detectBottlenecks applies the fixed threshold rules to the metrics.
func detectBottlenecks(impact types.PerformanceImpact) []types.PerformanceBottleneck {
	var found []types.PerformanceBottleneck

	if impact.CPUUsage > 0.8 {
		sev := types.SeverityMajor
		if impact.CPUUsage > 0.95 {
			sev = types.SeverityCritical
		}
		found = append(found, types.PerformanceBottleneck{
			Kind:       "cpu",
			Severity:   sev,
			Impact:     clamp01((impact.CPUUsage - 0.8) / 0.2),
			Suggestion: "profile the hot path and move work off the critical section",
		})
	}
	if impact.MemoryMB > 100 {
		found = append(found, types.PerformanceBottleneck{
			Kind:       "memory",
			Severity:   types.SeverityModerate,
			Impact:     clamp01((impact.MemoryMB - 100) / 400),
			Suggestion: "release references early and pool large allocations",
		})
	}
	if impact.CacheHitRate < 0.5 {
		found = append(found, types.PerformanceBottleneck{
			Kind:       "cache",
			Severity:   types.SeverityModerate,
			Impact:     clamp01(0.5 - impact.CacheHitRate),
			Suggestion: "revisit cache keys; most lookups are missing",
		})
	}
	if impact.NetworkCalls > 10 {
		found = append(found, types.PerformanceBottleneck{
			Kind:       "network",
			Severity:   types.SeverityMinor,
			Impact:     clamp01(float64(impact.NetworkCalls) / 50),
			Suggestion: "batch requests instead of calling per item",
		})
	}
	return found
}
