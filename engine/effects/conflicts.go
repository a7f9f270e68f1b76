package effects

import (
	"strings"

	"github.com/tsellier/ghostpatch/types"
)

type verdict int

const (
	verdictAllow verdict = iota
	verdictQueue
	verdictReplace
	verdictMerge
)

type resolution struct {
	verdict         verdict
	victimID        string
	mergedIntensity float64
}

// resolveConflicts decides how a new effect set coexists with the active
// registry. Caller holds c.mu.
//
// Pending sets derive priority from intensity bands; active effects derive
// it from type keywords. The two scales are intentionally different and
// compared directly.
func (c *Coordinator) resolveConflicts(set types.EffectSet) resolution {
	var conflicting, compatible []*activeRecord
	newVisual := len(set.Visuals) > 0
	for _, rec := range c.active {
		if incompatible(set, newVisual, rec) {
			conflicting = append(conflicting, rec)
		} else {
			compatible = append(compatible, rec)
		}
	}

	if len(conflicting) == 0 {
		return resolution{verdict: verdictAllow}
	}

	newPri := pendingPriority(set.Intensity)

	if len(c.active) >= c.perf.MaxConcurrentEffects {
		victim := lowestPriorityActive(c.active)
		if victim != nil && newPri > activePriority(victim.effect.Type) {
			return resolution{verdict: verdictReplace, victimID: victim.effect.ID}
		}
		return resolution{verdict: verdictQueue}
	}

	if len(compatible) > 0 {
		sum := set.Intensity
		for _, rec := range compatible {
			sum += rec.effect.Intensity
		}
		return resolution{
			verdict:         verdictMerge,
			mergedIntensity: clamp01(sum / float64(len(compatible)+1)),
		}
	}

	for _, rec := range conflicting {
		if newPri <= activePriority(rec.effect.Type) {
			return resolution{verdict: verdictQueue}
		}
	}
	victim := lowestPriorityActive(c.active)
	if victim == nil {
		return resolution{verdict: verdictQueue}
	}
	return resolution{verdict: verdictReplace, victimID: victim.effect.ID}
}

// incompatible reports whether two effects cannot run together: both
// visual, or both intense.
func incompatible(set types.EffectSet, newVisual bool, rec *activeRecord) bool {
	if newVisual && rec.visual {
		return true
	}
	return set.Intensity > 0.7 && rec.effect.Intensity > 0.7
}

// pendingPriority maps a requested intensity to a priority band.
func pendingPriority(intensity float64) int {
	switch {
	case intensity > 0.8:
		return 4
	case intensity > 0.6:
		return 3
	case intensity > 0.3:
		return 2
	default:
		return 1
	}
}

// activePriority maps a running effect's type string to a priority.
func activePriority(effectType string) int {
	switch {
	case strings.Contains(effectType, "critical"):
		return 4
	case strings.Contains(effectType, "meter"):
		return 3
	case strings.Contains(effectType, "encounter"):
		return 2
	default:
		return 1
	}
}

func lowestPriorityActive(active map[string]*activeRecord) *activeRecord {
	var lowest *activeRecord
	lowestPri := 0
	for _, rec := range active {
		pri := activePriority(rec.effect.Type)
		if lowest == nil || pri < lowestPri {
			lowest = rec
			lowestPri = pri
		}
	}
	return lowest
}
