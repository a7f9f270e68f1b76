package sim

import "strings"

// DiffAnalysis is what the simulator learns from reading a diff. Quality
// rules receive it, so the fields are exported. A malformed or empty diff
// simply yields zeroes — never an error.
type DiffAnalysis struct {
	AddedLines   []string
	Added        int
	Removed      int
	Modified     int // added + removed
	HasLoops     bool
	HasRecursion bool
	HasEval      bool
	HasInnerHTML bool
	HasUndefined bool
	HasSecret    bool
	HasNetwork   bool
	HasDisk      bool
	HasDatabase  bool
	HasCache     bool
}

// analyzeDiff extracts line counts and code patterns from unified-diff-like
// text. Only added lines are pattern-matched; context and removed lines are
// counted but not inspected.
func analyzeDiff(diff string) DiffAnalysis {
	var an DiffAnalysis

	for _, line := range strings.Split(diff, "\n") {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
			// File headers, not content.
		case strings.HasPrefix(line, "+"):
			an.Added++
			an.AddedLines = append(an.AddedLines, strings.TrimPrefix(line, "+"))
		case strings.HasPrefix(line, "-"):
			an.Removed++
		}
	}
	an.Modified = an.Added + an.Removed

	body := strings.ToLower(strings.Join(an.AddedLines, "\n"))
	an.HasLoops = strings.Contains(body, "for ") || strings.Contains(body, "for(") ||
		strings.Contains(body, "while ") || strings.Contains(body, "while(")
	an.HasRecursion = strings.Contains(body, "recurse") || strings.Contains(body, "recursive")
	an.HasEval = strings.Contains(body, "eval(")
	an.HasInnerHTML = strings.Contains(body, "innerhtml")
	an.HasUndefined = strings.Contains(body, "undefined")
	an.HasSecret = strings.Contains(body, "password =") || strings.Contains(body, "password=") ||
		strings.Contains(body, "apikey") || strings.Contains(body, "api_key")
	an.HasNetwork = strings.Contains(body, "fetch(") || strings.Contains(body, "http") ||
		strings.Contains(body, "request(")
	an.HasDisk = strings.Contains(body, "readfile") || strings.Contains(body, "writefile") ||
		strings.Contains(body, "fs.")
	an.HasDatabase = strings.Contains(body, "select ") || strings.Contains(body, "insert ") ||
		strings.Contains(body, "query(")
	an.HasCache = strings.Contains(body, "cache")

	return an
}

// complexityPenalty grows linearly with modified-line count, capped at 0.2.
func (an DiffAnalysis) complexityPenalty() float64 {
	p := float64(an.Modified) * 0.002
	if p > 0.2 {
		p = 0.2
	}
	return p
}

// patternPenalty sums the compile-risk contributions of dangerous patterns,
// capped at 0.25. Absence of a pattern contributes exactly zero.
func (an DiffAnalysis) patternPenalty() float64 {
	var p float64
	if an.HasEval {
		p += 0.1
	}
	if an.HasInnerHTML {
		p += 0.08
	}
	if an.HasUndefined {
		p += 0.05
	}
	if an.HasRecursion {
		p += 0.04
	}
	if p > 0.25 {
		p = 0.25
	}
	return p
}
