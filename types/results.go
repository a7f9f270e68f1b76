package types

// CompilerMessage is one synthetic compiler warning or error.
type CompilerMessage struct {
	Line     int    `json:"line"`
	Column   int    `json:"column"`
	Severity string `json:"severity"` // "warning", "error", "fatal"
	Code     string `json:"code"`
	Message  string `json:"message"`
}

// CompilationOutput is the simulator's fabricated compiler run.
type CompilationOutput struct {
	ExitCode   int               `json:"exitCode"`
	Stdout     string            `json:"stdout"`
	Stderr     string            `json:"stderr"`
	DurationMS float64           `json:"durationMs"` // floors at 100ms
	MemoryMB   float64           `json:"memoryMb"`
	Warnings   []CompilerMessage `json:"warnings,omitempty"`
	Errors     []CompilerMessage `json:"errors,omitempty"`
}

// PerformanceBottleneck is one detected hotspot with a remediation hint.
type PerformanceBottleneck struct {
	Kind       string   `json:"kind"` // "cpu", "memory", "cache", "network"
	Severity   Severity `json:"severity"`
	Impact     float64  `json:"impact"` // 0–1
	Suggestion string   `json:"suggestion"`
}

// PerformanceImpact is the simulator's fabricated runtime profile.
type PerformanceImpact struct {
	CPUUsage     float64                 `json:"cpuUsage"` // 0–1
	MemoryMB     float64                 `json:"memoryMb"`
	ExecTimeMS   float64                 `json:"execTimeMs"`
	NetworkCalls int                     `json:"networkCalls"`
	DiskOps      int                     `json:"diskOps"`
	CacheHitRate float64                 `json:"cacheHitRate"` // 0–1
	Bottlenecks  []PerformanceBottleneck `json:"bottlenecks,omitempty"`
}

// CodeComplexityMetrics are derived from the diff text alone.
type CodeComplexityMetrics struct {
	Cyclomatic     int `json:"cyclomatic"`     // capped at 20
	Cognitive      int `json:"cognitive"`      // capped at 25
	NestingDepth   int `json:"nestingDepth"`   // capped at 10
	DuplicateLines int `json:"duplicateLines"`
}

// CodeQualityIssue is one finding from the quality rule engine.
type CodeQualityIssue struct {
	Kind     string   `json:"kind"` // "complexity", "vulnerability", "maintainability", "performance", "reliability"
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// CodeQualityMetrics is the simulator's fabricated quality report.
// All scores are in [0,1]; Overall is the average of the five sub-scores.
type CodeQualityMetrics struct {
	Overall         float64               `json:"overall"`
	Maintainability float64               `json:"maintainability"`
	Readability     float64               `json:"readability"`
	Testability     float64               `json:"testability"`
	Security        float64               `json:"security"`
	Performance     float64               `json:"performance"`
	Complexity      CodeComplexityMetrics `json:"complexity"`
	Issues          []CodeQualityIssue    `json:"issues,omitempty"`
}

// Safety is the coarse risk band derived from overall risk.
type Safety string

const (
	SafetySafe    Safety = "safe"    // risk < 0.3
	SafetyCaution Safety = "caution" // 0.3 ≤ risk < 0.6
	SafetyWarning Safety = "warning" // 0.6 ≤ risk < 0.8
	SafetyDanger  Safety = "danger"  // risk ≥ 0.8
)

// RiskFactor is one contribution to the overall risk assessment.
type RiskFactor struct {
	Kind        string   `json:"kind"` // "compilation", "performance", "security", "complexity"
	Severity    Severity `json:"severity"`
	Description string   `json:"description"`
	Impact      float64  `json:"impact"`
}

// RiskAssessment aggregates every risk contribution for one patch application.
// OverallRisk only grows via additive penalty composition and is clamped to [0,1].
type RiskAssessment struct {
	OverallRisk     float64      `json:"overallRisk"`
	Factors         []RiskFactor `json:"factors,omitempty"`
	Recommendations []string     `json:"recommendations,omitempty"`
	Safety          Safety       `json:"safety"`
}

// ExecutionResults is the single authoritative simulation outcome for one patch.
type ExecutionResults struct {
	Compilation CompilationOutput  `json:"compilation"`
	Performance PerformanceImpact  `json:"performance"`
	Quality     CodeQualityMetrics `json:"quality"`
	Risk        RiskAssessment     `json:"risk"`
	// OverallSuccess requires all three gates: exit code 0, overall risk
	// below 0.8, and quality score above 0.3.
	OverallSuccess bool `json:"overallSuccess"`
}

// CompileEventKind classifies narrative compile events.
type CompileEventKind string

const (
	CompileSuccess           CompileEventKind = "success"
	CompileFailure           CompileEventKind = "failure"
	CompileWarning           CompileEventKind = "warning"
	CompilePerformance       CompileEventKind = "performance"
	CompileSecurityViolation CompileEventKind = "security_violation"
	CompileError             CompileEventKind = "error"
)

// CompileEvent is one narrative event derived from execution results.
type CompileEvent struct {
	Kind    CompileEventKind `json:"kind"`
	Message string           `json:"message"`
	Effects MeterEffects     `json:"effects"`
}

// PatchResult is the public outcome of executing one patch.
type PatchResult struct {
	Success  bool              `json:"success"`
	Effects  MeterEffects      `json:"effects"`
	Events   []CompileEvent    `json:"events,omitempty"`
	Results  *ExecutionResults `json:"results,omitempty"`
	Dialogue string            `json:"dialogue,omitempty"` // in-fiction feedback, always present on failure
}
