// Package types defines the shared data structures for the ghostpatch engine.
// This package contains only type definitions — no logic, no methods.
package types

import "time"

// Smell is the anti-pattern category a ghost embodies.
type Smell string

const (
	SmellCircularDependency Smell = "circular_dependency"
	SmellMemoryLeak         Smell = "memory_leak"
	SmellRaceCondition      Smell = "race_condition"
	SmellGodObject          Smell = "god_object"
	SmellSpaghettiCode      Smell = "spaghetti_code"
	SmellDeadCode           Smell = "dead_code"
	SmellMagicNumbers       Smell = "magic_numbers"
	SmellCopyPaste          Smell = "copy_paste"
)

// FixPattern is a candidate remediation template carried by a ghost.
type FixPattern struct {
	ID          string
	Description string
	Diff        string // unified-diff-like template text
	Risk        float64
	Stability   int
	Insight     int
}

// Topic is one dialogue topic a ghost can speak about.
type Topic struct {
	Text          string
	RequiresFlags []string // flags that must all be set for the topic to show
	Effects       MeterEffects
	ReadySignal   bool // selecting this topic signals readiness for debugging
}

// Ghost is an anti-pattern entity. Read-only during play.
type Ghost struct {
	ID          string
	Name        string
	Smell       Smell
	Severity    int // 0–10
	Rooms       []string
	Description string
	FixPatterns []FixPattern
	Topics      map[string]Topic
}

// RoomDef is the base definition of a room in the haunted codebase.
type RoomDef struct {
	ID          string
	Name        string
	Description string
	Complexity  float64 // 0–1, feeds the simulation context
	Exits       map[string]string
	UnlockAt    int // insight required before the room opens (0 = always open)
}

// GameDef holds game metadata from the content files.
type GameDef struct {
	Title   string
	Author  string
	Version string
	Start   string // starting room ID
	Intro   string
}

// MeterEffects is a delta to the two global meters.
type MeterEffects struct {
	Stability   int    `json:"stability"`
	Insight     int    `json:"insight"`
	Description string `json:"description,omitempty"`
}

// PatchPlan is a proposed code change. Immutable once produced.
type PatchPlan struct {
	ID            string       `json:"id"`
	Diff          string       `json:"diff"`
	Description   string       `json:"description"`
	Risk          float64      `json:"risk"` // 0.0–1.0
	Effects       MeterEffects `json:"effects"`
	GhostResponse string       `json:"ghostResponse"`
}

// PatchAction is what the player chose to do with a patch.
type PatchAction string

const (
	ActionApply    PatchAction = "apply"
	ActionRefactor PatchAction = "refactor"
	ActionQuestion PatchAction = "question"
	ActionReject   PatchAction = "reject"
)

// Severity classifies how serious a consequence or finding is.
type Severity string

const (
	SeverityMinor    Severity = "minor"
	SeverityModerate Severity = "moderate"
	SeverityMajor    Severity = "major"
	SeverityCritical Severity = "critical"
)

// ConsequenceKind discriminates the GameConsequence payload union.
type ConsequenceKind string

const (
	ConsequenceMeterChange   ConsequenceKind = "meter_change"
	ConsequenceVisualEffect  ConsequenceKind = "visual_effect"
	ConsequenceAudioCue      ConsequenceKind = "audio_cue"
	ConsequenceUnlockContent ConsequenceKind = "unlock_content"
	ConsequenceTriggerEvent  ConsequenceKind = "trigger_event"
)

// ConsequencePayload is the tagged union of per-kind consequence data.
// Exactly one concrete payload type corresponds to each ConsequenceKind.
type ConsequencePayload interface{ isConsequencePayload() }

// MeterChangePayload carries the meter delta of a meter_change consequence.
type MeterChangePayload struct {
	Effects MeterEffects `json:"effects"`
}

// VisualEffectPayload carries the rendering hints of a visual_effect consequence.
type VisualEffectPayload struct {
	Effect    string  `json:"effect"` // "glitch", "distortion", ...
	Intensity float64 `json:"intensity"`
}

// AudioCuePayload carries the sound selection of an audio_cue consequence.
type AudioCuePayload struct {
	Sound  string  `json:"sound"`
	Volume float64 `json:"volume"`
}

// UnlockContentPayload lists content IDs revealed by an unlock_content consequence.
type UnlockContentPayload struct {
	Unlocks []string `json:"unlocks"`
}

// TriggerEventPayload names the bus event raised by a trigger_event consequence.
type TriggerEventPayload struct {
	Event string `json:"event"`
}

func (MeterChangePayload) isConsequencePayload()   {}
func (VisualEffectPayload) isConsequencePayload()  {}
func (AudioCuePayload) isConsequencePayload()      {}
func (UnlockContentPayload) isConsequencePayload() {}
func (TriggerEventPayload) isConsequencePayload()  {}

// GameConsequence is a typed side effect of a player action.
type GameConsequence struct {
	Kind        ConsequenceKind    `json:"kind"`
	Severity    Severity           `json:"severity"`
	Description string             `json:"description"`
	Duration    time.Duration      `json:"duration,omitempty"`
	Payload     ConsequencePayload `json:"-"`
}

// Phase is the encounter session state machine position.
type Phase string

const (
	PhaseInitializing Phase = "initializing"
	PhaseDialogue     Phase = "dialogue"
	PhaseGeneration   Phase = "patch_generation"
	PhaseSelection    Phase = "patch_selection"
	PhaseConsequences Phase = "consequences"
	PhaseCompleted    Phase = "completed"
)

// PatchOption wraps a generated patch with the orchestrator's appraisal.
type PatchOption struct {
	Patch      PatchPlan      `json:"patch"`
	Confidence float64        `json:"confidence"` // 0.1–1.0
	Risk       RiskAssessment `json:"risk"`
}

// AppliedPatch records one patch the player acted on.
type AppliedPatch struct {
	Patch     PatchPlan   `json:"patch"`
	Action    PatchAction `json:"action"`
	Success   bool        `json:"success"`
	AppliedAt time.Time   `json:"appliedAt"`
}

// EncounterSession is the unit-of-work for one ghost interaction.
// Owned exclusively by the encounter orchestrator.
type EncounterSession struct {
	ID           string            `json:"id"`
	GhostID      string            `json:"ghostId"`
	RoomID       string            `json:"roomId"`
	Phase        Phase             `json:"phase"`
	Intent       string            `json:"intent,omitempty"`
	Options      []PatchOption     `json:"options,omitempty"`
	Applied      []AppliedPatch    `json:"applied,omitempty"`
	Consequences []GameConsequence `json:"consequences,omitempty"`
	Complete     bool              `json:"complete"`
	StartedAt    time.Time         `json:"startedAt"`
}

// EncounterOutcome summarizes a completed encounter.
type EncounterOutcome struct {
	SessionID    string   `json:"sessionId"`
	GhostID      string   `json:"ghostId"`
	Success      bool     `json:"success"` // no consequence reached critical
	Patches      int      `json:"patches"`
	Achievements []string `json:"achievements,omitempty"`
}

// TimelineEntry is one append-only post-mortem audit record.
// Entries are never mutated or deleted.
type TimelineEntry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Category  string    `json:"category"`
	Outcome   string    `json:"outcome"`
	RiskLevel Safety    `json:"riskLevel"`
	Concepts  []string  `json:"concepts,omitempty"`
	Text      string    `json:"text"`
	Keywords  []string  `json:"keywords,omitempty"`
	SessionID string    `json:"sessionId,omitempty"`
	RoomID    string    `json:"roomId,omitempty"`
	GhostID   string    `json:"ghostId,omitempty"`
	PatchID   string    `json:"patchId,omitempty"`
}
