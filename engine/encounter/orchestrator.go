// Package encounter owns the life cycle of one ghost encounter: dialogue,
// patch generation, patch selection, application, consequences, completion.
// It drives the compile processor and records everything it does on the bus.
package encounter

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tsellier/ghostpatch/engine/compile"
	"github.com/tsellier/ghostpatch/engine/events"
	"github.com/tsellier/ghostpatch/engine/meters"
	"github.com/tsellier/ghostpatch/types"
)

// DialogueResponse is what the dialogue collaborator returns for one input.
type DialogueResponse struct {
	Text              string
	ReadyForDebugging bool
	Effects           *types.MeterEffects
}

// DialogueEngine is the external dialogue collaborator contract.
type DialogueEngine interface {
	StartDialogue(ghost types.Ghost) (sessionID, opening string, err error)
	ProcessPlayerInput(sessionID, input string) (DialogueResponse, error)
}

// PatchApplication is the collaborator's report of applying one patch.
type PatchApplication struct {
	Success  bool
	Effects  types.MeterEffects
	Events   []types.CompileEvent
	Feedback string
}

// PatchGenerator is the external patch-generation collaborator contract.
type PatchGenerator interface {
	GeneratePatch(intent string, ghost types.Ghost) (types.PatchPlan, error)
	GenerateAlternative(patch types.PatchPlan, ghost types.Ghost) (types.PatchPlan, error)
	ApplyPatch(plan types.PatchPlan, action types.PatchAction) (PatchApplication, error)
}

// Orchestrator manages the active encounter sessions. State is partitioned
// by session ID; callers are responsible for serializing player input per
// session, and exactly one session may be active per ghost at a time.
type Orchestrator struct {
	mu          sync.Mutex
	sessions    map[string]*types.EncounterSession
	dialogueIDs map[string]string // session ID → dialogue session ID
	ghosts      map[string]types.Ghost
	activeGhost string
	seq         int

	dialogue  DialogueEngine
	generator PatchGenerator
	processor *compile.Processor
	meters    *meters.Meters
	bus       *events.Bus
	log       zerolog.Logger
	now       func() time.Time

	// Simulation context knobs, set by the engine from game state.
	PlayerSkill float64
	SystemLoad  float64
}

// New creates an orchestrator with all collaborators injected.
func New(dialogue DialogueEngine, generator PatchGenerator, processor *compile.Processor,
	m *meters.Meters, bus *events.Bus, log zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		sessions:    map[string]*types.EncounterSession{},
		dialogueIDs: map[string]string{},
		ghosts:      map[string]types.Ghost{},
		dialogue:    dialogue,
		generator:   generator,
		processor:   processor,
		meters:      m,
		bus:         bus,
		log:         log.With().Str("component", "encounter").Logger(),
		now:         time.Now,
		PlayerSkill: 0.5,
	}
}

// StartEncounter opens a session for the ghost and begins dialogue.
// Only one session may be active per ghost.
func (o *Orchestrator) StartEncounter(ghost types.Ghost, roomID string) (*types.EncounterSession, string, error) {
	o.mu.Lock()
	for _, s := range o.sessions {
		if s.GhostID == ghost.ID && !s.Complete {
			o.mu.Unlock()
			return nil, "", fmt.Errorf("encounter with ghost %s already active", ghost.ID)
		}
	}
	o.seq++
	session := &types.EncounterSession{
		ID:        fmt.Sprintf("enc-%d", o.seq),
		GhostID:   ghost.ID,
		RoomID:    roomID,
		Phase:     types.PhaseInitializing,
		StartedAt: o.now(),
	}
	o.sessions[session.ID] = session
	o.ghosts[ghost.ID] = ghost
	o.activeGhost = ghost.ID
	o.mu.Unlock()

	dlgID, opening, err := o.dialogue.StartDialogue(ghost)
	if err != nil {
		o.mu.Lock()
		delete(o.sessions, session.ID)
		o.mu.Unlock()
		return nil, "", fmt.Errorf("starting dialogue with %s: %w", ghost.ID, err)
	}

	o.mu.Lock()
	o.dialogueIDs[session.ID] = dlgID
	session.Phase = types.PhaseDialogue
	o.mu.Unlock()

	o.bus.Emit(events.Event{
		Type:   events.EncounterStarted,
		Source: "encounter",
		Data:   map[string]any{"session": session.ID, "ghost": ghost.ID, "room": roomID},
	})
	return session, opening, nil
}

// DialogueResult is the outcome of one dialogue step.
type DialogueResult struct {
	Text    string
	Phase   types.Phase
	Options []types.PatchOption // populated once the ghost is ready for debugging
}

// ProcessDialogueChoice feeds player input to the dialogue collaborator.
// Dialogue-carried meter effects apply immediately; when the response
// signals readiness for debugging, patch options are generated and the
// session advances to patch selection.
func (o *Orchestrator) ProcessDialogueChoice(sessionID, input string) (DialogueResult, error) {
	o.mu.Lock()
	session, ok := o.sessions[sessionID]
	if !ok {
		o.mu.Unlock()
		return DialogueResult{}, fmt.Errorf("no such session: %s", sessionID)
	}
	ghost := o.ghosts[session.GhostID]
	dlgID := o.dialogueIDs[sessionID]
	o.mu.Unlock()

	resp, err := o.dialogue.ProcessPlayerInput(dlgID, input)
	if err != nil {
		return DialogueResult{}, fmt.Errorf("dialogue input for %s: %w", sessionID, err)
	}

	if resp.Effects != nil {
		o.meters.Apply(*resp.Effects)
	}

	o.bus.Emit(events.Event{
		Type:   events.DialogueChoice,
		Source: "encounter",
		Data:   map[string]any{"session": sessionID, "input": input},
	})

	result := DialogueResult{Text: resp.Text, Phase: types.PhaseDialogue}
	if !resp.ReadyForDebugging {
		return result, nil
	}

	o.mu.Lock()
	session.Phase = types.PhaseGeneration
	session.Intent = input
	o.mu.Unlock()

	options, err := o.GeneratePatchOptions(input, ghost)
	if err != nil {
		// No options could be generated at all; stay in dialogue.
		o.mu.Lock()
		session.Phase = types.PhaseDialogue
		o.mu.Unlock()
		o.log.Warn().Err(err).Str("session", sessionID).Msg("patch generation failed")
		result.Text = resp.Text + "\nThe ghost waits. Nothing comes to you yet."
		return result, nil
	}

	o.mu.Lock()
	session.Options = options
	session.Phase = types.PhaseSelection
	o.mu.Unlock()

	result.Phase = types.PhaseSelection
	result.Options = options
	return result, nil
}

// CompleteEncounter computes the outcome, removes the session from the
// active map, and clears the active ghost if it matches.
func (o *Orchestrator) CompleteEncounter(sessionID string) (*types.EncounterOutcome, error) {
	o.mu.Lock()
	session, ok := o.sessions[sessionID]
	if !ok {
		o.mu.Unlock()
		return nil, fmt.Errorf("no such session: %s", sessionID)
	}

	outcome := &types.EncounterOutcome{
		SessionID:    sessionID,
		GhostID:      session.GhostID,
		Success:      noCriticalConsequence(session.Consequences),
		Patches:      len(session.Applied),
		Achievements: achievements(session),
	}

	delete(o.sessions, sessionID)
	delete(o.dialogueIDs, sessionID)
	if o.activeGhost == session.GhostID {
		o.activeGhost = ""
	}
	o.mu.Unlock()

	o.bus.Emit(events.Event{
		Type:   events.EncounterCompleted,
		Source: "encounter",
		Data: map[string]any{
			"session": sessionID,
			"ghost":   outcome.GhostID,
			"success": outcome.Success,
		},
	})
	return outcome, nil
}

// Session returns a session by ID.
func (o *Orchestrator) Session(id string) (*types.EncounterSession, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	s, ok := o.sessions[id]
	return s, ok
}

// ActiveSessions returns the IDs of all open sessions.
func (o *Orchestrator) ActiveSessions() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	ids := make([]string, 0, len(o.sessions))
	for id := range o.sessions {
		ids = append(ids, id)
	}
	return ids
}

// ActiveGhost returns the ghost of the most recently started encounter,
// or false when none is active.
func (o *Orchestrator) ActiveGhost() (types.Ghost, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.activeGhost == "" {
		return types.Ghost{}, false
	}
	g, ok := o.ghosts[o.activeGhost]
	return g, ok
}

func noCriticalConsequence(cs []types.GameConsequence) bool {
	for _, c := range cs {
		if c.Severity == types.SeverityCritical {
			return false
		}
	}
	return true
}

// achievements derives learning achievements from applied-patch counts.
func achievements(session *types.EncounterSession) []string {
	var out []string
	if len(session.Applied) >= 1 {
		out = append(out, "first_patch")
	}
	if len(session.Applied) >= 3 {
		out = append(out, "persistent_debugger")
	}
	allSucceeded := len(session.Applied) > 0
	for _, a := range session.Applied {
		if a.Action == types.ActionRefactor {
			out = append(out, "architect")
			break
		}
	}
	for _, a := range session.Applied {
		if !a.Success {
			allSucceeded = false
			break
		}
	}
	if allSucceeded {
		out = append(out, "clean_hands")
	}
	return out
}
