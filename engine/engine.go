// Package engine assembles the game: content, meters, encounters, effects,
// timeline, and end conditions behind one facade the front ends drive.
package engine

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/tsellier/ghostpatch/dialogue"
	"github.com/tsellier/ghostpatch/engine/compile"
	"github.com/tsellier/ghostpatch/engine/effects"
	"github.com/tsellier/ghostpatch/engine/encounter"
	"github.com/tsellier/ghostpatch/engine/events"
	"github.com/tsellier/ghostpatch/engine/meters"
	"github.com/tsellier/ghostpatch/engine/save"
	"github.com/tsellier/ghostpatch/engine/sim"
	"github.com/tsellier/ghostpatch/engine/timeline"
	"github.com/tsellier/ghostpatch/loader"
	"github.com/tsellier/ghostpatch/patchgen"
	"github.com/tsellier/ghostpatch/types"
)

// SaveVersion is written into every save file.
const SaveVersion = "1"

// Options configure a new engine.
type Options struct {
	Accessibility types.AccessibilitySettings
	Performance   types.PerformanceSettings
	Store         save.Store // nil disables persistence
	Seed          int64
}

// Engine owns all game state for one playthrough.
type Engine struct {
	Defs       *loader.Defs
	Bus        *events.Bus
	Meters     *meters.Meters
	Encounters *encounter.Orchestrator
	Effects    *effects.Coordinator
	Timeline   *timeline.Timeline
	Progress   *timeline.Progress
	Conditions *timeline.Conditions

	dialogue  *dialogue.Engine
	generator *patchgen.Generator
	store     save.Store
	log       zerolog.Logger

	mu          sync.Mutex
	currentRoom string
	rng         *RNG
}

// New wires every subsystem onto a shared event bus.
func New(defs *loader.Defs, opts Options, log zerolog.Logger) *Engine {
	bus := events.NewBus(log)
	m := meters.New(bus, log)

	proc := compile.New(sim.New(), log)
	dlg := dialogue.NewEngine(log)
	gen := patchgen.NewGenerator(proc, log)
	orch := encounter.New(dlg, gen, proc, m, bus, log)

	access := opts.Accessibility
	if access.IntensityScale <= 0 {
		access.IntensityScale = 1.0
	}
	perf := opts.Performance
	if perf.MaxConcurrentEffects < 1 {
		perf.MaxConcurrentEffects = 8
	}
	if perf.QualityScale <= 0 {
		perf.QualityScale = 1.0
	}
	if perf.TargetFrameRate < 1 {
		perf.TargetFrameRate = 60
	}
	coord := effects.NewCoordinator(access, perf, log)
	coord.BindBus(bus)

	tl := timeline.NewTimeline(log)
	tl.BindBus(bus)

	rooms := make([]types.RoomDef, 0, len(defs.Rooms))
	for _, r := range defs.Rooms {
		rooms = append(rooms, r)
	}
	prog := timeline.NewProgress(rooms, bus, log)
	prog.BindBus(bus)

	ghostIDs := make([]string, 0, len(defs.Ghosts))
	for id := range defs.Ghosts {
		ghostIDs = append(ghostIDs, id)
	}
	cond := timeline.NewConditions(ghostIDs, bus, log)
	cond.BindBus(bus)

	return &Engine{
		Defs:        defs,
		Bus:         bus,
		Meters:      m,
		Encounters:  orch,
		Effects:     coord,
		Timeline:    tl,
		Progress:    prog,
		Conditions:  cond,
		dialogue:    dlg,
		generator:   gen,
		store:       opts.Store,
		log:         log.With().Str("component", "engine").Logger(),
		currentRoom: defs.Game.Start,
		rng:         NewRNG(opts.Seed),
	}
}

// Start emits the opening room event and returns the intro text.
func (e *Engine) Start() []string {
	e.mu.Lock()
	room := e.currentRoom
	e.mu.Unlock()

	e.Bus.Emit(events.Event{
		Type:   events.RoomEntered,
		Source: "engine",
		Data:   map[string]any{"room": room},
	})

	var out []string
	if e.Defs.Game.Intro != "" {
		out = append(out, e.Defs.Game.Intro)
	}
	return append(out, e.DescribeRoom()...)
}

// CurrentRoom returns the room the player is in.
func (e *Engine) CurrentRoom() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.currentRoom
}

// Move follows an exit from the current room. Rooms gated on insight stay
// sealed until the meter reaches their threshold.
func (e *Engine) Move(direction string) ([]string, error) {
	if over, _ := e.Conditions.Terminal(); over {
		return nil, fmt.Errorf("the system has collapsed; nothing moves here anymore")
	}

	e.mu.Lock()
	room, ok := e.Defs.Rooms[e.currentRoom]
	e.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("unknown room %q", e.currentRoom)
	}

	target, ok := room.Exits[strings.ToLower(direction)]
	if !ok {
		return nil, fmt.Errorf("no exit %q from %s", direction, room.ID)
	}
	if _, exists := e.Defs.Rooms[target]; !exists {
		return nil, fmt.Errorf("exit %q leads nowhere", direction)
	}
	if !e.Progress.Unlocked(target) {
		return nil, fmt.Errorf("the way to %s is sealed; you don't understand enough yet", target)
	}

	e.mu.Lock()
	e.currentRoom = target
	e.mu.Unlock()

	e.Bus.Emit(events.Event{
		Type:   events.RoomEntered,
		Source: "engine",
		Data:   map[string]any{"room": target, "from": room.ID},
	})
	return e.DescribeRoom(), nil
}

// DescribeRoom renders the current room: description, haunting ghosts,
// exits, and sometimes an ambient murmur.
func (e *Engine) DescribeRoom() []string {
	e.mu.Lock()
	roomID := e.currentRoom
	e.mu.Unlock()

	room, ok := e.Defs.Rooms[roomID]
	if !ok {
		return []string{"You are somewhere the map does not cover."}
	}

	out := []string{room.Name, room.Description}

	ghosts := e.GhostsHere()
	if len(ghosts) > 0 {
		names := make([]string, 0, len(ghosts))
		for _, g := range ghosts {
			names = append(names, g.Name)
		}
		out = append(out, "Haunting this code: "+strings.Join(names, ", ")+".")
		if e.chance(0.3) {
			if line := e.pick(murmurs); line != "" {
				out = append(out, line)
			}
		}
	}

	if len(room.Exits) > 0 {
		dirs := make([]string, 0, len(room.Exits))
		for d := range room.Exits {
			dirs = append(dirs, d)
		}
		sort.Strings(dirs)
		out = append(out, "Exits: "+strings.Join(dirs, ", ")+".")
	}
	return out
}

var murmurs = []string{
	"Something hums inside the call stack.",
	"A comment nearby reads: do not touch, nobody knows why this works.",
	"The build log scrolls past on a dead monitor.",
	"You hear a pointer being dereferenced, far away.",
}

// GhostsHere lists unresolved ghosts haunting the current room, sorted by ID.
func (e *Engine) GhostsHere() []types.Ghost {
	e.mu.Lock()
	roomID := e.currentRoom
	e.mu.Unlock()

	resolved := map[string]bool{}
	for _, id := range e.Conditions.ResolvedGhosts() {
		resolved[id] = true
	}

	var out []types.Ghost
	for _, g := range e.Defs.Ghosts {
		if resolved[g.ID] {
			continue
		}
		for _, r := range g.Rooms {
			if r == roomID {
				out = append(out, g)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// StartEncounter confronts a ghost haunting the current room. The
// simulation knobs are refreshed from game state first: skill tracks
// insight, system load tracks lost stability, and complexity comes from
// the room.
func (e *Engine) StartEncounter(ghostID string) (*types.EncounterSession, string, error) {
	if over, victory := e.Conditions.Terminal(); over || victory {
		return nil, "", fmt.Errorf("the session is over")
	}

	e.mu.Lock()
	roomID := e.currentRoom
	e.mu.Unlock()

	ghost, ok := e.Defs.Ghosts[ghostID]
	if !ok {
		return nil, "", fmt.Errorf("unknown ghost %q", ghostID)
	}
	here := false
	for _, r := range ghost.Rooms {
		if r == roomID {
			here = true
			break
		}
	}
	if !here {
		return nil, "", fmt.Errorf("%s does not haunt %s", ghost.Name, roomID)
	}

	stability, insight := e.Meters.Snapshot()
	skill := 0.3 + float64(insight)/100*0.5
	load := float64(100-stability) / 100

	room := e.Defs.Rooms[roomID]
	e.generator.PlayerSkill = skill
	e.generator.RoomComplexity = room.Complexity
	e.generator.SystemLoad = load
	e.Encounters.PlayerSkill = skill
	e.Encounters.SystemLoad = load

	return e.Encounters.StartEncounter(ghost, roomID)
}

// Converse feeds one line of player input into the active dialogue.
func (e *Engine) Converse(sessionID, input string) (encounter.DialogueResult, error) {
	return e.Encounters.ProcessDialogueChoice(sessionID, input)
}

// DecidePatch acts on a generated patch option.
func (e *Engine) DecidePatch(patchID string, action types.PatchAction) (encounter.ApplyResult, error) {
	return e.Encounters.ApplyPatchChoice(patchID, action)
}

// Conclude finishes an encounter and returns its outcome. Ghost resolution
// and the victory check ride on the completion event.
func (e *Engine) Conclude(sessionID string) (*types.EncounterOutcome, error) {
	return e.Encounters.CompleteEncounter(sessionID)
}

// Save serializes the full game state into the configured store.
func (e *Engine) Save(slot string) error {
	if e.store == nil {
		return fmt.Errorf("no save store configured")
	}

	stability, insight := e.Meters.Snapshot()

	var sessions []types.EncounterSession
	for _, id := range e.Encounters.ActiveSessions() {
		if s, ok := e.Encounters.Session(id); ok {
			sessions = append(sessions, *s)
		}
	}
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].ID < sessions[j].ID })

	e.mu.Lock()
	sd := save.SaveData{
		Version:        SaveVersion,
		Game:           e.Defs.Game.Title,
		Stability:      stability,
		Insight:        insight,
		CurrentRoom:    e.currentRoom,
		Sessions:       sessions,
		Timeline:       e.Timeline.Entries(),
		UnlockedRooms:  e.Progress.UnlockedRooms(),
		ResolvedGhosts: e.Conditions.ResolvedGhosts(),
		RNGSeed:        e.rng.Seed(),
		RNGPosition:    e.rng.Position(),
	}
	e.mu.Unlock()

	data, err := save.Marshal(sd)
	if err != nil {
		return fmt.Errorf("save %s: %w", slot, err)
	}
	if err := e.store.Write(slot, data); err != nil {
		return fmt.Errorf("save %s: %w", slot, err)
	}
	e.log.Info().Str("slot", slot).Msg("game saved")
	return nil
}

// Load restores game state from the configured store. Restores do not
// replay events; the bus stays quiet while state is rebuilt.
func (e *Engine) Load(slot string) error {
	if e.store == nil {
		return fmt.Errorf("no save store configured")
	}
	data, err := e.store.Read(slot)
	if err != nil {
		return fmt.Errorf("load %s: %w", slot, err)
	}
	sd, err := save.Unmarshal(data)
	if err != nil {
		return fmt.Errorf("load %s: %w", slot, err)
	}
	if sd.Version != SaveVersion {
		return fmt.Errorf("load %s: unsupported save version %q", slot, sd.Version)
	}
	if _, ok := e.Defs.Rooms[sd.CurrentRoom]; !ok {
		return fmt.Errorf("load %s: save references unknown room %q", slot, sd.CurrentRoom)
	}

	e.Meters.Restore(sd.Stability, sd.Insight)
	e.Timeline.Restore(sd.Timeline)
	e.Progress.Restore(sd.UnlockedRooms)
	e.Conditions.Restore(sd.ResolvedGhosts)

	e.mu.Lock()
	e.currentRoom = sd.CurrentRoom
	e.rng = RestoreRNG(sd.RNGSeed, sd.RNGPosition)
	e.mu.Unlock()

	e.log.Info().Str("slot", slot).Msg("game loaded")
	return nil
}

// Slots lists available save slots, or nil when persistence is disabled.
func (e *Engine) Slots() []string {
	if e.store == nil {
		return nil
	}
	slots, err := e.store.List()
	if err != nil {
		e.log.Warn().Err(err).Msg("listing save slots")
		return nil
	}
	return slots
}

func (e *Engine) chance(p float64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rng.Chance(p)
}

func (e *Engine) pick(options []string) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rng.Pick(options)
}
