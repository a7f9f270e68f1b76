package engine

import (
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/tsellier/ghostpatch/engine/save"
	"github.com/tsellier/ghostpatch/loader"
	"github.com/tsellier/ghostpatch/types"
)

// testDefs builds a small haunted codebase: two rooms, the second gated
// on insight, and one ghost in the first.
func testDefs() *loader.Defs {
	return &loader.Defs{
		Game: types.GameDef{
			Title: "Test Haunt",
			Start: "lobby",
			Intro: "The monitors flicker on.",
		},
		Rooms: map[string]types.RoomDef{
			"lobby": {
				ID:          "lobby",
				Name:        "Entry Module",
				Description: "Initialization code, mostly boilerplate.",
				Complexity:  0.2,
				Exits:       map[string]string{"north": "vault"},
			},
			"vault": {
				ID:          "vault",
				Name:        "Legacy Vault",
				Description: "Code nobody has touched in years.",
				Complexity:  0.8,
				Exits:       map[string]string{"south": "lobby"},
				UnlockAt:    30,
			},
		},
		Ghosts: map[string]types.Ghost{
			"leak": {
				ID:          "leak",
				Name:        "The Memory Leak",
				Smell:       types.SmellMemoryLeak,
				Severity:    5,
				Rooms:       []string{"lobby"},
				Description: "Allocations drift upward like smoke.",
				Topics: map[string]types.Topic{
					"origin": {Text: "It started with a cache nobody evicted."},
					"symptoms": {
						Text:        "Watch the heap. It only grows.",
						Effects:     types.MeterEffects{Insight: 5},
						ReadySignal: true,
					},
				},
				FixPatterns: []types.FixPattern{
					{
						ID:          "evict",
						Description: "Add cache eviction on a TTL",
						Diff:        "+ cache.SetTTL(5 * time.Minute)\n",
						Risk:        0.2,
						Stability:   8,
						Insight:     6,
					},
					{
						ID:          "rewrite",
						Description: "Replace the cache with a bounded LRU",
						Diff:        "- var cache = map[string]entry{}\n+ var cache = lru.New(1024)\n",
						Risk:        0.6,
						Stability:   12,
						Insight:     10,
					},
				},
			},
		},
	}
}

func testEngine(t *testing.T, opts Options) *Engine {
	t.Helper()
	return New(testDefs(), opts, zerolog.Nop())
}

func TestStart_IntroAndRoom(t *testing.T) {
	e := testEngine(t, Options{Seed: 1})
	out := strings.Join(e.Start(), "\n")
	for _, want := range []string{"The monitors flicker on.", "Entry Module", "The Memory Leak", "Exits: north."} {
		if !strings.Contains(out, want) {
			t.Errorf("start output missing %q:\n%s", want, out)
		}
	}
}

func TestMove_UnknownExit(t *testing.T) {
	e := testEngine(t, Options{Seed: 1})
	if _, err := e.Move("west"); err == nil {
		t.Fatal("expected error for unknown exit")
	}
}

func TestMove_LockedUntilInsight(t *testing.T) {
	e := testEngine(t, Options{Seed: 1})

	if _, err := e.Move("north"); err == nil {
		t.Fatal("vault should be sealed at 0 insight")
	}

	// Raising insight past the threshold unlocks the room via the bus.
	e.Meters.Apply(types.MeterEffects{Insight: 35})

	out, err := e.Move("north")
	if err != nil {
		t.Fatalf("Move after unlock: %v", err)
	}
	if e.CurrentRoom() != "vault" {
		t.Errorf("CurrentRoom = %q, want vault", e.CurrentRoom())
	}
	if !strings.Contains(strings.Join(out, "\n"), "Legacy Vault") {
		t.Errorf("move output missing room name: %v", out)
	}
}

func TestStartEncounter_GhostMustHauntCurrentRoom(t *testing.T) {
	e := testEngine(t, Options{Seed: 1})

	if _, _, err := e.StartEncounter("nobody"); err == nil {
		t.Fatal("expected error for unknown ghost")
	}

	e.Meters.Apply(types.MeterEffects{Insight: 35})
	if _, err := e.Move("north"); err != nil {
		t.Fatalf("Move: %v", err)
	}
	if _, _, err := e.StartEncounter("leak"); err == nil {
		t.Fatal("leak does not haunt the vault")
	}
}

func TestEncounterFlow_DialogueToResolution(t *testing.T) {
	e := testEngine(t, Options{Seed: 1})

	session, opening, err := e.StartEncounter("leak")
	if err != nil {
		t.Fatalf("StartEncounter: %v", err)
	}
	if opening == "" {
		t.Error("empty opening line")
	}

	// A ready-signal topic moves the encounter to patch selection.
	res, err := e.Converse(session.ID, "tell me about the symptoms")
	if err != nil {
		t.Fatalf("Converse: %v", err)
	}
	if res.Phase != types.PhaseSelection {
		t.Fatalf("phase = %q, want %q", res.Phase, types.PhaseSelection)
	}
	if len(res.Options) == 0 {
		t.Fatal("no patch options generated")
	}

	apply, err := e.DecidePatch(res.Options[0].Patch.ID, types.ActionApply)
	if err != nil {
		t.Fatalf("DecidePatch: %v", err)
	}
	if apply.Feedback == "" {
		t.Error("empty patch feedback")
	}

	outcome, err := e.Conclude(session.ID)
	if err != nil {
		t.Fatalf("Conclude: %v", err)
	}
	if outcome.GhostID != "leak" {
		t.Errorf("outcome ghost = %q", outcome.GhostID)
	}
	if outcome.Patches != 1 {
		t.Errorf("outcome patches = %d, want 1", outcome.Patches)
	}

	if outcome.Success {
		// Successful resolution removes the ghost from the room and,
		// it being the last one, wins the game.
		if len(e.GhostsHere()) != 0 {
			t.Error("resolved ghost still haunting the lobby")
		}
		if _, victory := e.Conditions.Terminal(); !victory {
			t.Error("last ghost resolved but no victory")
		}
	}
}

func TestMove_BlockedAfterCollapse(t *testing.T) {
	e := testEngine(t, Options{Seed: 1})
	e.Meters.Apply(types.MeterEffects{Stability: -100})

	if over, _ := e.Conditions.Terminal(); !over {
		t.Fatal("stability 0 did not end the game")
	}
	if _, err := e.Move("north"); err == nil {
		t.Fatal("movement should be blocked after collapse")
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	store := save.DirStore{Dir: t.TempDir()}

	e := testEngine(t, Options{Seed: 42, Store: store})
	e.Meters.Apply(types.MeterEffects{Stability: -15, Insight: 40})
	if _, err := e.Move("north"); err != nil {
		t.Fatalf("Move: %v", err)
	}
	e.DescribeRoom() // advance the ambience generator

	if err := e.Save("slot1"); err != nil {
		t.Fatalf("Save: %v", err)
	}

	restored := testEngine(t, Options{Seed: 0, Store: store})
	if err := restored.Load("slot1"); err != nil {
		t.Fatalf("Load: %v", err)
	}

	wantStab, wantIns := e.Meters.Snapshot()
	gotStab, gotIns := restored.Meters.Snapshot()
	if gotStab != wantStab || gotIns != wantIns {
		t.Errorf("meters = (%d,%d), want (%d,%d)", gotStab, gotIns, wantStab, wantIns)
	}
	if restored.CurrentRoom() != "vault" {
		t.Errorf("CurrentRoom = %q, want vault", restored.CurrentRoom())
	}
	if !restored.Progress.Unlocked("vault") {
		t.Error("vault not unlocked after load")
	}

	slots := restored.Slots()
	if len(slots) != 1 || slots[0] != "slot1" {
		t.Errorf("Slots = %v, want [slot1]", slots)
	}
}

func TestLoad_RejectsUnknownRoom(t *testing.T) {
	store := save.DirStore{Dir: t.TempDir()}
	data, err := save.Marshal(save.SaveData{Version: SaveVersion, CurrentRoom: "attic"})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if err := store.Write("bad", data); err != nil {
		t.Fatalf("Write: %v", err)
	}

	e := testEngine(t, Options{Seed: 1, Store: store})
	if err := e.Load("bad"); err == nil {
		t.Fatal("expected error for save referencing unknown room")
	}
}

func TestRNG_RestoreReproducesSequence(t *testing.T) {
	r := NewRNG(7)
	for i := 0; i < 5; i++ {
		r.Intn(64)
	}
	pos := r.Position()
	want := []int{r.Intn(64), r.Intn(64), r.Intn(64)}

	restored := RestoreRNG(7, pos)
	for i, w := range want {
		if got := restored.Intn(64); got != w {
			t.Errorf("draw %d = %d, want %d", i, got, w)
		}
	}
}

func TestRNG_PickEmpty(t *testing.T) {
	if got := NewRNG(1).Pick(nil); got != "" {
		t.Errorf("Pick(nil) = %q, want empty", got)
	}
}
