package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/tsellier/ghostpatch/engine"
	"github.com/tsellier/ghostpatch/engine/save"
	"github.com/tsellier/ghostpatch/loader"
	"github.com/tsellier/ghostpatch/types"
)

// testDefs returns minimal game definitions for CLI testing.
func testDefs() *loader.Defs {
	return &loader.Defs{
		Game: types.GameDef{
			Title: "Test Haunt",
			Start: "lobby",
			Intro: "Welcome to the haunt.",
		},
		Rooms: map[string]types.RoomDef{
			"lobby": {
				ID:          "lobby",
				Name:        "Entry Module",
				Description: "Boilerplate everywhere.",
				Exits:       map[string]string{"north": "annex"},
			},
			"annex": {
				ID:          "annex",
				Name:        "Annex",
				Description: "A quiet utility package.",
				Exits:       map[string]string{"south": "lobby"},
			},
		},
		Ghosts: map[string]types.Ghost{
			"leak": {
				ID:       "leak",
				Name:     "The Memory Leak",
				Smell:    types.SmellMemoryLeak,
				Severity: 4,
				Rooms:    []string{"lobby"},
				Topics: map[string]types.Topic{
					"heap": {Text: "The heap only grows.", ReadySignal: true},
				},
				FixPatterns: []types.FixPattern{
					{ID: "evict", Description: "Evict stale entries", Diff: "+ evict()\n", Risk: 0.2, Stability: 6, Insight: 5},
				},
			},
		},
	}
}

func newTestCLI(t *testing.T, input string) (*CLI, *bytes.Buffer) {
	t.Helper()
	eng := engine.New(testDefs(), engine.Options{
		Seed:  1,
		Store: save.DirStore{Dir: t.TempDir()},
	}, zerolog.Nop())
	var out bytes.Buffer
	return &CLI{
		Engine: eng,
		In:     strings.NewReader(input),
		Out:    &out,
	}, &out
}

func TestRun_IntroAndLook(t *testing.T) {
	c, out := newTestCLI(t, "look\n/quit\n")
	c.Run()
	got := out.String()
	for _, want := range []string{"Welcome to the haunt.", "Entry Module", "Goodbye."} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestRun_MoveAndShortDirections(t *testing.T) {
	c, out := newTestCLI(t, "n\ns\n/quit\n")
	c.Run()
	got := out.String()
	if !strings.Contains(got, "Annex") {
		t.Errorf("output missing annex after n:\n%s", got)
	}
}

func TestRun_GhostsListing(t *testing.T) {
	c, out := newTestCLI(t, "ghosts\n/quit\n")
	c.Run()
	if !strings.Contains(out.String(), "The Memory Leak") {
		t.Errorf("ghost listing missing:\n%s", out.String())
	}
}

func TestRun_EncounterScript(t *testing.T) {
	script := strings.Join([]string{
		"# confront the leak and push a patch through",
		"confront leak",
		"say tell me about the heap",
		"patches",
		"apply patch-1",
		"/quit",
		"",
	}, "\n")

	c, out := newTestCLI(t, script)
	c.Run()
	got := out.String()

	for _, want := range []string{"Candidate patches:", "risk 0.20", "The encounter ends"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestRun_SayOutsideEncounter(t *testing.T) {
	c, out := newTestCLI(t, "say hello\n/quit\n")
	c.Run()
	if !strings.Contains(out.String(), "not in an encounter") {
		t.Errorf("missing guidance:\n%s", out.String())
	}
}

func TestRun_SaveAndLoad(t *testing.T) {
	c, out := newTestCLI(t, "/save slot1\n/load slot1\n/quit\n")
	c.Run()
	got := out.String()
	if !strings.Contains(got, "Game saved to slot1.") {
		t.Errorf("save confirmation missing:\n%s", got)
	}
	if !strings.Contains(got, "Game loaded from slot1.") {
		t.Errorf("load confirmation missing:\n%s", got)
	}
}

func TestRun_TimelineShowsExploration(t *testing.T) {
	c, out := newTestCLI(t, "/timeline\n/timeline quux\n/quit\n")
	c.Run()
	got := out.String()
	// Starting the game already records the first room entry.
	if !strings.Contains(got, "[exploration] Entered lobby.") {
		t.Errorf("expected room entry in timeline:\n%s", got)
	}
	if !strings.Contains(got, "Timeline is empty.") {
		t.Errorf("expected empty notice for unmatched search:\n%s", got)
	}
}

func TestRun_UnknownCommand(t *testing.T) {
	c, out := newTestCLI(t, "frobnicate\n/wat\n/quit\n")
	c.Run()
	got := out.String()
	if !strings.Contains(got, "does not respond") {
		t.Errorf("unknown verb response missing:\n%s", got)
	}
	if !strings.Contains(got, "Unknown command: /wat") {
		t.Errorf("unknown meta response missing:\n%s", got)
	}
}

func TestRun_MetersCommand(t *testing.T) {
	c, out := newTestCLI(t, "meters\n/quit\n")
	c.Run()
	if !strings.Contains(out.String(), "Stability 80/100") {
		t.Errorf("meters output missing:\n%s", out.String())
	}
}
