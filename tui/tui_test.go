package tui

import (
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/tsellier/ghostpatch/engine"
	"github.com/tsellier/ghostpatch/loader"
	"github.com/tsellier/ghostpatch/types"
)

func TestClassifyLine(t *testing.T) {
	tests := []struct {
		line string
		want lineKind
	}{
		{"Haunting this code: The Memory Leak.", kindGhosts},
		{"Exits: north, south.", kindExits},
		{"[Game saved to test.]", kindSystem},
		{"Candidate patches:", kindPatch},
		{"  [patch-1] Evict stale entries (risk 0.20, confidence 0.75)", kindPatch},
		{"no exit \"up\" from lobby", kindError},
		{"Initialization code, mostly boilerplate.", kindNarrative},
		{"", kindNarrative},
		{"'I was a quick fix once. Everyone said they would come back for me.'", kindDialogue},
	}
	for _, tt := range tests {
		got := classifyLine(tt.line)
		if got != tt.want {
			t.Errorf("classifyLine(%q) = %v, want %v", tt.line, got, tt.want)
		}
	}
}

func TestContainsQuotedSpeech(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{"'Watch the heap. It only grows and grows.'", true},
		{"It's a module.", false},
		{"No quotes here.", false},
		{"'Hi'", false},
	}
	for _, tt := range tests {
		if got := containsQuotedSpeech(tt.line); got != tt.want {
			t.Errorf("containsQuotedSpeech(%q) = %v, want %v", tt.line, got, tt.want)
		}
	}
}

func TestWordWrap(t *testing.T) {
	tests := []struct {
		text  string
		width int
		want  string
	}{
		{"short", 80, "short"},
		{"hello world", 5, "hello\nworld"},
		{"The legacy vault stretches before you in layers of commits.", 30,
			"The legacy vault stretches\nbefore you in layers of\ncommits."},
		{"", 80, ""},
		{"a b c d e", 3, "a b\nc d\ne"},
	}
	for _, tt := range tests {
		got := wordWrap(tt.text, tt.width)
		if got != tt.want {
			t.Errorf("wordWrap(%q, %d) =\n  %q\nwant:\n  %q", tt.text, tt.width, got, tt.want)
		}
	}
}

func TestMeterBar(t *testing.T) {
	tests := []struct {
		value int
		want  string
	}{
		{0, "[----------]"},
		{50, "[#####-----]"},
		{100, "[##########]"},
		{105, "[##########]"},
		{-5, "[----------]"},
	}
	for _, tt := range tests {
		if got := meterBar(tt.value); got != tt.want {
			t.Errorf("meterBar(%d) = %q, want %q", tt.value, got, tt.want)
		}
	}
}

func TestHistory_Navigation(t *testing.T) {
	h := NewHistory(5)
	h.Push("look")
	h.Push("ghosts")
	h.Push("ghosts") // consecutive duplicate skipped
	h.Push("confront leak")

	prev, ok := h.Prev()
	if !ok || prev != "confront leak" {
		t.Errorf("Prev = %q (ok=%v), want confront leak", prev, ok)
	}
	prev, _ = h.Prev()
	if prev != "ghosts" {
		t.Errorf("Prev = %q, want ghosts", prev)
	}
	prev, _ = h.Prev()
	if prev != "look" {
		t.Errorf("Prev = %q, want look", prev)
	}
	// At oldest, stays there.
	prev, _ = h.Prev()
	if prev != "look" {
		t.Errorf("Prev past oldest = %q, want look", prev)
	}

	next, _ := h.Next()
	if next != "ghosts" {
		t.Errorf("Next = %q, want ghosts", next)
	}
}

func testModel(t *testing.T) Model {
	t.Helper()
	defs := &loader.Defs{
		Game: types.GameDef{Title: "TUI Test", Start: "lobby"},
		Rooms: map[string]types.RoomDef{
			"lobby": {
				ID:          "lobby",
				Name:        "Entry Module",
				Description: "Boilerplate everywhere.",
				Exits:       map[string]string{"north": "annex"},
			},
			"annex": {ID: "annex", Name: "Annex", Description: "Quiet.", Exits: map[string]string{"south": "lobby"}},
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
	eng := engine.New(defs, engine.Options{Seed: 1}, zerolog.Nop())
	return New(eng)
}

func TestRunCommand_LookAndMove(t *testing.T) {
	m := testModel(t)

	out := strings.Join(m.runCommand("look"), "\n")
	if !strings.Contains(out, "Entry Module") {
		t.Errorf("look output missing room:\n%s", out)
	}

	out = strings.Join(m.runCommand("n"), "\n")
	if !strings.Contains(out, "Annex") {
		t.Errorf("move output missing annex:\n%s", out)
	}
}

func TestRunCommand_EncounterTracksSession(t *testing.T) {
	m := testModel(t)

	if out := m.runCommand("say hello"); !strings.Contains(out[0], "not in an encounter") {
		t.Errorf("say outside encounter = %v", out)
	}

	m.runCommand("confront leak")
	if m.session == "" {
		t.Fatal("no session recorded after confront")
	}

	out := strings.Join(m.runCommand("say tell me about the heap"), "\n")
	if !strings.Contains(out, "Candidate patches:") {
		t.Errorf("ready topic did not surface options:\n%s", out)
	}
	if len(m.options) == 0 {
		t.Fatal("options not retained on the model")
	}
}

func TestRenderStatusBar_ShowsMeters(t *testing.T) {
	m := testModel(t)
	m.width = 100

	bar := m.renderStatusBar()
	for _, want := range []string{"Entry Module", "Stab", "Ins"} {
		if !strings.Contains(bar, want) {
			t.Errorf("status bar missing %q:\n%s", want, bar)
		}
	}
}
