package dialogue

import (
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/tsellier/ghostpatch/types"
)

func testGhost() types.Ghost {
	return types.Ghost{
		ID:          "leak",
		Name:        "The Hoarder",
		Smell:       types.SmellMemoryLeak,
		Severity:    6,
		Description: "A translucent figure clutching every object it ever held.",
		Topics: map[string]types.Topic{
			"origin": {
				Text:    "I was a cache once. Then nobody evicted me.",
				Effects: types.MeterEffects{Insight: 2},
			},
			"allocations": {
				Text:          "Fine. Here is everything I hold.",
				RequiresFlags: []string{"asked_origin"},
				ReadySignal:   true,
			},
		},
	}
}

func TestStartDialogueOpening(t *testing.T) {
	e := NewEngine(zerolog.Nop())
	id, opening, err := e.StartDialogue(testGhost())
	if err != nil {
		t.Fatalf("StartDialogue: %v", err)
	}
	if id == "" {
		t.Error("empty session id")
	}
	if !strings.Contains(opening, "translucent") {
		t.Errorf("opening = %q, want ghost description", opening)
	}
}

func TestTopicSelectionAndGating(t *testing.T) {
	e := NewEngine(zerolog.Nop())
	id, _, _ := e.StartDialogue(testGhost())

	// Gated topic is invisible until its flag is set.
	resp, err := e.ProcessPlayerInput(id, "tell me about your allocations")
	if err != nil {
		t.Fatalf("ProcessPlayerInput: %v", err)
	}
	if resp.ReadyForDebugging {
		t.Error("gated topic selected before requirement met")
	}

	resp, err = e.ProcessPlayerInput(id, "what is your origin?")
	if err != nil {
		t.Fatalf("ProcessPlayerInput: %v", err)
	}
	if !strings.Contains(resp.Text, "cache") {
		t.Errorf("origin response = %q", resp.Text)
	}
	if resp.Effects == nil || resp.Effects.Insight != 2 {
		t.Errorf("origin effects = %+v, want insight 2", resp.Effects)
	}

	// Now the gate is open and the topic signals readiness.
	resp, err = e.ProcessPlayerInput(id, "show me the allocations")
	if err != nil {
		t.Fatalf("ProcessPlayerInput: %v", err)
	}
	if !resp.ReadyForDebugging {
		t.Error("ready topic did not signal debugging")
	}
}

func TestIntentKeywordsSignalReadiness(t *testing.T) {
	e := NewEngine(zerolog.Nop())
	id, _, _ := e.StartDialogue(testGhost())

	for _, input := range []string{"let me fix this", "time to DEBUG", "I'll patch you up"} {
		resp, err := e.ProcessPlayerInput(id, input)
		if err != nil {
			t.Fatalf("ProcessPlayerInput(%q): %v", input, err)
		}
		if !resp.ReadyForDebugging {
			t.Errorf("input %q did not signal readiness", input)
		}
	}
}

func TestUnmatchedInputListsTopics(t *testing.T) {
	e := NewEngine(zerolog.Nop())
	id, _, _ := e.StartDialogue(testGhost())

	resp, err := e.ProcessPlayerInput(id, "hello?")
	if err != nil {
		t.Fatalf("ProcessPlayerInput: %v", err)
	}
	if !strings.Contains(resp.Text, "origin") {
		t.Errorf("prompt = %q, want available topic listed", resp.Text)
	}
	if strings.Contains(resp.Text, "allocations") {
		t.Errorf("prompt = %q, gated topic should be hidden", resp.Text)
	}
}

func TestUnknownSession(t *testing.T) {
	e := NewEngine(zerolog.Nop())
	if _, err := e.ProcessPlayerInput("nope", "hi"); err == nil {
		t.Error("expected error for unknown session")
	}
}

func TestEndDialogue(t *testing.T) {
	e := NewEngine(zerolog.Nop())
	id, _, _ := e.StartDialogue(testGhost())
	e.EndDialogue(id)
	if _, err := e.ProcessPlayerInput(id, "hi"); err == nil {
		t.Error("expected error after EndDialogue")
	}
}
