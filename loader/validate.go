package loader

import (
	"fmt"
	"os"
	"strings"

	"github.com/tsellier/ghostpatch/types"
)

// ValidationError collects all validation errors and warnings.
type ValidationError struct {
	Errors   []string
	Warnings []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed with %d error(s):\n  %s",
		len(e.Errors), strings.Join(e.Errors, "\n  "))
}

var validSmells = map[types.Smell]bool{
	types.SmellCircularDependency: true,
	types.SmellMemoryLeak:         true,
	types.SmellRaceCondition:      true,
	types.SmellGodObject:          true,
	types.SmellSpaghettiCode:      true,
	types.SmellDeadCode:           true,
	types.SmellMagicNumbers:       true,
	types.SmellCopyPaste:          true,
}

// validate checks the compiled defs for referential integrity and consistency.
func validate(defs *Defs) error {
	ve := &ValidationError{}

	if defs.Game.Title == "" {
		ve.Errors = append(ve.Errors, "Game.Title is required")
	}

	if defs.Game.Start == "" {
		ve.Errors = append(ve.Errors, "Game.Start is required")
	} else if _, ok := defs.Rooms[defs.Game.Start]; !ok {
		ve.Errors = append(ve.Errors, fmt.Sprintf(
			"start room %q not found in defined rooms", defs.Game.Start))
	}

	for roomID, room := range defs.Rooms {
		for dir, target := range room.Exits {
			if _, ok := defs.Rooms[target]; !ok {
				ve.Errors = append(ve.Errors, fmt.Sprintf(
					"room %q exit %q points to undefined room %q", roomID, dir, target))
			}
		}
		if room.Complexity < 0 || room.Complexity > 1 {
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"room %q complexity %v out of [0,1]", roomID, room.Complexity))
		}
	}

	for ghostID, ghost := range defs.Ghosts {
		validateGhost(ghostID, ghost, defs, ve)
	}

	for _, w := range ve.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

func validateGhost(id string, ghost types.Ghost, defs *Defs, ve *ValidationError) {
	if !validSmells[ghost.Smell] {
		ve.Errors = append(ve.Errors, fmt.Sprintf(
			"ghost %q has unknown smell %q", id, ghost.Smell))
	}
	if ghost.Severity < 0 || ghost.Severity > 10 {
		ve.Errors = append(ve.Errors, fmt.Sprintf(
			"ghost %q severity %d out of [0,10]", id, ghost.Severity))
	}
	if len(ghost.Rooms) == 0 {
		ve.Warnings = append(ve.Warnings, fmt.Sprintf(
			"ghost %q haunts no rooms", id))
	}
	for _, roomID := range ghost.Rooms {
		if _, ok := defs.Rooms[roomID]; !ok {
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"ghost %q haunts undefined room %q", id, roomID))
		}
	}

	if len(ghost.FixPatterns) == 0 {
		ve.Errors = append(ve.Errors, fmt.Sprintf(
			"ghost %q has no fix patterns", id))
	}
	seen := map[string]bool{}
	for i, p := range ghost.FixPatterns {
		if p.ID == "" {
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"ghost %q fix_patterns[%d] missing id", id, i+1))
			continue
		}
		if seen[p.ID] {
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"ghost %q duplicate fix pattern ID %q", id, p.ID))
		}
		seen[p.ID] = true
		if p.Risk < 0 || p.Risk > 1 {
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"ghost %q fix pattern %q risk %v out of [0,1]", id, p.ID, p.Risk))
		}
		if p.Diff == "" {
			ve.Warnings = append(ve.Warnings, fmt.Sprintf(
				"ghost %q fix pattern %q has an empty diff", id, p.ID))
		}
	}

	ready := false
	for _, topic := range ghost.Topics {
		if topic.ReadySignal {
			ready = true
			break
		}
	}
	if len(ghost.Topics) > 0 && !ready {
		ve.Warnings = append(ve.Warnings, fmt.Sprintf(
			"ghost %q has topics but none signals readiness for debugging", id))
	}
}
