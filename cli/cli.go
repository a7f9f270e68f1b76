// Package cli provides terminal I/O and meta-command dispatch for the
// ghostpatch engine.
package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/tsellier/ghostpatch/engine"
	"github.com/tsellier/ghostpatch/types"
)

// CLI handles terminal interaction with the player.
type CLI struct {
	Engine    *engine.Engine
	In        io.Reader
	Out       io.Writer
	EchoInput bool // echo each input line after the prompt (for script playback)

	session string // active encounter session, if any
	options []types.PatchOption
}

// New creates a CLI wired to the given engine.
func New(eng *engine.Engine) *CLI {
	return &CLI{
		Engine: eng,
		In:     os.Stdin,
		Out:    os.Stdout,
	}
}

// Run starts the game loop: prompt → input → dispatch → output.
func (c *CLI) Run() {
	for _, line := range c.Engine.Start() {
		c.printLine(line)
	}

	scanner := bufio.NewScanner(c.In)
	for {
		c.print("> ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		// Skip comment lines (for script files).
		if strings.HasPrefix(input, "#") {
			continue
		}
		if c.EchoInput {
			c.printLine(input)
		}

		if strings.HasPrefix(input, "/") {
			if c.handleMeta(input) {
				return // /quit
			}
			continue
		}

		c.dispatch(input)

		if over, victory := c.Engine.Conditions.Terminal(); over || victory {
			if victory {
				c.printLine("Every ghost is at rest. The codebase compiles clean.")
			} else {
				c.printLine("Stability has collapsed. The system is beyond saving.")
			}
			c.printLine("Use /load to restore a save or /quit to exit.")
		}
	}
}

// dispatch routes one game command.
func (c *CLI) dispatch(input string) {
	verb, rest := splitVerb(input)

	switch verb {
	case "look", "l":
		for _, line := range c.Engine.DescribeRoom() {
			c.printLine(line)
		}

	case "go", "move", "n", "s", "e", "w":
		dir := rest
		if verb != "go" && verb != "move" {
			dir = map[string]string{"n": "north", "s": "south", "e": "east", "w": "west"}[verb]
		}
		lines, err := c.Engine.Move(dir)
		if err != nil {
			c.printLine(err.Error())
			return
		}
		for _, line := range lines {
			c.printLine(line)
		}

	case "ghosts":
		ghosts := c.Engine.GhostsHere()
		if len(ghosts) == 0 {
			c.printLine("Nothing haunts this code.")
			return
		}
		for _, g := range ghosts {
			c.printLine(fmt.Sprintf("%s (%s, severity %d) — confront %s", g.Name, g.Smell, g.Severity, g.ID))
		}

	case "confront":
		if rest == "" {
			c.printLine("Confront which ghost?")
			return
		}
		session, opening, err := c.Engine.StartEncounter(rest)
		if err != nil {
			c.printLine(err.Error())
			return
		}
		c.session = session.ID
		c.options = nil
		c.printLine(opening)

	case "say", "ask", "talk":
		if c.session == "" {
			c.printLine("You are not in an encounter. Try: confront <ghost>.")
			return
		}
		res, err := c.Engine.Converse(c.session, rest)
		if err != nil {
			c.printLine(err.Error())
			return
		}
		c.printLine(res.Text)
		if res.Phase == types.PhaseSelection {
			c.options = res.Options
			c.printOptions()
		}

	case "patches":
		if len(c.options) == 0 {
			c.printLine("No patches on offer.")
			return
		}
		c.printOptions()

	case "apply", "refactor", "question", "reject":
		if rest == "" {
			c.printLine("Which patch? List them with: patches.")
			return
		}
		res, err := c.Engine.DecidePatch(rest, types.PatchAction(verb))
		if err != nil {
			c.printLine(err.Error())
			return
		}
		c.printLine(res.Feedback)
		for _, q := range res.Consequences {
			c.printLine("  " + q.Description)
		}
		if res.Phase == types.PhaseCompleted {
			c.concludeSession()
		}

	case "done":
		if c.session == "" {
			c.printLine("Nothing to finish.")
			return
		}
		c.concludeSession()

	case "meters":
		c.printMeters()

	default:
		c.printLine("The codebase does not respond to that. Try /help.")
	}
}

func (c *CLI) concludeSession() {
	outcome, err := c.Engine.Conclude(c.session)
	if err != nil {
		c.printLine(err.Error())
		return
	}
	c.session = ""
	c.options = nil
	if outcome.Success {
		c.printLine("The encounter ends. The ghost thins and fades.")
	} else {
		c.printLine("The encounter ends badly. The ghost remains.")
	}
	for _, a := range outcome.Achievements {
		c.printSystem("achievement unlocked: " + a)
	}
	c.printMeters()
}

func (c *CLI) printOptions() {
	c.printLine("Candidate patches:")
	for _, opt := range c.options {
		c.printLine(fmt.Sprintf("  [%s] %s (risk %.2f, confidence %.2f)",
			opt.Patch.ID, opt.Patch.Description, opt.Patch.Risk, opt.Confidence))
	}
	c.printLine("Act with: apply/refactor/question/reject <patch-id>.")
}

func (c *CLI) printMeters() {
	stability, insight := c.Engine.Meters.Snapshot()
	c.printLine(fmt.Sprintf("Stability %d/100 · Insight %d/100", stability, insight))
}

// handleMeta dispatches meta-commands. Returns true if the game should exit.
func (c *CLI) handleMeta(input string) bool {
	parts := strings.Fields(input)
	cmd := parts[0]
	args := parts[1:]

	switch cmd {
	case "/quit", "/exit":
		c.printSystem("Goodbye.")
		return true

	case "/save":
		slot := "quicksave"
		if len(args) > 0 {
			slot = args[0]
		}
		if err := c.Engine.Save(slot); err != nil {
			c.printSystem(fmt.Sprintf("Save failed: %v", err))
			return false
		}
		c.printSystem(fmt.Sprintf("Game saved to %s.", slot))

	case "/load":
		slot := "quicksave"
		if len(args) > 0 {
			slot = args[0]
		}
		if err := c.Engine.Load(slot); err != nil {
			c.printSystem(fmt.Sprintf("Load failed: %v", err))
			return false
		}
		c.session = ""
		c.options = nil
		c.printSystem(fmt.Sprintf("Game loaded from %s.", slot))
		for _, line := range c.Engine.DescribeRoom() {
			c.printLine(line)
		}

	case "/timeline":
		var entries []types.TimelineEntry
		if len(args) == 0 {
			entries = c.Engine.Timeline.Entries()
		} else {
			entries = c.Engine.Timeline.Search(args...)
		}
		if len(entries) == 0 {
			c.printSystem("Timeline is empty.")
			return false
		}
		for _, e := range entries {
			c.printLine(fmt.Sprintf("%s  [%s] %s", e.ID, e.Category, e.Text))
		}

	case "/meters":
		c.printMeters()

	case "/help":
		c.cmdHelp()

	default:
		c.printSystem(fmt.Sprintf("Unknown command: %s. Type /help for available commands.", cmd))
	}

	return false
}

func (c *CLI) cmdHelp() {
	help := []string{
		"System:",
		"  /save [name]      — Save game (default: quicksave)",
		"  /load [name]      — Load game (default: quicksave)",
		"  /timeline [words] — Show or search the post-mortem timeline",
		"  /meters           — Show stability and insight",
		"  /quit             — Exit game",
		"",
		"Game commands:",
		"  look (l)                 — Describe the module you are in",
		"  go <dir> (n/s/e/w)       — Move through the codebase",
		"  ghosts                   — List ghosts haunting this code",
		"  confront <ghost>         — Start an encounter",
		"  say <anything>           — Talk to the ghost",
		"  patches                  — List the generated patch options",
		"  apply/refactor/question/reject <patch-id>",
		"  done                     — Walk away and settle the encounter",
		"  meters                   — Show stability and insight",
	}
	for _, line := range help {
		c.printLine(line)
	}
}

func splitVerb(input string) (verb, rest string) {
	parts := strings.SplitN(input, " ", 2)
	verb = strings.ToLower(parts[0])
	if len(parts) > 1 {
		rest = strings.TrimSpace(parts[1])
	}
	return verb, rest
}

func (c *CLI) printLine(text string) {
	fmt.Fprintln(c.Out, text)
}

func (c *CLI) print(text string) {
	fmt.Fprint(c.Out, text)
}

func (c *CLI) printSystem(text string) {
	fmt.Fprintf(c.Out, "[%s]\n", text)
}
