package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/tsellier/ghostpatch/engine"
	"github.com/tsellier/ghostpatch/types"
)

// rawLine stores an unstyled output line with its classification,
// so we can re-wrap and re-style when the terminal is resized.
type rawLine struct {
	text     string
	kind     lineKind
	isInput  bool // true for echoed player input
	isSystem bool // true for system messages
}

// Model is the Bubble Tea model for the ghostpatch TUI.
type Model struct {
	engine *engine.Engine

	viewport viewport.Model
	input    textinput.Model
	history  *History

	rawLines []rawLine // accumulated narrative lines (unstyled, for re-wrapping)

	session string // active encounter session, if any
	options []types.PatchOption

	width    int
	height   int
	ready    bool
	quitting bool
}

// gameOutputMsg carries output from the engine into the Update loop.
type gameOutputMsg struct {
	input    string   // echoed player input (empty for intro)
	lines    []string // output lines
	isSystem bool     // true for meta-command output
}

// New creates a TUI model wired to the given engine.
func New(eng *engine.Engine) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Focus()
	ti.CharLimit = 256
	ti.PromptStyle = styleInputPrompt

	return Model{
		engine:  eng,
		input:   ti,
		history: NewHistory(100),
	}
}

// Run starts the Bubble Tea program.
func Run(eng *engine.Engine) error {
	m := New(eng)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := p.Run()
	return err
}

// Init returns the initial command that produces the intro and first look.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.initialOutput())
}

func (m Model) initialOutput() tea.Cmd {
	return func() tea.Msg {
		return gameOutputMsg{lines: m.engine.Start()}
	}
}

// Update handles messages (key presses, window resize, game output).
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		vpHeight := m.height - 2 // 1 status bar + 1 input line
		if vpHeight < 1 {
			vpHeight = 1
		}

		if !m.ready {
			m.viewport = viewport.New(m.width, vpHeight)
			m.viewport.KeyMap = viewportKeyMap()
			m.ready = true
		} else {
			m.viewport.Width = m.width
			m.viewport.Height = vpHeight
		}

		m.refreshViewport()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.quitting = true
			return m, tea.Quit

		case "enter":
			return m.handleEnter()

		case "up":
			if prev, ok := m.history.Prev(); ok {
				m.input.SetValue(prev)
				m.input.CursorEnd()
			}
			return m, nil

		case "down":
			if next, ok := m.history.Next(); ok {
				m.input.SetValue(next)
				m.input.CursorEnd()
			} else {
				m.input.SetValue("")
				m.history.ResetCursor()
			}
			return m, nil

		case "pgup", "pgdown":
			var vpCmd tea.Cmd
			m.viewport, vpCmd = m.viewport.Update(msg)
			return m, vpCmd
		}

	case gameOutputMsg:
		m = m.appendOutput(msg)
	}

	var inputCmd tea.Cmd
	m.input, inputCmd = m.input.Update(msg)
	cmds = append(cmds, inputCmd)

	return m, tea.Batch(cmds...)
}

// handleEnter processes the submitted input line.
func (m Model) handleEnter() (tea.Model, tea.Cmd) {
	input := strings.TrimSpace(m.input.Value())
	m.input.SetValue("")

	if input == "" {
		return m, nil
	}

	m.history.Push(input)
	m.history.ResetCursor()

	if strings.HasPrefix(input, "/") {
		output, quit := m.handleMeta(input)
		m = m.appendOutput(gameOutputMsg{input: input, lines: output, isSystem: true})
		if quit {
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil
	}

	m = m.appendOutput(gameOutputMsg{input: input, lines: m.runCommand(input)})
	return m, nil
}

// runCommand routes one game command and returns its output lines.
func (m *Model) runCommand(input string) []string {
	verb, rest := splitVerb(input)

	switch verb {
	case "look", "l":
		return m.engine.DescribeRoom()

	case "go", "move", "n", "s", "e", "w":
		dir := rest
		if verb != "go" && verb != "move" {
			dir = map[string]string{"n": "north", "s": "south", "e": "east", "w": "west"}[verb]
		}
		lines, err := m.engine.Move(dir)
		if err != nil {
			return []string{err.Error()}
		}
		return lines

	case "ghosts":
		ghosts := m.engine.GhostsHere()
		if len(ghosts) == 0 {
			return []string{"Nothing haunts this code."}
		}
		var out []string
		for _, g := range ghosts {
			out = append(out, fmt.Sprintf("%s (%s, severity %d) — confront %s", g.Name, g.Smell, g.Severity, g.ID))
		}
		return out

	case "confront":
		if rest == "" {
			return []string{"Confront which ghost?"}
		}
		session, opening, err := m.engine.StartEncounter(rest)
		if err != nil {
			return []string{err.Error()}
		}
		m.session = session.ID
		m.options = nil
		return []string{opening}

	case "say", "ask", "talk":
		if m.session == "" {
			return []string{"You are not in an encounter. Try: confront <ghost>."}
		}
		res, err := m.engine.Converse(m.session, rest)
		if err != nil {
			return []string{err.Error()}
		}
		out := []string{res.Text}
		if res.Phase == types.PhaseSelection {
			m.options = res.Options
			out = append(out, m.optionLines()...)
		}
		return out

	case "patches":
		if len(m.options) == 0 {
			return []string{"No patches on offer."}
		}
		return m.optionLines()

	case "apply", "refactor", "question", "reject":
		if rest == "" {
			return []string{"Which patch? List them with: patches."}
		}
		res, err := m.engine.DecidePatch(rest, types.PatchAction(verb))
		if err != nil {
			return []string{err.Error()}
		}
		out := []string{res.Feedback}
		for _, q := range res.Consequences {
			out = append(out, "  "+q.Description)
		}
		if res.Phase == types.PhaseCompleted {
			out = append(out, m.concludeSession()...)
		}
		return out

	case "done":
		if m.session == "" {
			return []string{"Nothing to finish."}
		}
		return m.concludeSession()

	case "meters":
		stability, insight := m.engine.Meters.Snapshot()
		return []string{fmt.Sprintf("Stability %d/100 · Insight %d/100", stability, insight)}

	default:
		return []string{"The codebase does not respond to that. Try /help."}
	}
}

func (m *Model) concludeSession() []string {
	outcome, err := m.engine.Conclude(m.session)
	if err != nil {
		return []string{err.Error()}
	}
	m.session = ""
	m.options = nil

	var out []string
	if outcome.Success {
		out = append(out, "The encounter ends. The ghost thins and fades.")
	} else {
		out = append(out, "The encounter ends badly. The ghost remains.")
	}
	for _, a := range outcome.Achievements {
		out = append(out, "[achievement unlocked: "+a+"]")
	}
	return out
}

func (m *Model) optionLines() []string {
	out := []string{"Candidate patches:"}
	for _, opt := range m.options {
		out = append(out, fmt.Sprintf("  [%s] %s (risk %.2f, confidence %.2f)",
			opt.Patch.ID, opt.Patch.Description, opt.Patch.Risk, opt.Confidence))
	}
	return append(out, "Act with: apply/refactor/question/reject <patch-id>.")
}

// appendOutput adds lines to the narrative and refreshes the viewport.
func (m Model) appendOutput(msg gameOutputMsg) Model {
	if msg.input != "" {
		m.rawLines = append(m.rawLines, rawLine{
			text: "> " + msg.input, isInput: true,
		})
	}

	for _, line := range msg.lines {
		rl := rawLine{text: line, isSystem: msg.isSystem}
		if !msg.isSystem {
			rl.kind = classifyLine(line)
		}
		m.rawLines = append(m.rawLines, rl)
	}

	// Blank line separator between turns.
	m.rawLines = append(m.rawLines, rawLine{})

	m.refreshViewport()

	return m
}

// refreshViewport re-wraps and re-styles all raw lines at the current width
// and updates the viewport content.
func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}

	width := m.width
	if width < 10 {
		width = 10
	}

	var styled []string
	for _, rl := range m.rawLines {
		if rl.text == "" {
			styled = append(styled, "")
			continue
		}

		wrapped := wordWrap(rl.text, width)

		switch {
		case rl.isInput:
			styled = append(styled, stylePlayerInput.Render(wrapped))
		case rl.isSystem:
			styled = append(styled, styledSystemMsg(wrapped))
		default:
			styled = append(styled, renderLineKind(wrapped, rl.kind))
		}
	}

	m.viewport.SetContent(strings.Join(styled, "\n"))
	m.viewport.GotoBottom()
}

// wordWrap wraps text to fit within the given width, breaking at word
// boundaries. Preserves existing newlines within the text.
func wordWrap(text string, width int) string {
	if width <= 0 || len(text) <= width {
		return text
	}

	var result strings.Builder
	words := strings.Fields(text)
	lineLen := 0

	for i, word := range words {
		wLen := len(word)

		if i == 0 {
			result.WriteString(word)
			lineLen = wLen
			continue
		}

		if lineLen+1+wLen > width {
			result.WriteString("\n")
			result.WriteString(word)
			lineLen = wLen
		} else {
			result.WriteString(" ")
			result.WriteString(word)
			lineLen += 1 + wLen
		}
	}

	return result.String()
}

// View renders the full TUI layout: viewport + status bar + input.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Loading..."
	}

	return m.viewport.View() + "\n" + m.renderStatusBar() + "\n" + m.input.View()
}

// handleMeta dispatches meta-commands. Returns output lines and quit flag.
func (m *Model) handleMeta(input string) ([]string, bool) {
	parts := strings.Fields(input)
	cmd := parts[0]
	args := parts[1:]

	switch cmd {
	case "/quit", "/exit":
		return []string{"Goodbye."}, true

	case "/save":
		slot := "quicksave"
		if len(args) > 0 {
			slot = args[0]
		}
		if err := m.engine.Save(slot); err != nil {
			return []string{fmt.Sprintf("Save failed: %v", err)}, false
		}
		return []string{fmt.Sprintf("Game saved to %s.", slot)}, false

	case "/load":
		slot := "quicksave"
		if len(args) > 0 {
			slot = args[0]
		}
		if err := m.engine.Load(slot); err != nil {
			return []string{fmt.Sprintf("Load failed: %v", err)}, false
		}
		m.session = ""
		m.options = nil
		output := []string{fmt.Sprintf("Game loaded from %s.", slot)}
		return append(output, m.engine.DescribeRoom()...), false

	case "/timeline":
		var entries []types.TimelineEntry
		if len(args) == 0 {
			entries = m.engine.Timeline.Entries()
		} else {
			entries = m.engine.Timeline.Search(args...)
		}
		if len(entries) == 0 {
			return []string{"Timeline is empty."}, false
		}
		var out []string
		for _, e := range entries {
			out = append(out, fmt.Sprintf("%s  [%s] %s", e.ID, e.Category, e.Text))
		}
		return out, false

	case "/help":
		return m.cmdHelp(), false

	default:
		return []string{fmt.Sprintf("Unknown command: %s. Type /help for available commands.", cmd)}, false
	}
}

func (m *Model) cmdHelp() []string {
	return []string{
		"System:",
		"  /save [name]      — Save game (default: quicksave)",
		"  /load [name]      — Load game (default: quicksave)",
		"  /timeline [words] — Show or search the post-mortem timeline",
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
		"",
		"Navigation: PgUp/PgDn to scroll, Up/Down for command history",
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

// viewportKeyMap returns a viewport keymap with Up/Down disabled
// (we use those for input history).
func viewportKeyMap() viewport.KeyMap {
	return viewport.KeyMap{
		PageDown:     key.NewBinding(key.WithKeys("pgdown")),
		PageUp:       key.NewBinding(key.WithKeys("pgup")),
		HalfPageDown: key.NewBinding(key.WithKeys("ctrl+d")),
		HalfPageUp:   key.NewBinding(key.WithKeys("ctrl+u")),
		Up:           key.NewBinding(key.WithDisabled()),
		Down:         key.NewBinding(key.WithDisabled()),
	}
}
