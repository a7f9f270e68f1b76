package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// meterBar renders a ten-segment meter like [########--].
func meterBar(value int) string {
	filled := value / 10
	if filled < 0 {
		filled = 0
	}
	if filled > 10 {
		filled = 10
	}
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", 10-filled) + "]"
}

// renderStatusBar produces a full-width inverted status line showing the
// current room, its exits, and both meters. Stability turns red when it
// drops below 30.
func (m Model) renderStatusBar() string {
	room, ok := m.engine.Defs.Rooms[m.engine.CurrentRoom()]
	roomName := m.engine.CurrentRoom()
	var dirs []string
	if ok {
		roomName = room.Name
		for dir := range room.Exits {
			dirs = append(dirs, dir)
		}
		sort.Strings(dirs)
	}

	left := fmt.Sprintf(" %s | Exits: %s", roomName, strings.Join(dirs, ","))

	stability, insight := m.engine.Meters.Snapshot()
	stabStyle := styleStabilityOK
	if stability < 30 {
		stabStyle = styleStabilityLow
	}
	right := stabStyle.Render(fmt.Sprintf("Stab %s %d", meterBar(stability), stability)) +
		"  " +
		styleInsight.Render(fmt.Sprintf("Ins %s %d ", meterBar(insight), insight))

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}

	bar := left + strings.Repeat(" ", gap) + right
	return styleStatusBar.Width(m.width).Render(bar)
}
