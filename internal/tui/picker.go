// Package tui provides the interactive device picker. It renders the
// discovered GPUs and produces a device selection string for the
// configure workflow.
package tui

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"gpucfg/internal/driver"
)

// Model represents the picker state
type Model struct {
	devices  []driver.Device
	cursor   int
	selected map[int]bool

	accepted bool
	quitting bool
}

// NewModel creates a picker over the given devices
func NewModel(devices []driver.Device) Model {
	return Model{
		devices:  devices,
		selected: make(map[int]bool),
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch keyMsg.String() {
	case "ctrl+c", "q", "esc":
		m.quitting = true
		return m, tea.Quit
	case "up", "k":
		return m.navigateUp(), nil
	case "down", "j":
		return m.navigateDown(), nil
	case " ":
		return m.toggleCurrent(), nil
	case "a":
		return m.toggleAll(), nil
	case "enter":
		m.accepted = true
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

// navigateUp moves the cursor up, wrapping to the bottom
func (m Model) navigateUp() Model {
	if m.cursor > 0 {
		m.cursor--
	} else {
		m.cursor = len(m.devices) - 1
	}
	return m
}

// navigateDown moves the cursor down, wrapping to the top
func (m Model) navigateDown() Model {
	if m.cursor < len(m.devices)-1 {
		m.cursor++
	} else {
		m.cursor = 0
	}
	return m
}

// toggleCurrent flips the selection of the device under the cursor
func (m Model) toggleCurrent() Model {
	if len(m.devices) == 0 {
		return m
	}
	m.selected[m.cursor] = !m.selected[m.cursor]
	return m
}

// toggleAll selects every device, or clears the selection when every
// device is already selected
func (m Model) toggleAll() Model {
	if len(m.selected) == len(m.devices) && m.allSelected() {
		m.selected = make(map[int]bool)
		return m
	}
	for i := range m.devices {
		m.selected[i] = true
	}
	return m
}

func (m Model) allSelected() bool {
	for i := range m.devices {
		if !m.selected[i] {
			return false
		}
	}
	return len(m.devices) > 0
}

// Accepted reports whether the user confirmed the selection
func (m Model) Accepted() bool {
	return m.accepted
}

// Spec renders the confirmed selection as a device specification string.
// All devices selected collapses to "all".
func (m Model) Spec() string {
	if m.allSelected() {
		return "all"
	}

	var indices []int
	for i, on := range m.selected {
		if on {
			indices = append(indices, i)
		}
	}
	sort.Ints(indices)

	parts := make([]string, len(indices))
	for i, n := range indices {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ",")
}

// View renders the picker
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00d7ff")).MarginBottom(1)
	itemStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#ffffff"))
	itemSelectedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#000000")).Background(lipgloss.Color("#00d7ff")).Bold(true)
	detailStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#808080")).PaddingLeft(4)
	hintStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#5fafff")).MarginTop(1)

	var b strings.Builder
	b.WriteString(titleStyle.Render("gpucfg — Select Devices"))
	b.WriteString("\n\n")

	if len(m.devices) == 0 {
		b.WriteString(itemStyle.Render("No devices detected"))
		b.WriteString("\n")
		b.WriteString(hintStyle.Render("Quit: q"))
		b.WriteString("\n")
		return b.String()
	}

	for i, dev := range m.devices {
		mark := "[ ]"
		if m.selected[i] {
			mark = "[x]"
		}

		line := fmt.Sprintf("%s %d: %s", mark, dev.Ordinal, dev.Name)
		if i == m.cursor {
			b.WriteString(itemSelectedStyle.Render(line))
		} else {
			b.WriteString(itemStyle.Render(line))
		}
		b.WriteString("\n")
		b.WriteString(detailStyle.Render(fmt.Sprintf("%s, %d MiB", dev.UUID, dev.MemoryMiB)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(hintStyle.Render("Navigate: ↑/↓ | Toggle: Space | All: a | Confirm: Enter | Cancel: q/Esc"))
	b.WriteString("\n")

	return b.String()
}

// RunPicker runs the interactive picker and returns the resulting device
// specification. An empty spec with a nil error means the user confirmed
// an empty selection; a cancelled picker returns an error.
func RunPicker(devices []driver.Device) (string, error) {
	p := tea.NewProgram(NewModel(devices))

	final, err := p.Run()
	if err != nil {
		return "", fmt.Errorf("device picker failed: %w", err)
	}

	m, ok := final.(Model)
	if !ok {
		return "", fmt.Errorf("device picker returned unexpected model")
	}
	if !m.Accepted() {
		return "", fmt.Errorf("device selection cancelled")
	}
	return m.Spec(), nil
}
