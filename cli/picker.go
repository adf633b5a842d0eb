package cli

import (
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/yllada/mullvad-ping/probe"
)

var (
	questionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ff00ff"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ff00ff"))
	choiceStyle   = lipgloss.NewStyle()
)

const pointer = "❯"

// pickerModel lets the user choose between the fastest relay and the
// runners-up.
type pickerModel struct {
	choices []probe.Result
	cursor  int
	chosen  int // -1 until a choice is made
	aborted bool
}

func newPickerModel(choices []probe.Result) pickerModel {
	return pickerModel{choices: choices, chosen: -1}
}

func (m pickerModel) Init() tea.Cmd {
	return nil
}

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "up", "k", "shift+tab":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j", "tab":
		if m.cursor < len(m.choices)-1 {
			m.cursor++
		}
	case "home", "g":
		m.cursor = 0
	case "end", "G":
		m.cursor = len(m.choices) - 1
	case "enter", " ":
		m.chosen = m.cursor
		return m, tea.Quit
	case "q", "esc", "ctrl+c":
		m.aborted = true
		return m, tea.Quit
	}
	return m, nil
}

func choiceLabel(i int, r probe.Result) string {
	tag := "[fastest]"
	if i > 0 {
		tag = fmt.Sprintf("[%d]", i)
	}
	provider := r.Server.Provider
	if provider == "" {
		provider = "Unknown"
	}
	return fmt.Sprintf("%s - %s - %s - %s - %s ms", tag, r.Server.Hostname, location(r.Server), provider, formatLatency(r.Latency))
}

func (m pickerModel) View() string {
	if m.chosen >= 0 || m.aborted {
		return ""
	}

	var b strings.Builder
	b.WriteString(questionStyle.Render("? Which server do you want to use?"))
	b.WriteString("\n")
	for i, r := range m.choices {
		label := choiceLabel(i, r)
		if i == m.cursor {
			b.WriteString(selectedStyle.Render(pointer + " " + label))
		} else {
			b.WriteString(choiceStyle.Render("  " + label))
		}
		b.WriteString("\n")
	}
	b.WriteString(progressInfoStyle.Render("↑/↓ to move, enter to select, q to cancel"))
	b.WriteString("\n")
	return b.String()
}

// pick asks the user to choose one of choices. It reports false when the
// user cancels.
func pick(in io.Reader, out io.Writer, choices []probe.Result) (probe.Result, bool, error) {
	if len(choices) == 0 {
		return probe.Result{}, false, nil
	}

	final, err := tea.NewProgram(newPickerModel(choices),
		tea.WithInput(in),
		tea.WithOutput(out),
	).Run()
	if err != nil {
		return probe.Result{}, false, fmt.Errorf("selection failed: %w", err)
	}

	m := final.(pickerModel)
	if m.chosen < 0 {
		return probe.Result{}, false, nil
	}
	return m.choices[m.chosen], true, nil
}
