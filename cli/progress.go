package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/yllada/mullvad-ping/common"
	"github.com/yllada/mullvad-ping/probe"
)

const (
	progressPadding  = 2
	progressMaxWidth = 60
)

var progressInfoStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

type (
	probedMsg   probe.Result
	finishedMsg struct{}
)

// progressModel shows how many candidates have been probed so far.
type progressModel struct {
	bar    progress.Model
	total  int
	done   int
	failed int
	last   string
}

func newProgressModel(total int) progressModel {
	return progressModel{
		bar:   progress.New(progress.WithDefaultGradient(), progress.WithWidth(progressMaxWidth)),
		total: total,
	}
}

func (m progressModel) Init() tea.Cmd {
	return nil
}

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case probedMsg:
		m.done++
		if msg.Err != nil {
			m.failed++
		}
		m.last = msg.Server.Hostname
		return m, nil

	case finishedMsg:
		return m, tea.Quit

	case tea.WindowSizeMsg:
		m.bar.Width = max(min(msg.Width-progressPadding*2-4, progressMaxWidth), 10)
		return m, nil
	}
	return m, nil
}

func (m progressModel) percent() float64 {
	if m.total == 0 {
		return 1
	}
	return float64(m.done) / float64(m.total)
}

func (m progressModel) View() string {
	pad := strings.Repeat(" ", progressPadding)
	info := fmt.Sprintf("%d/%d relays probed, %d failed", m.done, m.total, m.failed)
	if m.last != "" {
		info += " (" + m.last + ")"
	}
	return "\n" + pad + m.bar.ViewAs(m.percent()) + "\n" + pad + progressInfoStyle.Render(info) + "\n"
}

// progressReporter runs the progress bar while probes are in flight.
type progressReporter struct {
	program *tea.Program
	done    chan struct{}
}

// startProgress renders a progress bar for total probes on w until Stop.
// Keyboard input and signals are left to the caller.
func startProgress(ctx context.Context, w io.Writer, total int) *progressReporter {
	r := &progressReporter{
		program: tea.NewProgram(newProgressModel(total),
			tea.WithContext(ctx),
			tea.WithOutput(w),
			tea.WithInput(nil),
			tea.WithoutSignalHandler(),
		),
		done: make(chan struct{}),
	}

	go func() {
		defer close(r.done)
		if _, err := r.program.Run(); err != nil {
			common.LogDebug("Progress display stopped: %v", err)
		}
	}()
	return r
}

// Observe is a probe.Options OnResult callback.
func (r *progressReporter) Observe(result probe.Result) {
	r.program.Send(probedMsg(result))
}

// Stop ends the program and waits for the final frame.
func (r *progressReporter) Stop() {
	r.program.Send(finishedMsg{})
	<-r.done
}
