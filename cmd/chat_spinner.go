package cmd

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/bnema/lingua-cli/internal/domain"
	"github.com/bnema/lingua-cli/internal/ports"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type chatStartedMsg struct{}

type chatDoneMsg struct {
	err error
}

type chatSpinnerModel struct {
	spinner spinner.Model
	label   string
	done    bool
}

func newChatSpinnerModel(label string) chatSpinnerModel {
	s := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("69"))),
	)

	return chatSpinnerModel{
		spinner: s,
		label:   label,
	}
}

func (m chatSpinnerModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m chatSpinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case chatStartedMsg, chatDoneMsg:
		m.done = true
		return m, tea.Quit
	default:
		return m, nil
	}
}

func (m chatSpinnerModel) View() string {
	if m.done {
		return ""
	}
	return fmt.Sprintf("%s %s", m.spinner.View(), m.label)
}

// gateSink holds the first fragment until the spinner has left the screen,
// then passes everything through unchanged. Fragments are never reordered
// or dropped; the first caller simply waits for the terminal handover.
type gateSink struct {
	inner   ports.Sink
	once    sync.Once
	started func()
	release <-chan struct{}
}

func (g *gateSink) Fragment(text string) error {
	g.once.Do(func() {
		g.started()
		<-g.release
	})
	return g.inner.Fragment(text)
}

// streamWithSpinner dispatches the request while a spinner occupies stderr,
// handing the terminal over to the streaming sink on the first fragment.
func streamWithSpinner(ctx context.Context, a *app, req domain.ChatRequest, sink ports.Sink, spinnerOut io.Writer, label string) error {
	release := make(chan struct{})
	program := tea.NewProgram(
		newChatSpinnerModel(label),
		tea.WithOutput(spinnerOut),
		tea.WithoutSignalHandler(),
		tea.WithInput(nil),
	)

	gated := &gateSink{
		inner:   sink,
		started: func() { program.Send(chatStartedMsg{}) },
		release: release,
	}

	dispatchDone := make(chan error, 1)
	go func() {
		err := a.dispatcher.Dispatch(ctx, req, gated)
		program.Send(chatDoneMsg{err: err})
		dispatchDone <- err
	}()

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("run spinner: %w", err)
	}
	close(release)

	return <-dispatchDone
}
