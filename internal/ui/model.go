// Package ui renders the client state in the terminal and maps key presses
// to recorder and file-upload actions.
package ui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"voice-query-client/internal/models"
	"voice-query-client/internal/service/presentation"
)

// Recorder is the record/stop control. *capture.Controller implements it.
type Recorder interface {
	Start(ctx context.Context) error
	Stop() error
}

// FileSubmitter uploads a chosen file. *submission.Pipeline implements it.
type FileSubmitter interface {
	SubmitFile(ctx context.Context, path string) (*models.ProcessingResult, error)
}

type stateMsg models.UIState

type closedMsg struct{}

// actionDoneMsg ends a background action. Its error is already reflected in
// the UI state by the sink.
type actionDoneMsg struct{ err error }

// Model is the bubbletea model of the recorder screen.
type Model struct {
	ctx      context.Context
	recorder Recorder
	files    FileSubmitter
	states   <-chan models.UIState
	styles   styles

	state models.UIState

	picking bool
	path    string
}

// New creates the model. states is a sink subscription and initial the
// snapshot taken when subscribing.
func New(ctx context.Context, recorder Recorder, files FileSubmitter, states <-chan models.UIState, initial models.UIState) Model {
	return Model{
		ctx:      ctx,
		recorder: recorder,
		files:    files,
		states:   states,
		styles:   newStyles(),
		state:    initial,
	}
}

// State returns the last state received.
func (m Model) State() models.UIState { return m.state }

func (m Model) Init() tea.Cmd {
	return waitForState(m.states)
}

func waitForState(states <-chan models.UIState) tea.Cmd {
	return func() tea.Msg {
		st, ok := <-states
		if !ok {
			return closedMsg{}
		}
		return stateMsg(st)
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case stateMsg:
		m.state = models.UIState(msg)
		return m, waitForState(m.states)

	case closedMsg:
		return m, tea.Quit

	case actionDoneMsg:
		return m, nil

	case tea.KeyMsg:
		if m.picking {
			return m.updatePicker(msg)
		}
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "r":
			if !m.state.RecordEnabled {
				return m, nil
			}
			return m, m.run(func(ctx context.Context) error { return m.recorder.Start(ctx) })
		case "s":
			if !m.state.StopEnabled {
				return m, nil
			}
			return m, m.run(func(context.Context) error { return m.recorder.Stop() })
		case "f":
			m.picking = true
			m.path = ""
			return m, nil
		}
	}
	return m, nil
}

func (m Model) updatePicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyEsc:
		m.picking = false
		m.path = ""
		return m, nil
	case tea.KeyEnter:
		path := strings.TrimSpace(m.path)
		m.picking = false
		m.path = ""
		return m, m.run(func(ctx context.Context) error {
			_, err := m.files.SubmitFile(ctx, path)
			return err
		})
	case tea.KeyBackspace:
		if r := []rune(m.path); len(r) > 0 {
			m.path = string(r[:len(r)-1])
		}
		return m, nil
	case tea.KeyRunes, tea.KeySpace:
		m.path += string(msg.Runes)
		return m, nil
	}
	return m, nil
}

func (m Model) run(action func(ctx context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return actionDoneMsg{err: action(ctx)}
	}
}

func (m Model) View() string {
	s := m.styles
	st := m.state

	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		s.title.Render("VOICE QUERY"), "  ", s.timer.Render(st.Timer))

	buttons := lipgloss.JoinHorizontal(lipgloss.Top,
		m.button("r", "Record", st.RecordEnabled), " ",
		m.button("s", "Stop", st.StopEnabled), " ",
		m.button("f", "Send file", true))

	lines := []string{
		header,
		buttons,
		m.renderStatus(),
		"",
		s.label.Render("Transcript"),
		s.body.Render(orDash(st.Transcript)),
		"",
		s.label.Render("Answer"),
		s.body.Render(orDash(st.Answer)),
	}
	if st.AudioSource != "" {
		lines = append(lines, "", s.muted.Render("audio: "+st.AudioSource))
	}
	if m.picking {
		lines = append(lines, "", s.label.Render("File: ")+s.input.Render(m.path+"█"),
			s.muted.Render("enter to send, esc to cancel"))
	}
	lines = append(lines, "", m.help())
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m Model) renderStatus() string {
	switch m.state.Status {
	case presentation.StatusFailed, presentation.StatusMicUnavailable:
		return m.styles.failed.Render(m.state.Status)
	case presentation.StatusDone:
		return m.styles.done.Render(m.state.Status)
	default:
		return m.styles.status.Render(m.state.Status)
	}
}

func (m Model) button(key, label string, enabled bool) string {
	if enabled {
		return m.styles.enabled.Render(key + " " + label)
	}
	return m.styles.disabled.Render(key + " " + label)
}

func (m Model) help() string {
	parts := []string{}
	for _, kb := range [][2]string{{"r", "record"}, {"s", "stop"}, {"f", "file"}, {"q", "quit"}} {
		parts = append(parts, m.styles.helpKey.Render(kb[0])+m.styles.muted.Render(":"+kb[1]))
	}
	return strings.Join(parts, " ")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
