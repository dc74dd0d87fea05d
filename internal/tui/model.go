package tui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"yetify/internal/catalog"
	"yetify/internal/playback"
)

// Controller is the subset of the playback controller the terminal view drives.
type Controller interface {
	Songs() []catalog.Song
	Snapshot() playback.State
	Subscribe(fn func(playback.State)) (unsubscribe func())
	Play(song catalog.Song) error
	Toggle() error
	Next() error
	Previous() error
}

// Model is the Bubble Tea model for the terminal frontend.
type Model struct {
	ctrl   Controller
	songs  []catalog.Song
	state  playback.State
	cursor int
	width  int
	height int

	lastError error // intent error not already reflected in state
	showHelp  bool
}

// Published controller snapshot, delivered through Program.Send
type stateMsg playback.State

// Result of an intent run off the event loop
type intentMsg struct{ err error }

func New(ctrl Controller) Model {
	st := ctrl.Snapshot()
	return Model{
		ctrl:   ctrl,
		songs:  ctrl.Songs(),
		state:  st,
		cursor: st.Index,
	}
}

func (m Model) Init() tea.Cmd { return nil }

// intent runs fn as a command. The controller publishes synchronously and the
// subscription calls Program.Send, which must never happen on the event loop.
func intent(fn func() error) tea.Cmd {
	return func() tea.Msg {
		return intentMsg{err: fn()}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.songs)-1 {
				m.cursor++
			}
		case "enter":
			song := m.songs[m.cursor]
			return m, intent(func() error { return m.ctrl.Play(song) })
		case " ", "p":
			return m, intent(m.ctrl.Toggle)
		case "n":
			return m, intent(m.ctrl.Next)
		case "b":
			return m, intent(m.ctrl.Previous)
		case "?":
			m.showHelp = !m.showHelp
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case stateMsg:
		st := playback.State(msg)
		if st.Version < m.state.Version {
			return m, nil
		}
		if st.Index != m.state.Index {
			m.cursor = st.Index
		}
		m.state = st
		m.lastError = nil

	case intentMsg:
		// a failed play already arrived as a Failed snapshot
		if msg.err != nil && m.state.Status != playback.StatusFailed {
			m.lastError = msg.err
		}
	}

	return m, nil
}

// Run drives ctrl from the terminal until the user quits or ctx is cancelled.
func Run(ctx context.Context, ctrl Controller, opts ...tea.ProgramOption) error {
	opts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, opts...)
	p := tea.NewProgram(New(ctrl), opts...)

	unsubscribe := ctrl.Subscribe(func(st playback.State) {
		p.Send(stateMsg(st))
	})
	defer unsubscribe()

	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}
