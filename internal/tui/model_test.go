package tui

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"yetify/internal/catalog"
	"yetify/internal/playback"
	"yetify/internal/player/playertest"
)

func newTestModel(t *testing.T) (Model, *playback.Controller, *playertest.Opener) {
	t.Helper()
	opener := playertest.NewOpener()
	ctrl, err := playback.New(opener, catalog.Songs(), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = ctrl.Release() })
	return New(ctrl), ctrl, opener
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// press feeds key to the model, runs the resulting intent and delivers the
// controller's latest snapshot the way the subscription would.
func press(t *testing.T, m Model, ctrl *playback.Controller, key tea.KeyMsg) Model {
	t.Helper()
	next, cmd := m.Update(key)
	m = next.(Model)
	if cmd == nil {
		return m
	}
	result := cmd()
	next, _ = m.Update(stateMsg(ctrl.Snapshot()))
	m = next.(Model)
	next, _ = m.Update(result)
	return next.(Model)
}

func TestInitialView(t *testing.T) {
	m, _, _ := newTestModel(t)
	view := m.View()

	assert.Contains(t, view, "Yetify")
	for _, s := range catalog.Songs() {
		assert.Contains(t, view, s.Title)
	}
	assert.Contains(t, view, "00:00/00:00")
	assert.NotContains(t, view, "⏸")
	assert.Nil(t, m.Init())
}

func TestCursorMovesAndEnterPlays(t *testing.T) {
	m, ctrl, opener := newTestModel(t)

	m = press(t, m, ctrl, tea.KeyMsg{Type: tea.KeyDown})
	m = press(t, m, ctrl, runes("j"))
	m = press(t, m, ctrl, runes("j"))
	assert.Equal(t, 2, m.cursor, "cursor stops at the last row")

	m = press(t, m, ctrl, runes("k"))
	assert.Equal(t, 1, m.cursor)
	assert.Empty(t, opener.Handles(), "moving the cursor plays nothing")

	m = press(t, m, ctrl, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, "HH", ctrl.Snapshot().Song.Title)
	assert.Equal(t, playback.StatusPlaying, m.state.Status)
	assert.Contains(t, m.View(), "⏸")
}

func TestTransportKeys(t *testing.T) {
	m, ctrl, opener := newTestModel(t)

	m = press(t, m, ctrl, tea.KeyMsg{Type: tea.KeyEnter})
	m = press(t, m, ctrl, runes("n"))
	m = press(t, m, ctrl, runes("n"))
	m = press(t, m, ctrl, runes("n"))
	assert.Equal(t, "WW3", m.state.Song.Title)
	assert.Equal(t, 0, m.cursor, "cursor follows the current song")
	assert.Equal(t, 1, opener.MaxLive())

	m = press(t, m, ctrl, runes("b"))
	assert.Equal(t, "Cousins", m.state.Song.Title)

	m = press(t, m, ctrl, tea.KeyMsg{Type: tea.KeySpace})
	assert.Equal(t, playback.StatusPaused, m.state.Status)
	m = press(t, m, ctrl, runes("p"))
	assert.Equal(t, playback.StatusPlaying, m.state.Status)
}

func TestQuit(t *testing.T) {
	m, _, _ := newTestModel(t)
	for _, key := range []tea.KeyMsg{runes("q"), {Type: tea.KeyCtrlC}} {
		_, cmd := m.Update(key)
		require.NotNil(t, cmd)
		assert.IsType(t, tea.QuitMsg{}, cmd())
	}
}

func TestFailureIsShown(t *testing.T) {
	m, ctrl, opener := newTestModel(t)
	opener.FailOpen("assets/ww3.wav", errors.New("no audio device"))

	m = press(t, m, ctrl, tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, playback.StatusFailed, m.state.Status)
	assert.Contains(t, m.View(), "Playback failed:")
	assert.Contains(t, m.View(), "no audio device")
	assert.Nil(t, m.lastError, "failure is shown once, from the state")

	m = press(t, m, ctrl, runes("n"))
	assert.NotContains(t, m.View(), "Playback failed:")
}

func TestStaleSnapshotIgnored(t *testing.T) {
	m, _, _ := newTestModel(t)
	songs := catalog.Songs()

	next, _ := m.Update(stateMsg(playback.State{Song: songs[2], Index: 2, Status: playback.StatusPlaying, Version: 7}))
	m = next.(Model)
	next, _ = m.Update(stateMsg(playback.State{Song: songs[1], Index: 1, Status: playback.StatusPlaying, Version: 6}))
	m = next.(Model)

	assert.Equal(t, "Cousins", m.state.Song.Title)
}

func TestProgressRendering(t *testing.T) {
	m, _, _ := newTestModel(t)
	next, _ := m.Update(stateMsg(playback.State{
		Song:     catalog.Songs()[0],
		Status:   playback.StatusPlaying,
		Position: 90 * time.Second,
		Duration: 3 * time.Minute,
		Version:  1,
	}))
	m = next.(Model)

	assert.Contains(t, m.View(), "01:30/03:00")
	assert.Contains(t, progressBar(-1, 4), "────")
	assert.Contains(t, progressBar(1.5, 4), "████")
}

func TestHelpToggle(t *testing.T) {
	m, _, _ := newTestModel(t)
	assert.Contains(t, m.View(), "Press ? for help")

	next, _ := m.Update(runes("?"))
	assert.Contains(t, next.(Model).View(), "space/p play/pause")
}
