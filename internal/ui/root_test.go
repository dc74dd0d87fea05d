package ui

import (
	"errors"
	"testing"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/test"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"yetify/internal/catalog"
	"yetify/internal/playback"
	"yetify/internal/player/playertest"
)

func newTestRoot(t *testing.T) (*Root, *playback.Controller, *playertest.Opener) {
	t.Helper()
	test.NewApp()
	w := test.NewWindow(nil)
	t.Cleanup(w.Close)

	opener := playertest.NewOpener()
	ctrl, err := playback.New(opener, catalog.Songs(), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = ctrl.Release() })

	r := NewRoot(w, ctrl, zap.NewNop())
	t.Cleanup(r.Close)
	return r, ctrl, opener
}

func rowAt(t *testing.T, r *Root, i int) *fyne.Container {
	t.Helper()
	row := r.list.CreateItem().(*fyne.Container)
	r.list.UpdateItem(i, row)
	return row
}

func TestInitialRender(t *testing.T) {
	r, _, _ := newTestRoot(t)

	assert.Equal(t, WindowTitle, r.window.Title())
	assert.Equal(t, "WW3", r.titleLabel.Text)
	assert.Equal(t, "Ye", r.artistLabel.Text)
	assert.Equal(t, "00:00", r.posLabel.Text)
	assert.Equal(t, 0.0, r.progress.Value)
	assert.Equal(t, theme.MediaPlayIcon(), r.toggleBtn.Icon)
	assert.False(t, r.errLabel.Visible())
	assert.Equal(t, 3, r.list.Length())
}

func TestSelectingRowPlaysSong(t *testing.T) {
	r, ctrl, opener := newTestRoot(t)

	r.list.Select(1)

	st := ctrl.Snapshot()
	assert.Equal(t, 1, st.Index)
	assert.Equal(t, playback.StatusPlaying, st.Status)
	assert.Equal(t, 1, opener.Live())

	assert.Eventually(t, func() bool { return r.titleLabel.Text == "HH" }, time.Second, 10*time.Millisecond)
}

func TestSelectingCurrentRowRestarts(t *testing.T) {
	r, _, opener := newTestRoot(t)

	r.list.Select(0)
	r.list.Select(0)

	require.Len(t, opener.Handles(), 2)
	assert.Equal(t, 1, opener.Handles()[0].Releases())
	assert.Equal(t, 1, opener.Live())
}

func TestButtonsDriveController(t *testing.T) {
	r, ctrl, _ := newTestRoot(t)

	test.Tap(r.nextBtn)
	assert.Equal(t, "HH", ctrl.Snapshot().Song.Title)

	test.Tap(r.prevBtn)
	test.Tap(r.prevBtn)
	assert.Equal(t, "Cousins", ctrl.Snapshot().Song.Title)

	test.Tap(r.toggleBtn)
	assert.Equal(t, playback.StatusPaused, ctrl.Snapshot().Status)
	test.Tap(r.toggleBtn)
	assert.Equal(t, playback.StatusPlaying, ctrl.Snapshot().Status)
}

func TestToggleWhileIdleDoesNothing(t *testing.T) {
	r, ctrl, opener := newTestRoot(t)

	test.Tap(r.toggleBtn)
	assert.Equal(t, playback.StatusIdle, ctrl.Snapshot().Status)
	assert.Empty(t, opener.Handles())
}

func TestRefreshHighlightsCurrentRow(t *testing.T) {
	r, _, _ := newTestRoot(t)
	songs := catalog.Songs()

	r.refresh(playback.State{Song: songs[1], Index: 1, Status: playback.StatusPlaying, Duration: 4 * time.Second, Position: time.Second, Version: 10})

	current := rowAt(t, r, 1)
	assert.Equal(t, theme.MediaPauseIcon(), current.Objects[0].(*widget.Icon).Resource)
	assert.Equal(t, Accent, current.Objects[1].(*canvas.Text).Color)

	other := rowAt(t, r, 0)
	assert.Equal(t, theme.MediaPlayIcon(), other.Objects[0].(*widget.Icon).Resource)
	assert.NotEqual(t, Accent, other.Objects[1].(*canvas.Text).Color)

	assert.Equal(t, theme.MediaPauseIcon(), r.toggleBtn.Icon)
	assert.InDelta(t, 0.25, r.progress.Value, 1e-9)
	assert.Equal(t, "00:01", r.posLabel.Text)
	assert.Equal(t, "00:04", r.durLabel.Text)

	// paused keeps the highlight but shows the play icon
	r.refresh(playback.State{Song: songs[1], Index: 1, Status: playback.StatusPaused, Duration: 4 * time.Second, Version: 11})
	current = rowAt(t, r, 1)
	assert.Equal(t, theme.MediaPlayIcon(), current.Objects[0].(*widget.Icon).Resource)
	assert.Equal(t, Accent, current.Objects[1].(*canvas.Text).Color)
}

func TestRefreshDropsStaleSnapshots(t *testing.T) {
	r, _, _ := newTestRoot(t)
	songs := catalog.Songs()

	r.refresh(playback.State{Song: songs[2], Index: 2, Status: playback.StatusPlaying, Duration: time.Second, Version: 5})
	r.refresh(playback.State{Song: songs[0], Index: 0, Status: playback.StatusPlaying, Duration: time.Second, Version: 4})

	assert.Equal(t, "Cousins", r.titleLabel.Text)
}

func TestSliderIsDisplayOnly(t *testing.T) {
	r, _, _ := newTestRoot(t)
	r.refresh(playback.State{Song: catalog.Songs()[0], Status: playback.StatusPlaying, Position: time.Second, Duration: 2 * time.Second, Version: 3})

	r.progress.SetValue(0.9)
	assert.InDelta(t, 0.5, r.progress.Value, 1e-9)
}

func TestFailureIsShown(t *testing.T) {
	r, ctrl, opener := newTestRoot(t)
	boom := errors.New("no audio device")
	opener.FailOpen("assets/hh.wav", boom)

	r.list.Select(1)

	st := ctrl.Snapshot()
	require.Equal(t, playback.StatusFailed, st.Status)
	r.refresh(st)

	assert.True(t, r.errLabel.Visible())
	assert.Contains(t, r.errLabel.Text, "Playback failed:")
	assert.Contains(t, r.errLabel.Text, "no audio device")
	assert.Equal(t, theme.MediaPlayIcon(), r.toggleBtn.Icon)

	test.Tap(r.nextBtn)
	r.refresh(ctrl.Snapshot())
	assert.False(t, r.errLabel.Visible())
}

func TestFormatDur(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "00:00"},
		{-time.Second, "00:00"},
		{59 * time.Second, "00:59"},
		{61*time.Second + 900*time.Millisecond, "01:01"},
		{10 * time.Minute, "10:00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatDur(tt.in), tt.in.String())
	}
}

func TestNewTheme(t *testing.T) {
	dark := NewTheme("dark")
	assert.Equal(t, Accent, dark.Color(theme.ColorNamePrimary, theme.VariantLight))
	assert.Equal(t, darkBackground, dark.Color(theme.ColorNameBackground, theme.VariantLight))
	assert.Equal(t, darkSurface, dark.Color(theme.ColorNameButton, theme.VariantLight))

	light := NewTheme("light")
	assert.NotEqual(t, darkBackground, light.Color(theme.ColorNameBackground, theme.VariantDark))
	assert.Equal(t, Accent, light.Color(theme.ColorNamePrimary, theme.VariantDark))
}
