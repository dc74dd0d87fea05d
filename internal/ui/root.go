package ui

import (
	"fmt"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"go.uber.org/zap"

	"yetify/internal/catalog"
	"yetify/internal/playback"
)

const (
	WindowTitle  = "Yetify"
	windowWidth  = 420
	windowHeight = 640
)

// Controller is the part of the playback controller the window drives.
type Controller interface {
	Songs() []catalog.Song
	Snapshot() playback.State
	Subscribe(fn func(playback.State)) (unsubscribe func())
	Play(song catalog.Song) error
	Toggle() error
	Next() error
	Previous() error
}

// Root is the main window content: header, song list and player bar.
// Every widget is touched on the fyne goroutine only; controller updates
// arrive through fyne.Do.
type Root struct {
	window fyne.Window
	ctrl   Controller
	logger *zap.Logger
	songs  []catalog.Song

	list        *widget.List
	titleLabel  *widget.Label
	artistLabel *widget.Label
	posLabel    *widget.Label
	durLabel    *widget.Label
	progress    *widget.Slider
	prevBtn     *widget.Button
	toggleBtn   *widget.Button
	nextBtn     *widget.Button
	errLabel    *widget.Label

	state    playback.State
	rendered bool
	// guard to avoid reverting when the slider is updated programmatically
	updatingProgress bool

	unsubscribe func()
}

// NewRoot builds the window content, subscribes to ctrl and renders its current state.
func NewRoot(w fyne.Window, ctrl Controller, logger *zap.Logger) *Root {
	r := &Root{
		window: w,
		ctrl:   ctrl,
		logger: logger,
		songs:  ctrl.Songs(),
	}

	w.SetTitle(WindowTitle)
	w.Resize(fyne.NewSize(windowWidth, windowHeight))
	w.SetContent(container.NewBorder(r.buildHeader(), r.buildPlayerBar(), nil, nil, r.buildList()))

	r.refresh(ctrl.Snapshot())
	r.unsubscribe = ctrl.Subscribe(func(st playback.State) {
		fyne.Do(func() { r.refresh(st) })
	})
	return r
}

// Close stops listening to the controller. The window itself is left to the caller.
func (r *Root) Close() {
	if r.unsubscribe != nil {
		r.unsubscribe()
		r.unsubscribe = nil
	}
}

func (r *Root) buildHeader() fyne.CanvasObject {
	title := canvas.NewText(WindowTitle, Accent)
	title.TextStyle = fyne.TextStyle{Bold: true}
	title.TextSize = theme.Size(theme.SizeNameHeadingText)

	// decorative, does nothing
	account := widget.NewButtonWithIcon("", theme.AccountIcon(), func() {})
	account.Importance = widget.LowImportance

	return container.NewBorder(nil, widget.NewSeparator(), nil, account, container.NewPadded(title))
}

func (r *Root) buildList() fyne.CanvasObject {
	r.list = widget.NewList(
		func() int { return len(r.songs) },
		func() fyne.CanvasObject {
			title := canvas.NewText("", theme.Color(theme.ColorNameForeground))
			title.TextStyle = fyne.TextStyle{Bold: true}
			artist := canvas.NewText("", theme.Color(theme.ColorNamePlaceHolder))
			return container.NewHBox(widget.NewIcon(theme.MediaPlayIcon()), title, artist)
		},
		func(i widget.ListItemID, o fyne.CanvasObject) {
			if i < 0 || i >= len(r.songs) {
				return
			}
			r.renderRow(r.songs[i], o.(*fyne.Container))
		},
	)
	r.list.OnSelected = func(id widget.ListItemID) {
		// rows are buttons, not a selection
		r.list.Unselect(id)
		if id < 0 || id >= len(r.songs) {
			return
		}
		if err := r.ctrl.Play(r.songs[id]); err != nil {
			r.logger.Warn("play from list failed", zap.String("song", r.songs[id].Title), zap.Error(err))
		}
	}
	return r.list
}

func (r *Root) renderRow(song catalog.Song, row *fyne.Container) {
	icon := row.Objects[0].(*widget.Icon)
	title := row.Objects[1].(*canvas.Text)
	artist := row.Objects[2].(*canvas.Text)

	current := r.state.IsCurrent(song)
	if current && r.state.IsPlaying() {
		icon.SetResource(theme.MediaPauseIcon())
	} else {
		icon.SetResource(theme.MediaPlayIcon())
	}

	title.Text = song.Title
	if current {
		title.Color = Accent
	} else {
		title.Color = theme.Color(theme.ColorNameForeground)
	}
	title.Refresh()

	artist.Text = song.Artist
	artist.Refresh()
}

func (r *Root) buildPlayerBar() fyne.CanvasObject {
	r.titleLabel = widget.NewLabelWithStyle("", fyne.TextAlignLeading, fyne.TextStyle{Bold: true})
	r.artistLabel = widget.NewLabel("")
	r.posLabel = widget.NewLabel("00:00")
	r.durLabel = widget.NewLabel("00:00")

	r.progress = widget.NewSlider(0, 1)
	r.progress.Step = 0.001
	r.progress.OnChanged = func(float64) {
		if r.updatingProgress {
			return
		}
		// display only: snap back to the real position
		r.setProgress(r.state.Progress())
	}

	r.prevBtn = widget.NewButtonWithIcon("", theme.MediaSkipPreviousIcon(), func() {
		if err := r.ctrl.Previous(); err != nil {
			r.logger.Warn("previous failed", zap.Error(err))
		}
	})
	r.toggleBtn = widget.NewButtonWithIcon("", theme.MediaPlayIcon(), func() {
		if err := r.ctrl.Toggle(); err != nil {
			r.logger.Warn("toggle failed", zap.Error(err))
		}
	})
	r.toggleBtn.Importance = widget.HighImportance
	r.nextBtn = widget.NewButtonWithIcon("", theme.MediaSkipNextIcon(), func() {
		if err := r.ctrl.Next(); err != nil {
			r.logger.Warn("next failed", zap.Error(err))
		}
	})

	r.errLabel = widget.NewLabel("")
	r.errLabel.Importance = widget.DangerImportance
	r.errLabel.Wrapping = fyne.TextWrapWord
	r.errLabel.Hide()

	nowPlaying := container.NewVBox(r.titleLabel, r.artistLabel)
	buttons := container.NewHBox(r.prevBtn, r.toggleBtn, r.nextBtn)
	progressBox := container.NewBorder(nil, nil, r.posLabel, r.durLabel, r.progress)

	return container.NewVBox(
		widget.NewSeparator(),
		container.NewBorder(nil, nil, nil, buttons, nowPlaying),
		progressBox,
		r.errLabel,
	)
}

// refresh renders st unless a newer snapshot was already shown.
func (r *Root) refresh(st playback.State) {
	if r.rendered && st.Version < r.state.Version {
		return
	}
	r.state = st
	r.rendered = true

	r.titleLabel.SetText(st.Song.Title)
	r.artistLabel.SetText(st.Song.Artist)
	r.posLabel.SetText(formatDur(st.Position))
	r.durLabel.SetText(formatDur(st.Duration))
	r.setProgress(st.Progress())

	if st.IsPlaying() {
		r.toggleBtn.SetIcon(theme.MediaPauseIcon())
	} else {
		r.toggleBtn.SetIcon(theme.MediaPlayIcon())
	}

	if st.Status == playback.StatusFailed && st.Err != nil {
		r.errLabel.SetText(failureText(st.Err))
		r.errLabel.Show()
	} else {
		r.errLabel.SetText("")
		r.errLabel.Hide()
	}

	r.list.Refresh()
}

func (r *Root) setProgress(v float64) {
	r.updatingProgress = true
	r.progress.SetValue(v)
	r.updatingProgress = false
}

func failureText(err error) string {
	return fmt.Sprintf("Playback failed: %v", err)
}

func formatDur(d time.Duration) string {
	if d < 0 {
		return "00:00"
	}
	s := int(d.Seconds())
	m := s / 60
	ss := s % 60
	return fmt.Sprintf("%02d:%02d", m, ss)
}
