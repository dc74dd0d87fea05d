package playback

import (
	"time"

	"yetify/internal/catalog"
)

// PollInterval is how often position and duration are read while playing.
const PollInterval = time.Second

// MinDuration keeps the progress ratio defined before a real duration is known.
const MinDuration = time.Millisecond

// Status is the player's coarse state.
type Status int

const (
	// StatusIdle means nothing has been opened yet.
	StatusIdle Status = iota
	StatusPlaying
	StatusPaused
	// StatusFinished means the current song played to its end. It is not advanced automatically.
	StatusFinished
	// StatusFailed means the last play attempt could not open or start the song. Err holds the cause.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "Idle"
	case StatusPlaying:
		return "Playing"
	case StatusPaused:
		return "Paused"
	case StatusFinished:
		return "Finished"
	case StatusFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// State is a snapshot of the controller, safe to keep and read from any goroutine.
type State struct {
	Song     catalog.Song
	Index    int
	Status   Status
	Position time.Duration
	Duration time.Duration
	Err      error
	// Version grows with every published change; a view can drop snapshots older than what it rendered.
	Version uint64
}

func (s State) IsPlaying() bool { return s.Status == StatusPlaying }

// IsCurrent reports whether song is the one the player bar shows.
func (s State) IsCurrent(song catalog.Song) bool { return s.Song == song }

// Progress is Position/Duration clamped to [0,1].
func (s State) Progress() float64 {
	d := s.Duration
	if d < MinDuration {
		d = MinDuration
	}
	return clamp01(float64(s.Position) / float64(d))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func normalizeDuration(d time.Duration, err error) time.Duration {
	if err != nil || d < MinDuration {
		return MinDuration
	}
	return d
}
