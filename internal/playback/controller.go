package playback

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"yetify/internal/catalog"
	"yetify/internal/player"
)

var (
	ErrClosed          = errors.New("playback controller released")
	ErrIndexOutOfRange = errors.New("song index out of range")
	ErrUnknownSong     = catalog.ErrNotFound
	ErrEmptyPlaylist   = errors.New("playlist is empty")
)

// Controller owns the single media handle and the playback state derived from it.
// All methods are safe for concurrent use; views, the polling task and backend
// completion callbacks are serialized through one mutex.
type Controller struct {
	opener       player.Opener
	songs        []catalog.Song
	logger       *zap.Logger
	pollInterval time.Duration

	mu       sync.Mutex
	handle   player.Handle
	state    State
	gen      uint64 // bumped on every play so stale completion callbacks can be dropped
	stopPoll chan struct{}
	closed   bool
	subs     []subscriber
	nextSub  int

	polls sync.WaitGroup
}

type subscriber struct {
	id int
	fn func(State)
}

func New(opener player.Opener, songs []catalog.Song, logger *zap.Logger) (*Controller, error) {
	if len(songs) == 0 {
		return nil, ErrEmptyPlaylist
	}
	list := make([]catalog.Song, len(songs))
	copy(list, songs)
	return &Controller{
		opener:       opener,
		songs:        list,
		logger:       logger,
		pollInterval: PollInterval,
		state: State{
			Song:     list[0],
			Index:    0,
			Status:   StatusIdle,
			Duration: MinDuration,
		},
	}, nil
}

// Songs returns the playlist the controller navigates.
func (c *Controller) Songs() []catalog.Song {
	out := make([]catalog.Song, len(c.songs))
	copy(out, c.songs)
	return out
}

func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Subscribe registers fn to receive every published snapshot. fn runs on the
// goroutine that caused the change, never under the controller lock.
func (c *Controller) Subscribe(fn func(State)) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs = append(c.subs, subscriber{id: id, fn: fn})
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			for i, s := range c.subs {
				if s.id == id {
					c.subs = append(c.subs[:i:i], c.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// Play releases the current handle and starts song from the beginning, even if it is already playing.
func (c *Controller) Play(song catalog.Song) error {
	idx, err := catalog.IndexOf(c.songs, song)
	if err != nil {
		return fmt.Errorf("%w: %s - %s", ErrUnknownSong, song.Artist, song.Title)
	}
	return c.PlayIndex(idx)
}

func (c *Controller) PlayIndex(i int) error {
	if i < 0 || i >= len(c.songs) {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, i)
	}
	c.mu.Lock()
	return c.playAndPublish(i)
}

// Next plays the following song, wrapping to the first after the last.
func (c *Controller) Next() error {
	c.mu.Lock()
	return c.playAndPublish(catalog.NextIndex(c.state.Index, len(c.songs)))
}

// Previous plays the preceding song, wrapping to the last before the first.
func (c *Controller) Previous() error {
	c.mu.Lock()
	return c.playAndPublish(catalog.PrevIndex(c.state.Index, len(c.songs)))
}

// Toggle pauses a playing song and resumes a paused or finished one.
// Without a handle (idle, failed or released) it does nothing.
func (c *Controller) Toggle() error {
	c.mu.Lock()
	if c.closed || c.handle == nil {
		c.mu.Unlock()
		return nil
	}

	switch c.state.Status {
	case StatusPlaying:
		if err := c.handle.Pause(); err != nil {
			c.logger.Warn("pause failed", zap.String("song", c.state.Song.Title), zap.Error(err))
			c.mu.Unlock()
			return fmt.Errorf("pause: %w", err)
		}
		c.stopPollLocked()
		c.state.Status = StatusPaused
	default:
		if err := c.handle.Start(); err != nil {
			c.logger.Warn("resume failed", zap.String("song", c.state.Song.Title), zap.Error(err))
			c.mu.Unlock()
			return fmt.Errorf("resume: %w", err)
		}
		if c.state.Status == StatusFinished {
			c.state.Position = 0
		}
		c.state.Status = StatusPlaying
		c.startPollLocked()
	}
	c.publishAndUnlock()
	return nil
}

// Release stops polling and frees the media handle. Only the first call has an effect;
// afterwards every play request fails with ErrClosed.
func (c *Controller) Release() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.stopPollLocked()
	err := c.releaseLocked()
	if c.state.Status == StatusPlaying {
		c.state.Status = StatusPaused
	}
	c.mu.Unlock()

	c.polls.Wait()
	c.logger.Debug("playback controller released")
	return err
}

// playAndPublish must be called with the lock held and always releases it.
func (c *Controller) playAndPublish(i int) error {
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	err := c.playLocked(i)
	c.publishAndUnlock()
	return err
}

func (c *Controller) playLocked(i int) error {
	c.stopPollLocked()
	if err := c.releaseLocked(); err != nil {
		c.logger.Warn("release previous handle", zap.Error(err))
	}

	c.gen++
	gen := c.gen
	song := c.songs[i]
	c.state.Song = song
	c.state.Index = i
	c.state.Position = 0
	c.state.Duration = MinDuration
	c.state.Err = nil

	h, err := c.opener.Open(string(song.Resource))
	if err != nil {
		return c.failLocked(fmt.Errorf("open %s: %w", song.Title, err))
	}
	h.OnCompletion(func() { c.onSongFinished(gen) })
	if err := h.Start(); err != nil {
		_ = h.Release()
		return c.failLocked(fmt.Errorf("start %s: %w", song.Title, err))
	}

	c.handle = h
	c.state.Duration = normalizeDuration(h.Duration())
	c.state.Status = StatusPlaying
	c.startPollLocked()

	c.logger.Info("playing",
		zap.String("song", song.Title),
		zap.String("artist", song.Artist),
		zap.Duration("duration", c.state.Duration))
	return nil
}

func (c *Controller) failLocked(err error) error {
	c.state.Status = StatusFailed
	c.state.Err = err
	c.logger.Warn("playback failed", zap.String("song", c.state.Song.Title), zap.Error(err))
	return err
}

func (c *Controller) releaseLocked() error {
	if c.handle == nil {
		return nil
	}
	h := c.handle
	c.handle = nil
	return h.Release()
}

// onSongFinished handles the backend's end-of-stream callback for the play identified by gen.
func (c *Controller) onSongFinished(gen uint64) {
	c.mu.Lock()
	if c.closed || gen != c.gen || c.handle == nil {
		c.mu.Unlock()
		return
	}
	c.stopPollLocked()
	c.state.Status = StatusFinished
	c.logger.Debug("song finished", zap.String("song", c.state.Song.Title))
	c.publishAndUnlock()
}

func (c *Controller) startPollLocked() {
	c.stopPollLocked()
	stop := make(chan struct{})
	c.stopPoll = stop
	c.polls.Add(1)
	go c.poll(stop)
}

func (c *Controller) stopPollLocked() {
	if c.stopPoll != nil {
		close(c.stopPoll)
		c.stopPoll = nil
	}
}

// poll runs until stop is closed or it is no longer the controller's current poller.
func (c *Controller) poll(stop chan struct{}) {
	defer c.polls.Done()
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		c.mu.Lock()
		// The stop channel and the tick can race; the state decides.
		if c.closed || c.stopPoll != stop || c.handle == nil || c.state.Status != StatusPlaying {
			c.mu.Unlock()
			return
		}
		pos, err := c.handle.Position()
		if err == nil {
			c.state.Position = pos
		}
		c.state.Duration = normalizeDuration(c.handle.Duration())
		c.publishAndUnlock()
	}
}

// publishAndUnlock bumps the version, releases the lock and hands the snapshot to subscribers.
func (c *Controller) publishAndUnlock() {
	c.state.Version++
	snap := c.state
	subs := make([]subscriber, len(c.subs))
	copy(subs, c.subs)
	c.mu.Unlock()

	for _, s := range subs {
		s.fn(snap)
	}
}
