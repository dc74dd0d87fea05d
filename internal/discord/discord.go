//go:build !android && !ios

package discord

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/hugolgst/rich-go/client"
	"go.uber.org/zap"

	"yetify/internal/catalog"
	"yetify/internal/playback"
)

const (
	reconnectCooldown = 2 * time.Second
	largeImage        = "yetify_logo"
	appName           = "Yetify"
)

// Presence mirrors the controller's state into Discord Rich Presence.
// Failures never reach the player: they are logged and the next change retries.
// Snapshots are applied on a worker goroutine so IPC never blocks the publisher.
type Presence struct {
	clientID string
	logger   *zap.Logger

	// rich-go entry points, replaceable in tests
	login        func(string) error
	logout       func()
	setActivity  func(client.Activity) error
	ipcAvailable func() bool
	now          func() time.Time

	pendMu     sync.Mutex
	pending    playback.State
	hasPending bool
	wake       chan struct{}
	quit       chan struct{}
	startOnce  sync.Once
	stopOnce   sync.Once
	worker     sync.WaitGroup

	mu          sync.Mutex
	connected   bool
	lastAttempt time.Time
	seen        bool
	lastVersion uint64
	// song being listened to, tracked even while nothing can be pushed
	current    catalog.Song
	hasCurrent bool
	startTime  time.Time
	// what Discord currently shows
	shown        bool
	shownSong    catalog.Song
	shownPlaying bool
}

func NewPresence(clientID string, logger *zap.Logger) *Presence {
	return &Presence{
		clientID:     clientID,
		logger:       logger,
		login:        client.Login,
		logout:       client.Logout,
		setActivity:  client.SetActivity,
		ipcAvailable: ipcAvailable,
		now:          time.Now,
		wake:         make(chan struct{}, 1),
		quit:         make(chan struct{}),
	}
}

// Connect initializes the Discord RPC connection.
func (p *Presence) Connect() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.connected {
		return nil
	}
	p.lastAttempt = p.now()
	if err := p.login(p.clientID); err != nil {
		return fmt.Errorf("discord login: %w", err)
	}
	p.connected = true
	return nil
}

// Observe queues st for publishing and returns immediately. Only the newest
// queued snapshot is kept.
func (p *Presence) Observe(st playback.State) {
	p.startOnce.Do(func() {
		p.worker.Add(1)
		go p.run()
	})

	p.pendMu.Lock()
	if !p.hasPending || st.Version >= p.pending.Version {
		p.pending = st
		p.hasPending = true
	}
	p.pendMu.Unlock()

	select {
	case p.wake <- struct{}{}:
	default:
	}
}

func (p *Presence) run() {
	defer p.worker.Done()
	for {
		select {
		case <-p.quit:
			return
		case <-p.wake:
		}
		p.pendMu.Lock()
		st, ok := p.pending, p.hasPending
		p.hasPending = false
		p.pendMu.Unlock()
		if ok {
			p.apply(st)
		}
	}
}

// apply publishes st if the song or the play/pause flag changed since the last push.
// Snapshots older than one already applied are dropped.
func (p *Presence) apply(st playback.State) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.seen && st.Version < p.lastVersion {
		return
	}
	p.seen = true
	p.lastVersion = st.Version

	if st.Status == playback.StatusIdle || st.Status == playback.StatusFailed {
		p.hasCurrent = false
		if p.shown {
			p.clearLocked()
		}
		return
	}

	if !p.hasCurrent || st.Song != p.current {
		p.current = st.Song
		p.hasCurrent = true
		p.startTime = p.now()
	}

	playing := st.IsPlaying()
	if p.shown && st.Song == p.shownSong && playing == p.shownPlaying {
		return
	}
	if !p.ensureConnectedLocked() {
		return
	}

	start := p.startTime
	activity := client.Activity{
		Details:    st.Song.Title,
		State:      st.Song.Artist,
		LargeImage: largeImage,
		LargeText:  appName,
		Timestamps: &client.Timestamps{Start: &start},
	}
	if playing {
		activity.SmallImage = "play"
		activity.SmallText = "Playing"
	} else {
		activity.SmallImage = "pause"
		activity.SmallText = "Paused"
	}

	if err := p.setActivity(activity); err != nil {
		p.handleErrorLocked(err)
		return
	}
	p.shown = true
	p.shownSong = st.Song
	p.shownPlaying = playing
}

func (p *Presence) clearLocked() {
	p.shown = false
	if !p.connected {
		return
	}
	if err := p.setActivity(client.Activity{}); err != nil {
		p.handleErrorLocked(err)
	}
}

// Disconnect stops the worker and closes the Discord RPC connection.
// Later Observe calls are dropped.
func (p *Presence) Disconnect() {
	// waits for an in-flight start and prevents a later one
	p.startOnce.Do(func() {})
	p.stopOnce.Do(func() { close(p.quit) })
	p.worker.Wait()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.connected {
		p.logout()
		p.connected = false
	}
	p.shown = false
}

// ensureConnectedLocked reconnects opportunistically, at most once per cooldown.
func (p *Presence) ensureConnectedLocked() bool {
	if p.connected {
		return true
	}
	if p.now().Sub(p.lastAttempt) < reconnectCooldown || !p.ipcAvailable() {
		return false
	}
	p.lastAttempt = p.now()
	if err := p.login(p.clientID); err != nil {
		p.logger.Debug("discord reconnect failed", zap.Error(err))
		return false
	}
	p.connected = true
	return true
}

func (p *Presence) handleErrorLocked(err error) {
	if isBrokenPipe(err) {
		// Discord restarted or closed; drop the session and let the next change reconnect.
		p.logout()
		p.connected = false
		p.shown = false
		return
	}
	p.logger.Warn("discord presence update failed", zap.Error(err))
}

func isBrokenPipe(err error) bool {
	s := strings.ToLower(err.Error())
	for _, marker := range []string{"broken pipe", "use of closed network connection", "connection reset", "eof"} {
		if strings.Contains(s, marker) {
			return true
		}
	}
	return false
}

// ipcAvailable checks for a Discord IPC socket on this OS.
func ipcAvailable() bool {
	var pattern string
	switch runtime.GOOS {
	case "linux":
		pattern = filepath.Join(fmt.Sprintf("/run/user/%d", os.Getuid()), "discord-ipc-*")
	case "darwin":
		pattern = "/tmp/discord-ipc-*"
	default:
		return true
	}
	matches, _ := filepath.Glob(pattern)
	for _, m := range matches {
		if c, err := net.DialTimeout("unix", m, 200*time.Millisecond); err == nil {
			_ = c.Close()
			return true
		}
	}
	return false
}
