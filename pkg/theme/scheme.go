package theme

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ffs-ui/ffs/pkg/util"
)

// SchemeSource reports the system light/dark preference.
type SchemeSource interface {
	// PrefersDark returns the current preference; ok is false when it is
	// unknown.
	PrefersDark(ctx context.Context) (dark, ok bool)

	// OnChange registers fn for preference changes and returns a function
	// that unregisters it.
	OnChange(fn func(dark bool)) (off func())
}

// StaticScheme is a fixed preference.
type StaticScheme struct {
	Dark bool
}

func (s StaticScheme) PrefersDark(context.Context) (bool, bool) { return s.Dark, true }
func (StaticScheme) OnChange(func(bool)) func()                 { return func() {} }

// ChannelScheme is a preference pushed by the caller, e.g. from a
// desktop settings portal or a test.
type ChannelScheme struct {
	mu   sync.Mutex
	dark bool
	next int
	subs map[int]func(bool)
}

// NewChannelScheme creates a pushed scheme with an initial preference.
func NewChannelScheme(dark bool) *ChannelScheme {
	return &ChannelScheme{dark: dark, subs: make(map[int]func(bool))}
}

func (s *ChannelScheme) PrefersDark(context.Context) (bool, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dark, true
}

func (s *ChannelScheme) OnChange(fn func(bool)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	id := s.next
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// Set updates the preference and notifies subscribers if it changed.
func (s *ChannelScheme) Set(dark bool) {
	s.mu.Lock()
	if s.dark == dark {
		s.mu.Unlock()
		return
	}
	s.dark = dark
	subs := make([]func(bool), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(dark)
	}
}

// Detector reports the system preference; ok is false when detection
// failed.
type Detector func(ctx context.Context) (dark, ok bool)

// PollScheme polls a detector and reports changes.
type PollScheme struct {
	detect   Detector
	interval time.Duration
}

// NewPollScheme polls detect every interval.
func NewPollScheme(detect Detector, interval time.Duration) *PollScheme {
	return &PollScheme{detect: detect, interval: interval}
}

func (s *PollScheme) PrefersDark(ctx context.Context) (bool, bool) {
	return s.detect(ctx)
}

// OnChange starts a polling goroutine for fn; off stops it.
func (s *PollScheme) OnChange(fn func(bool)) func() {
	ctx, cancel := context.WithCancel(context.Background())
	last, known := s.detect(ctx)
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				dark, ok := s.detect(ctx)
				if !ok || (known && dark == last) {
					continue
				}
				last, known = dark, true
				fn(dark)
			}
		}
	}()
	return cancel
}

// WatchOption configures WatchSystem.
type WatchOption func(*watchConfig)

type watchConfig struct {
	debounce time.Duration
}

// WithDebounce coalesces preference changes arriving within d.
func WithDebounce(d time.Duration) WatchOption {
	return func(c *watchConfig) { c.debounce = d }
}

// WatchSystem follows the system preference: dark selects the dark theme,
// anything else the default theme. It applies once immediately and again
// on every change until stop is called.
func (m *Manager) WatchSystem(ctx context.Context, src SchemeSource, opts ...WatchOption) (stop func()) {
	var cfg watchConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	apply := func(dark bool) {
		name := m.defaultTheme
		if dark {
			name = Dark
		}
		if err := m.Set(ctx, name); err != nil {
			m.logger.Warn("follow system theme", "theme", name, "err", err)
		}
	}

	dark, ok := src.PrefersDark(ctx)
	apply(ok && dark)

	var latest atomic.Bool
	onChange := apply
	cancel := func() {}
	if cfg.debounce > 0 {
		var call func()
		call, cancel = util.Debounce(cfg.debounce, func() { apply(latest.Load()) })
		onChange = func(dark bool) {
			latest.Store(dark)
			call()
		}
	}
	off := src.OnChange(onChange)
	return func() {
		off()
		cancel()
	}
}
