package viewsync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"community-service/internal/models"
	"community-service/internal/realtime"
)

// ChangeSource opens change subscriptions. *realtime.Bus satisfies it.
type ChangeSource interface {
	Subscribe(topic realtime.Topic, handler realtime.Handler) *realtime.Subscription
}

// ObserveFunc is told about every finished loader run.
type ObserveFunc func(screen, loader string, d time.Duration, err error)

// Options configure a Screen.
type Options struct {
	Name     string
	Source   ChangeSource
	Notifier Notifier
	Log      zerolog.Logger
	Observe  ObserveFunc
}

type loader struct {
	name string
	run  func(ctx context.Context) (bool, error)
	kick chan struct{}
}

type watch struct {
	topic   realtime.Topic
	loaders []string
}

// Screen keeps a set of slices in sync with the data store: loaders fill the
// slices, watches re-run loaders when matching rows change.
type Screen struct {
	opts Options

	mu       sync.Mutex
	loaders  []*loader
	byName   map[string]*loader
	watches  []watch
	subs     []*realtime.Subscription
	onUpdate func()

	active atomic.Bool
	ctx    context.Context
	cancel context.CancelFunc
}

// NewScreen creates an unmounted screen.
func NewScreen(opts Options) *Screen {
	if opts.Notifier == nil {
		opts.Notifier = Discard
	}
	return &Screen{opts: opts, byName: make(map[string]*loader)}
}

// Name returns the screen name.
func (s *Screen) Name() string { return s.opts.Name }

// Load registers a loader that fills slice with fetch.
func Load[T any](s *Screen, name string, slice *Slice[T], fetch func(ctx context.Context) (T, error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := &loader{
		name: name,
		run: func(ctx context.Context) (bool, error) {
			return Fetch(ctx, slice, fetch)
		},
		kick: make(chan struct{}, 1),
	}
	s.loaders = append(s.loaders, l)
	s.byName[name] = l
}

// Watch re-runs the named loaders (all of them when none are named) whenever
// a change matching topic arrives.
func (s *Screen) Watch(topic realtime.Topic, loaders ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watches = append(s.watches, watch{topic: topic, loaders: loaders})
}

// OnUpdate sets the callback run after a reload changed state.
func (s *Screen) OnUpdate(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onUpdate = fn
}

// SetNotifier replaces where notices go.
func (s *Screen) SetNotifier(n Notifier) {
	if n == nil {
		n = Discard
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opts.Notifier = n
}

// Notify sends a notice to the screen's notifier.
func (s *Screen) Notify(n Notice) {
	s.mu.Lock()
	notifier := s.opts.Notifier
	s.mu.Unlock()
	notifier.Notify(n)
}

// Active reports whether the screen is mounted.
func (s *Screen) Active() bool { return s.active.Load() }

// Mount subscribes to every watched topic, then runs all loaders once. A
// NotFoundError from the initial load is returned after it was notified;
// other failures are notified and leave the slice empty.
func (s *Screen) Mount(ctx context.Context) error {
	s.mu.Lock()
	if s.active.Load() {
		s.mu.Unlock()
		return fmt.Errorf("screen %s already mounted", s.opts.Name)
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	for _, w := range s.watches {
		targets := s.resolve(w.loaders)
		sub := s.opts.Source.Subscribe(w.topic, func(models.Change) {
			for _, l := range targets {
				select {
				case l.kick <- struct{}{}:
				default:
				}
			}
		})
		s.subs = append(s.subs, sub)
	}
	s.active.Store(true)
	loaders := append([]*loader(nil), s.loaders...)
	workerCtx := s.ctx
	s.mu.Unlock()

	for _, l := range loaders {
		go s.work(workerCtx, l)
	}

	var firstNotFound error
	changed := false
	for _, l := range loaders {
		applied, err := s.runLoader(workerCtx, l)
		if err != nil {
			var nf *NotFoundError
			if errors.As(err, &nf) && firstNotFound == nil {
				firstNotFound = err
			}
			continue
		}
		changed = changed || applied
	}
	if firstNotFound != nil {
		return firstNotFound
	}
	if changed {
		s.publish()
	}
	return nil
}

// Unmount closes every subscription and stops the loader workers. Loader
// runs that settle afterwards do not publish, and kicks delivered while the
// subscriptions close start no fetch.
func (s *Screen) Unmount() {
	s.active.Store(false)

	s.mu.Lock()
	subs := s.subs
	s.subs = nil
	cancel := s.cancel
	s.mu.Unlock()

	for _, sub := range subs {
		sub.Close()
	}
	if cancel != nil {
		cancel()
	}
}

// Refresh schedules the named loaders (all when none are named) on their
// workers. It never blocks.
func (s *Screen) Refresh(names ...string) {
	if !s.active.Load() {
		return
	}
	s.mu.Lock()
	targets := s.resolve(names)
	s.mu.Unlock()
	for _, l := range targets {
		select {
		case l.kick <- struct{}{}:
		default:
		}
	}
}

// Reload runs the named loaders (all when none are named) on the caller's
// goroutine and returns the first error.
func (s *Screen) Reload(ctx context.Context, names ...string) error {
	s.mu.Lock()
	targets := s.resolve(names)
	s.mu.Unlock()

	var first error
	changed := false
	for _, l := range targets {
		applied, err := s.runLoader(ctx, l)
		if err != nil {
			if first == nil {
				first = err
			}
			continue
		}
		changed = changed || applied
	}
	if changed && s.active.Load() {
		s.publish()
	}
	return first
}

func (s *Screen) work(ctx context.Context, l *loader) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-l.kick:
		}
		if !s.active.Load() {
			return
		}
		applied, err := s.runLoader(ctx, l)
		if err == nil && applied && s.active.Load() {
			s.publish()
		}
	}
}

func (s *Screen) runLoader(ctx context.Context, l *loader) (bool, error) {
	start := time.Now()
	applied, err := l.run(ctx)
	if s.opts.Observe != nil {
		s.opts.Observe(s.opts.Name, l.name, time.Since(start), err)
	}
	if err != nil {
		if ctx.Err() != nil && !s.active.Load() {
			return false, err
		}
		s.opts.Log.Error().Err(err).Str("screen", s.opts.Name).Str("loader", l.name).Msg("fetch failed")
		s.Notify(NoticeFor(err))
		return false, err
	}
	return applied, nil
}

func (s *Screen) publish() {
	s.mu.Lock()
	fn := s.onUpdate
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// resolve must be called with s.mu held.
func (s *Screen) resolve(names []string) []*loader {
	if len(names) == 0 {
		return append([]*loader(nil), s.loaders...)
	}
	out := make([]*loader, 0, len(names))
	for _, n := range names {
		if l, ok := s.byName[n]; ok {
			out = append(out, l)
		}
	}
	return out
}
