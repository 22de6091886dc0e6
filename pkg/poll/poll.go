package poll

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultInterval is used when no interval is configured.
const DefaultInterval = 5 * time.Second

// ErrStarted is returned by Start on a poller that already ran.
var ErrStarted = errors.New("poll: already started")

// Fetch loads one result. It must return promptly once ctx is done.
type Fetch[T any] func(ctx context.Context) (T, error)

// Handler receives the outcome of every fetch that was not superseded.
type Handler[T any] func(result T, err error)

// Option configures a Poller.
type Option func(*config)

type config struct {
	interval  time.Duration
	immediate bool
	timeout   time.Duration
}

// WithInterval sets the tick period.
func WithInterval(d time.Duration) Option {
	return func(cfg *config) {
		if d > 0 {
			cfg.interval = d
		}
	}
}

// WithImmediate runs the first fetch on Start instead of after one interval.
func WithImmediate() Option {
	return func(cfg *config) {
		cfg.immediate = true
	}
}

// WithTimeout bounds each fetch. Zero means the fetch lives until the next
// tick or Stop.
func WithTimeout(d time.Duration) Option {
	return func(cfg *config) {
		if d > 0 {
			cfg.timeout = d
		}
	}
}

// Poller runs Fetch once per tick. Each tick gets its own context; starting a
// tick cancels the fetch still running from the previous one, and results of
// cancelled fetches never reach the handler. Stop cancels the ticker and any
// in-flight fetch and waits for them to exit.
type Poller[T any] struct {
	fetch  Fetch[T]
	handle Handler[T]
	cfg    config

	mu         sync.Mutex
	started    bool
	stopped    bool
	generation uint64
	cancelTick context.CancelFunc
	stopLoop   context.CancelFunc
	loopDone   chan struct{}
	fetches    sync.WaitGroup

	discarded atomic.Uint64
}

// New builds a poller. handle may be nil when only side effects of fetch
// matter.
func New[T any](fetch Fetch[T], handle Handler[T], options ...Option) (*Poller[T], error) {
	if fetch == nil {
		return nil, errors.New("poll: fetch function is required")
	}
	cfg := config{interval: DefaultInterval}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}
	return &Poller[T]{fetch: fetch, handle: handle, cfg: cfg}, nil
}

// Start launches the tick loop. It stops when ctx is done or Stop is called.
func (p *Poller[T]) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started || p.stopped {
		return ErrStarted
	}
	p.started = true

	loopCtx, cancel := context.WithCancel(ctx)
	p.stopLoop = cancel
	p.loopDone = make(chan struct{})
	go p.loop(loopCtx)
	return nil
}

// Stop cancels the loop and the in-flight fetch, then waits for both. It is
// safe to call more than once and before Start.
func (p *Poller[T]) Stop() {
	p.mu.Lock()
	if !p.started || p.stopped {
		p.stopped = true
		p.mu.Unlock()
		p.fetches.Wait()
		return
	}
	p.stopped = true
	p.stopLoop()
	done := p.loopDone
	p.mu.Unlock()

	<-done

	p.mu.Lock()
	if p.cancelTick != nil {
		p.cancelTick()
		p.cancelTick = nil
	}
	p.mu.Unlock()
	p.fetches.Wait()
}

// Discarded reports how many fetch results were dropped because a newer tick
// or Stop superseded them.
func (p *Poller[T]) Discarded() uint64 {
	return p.discarded.Load()
}

func (p *Poller[T]) loop(ctx context.Context) {
	defer close(p.loopDone)
	ticker := time.NewTicker(p.cfg.interval)
	defer ticker.Stop()

	if p.cfg.immediate {
		p.tick(ctx)
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

func (p *Poller[T]) tick(parent context.Context) {
	p.mu.Lock()
	if p.cancelTick != nil {
		p.cancelTick()
	}
	var (
		tickCtx context.Context
		cancel  context.CancelFunc
	)
	if p.cfg.timeout > 0 {
		tickCtx, cancel = context.WithTimeout(parent, p.cfg.timeout)
	} else {
		tickCtx, cancel = context.WithCancel(parent)
	}
	p.generation++
	gen := p.generation
	p.cancelTick = cancel
	p.fetches.Add(1)
	p.mu.Unlock()

	go p.run(tickCtx, cancel, gen)
}

func (p *Poller[T]) run(ctx context.Context, cancel context.CancelFunc, gen uint64) {
	defer p.fetches.Done()
	defer cancel()

	result, err := p.fetch(ctx)

	// Delivery happens under the lock so a newer tick cannot start between
	// the staleness check and the handler call. Handlers must not call Stop.
	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.generation || p.stopped || errors.Is(ctx.Err(), context.Canceled) {
		p.discarded.Add(1)
		return
	}
	if p.handle != nil {
		p.handle(result, err)
	}
}
