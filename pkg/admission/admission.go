// Package admission implements the adaptive load-shedding controller
// that protects the render pipeline under sustained latency spikes.
//
// The controller samples whole-request latency into a trailing window
// and on a fixed tick compares the window's p95 against an
// exponentially smoothed baseline. When the p95 blows past the baseline
// it freezes the current in-flight count as a concurrency ceiling and
// rejects everything above it until latency recovers.
package admission

import (
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/noventa-dev/noventa/pkg/health"
)

// ErrRejected is returned when a request is shed. It is modeled as a
// timeout condition: the caller did not get to run, it was not a
// pipeline failure.
var ErrRejected = errors.New("admission: rejected under load shedding (timeout)")

// State is the controller state.
type State uint8

const (
	// Healthy admits everything.
	Healthy State = iota
	// Shedding rejects requests above the frozen concurrency ceiling.
	Shedding
)

// String returns the string representation of the State.
func (s State) String() string {
	if s == Shedding {
		return "Shedding"
	}
	return "Healthy"
}

// Config tunes the controller.
type Config struct {
	// Window is the latency sample retention horizon (default 30s).
	Window time.Duration

	// Tick is the recalculation interval (default 1s).
	Tick time.Duration

	// Multiplier is how far p95 may exceed the baseline before
	// shedding starts (default 2.0).
	Multiplier float64

	// HealthPath is never rejected (default "/health").
	HealthPath string
}

func (c *Config) fillDefaults() {
	if c.Window == 0 {
		c.Window = 30 * time.Second
	}
	if c.Tick == 0 {
		c.Tick = time.Second
	}
	if c.Multiplier == 0 {
		c.Multiplier = 2.0
	}
	if c.HealthPath == "" {
		c.HealthPath = "/health"
	}
}

type sample struct {
	at time.Time
	ms float64
}

// Controller is the admission state machine. All methods are safe for
// concurrent use.
type Controller struct {
	cfg     Config
	sampler *health.Sampler
	logger  *slog.Logger
	now     func() time.Time

	mu       sync.Mutex
	samples  []sample
	state    State
	p95      float64 // milliseconds, from the last tick
	baseline float64 // milliseconds, exponentially smoothed
	ceiling  int     // valid only while Shedding
	inFlight int

	stopOnce sync.Once
	done     chan struct{}
}

// New creates a Controller. The sampler receives every observed request
// duration on the round-trip channel; it may be nil.
func New(cfg Config, sampler *health.Sampler, logger *slog.Logger) *Controller {
	cfg.fillDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		cfg:     cfg,
		sampler: sampler,
		logger:  logger.With("component", "admission"),
		now:     time.Now,
		done:    make(chan struct{}),
	}
}

// Start launches the periodic recalculation tick. Stop ends it.
func (c *Controller) Start() {
	go func() {
		ticker := time.NewTicker(c.cfg.Tick)
		defer ticker.Stop()
		for {
			select {
			case <-c.done:
				return
			case <-ticker.C:
				c.recalculate()
			}
		}
	}()
}

// Stop ends the recalculation tick.
func (c *Controller) Stop() {
	c.stopOnce.Do(func() { close(c.done) })
}

// Admit decides whether a request may enter the render pipeline. On
// success the in-flight count is incremented and the caller must pair
// it with Finish. The health-check path is always admitted.
func (c *Controller) Admit(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if path != c.cfg.HealthPath && c.state == Shedding && c.inFlight >= c.ceiling {
		return ErrRejected
	}
	c.inFlight++
	return nil
}

// Finish records the observed duration of an admitted request, forwards
// it to the health sampler and releases the in-flight slot. It must be
// called exactly once per successful Admit, on success and failure
// alike.
func (c *Controller) Finish(d time.Duration) {
	ms := float64(d) / float64(time.Millisecond)

	c.mu.Lock()
	c.samples = append(c.samples, sample{at: c.now(), ms: ms})
	if c.inFlight > 0 {
		c.inFlight--
	}
	c.mu.Unlock()

	if c.sampler != nil {
		c.sampler.Report(health.ChannelRoundTrip, d)
	}
}

// recalculate is one tick of the state machine.
func (c *Controller) recalculate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Prune to the retention horizon.
	now := c.now()
	keep := c.samples[:0]
	for _, s := range c.samples {
		if now.Sub(s.at) < c.cfg.Window {
			keep = append(keep, s)
		}
	}
	c.samples = keep

	// An empty window computes p95 = 0 and transitions nothing.
	if len(c.samples) == 0 {
		c.p95 = 0
		return
	}

	durations := make([]float64, len(c.samples))
	for i, s := range c.samples {
		durations[i] = s.ms
	}
	sort.Float64s(durations)
	idx := int(float64(len(durations)) * 0.95)
	if idx > len(durations)-1 {
		idx = len(durations) - 1
	}
	c.p95 = durations[idx]

	if c.baseline == 0 {
		c.baseline = c.p95
	} else {
		c.baseline = c.baseline*0.9 + c.p95*0.1
	}

	overloaded := c.p95 > c.baseline*c.cfg.Multiplier && c.baseline > 0
	switch {
	case overloaded && c.state == Healthy:
		c.state = Shedding
		c.ceiling = c.inFlight
		c.logger.Warn("latency spike, shedding load",
			"p95_ms", c.p95, "baseline_ms", c.baseline, "ceiling", c.ceiling)
	case !overloaded && c.state == Shedding:
		c.state = Healthy
		c.ceiling = 0
		c.logger.Info("latency recovered, admitting freely",
			"p95_ms", c.p95, "baseline_ms", c.baseline)
	}
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// InFlight returns the current in-flight request count.
func (c *Controller) InFlight() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight
}

// Ceiling returns the concurrency ceiling and whether one is set; it is
// set only while Shedding.
func (c *Controller) Ceiling() (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ceiling, c.state == Shedding
}

// Baseline returns the smoothed baseline latency in milliseconds.
func (c *Controller) Baseline() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.baseline
}

// P95 returns the p95 computed at the last tick, in milliseconds.
func (c *Controller) P95() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.p95
}
