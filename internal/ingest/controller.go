// Package ingest owns the in-memory reading log and the tick that grows it:
// generate one reading, append it, persist the full log.
//
// A Controller has a single owner. The live monitor drives Tick from its
// update loop; headless mode drives it from Run.
package ingest

import (
	"context"
	"log/slog"
	"time"

	"github.com/luki/smartsos/internal/sensor"
)

// State is the run/pause state of the ingest loop.
type State int

const (
	Running State = iota
	Paused
)

func (s State) String() string {
	if s == Paused {
		return "paused"
	}
	return "running"
}

// Source produces one reading per call.
type Source interface {
	Generate() sensor.Reading
}

// Persister overwrites durable storage with the full log.
type Persister interface {
	Save(log []sensor.Reading) error
}

// Observer is called after every running tick with the appended reading and
// the persistence error, if any.
type Observer func(r sensor.Reading, err error)

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger used for tick events.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.log = l }
}

// WithObserver registers a callback invoked after each running tick.
func WithObserver(fn Observer) Option {
	return func(c *Controller) { c.observers = append(c.observers, fn) }
}

// WithState sets the initial state. The default is Running.
func WithState(s State) Option {
	return func(c *Controller) { c.state = s }
}

// Controller holds the reading log and performs ticks against it.
type Controller struct {
	store     Persister
	source    Source
	readings  []sensor.Reading
	state     State
	lastErr   error
	log       *slog.Logger
	observers []Observer
}

// New creates a controller over an already loaded log. The slice is copied.
func New(store Persister, source Source, initial []sensor.Reading, opts ...Option) *Controller {
	c := &Controller{
		store:    store,
		source:   source,
		readings: append([]sensor.Reading(nil), initial...),
		state:    Running,
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Tick performs one ingest cycle if running. It reports whether a reading was
// appended. A save failure is returned but the reading stays in the log and
// the next tick proceeds normally.
func (c *Controller) Tick() (sensor.Reading, bool, error) {
	if c.state != Running {
		return sensor.Reading{}, false, nil
	}

	r := c.source.Generate()
	c.readings = append(c.readings, r)

	err := c.store.Save(c.readings)
	c.lastErr = err
	if err != nil {
		c.log.Error("persist failed", "error", err, "readings", len(c.readings))
	} else {
		c.log.Debug("tick", "reading", r.String(), "readings", len(c.readings))
	}

	for _, fn := range c.observers {
		fn(r, err)
	}
	return r, true, err
}

// Run ticks once right away, then every interval until ctx is done.
// Persistence failures do not stop the loop.
func (c *Controller) Run(ctx context.Context, interval time.Duration) error {
	t := time.NewTicker(interval)
	defer t.Stop()

	c.log.Info("ingest loop started", "interval", interval.String(), "state", c.state.String())
	if ctx.Err() == nil {
		c.Tick()
	}
	for {
		select {
		case <-t.C:
			c.Tick()
		case <-ctx.Done():
			c.log.Info("ingest loop stopped", "readings", len(c.readings))
			return ctx.Err()
		}
	}
}

// SetRunning switches between Running and Paused.
func (c *Controller) SetRunning(running bool) {
	next := Paused
	if running {
		next = Running
	}
	if next != c.state {
		c.log.Info("ingest state changed", "state", next.String())
	}
	c.state = next
}

// Toggle flips the run/pause state and reports whether it is now running.
func (c *Controller) Toggle() bool {
	c.SetRunning(c.state != Running)
	return c.state == Running
}

// Running reports whether ticks append readings.
func (c *Controller) Running() bool { return c.state == Running }

// State returns the current run/pause state.
func (c *Controller) State() State { return c.state }

// Log returns a copy of the reading log in capture order.
func (c *Controller) Log() []sensor.Reading {
	return append([]sensor.Reading(nil), c.readings...)
}

// Len returns the number of readings in the log.
func (c *Controller) Len() int { return len(c.readings) }

// LastError returns the result of the most recent save, nil after a success.
func (c *Controller) LastError() error { return c.lastErr }
