// Package sensor provides the simulated Smart-SOS environment sensor: the
// Reading data model, a random reading generator, and the descriptors of the
// three measured quantities (temperature, humidity, airflow).
package sensor

import (
	"fmt"
	"math"
	"math/rand"
	"time"
)

// Reading is one observation of the environment sensor.
type Reading struct {
	Timestamp   time.Time // wall clock at capture
	Temperature float64   // °C
	Humidity    float64   // %
	Airflow     float64   // m/s
}

// String formats the reading for log lines and headless output.
func (r Reading) String() string {
	return fmt.Sprintf("%s temp=%.2f°C humidity=%.2f%% airflow=%.2fm/s",
		r.Timestamp.Format("2006-01-02 15:04:05"), r.Temperature, r.Humidity, r.Airflow)
}

// Round2 rounds v to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Generator produces simulated readings. It is not safe for concurrent use.
type Generator struct {
	rnd *rand.Rand
	now func() time.Time
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithRand sets the randomness source, e.g. a seeded one for tests.
func WithRand(r *rand.Rand) GeneratorOption {
	return func(g *Generator) { g.rnd = r }
}

// WithClock sets the function used to timestamp readings.
func WithClock(now func() time.Time) GeneratorOption {
	return func(g *Generator) { g.now = now }
}

// NewGenerator creates a generator seeded from the current time.
func NewGenerator(opts ...GeneratorOption) *Generator {
	g := &Generator{
		rnd: rand.New(rand.NewSource(time.Now().UnixNano())),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate returns one simulated reading stamped with the current time.
// Timestamps are truncated to microseconds, the precision of the CSV log.
func (g *Generator) Generate() Reading {
	return Reading{
		Timestamp:   g.now().Truncate(time.Microsecond),
		Temperature: g.uniform(Temperature),
		Humidity:    g.uniform(Humidity),
		Airflow:     g.uniform(Airflow),
	}
}

func (g *Generator) uniform(m Metric) float64 {
	v := Round2(m.Min + g.rnd.Float64()*(m.Max-m.Min))
	// keep float error inside the band
	return math.Max(m.Min, math.Min(m.Max, v))
}
