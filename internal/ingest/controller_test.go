package ingest

import (
	"context"
	"errors"
	"math/rand"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luki/smartsos/internal/sensor"
	"github.com/luki/smartsos/internal/store"
)

type fakeStore struct {
	saves [][]sensor.Reading
	err   error
}

func (f *fakeStore) Save(log []sensor.Reading) error {
	f.saves = append(f.saves, append([]sensor.Reading(nil), log...))
	return f.err
}

type seqSource struct {
	n    int
	base time.Time
}

func (s *seqSource) Generate() sensor.Reading {
	s.n++
	return sensor.Reading{
		Timestamp:   s.base.Add(time.Duration(s.n) * 10 * time.Second),
		Temperature: 28 + float64(s.n)/100,
		Humidity:    80,
		Airflow:     1,
	}
}

func newSource() *seqSource {
	return &seqSource{base: time.Date(2024, 1, 1, 0, 0, 0, 0, time.Local)}
}

func TestTickGrowsLogInOrder(t *testing.T) {
	fs := &fakeStore{}
	existing := []sensor.Reading{{Timestamp: time.Date(2023, 12, 31, 23, 0, 0, 0, time.Local)}}
	c := New(fs, newSource(), existing)

	const n = 25
	for i := 0; i < n; i++ {
		_, ok, err := c.Tick()
		require.NoError(t, err)
		require.True(t, ok)
	}

	log := c.Log()
	require.Len(t, log, len(existing)+n)
	for i := 1; i < len(log); i++ {
		assert.False(t, log[i].Timestamp.Before(log[i-1].Timestamp), "append order broken at %d", i)
	}
	assert.Len(t, fs.saves, n)
	assert.Len(t, fs.saves[n-1], len(existing)+n, "each save writes the full log")
}

func TestTickPausedIsNoop(t *testing.T) {
	fs := &fakeStore{}
	c := New(fs, newSource(), nil, WithState(Paused))

	_, ok, err := c.Tick()
	assert.False(t, ok)
	assert.NoError(t, err)
	assert.Equal(t, 0, c.Len())
	assert.Empty(t, fs.saves)

	assert.True(t, c.Toggle())
	_, ok, _ = c.Tick()
	assert.True(t, ok)
	assert.Equal(t, 1, c.Len())

	c.SetRunning(false)
	assert.Equal(t, Paused, c.State())
	assert.Equal(t, "paused", c.State().String())
}

func TestSaveFailureDoesNotBlockIngest(t *testing.T) {
	fs := &fakeStore{err: &store.PersistenceError{Path: "x.csv", Op: "write", Err: errors.New("disk full")}}
	var observed []error
	c := New(fs, newSource(), nil, WithObserver(func(_ sensor.Reading, err error) {
		observed = append(observed, err)
	}))

	_, ok, err := c.Tick()
	assert.True(t, ok)
	var pe *store.PersistenceError
	assert.True(t, errors.As(err, &pe))
	assert.Equal(t, 1, c.Len())
	assert.Error(t, c.LastError())

	fs.err = nil
	_, _, err = c.Tick()
	assert.NoError(t, err)
	assert.NoError(t, c.LastError())
	assert.Equal(t, 2, c.Len())
	assert.Len(t, fs.saves[1], 2)
	assert.Len(t, observed, 2)
}

func TestLogIsACopy(t *testing.T) {
	c := New(&fakeStore{}, newSource(), nil)
	c.Tick()

	log := c.Log()
	log[0].Temperature = -1
	assert.NotEqual(t, -1.0, c.Log()[0].Temperature)
}

func TestNoBackingFileUntilFirstTick(t *testing.T) {
	st := store.New(filepath.Join(t.TempDir(), "iot_data.csv"))
	initial, err := st.Load()
	require.NoError(t, err)

	gen := sensor.NewGenerator(sensor.WithRand(rand.New(rand.NewSource(3))))
	c := New(st, gen, initial, WithState(Paused))

	c.Tick()
	assert.False(t, st.Exists(), "paused tick must not create the file")

	c.SetRunning(true)
	_, _, err = c.Tick()
	require.NoError(t, err)
	assert.True(t, st.Exists())

	loaded, err := st.Load()
	require.NoError(t, err)
	assert.Len(t, loaded, 1)
}

func TestRunStopsOnCancel(t *testing.T) {
	fs := &fakeStore{}
	c := New(fs, newSource(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	ticks := make(chan struct{}, 16)
	c.observers = append(c.observers, func(sensor.Reading, error) {
		select {
		case ticks <- struct{}{}:
		default:
		}
	})

	go func() { done <- c.Run(ctx, 5*time.Millisecond) }()

	for i := 0; i < 3; i++ {
		select {
		case <-ticks:
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for tick")
		}
	}
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRunTicksImmediately(t *testing.T) {
	fs := &fakeStore{}
	c := New(fs, newSource(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	ticked := make(chan struct{}, 1)
	c.observers = append(c.observers, func(sensor.Reading, error) {
		select {
		case ticked <- struct{}{}:
		default:
		}
	})

	done := make(chan error, 1)
	go func() { done <- c.Run(ctx, time.Hour) }()

	select {
	case <-ticked:
	case <-time.After(2 * time.Second):
		t.Fatal("no reading before the first interval elapsed")
	}
	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
	assert.Equal(t, 1, c.Len())
}
