package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/poiesic/atlas"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTarget struct {
	polls          atomic.Int32
	consolidations atomic.Int32
	learning       atomic.Bool
	pollErr        error
}

func (f *fakeTarget) PollAbsorption(context.Context) (bool, error) {
	f.polls.Add(1)
	return f.pollErr == nil, f.pollErr
}

func (f *fakeTarget) Consolidate(context.Context) (atlas.ConsolidationReport, error) {
	f.consolidations.Add(1)
	return atlas.ConsolidationReport{Reinforced: 1}, nil
}

func (f *fakeTarget) SetLearningActive(active bool) {
	f.learning.Store(active)
}

type fakeWatcher struct {
	once sync.Once
	done chan struct{}
}

func (w *fakeWatcher) Watch(ctx context.Context, onChange func()) error {
	onChange()
	w.once.Do(func() { close(w.done) })
	<-ctx.Done()
	return ctx.Err()
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)

	_, err = New(&fakeTarget{}, WithAbsorptionInterval(time.Millisecond))
	assert.ErrorIs(t, err, ErrInvalidInterval)

	_, err = New(&fakeTarget{}, WithConsolidationInterval(0))
	assert.ErrorIs(t, err, ErrInvalidInterval)

	s, err := New(&fakeTarget{}, WithLogger(nil))
	require.NoError(t, err)
	assert.Len(t, s.cron.Entries(), 2)
	assert.Equal(t, DefaultAbsorptionInterval, s.absorbEvery)
	assert.Equal(t, DefaultConsolidationInterval, s.consolidateEvery)
}

func TestScheduler_StartStop(t *testing.T) {
	target := &fakeTarget{}
	watcher := &fakeWatcher{done: make(chan struct{})}
	s, err := New(target, WithWatcher(watcher))
	require.NoError(t, err)

	s.Start(context.Background())
	s.Start(context.Background())
	assert.True(t, target.learning.Load())

	select {
	case <-watcher.done:
	case <-time.After(5 * time.Second):
		t.Fatal("watcher never started")
	}
	assert.Equal(t, int32(1), target.polls.Load())

	s.Stop()
	s.Stop()
	assert.False(t, target.learning.Load())
}

func TestScheduler_Jobs(t *testing.T) {
	target := &fakeTarget{}
	s, err := New(target)
	require.NoError(t, err)

	s.absorb()
	s.consolidate()
	assert.Equal(t, int32(1), target.polls.Load())
	assert.Equal(t, int32(1), target.consolidations.Load())

	// Failures are logged and never propagate.
	target.pollErr = errors.New("boom")
	s.absorb()
	assert.Equal(t, int32(2), target.polls.Load())
}

func TestScheduler_Ticks(t *testing.T) {
	if testing.Short() {
		t.Skip("waits for a cron tick")
	}
	target := &fakeTarget{}
	s, err := New(target, WithAbsorptionInterval(time.Second), WithConsolidationInterval(time.Second))
	require.NoError(t, err)

	s.Start(context.Background())
	defer s.Stop()

	assert.Eventually(t, func() bool {
		return target.polls.Load() > 0 && target.consolidations.Load() > 0
	}, 5*time.Second, 50*time.Millisecond)
}
