package pool

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/JSH-Team/domprobe/internal/browser"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func withParallelism(t *testing.T, n int) {
	t.Helper()
	prev := availableParallelism
	availableParallelism = func() int { return n }
	t.Cleanup(func() { availableParallelism = prev })
}

func openCounts(p *Pool) []int {
	stats := p.Stats()
	counts := make([]int, len(stats))
	for i, s := range stats {
		counts[i] = s.OpenSessions
	}
	return counts
}

func TestNew_ClampsConcurrency(t *testing.T) {
	withParallelism(t, 4)

	tests := []struct {
		name      string
		requested int
		want      int
	}{
		{name: "zero becomes one", requested: 0, want: 1},
		{name: "negative becomes one", requested: -3, want: 1},
		{name: "within range", requested: 3, want: 3},
		{name: "capped by parallelism", requested: 16, want: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := &fakeLauncher{}
			p, err := New(context.Background(), Options{Concurrency: tt.requested, Launcher: l})
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.Size())
			assert.Len(t, l.launched, tt.want)
			require.NoError(t, p.Shutdown())
		})
	}
}

func TestNew_LaunchesWithTLSRelaxed(t *testing.T) {
	withParallelism(t, 2)

	l := &fakeLauncher{}
	p, err := New(context.Background(), Options{Concurrency: 2, Launcher: l})
	require.NoError(t, err)
	defer p.Shutdown()

	require.Len(t, l.opts, 2)
	for _, opts := range l.opts {
		assert.True(t, opts.IgnoreTLSErrors)
		assert.Equal(t, browser.TLSProtocolAny, opts.TLSProtocol)
	}
}

func TestNew_SpawnFailureClosesStartedWorkers(t *testing.T) {
	withParallelism(t, 3)

	l := &fakeLauncher{failAt: map[int]bool{1: true}}
	p, err := New(context.Background(), Options{Concurrency: 3, Launcher: l})
	require.Error(t, err)
	assert.Nil(t, p)

	var initErr *InitializationError
	require.ErrorAs(t, err, &initErr)
	assert.Contains(t, err.Error(), "spawn failed")

	for _, proc := range l.launched {
		assert.True(t, proc.isClosed(), "started worker must be closed after init failure")
	}
}

func TestNew_AdoptsExistingInstances(t *testing.T) {
	withParallelism(t, 1)

	existing := processes(3)
	l := &fakeLauncher{}
	p, err := New(context.Background(), Options{Concurrency: 1, Existing: existing, Launcher: l})
	require.NoError(t, err)

	assert.Equal(t, 3, p.Size(), "adopted instances are used verbatim")
	assert.Zero(t, l.calls, "nothing is spawned when instances are supplied")

	require.NoError(t, p.Shutdown())
	for _, proc := range existing {
		assert.False(t, proc.(*fakeProcess).isClosed(), "adopted workers are not owned by the pool")
	}
}

func TestAcquire_LeastLoadedWithStableTies(t *testing.T) {
	for n := 1; n <= 5; n++ {
		p, err := New(context.Background(), Options{Existing: processes(n)})
		require.NoError(t, err)

		// One slot per instance fills the pool in order.
		for i := 0; i < n; i++ {
			inst, err := p.Acquire()
			require.NoError(t, err)
			assert.Equal(t, i, inst.Index())
		}

		// Everything is tied again, so the first instance wins.
		inst, err := p.Acquire()
		require.NoError(t, err)
		assert.Equal(t, 0, inst.Index())

		if n > 1 {
			next, err := p.Acquire()
			require.NoError(t, err)
			assert.Equal(t, 1, next.Index())
		}
	}
}

func TestAcquire_PicksMinimumAfterRelease(t *testing.T) {
	p, err := New(context.Background(), Options{Existing: processes(3)})
	require.NoError(t, err)

	insts := make([]*Instance, 0, 6)
	for i := 0; i < 6; i++ {
		inst, err := p.Acquire()
		require.NoError(t, err)
		insts = append(insts, inst)
	}
	assert.Equal(t, []int{2, 2, 2}, openCounts(p))

	// Free two slots on the last instance.
	p.Release(insts[2])
	p.Release(insts[5])
	assert.Equal(t, []int{2, 2, 0}, openCounts(p))

	inst, err := p.Acquire()
	require.NoError(t, err)
	assert.Equal(t, 2, inst.Index())
}

func TestRelease_DecrementsByOneAndNeverNegative(t *testing.T) {
	p, err := New(context.Background(), Options{Existing: processes(2)})
	require.NoError(t, err)

	inst, err := p.Acquire()
	require.NoError(t, err)
	_, err = p.Acquire()
	require.NoError(t, err)
	same, err := p.Acquire()
	require.NoError(t, err)
	require.Equal(t, inst, same)
	assert.Equal(t, []int{2, 1}, openCounts(p))

	p.Release(inst)
	assert.Equal(t, []int{1, 1}, openCounts(p))
	p.Release(inst)
	assert.Equal(t, []int{0, 1}, openCounts(p))
	p.Release(inst)
	assert.Equal(t, []int{0, 1}, openCounts(p), "counter must not go negative")
}

func TestAcquire_ConcurrentCallersSpreadEvenly(t *testing.T) {
	p, err := New(context.Background(), Options{Existing: processes(4)})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := p.Acquire()
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, []int{10, 10, 10, 10}, openCounts(p))
}

func TestShutdown_ClosesOwnedWorkersOnce(t *testing.T) {
	withParallelism(t, 2)

	l := &fakeLauncher{}
	p, err := New(context.Background(), Options{Concurrency: 2, Launcher: l})
	require.NoError(t, err)

	require.NoError(t, p.Shutdown())
	for _, proc := range l.launched {
		assert.True(t, proc.isClosed())
	}
	require.NoError(t, p.Shutdown())

	_, err = p.Acquire()
	assert.ErrorIs(t, err, ErrPoolShutdown)
}

func TestNewSession_ReleasesSlotWhenPageFails(t *testing.T) {
	proc := &fakeProcess{pageErr: errors.New("tab crashed")}
	p, err := New(context.Background(), Options{Existing: []browser.Process{proc}})
	require.NoError(t, err)

	_, err = p.NewSession(context.Background())
	require.Error(t, err)
	assert.Equal(t, []int{0}, openCounts(p))
}

func TestLoadFromURL_NavigationError(t *testing.T) {
	proc := &fakeProcess{navErr: errors.New("net::ERR_NAME_NOT_RESOLVED")}
	p, err := New(context.Background(), Options{Existing: []browser.Process{proc}})
	require.NoError(t, err)

	s, err := p.LoadFromURL(context.Background(), "https://nowhere.invalid", 0)
	assert.Nil(t, s)

	var navErr *NavigationError
	require.ErrorAs(t, err, &navErr)
	assert.Equal(t, "https://nowhere.invalid", navErr.URL)
	assert.Equal(t, []int{0}, openCounts(p), "failed load gives the slot back")
	require.Len(t, proc.pages, 1)
	assert.True(t, proc.pages[0].isClosed())
}

func TestLoadFromFile(t *testing.T) {
	proc := &fakeProcess{}
	p, err := New(context.Background(), Options{Existing: []browser.Process{proc}})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "page.html")
	require.NoError(t, os.WriteFile(path, []byte("<p>hi</p>"), 0644))

	s, err := p.LoadFromFile(context.Background(), path, 0)
	require.NoError(t, err)
	assert.Equal(t, StateContentLoaded, s.State())
	assert.Equal(t, "<p>hi</p>", proc.pages[0].content)
	require.NoError(t, s.Close())

	_, err = p.LoadFromFile(context.Background(), filepath.Join(t.TempDir(), "missing.html"), 0)
	require.Error(t, err)
	assert.Equal(t, []int{0}, openCounts(p))
}
