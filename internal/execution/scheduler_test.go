package execution

import (
	"errors"
	"fmt"
	"reflect"
	"runtime"
	"sync"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/birdayz/flowz/fdag"
	"github.com/birdayz/flowz/fstate"
	"github.com/go-logr/logr"
)

var intType = reflect.TypeOf(0)

// harness builds graphs of int-valued stages directly against fdag, which
// lets tests exercise the scheduler without the typed front-end (and
// deliberately break invariants the front-end would enforce).
type harness struct {
	graph *fdag.Graph
	store *fstate.Store

	mu  sync.Mutex
	ran []fdag.Key
}

func newHarness() *harness {
	return &harness{graph: fdag.NewGraph(), store: fstate.NewStore()}
}

func (h *harness) scheduler() *Scheduler {
	return New(h.graph, h.store, logr.Discard())
}

func (h *harness) record(k fdag.Key) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ran = append(h.ran, k)
}

func (h *harness) executed() map[fdag.Key]int {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := map[fdag.Key]int{}
	for _, k := range h.ran {
		out[k]++
	}
	return out
}

// source adds a zero-input stage producing v.
func (h *harness) source(t *testing.T, key fdag.Key, v int) {
	t.Helper()
	assert.NoError(t, h.graph.Add(&fdag.Node{
		Key:        key,
		Upstream:   []fdag.Key{},
		InputTypes: []reflect.Type{},
		OutputType: intType,
		Run: func() error {
			h.record(key)
			h.store.Put(key, v)
			return nil
		},
	}))
}

// stage adds a stage summing its upstream values and applying f.
func (h *harness) stage(t *testing.T, key fdag.Key, f func(int) (int, error), upstream ...fdag.Key) {
	t.Helper()
	inputs := make([]reflect.Type, len(upstream))
	for i := range upstream {
		inputs[i] = intType
	}
	assert.NoError(t, h.graph.Add(&fdag.Node{
		Key:        key,
		Upstream:   upstream,
		InputTypes: inputs,
		OutputType: intType,
		Run: func() error {
			h.record(key)
			total := 0
			for _, u := range upstream {
				v, err := fstate.Get[int](h.store, u)
				if err != nil {
					return err
				}
				total += v
			}
			out, err := f(total)
			if err != nil {
				return fmt.Errorf("%w: %s: %v", fdag.ErrStageFailed, key, err)
			}
			h.store.Put(key, out)
			return nil
		},
	}))
}

func ident(x int) (int, error) { return x, nil }

func TestExecuteLinearChain(t *testing.T) {
	h := newHarness()
	h.source(t, "src", 5)
	h.stage(t, "incr", func(x int) (int, error) { return x + 1, nil }, "src")
	h.stage(t, "triple", func(x int) (int, error) { return x * 3, nil }, "incr")

	assert.NoError(t, h.scheduler().Execute("triple", 1))

	v, err := fstate.Get[int](h.store, "triple")
	assert.NoError(t, err)
	assert.Equal(t, 18, v)
}

func TestExecuteRunsExactlyClosure(t *testing.T) {
	h := newHarness()
	h.source(t, "src", 5)
	h.stage(t, "incr", ident, "src")
	h.stage(t, "triple", ident, "src")
	h.stage(t, "sum", ident, "incr", "triple")
	h.source(t, "other", 99)

	assert.NoError(t, h.scheduler().Execute("incr", 1))

	assert.Equal(t, map[fdag.Key]int{"src": 1, "incr": 1}, h.executed())
	assert.Equal(t, 2, h.store.Len())
	assert.False(t, h.store.Contains("triple"))
	assert.False(t, h.store.Contains("other"))
}

func TestExecuteConcurrent(t *testing.T) {
	if runtime.NumCPU() < 2 {
		t.Skip("needs at least 2 CPUs")
	}

	h := newHarness()
	h.source(t, "src", 1)
	fanOut := []fdag.Key{}
	for i := 0; i < 32; i++ {
		k := fdag.Key(fmt.Sprintf("mid-%02d", i))
		h.stage(t, k, ident, "src")
		fanOut = append(fanOut, k)
	}
	h.stage(t, "sink", ident, fanOut...)

	assert.NoError(t, h.scheduler().Execute("sink", 2))

	v, err := fstate.Get[int](h.store, "sink")
	assert.NoError(t, err)
	assert.Equal(t, 32, v)
	assert.Equal(t, 34, len(h.executed()))
}

func TestExecuteFailFast(t *testing.T) {
	h := newHarness()
	h.source(t, "src", 5)
	h.stage(t, "boom", func(int) (int, error) { return 0, errors.New("kaput") }, "src")
	h.stage(t, "after", ident, "boom")

	err := h.scheduler().Execute("after", 1)
	assert.Error(t, err)
	assert.True(t, errors.Is(err, fdag.ErrStageFailed))

	// Nothing downstream of the failure was started, and its result is absent.
	executed := h.executed()
	assert.Equal(t, 0, executed["after"])
	assert.False(t, h.store.Contains("after"))
	assert.False(t, h.store.Contains("boom"))
}

func TestExecutePanicBecomesStageFailed(t *testing.T) {
	h := newHarness()
	h.source(t, "src", 5)
	h.stage(t, "boom", func(int) (int, error) { panic("kaput") }, "src")

	err := h.scheduler().Execute("boom", 1)
	assert.Error(t, err)
	assert.True(t, errors.Is(err, fdag.ErrStageFailed))
}

func TestExecuteWorkerCountBounds(t *testing.T) {
	h := newHarness()
	h.source(t, "src", 5)

	assert.True(t, errors.Is(h.scheduler().Execute("src", 0), fdag.ErrInvalidWorkerCount))
	assert.True(t, errors.Is(h.scheduler().Execute("src", -1), fdag.ErrInvalidWorkerCount))
	assert.True(t, errors.Is(h.scheduler().Execute("src", runtime.NumCPU()+1), fdag.ErrInvalidWorkerCount))
	assert.NoError(t, h.scheduler().Execute("src", runtime.NumCPU()))
}

func TestExecuteUnknownTarget(t *testing.T) {
	h := newHarness()
	assert.True(t, errors.Is(h.scheduler().Execute("missing", 1), fdag.ErrUnknownStage))
}

func TestExecuteStalledGraphReportsCountMismatch(t *testing.T) {
	h := newHarness()
	h.source(t, "src", 5)
	h.stage(t, "incr", ident, "src")

	// Violate the in-degree invariant behind the builder's back: incr can
	// never become ready, so the run must stall and report it.
	h.graph.InDegree["incr"] = 2

	err := h.scheduler().Execute("incr", 1)
	assert.Error(t, err)
	assert.True(t, errors.Is(err, fdag.ErrStageCountMismatch))
}

func TestExecuteTypeMismatchAtFetch(t *testing.T) {
	h := newHarness()
	// A stage that lies: declared int output, publishes a string.
	assert.NoError(t, h.graph.Add(&fdag.Node{
		Key:        "liar",
		Upstream:   []fdag.Key{},
		InputTypes: []reflect.Type{},
		OutputType: intType,
		Run: func() error {
			h.store.Put("liar", "not an int")
			return nil
		},
	}))

	assert.NoError(t, h.scheduler().Execute("liar", 1))

	_, err := fstate.Get[int](h.store, "liar")
	assert.Error(t, err)
	assert.True(t, errors.Is(err, fdag.ErrTypeMismatch))
}

func TestExecuteClearsStoreBetweenRuns(t *testing.T) {
	h := newHarness()
	h.source(t, "a", 1)
	h.source(t, "b", 2)

	assert.NoError(t, h.scheduler().Execute("a", 1))
	assert.True(t, h.store.Contains("a"))

	assert.NoError(t, h.scheduler().Execute("b", 1))
	assert.False(t, h.store.Contains("a"))
	assert.True(t, h.store.Contains("b"))
}
