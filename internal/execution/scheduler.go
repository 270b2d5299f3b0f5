// Package execution contains the concurrent scheduler that drives one run
// of a pipeline: upstream closure, ready queue, worker pool, fail-fast
// error propagation.
package execution

import (
	"fmt"
	"runtime"
	"sort"
	"sync"

	"github.com/birdayz/flowz/fdag"
	"github.com/birdayz/flowz/fstate"
	"github.com/go-logr/logr"
	"golang.org/x/exp/maps"
	"golang.org/x/sync/errgroup"
)

// Scheduler executes the upstream closure of a target stage over a worker
// pool. The graph is immutable for the duration of Execute; all mutable run
// state is local to the call, so a Scheduler carries nothing between runs.
type Scheduler struct {
	graph *fdag.Graph
	store *fstate.Store
	log   logr.Logger
}

// New creates a scheduler over the given graph and result store.
func New(graph *fdag.Graph, store *fstate.Store, log logr.Logger) *Scheduler {
	return &Scheduler{graph: graph, store: store, log: log}
}

// runState is the per-run scheduler state: a mutable copy of the
// in-degrees, a FIFO of ready stages, a countdown of remaining stages and
// the first-error bookkeeping. One mutex plus one condition variable guard
// all of it; the condition variable is signaled after every change that
// could unblock a waiter (enqueue, completion, failure).
type runState struct {
	mu   sync.Mutex
	cond *sync.Cond

	remIn     map[fdag.Key]int
	ready     []fdag.Key
	remaining int
	inflight  int
	ran       int

	err error // first failure wins; later failures are swallowed
}

// Execute runs every stage in the upstream closure of target on a pool of
// `workers` goroutines, in dependency order. The result store is cleared
// first and, on success, holds a result for every member of the closure.
//
// Preconditions: target is registered and 1 <= workers <= runtime.NumCPU().
func (s *Scheduler) Execute(target fdag.Key, workers int) error {
	if workers < 1 || workers > runtime.NumCPU() {
		return fmt.Errorf("%w: %d (hardware parallelism %d)",
			fdag.ErrInvalidWorkerCount, workers, runtime.NumCPU())
	}

	closure, err := s.graph.UpstreamClosure(target)
	if err != nil {
		return err
	}

	// Each run starts with fresh intermediate state. Caching results
	// across runs is a possible future extension.
	s.store.Clear()

	st := &runState{
		remIn:     make(map[fdag.Key]int, len(closure)),
		remaining: len(closure),
	}
	st.cond = sync.NewCond(&st.mu)
	for k := range closure {
		st.remIn[k] = s.graph.InDegree[k]
	}

	// Seed the ready queue with the closure's roots, sorted so the initial
	// dispatch order does not depend on map iteration.
	roots := make([]fdag.Key, 0, len(closure))
	for _, k := range maps.Keys(closure) {
		if st.remIn[k] == 0 {
			roots = append(roots, k)
		}
	}
	sort.Slice(roots, func(i, j int) bool { return roots[i] < roots[j] })
	st.ready = roots

	s.log.V(1).Info("starting run", "target", target, "stages", len(closure), "workers", workers)

	var eg errgroup.Group
	for i := 0; i < workers; i++ {
		worker := i
		eg.Go(func() error {
			return s.runWorker(worker, closure, st)
		})
	}
	_ = eg.Wait()

	if st.err != nil {
		s.log.Error(st.err, "run failed", "target", target)
		return st.err
	}
	if st.ran != len(closure) {
		return fmt.Errorf("%w: ran %d of %d stages", fdag.ErrStageCountMismatch, st.ran, len(closure))
	}

	s.log.V(1).Info("run complete", "target", target, "stages", st.ran)
	return nil
}

// runWorker is the loop executed by each of the pool's goroutines. Workers
// block on the condition variable while the ready queue is empty and other
// workers are still making progress; they exit on failure, on completion,
// or when the queue drains with nothing in flight (a stalled graph, which
// Execute reports as a count mismatch).
func (s *Scheduler) runWorker(worker int, closure map[fdag.Key]struct{}, st *runState) error {
	for {
		st.mu.Lock()
		for st.err == nil && len(st.ready) == 0 && st.remaining > 0 && st.inflight > 0 {
			st.cond.Wait()
		}
		if st.err != nil || st.remaining == 0 || len(st.ready) == 0 {
			st.mu.Unlock()
			st.cond.Broadcast()
			return nil
		}
		curr := st.ready[0]
		st.ready = st.ready[1:]
		st.inflight++
		st.mu.Unlock()

		s.log.V(1).Info("executing stage", "stage", curr, "worker", worker)
		if err := runStage(s.graph.Nodes[curr]); err != nil {
			st.mu.Lock()
			if st.err == nil {
				st.err = err
			}
			st.inflight--
			st.mu.Unlock()
			st.cond.Broadcast()
			return err
		}

		st.mu.Lock()
		st.ran++
		for _, d := range s.graph.Downstream[curr] {
			if _, inClosure := closure[d]; !inClosure {
				continue
			}
			st.remIn[d]--
			if st.remIn[d] == 0 {
				st.ready = append(st.ready, d)
			}
		}
		st.remaining--
		st.inflight--
		st.mu.Unlock()
		st.cond.Broadcast()
	}
}

// runStage invokes a node's closure, converting panics of the user
// computation into ErrStageFailed. Fetch and publish errors pass through
// unchanged so ErrTypeMismatch keeps its identity.
func runStage(n *fdag.Node) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s: panic: %v", fdag.ErrStageFailed, n.Key, r)
		}
	}()
	return n.Run()
}
