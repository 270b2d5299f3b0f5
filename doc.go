// Package flowz builds and executes typed dataflow pipelines.
//
// A pipeline is a DAG of stages. Each stage is registered under a unique
// string key, declares its inputs by reference to the ports of previously
// registered stages, and produces one typed value per run. Requesting a
// target port executes exactly the stages the target transitively depends
// on, in dependency order, over a bounded worker pool, and returns the
// target's typed value:
//
//	p := flowz.New()
//	src := flowz.MustAddSource(p, "src", func() (int, error) { return 5, nil })
//	incr := flowz.MustAddStage(p, "incr", func(x int) (int, error) { return x + 1, nil }, src)
//	triple := flowz.MustAddStage(p, "triple", func(x int) (int, error) { return x * 3, nil }, src)
//	joined := flowz.MustJoin(p, "join", incr, triple)
//	sum := flowz.MustAddStage(p, "sum", func(v flowz.Pair[int, int]) (int, error) {
//		return v.First + v.Second, nil
//	}, joined)
//
//	out, err := flowz.Run(p, sum, flowz.WithWorkers(4))
//
// Wiring is statically type-safe: a Port[T] can only feed a stage whose
// corresponding parameter is T. Intermediate results are memoized within a
// run and discarded at the start of the next one.
//
// User computations must be pure of cross-stage communication; sibling
// stages run in unspecified order, possibly concurrently. The outputs of a
// successful run are deterministic regardless of worker count.
package flowz
