package flowz

import (
	"fmt"
	"reflect"

	"github.com/birdayz/flowz/fdag"
	"github.com/birdayz/flowz/fstate"
)

// AddSource registers a stage with no inputs. fn is invoked once per run
// that includes this stage and its result is published under key.
func AddSource[Out any](p *Pipeline, key string, fn func() (Out, error)) (Port[Out], error) {
	k := fdag.Key(key)
	node := &fdag.Node{
		Key:        k,
		Upstream:   []fdag.Key{},
		InputTypes: []reflect.Type{},
		OutputType: typeOf[Out](),
		Run: func() error {
			out, err := fn()
			if err != nil {
				return stageFailed(k, err)
			}
			p.store.Put(k, out)
			return nil
		},
	}
	if err := p.graph.Add(node); err != nil {
		return Port[Out]{}, err
	}
	return Port[Out]{key: k}, nil
}

// MustAddSource is like AddSource but panics on error.
func MustAddSource[Out any](p *Pipeline, key string, fn func() (Out, error)) Port[Out] {
	return must1(AddSource(p, key, fn))
}

// AddStage registers a unary stage consuming the value of in.
func AddStage[In, Out any](p *Pipeline, key string, fn func(In) (Out, error), in Port[In]) (Port[Out], error) {
	k := fdag.Key(key)
	node := &fdag.Node{
		Key:        k,
		Upstream:   []fdag.Key{in.key},
		InputTypes: []reflect.Type{typeOf[In]()},
		OutputType: typeOf[Out](),
		Run: func() error {
			input, err := fstate.Get[In](p.store, in.key)
			if err != nil {
				return err
			}
			out, err := fn(input)
			if err != nil {
				return stageFailed(k, err)
			}
			p.store.Put(k, out)
			return nil
		},
	}
	if err := p.graph.Add(node); err != nil {
		return Port[Out]{}, err
	}
	return Port[Out]{key: k}, nil
}

// MustAddStage is like AddStage but panics on error.
func MustAddStage[In, Out any](p *Pipeline, key string, fn func(In) (Out, error), in Port[In]) Port[Out] {
	return must1(AddStage(p, key, fn, in))
}

// AddStage2 registers a binary stage. The declared parameter types must
// match the supplied ports position by position; the compiler enforces
// this, and the graph re-checks it for dynamically built nodes.
func AddStage2[A, B, Out any](p *Pipeline, key string, fn func(A, B) (Out, error), a Port[A], b Port[B]) (Port[Out], error) {
	k := fdag.Key(key)
	node := &fdag.Node{
		Key:        k,
		Upstream:   []fdag.Key{a.key, b.key},
		InputTypes: []reflect.Type{typeOf[A](), typeOf[B]()},
		OutputType: typeOf[Out](),
		Run: func() error {
			va, err := fstate.Get[A](p.store, a.key)
			if err != nil {
				return err
			}
			vb, err := fstate.Get[B](p.store, b.key)
			if err != nil {
				return err
			}
			out, err := fn(va, vb)
			if err != nil {
				return stageFailed(k, err)
			}
			p.store.Put(k, out)
			return nil
		},
	}
	if err := p.graph.Add(node); err != nil {
		return Port[Out]{}, err
	}
	return Port[Out]{key: k}, nil
}

// MustAddStage2 is like AddStage2 but panics on error.
func MustAddStage2[A, B, Out any](p *Pipeline, key string, fn func(A, B) (Out, error), a Port[A], b Port[B]) Port[Out] {
	return must1(AddStage2(p, key, fn, a, b))
}

// AddStage3 registers a ternary stage.
func AddStage3[A, B, C, Out any](p *Pipeline, key string, fn func(A, B, C) (Out, error), a Port[A], b Port[B], c Port[C]) (Port[Out], error) {
	k := fdag.Key(key)
	node := &fdag.Node{
		Key:        k,
		Upstream:   []fdag.Key{a.key, b.key, c.key},
		InputTypes: []reflect.Type{typeOf[A](), typeOf[B](), typeOf[C]()},
		OutputType: typeOf[Out](),
		Run: func() error {
			va, err := fstate.Get[A](p.store, a.key)
			if err != nil {
				return err
			}
			vb, err := fstate.Get[B](p.store, b.key)
			if err != nil {
				return err
			}
			vc, err := fstate.Get[C](p.store, c.key)
			if err != nil {
				return err
			}
			out, err := fn(va, vb, vc)
			if err != nil {
				return stageFailed(k, err)
			}
			p.store.Put(k, out)
			return nil
		},
	}
	if err := p.graph.Add(node); err != nil {
		return Port[Out]{}, err
	}
	return Port[Out]{key: k}, nil
}

// MustAddStage3 is like AddStage3 but panics on error.
func MustAddStage3[A, B, C, Out any](p *Pipeline, key string, fn func(A, B, C) (Out, error), a Port[A], b Port[B], c Port[C]) Port[Out] {
	return must1(AddStage3(p, key, fn, a, b, c))
}

// Join registers the built-in pairing stage: it has no user computation,
// it loads both upstream values and publishes them as a Pair.
func Join[A, B any](p *Pipeline, key string, a Port[A], b Port[B]) (Port[Pair[A, B]], error) {
	k := fdag.Key(key)
	node := &fdag.Node{
		Key:        k,
		Upstream:   []fdag.Key{a.key, b.key},
		InputTypes: []reflect.Type{typeOf[A](), typeOf[B]()},
		OutputType: typeOf[Pair[A, B]](),
		Run: func() error {
			va, err := fstate.Get[A](p.store, a.key)
			if err != nil {
				return err
			}
			vb, err := fstate.Get[B](p.store, b.key)
			if err != nil {
				return err
			}
			p.store.Put(k, Pair[A, B]{First: va, Second: vb})
			return nil
		},
	}
	if err := p.graph.Add(node); err != nil {
		return Port[Pair[A, B]]{}, err
	}
	return Port[Pair[A, B]]{key: k}, nil
}

// MustJoin is like Join but panics on error.
func MustJoin[A, B any](p *Pipeline, key string, a Port[A], b Port[B]) Port[Pair[A, B]] {
	return must1(Join(p, key, a, b))
}

func stageFailed(k fdag.Key, err error) error {
	return fmt.Errorf("%w: %s: %w", fdag.ErrStageFailed, k, err)
}

func must1[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}
