package flowz

import (
	"reflect"

	"github.com/birdayz/flowz/fdag"
)

// Port is a typed handle to a stage's output. It carries the stage key and,
// as a phantom type parameter, the stage's declared output type. Ports are
// the only way to reference a stage when wiring, which is what makes wiring
// statically type-safe.
//
// Ports are plain values; copying them is cheap and safe.
type Port[T any] struct {
	key fdag.Key
}

// Key returns the key of the stage this port refers to.
func (p Port[T]) Key() fdag.Key {
	return p.key
}

// Pair is the output of a Join stage: the two upstream values, in wiring
// order.
type Pair[A, B any] struct {
	First  A
	Second B
}

// Unit is the output type of stages that exist only for their effects, such
// as file writes. A Unit-valued port models write-then-read ordering.
type Unit struct{}

// typeOf returns the reflect.Type of T. Unlike reflect.TypeOf on a value,
// it also works for interface types.
func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}
