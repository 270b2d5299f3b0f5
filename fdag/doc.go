// Package fdag holds the type-erased build-time representation of a
// pipeline: stages, edges and in-degrees, plus the closed set of sentinel
// errors shared by the whole library.
//
// The typed registration API lives in the root flowz package. During
// registration the generic type information is captured twice: as
// reflect.Type signatures on the Node (so wiring can be validated without
// generic parameters) and inside the Node's Run closure (so execution needs
// no reflection at all). This mirrors a two-phase build/run split: graphs
// are mutated serially while building and only read while running.
package fdag
