package batch

import (
	"cmp"
	"fmt"
	"math"
)

// KeyOrder supplies the two relations the pipeline needs over batch keys.
//
// Compare is a total order used to sort commands. Mergeable decides whether
// two commands may share a draw call and must be an equivalence relation.
// The two are independent: Mergeable is never inferred from Compare.
type KeyOrder[K any] interface {
	Compare(a, b K) int
	Mergeable(a, b K) bool
}

// KeyValidator is optionally implemented by a KeyOrder to reject keys its
// relations do not cover.
type KeyValidator[K any] interface {
	ValidateKey(k K) error
}

// KeyFuncs adapts a pair of functions to KeyOrder.
type KeyFuncs[K any] struct {
	CompareFunc   func(a, b K) int
	MergeableFunc func(a, b K) bool
}

// Compare implements KeyOrder.
func (f KeyFuncs[K]) Compare(a, b K) int { return f.CompareFunc(a, b) }

// Mergeable implements KeyOrder.
func (f KeyFuncs[K]) Mergeable(a, b K) bool { return f.MergeableFunc(a, b) }

// DrawKey is a general-purpose batch key for 2D drawing.
type DrawKey struct {
	// Z is the layer; lower values draw first.
	Z float32

	// Pipeline identifies the render pipeline.
	Pipeline uint32

	// BindGroup identifies the texture bind group, usually an atlas page.
	BindGroup uint32
}

func (k DrawKey) String() string {
	return fmt.Sprintf("DrawKey(z=%g pipeline=%d bind=%d)", k.Z, k.Pipeline, k.BindGroup)
}

// DrawKeyOrder sorts DrawKeys by Z alone, so commands on the same layer
// drain in the order they were pushed. Keys that share both pipeline and
// bind group merge regardless of Z.
type DrawKeyOrder struct{}

// Compare implements KeyOrder.
func (DrawKeyOrder) Compare(a, b DrawKey) int {
	return cmp.Compare(a.Z, b.Z)
}

// Mergeable implements KeyOrder.
func (DrawKeyOrder) Mergeable(a, b DrawKey) bool {
	return a.Pipeline == b.Pipeline && a.BindGroup == b.BindGroup
}

// ValidateKey rejects keys whose Z cannot be ordered.
func (DrawKeyOrder) ValidateKey(k DrawKey) error {
	if math.IsNaN(float64(k.Z)) || math.IsInf(float64(k.Z), 0) {
		return fmt.Errorf("%v: z is not finite", k)
	}
	return nil
}
