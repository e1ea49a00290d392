// Copyright 2026 The hephae Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package vertex describes the binary layout of vertices written into the
// batching pipeline's vertex buffers.
//
// The batching core treats vertices as opaque records of Layout.Stride bytes.
// A Layout is built once per rendering use-case and maps directly to the
// gputypes.VertexBufferLayout consumed by a render pipeline.
package vertex

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
)

// Layout errors.
var (
	// ErrEmptyLayout is returned when a layout has no attributes.
	ErrEmptyLayout = errors.New("vertex: layout has no attributes")

	// ErrUnknownFormat is returned for vertex formats without a known byte size.
	ErrUnknownFormat = errors.New("vertex: unknown vertex format")

	// ErrAttributeOutOfBounds is returned when an attribute extends past the stride.
	ErrAttributeOutOfBounds = errors.New("vertex: attribute exceeds stride")
)

// Layout is the attribute list and stride of one vertex type.
type Layout struct {
	// Stride is the byte size of one vertex.
	Stride uint64

	// Attributes lists the vertex attributes in shader location order.
	Attributes []gputypes.VertexAttribute
}

// NewLayout builds a tightly packed layout from the given attribute formats.
// Offsets are assigned in order and shader locations start at 0.
func NewLayout(formats ...gputypes.VertexFormat) (Layout, error) {
	if len(formats) == 0 {
		return Layout{}, ErrEmptyLayout
	}

	l := Layout{Attributes: make([]gputypes.VertexAttribute, 0, len(formats))}
	for i, f := range formats {
		size, ok := FormatSize(f)
		if !ok {
			return Layout{}, fmt.Errorf("attribute %d: %w", i, ErrUnknownFormat)
		}
		l.Attributes = append(l.Attributes, gputypes.VertexAttribute{
			Format:         f,
			Offset:         l.Stride,
			ShaderLocation: uint32(i), //nolint:gosec // attribute count is tiny
		})
		l.Stride += size
	}
	return l, nil
}

// MustLayout is like NewLayout but panics on error. It is meant for
// package-level layout variables built from constant formats.
func MustLayout(formats ...gputypes.VertexFormat) Layout {
	l, err := NewLayout(formats...)
	if err != nil {
		panic(err)
	}
	return l
}

// Validate reports whether the layout can describe a vertex buffer.
func (l Layout) Validate() error {
	if len(l.Attributes) == 0 {
		return ErrEmptyLayout
	}
	for i, a := range l.Attributes {
		size, ok := FormatSize(a.Format)
		if !ok {
			return fmt.Errorf("attribute %d: %w", i, ErrUnknownFormat)
		}
		if a.Offset+size > l.Stride {
			return fmt.Errorf("attribute %d at offset %d: %w", i, a.Offset, ErrAttributeOutOfBounds)
		}
	}
	return nil
}

// BufferLayout returns the per-vertex buffer layout for pipeline creation.
func (l Layout) BufferLayout() gputypes.VertexBufferLayout {
	return gputypes.VertexBufferLayout{
		ArrayStride: l.Stride,
		StepMode:    gputypes.VertexStepModeVertex,
		Attributes:  l.Attributes,
	}
}

// FormatSize returns the byte size of a vertex format.
func FormatSize(f gputypes.VertexFormat) (uint64, bool) {
	switch f {
	case gputypes.VertexFormatFloat32, gputypes.VertexFormatUint32:
		return 4, true
	case gputypes.VertexFormatFloat32x2:
		return 8, true
	case gputypes.VertexFormatFloat32x3:
		return 12, true
	case gputypes.VertexFormatFloat32x4:
		return 16, true
	default:
		return 0, false
	}
}
