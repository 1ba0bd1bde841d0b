// Copyright 2024 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package renderer

import (
	"honnef.co/go/gpulines/mem"
	"honnef.co/go/gpulines/shaders"
)

// VertexAttribute is one attribute binding of a draw, in the terms of the
// host's vertex fetch: instance i of a draw reads its value at
// Offset + Stride * floor(i / Divisor), or Offset + Stride * vertexIndex
// when Divisor is zero.
type VertexAttribute struct {
	Name      string
	Buffer    BufferProxy
	Dimension int
	Type      ElementType
	Offset    int
	Stride    int
	Divisor   int
}

// Instancing describes how instances of a draw advance through the buffers.
type Instancing struct {
	Endpoint bool
	// Orientation of the draw's instances when caps are split into separate
	// draws for line starts and line ends.
	Orientation int
	SplitCaps   bool
}

// Layout computes the vertex attributes of a draw.
//
// Segment instances advance through the buffer one point at a time, each
// instance reading the four consecutive points A, B, C and D at fixed
// offsets from the instance's base. Endpoint buffers store three points per
// line endpoint, B, C and D, so instances advance three points at a time.
// When caps are split, start and end endpoints alternate and each of the
// two draws skips every other endpoint.
func Layout(arena *mem.Arena, inputs []shaders.Input, bindings map[string]AttributeBinding, inst Instancing) []VertexAttribute {
	out := mem.NewSlice[[]VertexAttribute](arena, 0, len(inputs))
	for _, in := range inputs {
		b := bindings[in.Attr.Name]
		attr := VertexAttribute{
			Name:      in.Name,
			Buffer:    b.Buffer,
			Dimension: b.Dimension,
			Type:      b.Type,
			Divisor:   b.Divisor,
		}
		if inst.Endpoint {
			instanceStride := 3
			if in.PerInstance {
				instanceStride = 1
			}
			first := 0
			if inst.SplitCaps && inst.Orientation != shaders.CapStart {
				first = 3
			}
			split := 1
			if inst.SplitCaps {
				split = 2
			}
			attr.Offset = b.Offset + b.Stride*(first+in.Index)
			attr.Stride = b.Stride * instanceStride * split
		} else {
			attr.Offset = b.Offset + b.Stride*in.Index
			attr.Stride = b.Stride
		}
		out = append(out, attr)
	}
	return out
}
