// Copyright 2024 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

// Package cpu provides CPU implementations of the line vertex shaders.
//
// These functions intentionally replicate the vertex shaders instead of
// using a more CPU-friendly tessellation. They compute exactly one vertex
// per call, as a pure function of the vertex index, the evaluated window of
// points and the uniforms, and they produce the same triangle strips as the
// GPU. They are a reference and debug tool, not a fast fallback.
package cpu

import (
	"math"

	"honnef.co/go/curve"
	"honnef.co/go/gpulines/jmath"
)

type Vec4 struct {
	X, Y, Z, W float64
}

func (v Vec4) XY() curve.Vec2 {
	return curve.Vec2{X: v.X, Y: v.Y}
}

func (v Vec4) WithXY(xy curve.Vec2) Vec4 {
	v.X = xy.X
	v.Y = xy.Y
	return v
}

func (v Vec4) Scale(f float64) Vec4 {
	return Vec4{v.X * f, v.Y * f, v.Z * f, v.W * f}
}

// Window is the neighborhood of one instance, with the user's position,
// width and orientation functions already evaluated. Positions are in clip
// space. Segment instances use all four points, with B→C being the segment
// and A and D its neighbors. Endpoint instances don't use A.
type Window struct {
	A, B, C, D Vec4

	WidthB float64
	WidthC float64

	// shaders.CapStart or shaders.CapEnd. Only used by endpoint instances.
	Orientation float64
}

type Uniforms struct {
	// Viewport size in pixels.
	Resolution curve.Vec2
	// Miter limit in cotangent form, sqrt(limit² - 1).
	MiterLimit     float64
	JoinResolution float64
	// Twice the cap resolution.
	CapResolution2 float64
	CapScale       curve.Vec2
}

// Vertex is the output of a single shader invocation.
type Vertex struct {
	// Clip space position.
	Position Vec4
	// Position within the line, with Y in [-1, 1] across it.
	LineCoord curve.Vec2
	// Width of the line at this vertex.
	Width float64
	// Interpolation weight between B and C for varyings.
	UseC float64
}

// IsZero reports whether the vertex was discarded.
func (v Vertex) IsZero() bool {
	return v.Position == Vec4{}
}

// A Shader computes one vertex.
type Shader func(index int, w *Window, u *Uniforms) Vertex

// MiterExtension returns how far a miter join extends along the segments,
// in units of the line width, for unit tangents t01 and t12. It is the
// tangent of half the turning angle.
func MiterExtension(t01, t12 curve.Vec2) float64 {
	cosTheta := t01.Dot(t12)
	if cosTheta-1e-7 < -1 {
		return 0
	}
	sinTheta := t01.X*t12.Y - t01.Y*t12.X
	return sinTheta / (1 + cosTheta)
}

// Invalid reports whether a point signals that no geometry should be
// produced for it.
func Invalid(p Vec4) bool {
	return p.W == 0 || math.IsNaN(p.X)
}

// IsSelfIntersection reports whether the join between segments with unit
// directions tBC and tCD folds over itself, given the width at the join and
// the length of the shorter segment.
func IsSelfIntersection(tBC, tCD curve.Vec2, widthC, lBCD float64) bool {
	if tBC.Dot(tCD) > 0 {
		return false
	}
	return tBC.Add(tCD).Hypot()*lBCD < 2*widthC
}

// toScreen converts a clip space position to pixel space, dividing by w.
func toScreen(p Vec4, res curve.Vec2) Vec4 {
	return Vec4{p.X * res.X / p.W, p.Y * res.Y / p.W, p.Z / p.W, 1}
}

// fromScreen undoes toScreen for an output vertex with the given w.
func fromScreen(p Vec4, res curve.Vec2, w float64) Vec4 {
	p.X /= res.X
	p.Y /= res.Y
	return p.Scale(w)
}

func normal(t curve.Vec2) curve.Vec2 {
	return curve.Vec2{X: -t.Y, Y: t.X}
}

// turn returns -1 if the path turns clockwise from t to the segment with
// normal n, and 1 otherwise, including when the segments are collinear.
func turn(t, n curve.Vec2) float64 {
	if t.Dot(n) < 0 {
		return -1
	}
	return 1
}

// basis is a 2x2 matrix given by its columns.
type basis struct {
	x, y curve.Vec2
}

func (b basis) apply(v curve.Vec2) curve.Vec2 {
	return b.x.Mul(v.X).Add(b.y.Mul(v.Y))
}

// segment holds the tangent, normal and length of one segment of the
// window, in pixel space.
type segment struct {
	t, n curve.Vec2
	l    float64
}

func newSegment(from, to Vec4) segment {
	r := to.XY().Sub(from.XY())
	l := r.Hypot()
	t := r.Div(l)
	return segment{t: t, n: normal(t), l: l}
}

// clipped reports whether either active point lies in front of the near
// plane or behind the far plane.
func clipped(pB, pC Vec4) bool {
	return max(math.Abs(pB.Z), math.Abs(pC.Z)) > 1
}

func arcPoint(theta float64) curve.Vec2 {
	return curve.Vec2{X: math.Sin(theta), Y: math.Cos(theta)}
}

func isEven(i float64) bool {
	return jmath.Mod(i, 2) == 0
}
