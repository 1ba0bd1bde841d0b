// Copyright 2024 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package cpu

import (
	"math"

	"honnef.co/go/curve"
	"honnef.co/go/gpulines/jmath"
)

// miterSegmentPositions maps the vertex index of a miter segment instance to
// (end, side). end is 0 for B, 1 for C and 2 for the bevel vertex of the
// join at C. side is ±1 across the line.
var miterSegmentPositions = [5]curve.Vec2{
	{X: 0, Y: 1},
	{X: 0, Y: -1},
	{X: 1, Y: 1},
	{X: 1, Y: -1},
	{X: 2, Y: 1},
}

// MiterSegment computes vertex index of the 5-vertex strip covering segment
// B→C, with mitered or beveled ends and the bevel triangle of the join at C.
func MiterSegment(index int, w *Window, u *Uniforms) Vertex {
	linePosition := miterSegmentPositions[index]
	out := Vertex{LineCoord: curve.Vec2{X: 0, Y: linePosition.Y}}

	if Invalid(w.A) || Invalid(w.B) || Invalid(w.C) || Invalid(w.D) {
		return Vertex{}
	}

	widthB := w.WidthB
	out.Width = w.WidthC
	out.UseC = 1
	computedW := w.C.W

	pA := toScreen(w.A, u.Resolution)
	pB := toScreen(w.B, u.Resolution)
	pC := toScreen(w.C, u.Resolution)
	pD := toScreen(w.D, u.Resolution)

	if clipped(pB, pC) {
		return Vertex{}
	}

	ab := newSegment(pA, pB)
	bc := newSegment(pB, pC)
	cd := newSegment(pC, pD)

	pos := pC
	xy := pC.XY()

	dirC := turn(bc.t, cd.n)
	if linePosition.X > 1 {
		// Bevel vertex on the outside of the join at C.
		xy = xy.Add(cd.n.Mul(dirC * linePosition.Y * out.Width))
		out.LineCoord.Y = dirC
	} else {
		isStart := linePosition.X < 0.5
		if isStart {
			out.UseC = 0
			out.Width = widthB
			computedW = w.B.W
		}

		var m float64
		if isStart {
			m = MiterExtension(ab.t, bc.t)
		} else {
			m = MiterExtension(bc.t, cd.t)
		}
		width := out.Width
		lABC := jmath.Min(ab.l, bc.l)
		lBCD := jmath.Min(bc.l, cd.l)
		m0abc := jmath.Min(-m*width, lABC)
		m1abc := jmath.Min(m*width, lABC)
		m0bcd := jmath.Min(-m*width, lBCD)
		m1bcd := jmath.Min(m*width, lBCD)

		xy = xy.Add(bc.n.Mul(linePosition.Y * width))

		if isStart {
			pos.Z = pB.Z
			dirB := turn(ab.t, bc.n)
			var pull float64
			if dirB*linePosition.Y <= 0 {
				// B is on the inside of the join; pull the corner forward so
				// it meets the previous segment's corner.
				if linePosition.Y < 0 {
					pull = m0abc
				} else {
					pull = m1abc
				}
			}
			xy = xy.Sub(bc.t.Mul(bc.l - pull))
		} else {
			cIsOuter := dirC*linePosition.Y > 0
			clipC := math.Abs(m) > u.MiterLimit
			if !(cIsOuter && clipC) {
				if linePosition.Y > 0 {
					xy = xy.Sub(bc.t.Mul(m1bcd))
				} else {
					xy = xy.Sub(bc.t.Mul(m0bcd))
				}
			}
		}
	}

	out.Position = fromScreen(pos.WithXY(xy), u.Resolution, computedW)
	return out
}
