// Copyright 2024 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package cpu

import (
	"math"

	"honnef.co/go/curve"
	"honnef.co/go/gpulines/jmath"
)

// RoundSegment computes vertex index of the strip for a segment instance
// with round joins. The first half of the strip covers the half of segment
// B→C nearest to B together with the round join at B, the second half covers
// the rest of the segment and the join at C. The first half is computed by
// mirroring the window, so that both halves share the same code.
//
// With a join resolution of 3, one half of the strip looks like this:
//
//	1 ------------------------ 3 -5
//	| ...                     /|    7
//	|     ...                / |     \
//	|         ...           /  + ---- 9
//	|            ...       /  / \ _ -
//	|                ...  / / _ -\
//	0 ------------------ x -      \
//	                      \        + 4, 6, 8 (= pC)
//	                       \
//	                        +- 2, 10
func RoundSegment(index int, w *Window, u *Uniforms) Vertex {
	var out Vertex

	if Invalid(w.A) || Invalid(w.B) || Invalid(w.C) || Invalid(w.D) {
		return Vertex{}
	}

	jres2 := 2 * u.JoinResolution
	idx := float64(index)

	a, b, c, d := w.A, w.B, w.C, w.D
	widthB, widthC := w.WidthB, w.WidthC
	isStart := idx <= jres2+3
	if isStart {
		a, b, c, d = d, c, b, a
		widthB, widthC = widthC, widthB
	}

	out.Width = widthC
	if !isStart {
		out.UseC = 1
	}
	computedW := c.W

	pA := toScreen(a, u.Resolution)
	pB := toScreen(b, u.Resolution)
	pC := toScreen(c, u.Resolution)
	pD := toScreen(d, u.Resolution)

	if clipped(pB, pC) {
		return Vertex{}
	}

	bc := newSegment(pB, pC)
	ab := newSegment(pA, pB)
	cd := newSegment(pC, pD)
	lBCD := jmath.Min(bc.l, cd.l)

	// Collinear segments count as a right turn at C and a left turn at B.
	dirB := turn(ab.t, bc.n)
	dirC := 1.0
	if bc.t.Dot(cd.n) <= 0 {
		dirC = -1
	}

	// ix is the index within the part of the strip (join or fan), iy the
	// overall index.
	ix, iy := idx, idx
	if dirB*dirC < 0 {
		if iy == jres2+2 {
			ix -= 2
			iy -= 2
		}
	} else {
		if iy == jres2+3 {
			ix -= 3
			iy -= 3
		}
	}

	pos := pC
	var xy curve.Vec2
	var xyBasis basis
	var dz float64

	selfIntersects := IsSelfIntersection(bc.n, cd.n, widthC, lBCD)

	if iy < jres2+1 || iy >= jres2+5 {
		miterNormal := cd.t.Add(bc.t).Mul(0.5)
		miterNormalLen := miterNormal.Hypot()
		isDegenerate := miterNormalLen == 0

		xBasis := bc.n
		if !isDegenerate {
			xBasis = miterNormal.Div(miterNormalLen)
		}
		yBasis := normal(xBasis)
		if isDegenerate && !isStart {
			xBasis = xBasis.Negate()
		}
		xyBasis = basis{xBasis, yBasis}

		if !isStart {
			ix = 2*jres2 + 5 - ix
		}

		// Odd vertices are the center of the fan.
		if isEven(ix) {
			out.LineCoord.Y = dirC
			if isStart {
				out.LineCoord.Y = -dirC
			}
			cosTheta := jmath.Clamp(bc.n.Dot(cd.n), -1, 1)
			theta := -0.5 * dirC * math.Acos(cosTheta) * (ix / jres2)
			xy = arcPoint(theta).Mul(dirC)

			// Smooth z around the join, but by no more than half of the
			// difference to the neighboring point.
			dz = -(pB.Z - pC.Z) * jmath.Clamp(xy.X*widthC/bc.l, -0.5, 0.5)
		}
	} else {
		y := -dirC
		if ix == 1 {
			y = dirC
		}
		out.LineCoord.Y = -dirC
		if isStart {
			out.LineCoord.Y = dirC
		}

		mB := MiterExtension(ab.t, bc.t) * widthB
		mC := MiterExtension(bc.t, cd.t) * widthC

		// Clip the corners against the opposite end of the segment.
		lABC := jmath.Min(ab.l, bc.l)
		abcClip, bcdClip := bc.l, bc.l
		if selfIntersects {
			abcClip, bcdClip = lABC, lBCD
		}
		var mB0, mB1, mC0, mC1 float64
		if dirB > 0 {
			mB0 = jmath.Min(abcClip, -mB)
		} else {
			mB1 = jmath.Min(abcClip, mB)
		}
		if dirC > 0 {
			mC0 = jmath.Min(bcdClip, -mC)
		} else {
			mC1 = jmath.Min(bcdClip, mC)
		}

		xyBasis = basis{bc.t, bc.n}
		if ix < 2 {
			// Corner at B.
			xy.X = mB0 - bc.l
			if y > 0 {
				xy.X = mB1 - bc.l
			}
		} else {
			xy.X = -mC0
			if y > 0 {
				xy.X = -mC1
			}
		}
		xy.Y = y

		if bc.l > 0 {
			out.UseC = jmath.Clamp(out.UseC-dirC*xy.X/bc.l*out.LineCoord.Y, 0, 1)
		}
		xy.X /= widthC
	}

	if selfIntersects {
		// Sharp joins get a discontinuous z, interpolated like a varying.
		t := out.UseC
		if isStart {
			t = 1 - t
		}
		pos.Z = jmath.Mix(pB.Z, pC.Z, t)
	}
	pos.Z += dz
	pos = pos.WithXY(pC.XY().Add(xyBasis.apply(xy).Mul(widthC)))

	out.Position = fromScreen(pos, u.Resolution, computedW)
	return out
}
