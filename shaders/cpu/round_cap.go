// Copyright 2024 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package cpu

import (
	"math"

	"honnef.co/go/curve"
	"honnef.co/go/gpulines/jmath"
	"honnef.co/go/gpulines/shaders"
)

// RoundCap computes vertex index of the strip for an endpoint instance with
// round joins. The strip consists of the cap at B, the first segment B→C and
// the round join at C.
func RoundCap(index int, w *Window, u *Uniforms) Vertex {
	var out Vertex

	if Invalid(w.B) || Invalid(w.C) || Invalid(w.D) {
		return Vertex{}
	}

	out.Width = w.WidthC
	out.UseC = 1
	computedW := w.C.W

	pB := toScreen(w.B, u.Resolution)
	pC := toScreen(w.C, u.Resolution)
	pD := toScreen(w.D, u.Resolution)

	if clipped(pB, pC) {
		return Vertex{}
	}

	bc := newSegment(pB, pC)
	cd := newSegment(pC, pD)
	lBCD := jmath.Min(bc.l, cd.l)

	dirC := turn(bc.t, cd.n)

	i := float64(index)
	var xy curve.Vec2
	var dz float64
	pos := pC

	selfIntersects := IsSelfIntersection(bc.t, cd.t, out.Width, lBCD)

	if i < u.CapResolution2+1 {
		i -= u.CapResolution2
		pos = pB
		out.Width = w.WidthB
		out.UseC = 0
		computedW = w.B.W

		// Odd vertices are the center of the fan at B.
		if jmath.Mod(i, 2) != 1 {
			theta := i / u.CapResolution2 * math.Pi
			xy = curve.Vec2{X: math.Sin(theta), Y: -math.Cos(theta) * dirC}
			if math.Abs(xy.X) > 0.1 {
				xy = curve.Vec2{X: xy.X * u.CapScale.X, Y: xy.Y * u.CapScale.Y}
			}
			out.LineCoord = xy
			pos = pos.WithXY(pB.XY().Add(basis{bc.t, bc.n}.apply(xy).Mul(out.Width)))
		}
	} else {
		i -= u.CapResolution2
		iLast := u.JoinResolution*2 + 4

		var xyBasis basis
		if i <= 2 || i == iLast {
			out.LineCoord.Y = -dirC
			if i == 1 {
				out.LineCoord.Y = dirC
			}

			mC := MiterExtension(bc.t, cd.t) * w.WidthC
			bcdClip := bc.l
			if selfIntersects {
				bcdClip = lBCD
			}
			var mC0, mC1 float64
			if dirC > 0 {
				mC0 = jmath.Min(bcdClip, -mC)
			} else {
				mC1 = jmath.Min(bcdClip, mC)
			}

			xyBasis = basis{bc.t, bc.n}
			isStart := i < 2
			if isStart {
				out.UseC = 0
				pos.Z = pB.Z
				xy.X = -bc.l
			} else {
				pos.Z = pC.Z
				xy.X = -mC0
				if out.LineCoord.Y > 0 {
					xy.X = -mC1
				}
				out.UseC -= dirC * xy.X / bc.l * out.LineCoord.Y
			}
			xy.Y = out.LineCoord.Y
			xy.X /= out.Width
		} else {
			miterNormal := cd.t.Add(bc.t).Mul(0.5)
			miterNormalLen := miterNormal.Hypot()
			isDegenerate := miterNormalLen == 0

			xBasis := cd.n
			if !isDegenerate {
				xBasis = miterNormal.Div(miterNormalLen)
			}
			xyBasis = basis{xBasis, normal(xBasis)}

			// Even vertices are the center of the fan at C.
			if !isEven(i) {
				out.LineCoord.Y = dirC
				i = (i - 3) * 0.5
				if dirC > 0 {
					i = u.JoinResolution - i
				}
				cosTheta := jmath.Clamp(bc.n.Dot(cd.n), -1, 1)
				theta := 0.5 * math.Acos(cosTheta) * (0.5 - 0.5*dirC - i/u.JoinResolution)
				xy = arcPoint(theta).Mul(dirC)

				if !isDegenerate {
					dz = -(pB.Z - pC.Z) * jmath.Clamp(xy.X*out.Width/bc.l, -0.5, 0.5)
				}
			}
		}

		pos = pos.WithXY(pC.XY().Add(xyBasis.apply(xy).Mul(out.Width)))
	}

	if w.Orientation == shaders.CapEnd {
		out.LineCoord = out.LineCoord.Negate()
	}

	if selfIntersects {
		pos.Z = jmath.Mix(pB.Z, pC.Z, out.UseC)
	}
	pos.Z += dz

	out.Position = fromScreen(pos, u.Resolution, computedW)
	return out
}
