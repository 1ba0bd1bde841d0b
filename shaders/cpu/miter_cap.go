// Copyright 2024 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package cpu

import (
	"math"

	"honnef.co/go/curve"
	"honnef.co/go/gpulines/jmath"
	"honnef.co/go/gpulines/shaders"
)

// MiterCap computes vertex index of the strip for an endpoint instance with
// miter joins. The strip consists of the half-circle (or square) cap at B,
// followed by the first segment B→C and the bevel at C. B is the endpoint, C
// and D the points following it on the line.
func MiterCap(index int, w *Window, u *Uniforms) Vertex {
	var out Vertex

	if Invalid(w.B) || Invalid(w.C) || Invalid(w.D) {
		return Vertex{}
	}

	widthB := w.WidthB
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

	pos := pC
	xy := pC.XY()

	dirC := turn(bc.t, cd.n)
	endSign := -1.0
	if w.Orientation == shaders.CapStart {
		endSign = 1
	}

	i := float64(index)
	if dirC > 0 {
		// Walk backwards so that the winding order is correct.
		i = u.CapResolution2 + 4 - i
	}

	if i <= u.CapResolution2 {
		pos = pB
		xy = pB.XY()
		out.Width = widthB
		computedW = w.B.W
		out.UseC = 0

		// Odd vertices stay at B, forming a fan.
		if isEven(i) {
			b := basis{bc.t.Negate(), bc.n.Mul(dirC)}
			theta := i / u.CapResolution2 * math.Pi
			out.LineCoord = arcPoint(theta)
			if math.Abs(out.LineCoord.X) > 0.1 {
				out.LineCoord = curve.Vec2{
					X: out.LineCoord.X * u.CapScale.X,
					Y: out.LineCoord.Y * u.CapScale.Y,
				}
			}
			xy = xy.Add(b.apply(out.LineCoord).Mul(out.Width))
			out.LineCoord.Y *= dirC * endSign
		}
	} else {
		i -= u.CapResolution2 + 1

		var position curve.Vec2
		switch {
		case i == 3 && w.Orientation == shaders.CapStart:
			position = curve.Vec2{X: 2, Y: 1}
		case i == 0:
			position = curve.Vec2{X: 0, Y: 1}
		case i == 1:
			position = curve.Vec2{X: 1, Y: -1}
		default:
			position = curve.Vec2{X: 1, Y: 1}
		}
		position.Y *= dirC
		out.LineCoord.Y = position.Y * endSign

		if position.X > 1 {
			xy = xy.Add(cd.n.Mul(position.Y * out.Width))
		} else {
			isSegmentStart := position.X < 0.5
			if isSegmentStart {
				out.Width = widthB
				computedW = w.B.W
				out.UseC = 0
				pos = pB
				xy = pB.XY()
			}

			xy = xy.Add(bc.n.Mul(position.Y * out.Width))

			if !isSegmentStart {
				m := MiterExtension(bc.t, cd.t)
				lBCD := jmath.Min(bc.l, cd.l)
				m0 := jmath.Min(-m*out.Width, lBCD)
				m1 := jmath.Min(m*out.Width, lBCD)
				cIsOuter := dirC*position.Y > 0
				clipC := math.Abs(m) > u.MiterLimit
				// The far end of a cap-end instance is the line's last
				// point; its outer corner is squared off by the other cap.
				if !(cIsOuter && (clipC || w.Orientation == shaders.CapEnd)) {
					if position.Y > 0 {
						xy = xy.Sub(bc.t.Mul(m1))
					} else {
						xy = xy.Sub(bc.t.Mul(m0))
					}
				}
			}
		}
	}

	out.Position = fromScreen(pos.WithXY(xy), u.Resolution, computedW)
	return out
}
