// Copyright 2024 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package soft_engine

import (
	"image"
	"math"

	"honnef.co/go/curve"
)

// pixel converts a clip space vertex position to pixel coordinates, with
// the origin in the top left corner.
func pixel(v StripVertex, size image.Point) curve.Vec2 {
	p := v.Position
	return curve.Vec2{
		X: (p.X/p.W + 1) / 2 * float64(size.X),
		Y: (1 - p.Y/p.W) / 2 * float64(size.Y),
	}
}

// fill adds the triangles of a strip to the rasterizer and returns the
// number of triangles it skipped because they were degenerate or used
// discarded vertices.
//
// All triangles are added with the same winding, so overlapping triangles
// don't cancel out and the strip is filled as the union of its triangles.
func (eng *Engine) fill(strip []StripVertex, size image.Point) int {
	var skipped int
	for i := 0; i+2 < len(strip); i++ {
		a, b, c := strip[i], strip[i+1], strip[i+2]
		if a.Position.W == 0 || b.Position.W == 0 || c.Position.W == 0 {
			skipped++
			continue
		}
		pa, pb, pc := pixel(a, size), pixel(b, size), pixel(c, size)
		ab, ac := pb.Sub(pa), pc.Sub(pa)
		area := ab.X*ac.Y - ab.Y*ac.X
		if area == 0 || math.IsNaN(area) || math.IsInf(area, 0) {
			skipped++
			continue
		}
		if area < 0 {
			pb, pc = pc, pb
		}
		eng.raster.MoveTo(float32(pa.X), float32(pa.Y))
		eng.raster.LineTo(float32(pb.X), float32(pb.Y))
		eng.raster.LineTo(float32(pc.X), float32(pc.Y))
		eng.raster.ClosePath()
	}
	return skipped
}
