// Copyright 2024 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

// Package gfx converts paint colors to the formats consumed by rasterizers.
package gfx

import (
	stdcolor "image/color"
	"math"

	"honnef.co/go/color"
	"honnef.co/go/gpulines/jmath"
)

// Premul32 returns c as premultiplied linear sRGB.
func Premul32(c *color.Color) [4]float32 {
	cc := c.Convert(color.LinearSRGB)
	r := cc.Values[0]
	g := cc.Values[1]
	b := cc.Values[2]
	a := cc.Values[3]

	return [4]float32{
		float32(r * a),
		float32(g * a),
		float32(b * a),
		float32(a),
	}
}

// RGBA64 converts a premultiplied linear color, as returned by Premul32, to
// a premultiplied sRGB-encoded color.
func RGBA64(premul [4]float32) stdcolor.RGBA64 {
	a := jmath.Clamp(float64(premul[3]), 0, 1)
	if a == 0 {
		return stdcolor.RGBA64{}
	}
	var out [3]uint16
	for i, v := range premul[:3] {
		// Unpremultiply, encode, premultiply.
		lin := jmath.Clamp(float64(v)/a, 0, 1)
		out[i] = uint16(math.Round(encodeSRGB(lin) * a * 0xFFFF))
	}
	return stdcolor.RGBA64{
		R: out[0],
		G: out[1],
		B: out[2],
		A: uint16(math.Round(a * 0xFFFF)),
	}
}

func encodeSRGB(v float64) float64 {
	if v <= 0.0031308 {
		return v * 12.92
	}
	if v >= 1 {
		return 1
	}
	return 1.055*math.Pow(v, 1/2.4) - 0.055
}
