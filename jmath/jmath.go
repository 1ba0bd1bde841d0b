// Copyright 2024 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

// Package jmath implements scalar functions with the semantics of their GLSL
// built-in counterparts, so that CPU ports of shaders compute the same
// values as the GPU.
package jmath

import (
	"math"

	"golang.org/x/exp/constraints"
)

const Epsilon = 1e-12

// Mod returns x - y * floor(x/y). Unlike math.Mod, the result has the sign
// of y.
func Mod[T constraints.Float](x, y T) T {
	return x - y*T(math.Floor(float64(x/y)))
}

func Clamp[T constraints.Float](x, lo, hi T) T {
	return min(max(x, lo), hi)
}

// Mix linearly interpolates between x and y.
func Mix[T constraints.Float](x, y, a T) T {
	return x*(1-a) + y*a
}

// Sign returns -1 if x < 0 and 1 otherwise. Note that this differs from
// GLSL's sign, which returns 0 for 0.
func Sign[T constraints.Float](x T) T {
	if x < 0 {
		return -1
	}
	return 1
}

// Min returns the smaller of x and y. If exactly one of them is NaN, the
// other one is returned, which is what most GPUs do for GLSL's min.
func Min[T constraints.Float](x, y T) T {
	if math.IsNaN(float64(x)) {
		return y
	}
	if math.IsNaN(float64(y)) {
		return x
	}
	return min(x, y)
}
