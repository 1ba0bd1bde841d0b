// Copyright 2024 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package main

import (
	"fmt"
	"image"
	"io"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
	"honnef.co/go/color"
	"honnef.co/go/gpulines/engine/soft_engine"
	"honnef.co/go/gpulines/mem"
	"honnef.co/go/gpulines/profiler"
	"honnef.co/go/gpulines/renderer"
)

// Scene is a list of lines in pixel coordinates, with the origin in the top
// left corner.
type Scene struct {
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Debug  bool   `yaml:"debug"`
	Lines  []Line `yaml:"lines"`
}

type Line struct {
	Points [][2]float32 `yaml:"points"`
	// Width in pixels, either one for the whole line or one per point.
	Width  float32   `yaml:"width"`
	Widths []float32 `yaml:"widths"`

	Join           renderer.Join `yaml:"join"`
	Cap            renderer.Cap  `yaml:"cap"`
	JoinResolution *int          `yaml:"joinResolution"`
	CapResolution  *int          `yaml:"capResolution"`
	MiterLimit     *float64      `yaml:"miterLimit"`
	// Hex sRGB color, #rrggbb or #rrggbbaa. Defaults to black.
	Color string `yaml:"color"`
}

// vert is the vertex shader of all scenes. The viewport uniform has to be
// set to the scene's size.
const vert = `
precision highp float;
uniform vec2 viewport;
#pragma lines: attribute vec2 xy
#pragma lines: attribute float w
#pragma lines: position = getPosition(xy)
vec4 getPosition(vec2 xy) {
  return vec4(xy / viewport * 2.0 - 1.0, 0, 1) * vec4(1, -1, 1, 1);
}
#pragma lines: width = getWidth(w)
float getWidth(float w) { return w; }
`

const frag = `
precision highp float;
uniform vec4 color;
void main() { gl_FragColor = color; }
`

func loadScene(r io.Reader) (*Scene, error) {
	var s Scene
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("decoding scene: %w", err)
	}
	if s.Width <= 0 || s.Height <= 0 {
		return nil, fmt.Errorf("invalid scene size %dx%d", s.Width, s.Height)
	}
	for i, l := range s.Lines {
		if len(l.Points) < 2 {
			return nil, fmt.Errorf("line %d: need at least 2 points, got %d", i, len(l.Points))
		}
		if l.Widths != nil && len(l.Widths) != len(l.Points) {
			return nil, fmt.Errorf("line %d: got %d widths for %d points", i, len(l.Widths), len(l.Points))
		}
	}
	return &s, nil
}

// parseColor parses a hex sRGB color.
func parseColor(s string) (*color.Color, error) {
	hex, ok := strings.CutPrefix(s, "#")
	if !ok || (len(hex) != 6 && len(hex) != 8) {
		return nil, fmt.Errorf("invalid color %q", s)
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid color %q: %w", s, err)
	}
	c := func(shift int) float64 { return float64(v>>shift&0xFF) / 0xFF }
	out := color.Make(color.SRGB, c(24), c(16), c(8), c(0))
	return &out, nil
}

// endpoints returns the endpoint buffer contents of a line's points: the
// first three points, followed by the last three in reverse. Lines with only
// two points get a third point extending the line.
func endpoints[T any](points []T, extend func(b, c T) T) []T {
	n := len(points)
	if n == 2 {
		return []T{
			points[0], points[1], extend(points[0], points[1]),
			points[1], points[0], extend(points[1], points[0]),
		}
	}
	return []T{
		points[0], points[1], points[2],
		points[n-1], points[n-2], points[n-3],
	}
}

func flatten[T any](s [][2]T) []T {
	out := make([]T, 0, 2*len(s))
	for _, v := range s {
		out = append(out, v[0], v[1])
	}
	return out
}

type funcs struct {
	width, height float64
}

func (f funcs) engineFuncs() map[string]soft_engine.Func {
	return map[string]soft_engine.Func{
		"getPosition": func(args ...[]float64) []float64 {
			xy := args[0]
			return []float64{xy[0]/f.width*2 - 1, -(xy[1]/f.height*2 - 1), 0, 1}
		},
		"getWidth": func(args ...[]float64) []float64 {
			return args[0]
		},
	}
}

// render draws the scene with the software engine.
func (s *Scene) render(pgroup *profiler.Group) (*image.RGBA, error) {
	l, err := renderer.New(renderer.Config{
		Vert:  vert,
		Frag:  frag,
		Debug: s.Debug,
	})
	if err != nil {
		return nil, err
	}
	arena := mem.NewArena()
	rec := &renderer.Recording{}

	props := make([]*renderer.LineProps, len(s.Lines))
	for i, line := range s.Lines {
		p, err := s.record(arena, rec, line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i, err)
		}
		props[i] = p
	}
	if err := l.Draw(arena, rec, props...); err != nil {
		return nil, err
	}
	l.Release(arena, rec)

	img := image.NewRGBA(image.Rect(0, 0, s.Width, s.Height))
	eng := &soft_engine.Engine{
		Funcs: funcs{float64(s.Width), float64(s.Height)}.engineFuncs(),
		Paint: func(batch *renderer.DrawBatch, item *renderer.DrawItem) *color.Color {
			return item.Line.Data.(*color.Color)
		},
	}
	if err := eng.RunRecording(arena, rec, img, pgroup); err != nil {
		return nil, err
	}
	return img, nil
}

func (s *Scene) record(arena *mem.Arena, rec *renderer.Recording, line Line) (*renderer.LineProps, error) {
	paint := "#000000"
	if line.Color != "" {
		paint = line.Color
	}
	c, err := parseColor(paint)
	if err != nil {
		return nil, err
	}

	widths := line.Widths
	if widths == nil {
		widths = make([]float32, len(line.Points))
		for i := range widths {
			widths[i] = line.Width
		}
	}
	exy := endpoints(line.Points, func(b, c [2]float32) [2]float32 {
		return [2]float32{2*c[0] - b[0], 2*c[1] - b[1]}
	})
	ew := endpoints(widths, func(b, c float32) float32 { return c })

	props := &renderer.LineProps{
		VertexAttributes: map[string]renderer.Attribute{
			"xy": renderer.Buffer(rec.UploadFloat32(arena, "xy", flatten(line.Points))),
			"w":  renderer.Buffer(rec.UploadFloat32(arena, "w", widths)),
		},
		VertexCount: len(line.Points),
		EndpointAttributes: map[string]renderer.Attribute{
			"xy": renderer.Buffer(rec.UploadFloat32(arena, "endpoint xy", flatten(exy))),
			"w":  renderer.Buffer(rec.UploadFloat32(arena, "endpoint w", ew)),
		},
		EndpointCount: 2,
		Join:          line.Join,
		Cap:           line.Cap,
		Data:          c,
	}
	if line.JoinResolution != nil {
		props.JoinResolution = renderer.Some(*line.JoinResolution)
	}
	if line.CapResolution != nil {
		props.CapResolution = renderer.Some(*line.CapResolution)
	}
	if line.MiterLimit != nil {
		props.MiterLimit = renderer.Some(*line.MiterLimit)
	}
	return props, nil
}
