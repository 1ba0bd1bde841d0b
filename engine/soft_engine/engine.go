// Copyright 2024 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

// Package soft_engine executes recordings on the CPU, using the Go versions
// of the vertex programs and a software rasterizer. It exists to inspect and
// test the geometry that a GPU would produce; fragment shaders aren't run
// and every draw is filled with a single color.
package soft_engine

import (
	"fmt"
	"image"

	"golang.org/x/image/vector"
	"honnef.co/go/color"
	"honnef.co/go/curve"
	"honnef.co/go/gpulines/gfx"
	"honnef.co/go/gpulines/jmath"
	"honnef.co/go/gpulines/mem"
	"honnef.co/go/gpulines/profiler"
	"honnef.co/go/gpulines/renderer"
	"honnef.co/go/gpulines/shaders"
	"honnef.co/go/gpulines/shaders/cpu"
)

// Func is the Go implementation of a function named by a lines pragma. It
// receives the values of the function's attribute inputs, in order, and
// returns its result, with one element per vector component.
type Func func(args ...[]float64) []float64

// Paint returns the color of a draw. A nil color skips the draw.
type Paint func(batch *renderer.DrawBatch, item *renderer.DrawItem) *color.Color

type Engine struct {
	// Funcs maps the names of the shader's position, width, orientation and
	// varying functions to Go implementations.
	Funcs map[string]Func
	// Paint defaults to opaque black for every draw.
	Paint Paint
	// If Capture is set, every generated triangle strip is appended to
	// Strips.
	Capture bool
	Strips  []Strip

	raster vector.Rasterizer
}

// Strip is the triangle strip of one instance.
type Strip struct {
	Kind     shaders.Kind
	Instance int
	Vertices []StripVertex
}

type StripVertex struct {
	cpu.Vertex
	// Interpolated varyings, in declaration order. Nil for discarded
	// vertices.
	Varyings [][]float64
}

var black = [4]float32{0, 0, 0, 1}

// RunRecording executes the commands of a recording, drawing into dst.
// Buffers only live for the duration of the recording that uploaded them.
func (eng *Engine) RunRecording(
	arena *mem.Arena,
	rec *renderer.Recording,
	dst *image.RGBA,
	pgroup *profiler.Group,
) error {
	pgroup = pgroup.Nest("RunRecording")
	defer pgroup.End()

	var bufs buffers
	for _, cmd := range rec.Commands {
		switch cmd := cmd.(type) {
		case *renderer.Upload:
			bufs.m.Insert(arena, cmd.Buffer.ID, cmd.Data)

		case *renderer.FreeBuffer:
			bufs.m.Delete(cmd.Buffer.ID)

		case *renderer.DrawBatch:
			g := pgroup.Nest(cmd.Program.Name)
			for i := range cmd.Items {
				if err := eng.drawItem(arena, &bufs, dst, cmd, &cmd.Items[i]); err != nil {
					g.End()
					return fmt.Errorf("%s draw %d: %w", cmd.Program.Name, i, err)
				}
			}
			g.End()

		default:
			panic(fmt.Sprintf("unhandled command %T", cmd))
		}
	}
	return nil
}

func shaderFor(kind shaders.Kind) cpu.Shader {
	switch kind {
	case shaders.KindMiterSegment:
		return cpu.MiterSegment
	case shaders.KindMiterCap:
		return cpu.MiterCap
	case shaders.KindRoundSegment:
		return cpu.RoundSegment
	case shaders.KindRoundCap:
		return cpu.RoundCap
	default:
		panic(fmt.Sprintf("unhandled program kind %s", kind))
	}
}

func (eng *Engine) drawItem(
	arena *mem.Arena,
	bufs *buffers,
	dst *image.RGBA,
	batch *renderer.DrawBatch,
	item *renderer.DrawItem,
) error {
	paint := black
	if eng.Paint != nil {
		c := eng.Paint(batch, item)
		if c == nil {
			return nil
		}
		paint = gfx.Premul32(c)
	}

	attrs := make(map[string]*renderer.VertexAttribute, len(item.Attributes))
	for i := range item.Attributes {
		attrs[item.Attributes[i].Name] = &item.Attributes[i]
	}
	index, ok := attrs[shaders.AttributeIndex]
	if !ok {
		return fmt.Errorf("draw has no %q attribute", shaders.AttributeIndex)
	}

	size := dst.Bounds().Size()
	u := &cpu.Uniforms{
		Resolution:     curve.Vec2{X: float64(size.X), Y: float64(size.Y)},
		MiterLimit:     float64(item.Uniforms.MiterLimit),
		JoinResolution: float64(item.Uniforms.JoinResolution),
		CapResolution2: float64(item.Uniforms.CapResolution2),
		CapScale: curve.Vec2{
			X: float64(item.Uniforms.CapScale[0]),
			Y: float64(item.Uniforms.CapScale[1]),
		},
	}
	shader := shaderFor(batch.Program.Kind)

	ev := evaluator{
		funcs:    eng.Funcs,
		meta:     batch.Meta,
		bufs:     bufs,
		attrs:    attrs,
		endpoint: batch.Program.Endpoint,
	}
	verts := mem.NewSlice[[]StripVertex](arena, item.Count, item.Count)
	var idx [1]float64
	eng.raster.Reset(size.X, size.Y)
	var skipped int
	for inst := range item.Instances {
		ev.instance = inst
		w, err := ev.window()
		if err != nil {
			return fmt.Errorf("instance %d: %w", inst, err)
		}
		if !ev.hasOrientation() {
			w.Orientation = jmath.Mod(float64(item.Uniforms.Orientation), 2)
		}

		for v := range item.Count {
			if err := bufs.read(index, inst, v, idx[:]); err != nil {
				return fmt.Errorf("instance %d: %w", inst, err)
			}
			out := shader(int(idx[0]), &w, u)
			verts[v] = StripVertex{Vertex: out}
			if !out.IsZero() && len(ev.varyings) > 0 {
				if verts[v].Varyings, err = ev.interpolate(out.UseC); err != nil {
					return fmt.Errorf("instance %d: %w", inst, err)
				}
			}
		}
		if eng.Capture {
			eng.Strips = append(eng.Strips, Strip{
				Kind:     batch.Program.Kind,
				Instance: inst,
				Vertices: append([]StripVertex(nil), verts...),
			})
		}
		skipped += eng.fill(verts, size)
	}
	if skipped > 0 {
		renderer.Logger().Debug("skipped degenerate triangles",
			"program", batch.Program.Name,
			"triangles", skipped)
	}

	src := image.NewUniform(gfx.RGBA64(paint))
	eng.raster.Draw(dst, dst.Bounds(), src, image.Point{})
	return nil
}
