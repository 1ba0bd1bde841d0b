// Copyright 2024 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package soft_engine

import (
	"encoding/binary"
	"fmt"
	"math"

	"honnef.co/go/gpulines/jmath"
	"honnef.co/go/gpulines/mem"
	"honnef.co/go/gpulines/pragma"
	"honnef.co/go/gpulines/renderer"
	"honnef.co/go/gpulines/shaders/cpu"
)

type buffers struct {
	m mem.Map[renderer.ResourceID, []byte]
}

// read fetches the value of an attribute for one vertex of one instance,
// the way the vertex fetch of a GPU does.
func (bufs *buffers) read(attr *renderer.VertexAttribute, instance, vertex int, out []float64) error {
	data, ok := bufs.m.Get(attr.Buffer.ID)
	if !ok {
		return fmt.Errorf("attribute %q: buffer %q isn't available", attr.Name, attr.Buffer.Name)
	}
	elem := vertex
	if attr.Divisor != 0 {
		elem = instance / attr.Divisor
	}
	size := attr.Type.Size()
	start := attr.Offset + attr.Stride*elem
	end := start + size*attr.Dimension
	if start < 0 || end > len(data) {
		return fmt.Errorf("attribute %q: reading bytes [%d, %d) of buffer %q of size %d",
			attr.Name, start, end, attr.Buffer.Name, len(data))
	}
	for i := range attr.Dimension {
		out[i] = decode(attr.Type, data[start+i*size:])
	}
	return nil
}

// decode decodes one little-endian element. Integers aren't normalized.
func decode(typ renderer.ElementType, b []byte) float64 {
	switch typ {
	case renderer.Float32:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(b)))
	case renderer.Int8:
		return float64(int8(b[0]))
	case renderer.Int16:
		return float64(int16(binary.LittleEndian.Uint16(b)))
	case renderer.Int32:
		return float64(int32(binary.LittleEndian.Uint32(b)))
	case renderer.Uint8:
		return float64(b[0])
	case renderer.Uint16:
		return float64(binary.LittleEndian.Uint16(b))
	case renderer.Uint32:
		return float64(binary.LittleEndian.Uint32(b))
	default:
		panic(fmt.Sprintf("unhandled element type %s", typ))
	}
}

// evaluator evaluates the shader's properties and varyings for the window
// of one instance.
type evaluator struct {
	funcs    map[string]Func
	meta     *pragma.Meta
	bufs     *buffers
	attrs    map[string]*renderer.VertexAttribute
	endpoint bool
	instance int

	// Inputs of the varyings at B and C of the current instance.
	varyings []varyingInputs
}

type varyingInputs struct {
	v    *pragma.Varying
	f    Func
	b, c [][]float64
}

func (ev *evaluator) hasOrientation() bool {
	return ev.meta.Orientation != nil
}

func (ev *evaluator) lookup(fn string) (Func, error) {
	f, ok := ev.funcs[fn]
	if !ok {
		return nil, fmt.Errorf("no Go implementation of %q", fn)
	}
	return f, nil
}

// inputs reads the values of attribute inputs at a window label.
func (ev *evaluator) inputs(inputs []string, label string) ([][]float64, error) {
	args := make([][]float64, len(inputs))
	for i, in := range inputs {
		attr, ok := ev.attrs[in+label]
		if !ok {
			return nil, fmt.Errorf("draw has no attribute %q", in+label)
		}
		args[i] = make([]float64, attr.Dimension)
		// Window attributes are per-instance; the vertex doesn't matter.
		if err := ev.bufs.read(attr, ev.instance, 0, args[i]); err != nil {
			return nil, err
		}
	}
	return args, nil
}

func (ev *evaluator) call(fn string, inputs []string, label string) ([]float64, error) {
	f, err := ev.lookup(fn)
	if err != nil {
		return nil, err
	}
	args, err := ev.inputs(inputs, label)
	if err != nil {
		return nil, err
	}
	return f(args...), nil
}

func (ev *evaluator) scalar(p *pragma.Property, label string) (float64, error) {
	v, err := ev.call(p.Func, p.Inputs, label)
	if err != nil {
		return 0, err
	}
	if len(v) != 1 {
		return 0, fmt.Errorf("%s function %q returned %d values, want 1", p.Kind, p.Func, len(v))
	}
	return v[0], nil
}

func (ev *evaluator) position(label string) (cpu.Vec4, error) {
	p := ev.meta.Position
	v, err := ev.call(p.Func, p.Inputs, label)
	if err != nil {
		return cpu.Vec4{}, err
	}
	if len(v) != 4 {
		return cpu.Vec4{}, fmt.Errorf("position function %q returned %d values, want 4", p.Func, len(v))
	}
	return cpu.Vec4{X: v[0], Y: v[1], Z: v[2], W: v[3]}, nil
}

func (ev *evaluator) window() (cpu.Window, error) {
	var w cpu.Window
	var err error
	points := []struct {
		label string
		dst   *cpu.Vec4
	}{
		{"A", &w.A},
		{"B", &w.B},
		{"C", &w.C},
		{"D", &w.D},
	}
	if ev.endpoint {
		points = points[1:]
	}
	for _, pt := range points {
		if *pt.dst, err = ev.position(pt.label); err != nil {
			return cpu.Window{}, err
		}
	}
	if w.WidthB, err = ev.scalar(ev.meta.Width, "B"); err != nil {
		return cpu.Window{}, err
	}
	if w.WidthC, err = ev.scalar(ev.meta.Width, "C"); err != nil {
		return cpu.Window{}, err
	}
	if ev.endpoint && ev.meta.Orientation != nil {
		if w.Orientation, err = ev.scalar(ev.meta.Orientation, ""); err != nil {
			return cpu.Window{}, err
		}
	}

	ev.varyings = ev.varyings[:0]
	for _, v := range ev.meta.Varyings {
		vi := varyingInputs{v: v}
		if vi.f, err = ev.lookup(v.Getter); err != nil {
			return cpu.Window{}, err
		}
		if vi.b, err = ev.inputs(v.Inputs, "B"); err != nil {
			return cpu.Window{}, err
		}
		if vi.c, err = ev.inputs(v.Inputs, "C"); err != nil {
			return cpu.Window{}, err
		}
		ev.varyings = append(ev.varyings, vi)
	}
	return w, nil
}

// interpolate computes the varyings of one vertex. Like the vertex
// programs, it interpolates the inputs and then calls the varying's
// function.
func (ev *evaluator) interpolate(useC float64) ([][]float64, error) {
	out := make([][]float64, len(ev.varyings))
	for i, vi := range ev.varyings {
		args := make([][]float64, len(vi.b))
		for j := range vi.b {
			args[j] = make([]float64, len(vi.b[j]))
			for k := range vi.b[j] {
				args[j][k] = jmath.Mix(vi.b[j][k], vi.c[j][k], useC)
			}
		}
		out[i] = vi.f(args...)
		if want := pragma.Dimension(vi.v.Type); len(out[i]) != want {
			return nil, fmt.Errorf("varying function %q returned %d values, want %d",
				vi.v.Getter, len(out[i]), want)
		}
	}
	return out, nil
}
