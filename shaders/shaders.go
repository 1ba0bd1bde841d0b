// Copyright 2024 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

// Package shaders generates the GLSL vertex programs that draw lines.
//
// The user's shader declares its attributes and its position, width and
// orientation functions with lines pragmas (see package pragma). Build
// splices the user's code into four fixed vertex programs, one per
// combination of join style (miter or round) and instance kind (segment or
// endpoint). All four programs compute one vertex of an instanced triangle
// strip, as a function of the vertex index and a sliding window of points.
// Package cpu contains equivalent Go implementations.
package shaders

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"text/template"

	"honnef.co/go/gpulines/pragma"
)

// Orientations of endpoint instances.
const (
	CapStart = 0
	CapEnd   = 1
)

const (
	MaxJoinResolution = 20
	// MaxCapResolution is in half-steps, like the capResolution argument of
	// the count functions.
	MaxCapResolution = 2 * MaxJoinResolution

	// IndexCount is the length of the shared index buffer, the largest
	// vertex count of any program.
	IndexCount = MaxJoinResolution*6 + 4
)

// Uniform names.
const (
	UniformResolution     = "resolution"
	UniformMiterLimit     = "miterLimit"
	UniformJoinResolution = "joinResolution"
	UniformCapResolution2 = "capResolution2"
	UniformCapScale       = "capScale"
	UniformOrientation    = "uOrientation"
)

// AttributeIndex is the name of the per-vertex index attribute that all
// programs share.
const AttributeIndex = "index"

// AttributeDebugInstanceID is the per-instance attribute of segment programs
// built with Options.Debug.
const AttributeDebugInstanceID = "debugInstanceID"

const PrimitiveTriangleStrip = "triangle strip"

//go:embed glsl/prelude.glsl
var prelude string

//go:embed glsl/miter_segment.vert
var miterSegmentSource string

//go:embed glsl/miter_cap.vert
var miterCapSource string

//go:embed glsl/round_segment.vert
var roundSegmentSource string

//go:embed glsl/round_cap.vert
var roundCapSource string

var (
	miterSegmentTemplate = template.Must(template.New("miter_segment").Parse(miterSegmentSource))
	miterCapTemplate     = template.Must(template.New("miter_cap").Parse(miterCapSource))
	roundSegmentTemplate = template.Must(template.New("round_segment").Parse(roundSegmentSource))
	roundCapTemplate     = template.Must(template.New("round_cap").Parse(roundCapSource))
)

func MiterSegmentCount() int { return 5 }

// MiterCapCount returns the number of vertices per miter endpoint instance.
// capResolution is in half-steps.
func MiterCapCount(capResolution int) int { return capResolution*2 + 5 }

func RoundSegmentCount(joinResolution int) int { return 4*joinResolution + 6 }

// RoundCapCount returns the number of vertices per round endpoint instance.
// capResolution is in half-steps.
func RoundCapCount(joinResolution, capResolution int) int {
	return (joinResolution+capResolution)*2 + 4
}

type Options struct {
	// Debug adds the instanceID and triStripGridCoord varyings, for use by
	// fragment shaders that visualize the triangle strips.
	Debug bool
}

// Input is one attribute input of a vertex program: a pragma attribute
// evaluated at one point of the window.
type Input struct {
	Attr *pragma.Attribute
	// GLSL name, the attribute's name followed by the label.
	Name string
	// Window label, or the empty string for per-instance inputs.
	Label string
	// Position of the label in the window, counting from A for segments and
	// from B for endpoints.
	Index int
	// PerInstance is set for inputs that are read once per line endpoint.
	PerInstance bool
}

var (
	segmentLabels  = []string{"A", "B", "C", "D"}
	endpointLabels = []string{"B", "C", "D"}
)

// Inputs returns the attribute inputs of the segment or endpoint programs,
// in declaration order. Attributes that a path doesn't use have no inputs.
func Inputs(meta *pragma.Meta, endpoint bool) []Input {
	labels := segmentLabels
	if endpoint {
		labels = endpointLabels
	}
	var out []Input
	for _, attr := range meta.Attrs {
		usage := attr.Usage(endpoint)
		if usage == pragma.UsageNone {
			continue
		}
		perInstance := usage&pragma.UsagePerInstance != 0
		if perInstance {
			out = append(out, Input{Attr: attr, Name: attr.Name, PerInstance: true})
		}
		if usage&(pragma.UsageRegular|pragma.UsageExtended) == 0 {
			continue
		}
		for i, label := range labels {
			if usage&pragma.UsageExtended == 0 && (label == "A" || label == "D") {
				continue
			}
			out = append(out, Input{
				Attr:        attr,
				Name:        attr.Name + label,
				Label:       label,
				Index:       i,
				PerInstance: perInstance,
			})
		}
	}
	return out
}

// declarations renders the attribute and varying declarations of a path.
func declarations(meta *pragma.Meta, endpoint bool) string {
	var buf strings.Builder
	inputs := Inputs(meta, endpoint)
	for i := 0; i < len(inputs); {
		attr := inputs[i].Attr
		var names []string
		for ; i < len(inputs) && inputs[i].Attr == attr; i++ {
			names = append(names, inputs[i].Name)
		}
		fmt.Fprintf(&buf, "attribute %s %s;\n", attr.GLSLType(), strings.Join(names, ", "))
	}
	for _, v := range meta.Varyings {
		fmt.Fprintf(&buf, "varying %s %s;\n", v.Type, v.Name)
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

// Kind identifies one of the four programs.
type Kind int

const (
	KindMiterSegment Kind = iota + 1
	KindMiterCap
	KindRoundSegment
	KindRoundCap
)

func (k Kind) String() string {
	switch k {
	case KindMiterSegment:
		return "miter segment"
	case KindMiterCap:
		return "miter cap"
	case KindRoundSegment:
		return "round segment"
	case KindRoundCap:
		return "round cap"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Program is one generated vertex program together with everything needed
// to draw it.
type Program struct {
	Kind      Kind
	Name      string
	Vertex    string
	Fragment  string
	Primitive string
	// Endpoint is set for the programs that draw endpoint instances.
	Endpoint bool
	// Uniforms lists the uniforms the program declares, not counting
	// uniforms of the user's code.
	Uniforms []string
	Inputs   []Input
}

type Collection struct {
	Meta *pragma.Meta

	MiterSegment Program
	MiterCap     Program
	RoundSegment Program
	RoundCap     Program
}

// Programs returns the four programs in a fixed order.
func (c *Collection) Programs() []*Program {
	return []*Program{&c.MiterSegment, &c.MiterCap, &c.RoundSegment, &c.RoundCap}
}

type templateData struct {
	meta       *pragma.Meta
	Source     string
	Prelude    string
	Attributes string
	Debug      bool
}

func (d templateData) HasOrientation() bool { return d.meta.Orientation != nil }

func (d templateData) Position(label string) string { return d.meta.Position.Call(label) }

func (d templateData) Width(label string) string { return d.meta.Width.Call(label) }

func (d templateData) Orientation() string {
	if d.meta.Orientation == nil {
		return "mod(" + UniformOrientation + ", 2.0)"
	}
	return d.meta.Orientation.Call("")
}

func (d templateData) Varyings() string {
	lines := make([]string, len(d.meta.Varyings))
	for i, v := range d.meta.Varyings {
		lines[i] = "  " + v.Assign("useC", "B", "C")
	}
	return strings.Join(lines, "\n")
}

// Build generates the four vertex programs for a compiled shader. frag is
// used verbatim as the fragment source of every program.
func Build(meta *pragma.Meta, frag string, opts Options) *Collection {
	segment := templateData{
		meta:       meta,
		Source:     meta.Source,
		Prelude:    prelude,
		Attributes: declarations(meta, false),
		Debug:      opts.Debug,
	}
	endpoint := segment
	endpoint.Attributes = declarations(meta, true)

	capUniforms := func(u ...string) []string {
		u = append(u, UniformCapResolution2, UniformCapScale)
		if meta.Orientation == nil {
			u = append(u, UniformOrientation)
		}
		return u
	}

	c := &Collection{Meta: meta}
	c.MiterSegment = Program{
		Kind:     KindMiterSegment,
		Name:     "miter segment",
		Vertex:   execute(miterSegmentTemplate, segment),
		Uniforms: []string{UniformResolution, UniformMiterLimit},
		Inputs:   Inputs(meta, false),
	}
	c.MiterCap = Program{
		Kind:     KindMiterCap,
		Name:     "miter cap",
		Vertex:   execute(miterCapTemplate, endpoint),
		Endpoint: true,
		Uniforms: capUniforms(UniformResolution, UniformMiterLimit),
		Inputs:   Inputs(meta, true),
	}
	c.RoundSegment = Program{
		Kind:     KindRoundSegment,
		Name:     "round segment",
		Vertex:   execute(roundSegmentTemplate, segment),
		Uniforms: []string{UniformResolution, UniformJoinResolution},
		Inputs:   Inputs(meta, false),
	}
	c.RoundCap = Program{
		Kind:     KindRoundCap,
		Name:     "round cap",
		Vertex:   execute(roundCapTemplate, endpoint),
		Endpoint: true,
		Uniforms: capUniforms(UniformResolution, UniformJoinResolution),
		Inputs:   Inputs(meta, true),
	}
	for _, p := range c.Programs() {
		p.Fragment = frag
		p.Primitive = PrimitiveTriangleStrip
	}
	return c
}

func execute(t *template.Template, data templateData) string {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		panic(fmt.Sprintf("executing %s: %s", t.Name(), err))
	}
	return buf.String()
}
