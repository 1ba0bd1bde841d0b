// Copyright 2024 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

// Package pragma compiles the "#pragma lines:" directives embedded in a
// vertex shader into a declaration set.
//
// Three directive forms are recognized, one per line:
//
//	#pragma lines: attribute vec2 xy
//	#pragma lines: position = getPosition(xy)
//	#pragma lines: varying vec4 color = getColor(rgba)
//
// Attributes name the per-point inputs of the line. Properties bind the
// position, width and (optionally) orientation of the line to user functions
// of those inputs. Varyings are computed from the inputs and interpolated
// along each segment. The remainder of the source is passed through
// unmodified.
package pragma

import (
	"fmt"
	"strings"
)

// Usage describes at which points of the sliding window an attribute has to
// be available.
type Usage uint8

const (
	UsageNone Usage = 0
	// Needed at the active points B and C only. Used by width and varyings.
	UsageRegular Usage = 1 << (iota - 1)
	// Needed at every point of the window. Used by position.
	UsageExtended
	// One value per line endpoint. Used by orientation.
	UsagePerInstance
)

func (u Usage) String() string {
	if u == UsageNone {
		return "none"
	}
	var parts []string
	if u&UsageRegular != 0 {
		parts = append(parts, "regular")
	}
	if u&UsageExtended != 0 {
		parts = append(parts, "extended")
	}
	if u&UsagePerInstance != 0 {
		parts = append(parts, "per-instance")
	}
	return strings.Join(parts, "|")
}

type PropertyKind int

const (
	PropertyPosition PropertyKind = iota + 1
	PropertyWidth
	PropertyOrientation
)

func (k PropertyKind) String() string {
	switch k {
	case PropertyPosition:
		return "position"
	case PropertyWidth:
		return "width"
	case PropertyOrientation:
		return "orientation"
	default:
		return fmt.Sprintf("PropertyKind(%d)", int(k))
	}
}

// Pragma is one parsed directive. It is one of *Attribute, *Property and
// *Varying.
type Pragma interface {
	isPragma()
}

func (*Attribute) isPragma() {}
func (*Property) isPragma()  {}
func (*Varying) isPragma()   {}

type Attribute struct {
	Name      string
	Dimension int

	// Usage on the segment (body and join) path.
	VertexUsage Usage
	// Usage on the endpoint (cap) path.
	EndpointUsage Usage
}

// Usage returns the attribute's usage on the requested path.
func (attr *Attribute) Usage(endpoint bool) Usage {
	if endpoint {
		return attr.EndpointUsage
	}
	return attr.VertexUsage
}

// GLSLType returns the GLSL type of the attribute.
func (attr *Attribute) GLSLType() string {
	return glslTypes[attr.Dimension]
}

type Property struct {
	Kind   PropertyKind
	Func   string
	Inputs []string
}

// Call renders the GLSL expression evaluating the property at the given
// window label, e.g. getPosition(xyC) for label "C". Per-instance properties
// use the empty label.
func (p *Property) Call(label string) string {
	var sb strings.Builder
	sb.WriteString(p.Func)
	sb.WriteByte('(')
	for i, in := range p.Inputs {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(in)
		sb.WriteString(label)
	}
	sb.WriteByte(')')
	return sb.String()
}

type Varying struct {
	Name   string
	Type   string
	Getter string
	Inputs []string
}

// Assign renders the GLSL statement computing the varying from its inputs,
// each interpolated between the window labels a and b by the expression
// interp.
func (v *Varying) Assign(interp, a, b string) string {
	var sb strings.Builder
	sb.WriteString(v.Name)
	sb.WriteString(" = ")
	sb.WriteString(v.Getter)
	sb.WriteByte('(')
	for i, in := range v.Inputs {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "mix(%s%s, %s%s, %s)", in, a, in, b, interp)
	}
	sb.WriteString(");")
	return sb.String()
}

var glslTypes = [...]string{
	1: "float",
	2: "vec2",
	3: "vec3",
	4: "vec4",
}

var dimensions = map[string]int{
	"float": 1,
	"vec2":  2,
	"vec3":  3,
	"vec4":  4,
}

// Dimension returns the number of components of a GLSL scalar or vector
// type, or 0 if typ isn't one of float, vec2, vec3 and vec4.
func Dimension(typ string) int {
	return dimensions[typ]
}
