package pragma

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func diff(t *testing.T, want, got any, opts ...cmp.Option) {
	t.Helper()
	if d := cmp.Diff(want, got, opts...); d != "" {
		t.Error(d)
	}
}

const basicShader = `
precision highp float;

#pragma lines: attribute vec2 xy
#pragma lines: attribute float w;
#pragma lines: attribute vec4 rgba
#pragma lines: position = getPosition(xy)
vec4 getPosition(vec2 xy) { return vec4(xy, 0, 1); }
#pragma lines: width = getWidth(w);
float getWidth(float w) { return w; }
#pragma lines: varying vec4 color = getColor(rgba)
vec4 getColor(vec4 c) { return c; }
`

func TestParse(t *testing.T) {
	stripped, pragmas, err := Parse(basicShader)
	if err != nil {
		t.Fatal(err)
	}
	want := []Pragma{
		&Attribute{Name: "xy", Dimension: 2},
		&Attribute{Name: "w", Dimension: 1},
		&Attribute{Name: "rgba", Dimension: 4},
		&Property{Kind: PropertyPosition, Func: "getPosition", Inputs: []string{"xy"}},
		&Property{Kind: PropertyWidth, Func: "getWidth", Inputs: []string{"w"}},
		&Varying{Name: "color", Type: "vec4", Getter: "getColor", Inputs: []string{"rgba"}},
	}
	diff(t, want, pragmas)

	if strings.Contains(stripped, "#pragma") {
		t.Errorf("stripped source still contains pragmas:\n%s", stripped)
	}
	if !strings.HasPrefix(stripped, "precision highp float;") {
		t.Errorf("unexpected start of stripped source:\n%s", stripped)
	}
	if !strings.Contains(stripped, "vec4 getColor(vec4 c) { return c; }") {
		t.Errorf("stripped source lost user code:\n%s", stripped)
	}
}

func TestParseLeniency(t *testing.T) {
	tests := []struct {
		line string
		want Pragma
	}{
		{"  #PRAGMA Lines : attribute vec3 p", &Attribute{Name: "p", Dimension: 3}},
		{"#pragma lines:position=f(a,b)", &Property{Kind: PropertyPosition, Func: "f", Inputs: []string{"a", "b"}}},
		{"#pragma lines: width = getWidth();", &Property{Kind: PropertyWidth, Func: "getWidth"}},
		{"#pragma lines: orientation = getOrientation(orientation)", &Property{Kind: PropertyOrientation, Func: "getOrientation", Inputs: []string{"orientation"}}},
		{"#pragma lines: varying float t=f( a , )", &Varying{Name: "t", Type: "float", Getter: "f", Inputs: []string{"a"}}},
		{"#pragma lines: attribute vec2 xy\r", &Attribute{Name: "xy", Dimension: 2}},
	}
	for _, tt := range tests {
		_, pragmas, err := Parse(tt.line)
		if err != nil {
			t.Errorf("%q: unexpected error: %s", tt.line, err)
			continue
		}
		diff(t, []Pragma{tt.want}, pragmas)
	}
}

func TestParseIgnoresOtherDirectives(t *testing.T) {
	src := "#pragma once\n#pragma linesx: foo\n#pragma lines: attribute float a; trailing\n"
	stripped, pragmas, err := Parse(src)
	if err != nil {
		t.Fatal(err)
	}
	if len(pragmas) != 0 {
		t.Errorf("got %d pragmas, want none", len(pragmas))
	}
	diff(t, strings.TrimSpace(src), stripped)
}

func TestParseSyntaxError(t *testing.T) {
	tests := []string{
		"#pragma lines: attribute mat4 m",
		"#pragma lines: attribute vec2",
		"#pragma lines: color = getColor(c)",
		"#pragma lines: position = getPosition",
		"#pragma lines: position = getPosition(f(x))",
		"#pragma lines: varying vec5 v = f(x)",
		"#pragma lines: frobnicate",
	}
	for _, src := range tests {
		_, _, err := Parse("void main() {}\n" + src)
		var serr *SyntaxError
		if !errors.As(err, &serr) {
			t.Errorf("%q: got error %v, want *SyntaxError", src, err)
			continue
		}
		if serr.Line != 2 {
			t.Errorf("%q: got line %d, want 2", src, serr.Line)
		}
		if !strings.Contains(serr.Error(), strings.TrimPrefix(src, "#pragma lines: ")) {
			t.Errorf("%q: error %q doesn't name the offending text", src, serr)
		}
	}
}

func TestCompileUsage(t *testing.T) {
	meta, err := Compile(basicShader + `
#pragma lines: attribute float orient
#pragma lines: orientation = getOrientation(orient)
`)
	if err != nil {
		t.Fatal(err)
	}

	type usage struct {
		Vertex, Endpoint Usage
	}
	got := map[string]usage{}
	for _, attr := range meta.Attrs {
		got[attr.Name] = usage{attr.VertexUsage, attr.EndpointUsage}
	}
	want := map[string]usage{
		"xy":     {UsageExtended, UsageExtended},
		"w":      {UsageRegular, UsageRegular},
		"rgba":   {UsageRegular, UsageRegular},
		"orient": {UsageNone, UsagePerInstance},
	}
	diff(t, want, got)

	if meta.Orientation == nil || meta.Orientation.Func != "getOrientation" {
		t.Errorf("orientation property not recorded: %+v", meta.Orientation)
	}
	if _, ok := meta.Attr("rgba"); !ok {
		t.Error("attribute lookup failed")
	}
}

func TestCompileSharedAttribute(t *testing.T) {
	// An attribute used by both position and a varying needs both usages.
	meta, err := Compile(`
#pragma lines: attribute vec2 xy
#pragma lines: position = p(xy)
#pragma lines: width = w()
#pragma lines: varying vec2 uv = f(xy)
`)
	if err != nil {
		t.Fatal(err)
	}
	attr, _ := meta.Attr("xy")
	diff(t, UsageExtended|UsageRegular, attr.VertexUsage)
	diff(t, UsageExtended|UsageRegular, attr.EndpointUsage)
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want error
	}{
		{
			"duplicate position",
			"#pragma lines: position = a()\n#pragma lines: position = b()\n#pragma lines: width = w()",
			&DuplicatePropertyError{Property: PropertyPosition},
		},
		{
			"duplicate orientation",
			"#pragma lines: position = a()\n#pragma lines: width = w()\n#pragma lines: orientation = o()\n#pragma lines: orientation = o()",
			&DuplicatePropertyError{Property: PropertyOrientation},
		},
		{
			"unknown property input",
			"#pragma lines: position = a(xy)\n#pragma lines: width = w()",
			&UnknownAttributeError{Attribute: "xy", User: `property "position"`},
		},
		{
			"unknown varying input",
			"#pragma lines: position = a()\n#pragma lines: width = w()\n#pragma lines: varying float v = f(t)",
			&UnknownAttributeError{Attribute: "t", User: `varying "v"`},
		},
		{
			"missing width",
			"#pragma lines: position = a()",
			&MissingPropertyError{Property: PropertyWidth},
		},
		{
			"missing position",
			"#pragma lines: width = a()",
			&MissingPropertyError{Property: PropertyPosition},
		},
		{
			"duplicate attribute",
			"#pragma lines: attribute float a\n#pragma lines: attribute vec2 a\n#pragma lines: position = p()\n#pragma lines: width = w()",
			&DuplicateAttributeError{Attribute: "a"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(tt.src)
			diff(t, tt.want, err)
		})
	}
}

func TestGenerate(t *testing.T) {
	meta, err := Compile(basicShader)
	if err != nil {
		t.Fatal(err)
	}
	diff(t, "getPosition(xyC)", meta.Position.Call("C"))
	diff(t, "getWidth(wB)", meta.Width.Call("B"))
	diff(t, "color = getColor(mix(rgbaB, rgbaC, useC));", meta.Varyings[0].Assign("useC", "B", "C"))

	p := &Property{Kind: PropertyPosition, Func: "f", Inputs: []string{"a", "b"}}
	diff(t, "f(aA, bA)", p.Call("A"))
	diff(t, "f(a, b)", p.Call(""))
}

func TestCache(t *testing.T) {
	var c Cache
	m1, err := c.Compile(basicShader)
	if err != nil {
		t.Fatal(err)
	}
	m2, err := c.Compile(basicShader)
	if err != nil {
		t.Fatal(err)
	}
	if m1 != m2 {
		t.Error("cache returned distinct declaration sets for the same source")
	}
	_, err = c.Compile("#pragma lines: bogus")
	if err == nil {
		t.Error("expected error")
	}
	diff(t, 2, c.Len())
}

func TestUsageString(t *testing.T) {
	diff(t, "none", UsageNone.String())
	diff(t, "regular|extended", (UsageRegular | UsageExtended).String())
	diff(t, "per-instance", UsagePerInstance.String())
}
