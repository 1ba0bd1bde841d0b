package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"honnef.co/go/gpulines/pragma"
	"honnef.co/go/gpulines/shaders"
)

func TestWrite(t *testing.T) {
	meta, err := pragma.Compile(`
#pragma lines: attribute vec2 xy
#pragma lines: position = getPosition(xy)
vec4 getPosition(vec2 xy) { return vec4(xy, 0, 1); }
#pragma lines: width = getWidth()
float getWidth() { return 2.0; }
`)
	if err != nil {
		t.Fatal(err)
	}
	c := shaders.Build(meta, "void main() {}", shaders.Options{})
	dir := t.TempDir()
	for _, p := range c.Programs() {
		if err := write(dir, p); err != nil {
			t.Fatal(err)
		}
	}

	for _, name := range []string{"miter_segment", "miter_cap", "round_segment", "round_cap"} {
		vert, err := os.ReadFile(filepath.Join(dir, name+".vert"))
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(vert), "getPosition(xyB)") {
			t.Errorf("%s.vert doesn't evaluate the position at B", name)
		}
		frag, err := os.ReadFile(filepath.Join(dir, name+".frag"))
		if err != nil {
			t.Fatal(err)
		}
		if string(frag) != "void main() {}" {
			t.Errorf("got fragment shader %q", frag)
		}
	}
}
