package profiler

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestProfiler(t *testing.T) {
	p := New()
	g := p.Start(7, "frame")
	a := g.Nest("a")
	a.Nest("a.1").End()
	a.End()
	var pg ProfilerGroup = g
	pg.Start("b").End()
	running := p.Start(8, "running")
	g.End()

	res := p.Collect()
	type node struct {
		Tag      uint64
		Label    string
		Children []node
	}
	var strip func(r Result) node
	strip = func(r Result) node {
		n := node{Tag: r.Tag, Label: r.Label}
		for _, c := range r.Children {
			n.Children = append(n.Children, strip(c))
		}
		return n
	}
	var got []node
	for _, r := range res {
		got = append(got, strip(r))
		if r.Duration() < 0 {
			t.Errorf("negative duration %s", r.Duration())
		}
	}
	want := []node{{7, "frame", []node{
		{7, "a", []node{{7, "a.1", nil}}},
		{7, "b", nil},
	}}}
	if d := cmp.Diff(want, got); d != "" {
		t.Error(d)
	}

	running.End()
	if res := p.Collect(); len(res) != 1 || res[0].Label != "running" {
		t.Errorf("got %v, want the previously running group", res)
	}
	if res := p.Collect(); len(res) != 0 {
		t.Errorf("got %d results after collecting twice", len(res))
	}
}

func TestNop(t *testing.T) {
	p := NewNop()
	g := p.Start(1, "frame")
	g.Nest("child").End()
	g.Start("child").End()
	g.End()
	if res := p.Collect(); res != nil {
		t.Errorf("got %v from nop profiler", res)
	}
}
