// Copyright 2024 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

// Package profiler records nested CPU timings. All methods are safe to call
// on nil values, which disables profiling.
package profiler

import (
	"log/slog"
	"strconv"
	"time"
)

type ProfilerGroup interface {
	Start(label string) ProfilerGroup
	End()
}

type Profiler struct {
	groups []*Group
	// free list of groups
	freeGroups []*Group
}

func New() *Profiler {
	return &Profiler{}
}

func NewNop() *Profiler {
	return nil
}

func (p *Profiler) Start(tag uint64, label string) *Group {
	if p == nil {
		return nil
	}
	g := p.getGroup()
	g.profiler = p
	g.Tag = tag
	g.Label = label
	g.start = time.Now()
	p.groups = append(p.groups, g)
	return g
}

func (p *Profiler) getGroup() *Group {
	if len(p.freeGroups) > 0 {
		g := p.freeGroups[len(p.freeGroups)-1]
		p.freeGroups = p.freeGroups[:len(p.freeGroups)-1]
		clear(g.children)
		*g = Group{children: g.children[:0]}
		return g
	} else {
		return &Group{}
	}
}

func (p *Profiler) putGroup(g *Group) {
	for _, c := range g.children {
		p.putGroup(c)
	}
	p.freeGroups = append(p.freeGroups, g)
}

type Group struct {
	Tag      uint64
	Label    string
	start    time.Time
	end      time.Time
	children []*Group
	profiler *Profiler
	parent   *Group
}

func (g *Group) End() {
	if g == nil {
		return
	}
	if !g.end.IsZero() {
		panic("trying to end same group twice")
	}
	g.end = time.Now()
}

func (g *Group) Start(label string) ProfilerGroup {
	if g == nil {
		return (*Group)(nil)
	}
	return g.Nest(label)
}

func (g *Group) Nest(label string) *Group {
	if g == nil {
		return nil
	}
	cg := g.profiler.getGroup()
	cg.profiler = g.profiler
	cg.Tag = g.Tag
	cg.Label = label
	cg.start = time.Now()
	cg.parent = g
	g.children = append(g.children, cg)
	return cg
}

type Result struct {
	Tag      uint64
	Label    string
	Start    time.Time
	End      time.Time
	Children []Result
}

func (r Result) Duration() time.Duration {
	return r.End.Sub(r.Start)
}

func (r Result) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, 2+len(r.Children))
	attrs = append(attrs,
		slog.String("label", r.Label),
		slog.Duration("duration", r.Duration()))
	for i, c := range r.Children {
		attrs = append(attrs, slog.Any(c.Label+"#"+strconv.Itoa(i), c))
	}
	return slog.GroupValue(attrs...)
}

// Collect returns the results of all ended top-level groups and recycles
// them. Groups that are still running are kept.
func (p *Profiler) Collect() []Result {
	if p == nil {
		return nil
	}
	var out []Result
	kept := p.groups[:0]
	for _, g := range p.groups {
		if g.end.IsZero() {
			kept = append(kept, g)
			continue
		}
		out = append(out, g.result())
		p.putGroup(g)
	}
	clear(p.groups[len(kept):])
	p.groups = kept
	return out
}

func (g *Group) result() Result {
	res := Result{
		Tag:   g.Tag,
		Label: g.Label,
		Start: g.start,
		End:   g.end,
	}
	if len(g.children) > 0 {
		res.Children = make([]Result, len(g.children))
		for i, c := range g.children {
			res.Children[i] = c.result()
		}
	}
	return res
}
