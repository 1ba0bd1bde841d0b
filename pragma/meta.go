// Copyright 2024 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package pragma

import (
	"fmt"
	"sync"
)

// Meta is the declaration set of a shader. It is immutable once returned by
// Analyze or Compile.
type Meta struct {
	// The shader source with all lines pragmas removed.
	Source string

	// Attributes in declaration order.
	Attrs []*Attribute
	// Varyings in declaration order.
	Varyings []*Varying

	Position    *Property
	Width       *Property
	Orientation *Property // nil if the shader doesn't declare an orientation

	attrsByName map[string]*Attribute
}

func (m *Meta) Attr(name string) (*Attribute, bool) {
	attr, ok := m.attrsByName[name]
	return attr, ok
}

// Compile parses the lines pragmas of src and analyzes them.
func Compile(src string) (*Meta, error) {
	stripped, pragmas, err := Parse(src)
	if err != nil {
		return nil, err
	}
	meta, err := Analyze(pragmas)
	if err != nil {
		return nil, err
	}
	meta.Source = stripped
	return meta, nil
}

// Analyze builds the declaration set from a list of pragmas and derives the
// usage of every attribute.
func Analyze(pragmas []Pragma) (*Meta, error) {
	meta := &Meta{
		attrsByName: make(map[string]*Attribute),
	}

	for _, p := range pragmas {
		switch p := p.(type) {
		case *Attribute:
			if _, ok := meta.attrsByName[p.Name]; ok {
				return nil, &DuplicateAttributeError{Attribute: p.Name}
			}
			attr := &Attribute{Name: p.Name, Dimension: p.Dimension}
			meta.attrsByName[attr.Name] = attr
			meta.Attrs = append(meta.Attrs, attr)
		case *Varying:
			meta.Varyings = append(meta.Varyings, p)
		}
	}

	for _, p := range pragmas {
		switch p := p.(type) {
		case *Property:
			var dst **Property
			switch p.Kind {
			case PropertyPosition:
				dst = &meta.Position
			case PropertyWidth:
				dst = &meta.Width
			case PropertyOrientation:
				dst = &meta.Orientation
			default:
				panic(fmt.Sprintf("unhandled property kind %d", p.Kind))
			}
			if *dst != nil {
				return nil, &DuplicatePropertyError{Property: p.Kind}
			}
			*dst = p
			if err := meta.resolveInputs(p.Inputs, fmt.Sprintf("property %q", p.Kind)); err != nil {
				return nil, err
			}
		case *Varying:
			if err := meta.resolveInputs(p.Inputs, fmt.Sprintf("varying %q", p.Name)); err != nil {
				return nil, err
			}
		}
	}

	if meta.Position == nil {
		return nil, &MissingPropertyError{Property: PropertyPosition}
	}
	if meta.Width == nil {
		return nil, &MissingPropertyError{Property: PropertyWidth}
	}

	meta.markUsage(meta.Position.Inputs, UsageExtended, UsageExtended)
	meta.markUsage(meta.Width.Inputs, UsageRegular, UsageRegular)
	if meta.Orientation != nil {
		meta.markUsage(meta.Orientation.Inputs, UsageNone, UsagePerInstance)
	}
	for _, v := range meta.Varyings {
		meta.markUsage(v.Inputs, UsageRegular, UsageRegular)
	}

	return meta, nil
}

func (m *Meta) resolveInputs(inputs []string, user string) error {
	for _, in := range inputs {
		if _, ok := m.attrsByName[in]; !ok {
			return &UnknownAttributeError{Attribute: in, User: user}
		}
	}
	return nil
}

func (m *Meta) markUsage(inputs []string, vertex, endpoint Usage) {
	for _, in := range inputs {
		attr := m.attrsByName[in]
		attr.VertexUsage |= vertex
		attr.EndpointUsage |= endpoint
	}
}

// Cache memoizes compiled declaration sets by shader source. It is safe for
// concurrent use.
type Cache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	meta *Meta
	err  error
}

// Compile returns the cached result of compiling src, compiling it first if
// necessary. Failed compilations are cached, too.
func (c *Cache) Compile(src string) (*Meta, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[src]; ok {
		return e.meta, e.err
	}
	meta, err := Compile(src)
	if c.entries == nil {
		c.entries = make(map[string]cacheEntry)
	}
	c.entries[src] = cacheEntry{meta, err}
	return meta, err
}

// Len returns the number of cached sources.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
