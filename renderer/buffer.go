// Copyright 2024 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package renderer

import (
	"fmt"

	"honnef.co/go/gpulines/pragma"
)

// ElementType is the type of the components of an attribute, as stored in
// a buffer.
type ElementType int

const (
	Float32 ElementType = iota + 1
	Int8
	Int16
	Int32
	Uint8
	Uint16
	Uint32
)

var elementTypes = [...]struct {
	name string
	size int
}{
	Float32: {"float32", 4},
	Int8:    {"int8", 1},
	Int16:   {"int16", 2},
	Int32:   {"int32", 4},
	Uint8:   {"uint8", 1},
	Uint16:  {"uint16", 2},
	Uint32:  {"uint32", 4},
}

func (typ ElementType) valid() bool {
	return typ > 0 && int(typ) < len(elementTypes)
}

// Size returns the size of one element in bytes.
func (typ ElementType) Size() int {
	if !typ.valid() {
		panic(fmt.Sprintf("invalid element type %d", int(typ)))
	}
	return elementTypes[typ].size
}

func (typ ElementType) String() string {
	if !typ.valid() {
		return fmt.Sprintf("ElementType(%d)", int(typ))
	}
	return elementTypes[typ].name
}

// ParseElementType parses the name of an element type. "float" is accepted
// as an alias of "float32".
func ParseElementType(s string) (ElementType, error) {
	if s == "float" {
		return Float32, nil
	}
	for typ, e := range elementTypes {
		if typ != 0 && e.name == s {
			return ElementType(typ), nil
		}
	}
	return 0, &InvalidOptionError{Option: "type", Value: s}
}

func (typ *ElementType) UnmarshalText(b []byte) error {
	t, err := ParseElementType(string(b))
	if err != nil {
		return err
	}
	*typ = t
	return nil
}

// Option is an optional value.
type Option[T any] struct {
	isSet bool
	value T
}

func Some[T any](v T) Option[T] {
	return Option[T]{
		isSet: true,
		value: v,
	}
}

func (opt Option[T]) IsSet() bool {
	return opt.isSet
}

func (opt Option[T]) Get() (T, bool) {
	return opt.value, opt.isSet
}

func (opt Option[T]) UnwrapOr(alt T) T {
	if opt.isSet {
		return opt.value
	} else {
		return alt
	}
}

// Attribute describes where a pragma attribute's values are stored. Only
// Buffer is required; the remaining fields override the defaults derived
// from the buffer and the attribute's declaration.
type Attribute struct {
	Buffer BufferProxy
	// Must match the attribute's declared dimension if set.
	Dimension Option[int]
	// Defaults to 0.
	Offset Option[int]
	// Defaults to the buffer's type.
	Type Option[ElementType]
	// Defaults to the size of one attribute value, that is, tightly packed
	// values.
	Stride Option[int]
	// Defaults to 1.
	Divisor Option[int]
}

// Buffer is shorthand for an attribute stored tightly packed in buf.
func Buffer(buf BufferProxy) Attribute {
	return Attribute{Buffer: buf}
}

// AttributeBinding is an Attribute with all defaults applied.
type AttributeBinding struct {
	Buffer          BufferProxy
	Dimension       int
	Offset          int
	Type            ElementType
	Stride          int
	Divisor         int
	BytesPerElement int
}

// Bindings canonicalizes the attributes of one instancing path. Only
// attributes that the path uses are bound. A nil map of attributes results
// in no bindings and no error; it means that the line doesn't draw the
// path at all.
func Bindings(meta *pragma.Meta, attrs map[string]Attribute, endpoint bool) (map[string]AttributeBinding, error) {
	if attrs == nil {
		return nil, nil
	}
	out := make(map[string]AttributeBinding, len(meta.Attrs))
	for _, decl := range meta.Attrs {
		if decl.Usage(endpoint) == pragma.UsageNone {
			continue
		}
		attr, ok := attrs[decl.Name]
		if !ok || attr.Buffer.IsZero() {
			return nil, &MissingBufferError{Attribute: decl.Name, Endpoint: endpoint}
		}
		if dim, ok := attr.Dimension.Get(); ok && dim != decl.Dimension {
			return nil, &MissingAttributeError{Attribute: decl.Name, Dimension: dim, Want: decl.Dimension}
		}

		b := AttributeBinding{
			Buffer:    attr.Buffer,
			Dimension: decl.Dimension,
			Offset:    attr.Offset.UnwrapOr(0),
			Type:      attr.Type.UnwrapOr(attr.Buffer.Type),
			Divisor:   attr.Divisor.UnwrapOr(1),
		}
		if !b.Type.valid() {
			return nil, &InvalidOptionError{Option: "type", Value: b.Type, Attribute: decl.Name}
		}
		b.BytesPerElement = b.Type.Size()
		b.Stride = attr.Stride.UnwrapOr(b.BytesPerElement * decl.Dimension)
		out[decl.Name] = b
	}
	return out, nil
}
