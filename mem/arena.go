// Copyright 2024 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

// Package mem provides arenas for data that lives for one frame.
package mem

import (
	"reflect"
	"unsafe"
)

// An Arena hands out memory that stays valid until the next call to Reset.
// Values without pointers share untyped byte slabs. Values with pointers are
// allocated from slabs of their own type, so that the garbage collector can
// scan them.
type Arena struct {
	bytes  []slab
	typed  map[reflect.Type][]typedSlab
	shapes map[reflect.Type]shape
}

type slab struct {
	data   unsafe.Pointer
	size   int
	offset int
}

// take reserves n bytes aligned to align, if the slab has room for them.
func (sl *slab) take(n, align int) (unsafe.Pointer, bool) {
	off := alignUp(sl.offset, align)
	if sl.size-off < n {
		return nil, false
	}
	sl.offset = off + n
	return unsafe.Add(sl.data, off), true
}

type typedSlab struct {
	slab
	elems reflect.Value
}

type shape struct {
	size     int
	align    int
	pointers bool
}

const slabSize = 1 << 20

var zeroSized [0]byte

func NewArena() *Arena {
	return &Arena{}
}

// New returns a pointer to a new zero value of type T.
func New[T any](a *Arena) *T {
	return (*T)(a.alloc(reflect.TypeFor[T](), 1))
}

// Make returns a pointer to a copy of v.
func Make[T any](a *Arena, v T) *T {
	ptr := New[T](a)
	*ptr = v
	return ptr
}

// NewSlice returns a zeroed slice. It returns nil if cap is zero.
func NewSlice[S ~[]E, E any](a *Arena, len, cap int) S {
	if cap == 0 {
		return nil
	}
	ptr := a.alloc(reflect.TypeFor[E](), cap)
	return S(unsafe.Slice((*E)(ptr), cap)[:len])
}

// Append is like the append builtin, but grows s in the arena.
func Append[S ~[]E, E any](a *Arena, s S, data ...E) S {
	return append(grow(a, s, len(data)), data...)
}

// grow makes room for n more elements.
func grow[S ~[]E, E any](a *Arena, s S, n int) S {
	want := len(s) + n
	if want <= cap(s) {
		return s
	}
	c := cap(s)
	if c == 0 {
		c = n
	}
	for c < want {
		if c < 256 {
			c *= 2
		} else {
			c += c / 4
		}
	}
	s2 := NewSlice[S](a, len(s), c)
	copy(s2, s)
	return s2
}

func (a *Arena) shapeOf(typ reflect.Type) shape {
	if s, ok := a.shapes[typ]; ok {
		return s
	}
	s := shape{
		size:     int(typ.Size()),
		align:    typ.Align(),
		pointers: hasPointers(typ),
	}
	if a.shapes == nil {
		a.shapes = make(map[reflect.Type]shape)
	}
	a.shapes[typ] = s
	return s
}

func hasPointers(typ reflect.Type) bool {
	switch typ.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return false
	case reflect.Array:
		return typ.Len() > 0 && hasPointers(typ.Elem())
	case reflect.Struct:
		for i := range typ.NumField() {
			if hasPointers(typ.Field(i).Type) {
				return true
			}
		}
		return false
	default:
		return true
	}
}

func (a *Arena) alloc(typ reflect.Type, num int) unsafe.Pointer {
	s := a.shapeOf(typ)
	n := num * s.size
	switch {
	case n == 0:
		return unsafe.Pointer(&zeroSized)
	case n > slabSize:
		// Too large for a slab; fall back to the Go allocator.
		return reflect.MakeSlice(reflect.SliceOf(typ), num, num).UnsafePointer()
	case !s.pointers:
		return a.allocBytes(n, s.align)
	default:
		return a.allocTyped(typ, s, n)
	}
}

func (a *Arena) allocBytes(n, align int) unsafe.Pointer {
	for i := range a.bytes {
		if ptr, ok := a.bytes[i].take(n, align); ok {
			// Byte slabs aren't cleared by Reset.
			clear(unsafe.Slice((*byte)(ptr), n))
			return ptr
		}
	}
	a.bytes = append(a.bytes, slab{
		data: unsafe.Pointer(unsafe.SliceData(make([]byte, slabSize))),
		size: slabSize,
	})
	ptr, _ := a.bytes[len(a.bytes)-1].take(n, align)
	return ptr
}

func (a *Arena) allocTyped(typ reflect.Type, s shape, n int) unsafe.Pointer {
	slabs := a.typed[typ]
	// OPT(dh): skip full slabs
	for i := range slabs {
		if ptr, ok := slabs[i].take(n, s.align); ok {
			return ptr
		}
	}
	num := slabSize / s.size
	elems := reflect.MakeSlice(reflect.SliceOf(typ), num, num)
	sl := typedSlab{
		slab:  slab{data: elems.UnsafePointer(), size: num * s.size},
		elems: elems,
	}
	ptr, _ := sl.take(n, s.align)
	if a.typed == nil {
		a.typed = make(map[reflect.Type][]typedSlab)
	}
	a.typed[typ] = append(slabs, sl)
	return ptr
}

// to has to be a power of two.
func alignUp(v, to int) int {
	return v + (-v & (to - 1))
}

// Reset makes all of the arena's memory available again. Memory handed out
// before the reset must no longer be used.
func (a *Arena) Reset() {
	for i := range a.bytes {
		a.bytes[i].offset = 0
	}
	for typ, slabs := range a.typed {
		size := a.shapes[typ].size
		for i := range slabs {
			sl := &slabs[i]
			// Clear memory so it doesn't keep Go pointers alive.
			sl.elems.Slice(0, (sl.offset+size-1)/size).Clear()
			sl.offset = 0
		}
	}
}
