// Copyright 2024 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package renderer

import (
	"sync/atomic"

	"honnef.co/go/gpulines/mem"
	"honnef.co/go/gpulines/pragma"
	"honnef.co/go/gpulines/shaders"
	"honnef.co/go/safeish"
)

var resourceID atomic.Uint64

func nextResourceID() ResourceID {
	return ResourceID(resourceID.Add(1))
}

type ResourceID uint64

// A Recording is a list of commands for a host to execute, in order. All
// memory referenced by the commands belongs to the arena they were recorded
// with and is only valid until the arena is reset.
type Recording struct {
	Commands []Command

	// Buffers with a pending upload from uploadOnce.
	uploaded mem.Map[ResourceID, struct{}]
}

func (rec *Recording) push(arena *mem.Arena, cmd Command) {
	rec.Commands = mem.Append(arena, rec.Commands, cmd)
}

// Upload records the creation of a buffer holding data, interpreted as
// elements of type typ.
func (rec *Recording) Upload(arena *mem.Arena, name string, typ ElementType, data []byte) BufferProxy {
	buf := NewBufferProxy(uint64(len(data)), name, typ)
	rec.push(arena, mem.Make(arena, Upload{buf, data}))
	return buf
}

func (rec *Recording) UploadFloat32(arena *mem.Arena, name string, data []float32) BufferProxy {
	return rec.Upload(arena, name, Float32, safeish.SliceCast[[]byte](data))
}

// uploadOnce records an upload into an existing buffer, unless the
// recording already uploads to it and hasn't freed it since.
func (rec *Recording) uploadOnce(arena *mem.Arena, buf BufferProxy, data []byte) {
	if _, ok := rec.uploaded.Get(buf.ID); ok {
		return
	}
	rec.uploaded.Insert(arena, buf.ID, struct{}{})
	rec.push(arena, mem.Make(arena, Upload{buf, data}))
}

func (rec *Recording) FreeBuffer(arena *mem.Arena, buf BufferProxy) {
	rec.uploaded.Delete(buf.ID)
	rec.push(arena, mem.Make(arena, FreeBuffer{buf}))
}

func (rec *Recording) draw(arena *mem.Arena, batch DrawBatch) {
	rec.push(arena, mem.Make(arena, batch))
}

func NewBufferProxy(size uint64, name string, typ ElementType) BufferProxy {
	id := nextResourceID()
	return BufferProxy{size, id, name, typ}
}

// BufferProxy is a handle to a buffer owned by the host. The zero value
// doesn't refer to any buffer.
type BufferProxy struct {
	Size uint64
	ID   ResourceID
	Name string
	// Default element type of attributes stored in the buffer.
	Type ElementType
}

func (p BufferProxy) IsZero() bool {
	return p.ID == 0
}

type Command interface {
	isCommand()
}

func (*Upload) isCommand()     {}
func (*FreeBuffer) isCommand() {}
func (*DrawBatch) isCommand()  {}

type Upload struct {
	Buffer BufferProxy
	Data   []byte
}

type FreeBuffer struct {
	Buffer BufferProxy
}

// DrawBatch is a list of instanced draws that use the same program.
type DrawBatch struct {
	Program *shaders.Program
	Meta    *pragma.Meta
	Items   []DrawItem
	// Resolved forwarded parameters. Nil if the renderer has none.
	Params map[string]any
}

// DrawItem is one instanced draw.
type DrawItem struct {
	Attributes []VertexAttribute
	Uniforms   Uniforms
	// Vertices per instance.
	Count     int
	Instances int
	// Line is the line that this draw is part of.
	Line *LineProps
}

// Uniforms are the values of the program's uniforms, other than the
// resolution, which the host supplies. Programs ignore the values of
// uniforms they don't declare.
type Uniforms struct {
	// Miter limit in cotangent form.
	MiterLimit     float32
	JoinResolution float32
	CapResolution2 float32
	CapScale       [2]float32
	// shaders.CapStart or shaders.CapEnd, for endpoint draws without an
	// orientation property.
	Orientation float32
}
