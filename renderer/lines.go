// Copyright 2024 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package renderer

import (
	"fmt"
	"math"
	"slices"

	"honnef.co/go/gpulines/mem"
	"honnef.co/go/gpulines/pragma"
	"honnef.co/go/gpulines/shaders"
)

type Join string

const (
	JoinMiter Join = "miter"
	JoinBevel Join = "bevel"
	JoinRound Join = "round"
)

type Cap string

const (
	CapRound  Cap = "round"
	CapSquare Cap = "square"
	CapNone   Cap = "none"
)

const (
	DefaultJoinResolution = 8
	DefaultCapResolution  = 6
	DefaultMiterLimit     = 4
)

var (
	validJoins = []string{string(JoinRound), string(JoinBevel), string(JoinMiter)}
	validCaps  = []string{string(CapRound), string(CapSquare), string(CapNone)}

	// Parameters that the renderer computes itself for every draw.
	reservedParams = []string{"count", "instances", "attributes", "elements"}

	roundCapScale  = [2]float32{1, 1}
	squareCapScale = [2]float32{float32(2 / math.Sqrt(3)), 2}
)

// LineProps describes one line, or a batch of lines that share the same
// options and buffers.
type LineProps struct {
	// Attributes of the segment instances, keyed by pragma attribute name.
	// Segments aren't drawn if this is nil.
	VertexAttributes map[string]Attribute
	// Number of points in the segment buffers. Every window of four
	// consecutive points draws the segment between the middle two.
	VertexCount int

	// Attributes of the endpoint instances. Endpoints aren't drawn if this
	// is nil.
	EndpointAttributes map[string]Attribute
	// Number of endpoints, each consisting of three points.
	EndpointCount int

	// Defaults to JoinMiter.
	Join Join
	// Defaults to CapSquare.
	Cap Cap
	// Number of steps of round joins. Defaults to DefaultJoinResolution.
	JoinResolution Option[int]
	// Number of steps of a quarter circle of round caps. Defaults to
	// DefaultCapResolution.
	CapResolution Option[int]
	// Ratio of miter length to line width beyond which miter joins are
	// beveled. Defaults to DefaultMiterLimit.
	MiterLimit Option[float64]

	// Data is passed through to the host with every draw of the line.
	Data any
}

// ParamFunc computes the value of a forwarded parameter for one line.
type ParamFunc func(line *LineProps) any

// Config configures a Lines.
type Config struct {
	// Vertex shader source, with lines pragmas.
	Vert string
	// Fragment shader source, used as is.
	Frag string
	// Params are forwarded to the host with every draw. Values of type
	// ParamFunc are evaluated per line. Renderers with parameters draw each
	// line separately, in order.
	Params map[string]any
	Debug  bool
	// Cache of compiled shaders to use. If nil, a package-wide cache is used.
	Cache *pragma.Cache
}

var defaultCache pragma.Cache

// Lines draws lines with one shader.
type Lines struct {
	meta     *pragma.Meta
	programs *shaders.Collection
	params   map[string]any
	debug    bool

	indexData   []byte
	indexBuffer BufferProxy

	debugData     []byte
	debugInstance BufferProxy
}

// maxDebugInstances is the number of instance IDs available to debug
// shaders.
const maxDebugInstances = 16384

func New(cfg Config) (*Lines, error) {
	for param := range cfg.Params {
		if slices.Contains(reservedParams, param) {
			return nil, &ReservedParamError{Param: param}
		}
	}
	if cfg.Vert == "" {
		return nil, &MissingShaderError{Stage: "vertex"}
	}
	if cfg.Frag == "" {
		return nil, &MissingShaderError{Stage: "fragment"}
	}

	cache := cfg.Cache
	if cache == nil {
		cache = &defaultCache
	}
	meta, err := cache.Compile(cfg.Vert)
	if err != nil {
		return nil, fmt.Errorf("compiling vertex shader: %w", err)
	}

	l := &Lines{
		meta:     meta,
		programs: shaders.Build(meta, cfg.Frag, shaders.Options{Debug: cfg.Debug}),
		params:   cfg.Params,
		debug:    cfg.Debug,
	}

	l.indexData = make([]byte, shaders.IndexCount)
	for i := range l.indexData {
		l.indexData[i] = byte(i)
	}
	l.indexBuffer = NewBufferProxy(uint64(len(l.indexData)), "lines index", Uint8)
	if cfg.Debug {
		l.debugData = make([]byte, maxDebugInstances*2)
		for i := range maxDebugInstances {
			l.debugData[i*2] = byte(i)
			l.debugData[i*2+1] = byte(i >> 8)
		}
		l.debugInstance = NewBufferProxy(uint64(len(l.debugData)), "lines debug instance ID", Uint16)
	}

	Logger().Debug("compiled lines shader",
		"attributes", len(meta.Attrs),
		"varyings", len(meta.Varyings),
		"orientation", meta.Orientation != nil,
		"reorder", len(cfg.Params) == 0)
	return l, nil
}

func (l *Lines) Meta() *pragma.Meta { return l.meta }

func (l *Lines) Programs() *shaders.Collection { return l.programs }

// Release records the release of the renderer's buffers.
func (l *Lines) Release(arena *mem.Arena, rec *Recording) {
	rec.FreeBuffer(arena, l.indexBuffer)
	if l.debug {
		rec.FreeBuffer(arena, l.debugInstance)
	}
}

// request is a validated line.
type request struct {
	line     *LineProps
	join     Join
	segment  map[string]AttributeBinding
	endpoint map[string]AttributeBinding
	// Join resolution and cap resolution in half-steps.
	joinResolution int
	capResolution  int
	uniforms       Uniforms
}

func (l *Lines) prepare(line *LineProps) (request, error) {
	req := request{line: line}

	join := line.Join
	if join == "" {
		join = JoinMiter
	}
	if !slices.Contains(validJoins, string(join)) {
		return request{}, &InvalidOptionError{Option: "join", Value: string(join), Valid: validJoins}
	}
	req.join = join
	capStyle := line.Cap
	if capStyle == "" {
		capStyle = CapSquare
	}
	if !slices.Contains(validCaps, string(capStyle)) {
		return request{}, &InvalidOptionError{Option: "cap", Value: string(capStyle), Valid: validCaps}
	}

	req.joinResolution = line.JoinResolution.UnwrapOr(DefaultJoinResolution)
	if req.joinResolution < 1 || req.joinResolution > shaders.MaxJoinResolution {
		return request{}, &InvalidOptionError{Option: "joinResolution", Value: req.joinResolution}
	}
	capRes := line.CapResolution.UnwrapOr(DefaultCapResolution)
	if capRes < 1 || capRes*2 > shaders.MaxCapResolution {
		return request{}, &InvalidOptionError{Option: "capResolution", Value: capRes}
	}
	req.capResolution = capRes * 2
	capScale := roundCapScale
	switch capStyle {
	case CapSquare:
		req.capResolution = 3
		capScale = squareCapScale
	case CapNone:
		req.capResolution = 1
	}

	miterLimit := line.MiterLimit.UnwrapOr(DefaultMiterLimit)
	if join == JoinBevel {
		miterLimit = 1
	}
	if !(miterLimit >= 1) {
		return request{}, &InvalidOptionError{Option: "miterLimit", Value: miterLimit}
	}
	if line.VertexCount < 0 {
		return request{}, &InvalidOptionError{Option: "vertexCount", Value: line.VertexCount}
	}
	if line.EndpointCount < 0 {
		return request{}, &InvalidOptionError{Option: "endpointCount", Value: line.EndpointCount}
	}

	var err error
	req.segment, err = Bindings(l.meta, line.VertexAttributes, false)
	if err != nil {
		return request{}, err
	}
	req.endpoint, err = Bindings(l.meta, line.EndpointAttributes, true)
	if err != nil {
		return request{}, err
	}

	req.uniforms = Uniforms{
		MiterLimit:     float32(math.Sqrt(miterLimit*miterLimit - 1)),
		JoinResolution: float32(req.joinResolution),
		CapResolution2: float32(req.capResolution * 2),
		CapScale:       capScale,
	}
	return req, nil
}

// buckets accumulates draws between flushes.
type buckets struct {
	roundSegments []DrawItem
	miterSegments []DrawItem
	roundCaps     []DrawItem
	miterCaps     []DrawItem
}

func (l *Lines) add(arena *mem.Arena, b *buckets, req request) {
	round := req.join == JoinRound

	if req.segment != nil && req.line.VertexCount > 3 {
		var prog *shaders.Program
		var dst *[]DrawItem
		if round {
			prog, dst = &l.programs.RoundSegment, &b.roundSegments
		} else {
			prog, dst = &l.programs.MiterSegment, &b.miterSegments
		}
		item := DrawItem{
			Attributes: l.withIndex(arena, Layout(arena, prog.Inputs, req.segment, Instancing{}), true),
			Uniforms:   req.uniforms,
			Count:      l.count(prog.Kind, req),
			Instances:  req.line.VertexCount - 3,
			Line:       req.line,
		}
		*dst = mem.Append(arena, *dst, item)
	}

	if req.endpoint != nil && req.line.EndpointCount > 0 {
		var prog *shaders.Program
		var dst *[]DrawItem
		if round {
			prog, dst = &l.programs.RoundCap, &b.roundCaps
		} else {
			prog, dst = &l.programs.MiterCap, &b.miterCaps
		}
		n := req.line.EndpointCount
		if l.meta.Orientation != nil {
			*dst = mem.Append(arena, *dst, l.endpointItem(arena, prog, req, Instancing{Endpoint: true}, n))
		} else {
			// Without an orientation property, start and end caps are drawn
			// separately and the orientation is passed as a uniform.
			start := Instancing{Endpoint: true, Orientation: shaders.CapStart, SplitCaps: true}
			end := Instancing{Endpoint: true, Orientation: shaders.CapEnd, SplitCaps: true}
			if starts := (n + 1) / 2; starts > 0 {
				*dst = mem.Append(arena, *dst, l.endpointItem(arena, prog, req, start, starts))
			}
			if ends := n / 2; ends > 0 {
				*dst = mem.Append(arena, *dst, l.endpointItem(arena, prog, req, end, ends))
			}
		}
	}
}

func (l *Lines) endpointItem(arena *mem.Arena, prog *shaders.Program, req request, inst Instancing, instances int) DrawItem {
	u := req.uniforms
	u.Orientation = float32(inst.Orientation)
	return DrawItem{
		Attributes: l.withIndex(arena, Layout(arena, prog.Inputs, req.endpoint, inst), false),
		Uniforms:   u,
		Count:      l.count(prog.Kind, req),
		Instances:  instances,
		Line:       req.line,
	}
}

func (l *Lines) count(kind shaders.Kind, req request) int {
	switch kind {
	case shaders.KindMiterSegment:
		return shaders.MiterSegmentCount()
	case shaders.KindMiterCap:
		return shaders.MiterCapCount(req.capResolution)
	case shaders.KindRoundSegment:
		return shaders.RoundSegmentCount(req.joinResolution)
	case shaders.KindRoundCap:
		return shaders.RoundCapCount(req.joinResolution, req.capResolution)
	default:
		panic(fmt.Sprintf("unhandled program kind %s", kind))
	}
}

// withIndex prepends the index attribute, and the instance ID attribute of
// segment draws in debug mode.
func (l *Lines) withIndex(arena *mem.Arena, attrs []VertexAttribute, segment bool) []VertexAttribute {
	out := mem.NewSlice[[]VertexAttribute](arena, 0, len(attrs)+2)
	out = append(out, VertexAttribute{
		Name:      shaders.AttributeIndex,
		Buffer:    l.indexBuffer,
		Dimension: 1,
		Type:      Uint8,
		Stride:    1,
		Divisor:   0,
	})
	if l.debug && segment {
		out = append(out, VertexAttribute{
			Name:      shaders.AttributeDebugInstanceID,
			Buffer:    l.debugInstance,
			Dimension: 1,
			Type:      Uint16,
			Stride:    2,
			Divisor:   1,
		})
	}
	return append(out, attrs...)
}

func (l *Lines) flush(arena *mem.Arena, rec *Recording, b *buckets, line *LineProps) {
	var params map[string]any
	if len(l.params) > 0 {
		params = make(map[string]any, len(l.params))
		for k, v := range l.params {
			if f, ok := v.(ParamFunc); ok {
				v = f(line)
			}
			params[k] = v
		}
	}

	batches := [...]struct {
		prog  *shaders.Program
		items *[]DrawItem
	}{
		{&l.programs.RoundSegment, &b.roundSegments},
		{&l.programs.MiterSegment, &b.miterSegments},
		{&l.programs.RoundCap, &b.roundCaps},
		{&l.programs.MiterCap, &b.miterCaps},
	}
	for _, batch := range batches {
		if len(*batch.items) == 0 {
			continue
		}
		Logger().Debug("flushing lines", "program", batch.prog.Name, "draws", len(*batch.items))
		rec.draw(arena, DrawBatch{
			Program: batch.prog,
			Meta:    l.meta,
			Items:   *batch.items,
			Params:  params,
		})
		*batch.items = nil
	}
}

// Draw records the draws for a list of lines. Nil lines are skipped. All
// lines are validated before anything is recorded; if any line is invalid,
// Draw returns an error and rec is left unchanged.
//
// If the renderer has no forwarded parameters, draws are grouped by
// program, resulting in at most four draw batches. Otherwise, each line is
// drawn separately, in order.
func (l *Lines) Draw(arena *mem.Arena, rec *Recording, lines ...*LineProps) error {
	if len(lines) == 0 {
		return nil
	}
	reqs := mem.NewSlice[[]request](arena, 0, len(lines))
	for i, line := range lines {
		if line == nil {
			continue
		}
		req, err := l.prepare(line)
		if err != nil {
			return fmt.Errorf("line %d: %w", i, err)
		}
		reqs = append(reqs, req)
	}

	if len(reqs) == 0 {
		return nil
	}
	rec.uploadOnce(arena, l.indexBuffer, l.indexData)
	if l.debug {
		rec.uploadOnce(arena, l.debugInstance, l.debugData)
	}

	reorder := len(l.params) == 0
	var b buckets
	for _, req := range reqs {
		l.add(arena, &b, req)
		if !reorder {
			l.flush(arena, rec, &b, req.line)
		}
	}
	if reorder {
		l.flush(arena, rec, &b, nil)
	}
	return nil
}
