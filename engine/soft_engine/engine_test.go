package soft_engine

import (
	"image"
	stdcolor "image/color"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"honnef.co/go/color"
	"honnef.co/go/gpulines/mem"
	"honnef.co/go/gpulines/profiler"
	"honnef.co/go/gpulines/renderer"
	"honnef.co/go/gpulines/shaders"
)

func diff(t *testing.T, want, got any, opts ...cmp.Option) {
	t.Helper()
	if d := cmp.Diff(want, got, opts...); d != "" {
		t.Error(d)
	}
}

const vert = `
#pragma lines: attribute vec2 xy
#pragma lines: attribute float w
#pragma lines: position = getPosition(xy)
vec4 getPosition(vec2 xy) { return vec4(xy, 0, 1); }
#pragma lines: width = getWidth(w)
float getWidth(float w) { return w; }
#pragma lines: varying float t = getT(xy)
float getT(vec2 xy) { return xy.x; }
`

const frag = `void main() { gl_FragColor = vec4(0, 0, 0, 1); }`

var funcs = map[string]Func{
	"getPosition": func(args ...[]float64) []float64 { return []float64{args[0][0], args[0][1], 0, 1} },
	"getWidth":    func(args ...[]float64) []float64 { return args[0] },
	"getT":        func(args ...[]float64) []float64 { return []float64{args[0][0]} },
}

// scene records a horizontal line through the points xs at y = 0, with a
// width of 4 pixels.
func scene(t *testing.T, line *renderer.LineProps, xs ...float32) (*mem.Arena, *renderer.Recording) {
	t.Helper()
	arena := mem.NewArena()
	rec := &renderer.Recording{}
	record(t, newLines(t), arena, rec, line, xs...)
	return arena, rec
}

func newLines(t *testing.T) *renderer.Lines {
	t.Helper()
	l, err := renderer.New(renderer.Config{Vert: vert, Frag: frag})
	if err != nil {
		t.Fatal(err)
	}
	return l
}

func record(t *testing.T, l *renderer.Lines, arena *mem.Arena, rec *renderer.Recording, line *renderer.LineProps, xs ...float32) {
	t.Helper()
	n := len(xs)
	var xy, w []float32
	for _, x := range xs {
		xy = append(xy, x, 0)
		w = append(w, 4)
	}
	// Endpoints are the first three points of the line, followed by the
	// last three in reverse.
	var exy, ew []float32
	for _, i := range []int{0, 1, 2, n - 1, n - 2, n - 3} {
		exy = append(exy, xs[i], 0)
		ew = append(ew, 4)
	}
	xyBuf := rec.UploadFloat32(arena, "xy", xy)
	wBuf := rec.UploadFloat32(arena, "w", w)
	exyBuf := rec.UploadFloat32(arena, "endpoint xy", exy)
	ewBuf := rec.UploadFloat32(arena, "endpoint w", ew)

	line.VertexAttributes = map[string]renderer.Attribute{
		"xy": renderer.Buffer(xyBuf),
		"w":  renderer.Buffer(wBuf),
	}
	line.VertexCount = n
	line.EndpointAttributes = map[string]renderer.Attribute{
		"xy": renderer.Buffer(exyBuf),
		"w":  renderer.Buffer(ewBuf),
	}
	line.EndpointCount = 2
	if err := l.Draw(arena, rec, line); err != nil {
		t.Fatal(err)
	}
}

func alphaAt(img *image.RGBA, x, y int) uint8 {
	return img.RGBAAt(x, y).A
}

func TestRenderSquareCaps(t *testing.T) {
	arena, rec := scene(t, &renderer.LineProps{}, -0.5, 0, 0.5)
	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	eng := &Engine{Funcs: funcs}
	if err := eng.RunRecording(arena, rec, img, nil); err != nil {
		t.Fatal(err)
	}

	// The line spans x from 8 to 24 and y from 14 to 18. Square caps extend
	// it by half its width.
	for _, p := range []image.Point{{16, 16}, {16, 14}, {16, 17}, {9, 15}, {22, 16}, {7, 16}, {6, 14}, {25, 17}} {
		diff(t, stdcolor.RGBA{0, 0, 0, 255}, img.RGBAAt(p.X, p.Y))
	}
	for _, p := range []image.Point{{16, 12}, {16, 18}, {5, 16}, {26, 16}, {0, 0}} {
		diff(t, uint8(0), alphaAt(img, p.X, p.Y))
	}
}

func TestRenderNoCaps(t *testing.T) {
	arena, rec := scene(t, &renderer.LineProps{Cap: renderer.CapNone}, -0.5, 0, 0.5)
	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	eng := &Engine{Funcs: funcs}
	if err := eng.RunRecording(arena, rec, img, nil); err != nil {
		t.Fatal(err)
	}
	diff(t, uint8(255), alphaAt(img, 8, 16))
	diff(t, uint8(255), alphaAt(img, 23, 15))
	diff(t, uint8(0), alphaAt(img, 7, 16))
	diff(t, uint8(0), alphaAt(img, 24, 16))
}

func TestRenderSegments(t *testing.T) {
	for _, join := range []renderer.Join{renderer.JoinMiter, renderer.JoinRound} {
		t.Run(string(join), func(t *testing.T) {
			arena, rec := scene(t, &renderer.LineProps{Join: join, Cap: renderer.CapRound}, -0.75, -0.25, 0.25, 0.75)
			img := image.NewRGBA(image.Rect(0, 0, 32, 32))
			eng := &Engine{Funcs: funcs, Capture: true}
			p := profiler.New()
			g := p.Start(1, "frame")
			if err := eng.RunRecording(arena, rec, img, g); err != nil {
				t.Fatal(err)
			}
			g.End()

			var kinds []shaders.Kind
			for _, s := range eng.Strips {
				kinds = append(kinds, s.Kind)
			}
			segment, caps := shaders.KindMiterSegment, shaders.KindMiterCap
			if join == renderer.JoinRound {
				segment, caps = shaders.KindRoundSegment, shaders.KindRoundCap
			}
			diff(t, []shaders.Kind{segment, caps, caps}, kinds)

			// Varyings are interpolated between the segment's points.
			for _, v := range eng.Strips[0].Vertices {
				if v.Varyings == nil {
					continue
				}
				if tv := v.Varyings[0][0]; tv < -0.25 || tv > 0.25 {
					t.Errorf("varying %g outside of segment", tv)
				}
			}

			for x := 4; x < 28; x++ {
				diff(t, uint8(255), alphaAt(img, x, 16))
			}
			diff(t, uint8(0), alphaAt(img, 16, 20))

			res := p.Collect()
			diff(t, 1, len(res))
			diff(t, "RunRecording", res[0].Children[0].Label)
			diff(t, 2, len(res[0].Children[0].Children))
		})
	}
}

func TestRenderReusedRecording(t *testing.T) {
	l := newLines(t)
	arena := mem.NewArena()
	var rec renderer.Recording
	eng := &Engine{Funcs: funcs}
	for frame := range 3 {
		arena.Reset()
		rec = renderer.Recording{}
		record(t, l, arena, &rec, &renderer.LineProps{}, -0.5, 0, 0.5)
		img := image.NewRGBA(image.Rect(0, 0, 32, 32))
		if err := eng.RunRecording(arena, &rec, img, nil); err != nil {
			t.Fatalf("frame %d: %s", frame, err)
		}
		diff(t, uint8(255), alphaAt(img, 16, 16))
	}

	// Releasing the renderer's buffers in the middle of a recording makes
	// the next draw upload them again.
	arena.Reset()
	rec = renderer.Recording{}
	record(t, l, arena, &rec, &renderer.LineProps{}, -0.5, 0, 0.5)
	l.Release(arena, &rec)
	record(t, l, arena, &rec, &renderer.LineProps{Cap: renderer.CapNone}, -0.5, 0, 0.5)
	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	if err := eng.RunRecording(arena, &rec, img, nil); err != nil {
		t.Fatal(err)
	}
}

func TestRenderPaint(t *testing.T) {
	arena, rec := scene(t, &renderer.LineProps{}, -0.5, 0, 0.5)
	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	var draws int
	eng := &Engine{
		Funcs: funcs,
		Paint: func(batch *renderer.DrawBatch, item *renderer.DrawItem) *color.Color {
			draws++
			return nil
		},
	}
	if err := eng.RunRecording(arena, rec, img, nil); err != nil {
		t.Fatal(err)
	}
	diff(t, 2, draws)
	diff(t, uint8(0), alphaAt(img, 16, 16))
}

func TestRenderErrors(t *testing.T) {
	arena, rec := scene(t, &renderer.LineProps{}, -0.5, 0, 0.5)
	img := image.NewRGBA(image.Rect(0, 0, 32, 32))

	eng := &Engine{Funcs: map[string]Func{"getPosition": funcs["getPosition"]}}
	err := eng.RunRecording(arena, rec, img, nil)
	if err == nil || !strings.Contains(err.Error(), `no Go implementation of "getWidth"`) {
		t.Errorf("got error %v, want missing function", err)
	}

	// Free the endpoint buffers before drawing.
	var cmds []renderer.Command
	var draws []renderer.Command
	for _, cmd := range rec.Commands {
		switch cmd := cmd.(type) {
		case *renderer.Upload:
			cmds = append(cmds, cmd)
			if strings.HasPrefix(cmd.Buffer.Name, "endpoint") {
				cmds = append(cmds, &renderer.FreeBuffer{Buffer: cmd.Buffer})
			}
		default:
			draws = append(draws, cmd)
		}
	}
	rec.Commands = append(cmds, draws...)
	eng = &Engine{Funcs: funcs}
	err = eng.RunRecording(arena, rec, img, nil)
	if err == nil || !strings.Contains(err.Error(), `buffer "endpoint xy" isn't available`) {
		t.Errorf("got error %v, want unavailable buffer", err)
	}
}

func TestDecode(t *testing.T) {
	b := []byte{0xFE, 0xFF, 0xFF, 0xFF}
	for typ, want := range map[renderer.ElementType]float64{
		renderer.Int8:   -2,
		renderer.Uint8:  254,
		renderer.Int16:  -2,
		renderer.Uint16: 65534,
		renderer.Int32:  -2,
		renderer.Uint32: 4294967294,
	} {
		if got := decode(typ, b); got != want {
			t.Errorf("decode(%s) = %g, want %g", typ, got, want)
		}
	}
	if got := decode(renderer.Float32, []byte{0, 0, 0x80, 0x3F}); got != 1 {
		t.Errorf("decode(float32) = %g, want 1", got)
	}
}
