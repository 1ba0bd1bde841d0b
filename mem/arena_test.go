package mem

import (
	"reflect"
	"slices"
	"testing"
)

func TestMap(t *testing.T) {
	a := NewArena()
	var m Map[uint64, string]
	for _, k := range []uint64{5, 1, 3, 9, 7} {
		m.Insert(a, k, string(rune('a'+k)))
	}
	collect := func() ([]uint64, []string) {
		var keys []uint64
		var values []string
		for k, v := range m.All() {
			keys = append(keys, k)
			values = append(values, v)
		}
		return keys, values
	}
	if got, _ := collect(); !slices.Equal(got, []uint64{1, 3, 5, 7, 9}) {
		t.Errorf("got keys %v, want [1 3 5 7 9]", got)
	}
	if v, ok := m.Get(3); !ok || v != "d" {
		t.Errorf("Get(3) = (%q, %t), want (\"d\", true)", v, ok)
	}

	if !m.Delete(3) {
		t.Error("deleting existing key failed")
	}
	if m.Delete(3) {
		t.Error("deleting key twice succeeded")
	}
	if _, ok := m.Get(3); ok {
		t.Error("found deleted key")
	}
	if _, got := collect(); !slices.Equal(got, []string{"b", "f", "h", "j"}) {
		t.Errorf("got values %v, want [b f h j]", got)
	}
	if m.Len() != 4 {
		t.Errorf("got length %d, want 4", m.Len())
	}

	m.Insert(a, 3, "x")
	m.Insert(a, 9, "y")
	if v, ok := m.Get(3); !ok || v != "x" {
		t.Errorf("Get(3) = (%q, %t) after reinserting, want (\"x\", true)", v, ok)
	}
	if v, _ := m.Get(9); v != "y" {
		t.Errorf("Get(9) = %q after overwriting, want \"y\"", v)
	}
	if _, ok := m.Get(4); ok {
		t.Error("found missing key")
	}

	var empty Map[int, int]
	if _, ok := empty.Get(0); ok || empty.Delete(0) {
		t.Error("zero map isn't empty")
	}
}

func TestArena(t *testing.T) {
	a := NewArena()
	type withPtr struct {
		s []byte
		n int
	}

	p := Make(a, withPtr{s: []byte("hi"), n: 1})
	q := New[withPtr](a)
	if q == p {
		t.Fatal("arena returned the same allocation twice")
	}
	if q.n != 0 || q.s != nil {
		t.Errorf("new allocation isn't zeroed: %+v", *q)
	}

	s := NewSlice[[]int](a, 2, 4)
	if len(s) != 2 || cap(s) != 4 {
		t.Errorf("got len %d cap %d, want 2 and 4", len(s), cap(s))
	}
	s = Append(a, s, 1, 2, 3)
	if !slices.Equal(s, []int{0, 0, 1, 2, 3}) {
		t.Errorf("got %v", s)
	}
	if NewSlice[[]int](a, 0, 0) != nil {
		t.Error("empty slice isn't nil")
	}
	var iface []any
	iface = Append(a, iface, any(1), "two")
	if len(iface) != 2 || iface[1] != "two" {
		t.Errorf("got %v", iface)
	}
	New[struct{}](a)

	// Larger than a slab.
	big := NewSlice[[]withPtr](a, slabSize, slabSize)
	big[len(big)-1].n = 1

	for range 3 * slabSize / 8 {
		New[uint64](a)
	}

	a.Reset()
	r := New[withPtr](a)
	if r.n != 0 || r.s != nil {
		t.Errorf("allocation after reset isn't zeroed: %+v", *r)
	}
	b := NewSlice[[]byte](a, 16, 16)
	for _, v := range b {
		if v != 0 {
			t.Fatalf("allocation after reset isn't zeroed: %v", b)
		}
	}
}

func TestHasPointers(t *testing.T) {
	type flat struct {
		a [4]float32
		b int
	}
	type nested struct {
		f flat
		p *int
	}
	tests := []struct {
		v    any
		want bool
	}{
		{flat{}, false},
		{[0]*int{}, false},
		{nested{}, true},
		{"", true},
		{[]byte(nil), true},
	}
	a := NewArena()
	for _, tt := range tests {
		typ := reflect.TypeOf(tt.v)
		if got := a.shapeOf(typ).pointers; got != tt.want {
			t.Errorf("%s: got %t, want %t", typ, got, tt.want)
		}
	}
}
