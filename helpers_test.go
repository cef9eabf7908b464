/*
Copyright 2025 The goARRG Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package vtx_test

import (
	"testing"
	"unsafe"

	"goarrg.com/rhi/vtx"
	"goarrg.com/rhi/vtx/internal/testdevice"
)

// vertex is 20 bytes: 12 + 4 + 4, no padding.
type vertex struct {
	Pos    [3]float32
	Normal [2]int16
	Color  [4]uint8
}

func (v vertex) VertexLayout() vtx.Layout {
	return vtx.NewLayout(unsafe.Sizeof(v),
		vtx.Attrib("Pos", unsafe.Offsetof(v.Pos), v.Pos),
		vtx.Attrib("Normal", unsafe.Offsetof(v.Normal), v.Normal),
		vtx.Attrib("Color", unsafe.Offsetof(v.Color), v.Color),
	)
}

func testVertices(n int) []vertex {
	ret := make([]vertex, n)
	for i := range ret {
		f := float32(i)
		ret[i] = vertex{
			Pos:    [3]float32{f, f + 0.5, -f},
			Normal: [2]int16{int16(i), int16(-i)},
			Color:  [4]uint8{uint8(i), 0xFF, uint8(2 * i), 0x7F},
		}
	}
	return ret
}

func newTestContext(t *testing.T, opts testdevice.Options) (*vtx.Context, *testdevice.Device) {
	t.Helper()
	device := testdevice.New(opts)
	return vtx.NewContext(device, vtx.DefaultConfig()), device
}

func mustVertexBuffer(t *testing.T, ctx *vtx.Context, data []vertex) *vtx.VertexBuffer[vertex] {
	t.Helper()
	vb, err := vtx.NewVertexBuffer(ctx, t.Name(), data)
	if err != nil {
		t.Fatalf("NewVertexBuffer: %v", err)
	}
	return vb
}

func mustPersistentVertexBuffer(t *testing.T, ctx *vtx.Context, data []vertex) *vtx.VertexBuffer[vertex] {
	t.Helper()
	vb, err := vtx.NewPersistentVertexBuffer(ctx, t.Name(), data)
	if err != nil {
		t.Fatalf("NewPersistentVertexBuffer: %v", err)
	}
	return vb
}

var persistentDevice = testdevice.Options{Version: vtx.Version{Major: 4, Minor: 5}}

func expectAbort(t *testing.T, name string, f func()) {
	t.Helper()
	defer func() {
		t.Helper()
		if recover() == nil {
			t.Errorf("%s: expected abort", name)
		}
	}()
	f()
}
