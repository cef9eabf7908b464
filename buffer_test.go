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
	"bytes"
	"errors"
	"slices"
	"testing"
	"unsafe"

	"github.com/gogpu/gputypes"

	"goarrg.com/rhi/vtx"
	"goarrg.com/rhi/vtx/internal/testdevice"
)

func TestNewVertexBufferUploads(t *testing.T) {
	ctx, device := newTestContext(t, testdevice.Options{})
	data := testVertices(4)
	vb := mustVertexBuffer(t, ctx, data)
	defer vb.Destroy()

	if vb.Len() != 4 {
		t.Errorf("Len() = %d, want 4", vb.Len())
	}
	if vb.Stride() != 20 {
		t.Errorf("Stride() = %d, want 20", vb.Stride())
	}
	if vb.Size() != 80 {
		t.Errorf("Size() = %d, want 80", vb.Size())
	}
	if vb.Usage() != vtx.BufferUsageStatic {
		t.Errorf("Usage() = %s, want Static", vb.Usage())
	}

	raw := device.Buffer(vb.ID())
	if raw == nil {
		t.Fatal("device has no buffer for ID()")
	}
	info := raw.Info()
	if info.Size != 80 {
		t.Errorf("allocated %d bytes, want 80", info.Size)
	}
	if info.Flags&gputypes.BufferUsageVertex == 0 {
		t.Errorf("allocation flags %v lack BufferUsageVertex", info.Flags)
	}
	want := unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(data))), 80)
	if !bytes.Equal(raw.Bytes(), want) {
		t.Error("device content does not match host memory of the records")
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	ctx, _ := newTestContext(t, testdevice.Options{})
	vb := mustVertexBuffer(t, ctx, make([]vertex, 8))
	defer vb.Destroy()

	for _, n := range []int{0, 1, 5, 8} {
		data := testVertices(n)
		if err := vb.Write(0, data); err != nil {
			t.Fatalf("Write(0, %d records): %v", n, err)
		}
		got, err := vb.ReadSlice(0, n)
		if err != nil {
			t.Fatalf("ReadSlice(0, %d): %v", n, err)
		}
		if !slices.Equal(got, data) {
			t.Errorf("round trip of %d records: got %v, want %v", n, got, data)
		}
	}

	data := testVertices(8)
	if err := vb.Write(0, data); err != nil {
		t.Fatal(err)
	}
	got, err := vb.Read()
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(got, data) {
		t.Errorf("Read() = %v, want %v", got, data)
	}
}

func TestWriteBounds(t *testing.T) {
	tests := []struct {
		name    string
		offset  int
		n       int
		wantErr bool
	}{
		{"full", 0, 3, false},
		{"tail", 1, 2, false},
		{"end", 3, 0, false},
		{"overflow by one", 1, 3, true},
		{"past end", 3, 1, true},
		{"far past end", 10, 1, true},
		{"negative offset", -1, 1, true},
	}

	ctx, device := newTestContext(t, testdevice.Options{})
	vb := mustVertexBuffer(t, ctx, testVertices(3))
	defer vb.Destroy()
	raw := device.Buffer(vb.ID())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := raw.Bytes()
			err := vb.Write(tt.offset, testVertices(tt.n+1)[1:])
			if tt.wantErr {
				if !errors.Is(err, vtx.ErrorOutOfBounds{}) {
					t.Fatalf("Write(%d, %d records) = %v, want ErrorOutOfBounds", tt.offset, tt.n, err)
				}
				if !bytes.Equal(before, raw.Bytes()) {
					t.Error("failed Write modified the buffer")
				}
				return
			}
			if err != nil {
				t.Fatalf("Write(%d, %d records) = %v", tt.offset, tt.n, err)
			}
		})
	}
}

func TestWriteThenReadSlice(t *testing.T) {
	ctx, _ := newTestContext(t, testdevice.Options{})
	vb := mustVertexBuffer(t, ctx, testVertices(3))
	defer vb.Destroy()

	rec := vertex{Pos: [3]float32{7, 8, 9}, Normal: [2]int16{-1, 1}, Color: [4]uint8{1, 2, 3, 4}}
	if err := vb.Write(1, []vertex{rec}); err != nil {
		t.Fatal(err)
	}

	got, err := vb.ReadSlice(1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(got, []vertex{rec}) {
		t.Errorf("ReadSlice(1, 1) = %v, want [%v]", got, rec)
	}

	if _, err := vb.ReadSlice(2, 2); !errors.Is(err, vtx.ErrorOutOfBounds{}) {
		t.Errorf("ReadSlice(2, 2) = %v, want ErrorOutOfBounds", err)
	}

	got, err = vb.ReadSlice(3, 0)
	if err != nil || len(got) != 0 {
		t.Errorf("ReadSlice(3, 0) = %v, %v, want empty", got, err)
	}
}

func TestReadUnsupported(t *testing.T) {
	ctx, _ := newTestContext(t, testdevice.Options{NoReadback: true})
	vb := mustVertexBuffer(t, ctx, testVertices(2))
	defer vb.Destroy()

	got, err := vb.Read()
	if !errors.Is(err, vtx.ErrorReadUnsupported{}) {
		t.Fatalf("Read() error = %v, want ErrorReadUnsupported", err)
	}
	if got != nil {
		t.Errorf("Read() = %v, want nil", got)
	}
	if _, err := vb.ReadSlice(5, 1); !errors.Is(err, vtx.ErrorOutOfBounds{}) {
		t.Errorf("ReadSlice out of range = %v, want ErrorOutOfBounds before readback", err)
	}
}

func TestEraseKeepsIdentity(t *testing.T) {
	ctx, device := newTestContext(t, testdevice.Options{})
	vb := mustVertexBuffer(t, ctx, testVertices(3))

	id := vb.ID()
	layout := vb.Layout()
	b := vb.Erase()

	if b.ID() != id {
		t.Errorf("ID() after Erase = %s, want %s", b.ID(), id)
	}
	if b.Len() != 3 || b.Stride() != 20 {
		t.Errorf("erased buffer Len() = %d Stride() = %d, want 3 and 20", b.Len(), b.Stride())
	}
	if b.Layout().ID() != layout.ID() {
		t.Errorf("erased layout %s, want %s", b.Layout().ID(), layout.ID())
	}
	if !device.Live(id) {
		t.Error("Erase released the device buffer")
	}

	expectAbort(t, "Len after Erase", func() { vb.Len() })
	expectAbort(t, "Erase twice", func() { vb.Erase() })

	b.Destroy()
	if device.Live(id) {
		t.Error("Destroy did not release the device buffer")
	}
}

func TestDestroy(t *testing.T) {
	ctx, device := newTestContext(t, testdevice.Options{})
	vb := mustVertexBuffer(t, ctx, testVertices(1))
	id := vb.ID()

	vb.Destroy()
	if device.Live(id) {
		t.Error("device buffer still live after Destroy")
	}
	expectAbort(t, "Write after Destroy", func() { _ = vb.Write(0, testVertices(1)) })
	expectAbort(t, "Destroy twice", func() { vb.Destroy() })
}

func TestPersistentCapability(t *testing.T) {
	tests := []struct {
		name    string
		opts    testdevice.Options
		wantErr bool
	}{
		{"3.3 without extension", testdevice.Options{Version: vtx.Version{Major: 3, Minor: 3}}, true},
		{"4.3 without extension", testdevice.Options{Version: vtx.Version{Major: 4, Minor: 3}}, true},
		{"4.4 core", testdevice.Options{Version: vtx.Version{Major: 4, Minor: 4}}, false},
		{"5.0 core", testdevice.Options{Version: vtx.Version{Major: 5, Minor: 0}}, false},
		{"3.3 with ARB", testdevice.Options{
			Version: vtx.Version{Major: 3, Minor: 3}, Extensions: []string{vtx.ExtensionARBBufferStorage},
		}, false},
		{"3.0 with EXT", testdevice.Options{
			Version: vtx.Version{Major: 3, Minor: 0}, Extensions: []string{vtx.ExtensionEXTBufferStorage},
		}, false},
		{"3.3 with unrelated", testdevice.Options{
			Version: vtx.Version{Major: 3, Minor: 3}, Extensions: []string{"GL_ARB_debug_output"},
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, device := newTestContext(t, tt.opts)
			vb, err := vtx.NewPersistentVertexBuffer(ctx, "persistent", testVertices(2))
			if tt.wantErr {
				if !errors.Is(err, vtx.ErrorUnsupportedFeature{}) {
					t.Fatalf("NewPersistentVertexBuffer = %v, want ErrorUnsupportedFeature", err)
				}
				if vb != nil {
					t.Error("returned a buffer alongside the error")
				}
				if device.NumLive() != 0 {
					t.Errorf("%d device buffers allocated for a refused request", device.NumLive())
				}
				return
			}
			if err != nil {
				t.Fatalf("NewPersistentVertexBuffer = %v", err)
			}
			if vb.Usage() != vtx.BufferUsagePersistent {
				t.Errorf("Usage() = %s, want Persistent", vb.Usage())
			}
			vb.Destroy()
		})
	}
}

func TestCreateBufferFailure(t *testing.T) {
	ctx, device := newTestContext(t, testdevice.Options{})
	errOOM := errors.New("out of device memory")
	device.FailNextCreate(errOOM)

	vb, err := vtx.NewVertexBuffer(ctx, "oom", testVertices(2))
	if !errors.Is(err, errOOM) {
		t.Fatalf("NewVertexBuffer = %v, want wrapped %v", err, errOOM)
	}
	if vb != nil {
		t.Error("returned a buffer alongside the error")
	}
}

func TestEmptyAndDynamicBuffers(t *testing.T) {
	ctx, device := newTestContext(t, testdevice.Options{})

	empty, err := vtx.NewEmptyVertexBuffer[vertex](ctx, "empty", 5, vtx.BufferUsageStatic)
	if err != nil {
		t.Fatal(err)
	}
	defer empty.Destroy()
	if empty.Len() != 5 || empty.Size() != 100 {
		t.Errorf("empty Len() = %d Size() = %d, want 5 and 100", empty.Len(), empty.Size())
	}
	if n := device.Buffer(empty.ID()).Uploads; n != 0 {
		t.Errorf("empty buffer uploaded %d times, want 0", n)
	}

	dynamic, err := vtx.NewDynamicVertexBuffer(ctx, "dynamic", testVertices(2))
	if err != nil {
		t.Fatal(err)
	}
	defer dynamic.Destroy()
	if dynamic.Usage() != vtx.BufferUsageDynamic {
		t.Errorf("Usage() = %s, want Dynamic", dynamic.Usage())
	}
	if err := dynamic.Write(1, testVertices(1)); err != nil {
		t.Fatal(err)
	}
	if n := device.Buffer(dynamic.ID()).Uploads; n != 2 {
		t.Errorf("dynamic buffer uploaded %d times, want 2", n)
	}
}

func TestMapIsExclusive(t *testing.T) {
	ctx, _ := newTestContext(t, testdevice.Options{})
	vb := mustVertexBuffer(t, ctx, testVertices(3))
	defer vb.Destroy()

	m, err := vb.Map()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := vb.Map(); !errors.Is(err, vtx.ErrorConcurrentMapping{}) {
		t.Errorf("second Map() = %v, want ErrorConcurrentMapping", err)
	}
	if _, _, err := vb.TryMap(); !errors.Is(err, vtx.ErrorConcurrentMapping{}) {
		t.Errorf("TryMap() while mapped = %v, want ErrorConcurrentMapping", err)
	}

	expectAbort(t, "Write while mapped", func() { _ = vb.Write(0, testVertices(1)) })
	expectAbort(t, "Read while mapped", func() { _, _ = vb.Read() })
	expectAbort(t, "Source while mapped", func() { vb.Source() })
	expectAbort(t, "Destroy while mapped", func() { vb.Destroy() })

	m.Unmap()
	expectAbort(t, "Unmap twice", func() { m.Unmap() })

	m, err = vb.Map()
	if err != nil {
		t.Fatalf("Map() after Unmap = %v", err)
	}
	m.Unmap()
}

func TestMapWritesThrough(t *testing.T) {
	ctx, _ := newTestContext(t, testdevice.Options{})
	data := testVertices(3)
	vb := mustVertexBuffer(t, ctx, data)
	defer vb.Destroy()

	m, err := vb.Map()
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(m.Data(), data) {
		t.Errorf("mapped %v, want %v", m.Data(), data)
	}
	m.Data()[2].Color = [4]uint8{9, 9, 9, 9}
	m.Unmap()
	expectAbort(t, "Data after Unmap", func() { m.Data() })

	got, err := vb.ReadSlice(2, 1)
	if err != nil {
		t.Fatal(err)
	}
	if got[0].Color != [4]uint8{9, 9, 9, 9} {
		t.Errorf("write through mapping lost, got %v", got[0].Color)
	}
}

type paddedVertex struct {
	Pos [3]float32
}

func (paddedVertex) VertexLayout() vtx.Layout {
	return vtx.NewLayout(16, vtx.Attrib("Pos", 0, [3]float32{}))
}

func TestStrideMustMatchType(t *testing.T) {
	ctx, device := newTestContext(t, testdevice.Options{})
	expectAbort(t, "stride mismatch", func() {
		_, _ = vtx.NewVertexBuffer(ctx, "padded", []paddedVertex{{}})
	})
	if device.NumLive() != 0 {
		t.Errorf("%d device buffers allocated for an invalid layout", device.NumLive())
	}
}
