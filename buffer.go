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

package vtx

import (
	"errors"
	"unsafe"

	"github.com/gogpu/gputypes"
	"goarrg.com/debug"

	"goarrg.com/rhi/vtx/internal/util"
)

type BufferUsage uint32

const (
	BufferUsageStatic BufferUsage = iota
	// BufferUsageDynamic is a hint for frequently written buffers, it does not
	// change how this package talks to the device.
	BufferUsageDynamic
	// BufferUsagePersistent buffers stay mapped and are synchronised with fences.
	BufferUsagePersistent
)

func (u BufferUsage) String() string {
	switch u {
	case BufferUsageStatic:
		return "Static"
	case BufferUsageDynamic:
		return "Dynamic"
	case BufferUsagePersistent:
		return "Persistent"
	default:
		abort("Unknown BufferUsage: %d", u)
		return ""
	}
}

func (u BufferUsage) flags() gputypes.BufferUsage {
	flags := gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst | gputypes.BufferUsageCopySrc
	if u == BufferUsagePersistent {
		flags |= gputypes.BufferUsageMapRead | gputypes.BufferUsageMapWrite
	}
	return flags
}

// Buffer owns one device buffer together with the layout of its elements. It
// is the untyped form of VertexBuffer and the only thing releasing device memory.
type Buffer struct {
	noCopy util.NoCopy
	ctx    *Context
	name   string
	raw    RawBuffer
	id     BufferID
	layout Layout
	len    int
	usage  BufferUsage
	mapped bool
	fences *fenceList
}

var _ Destroyer = (*Buffer)(nil)

func newBuffer(ctx *Context, name string, layout Layout, n int, usage BufferUsage, data []byte) (*Buffer, error) {
	if ctx == nil {
		abort("VertexBuffer %q created with nil Context", name)
	}
	ctx.noCopy.Check()
	if n < 0 {
		abort("VertexBuffer %q created with negative length: %d", name, n)
	}
	if usage == BufferUsagePersistent && !ctx.SupportsPersistent() {
		instance.logger.WPrintf("Refusing persistent VertexBuffer %q: device version %s lacks persistent mapping",
			name, ctx.device.Version().String())
		return nil, debug.ErrorWrapf(ErrorUnsupportedFeature{Feature: "persistent mapping"}, "Failed to create VertexBuffer %q", name)
	}

	size := uint64(n) * uint64(layout.Stride())
	raw, err := ctx.device.CreateBuffer(BufferCreateInfo{
		Name:  name,
		Size:  size,
		Usage: usage,
		Flags: usage.flags(),
	})
	if err != nil {
		return nil, debug.ErrorWrapf(err, "Failed to create VertexBuffer %q with size [%d] and usage [%s]", name, size, usage.String())
	}

	b := Buffer{
		ctx:    ctx,
		name:   name,
		raw:    raw,
		id:     raw.ID(),
		layout: layout,
		len:    n,
		usage:  usage,
	}
	b.noCopy.Init()
	if usage == BufferUsagePersistent {
		b.fences = &fenceList{}
	}
	if len(data) > 0 {
		if uint64(len(data)) != size {
			abort("VertexBuffer %q initial data is %d bytes, expecting %d", name, len(data), size)
		}
		raw.Upload(0, data)
	}

	instance.logger.VPrintf("Created VertexBuffer %q id: %s len: %d stride: %d usage: %s", name, b.id.String(), n, layout.Stride(), usage.String())
	return &b, nil
}

func (b *Buffer) ID() BufferID {
	b.noCopy.Check()
	return b.id
}

func (b *Buffer) Name() string {
	b.noCopy.Check()
	return b.name
}

// Len is the number of elements.
func (b *Buffer) Len() int {
	b.noCopy.Check()
	return b.len
}

func (b *Buffer) Stride() uintptr {
	b.noCopy.Check()
	return b.layout.Stride()
}

// Size is the size in bytes.
func (b *Buffer) Size() uint64 {
	b.noCopy.Check()
	return uint64(b.len) * uint64(b.layout.Stride())
}

func (b *Buffer) Usage() BufferUsage {
	b.noCopy.Check()
	return b.usage
}

func (b *Buffer) Layout() Layout {
	b.noCopy.Check()
	return b.layout
}

func (b *Buffer) Mapped() bool {
	b.noCopy.Check()
	return b.mapped
}

// PendingFences is the number of published fences not yet waited on, always 0
// for buffers that are not persistent.
func (b *Buffer) PendingFences() int {
	b.noCopy.Check()
	if b.fences == nil {
		return 0
	}
	return b.fences.len()
}

// Destroy removes every pipeline configuration referencing b from the context
// cache, then releases the device buffer.
func (b *Buffer) Destroy() {
	b.noCopy.Check()
	if b.mapped {
		abort("Destroy called on VertexBuffer %q while mapped", b.name)
	}
	n := b.ctx.pipelineCache.InvalidateBuffer(b.id)
	instance.logger.VPrintf("Destroying VertexBuffer %q id: %s, invalidated %d pipeline configurations", b.name, b.id.String(), n)
	b.raw.Release()
	b.raw = nil
	b.noCopy.Close()
}

func (b *Buffer) checkRange(offset, n int) error {
	if offset < 0 || n < 0 || offset > b.len || n > b.len-offset {
		return debug.ErrorWrapf(ErrorOutOfBounds{Offset: offset, Len: n, Capacity: b.len}, "VertexBuffer %q", b.name)
	}
	return nil
}

func (b *Buffer) byteRange(offset, n int) byteRange {
	stride := uint64(b.layout.Stride())
	return byteRange{offset: uint64(offset) * stride, size: uint64(n) * stride}
}

func (b *Buffer) checkUnmapped(op string) {
	if b.mapped {
		abort("%s called on VertexBuffer %q while mapped", op, b.name)
	}
}

func (b *Buffer) write(offset, n int, data []byte) error {
	b.noCopy.Check()
	b.checkUnmapped("Write")
	if err := b.checkRange(offset, n); err != nil {
		return err
	}
	if n == 0 {
		return nil
	}
	r := b.byteRange(offset, n)
	if uint64(len(data)) != r.size {
		abort("Write to VertexBuffer %q with %d bytes, expecting %d", b.name, len(data), r.size)
	}

	if b.usage == BufferUsagePersistent {
		b.fences.wait(r)
		view := b.raw.Map(r.offset, r.size)
		if uint64(len(view)) != r.size {
			b.raw.Unmap()
			abort("Device mapped %d bytes of VertexBuffer %q, expecting %d", len(view), b.name, r.size)
		}
		copy(view, data)
		b.raw.Unmap()
		return nil
	}
	b.raw.Upload(r.offset, data)
	return nil
}

func (b *Buffer) read(offset, n int) ([]byte, error) {
	b.noCopy.Check()
	b.checkUnmapped("Read")
	if err := b.checkRange(offset, n); err != nil {
		return nil, err
	}
	r := b.byteRange(offset, n)
	if b.usage == BufferUsagePersistent {
		b.fences.wait(r)
	}

	data := make([]byte, r.size)
	if err := b.raw.Read(r.offset, data); err != nil {
		if errors.Is(err, ErrorReadUnsupported{}) {
			return nil, debug.ErrorWrapf(err, "VertexBuffer %q cannot be read back", b.name)
		}
		return nil, debug.ErrorWrapf(err, "Failed to read VertexBuffer %q", b.name)
	}
	return data, nil
}

// mapRange waits for the device unless wait is false, in which case it reports
// false if a fence over the range is still pending.
func (b *Buffer) mapRange(offset, n int, wait bool) ([]byte, bool, error) {
	b.noCopy.Check()
	if b.mapped {
		return nil, false, debug.ErrorWrapf(ErrorConcurrentMapping{}, "VertexBuffer %q", b.name)
	}
	if err := b.checkRange(offset, n); err != nil {
		return nil, false, err
	}
	r := b.byteRange(offset, n)
	if b.usage == BufferUsagePersistent {
		if wait {
			b.fences.wait(r)
		} else if !b.fences.poll(r) {
			return nil, false, nil
		}
	}
	view := b.raw.Map(r.offset, r.size)
	if uint64(len(view)) != r.size {
		abort("Device mapped %d bytes of VertexBuffer %q, expecting %d", len(view), b.name, r.size)
	}
	b.mapped = true
	return view, true, nil
}

func (b *Buffer) unmap() {
	b.noCopy.Check()
	if !b.mapped {
		abort("Unmap called on VertexBuffer %q which is not mapped", b.name)
	}
	b.raw.Unmap()
	b.mapped = false
}

// VertexBuffer is a Buffer of elements of type T.
type VertexBuffer[T Vertex] struct {
	noCopy util.NoCopy
	buffer *Buffer
}

func newVertexBuffer[T Vertex](ctx *Context, name string, usage BufferUsage, n int, data []T) (*VertexBuffer[T], error) {
	var zero T
	layout := zero.VertexLayout()
	if size := unsafe.Sizeof(zero); layout.Stride() != size {
		abort("%T.VertexLayout() has stride %d but the type has size %d", zero, layout.Stride(), size)
	}

	b, err := newBuffer(ctx, name, layout, n, usage, util.AsBytes(data))
	if err != nil {
		return nil, err
	}
	vb := VertexBuffer[T]{buffer: b}
	vb.noCopy.Init()
	return &vb, nil
}

// NewRawBuffer creates an untyped buffer from bytes already encoded with layout,
// len(data) must be a multiple of its stride.
func NewRawBuffer(ctx *Context, name string, layout Layout, data []byte, usage BufferUsage) (*Buffer, error) {
	stride := layout.Stride()
	n := 0
	if stride == 0 {
		if len(data) != 0 {
			abort("NewRawBuffer %q called with %d bytes for a layout with stride 0", name, len(data))
		}
	} else {
		if uintptr(len(data))%stride != 0 {
			abort("NewRawBuffer %q called with %d bytes, not a multiple of stride %d", name, len(data), stride)
		}
		n = int(uintptr(len(data)) / stride)
	}
	return newBuffer(ctx, name, layout, n, usage, data)
}

// AsVertexBuffer moves b back into a typed wrapper, b must not be used directly
// afterwards. The layout of T must be the one b was created with.
func AsVertexBuffer[T Vertex](b *Buffer) *VertexBuffer[T] {
	if b == nil {
		abort("AsVertexBuffer called with nil Buffer")
	}
	b.noCopy.Check()
	var zero T
	layout := zero.VertexLayout()
	if size := unsafe.Sizeof(zero); layout.Stride() != size {
		abort("%T.VertexLayout() has stride %d but the type has size %d", zero, layout.Stride(), size)
	}
	if layout.ID() != b.layout.ID() {
		abort("AsVertexBuffer[%T] on VertexBuffer %q: layout %s does not match %s", zero, b.name, layout.ID(), b.layout.ID())
	}
	vb := VertexBuffer[T]{buffer: b}
	vb.noCopy.Init()
	return &vb
}

// NewVertexBuffer creates a static buffer holding a copy of data.
func NewVertexBuffer[T Vertex](ctx *Context, name string, data []T) (*VertexBuffer[T], error) {
	return newVertexBuffer(ctx, name, BufferUsageStatic, len(data), data)
}

func NewDynamicVertexBuffer[T Vertex](ctx *Context, name string, data []T) (*VertexBuffer[T], error) {
	return newVertexBuffer(ctx, name, BufferUsageDynamic, len(data), data)
}

// NewPersistentVertexBuffer returns ErrorUnsupportedFeature if the device
// cannot keep buffers mapped, nothing is allocated in that case.
func NewPersistentVertexBuffer[T Vertex](ctx *Context, name string, data []T) (*VertexBuffer[T], error) {
	return newVertexBuffer(ctx, name, BufferUsagePersistent, len(data), data)
}

// NewEmptyVertexBuffer creates a buffer of n elements without uploading anything,
// the content is undefined until written.
func NewEmptyVertexBuffer[T Vertex](ctx *Context, name string, n int, usage BufferUsage) (*VertexBuffer[T], error) {
	return newVertexBuffer[T](ctx, name, usage, n, nil)
}

func (vb *VertexBuffer[T]) ID() BufferID {
	vb.noCopy.Check()
	return vb.buffer.ID()
}

func (vb *VertexBuffer[T]) Name() string {
	vb.noCopy.Check()
	return vb.buffer.Name()
}

func (vb *VertexBuffer[T]) Len() int {
	vb.noCopy.Check()
	return vb.buffer.Len()
}

func (vb *VertexBuffer[T]) Stride() uintptr {
	vb.noCopy.Check()
	return vb.buffer.Stride()
}

func (vb *VertexBuffer[T]) Size() uint64 {
	vb.noCopy.Check()
	return vb.buffer.Size()
}

func (vb *VertexBuffer[T]) Usage() BufferUsage {
	vb.noCopy.Check()
	return vb.buffer.Usage()
}

func (vb *VertexBuffer[T]) Layout() Layout {
	vb.noCopy.Check()
	return vb.buffer.Layout()
}

func (vb *VertexBuffer[T]) Mapped() bool {
	vb.noCopy.Check()
	return vb.buffer.Mapped()
}

func (vb *VertexBuffer[T]) PendingFences() int {
	vb.noCopy.Check()
	return vb.buffer.PendingFences()
}

// Write replaces len(data) elements starting at element offset. Nothing is
// written if the range does not fit.
func (vb *VertexBuffer[T]) Write(offset int, data []T) error {
	vb.noCopy.Check()
	return vb.buffer.write(offset, len(data), util.AsBytes(data))
}

func (vb *VertexBuffer[T]) Read() ([]T, error) {
	vb.noCopy.Check()
	return vb.ReadSlice(0, vb.buffer.Len())
}

// ReadSlice reads n elements starting at element offset, out of range requests
// are rejected rather than clamped.
func (vb *VertexBuffer[T]) ReadSlice(offset, n int) ([]T, error) {
	vb.noCopy.Check()
	data, err := vb.buffer.read(offset, n)
	if err != nil {
		return nil, err
	}
	if vb.buffer.layout.Stride() == 0 {
		return make([]T, n), nil
	}
	return util.CopyFromBytes[T](data), nil
}

// Erase moves ownership into the returned Buffer, vb must not be used afterwards.
func (vb *VertexBuffer[T]) Erase() *Buffer {
	vb.noCopy.Check()
	b := vb.buffer
	vb.buffer = nil
	vb.noCopy.Close()
	return b
}

func (vb *VertexBuffer[T]) Destroy() {
	vb.noCopy.Check()
	vb.buffer.Destroy()
	vb.buffer = nil
	vb.noCopy.Close()
}
