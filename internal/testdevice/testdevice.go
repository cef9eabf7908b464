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

// Package testdevice is a host memory vtx.Device. Buffer names are recycled
// like GL names are, most recently released first.
package testdevice

import (
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"goarrg.com/debug"

	"goarrg.com/rhi/vtx"
	"goarrg.com/rhi/vtx/internal/container"
)

type Options struct {
	Version    vtx.Version
	Extensions []string
	NoReadback bool
}

type Device struct {
	mtx        sync.Mutex
	version    vtx.Version
	extensions []string
	readback   bool

	nextID    vtx.BufferID
	freeIDs   container.Stack[vtx.BufferID]
	buffers   map[vtx.BufferID]*Buffer
	createErr error
}

var _ vtx.Device = (*Device)(nil)

func New(opts Options) *Device {
	d := &Device{
		version:    opts.Version,
		extensions: slices.Clone(opts.Extensions),
		readback:   !opts.NoReadback,
		buffers:    map[vtx.BufferID]*Buffer{},
	}
	slices.Sort(d.extensions)
	return d
}

func (d *Device) Version() vtx.Version {
	return d.version
}

func (d *Device) HasExtension(name string) bool {
	_, found := slices.BinarySearch(d.extensions, name)
	return found
}

// FailNextCreate makes the next CreateBuffer return err.
func (d *Device) FailNextCreate(err error) {
	d.mtx.Lock()
	d.createErr = err
	d.mtx.Unlock()
}

func (d *Device) CreateBuffer(info vtx.BufferCreateInfo) (vtx.RawBuffer, error) {
	d.mtx.Lock()
	defer d.mtx.Unlock()

	if err := d.createErr; err != nil {
		d.createErr = nil
		return nil, err
	}

	var id vtx.BufferID
	if !d.freeIDs.Empty() {
		id = d.freeIDs.Pop()
	} else {
		d.nextID++
		id = d.nextID
	}
	b := &Buffer{
		device: d,
		id:     id,
		info:   info,
		data:   make([]byte, info.Size),
	}
	d.buffers[id] = b
	return b, nil
}

// Live reports whether id names an unreleased buffer.
func (d *Device) Live(id vtx.BufferID) bool {
	d.mtx.Lock()
	defer d.mtx.Unlock()
	_, ok := d.buffers[id]
	return ok
}

func (d *Device) NumLive() int {
	d.mtx.Lock()
	defer d.mtx.Unlock()
	return len(d.buffers)
}

func (d *Device) Buffer(id vtx.BufferID) *Buffer {
	d.mtx.Lock()
	defer d.mtx.Unlock()
	return d.buffers[id]
}

func (d *Device) release(id vtx.BufferID) {
	d.mtx.Lock()
	defer d.mtx.Unlock()
	if _, ok := d.buffers[id]; !ok {
		panic(fmt.Sprintf("double release of buffer %s", id.String()))
	}
	delete(d.buffers, id)
	d.freeIDs.Push(id)
}

type Buffer struct {
	device *Device
	id     vtx.BufferID
	info   vtx.BufferCreateInfo
	data   []byte
	mapped bool

	Uploads int
	Maps    int
}

var _ vtx.RawBuffer = (*Buffer)(nil)

func (b *Buffer) ID() vtx.BufferID {
	return b.id
}

func (b *Buffer) Info() vtx.BufferCreateInfo {
	return b.info
}

// Bytes is the current content of the buffer.
func (b *Buffer) Bytes() []byte {
	return slices.Clone(b.data)
}

func (b *Buffer) checkRange(offset, size uint64) {
	if offset+size > uint64(len(b.data)) {
		panic(fmt.Sprintf("range [%d, %d) overflows buffer %s of size %d", offset, offset+size, b.id.String(), len(b.data)))
	}
}

func (b *Buffer) Upload(offset uint64, data []byte) {
	if b.mapped {
		panic("Upload while mapped")
	}
	b.checkRange(offset, uint64(len(data)))
	copy(b.data[offset:], data)
	b.Uploads++
}

func (b *Buffer) Map(offset, size uint64) []byte {
	if b.mapped {
		panic("Map while mapped")
	}
	b.checkRange(offset, size)
	b.mapped = true
	b.Maps++
	return b.data[offset : offset+size : offset+size]
}

func (b *Buffer) Unmap() {
	if !b.mapped {
		panic("Unmap while not mapped")
	}
	b.mapped = false
}

func (b *Buffer) Read(offset uint64, data []byte) error {
	if !b.device.readback {
		return vtx.ErrorReadUnsupported{}
	}
	if offset+uint64(len(data)) > uint64(len(b.data)) {
		return debug.Errorf("read [%d, %d) overflows buffer of size %d", offset, offset+uint64(len(data)), len(b.data))
	}
	copy(data, b.data[offset:])
	return nil
}

func (b *Buffer) Release() {
	if b.mapped {
		panic("Release while mapped")
	}
	b.device.release(b.id)
}

// Fence is signalled explicitly with Signal. Wait stands in for the device
// finishing its work, it signals the fence and counts the call.
type Fence struct {
	signalled atomic.Bool
	waits     atomic.Int32
}

var _ vtx.Fence = (*Fence)(nil)

func NewFence() *Fence {
	return &Fence{}
}

func (f *Fence) Signal() {
	f.signalled.Store(true)
}

func (f *Fence) Poll() bool {
	return f.signalled.Load()
}

func (f *Fence) Wait() {
	f.waits.Add(1)
	f.signalled.Store(true)
}

func (f *Fence) Waits() int {
	return int(f.waits.Load())
}
