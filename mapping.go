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

import "goarrg.com/rhi/vtx/internal/util"

// Mapping is an exclusive host view of the elements of a VertexBuffer. Only one
// may be live per buffer and the buffer cannot be written, read, resolved into
// a source, or destroyed until it is unmapped.
type Mapping[T Vertex] struct {
	noCopy util.NoCopy
	buffer *Buffer
	data   []T
}

func newMapping[T Vertex](b *Buffer, view []byte) *Mapping[T] {
	m := Mapping[T]{buffer: b}
	if b.layout.Stride() == 0 {
		m.data = make([]T, b.len)
	} else {
		m.data = util.AsSlice[T](view)
	}
	m.noCopy.Init()
	return &m
}

// Map blocks until the device is done with the buffer and maps every element.
// It returns ErrorConcurrentMapping if the buffer is already mapped.
func (vb *VertexBuffer[T]) Map() (*Mapping[T], error) {
	vb.noCopy.Check()
	view, _, err := vb.buffer.mapRange(0, vb.buffer.len, true)
	if err != nil {
		return nil, err
	}
	return newMapping[T](vb.buffer, view), nil
}

// TryMap is Map without waiting on fences published for a persistent buffer,
// ok is false if one has not signalled yet. Other buffers map as with Map.
func (vb *VertexBuffer[T]) TryMap() (m *Mapping[T], ok bool, err error) {
	vb.noCopy.Check()
	view, ok, err := vb.buffer.mapRange(0, vb.buffer.len, false)
	if err != nil || !ok {
		return nil, ok, err
	}
	return newMapping[T](vb.buffer, view), true, nil
}

// Data aliases device visible memory, it must not be retained after Unmap.
func (m *Mapping[T]) Data() []T {
	m.noCopy.Check()
	return m.data
}

func (m *Mapping[T]) Len() int {
	m.noCopy.Check()
	return len(m.data)
}

func (m *Mapping[T]) Unmap() {
	m.noCopy.Check()
	m.buffer.unmap()
	m.data = nil
	m.noCopy.Close()
}
