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
	"github.com/gogpu/gputypes"
)

// VertexSource is what a draw call consumes from a buffer, valid for one
// submission. It does not own the buffer. Sources of persistent buffers carry a
// FenceSender the draw path must Send on once the device finished reading.
type VertexSource struct {
	Buffer   BufferID
	Layout   Layout
	Stride   uintptr
	Offset   int
	Len      int
	StepMode gputypes.VertexStepMode
	Fence    *FenceSender
}

func (s VertexSource) id() string {
	stepMode := "vertex"
	if s.StepMode == gputypes.VertexStepModeInstance {
		stepMode = "instance"
	}
	return genID(s.Buffer, s.Layout.ID(), s.Offset, s.Len, stepMode)
}

func (s VertexSource) VertexBufferLayout() (gputypes.VertexBufferLayout, error) {
	return s.Layout.VertexBufferLayout(s.StepMode)
}

func (b *Buffer) source(offset, n int, step gputypes.VertexStepMode) VertexSource {
	b.noCopy.Check()
	b.checkUnmapped("Source")
	s := VertexSource{
		Buffer:   b.id,
		Layout:   b.layout,
		Stride:   b.layout.Stride(),
		Offset:   offset,
		Len:      n,
		StepMode: step,
	}
	if b.usage == BufferUsagePersistent {
		s.Fence = newFenceSender(b.fences, b.byteRange(offset, n))
	}
	return s
}

func (b *Buffer) Source() VertexSource {
	b.noCopy.Check()
	return b.source(0, b.len, gputypes.VertexStepModeVertex)
}

// PerInstance is Source advancing once per instance instead of once per vertex.
func (b *Buffer) PerInstance() VertexSource {
	b.noCopy.Check()
	return b.source(0, b.len, gputypes.VertexStepModeInstance)
}

// Slice is Source restricted to n elements starting at element offset.
func (b *Buffer) Slice(offset, n int) (VertexSource, error) {
	b.noCopy.Check()
	if err := b.checkRange(offset, n); err != nil {
		return VertexSource{}, err
	}
	return b.source(offset, n, gputypes.VertexStepModeVertex), nil
}

func (vb *VertexBuffer[T]) Source() VertexSource {
	vb.noCopy.Check()
	return vb.buffer.Source()
}

func (vb *VertexBuffer[T]) PerInstance() VertexSource {
	vb.noCopy.Check()
	return vb.buffer.PerInstance()
}

func (vb *VertexBuffer[T]) Slice(offset, n int) (VertexSource, error) {
	vb.noCopy.Check()
	return vb.buffer.Slice(offset, n)
}
