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
	"bytes"
	"fmt"
	"slices"
	"unsafe"

	"github.com/gogpu/gputypes"
	"goarrg.com/debug"
)

// Vertex is implemented by every record type stored in a VertexBuffer. The
// returned layout must describe the host memory of the type exactly and is
// computed once per buffer, so it should not depend on the receiver's value.
//
//	type vertex struct {
//		Pos   [3]float32
//		Color [4]uint8
//	}
//
//	func (v vertex) VertexLayout() vtx.Layout {
//		return vtx.NewLayout(unsafe.Sizeof(v),
//			vtx.Attrib("Pos", unsafe.Offsetof(v.Pos), v.Pos),
//			vtx.Attrib("Color", unsafe.Offsetof(v.Color), v.Color),
//		)
//	}
type Vertex interface {
	VertexLayout() Layout
}

type LayoutEntry struct {
	Name   string
	Offset uintptr
	Format AttribFormat
}

func (e LayoutEntry) String() string {
	return fmt.Sprintf("%s:%d:%s", e.Name, e.Offset, e.Format.String())
}

// Attrib describes one field of a record, the format is resolved from the type
// of field which should be the field itself.
func Attrib[T AttribType](name string, offset uintptr, field T) LayoutEntry {
	format := AttribFormatOf[T]()
	if size := unsafe.Sizeof(field); size != format.Size() {
		abort("Attrib %q of type %T has size %d but %s has size %d", name, field, size, format.String(), format.Size())
	}
	return LayoutEntry{Name: name, Offset: offset, Format: format}
}

// Layout is the ordered list of attributes of one record type plus the size
// of the record. It is immutable, copies share the same entries.
type Layout struct {
	id      string
	stride  uintptr
	entries []LayoutEntry
}

// NewLayout builds a Layout keeping the order of entries. Entries may overlap or
// be out of order but must each fit within stride. A layout without entries
// is valid.
func NewLayout(stride uintptr, entries ...LayoutEntry) Layout {
	l := Layout{stride: stride, entries: slices.Clone(entries)}
	ids := make([]any, 0, len(entries)+1)
	ids = append(ids, stride)

	for i, e := range l.entries {
		if !e.Format.Valid() {
			abort("Layout entry [%d] %q has invalid format: %d", i, e.Name, e.Format)
		}
		if e.Offset > stride || e.Format.Size() > stride-e.Offset {
			abort("Layout entry [%d] %q at offset %d with size %d overflows stride %d",
				i, e.Name, e.Offset, e.Format.Size(), stride)
		}
		ids = append(ids, e)
	}

	l.id = genID(ids...)
	return l
}

func (l Layout) ID() string {
	return l.id
}

func (l Layout) Stride() uintptr {
	return l.stride
}

func (l Layout) Len() int {
	return len(l.entries)
}

func (l Layout) Entry(i int) LayoutEntry {
	return l.entries[i]
}

func (l Layout) Entries() []LayoutEntry {
	return slices.Clone(l.entries)
}

// VertexBufferLayout converts l into the descriptor a WebGPU pipeline consumes,
// shader locations follow declaration order.
func (l Layout) VertexBufferLayout(step gputypes.VertexStepMode) (gputypes.VertexBufferLayout, error) {
	attributes := make([]gputypes.VertexAttribute, 0, len(l.entries))
	for i, e := range l.entries {
		format, ok := e.Format.VertexFormat()
		if !ok {
			return gputypes.VertexBufferLayout{}, debug.ErrorWrapf(ErrorUnsupportedFeature{Feature: "vertex format " + e.Format.String()},
				"Layout entry [%d] %q has no WebGPU vertex format", i, e.Name)
		}
		attributes = append(attributes, gputypes.VertexAttribute{
			Format:         format,
			Offset:         uint64(e.Offset),
			ShaderLocation: uint32(i),
		})
	}
	return gputypes.VertexBufferLayout{
		ArrayStride: uint64(l.stride),
		StepMode:    step,
		Attributes:  attributes,
	}, nil
}

func (l *Layout) MarshalJSON() ([]byte, error) {
	buff := bytes.Buffer{}
	buff.WriteString("{")

	buff.WriteString(fmt.Sprintf("\"stride\": %d,", l.stride))
	buff.WriteString("\"entries\": [")
	if len(l.entries) > 0 {
		for _, e := range l.entries {
			buff.WriteString(fmt.Sprintf("{\"name\": %s, \"offset\": %d, \"format\": %q},", jsonString(e.Name), e.Offset, e.Format.String()))
		}
		buff.Truncate(buff.Len() - 1)
	}
	buff.WriteString("]")

	buff.WriteString("}")
	return buff.Bytes(), nil
}
