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
	"goarrg.com/gmath"
)

type scalarKind uint8

const (
	scalarSint scalarKind = iota + 1
	scalarUint
	scalarFloat
)

type attribFormatInfo struct {
	name            string
	scalar          scalarKind
	scalarSize      uintptr
	components      uintptr
	vertexFormat    gputypes.VertexFormat
	hasVertexFormat bool
}

// AttribFormat is the wire level encoding of one vertex attribute: its scalar
// type, bit width and number of components.
type AttribFormat uint32

const (
	attribFormatUndefined AttribFormat = iota
	AttribFormatSint8
	AttribFormatSint8x2
	AttribFormatSint8x3
	AttribFormatSint8x4

	AttribFormatUint8
	AttribFormatUint8x2
	AttribFormatUint8x3
	AttribFormatUint8x4

	AttribFormatSint16
	AttribFormatSint16x2
	AttribFormatSint16x3
	AttribFormatSint16x4

	AttribFormatUint16
	AttribFormatUint16x2
	AttribFormatUint16x3
	AttribFormatUint16x4

	AttribFormatSint32
	AttribFormatSint32x2
	AttribFormatSint32x3
	AttribFormatSint32x4

	AttribFormatUint32
	AttribFormatUint32x2
	AttribFormatUint32x3
	AttribFormatUint32x4

	AttribFormatFloat32
	AttribFormatFloat32x2
	AttribFormatFloat32x3
	AttribFormatFloat32x4

	attribFormatCount
)

var attribFormatInfos = [attribFormatCount]attribFormatInfo{
	AttribFormatSint8:     {name: "Sint8", scalar: scalarSint, scalarSize: 1, components: 1},
	AttribFormatSint8x2:   {name: "Sint8x2", scalar: scalarSint, scalarSize: 1, components: 2, vertexFormat: gputypes.VertexFormatSint8x2, hasVertexFormat: true},
	AttribFormatSint8x3:   {name: "Sint8x3", scalar: scalarSint, scalarSize: 1, components: 3},
	AttribFormatSint8x4:   {name: "Sint8x4", scalar: scalarSint, scalarSize: 1, components: 4, vertexFormat: gputypes.VertexFormatSint8x4, hasVertexFormat: true},
	AttribFormatUint8:     {name: "Uint8", scalar: scalarUint, scalarSize: 1, components: 1},
	AttribFormatUint8x2:   {name: "Uint8x2", scalar: scalarUint, scalarSize: 1, components: 2, vertexFormat: gputypes.VertexFormatUint8x2, hasVertexFormat: true},
	AttribFormatUint8x3:   {name: "Uint8x3", scalar: scalarUint, scalarSize: 1, components: 3},
	AttribFormatUint8x4:   {name: "Uint8x4", scalar: scalarUint, scalarSize: 1, components: 4, vertexFormat: gputypes.VertexFormatUint8x4, hasVertexFormat: true},
	AttribFormatSint16:    {name: "Sint16", scalar: scalarSint, scalarSize: 2, components: 1},
	AttribFormatSint16x2:  {name: "Sint16x2", scalar: scalarSint, scalarSize: 2, components: 2, vertexFormat: gputypes.VertexFormatSint16x2, hasVertexFormat: true},
	AttribFormatSint16x3:  {name: "Sint16x3", scalar: scalarSint, scalarSize: 2, components: 3},
	AttribFormatSint16x4:  {name: "Sint16x4", scalar: scalarSint, scalarSize: 2, components: 4, vertexFormat: gputypes.VertexFormatSint16x4, hasVertexFormat: true},
	AttribFormatUint16:    {name: "Uint16", scalar: scalarUint, scalarSize: 2, components: 1},
	AttribFormatUint16x2:  {name: "Uint16x2", scalar: scalarUint, scalarSize: 2, components: 2, vertexFormat: gputypes.VertexFormatUint16x2, hasVertexFormat: true},
	AttribFormatUint16x3:  {name: "Uint16x3", scalar: scalarUint, scalarSize: 2, components: 3},
	AttribFormatUint16x4:  {name: "Uint16x4", scalar: scalarUint, scalarSize: 2, components: 4, vertexFormat: gputypes.VertexFormatUint16x4, hasVertexFormat: true},
	AttribFormatSint32:    {name: "Sint32", scalar: scalarSint, scalarSize: 4, components: 1, vertexFormat: gputypes.VertexFormatSint32, hasVertexFormat: true},
	AttribFormatSint32x2:  {name: "Sint32x2", scalar: scalarSint, scalarSize: 4, components: 2, vertexFormat: gputypes.VertexFormatSint32x2, hasVertexFormat: true},
	AttribFormatSint32x3:  {name: "Sint32x3", scalar: scalarSint, scalarSize: 4, components: 3, vertexFormat: gputypes.VertexFormatSint32x3, hasVertexFormat: true},
	AttribFormatSint32x4:  {name: "Sint32x4", scalar: scalarSint, scalarSize: 4, components: 4, vertexFormat: gputypes.VertexFormatSint32x4, hasVertexFormat: true},
	AttribFormatUint32:    {name: "Uint32", scalar: scalarUint, scalarSize: 4, components: 1, vertexFormat: gputypes.VertexFormatUint32, hasVertexFormat: true},
	AttribFormatUint32x2:  {name: "Uint32x2", scalar: scalarUint, scalarSize: 4, components: 2, vertexFormat: gputypes.VertexFormatUint32x2, hasVertexFormat: true},
	AttribFormatUint32x3:  {name: "Uint32x3", scalar: scalarUint, scalarSize: 4, components: 3, vertexFormat: gputypes.VertexFormatUint32x3, hasVertexFormat: true},
	AttribFormatUint32x4:  {name: "Uint32x4", scalar: scalarUint, scalarSize: 4, components: 4, vertexFormat: gputypes.VertexFormatUint32x4, hasVertexFormat: true},
	AttribFormatFloat32:   {name: "Float32", scalar: scalarFloat, scalarSize: 4, components: 1, vertexFormat: gputypes.VertexFormatFloat32, hasVertexFormat: true},
	AttribFormatFloat32x2: {name: "Float32x2", scalar: scalarFloat, scalarSize: 4, components: 2, vertexFormat: gputypes.VertexFormatFloat32x2, hasVertexFormat: true},
	AttribFormatFloat32x3: {name: "Float32x3", scalar: scalarFloat, scalarSize: 4, components: 3, vertexFormat: gputypes.VertexFormatFloat32x3, hasVertexFormat: true},
	AttribFormatFloat32x4: {name: "Float32x4", scalar: scalarFloat, scalarSize: 4, components: 4, vertexFormat: gputypes.VertexFormatFloat32x4, hasVertexFormat: true},
}

// AttribType is the closed set of Go types with a vertex attribute encoding.
type AttribType interface {
	int8 | [2]int8 | [3]int8 | [4]int8 |
	uint8 | [2]uint8 | [3]uint8 | [4]uint8 |
	int16 | [2]int16 | [3]int16 | [4]int16 |
	uint16 | [2]uint16 | [3]uint16 | [4]uint16 |
	int32 | [2]int32 | [3]int32 | [4]int32 |
	uint32 | [2]uint32 | [3]uint32 | [4]uint32 |
	float32 | [2]float32 | [3]float32 | [4]float32 |
	gmath.Vector3f32 | gmath.Vector3i32
}

// AttribFormatOf returns the encoding of T, it is a pure function of the type.
func AttribFormatOf[T AttribType]() AttribFormat {
	var zero T
	switch any(zero).(type) {
	case int8:
		return AttribFormatSint8
	case [2]int8:
		return AttribFormatSint8x2
	case [3]int8:
		return AttribFormatSint8x3
	case [4]int8:
		return AttribFormatSint8x4
	case uint8:
		return AttribFormatUint8
	case [2]uint8:
		return AttribFormatUint8x2
	case [3]uint8:
		return AttribFormatUint8x3
	case [4]uint8:
		return AttribFormatUint8x4
	case int16:
		return AttribFormatSint16
	case [2]int16:
		return AttribFormatSint16x2
	case [3]int16:
		return AttribFormatSint16x3
	case [4]int16:
		return AttribFormatSint16x4
	case uint16:
		return AttribFormatUint16
	case [2]uint16:
		return AttribFormatUint16x2
	case [3]uint16:
		return AttribFormatUint16x3
	case [4]uint16:
		return AttribFormatUint16x4
	case int32:
		return AttribFormatSint32
	case [2]int32:
		return AttribFormatSint32x2
	case [3]int32:
		return AttribFormatSint32x3
	case [4]int32:
		return AttribFormatSint32x4
	case uint32:
		return AttribFormatUint32
	case [2]uint32:
		return AttribFormatUint32x2
	case [3]uint32:
		return AttribFormatUint32x3
	case [4]uint32:
		return AttribFormatUint32x4
	case float32:
		return AttribFormatFloat32
	case [2]float32:
		return AttribFormatFloat32x2
	case [3]float32:
		return AttribFormatFloat32x3
	case [4]float32:
		return AttribFormatFloat32x4
	case gmath.Vector3f32:
		return AttribFormatFloat32x3
	case gmath.Vector3i32:
		return AttribFormatSint32x3
	}
	abort("Unknown/Unhandled attribute type: %T", zero)
	return attribFormatUndefined
}

func (f AttribFormat) info() attribFormatInfo {
	if f == attribFormatUndefined || f >= attribFormatCount {
		abort("Unknown AttribFormat: %d", f)
	}
	return attribFormatInfos[f]
}

func (f AttribFormat) Valid() bool {
	return f != attribFormatUndefined && f < attribFormatCount
}

func (f AttribFormat) String() string {
	if !f.Valid() {
		return "Undefined"
	}
	return attribFormatInfos[f].name
}

// Size is the size in bytes of one attribute.
func (f AttribFormat) Size() uintptr {
	i := f.info()
	return i.scalarSize * i.components
}

func (f AttribFormat) ScalarSize() uintptr {
	return f.info().scalarSize
}

func (f AttribFormat) Components() uintptr {
	return f.info().components
}

func (f AttribFormat) IsFloat() bool {
	return f.info().scalar == scalarFloat
}

func (f AttribFormat) IsSigned() bool {
	return f.info().scalar != scalarUint
}

// VertexFormat returns the WebGPU vertex format with the same memory layout,
// 8 and 16 bit formats with 1 or 3 components have none.
func (f AttribFormat) VertexFormat() (gputypes.VertexFormat, bool) {
	i := f.info()
	return i.vertexFormat, i.hasVertexFormat
}
