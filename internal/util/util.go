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

package util

import (
	"unsafe"

	"goarrg.com"
	"goarrg.com/debug"
)

type platform struct{}

func (platform) Abort()                           { panic("Fatal Error") }
func (platform) AbortPopup(f string, args ...any) { panic("Fatal Error") }

var instance = struct {
	platform goarrg.PlatformInterface
	logger   *debug.Logger
}{
	platform: platform{},
	logger:   debug.NewLogger("vtx", "internal", "util"),
}

func abort(fmt string, args ...any) {
	instance.logger.EPrintf(fmt, args...)
	instance.platform.Abort()
}

func Init(platform goarrg.PlatformInterface) {
	instance.platform = platform
}

// AsBytes reinterprets data as its host memory. The returned slice aliases data.
func AsBytes[T any](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(data))), uintptr(len(data))*unsafe.Sizeof(data[0]))
}

// AsSlice reinterprets host memory as a slice of T. The returned slice aliases data,
// len(data) must be a multiple of the size of T.
func AsSlice[T any](data []byte) []T {
	var zero T
	size := unsafe.Sizeof(zero)
	if size == 0 {
		abort("AsSlice called with zero sized type %T", zero)
	}
	if uintptr(len(data))%size != 0 {
		abort("AsSlice(len(data): %d) is not a multiple of sizeof(%T): %d", len(data), zero, size)
	}
	if len(data) == 0 {
		return nil
	}
	return unsafe.Slice((*T)(unsafe.Pointer(unsafe.SliceData(data))), uintptr(len(data))/size)
}

// CopyFromBytes is AsSlice without the aliasing, the result is safe to keep
// after data is unmapped or reused.
func CopyFromBytes[T any](data []byte) []T {
	view := AsSlice[T](data)
	ret := make([]T, len(view))
	copy(ret, view)
	return ret
}
