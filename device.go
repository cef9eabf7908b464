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
	"fmt"

	"github.com/gogpu/gputypes"
)

// BufferID is the device assigned name of a buffer. Devices may hand out the
// name of a released buffer again.
type BufferID uint64

func (id BufferID) String() string {
	return toHex(uint64(id))
}

type Version struct {
	Major uint32
	Minor uint32
}

func (v Version) AtLeast(want Version) bool {
	if v.Major != want.Major {
		return v.Major > want.Major
	}
	return v.Minor >= want.Minor
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

type BufferCreateInfo struct {
	Name  string
	Size  uint64
	Usage BufferUsage
	Flags gputypes.BufferUsage
}

// Device is the capability and allocation side of a device context.
type Device interface {
	Version() Version
	HasExtension(name string) bool

	// CreateBuffer allocates a buffer of info.Size bytes. If info.Usage is
	// BufferUsagePersistent the buffer stays mapped for its whole life.
	CreateBuffer(info BufferCreateInfo) (RawBuffer, error)
}

// RawBuffer is one block of device memory. Offsets and sizes are in bytes.
type RawBuffer interface {
	ID() BufferID

	Upload(offset uint64, data []byte)

	// Map blocks until the device is no longer reading [offset, offset+size)
	// and returns a host view of it, valid until Unmap. Persistent buffers
	// return immediately, synchronisation is done with fences instead.
	Map(offset, size uint64) []byte
	Unmap()

	// Read copies len(data) bytes starting at offset into data or returns
	// ErrorReadUnsupported when the device has no readback.
	Read(offset uint64, data []byte) error

	Release()
}

// Fence signals that the device finished consuming what was submitted before it.
type Fence interface {
	Wait()
	Poll() bool
}
