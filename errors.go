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

import "fmt"

// ErrorUnsupportedFeature is returned when the device cannot provide a requested
// capability, there is no fallback so the caller decides what to do next.
type ErrorUnsupportedFeature struct {
	Feature string
}

func (ErrorUnsupportedFeature) Is(target error) bool {
	_, ok := target.(ErrorUnsupportedFeature)
	return ok
}

func (e ErrorUnsupportedFeature) Error() string {
	if e.Feature == "" {
		return "Unsupported Feature"
	}
	return "Unsupported Feature: " + e.Feature
}

// ErrorOutOfBounds is returned when an element range does not fit in a buffer.
// The operation that returned it had no effect.
type ErrorOutOfBounds struct {
	Offset   int
	Len      int
	Capacity int
}

func (ErrorOutOfBounds) Is(target error) bool {
	_, ok := target.(ErrorOutOfBounds)
	return ok
}

func (e ErrorOutOfBounds) Error() string {
	return fmt.Sprintf("Out Of Bounds: range [%d, %d) exceeds capacity %d", e.Offset, e.Offset+e.Len, e.Capacity)
}

type ErrorConcurrentMapping struct{}

func (ErrorConcurrentMapping) Is(target error) bool {
	_, ok := target.(ErrorConcurrentMapping)
	return ok
}

func (ErrorConcurrentMapping) Error() string {
	return "Concurrent Mapping: buffer is already mapped"
}

// ErrorReadUnsupported is returned by RawBuffer.Read implementations without
// readback, it is distinct from a successful read of an empty range.
type ErrorReadUnsupported struct{}

func (ErrorReadUnsupported) Is(target error) bool {
	_, ok := target.(ErrorReadUnsupported)
	return ok
}

func (ErrorReadUnsupported) Error() string {
	return "Device Read Unsupported"
}
