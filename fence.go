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
	"slices"
	"sync"

	"goarrg.com/rhi/vtx/internal/util"
)

type byteRange struct {
	offset uint64
	size   uint64
}

func (r byteRange) overlaps(o byteRange) bool {
	return r.offset < o.offset+o.size && o.offset < r.offset+r.size
}

type pendingFence struct {
	byteRange
	fence Fence
}

// fenceList holds the fences published by the draw path for a persistent
// buffer. Publishing may come from any goroutine.
type fenceList struct {
	mtx     sync.Mutex
	pending []pendingFence
}

// publish drops every already signalled fence before adding f, so buffers
// that are drawn but never mapped do not accumulate fences.
func (l *fenceList) publish(r byteRange, f Fence) {
	l.mtx.Lock()
	l.pending = slices.DeleteFunc(l.pending, func(p pendingFence) bool {
		return p.fence.Poll()
	})
	l.pending = append(l.pending, pendingFence{byteRange: r, fence: f})
	l.mtx.Unlock()
}

func (l *fenceList) take(r byteRange) []Fence {
	var fences []Fence
	l.mtx.Lock()
	l.pending = slices.DeleteFunc(l.pending, func(p pendingFence) bool {
		if p.overlaps(r) {
			fences = append(fences, p.fence)
			return true
		}
		return false
	})
	l.mtx.Unlock()
	return fences
}

// wait blocks until every fence overlapping r is signalled. There is no timeout.
func (l *fenceList) wait(r byteRange) {
	for _, f := range l.take(r) {
		f.Wait()
	}
}

// poll drops signalled fences overlapping r and reports whether none are left.
func (l *fenceList) poll(r byteRange) bool {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	l.pending = slices.DeleteFunc(l.pending, func(p pendingFence) bool {
		return p.overlaps(r) && p.fence.Poll()
	})
	for _, p := range l.pending {
		if p.overlaps(r) {
			return false
		}
	}
	return true
}

func (l *fenceList) len() int {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	return len(l.pending)
}

// FenceSender is attached to sources of persistent buffers. The draw path must
// Send a fence once the device is done reading the source, the next map or
// write of the range waits for it.
type FenceSender struct {
	noCopy util.NoCopy
	fences *fenceList
	r      byteRange
}

func newFenceSender(fences *fenceList, r byteRange) *FenceSender {
	s := FenceSender{fences: fences, r: r}
	s.noCopy.Init()
	return &s
}

// Send may only be called once.
func (s *FenceSender) Send(f Fence) {
	s.noCopy.Check()
	if f == nil {
		abort("FenceSender.Send called with nil Fence")
	}
	s.fences.publish(s.r, f)
	s.noCopy.Close()
}

func (s *FenceSender) Sent() bool {
	return !s.noCopy.Alive()
}
