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
	"sync"

	"golang.org/x/exp/maps"

	"goarrg.com/rhi/vtx/internal/container"
)

type Destroyer interface {
	Destroy()
}

type pipelineCacheEntry struct {
	buffers []BufferID
	value   any
}

// PipelineCache holds the draw ready configurations of a Context, keyed by an
// id which should come from PipelineID. Every entry remembers the buffers it
// was built from so destroying a buffer can purge them. Values implementing
// Destroyer are destroyed when their entry is removed.
type PipelineCache struct {
	mtx   sync.RWMutex
	cache map[string]pipelineCacheEntry
}

func newPipelineCache() *PipelineCache {
	return &PipelineCache{cache: map[string]pipelineCacheEntry{}}
}

// PipelineID builds the cache id of a program drawn from sources.
func PipelineID(program string, sources ...VertexSource) string {
	items := make([]any, 0, 1+len(sources))
	items = append(items, program)
	for _, s := range sources {
		items = append(items, s.id())
	}
	return genID(items...)
}

func sourceBuffers(sources []VertexSource) []BufferID {
	buffers := make([]BufferID, 0, len(sources))
	for _, s := range sources {
		buffers = append(buffers, s.Buffer)
	}
	slices.Sort(buffers)
	return slices.Compact(buffers)
}

func (c *PipelineCache) MarshalJSON() ([]byte, error) {
	c.mtx.RLock()
	defer c.mtx.RUnlock()

	buff := bytes.Buffer{}
	buff.WriteString("{")

	{
		buff.WriteString("\"cache\": {")
		if len(c.cache) > 0 {
			_ = mapRunFuncSorted(c.cache, func(k string, v pipelineCacheEntry) error {
				buff.WriteString(fmt.Sprintf("%s: %s,", jsonString(k), jsonString(v.buffers)))
				return nil
			})
			buff.Truncate(buff.Len() - 1)
		}
		buff.WriteString("}")
	}

	buff.WriteString("}")
	return buff.Bytes(), nil
}

func (c *PipelineCache) Len() int {
	c.mtx.RLock()
	defer c.mtx.RUnlock()
	return len(c.cache)
}

func (c *PipelineCache) Lookup(id string) (any, bool) {
	c.mtx.RLock()
	e, ok := c.cache[id]
	c.mtx.RUnlock()
	return e.value, ok
}

// Insert stores value under id, replacing and destroying any previous value.
func (c *PipelineCache) Insert(id string, value any, buffers ...BufferID) {
	buffers = slices.Clone(buffers)
	slices.Sort(buffers)
	buffers = slices.Compact(buffers)

	c.mtx.Lock()
	old, replaced := c.cache[id]
	c.cache[id] = pipelineCacheEntry{buffers: buffers, value: value}
	c.mtx.Unlock()

	if replaced {
		destroyValue(old.value)
	}
}

func (c *PipelineCache) Remove(id string) bool {
	c.mtx.Lock()
	e, ok := c.cache[id]
	delete(c.cache, id)
	c.mtx.Unlock()

	if ok {
		destroyValue(e.value)
	}
	return ok
}

// CreateOrRetrieve returns the value cached for program and sources, calling f
// to create it on a miss. f runs without the lock held, if another caller won
// the race its value is kept and the one from f destroyed.
func (c *PipelineCache) CreateOrRetrieve(program string, sources []VertexSource, f func() any) any {
	id := PipelineID(program, sources...)

	c.mtx.RLock()
	e, ok := c.cache[id]
	c.mtx.RUnlock()
	if ok {
		return e.value
	}

	value := f()
	c.mtx.Lock()
	if e, ok = c.cache[id]; !ok {
		c.cache[id] = pipelineCacheEntry{buffers: sourceBuffers(sources), value: value}
	} else {
		defer destroyValue(value)
		value = e.value
	}
	c.mtx.Unlock()
	return value
}

// Keys returns the sorted ids of every entry referencing buffer.
func (c *PipelineCache) Keys(buffer BufferID) []string {
	c.mtx.RLock()
	keys := []string{}
	for k, e := range c.cache {
		if _, found := slices.BinarySearch(e.buffers, buffer); found {
			keys = append(keys, k)
		}
	}
	c.mtx.RUnlock()
	slices.Sort(keys)
	return keys
}

// InvalidateBuffer removes every entry referencing buffer and returns how many
// were removed. The removal is atomic with respect to every other cache
// operation, so once it returns no entry bound to buffer can be handed out.
func (c *PipelineCache) InvalidateBuffer(buffer BufferID) int {
	var destroyers container.Stack[Destroyer]
	removed := 0

	c.mtx.Lock()
	maps.DeleteFunc(c.cache, func(k string, e pipelineCacheEntry) bool {
		_, found := slices.BinarySearch(e.buffers, buffer)
		if found {
			instance.logger.VPrintf("Invalidating pipeline configuration: %s", k)
			if d, ok := e.value.(Destroyer); ok {
				destroyers.Push(d)
			}
			removed++
		}
		return found
	})
	c.mtx.Unlock()

	for !destroyers.Empty() {
		destroyers.Pop().Destroy()
	}
	return removed
}

func (c *PipelineCache) destroy() {
	c.mtx.Lock()
	old := c.cache
	c.cache = map[string]pipelineCacheEntry{}
	c.mtx.Unlock()

	_ = mapRunFuncSorted(old, func(k string, e pipelineCacheEntry) error {
		instance.logger.VPrintf("Destroying pipeline configuration: %s", k)
		destroyValue(e.value)
		return nil
	})
}

func destroyValue(v any) {
	if d, ok := v.(Destroyer); ok {
		d.Destroy()
	}
}
