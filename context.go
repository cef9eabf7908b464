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

	"goarrg.com/rhi/vtx/internal/util"
)

// Context pairs a Device with the pipeline cache every buffer created from it
// invalidates on destruction. All operations are expected to run on the
// goroutine owning the device, the cache alone is safe for concurrent use.
type Context struct {
	noCopy        util.NoCopy
	device        Device
	config        config
	pipelineCache *PipelineCache
}

func NewContext(device Device, config Config) *Context {
	if device == nil {
		abort("NewContext called with nil Device")
	}
	config.validate()
	instance.logger.IPrintf("User requested config: %s", prettyString(&config))

	ctx := &Context{
		device:        device,
		pipelineCache: newPipelineCache(),
	}
	ctx.noCopy.Init()
	ctx.config.use(config)

	instance.logger.IPrintf("Device version: %s, persistent mapping: %t", device.Version().String(), ctx.SupportsPersistent())
	return ctx
}

func (ctx *Context) Device() Device {
	ctx.noCopy.Check()
	return ctx.device
}

func (ctx *Context) PipelineCache() *PipelineCache {
	ctx.noCopy.Check()
	return ctx.pipelineCache
}

// SupportsPersistent reports whether buffers can stay mapped while the device reads them.
func (ctx *Context) SupportsPersistent() bool {
	ctx.noCopy.Check()
	if ctx.device.Version().AtLeast(ctx.config.persistentMinVersion) {
		return true
	}
	return slices.ContainsFunc(ctx.config.persistentExtensions, ctx.device.HasExtension)
}

// Destroy destroys every remaining pipeline configuration. Buffers created from
// ctx must be destroyed first.
func (ctx *Context) Destroy() {
	ctx.noCopy.Check()
	instance.logger.VPrintf("pipelineCache: %s", prettyString(ctx.pipelineCache))
	ctx.pipelineCache.destroy()
	ctx.noCopy.Close()
}
