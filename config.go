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
	"strconv"
	"strings"

	"goarrg.com/debug"
	"goarrg.com/gmath"
	"gopkg.in/yaml.v3"
)

const (
	ExtensionARBBufferStorage = "GL_ARB_buffer_storage"
	ExtensionEXTBufferStorage = "GL_EXT_buffer_storage"
)

// Config selects how a Context decides device capabilities. The zero value
// is replaced by DefaultConfig field by field.
type Config struct {
	// PersistentMinVersion is the first device version with persistent mapping in core.
	PersistentMinVersion Version `yaml:"persistent_min_version"`
	// PersistentExtensions each enable persistent mapping on older versions.
	PersistentExtensions []string `yaml:"persistent_extensions"`
}

func DefaultConfig() Config {
	return Config{
		PersistentMinVersion: Version{Major: 4, Minor: 4},
		PersistentExtensions: []string{ExtensionARBBufferStorage, ExtensionEXTBufferStorage},
	}
}

// ParseConfig decodes a YAML document on top of DefaultConfig.
//
//	persistent_min_version: "4.4"
//	persistent_extensions: [GL_ARB_buffer_storage]
func ParseConfig(data []byte) (Config, error) {
	c := DefaultConfig()
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, debug.ErrorWrapf(err, "Failed to parse Config")
	}
	return c, nil
}

func (c *Config) MarshalJSON() ([]byte, error) {
	buff := bytes.Buffer{}
	buff.WriteString("{")

	buff.WriteString(fmt.Sprintf("\"PersistentMinVersion\": %q,", c.PersistentMinVersion.String()))
	buff.WriteString(fmt.Sprintf("\"PersistentExtensions\": %s", jsonString(c.PersistentExtensions)))

	buff.WriteString("}")
	return buff.Bytes(), nil
}

func (c *Config) validate() {
	def := DefaultConfig()
	if c.PersistentMinVersion == (Version{}) {
		c.PersistentMinVersion = def.PersistentMinVersion
	} else if !gmath.InRange(c.PersistentMinVersion.Major, 1, 100) {
		abort("Config.PersistentMinVersion [%s] is outside of valid range", c.PersistentMinVersion.String())
	}
	if c.PersistentExtensions == nil {
		c.PersistentExtensions = def.PersistentExtensions
	}

	c.PersistentExtensions = slices.Clone(c.PersistentExtensions)
	for i, e := range c.PersistentExtensions {
		if strings.TrimSpace(e) == "" {
			abort("Config.PersistentExtensions[%d] is empty", i)
		}
	}
	slices.Sort(c.PersistentExtensions)
	c.PersistentExtensions = slices.Compact(c.PersistentExtensions)
}

type config struct {
	persistentMinVersion Version
	persistentExtensions []string
}

func (c *config) use(user Config) {
	c.persistentMinVersion = user.PersistentMinVersion
	c.persistentExtensions = user.PersistentExtensions
}

func (v *Version) UnmarshalText(text []byte) error {
	major, minor, ok := strings.Cut(strings.TrimSpace(string(text)), ".")
	if !ok {
		return debug.Errorf("Invalid version %q: expecting \"X.Y\"", text)
	}
	x, err := strconv.ParseUint(major, 10, 32)
	if err != nil {
		return debug.ErrorWrapf(err, "Invalid major version %q", major)
	}
	y, err := strconv.ParseUint(minor, 10, 32)
	if err != nil {
		return debug.ErrorWrapf(err, "Invalid minor version %q", minor)
	}
	v.Major = uint32(x)
	v.Minor = uint32(y)
	return nil
}

func (v Version) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalYAML accepts both "X.Y" and a mapping with major and minor keys.
func (v *Version) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		return v.UnmarshalText([]byte(value.Value))
	}
	var raw struct {
		Major uint32 `yaml:"major"`
		Minor uint32 `yaml:"minor"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	v.Major = raw.Major
	v.Minor = raw.Minor
	return nil
}
