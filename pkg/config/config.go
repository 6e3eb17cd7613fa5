// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/walteh/tmplfix/pkg/text"
	"gitlab.com/tozd/go/errors"
)

// 🗂️ Defaults used when no config file or flag says otherwise
const (
	DefaultRoot       = "templates"
	DefaultExtension  = ".hbs"
	DefaultConfigFile = ".tmplfix.yaml"
)

// 📚 Config represents the complete configuration
type Config struct {
	Root       string                 `json:"root,omitempty" yaml:"root,omitempty" hcl:"root,optional"`
	Extension  string                 `json:"extension,omitempty" yaml:"extension,omitempty" hcl:"extension,optional"`
	MaxLines   int                    `json:"max_lines,omitempty" yaml:"max_lines,omitempty" hcl:"max_lines,optional"`
	Ignore     []string               `json:"ignore,omitempty" yaml:"ignore,omitempty" hcl:"ignore,optional"`
	ExtraRules []text.ReplacementRule `json:"rules,omitempty" yaml:"rules,omitempty" hcl:"rule,block"`
	DryRun     bool                   `json:"dry_run,omitempty" yaml:"dry_run,omitempty" hcl:"dry_run,optional"`
	Diff       bool                   `json:"diff,omitempty" yaml:"diff,omitempty" hcl:"diff,optional"`

	location string
}

// 🏭 Default returns the configuration used when nothing is configured
func Default() *Config {
	return &Config{
		Root:      DefaultRoot,
		Extension: DefaultExtension,
		MaxLines:  text.DefaultMaxLines,
	}
}

// 🔍 Validate checks if the configuration is valid
func (cfg *Config) Validate() error {
	if cfg.Root == "" {
		return errors.Errorf("root is required")
	}
	if len(cfg.Extension) < 2 || !strings.HasPrefix(cfg.Extension, ".") {
		return errors.Errorf("extension %q must start with a dot", cfg.Extension)
	}
	if strings.ContainsAny(cfg.Extension, `/\*?[]{}`) {
		return errors.Errorf("extension %q must not contain path separators or glob characters", cfg.Extension)
	}
	if cfg.MaxLines <= 0 {
		return errors.Errorf("max_lines must be positive, got %d", cfg.MaxLines)
	}
	for _, pattern := range cfg.Ignore {
		if !doublestar.ValidatePattern(pattern) {
			return errors.Errorf("invalid ignore pattern %q", pattern)
		}
	}
	if _, err := text.Compile(cfg.ExtraRules); err != nil {
		return errors.Errorf("rules: %w", err)
	}

	cfg.Root = filepath.Clean(cfg.Root)

	return nil
}

// 📜 Rules returns the built in rules followed by any configured ones
func (cfg *Config) Rules() []text.ReplacementRule {
	return append(text.DefaultRules(), cfg.ExtraRules...)
}

// 🔍 Pattern returns the root relative glob selecting template files
func (cfg *Config) Pattern() string {
	return "**/*" + cfg.Extension
}

// 📍 Location returns the file the config was loaded from, empty for defaults
func (cfg *Config) Location() string {
	return cfg.location
}

// 📝 String returns a string representation of the config
func (cfg *Config) String() string {
	return fmt.Sprintf("%s (max %d lines)", filepath.ToSlash(filepath.Join(cfg.Root, cfg.Pattern())), cfg.MaxLines)
}
