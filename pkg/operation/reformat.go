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

package operation

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/walteh/tmplfix/pkg/config"
	"github.com/walteh/tmplfix/pkg/log"
	"github.com/walteh/tmplfix/pkg/text"
	"gitlab.com/tozd/go/errors"
)

// 🔧 Options contains configuration for the reformatter
type Options struct {
	// Config selects the files and rules
	Config *config.Config
	// Replacer applies the rules, a RegexpReplacer when nil
	Replacer text.TextReplacer
	// Console receives the human readable progress lines, taken from the
	// context when nil
	Console *log.Logger
}

// 📊 Summary describes a completed run
type Summary struct {
	Scanned int      // files with the target extension that were read
	Ignored int      // files with the target extension excluded by an ignore pattern
	Skipped int      // files left alone because they already have line breaks
	Fixed   int      // files rewritten (or that would be, in dry run)
	Files   []string // paths of the fixed files, in traversal order
}

// 🎮 Reformatter rewrites line breaks in template files
type Reformatter struct {
	cfg      *config.Config
	replacer text.TextReplacer
	console  *log.Logger
	rules    []text.ReplacementRule
}

// 🏭 New creates a new reformatter with the given options
func New(ctx context.Context, opts Options) (*Reformatter, error) {
	if opts.Config == nil {
		return nil, errors.Errorf("config is required")
	}
	if opts.Console == nil {
		opts.Console = log.FromContext(ctx)
	}
	if opts.Console == nil {
		return nil, errors.Errorf("console logger is required")
	}
	if opts.Replacer == nil {
		opts.Replacer = text.NewRegexpReplacer()
	}

	rules := opts.Config.Rules()
	if err := opts.Replacer.ValidateRules(rules); err != nil {
		return nil, errors.Errorf("validating rules: %w", err)
	}

	return &Reformatter{
		cfg:      opts.Config,
		replacer: opts.Replacer,
		console:  opts.Console,
		rules:    rules,
	}, nil
}

// 🏃 Run reformats every matching file below root, stopping at the first error.
// Files rewritten before the error stay rewritten.
func (r *Reformatter) Run(ctx context.Context, root string) (*Summary, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("root", root).Str("pattern", r.cfg.Pattern()).Msg("scanning templates")

	summary := &Summary{}

	info, err := os.Stat(root)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		logger.Warn().Str("root", root).Msg("root directory does not exist")
		r.console.Summary(ctx, 0, r.cfg.DryRun)
		return summary, nil
	case err != nil:
		return nil, errors.Errorf("reading root %s: %w", root, err)
	case !info.IsDir():
		return nil, errors.Errorf("root %s is not a directory", root)
	}

	err = doublestar.GlobWalk(os.DirFS(root), r.cfg.Pattern(), func(rel string, d fs.DirEntry) error {
		if d.IsDir() {
			return nil
		}

		if r.shouldIgnore(ctx, rel) {
			summary.Ignored++
			return nil
		}

		summary.Scanned++
		path := filepath.Join(root, filepath.FromSlash(rel))

		fixed, err := r.ProcessFile(ctx, path)
		if err != nil {
			return err
		}
		if !fixed {
			summary.Skipped++
			return nil
		}

		summary.Fixed++
		summary.Files = append(summary.Files, path)
		return nil
	}, doublestar.WithFailOnIOErrors())
	if err != nil {
		return nil, errors.Errorf("processing %s: %w", root, err)
	}

	r.console.Summary(ctx, summary.Fixed, r.cfg.DryRun)

	logger.Debug().
		Int("scanned", summary.Scanned).
		Int("ignored", summary.Ignored).
		Int("skipped", summary.Skipped).
		Int("fixed", summary.Fixed).
		Msg("scan complete")

	return summary, nil
}

// 📄 ProcessFile reformats a single file. It returns false, without writing
// or printing anything, when the file already has more lines than the
// configured threshold.
func (r *Reformatter) ProcessFile(ctx context.Context, path string) (bool, error) {
	logger := zerolog.Ctx(ctx).With().Str("file", path).Logger()

	info, err := os.Stat(path)
	if err != nil {
		return false, errors.Errorf("reading %s: %w", path, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return false, errors.Errorf("reading %s: %w", path, err)
	}
	if !utf8.Valid(data) {
		return false, errors.Errorf("decoding %s: invalid UTF-8", path)
	}

	content := normalizeNewlines(string(data))

	if !text.ShouldProcess(content, r.cfg.MaxLines) {
		logger.Debug().Msg("already formatted, skipping")
		return false, nil
	}

	result, err := r.replacer.ReplaceText(ctx, strings.NewReader(content), r.rules)
	if err != nil {
		return false, errors.Errorf("applying rules to %s: %w", path, err)
	}

	if !r.cfg.DryRun {
		// rewritten in place, so the existing permission bits are kept
		if err := os.WriteFile(path, result.ModifiedContent, info.Mode().Perm()); err != nil {
			return false, errors.Errorf("writing %s: %w", path, err)
		}
	}

	r.console.LogFileOperation(ctx, log.FileOperation{
		Path:         path,
		DryRun:       r.cfg.DryRun,
		Replacements: result.ReplacementCount,
		Modified:     result.WasModified,
	})

	if r.cfg.Diff && result.WasModified {
		dmp := diffmatchpatch.New()
		diffs := dmp.DiffMain(content, string(result.ModifiedContent), false)
		r.console.LogDiff(ctx, path, diffs)
	}

	return true, nil
}

// 🔍 shouldIgnore checks if a root relative path matches an ignore pattern
func (r *Reformatter) shouldIgnore(ctx context.Context, rel string) bool {
	for _, pattern := range r.cfg.Ignore {
		matched, err := doublestar.Match(pattern, rel)
		if err != nil {
			zerolog.Ctx(ctx).Debug().Str("pattern", pattern).Str("path", rel).Err(err).Msg("error matching pattern")
			continue
		}
		if matched {
			zerolog.Ctx(ctx).Debug().Str("file", rel).Str("pattern", pattern).Msg("file ignored by pattern")
			return true
		}
	}
	return false
}

// files are read as text, so CRLF and lone CR line endings become LF
func normalizeNewlines(s string) string {
	if !strings.Contains(s, "\r") {
		return s
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
