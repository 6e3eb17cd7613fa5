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

package log

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// 🎨 Display configuration
const (
	diffIndent = 4 // spaces to indent diff lines
)

// 🎯 FileOperation represents a reformatted file for logging
type FileOperation struct {
	Path         string // File path
	DryRun       bool   // Whether the file was left untouched on disk
	Replacements int    // Number of rule matches substituted
	Modified     bool   // Whether the rules changed the content
}

// 🎯 Logger handles structured logging with console output
type Logger struct {
	zlog    zerolog.Logger
	console io.Writer
	mu      sync.Mutex
}

// 🏭 New creates a new logger writing human output to console
func New(console io.Writer, zlog zerolog.Logger) *Logger {
	return &Logger{
		zlog:    zlog,
		console: console,
		mu:      sync.Mutex{},
	}
}

// 🔑 contextKey is the type for context values
type contextKey struct{}

// 🎯 FromContext gets the logger from context, or nil when none was added
func FromContext(ctx context.Context) *Logger {
	logger, _ := ctx.Value(contextKey{}).(*Logger)
	return logger
}

// 🎯 NewContext adds the logger to context
func NewContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// 📝 LogFileOperation prints one line for a processed file
func (l *Logger) LogFileOperation(ctx context.Context, op FileOperation) {
	l.mu.Lock()
	defer l.mu.Unlock()

	label := color.New(color.FgGreen).Sprint("Fixed:")
	if op.DryRun {
		label = color.New(color.FgYellow).Sprint("Would fix:")
	}
	fmt.Fprintf(l.console, "%s %s\n", label, op.Path)

	l.zlog.Info().
		Str("file", op.Path).
		Bool("dry_run", op.DryRun).
		Bool("modified", op.Modified).
		Int("replacements", op.Replacements).
		Msg("file reformatted")
}

// 📝 LogDiff prints the changes made to a file, with inserted line breaks made visible
func (l *Logger) LogDiff(ctx context.Context, path string, diffs []diffmatchpatch.Diff) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var b strings.Builder
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			b.WriteString(color.New(color.FgGreen).Sprint(strings.ReplaceAll(d.Text, "\n", "↵\n")))
		case diffmatchpatch.DiffDelete:
			b.WriteString(color.New(color.FgRed).Sprint(visibleWhitespace(d.Text)))
		case diffmatchpatch.DiffEqual:
			b.WriteString(d.Text)
		}
	}

	indent := strings.Repeat(" ", diffIndent)
	for _, line := range strings.Split(b.String(), "\n") {
		fmt.Fprintf(l.console, "%s%s\n", indent, line)
	}

	l.zlog.Debug().Str("file", path).Int("chunks", len(diffs)).Msg("printed diff")
}

func visibleWhitespace(s string) string {
	return strings.NewReplacer(" ", "·", "\t", "→", "\n", "↵").Replace(s)
}

// 📝 Summary prints the final count of reformatted files
func (l *Logger) Summary(ctx context.Context, fixed int, dryRun bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	verb := "Fixed"
	if dryRun {
		verb = "Would fix"
	}
	fmt.Fprintf(l.console, "\n%s %d files\n", verb, fixed)

	l.zlog.Info().Int("fixed", fixed).Bool("dry_run", dryRun).Msg("reformat complete")
}

