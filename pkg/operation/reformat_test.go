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

package operation_test

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/tmplfix/pkg/config"
	"github.com/walteh/tmplfix/pkg/log"
	"github.com/walteh/tmplfix/pkg/operation"
	"github.com/walteh/tmplfix/pkg/text"
	"gitlab.com/tozd/go/errors"
)

var formatted = strings.Repeat("{{#each items as |item|}}\n  {{item}}\n{{/each}}\n", 5)

// 🧪 createTestEnv creates a test environment writing the given files below a fresh root
func createTestEnv(t *testing.T, files map[string]string) (context.Context, *config.Config, *bytes.Buffer, string) {
	t.Helper()

	color.NoColor = true
	t.Cleanup(func() { color.NoColor = false })

	root := filepath.Join(t.TempDir(), "templates")
	require.NoError(t, os.MkdirAll(root, 0755))
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}

	logger := zerolog.New(zerolog.NewTestWriter(t)).Level(zerolog.DebugLevel)
	ctx := logger.WithContext(context.Background())

	cfg := config.Default()
	cfg.Root = root

	return ctx, cfg, &bytes.Buffer{}, root
}

func newReformatter(t *testing.T, cfg *config.Config, out io.Writer) *operation.Reformatter {
	t.Helper()
	r, err := operation.New(context.Background(), operation.Options{
		Config:  cfg,
		Console: log.New(out, zerolog.Nop()),
	})
	require.NoError(t, err)
	return r
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

// 🧪 TestRun tests a full pass over a template tree
func TestRun(t *testing.T) {
	ctx, cfg, out, root := createTestEnv(t, map[string]string{
		"a.hbs":             "const a = 1;const b = 2;",
		"sub/b.hbs":         `const x = 1;import { y } from "m";export const z = 2;`,
		"sub/deep/c.hbs":    formatted,
		"notes.txt":         "\xff\xfe;a",
		"sub/readme.md":     "a;b",
		"sub/other.hbs.bak": "a;b",
	})
	require.NoError(t, os.MkdirAll(filepath.Join(root, "dir.hbs"), 0755))

	summary, err := newReformatter(t, cfg, out).Run(ctx, root)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Scanned)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 0, summary.Ignored)
	assert.Equal(t, 2, summary.Fixed)
	assert.ElementsMatch(t, []string{
		filepath.Join(root, "a.hbs"),
		filepath.Join(root, "sub", "b.hbs"),
	}, summary.Files)

	assert.Equal(t, "const a = 1;\nconst b = 2;", readFile(t, filepath.Join(root, "a.hbs")))
	assert.Equal(t, "const x = 1;\nimport { y }\nfrom \"m\"\n;\nexport const z = 2;", readFile(t, filepath.Join(root, "sub", "b.hbs")))
	assert.Equal(t, formatted, readFile(t, filepath.Join(root, "sub", "deep", "c.hbs")), "formatted file should be untouched")
	assert.Equal(t, "\xff\xfe;a", readFile(t, filepath.Join(root, "notes.txt")))
	assert.Equal(t, "a;b", readFile(t, filepath.Join(root, "sub", "readme.md")))
	assert.Equal(t, "a;b", readFile(t, filepath.Join(root, "sub", "other.hbs.bak")))

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.ElementsMatch(t, []string{
		"Fixed: " + filepath.Join(root, "a.hbs"),
		"Fixed: " + filepath.Join(root, "sub", "b.hbs"),
	}, lines[:2])
	assert.Equal(t, "", lines[2])
	assert.Equal(t, "Fixed 2 files", lines[3])
}

// 🧪 TestRunCountsMatchOutput checks the summary against the printed lines
func TestRunCountsMatchOutput(t *testing.T) {
	files := map[string]string{}
	for i, name := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		content := "x;y"
		if i%3 == 0 {
			content = formatted
		}
		files[filepath.ToSlash(filepath.Join(name, name+".hbs"))] = content
	}

	ctx, cfg, out, root := createTestEnv(t, files)

	summary, err := newReformatter(t, cfg, out).Run(ctx, root)
	require.NoError(t, err)

	fixedLines := map[string]bool{}
	for _, line := range strings.Split(out.String(), "\n") {
		if path, ok := strings.CutPrefix(line, "Fixed: "); ok {
			assert.False(t, fixedLines[path], "path %s reported twice", path)
			fixedLines[path] = true
		}
	}

	assert.Equal(t, 4, summary.Fixed)
	assert.Len(t, fixedLines, summary.Fixed)
	assert.Contains(t, out.String(), "\nFixed 4 files\n")
}

// 🧪 TestRunIgnorePatterns tests that ignored files are never read
func TestRunIgnorePatterns(t *testing.T) {
	ctx, cfg, out, root := createTestEnv(t, map[string]string{
		"a.hbs":               "a;b",
		"vendor/broken.hbs":   "\xff;a",
		"partials/x.skip.hbs": "a;b",
	})
	cfg.Ignore = []string{"vendor/**", "**/*.skip.hbs"}
	require.NoError(t, cfg.Validate())

	summary, err := newReformatter(t, cfg, out).Run(ctx, root)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Ignored)
	assert.Equal(t, 1, summary.Fixed)
	assert.Equal(t, "a;b", readFile(t, filepath.Join(root, "partials", "x.skip.hbs")))
}

// 🧪 TestRunDryRun tests that dry run reports without writing
func TestRunDryRun(t *testing.T) {
	ctx, cfg, out, root := createTestEnv(t, map[string]string{
		"a.hbs": "a;b",
	})
	cfg.DryRun = true

	summary, err := newReformatter(t, cfg, out).Run(ctx, root)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Fixed)
	assert.Equal(t, "a;b", readFile(t, filepath.Join(root, "a.hbs")))
	assert.Equal(t, "Would fix: "+filepath.Join(root, "a.hbs")+"\n\nWould fix 1 files\n", out.String())
}

// 🧪 TestRunDiff tests that diffs are printed after the fixed line
func TestRunDiff(t *testing.T) {
	ctx, cfg, out, root := createTestEnv(t, map[string]string{
		"a.hbs": "a; b",
	})
	cfg.Diff = true

	_, err := newReformatter(t, cfg, out).Run(ctx, root)
	require.NoError(t, err)

	assert.Equal(t, "a;\nb", readFile(t, filepath.Join(root, "a.hbs")))
	assert.True(t, strings.HasPrefix(out.String(), "Fixed: "+filepath.Join(root, "a.hbs")+"\n    a;"), "got %q", out.String())
	assert.Contains(t, out.String(), "↵")
	assert.True(t, strings.HasSuffix(out.String(), "\nFixed 1 files\n"))
}

// 🧪 TestRunMissingRoot tests that a missing root fixes nothing
func TestRunMissingRoot(t *testing.T) {
	ctx, cfg, out, root := createTestEnv(t, nil)

	summary, err := newReformatter(t, cfg, out).Run(ctx, filepath.Join(root, "nope"))
	require.NoError(t, err)

	assert.Equal(t, 0, summary.Fixed)
	assert.Equal(t, "\nFixed 0 files\n", out.String())
}

// 🧪 TestRunRootIsFile tests that a file root is rejected
func TestRunRootIsFile(t *testing.T) {
	ctx, cfg, out, root := createTestEnv(t, map[string]string{"a.hbs": "a;b"})

	_, err := newReformatter(t, cfg, out).Run(ctx, filepath.Join(root, "a.hbs"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is not a directory")
}

// 🧪 TestRunAbortsOnError tests that the first failure stops the run
func TestRunAbortsOnError(t *testing.T) {
	ctx, cfg, out, root := createTestEnv(t, map[string]string{
		"a.hbs": "a;b",
		"z.hbs": "\xff;b",
	})

	summary, err := newReformatter(t, cfg, out).Run(ctx, root)
	require.Error(t, err)
	assert.Nil(t, summary)
	assert.Contains(t, err.Error(), "invalid UTF-8")
	assert.Contains(t, err.Error(), filepath.Join(root, "z.hbs"))

	assert.Equal(t, "a;\nb", readFile(t, filepath.Join(root, "a.hbs")), "earlier files stay rewritten")
	assert.NotContains(t, out.String(), "Fixed 1 files", "no summary after a failure")
}

// 🧪 TestProcessFile tests single file processing
func TestProcessFile(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		want      string
		wantFixed bool
		wantOut   bool
	}{
		{
			name:      "single_line",
			content:   "const a = 1;const b = 2;",
			want:      "const a = 1;\nconst b = 2;",
			wantFixed: true,
			wantOut:   true,
		},
		{
			name:      "gated_in_without_changes_is_still_written",
			content:   "{{name}}",
			want:      "{{name}}",
			wantFixed: true,
			wantOut:   true,
		},
		{
			name:      "more_than_ten_lines_untouched",
			content:   strings.Repeat("a;b\n", 10),
			want:      strings.Repeat("a;b\n", 10),
			wantFixed: false,
		},
		{
			name:      "crlf_normalized",
			content:   "a;\r\nb; c",
			want:      "a;\nb;\nc",
			wantFixed: true,
			wantOut:   true,
		},
		{
			name:      "blank_lines_collapsed",
			content:   "a\n\n\n\nb",
			want:      "a\n\nb",
			wantFixed: true,
			wantOut:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cfg, out, root := createTestEnv(t, map[string]string{"f.hbs": tt.content})
			path := filepath.Join(root, "f.hbs")

			fixed, err := newReformatter(t, cfg, out).ProcessFile(ctx, path)
			require.NoError(t, err)

			assert.Equal(t, tt.wantFixed, fixed)
			assert.Equal(t, tt.want, readFile(t, path))
			if tt.wantOut {
				assert.Equal(t, "Fixed: "+path+"\n", out.String())
			} else {
				assert.Empty(t, out.String())
			}
		})
	}
}

// 🧪 TestProcessFileSinglePass documents that a rerun keeps applying the rules
func TestProcessFileSinglePass(t *testing.T) {
	ctx, cfg, out, root := createTestEnv(t, map[string]string{"f.hbs": "import a from 'b'"})
	path := filepath.Join(root, "f.hbs")
	r := newReformatter(t, cfg, out)

	_, err := r.ProcessFile(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, "import a from 'b'\n", readFile(t, path))

	_, err = r.ProcessFile(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, "import a from 'b'\n\n", readFile(t, path))
}

// 🧪 TestProcessFileMissing tests read errors
func TestProcessFileMissing(t *testing.T) {
	ctx, cfg, out, root := createTestEnv(t, nil)

	_, err := newReformatter(t, cfg, out).ProcessFile(ctx, filepath.Join(root, "missing.hbs"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading")
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

// 🧪 TestProcessFileExtraRules tests configured rules run after the built in ones
func TestProcessFileExtraRules(t *testing.T) {
	ctx, cfg, out, root := createTestEnv(t, map[string]string{"f.hbs": "a;b"})
	cfg.ExtraRules = []text.ReplacementRule{{Name: "upper", Pattern: `b`, Replacement: "B"}}
	path := filepath.Join(root, "f.hbs")

	_, err := newReformatter(t, cfg, out).ProcessFile(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, "a;\nB", readFile(t, path))
}

// 🧪 TestNew tests option validation
func TestNew(t *testing.T) {
	ctx := context.Background()
	console := log.New(io.Discard, zerolog.Nop())

	_, err := operation.New(ctx, operation.Options{Console: console})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config is required")

	_, err = operation.New(ctx, operation.Options{Config: config.Default()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "console logger is required")

	cfg := config.Default()
	cfg.ExtraRules = []text.ReplacementRule{{Name: "bad", Pattern: `(`}}
	_, err = operation.New(ctx, operation.Options{Config: cfg, Console: console})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validating rules")
}

// 🧪 TestNewConsoleFromContext tests that the console logger is taken from the context
func TestNewConsoleFromContext(t *testing.T) {
	ctx, cfg, out, root := createTestEnv(t, map[string]string{"a.hbs": "a;b"})
	ctx = log.NewContext(ctx, log.New(out, zerolog.Nop()))

	r, err := operation.New(ctx, operation.Options{Config: cfg})
	require.NoError(t, err)

	_, err = r.Run(ctx, root)
	require.NoError(t, err)
	assert.Equal(t, "Fixed: "+filepath.Join(root, "a.hbs")+"\n\nFixed 1 files\n", out.String())
}

// 🧪 TestProcessFileKeepsMode tests that a rewrite keeps the file permissions
func TestProcessFileKeepsMode(t *testing.T) {
	ctx, cfg, out, root := createTestEnv(t, map[string]string{"f.hbs": "a;b"})
	path := filepath.Join(root, "f.hbs")
	require.NoError(t, os.Chmod(path, 0o600))

	fixed, err := newReformatter(t, cfg, out).ProcessFile(ctx, path)
	require.NoError(t, err)
	require.True(t, fixed)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	assert.Equal(t, "a;\nb", readFile(t, path))
}
