package text

import (
	"strings"
	"sync"
)

// DefaultMaxLines is the line count above which a file is treated as already formatted.
const DefaultMaxLines = 10

// space matches what Unicode text treats as whitespace: the ASCII class plus
// vertical tab, the information separators, NEL and every Z category rune.
const space = `[\s\v\x1c-\x1f\x85\p{Z}]`

// DefaultRules returns the template line-break rules in the order they must be applied.
func DefaultRules() []ReplacementRule {
	return []ReplacementRule{
		{Name: "break-after-import", Pattern: `(import[^;]+from` + space + `+['"][^'"]+['"])`, Replacement: "${1}\n"},
		{Name: "break-before-import", Pattern: space + `+(import` + space + `)`, Replacement: "\n${1}"},
		{Name: "break-before-export", Pattern: space + `+(export` + space + `)`, Replacement: "\n${1}"},
		{Name: "blank-before-describe", Pattern: space + `+(describe\()`, Replacement: "\n\n${1}"},
		{Name: "blank-before-it", Pattern: space + `+(it\()`, Replacement: "\n\n  ${1}"},
		{Name: "blank-before-before-each", Pattern: space + `+(beforeEach\()`, Replacement: "\n\n  ${1}"},
		{Name: "break-after-call-close", Pattern: `\}\)` + space + `+`, Replacement: "})\n"},
		{Name: "break-after-semicolon", Pattern: `;` + space + `*([a-zA-Z])`, Replacement: ";\n${1}"},
		{Name: "break-after-brace", Pattern: `\}` + space + `+([a-zA-Z])`, Replacement: "}\n${1}"},
		{Name: "collapse-blank-lines", Pattern: `\n\n\n+`, Replacement: "\n\n"},
	}
}

var defaultPipeline = sync.OnceValue(func() *Pipeline {
	return MustCompile(DefaultRules())
})

// ApplyRules runs the default rules over content once.
func ApplyRules(content string) string {
	return defaultPipeline().Apply(content)
}

// ShouldProcess reports whether content looks unformatted: splitting it on
// line feeds must yield no more than maxLines segments.
func ShouldProcess(content string, maxLines int) bool {
	return strings.Count(content, "\n")+1 <= maxLines
}
