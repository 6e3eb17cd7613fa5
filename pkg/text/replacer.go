package text

import (
	"context"
	"io"
)

// ReplacementRule defines a single regular expression substitution
type ReplacementRule struct {
	// Name identifies the rule in logs and validation errors
	Name string `json:"name" yaml:"name" hcl:"name,label"`

	// Pattern is an RE2 regular expression
	Pattern string `json:"pattern" yaml:"pattern" hcl:"pattern"`

	// Replacement is expanded for every match, ${1} refers to the first capture group
	Replacement string `json:"replacement" yaml:"replacement" hcl:"replacement"`
}

// ReplacementResult contains the results of a text replacement operation
type ReplacementResult struct {
	// WasModified indicates if the content changed
	WasModified bool

	// ReplacementCount is the number of matches substituted across all rules
	ReplacementCount int

	// OriginalContent is the content before replacements
	OriginalContent []byte

	// ModifiedContent is the content after replacements
	ModifiedContent []byte
}

// TextReplacer defines the interface for text replacement operations
type TextReplacer interface {
	// ReplaceText applies the rules to the content in order, each one over the
	// whole output of the previous one.
	ReplaceText(ctx context.Context, content io.Reader, rules []ReplacementRule) (*ReplacementResult, error)

	// ValidateRules checks that all rules are valid
	ValidateRules(rules []ReplacementRule) error
}
