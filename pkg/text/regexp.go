package text

import (
	"context"
	"io"
	"regexp"
	"sync"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

type step struct {
	rule ReplacementRule
	re   *regexp.Regexp
}

// Pipeline is an ordered list of compiled rules. Applying it never fails.
type Pipeline struct {
	steps []step
}

// Compile validates and compiles rules into a Pipeline
func Compile(rules []ReplacementRule) (*Pipeline, error) {
	p := &Pipeline{steps: make([]step, 0, len(rules))}
	for i, rule := range rules {
		re, err := compileRule(i, rule)
		if err != nil {
			return nil, err
		}
		p.steps = append(p.steps, step{rule: rule, re: re})
	}
	return p, nil
}

// MustCompile is like Compile but panics on invalid rules
func MustCompile(rules []ReplacementRule) *Pipeline {
	p, err := Compile(rules)
	if err != nil {
		panic(err)
	}
	return p
}

func compileRule(i int, rule ReplacementRule) (*regexp.Regexp, error) {
	if rule.Pattern == "" {
		return nil, errors.Errorf("rule %d: pattern is required", i)
	}
	re, err := regexp.Compile(rule.Pattern)
	if err != nil {
		return nil, errors.Errorf("rule %d (%s): compiling pattern: %w", i, rule.Name, err)
	}
	return re, nil
}

// Len returns the number of rules in the pipeline
func (p *Pipeline) Len() int {
	return len(p.steps)
}

// Apply substitutes every rule over content in order and returns the result
func (p *Pipeline) Apply(content string) string {
	out, _ := p.apply(context.Background(), content)
	return out
}

func (p *Pipeline) apply(ctx context.Context, content string) (string, int) {
	logger := zerolog.Ctx(ctx)
	count := 0
	for _, s := range p.steps {
		var n int
		content, n = s.replace(content)
		if n == 0 {
			continue
		}
		count += n
		logger.Trace().Str("rule", s.rule.Name).Int("matches", n).Msg("applied rule")
	}
	return content, count
}

// replace expands the rule's replacement at every match in a single scan
func (s step) replace(content string) (string, int) {
	matches := s.re.FindAllStringSubmatchIndex(content, -1)
	if len(matches) == 0 {
		return content, 0
	}

	out := make([]byte, 0, len(content)+len(matches)*len(s.rule.Replacement))
	last := 0
	for _, m := range matches {
		out = append(out, content[last:m[0]]...)
		out = s.re.ExpandString(out, s.rule.Replacement, content, m)
		last = m[1]
	}
	out = append(out, content[last:]...)

	return string(out), len(matches)
}

// RegexpReplacer implements TextReplacer with regular expression rules.
// Compiled pipelines are cached by rule set.
type RegexpReplacer struct {
	mu    sync.Mutex
	cache map[string]*Pipeline
}

// NewRegexpReplacer creates a new RegexpReplacer
func NewRegexpReplacer() *RegexpReplacer {
	return &RegexpReplacer{
		cache: map[string]*Pipeline{},
	}
}

// ReplaceText implements TextReplacer.ReplaceText
func (r *RegexpReplacer) ReplaceText(ctx context.Context, content io.Reader, rules []ReplacementRule) (*ReplacementResult, error) {
	originalContent, err := io.ReadAll(content)
	if err != nil {
		return nil, errors.Errorf("reading content: %w", err)
	}

	p, err := r.pipeline(rules)
	if err != nil {
		return nil, err
	}

	modified, count := p.apply(ctx, string(originalContent))

	return &ReplacementResult{
		OriginalContent:  originalContent,
		ModifiedContent:  []byte(modified),
		ReplacementCount: count,
		WasModified:      modified != string(originalContent),
	}, nil
}

// ValidateRules implements TextReplacer.ValidateRules
func (r *RegexpReplacer) ValidateRules(rules []ReplacementRule) error {
	for i, rule := range rules {
		if _, err := compileRule(i, rule); err != nil {
			return err
		}
	}
	return nil
}

func (r *RegexpReplacer) pipeline(rules []ReplacementRule) (*Pipeline, error) {
	key := cacheKey(rules)

	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.cache[key]; ok {
		return p, nil
	}

	p, err := Compile(rules)
	if err != nil {
		return nil, err
	}
	r.cache[key] = p
	return p, nil
}

func cacheKey(rules []ReplacementRule) string {
	var b []byte
	for _, rule := range rules {
		b = append(b, rule.Pattern...)
		b = append(b, 0)
		b = append(b, rule.Replacement...)
		b = append(b, 0)
	}
	return string(b)
}
