package tagger

import (
	"fmt"
	"regexp"
)

type regexRule struct {
	category string
	pattern  *regexp.Regexp
}

// RegexTagger assigns categories from an ordered list of patterns. The first
// pattern found anywhere in the description wins. Regex taggers never supply
// a type: typing is either another tagger's job or falls back to the
// income/debt labels.
type RegexTagger struct {
	rules []regexRule
}

// Category returns the category of the first matching pattern, or "".
func (t *RegexTagger) Category(description string) string {
	for _, rule := range t.rules {
		if rule.pattern.MatchString(description) {
			return rule.category
		}
	}
	return ""
}

// Type always returns "".
func (t *RegexTagger) Type(string) string { return "" }

// RegexBuilder accumulates (category, pattern) rules in priority order.
type RegexBuilder struct {
	rules []regexRule
}

// NewRegexBuilder creates an empty builder.
func NewRegexBuilder() *RegexBuilder {
	return &RegexBuilder{}
}

// Add compiles the pattern and appends the rule.
func (b *RegexBuilder) Add(category, pattern string) error {
	compiled, err := regexp.Compile(pattern)
	if err != nil {
		return fmt.Errorf("compiling pattern for category %q: %w", category, err)
	}
	b.rules = append(b.rules, regexRule{category: category, pattern: compiled})
	return nil
}

// Build returns the tagger.
func (b *RegexBuilder) Build() *RegexTagger {
	return &RegexTagger{rules: b.rules}
}
