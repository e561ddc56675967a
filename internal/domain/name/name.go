// Package name normalizes and validates user-supplied collection names.
package name

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/rpggio/flashdeck/internal/domain"
)

const (
	DefaultMinLength = 3
	DefaultMaxLength = 50
)

// DefaultDenylist holds the disallowed substrings used when none are configured.
var DefaultDenylist = []string{"inappropriate-word", "bad-word"}

var (
	disallowed = regexp.MustCompile(`[^a-zA-Z0-9 \-]`)
	whitespace = regexp.MustCompile(`\s+`)
	alnum      = regexp.MustCompile(`[a-zA-Z0-9]`)
)

// Sanitize trims raw, strips every character other than ASCII letters,
// digits, spaces and hyphens, and joins the remaining words with hyphens.
// Leading and trailing hyphens are dropped. Sanitize(Sanitize(x)) == Sanitize(x).
func Sanitize(raw string) string {
	s := strings.TrimSpace(raw)
	s = disallowed.ReplaceAllString(s, "")
	s = strings.Trim(s, " \t\n\r\v\f-")
	return whitespace.ReplaceAllString(s, "-")
}

// Policy holds the validation rules applied to sanitized names.
type Policy struct {
	MinLength int
	MaxLength int
	Denylist  []string
}

// DefaultPolicy returns the stock length bounds and denylist.
func DefaultPolicy() Policy {
	return Policy{
		MinLength: DefaultMinLength,
		MaxLength: DefaultMaxLength,
		Denylist:  DefaultDenylist,
	}
}

// Validate checks an already sanitized name against the policy.
func (p Policy) Validate(name string) error {
	minLen, maxLen := p.bounds()
	if len(name) < minLen || len(name) > maxLen {
		return domain.NewValidationError("name", lengthMessage(minLen, maxLen))
	}
	if !alnum.MatchString(name) {
		return domain.NewValidationError("name", "Collection name must contain a letter or digit.")
	}

	lower := strings.ToLower(name)
	for _, word := range p.Denylist {
		if word != "" && strings.Contains(lower, strings.ToLower(word)) {
			return domain.NewValidationError("name", "Collection name contains inappropriate words.")
		}
	}
	return nil
}

// Normalize sanitizes raw and validates the result.
func (p Policy) Normalize(raw string) (string, error) {
	name := Sanitize(raw)
	if err := p.Validate(name); err != nil {
		return "", err
	}
	return name, nil
}

func (p Policy) bounds() (int, int) {
	minLen, maxLen := p.MinLength, p.MaxLength
	if minLen <= 0 {
		minLen = DefaultMinLength
	}
	if maxLen <= 0 {
		maxLen = DefaultMaxLength
	}
	return minLen, maxLen
}

func lengthMessage(minLen, maxLen int) string {
	return fmt.Sprintf("Collection name must be between %d and %d characters.", minLen, maxLen)
}
