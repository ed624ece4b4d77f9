// Package redaction scrubs secrets from code before it leaves the
// process for the remote analysis service.
package redaction

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
)

// Scrubber performs regex-based secret detection and replacement.
type Scrubber struct {
	patterns []*regexp.Regexp
}

// NewScrubber creates a scrubber with the default secret patterns.
func NewScrubber() *Scrubber {
	return &Scrubber{patterns: defaultPatterns()}
}

// Scrub replaces every detected secret with a stable placeholder. The
// placeholder is derived from the secret's hash, so repeated
// occurrences map to the same marker and diffs stay readable.
func (s *Scrubber) Scrub(input string) string {
	placeholders := make(map[string]string)
	for _, pattern := range s.patterns {
		for _, match := range pattern.FindAllString(input, -1) {
			if _, seen := placeholders[match]; seen {
				continue
			}
			placeholders[match] = placeholder(match)
		}
	}

	result := input
	for secret, marker := range placeholders {
		result = strings.ReplaceAll(result, secret, marker)
	}
	return result
}

// Scrubbed reports whether content already carries placeholders.
func (s *Scrubber) Scrubbed(content string) bool {
	return strings.Contains(content, "<REDACTED:")
}

func placeholder(secret string) string {
	hash := sha256.Sum256([]byte(secret))
	return fmt.Sprintf("<REDACTED:%s>", hex.EncodeToString(hash[:])[:8])
}

func defaultPatterns() []*regexp.Regexp {
	patterns := []string{
		// OpenAI-style API keys
		`sk-[a-zA-Z0-9\-]{20,}`,
		// AWS access key IDs
		`AKIA[0-9A-Z]{16}`,
		// AWS secret keys assigned near an "aws" identifier
		`aws.{0,20}?['\"][0-9a-zA-Z/+]{40}['\"]`,
		// GitHub tokens
		`gh[posr]_[a-zA-Z0-9]{20,}`,
		// Google API keys
		`AIza[0-9A-Za-z\-_]{35}`,
		// JWTs
		`eyJ[a-zA-Z0-9_-]+\.eyJ[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+`,
		// PEM private keys
		`-----BEGIN\s+(?:RSA|EC|OPENSSH|DSA|ENCRYPTED)\s+PRIVATE\s+KEY-----[\s\S]*?-----END\s+(?:RSA|EC|OPENSSH|DSA|ENCRYPTED)\s+PRIVATE\s+KEY-----`,
		// Slack tokens
		`xox[baprs]-[a-zA-Z0-9\-]{10,}`,
		// Bearer tokens in headers pasted into code
		`Bearer\s+[a-zA-Z0-9_\-\.]{16,}`,
	}

	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, pattern := range patterns {
		compiled = append(compiled, regexp.MustCompile(pattern))
	}
	return compiled
}
