// Package slug derives URL-safe tenant identifiers and schema names
// from human-supplied business names. All functions are pure.
package slug

import (
	"regexp"
	"strings"
)

// MaxLen bounds the length of a derived slug.
const MaxLen = 50

// SchemaPrefix tags every tenant schema name.
const SchemaPrefix = "tenant_"

var (
	disallowed = regexp.MustCompile(`[^a-z0-9\s-]`)
	whitespace = regexp.MustCompile(`\s+`)
	hyphenRuns = regexp.MustCompile(`-+`)
	nonAlnum   = regexp.MustCompile(`[^a-z0-9]`)
)

// Make derives a URL-safe slug from a business name: lowercased,
// stripped to [a-z0-9 -], whitespace runs collapsed to a single hyphen,
// hyphen runs collapsed, truncated to MaxLen. Never fails; pathological
// input (no usable characters) produces an empty string.
func Make(businessName string) string {
	s := strings.ToLower(businessName)
	s = disallowed.ReplaceAllString(s, "")
	s = whitespace.ReplaceAllString(s, "-")
	s = hyphenRuns.ReplaceAllString(s, "-")
	if len(s) > MaxLen {
		s = s[:MaxLen]
	}
	return s
}

// SchemaName derives the Postgres schema name for a slug: every
// character outside [a-z0-9] becomes an underscore and the result is
// prefixed with SchemaPrefix. Output always matches ^tenant_[a-z0-9_]*$,
// so it is safe to interpolate into DDL identifiers.
func SchemaName(slug string) string {
	safe := nonAlnum.ReplaceAllString(strings.ToLower(slug), "_")
	return SchemaPrefix + safe
}
