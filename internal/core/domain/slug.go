package domain

import (
	"errors"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// =============================================================================
// Slug Errors
// =============================================================================

// ErrMalformedSlug is returned when a slug carries no recognizable entity id.
var ErrMalformedSlug = errors.New("slug does not contain an entity id")

// =============================================================================
// Slug Codec
// =============================================================================

// DefaultMaxNameLength caps the human-readable part of a slug.
const DefaultMaxNameLength = 60

// uuidPattern matches canonical UUIDs in either case.
const uuidPattern = `[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`

var (
	nonAlnumRun = regexp.MustCompile(`[^a-z0-9]+`)
	defaultID   = regexp.MustCompile(uuidPattern)
)

// Codec maps (name, id) pairs to URL path segments and back.
//
// The name part is cosmetic and lossy. The id part is appended verbatim and is
// the only part Decode trusts, so two entities with the same name never collide.
type Codec struct {
	// MaxNameLength bounds the normalized name. Zero or negative disables truncation.
	MaxNameLength int

	// IDPattern describes the shape of entity ids. Decode only recognizes ids
	// matching this pattern.
	IDPattern *regexp.Regexp

	suffix *regexp.Regexp
}

// NewCodec creates a codec with the given name cap and id shape.
// A nil pattern falls back to UUIDs.
func NewCodec(maxNameLength int, idPattern *regexp.Regexp) Codec {
	if idPattern == nil {
		idPattern = defaultID
	}
	return Codec{
		MaxNameLength: maxNameLength,
		IDPattern:     idPattern,
		suffix:        regexp.MustCompile(`(?:^|-)(` + idPattern.String() + `)$`),
	}
}

// DefaultCodec returns the codec used for every public URL: 60 character names
// followed by a UUID.
func DefaultCodec() Codec {
	return NewCodec(DefaultMaxNameLength, defaultID)
}

var defaultCodec = DefaultCodec()

// NormalizeName lowercases name, strips diacritics, collapses every run of
// non-alphanumeric characters into a single hyphen and trims hyphens at both
// ends. The result is cut to MaxNameLength without leaving a trailing hyphen.
//
// Example:
//
//	NormalizeName("Café Delicioso!!")  // "cafe-delicioso"
//	NormalizeName("  ¡Ñandú & Co.  ") // "nandu-co"
func (c Codec) NormalizeName(name string) string {
	if name == "" {
		return ""
	}
	s := strings.ToLower(FoldAccents(name))
	s = nonAlnumRun.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if c.MaxNameLength > 0 && len(s) > c.MaxNameLength {
		s = strings.TrimRight(s[:c.MaxNameLength], "-")
	}
	return s
}

// Encode builds the path segment for an entity. An empty or fully stripped
// name yields the bare id. The id is never truncated.
//
// Example:
//
//	Encode("", "abc-123")                  // "abc-123"
//	Encode("Café Delicioso!!", "abc-123")  // "cafe-delicioso-abc-123"
func (c Codec) Encode(name, id string) string {
	prefix := c.NormalizeName(name)
	if prefix == "" {
		return id
	}
	return prefix + "-" + id
}

// Decode recovers the entity id from a slug.
//
// The modern format carries the id as its trailing segment. Older links may
// carry it anywhere, so when the suffix does not match the first id found in
// the slug is returned instead. ok is false when no id can be found.
func (c Codec) Decode(slug string) (id string, ok bool) {
	if c.suffix == nil {
		c = NewCodec(c.MaxNameLength, c.IDPattern)
	}
	if m := c.suffix.FindStringSubmatch(slug); m != nil {
		return m[1], true
	}
	return c.ExtractID(slug)
}

// ExtractID scans the whole slug for the first substring shaped like an id.
// It is the fallback for legacy slugs such as "mi-tienda-<uuid>-old".
func (c Codec) ExtractID(slug string) (id string, ok bool) {
	pattern := c.IDPattern
	if pattern == nil {
		pattern = defaultID
	}
	id = pattern.FindString(slug)
	return id, id != ""
}

// =============================================================================
// Slug Matching
// =============================================================================

// SlugCandidate is the minimal projection needed to recompute an entity slug.
type SlugCandidate struct {
	ID   string `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// MatchSlug recomputes the slug of every candidate and returns the id of the
// first one equal to slug. Slugs are never stored, so this always reflects the
// current entity name.
func (c Codec) MatchSlug(candidates []SlugCandidate, slug string) (id string, ok bool) {
	for _, cand := range candidates {
		if c.Encode(cand.Name, cand.ID) == slug {
			return cand.ID, true
		}
	}
	return "", false
}

// DetailPath returns the public detail route of an entity, e.g.
// "/products/cafe-molido-<uuid>".
func (c Codec) DetailPath(t EntityType, name, id string) string {
	return "/" + t.Route() + "/" + c.Encode(name, id)
}

// =============================================================================
// Package-level helpers
// =============================================================================

// Slug encodes with the default codec.
func Slug(name, id string) string {
	return defaultCodec.Encode(name, id)
}

// DetailPath builds a detail route with the default codec.
func DetailPath(t EntityType, name, id string) string {
	return defaultCodec.DetailPath(t, name, id)
}

// FoldAccents decomposes s and drops combining marks, so "Limón" becomes
// "Limon" and "Ñ" becomes "N".
func FoldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
