package domain

import (
	"regexp"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// NormalizeName Tests
// =============================================================================

func TestNormalizeName_TableDriven(t *testing.T) {
	c := DefaultCodec()
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"basic", "Hello World", "hello-world"},
		{"accents", "Café Delicioso!!", "cafe-delicioso"},
		{"enie", "Piñatas Ñandú", "pinatas-nandu"},
		{"symbols collapse", "a & b -- c", "a-b-c"},
		{"leading trailing", "  ¡Hola!  ", "hola"},
		{"numbers", "Tienda 24/7", "tienda-24-7"},
		{"only symbols", "!@#$%^&*()", ""},
		{"empty", "", ""},
		{"underscores", "hello_world", "hello-world"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, c.NormalizeName(tt.input))
		})
	}
}

func TestNormalizeName_TruncatesWithoutTrailingHyphen(t *testing.T) {
	c := NewCodec(10, nil)

	// "abcdefghi-jkl" cut at 10 is "abcdefghi-"
	assert.Equal(t, "abcdefghi", c.NormalizeName("abcdefghi jkl"))
	// "palabra-" repeated: the 60th character lands inside a word
	long := DefaultCodec().NormalizeName(strings.Repeat("palabra ", 30))
	assert.Len(t, long, DefaultMaxNameLength)
	assert.False(t, strings.HasSuffix(long, "-"))
}

// =============================================================================
// Encode Tests
// =============================================================================

func TestEncode_EmptyNameIsBareID(t *testing.T) {
	assert.Equal(t, "abc-123", Slug("", "abc-123"))
	assert.Equal(t, "abc-123", Slug("!!!", "abc-123"))
}

func TestEncode_NamePrefix(t *testing.T) {
	assert.Equal(t, "cafe-delicioso-abc-123", Slug("Café Delicioso!!", "abc-123"))
}

func TestEncode_LongNameKeepsFullID(t *testing.T) {
	id := uuid.New().String()
	slug := Slug(strings.Repeat("muy largo ", 50), id)

	assert.True(t, strings.HasSuffix(slug, "-"+id))
	assert.LessOrEqual(t, len(slug), DefaultMaxNameLength+1+len(id))
}

// =============================================================================
// Decode Tests
// =============================================================================

func TestDecode_RoundTrip(t *testing.T) {
	names := []string{
		"",
		"Café Delicioso",
		strings.Repeat("Ñ", 500),
		"!!!***",
		"Mi tienda " + uuid.New().String(),
		"123",
		"a-b-c",
	}
	for _, name := range names {
		id := uuid.New().String()
		got, ok := defaultCodec.Decode(Slug(name, id))
		require.True(t, ok, "name %q", name)
		assert.Equal(t, id, got, "name %q", name)
	}
}

func TestDecode_BareID(t *testing.T) {
	id := uuid.New().String()

	got, ok := defaultCodec.Decode(id)
	require.True(t, ok)
	assert.Equal(t, id, got)

	got, ok = DefaultCodec().ExtractID(id)
	require.True(t, ok)
	assert.Equal(t, id, got)
}

func TestDecode_UppercaseID(t *testing.T) {
	id := strings.ToUpper(uuid.New().String())

	got, ok := defaultCodec.Decode("tienda-" + id)
	require.True(t, ok)
	assert.Equal(t, id, got)
}

func TestDecode_LegacyFallback(t *testing.T) {
	id := uuid.New().String()

	got, ok := defaultCodec.Decode("mi-tienda-" + id + "-old")
	require.True(t, ok)
	assert.Equal(t, id, got)
}

func TestDecode_NotFound(t *testing.T) {
	for _, slug := range []string{"", "mi-tienda", "cafe-delicioso-abc-123", "1234-5678"} {
		_, ok := defaultCodec.Decode(slug)
		assert.False(t, ok, slug)
	}
}

func TestDecode_CustomIDPattern(t *testing.T) {
	c := NewCodec(DefaultMaxNameLength, regexp.MustCompile(`[a-z]{3}-[0-9]{3}`))

	slug := c.Encode("Café Delicioso!!", "abc-123")
	assert.Equal(t, "cafe-delicioso-abc-123", slug)

	got, ok := c.Decode(slug)
	require.True(t, ok)
	assert.Equal(t, "abc-123", got)
}

func TestDecode_CustomIDPatternRoundTrip(t *testing.T) {
	c := NewCodec(DefaultMaxNameLength, regexp.MustCompile(`[a-z]{3}-[0-9]{3}`))
	tests := []struct {
		name string
		id   string
	}{
		{"Café Delicioso!!", "abc-123"},
		{"", "abc-123"},
		{"!!!***", "xyz-000"},
		{"Ñandú & Co.", "qrs-456"},
		{"Tienda abc-999", "xyz-123"},
		{strings.Repeat("Artesanía ", 20), "lmn-789"},
	}
	for _, tt := range tests {
		t.Run(tt.id+"/"+tt.name, func(t *testing.T) {
			got, ok := c.Decode(c.Encode(tt.name, tt.id))
			require.True(t, ok)
			assert.Equal(t, tt.id, got)
		})
	}

	_, ok := defaultCodec.Decode(c.Encode("Café Delicioso", "abc-123"))
	assert.False(t, ok, "the default codec only recognizes UUIDs")
}

func TestDecode_ZeroCodecUsesUUID(t *testing.T) {
	id := uuid.New().String()

	got, ok := Codec{}.Decode("tienda-" + id)
	require.True(t, ok)
	assert.Equal(t, id, got)
}

// =============================================================================
// MatchSlug Tests
// =============================================================================

func TestMatchSlug_RecomputesFromName(t *testing.T) {
	candidates := []SlugCandidate{
		{ID: "zzz-999", Name: "Otra Tienda"},
		{ID: "abc-123", Name: "Café Delicioso"},
	}

	id, ok := DefaultCodec().MatchSlug(candidates, "cafe-delicioso-abc-123")
	require.True(t, ok)
	assert.Equal(t, "abc-123", id)
}

func TestMatchSlug_SameNameDifferentIDs(t *testing.T) {
	a, b := uuid.New().String(), uuid.New().String()
	candidates := []SlugCandidate{{ID: a, Name: "Soda Tica"}, {ID: b, Name: "Soda Tica"}}

	id, ok := DefaultCodec().MatchSlug(candidates, Slug("Soda Tica", b))
	require.True(t, ok)
	assert.Equal(t, b, id)
}

func TestMatchSlug_NoMatch(t *testing.T) {
	_, ok := DefaultCodec().MatchSlug([]SlugCandidate{{ID: "1", Name: "x"}}, "y-1")
	assert.False(t, ok)
}

// =============================================================================
// DetailPath Tests
// =============================================================================

func TestDetailPath(t *testing.T) {
	assert.Equal(t, "/products/cafe-molido-abc", DetailPath(EntityProduct, "Café Molido", "abc"))
	assert.Equal(t, "/businesses/abc", DetailPath(EntityBusiness, "", "abc"))
	assert.Equal(t, "/services/corte-de-pelo-x", DetailPath(EntityService, "Corte de pelo", "x"))
}
