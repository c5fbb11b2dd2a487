package weather

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"berlin":        "Berlin",
		"NEW YORK":      "New York",
		"  paris  ":     "Paris",
		"sAN fRANCISCO": "San Francisco",
		"new-york":      "New-york",
		"new  york":     "New  York",
		"são paulo":     "São Paulo",
		"ÅLESUND":       "Ålesund",
		"":              "",
		"   ":           "",
		"\t\n":          "",
	}

	for in, want := range cases {
		assert.Equal(t, want, Normalize(in), "Normalize(%q)", in)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"berlin", "NEW YORK", "  paris  ", "new-york", "new  york", "rio de janeiro",
		"ÉCOLE", "x", "a b c", "münchen", "", " ", "o'higgins",
	}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "Normalize not idempotent for %q", in)
	}
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, "new york", CacheKey(Normalize("  NEW york ")))
	assert.Equal(t, "", CacheKey(""))
}
