package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractKeywordsIsStable(t *testing.T) {
	input := "Learn React Hooks and the React Router"

	first := ExtractKeywords(input)
	assert.Equal(t, []string{"learn", "react", "hooks", "router"}, first)

	// Repeated extraction over identical input yields identical output.
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, ExtractKeywords(input))
	}
}

func TestExtractKeywordsDropsStopWordsAndShortTokens(t *testing.T) {
	keywords := ExtractKeywords("The cat is on a mat", "it was by far")
	assert.Equal(t, []string{"cat", "mat", "far"}, keywords)
}

func TestExtractKeywordsSplitsOnPunctuation(t *testing.T) {
	keywords := ExtractKeywords("array.prototype.map (JavaScript)", "use-effect_hook")
	assert.Equal(t, []string{"array", "prototype", "map", "javascript", "use", "effect", "hook"}, keywords)
}

func TestExtractKeywordsCapsAtTen(t *testing.T) {
	keywords := ExtractKeywords(
		"alpha bravo charlie delta echo foxtrot golf hotel india juliet kilo lima")
	assert.Len(t, keywords, 10)
	assert.Equal(t, "alpha", keywords[0])
	assert.Equal(t, "juliet", keywords[9])
}

func TestMapDocCategoryFirstMatchWins(t *testing.T) {
	cases := map[string]string{
		"react":        "react",
		"react-native": "react",
		"typescript":   "javascript",
		"javascript":   "javascript",
		"node":         "nodejs",
		"nextjs~14":    "nextjs",
		"tailwindcss":  "css",
		"css":          "css",
		"html":         "html",
		"dom":          "html",
		"postgresql":   "database",
		"mysql":        "database",
		"python~3.12":  "python",
		"rust":         "programming",
		"":             "programming",
	}

	for doc, want := range cases {
		assert.Equal(t, want, MapDocCategory(doc), "doc %q", doc)
	}
}
