package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocLinkerMatchesLibraryImport(t *testing.T) {
	linker := NewDocLinker(DefaultDocMappings())

	links := linker.Links("import requests\n\nresp = requests.get(url)", "client.py")

	require.NotEmpty(t, links)
	assert.Equal(t, "Requests Documentation", links[0].Title)
	assert.Equal(t, "https://requests.readthedocs.io/", links[0].URL)
}

func TestDocLinkerLanguageFilter(t *testing.T) {
	linker := NewDocLinker(DefaultDocMappings())

	// A Python-only mapping must not fire for a JavaScript file.
	links := linker.Links("import requests", "client.js")

	for _, link := range links {
		assert.NotEqual(t, "Requests Documentation", link.Title)
	}
}

func TestDocLinkerIssueMessageRemediation(t *testing.T) {
	linker := NewDocLinker(DefaultDocMappings())

	links := linker.Links("Possible SQL injection via string formatting", "db.py")

	require.Len(t, links, 1)
	assert.Contains(t, links[0].URL, "SQL_Injection_Prevention")
}

func TestDocLinkerUniversalMappingWithoutFilename(t *testing.T) {
	linker := NewDocLinker(DefaultDocMappings())

	links := linker.Links("Hardcoded password detected in source", "")

	require.Len(t, links, 1)
	assert.Equal(t, "Secrets Management", links[0].Title)
}

func TestDocLinkerDeduplicatesByURL(t *testing.T) {
	shared := docMapping(`alpha`, "all", "Guide", "https://example.com/guide", "shared guide")
	other := docMapping(`beta`, "all", "Guide Again", "https://example.com/guide", "same URL")
	linker := NewDocLinker([]DocMapping{shared, other})

	links := linker.Links("alpha beta", "x.py")

	require.Len(t, links, 1)
	assert.Equal(t, "Guide", links[0].Title)
}

func TestDocLinkerNoMatch(t *testing.T) {
	linker := NewDocLinker(DefaultDocMappings())

	assert.Empty(t, linker.Links("plain arithmetic helper", "calc.py"))
}
