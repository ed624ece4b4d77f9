package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapPatchEmpty(t *testing.T) {
	assert.Empty(t, MapPatch(""))
}

func TestMapPatchDeletionDoesNotAdvanceCounter(t *testing.T) {
	patch := "@@ -1,3 +1,4 @@\n a\n+b\n c\n-d\n e"

	got := MapPatch(patch)

	want := []LineChange{
		{Line: 1, Kind: Context},
		{Line: 2, Kind: Addition},
		{Line: 3, Kind: Context},
		{Line: 4, Kind: Deletion},
		{Line: 4, Kind: Context},
	}
	assert.Equal(t, want, got)
}

func TestMapPatchPureAdditionHunk(t *testing.T) {
	patch := "@@ -0,0 +1,2 @@\n+x = 1\n+y = 2"

	got := MapPatch(patch)

	want := []LineChange{
		{Line: 1, Kind: Addition},
		{Line: 2, Kind: Addition},
	}
	assert.Equal(t, want, got)
}

func TestMapPatchMultipleHunksResetCounter(t *testing.T) {
	patch := "@@ -1,2 +1,2 @@\n a\n+b\n@@ -10,2 +20,2 @@\n c\n+d"

	got := MapPatch(patch)

	want := []LineChange{
		{Line: 1, Kind: Context},
		{Line: 2, Kind: Addition},
		{Line: 20, Kind: Context},
		{Line: 21, Kind: Addition},
	}
	assert.Equal(t, want, got)
}

func TestMapPatchSkipsFileHeadersAndMarkers(t *testing.T) {
	patch := "--- a/file.py\n+++ b/file.py\n@@ -1,1 +1,2 @@\n a\n+b\n\\ No newline at end of file"

	got := MapPatch(patch)

	want := []LineChange{
		{Line: 1, Kind: Context},
		{Line: 2, Kind: Addition},
	}
	assert.Equal(t, want, got)
}

func TestMapPatchMalformedHunkHeaderSkipped(t *testing.T) {
	// The broken header must not reset the counter established by the
	// first hunk.
	patch := "@@ -1,1 +5,2 @@\n a\n@@ garbage @@\n+b"

	got := MapPatch(patch)

	want := []LineChange{
		{Line: 5, Kind: Context},
		{Line: 6, Kind: Addition},
	}
	assert.Equal(t, want, got)
}

func TestMapPatchHeaderWithoutCounts(t *testing.T) {
	patch := "@@ -3 +7 @@\n+only"

	got := MapPatch(patch)

	assert.Equal(t, []LineChange{{Line: 7, Kind: Addition}}, got)
}

func TestMapPatchCountsMatchStats(t *testing.T) {
	patch := "@@ -1,4 +1,5 @@\n ctx\n+add1\n+add2\n-del1\n ctx2\n-del2\n+add3"

	records := MapPatch(patch)
	stats := GetStats(patch)

	var additions, deletions int
	for _, r := range records {
		switch r.Kind {
		case Addition:
			additions++
		case Deletion:
			deletions++
		}
	}

	assert.Equal(t, stats.Additions, additions)
	assert.Equal(t, stats.Deletions, deletions)
}

func TestChangedLinesExcludesContext(t *testing.T) {
	patch := "@@ -1,3 +1,3 @@\n a\n+b\n-c"

	got := ChangedLines(patch)

	want := []LineChange{
		{Line: 2, Kind: Addition},
		{Line: 3, Kind: Deletion},
	}
	assert.Equal(t, want, got)
}

func TestLineKindString(t *testing.T) {
	assert.Equal(t, "addition", Addition.String())
	assert.Equal(t, "deletion", Deletion.String())
	assert.Equal(t, "context", Context.String())
}
