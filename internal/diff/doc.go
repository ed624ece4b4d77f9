// Package diff maps unified-diff patches back to new-file line numbers.
//
// MapPatch classifies every changed line of a patch as an addition,
// deletion, or context line and attributes it to a post-change line
// number. Deleted lines consume no new-file line, so they are attributed
// to the line that would follow the deletion point; that number can
// coincide with the next context line's number, which downstream comment
// posting treats as an acceptable approximation.
//
// The parser is best-effort: malformed hunk headers are skipped and an
// empty patch yields an empty result, never an error.
package diff
