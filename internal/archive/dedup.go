package archive

import "strings"

// IsDuplicate reports whether candidate already exists in the given
// collection. Two independent tests, either sufficient:
//
//  1. trimmed title equal AND date string exactly equal (no normalization)
//  2. both URLs non-empty and exactly equal
//
// Titles are compared after a simple trim only; case, punctuation, and
// whitespace variants are distinct records. A missed duplicate is acceptable,
// a wrongly dropped document is not.
//
// Note the first test makes two records with empty title AND empty date
// duplicates of each other. Downstream behavior depends on that; see the
// package tests before changing it.
func IsDuplicate(candidate Document, existing []Document) bool {
	candidateTitle := strings.TrimSpace(candidate.Title)
	for _, doc := range existing {
		if candidateTitle == strings.TrimSpace(doc.Title) && candidate.Date == doc.Date {
			return true
		}
		if candidate.URL != "" && doc.URL != "" && candidate.URL == doc.URL {
			return true
		}
	}
	return false
}
