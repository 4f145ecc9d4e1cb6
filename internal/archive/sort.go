package archive

import "sort"

// SortArchive orders every body's agendas and minutes independently, newest
// first. The comparison is descending lexicographic on the raw date string,
// not a parsed-date comparison; dates that are not ISO-like sort wherever the
// string order puts them, and downstream consumers rely on exactly that.
func SortArchive(a Archive) {
	for _, bucket := range a {
		if bucket == nil {
			continue
		}
		sortByDateDesc(bucket.Agendas)
		sortByDateDesc(bucket.Minutes)
	}
}

func sortByDateDesc(docs []Document) {
	sort.SliceStable(docs, func(i, j int) bool {
		return docs[i].Date > docs[j].Date
	})
}
