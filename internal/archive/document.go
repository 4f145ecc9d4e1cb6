// Package archive implements the append-only historical store for meeting
// document summaries: duplicate detection, batch merging, metadata
// derivation, statistics, and monthly partitioning.
package archive

type DocumentType = string

const (
	TypeAgenda  DocumentType = "agenda"
	TypeMinutes DocumentType = "minutes"
)

// Document is one agenda or minutes record for one government body. Fresh
// batch records carry only the first group of fields; the second group is
// filled in by the merger when a record enters the archive.
type Document struct {
	Title        string `json:"title"`
	Date         string `json:"date"`
	URL          string `json:"url"`
	DocumentType string `json:"document_type"`
	Summary      string `json:"summary"`
	AIGenerated  bool   `json:"ai_generated"`

	ArchivedDate string `json:"archived_date,omitempty"`
	Historical   bool   `json:"historical,omitempty"`
	Month        string `json:"month,omitempty"`
	Year         int    `json:"year,omitempty"`
}

// Bucket holds one body's documents, split by type.
type Bucket struct {
	Agendas []Document `json:"agendas"`
	Minutes []Document `json:"minutes"`
}

// Archive maps government-body names to their buckets. Body names are free
// text; new ones appear whenever a batch introduces them. The same shape is
// used for the transient current batch.
type Archive map[string]*Bucket

// CountDocuments returns the total record count across all bodies and types.
func CountDocuments(a Archive) int {
	total := 0
	for _, bucket := range a {
		if bucket == nil {
			continue
		}
		total += len(bucket.Agendas) + len(bucket.Minutes)
	}
	return total
}

// NormalizeBatch fills per-record defaults once at ingestion so downstream
// stages never re-check them: a record's document_type comes from the list
// that contains it when the field is empty.
func NormalizeBatch(batch Archive) {
	for _, bucket := range batch {
		if bucket == nil {
			continue
		}
		for i := range bucket.Agendas {
			if bucket.Agendas[i].DocumentType == "" {
				bucket.Agendas[i].DocumentType = TypeAgenda
			}
		}
		for i := range bucket.Minutes {
			if bucket.Minutes[i].DocumentType == "" {
				bucket.Minutes[i].DocumentType = TypeMinutes
			}
		}
	}
}
