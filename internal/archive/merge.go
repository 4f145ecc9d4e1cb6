package archive

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/lcf-civic/civicsum/internal/globaltime"
)

const defaultBaseURL = "https://lcf.ca.gov"

// Options configures a Merger. Now is the clock used for archived_date and
// for the month/year fallback when a record's date does not parse.
type Options struct {
	BaseURL string
	Now     func() time.Time
}

// Merger folds current batches into the historical archive. It is the only
// component that writes into archive buckets.
type Merger struct {
	opts   Options
	logger zerolog.Logger
}

// Result describes one merge: how many records were new and which bodies
// received at least one.
type Result struct {
	NewDocuments  int      `json:"new_documents"`
	UpdatedBodies []string `json:"updated_bodies"`
}

func NewMerger(logger zerolog.Logger, opts Options) *Merger {
	if strings.TrimSpace(opts.BaseURL) == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.Now == nil {
		opts.Now = globaltime.Now
	}
	return &Merger{
		opts:   opts,
		logger: logger,
	}
}

// Clock returns the merger's time source.
func (m *Merger) Clock() func() time.Time {
	return m.opts.Now
}

// Merge appends every non-duplicate record from batch into archive,
// decorating it with archive metadata on the way in. Bodies absent from the
// batch are left untouched; bodies absent from the archive are created.
// Merge performs no I/O.
func (m *Merger) Merge(batch, archive Archive) Result {
	newDocuments := 0
	updated := make(map[string]struct{})

	for _, bodyName := range sortedBodies(batch) {
		bodyData := batch[bodyName]
		if bodyData == nil {
			continue
		}

		bucket, exists := archive[bodyName]
		if !exists || bucket == nil {
			bucket = &Bucket{Agendas: []Document{}, Minutes: []Document{}}
			archive[bodyName] = bucket
			m.logger.Info().Str("body", bodyName).Msg("created new archive section")
		}

		for _, agenda := range bodyData.Agendas {
			if IsDuplicate(agenda, bucket.Agendas) {
				m.logger.Info().Str("body", bodyName).Str("title", agenda.Title).Msg("skipped duplicate agenda")
				continue
			}
			bucket.Agendas = append(bucket.Agendas, m.decorate(agenda, TypeAgenda))
			newDocuments++
			updated[bodyName] = struct{}{}
			m.logger.Info().Str("body", bodyName).Str("title", agenda.Title).Msg("added new agenda")
		}

		for _, minutes := range bodyData.Minutes {
			if IsDuplicate(minutes, bucket.Minutes) {
				m.logger.Info().Str("body", bodyName).Str("title", minutes.Title).Msg("skipped duplicate minutes")
				continue
			}
			bucket.Minutes = append(bucket.Minutes, m.decorate(minutes, TypeMinutes))
			newDocuments++
			updated[bodyName] = struct{}{}
			m.logger.Info().Str("body", bodyName).Str("title", minutes.Title).Msg("added new minutes")
		}
	}

	result := Result{
		NewDocuments:  newDocuments,
		UpdatedBodies: make([]string, 0, len(updated)),
	}
	for bodyName := range updated {
		result.UpdatedBodies = append(result.UpdatedBodies, bodyName)
	}
	sort.Strings(result.UpdatedBodies)

	return result
}

// decorate copies a batch record into its archived form: archive timestamp,
// historical marker, month/year bucket, and a placeholder URL when the
// source had none.
func (m *Merger) decorate(doc Document, fallbackType DocumentType) Document {
	now := m.opts.Now()

	doc.ArchivedDate = now.Format(time.RFC3339)
	doc.Historical = true

	if parsed, ok := parseDocumentDate(doc.Date); ok {
		doc.Month = parsed.Format("January 2006")
		doc.Year = parsed.Year()
	} else {
		// Unparseable or missing dates land in the current month so every
		// record belongs to a real calendar bucket for partitioning.
		doc.Month = now.Format("January 2006")
		doc.Year = now.Year()
	}

	if doc.DocumentType == "" {
		doc.DocumentType = fallbackType
	}

	if doc.URL == "" {
		doc.URL = m.placeholderURL(doc)
	}

	return doc
}

// placeholderURL synthesizes an informational link for records that arrived
// without one. It is not expected to resolve.
func (m *Merger) placeholderURL(doc Document) string {
	docType := doc.DocumentType
	if docType == "" {
		docType = "document"
	}
	return fmt.Sprintf("%s/%ss/%s.pdf", strings.TrimRight(m.opts.BaseURL, "/"), docType, slugify(doc.Title))
}

var documentDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// parseDocumentDate accepts ISO-8601 date or datetime strings, with or
// without an offset (a trailing "Z" counts as UTC).
func parseDocumentDate(raw string) (time.Time, bool) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range documentDateLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

func slugify(value string) string {
	return strings.ToLower(strings.ReplaceAll(value, " ", "_"))
}

func sortedBodies(a Archive) []string {
	names := make([]string, 0, len(a))
	for name := range a {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
