package archive

import (
	"sort"
	"strconv"
	"time"
)

// Stats is the derived summary of the whole archive. It is recomputed in
// full after every merge, never patched incrementally, so a corrupted or
// missing stats file heals itself on the next cycle.
type Stats struct {
	LastUpdated           string   `json:"last_updated"`
	TotalGovernmentBodies int      `json:"total_government_bodies"`
	TotalDocuments        int      `json:"total_documents"`
	TotalAgendas          int      `json:"total_agendas"`
	TotalMinutes          int      `json:"total_minutes"`
	AIGeneratedCount      int      `json:"ai_generated_count"`
	MonthsCovered         []string `json:"months_covered"`
	YearsCovered          []string `json:"years_covered"`
	GovernmentBodies      []string `json:"government_bodies"`
}

// ComputeStats walks the full archive and produces a snapshot. List fields
// are sorted so output is stable across runs.
func ComputeStats(a Archive, now time.Time) Stats {
	stats := Stats{
		LastUpdated:           now.Format(time.RFC3339),
		TotalGovernmentBodies: len(a),
		MonthsCovered:         []string{},
		YearsCovered:          []string{},
		GovernmentBodies:      []string{},
	}

	months := make(map[string]struct{})
	years := make(map[string]struct{})

	for bodyName, bucket := range a {
		stats.GovernmentBodies = append(stats.GovernmentBodies, bodyName)
		if bucket == nil {
			continue
		}

		stats.TotalAgendas += len(bucket.Agendas)
		stats.TotalMinutes += len(bucket.Minutes)
		stats.TotalDocuments += len(bucket.Agendas) + len(bucket.Minutes)

		for _, docs := range [][]Document{bucket.Agendas, bucket.Minutes} {
			for _, doc := range docs {
				if doc.AIGenerated {
					stats.AIGeneratedCount++
				}
				if doc.Month != "" {
					months[doc.Month] = struct{}{}
				}
				if doc.Year != 0 {
					years[strconv.Itoa(doc.Year)] = struct{}{}
				}
			}
		}
	}

	for month := range months {
		stats.MonthsCovered = append(stats.MonthsCovered, month)
	}
	for year := range years {
		stats.YearsCovered = append(stats.YearsCovered, year)
	}
	sort.Strings(stats.MonthsCovered)
	sort.Strings(stats.YearsCovered)
	sort.Strings(stats.GovernmentBodies)

	return stats
}
