package archive

import (
	"reflect"
	"testing"
	"time"
)

func TestComputeStats(t *testing.T) {
	t.Parallel()

	historical := Archive{
		"City Council": {
			Agendas: []Document{
				{Title: "a1", Month: "June 2025", Year: 2025, AIGenerated: true},
				{Title: "a2", Month: "May 2025", Year: 2025},
			},
			Minutes: []Document{
				{Title: "m1", Month: "June 2025", Year: 2025, AIGenerated: true},
			},
		},
		"Planning Commission": {
			Agendas: []Document{
				{Title: "p1", Month: "December 2024", Year: 2024},
			},
		},
	}

	now := time.Date(2025, time.June, 10, 12, 0, 0, 0, time.UTC)
	stats := ComputeStats(historical, now)

	if stats.TotalGovernmentBodies != 2 {
		t.Errorf("total_government_bodies = %d", stats.TotalGovernmentBodies)
	}
	if stats.TotalDocuments != 4 || stats.TotalAgendas != 3 || stats.TotalMinutes != 1 {
		t.Errorf("counts = %d/%d/%d", stats.TotalDocuments, stats.TotalAgendas, stats.TotalMinutes)
	}
	if stats.AIGeneratedCount != 2 {
		t.Errorf("ai_generated_count = %d", stats.AIGeneratedCount)
	}
	if want := []string{"December 2024", "June 2025", "May 2025"}; !reflect.DeepEqual(stats.MonthsCovered, want) {
		t.Errorf("months_covered = %v", stats.MonthsCovered)
	}
	if want := []string{"2024", "2025"}; !reflect.DeepEqual(stats.YearsCovered, want) {
		t.Errorf("years_covered = %v", stats.YearsCovered)
	}
	if want := []string{"City Council", "Planning Commission"}; !reflect.DeepEqual(stats.GovernmentBodies, want) {
		t.Errorf("government_bodies = %v", stats.GovernmentBodies)
	}
	if stats.LastUpdated != now.Format(time.RFC3339) {
		t.Errorf("last_updated = %q", stats.LastUpdated)
	}
}

func TestComputeStatsEmptyArchive(t *testing.T) {
	t.Parallel()

	stats := ComputeStats(make(Archive), time.Now())

	if stats.TotalDocuments != 0 || stats.TotalGovernmentBodies != 0 {
		t.Fatalf("empty archive stats: %+v", stats)
	}
	// Lists serialize as [] rather than null.
	if stats.MonthsCovered == nil || stats.YearsCovered == nil || stats.GovernmentBodies == nil {
		t.Fatal("list fields must be non-nil")
	}
}
