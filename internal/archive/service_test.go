package archive

import (
	"path/filepath"
	"reflect"
	"testing"

	"github.com/rs/zerolog"
)

func testService(t *testing.T) (*Service, *Store) {
	t.Helper()
	store := testStore(t)
	merger := testMerger(fixedNow())
	return NewService(store, merger, zerolog.Nop()), store
}

func TestRunCycleNoBatch(t *testing.T) {
	t.Parallel()

	svc, _ := testService(t)

	result := svc.RunCycle()
	if result.Status != CycleStatusNoBatch {
		t.Fatalf("status = %q, want %q", result.Status, CycleStatusNoBatch)
	}
	if result.NewDocuments != 0 {
		t.Fatalf("new_documents = %d", result.NewDocuments)
	}
}

func TestRunCycleEndToEnd(t *testing.T) {
	t.Parallel()

	svc, store := testService(t)
	mustWriteFile(t, filepath.Join(store.Dir(), BatchFileName), `{
		"Planning Commission": {
			"agendas": [{"title": "PC Agenda", "date": "2025-07-01", "url": "", "summary": "S", "ai_generated": true}],
			"minutes": []
		}
	}`)

	result := svc.RunCycle()

	if result.Status != CycleStatusSuccess {
		t.Fatalf("status = %q (%v)", result.Status, result.SaveErrors)
	}
	if result.NewDocuments != 1 {
		t.Fatalf("new_documents = %d", result.NewDocuments)
	}
	if !reflect.DeepEqual(result.UpdatedBodies, []string{"Planning Commission"}) {
		t.Fatalf("updated_bodies = %v", result.UpdatedBodies)
	}

	historical := store.LoadArchive()
	archived := historical["Planning Commission"].Agendas[0]
	if !archived.Historical || archived.Month != "July 2025" || archived.Year != 2025 {
		t.Fatalf("archived record: %+v", archived)
	}

	stats, err := store.LoadStats()
	if err != nil {
		t.Fatalf("stats not persisted: %v", err)
	}
	if stats.TotalDocuments != 1 || stats.AIGeneratedCount != 1 {
		t.Fatalf("stats: %+v", stats)
	}

	if _, err := store.LoadMonth("july_2025"); err != nil {
		t.Fatalf("monthly partition not persisted: %v", err)
	}
}

func TestRunCycleIdempotentAcrossCycles(t *testing.T) {
	t.Parallel()

	svc, store := testService(t)
	mustWriteFile(t, filepath.Join(store.Dir(), BatchFileName),
		`{"City Council":{"agendas":[{"title":"A","date":"2025-06-01"}],"minutes":[]}}`)

	first := svc.RunCycle()
	second := svc.RunCycle()

	if first.NewDocuments != 1 || second.NewDocuments != 0 {
		t.Fatalf("new documents: first=%d second=%d", first.NewDocuments, second.NewDocuments)
	}
	if got := CountDocuments(store.LoadArchive()); got != 1 {
		t.Fatalf("archive holds %d documents after two cycles", got)
	}
}

func TestRunCycleSortsPersistedArchive(t *testing.T) {
	t.Parallel()

	svc, store := testService(t)
	mustWriteFile(t, filepath.Join(store.Dir(), BatchFileName), `{
		"City Council": {
			"agendas": [
				{"title": "jan", "date": "2025-01-01"},
				{"title": "mar", "date": "2025-03-01"},
				{"title": "feb", "date": "2025-02-01"}
			],
			"minutes": []
		}
	}`)

	svc.RunCycle()

	agendas := store.LoadArchive()["City Council"].Agendas
	got := []string{agendas[0].Date, agendas[1].Date, agendas[2].Date}
	want := []string{"2025-03-01", "2025-02-01", "2025-01-01"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("persisted order = %v, want %v", got, want)
	}
}
