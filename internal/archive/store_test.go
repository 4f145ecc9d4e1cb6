package archive

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(t.TempDir(), zerolog.Nop())
}

func TestLoadBatchMissingFile(t *testing.T) {
	t.Parallel()

	store := testStore(t)
	if _, err := store.LoadBatch(); !errors.Is(err, ErrNoBatch) {
		t.Fatalf("expected ErrNoBatch, got %v", err)
	}
}

func TestLoadBatchMalformedRecoversEmpty(t *testing.T) {
	t.Parallel()

	store := testStore(t)
	mustWriteFile(t, filepath.Join(store.Dir(), BatchFileName), "{not json")

	batch, err := store.LoadBatch()
	if err != nil {
		t.Fatalf("malformed batch must recover, got error: %v", err)
	}
	if len(batch) != 0 {
		t.Fatalf("expected empty batch, got %d bodies", len(batch))
	}
}

func TestLoadBatchNormalizes(t *testing.T) {
	t.Parallel()

	store := testStore(t)
	mustWriteFile(t, filepath.Join(store.Dir(), BatchFileName),
		`{"City Council":{"agendas":[{"title":"A","date":"2025-06-01"}],"minutes":[]}}`)

	batch, err := store.LoadBatch()
	if err != nil {
		t.Fatalf("load batch: %v", err)
	}
	if got := batch["City Council"].Agendas[0].DocumentType; got != TypeAgenda {
		t.Fatalf("document_type = %q, want agenda", got)
	}
}

func TestLoadArchiveSoftFails(t *testing.T) {
	t.Parallel()

	store := testStore(t)

	if a := store.LoadArchive(); len(a) != 0 {
		t.Fatalf("missing archive must yield empty mapping, got %d bodies", len(a))
	}

	mustWriteFile(t, filepath.Join(store.Dir(), ArchiveFileName), "][")
	if a := store.LoadArchive(); len(a) != 0 {
		t.Fatalf("corrupt archive must yield empty mapping, got %d bodies", len(a))
	}
}

func TestSaveAllRoundTrip(t *testing.T) {
	t.Parallel()

	store := testStore(t)
	historical := Archive{
		"City Council": {
			Agendas: []Document{{Title: "A", Date: "2025-06-01", Month: "June 2025", Year: 2025, Historical: true}},
			Minutes: []Document{},
		},
	}
	stats := ComputeStats(historical, fixedNow())
	monthly := PartitionByMonth(historical)

	result := store.SaveAll(historical, stats, monthly)
	if !result.OK() {
		t.Fatalf("save failed: %v", result.Errors())
	}

	reloaded := store.LoadArchive()
	if CountDocuments(reloaded) != 1 {
		t.Fatalf("reloaded archive holds %d documents", CountDocuments(reloaded))
	}

	loadedStats, err := store.LoadStats()
	if err != nil {
		t.Fatalf("load stats: %v", err)
	}
	if loadedStats.TotalDocuments != 1 {
		t.Fatalf("reloaded stats: %+v", loadedStats)
	}

	month, err := store.LoadMonth("june_2025")
	if err != nil {
		t.Fatalf("load month: %v", err)
	}
	if len(month["City Council"].Agendas) != 1 {
		t.Fatalf("month partition: %+v", month)
	}
}

func TestSaveAllIndependentFailureDomains(t *testing.T) {
	t.Parallel()

	// A directory that does not exist fails every write; each failure is
	// reported separately instead of the first aborting the rest.
	store := NewStore(filepath.Join(t.TempDir(), "missing", "dir"), zerolog.Nop())

	result := store.SaveAll(make(Archive), Stats{}, map[string]Archive{"June 2025": {}})

	if result.OK() {
		t.Fatal("expected failures")
	}
	if result.ArchiveErr == nil || result.StatsErr == nil || result.MonthlyErr == nil {
		t.Fatalf("all three domains must report: %+v", result)
	}
	if len(result.Errors()) != 3 {
		t.Fatalf("Errors() = %v", result.Errors())
	}
}

func TestSavedArchiveIsPrettyPrinted(t *testing.T) {
	t.Parallel()

	store := testStore(t)
	if err := store.SaveArchive(Archive{"Body": {Agendas: []Document{{Title: "A"}}, Minutes: []Document{}}}); err != nil {
		t.Fatalf("save: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(store.Dir(), ArchiveFileName))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !json.Valid(raw) {
		t.Fatal("saved file is not valid JSON")
	}
	if len(raw) == 0 || raw[len(raw)-1] == ' ' {
		t.Fatal("unexpected trailing content")
	}
	if !containsIndented(raw) {
		t.Fatal("archive file must be indented")
	}
}

func containsIndented(raw []byte) bool {
	for i := 0; i+2 < len(raw); i++ {
		if raw[i] == '\n' && raw[i+1] == ' ' && raw[i+2] == ' ' {
			return true
		}
	}
	return false
}

func mustWriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
}
