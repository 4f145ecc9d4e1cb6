package report

import (
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/lcf-civic/civicsum/internal/archive"
)

func TestBuildHTML(t *testing.T) {
	t.Parallel()

	batch := archive.Archive{
		"City Council": {
			Agendas: []archive.Document{{
				Title:       "CC Agenda <script>",
				Date:        "2025-06-03",
				URL:         "https://lcf.ca.gov/docs/a.pdf",
				Summary:     "Budget was discussed.",
				AIGenerated: true,
			}},
			Minutes: []archive.Document{},
		},
	}
	result := archive.CycleResult{NewDocuments: 1}

	htmlBody := BuildHTML(batch, result, time.Date(2025, time.June, 9, 0, 0, 0, 0, time.UTC))

	if !strings.Contains(htmlBody, "City Council") {
		t.Error("missing body section")
	}
	if !strings.Contains(htmlBody, "Budget was discussed.") {
		t.Error("missing summary")
	}
	if !strings.Contains(htmlBody, "CC Agenda &lt;script&gt;") {
		t.Error("title not escaped")
	}
	if !strings.Contains(htmlBody, "1 new documents") {
		t.Error("missing document count")
	}
	if !strings.Contains(htmlBody, "generated by AI") {
		t.Error("missing AI provenance note")
	}
}

func TestBuildHTMLSkipsEmptyBodies(t *testing.T) {
	t.Parallel()

	batch := archive.Archive{
		"Empty Commission": {Agendas: []archive.Document{}, Minutes: []archive.Document{}},
	}

	htmlBody := BuildHTML(batch, archive.CycleResult{}, time.Now())
	if strings.Contains(htmlBody, "Empty Commission") {
		t.Error("bodies with no documents must be omitted")
	}
}

func TestSendDisabledIsNoOp(t *testing.T) {
	t.Parallel()

	r := New(zerolog.Nop(), Options{Enabled: false})
	if err := r.Send(archive.Archive{}, archive.CycleResult{}); err != nil {
		t.Fatalf("disabled reporter must not error: %v", err)
	}
}

func TestSendUnconfiguredIsNoOp(t *testing.T) {
	t.Parallel()

	r := New(zerolog.Nop(), Options{Enabled: true, Server: "smtp.example.com", Port: 587})
	if err := r.Send(archive.Archive{}, archive.CycleResult{}); err != nil {
		t.Fatalf("unconfigured reporter must not error: %v", err)
	}
}

func TestSplitRecipients(t *testing.T) {
	t.Parallel()

	got := splitRecipients(" a@example.com, ,b@example.com ")
	if len(got) != 2 || got[0] != "a@example.com" || got[1] != "b@example.com" {
		t.Fatalf("recipients = %v", got)
	}
}
