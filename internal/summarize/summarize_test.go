package summarize

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/lcf-civic/civicsum/internal/archive"
	"github.com/lcf-civic/civicsum/internal/fetch"
)

func agendaDoc(body, title string) fetch.Document {
	return fetch.Document{
		GovernmentBody: body,
		DocumentType:   "agenda",
		Date:           "2025-06-03",
		Title:          title,
		Content:        "Call to order. Approve the budget resolution for fiscal year 2026. Public comment period follows.",
	}
}

func TestSummarizeAllGroupsByBodyAndType(t *testing.T) {
	t.Parallel()

	s := New(zerolog.Nop(), Options{UseAI: false})
	documents := []fetch.Document{
		agendaDoc("City Council", "CC Agenda"),
		{GovernmentBody: "City Council", DocumentType: "minutes", Title: "CC Minutes", Content: "The motion passed."},
		agendaDoc("Planning Commission", "PC Agenda"),
	}

	batch := s.SummarizeAll(context.Background(), documents)

	if len(batch) != 2 {
		t.Fatalf("expected 2 bodies, got %d", len(batch))
	}
	cc := batch["City Council"]
	if len(cc.Agendas) != 1 || len(cc.Minutes) != 1 {
		t.Fatalf("City Council bucket: %+v", cc)
	}
	if cc.Agendas[0].AIGenerated {
		t.Error("fallback summaries must not be flagged ai_generated")
	}
	if cc.Agendas[0].Summary == "" {
		t.Error("summary is empty")
	}
	if cc.Agendas[0].DocumentType != archive.TypeAgenda {
		t.Errorf("document_type = %q", cc.Agendas[0].DocumentType)
	}
}

func TestFallbackSummaryExtractsKeyItems(t *testing.T) {
	t.Parallel()

	doc := fetch.Document{
		GovernmentBody: "City Council",
		DocumentType:   "agenda",
		Title:          "CC Agenda",
		Content:        "Call to order.\nApprove the budget resolution.\nAdjournment.",
	}

	summary := fallbackSummary(doc)

	if !strings.Contains(summary, "City Council") {
		t.Errorf("summary missing body name: %q", summary)
	}
	if !strings.Contains(summary, "Approve the budget resolution") {
		t.Errorf("summary missing key item: %q", summary)
	}
}

func TestFallbackSummaryEmptyContent(t *testing.T) {
	t.Parallel()

	doc := fetch.Document{GovernmentBody: "City Council", DocumentType: "minutes", Title: "CC Minutes"}

	summary := fallbackSummary(doc)
	if !strings.Contains(summary, "not available") {
		t.Fatalf("summary = %q", summary)
	}
}

func TestSummarizeUsesAPIAndFlagsAIGenerated(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
			t.Error("missing bearer token")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"An AI summary."}}]}`))
	}))
	defer server.Close()

	s := New(zerolog.Nop(), Options{
		APIKey:     "test-key",
		APIBaseURL: server.URL,
		UseAI:      true,
		CallDelay:  time.Millisecond,
	})

	batch := s.SummarizeAll(context.Background(), []fetch.Document{agendaDoc("City Council", "CC Agenda")})

	record := batch["City Council"].Agendas[0]
	if record.Summary != "An AI summary." {
		t.Errorf("summary = %q", record.Summary)
	}
	if !record.AIGenerated {
		t.Error("AI summaries must be flagged ai_generated")
	}
}

func TestSummarizeFallsBackOnAPIError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"overloaded","type":"server_error"}}`))
	}))
	defer server.Close()

	s := New(zerolog.Nop(), Options{
		APIKey:     "test-key",
		APIBaseURL: server.URL,
		UseAI:      true,
		CallDelay:  time.Millisecond,
	})

	batch := s.SummarizeAll(context.Background(), []fetch.Document{agendaDoc("City Council", "CC Agenda")})

	record := batch["City Council"].Agendas[0]
	if record.AIGenerated {
		t.Error("failed API calls must fall back without the AI flag")
	}
	if record.Summary == "" {
		t.Error("fallback summary is empty")
	}
}

func TestSummarizeRespectsCallCap(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"ok"}}]}`))
	}))
	defer server.Close()

	s := New(zerolog.Nop(), Options{
		APIKey:         "test-key",
		APIBaseURL:     server.URL,
		UseAI:          true,
		MaxCallsPerRun: 2,
		CallDelay:      time.Millisecond,
	})

	documents := []fetch.Document{
		agendaDoc("City Council", "A1"),
		agendaDoc("City Council", "A2"),
		agendaDoc("City Council", "A3"),
		agendaDoc("City Council", "A4"),
	}
	batch := s.SummarizeAll(context.Background(), documents)

	if calls.Load() != 2 {
		t.Fatalf("API calls = %d, want 2", calls.Load())
	}

	aiCount := 0
	for _, record := range batch["City Council"].Agendas {
		if record.AIGenerated {
			aiCount++
		}
	}
	if aiCount != 2 {
		t.Fatalf("ai_generated records = %d, want 2", aiCount)
	}
}

func TestTruncateKeepsRuneBoundaries(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name  string
		value string
		limit int
		want  string
	}{
		{"short ascii untouched", "agenda", 10, "agenda"},
		{"ascii cut at limit", "agenda", 3, "age"},
		{"multi-byte rune not split", "abé", 3, "ab"},
		{"limit at end untouched", "abé", 4, "abé"},
		{"wide rune backed off", "a会議", 3, "a"},
		{"wide rune kept when whole", "a会議", 4, "a会"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := truncate(tc.value, tc.limit)
			if got != tc.want {
				t.Errorf("truncate(%q, %d) = %q, want %q", tc.value, tc.limit, got, tc.want)
			}
			if !utf8.ValidString(got) {
				t.Errorf("truncate(%q, %d) = %q is not valid UTF-8", tc.value, tc.limit, got)
			}
		})
	}
}
