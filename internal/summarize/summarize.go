// Package summarize turns fetched meeting documents into the current batch
// consumed by the archive merger. Summaries come from the OpenAI
// chat-completions API when configured, with a keyword-extractive fallback
// that keeps the pipeline producing output when the API is unavailable.
package summarize

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/lcf-civic/civicsum/internal/archive"
	"github.com/lcf-civic/civicsum/internal/fetch"
)

type Options struct {
	APIKey         string
	APIBaseURL     string
	Model          string
	MaxTokens      int
	UseAI          bool
	MaxCallsPerRun int
	CallDelay      time.Duration
	HTTPClient     *http.Client
}

type Summarizer struct {
	opts    Options
	limiter *rate.Limiter
	client  *http.Client
	logger  zerolog.Logger
	calls   int
}

func New(logger zerolog.Logger, opts Options) *Summarizer {
	if strings.TrimSpace(opts.APIBaseURL) == "" {
		opts.APIBaseURL = defaultAPIBaseURL
	}
	if opts.Model == "" {
		opts.Model = "gpt-3.5-turbo"
	}
	if opts.CallDelay <= 0 {
		opts.CallDelay = 2 * time.Second
	}

	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 90 * time.Second}
	}

	return &Summarizer{
		opts:    opts,
		limiter: rate.NewLimiter(rate.Every(opts.CallDelay), 1),
		client:  client,
		logger:  logger,
	}
}

// SummarizeAll produces the current batch: one summarized record per fetched
// document, grouped by government body and document type.
func (s *Summarizer) SummarizeAll(ctx context.Context, documents []fetch.Document) archive.Archive {
	batch := make(archive.Archive)

	for _, doc := range documents {
		summary, aiGenerated := s.summarize(ctx, doc)

		record := archive.Document{
			Title:        doc.Title,
			Date:         doc.Date,
			URL:          doc.URL,
			DocumentType: doc.DocumentType,
			Summary:      summary,
			AIGenerated:  aiGenerated,
		}

		bucket, exists := batch[doc.GovernmentBody]
		if !exists {
			bucket = &archive.Bucket{Agendas: []archive.Document{}, Minutes: []archive.Document{}}
			batch[doc.GovernmentBody] = bucket
		}
		if doc.DocumentType == archive.TypeMinutes {
			bucket.Minutes = append(bucket.Minutes, record)
		} else {
			bucket.Agendas = append(bucket.Agendas, record)
		}
	}

	s.logger.Info().
		Int("documents", len(documents)).
		Int("bodies", len(batch)).
		Int("api_calls", s.calls).
		Msg("summarization complete")

	return batch
}

func (s *Summarizer) summarize(ctx context.Context, doc fetch.Document) (string, bool) {
	if !s.aiAvailable() {
		return fallbackSummary(doc), false
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return fallbackSummary(doc), false
	}
	s.calls++

	summary, err := s.completeChat(ctx, buildPrompt(doc))
	if err != nil {
		s.logger.Warn().Err(err).Str("title", doc.Title).Msg("AI summarization failed, using fallback")
		return fallbackSummary(doc), false
	}
	return summary, true
}

func (s *Summarizer) aiAvailable() bool {
	if !s.opts.UseAI || strings.TrimSpace(s.opts.APIKey) == "" {
		return false
	}
	return s.opts.MaxCallsPerRun <= 0 || s.calls < s.opts.MaxCallsPerRun
}

func buildPrompt(doc fetch.Document) string {
	var sb strings.Builder
	if doc.DocumentType == archive.TypeMinutes {
		fmt.Fprintf(&sb, "Summarize these %s meeting minutes. Cover decisions made, votes taken, and public comments.\n\n", doc.GovernmentBody)
	} else {
		fmt.Fprintf(&sb, "Summarize this %s meeting agenda. Cover the main items residents should know about.\n\n", doc.GovernmentBody)
	}
	sb.WriteString(truncate(doc.Content, 12000))
	return sb.String()
}

// fallbackSummary is extractive: the document's opening sentences plus any
// lines that look like agenda items or motions.
func fallbackSummary(doc fetch.Document) string {
	content := strings.TrimSpace(doc.Content)
	label := "agenda"
	if doc.DocumentType == archive.TypeMinutes {
		label = "minutes"
	}

	if content == "" {
		return fmt.Sprintf("%s %s for %s. Full text was not available for summarization.",
			strings.ToUpper(label[:1])+label[1:], titleOrDefault(doc), doc.GovernmentBody)
	}

	sentences := splitSentences(content)
	picked := sentences
	if len(picked) > 3 {
		picked = picked[:3]
	}

	keywords := extractKeyLines(content, 4)

	var sb strings.Builder
	fmt.Fprintf(&sb, "Summary of the %s %s: ", doc.GovernmentBody, label)
	sb.WriteString(strings.Join(picked, " "))
	if len(keywords) > 0 {
		sb.WriteString(" Key items: ")
		sb.WriteString(strings.Join(keywords, "; "))
		sb.WriteString(".")
	}
	return sb.String()
}

var keyItemMarkers = []string{
	"approve", "adopt", "resolution", "ordinance", "motion", "public hearing",
	"budget", "contract", "appeal", "permit", "vote",
}

func extractKeyLines(content string, limit int) []string {
	var out []string
	for _, line := range strings.Split(content, "\n") {
		clean := strings.TrimSpace(line)
		if clean == "" || len(clean) > 200 {
			continue
		}
		lower := strings.ToLower(clean)
		for _, marker := range keyItemMarkers {
			if strings.Contains(lower, marker) {
				out = append(out, clean)
				break
			}
		}
		if len(out) >= limit {
			break
		}
	}
	return out
}

func splitSentences(content string) []string {
	flat := strings.Join(strings.Fields(content), " ")
	var sentences []string
	start := 0
	for i := 0; i < len(flat); i++ {
		if flat[i] == '.' || flat[i] == '!' || flat[i] == '?' {
			sentence := strings.TrimSpace(flat[start : i+1])
			if len(sentence) > 2 {
				sentences = append(sentences, sentence)
			}
			start = i + 1
		}
	}
	if tail := strings.TrimSpace(flat[start:]); tail != "" {
		sentences = append(sentences, tail)
	}
	return sentences
}

func titleOrDefault(doc fetch.Document) string {
	if strings.TrimSpace(doc.Title) != "" {
		return doc.Title
	}
	return "document"
}

func truncate(value string, limit int) string {
	if len(value) <= limit {
		return value
	}
	// Back the cut off any multi-byte rune straddling the limit.
	cut := limit
	for cut > 0 && !utf8.RuneStart(value[cut]) {
		cut--
	}
	return value[:cut]
}
