// Package report renders and sends the consolidated email digest of one
// cycle's new summaries.
package report

import (
	"fmt"
	"html"
	"net/smtp"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/lcf-civic/civicsum/internal/archive"
	"github.com/lcf-civic/civicsum/internal/globaltime"
)

type Options struct {
	Server   string
	Port     int
	Username string
	Password string
	From     string
	To       string
	Enabled  bool
}

type Reporter struct {
	opts   Options
	logger zerolog.Logger
}

func New(logger zerolog.Logger, opts Options) *Reporter {
	return &Reporter{
		opts:   opts,
		logger: logger,
	}
}

// Send emails the digest for one cycle. Disabled or unconfigured reporters
// log and return nil; a delivery failure is returned but is never fatal to
// the cycle that produced the digest.
func (r *Reporter) Send(batch archive.Archive, result archive.CycleResult) error {
	if !r.opts.Enabled {
		r.logger.Info().Msg("email reporting disabled, skipping digest")
		return nil
	}
	if strings.TrimSpace(r.opts.From) == "" || strings.TrimSpace(r.opts.To) == "" {
		r.logger.Warn().Msg("email reporting enabled but sender/recipients not configured")
		return nil
	}

	subject := fmt.Sprintf("Civic Summaries Digest — %d new documents", result.NewDocuments)
	body := BuildHTML(batch, result, globaltime.Now())

	recipients := splitRecipients(r.opts.To)
	message := buildMessage(r.opts.From, recipients, subject, body)

	addr := fmt.Sprintf("%s:%d", r.opts.Server, r.opts.Port)
	var auth smtp.Auth
	if r.opts.Username != "" {
		auth = smtp.PlainAuth("", r.opts.Username, r.opts.Password, r.opts.Server)
	}

	if err := smtp.SendMail(addr, auth, r.opts.From, recipients, message); err != nil {
		return fmt.Errorf("send digest email: %w", err)
	}

	r.logger.Info().Int("recipients", len(recipients)).Msg("sent digest email")
	return nil
}

// BuildHTML renders the digest: new documents grouped by body, agendas then
// minutes, with summaries.
func BuildHTML(batch archive.Archive, result archive.CycleResult, now time.Time) string {
	var sb strings.Builder

	sb.WriteString("<html><body>")
	sb.WriteString("<h1>Civic Meeting Summaries</h1>")
	fmt.Fprintf(&sb, "<p>Generated %s — %d new documents this cycle.</p>",
		html.EscapeString(now.Format("January 2, 2006")), result.NewDocuments)

	bodies := make([]string, 0, len(batch))
	for name := range batch {
		bodies = append(bodies, name)
	}
	sort.Strings(bodies)

	for _, bodyName := range bodies {
		bucket := batch[bodyName]
		if bucket == nil || (len(bucket.Agendas) == 0 && len(bucket.Minutes) == 0) {
			continue
		}

		fmt.Fprintf(&sb, "<h2>%s</h2>", html.EscapeString(bodyName))
		writeSection(&sb, "Agendas", bucket.Agendas)
		writeSection(&sb, "Minutes", bucket.Minutes)
	}

	sb.WriteString("</body></html>")
	return sb.String()
}

func writeSection(sb *strings.Builder, heading string, docs []archive.Document) {
	if len(docs) == 0 {
		return
	}
	fmt.Fprintf(sb, "<h3>%s</h3>", heading)
	for _, doc := range docs {
		title := doc.Title
		if strings.TrimSpace(title) == "" {
			title = "Untitled"
		}
		fmt.Fprintf(sb, "<h4>%s", html.EscapeString(title))
		if doc.Date != "" {
			fmt.Fprintf(sb, " (%s)", html.EscapeString(doc.Date))
		}
		sb.WriteString("</h4>")
		fmt.Fprintf(sb, "<p>%s</p>", html.EscapeString(doc.Summary))
		if doc.URL != "" {
			fmt.Fprintf(sb, `<p><a href="%s">Source document</a></p>`, html.EscapeString(doc.URL))
		}
		if doc.AIGenerated {
			sb.WriteString("<p><em>Summary generated by AI.</em></p>")
		}
	}
}

func buildMessage(from string, to []string, subject, htmlBody string) []byte {
	var sb strings.Builder
	fmt.Fprintf(&sb, "From: %s\r\n", from)
	fmt.Fprintf(&sb, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&sb, "Subject: %s\r\n", subject)
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(htmlBody)
	return []byte(sb.String())
}

func splitRecipients(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if addr := strings.TrimSpace(part); addr != "" {
			out = append(out, addr)
		}
	}
	return out
}
