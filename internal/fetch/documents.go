package fetch

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/lcf-civic/civicsum/internal/globaltime"
)

const (
	MetadataFileName   = "document_metadata.json"
	ManualDownloadsDir = "manual_downloads"
)

// Metadata is the fetcher's handoff file to the summarizer.
type Metadata struct {
	FetchedAt string     `json:"fetched_at"`
	Documents []Document `json:"documents"`
}

// SaveMetadata writes the fetched document set into the data directory.
func SaveMetadata(dataDir string, documents []Document, logger zerolog.Logger) error {
	metadata := Metadata{
		FetchedAt: globaltime.ISO(),
		Documents: documents,
	}
	data, err := json.MarshalIndent(metadata, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal document metadata: %w", err)
	}
	path := filepath.Join(dataDir, MetadataFileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write document metadata: %w", err)
	}
	logger.Info().Int("documents", len(documents)).Str("file", path).Msg("saved document metadata")
	return nil
}

// LoadMetadata reads the fetcher's handoff file. A missing file is an empty
// document set, not an error.
func LoadMetadata(dataDir string, logger zerolog.Logger) (Metadata, error) {
	raw, err := os.ReadFile(filepath.Join(dataDir, MetadataFileName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Warn().Msg("no document metadata file found")
			return Metadata{Documents: []Document{}}, nil
		}
		return Metadata{}, fmt.Errorf("read document metadata: %w", err)
	}

	var metadata Metadata
	if err := json.Unmarshal(raw, &metadata); err != nil {
		return Metadata{}, fmt.Errorf("parse document metadata: %w", err)
	}
	return metadata, nil
}

// ScanManualDownloads picks up pre-extracted text files dropped into the
// manual downloads directory. File names follow
// "<body>__<type>__<date>.txt" with underscores for spaces in the body name.
func ScanManualDownloads(dataDir string, bodies []string, logger zerolog.Logger) ([]Document, error) {
	dir := filepath.Join(dataDir, ManualDownloadsDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read manual downloads: %w", err)
	}

	var documents []Document
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(strings.ToLower(entry.Name()), ".txt") {
			continue
		}

		doc, ok := parseManualFileName(entry.Name(), bodies)
		if !ok {
			logger.Warn().Str("file", entry.Name()).Msg("skipping unrecognized manual download")
			continue
		}

		content, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			logger.Warn().Err(err).Str("file", entry.Name()).Msg("failed to read manual download")
			continue
		}

		doc.Content = CleanText(string(content))
		documents = append(documents, doc)
	}

	if len(documents) > 0 {
		logger.Info().Int("documents", len(documents)).Msg("picked up manual downloads")
	}
	return documents, nil
}

func parseManualFileName(name string, bodies []string) (Document, bool) {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	parts := strings.Split(stem, "__")
	if len(parts) < 2 {
		return Document{}, false
	}

	bodySlug := strings.ReplaceAll(parts[0], "_", " ")
	var body string
	for _, candidate := range bodies {
		if strings.EqualFold(candidate, bodySlug) {
			body = candidate
			break
		}
	}
	if body == "" {
		return Document{}, false
	}

	docType := strings.ToLower(parts[1])
	if docType != "agenda" && docType != "minutes" {
		return Document{}, false
	}

	date := ""
	if len(parts) >= 3 {
		date = isoDatePattern.FindString(parts[2])
	}

	label := "Agenda"
	if docType == "minutes" {
		label = "Minutes"
	}

	return Document{
		GovernmentBody: body,
		DocumentType:   docType,
		Date:           date,
		Title:          fmt.Sprintf("%s Meeting %s", body, label),
		Manual:         true,
	}, true
}
