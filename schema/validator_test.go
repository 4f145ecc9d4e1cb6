package batchschema

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestValidateBatch_Valid(t *testing.T) {
	payload := json.RawMessage(`{
		"City Council": {
			"agendas": [{
				"title": "City Council Agenda",
				"date": "2025-07-01",
				"url": "https://lcf.ca.gov/agendas/cc.pdf",
				"document_type": "agenda",
				"summary": "Budget hearing and two ordinances.",
				"ai_generated": true
			}],
			"minutes": []
		}
	}`)

	if err := ValidateBatch(payload); err != nil {
		t.Fatalf("expected payload to be valid, got error: %v", err)
	}
}

func TestValidateBatch_EmptyObject(t *testing.T) {
	if err := ValidateBatch(json.RawMessage(`{}`)); err != nil {
		t.Fatalf("expected empty batch to be valid, got error: %v", err)
	}
}

func TestValidateBatch_RootMustBeObject(t *testing.T) {
	err := ValidateBatch(json.RawMessage(`[{"title": "not a batch"}]`))
	if err == nil {
		t.Fatalf("expected validation to fail for array root")
	}
	if !strings.Contains(err.Error(), "schema validation failed") {
		t.Fatalf("expected schema error, got: %v", err)
	}
}

func TestValidateBatch_NullBucket(t *testing.T) {
	err := ValidateBatch(json.RawMessage(`{"City Council": null}`))
	if err == nil {
		t.Fatalf("expected validation to fail for null body bucket")
	}
}

func TestValidateBatch_WrongFieldType(t *testing.T) {
	payload := json.RawMessage(`{
		"City Council": {
			"agendas": [{"title": 5, "date": "2025-07-01"}]
		}
	}`)

	if err := ValidateBatch(payload); err == nil {
		t.Fatalf("expected validation to fail for non-string title")
	}
}

func TestValidateBatch_EmptyPayload(t *testing.T) {
	err := ValidateBatch(json.RawMessage(`  `))
	if err == nil {
		t.Fatalf("expected validation to fail for empty payload")
	}
	if !strings.Contains(err.Error(), "payload is empty") {
		t.Fatalf("expected empty payload error, got: %v", err)
	}
}

func TestValidateBatch_TrailingContent(t *testing.T) {
	err := ValidateBatch(json.RawMessage(`{} {}`))
	if err == nil {
		t.Fatalf("expected validation to fail for trailing content")
	}
	if !strings.Contains(err.Error(), "trailing content") {
		t.Fatalf("expected trailing content error, got: %v", err)
	}
}

func TestValidateBatch_MalformedJSON(t *testing.T) {
	if err := ValidateBatch(json.RawMessage(`{"City Council":`)); err == nil {
		t.Fatalf("expected validation to fail for malformed JSON")
	}
}
