package validator

import (
	"strings"
	"testing"

	"github.com/nishanth-tharma/vector-retrieval-platform/internal/ingestion"
)

func TestValidRequest(t *testing.T) {
	req := &ingestion.IngestRequest{Title: "a title", Body: "some body text"}
	if err := ValidateIngestRequest(req); err != nil {
		t.Errorf("valid request rejected: %v", err)
	}
}

func TestMissingFields(t *testing.T) {
	req := &ingestion.IngestRequest{Title: "   ", Body: ""}
	err := ValidateIngestRequest(req)
	if err == nil {
		t.Fatal("expected validation error")
	}
	verr, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("error type %T, want *ValidationError", err)
	}
	if _, ok := verr.Fields["title"]; !ok {
		t.Error("missing title error")
	}
	if _, ok := verr.Fields["body"]; !ok {
		t.Error("missing body error")
	}
}

func TestOversizedTitle(t *testing.T) {
	req := &ingestion.IngestRequest{
		Title: strings.Repeat("x", maxTitleLength+1),
		Body:  "body",
	}
	err := ValidateIngestRequest(req)
	if err == nil {
		t.Fatal("expected validation error for oversized title")
	}
}
