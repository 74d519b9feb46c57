package notebook

import (
	"errors"
	"strings"
	"testing"

	"github.com/JupyterEverywhere/sharing-service-sub000/internal/domain/notebook"

	"github.com/gowebpki/jcs"
)

const minimalNotebook = `{"cells":[],"metadata":{},"nbformat":4,"nbformat_minor":5}`

const pythonNotebook = `{
  "nbformat": 4,
  "nbformat_minor": 5,
  "metadata": {
    "kernelspec": {"name": "python3", "display_name": "Python 3"},
    "language_info": {"name": "python", "version": "3.11.4", "file_extension": ".py"}
  },
  "cells": [
    {"id": "a1", "cell_type": "markdown", "metadata": {}, "source": ["# Title\n", "text"]},
    {"id": "b2", "cell_type": "code", "metadata": {}, "execution_count": 1, "source": "print(1)",
     "outputs": [{"output_type": "stream", "name": "stdout", "text": "1\n"}]}
  ]
}`

func newTestPipeline(t *testing.T, maxBytes int64) *Pipeline {
	t.Helper()
	schema, err := NewSchemaValidator()
	if err != nil {
		t.Fatalf("NewSchemaValidator failed: %v", err)
	}
	return NewPipeline(schema, maxBytes)
}

func TestPipeline_Accepts(t *testing.T) {
	p := newTestPipeline(t, 1<<20)

	checked, err := p.Check([]byte(minimalNotebook))
	if err != nil {
		t.Fatalf("minimal notebook rejected: %v", err)
	}
	if len(checked.Canonical) == 0 {
		t.Error("expected canonical bytes")
	}

	checked, err = p.Check([]byte(pythonNotebook))
	if err != nil {
		t.Fatalf("python notebook rejected: %v", err)
	}
	if checked.Metadata.LanguageInfo == nil || checked.Metadata.LanguageInfo.Name != "python" {
		t.Errorf("unexpected metadata: %+v", checked.Metadata)
	}
	if strings.Contains(string(checked.Canonical), "\n  ") {
		t.Error("canonical form should not keep indentation")
	}
}

func TestPipeline_Rejects(t *testing.T) {
	p := newTestPipeline(t, 1<<20)

	tests := []struct {
		name          string
		doc           string
		wantViolation bool
	}{
		{name: "missing cells", doc: `{"metadata":{},"nbformat":4,"nbformat_minor":5}`, wantViolation: true},
		{name: "wrong nbformat", doc: `{"cells":[],"metadata":{},"nbformat":3,"nbformat_minor":0}`, wantViolation: true},
		{name: "code cell without outputs", doc: `{"cells":[{"cell_type":"code","metadata":{},"source":"x","execution_count":null}],"metadata":{},"nbformat":4,"nbformat_minor":5}`, wantViolation: true},
		{name: "unknown cell type", doc: `{"cells":[{"cell_type":"widget","metadata":{},"source":""}],"metadata":{},"nbformat":4,"nbformat_minor":5}`, wantViolation: true},
		{name: "missing metadata", doc: `{"cells":[],"nbformat":4,"nbformat_minor":5}`},
		{name: "language without name", doc: `{"cells":[],"metadata":{"language_info":{"version":"3"}},"nbformat":4,"nbformat_minor":5}`},
		{name: "not json", doc: `{"cells":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Check([]byte(tt.doc))
			var invalid *notebook.InvalidNotebookError
			if !errors.As(err, &invalid) {
				t.Fatalf("expected InvalidNotebookError, got %v", err)
			}
			if tt.wantViolation && len(invalid.Violations) == 0 {
				t.Errorf("expected schema violations, got %+v", invalid)
			}
		})
	}
}

func TestPipeline_ViolationsCarryLocation(t *testing.T) {
	p := newTestPipeline(t, 1<<20)
	doc := `{"cells":[{"cell_type":"code","metadata":{},"source":"x","execution_count":null}],"metadata":{},"nbformat":4,"nbformat_minor":5}`

	_, err := p.Check([]byte(doc))
	var invalid *notebook.InvalidNotebookError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidNotebookError, got %v", err)
	}
	found := false
	for _, v := range invalid.Violations {
		if strings.HasPrefix(v, "/cells/0") && strings.Contains(v, "outputs") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a violation at /cells/0 naming outputs, got %v", invalid.Violations)
	}
}

func TestPipeline_SizeBoundary(t *testing.T) {
	canonical, err := jcs.Transform([]byte(pythonNotebook))
	if err != nil {
		t.Fatal(err)
	}
	size := int64(len(canonical))

	if _, err := newTestPipeline(t, size).Check([]byte(pythonNotebook)); err != nil {
		t.Errorf("document at exactly the limit rejected: %v", err)
	}

	_, err = newTestPipeline(t, size-1).Check([]byte(pythonNotebook))
	var tooLarge *notebook.TooLargeError
	if !errors.As(err, &tooLarge) {
		t.Fatalf("expected TooLargeError, got %v", err)
	}
	if tooLarge.Limit != size-1 || tooLarge.Size != size {
		t.Errorf("unexpected error detail: %+v", tooLarge)
	}
}

func TestPipeline_SizeCheckedBeforeSchema(t *testing.T) {
	oversizedInvalid := `{"metadata":{},"padding":"` + strings.Repeat("x", 256) + `"}`
	_, err := newTestPipeline(t, 64).Check([]byte(oversizedInvalid))
	var tooLarge *notebook.TooLargeError
	if !errors.As(err, &tooLarge) {
		t.Fatalf("expected TooLargeError before schema validation, got %v", err)
	}
}
