//go:build integration

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shelfmark/shelfmark/pkg/document"
	"github.com/shelfmark/shelfmark/pkg/geometry"
	"github.com/shelfmark/shelfmark/pkg/models"
	"github.com/shelfmark/shelfmark/pkg/service"
)

func TestEndToEnd(t *testing.T) {
	if os.Getenv("RUN_INTEGRATION_TESTS") == "" {
		t.Skip("Skipping integration test. Set RUN_INTEGRATION_TESTS=1 to run.")
	}

	tmpDir := t.TempDir()

	sess := service.New(service.Config{
		CachePath: filepath.Join(tmpDir, "cache.db"),
	})
	sess.SetTitle("Coleoptera of Europe")
	sess.SetSection("Cabinet 4")

	cabinet, err := sess.NewNode(models.RootID, "1", "Insects")
	if err != nil {
		t.Fatalf("Failed to create level 1 node: %v", err)
	}
	if _, err := sess.NewNode(cabinet, "2", "Beetles"); err != nil {
		t.Fatalf("Failed to create level 2 node: %v", err)
	}

	// Save the document and read it back.
	docPath := filepath.Join(tmpDir, "label.yaml")
	if err := sess.Document().Save(docPath); err != nil {
		t.Fatalf("Failed to save document: %v", err)
	}
	doc, err := document.Load(docPath)
	if err != nil {
		t.Fatalf("Failed to reload document: %v", err)
	}
	if doc.Title != "Coleoptera of Europe" {
		t.Errorf("Expected reloaded title, got %q", doc.Title)
	}

	// Export to PDF.
	page, err := geometry.Preset("a4-portrait")
	if err != nil {
		t.Fatalf("Failed to resolve page size: %v", err)
	}
	pdfPath := filepath.Join(tmpDir, "label.pdf")
	if err := sess.ExportPDF(pdfPath, "classic", page); err != nil {
		t.Fatalf("Failed to export PDF: %v", err)
	}
	if fi, err := os.Stat(pdfPath); err != nil || fi.Size() == 0 {
		t.Fatalf("Expected a non-empty PDF at %s", pdfPath)
	}

	// Flush the cache and confirm a fresh session sees the history.
	if err := sess.SaveCache(); err != nil {
		t.Fatalf("Failed to save cache: %v", err)
	}
	next := service.New(service.Config{CachePath: filepath.Join(tmpDir, "cache.db")})
	if got := next.Suggest(models.RootID, "0"); len(got) == 0 || got[0].Code != "01" {
		t.Errorf("Expected cached suggestion 01, got %v", got)
	}

	t.Logf("Successfully completed end-to-end test")
}
