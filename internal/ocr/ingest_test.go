package ocr

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/claimlens/claimlens/internal/model"
)

func TestReadDocument(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "denial_letter.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.4 fake"), 0o644); err != nil {
		t.Fatal(err)
	}

	doc, err := ReadDocument(path)
	if err != nil {
		t.Fatalf("ReadDocument: %v", err)
	}
	if doc.Name != "denial_letter.pdf" {
		t.Errorf("name = %q", doc.Name)
	}
	if doc.Format != model.FormatPDF {
		t.Errorf("format = %q, want pdf", doc.Format)
	}
	if doc.ID == "" {
		t.Error("expected a generated ID")
	}
	if doc.PageCount != 0 {
		t.Errorf("PDF page count = %d, want 0 until OCR resolves it", doc.PageCount)
	}
}

func TestReadDocument_ImageIsOnePage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "insurance_card.png")
	if err := os.WriteFile(path, []byte("png bytes"), 0o644); err != nil {
		t.Fatal(err)
	}

	doc, err := ReadDocument(path)
	if err != nil {
		t.Fatalf("ReadDocument: %v", err)
	}
	if doc.PageCount != 1 {
		t.Errorf("image page count = %d, want 1", doc.PageCount)
	}
}

func TestReadDocument_UnsupportedExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.docx")
	if err := os.WriteFile(path, []byte("word doc"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := ReadDocument(path); !errors.Is(err, model.ErrUnsupportedFormat) {
		t.Fatalf("err = %v, want ErrUnsupportedFormat", err)
	}
}

func TestReadDocument_Empty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.pdf")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := ReadDocument(path); !errors.Is(err, model.ErrUnsupportedFormat) {
		t.Fatalf("err = %v, want ErrUnsupportedFormat", err)
	}
}

func TestListDocuments(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.pdf", "a.png", "skip.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "nested"), 0o755); err != nil {
		t.Fatal(err)
	}

	paths, err := ListDocuments(dir)
	if err != nil {
		t.Fatalf("ListDocuments: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("paths = %v, want two supported files", paths)
	}
	if filepath.Base(paths[0]) != "a.png" || filepath.Base(paths[1]) != "b.pdf" {
		t.Errorf("expected sorted order, got %v", paths)
	}
}
