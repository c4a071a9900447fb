package model

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"
)

// Format identifies the declared on-disk format of an uploaded document
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
	FormatTIFF Format = "tiff"
	FormatBMP  Format = "bmp"
)

// FormatFromPath derives the document format from a file extension.
// Unsupported extensions return ErrUnsupportedFormat.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return FormatPDF, nil
	case ".png":
		return FormatPNG, nil
	case ".jpg", ".jpeg":
		return FormatJPEG, nil
	case ".tif", ".tiff":
		return FormatTIFF, nil
	case ".bmp":
		return FormatBMP, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// Document is an uploaded document: raw bytes plus declared type.
// Only PageCount changes after creation, once OCR resolves it.
type Document struct {
	ID        string `json:"id"`         // Analysis-scoped identifier
	Name      string `json:"name"`       // Original filename
	Format    Format `json:"format"`     // Declared format
	Bytes     []byte `json:"-"`          // Raw content (never serialized)
	PageCount int    `json:"page_count"` // Page count; 0 until OCR reports it (images are always 1)
}

// ContentHash returns the SHA-256 hex digest of the document bytes.
// Used as the extraction cache key so retries never repeat OCR work.
func (d *Document) ContentHash() string {
	sum := sha256.Sum256(d.Bytes)
	return hex.EncodeToString(sum[:])
}

// Page holds the OCR output for a single page
type Page struct {
	Index      int     `json:"index"`      // 0-based page index
	Text       string  `json:"text"`       // Raw text, empty for blank pages
	Confidence float64 `json:"confidence"` // Per-page OCR confidence [0,1]
}

// ExtractedText is the ordered per-page OCR output for one document.
// Produced once by the text extraction adapter; never mutated afterward.
type ExtractedText struct {
	DocumentID string `json:"document_id"`
	Pages      []Page `json:"pages"`
}

// PlainText joins all pages into a single string for downstream prompting
func (t *ExtractedText) PlainText() string {
	var b strings.Builder
	for i, p := range t.Pages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(p.Text)
	}
	return b.String()
}

// DocumentType classifies what kind of billing document this is
type DocumentType string

const (
	DocTypeDenialLetter     DocumentType = "denial_letter"
	DocTypeMedicalBill      DocumentType = "medical_bill"
	DocTypeDoctorNote       DocumentType = "doctor_note"
	DocTypeInsuranceCard    DocumentType = "insurance_card"
	DocTypePreAuthorization DocumentType = "pre_authorization"
	DocTypeUnknown          DocumentType = "unknown"
)

// KnownDocumentTypes lists every type the classifier may assign
var KnownDocumentTypes = []DocumentType{
	DocTypeDenialLetter,
	DocTypeMedicalBill,
	DocTypeDoctorNote,
	DocTypeInsuranceCard,
	DocTypePreAuthorization,
}
