package model

import "sort"

// FieldType constrains how a field value is interpreted
type FieldType string

const (
	FieldTypeString FieldType = "string"
	FieldTypeCode   FieldType = "code"   // CPT, ICD-10, denial codes
	FieldTypeDate   FieldType = "date"   // ISO 8601 date
	FieldTypeAmount FieldType = "amount" // Monetary amount, decimal string
)

// Provenance points a derived value back to its source evidence
type Provenance struct {
	Page  int    `json:"page"`            // 0-based page the value came from
	Quote string `json:"quote,omitempty"` // Verbatim source snippet
}

// FieldValue is one extracted field: value-or-missing plus confidence and
// provenance. A missing field is an explicit marker, never invented content.
type FieldValue struct {
	Name       string     `json:"name"`
	Type       FieldType  `json:"type"`
	Value      string     `json:"value,omitempty"`
	Missing    bool       `json:"missing"`
	Confidence float64    `json:"confidence"`
	Provenance Provenance `json:"provenance"`
}

// ExtractedRecord maps field names to typed, provenance-tagged values.
// Immutable once produced by the field extractor.
type ExtractedRecord struct {
	DocumentID          string                `json:"document_id"`
	DocumentType        DocumentType          `json:"document_type"`
	Fields              map[string]FieldValue `json:"fields"`
	ConfidenceThreshold float64               `json:"confidence_threshold"`
}

// Field returns the named field and whether it exists in the record at all
func (r *ExtractedRecord) Field(name string) (FieldValue, bool) {
	f, ok := r.Fields[name]
	return f, ok
}

// Present reports whether the field was found in the source text
func (r *ExtractedRecord) Present(name string) bool {
	f, ok := r.Fields[name]
	return ok && !f.Missing
}

// Reliable reports whether the field is present and at or above the
// confidence threshold. Low-confidence values are kept but never treated
// as evidence.
func (r *ExtractedRecord) Reliable(name string) bool {
	f, ok := r.Fields[name]
	return ok && !f.Missing && f.Confidence >= r.ConfidenceThreshold
}

// LowConfidenceFields lists present fields below the confidence threshold,
// sorted by name for deterministic output.
func (r *ExtractedRecord) LowConfidenceFields() []string {
	var names []string
	for name, f := range r.Fields {
		if !f.Missing && f.Confidence < r.ConfidenceThreshold {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// FieldNames lists every field name in the record, sorted
func (r *ExtractedRecord) FieldNames() []string {
	names := make([]string, 0, len(r.Fields))
	for name := range r.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
