package extract

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/claimlens/claimlens/internal/model"
)

// FieldSpec declares one expected field: name, value type, and whether the
// document type normally carries it.
type FieldSpec struct {
	Name        string
	Type        model.FieldType
	Description string
	Required    bool // The document type always carries this field
}

// FieldSchema enumerates the fields extracted for one document type
type FieldSchema struct {
	DocumentType model.DocumentType
	Fields       []FieldSpec
}

var schemas = map[model.DocumentType]FieldSchema{
	model.DocTypeDenialLetter: {
		DocumentType: model.DocTypeDenialLetter,
		Fields: []FieldSpec{
			{Name: "patient_name", Type: model.FieldTypeString, Description: "Patient full name"},
			{Name: "member_id", Type: model.FieldTypeCode, Description: "Insurance member ID"},
			{Name: "claim_number", Type: model.FieldTypeCode, Description: "Claim number", Required: true},
			{Name: "procedure_code", Type: model.FieldTypeCode, Description: "CPT procedure code"},
			{Name: "denial_code", Type: model.FieldTypeCode, Description: "Insurer denial code, e.g. CO-50", Required: true},
			{Name: "denial_reason", Type: model.FieldTypeString, Description: "Stated reason for the denial", Required: true},
			{Name: "date_of_service", Type: model.FieldTypeDate, Description: "Date of service"},
			{Name: "appeal_deadline", Type: model.FieldTypeString, Description: "Deadline to file an appeal"},
		},
	},
	model.DocTypeMedicalBill: {
		DocumentType: model.DocTypeMedicalBill,
		Fields: []FieldSpec{
			{Name: "patient_name", Type: model.FieldTypeString, Description: "Patient full name", Required: true},
			{Name: "provider", Type: model.FieldTypeString, Description: "Billing provider name"},
			{Name: "date_of_service", Type: model.FieldTypeDate, Description: "Date of service"},
			{Name: "procedure_code", Type: model.FieldTypeCode, Description: "CPT procedure code", Required: true},
			{Name: "diagnosis_code", Type: model.FieldTypeCode, Description: "ICD-10 diagnosis code"},
			{Name: "amount_charged", Type: model.FieldTypeAmount, Description: "Amount charged", Required: true},
			{Name: "billing_id", Type: model.FieldTypeCode, Description: "Billing identifier"},
			{Name: "member_id", Type: model.FieldTypeCode, Description: "Insurance member ID"},
		},
	},
	model.DocTypeDoctorNote: {
		DocumentType: model.DocTypeDoctorNote,
		Fields: []FieldSpec{
			{Name: "patient_name", Type: model.FieldTypeString, Description: "Patient full name", Required: true},
			{Name: "physician", Type: model.FieldTypeString, Description: "Physician name", Required: true},
			{Name: "date", Type: model.FieldTypeDate, Description: "Consultation date"},
			{Name: "procedure_code", Type: model.FieldTypeCode, Description: "Ordered CPT procedure code"},
			{Name: "diagnosis_code", Type: model.FieldTypeCode, Description: "ICD-10 diagnosis code"},
			{Name: "medical_necessity", Type: model.FieldTypeString, Description: "Stated medical necessity"},
		},
	},
	model.DocTypeInsuranceCard: {
		DocumentType: model.DocTypeInsuranceCard,
		Fields: []FieldSpec{
			{Name: "member_name", Type: model.FieldTypeString, Description: "Member name"},
			{Name: "member_id", Type: model.FieldTypeCode, Description: "Member ID", Required: true},
			{Name: "group_number", Type: model.FieldTypeCode, Description: "Group number"},
			{Name: "plan_name", Type: model.FieldTypeString, Description: "Plan name", Required: true},
			{Name: "effective_date", Type: model.FieldTypeDate, Description: "Coverage effective date"},
		},
	},
	model.DocTypePreAuthorization: {
		DocumentType: model.DocTypePreAuthorization,
		Fields: []FieldSpec{
			{Name: "patient_name", Type: model.FieldTypeString, Description: "Patient full name"},
			{Name: "member_id", Type: model.FieldTypeCode, Description: "Member ID"},
			{Name: "authorization_number", Type: model.FieldTypeCode, Description: "Authorization number", Required: true},
			{Name: "procedure_code", Type: model.FieldTypeCode, Description: "Approved CPT procedure code"},
			{Name: "authorized_date_of_service", Type: model.FieldTypeDate, Description: "Authorized date of service"},
			{Name: "valid_through", Type: model.FieldTypeDate, Description: "Authorization expiry"},
			{Name: "status", Type: model.FieldTypeString, Description: "Authorization status", Required: true},
		},
	},
	// Fallback for documents the classifier could not place
	model.DocTypeUnknown: {
		DocumentType: model.DocTypeUnknown,
		Fields: []FieldSpec{
			{Name: "patient_name", Type: model.FieldTypeString, Description: "Patient full name"},
			{Name: "member_id", Type: model.FieldTypeCode, Description: "Insurance member ID"},
			{Name: "procedure_code", Type: model.FieldTypeCode, Description: "CPT procedure code"},
			{Name: "diagnosis_code", Type: model.FieldTypeCode, Description: "ICD-10 diagnosis code"},
			{Name: "date_of_service", Type: model.FieldTypeDate, Description: "Date of service"},
			{Name: "amount_charged", Type: model.FieldTypeAmount, Description: "Amount charged"},
		},
	},
}

// SchemaFor returns the field schema for a document type
func SchemaFor(docType model.DocumentType) FieldSchema {
	if s, ok := schemas[docType]; ok {
		return s
	}
	return schemas[model.DocTypeUnknown]
}

// jsonSchemaFor builds the JSON schema the model's output must satisfy:
// every declared field maps to {value, confidence, page, quote} where value
// is null when the source carries no evidence.
func jsonSchemaFor(schema FieldSchema) map[string]any {
	properties := map[string]any{}
	for _, f := range schema.Fields {
		properties[f.Name] = map[string]any{
			"type": "object",
			"properties": map[string]any{
				"value":      map[string]any{"type": []string{"string", "null"}},
				"confidence": map[string]any{"type": "number", "minimum": 0, "maximum": 1},
				"page":       map[string]any{"type": "integer", "minimum": 0},
				"quote":      map[string]any{"type": "string"},
			},
			"required": []string{"value", "confidence"},
		}
	}
	return map[string]any{
		"type":                 "object",
		"properties":           properties,
		"additionalProperties": false,
	}
}

// validateAgainstSchema validates the model's JSON output against the field
// schema before any value is accepted into a record.
func validateAgainstSchema(schema FieldSchema, data []byte) error {
	schemaBytes, err := json.Marshal(jsonSchemaFor(schema))
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(schemaBytes)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	compiled, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}

	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal extraction output: %w", err)
	}
	if err := compiled.Validate(v); err != nil {
		return fmt.Errorf("extraction output does not match schema: %w", err)
	}
	return nil
}
