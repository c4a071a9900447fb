package rules

import (
	"reflect"
	"testing"

	"github.com/claimlens/claimlens/internal/model"
)

func recordWith(fields map[string]model.FieldValue) *model.ExtractedRecord {
	return &model.ExtractedRecord{
		DocumentID:          "doc-1",
		DocumentType:        model.DocTypeMedicalBill,
		Fields:              fields,
		ConfidenceThreshold: 0.60,
	}
}

func presentField(name, value string) model.FieldValue {
	return model.FieldValue{
		Name:       name,
		Type:       model.FieldTypeCode,
		Value:      value,
		Confidence: 0.95,
		Provenance: model.Provenance{Page: 0, Quote: name + ": " + value},
	}
}

func missingField(name string) model.FieldValue {
	return model.FieldValue{Name: name, Type: model.FieldTypeCode, Missing: true}
}

func presenceRule(id, field string, severity model.Severity) model.Rule {
	return model.Rule{ID: id, Field: field, Description: field + " required", Severity: severity}
}

func TestEvaluate_SpecScenario_OneSatisfiedOneInsufficient(t *testing.T) {
	engine := NewEngine()

	record := recordWith(map[string]model.FieldValue{
		"procedure_code": presentField("procedure_code", "99213"),
		"diagnosis_code": missingField("diagnosis_code"),
	})
	ruleset := &model.RuleSet{
		Insurer: "test_plan",
		Rules: []model.Rule{
			presenceRule("r1", "procedure_code", model.SeverityHigh),
			presenceRule("r2", "diagnosis_code", model.SeverityHigh),
		},
	}

	result := engine.Evaluate(record, ruleset)

	if len(result.Findings) != 2 {
		t.Fatalf("expected 2 findings, got %d", len(result.Findings))
	}
	if !result.Findings[0].Satisfied || result.Findings[0].State != model.EvidenceSatisfied {
		t.Errorf("procedure_code rule should be satisfied: %+v", result.Findings[0])
	}
	if result.Findings[1].Satisfied || result.Findings[1].State != model.EvidenceInsufficient {
		t.Errorf("missing diagnosis_code must be insufficient evidence, got %+v", result.Findings[1])
	}
	if result.RiskScore <= 0 {
		t.Errorf("expected risk score > 0, got %d", result.RiskScore)
	}
}

func TestEvaluate_MissingFieldNeverViolation(t *testing.T) {
	engine := NewEngine()

	record := recordWith(map[string]model.FieldValue{
		"denial_code": missingField("denial_code"),
	})
	ruleset := &model.RuleSet{
		Insurer: "test_plan",
		Rules: []model.Rule{
			{ID: "r1", Field: "denial_code", Constraint: model.ConstraintEquals, Value: "CO-50", Severity: model.SeverityHigh},
		},
	}

	result := engine.Evaluate(record, ruleset)
	if result.Findings[0].State != model.EvidenceInsufficient {
		t.Errorf("missing field with value constraint must be insufficient, got %s", result.Findings[0].State)
	}
}

func TestEvaluate_LowConfidenceIsInsufficientNotSatisfied(t *testing.T) {
	engine := NewEngine()

	shaky := presentField("procedure_code", "99213")
	shaky.Confidence = 0.30
	record := recordWith(map[string]model.FieldValue{"procedure_code": shaky})
	ruleset := &model.RuleSet{
		Insurer: "test_plan",
		Rules:   []model.Rule{presenceRule("r1", "procedure_code", model.SeverityModerate)},
	}

	result := engine.Evaluate(record, ruleset)
	f := result.Findings[0]
	if f.Satisfied {
		t.Error("low-confidence field must not auto-promote to satisfied")
	}
	if f.State != model.EvidenceInsufficient {
		t.Errorf("expected insufficient, got %s", f.State)
	}
	if f.Value != "99213" {
		t.Error("low-confidence value should still surface for review")
	}
}

func TestEvaluate_ConstraintViolation(t *testing.T) {
	engine := NewEngine()

	record := recordWith(map[string]model.FieldValue{
		"procedure_code": presentField("procedure_code", "70553"),
	})
	ruleset := &model.RuleSet{
		Insurer: "test_plan",
		Rules: []model.Rule{
			{ID: "r1", Field: "procedure_code", Constraint: model.ConstraintOneOf, Values: []string{"74160", "74170"}, Severity: model.SeverityHigh},
		},
	}

	result := engine.Evaluate(record, ruleset)
	if result.Findings[0].State != model.EvidenceViolation {
		t.Errorf("reliable value failing its constraint must be a violation, got %s", result.Findings[0].State)
	}
	if result.RiskScore != 100 {
		t.Errorf("single violated rule should score 100, got %d", result.RiskScore)
	}
}

func TestEvaluate_AmountConstraints(t *testing.T) {
	engine := NewEngine()

	record := recordWith(map[string]model.FieldValue{
		"amount_charged": presentField("amount_charged", "$1,775.00"),
	})
	ruleset := &model.RuleSet{
		Insurer: "test_plan",
		Rules: []model.Rule{
			{ID: "r1", Field: "amount_charged", Constraint: model.ConstraintMax, Value: "2000", Severity: model.SeverityLow},
			{ID: "r2", Field: "amount_charged", Constraint: model.ConstraintMax, Value: "1500", Severity: model.SeverityLow},
		},
	}

	result := engine.Evaluate(record, ruleset)
	if !result.Findings[0].Satisfied {
		t.Error("1775 under a 2000 cap should satisfy")
	}
	if result.Findings[1].Satisfied {
		t.Error("1775 over a 1500 cap should violate")
	}
}

func TestEvaluate_RiskScoreMonotonic(t *testing.T) {
	engine := NewEngine()

	record := recordWith(map[string]model.FieldValue{
		"procedure_code": presentField("procedure_code", "99213"),
	})

	base := &model.RuleSet{
		Insurer: "test_plan",
		Rules: []model.Rule{
			presenceRule("r1", "diagnosis_code", model.SeverityHigh), // unsatisfied
		},
	}
	baseScore := engine.Evaluate(record, base).RiskScore

	// Adding a satisfied rule never increases risk
	withSatisfied := &model.RuleSet{
		Insurer: "test_plan",
		Rules: append(append([]model.Rule{}, base.Rules...),
			presenceRule("r2", "procedure_code", model.SeverityHigh)),
	}
	if got := engine.Evaluate(record, withSatisfied).RiskScore; got > baseScore {
		t.Errorf("satisfied rule increased risk: %d -> %d", baseScore, got)
	}

	// Adding an unsatisfied rule never decreases risk
	withUnsatisfied := &model.RuleSet{
		Insurer: "test_plan",
		Rules: append(append([]model.Rule{}, withSatisfied.Rules...),
			presenceRule("r3", "member_id", model.SeverityModerate)),
	}
	midScore := engine.Evaluate(record, withSatisfied).RiskScore
	if got := engine.Evaluate(record, withUnsatisfied).RiskScore; got < midScore {
		t.Errorf("unsatisfied rule decreased risk: %d -> %d", midScore, got)
	}
}

func TestEvaluate_Deterministic(t *testing.T) {
	engine := NewEngine()

	record := recordWith(map[string]model.FieldValue{
		"procedure_code": presentField("procedure_code", "99213"),
		"diagnosis_code": missingField("diagnosis_code"),
	})
	ruleset := &model.RuleSet{
		Insurer: "test_plan",
		Rules: []model.Rule{
			presenceRule("r1", "procedure_code", model.SeverityHigh),
			presenceRule("r2", "diagnosis_code", model.SeveritySevere),
		},
	}

	first := engine.Evaluate(record, ruleset)
	for i := 0; i < 10; i++ {
		if got := engine.Evaluate(record, ruleset); !reflect.DeepEqual(first, got) {
			t.Fatalf("evaluation %d differs from first", i)
		}
	}
}

func TestEvaluate_SameFieldTieBreak(t *testing.T) {
	engine := NewEngine()

	record := recordWith(map[string]model.FieldValue{
		"denial_code": missingField("denial_code"),
	})
	ruleset := &model.RuleSet{
		Insurer: "test_plan",
		Rules: []model.Rule{
			{ID: "weak", Field: "denial_code", Severity: model.SeverityLow},
			{ID: "strong", Field: "denial_code", Severity: model.SeverityCritical},
		},
	}

	result := engine.Evaluate(record, ruleset)

	// Both findings present
	if len(result.Findings) != 2 {
		t.Fatalf("both conflicting findings must appear, got %d", len(result.Findings))
	}
	// Only the higher severity counts toward the score
	if result.Findings[0].Counted {
		t.Error("lower-severity finding should not be counted")
	}
	if !result.Findings[1].Counted {
		t.Error("higher-severity finding must be counted")
	}
	if result.RiskScore != 100 {
		t.Errorf("expected 100 (only the critical rule scored), got %d", result.RiskScore)
	}
}

func TestEvaluate_EmptyRuleSetScoresZero(t *testing.T) {
	engine := NewEngine()
	record := recordWith(map[string]model.FieldValue{})
	result := engine.Evaluate(record, &model.RuleSet{Insurer: "x"})
	if result.RiskScore != 0 {
		t.Errorf("no rules should score 0, got %d", result.RiskScore)
	}
}
