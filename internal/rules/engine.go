package rules

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/claimlens/claimlens/internal/model"
)

// Engine evaluates extracted records against insurer rule sets. Pure and
// deterministic: same (record, ruleset) always yields the same result, no
// external calls, no hidden state.
type Engine struct{}

// NewEngine creates a new rule engine
func NewEngine() *Engine {
	return &Engine{}
}

// Evaluate checks every rule against the record and aggregates a risk score
// in [0,100]. A missing or low-confidence field is "insufficient evidence" —
// a distinct state from explicitly violating a constraint. When two
// unsatisfied rules land on the same field, only the highest-severity one
// counts toward the score; both stay in the findings.
func (e *Engine) Evaluate(record *model.ExtractedRecord, ruleset *model.RuleSet) model.EvaluationResult {
	findings := make([]model.Finding, 0, len(ruleset.Rules))
	for _, rule := range ruleset.Rules {
		findings = append(findings, e.evaluateRule(record, rule))
	}

	markCounted(findings)

	var num, den float64
	for _, f := range findings {
		if !f.Counted {
			continue
		}
		den += float64(f.Rule.Severity)
		if !f.Satisfied {
			num += float64(f.Rule.Severity)
		}
	}

	score := 0
	if den > 0 {
		score = int(math.Round(100 * num / den))
	}

	return model.EvaluationResult{
		Insurer:   ruleset.Insurer,
		Findings:  findings,
		RiskScore: score,
	}
}

func (e *Engine) evaluateRule(record *model.ExtractedRecord, rule model.Rule) model.Finding {
	finding := model.Finding{Rule: rule, Counted: true}

	field, exists := record.Field(rule.Field)
	if !exists || field.Missing {
		finding.State = model.EvidenceInsufficient
		finding.Evidence = fmt.Sprintf("field %q not found in document", rule.Field)
		return finding
	}
	if !record.Reliable(rule.Field) {
		finding.State = model.EvidenceInsufficient
		finding.Evidence = fmt.Sprintf("field %q extracted with confidence %.2f, below threshold %.2f — requires human review",
			rule.Field, field.Confidence, record.ConfidenceThreshold)
		finding.Value = field.Value
		return finding
	}

	finding.Value = field.Value
	ok, detail := checkConstraint(rule, field.Value)
	if ok {
		finding.Satisfied = true
		finding.State = model.EvidenceSatisfied
		finding.Evidence = fmt.Sprintf("%q = %q (page %d: %q)", rule.Field, field.Value, field.Provenance.Page, field.Provenance.Quote)
	} else {
		finding.State = model.EvidenceViolation
		finding.Evidence = detail
	}
	return finding
}

// checkConstraint evaluates a rule's value constraint against a reliable
// field value. Presence-only rules always pass at this point.
func checkConstraint(rule model.Rule, value string) (bool, string) {
	switch rule.Constraint {
	case model.ConstraintNone:
		return true, ""

	case model.ConstraintEquals:
		if strings.EqualFold(value, rule.Value) {
			return true, ""
		}
		return false, fmt.Sprintf("%q is %q, required %q", rule.Field, value, rule.Value)

	case model.ConstraintOneOf:
		for _, v := range rule.Values {
			if strings.EqualFold(value, v) {
				return true, ""
			}
		}
		return false, fmt.Sprintf("%q is %q, not one of [%s]", rule.Field, value, strings.Join(rule.Values, ", "))

	case model.ConstraintMatches:
		// The pattern compiled at registry load; recompiling keeps Evaluate
		// free of shared state.
		re, err := regexp.Compile(rule.Value)
		if err != nil {
			return false, fmt.Sprintf("rule %s has an invalid pattern", rule.ID)
		}
		if re.MatchString(value) {
			return true, ""
		}
		return false, fmt.Sprintf("%q value %q does not match pattern %q", rule.Field, value, rule.Value)

	case model.ConstraintMin, model.ConstraintMax:
		got, err1 := parseAmount(value)
		limit, err2 := parseAmount(rule.Value)
		if err1 != nil || err2 != nil {
			return false, fmt.Sprintf("%q value %q is not a parseable amount", rule.Field, value)
		}
		if rule.Constraint == model.ConstraintMin && got < limit {
			return false, fmt.Sprintf("%q amount %.2f below minimum %.2f", rule.Field, got, limit)
		}
		if rule.Constraint == model.ConstraintMax && got > limit {
			return false, fmt.Sprintf("%q amount %.2f above maximum %.2f", rule.Field, got, limit)
		}
		return true, ""

	default:
		return false, fmt.Sprintf("rule %s has unknown constraint %q", rule.ID, rule.Constraint)
	}
}

// markCounted applies the same-field tie-break: among unsatisfied findings
// on one field, only the highest severity contributes to the score.
func markCounted(findings []model.Finding) {
	best := make(map[string]int) // field -> index of highest-severity unsatisfied finding
	for i, f := range findings {
		if f.Satisfied {
			continue
		}
		j, seen := best[f.Rule.Field]
		if !seen || f.Rule.Severity > findings[j].Rule.Severity {
			best[f.Rule.Field] = i
		}
	}
	for i := range findings {
		if findings[i].Satisfied {
			continue
		}
		if best[findings[i].Rule.Field] != i {
			findings[i].Counted = false
		}
	}
}

// parseAmount parses a monetary string, tolerating "$" and ","
func parseAmount(s string) (float64, error) {
	cleaned := strings.NewReplacer("$", "", ",", "", " ", "").Replace(s)
	return strconv.ParseFloat(cleaned, 64)
}
