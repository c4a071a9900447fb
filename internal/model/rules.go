package model

// Severity weights a rule's contribution to the risk score (1 = minor,
// 5 = near-certain denial if unsatisfied)
type Severity int

const (
	SeverityLow      Severity = 1
	SeverityModerate Severity = 2
	SeverityHigh     Severity = 3
	SeveritySevere   Severity = 4
	SeverityCritical Severity = 5
)

// ConstraintKind selects how a rule's value constraint is evaluated
type ConstraintKind string

const (
	ConstraintNone    ConstraintKind = ""        // Presence-only rule
	ConstraintEquals  ConstraintKind = "equals"  // Exact match
	ConstraintOneOf   ConstraintKind = "one_of"  // Membership in a value list
	ConstraintMatches ConstraintKind = "matches" // Regular expression
	ConstraintMin     ConstraintKind = "min"     // Amount lower bound
	ConstraintMax     ConstraintKind = "max"     // Amount upper bound
)

// Rule is one coverage requirement: the named field must be present and,
// if a constraint is set, satisfy it.
type Rule struct {
	ID          string         `yaml:"id" json:"id"`
	Field       string         `yaml:"field" json:"field"`
	Description string         `yaml:"description" json:"description"`
	Constraint  ConstraintKind `yaml:"constraint,omitempty" json:"constraint,omitempty"`
	Value       string         `yaml:"value,omitempty" json:"value,omitempty"`
	Values      []string       `yaml:"values,omitempty" json:"values,omitempty"`
	Severity    Severity       `yaml:"severity" json:"severity"`
}

// RuleSet is a named insurer's coverage requirements. Read-only at runtime.
type RuleSet struct {
	Insurer string `yaml:"insurer" json:"insurer"`
	Plan    string `yaml:"plan,omitempty" json:"plan,omitempty"`
	Rules   []Rule `yaml:"rules" json:"rules"`
}

// EvidenceState distinguishes why a rule is unsatisfied
type EvidenceState string

const (
	// EvidenceSatisfied: field present, reliable, constraint holds
	EvidenceSatisfied EvidenceState = "satisfied"
	// EvidenceInsufficient: field missing or below the confidence threshold
	EvidenceInsufficient EvidenceState = "insufficient"
	// EvidenceViolation: field present and reliable but the constraint fails
	EvidenceViolation EvidenceState = "violation"
)

// Finding is one rule's evaluation outcome with its supporting evidence
type Finding struct {
	Rule      Rule          `json:"rule"`
	Satisfied bool          `json:"satisfied"`
	State     EvidenceState `json:"state"`
	Evidence  string        `json:"evidence"`           // Human-readable basis for the outcome
	Value     string        `json:"value,omitempty"`    // Observed field value, when present
	Counted   bool          `json:"counted"`            // Whether this finding contributes to the score
}

// EvaluationResult is the rule engine's output: ordered findings plus an
// aggregate risk score in [0,100]. Deterministic for fixed inputs.
type EvaluationResult struct {
	Insurer   string    `json:"insurer"`
	Findings  []Finding `json:"findings"`
	RiskScore int       `json:"risk_score"` // 0 = every rule satisfied, 100 = none
}

// Unsatisfied counts findings that are not satisfied
func (e *EvaluationResult) Unsatisfied() int {
	n := 0
	for _, f := range e.Findings {
		if !f.Satisfied {
			n++
		}
	}
	return n
}

// MissingRequirements lists descriptions of unsatisfied rules, in rule order
func (e *EvaluationResult) MissingRequirements() []string {
	var out []string
	for _, f := range e.Findings {
		if !f.Satisfied {
			out = append(out, f.Rule.Description)
		}
	}
	return out
}
