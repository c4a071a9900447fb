package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/claimlens/claimlens/internal/model"
)

// Renderer writes an analysis result to disk and prints a short summary
type Renderer struct{}

func NewRenderer() *Renderer {
	return &Renderer{}
}

// RenderJSON writes the full result as indented JSON
func (r *Renderer) RenderJSON(result *model.AnalysisResult, path string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	return os.WriteFile(path, data, 0o644)
}

// RenderMarkdown writes a human-readable report
func (r *Renderer) RenderMarkdown(result *model.AnalysisResult, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	return os.WriteFile(path, []byte(r.Markdown(result)), 0o644)
}

// Markdown builds the report body
func (r *Renderer) Markdown(result *model.AnalysisResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Claim Analysis %s\n\n", result.ID)
	fmt.Fprintf(&b, "- **Workflow:** %s\n", result.Workflow)
	if result.Insurer != "" {
		fmt.Fprintf(&b, "- **Insurer:** %s\n", result.Insurer)
	}
	fmt.Fprintf(&b, "- **Started:** %s\n", result.StartedAt.Format("2006-01-02 15:04:05 UTC"))

	if result.Failed() {
		fmt.Fprintf(&b, "- **Status:** failed at %s\n", result.FailedStage)
		fmt.Fprintf(&b, "- **Cause:** %s\n", result.FailureCause)
	} else {
		b.WriteString("- **Status:** complete\n")
	}
	b.WriteString("\n## Documents\n\n")
	for _, d := range result.Documents {
		line := fmt.Sprintf("- %s (%s", d.Name, d.Format)
		if d.PageCount > 0 {
			line += fmt.Sprintf(", %d page(s)", d.PageCount)
		}
		if d.Type != "" {
			line += fmt.Sprintf(", classified as %s", d.Type)
		}
		b.WriteString(line + ")\n")
	}

	if len(result.Records) > 0 {
		b.WriteString("\n## Extracted Fields\n\n")
		b.WriteString("| Field | Value | Confidence |\n")
		b.WriteString("|-------|-------|------------|\n")
		for _, rec := range result.Records {
			for _, name := range rec.FieldNames() {
				f, _ := rec.Field(name)
				value := f.Value
				if f.Missing {
					value = "_missing_"
				}
				fmt.Fprintf(&b, "| %s | %s | %.2f |\n", name, value, f.Confidence)
			}
		}
	}

	if result.Evaluation != nil {
		fmt.Fprintf(&b, "\n## Coverage Evaluation\n\nRisk score: **%d/100**\n\n", result.Evaluation.RiskScore)
		for _, f := range result.Evaluation.Findings {
			marker := "✓"
			if !f.Satisfied {
				marker = "✗"
			}
			fmt.Fprintf(&b, "- %s [%s] %s\n", marker, f.Rule.ID, f.Evidence)
		}
	}

	if result.Verdict != nil {
		b.WriteString("\n## Verdict\n\n")
		if result.Verdict.Degraded {
			b.WriteString("> Generated from extracted data only; the reasoning service was unavailable.\n\n")
		}
		b.WriteString(result.Verdict.Content)
		b.WriteString("\n")
	}

	return b.String()
}

// RenderSummary prints a one-screen status to stderr, keeping stdout clean
// for piped JSON.
func (r *Renderer) RenderSummary(result *model.AnalysisResult) {
	fmt.Fprintln(os.Stderr)
	if result.Failed() {
		fmt.Fprintf(os.Stderr, "✗ Analysis %s failed at %s\n", result.ID, result.FailedStage)
		fmt.Fprintf(os.Stderr, "  %s\n", result.FailureCause)
		fmt.Fprintf(os.Stderr, "  Completed through: %s\n", result.CompletedStage)
	} else {
		fmt.Fprintf(os.Stderr, "✓ Analysis %s complete (%s)\n", result.ID, result.Workflow)
	}
	if result.Evaluation != nil {
		fmt.Fprintf(os.Stderr, "  Risk score: %d/100 (%d of %d requirements unsatisfied)\n",
			result.Evaluation.RiskScore, result.Evaluation.Unsatisfied(), len(result.Evaluation.Findings))
	}
	if result.Verdict != nil && result.Verdict.Degraded {
		fmt.Fprintln(os.Stderr, "  Verdict degraded to template output after reasoning failures")
	}
	fmt.Fprintln(os.Stderr)
}
