package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/claimlens/claimlens/internal/logger"
	"github.com/claimlens/claimlens/internal/model"
	"github.com/claimlens/claimlens/internal/ocr"
	"github.com/claimlens/claimlens/internal/pipeline"
)

var (
	workflowName string
	insurerName  string
	outJSON      string
	outMD        string
	timeout      time.Duration
	ocrEndpoint  string
	mockOCR      bool
	noCache      bool
	rulesDir     string
	llmProvider  string
	fastModel    string
	deepModel    string
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze <document>...",
	Short: "Analyze claim documents and generate a verdict",
	Long: `Analyze runs the full pipeline over one claim's documents:
- OCR the scanned documents (PDF, PNG, JPG, TIFF, BMP)
- Classify each document and extract its structured fields
- Evaluate the claim against the insurer's coverage rules
- Synthesize the verdict for the selected workflow

Workflows:
  pre_claim           risk check before the claim is submitted
  denial_explanation  plain-language explanation of a denial letter
  appeal_letter       draft appeal letter (requires the denial letter)

Example:
  claimlens analyze bill.pdf --workflow pre_claim --insurer "BlueCross PPO"
  claimlens analyze denial_letter.pdf bill.pdf --workflow appeal_letter --insurer "BlueCross PPO"
  claimlens analyze bill.pdf --mock-ocr --llm-provider ollama`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVar(&workflowName, "workflow", "pre_claim", "analysis workflow (pre_claim, denial_explanation, appeal_letter)")
	analyzeCmd.Flags().StringVar(&insurerName, "insurer", "", "insurer plan name for rule evaluation (e.g. \"BlueCross PPO\")")

	analyzeCmd.Flags().StringVar(&outJSON, "json", "report.json", "output JSON path")
	analyzeCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path (optional)")
	analyzeCmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "overall analysis timeout")

	analyzeCmd.Flags().StringVar(&ocrEndpoint, "ocr-endpoint", "", "OCR service URL (or CLAIMLENS_OCR_ENDPOINT)")
	analyzeCmd.Flags().BoolVar(&mockOCR, "mock-ocr", false, "use canned OCR fixtures instead of the service")
	analyzeCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the OCR result cache")
	analyzeCmd.Flags().StringVar(&rulesDir, "rules-dir", "configs/rules", "directory of insurer rule sets")

	analyzeCmd.Flags().StringVar(&llmProvider, "llm-provider", "openai", "LLM provider (openai, ollama)")
	analyzeCmd.Flags().StringVar(&fastModel, "extractor-model", "gpt-4o-mini", "model for classification and field extraction")
	analyzeCmd.Flags().StringVar(&deepModel, "reasoning-model", "gpt-4o", "model for verdict synthesis")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cfg, err := buildConfig()
	if err != nil {
		return err
	}
	logger.Init(cfg.LogLevel)

	workflow, err := model.ParseWorkflow(workflowName)
	if err != nil {
		return err
	}

	docs := make([]*model.Document, 0, len(args))
	for _, path := range args {
		doc, err := ocr.ReadDocument(path)
		if err != nil {
			return err
		}
		docs = append(docs, doc)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Analyzing %d document(s)\n", len(docs))
		fmt.Fprintf(os.Stderr, "Workflow: %s\n", workflow)
		if insurerName != "" {
			fmt.Fprintf(os.Stderr, "Insurer:  %s\n", insurerName)
		}
		fmt.Fprintln(os.Stderr)
	}

	p, err := pipeline.NewFromConfig(cfg)
	if err != nil {
		return err
	}

	result := p.Analyze(ctx, pipeline.Request{
		Documents: docs,
		Workflow:  workflow,
		Insurer:   insurerName,
	})

	renderer := pipeline.NewRenderer()
	if outJSON != "" {
		if err := renderer.RenderJSON(result, outJSON); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote JSON: %s\n", outJSON)
		}
	}
	if outMD != "" {
		if err := renderer.RenderMarkdown(result, outMD); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote Markdown: %s\n", outMD)
		}
	}
	renderer.RenderSummary(result)

	if result.Failed() {
		return fmt.Errorf("analysis failed at %s", result.FailedStage)
	}
	return nil
}

// buildConfig assembles runtime configuration from defaults, environment,
// and flags. API keys come from the environment only.
func buildConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()

	cfg.OCR.Mock = mockOCR
	if ocrEndpoint != "" {
		cfg.OCR.Endpoint = ocrEndpoint
	} else if env := os.Getenv("CLAIMLENS_OCR_ENDPOINT"); env != "" {
		cfg.OCR.Endpoint = env
	}
	cfg.Cache.Enabled = !noCache
	cfg.Rules.Dir = rulesDir
	cfg.Output.Verbose = verbose

	cfg.LLM.Provider = llmProvider
	cfg.LLM.ExtractorModel = fastModel
	cfg.LLM.ReasoningModel = deepModel

	switch llmProvider {
	case "openai":
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		if cfg.LLM.APIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
	case "ollama":
		// Ollama doesn't need an API key
		if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
			cfg.LLM.BaseURL = baseURL
		}
	}

	if verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}

// reportPaths derives per-document output paths inside the batch output dir
func reportPaths(dir, sourcePath string) (jsonPath, mdPath string) {
	base := filepath.Base(sourcePath)
	slug := base[:len(base)-len(filepath.Ext(base))]
	return filepath.Join(dir, slug+".json"), filepath.Join(dir, slug+".md")
}
