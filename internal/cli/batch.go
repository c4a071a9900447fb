package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/claimlens/claimlens/internal/logger"
	"github.com/claimlens/claimlens/internal/model"
	"github.com/claimlens/claimlens/internal/pipeline"
	"github.com/claimlens/claimlens/internal/worker"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <dir>",
	Short: "Analyze every document in a directory in parallel",
	Long: `Batch analyzes each supported document under a directory as its own
claim, in parallel, and writes one report pair per document.

Calls to the OCR and language-model services are rate limited per host so a
large batch never floods them.

Example:
  claimlens batch ./inbox --workflow pre_claim --insurer "BlueCross PPO"
  claimlens batch ./inbox --concurrency 8 --output-dir ./reports`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", 4, "number of concurrent analyses")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./claimlens-reports", "output directory for reports")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 30*time.Minute, "total timeout for the batch")

	batchCmd.Flags().StringVar(&workflowName, "workflow", "pre_claim", "analysis workflow for every document")
	batchCmd.Flags().StringVar(&insurerName, "insurer", "", "insurer plan name for rule evaluation")
	batchCmd.Flags().StringVar(&ocrEndpoint, "ocr-endpoint", "", "OCR service URL (or CLAIMLENS_OCR_ENDPOINT)")
	batchCmd.Flags().BoolVar(&mockOCR, "mock-ocr", false, "use canned OCR fixtures instead of the service")
	batchCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the OCR result cache")
	batchCmd.Flags().StringVar(&rulesDir, "rules-dir", "configs/rules", "directory of insurer rule sets")
	batchCmd.Flags().StringVar(&llmProvider, "llm-provider", "openai", "LLM provider (openai, ollama)")
	batchCmd.Flags().StringVar(&fastModel, "extractor-model", "gpt-4o-mini", "model for classification and field extraction")
	batchCmd.Flags().StringVar(&deepModel, "reasoning-model", "gpt-4o", "model for verdict synthesis")
}

func runBatch(cmd *cobra.Command, args []string) error {
	dir := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	cfg, err := buildConfig()
	if err != nil {
		return err
	}
	cfg.Concurrency.Workers = concurrency
	logger.Init(cfg.LogLevel)

	workflow, err := model.ParseWorkflow(workflowName)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  ClaimLens Batch Processing\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input dir:    %s\n", dir)
	fmt.Fprintf(os.Stderr, "  Workflow:     %s\n", workflow)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", concurrency)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	fmt.Fprintf(os.Stderr, "\n")

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	p, err := pipeline.NewFromConfig(cfg)
	if err != nil {
		return err
	}

	// Rate-gate the upstream services shared by every worker
	limiter := worker.NewLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.BurstSize)
	var endpoints []string
	if !cfg.OCR.Mock && cfg.OCR.Endpoint != "" {
		endpoints = append(endpoints, cfg.OCR.Endpoint)
	}
	if cfg.LLM.BaseURL != "" {
		endpoints = append(endpoints, cfg.LLM.BaseURL)
	}

	processor := worker.NewBatchProcessor(p, concurrency, limiter, endpoints...)

	fmt.Fprintf(os.Stderr, "⚙️  Processing documents with %d workers...\n\n", concurrency)
	results, err := processor.ProcessDir(ctx, dir, workflow, insurerName)
	if err != nil {
		return fmt.Errorf("process directory: %w", err)
	}

	renderer := pipeline.NewRenderer()
	successCount := 0
	failureCount := 0
	for _, result := range results {
		if result.Error != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", result.Path, result.Error)
			continue
		}

		jsonPath, mdPath := reportPaths(outputDir, result.Path)
		if err := renderer.RenderJSON(result.Result, jsonPath); err != nil {
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write JSON: %v\n", result.Path, err)
			continue
		}
		if err := renderer.RenderMarkdown(result.Result, mdPath); err != nil {
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write Markdown: %v\n", result.Path, err)
			continue
		}

		if result.Result.Failed() {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: failed at %s (%s)\n", result.Path, result.Result.FailedStage, result.Result.FailureCause)
			continue
		}

		successCount++
		if result.Result.Evaluation != nil {
			fmt.Fprintf(os.Stderr, "✓ %s (risk: %d/100)\n", result.Path, result.Result.Evaluation.RiskScore)
		} else {
			fmt.Fprintf(os.Stderr, "✓ %s\n", result.Path)
		}
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:     %d documents\n", len(results))
	fmt.Fprintf(os.Stderr, "  Success:   %d\n", successCount)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", failureCount)
	fmt.Fprintf(os.Stderr, "  Output:    %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "\n")

	return nil
}
