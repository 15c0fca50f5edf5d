package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/citecheck/citecheck/internal/model"
)

var (
	checkFile    string
	checkTimeout time.Duration
	checkOutJSON string
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check [text]",
	Short: "Verify the claims in a piece of text and print the verdicts",
	Long: `Check runs the verification pipeline once, without the HTTP server.

The text is taken from the argument, from --file, or from stdin.

Example:
  citecheck check "The Eiffel Tower is 330m tall (https://en.wikipedia.org/wiki/Eiffel_Tower)."
  citecheck check --file article.txt --json report.json
  cat draft.md | citecheck check`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringVar(&checkFile, "file", "", "read text from file")
	checkCmd.Flags().DurationVar(&checkTimeout, "timeout", 2*time.Minute, "overall verification timeout")
	checkCmd.Flags().StringVar(&checkOutJSON, "json", "", "write full response JSON to path (default: stdout)")
}

func runCheck(cmd *cobra.Command, args []string) error {
	text, err := checkInput(args)
	if err != nil {
		return err
	}
	if text == "" {
		return fmt.Errorf("no input text: pass an argument, --file, or pipe to stdin")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger()
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	p, err := buildPipeline(cfg, logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
	defer cancel()

	response, err := p.Run(ctx, text)
	if err != nil {
		return fmt.Errorf("verification failed: %w", err)
	}

	if err := writeResponse(response); err != nil {
		return err
	}
	printSummary(response)
	return nil
}

func checkInput(args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	if checkFile != "" {
		data, err := os.ReadFile(checkFile)
		if err != nil {
			return "", fmt.Errorf("read file: %w", err)
		}
		return string(data), nil
	}

	stat, err := os.Stdin.Stat()
	if err == nil && (stat.Mode()&os.ModeCharDevice) == 0 {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	return "", nil
}

func writeResponse(response *model.VerificationResponse) error {
	encoded, err := json.MarshalIndent(response, "", "  ")
	if err != nil {
		return fmt.Errorf("encode response: %w", err)
	}
	if checkOutJSON == "" {
		fmt.Println(string(encoded))
		return nil
	}
	if err := os.WriteFile(checkOutJSON, encoded, 0644); err != nil {
		return fmt.Errorf("write JSON: %w", err)
	}
	fmt.Printf("✓ Wrote JSON: %s\n", checkOutJSON)
	return nil
}

func printSummary(response *model.VerificationResponse) {
	s := response.Summary
	fmt.Fprintf(os.Stderr, "\n%d claims: %d verified, %d partial, %d failed\n",
		s.TotalClaims, s.Verified, s.Partial, s.Failed)
}
