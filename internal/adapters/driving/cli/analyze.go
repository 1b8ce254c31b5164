package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docsight/internal/connectors/filesystem"
	"github.com/custodia-labs/docsight/internal/core/domain"
)

var (
	analyzeType string
	outputJSON  bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [file]",
	Short: "Analyse a document",
	Long: `Extracts text from a PDF, image or plain text file, then runs structure
analysis, classification, type-specific analysis, embedding and relationship
discovery against previously analysed documents.

Stages whose AI service is unavailable fall back to defaults and are listed
under "Degraded stages" in the report.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

var showCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show a stored analysis",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored analyses",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var resumeCmd = &cobra.Command{
	Use:   "resume [id]",
	Short: "Resume an interrupted analysis",
	Long: `Continues an analysis from its last checkpointed stage. Only analyses
whose text was extracted before the interruption can be resumed.`,
	Args: cobra.ExactArgs(1),
	RunE: runResume,
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeType, "type", "t", "", "MIME type of the file (detected when omitted)")
	for _, c := range []*cobra.Command{analyzeCmd, showCmd, listCmd, resumeCmd} {
		c.Flags().BoolVar(&outputJSON, "json", false, "output as JSON")
		rootCmd.AddCommand(c)
	}
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	if analysisService == nil {
		return errors.New("analysis service not configured")
	}

	raw, err := filesystem.Load(args[0], analyzeType)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}

	analysis, err := analysisService.Analyze(cmd.Context(), raw)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}
	return outputAnalysis(cmd, analysis)
}

func runShow(cmd *cobra.Command, args []string) error {
	if analysisService == nil {
		return errors.New("analysis service not configured")
	}

	analysis, err := analysisService.Get(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get analysis: %w", err)
	}
	return outputAnalysis(cmd, analysis)
}

func runResume(cmd *cobra.Command, args []string) error {
	if analysisService == nil {
		return errors.New("analysis service not configured")
	}

	analysis, err := analysisService.Resume(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("resume failed: %w", err)
	}
	return outputAnalysis(cmd, analysis)
}

func runList(cmd *cobra.Command, _ []string) error {
	if analysisService == nil {
		return errors.New("analysis service not configured")
	}

	analyses, err := analysisService.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list analyses: %w", err)
	}
	sort.SliceStable(analyses, func(i, j int) bool {
		return analyses[i].UploadedAt.After(analyses[j].UploadedAt)
	})

	if outputJSON {
		return writeJSON(cmd, analyses)
	}
	renderList(cmd.OutOrStdout(), analyses, isTerminal(cmd.OutOrStdout()))
	return nil
}

// outputAnalysis prints the record and turns a failed status into an error
// so the process exits non-zero.
func outputAnalysis(cmd *cobra.Command, analysis *domain.DocumentAnalysis) error {
	if outputJSON {
		if err := writeJSON(cmd, analysis); err != nil {
			return err
		}
	} else {
		renderReport(cmd.OutOrStdout(), analysis, isTerminal(cmd.OutOrStdout()))
	}

	if analysis.Status == domain.StatusFailed {
		return fmt.Errorf("analysis %s failed: %s", analysis.ID, analysis.Error)
	}
	return nil
}

func writeJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
