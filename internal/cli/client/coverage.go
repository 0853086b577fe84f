package client

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// CoverageItem is one item submitted for coverage analysis.
type CoverageItem struct {
	Content string `json:"content"`
	Summary string `json:"summary,omitempty"`
}

// CoverageRequest is the coverage analysis API request.
type CoverageRequest struct {
	ProjectID          string         `json:"projectId"`
	Segment            string         `json:"segment"`
	Items              []CoverageItem `json:"items"`
	SegmentDescription string         `json:"segmentDescription,omitempty"`
}

// CoverageGap is one identified gap in the analysis.
type CoverageGap struct {
	Aspect     string `json:"aspect"`
	Coverage   int    `json:"coverage"`
	Severity   string `json:"severity"`
	Suggestion string `json:"suggestion"`
}

// CoverageResponse is the coverage analysis API response.
type CoverageResponse struct {
	Segment         string        `json:"segment"`
	CoverageScore   int           `json:"coverageScore"`
	Gaps            []CoverageGap `json:"gaps"`
	Recommendations []string      `json:"recommendations"`
}

// CoverageCmd creates the coverage command.
func CoverageCmd() *cobra.Command {
	var (
		projectID   string
		segment     string
		file        string
		description string
	)

	cmd := &cobra.Command{
		Use:   "coverage",
		Short: "Analyze content coverage for a segment",
		Long:  "Reads a JSON array of items from a file or stdin and reports coverage gaps.",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runCoverage(cmd, projectID, segment, file, description, outputJSON)
		},
	}

	cmd.Flags().StringVar(&projectID, "project", "", "Project ID (required)")
	cmd.Flags().StringVar(&segment, "segment", "", "Segment to analyze (required)")
	cmd.Flags().StringVarP(&file, "file", "f", "", "JSON file with items (defaults to stdin)")
	cmd.Flags().StringVar(&description, "description", "", "Segment description for the analysis")
	_ = cmd.MarkFlagRequired("project")
	_ = cmd.MarkFlagRequired("segment")

	return cmd
}

func runCoverage(cmd *cobra.Command, projectID, segment, file, description string, outputJSON bool) error {
	var reader io.Reader = os.Stdin
	if file != "" {
		f, err := os.Open(file)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", file, err)
		}
		defer f.Close()
		reader = f
	}

	var items []CoverageItem
	if err := json.NewDecoder(reader).Decode(&items); err != nil {
		return fmt.Errorf("failed to parse items: %w", err)
	}

	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	req := CoverageRequest{
		ProjectID:          projectID,
		Segment:            segment,
		Items:              items,
		SegmentDescription: description,
	}
	resp, err := api.Post("/coverage/analyze", req)
	if err != nil {
		return fmt.Errorf("coverage analysis failed: %w", err)
	}

	if outputJSON {
		return printData(resp.Data)
	}

	var result CoverageResponse
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	fmt.Printf("Coverage for %s: %d/100\n", result.Segment, result.CoverageScore)
	if len(result.Gaps) > 0 {
		fmt.Printf("\nGaps:\n")
		for _, gap := range result.Gaps {
			fmt.Printf("  [%s] %s (%d/100)\n", gap.Severity, gap.Aspect, gap.Coverage)
			if gap.Suggestion != "" {
				fmt.Printf("    %s\n", gap.Suggestion)
			}
		}
	}
	if len(result.Recommendations) > 0 {
		fmt.Printf("\nRecommendations:\n")
		for _, rec := range result.Recommendations {
			fmt.Printf("  - %s\n", strings.TrimSpace(rec))
		}
	}
	return nil
}
