package client

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// ContextRequest is the segment context API request.
type ContextRequest struct {
	ProjectID        string   `json:"projectId"`
	TargetSegment    string   `json:"targetSegment"`
	PreviousSegments []string `json:"previousSegments"`
	Limit            *int     `json:"limit,omitempty"`
}

// ContextSegment summarizes one aggregated segment.
type ContextSegment struct {
	ItemCount    int      `json:"itemCount"`
	QualityScore float64  `json:"qualityScore"`
	KeyThemes    []string `json:"keyThemes"`
}

// ContextResponse is the segment context API response.
type ContextResponse struct {
	TargetSegment     string                    `json:"targetSegment"`
	Context           map[string]ContextSegment `json:"context"`
	AggregatedSummary string                    `json:"aggregatedSummary"`
	TotalItems        int                       `json:"totalItemsAggregated"`
}

// ContextCmd creates the context command.
func ContextCmd() *cobra.Command {
	var (
		projectID string
		target    string
		sources   []string
		limit     int
	)

	cmd := &cobra.Command{
		Use:   "context",
		Short: "Aggregate context from previous segments",
		Long:  "Builds themed context for a target segment from content in earlier segments.",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			req := ContextRequest{
				ProjectID:        projectID,
				TargetSegment:    target,
				PreviousSegments: sources,
			}
			if cmd.Flags().Changed("limit") {
				req.Limit = &limit
			}
			return runContext(cmd, req, outputJSON)
		},
	}

	cmd.Flags().StringVar(&projectID, "project", "", "Project ID (required)")
	cmd.Flags().StringVar(&target, "target", "", "Target segment (required)")
	cmd.Flags().StringSliceVar(&sources, "from", nil, "Previous segments to aggregate from")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum items per segment")
	_ = cmd.MarkFlagRequired("project")
	_ = cmd.MarkFlagRequired("target")

	return cmd
}

func runContext(cmd *cobra.Command, req ContextRequest, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	resp, err := api.Post("/context/segment", req)
	if err != nil {
		return fmt.Errorf("context aggregation failed: %w", err)
	}

	if outputJSON {
		return printData(resp.Data)
	}

	var result ContextResponse
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	fmt.Printf("Context for %s (%d items aggregated)\n\n", result.TargetSegment, result.TotalItems)
	for segment, info := range result.Context {
		fmt.Printf("%s: %d items, quality %.2f\n", segment, info.ItemCount, info.QualityScore)
		if len(info.KeyThemes) > 0 {
			fmt.Printf("  Themes: %s\n", strings.Join(info.KeyThemes, ", "))
		}
	}
	if result.AggregatedSummary != "" {
		fmt.Printf("\nSummary:\n%s\n", result.AggregatedSummary)
	}
	return nil
}
