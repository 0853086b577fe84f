package client

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// DedupeRequest is the duplicate search API request.
type DedupeRequest struct {
	ProjectID      string   `json:"projectId"`
	Content        string   `json:"content"`
	Threshold      *float64 `json:"threshold,omitempty"`
	Limit          *int     `json:"limit,omitempty"`
	ExcludeNodeIDs []string `json:"excludeNodeIds,omitempty"`
}

// DedupeMatch is one duplicate candidate from the API.
type DedupeMatch struct {
	NodeID     string  `json:"nodeId"`
	Content    string  `json:"content"`
	Similarity float64 `json:"similarity"`
}

// DedupeResponse is the duplicate search API response.
type DedupeResponse struct {
	Duplicates []DedupeMatch `json:"duplicates"`
}

// DedupeCmd creates the dedupe command.
func DedupeCmd() *cobra.Command {
	var (
		projectID string
		threshold float64
		limit     int
	)

	cmd := &cobra.Command{
		Use:   "dedupe <content>",
		Short: "Find near-duplicate nodes",
		Long:  "Searches the store for nodes semantically similar to the given content.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			req := DedupeRequest{
				ProjectID: projectID,
				Content:   args[0],
			}
			if cmd.Flags().Changed("threshold") {
				req.Threshold = &threshold
			}
			if cmd.Flags().Changed("limit") {
				req.Limit = &limit
			}
			return runDedupe(cmd, req, outputJSON)
		},
	}

	cmd.Flags().StringVar(&projectID, "project", "", "Project ID (required)")
	cmd.Flags().Float64VarP(&threshold, "threshold", "t", 0.90, "Minimum similarity (0-1)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Maximum number of matches")
	_ = cmd.MarkFlagRequired("project")

	return cmd
}

func runDedupe(cmd *cobra.Command, req DedupeRequest, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	resp, err := api.Post("/duplicates/search", req)
	if err != nil {
		return fmt.Errorf("duplicate search failed: %w", err)
	}

	if outputJSON {
		return printData(resp.Data)
	}

	var result DedupeResponse
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if len(result.Duplicates) == 0 {
		fmt.Println("No duplicates found.")
		return nil
	}

	fmt.Printf("Found %d duplicates:\n\n", len(result.Duplicates))
	for i, match := range result.Duplicates {
		content := match.Content
		if len(content) > 100 {
			content = content[:97] + "..."
		}
		fmt.Printf("%d. %s (%.2f)\n", i+1, match.NodeID, match.Similarity)
		fmt.Printf("   %s\n", content)
		if i < len(result.Duplicates)-1 {
			fmt.Println(strings.Repeat("-", 40))
		}
	}
	return nil
}
