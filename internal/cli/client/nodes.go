package client

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/spf13/cobra"
)

// NodeRecord is one stored node from the API.
type NodeRecord struct {
	ID           string  `json:"id"`
	Type         string  `json:"type"`
	Content      string  `json:"content"`
	ProjectID    string  `json:"projectId"`
	Segment      string  `json:"segment,omitempty"`
	QualityScore float64 `json:"qualityScore,omitempty"`
	CreatedAt    string  `json:"createdAt"`
}

// NodeListResult is the node listing API response.
type NodeListResult struct {
	Nodes      []NodeRecord `json:"nodes"`
	NextCursor string       `json:"nextCursor,omitempty"`
	HasMore    bool         `json:"hasMore"`
}

// StatsResult is the project stats API response.
type StatsResult struct {
	ProjectID  string         `json:"projectId"`
	Segments   map[string]int `json:"segments"`
	TotalNodes int            `json:"totalNodes"`
}

// NodesCmd creates the nodes command group.
func NodesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "nodes",
		Short: "Inspect stored nodes",
	}

	cmd.AddCommand(nodesListCmd())
	cmd.AddCommand(nodesGetCmd())

	return cmd
}

func nodesListCmd() *cobra.Command {
	var (
		projectID string
		cursor    string
		limit     int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List nodes in a project",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runNodesList(cmd, projectID, cursor, limit, outputJSON)
		},
	}

	cmd.Flags().StringVar(&projectID, "project", "", "Project ID (required)")
	cmd.Flags().StringVar(&cursor, "cursor", "", "Pagination cursor from previous response")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of nodes")
	_ = cmd.MarkFlagRequired("project")

	return cmd
}

func runNodesList(cmd *cobra.Command, projectID, cursor string, limit int, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	query := url.Values{}
	query.Set("project_id", projectID)
	query.Set("limit", fmt.Sprintf("%d", limit))
	if cursor != "" {
		query.Set("cursor", cursor)
	}

	resp, err := api.Get("/nodes?" + query.Encode())
	if err != nil {
		return fmt.Errorf("node listing failed: %w", err)
	}

	if outputJSON {
		return printData(resp.Data)
	}

	var result NodeListResult
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if len(result.Nodes) == 0 {
		fmt.Println("No nodes found.")
		return nil
	}

	for _, node := range result.Nodes {
		content := node.Content
		if len(content) > 80 {
			content = content[:77] + "..."
		}
		fmt.Printf("%s  [%s]  %s\n", node.ID, node.Type, content)
	}
	if result.HasMore && result.NextCursor != "" {
		fmt.Printf("\nMore nodes available. Use --cursor %s\n", result.NextCursor)
	}
	return nil
}

func nodesGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Fetch a single node",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runNodesGet(cmd, args[0], outputJSON)
		},
	}

	return cmd
}

func runNodesGet(cmd *cobra.Command, id string, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	resp, err := api.Get("/nodes/" + url.PathEscape(id))
	if err != nil {
		return fmt.Errorf("node fetch failed: %w", err)
	}

	if outputJSON {
		return printData(resp.Data)
	}

	var node NodeRecord
	if err := json.Unmarshal(resp.Data, &node); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	fmt.Printf("ID:      %s\n", node.ID)
	fmt.Printf("Type:    %s\n", node.Type)
	fmt.Printf("Project: %s\n", node.ProjectID)
	if node.Segment != "" {
		fmt.Printf("Segment: %s\n", node.Segment)
	}
	if node.QualityScore > 0 {
		fmt.Printf("Quality: %.2f\n", node.QualityScore)
	}
	fmt.Printf("Created: %s\n", node.CreatedAt)
	fmt.Printf("\n%s\n", node.Content)
	return nil
}

// StatsCmd creates the stats command.
func StatsCmd() *cobra.Command {
	var projectID string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show node counts per segment",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runStats(cmd, projectID, outputJSON)
		},
	}

	cmd.Flags().StringVar(&projectID, "project", "", "Project ID (required)")
	_ = cmd.MarkFlagRequired("project")

	return cmd
}

func runStats(cmd *cobra.Command, projectID string, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	resp, err := api.Get("/stats?project_id=" + url.QueryEscape(projectID))
	if err != nil {
		return fmt.Errorf("stats fetch failed: %w", err)
	}

	if outputJSON {
		return printData(resp.Data)
	}

	var result StatsResult
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	fmt.Printf("Project %s: %d nodes\n", result.ProjectID, result.TotalNodes)
	for segment, count := range result.Segments {
		fmt.Printf("  %s: %d\n", segment, count)
	}
	return nil
}
