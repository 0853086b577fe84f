package client

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// IngestNode is one node in a batch ingest request.
type IngestNode struct {
	Type       string                 `json:"type"`
	Content    string                 `json:"content"`
	ProjectID  string                 `json:"projectId"`
	Properties map[string]interface{} `json:"properties,omitempty"`
}

// IngestRequest is the batch ingest API request.
type IngestRequest struct {
	Nodes []IngestNode `json:"nodes"`
}

// IngestResponse is the batch ingest API response.
type IngestResponse struct {
	NodeIDs      []string `json:"nodeIds"`
	CreatedCount int      `json:"created"`
	FailedCount  int      `json:"failed"`
}

// IngestCmd creates the ingest command.
func IngestCmd() *cobra.Command {
	var (
		file      string
		projectID string
	)

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Ingest a batch of content nodes",
		Long:  "Reads a JSON array of nodes from a file or stdin and stores them with embeddings.",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runIngest(cmd, file, projectID, outputJSON)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "JSON file with nodes (defaults to stdin)")
	cmd.Flags().StringVar(&projectID, "project", "", "Project ID applied to nodes missing one")

	return cmd
}

func runIngest(cmd *cobra.Command, file, projectID string, outputJSON bool) error {
	var reader io.Reader = os.Stdin
	if file != "" {
		f, err := os.Open(file)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", file, err)
		}
		defer f.Close()
		reader = f
	}

	var nodes []IngestNode
	if err := json.NewDecoder(reader).Decode(&nodes); err != nil {
		return fmt.Errorf("failed to parse nodes: %w", err)
	}
	if len(nodes) == 0 {
		return fmt.Errorf("no nodes to ingest")
	}
	for i := range nodes {
		if nodes[i].ProjectID == "" {
			nodes[i].ProjectID = projectID
		}
	}

	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	resp, err := api.Post("/nodes/batch", IngestRequest{Nodes: nodes})
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	if outputJSON {
		return printData(resp.Data)
	}

	var result IngestResponse
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	fmt.Printf("Created %d nodes", result.CreatedCount)
	if result.FailedCount > 0 {
		fmt.Printf(" (%d failed)", result.FailedCount)
	}
	fmt.Println()
	for _, id := range result.NodeIDs {
		fmt.Printf("  %s\n", id)
	}
	return nil
}
