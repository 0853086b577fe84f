package client

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/spf13/cobra"
)

// ProfileCreateRequest is the profile creation API request.
type ProfileCreateRequest struct {
	ProjectID     string `json:"projectId"`
	Name          string `json:"name"`
	PrimaryText   string `json:"primaryDescription"`
	SecondaryText string `json:"secondaryDescription,omitempty"`
}

// ProfileRecord is one profile from the API.
type ProfileRecord struct {
	ID        string `json:"id"`
	ProjectID string `json:"projectId"`
	Name      string `json:"name"`
	CreatedAt string `json:"createdAt"`
}

// ProfileDetail is a full profile from the API.
type ProfileDetail struct {
	ID            string `json:"id"`
	ProjectID     string `json:"projectId"`
	Name          string `json:"name"`
	PrimaryText   string `json:"primaryDescription"`
	SecondaryText string `json:"secondaryDescription,omitempty"`
	CreatedAt     string `json:"createdAt"`
}

// ProfileSearchRequest is the profile search API request.
type ProfileSearchRequest struct {
	ProjectID string   `json:"projectId"`
	Query     string   `json:"query"`
	Threshold *float64 `json:"threshold,omitempty"`
	Limit     *int     `json:"limit,omitempty"`
}

// ProfileMatchRecord is one profile match from the API.
type ProfileMatchRecord struct {
	ProfileID  string  `json:"profileId"`
	Name       string  `json:"name"`
	Similarity float64 `json:"similarity"`
}

// ProfileSearchResult is the profile search API response.
type ProfileSearchResult struct {
	Matches []ProfileMatchRecord `json:"matches"`
}

// ProfileCmd creates the profile command group.
func ProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage entity profiles",
	}

	cmd.AddCommand(profileCreateCmd())
	cmd.AddCommand(profileGetCmd())
	cmd.AddCommand(profileSearchCmd())

	return cmd
}

func profileCreateCmd() *cobra.Command {
	var (
		projectID string
		primary   string
		secondary string
	)

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a profile with embedded descriptions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			req := ProfileCreateRequest{
				ProjectID:     projectID,
				Name:          args[0],
				PrimaryText:   primary,
				SecondaryText: secondary,
			}
			return runProfileCreate(cmd, req, outputJSON)
		},
	}

	cmd.Flags().StringVar(&projectID, "project", "", "Project ID (required)")
	cmd.Flags().StringVar(&primary, "primary", "", "Primary description (required)")
	cmd.Flags().StringVar(&secondary, "secondary", "", "Secondary description")
	_ = cmd.MarkFlagRequired("project")
	_ = cmd.MarkFlagRequired("primary")

	return cmd
}

func runProfileCreate(cmd *cobra.Command, req ProfileCreateRequest, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	resp, err := api.Post("/profiles", req)
	if err != nil {
		return fmt.Errorf("profile creation failed: %w", err)
	}

	if outputJSON {
		return printData(resp.Data)
	}

	var profile ProfileRecord
	if err := json.Unmarshal(resp.Data, &profile); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	fmt.Printf("Created profile %s (%s)\n", profile.Name, profile.ID)
	return nil
}

func profileGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Fetch a single profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runProfileGet(cmd, args[0], outputJSON)
		},
	}

	return cmd
}

func runProfileGet(cmd *cobra.Command, id string, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	resp, err := api.Get("/profiles/" + url.PathEscape(id))
	if err != nil {
		return fmt.Errorf("profile fetch failed: %w", err)
	}

	if outputJSON {
		return printData(resp.Data)
	}

	var detail ProfileDetail
	if err := json.Unmarshal(resp.Data, &detail); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	fmt.Printf("ID:      %s\n", detail.ID)
	fmt.Printf("Name:    %s\n", detail.Name)
	fmt.Printf("Project: %s\n", detail.ProjectID)
	fmt.Printf("Created: %s\n", detail.CreatedAt)
	fmt.Printf("\n%s\n", detail.PrimaryText)
	if detail.SecondaryText != "" {
		fmt.Printf("\n%s\n", detail.SecondaryText)
	}
	return nil
}

func profileSearchCmd() *cobra.Command {
	var (
		projectID string
		threshold float64
		limit     int
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Find profiles similar to a description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			req := ProfileSearchRequest{
				ProjectID: projectID,
				Query:     args[0],
			}
			if cmd.Flags().Changed("threshold") {
				req.Threshold = &threshold
			}
			if cmd.Flags().Changed("limit") {
				req.Limit = &limit
			}
			return runProfileSearch(cmd, req, outputJSON)
		},
	}

	cmd.Flags().StringVar(&projectID, "project", "", "Project ID (required)")
	cmd.Flags().Float64VarP(&threshold, "threshold", "t", 0.90, "Minimum similarity (0-1)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Maximum number of matches")
	_ = cmd.MarkFlagRequired("project")

	return cmd
}

func runProfileSearch(cmd *cobra.Command, req ProfileSearchRequest, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	resp, err := api.Post("/profiles/search", req)
	if err != nil {
		return fmt.Errorf("profile search failed: %w", err)
	}

	if outputJSON {
		return printData(resp.Data)
	}

	var result ProfileSearchResult
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if len(result.Matches) == 0 {
		fmt.Println("No matching profiles.")
		return nil
	}

	for i, match := range result.Matches {
		fmt.Printf("%d. %s (%.2f)  %s\n", i+1, match.Name, match.Similarity, match.ProfileID)
	}
	return nil
}
