package domain

import (
	"fmt"
	"time"
)

// Node represents one stored content unit in the knowledge store.
// Nodes are immutable once written; cleanup is an administrative concern
// handled outside this service.
type Node struct {
	ID           string
	Type         string
	Content      string
	ProjectID    string
	Segment      string
	Summary      string
	QualityScore float64
	Embedding    []float32
	Properties   map[string]any
	CreatedAt    time.Time
}

// Profile is a node variant that carries two semantically distinct
// embeddings: a primary identity vector and a secondary descriptive one.
type Profile struct {
	ID                 string
	ProjectID          string
	Name               string
	PrimaryText        string
	SecondaryText      string
	PrimaryEmbedding   []float32
	SecondaryEmbedding []float32
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// NewNode creates a new Node instance
func NewNode(id, nodeType, content, projectID string, embedding []float32, properties map[string]any, createdAt time.Time) *Node {
	if properties == nil {
		properties = map[string]any{}
	}
	segment, _ := properties["segment"].(string)
	summary, _ := properties["summary"].(string)
	quality, _ := properties["qualityScore"].(float64)
	return &Node{
		ID:           id,
		Type:         nodeType,
		Content:      content,
		ProjectID:    projectID,
		Segment:      segment,
		Summary:      summary,
		QualityScore: quality,
		Embedding:    embedding,
		Properties:   properties,
		CreatedAt:    createdAt,
	}
}

// ValidateNode validates a Node instance before it reaches the store.
func ValidateNode(n *Node) error {
	if n == nil {
		return fmt.Errorf("node cannot be nil")
	}
	if n.ID == "" {
		return fmt.Errorf("node ID is required")
	}
	if n.Type == "" {
		return fmt.Errorf("node Type is required")
	}
	if n.Content == "" {
		return fmt.Errorf("node Content is required")
	}
	if err := ValidateProjectID(n.ProjectID); err != nil {
		return err
	}
	if len(n.Embedding) == 0 {
		return fmt.Errorf("node Embedding is required")
	}
	return nil
}

// ValidateProjectID checks the tenant identifier format: a 24-character
// hexadecimal string, matching the upstream CMS object ids.
func ValidateProjectID(id string) error {
	if len(id) != 24 {
		return ErrInvalidProjectID
	}
	for _, c := range id {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return ErrInvalidProjectID
		}
	}
	return nil
}
