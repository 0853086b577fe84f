package service

import (
	"context"

	"github.com/reelworks/brain/internal/domain"
	"github.com/reelworks/brain/internal/pagination"
)

// NodeService serves read-side node queries.
type NodeService struct {
	reader NodeReader
}

func NewNodeService(reader NodeReader) *NodeService {
	return &NodeService{reader: reader}
}

func (s *NodeService) GetNode(ctx context.Context, id string) (*domain.Node, error) {
	if id == "" {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "node id is required")
	}
	return s.reader.GetByID(ctx, id)
}

// ListNodes pages through a project's nodes, newest first. The cursor is
// opaque to callers; a bad cursor is a validation error, not a 500.
func (s *NodeService) ListNodes(ctx context.Context, projectID, cursor string, limit int) (*NodePage, error) {
	if err := domain.ValidateProjectID(projectID); err != nil {
		return nil, err
	}
	if limit < 1 || limit > 50 {
		return nil, domain.ErrInvalidLimit
	}
	c, err := pagination.Decode(cursor)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid cursor", err)
	}
	return s.reader.ListByProjectWithCursor(ctx, projectID, c, limit)
}

// Stats returns the per-segment node counts for a project.
func (s *NodeService) Stats(ctx context.Context, projectID string) (map[string]int, error) {
	if err := domain.ValidateProjectID(projectID); err != nil {
		return nil, err
	}
	return s.reader.CountBySegment(ctx, projectID)
}
