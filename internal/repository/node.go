package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/reelworks/brain/internal/domain"
	"github.com/reelworks/brain/internal/pagination"
	"github.com/reelworks/brain/internal/service"
)

// NodeRepository persists nodes and answers vector-similarity queries
// against them.
type NodeRepository struct {
	pool *pgxpool.Pool
}

func NewNodeRepository(pool *pgxpool.Pool) *NodeRepository {
	return &NodeRepository{pool: pool}
}

func (r *NodeRepository) Create(ctx context.Context, n *domain.Node) error {
	if err := domain.ValidateNode(n); err != nil {
		return domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid node", err)
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO nodes (id, type, content, project_id, segment, summary, quality_score, embedding, properties, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		n.ID, n.Type, n.Content, n.ProjectID, nullableString(n.Segment), nullableString(n.Summary),
		n.QualityScore, pgvector.NewVector(n.Embedding), n.Properties, n.CreatedAt,
	)
	return err
}

// FindSimilar runs a single threshold-filtered cosine query. Every match
// satisfies similarity >= threshold and results are ordered by similarity
// descending. An empty query vector is a caller bug and fails loudly.
func (r *NodeRepository) FindSimilar(ctx context.Context, q service.SimilarityQuery) ([]*domain.DuplicateMatch, error) {
	if len(q.Embedding) == 0 {
		return nil, domain.ErrEmptyEmbedding
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 10
	}

	query := `
		SELECT id, 1 - (embedding <=> $1) AS similarity, content, properties
		FROM nodes
		WHERE project_id = $2 AND embedding IS NOT NULL
		  AND 1 - (embedding <=> $1) >= $3`
	args := []any{pgvector.NewVector(q.Embedding), q.ProjectID, q.Threshold}

	if q.Filters.Type != "" {
		args = append(args, q.Filters.Type)
		query += fmt.Sprintf(" AND type = $%d", len(args))
	}
	if q.Filters.Segment != "" {
		args = append(args, q.Filters.Segment)
		query += fmt.Sprintf(" AND segment = $%d", len(args))
	}
	if len(q.Filters.ExcludeIDs) > 0 {
		args = append(args, q.Filters.ExcludeIDs)
		query += fmt.Sprintf(" AND NOT (id = ANY($%d))", len(args))
	}

	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY similarity DESC LIMIT $%d", len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	matches := make([]*domain.DuplicateMatch, 0)
	for rows.Next() {
		var m domain.DuplicateMatch
		if err := rows.Scan(&m.NodeID, &m.Similarity, &m.Content, &m.Properties); err != nil {
			return nil, err
		}
		matches = append(matches, &m)
	}
	return matches, rows.Err()
}

// ListRecentBySegment returns the most recent nodes in a segment that
// carry an embedding, newest first.
func (r *NodeRepository) ListRecentBySegment(ctx context.Context, projectID, segment string, limit int) ([]*domain.Node, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.pool.Query(ctx,
		`SELECT id, type, content, project_id, segment, summary, quality_score, properties, created_at
		 FROM nodes
		 WHERE project_id = $1 AND segment = $2 AND embedding IS NOT NULL
		 ORDER BY created_at DESC
		 LIMIT $3`,
		projectID, segment, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanNodeRows(rows)
}

func (r *NodeRepository) GetByID(ctx context.Context, id string) (*domain.Node, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, type, content, project_id, segment, summary, quality_score, properties, created_at
		 FROM nodes WHERE id = $1`,
		id,
	)
	n, err := scanNode(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNodeNotFound
		}
		return nil, err
	}
	return n, nil
}

// ListByProjectWithCursor pages through a project's nodes using a
// (created_at, id) keyset, newest first.
func (r *NodeRepository) ListByProjectWithCursor(ctx context.Context, projectID string, cursor *pagination.Cursor, limit int) (*service.NodePage, error) {
	if limit <= 0 {
		limit = 20
	}

	var rows pgx.Rows
	var err error

	if cursor != nil {
		rows, err = r.pool.Query(ctx,
			`SELECT id, type, content, project_id, segment, summary, quality_score, properties, created_at
			 FROM nodes
			 WHERE project_id = $1 AND (created_at, id) < ($2, $3)
			 ORDER BY created_at DESC, id DESC
			 LIMIT $4`,
			projectID, cursor.CreatedAt, cursor.LastID, limit+1,
		)
	} else {
		rows, err = r.pool.Query(ctx,
			`SELECT id, type, content, project_id, segment, summary, quality_score, properties, created_at
			 FROM nodes
			 WHERE project_id = $1
			 ORDER BY created_at DESC, id DESC
			 LIMIT $2`,
			projectID, limit+1,
		)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items, err := scanNodeRows(rows)
	if err != nil {
		return nil, err
	}

	hasMore := len(items) > limit
	if hasMore {
		items = items[:limit]
	}

	var nextCursor string
	if hasMore && len(items) > 0 {
		last := items[len(items)-1]
		nextCursor = pagination.Encode(last.ID, last.CreatedAt)
	}

	return &service.NodePage{Items: items, NextCursor: nextCursor, HasMore: hasMore}, nil
}

// CountBySegment returns the per-segment node counts for a project.
func (r *NodeRepository) CountBySegment(ctx context.Context, projectID string) (map[string]int, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT COALESCE(segment, ''), COUNT(*)
		 FROM nodes
		 WHERE project_id = $1
		 GROUP BY segment`,
		projectID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var segment string
		var count int
		if err := rows.Scan(&segment, &count); err != nil {
			return nil, err
		}
		counts[segment] = count
	}
	return counts, rows.Err()
}

func scanNodeRows(rows pgx.Rows) ([]*domain.Node, error) {
	var results []*domain.Node
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, n)
	}
	return results, rows.Err()
}

func scanNode(row pgx.Row) (*domain.Node, error) {
	var n domain.Node
	var segment, summary *string
	var quality *float64
	if err := row.Scan(&n.ID, &n.Type, &n.Content, &n.ProjectID, &segment, &summary, &quality, &n.Properties, &n.CreatedAt); err != nil {
		return nil, err
	}
	if segment != nil {
		n.Segment = *segment
	}
	if summary != nil {
		n.Summary = *summary
	}
	if quality != nil {
		n.QualityScore = *quality
	}
	return &n, nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
