package repository

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/reelworks/brain/internal/service"
)

// SearchLogRepository stores duplicate-search audit rows.
type SearchLogRepository struct {
	pool *pgxpool.Pool
}

func NewSearchLogRepository(pool *pgxpool.Pool) *SearchLogRepository {
	return &SearchLogRepository{pool: pool}
}

func (r *SearchLogRepository) Insert(ctx context.Context, entry service.SearchLogEntry) (string, error) {
	filters := map[string]any{}
	if entry.Type != "" {
		filters["type"] = entry.Type
	}
	if entry.Segment != "" {
		filters["segment"] = entry.Segment
	}
	filtersJSON, _ := json.Marshal(filters)

	var id string
	err := r.pool.QueryRow(ctx,
		`INSERT INTO search_logs (project_id, content_length, threshold, filters, result_count, top_similarity, duration_ms)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id`,
		entry.ProjectID,
		entry.ContentLength,
		entry.Threshold,
		filtersJSON,
		entry.ResultCount,
		entry.TopSimilarity,
		entry.DurationMS,
	).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}
