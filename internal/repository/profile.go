package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/reelworks/brain/internal/domain"
	"github.com/reelworks/brain/internal/service"
)

// ProfileRepository persists multi-vector profile entities.
type ProfileRepository struct {
	pool *pgxpool.Pool
}

func NewProfileRepository(pool *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{pool: pool}
}

func (r *ProfileRepository) Create(ctx context.Context, p *domain.Profile) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO profiles (id, project_id, name, primary_text, secondary_text, primary_embedding, secondary_embedding, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		p.ID, p.ProjectID, p.Name, p.PrimaryText, p.SecondaryText,
		nullableVector(p.PrimaryEmbedding), nullableVector(p.SecondaryEmbedding),
		p.CreatedAt, p.UpdatedAt,
	)
	return err
}

func nullableVector(v []float32) *pgvector.Vector {
	if len(v) == 0 {
		return nil
	}
	vec := pgvector.NewVector(v)
	return &vec
}

func (r *ProfileRepository) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	var p domain.Profile
	var primary, secondary *pgvector.Vector
	err := r.pool.QueryRow(ctx,
		`SELECT id, project_id, name, primary_text, secondary_text, primary_embedding, secondary_embedding, created_at, updated_at
		 FROM profiles WHERE id = $1`,
		id,
	).Scan(&p.ID, &p.ProjectID, &p.Name, &p.PrimaryText, &p.SecondaryText, &primary, &secondary, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, err
	}
	if primary != nil {
		p.PrimaryEmbedding = primary.Slice()
	}
	if secondary != nil {
		p.SecondaryEmbedding = secondary.Slice()
	}
	return &p, nil
}

// ListVectors returns every profile's embedding pair for a project.
// Fusion scoring happens in the service layer, so both vectors are
// materialized here.
func (r *ProfileRepository) ListVectors(ctx context.Context, projectID string) ([]*service.ProfileVectors, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, primary_embedding, secondary_embedding
		 FROM profiles WHERE project_id = $1`,
		projectID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*service.ProfileVectors
	for rows.Next() {
		var pv service.ProfileVectors
		var primary, secondary *pgvector.Vector
		if err := rows.Scan(&pv.ID, &pv.Name, &primary, &secondary); err != nil {
			return nil, err
		}
		if primary != nil {
			pv.Primary = primary.Slice()
		}
		if secondary != nil {
			pv.Secondary = secondary.Slice()
		}
		results = append(results, &pv)
	}
	return results, rows.Err()
}
