package service

import (
	"context"
	"time"

	"github.com/reelworks/brain/internal/domain"
)

// ProfileInput is one profile submitted for ingestion. Both text fields
// are embedded; the secondary text is optional.
type ProfileInput struct {
	Name          string
	PrimaryText   string
	SecondaryText string
}

// ProfileService ingests multi-vector profiles.
type ProfileService struct {
	embedder EmbeddingClient
	store    ProfileStore
	ids      UUIDGenerator
	now      func() time.Time
}

func NewProfileService(embedder EmbeddingClient, store ProfileStore, ids UUIDGenerator) *ProfileService {
	return &ProfileService{
		embedder: embedder,
		store:    store,
		ids:      ids,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// CreateProfile embeds both description texts in a single provider round
// trip and stores the profile. The secondary vector is omitted when no
// secondary text was given.
func (s *ProfileService) CreateProfile(ctx context.Context, projectID string, input ProfileInput) (*domain.Profile, error) {
	if err := domain.ValidateProjectID(projectID); err != nil {
		return nil, err
	}
	if input.Name == "" {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "profile name is required")
	}
	if input.PrimaryText == "" {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "primary description is required")
	}

	texts := []string{input.PrimaryText}
	if input.SecondaryText != "" {
		texts = append(texts, input.SecondaryText)
	}
	vectors, err := s.embedder.EmbedMany(ctx, texts)
	if err != nil {
		return nil, err
	}

	now := s.now()
	profile := &domain.Profile{
		ID:               s.ids.NewString(),
		ProjectID:        projectID,
		Name:             input.Name,
		PrimaryText:      input.PrimaryText,
		SecondaryText:    input.SecondaryText,
		PrimaryEmbedding: vectors[0],
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if len(vectors) > 1 {
		profile.SecondaryEmbedding = vectors[1]
	}

	if err := s.store.Create(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

func (s *ProfileService) GetProfile(ctx context.Context, id string) (*domain.Profile, error) {
	if id == "" {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "profile id is required")
	}
	return s.store.GetByID(ctx, id)
}
