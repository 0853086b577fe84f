package service

import (
	"context"
	"log"
	"math"
	"sort"
	"time"

	"github.com/reelworks/brain/internal/domain"
)

// DuplicateQuery describes one duplicate search request after transport
// decoding. Threshold and Limit are already defaulted by the handler.
type DuplicateQuery struct {
	ProjectID string
	Content   string
	Threshold float64
	Limit     int
	Filters   SimilarityFilters
}

// FusionWeights blend the two profile vector scores. They are expected
// to sum to 1 but are applied as given.
type FusionWeights struct {
	Primary   float64
	Secondary float64
}

// DuplicateService answers near-duplicate and profile similarity queries.
type DuplicateService struct {
	embedder EmbeddingClient
	searcher SimilaritySearcher
	profiles ProfileStore
	auditLog SearchLogger
	weights  FusionWeights
	now      func() time.Time
}

func NewDuplicateService(embedder EmbeddingClient, searcher SimilaritySearcher, profiles ProfileStore, auditLog SearchLogger, weights FusionWeights) *DuplicateService {
	return &DuplicateService{
		embedder: embedder,
		searcher: searcher,
		profiles: profiles,
		auditLog: auditLog,
		weights:  weights,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// FindDuplicates embeds the candidate content once and returns stored
// nodes whose cosine similarity meets the threshold, best match first.
// Validation happens before the embedding call so malformed requests
// never reach the provider.
func (s *DuplicateService) FindDuplicates(ctx context.Context, q DuplicateQuery) ([]*domain.DuplicateMatch, error) {
	if err := domain.ValidateProjectID(q.ProjectID); err != nil {
		return nil, err
	}
	if q.Content == "" {
		return nil, domain.ErrEmptyContent
	}
	if q.Threshold < 0 || q.Threshold > 1 {
		return nil, domain.ErrInvalidThreshold
	}
	if q.Limit < 1 || q.Limit > 50 {
		return nil, domain.ErrInvalidLimit
	}

	start := s.now()

	embedding, err := s.embedder.EmbedOne(ctx, q.Content)
	if err != nil {
		return nil, err
	}

	matches, err := s.searcher.FindSimilar(ctx, SimilarityQuery{
		ProjectID: q.ProjectID,
		Embedding: embedding,
		Threshold: q.Threshold,
		Limit:     q.Limit,
		Filters:   q.Filters,
	})
	if err != nil {
		return nil, err
	}

	s.logSearch(ctx, q, matches, s.now().Sub(start))

	return matches, nil
}

// logSearch records the search for threshold tuning. Failures are logged
// and swallowed; the audit trail never breaks a search.
func (s *DuplicateService) logSearch(ctx context.Context, q DuplicateQuery, matches []*domain.DuplicateMatch, took time.Duration) {
	if s.auditLog == nil {
		return
	}
	entry := SearchLogEntry{
		ProjectID:     q.ProjectID,
		ContentLength: len(q.Content),
		Threshold:     q.Threshold,
		Type:          q.Filters.Type,
		Segment:       q.Filters.Segment,
		ResultCount:   len(matches),
		DurationMS:    took.Milliseconds(),
	}
	if len(matches) > 0 {
		entry.TopSimilarity = matches[0].Similarity
	}
	if _, err := s.auditLog.Insert(ctx, entry); err != nil {
		log.Printf("search log insert failed: %v", err)
	}
}

// FindSimilarProfiles ranks the project's profiles against a free-text
// query. Each profile's score fuses its primary and secondary vector
// similarities by the configured weights; a profile missing one vector
// is scored on the other alone.
func (s *DuplicateService) FindSimilarProfiles(ctx context.Context, projectID, query string, threshold float64, limit int) ([]*domain.ProfileMatch, error) {
	if err := domain.ValidateProjectID(projectID); err != nil {
		return nil, err
	}
	if query == "" {
		return nil, domain.ErrEmptyContent
	}
	if threshold < 0 || threshold > 1 {
		return nil, domain.ErrInvalidThreshold
	}
	if limit < 1 || limit > 50 {
		return nil, domain.ErrInvalidLimit
	}

	embedding, err := s.embedder.EmbedOne(ctx, query)
	if err != nil {
		return nil, err
	}

	profiles, err := s.profiles.ListVectors(ctx, projectID)
	if err != nil {
		return nil, err
	}

	matches := make([]*domain.ProfileMatch, 0, len(profiles))
	for _, p := range profiles {
		score, ok := s.fuseScore(embedding, p)
		if !ok || score < threshold {
			continue
		}
		matches = append(matches, &domain.ProfileMatch{
			ProfileID:  p.ID,
			Name:       p.Name,
			Similarity: score,
		})
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}

	return matches, nil
}

func (s *DuplicateService) fuseScore(query []float32, p *ProfileVectors) (float64, bool) {
	primary, hasPrimary := cosineSimilarity(query, p.Primary)
	secondary, hasSecondary := cosineSimilarity(query, p.Secondary)
	switch {
	case hasPrimary && hasSecondary:
		return s.weights.Primary*primary + s.weights.Secondary*secondary, true
	case hasPrimary:
		return primary, true
	case hasSecondary:
		return secondary, true
	default:
		return 0, false
	}
}

func cosineSimilarity(a, b []float32) (float64, bool) {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0, false
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0, false
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), true
}
