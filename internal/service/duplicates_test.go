package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/reelworks/brain/internal/domain"
)

// MockSimilaritySearcher is a mock implementation of SimilaritySearcher
type MockSimilaritySearcher struct {
	mock.Mock
}

func (m *MockSimilaritySearcher) FindSimilar(ctx context.Context, q SimilarityQuery) ([]*domain.DuplicateMatch, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.DuplicateMatch), args.Error(1)
}

// MockProfileStore is a mock implementation of ProfileStore
type MockProfileStore struct {
	mock.Mock
}

func (m *MockProfileStore) Create(ctx context.Context, p *domain.Profile) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockProfileStore) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Profile), args.Error(1)
}

func (m *MockProfileStore) ListVectors(ctx context.Context, projectID string) ([]*ProfileVectors, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ProfileVectors), args.Error(1)
}

// MockSearchLogger is a mock implementation of SearchLogger
type MockSearchLogger struct {
	mock.Mock
}

func (m *MockSearchLogger) Insert(ctx context.Context, entry SearchLogEntry) (string, error) {
	args := m.Called(ctx, entry)
	return args.String(0), args.Error(1)
}

func defaultWeights() FusionWeights {
	return FusionWeights{Primary: 0.7, Secondary: 0.3}
}

func TestDuplicateService_FindDuplicates(t *testing.T) {
	ctx := context.Background()
	queryVec := []float32{0.5, 0.5, 0.5}

	t.Run("returns matches and records the search", func(t *testing.T) {
		embedder := new(MockEmbeddingClient)
		searcher := new(MockSimilaritySearcher)
		auditLog := new(MockSearchLogger)

		matches := []*domain.DuplicateMatch{
			{NodeID: "n1", Similarity: 0.97, Content: "the ending feels rushed"},
			{NodeID: "n2", Similarity: 0.91, Content: "act three needs more room"},
		}
		embedder.On("EmbedOne", mock.Anything, "the ending is rushed").Return(queryVec, nil).Once()
		searcher.On("FindSimilar", mock.Anything, mock.MatchedBy(func(q SimilarityQuery) bool {
			return q.ProjectID == testProjectID && q.Threshold == 0.9 && q.Limit == 10 && q.Filters.Type == "feedback"
		})).Return(matches, nil).Once()
		auditLog.On("Insert", mock.Anything, mock.MatchedBy(func(e SearchLogEntry) bool {
			return e.ResultCount == 2 && e.TopSimilarity == 0.97 && e.Threshold == 0.9
		})).Return("log-1", nil).Once()

		svc := NewDuplicateService(embedder, searcher, nil, auditLog, defaultWeights())
		got, err := svc.FindDuplicates(ctx, DuplicateQuery{
			ProjectID: testProjectID,
			Content:   "the ending is rushed",
			Threshold: 0.9,
			Limit:     10,
			Filters:   SimilarityFilters{Type: "feedback"},
		})

		require.NoError(t, err)
		assert.Equal(t, matches, got)
		embedder.AssertExpectations(t)
		searcher.AssertExpectations(t)
		auditLog.AssertExpectations(t)
	})

	t.Run("audit log failure does not fail the search", func(t *testing.T) {
		embedder := new(MockEmbeddingClient)
		searcher := new(MockSimilaritySearcher)
		auditLog := new(MockSearchLogger)

		embedder.On("EmbedOne", mock.Anything, "q").Return(queryVec, nil).Once()
		searcher.On("FindSimilar", mock.Anything, mock.Anything).Return([]*domain.DuplicateMatch{}, nil).Once()
		auditLog.On("Insert", mock.Anything, mock.Anything).Return("", errors.New("db down")).Once()

		svc := NewDuplicateService(embedder, searcher, nil, auditLog, defaultWeights())
		got, err := svc.FindDuplicates(ctx, DuplicateQuery{
			ProjectID: testProjectID, Content: "q", Threshold: 0.9, Limit: 10,
		})

		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("rejects out-of-range threshold before embedding", func(t *testing.T) {
		embedder := new(MockEmbeddingClient)

		svc := NewDuplicateService(embedder, new(MockSimilaritySearcher), nil, nil, defaultWeights())
		_, err := svc.FindDuplicates(ctx, DuplicateQuery{
			ProjectID: testProjectID, Content: "q", Threshold: 1.5, Limit: 10,
		})

		assert.ErrorIs(t, err, domain.ErrInvalidThreshold)
		embedder.AssertNotCalled(t, "EmbedOne", mock.Anything, mock.Anything)
	})

	t.Run("rejects out-of-range limit", func(t *testing.T) {
		svc := NewDuplicateService(new(MockEmbeddingClient), new(MockSimilaritySearcher), nil, nil, defaultWeights())

		_, err := svc.FindDuplicates(ctx, DuplicateQuery{
			ProjectID: testProjectID, Content: "q", Threshold: 0.9, Limit: 0,
		})

		assert.ErrorIs(t, err, domain.ErrInvalidLimit)
	})

	t.Run("rejects empty content", func(t *testing.T) {
		svc := NewDuplicateService(new(MockEmbeddingClient), new(MockSimilaritySearcher), nil, nil, defaultWeights())

		_, err := svc.FindDuplicates(ctx, DuplicateQuery{
			ProjectID: testProjectID, Content: "", Threshold: 0.9, Limit: 10,
		})

		assert.ErrorIs(t, err, domain.ErrEmptyContent)
	})

	t.Run("propagates embedding failure", func(t *testing.T) {
		embedder := new(MockEmbeddingClient)
		embedder.On("EmbedOne", mock.Anything, "q").Return(nil, domain.NewProviderError("embedding service unavailable", errors.New("timeout"))).Once()

		svc := NewDuplicateService(embedder, new(MockSimilaritySearcher), nil, nil, defaultWeights())
		_, err := svc.FindDuplicates(ctx, DuplicateQuery{
			ProjectID: testProjectID, Content: "q", Threshold: 0.9, Limit: 10,
		})

		var derr *domain.DomainError
		require.ErrorAs(t, err, &derr)
		assert.Equal(t, domain.ErrCodeProvider, derr.Code)
	})
}

func TestDuplicateService_FindSimilarProfiles(t *testing.T) {
	ctx := context.Background()

	t.Run("fuses primary and secondary scores with configured weights", func(t *testing.T) {
		embedder := new(MockEmbeddingClient)
		profiles := new(MockProfileStore)

		// Query aligned with the x axis. Profile vectors chosen so the
		// cosine similarities are exact: 1.0 against [1,0], 0.0 against [0,1].
		embedder.On("EmbedOne", mock.Anything, "stoic detective").Return([]float32{1, 0}, nil).Once()
		profiles.On("ListVectors", mock.Anything, testProjectID).Return([]*ProfileVectors{
			{ID: "p1", Name: "Mara", Primary: []float32{1, 0}, Secondary: []float32{0, 1}},
			{ID: "p2", Name: "Joss", Primary: []float32{0, 1}, Secondary: []float32{0, 1}},
			{ID: "p3", Name: "Renn", Primary: []float32{1, 0}, Secondary: []float32{1, 0}},
		}, nil).Once()

		svc := NewDuplicateService(embedder, nil, profiles, nil, defaultWeights())
		got, err := svc.FindSimilarProfiles(ctx, testProjectID, "stoic detective", 0.5, 10)

		require.NoError(t, err)
		// p3 fuses to 1.0, p1 to 0.7, p2 to 0.0 (below threshold).
		require.Len(t, got, 2)
		assert.Equal(t, "p3", got[0].ProfileID)
		assert.InDelta(t, 1.0, got[0].Similarity, 1e-9)
		assert.Equal(t, "p1", got[1].ProfileID)
		assert.InDelta(t, 0.7, got[1].Similarity, 1e-9)
	})

	t.Run("profile with one vector is scored on that vector alone", func(t *testing.T) {
		embedder := new(MockEmbeddingClient)
		profiles := new(MockProfileStore)

		embedder.On("EmbedOne", mock.Anything, "q").Return([]float32{1, 0}, nil).Once()
		profiles.On("ListVectors", mock.Anything, testProjectID).Return([]*ProfileVectors{
			{ID: "p1", Name: "Solo", Primary: []float32{1, 0}},
		}, nil).Once()

		svc := NewDuplicateService(embedder, nil, profiles, nil, defaultWeights())
		got, err := svc.FindSimilarProfiles(ctx, testProjectID, "q", 0.9, 10)

		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.InDelta(t, 1.0, got[0].Similarity, 1e-9)
	})

	t.Run("applies limit after sorting", func(t *testing.T) {
		embedder := new(MockEmbeddingClient)
		profiles := new(MockProfileStore)

		embedder.On("EmbedOne", mock.Anything, "q").Return([]float32{1, 0}, nil).Once()
		profiles.On("ListVectors", mock.Anything, testProjectID).Return([]*ProfileVectors{
			{ID: "p1", Name: "A", Primary: []float32{1, 0.5}, Secondary: []float32{1, 0.5}},
			{ID: "p2", Name: "B", Primary: []float32{1, 0}, Secondary: []float32{1, 0}},
		}, nil).Once()

		svc := NewDuplicateService(embedder, nil, profiles, nil, defaultWeights())
		got, err := svc.FindSimilarProfiles(ctx, testProjectID, "q", 0.1, 1)

		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "p2", got[0].ProfileID)
	})
}
