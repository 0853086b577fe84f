//go:build integration

package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reelworks/brain/internal/domain"
	"github.com/reelworks/brain/internal/pagination"
	"github.com/reelworks/brain/internal/service"
	"github.com/reelworks/brain/internal/testutil"
)

const testProject = "507f1f77bcf86cd799439011"

// unitVector returns a 1536-dim vector pointing along the given axis.
func unitVector(axis int) []float32 {
	v := make([]float32, 1536)
	v[axis] = 1
	return v
}

func testNode(axis int, content, segment string) *domain.Node {
	return &domain.Node{
		ID:        uuid.NewString(),
		Type:      "content",
		Content:   content,
		ProjectID: testProject,
		Segment:   segment,
		Embedding: unitVector(axis),
		Properties: map[string]any{
			"source": "test",
		},
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
}

func TestNodeRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewNodeRepository(pool)

	n := testNode(0, "opening scene on the rooftop", "story")
	n.Summary = "rooftop opening"
	n.QualityScore = 0.8
	require.NoError(t, repo.Create(ctx, n))

	got, err := repo.GetByID(ctx, n.ID)
	require.NoError(t, err)
	assert.Equal(t, n.ID, got.ID)
	assert.Equal(t, n.Content, got.Content)
	assert.Equal(t, n.ProjectID, got.ProjectID)
	assert.Equal(t, "story", got.Segment)
	assert.Equal(t, "rooftop opening", got.Summary)
	assert.InDelta(t, 0.8, got.QualityScore, 1e-9)
	assert.Equal(t, "test", got.Properties["source"])
}

func TestNodeRepository_GetByID_NotFound(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewNodeRepository(pool)

	_, err := repo.GetByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrNodeNotFound)
}

func TestNodeRepository_FindSimilar(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewNodeRepository(pool)

	exact := testNode(0, "identical content", "story")
	orthogonal := testNode(1, "unrelated content", "story")
	require.NoError(t, repo.Create(ctx, exact))
	require.NoError(t, repo.Create(ctx, orthogonal))

	matches, err := repo.FindSimilar(ctx, service.SimilarityQuery{
		ProjectID: testProject,
		Embedding: unitVector(0),
		Threshold: 0.9,
		Limit:     10,
	})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, exact.ID, matches[0].NodeID)
	assert.InDelta(t, 1.0, matches[0].Similarity, 1e-6)
}

func TestNodeRepository_FindSimilar_ExcludesIDs(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewNodeRepository(pool)

	a := testNode(0, "the same scene", "story")
	b := testNode(0, "the same scene again", "story")
	require.NoError(t, repo.Create(ctx, a))
	require.NoError(t, repo.Create(ctx, b))

	matches, err := repo.FindSimilar(ctx, service.SimilarityQuery{
		ProjectID: testProject,
		Embedding: unitVector(0),
		Threshold: 0.9,
		Limit:     10,
		Filters:   service.SimilarityFilters{ExcludeIDs: []string{a.ID}},
	})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, b.ID, matches[0].NodeID)
}

func TestNodeRepository_ListRecentBySegment(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewNodeRepository(pool)

	for i := 0; i < 3; i++ {
		n := testNode(i, fmt.Sprintf("story beat %d", i), "story")
		n.CreatedAt = time.Now().UTC().Add(time.Duration(i) * time.Second).Truncate(time.Microsecond)
		require.NoError(t, repo.Create(ctx, n))
	}
	require.NoError(t, repo.Create(ctx, testNode(3, "character sketch", "character")))

	nodes, err := repo.ListRecentBySegment(ctx, testProject, "story", 2)
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	assert.Equal(t, "story beat 2", nodes[0].Content)
	assert.Equal(t, "story beat 1", nodes[1].Content)
}

func TestNodeRepository_ListByProjectWithCursor(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewNodeRepository(pool)

	for i := 0; i < 5; i++ {
		n := testNode(i, fmt.Sprintf("node %d", i), "story")
		n.CreatedAt = time.Now().UTC().Add(time.Duration(i) * time.Second).Truncate(time.Microsecond)
		require.NoError(t, repo.Create(ctx, n))
	}

	page, err := repo.ListByProjectWithCursor(ctx, testProject, nil, 2)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.True(t, page.HasMore)
	assert.NotEmpty(t, page.NextCursor)
	assert.Equal(t, "node 4", page.Items[0].Content)

	cursor, err := pagination.Decode(page.NextCursor)
	require.NoError(t, err)

	page2, err := repo.ListByProjectWithCursor(ctx, testProject, cursor, 10)
	require.NoError(t, err)
	require.Len(t, page2.Items, 3)
	assert.False(t, page2.HasMore)
	assert.Empty(t, page2.NextCursor)
	assert.Equal(t, "node 2", page2.Items[0].Content)
}

func TestNodeRepository_CountBySegment(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewNodeRepository(pool)

	require.NoError(t, repo.Create(ctx, testNode(0, "a", "story")))
	require.NoError(t, repo.Create(ctx, testNode(1, "b", "story")))
	require.NoError(t, repo.Create(ctx, testNode(2, "c", "character")))

	counts, err := repo.CountBySegment(ctx, testProject)
	require.NoError(t, err)
	assert.Equal(t, 2, counts["story"])
	assert.Equal(t, 1, counts["character"])
}

func TestProfileRepository_CreateAndListVectors(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewProfileRepository(pool)

	now := time.Now().UTC().Truncate(time.Microsecond)
	full := &domain.Profile{
		ID:                 uuid.NewString(),
		ProjectID:          testProject,
		Name:               "Mara",
		PrimaryText:        "a ruthless detective",
		SecondaryText:      "haunted by an old case",
		PrimaryEmbedding:   unitVector(0),
		SecondaryEmbedding: unitVector(1),
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	require.NoError(t, repo.Create(ctx, full))

	partial := &domain.Profile{
		ID:               uuid.NewString(),
		ProjectID:        testProject,
		Name:             "Juno",
		PrimaryText:      "the getaway driver",
		PrimaryEmbedding: unitVector(2),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	require.NoError(t, repo.Create(ctx, partial))

	got, err := repo.GetByID(ctx, full.ID)
	require.NoError(t, err)
	assert.Equal(t, "Mara", got.Name)
	assert.Len(t, got.PrimaryEmbedding, 1536)
	assert.Len(t, got.SecondaryEmbedding, 1536)

	_, err = repo.GetByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrProfileNotFound)

	vectors, err := repo.ListVectors(ctx, testProject)
	require.NoError(t, err)
	require.Len(t, vectors, 2)

	byName := make(map[string]*service.ProfileVectors)
	for _, pv := range vectors {
		byName[pv.Name] = pv
	}
	assert.Len(t, byName["Mara"].Secondary, 1536)
	assert.Empty(t, byName["Juno"].Secondary)
}

func TestSearchLogRepository_Insert(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewSearchLogRepository(pool)

	id, err := repo.Insert(ctx, service.SearchLogEntry{
		ProjectID:     testProject,
		ContentLength: 120,
		Threshold:     0.9,
		Segment:       "story",
		ResultCount:   3,
		TopSimilarity: 0.97,
		DurationMS:    42,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	var filters map[string]any
	err = pool.QueryRow(ctx, "SELECT filters FROM search_logs WHERE id = $1", id).Scan(&filters)
	require.NoError(t, err)
	assert.Equal(t, "story", filters["segment"])
}
