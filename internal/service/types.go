package service

import (
	"context"

	"github.com/reelworks/brain/internal/domain"
	"github.com/reelworks/brain/internal/llm"
	"github.com/reelworks/brain/internal/pagination"
)

// EmbeddingClient is the resilient embedding collaborator shared by the
// ingestion and query paths.
type EmbeddingClient interface {
	EmbedOne(ctx context.Context, text string) ([]float32, error)
	EmbedMany(ctx context.Context, texts []string) ([][]float32, error)
	Model() string
	Dimensions() int
}

// Completer is the language-model collaborator. Output is free text and
// is always parsed defensively by the caller.
type Completer interface {
	Complete(ctx context.Context, messages []llm.Message, temperature float32, maxTokens int) (string, error)
}

// SimilarityFilters narrows a similarity search. All predicates combine
// conjunctively; unset filters are omitted from the store query.
type SimilarityFilters struct {
	Type       string
	Segment    string
	ExcludeIDs []string
}

// SimilarityQuery describes one threshold-filtered cosine search against
// the store.
type SimilarityQuery struct {
	ProjectID string
	Embedding []float32
	Threshold float64
	Limit     int
	Filters   SimilarityFilters
}

// NodePage is one keyset-paginated page of nodes.
type NodePage struct {
	Items      []*domain.Node
	NextCursor string
	HasMore    bool
}

// ProfileVectors carries both embeddings of one profile for weighted
// fusion scoring. Either vector may be empty when never generated.
type ProfileVectors struct {
	ID        string
	Name      string
	Primary   []float32
	Secondary []float32
}

// SearchLogEntry records one duplicate search for later threshold tuning.
type SearchLogEntry struct {
	ProjectID     string
	ContentLength int
	Threshold     float64
	Type          string
	Segment       string
	ResultCount   int
	TopSimilarity float64
	DurationMS    int64
}

// NodeCreator writes nodes into the store.
type NodeCreator interface {
	Create(ctx context.Context, n *domain.Node) error
}

// SimilaritySearcher answers threshold-filtered cosine queries.
type SimilaritySearcher interface {
	FindSimilar(ctx context.Context, q SimilarityQuery) ([]*domain.DuplicateMatch, error)
}

// SegmentReader lists recent embedded nodes per segment.
type SegmentReader interface {
	ListRecentBySegment(ctx context.Context, projectID, segment string, limit int) ([]*domain.Node, error)
}

// NodeReader serves single-node and paginated lookups.
type NodeReader interface {
	GetByID(ctx context.Context, id string) (*domain.Node, error)
	ListByProjectWithCursor(ctx context.Context, projectID string, cursor *pagination.Cursor, limit int) (*NodePage, error)
	CountBySegment(ctx context.Context, projectID string) (map[string]int, error)
}

// ProfileStore persists multi-vector profiles.
type ProfileStore interface {
	Create(ctx context.Context, p *domain.Profile) error
	GetByID(ctx context.Context, id string) (*domain.Profile, error)
	ListVectors(ctx context.Context, projectID string) ([]*ProfileVectors, error)
}

// SearchLogger records duplicate searches. Logging is best-effort and
// never fails the search.
type SearchLogger interface {
	Insert(ctx context.Context, entry SearchLogEntry) (string, error)
}
