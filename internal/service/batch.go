package service

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/reelworks/brain/internal/domain"
	"github.com/reelworks/brain/internal/telemetry"
)

// BatchConfig bounds batch ingestion. The concurrency limit protects the
// embedding provider and the store from overload, not correctness.
type BatchConfig struct {
	MaxItems      int
	ChunkSize     int
	MaxConcurrent int
}

func DefaultBatchConfig() BatchConfig {
	return BatchConfig{
		MaxItems:      50,
		ChunkSize:     50,
		MaxConcurrent: 5,
	}
}

// BatchItem is one content unit submitted for ingestion.
type BatchItem struct {
	Type       string
	Content    string
	Properties map[string]any
}

// BatchService coordinates batch embedding and storage of content items.
type BatchService struct {
	embedder EmbeddingClient
	store    NodeCreator
	ids      UUIDGenerator
	now      func() time.Time
	cfg      BatchConfig
	sem      *semaphore.Weighted
}

func NewBatchService(embedder EmbeddingClient, store NodeCreator, ids UUIDGenerator) *BatchService {
	return NewBatchServiceWithConfig(embedder, store, ids, DefaultBatchConfig())
}

func NewBatchServiceWithConfig(embedder EmbeddingClient, store NodeCreator, ids UUIDGenerator, cfg BatchConfig) *BatchService {
	if cfg.MaxItems <= 0 {
		cfg.MaxItems = 50
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 50
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 5
	}
	return &BatchService{
		embedder: embedder,
		store:    store,
		ids:      ids,
		now:      func() time.Time { return time.Now().UTC() },
		cfg:      cfg,
		sem:      semaphore.NewWeighted(int64(cfg.MaxConcurrent)),
	}
}

// chunkResult carries one chunk's outcome. Chunks share no mutable
// state; aggregation reduces these after every chunk has finished.
type chunkResult struct {
	ids     []string
	nodes   []domain.BatchNode
	embedMS int64
	writeMS int64
	failed  int
	err     error
}

// CreateBatch embeds and stores 1..MaxItems content units. Oversized and
// empty requests are rejected before any provider or store call. Chunks
// run concurrently under the semaphore; a failing chunk is counted as
// failed without disturbing the others.
func (s *BatchService) CreateBatch(ctx context.Context, projectID string, items []BatchItem) (*domain.BatchResult, error) {
	if err := domain.ValidateProjectID(projectID); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, domain.ErrEmptyBatch
	}
	if len(items) > s.cfg.MaxItems {
		return nil, domain.ErrBatchTooLarge
	}
	for i, item := range items {
		if item.Content == "" {
			return nil, domain.NewDomainError(domain.ErrCodeValidation, fmt.Sprintf("item %d has no content", i))
		}
		if item.Type == "" {
			return nil, domain.NewDomainError(domain.ErrCodeValidation, fmt.Sprintf("item %d has no type", i))
		}
	}

	ctx, span := telemetry.StartSpan(ctx, "batch.create", telemetry.SpanAttributes{
		ProjectID: projectID,
		Operation: "create_batch",
	})
	defer span.End()

	start := s.now()

	chunks := partition(items, s.cfg.ChunkSize)
	results := make([]chunkResult, len(chunks))

	var wg sync.WaitGroup
	for i, chunk := range chunks {
		if err := s.sem.Acquire(ctx, 1); err != nil {
			results[i] = chunkResult{failed: len(chunk), err: err}
			continue
		}
		wg.Add(1)
		go func(i int, chunk []BatchItem) {
			defer wg.Done()
			defer s.sem.Release(1)
			results[i] = s.processChunk(ctx, projectID, chunk)
		}(i, chunk)
	}
	wg.Wait()

	result := &domain.BatchResult{
		NodeIDs: make([]string, 0, len(items)),
		Nodes:   make([]domain.BatchNode, 0, len(items)),
	}
	for _, cr := range results {
		if cr.err != nil {
			log.Printf("batch chunk failed: %v", cr.err)
			result.FailedCount += cr.failed
			continue
		}
		result.CreatedCount += len(cr.ids)
		result.NodeIDs = append(result.NodeIDs, cr.ids...)
		result.Nodes = append(result.Nodes, cr.nodes...)
		result.Timing.EmbedMS += cr.embedMS
		result.Timing.WriteMS += cr.writeMS
	}
	result.Timing.TotalMS = s.now().Sub(start).Milliseconds()

	return result, nil
}

// processChunk embeds the whole chunk in one provider round trip, then
// writes the nodes. Embedding strictly precedes the writes.
func (s *BatchService) processChunk(ctx context.Context, projectID string, chunk []BatchItem) chunkResult {
	embedStart := s.now()
	contents := make([]string, len(chunk))
	for i, item := range chunk {
		contents[i] = item.Content
	}
	vectors, err := s.embedder.EmbedMany(ctx, contents)
	if err != nil {
		return chunkResult{failed: len(chunk), err: fmt.Errorf("embedding phase: %w", err)}
	}
	embedMS := s.now().Sub(embedStart).Milliseconds()

	writeStart := s.now()
	cr := chunkResult{embedMS: embedMS}
	for i, item := range chunk {
		node := domain.NewNode(s.ids.NewString(), item.Type, item.Content, projectID, vectors[i], item.Properties, s.now())
		if err := s.store.Create(ctx, node); err != nil {
			return chunkResult{failed: len(chunk), err: fmt.Errorf("write phase for item %d: %w", i, err)}
		}
		cr.ids = append(cr.ids, node.ID)
		cr.nodes = append(cr.nodes, domain.BatchNode{
			ID:         node.ID,
			Type:       node.Type,
			Properties: node.Properties,
			Embedding: domain.EmbeddingMeta{
				Dimensions: len(vectors[i]),
				Model:      s.embedder.Model(),
			},
		})
	}
	cr.writeMS = s.now().Sub(writeStart).Milliseconds()
	return cr
}

func partition(items []BatchItem, size int) [][]BatchItem {
	var chunks [][]BatchItem
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		chunks = append(chunks, items[start:end])
	}
	return chunks
}
