package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/reelworks/brain/internal/api"
	"github.com/reelworks/brain/internal/domain"
	"github.com/reelworks/brain/internal/service"
)

const (
	defaultThreshold    = 0.90
	defaultSearchLimit  = 10
	defaultContextLimit = 20
)

type BatchService interface {
	CreateBatch(ctx context.Context, projectID string, items []service.BatchItem) (*domain.BatchResult, error)
}

type DuplicateService interface {
	FindDuplicates(ctx context.Context, q service.DuplicateQuery) ([]*domain.DuplicateMatch, error)
}

type ContextService interface {
	SegmentContext(ctx context.Context, projectID, target string, sources []string, limitPerSegment int) (*domain.AggregatedContext, error)
}

type CoverageService interface {
	Analyze(ctx context.Context, projectID, segment string, items []domain.CoverageItem, description string) (*domain.CoverageReport, error)
}

type GatherHandler struct {
	batch      BatchService
	duplicates DuplicateService
	contexts   ContextService
	coverage   CoverageService
}

func NewGatherHandler(batch BatchService, duplicates DuplicateService, contexts ContextService, coverage CoverageService) *GatherHandler {
	return &GatherHandler{
		batch:      batch,
		duplicates: duplicates,
		contexts:   contexts,
		coverage:   coverage,
	}
}

type BatchNodeInput struct {
	Type       string         `json:"type"`
	Content    string         `json:"content"`
	ProjectID  string         `json:"projectId"`
	Properties map[string]any `json:"properties"`
}

type BatchCreateRequest struct {
	Nodes []BatchNodeInput `json:"nodes"`
}

func (h *GatherHandler) CreateBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Nodes) == 0 {
		api.Error(w, http.StatusBadRequest, "nodes is required")
		return
	}

	projectID := req.Nodes[0].ProjectID
	if err := domain.ValidateProjectID(projectID); err != nil {
		api.HandleError(w, err)
		return
	}

	items := make([]service.BatchItem, len(req.Nodes))
	for i, n := range req.Nodes {
		// Single-tenant batches only: mixing projects in one request
		// would break the downstream isolation guarantees.
		if n.ProjectID != projectID {
			api.Error(w, http.StatusBadRequest, "all nodes in a batch must share the same projectId")
			return
		}
		items[i] = service.BatchItem{
			Type:       n.Type,
			Content:    n.Content,
			Properties: n.Properties,
		}
	}

	result, err := h.batch.CreateBatch(r.Context(), projectID, items)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, result)
}

type DuplicateSearchRequest struct {
	Content        string   `json:"content"`
	ProjectID      string   `json:"projectId"`
	Threshold      *float64 `json:"threshold"`
	Limit          *int     `json:"limit"`
	Type           string   `json:"type"`
	Segment        string   `json:"segment"`
	ExcludeNodeIDs []string `json:"excludeNodeIds"`
}

type DuplicateSearchResponse struct {
	Duplicates []*domain.DuplicateMatch `json:"duplicates"`
}

func (h *GatherHandler) SearchDuplicates(w http.ResponseWriter, r *http.Request) {
	var req DuplicateSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	threshold := defaultThreshold
	if req.Threshold != nil {
		threshold = *req.Threshold
	}
	limit := defaultSearchLimit
	if req.Limit != nil {
		limit = *req.Limit
	}

	matches, err := h.duplicates.FindDuplicates(r.Context(), service.DuplicateQuery{
		ProjectID: req.ProjectID,
		Content:   req.Content,
		Threshold: threshold,
		Limit:     limit,
		Filters: service.SimilarityFilters{
			Type:       req.Type,
			Segment:    req.Segment,
			ExcludeIDs: req.ExcludeNodeIDs,
		},
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	if matches == nil {
		matches = []*domain.DuplicateMatch{}
	}
	api.Success(w, http.StatusOK, DuplicateSearchResponse{Duplicates: matches})
}

type SegmentContextRequest struct {
	ProjectID        string   `json:"projectId"`
	TargetSegment    string   `json:"targetSegment"`
	PreviousSegments []string `json:"previousSegments"`
	Limit            *int     `json:"limit"`
}

func (h *GatherHandler) SegmentContext(w http.ResponseWriter, r *http.Request) {
	var req SegmentContextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	limit := defaultContextLimit
	if req.Limit != nil {
		limit = *req.Limit
	}

	result, err := h.contexts.SegmentContext(r.Context(), req.ProjectID, req.TargetSegment, req.PreviousSegments, limit)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, result)
}

type CoverageAnalysisRequest struct {
	ProjectID          string                `json:"projectId"`
	Segment            string                `json:"segment"`
	Items              []domain.CoverageItem `json:"items"`
	SegmentDescription string                `json:"segmentDescription"`
}

func (h *GatherHandler) AnalyzeCoverage(w http.ResponseWriter, r *http.Request) {
	var req CoverageAnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	report, err := h.coverage.Analyze(r.Context(), req.ProjectID, req.Segment, req.Items, req.SegmentDescription)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, report)
}
