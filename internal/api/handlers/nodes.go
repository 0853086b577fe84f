package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/reelworks/brain/internal/api"
	"github.com/reelworks/brain/internal/domain"
	"github.com/reelworks/brain/internal/service"
)

const defaultListLimit = 20

type NodeQueryService interface {
	GetNode(ctx context.Context, id string) (*domain.Node, error)
	ListNodes(ctx context.Context, projectID, cursor string, limit int) (*service.NodePage, error)
	Stats(ctx context.Context, projectID string) (map[string]int, error)
}

type NodeHandler struct {
	svc NodeQueryService
}

func NewNodeHandler(svc NodeQueryService) *NodeHandler {
	return &NodeHandler{svc: svc}
}

type NodeResponse struct {
	ID           string         `json:"id"`
	Type         string         `json:"type"`
	Content      string         `json:"content"`
	ProjectID    string         `json:"projectId"`
	Segment      string         `json:"segment,omitempty"`
	Summary      string         `json:"summary,omitempty"`
	QualityScore float64        `json:"qualityScore,omitempty"`
	Properties   map[string]any `json:"properties"`
	CreatedAt    string         `json:"createdAt"`
}

func nodeToResponse(n *domain.Node) *NodeResponse {
	return &NodeResponse{
		ID:           n.ID,
		Type:         n.Type,
		Content:      n.Content,
		ProjectID:    n.ProjectID,
		Segment:      n.Segment,
		Summary:      n.Summary,
		QualityScore: n.QualityScore,
		Properties:   n.Properties,
		CreatedAt:    n.CreatedAt.UTC().Format(time.RFC3339),
	}
}

type NodeListResponse struct {
	Nodes      []*NodeResponse `json:"nodes"`
	NextCursor string          `json:"nextCursor,omitempty"`
	HasMore    bool            `json:"hasMore"`
}

func (h *NodeHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	node, err := h.svc.GetNode(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, nodeToResponse(node))
}

func (h *NodeHandler) List(w http.ResponseWriter, r *http.Request) {
	projectID := r.URL.Query().Get("project_id")
	cursor := r.URL.Query().Get("cursor")

	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			api.Error(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = parsed
	}

	page, err := h.svc.ListNodes(r.Context(), projectID, cursor, limit)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	resp := NodeListResponse{
		Nodes:      make([]*NodeResponse, len(page.Items)),
		NextCursor: page.NextCursor,
		HasMore:    page.HasMore,
	}
	for i, n := range page.Items {
		resp.Nodes[i] = nodeToResponse(n)
	}

	api.Success(w, http.StatusOK, resp)
}

type StatsResponse struct {
	ProjectID  string         `json:"projectId"`
	Segments   map[string]int `json:"segments"`
	TotalNodes int            `json:"totalNodes"`
}

func (h *NodeHandler) Stats(w http.ResponseWriter, r *http.Request) {
	projectID := r.URL.Query().Get("project_id")

	counts, err := h.svc.Stats(r.Context(), projectID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	resp := StatsResponse{ProjectID: projectID, Segments: counts}
	for _, n := range counts {
		resp.TotalNodes += n
	}

	api.Success(w, http.StatusOK, resp)
}
