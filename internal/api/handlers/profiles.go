package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/reelworks/brain/internal/api"
	"github.com/reelworks/brain/internal/domain"
	"github.com/reelworks/brain/internal/service"
)

type ProfileService interface {
	CreateProfile(ctx context.Context, projectID string, input service.ProfileInput) (*domain.Profile, error)
	GetProfile(ctx context.Context, id string) (*domain.Profile, error)
}

type ProfileSearchService interface {
	FindSimilarProfiles(ctx context.Context, projectID, query string, threshold float64, limit int) ([]*domain.ProfileMatch, error)
}

type ProfileHandler struct {
	svc    ProfileService
	search ProfileSearchService
}

func NewProfileHandler(svc ProfileService, search ProfileSearchService) *ProfileHandler {
	return &ProfileHandler{svc: svc, search: search}
}

type CreateProfileRequest struct {
	ProjectID     string `json:"projectId"`
	Name          string `json:"name"`
	PrimaryText   string `json:"primaryDescription"`
	SecondaryText string `json:"secondaryDescription"`
}

type ProfileResponse struct {
	ID        string `json:"id"`
	ProjectID string `json:"projectId"`
	Name      string `json:"name"`
	CreatedAt string `json:"createdAt"`
}

func (h *ProfileHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	profile, err := h.svc.CreateProfile(r.Context(), req.ProjectID, service.ProfileInput{
		Name:          req.Name,
		PrimaryText:   req.PrimaryText,
		SecondaryText: req.SecondaryText,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, ProfileResponse{
		ID:        profile.ID,
		ProjectID: profile.ProjectID,
		Name:      profile.Name,
		CreatedAt: profile.CreatedAt.UTC().Format(time.RFC3339),
	})
}

type ProfileDetailResponse struct {
	ID            string `json:"id"`
	ProjectID     string `json:"projectId"`
	Name          string `json:"name"`
	PrimaryText   string `json:"primaryDescription"`
	SecondaryText string `json:"secondaryDescription,omitempty"`
	CreatedAt     string `json:"createdAt"`
	UpdatedAt     string `json:"updatedAt"`
}

func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	profile, err := h.svc.GetProfile(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, ProfileDetailResponse{
		ID:            profile.ID,
		ProjectID:     profile.ProjectID,
		Name:          profile.Name,
		PrimaryText:   profile.PrimaryText,
		SecondaryText: profile.SecondaryText,
		CreatedAt:     profile.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:     profile.UpdatedAt.UTC().Format(time.RFC3339),
	})
}

type ProfileSearchRequest struct {
	ProjectID string   `json:"projectId"`
	Query     string   `json:"query"`
	Threshold *float64 `json:"threshold"`
	Limit     *int     `json:"limit"`
}

type ProfileSearchResponse struct {
	Matches []*domain.ProfileMatch `json:"matches"`
}

func (h *ProfileHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req ProfileSearchRequest
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

	matches, err := h.search.FindSimilarProfiles(r.Context(), req.ProjectID, req.Query, threshold, limit)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	if matches == nil {
		matches = []*domain.ProfileMatch{}
	}
	api.Success(w, http.StatusOK, ProfileSearchResponse{Matches: matches})
}
