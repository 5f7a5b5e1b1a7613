package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"historando-backend/internal/middleware"
	"historando-backend/internal/models"
	"historando-backend/internal/repository"
)

type ParcoursHandler struct {
	parcoursRepo *repository.ParcoursRepo
	jobRepo      *repository.JobRepo
	redis        *redis.Client
}

func NewParcoursHandler(parcoursRepo *repository.ParcoursRepo, jobRepo *repository.JobRepo, redisClient *redis.Client) *ParcoursHandler {
	return &ParcoursHandler{
		parcoursRepo: parcoursRepo,
		jobRepo:      jobRepo,
		redis:        redisClient,
	}
}

// List returns published parcours; admins see drafts too.
func (h *ParcoursHandler) List(w http.ResponseWriter, r *http.Request) {
	publishedOnly := middleware.GetUserRole(r.Context()) != "admin"

	parcours, err := h.parcoursRepo.List(r.Context(), publishedOnly)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load parcours", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"parcours": parcours})
}

func (h *ParcoursHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid parcours ID", r))
		return
	}

	parcours, err := h.parcoursRepo.GetByID(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Parcours not found", r))
		return
	}

	if !parcours.IsPublished && middleware.GetUserRole(r.Context()) != "admin" {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Parcours not found", r))
		return
	}

	pois, err := h.parcoursRepo.ListPOIs(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load points of interest", r))
		return
	}
	parcours.POIs = pois
	parcours.POICount = len(pois)

	writeJSON(w, http.StatusOK, parcours)
}

func (h *ParcoursHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateParcoursRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	fields := validateParcoursRequest(req)
	if len(fields) > 0 {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", fields, r))
		return
	}

	parcours := &models.Parcours{
		Name:             req.Name,
		Description:      req.Description,
		City:             req.City,
		DistanceKm:       req.DistanceKm,
		EstimatedMinutes: req.EstimatedMinutes,
		Difficulty:       req.Difficulty,
		CompletionBonus:  req.CompletionBonus,
		IsPublished:      req.IsPublished,
		ImageURL:         req.ImageURL,
	}

	if err := h.parcoursRepo.Create(r.Context(), parcours); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to create parcours", r))
		return
	}

	writeJSON(w, http.StatusCreated, parcours)
}

func (h *ParcoursHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid parcours ID", r))
		return
	}

	parcours, err := h.parcoursRepo.GetByID(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Parcours not found", r))
		return
	}

	var req models.CreateParcoursRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	fields := validateParcoursRequest(req)
	if len(fields) > 0 {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", fields, r))
		return
	}

	parcours.Name = req.Name
	parcours.Description = req.Description
	parcours.City = req.City
	parcours.DistanceKm = req.DistanceKm
	parcours.EstimatedMinutes = req.EstimatedMinutes
	parcours.Difficulty = req.Difficulty
	parcours.CompletionBonus = req.CompletionBonus
	parcours.IsPublished = req.IsPublished
	parcours.ImageURL = req.ImageURL

	if err := h.parcoursRepo.Update(r.Context(), parcours); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to update parcours", r))
		return
	}

	writeJSON(w, http.StatusOK, parcours)
}

func (h *ParcoursHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid parcours ID", r))
		return
	}

	if err := h.parcoursRepo.Delete(r.Context(), id); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to delete parcours", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Parcours deleted"})
}

// CreatePOI adds a point of interest and queues QR code rendering.
func (h *ParcoursHandler) CreatePOI(w http.ResponseWriter, r *http.Request) {
	parcoursID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid parcours ID", r))
		return
	}

	if _, err := h.parcoursRepo.GetByID(r.Context(), parcoursID); err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Parcours not found", r))
		return
	}

	var req models.CreatePOIRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
			map[string]string{"name": "Name is required"}, r))
		return
	}
	if req.Latitude < -90 || req.Latitude > 90 || req.Longitude < -180 || req.Longitude > 180 {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
			map[string]string{"latitude": "Coordinates out of range"}, r))
		return
	}

	poi := &models.POI{
		ParcoursID:  parcoursID,
		Name:        req.Name,
		Description: req.Description,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		Position:    req.Position,
		QRToken:     newQRToken(),
	}

	if err := h.parcoursRepo.CreatePOI(r.Context(), poi); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to create point of interest", r))
		return
	}

	jobID := h.enqueueQRJob(r, poi.ID)

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"poi":    poi,
		"job_id": jobID,
	})
}

func (h *ParcoursHandler) DeletePOI(w http.ResponseWriter, r *http.Request) {
	poiID, err := uuid.Parse(chi.URLParam(r, "poiID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid POI ID", r))
		return
	}

	if err := h.parcoursRepo.DeletePOI(r.Context(), poiID); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to delete point of interest", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Point of interest deleted"})
}

// RegenerateQR rotates the scan token and re-renders the QR image.
func (h *ParcoursHandler) RegenerateQR(w http.ResponseWriter, r *http.Request) {
	poiID, err := uuid.Parse(chi.URLParam(r, "poiID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid POI ID", r))
		return
	}

	poi, err := h.parcoursRepo.GetPOIByID(r.Context(), poiID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Point of interest not found", r))
		return
	}

	poi.QRToken = newQRToken()
	if err := h.parcoursRepo.UpdatePOIToken(r.Context(), poi.ID, poi.QRToken); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to rotate QR token", r))
		return
	}

	jobID := h.enqueueQRJob(r, poi.ID)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"poi":    poi,
		"job_id": jobID,
	})
}

func (h *ParcoursHandler) enqueueQRJob(r *http.Request, poiID uuid.UUID) *uuid.UUID {
	job := &models.Job{
		ID:          uuid.New(),
		UserID:      middleware.GetUserID(r.Context()),
		Type:        "poi-qrcode",
		ReferenceID: poiID,
	}

	if err := h.jobRepo.Create(r.Context(), job); err != nil {
		return nil
	}
	if h.redis != nil {
		jobBytes, _ := json.Marshal(job)
		h.redis.LPush(r.Context(), "queue:poi-qrcode", string(jobBytes))
	}
	return &job.ID
}

func validateParcoursRequest(req models.CreateParcoursRequest) map[string]string {
	fields := map[string]string{}
	if req.Name == "" {
		fields["name"] = "Name is required"
	}
	if req.DistanceKm <= 0 {
		fields["distance_km"] = "Distance must be positive"
	}
	switch req.Difficulty {
	case "easy", "moderate", "hard":
	default:
		fields["difficulty"] = "Difficulty must be easy, moderate, or hard"
	}
	if req.CompletionBonus < 0 {
		fields["completion_bonus"] = "Completion bonus cannot be negative"
	}
	return fields
}

func newQRToken() string {
	b := make([]byte, 16)
	rand.Read(b)
	return hex.EncodeToString(b)
}
