package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"convertly-api/internal/pkg/errors"
	"convertly-api/internal/services"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type ConversionHandler struct {
	conversionService services.ConversionService
}

func NewConversionHandler(conversionService services.ConversionService) *ConversionHandler {
	return &ConversionHandler{
		conversionService: conversionService,
	}
}

type submitConversionRequest struct {
	SourceFormat string `json:"source_format"`
	TargetFormat string `json:"target_format"`
	SourceURL    string `json:"source_url"`
}

func (h *ConversionHandler) SubmitJob(w http.ResponseWriter, r *http.Request) {
	user, ok := services.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req submitConversionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	job, err := h.conversionService.SubmitJob(r.Context(), user.ID, req.SourceFormat, req.TargetFormat, req.SourceURL)
	if err != nil {
		if errors.Is(err, errors.ErrInvalidInput) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(job)
}

func (h *ConversionHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	user, ok := services.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	jobID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid job ID", http.StatusBadRequest)
		return
	}

	job, err := h.conversionService.GetJob(r.Context(), user.ID, jobID)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			http.Error(w, "Job not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(job)
}

func (h *ConversionHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	user, ok := services.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))

	jobs, total, err := h.conversionService.ListJobs(r.Context(), user.ID, page, pageSize)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"jobs":  jobs,
		"total": total,
	})
}
