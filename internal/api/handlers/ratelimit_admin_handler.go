package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"convertly-api/internal/models"
	"convertly-api/internal/pkg/errors"
	"convertly-api/internal/ratelimit"
	"convertly-api/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// RateLimitAdminHandler exposes the admin surface of the rate limit engine:
// inspect a user's settings and effective limits, change tiers, and manage
// per-policy overrides. Every mutation is audit-logged.
type RateLimitAdminHandler struct {
	engine       *ratelimit.Engine
	auditService services.AuditLogService
	validate     *validator.Validate
}

func NewRateLimitAdminHandler(engine *ratelimit.Engine, auditService services.AuditLogService) *RateLimitAdminHandler {
	return &RateLimitAdminHandler{
		engine:       engine,
		auditService: auditService,
		validate:     validator.New(),
	}
}

type updateTierRequest struct {
	Tier string `json:"tier" validate:"required,oneof=FREE BASIC PREMIUM UNLIMITED"`
}

type setOverrideRequest struct {
	PermitLimit   int        `json:"permit_limit" validate:"required,gt=0"`
	WindowSeconds int        `json:"window_seconds" validate:"required,gt=0"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
}

// InspectUser returns the stored settings together with the limit currently
// in force for each known policy.
func (h *RateLimitAdminHandler) InspectUser(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	settings, err := h.engine.GetOrCreateSettings(r.Context(), userID)
	if err != nil {
		writeRateLimitError(w, err)
		return
	}

	limits, err := h.engine.EffectiveLimits(r.Context(), userID)
	if err != nil {
		writeRateLimitError(w, err)
		return
	}

	effective := make(map[string]map[string]interface{}, len(limits))
	for policy, limit := range limits {
		effective[policy] = map[string]interface{}{
			"permit_limit":   limit.PermitLimit,
			"window_seconds": int(limit.Window.Seconds()),
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"settings":         settings,
		"effective_limits": effective,
	})
}

func (h *RateLimitAdminHandler) UpdateTier(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	var req updateTierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.engine.UpdateTier(r.Context(), userID, models.RateLimitTier(req.Tier)); err != nil {
		writeRateLimitError(w, err)
		return
	}

	h.audit(r, "update_tier", userID, fmt.Sprintf("tier=%s", req.Tier))

	w.WriteHeader(http.StatusNoContent)
}

func (h *RateLimitAdminHandler) SetOverride(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	userID, err := uuid.Parse(vars["id"])
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}
	policy := vars["policy"]

	var req setOverrideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	limit := ratelimit.PolicyLimit{
		PermitLimit: req.PermitLimit,
		Window:      time.Duration(req.WindowSeconds) * time.Second,
	}

	if err := h.engine.SetOverride(r.Context(), userID, policy, limit, req.ExpiresAt); err != nil {
		writeRateLimitError(w, err)
		return
	}

	h.audit(r, "set_override", userID,
		fmt.Sprintf("policy=%s limit=%d window=%ds", policy, req.PermitLimit, req.WindowSeconds))

	w.WriteHeader(http.StatusNoContent)
}

func (h *RateLimitAdminHandler) ClearOverride(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	userID, err := uuid.Parse(vars["id"])
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}
	policy := vars["policy"]

	if err := h.engine.ClearOverride(r.Context(), userID, policy); err != nil {
		writeRateLimitError(w, err)
		return
	}

	h.audit(r, "clear_override", userID, fmt.Sprintf("policy=%s", policy))

	w.WriteHeader(http.StatusNoContent)
}

func (h *RateLimitAdminHandler) audit(r *http.Request, action string, userID uuid.UUID, details string) {
	admin, ok := services.UserFromContext(r.Context())
	if !ok {
		return
	}
	_ = h.auditService.CreateAuditLog(r.Context(), admin.ID.String(), action, "user_rate_limit_settings", userID.String(), details)
}

func writeRateLimitError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errors.ErrUserNotFound):
		http.Error(w, "User not found", http.StatusNotFound)
	case errors.Is(err, errors.ErrInvalidInput), errors.Is(err, errors.ErrUnknownPolicy):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, errors.ErrStoreUnavailable):
		http.Error(w, "Service temporarily unavailable", http.StatusServiceUnavailable)
	default:
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
