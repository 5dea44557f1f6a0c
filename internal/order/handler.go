package order

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/pharmetrix/careplan-service/internal/careplan"
	"github.com/pharmetrix/careplan-service/internal/dedup"
	"github.com/pharmetrix/careplan-service/internal/intake"
	"github.com/pharmetrix/careplan-service/internal/pagination"
)

// maxPayloadBytes caps the intake request body.
const maxPayloadBytes = 1 << 20

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type ErrorResponse struct {
	Error    string          `json:"error"`
	Message  string          `json:"message"`
	Warnings []dedup.Warning `json:"warnings,omitempty"`

	// RequiresConfirmation signals the caller may resubmit with confirm=true.
	RequiresConfirmation bool `json:"requires_confirmation,omitempty"`
}

type SubmitResponse struct {
	Success  bool            `json:"success"`
	Message  string          `json:"message"`
	Order    *Order          `json:"order"`
	Warnings []dedup.Warning `json:"warnings"`
	Queued   bool            `json:"queued"`
}

type StatusResponse struct {
	Success bool   `json:"success"`
	Order   *Order `json:"order"`
	HasPlan bool   `json:"has_plan"`
}

type ListOrdersResponse struct {
	Success    bool            `json:"success"`
	Orders     []Order         `json:"orders"`
	Pagination pagination.Meta `json:"pagination"`
}

type PlanResponse struct {
	Success bool               `json:"success"`
	Order   *Order             `json:"order"`
	Plan    *careplan.CarePlan `json:"care_plan"`
}

// SubmitOrder ingests one partner payload. The source identifier in the path
// selects the format adapter.
func (h *Handler) SubmitOrder(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	source := vars["source"]

	raw, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadBytes))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "Failed to read request body: "+err.Error())
		return
	}

	result, err := h.service.SubmitRaw(r.Context(), source, raw)
	if err != nil {
		h.respondSubmitError(w, err)
		return
	}

	msg := "Order accepted and queued for care plan generation"
	if !result.Queued {
		msg = "Order accepted but generation could not be scheduled"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(SubmitResponse{
		Success:  true,
		Message:  msg,
		Order:    result.Order,
		Warnings: result.Warnings,
		Queued:   result.Queued,
	})
}

func (h *Handler) respondSubmitError(w http.ResponseWriter, err error) {
	var adapterErr *intake.AdapterError
	var validationErr *ValidationError
	var blockedErr *BlockedError
	var confirmErr *ConfirmationRequiredError

	switch {
	case errors.Is(err, intake.ErrUnknownSource):
		respondError(w, http.StatusNotFound, "unknown_source", err.Error())
	case errors.As(err, &adapterErr):
		respondError(w, http.StatusBadRequest, "invalid_payload", adapterErr.Error())
	case errors.As(err, &validationErr):
		respondError(w, http.StatusBadRequest, "validation_error", validationErr.Error())
	case errors.As(err, &blockedErr):
		respondErrorWarnings(w, http.StatusConflict, "duplicate_blocked", blockedErr.Error(), blockedErr.Warnings, false)
	case errors.As(err, &confirmErr):
		respondErrorWarnings(w, http.StatusConflict, "confirmation_required", confirmErr.Error(), confirmErr.Warnings, true)
	default:
		respondError(w, http.StatusInternalServerError, "submission_failed", err.Error())
	}
}

// ListOrders returns recent orders, filterable by ?status= and paged by
// ?page= and ?limit=.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	status := Status(r.URL.Query().Get("status"))
	params := pagination.ParseParams(r)

	orders, meta, err := h.service.List(r.Context(), status, params)
	if err != nil {
		var validationErr *ValidationError
		if errors.As(err, &validationErr) {
			respondError(w, http.StatusBadRequest, "validation_error", validationErr.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, "fetch_failed", err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ListOrdersResponse{
		Success:    true,
		Orders:     orders,
		Pagination: meta,
	})
}

// GetOrder returns the order status and whether its plan is ready.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := h.orderID(w, r)
	if !ok {
		return
	}

	result, err := h.service.Status(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "Order not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "fetch_failed", err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(StatusResponse{
		Success: true,
		Order:   result.Order,
		HasPlan: result.HasPlan,
	})
}

// GetCarePlan returns the generated care plan with its LLM metadata.
func (h *Handler) GetCarePlan(w http.ResponseWriter, r *http.Request) {
	id, ok := h.orderID(w, r)
	if !ok {
		return
	}

	o, cp, err := h.service.PlanDetail(r.Context(), id)
	if err != nil {
		h.respondPlanError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(PlanResponse{
		Success: true,
		Order:   o,
		Plan:    cp,
	})
}

// DownloadCarePlan streams the rendered care-plan document as an attachment.
func (h *Handler) DownloadCarePlan(w http.ResponseWriter, r *http.Request) {
	id, ok := h.orderID(w, r)
	if !ok {
		return
	}

	filename, content, err := h.service.PlanFile(r.Context(), id)
	if err != nil {
		h.respondPlanError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Write([]byte(content))
}

// ResetOrder returns a failed order to pending and re-queues generation.
func (h *Handler) ResetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := h.orderID(w, r)
	if !ok {
		return
	}

	o, err := h.service.Reset(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respondError(w, http.StatusNotFound, "not_found", "Order not found")
		case errors.Is(err, ErrNotResettable):
			respondError(w, http.StatusConflict, "not_resettable", err.Error())
		default:
			respondError(w, http.StatusInternalServerError, "reset_failed", err.Error())
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(StatusResponse{
		Success: true,
		Order:   o,
	})
}

func (h *Handler) respondPlanError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		respondError(w, http.StatusNotFound, "not_found", "Order not found")
	case errors.Is(err, ErrPlanNotReady):
		respondError(w, http.StatusNotFound, "plan_not_ready", "Care plan has not been generated for this order")
	default:
		respondError(w, http.StatusInternalServerError, "fetch_failed", err.Error())
	}
}

func (h *Handler) orderID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "validation_error", "Order ID must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

func respondError(w http.ResponseWriter, statusCode int, errorType, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   errorType,
		Message: message,
	})
}

func respondErrorWarnings(w http.ResponseWriter, statusCode int, errorType, message string, warnings []dedup.Warning, requiresConfirmation bool) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:                errorType,
		Message:              message,
		Warnings:             warnings,
		RequiresConfirmation: requiresConfirmation,
	})
}
