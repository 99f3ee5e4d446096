package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"go-points/internal/middleware"
	"go-points/internal/models"
	"go-points/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

const maxBodyBytes = 1 << 10

var validate = validator.New()

type PointHandler struct {
	pointService *services.PointService
	logger       zerolog.Logger
}

func NewPointHandler(pointService *services.PointService, logger zerolog.Logger) *PointHandler {
	return &PointHandler{
		pointService: pointService,
		logger:       logger,
	}
}

func (h *PointHandler) GetPoint(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	point, err := h.pointService.GetPoint(r.Context(), userID)
	if err != nil {
		h.respondWithServiceError(w, r, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, point)
}

func (h *PointHandler) GetHistories(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	history, err := h.pointService.GetHistories(r.Context(), userID)
	if err != nil {
		h.respondWithServiceError(w, r, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, history)
}

func (h *PointHandler) Charge(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	amount, ok := h.amount(w, r)
	if !ok {
		return
	}

	point, err := h.pointService.Charge(r.Context(), userID, amount)
	if err != nil {
		h.respondWithServiceError(w, r, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, point)
}

func (h *PointHandler) Use(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	amount, ok := h.amount(w, r)
	if !ok {
		return
	}

	point, err := h.pointService.Use(r.Context(), userID, amount)
	if err != nil {
		h.respondWithServiceError(w, r, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, point)
}

func (h *PointHandler) userID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		h.respondWithError(w, http.StatusBadRequest, "invalid_user_id", "Invalid user ID")
		return 0, false
	}
	return userID, true
}

func (h *PointHandler) amount(w http.ResponseWriter, r *http.Request) (int64, bool) {
	var req models.AmountRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return 0, false
	}
	if err := dec.Decode(&json.RawMessage{}); err != io.EOF {
		h.respondWithError(w, http.StatusBadRequest, "invalid_request", "Unexpected data after request body")
		return 0, false
	}
	if err := validate.Struct(req); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "invalid_request", "amount is required")
		return 0, false
	}
	return *req.Amount, true
}

func (h *PointHandler) respondWithServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidUser):
		h.respondWithError(w, http.StatusNotFound, "invalid_user", err.Error())
	case errors.Is(err, services.ErrInvalidAmount):
		h.respondWithError(w, http.StatusBadRequest, "invalid_amount", err.Error())
	case errors.Is(err, services.ErrInsufficientBalance):
		h.respondWithError(w, http.StatusConflict, "insufficient_balance", err.Error())
	case errors.Is(err, services.ErrBalanceCapExceeded):
		h.respondWithError(w, http.StatusConflict, "balance_cap_exceeded", err.Error())
	default:
		h.logger.Error().
			Err(err).
			Str("request_id", middleware.GetRequestID(r.Context())).
			Str("path", r.URL.Path).
			Msg("Point request failed")
		h.respondWithError(w, http.StatusInternalServerError, "internal_error", "Failed to process point request")
	}
}

func (h *PointHandler) respondWithError(w http.ResponseWriter, code int, errorCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{
		"error":   errorCode,
		"message": message,
	})
}

func (h *PointHandler) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(payload)
}
