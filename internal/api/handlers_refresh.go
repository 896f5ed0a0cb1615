package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"fxresolver/internal/currency"
	"fxresolver/internal/service"
)

// RefreshRequest represents the request body for a rate refresh
type RefreshRequest struct {
	Pairs []string `json:"pairs" validate:"required,min=1,max=32,dive,required" example:"CNY/JPY"`
}

// RefreshAccepted describes one enqueued refresh
type RefreshAccepted struct {
	Pair      string `json:"pair" example:"CNY/JPY"`
	RefreshID string `json:"refresh_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	Status    string `json:"status" example:"PENDING"`
}

// RefreshResponse represents the response for a refresh request
type RefreshResponse struct {
	Refreshes []RefreshAccepted `json:"refreshes"`
}

// RefreshStatusResponse represents a tracked refresh by ID
type RefreshStatusResponse struct {
	RefreshID string  `json:"refresh_id" example:"123e4567-e89b-12d3-a456-426614174000"`
	Base      string  `json:"base" example:"CNY"`
	Target    string  `json:"target" example:"JPY"`
	Status    string  `json:"status" example:"SUCCESS"`
	Rate      *string `json:"rate,omitempty" example:"20.5"`
	Source    *string `json:"source,omitempty" example:"LiveProvider"`
	UpdatedAt *string `json:"updated_at,omitempty" example:"2026-03-04T10:15:30Z"`
	Error     *string `json:"error,omitempty" example:"no live or pivot-composed rate available"`
}

// HandleRequestRefresh godoc
// @Summary Request asynchronous rate refreshes
// @Description Enqueues a background refresh for each pair and returns immediately. When tracking is enabled each pair gets a refresh_id; a refresh already in flight for the pair is reused.
// @Tags refresh
// @Accept json
// @Produce json
// @Param request body RefreshRequest true "Pairs in format XXX/YYY"
// @Success 202 {object} RefreshResponse "Refreshes accepted"
// @Failure 400 {object} ErrorResponse "Invalid pair"
// @Failure 500 {object} ErrorResponse "Internal error"
// @Router /v1/rates/refresh [post]
func HandleRequestRefresh(svc service.RefreshServiceInterface, validate *validator.Validate) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RefreshRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if err := validate.Struct(&req); err != nil {
			writeValidationError(w, err)
			return
		}
		for _, pair := range req.Pairs {
			if _, _, err := currency.ParsePair(pair); err != nil {
				writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: pair + ": " + err.Error()})
				return
			}
		}

		resp := RefreshResponse{Refreshes: make([]RefreshAccepted, 0, len(req.Pairs))}
		for _, pair := range req.Pairs {
			id, status, err := svc.RequestRefresh(r.Context(), pair)
			if err != nil {
				switch {
				case errors.Is(err, currency.ErrInvalidCode):
					writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
				default:
					writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Internal error"})
				}
				return
			}
			resp.Refreshes = append(resp.Refreshes, RefreshAccepted{Pair: pair, RefreshID: id, Status: status})
		}

		writeJSON(w, http.StatusAccepted, resp)
	}
}

// HandleGetRefresh godoc
// @Summary Get refresh status and result by ID
// @Description Retrieves a tracked refresh. Rate and source are set when status is SUCCESS, error when it is FAILED.
// @Tags refresh
// @Produce json
// @Param refresh_id path string true "Refresh ID (UUID)" format(uuid)
// @Success 200 {object} RefreshStatusResponse "Refresh found"
// @Failure 400 {object} ErrorResponse "Invalid refresh_id format"
// @Failure 404 {object} ErrorResponse "Unknown refresh_id"
// @Failure 501 {object} ErrorResponse "Refresh tracking disabled"
// @Failure 500 {object} ErrorResponse "Internal error"
// @Router /v1/rates/refresh/{refresh_id} [get]
func HandleGetRefresh(svc service.RefreshServiceInterface) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		refreshID := chi.URLParam(r, "refresh_id")
		if refreshID == "" {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "refresh_id is required"})
			return
		}

		res, err := svc.GetRefresh(r.Context(), refreshID)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrInvalidRefreshID):
				writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
			case errors.Is(err, service.ErrNotFound):
				writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "Unknown refresh_id"})
			case errors.Is(err, service.ErrTrackingDisabled):
				writeJSON(w, http.StatusNotImplemented, ErrorResponse{Error: err.Error()})
			default:
				writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Internal error"})
			}
			return
		}

		writeJSON(w, http.StatusOK, RefreshStatusResponse{
			RefreshID: res.ID,
			Base:      res.Base,
			Target:    res.Target,
			Status:    res.Status,
			Rate:      res.Rate,
			Source:    res.Source,
			UpdatedAt: res.UpdatedAt,
			Error:     res.ErrorMsg,
		})
	}
}
