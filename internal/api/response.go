// Package api implements the HTTP handlers of the rate resolution service.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"fxresolver/internal/advisory"
	"fxresolver/internal/currency"
	"fxresolver/internal/rate"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error            string            `json:"error" example:"invalid currency code: expected 3 letters"`
	ValidationErrors map[string]string `json:"validation_errors,omitempty"`
}

// RateResponse documents the JSON form of a resolved exchange rate
type RateResponse struct {
	Base        string `json:"base" example:"CNY"`
	Target      string `json:"target" example:"JPY"`
	Rate        string `json:"rate" example:"20.5"`
	InverseRate string `json:"inverse_rate" example:"0.0487804878048780487804878049"`
	Timestamp   string `json:"timestamp" example:"2026-03-04T10:15:30Z"`
	Source      string `json:"source" example:"LiveProvider"`
	Provider    string `json:"provider,omitempty" example:"frankfurter"`
	Note        string `json:"note,omitempty"`
}

// ConversionResponse represents one converted amount
type ConversionResponse struct {
	Amount               string `json:"amount" example:"10000"`
	FromCurrency         string `json:"from_currency" example:"CNY"`
	ToCurrency           string `json:"to_currency" example:"JPY"`
	ConvertedAmount      string `json:"converted_amount" example:"205000.00"`
	ConvertedAmountExact string `json:"converted_amount_exact" example:"205000"`
	Rate                 string `json:"rate" example:"20.5"`
	InverseRate          string `json:"inverse_rate" example:"0.0487804878048780487804878049"`
	Source               string `json:"source" example:"LiveProvider"`
	Provider             string `json:"provider,omitempty" example:"frankfurter"`
	Note                 string `json:"note,omitempty"`
	Tip                  string `json:"tip,omitempty"`
	Timestamp            string `json:"timestamp" example:"2026-03-04T10:15:30Z"`
}

// BatchResponse represents a ranked batch conversion with advice
type BatchResponse struct {
	Amount         string               `json:"amount" example:"10000"`
	FromCurrency   string               `json:"from_currency" example:"CNY"`
	BestConversion string               `json:"best_conversion,omitempty" example:"JPY"`
	Conversions    []ConversionResponse `json:"conversions"`
	Tips           []string             `json:"tips"`
}

// HistoryPoint is one day of a rate series
type HistoryPoint struct {
	Date string `json:"date" example:"2026-03-04"`
	Rate string `json:"rate" example:"20.5"`
}

// HistoryResponse represents a daily rate series
type HistoryResponse struct {
	Base      string         `json:"base" example:"CNY"`
	Target    string         `json:"target" example:"JPY"`
	StartDate string         `json:"start_date" example:"2026-03-01"`
	EndDate   string         `json:"end_date" example:"2026-03-04"`
	Synthetic bool           `json:"synthetic" example:"false"`
	Source    string         `json:"source" example:"LiveProvider"`
	Provider  string         `json:"provider,omitempty" example:"frankfurter"`
	Rates     []HistoryPoint `json:"rates"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeServiceError maps resolution and advisory errors to HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, currency.ErrInvalidCode),
		errors.Is(err, rate.ErrNegativeAmount),
		errors.Is(err, advisory.ErrInvalidRange):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.Is(err, advisory.ErrRequestTimeout):
		writeJSON(w, http.StatusGatewayTimeout, ErrorResponse{Error: "request timed out"})
	default:
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Internal error"})
	}
}

func writeValidationError(w http.ResponseWriter, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
		return
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Tag()
	}
	writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Validation failed", ValidationErrors: fields})
}

func newConversionResponse(c rate.Conversion, tip string) ConversionResponse {
	return ConversionResponse{
		Amount:               c.Amount.String(),
		FromCurrency:         c.From.String(),
		ToCurrency:           c.To.String(),
		ConvertedAmount:      c.DisplayAmount().StringFixed(rate.DisplayPlaces),
		ConvertedAmountExact: c.Converted.String(),
		Rate:                 c.Rate.Rate().String(),
		InverseRate:          c.Rate.Inverse().String(),
		Source:               c.Rate.Source().String(),
		Provider:             c.Rate.Provider(),
		Note:                 c.Rate.Note(),
		Tip:                  tip,
		Timestamp:            c.Timestamp.UTC().Format(time.RFC3339),
	}
}

func newBatchResponse(r advisory.Ranking) BatchResponse {
	resp := BatchResponse{
		Amount:       r.Amount.String(),
		FromCurrency: r.From.String(),
		Conversions:  make([]ConversionResponse, 0, len(r.Entries)),
		Tips:         r.Tips,
	}
	if resp.Tips == nil {
		resp.Tips = []string{}
	}
	if best, ok := r.Best(); ok {
		resp.BestConversion = best.To.String()
	}
	for _, e := range r.Entries {
		resp.Conversions = append(resp.Conversions, newConversionResponse(e.Conversion, e.Tip))
	}
	return resp
}

func newHistoryResponse(s advisory.Series) HistoryResponse {
	resp := HistoryResponse{
		Base:      s.Base.String(),
		Target:    s.Target.String(),
		StartDate: s.Start.Format(time.DateOnly),
		EndDate:   s.End.Format(time.DateOnly),
		Synthetic: s.Synthetic,
		Source:    s.Source.String(),
		Provider:  s.Provider,
		Rates:     make([]HistoryPoint, 0, len(s.Points)),
	}
	for _, p := range s.Points {
		resp.Rates = append(resp.Rates, HistoryPoint{Date: p.Date.Format(time.DateOnly), Rate: p.Rate.String()})
	}
	return resp
}

func queryCode(r *http.Request, key string) string {
	return strings.TrimSpace(r.URL.Query().Get(key))
}
