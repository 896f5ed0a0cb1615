package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"fxresolver/internal/advisory"
	"fxresolver/internal/currency"
	"fxresolver/internal/rate"
)

const maxBodyBytes = 1 << 20

// RateResolver resolves a single currency pair.
type RateResolver interface {
	Resolve(ctx context.Context, base, target string) (rate.ExchangeRate, error)
}

// Advisor converts amounts and builds rate series.
type Advisor interface {
	Convert(ctx context.Context, amount decimal.Decimal, base, target string) (rate.Conversion, error)
	ConvertBatch(ctx context.Context, amount decimal.Decimal, base string, targets []string) (advisory.Ranking, error)
	HistoricalSeries(ctx context.Context, base, target string, start, end time.Time) (advisory.Series, error)
	Currencies() []currency.Info
}

// BatchRequest represents the request body for a batch conversion
type BatchRequest struct {
	Amount  string   `json:"amount" validate:"required,numeric" example:"10000"`
	From    string   `json:"from" validate:"required,len=3,alpha" example:"CNY"`
	Targets []string `json:"targets" validate:"required,min=1,max=32,dive,len=3,alpha" example:"USD,EUR,JPY"`
}

// HandleGetRate godoc
// @Summary Resolve an exchange rate
// @Description Resolves base/target through the live providers, a pivot composition, the reference table and finally a mock rate. The source field tells which tier answered. Only an invalid currency code is an error.
// @Tags rates
// @Produce json
// @Param base query string true "Base currency code (3 letters)" minlength(3) maxlength(3)
// @Param target query string true "Target currency code (3 letters)" minlength(3) maxlength(3)
// @Success 200 {object} RateResponse "Resolved rate"
// @Failure 400 {object} ErrorResponse "Invalid currency code"
// @Failure 500 {object} ErrorResponse "Internal error"
// @Router /v1/rates [get]
func HandleGetRate(svc RateResolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		base, target := queryCode(r, "base"), queryCode(r, "target")
		if base == "" || target == "" {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "base and target query params are required"})
			return
		}
		rt, err := svc.Resolve(r.Context(), base, target)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rt)
	}
}

// HandleConvert godoc
// @Summary Convert an amount
// @Description Converts amount from one currency to another. converted_amount is rounded to 2 places, converted_amount_exact keeps full precision.
// @Tags conversions
// @Produce json
// @Param amount query string true "Non-negative decimal amount" example(10000)
// @Param from query string true "Source currency code" minlength(3) maxlength(3)
// @Param to query string true "Target currency code" minlength(3) maxlength(3)
// @Success 200 {object} ConversionResponse "Conversion"
// @Failure 400 {object} ErrorResponse "Invalid amount or currency code"
// @Failure 504 {object} ErrorResponse "Request timed out"
// @Failure 500 {object} ErrorResponse "Internal error"
// @Router /v1/convert [get]
func HandleConvert(adv Advisor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		amount, err := decimal.NewFromString(queryCode(r, "amount"))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "amount must be a decimal number"})
			return
		}
		from, to := queryCode(r, "from"), queryCode(r, "to")
		if from == "" || to == "" {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "from and to query params are required"})
			return
		}
		conv, err := adv.Convert(r.Context(), amount, from, to)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, newConversionResponse(conv, ""))
	}
}

// HandleConvertBatch godoc
// @Summary Convert an amount into several currencies
// @Description Converts amount into every target concurrently, ranks the results by converted amount (highest first) and attaches exchange tips. Duplicate targets are converted once.
// @Tags conversions
// @Accept json
// @Produce json
// @Param request body BatchRequest true "Amount, source currency and targets"
// @Success 200 {object} BatchResponse "Ranked conversions"
// @Failure 400 {object} ErrorResponse "Invalid request body"
// @Failure 504 {object} ErrorResponse "Request timed out"
// @Failure 500 {object} ErrorResponse "Internal error"
// @Router /v1/convert/batch [post]
func HandleConvertBatch(adv Advisor, validate *validator.Validate) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req BatchRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if err := validate.Struct(&req); err != nil {
			writeValidationError(w, err)
			return
		}
		amount, err := decimal.NewFromString(req.Amount)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "amount must be a decimal number"})
			return
		}
		ranking, err := adv.ConvertBatch(r.Context(), amount, req.From, req.Targets)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, newBatchResponse(ranking))
	}
}

// HandleGetHistory godoc
// @Summary Daily rate series
// @Description Returns one rate per day between start and end inclusive (at most 366 days). Observed history is used when a provider has it; otherwise the series is synthesized around today's rate and flagged synthetic.
// @Tags rates
// @Produce json
// @Param base query string true "Base currency code" minlength(3) maxlength(3)
// @Param target query string true "Target currency code" minlength(3) maxlength(3)
// @Param start query string true "First day (YYYY-MM-DD)" format(date)
// @Param end query string true "Last day (YYYY-MM-DD)" format(date)
// @Success 200 {object} HistoryResponse "Rate series"
// @Failure 400 {object} ErrorResponse "Invalid currency code or date range"
// @Failure 504 {object} ErrorResponse "Request timed out"
// @Failure 500 {object} ErrorResponse "Internal error"
// @Router /v1/rates/history [get]
func HandleGetHistory(adv Advisor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start, err := time.Parse(time.DateOnly, queryCode(r, "start"))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "start must be a YYYY-MM-DD date"})
			return
		}
		end, err := time.Parse(time.DateOnly, queryCode(r, "end"))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "end must be a YYYY-MM-DD date"})
			return
		}
		series, err := adv.HistoricalSeries(r.Context(), queryCode(r, "base"), queryCode(r, "target"), start, end)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, newHistoryResponse(series))
	}
}

// HandleListCurrencies godoc
// @Summary Supported currencies
// @Tags currencies
// @Produce json
// @Success 200 {array} currency.Info "Currency catalog"
// @Router /v1/currencies [get]
func HandleListCurrencies(adv Advisor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, adv.Currencies())
	}
}

// decodeBody decodes a JSON body into dst, writing a 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Request body is required"})
			return false
		}
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid JSON"})
		return false
	}
	return true
}
