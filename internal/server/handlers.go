package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"MarketPulse/internal/broadcast"
	"MarketPulse/internal/common"
	"MarketPulse/internal/market"
	"MarketPulse/internal/model"
	"MarketPulse/internal/recorder"
)

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	service     *market.Service
	broadcaster *broadcast.Broadcaster
	recorder    recorder.Recorder
	logger      *common.Logger
}

// NewHandler creates a new Handler.
func NewHandler(svc *market.Service, b *broadcast.Broadcaster, rec recorder.Recorder, logger *common.Logger) *Handler {
	return &Handler{
		service:     svc,
		broadcaster: b,
		recorder:    rec,
		logger:      logger.With("http"),
	}
}

// HealthCheck handles GET /health.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"universe":    h.broadcaster.Name(),
		"broadcaster": h.broadcaster.State().String(),
		"cycles":      h.broadcaster.Cycles(),
		"subscribers": h.broadcaster.Subscribers(),
	})
}

// GetIndices handles GET /api/indices.
func (h *Handler) GetIndices(w http.ResponseWriter, r *http.Request) {
	snap, err := h.service.IndexSnapshot(r.Context())
	if errors.Is(err, model.ErrAllUnavailable) {
		h.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

// GetSectors handles GET /api/sectors.
func (h *Handler) GetSectors(w http.ResponseWriter, r *http.Request) {
	snap, err := h.service.SectorSnapshot(r.Context())
	if errors.Is(err, model.ErrAllUnavailable) {
		h.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

// SearchStocks handles GET /api/search/stocks?query=...
func (h *Handler) SearchStocks(w http.ResponseWriter, r *http.Request) {
	results, err := h.service.Search(r.Context(), r.URL.Query().Get("query"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, results)
}

// Compare handles GET /api/compare?symbols=AAPL,MSFT&period=1mo. symbols may also repeat.
func (h *Handler) Compare(w http.ResponseWriter, r *http.Request) {
	var tickers []string
	for _, v := range r.URL.Query()["symbols"] {
		tickers = append(tickers, strings.Split(v, ",")...)
	}
	series, err := h.service.Compare(r.Context(), tickers, r.URL.Query().Get("period"))
	if err != nil && (len(series) == 0 || errors.Is(err, model.ErrAllUnavailable)) {
		h.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, series)
}

// GetCycles handles GET /api/cycles?limit=N.
func (h *Handler) GetCycles(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 500 {
			http.Error(w, "limit must be between 1 and 500", http.StatusBadRequest)
			return
		}
		limit = n
	}
	rows, err := h.recorder.Recent(r.Context(), limit)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, rows)
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Warn().Err(err).Int("status", status).Msg("request failed")
	}
	respondJSON(w, status, map[string]string{
		"error":  err.Error(),
		"reason": model.Reason(err),
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, market.ErrEmptyQuery), errors.Is(err, market.ErrBadPeriod), errors.Is(err, market.ErrTooManySymbols):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, model.ErrAllUnavailable), errors.Is(err, model.ErrProviderUnavailable), errors.Is(err, model.ErrThrottled):
		return http.StatusServiceUnavailable
	case errors.Is(err, model.ErrMalformedPayload), errors.Is(err, model.ErrEmptyData):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
