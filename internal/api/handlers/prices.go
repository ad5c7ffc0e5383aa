package handlers

import (
	"errors"
	"net/http"

	"github.com/ndewijer/Memory-Price-Dashboard-Backend/internal/api/request"
	"github.com/ndewijer/Memory-Price-Dashboard-Backend/internal/api/response"
	"github.com/ndewijer/Memory-Price-Dashboard-Backend/internal/apperrors"
	"github.com/ndewijer/Memory-Price-Dashboard-Backend/internal/model"
	"github.com/ndewijer/Memory-Price-Dashboard-Backend/internal/service"
	"github.com/ndewijer/Memory-Price-Dashboard-Backend/internal/validation"
)

// PriceHandler handles HTTP requests for the aggregated memory prices.
// It serves as the HTTP layer adapter, parsing requests and delegating
// to the aggregatorService.
type PriceHandler struct {
	aggregatorService *service.AggregatorService
}

// NewPriceHandler creates a new PriceHandler with the provided service dependency.
func NewPriceHandler(aggregatorService *service.AggregatorService) *PriceHandler {
	return &PriceHandler{
		aggregatorService: aggregatorService,
	}
}

// StatsResponse is the statistics of one product window.
type StatsResponse struct {
	Key    model.ProductKey `json:"key"`
	Window int              `json:"window"`
	Stats  model.Stats      `json:"stats"`
}

// TrendResponse is the windowed history of one product.
type TrendResponse struct {
	Key    model.ProductKey     `json:"key"`
	Window int                  `json:"window"`
	Points model.ProductHistory `json:"points"`
}

// Prices handles GET requests for the consolidated view of every source.
//
// Endpoint: GET /api/prices
// Response: 200 OK with model.AggregateView
func (h *PriceHandler) Prices(w http.ResponseWriter, _ *http.Request) {
	response.RespondJSON(w, http.StatusOK, h.aggregatorService.View())
}

// Stats handles GET requests for the window statistics of a product.
// Unknown products yield zero statistics with hasData false.
//
// Endpoint: GET /api/prices/stats?source=&category=&product=&window=30
// Response: 200 OK with StatsResponse
// Error: 400 Bad Request if a parameter is missing or window is outside 1..3650
// Error: 500 Internal Server Error if retrieval fails
func (h *PriceHandler) Stats(w http.ResponseWriter, r *http.Request) {
	key, window, err := validation.ValidateProductQuery(productQuery(r))
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	stats, err := h.aggregatorService.Query(r.Context(), key, window)
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToRetrieveStats.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, StatsResponse{Key: key, Window: window, Stats: stats})
}

// Trend handles GET requests for the windowed history of a product.
//
// Endpoint: GET /api/prices/trend?source=&category=&product=&window=30
// Response: 200 OK with TrendResponse
// Error: 400 Bad Request if a parameter is missing or window is outside 1..3650
// Error: 500 Internal Server Error if retrieval fails
func (h *PriceHandler) Trend(w http.ResponseWriter, r *http.Request) {
	key, window, err := validation.ValidateProductQuery(productQuery(r))
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	points, err := h.aggregatorService.Trend(r.Context(), key, window)
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToRetrieveTrend.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, TrendResponse{Key: key, Window: window, Points: points})
}

// Refresh handles POST requests to run a refresh cycle immediately.
// Source failures are reported per source in the view, not as errors.
//
// Endpoint: POST /api/prices/refresh
// Response: 200 OK with model.AggregateView
// Error: 500 Internal Server Error if the store fails or a snapshot is inconsistent
func (h *PriceHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	view, err := h.aggregatorService.Refresh(r.Context())
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToRefresh.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, view)
}

// RamData handles GET requests for the domestic price board.
//
// Endpoint: GET /api/ram-data
// Response: 200 OK with model.BoardView
// Error: 404 Not Found if the board has produced no data yet
// Error: 500 Internal Server Error if retrieval fails
func (h *PriceHandler) RamData(w http.ResponseWriter, r *http.Request) {
	h.board(w, r, model.SourceBoard)
}

// DramExchange handles GET requests for the spot exchange board.
//
// Endpoint: GET /api/dram-exchange
// Response: 200 OK with model.BoardView
// Error: 404 Not Found if the spot source has produced no data yet
// Error: 500 Internal Server Error if retrieval fails
func (h *PriceHandler) DramExchange(w http.ResponseWriter, r *http.Request) {
	h.board(w, r, model.SourceSpot)
}

func (h *PriceHandler) board(w http.ResponseWriter, r *http.Request, sourceID string) {
	view, err := h.aggregatorService.BoardView(r.Context(), sourceID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNoSnapshot) || errors.Is(err, apperrors.ErrUnknownSource) {
			response.RespondError(w, http.StatusNotFound, apperrors.ErrNoSnapshot.Error(), err.Error())
			return
		}
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToRetrieveBoard.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, view)
}

func productQuery(r *http.Request) request.ProductQuery {
	q := r.URL.Query()
	return request.ProductQuery{
		Source:   q.Get("source"),
		Category: q.Get("category"),
		Product:  q.Get("product"),
		Window:   q.Get("window"),
	}
}
