package handlers

import (
	"net/http"

	"github.com/ndewijer/Memory-Price-Dashboard-Backend/internal/api/response"
	"github.com/ndewijer/Memory-Price-Dashboard-Backend/internal/apperrors"
	"github.com/ndewijer/Memory-Price-Dashboard-Backend/internal/service"
)

// MarketHandler handles HTTP requests for the macro indicator dashboard.
type MarketHandler struct {
	marketService *service.MarketService
}

// NewMarketHandler creates a new MarketHandler with the provided service dependency.
func NewMarketHandler(marketService *service.MarketService) *MarketHandler {
	return &MarketHandler{
		marketService: marketService,
	}
}

// MarketData handles GET requests for indicator values and charts.
// period accepts 5d, 1mo, 6mo and 1y or the Korean labels 5일, 1개월, 6개월 and 1년;
// it defaults to 1mo.
//
// Endpoint: GET /api/market-data?period=1mo
// Response: 200 OK with model.MarketData
// Error: 502 Bad Gateway if no indicator could be fetched
func (h *MarketHandler) MarketData(w http.ResponseWriter, r *http.Request) {
	data, err := h.marketService.GetMarketData(r.Context(), r.URL.Query().Get("period"))
	if err != nil {
		response.RespondError(w, http.StatusBadGateway, apperrors.ErrFailedToRetrieveMarket.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, data)
}
