package v1

import (
	"net/http"

	"orders-dashboard/internal/domain"
	"orders-dashboard/internal/usecase"
	"orders-dashboard/pkg/utils"
)

type StatsHandler struct {
	dashboard *usecase.Dashboard
}

func NewStatsHandler(d *usecase.Dashboard) *StatsHandler {
	return &StatsHandler{dashboard: d}
}

type StatsResponse struct {
	Stats     domain.Stats `json:"stats"`
	Connected bool         `json:"connected"`
	Loading   bool         `json:"loading"`
}

func (h *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, domain.Response{
		Success: true,
		Data: StatsResponse{
			Stats:     h.dashboard.Stats(),
			Connected: h.dashboard.Connected(),
			Loading:   h.dashboard.Loading(),
		},
	})
}

// RefreshStats recomputes the stats from the loaded orders and saves them
// upstream.
func (h *StatsHandler) RefreshStats(w http.ResponseWriter, r *http.Request) {
	if h.dashboard.Loading() {
		utils.WriteError(w, http.StatusServiceUnavailable, "Orders are still loading")
		return
	}

	stats, err := h.dashboard.RefreshStats(r.Context())
	if err != nil {
		utils.WriteError(w, http.StatusBadGateway, err.Error())
		return
	}
	utils.WriteJSON(w, http.StatusOK, domain.Response{Success: true, Message: "Stats refreshed", Data: stats})
}
