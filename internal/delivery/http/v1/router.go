package v1

import (
	"net/http"

	"orders-dashboard/internal/usecase"
	"orders-dashboard/pkg/utils"
)

// RegisterRoutes mounts the local API on mux.
func RegisterRoutes(mux *http.ServeMux, d *usecase.Dashboard, export *usecase.ExportUsecase) {
	orderHandler := NewOrderHandler(d)
	statsHandler := NewStatsHandler(d)
	exportHandler := NewExportHandler(d, export)

	// Orders
	mux.HandleFunc("GET /api/v1/orders", orderHandler.ListOrders)
	mux.HandleFunc("GET /api/v1/orders/{id}", orderHandler.GetOrder)
	mux.HandleFunc("PUT /api/v1/orders/{id}/edits", orderHandler.SetEdit)
	mux.HandleFunc("DELETE /api/v1/orders/{id}/edits", orderHandler.DiscardEdits)
	mux.HandleFunc("POST /api/v1/orders/{id}/commit", orderHandler.Commit)

	// Stats
	mux.HandleFunc("GET /api/v1/stats", statsHandler.GetStats)
	mux.HandleFunc("POST /api/v1/stats/refresh", statsHandler.RefreshStats)

	// Export
	mux.HandleFunc("POST /api/v1/export", exportHandler.Export)

	// Health Check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		utils.WriteJSON(w, http.StatusOK, map[string]any{
			"status":    "ok",
			"connected": d.Connected(),
			"loading":   d.Loading(),
		})
	})
}
