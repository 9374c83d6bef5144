package v1

import (
	"errors"
	"net/http"

	"orders-dashboard/internal/domain"
	"orders-dashboard/internal/usecase"
	"orders-dashboard/pkg/utils"
)

type ExportHandler struct {
	dashboard *usecase.Dashboard
	export    *usecase.ExportUsecase
}

func NewExportHandler(d *usecase.Dashboard, export *usecase.ExportUsecase) *ExportHandler {
	return &ExportHandler{dashboard: d, export: export}
}

// Export writes the rows matching ?search= and ?status= as CSV and
// returns the stored object's URL.
func (h *ExportHandler) Export(w http.ResponseWriter, r *http.Request) {
	if h.dashboard.Loading() {
		utils.WriteError(w, http.StatusServiceUnavailable, "Orders are still loading")
		return
	}

	q := r.URL.Query()
	rows, err := h.dashboard.Rows(q.Get("search"), q.Get("status"))
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.export.Export(r.Context(), rows)
	switch {
	case errors.Is(err, domain.ErrExportUnavailable):
		utils.WriteError(w, http.StatusServiceUnavailable, err.Error())
		return
	case errors.Is(err, domain.ErrNothingToExport):
		utils.WriteError(w, http.StatusUnprocessableEntity, err.Error())
		return
	case err != nil:
		utils.WriteError(w, http.StatusInternalServerError, "Failed to export orders")
		return
	}

	utils.WriteJSON(w, http.StatusCreated, domain.Response{
		Success: true,
		Message: "Orders exported",
		Data:    map[string]string{"key": res.Key, "url": res.URL},
	})
}
