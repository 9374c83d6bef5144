package v1

import (
	"errors"
	"net/http"

	"orders-dashboard/internal/domain"
	"orders-dashboard/internal/usecase"
	"orders-dashboard/pkg/logger"
	"orders-dashboard/pkg/utils"
)

type OrderHandler struct {
	dashboard *usecase.Dashboard
}

func NewOrderHandler(d *usecase.Dashboard) *OrderHandler {
	return &OrderHandler{dashboard: d}
}

// ListOrders returns the rows matching ?search= and ?status=, pending
// edits included, at most ?limit= of them when set. It does not change
// the dashboard's own search/filter.
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
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

	limit := utils.ParseInt(q.Get("limit"), 0)
	list := []domain.Row{}
	for row := range rows {
		if limit > 0 && len(list) == limit {
			break
		}
		list = append(list, row)
	}
	utils.WriteJSON(w, http.StatusOK, domain.Response{
		Success: true,
		Data:    list,
		Meta:    map[string]int{"total": len(list)},
	})
}

func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	row, err := h.dashboard.Row(r.PathValue("id"))
	if err != nil {
		writeOrderError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, domain.Response{Success: true, Data: row})
}

type EditRequest struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// SetEdit stages one field edit. Nothing is sent upstream until commit.
func (h *OrderHandler) SetEdit(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req EditRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	field, err := domain.ParseField(req.Field)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.dashboard.SetField(id, field, req.Value); err != nil {
		writeOrderError(w, err)
		return
	}

	row, err := h.dashboard.Row(id)
	if err != nil {
		writeOrderError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, domain.Response{Success: true, Data: row})
}

func (h *OrderHandler) DiscardEdits(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := h.dashboard.Authoritative(id); err != nil {
		writeOrderError(w, err)
		return
	}
	h.dashboard.Discard(id)
	utils.WriteJSON(w, http.StatusOK, domain.Response{Success: true, Message: "Edits discarded"})
}

// Commit sends the order's pending edits to the backend.
func (h *OrderHandler) Commit(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := h.dashboard.Authoritative(id); err != nil {
		writeOrderError(w, err)
		return
	}
	if !h.dashboard.Dirty(id) {
		utils.WriteJSON(w, http.StatusOK, domain.Response{Success: true, Message: "Nothing to commit"})
		return
	}

	if err := h.dashboard.Commit(r.Context(), id); err != nil {
		logger.WithContext(r.Context()).Error().Err(err).Str("order_id", id).Msg("Commit failed")
		utils.WriteError(w, http.StatusBadGateway, err.Error())
		return
	}

	row, err := h.dashboard.Row(id)
	if err != nil {
		writeOrderError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, domain.Response{Success: true, Message: "Order updated", Data: row})
}

func writeOrderError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrOrderNotFound):
		utils.WriteError(w, http.StatusNotFound, "Order not found")
	case errors.Is(err, domain.ErrInvalidEdit), errors.Is(err, domain.ErrUnknownField):
		utils.WriteError(w, http.StatusBadRequest, err.Error())
	default:
		utils.WriteError(w, http.StatusInternalServerError, err.Error())
	}
}
