package usecase

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"iter"
	"strconv"
	"time"

	"orders-dashboard/internal/domain"
	"orders-dashboard/pkg/logger"
	"orders-dashboard/pkg/storage"
)

var exportHeader = []string{
	"id", "name", "phone", "address", "city", "country", "quantity",
	"total", "shippingFee", "orderDate", "orderStatus", "trackingId",
	"progress", "notes", "unsaved",
}

type ExportUsecase struct {
	store storage.Storage
	now   func() time.Time
}

// NewExportUsecase accepts a nil store; Export then reports
// domain.ErrExportUnavailable.
func NewExportUsecase(store storage.Storage) *ExportUsecase {
	return &ExportUsecase{store: store, now: time.Now}
}

// Export writes rows as CSV to the configured storage and returns where
// it landed. Rows are exported as shown, pending edits included.
func (uc *ExportUsecase) Export(ctx context.Context, rows iter.Seq[domain.Row]) (storage.PutResult, error) {
	if uc.store == nil {
		return storage.PutResult{}, domain.ErrExportUnavailable
	}

	data, n, err := renderCSV(rows)
	if err != nil {
		return storage.PutResult{}, err
	}
	if n == 0 {
		return storage.PutResult{}, domain.ErrNothingToExport
	}

	filename := fmt.Sprintf("orders-%s.csv", uc.now().UTC().Format("20060102-150405"))
	res, err := uc.store.Put(ctx, bytes.NewReader(data), storage.PutInput{
		Filename:    filename,
		ContentType: "text/csv",
	})
	if err != nil {
		return storage.PutResult{}, fmt.Errorf("failed to store export: %w", err)
	}

	logger.Info().Int("rows", n).Str("url", res.URL).Msg("Orders exported")
	return res, nil
}

func renderCSV(rows iter.Seq[domain.Row]) ([]byte, int, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(exportHeader); err != nil {
		return nil, 0, err
	}

	n := 0
	for r := range rows {
		o := r.Order
		record := []string{
			o.ID,
			o.Name,
			o.Phone,
			o.Address,
			o.City,
			o.Country,
			strconv.Itoa(o.Quantity),
			o.Total.StringFixed(2),
			o.ShippingFee.StringFixed(2),
			formatDate(o.OrderDate),
			string(o.Status),
			o.TrackingID,
			strconv.Itoa(o.Progress),
			o.Notes,
			strconv.FormatBool(r.Dirty),
		}
		if err := w.Write(record); err != nil {
			return nil, 0, err
		}
		n++
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, 0, fmt.Errorf("failed to render csv: %w", err)
	}
	return buf.Bytes(), n, nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
