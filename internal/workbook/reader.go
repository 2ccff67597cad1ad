package workbook

import (
	"context"
	"log/slog"

	"pathways/internal/logging"
	"pathways/internal/metrics"
)

// Reader serves one configured workbook. It re-opens the file on every call
// so edits made while the server runs are picked up immediately.
type Reader struct {
	path   string
	logger *slog.Logger
}

// NewReader binds a Reader to the workbook at path.
func NewReader(path string, logger *slog.Logger) *Reader {
	return &Reader{path: path, logger: logging.NewComponentLogger(logger, "workbook")}
}

// Path returns the workbook location.
func (r *Reader) Path() string { return r.path }

// Sheets lists the workbook's sheet names.
func (r *Reader) Sheets(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	names, err := ListSheets(r.path)
	metrics.WorkbookReads.WithLabelValues("sheets", metrics.Result(err)).Inc()
	if err != nil {
		return nil, err
	}
	logging.WithContext(ctx, r.logger).Debug("workbook sheets listed", logging.Int("count", len(names)))
	return names, nil
}

// Rows converts the named sheet into rows.
func (r *Reader) Rows(ctx context.Context, sheet string) ([]Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := ReadSheet(r.path, sheet)
	metrics.WorkbookReads.WithLabelValues("rows", metrics.Result(err)).Inc()
	if err != nil {
		return nil, err
	}
	logging.WithContext(ctx, r.logger).Debug("workbook sheet read",
		logging.String("sheet", sheet),
		logging.Int("rows", len(rows)))
	return rows, nil
}
