package api

import (
	"context"
	"errors"
	"net/http"

	"pathways/internal/docstore"
	"pathways/internal/layout"
	"pathways/internal/workbook"
)

// StatusFor maps a domain error to the HTTP status code clients receive.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, layout.ErrInvalidPayload):
		return http.StatusBadRequest
	case errors.Is(err, docstore.ErrNotFound),
		errors.Is(err, workbook.ErrFileNotFound),
		errors.Is(err, workbook.ErrSheetNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// EventType returns a stable log classification for err.
func EventType(err error) string {
	switch {
	case errors.Is(err, layout.ErrInvalidPayload):
		return "invalid_payload"
	case errors.Is(err, docstore.ErrNotFound):
		return "document_not_found"
	case errors.Is(err, docstore.ErrCorrupt):
		return "document_corrupt"
	case errors.Is(err, docstore.ErrIO):
		return "document_io_failed"
	case errors.Is(err, workbook.ErrFileNotFound):
		return "workbook_missing"
	case errors.Is(err, workbook.ErrSheetNotFound):
		return "sheet_missing"
	case errors.Is(err, workbook.ErrCorruptWorkbook):
		return "workbook_corrupt"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "request_cancelled"
	default:
		return "internal_error"
	}
}
