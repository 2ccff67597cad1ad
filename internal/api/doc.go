// Package api defines wire-format types for the HTTP API and the CLI's JSON
// output, and maps domain errors to HTTP status codes.
//
// # Key Types
//
// ErrorResponse: {"error": "..."} body shared by every failure.
//
// SaveLayoutResponse/OKResponse: acknowledgements for layout mutations.
//
// SheetsResponse: workbook sheet names.
//
// CheckResult, PositionEntry, OrganelleSummary: CLI --json payloads.
//
// # Error Mapping
//
// StatusFor classifies with errors.Is: invalid payloads are 400, missing
// documents, workbooks and sheets are 404, and storage or parse failures are
// 500. EventType gives the matching event_type for structured logs.
//
// Layout documents themselves are passed through as json.RawMessage and never
// re-modelled here.
package api
