// Package daemon runs the long-lived pathways HTTP server.
//
// It wires the positions and organelle layout stores and the workbook reader
// into a net/http ServeMux, wraps the mux with recover, request id, CORS,
// bearer-token and metrics middleware, and owns the listener lifecycle. A
// flock on the data directory keeps two servers from writing the same layout
// documents.
//
// Handlers stay thin: persistence rules live in internal/layout and
// internal/docstore, and error classification in internal/api.
package daemon
