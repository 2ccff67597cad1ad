// Package preflight provides readiness checks for the filesystem paths and
// listener pathways depends on.
//
// The CLI "pathways check" command runs RunAll and renders the results; the
// server runs the data directory check before taking its lock. Optional
// checks report problems without failing the run.
package preflight
