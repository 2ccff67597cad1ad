// Package main hosts the pathways CLI entrypoint and command graph.
//
// The Cobra command tree starts the HTTP server, inspects and resets the
// persisted layout documents, browses workbook sheets, runs preflight checks,
// and scaffolds configuration. Configuration resolution happens once per
// invocation in commandContext so subcommands only deal with presentation.
//
// Layout and workbook rules live in the internal packages; commands here
// call them directly and never reach the server over HTTP.
package main
