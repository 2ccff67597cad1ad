// Package config loads, normalizes, and validates pathways configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// PATHWAYS_API_TOKEN and PATHWAYS_WORKBOOK. Relative workbook, static and
// layout file names resolve against paths.data_dir so a single project folder
// holds the workbook, the client bundle and both layout documents.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths and clear validation errors.
package config
