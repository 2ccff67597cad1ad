// Package docstore persists whole JSON documents with all-or-nothing
// replacement.
//
// Every write stages the encoded document in a uniquely named sibling file,
// fsyncs it, renames it over the destination and fsyncs the directory. Two
// writers racing on the same path therefore never share a staging file, and
// whichever rename lands last wins with its full payload. Nothing is cached:
// each Read goes to disk.
//
// Failures are classified with ErrNotFound, ErrCorrupt and ErrIO so callers
// can map them with errors.Is.
package docstore
