// Package layout owns the two client-authored layout documents.
//
// PositionsStore keeps node coordinates. Its document exists only after the
// first save and Reset deletes it. OrganelleStore keeps background overlay
// metadata; it is created with a fixed default body on first read and Reset
// restores that body instead of deleting the file. Both stores replace their
// document wholesale on every save; there is no merge.
package layout
