package layout

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"pathways/internal/docstore"
	"pathways/internal/logging"
)

const (
	// OrganelleVersion is the current organelle layout schema version.
	OrganelleVersion = 3
	// CoordModeWorld places overlays in model coordinates so they pan and zoom
	// with the graph.
	CoordModeWorld = "world"
	// DefaultOpacity is the overlay opacity of a fresh layout.
	DefaultOpacity = 0.18
)

// OrganelleDocument is the typed view of the organelle layout. Saves are not
// validated against it, so stored documents may carry other fields.
type OrganelleDocument struct {
	Version    int                        `json:"version"`
	CoordMode  string                     `json:"coordMode"`
	Opacity    float64                    `json:"opacity"`
	Organelles map[string]json.RawMessage `json:"organelles"`
}

// DefaultOrganelleDocument returns the body written on bootstrap and reset.
func DefaultOrganelleDocument() OrganelleDocument {
	return OrganelleDocument{
		Version:    OrganelleVersion,
		CoordMode:  CoordModeWorld,
		Opacity:    DefaultOpacity,
		Organelles: map[string]json.RawMessage{},
	}
}

// OrganelleStore persists the background overlay layout. The document is
// created with the default body on first read and is never deleted.
type OrganelleStore struct {
	path   string
	store  *docstore.Store
	logger *slog.Logger
}

// NewOrganelleStore binds the organelle layout to a document path.
func NewOrganelleStore(path string, store *docstore.Store, logger *slog.Logger) *OrganelleStore {
	return &OrganelleStore{
		path:   path,
		store:  store,
		logger: logging.NewComponentLogger(logger, "layout"),
	}
}

// Path returns the document location.
func (s *OrganelleStore) Path() string { return s.path }

// Get returns the stored document verbatim, writing the default body first
// when no document exists.
func (s *OrganelleStore) Get(ctx context.Context) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.ensure(ctx); err != nil {
		return nil, err
	}
	data, err := s.store.ReadRaw(s.path)
	if err != nil {
		return nil, fmt.Errorf("organelle layout: %w", err)
	}
	return json.RawMessage(data), nil
}

// Document returns the stored layout decoded into its typed view.
func (s *OrganelleStore) Document(ctx context.Context) (OrganelleDocument, error) {
	raw, err := s.Get(ctx)
	if err != nil {
		return OrganelleDocument{}, err
	}
	var doc OrganelleDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return OrganelleDocument{}, fmt.Errorf("organelle layout: %w: %w", docstore.ErrCorrupt, err)
	}
	return doc, nil
}

// Save replaces the document with payload without inspecting its shape. An
// empty payload is stored as an empty object.
func (s *OrganelleStore) Save(ctx context.Context, payload json.RawMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 {
		trimmed = []byte("{}")
	}
	if !json.Valid(trimmed) {
		return fmt.Errorf("%w: organelle layout is not valid JSON", ErrInvalidPayload)
	}
	if err := s.store.Write(s.path, json.RawMessage(trimmed)); err != nil {
		return fmt.Errorf("organelle layout: %w", err)
	}
	logging.WithContext(ctx, s.logger).Info("organelle layout saved", logging.Int("bytes", len(trimmed)))
	return nil
}

// Reset overwrites the document with the default body.
func (s *OrganelleStore) Reset(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.store.Write(s.path, DefaultOrganelleDocument()); err != nil {
		return fmt.Errorf("organelle layout: %w", err)
	}
	logging.WithContext(ctx, s.logger).Info("organelle layout reset to default")
	return nil
}

// ensure creates the default document without ever replacing one, so a Save
// that lands during bootstrap is kept.
func (s *OrganelleStore) ensure(ctx context.Context) error {
	exists, err := s.store.Exists(s.path)
	if err != nil {
		return fmt.Errorf("organelle layout: %w", err)
	}
	if exists {
		return nil
	}
	created, err := s.store.Create(s.path, DefaultOrganelleDocument())
	if err != nil {
		return fmt.Errorf("organelle layout bootstrap: %w", err)
	}
	if created {
		logging.WithContext(ctx, s.logger).Info("organelle layout created with defaults",
			logging.String(logging.FieldDocument, s.path))
	}
	return nil
}
