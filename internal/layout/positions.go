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

// Positions maps node ids to coordinates. Entry values are kept verbatim so
// whatever the client saved is returned unchanged.
type Positions map[string]json.RawMessage

// Point is the conventional shape of a Positions entry.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Point decodes the entry for id. ok is false when the entry is missing or is
// not an {x, y} object.
func (p Positions) Point(id string) (Point, bool) {
	raw, found := p[id]
	if !found {
		return Point{}, false
	}
	var pt Point
	if err := json.Unmarshal(raw, &pt); err != nil {
		return Point{}, false
	}
	return pt, true
}

// PositionsStore persists the node position layout. The document is absent
// until the first save and is deleted again by Reset.
type PositionsStore struct {
	path   string
	store  *docstore.Store
	logger *slog.Logger
}

// NewPositionsStore binds the positions layout to a document path.
func NewPositionsStore(path string, store *docstore.Store, logger *slog.Logger) *PositionsStore {
	return &PositionsStore{
		path:   path,
		store:  store,
		logger: logging.NewComponentLogger(logger, "layout"),
	}
}

// Path returns the document location.
func (s *PositionsStore) Path() string { return s.path }

// Get returns the saved positions or an error wrapping docstore.ErrNotFound.
func (s *PositionsStore) Get(ctx context.Context) (Positions, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var positions Positions
	if err := s.store.Read(s.path, &positions); err != nil {
		return nil, fmt.Errorf("positions layout: %w", err)
	}
	if positions == nil {
		// The document held a JSON null written by hand; treat as empty.
		positions = Positions{}
	}
	return positions, nil
}

// Save replaces the document with payload, which must be a JSON object. It
// returns the number of entries written.
func (s *PositionsStore) Save(ctx context.Context, payload json.RawMessage) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	positions, err := decodePositions(payload)
	if err != nil {
		return 0, err
	}
	if err := s.store.Write(s.path, payload); err != nil {
		return 0, fmt.Errorf("positions layout: %w", err)
	}
	logging.WithContext(ctx, s.logger).Info("positions layout saved", logging.Int("count", len(positions)))
	return len(positions), nil
}

// Reset deletes the document. A later Get reports not found.
func (s *PositionsStore) Reset(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.store.Delete(s.path); err != nil {
		return fmt.Errorf("positions layout: %w", err)
	}
	logging.WithContext(ctx, s.logger).Info("positions layout cleared")
	return nil
}

func decodePositions(payload json.RawMessage) (Positions, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("%w: positions must be a JSON object", ErrInvalidPayload)
	}
	var positions Positions
	if err := json.Unmarshal(trimmed, &positions); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return positions, nil
}

// UnwrapPositions extracts the mapping from a save request body. A body with
// a "positions" member holding an object yields that member; any other body
// is taken as the mapping itself. An empty body is an empty mapping.
func UnwrapPositions(body []byte) json.RawMessage {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return json.RawMessage("{}")
	}
	if trimmed[0] == '{' {
		var envelope struct {
			Positions json.RawMessage `json:"positions"`
		}
		if err := json.Unmarshal(trimmed, &envelope); err == nil {
			inner := bytes.TrimSpace(envelope.Positions)
			if len(inner) > 0 && inner[0] == '{' {
				return json.RawMessage(inner)
			}
		}
	}
	return json.RawMessage(trimmed)
}
