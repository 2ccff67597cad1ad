package layout

import "errors"

// ErrInvalidPayload reports a save payload that does not have the required shape.
var ErrInvalidPayload = errors.New("invalid layout payload")
