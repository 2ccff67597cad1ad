package api

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// OKResponse acknowledges a mutation.
type OKResponse struct {
	OK bool `json:"ok"`
}

// SaveLayoutResponse acknowledges a positions save.
type SaveLayoutResponse struct {
	OK    bool `json:"ok"`
	Count int  `json:"count"`
}

// SheetsResponse lists workbook sheet names in tab order.
type SheetsResponse struct {
	Sheets []string `json:"sheets"`
}

// HealthResponse is served at /healthz.
type HealthResponse struct {
	OK      bool   `json:"ok"`
	Version string `json:"version,omitempty"`
}

// CheckResult is the JSON form of a preflight check.
type CheckResult struct {
	Name     string `json:"name"`
	Passed   bool   `json:"passed"`
	Optional bool   `json:"optional,omitempty"`
	Detail   string `json:"detail"`
}

// PositionEntry is one row of a positions listing.
type PositionEntry struct {
	ID    string   `json:"id"`
	X     *float64 `json:"x,omitempty"`
	Y     *float64 `json:"y,omitempty"`
	Valid bool     `json:"valid"`
}

// OrganelleSummary describes an organelle layout without its overlay bodies.
type OrganelleSummary struct {
	Path       string   `json:"path"`
	Version    int      `json:"version"`
	CoordMode  string   `json:"coordMode"`
	Opacity    float64  `json:"opacity"`
	Organelles []string `json:"organelles"`
}
