package model

// SchemaVersion is the fixed payload schema version tag expected by the
// indicator-ingestion endpoint.
const SchemaVersion = "1.0"

// SubmissionPayload is the body of POST /api/external/indicators/{id}.
// Points and Lines are always present in the encoded JSON, empty or not.
type SubmissionPayload struct {
	Symbol        string         `json:"symbol"`
	Timeframe     int            `json:"timeframe"` // minutes
	IndicatorName string         `json:"indicator_name"`
	Version       string         `json:"version"`
	Points        []SignalPoint  `json:"points"`
	Lines         []Line         `json:"lines"`
	Metadata      map[string]any `json:"metadata"`
}

// SubmitResult is the success body returned by the indicator endpoint.
type SubmitResult struct {
	PointsReceived int    `json:"points_received"`
	LinesReceived  int    `json:"lines_received"`
	ExpiresAt      string `json:"expires_at"`
}
