package model

// Anchor selects which side of a bar a point is drawn against.
type Anchor string

const (
	AnchorHigh Anchor = "high"
	AnchorLow  Anchor = "low"
)

// Shape is the marker glyph rendered on the chart.
type Shape string

const (
	ShapeArrowUp   Shape = "arrowUp"
	ShapeArrowDown Shape = "arrowDown"
	ShapeSquare    Shape = "square"
	ShapeCircle    Shape = "circle"
)

// LineStyle is the dash pattern of a horizontal level line.
type LineStyle string

const (
	StyleSolid  LineStyle = "solid"
	StyleDashed LineStyle = "dashed"
	StyleDotted LineStyle = "dotted"
)

// SignalPoint is a single chart annotation marker. Points are produced
// fresh each cycle; ownership transfers to the API on submission.
type SignalPoint struct {
	Time  int64   `json:"time"` // unix seconds, must match an existing bar
	Type  Anchor  `json:"type"`
	Price float64 `json:"price"`
	Label string  `json:"label"`
	Color string  `json:"color"`
	Shape Shape   `json:"shape"`
	Size  int     `json:"size"`
}

// Line is a horizontal level (entry/SL/TP) drawn from StartTime and
// extended Bars bars to the right.
type Line struct {
	ID        string    `json:"id"`
	Price     float64   `json:"price"`
	StartTime int64     `json:"start_time"`
	Bars      int       `json:"bars"`
	Label     string    `json:"label"`
	Color     string    `json:"color"`
	Style     LineStyle `json:"style"`
	Width     int       `json:"width"`
}
