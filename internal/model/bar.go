// Package model defines the wire types exchanged with the trading API:
// OHLC bars coming in, and indicator signal points/lines going out.
package model

import "time"

// Bar represents one OHLC price sample for a fixed time interval,
// as returned by GET /api/external/bars. Bars arrive oldest first.
type Bar struct {
	Time   int64   `json:"time"` // unix seconds, bucket start
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume,omitempty"`
}

// TS returns the bar's timestamp as a UTC time.Time.
func (b Bar) TS() time.Time {
	return time.Unix(b.Time, 0).UTC()
}
