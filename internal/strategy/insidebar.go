package strategy

import (
	"fmt"

	"signalgen/internal/model"
)

// Marker colors match the chart palette of the receiving platform.
const (
	colorBuy  = "#3b82f6"
	colorSell = "#f97316"
	colorStop = "#ef4444"
	colorTP1  = "#22c55e"
	colorTP2  = "#10b981"
	colorTP3  = "#059669"
)

const (
	// stopBuffer keeps the stop 5 pips beyond the mother bar's extreme.
	stopBuffer = 0.0005
	// lineExtent is how many bars each level line extends to the right.
	lineExtent = 15
)

// InsideBar implements an inside-bar breakout with multi-target exits.
//
// A bar is an inside bar when its range is strictly contained in the
// previous bar's range. Direction follows the close relative to the
// mother bar's midpoint. Each qualifying bar emits a full independent
// set of entry, stop, and three 1R/2R/3R target annotations.
// Consecutive qualifying bars may overlap; no suppression is applied.
type InsideBar struct{}

// NewInsideBar creates the example inside-bar strategy.
func NewInsideBar() *InsideBar {
	return &InsideBar{}
}

func (s *InsideBar) Name() string {
	return "Inside Bar with Multi-TP + Lines"
}

func (s *InsideBar) Derive(bars []model.Bar) ([]model.SignalPoint, []model.Line) {
	var (
		points []model.SignalPoint
		lines  []model.Line
	)
	signalCount := 0

	for i := 2; i < len(bars); i++ {
		prev := bars[i-1]
		curr := bars[i]

		isInside := curr.High < prev.High && curr.Low > prev.Low
		if !isInside {
			continue
		}

		midPoint := (prev.High + prev.Low) / 2
		bullish := curr.Close > midPoint

		entry := curr.Close
		barTime := curr.Time // anchor to the inside bar itself

		signalID := fmt.Sprintf("signal_%03d", signalCount)
		signalCount++

		if bullish {
			stop := prev.Low - stopBuffer
			risk := entry - stop

			points = append(points,
				model.SignalPoint{Time: barTime, Type: model.AnchorLow, Price: entry, Label: "BUY", Color: colorBuy, Shape: model.ShapeArrowUp, Size: 2},
				model.SignalPoint{Time: barTime, Type: model.AnchorLow, Price: stop, Label: "SL", Color: colorStop, Shape: model.ShapeSquare, Size: 1},
				model.SignalPoint{Time: barTime, Type: model.AnchorHigh, Price: entry + risk, Label: "TP1", Color: colorTP1, Shape: model.ShapeCircle, Size: 1},
				model.SignalPoint{Time: barTime, Type: model.AnchorHigh, Price: entry + risk*2, Label: "TP2", Color: colorTP2, Shape: model.ShapeCircle, Size: 1},
				model.SignalPoint{Time: barTime, Type: model.AnchorHigh, Price: entry + risk*3, Label: "TP3", Color: colorTP3, Shape: model.ShapeCircle, Size: 1},
			)
			lines = append(lines, levelLines(signalID, barTime, entry, stop, colorBuy,
				entry+risk, entry+risk*2, entry+risk*3)...)
		} else {
			stop := prev.High + stopBuffer
			risk := stop - entry

			points = append(points,
				model.SignalPoint{Time: barTime, Type: model.AnchorHigh, Price: entry, Label: "SELL", Color: colorSell, Shape: model.ShapeArrowDown, Size: 2},
				model.SignalPoint{Time: barTime, Type: model.AnchorHigh, Price: stop, Label: "SL", Color: colorStop, Shape: model.ShapeSquare, Size: 1},
				model.SignalPoint{Time: barTime, Type: model.AnchorLow, Price: entry - risk, Label: "TP1", Color: colorTP1, Shape: model.ShapeCircle, Size: 1},
				model.SignalPoint{Time: barTime, Type: model.AnchorLow, Price: entry - risk*2, Label: "TP2", Color: colorTP2, Shape: model.ShapeCircle, Size: 1},
				model.SignalPoint{Time: barTime, Type: model.AnchorLow, Price: entry - risk*3, Label: "TP3", Color: colorTP3, Shape: model.ShapeCircle, Size: 1},
			)
			lines = append(lines, levelLines(signalID, barTime, entry, stop, colorSell,
				entry-risk, entry-risk*2, entry-risk*3)...)
		}
	}

	return points, lines
}

// levelLines builds the horizontal entry/SL/TP lines for one signal.
func levelLines(signalID string, barTime int64, entry, stop float64, entryColor string, tp1, tp2, tp3 float64) []model.Line {
	return []model.Line{
		{
			ID:        signalID + "_entry",
			Price:     entry,
			StartTime: barTime,
			Bars:      lineExtent,
			Label:     fmt.Sprintf("Entry: %.5f", entry),
			Color:     entryColor,
			Style:     model.StyleDashed,
			Width:     1,
		},
		{
			ID:        signalID + "_sl",
			Price:     stop,
			StartTime: barTime,
			Bars:      lineExtent,
			Label:     fmt.Sprintf("SL: %.5f", stop),
			Color:     colorStop,
			Style:     model.StyleSolid,
			Width:     2,
		},
		{
			ID:        signalID + "_tp1",
			Price:     tp1,
			StartTime: barTime,
			Bars:      lineExtent,
			Label:     fmt.Sprintf("TP1: %.5f", tp1),
			Color:     colorTP1,
			Style:     model.StyleDotted,
			Width:     1,
		},
		{
			ID:        signalID + "_tp2",
			Price:     tp2,
			StartTime: barTime,
			Bars:      lineExtent,
			Label:     fmt.Sprintf("TP2: %.5f", tp2),
			Color:     colorTP2,
			Style:     model.StyleDotted,
			Width:     1,
		},
		{
			ID:        signalID + "_tp3",
			Price:     tp3,
			StartTime: barTime,
			Bars:      lineExtent,
			Label:     fmt.Sprintf("TP3: %.5f", tp3),
			Color:     colorTP3,
			Style:     model.StyleDotted,
			Width:     1,
		},
	}
}
