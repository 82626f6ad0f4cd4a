package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"signalgen/internal/model"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(url string) *Client {
	return New(Config{BaseURL: url, APIKey: "test-key"}, testLogger())
}

func TestGetBars_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/external/bars" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("expected bearer auth, got %q", got)
		}
		q := r.URL.Query()
		if q.Get("symbol") != "EURUSD" || q.Get("timeframe") != "60" || q.Get("limit") != "500" {
			t.Errorf("unexpected query %v", q)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"bars": []model.Bar{
				{Time: 1700000000, Open: 1.09, High: 1.10, Low: 1.08, Close: 1.095, Volume: 1200},
				{Time: 1700003600, Open: 1.095, High: 1.097, Low: 1.091, Close: 1.093},
			},
		})
	}))
	defer srv.Close()

	bars, err := newTestClient(srv.URL).GetBars(context.Background(), "EURUSD", 60, 500)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bars) != 2 {
		t.Fatalf("expected 2 bars, got %d", len(bars))
	}
	if bars[0].Time != 1700000000 || bars[0].Close != 1.095 {
		t.Errorf("first bar decoded wrong: %+v", bars[0])
	}
}

func TestGetBars_AbsentFieldIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	bars, err := newTestClient(srv.URL).GetBars(context.Background(), "EURUSD", 60, 500)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bars) != 0 {
		t.Errorf("expected empty bars, got %d", len(bars))
	}
}

func TestGetBars_LimitClamped(t *testing.T) {
	var gotLimit string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotLimit = r.URL.Query().Get("limit")
		w.Write([]byte(`{"bars":[]}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	if _, err := c.GetBars(context.Background(), "EURUSD", 60, 9999); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotLimit != "5000" {
		t.Errorf("expected limit clamped to 5000, got %s", gotLimit)
	}

	if _, err := c.GetBars(context.Background(), "EURUSD", 60, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotLimit != "5000" {
		t.Errorf("expected zero limit replaced with 5000, got %s", gotLimit)
	}
}

func TestGetBars_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"invalid api key"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).GetBars(context.Background(), "EURUSD", 60, 500)
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected *HTTPError, got %T: %v", err, err)
	}
	if httpErr.Status != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", httpErr.Status)
	}
	if httpErr.Body == "" {
		t.Error("expected response body preserved for diagnostics")
	}
}

func TestGetBars_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	_, err := newTestClient(srv.URL).GetBars(context.Background(), "EURUSD", 60, 500)
	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("expected *TransportError, got %T: %v", err, err)
	}
}

func TestGetBars_DecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"bars": not json`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).GetBars(context.Background(), "EURUSD", 60, 500)
	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("expected *DecodeError, got %T: %v", err, err)
	}
}

func TestSubmitSignals_Success(t *testing.T) {
	var received model.SubmissionPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/api/external/indicators/my_indicator" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected application/json, got %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(model.SubmitResult{
			PointsReceived: 5,
			LinesReceived:  5,
			ExpiresAt:      "2026-01-01T00:00:00Z",
		})
	}))
	defer srv.Close()

	payload := model.SubmissionPayload{
		Symbol:        "EURUSD",
		Timeframe:     60,
		IndicatorName: "Test Indicator",
		Version:       model.SchemaVersion,
		Points:        []model.SignalPoint{{Time: 1700000000, Type: model.AnchorLow, Price: 1.093, Label: "BUY", Shape: model.ShapeArrowUp, Size: 2}},
		Lines:         []model.Line{},
		Metadata:      map[string]any{"strategy": "test"},
	}

	result, err := newTestClient(srv.URL).SubmitSignals(context.Background(), "my_indicator", payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.PointsReceived != 5 || result.LinesReceived != 5 {
		t.Errorf("unexpected result: %+v", result)
	}
	if result.ExpiresAt != "2026-01-01T00:00:00Z" {
		t.Errorf("unexpected expiry: %s", result.ExpiresAt)
	}

	if received.Version != "1.0" {
		t.Errorf("expected schema version 1.0, got %q", received.Version)
	}
	if received.Symbol != "EURUSD" || received.Timeframe != 60 {
		t.Errorf("payload identity wrong: %+v", received)
	}
	if len(received.Points) != 1 || received.Points[0].Label != "BUY" {
		t.Errorf("points not round-tripped: %+v", received.Points)
	}
	if received.Lines == nil {
		t.Error("expected lines field present even when empty")
	}
}

func TestSubmitSignals_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"storage unavailable"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).SubmitSignals(context.Background(), "my_indicator", model.SubmissionPayload{})
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected *HTTPError, got %T: %v", err, err)
	}
	if httpErr.Status != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", httpErr.Status)
	}
}
