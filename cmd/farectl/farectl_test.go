package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"FareCast/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func predictorStub(t *testing.T, status int, body string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		var q models.QueryDescriptor
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&q))
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestPredictThenHistory(t *testing.T) {
	srv, _ := predictorStub(t, http.StatusOK, `{"prediction": 123456.4}`)
	db := filepath.Join(t.TempDir(), "history.db")
	common := []string{"--backend", "sqlite", "--sqlite-path", db, "--predictor-url", srv.URL}

	out, err := run(t, append([]string{"predict",
		"--airline", "Vistara", "--from", "Delhi", "--to", "Mumbai", "--date", "2025-06-01", "--swap"}, common...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Mumbai → Delhi")
	assert.Contains(t, out, "₹1,23,456")

	out, err = run(t, append([]string{"history", "list"}, common...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Mumbai → Delhi")
	assert.Contains(t, out, "Vistara")

	out, err = run(t, append([]string{"history", "list", "--json"}, common...)...)
	require.NoError(t, err)
	var items []models.HistoryItem
	require.NoError(t, json.Unmarshal([]byte(out), &items))
	require.Len(t, items, 1)
	assert.Equal(t, int64(123456), items[0].Price)

	_, err = run(t, append([]string{"history", "clear"}, common...)...)
	require.NoError(t, err)
	out, err = run(t, append([]string{"history", "list"}, common...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "no predictions yet")
}

func TestPredictShowsUpstreamMessage(t *testing.T) {
	srv, _ := predictorStub(t, http.StatusBadRequest, `{"error": "Unknown route"}`)

	_, err := run(t, "predict", "--backend", "memory", "--predictor-url", srv.URL,
		"--airline", "Indigo", "--from", "Delhi", "--to", "Chennai", "--date", "2025-06-01")
	require.Error(t, err)
	assert.Equal(t, "Unknown route", err.Error())
}

func TestPredictValidatesBeforeCalling(t *testing.T) {
	srv, calls := predictorStub(t, http.StatusOK, `{"prediction": 5000}`)

	_, err := run(t, "predict", "--backend", "memory", "--predictor-url", srv.URL,
		"--airline", "Indigo", "--from", "Delhi", "--to", "Delhi", "--date", "2025-06-01")
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "invalid query"))
	assert.Equal(t, int32(0), calls.Load())
}

func TestForecastMarksEstimatedDays(t *testing.T) {
	srv, calls := predictorStub(t, http.StatusInternalServerError, `{"error": "model not loaded"}`)

	out, err := run(t, "forecast", "--backend", "memory", "--predictor-url", srv.URL,
		"--airline", "SpiceJet", "--from", "Kolkata", "--to", "Hyderabad", "--date", "2025-06-01")
	require.NoError(t, err)
	assert.Equal(t, int32(models.HorizonDays), calls.Load())
	assert.Contains(t, out, "7-Day Price Forecast")
	assert.Equal(t, models.HorizonDays, strings.Count(out, "estimated"))
	assert.Contains(t, out, "Sun, Jun 1")
}

func TestRenderSeriesDegraded(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, renderSeries(&buf, models.SeriesView{Title: "7-Day Price Forecast", Degraded: true}))
	assert.Contains(t, buf.String(), "every fare is estimated")
}
