package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	applogger "FareCast/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type observed struct {
	route, method string
	status        int
}

type fakeObserver struct{ calls []observed }

func (f *fakeObserver) HTTPStarted(route, method string) func(int, int, time.Duration) {
	return func(status, _ int, _ time.Duration) {
		f.calls = append(f.calls, observed{route, method, status})
	}
}

func TestMetricsUsesRouteTemplate(t *testing.T) {
	obs := &fakeObserver{}
	e := echo.New()
	e.Use(Metrics(obs))
	e.GET("/api/items/:id", func(c echo.Context) error { return c.NoContent(http.StatusTeapot) })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/items/42", nil))

	require.Len(t, obs.calls, 1)
	assert.Equal(t, observed{"/api/items/:id", http.MethodGet, http.StatusTeapot}, obs.calls[0])
}

func TestMetricsSeesStatusOfReturnedError(t *testing.T) {
	obs := &fakeObserver{}
	e := echo.New()
	e.Use(Metrics(obs))
	e.GET("/boom", func(c echo.Context) error { return echo.NewHTTPError(http.StatusBadGateway) })

	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/boom", nil))

	require.Len(t, obs.calls, 1)
	assert.Equal(t, http.StatusBadGateway, obs.calls[0].status)
}

func TestRecoverLogsAndAnswers500(t *testing.T) {
	var buf bytes.Buffer
	e := echo.New()
	e.Use(Recover(applogger.NewWriter(&buf, "debug")))
	e.GET("/panic", func(c echo.Context) error { panic("kaboom") })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, buf.String(), "kaboom")
}

func corsEcho(cfg CORSConfig) *echo.Echo {
	e := echo.New()
	e.Use(CORS(cfg))
	e.POST("/api/predict", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/api/archive", func(c echo.Context) error {
		c.Response().Header().Set("X-Cache", "hit")
		return c.NoContent(http.StatusOK)
	})
	return e
}

func TestCORSPreflight(t *testing.T) {
	e := corsEcho(CORSConfig{AllowOrigins: []string{"*"}, AllowMethods: []string{http.MethodPost}, MaxAge: 600})

	req := httptest.NewRequest(http.MethodOptions, "/api/predict", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, http.MethodPost, rec.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "600", rec.Header().Get("Access-Control-Max-Age"))
}

func TestCORSDefaultsToServedMethods(t *testing.T) {
	e := corsEcho(CORSConfig{AllowOrigins: []string{"http://localhost:5173"}})

	req := httptest.NewRequest(http.MethodOptions, "/api/predict", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodDelete)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "GET, POST, DELETE, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Origin, Content-Type, Accept", rec.Header().Get("Access-Control-Allow-Headers"))
}

func TestCORSUnknownOriginGetsNoHeaders(t *testing.T) {
	e := corsEcho(CORSConfig{AllowOrigins: []string{"http://localhost:5173"}})

	req := httptest.NewRequest(http.MethodPost, "/api/predict", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "Origin", rec.Header().Get("Vary"))
}

func TestCORSExposesResponseHeaders(t *testing.T) {
	e := corsEcho(CORSConfig{AllowOrigins: []string{"*"}, ExposeHeaders: []string{"X-Cache", "X-History-Degraded"}})

	req := httptest.NewRequest(http.MethodGet, "/api/archive", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "X-Cache, X-History-Degraded", rec.Header().Get("Access-Control-Expose-Headers"))
	assert.Equal(t, "hit", rec.Header().Get("X-Cache"))
}
