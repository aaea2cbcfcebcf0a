package api

import (
	"errors"
	"net/http"

	"FareCast/internal/domain/models"
	"FareCast/internal/service/ratelimit"
	"FareCast/internal/usecase"
	xhttp "FareCast/pkg/http"
	xlogger "FareCast/pkg/logger"

	"github.com/labstack/echo/v4"
)

// FareEchoHandler serves predictions, forecasts and the history log.
type FareEchoHandler struct {
	logger  *xlogger.Logger
	svc     *usecase.FareService
	limiter *ratelimit.Limiter
}

func NewFareEchoHandler(logger *xlogger.Logger, svc *usecase.FareService, limiter *ratelimit.Limiter) *FareEchoHandler {
	return &FareEchoHandler{logger: logger, svc: svc, limiter: limiter}
}

func (h *FareEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.POST("/predict", h.Predict, h.rateLimited)
	g.POST("/forecast", h.Forecast)
	g.GET("/history", h.History)
	g.DELETE("/history", h.ClearHistory)
	g.GET("/options", h.Options)
}

func (h *FareEchoHandler) rateLimited(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if h.limiter != nil && !h.limiter.Allow(c.RealIP()) {
			h.logger.Warn("predict rate_limited", xlogger.String("remote", c.RealIP()))
			return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("Too many prediction requests, slow down"))
		}
		return next(c)
	}
}

func (h *FareEchoHandler) Predict(c echo.Context) error {
	req := &models.PredictRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	entry, err := h.svc.PredictOnce(c.Request().Context(), req.Descriptor())
	if err != nil {
		return h.predictionError(c, err)
	}
	return xhttp.SuccessResponse(c, models.NewHistoryItem(entry))
}

func (h *FareEchoHandler) Forecast(c echo.Context) error {
	req := &models.ForecastRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	series, err := h.svc.RunForecast(c.Request().Context(), req.Descriptor())
	if err != nil {
		return h.predictionError(c, err)
	}
	return xhttp.SuccessResponse(c, models.NewSeriesView(series))
}

func (h *FareEchoHandler) History(c echo.Context) error {
	req := &models.HistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	entries := h.svc.History()
	total := int64(len(entries))
	if len(entries) > req.Limit {
		entries = entries[:req.Limit]
	}
	if h.svc.HistoryDegraded() {
		c.Response().Header().Set("X-History-Degraded", "true")
	}
	return xhttp.ListResponse(c, models.NewHistoryItems(entries), total)
}

func (h *FareEchoHandler) ClearHistory(c echo.Context) error {
	h.svc.ClearHistory(c.Request().Context())
	return xhttp.NoContentResponse(c)
}

func (h *FareEchoHandler) Options(c echo.Context) error {
	c.Response().Header().Set(echo.HeaderCacheControl, "public, max-age=3600")
	return xhttp.SuccessResponse(c, models.AllOptions())
}

func (h *FareEchoHandler) predictionError(c echo.Context, err error) error {
	var perr *usecase.PredictionError
	switch {
	case errors.Is(err, models.ErrInvalidQuery):
		return xhttp.AppErrorResponse(c, xhttp.NewAppError("ERR_INVALID_QUERY", "departure_date", err.Error(), http.StatusBadRequest))
	case errors.As(err, &perr):
		return xhttp.AppErrorResponse(c, xhttp.BadGatewayError(perr.Message).WithError(err))
	default:
		h.logger.Error("fare usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
}
