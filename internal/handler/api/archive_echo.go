package api

import (
	"encoding/json"
	"fmt"
	"time"

	"FareCast/internal/domain/models"
	domrepo "FareCast/internal/domain/repository"
	icache "FareCast/internal/service/cache"
	xhttp "FareCast/pkg/http"
	xlogger "FareCast/pkg/logger"

	"github.com/labstack/echo/v4"
)

// ArchiveEchoHandler answers queries over archived prediction events.
type ArchiveEchoHandler struct {
	logger *xlogger.Logger
	store  domrepo.ArchiveStore
	cache  icache.BytesCache
	ttl    time.Duration
}

// NewArchiveEchoHandler caches answers for ttl when cache is non-nil.
func NewArchiveEchoHandler(logger *xlogger.Logger, store domrepo.ArchiveStore, cache icache.BytesCache, ttl time.Duration) *ArchiveEchoHandler {
	return &ArchiveEchoHandler{logger: logger, store: store, cache: cache, ttl: ttl}
}

func (h *ArchiveEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/archive", h.Recent)
}

func (h *ArchiveEchoHandler) Recent(c echo.Context) error {
	req := &models.ArchiveRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	ctx := c.Request().Context()

	key := fmt.Sprintf("archive:%s:%s:%s:%s:%d", req.SourceCity, req.DestinationCity, req.Airline, req.DepartureDate, req.Limit)
	if h.cache != nil && h.ttl > 0 {
		b, ok, err := h.cache.GetBytes(ctx, key)
		if err != nil {
			h.logger.Warn("archive cache_get_error", xlogger.Error(err))
		} else if ok {
			var events []models.PredictionEvent
			if err := json.Unmarshal(b, &events); err == nil {
				c.Response().Header().Set("X-Cache", "hit")
				return xhttp.ListResponse(c, events, int64(len(events)))
			}
		}
	}

	events, err := h.store.Recent(ctx, req.RouteKey(), req.Limit)
	if err != nil {
		h.logger.Error("archive query error", xlogger.String("key", key), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.BadGatewayError("Archive is unavailable").WithError(err))
	}

	if h.cache != nil && h.ttl > 0 {
		if b, err := json.Marshal(events); err == nil {
			if err := h.cache.SetBytes(ctx, key, b, h.ttl); err != nil {
				h.logger.Warn("archive cache_set_error", xlogger.Error(err))
			}
		}
	}
	c.Response().Header().Set("X-Cache", "miss")
	return xhttp.ListResponse(c, events, int64(len(events)))
}
