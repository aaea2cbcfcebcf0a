package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"FareCast/internal/domain/models"
	domrepo "FareCast/internal/domain/repository"
	"FareCast/internal/usecase"
	xhttp "FareCast/pkg/http"
	xlogger "FareCast/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMessage = 4096
)

// sessionMessage is what the server pushes to a session client.
type sessionMessage struct {
	Type  string                  `json:"type"` // series, accepted, error
	RunID uint64                  `json:"run_id,omitempty"`
	Data  interface{}             `json:"data,omitempty"`
	Errs  []xhttp.ValidationError `json:"errors,omitempty"`
}

// SessionHandler runs the live query session: the client streams descriptor
// snapshots as it edits the form and receives a fresh forecast whenever the
// departure date, airline or cities change.
type SessionHandler struct {
	logger     *xlogger.Logger
	forecaster usecase.Forecaster
	metrics    domrepo.Metrics
	upgrader   websocket.Upgrader
}

func NewSessionHandler(logger *xlogger.Logger, forecaster usecase.Forecaster, metrics domrepo.Metrics, origins []string) *SessionHandler {
	return &SessionHandler{
		logger:     logger,
		forecaster: forecaster,
		metrics:    metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     originChecker(origins),
		},
	}
}

func (h *SessionHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/session", h.Session)
}

func originChecker(origins []string) func(r *http.Request) bool {
	if len(origins) == 0 {
		return func(*http.Request) bool { return true }
	}
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		allowed[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := allowed[origin]
		return ok
	}
}

type sessionConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (s *sessionConn) send(m sessionMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteJSON(m)
}

func (s *sessionConn) ping() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

func (h *SessionHandler) Session(c echo.Context) error {
	ws, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// the upgrader already answered the request
		h.logger.Warn("session upgrade failed", xlogger.Error(err))
		return nil
	}
	conn := &sessionConn{conn: ws}
	defer ws.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log := h.logger.With(xlogger.String("remote", c.RealIP()))
	policy := usecase.NewTriggerPolicy(h.forecaster, func(s models.ForecastSeries) {
		if err := conn.send(sessionMessage{Type: "series", RunID: s.RunID, Data: models.NewSeriesView(s)}); err != nil {
			log.Debug("session push failed", xlogger.Error(err))
		}
	}, h.metrics, log)
	policy.OnAccept(func(id uint64) {
		_ = conn.send(sessionMessage{Type: "accepted", RunID: id})
	})
	defer func() {
		cancel()
		policy.Wait()
	}()

	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := conn.ping(); err != nil {
					return
				}
			}
		}
	}()

	ws.SetReadLimit(maxMessage)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	log.Debug("session opened")
	for {
		_, b, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("session read failed", xlogger.Error(err))
			}
			log.Debug("session closed")
			return nil
		}

		var q models.QueryDescriptor
		if err := json.Unmarshal(b, &q); err != nil {
			_ = conn.send(sessionMessage{Type: "error", Errs: []xhttp.ValidationError{{
				Code: "ERR_BAD_MESSAGE", Message: "message must be a JSON query descriptor",
			}}})
			continue
		}
		// an incomplete form is normal while the user types; only a complete route
		// key with a bad date is reported
		if q.RouteKey().Complete() {
			if _, err := q.Date(); err != nil {
				_ = conn.send(sessionMessage{Type: "error", Errs: []xhttp.ValidationError{{
					Code: "ERR_DATETIME", Field: "departure_date", Message: "departure_date must be YYYY-MM-DD",
				}}})
				continue
			}
		}

		policy.Observe(ctx, q)
	}
}
