package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	applogger "FareCast/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flakyHandler struct {
	failures int
	calls    int
	err      error
}

func (h *flakyHandler) Topic() string { return "farecast.predictions" }

func (h *flakyHandler) Handle(context.Context, []byte) error {
	h.calls++
	if h.calls <= h.failures {
		return h.err
	}
	return nil
}

func newTestConsumer(t *testing.T, retries int) *Consumer {
	t.Helper()
	c, err := NewConsumer(applogger.Nop(),
		WithConsumerBrokers([]string{"localhost:9092"}),
		WithConsumerRetry(retries, time.Millisecond, 5*time.Millisecond),
	)
	require.NoError(t, err)
	return c
}

func TestHandleRetriesUntilSuccess(t *testing.T) {
	c := newTestConsumer(t, 3)
	h := &flakyHandler{failures: 2, err: errors.New("clickhouse unavailable")}

	require.NoError(t, c.handle(context.Background(), h, []byte("{}")))
	assert.Equal(t, 3, h.calls)
}

func TestHandleGivesUpAfterRetryMax(t *testing.T) {
	c := newTestConsumer(t, 2)
	h := &flakyHandler{failures: 10, err: errors.New("still down")}

	assert.Error(t, c.handle(context.Background(), h, nil))
	assert.Equal(t, 3, h.calls)
}

func TestHandleStopsOnPermanentError(t *testing.T) {
	c := newTestConsumer(t, 5)
	h := &flakyHandler{failures: 10, err: Permanent(errors.New("bad payload"))}

	err := c.handle(context.Background(), h, nil)
	require.Error(t, err)
	assert.Equal(t, "bad payload", err.Error())
	assert.Equal(t, 1, h.calls)
}

type panicHandler struct{ calls int }

func (h *panicHandler) Topic() string { return "t" }

func (h *panicHandler) Handle(context.Context, []byte) error {
	h.calls++
	panic("nil map")
}

func TestHandleRecoversPanics(t *testing.T) {
	c := newTestConsumer(t, 3)
	h := &panicHandler{}

	err := c.handle(context.Background(), h, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nil map")
	assert.Equal(t, 1, h.calls)
}

func TestNewConsumerNeedsBrokers(t *testing.T) {
	_, err := NewConsumer(applogger.Nop())
	assert.Error(t, err)
}

func TestRegisterHandlerKeepsFirst(t *testing.T) {
	c := newTestConsumer(t, 0)
	first := &flakyHandler{}
	c.RegisterHandler(first)
	c.RegisterHandler(&flakyHandler{})
	assert.Same(t, first, c.handlers["farecast.predictions"])
}
