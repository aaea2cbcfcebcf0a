package predictor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"FareCast/internal/domain/models"
	"FareCast/pkg/config"
	xhttp "FareCast/pkg/http"
)

// ErrBadPrediction is returned when the service answers 2xx without a usable price.
var ErrBadPrediction = errors.New("prediction service returned no usable price")

// UpstreamError carries the message the prediction service put in its error body.
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("prediction service: %d %s", e.Status, e.Message)
}

// UserMessage is the upstream text, shown to users as is.
func (e *UpstreamError) UserMessage() string { return e.Message }

type predictResponse struct {
	Prediction *float64 `json:"prediction"`
}

type errorBody struct {
	Error string `json:"error"`
}

// HTTPClient calls the point-prediction service: POST {base_url}{path} with the
// descriptor as JSON, answered by {"prediction": number}.
type HTTPClient struct {
	url    string
	client *xhttp.Client
}

func NewHTTPClient(cfg config.PredictorConfig, opts ...xhttp.ClientOption) *HTTPClient {
	timeout := cfg.CallTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	opts = append([]xhttp.ClientOption{xhttp.WithTimeout(timeout)}, opts...)
	return &HTTPClient{
		url:    strings.TrimRight(cfg.BaseURL, "/") + "/" + strings.TrimLeft(cfg.Path, "/"),
		client: xhttp.NewClient(opts...),
	}
}

// Predict returns the price rounded to whole currency units.
func (c *HTTPClient) Predict(ctx context.Context, q models.QueryDescriptor) (int64, error) {
	var resp predictResponse
	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    c.url,
		Body:   q,
	}, &resp)
	if err != nil {
		var se *xhttp.StatusError
		if errors.As(err, &se) {
			var body errorBody
			if json.Unmarshal(se.Body, &body) == nil && body.Error != "" {
				return 0, &UpstreamError{Status: se.Status, Message: body.Error}
			}
		}
		return 0, fmt.Errorf("predict: %w", err)
	}

	if resp.Prediction == nil {
		return 0, ErrBadPrediction
	}
	p := *resp.Prediction
	if math.IsNaN(p) || math.IsInf(p, 0) || p >= math.MaxInt64 {
		return 0, ErrBadPrediction
	}
	price := int64(math.Round(p))
	if price <= 0 {
		return 0, ErrBadPrediction
	}
	return price, nil
}
