// Package client holds the HTTP clients for services the concierge calls.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/havensuites/concierge/internal/domain"
	"github.com/havensuites/concierge/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
)

var tracer = otel.Tracer("client")

// RatingClient calls a remote rating service that exposes the same
// POST /v1/rating contract this service does.
type RatingClient struct {
	httpClient *http.Client
	baseURL    string
	cb         *gobreaker.CircuitBreaker
	bulkhead   *resilience.Bulkhead
	cfg        resilience.Config
}

// NewRatingClient creates a new RatingClient.
func NewRatingClient(httpClient *http.Client, baseURL string, cb *gobreaker.CircuitBreaker, cfg resilience.Config) *RatingClient {
	return &RatingClient{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		cb:         cb,
		bulkhead:   resilience.NewBulkhead(cfg.MaxConcurrency),
		cfg:        cfg,
	}
}

// Predict asks the remote service for a rating. Calls go through the
// bulkhead, then the circuit breaker, then retry with backoff.
func (c *RatingClient) Predict(ctx context.Context, f domain.RatingFeatures) (float64, error) {
	ctx, span := tracer.Start(ctx, "RatingClient.Predict")
	defer span.End()
	span.SetAttributes(attribute.Int("rating.room_type", f.RoomType))

	if err := c.bulkhead.Acquire(ctx); err != nil {
		return 0, c.mapError(ctx, err)
	}
	defer c.bulkhead.Release()

	var ratingResp domain.RatingResponse

	_, err := c.cb.Execute(func() (any, error) {
		innerErr := resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			body, err := json.Marshal(f)
			if err != nil {
				return err
			}

			url := fmt.Sprintf("%s/v1/rating", c.baseURL)
			httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
			if err != nil {
				return err
			}
			httpReq.Header.Set("Content-Type", "application/json")
			otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(httpReq.Header))

			resp, err := c.httpClient.Do(httpReq)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("rating API returned status %d", resp.StatusCode)
			}

			return json.NewDecoder(resp.Body).Decode(&ratingResp)
		})
		if innerErr != nil {
			return nil, innerErr
		}
		return nil, nil
	})
	if err != nil {
		return 0, c.mapError(ctx, err)
	}

	return ratingResp.Rating, nil
}

func (c *RatingClient) mapError(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return &domain.ErrCircuitOpen{Service: "rating"}
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		return &domain.ErrTimeout{Operation: "rating call"}
	default:
		return &domain.ErrExternalService{Service: "rating", Err: err}
	}
}
