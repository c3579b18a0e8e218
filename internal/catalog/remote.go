package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"food-marketplace/internal/logger"
)

type ownerResponse struct {
	RestaurantID uuid.UUID `json:"restaurant_id"`
}

type ownerResult struct {
	restaurantID uuid.UUID
	found        bool
}

// RemoteOwnership asks the catalog service who owns what:
// GET {base}/owners/{id}/restaurant answers 200 {"restaurant_id"} or 404.
type RemoteOwnership struct {
	client  *resty.Client
	baseURL string
	breaker *breaker
}

func NewRemoteOwnership(baseURL string, timeout time.Duration, log *logger.Logger) *RemoteOwnership {
	return &RemoteOwnership{
		client: resty.New().
			SetTimeout(timeout).
			SetRetryCount(0),
		baseURL: strings.TrimRight(baseURL, "/"),
		breaker: newBreaker("ownership", log),
	}
}

func (o *RemoteOwnership) RestaurantForOwner(ctx context.Context, ownerID uuid.UUID) (uuid.UUID, bool, error) {
	result, err := o.breaker.execute(func() (interface{}, error) {
		resp, err := o.client.R().
			SetContext(ctx).
			SetHeader("Accept", "application/json").
			Get(fmt.Sprintf("%s/owners/%s/restaurant", o.baseURL, ownerID))
		if err != nil {
			return nil, fmt.Errorf("HTTP error: %w", err)
		}

		switch resp.StatusCode() {
		case http.StatusOK:
		case http.StatusNotFound:
			return ownerResult{}, nil
		default:
			return nil, fmt.Errorf("catalog service returned status %d", resp.StatusCode())
		}

		var body ownerResponse
		if err := json.Unmarshal(resp.Body(), &body); err != nil {
			return nil, fmt.Errorf("failed to parse response: %w", err)
		}
		if body.RestaurantID == uuid.Nil {
			return ownerResult{}, nil
		}
		return ownerResult{restaurantID: body.RestaurantID, found: true}, nil
	})
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("ownership lookup: %w", err)
	}

	r := result.(ownerResult)
	return r.restaurantID, r.found, nil
}
