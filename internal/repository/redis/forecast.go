package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"helios/internal/adapters/redis"
	"helios/internal/engine/forecast"
	"helios/pkg/errors"
)

const forecastKeyPrefix = "forecast:"

// PendingForecast pairs a stored forecast with the trade it backs, if any
type PendingForecast struct {
	Forecast forecast.Forecast `json:"forecast"`
	TradeID  string            `json:"trade_id,omitempty"`
}

// ForecastRepository stores pending forecasts in Redis until their horizon
// elapses and the tracker grades them
type ForecastRepository struct {
	client *redis.Client
}

// NewForecastRepository creates a new forecast repository
func NewForecastRepository(client *redis.Client) *ForecastRepository {
	return &ForecastRepository{client: client}
}

// Save stores a pending forecast keyed by symbol and creation time. The
// TTL outlives the horizon so a slow tracker cycle still finds it.
func (r *ForecastRepository) Save(ctx context.Context, pf PendingForecast) error {
	key := forecastKey(pf.Forecast.Symbol, pf.Forecast.CreatedAt)
	ttl := pf.Forecast.Horizon * 3
	return r.client.Set(ctx, key, pf, ttl)
}

// GetDue returns forecasts whose horizon has elapsed
func (r *ForecastRepository) GetDue(ctx context.Context, now time.Time) ([]PendingForecast, error) {
	keys, err := r.client.Keys(ctx, forecastKeyPrefix+"*")
	if err != nil {
		return nil, errors.Wrap(err, "failed to list forecast keys")
	}

	var due []PendingForecast
	for _, key := range keys {
		var pf PendingForecast
		if err := r.client.Get(ctx, key, &pf); err != nil {
			if err == goredis.Nil {
				continue // expired between KEYS and GET
			}
			return nil, errors.Wrapf(err, "failed to load forecast %s", key)
		}
		if !pf.Forecast.DueAt.After(now) {
			due = append(due, pf)
		}
	}
	return due, nil
}

// Delete removes a graded forecast
func (r *ForecastRepository) Delete(ctx context.Context, pf PendingForecast) error {
	return r.client.Delete(ctx, forecastKey(pf.Forecast.Symbol, pf.Forecast.CreatedAt))
}

func forecastKey(symbol string, createdAt time.Time) string {
	return fmt.Sprintf("%s%s:%d", forecastKeyPrefix, symbol, createdAt.UnixNano())
}
