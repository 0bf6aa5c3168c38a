package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"lifeline/internal/common"
)

type CachedAmbulanceLocation struct {
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	Timestamp time.Time `json:"timestamp"`
}

// AmbulanceLocationCache keeps the latest driver position feed out of the
// database read path for tracking dashboards.
type AmbulanceLocationCache struct {
	client *goredis.Client
	ttl    time.Duration
}

func NewAmbulanceLocationCache(client *goredis.Client, ttlSeconds int) *AmbulanceLocationCache {
	return &AmbulanceLocationCache{
		client: client,
		ttl:    time.Duration(ttlSeconds) * time.Second,
	}
}

func (c *AmbulanceLocationCache) Set(ctx context.Context, ambulanceID string, loc common.Location) error {
	data := CachedAmbulanceLocation{
		Lat:       loc.Lat,
		Lng:       loc.Lng,
		Timestamp: time.Now(),
	}
	bytes, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal ambulance location: %w", err)
	}
	return c.client.Set(ctx, ambulanceLocationKey(ambulanceID), bytes, c.ttl).Err()
}

func (c *AmbulanceLocationCache) Get(ctx context.Context, ambulanceID string) (*CachedAmbulanceLocation, error) {
	bytes, err := c.client.Get(ctx, ambulanceLocationKey(ambulanceID)).Bytes()
	if err == goredis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get ambulance location: %w", err)
	}

	var loc CachedAmbulanceLocation
	if err := json.Unmarshal(bytes, &loc); err != nil {
		return nil, fmt.Errorf("unmarshal ambulance location: %w", err)
	}
	return &loc, nil
}

func ambulanceLocationKey(ambulanceID string) string {
	return fmt.Sprintf("ambulance:location:%s", ambulanceID)
}
