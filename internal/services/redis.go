package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var RedisClient *redis.Client

// InitRedis initializes the Redis client. Redis is optional: when it is
// not reachable the caller may continue without event publishing.
func InitRedis(redisURL string) error {
	if redisURL == "" {
		redisURL = "redis://localhost:6379"
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return fmt.Errorf("failed to parse Redis URL: %v", err)
	}

	RedisClient = redis.NewClient(opt)

	ctx := context.Background()
	if _, err := RedisClient.Ping(ctx).Result(); err != nil {
		RedisClient = nil
		return fmt.Errorf("failed to connect to Redis: %v", err)
	}

	return nil
}

// PublishBookingUpdate publishes a booking lifecycle event to Redis
// pub/sub for out-of-process consumers. A nil client is a no-op.
func PublishBookingUpdate(ctx context.Context, event string, bookingID, rideID, userID uint, data map[string]interface{}) error {
	if RedisClient == nil {
		return nil
	}

	payload := map[string]interface{}{
		"event":     event,
		"bookingId": bookingID,
		"rideId":    rideID,
		"userId":    userID,
		"data":      data,
		"timestamp": time.Now().Unix(),
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	return RedisClient.Publish(ctx, "booking:updates", jsonData).Err()
}

// PublishRideUpdate publishes a ride lifecycle event to Redis pub/sub.
func PublishRideUpdate(ctx context.Context, event string, rideID, driverID uint, data map[string]interface{}) error {
	if RedisClient == nil {
		return nil
	}

	payload := map[string]interface{}{
		"event":     event,
		"rideId":    rideID,
		"driverId":  driverID,
		"data":      data,
		"timestamp": time.Now().Unix(),
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	return RedisClient.Publish(ctx, "ride:updates", jsonData).Err()
}
