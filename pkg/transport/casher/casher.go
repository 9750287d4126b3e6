// Package casher provides Redis-based caching for survey definitions
// plus the local fallback queue for responses that could not reach the
// repository.
package casher

import (
	"context"
	"fmt"

	"github.com/Koyo-os/survey-service/pkg/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// SURVEY_KEY_TEMPLATE namespaces cached survey definitions.
	SURVEY_KEY_TEMPLATE = "survey:%s"

	// RESPONSE_QUEUE_TEMPLATE namespaces the per-survey fallback
	// queue of raw responses. The queue is append/read-only.
	RESPONSE_QUEUE_TEMPLATE = "responses:%s"
)

// Casher handles caching operations using Redis as the backend
type Casher struct {
	client *redis.Client
	logger *logger.Logger
}

// Init creates a new Casher instance with the provided Redis client and logger
func Init(client *redis.Client, logger *logger.Logger) *Casher {
	return &Casher{
		client: client,
		logger: logger,
	}
}

func (c *Casher) Close() error {
	return c.client.Close()
}

func (c *Casher) IsHealthy() bool {
	return c.client.Ping(context.Background()).Err() == nil
}

// DoCashing stores a survey payload under its id with no expiration;
// cached definitions live until the survey is deleted.
func (c *Casher) DoCashing(ctx context.Context, key string, payload any) error {
	res := c.client.Set(ctx, fmt.Sprintf(SURVEY_KEY_TEMPLATE, key), payload, 0)

	if err := res.Err(); err != nil {
		c.logger.Error("failed to cash payload",
			zap.String("key", key),
			zap.Error(err),
		)
		return err
	}

	return nil
}

// GetCashFor retrieves the cached survey payload for the given id
func (c *Casher) GetCashFor(ctx context.Context, key string) ([]byte, error) {
	res := c.client.Get(ctx, fmt.Sprintf(SURVEY_KEY_TEMPLATE, key))
	if err := res.Err(); err != nil {
		c.logger.Error("error get cash",
			zap.String("key", key),
			zap.Error(err),
		)
		return nil, err
	}

	data, err := res.Bytes()
	if err != nil {
		c.logger.Error("error get cashed bytes",
			zap.String("key", key),
			zap.Error(err),
		)
		return nil, err
	}

	return data, nil
}

// RemoveFromCash drops the cached survey payload for the given id
func (c *Casher) RemoveFromCash(ctx context.Context, key string) error {
	res := c.client.Del(ctx, fmt.Sprintf(SURVEY_KEY_TEMPLATE, key))

	if res.Err() != nil {
		c.logger.Error("error delete from redis",
			zap.String("key", key),
			zap.Error(res.Err()))
	}

	return res.Err()
}

// AppendResponse pushes one raw response onto the survey's fallback
// queue. Entries are only ever appended and read back in order.
func (c *Casher) AppendResponse(ctx context.Context, surveyID string, payload any) error {
	res := c.client.RPush(ctx, fmt.Sprintf(RESPONSE_QUEUE_TEMPLATE, surveyID), payload)

	if err := res.Err(); err != nil {
		c.logger.Error("failed to queue response",
			zap.String("survey_id", surveyID),
			zap.Error(err),
		)
		return err
	}

	return nil
}

// GetQueuedResponses reads the whole fallback queue for a survey
func (c *Casher) GetQueuedResponses(ctx context.Context, surveyID string) ([][]byte, error) {
	res := c.client.LRange(ctx, fmt.Sprintf(RESPONSE_QUEUE_TEMPLATE, surveyID), 0, -1)
	if err := res.Err(); err != nil {
		c.logger.Error("error read queued responses",
			zap.String("survey_id", surveyID),
			zap.Error(err),
		)
		return nil, err
	}

	values := res.Val()
	out := make([][]byte, len(values))
	for i, value := range values {
		out[i] = []byte(value)
	}

	return out, nil
}
