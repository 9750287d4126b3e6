// Package consumer provides RabbitMQ consumer functionality for the
// request-event intake.
package consumer

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/Koyo-os/survey-service/internal/entity"
	"github.com/Koyo-os/survey-service/pkg/config"
	"github.com/Koyo-os/survey-service/pkg/logger"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	// EXCHANGE_TYPE routes messages on exact routing-key matches
	EXCHANGE_TYPE = "direct"

	DEFAULT_RECONNECT_DELAY = 5 * time.Second
)

// Consumer maintains the RabbitMQ connection, channel and bindings for
// consuming request events.
type Consumer struct {
	conn        *amqp.Connection
	channel     *amqp.Channel
	logger      *logger.Logger
	cfg         *config.Config
	exchanges   map[string]bool
	mu          sync.RWMutex
	isConnected bool
}

// Init creates and initializes a new Consumer instance
func Init(cfg *config.Config, logger *logger.Logger, conn *amqp.Connection) (*Consumer, error) {
	if cfg == nil || logger == nil || conn == nil {
		return nil, fmt.Errorf("invalid parameters: cfg, logger, and conn cannot be nil")
	}

	consumer := &Consumer{
		conn:        conn,
		logger:      logger,
		cfg:         cfg,
		exchanges:   make(map[string]bool),
		isConnected: true,
	}

	channel, err := conn.Channel()
	if err != nil {
		logger.Error("failed to open channel", zap.Error(err))
		return nil, fmt.Errorf("failed to initialize channel: %w", err)
	}
	consumer.channel = channel

	if err := consumer.declareExchange(cfg.Exchange.Request); err != nil {
		channel.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	return consumer, nil
}

func (c *Consumer) declareExchange(exchangeName string) error {
	if err := c.channel.ExchangeDeclare(
		exchangeName,
		EXCHANGE_TYPE,
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,   // arguments
	); err != nil {
		c.logger.Error("failed to declare exchange",
			zap.String("exchange", exchangeName),
			zap.Error(err))
		return err
	}

	c.mu.Lock()
	c.exchanges[exchangeName] = true
	c.mu.Unlock()

	return nil
}

// Subscribe declares a queue and binds it to an exchange with the
// specified routing key.
func (c *Consumer) Subscribe(exchange, routingKey, queueName string) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.isConnected {
		return fmt.Errorf("consumer is not connected")
	}

	if _, err := c.channel.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // autoDelete
		false,     // exclusive
		false,     // noWait
		nil,       // args
	); err != nil {
		c.logger.Error("failed to declare queue",
			zap.String("queue", queueName),
			zap.Error(err))
		return fmt.Errorf("failed to declare queue %s: %w", queueName, err)
	}

	if err := c.channel.QueueBind(
		queueName,  // queue name
		routingKey, // routing key
		exchange,   // exchange name
		false,      // noWait
		nil,        // args
	); err != nil {
		c.logger.Error("failed to bind queue to exchange",
			zap.String("queue", queueName),
			zap.String("exchange", exchange),
			zap.String("routing_key", routingKey),
			zap.Error(err))
		return fmt.Errorf("failed to bind queue %s to exchange %s: %w", queueName, exchange, err)
	}

	return nil
}

// Close gracefully closes the consumer connection and channel
func (c *Consumer) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.isConnected = false

	var errs []error

	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			c.logger.Error("error closing channel", zap.Error(err))
			errs = append(errs, fmt.Errorf("channel close error: %w", err))
		}
	}

	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			c.logger.Error("error closing connection", zap.Error(err))
			errs = append(errs, fmt.Errorf("connection close error: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during close: %v", errs)
	}

	return nil
}

// IsHealthy checks if the consumer connection is healthy
func (c *Consumer) IsHealthy() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.isConnected && c.conn != nil && !c.conn.IsClosed()
}

// ConsumeMessages consumes request events from the configured queue in
// an infinite loop, decoding each into an Event and forwarding it to
// outputChan. The connection is re-established on failure.
func (c *Consumer) ConsumeMessages(outputChan chan entity.Event) {
	if outputChan == nil {
		c.logger.Error("output channel cannot be nil")
		return
	}

	for {
		if !c.IsHealthy() {
			c.logger.Warn("connection is unhealthy, attempting to reconnect...")
			if err := c.reconnect(); err != nil {
				c.logger.Error("failed to reconnect", zap.Error(err))
				time.Sleep(DEFAULT_RECONNECT_DELAY)
				continue
			}
		}

		msgs, err := c.channel.Consume(
			c.cfg.Queue.Request, // queue
			"",                  // consumer
			true,                // auto-ack
			false,               // exclusive
			false,               // no-local
			false,               // no-wait
			nil,                 // args
		)
		if err != nil {
			c.logger.Error("failed to register consumer", zap.Error(err))
			time.Sleep(DEFAULT_RECONNECT_DELAY)
			continue
		}

		c.logger.Info("successfully connected to RabbitMQ, waiting for messages...")

		for msg := range msgs {
			var event entity.Event
			if err := json.Unmarshal(msg.Body, &event); err != nil {
				c.logger.Error("failed to unmarshal event",
					zap.Error(err),
					zap.ByteString("body", msg.Body))
				continue
			}

			c.logger.Debug("received new event",
				zap.String("event_id", event.ID),
				zap.String("routing_key", event.Type),
				zap.Time("timestamp", event.Timestamp))

			outputChan <- event
		}

		c.logger.Warn("rabbitmq channel closed, reconnecting...")
		time.Sleep(DEFAULT_RECONNECT_DELAY)
	}
}

func (c *Consumer) reconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var err error

	if c.channel != nil {
		c.channel.Close()
	}

	c.conn, err = amqp.Dial(c.cfg.Urls.Rabbitmq)
	if err != nil {
		return err
	}

	c.channel, err = c.conn.Channel()
	if err != nil {
		c.conn.Close()
		return err
	}

	for exchange := range c.exchanges {
		if err = c.channel.ExchangeDeclare(
			exchange,      // name
			EXCHANGE_TYPE, // type
			true,          // durable
			false,         // auto-deleted
			false,         // internal
			false,         // no-wait
			nil,           // arguments
		); err != nil {
			c.logger.Error("failed to redeclare exchange",
				zap.String("exchange", exchange),
				zap.Error(err))
		}
	}

	c.isConnected = true

	return nil
}
