package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/angelmondragon/tally-backend/pkg/config"
	"github.com/angelmondragon/tally-backend/pkg/outbox/registry"
)

const brokerDialTimeout = 5 * time.Second

// kafkaProducer writes outbox messages to whichever topic each message names.
type kafkaProducer struct {
	writer  *kafka.Writer
	brokers []string
	dialer  *kafka.Dialer
}

func newKafkaProducer(cfg config.KafkaConfig, batchSize int) (*kafkaProducer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("at least one kafka broker is required")
	}
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	writeTimeout := cfg.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = defaultPublishTimeout
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		BatchSize:              batchSize,
		BatchTimeout:           10 * time.Millisecond,
		WriteTimeout:           writeTimeout,
		AllowAutoTopicCreation: false,
	}

	return &kafkaProducer{
		writer:  writer,
		brokers: cfg.Brokers,
		dialer:  &kafka.Dialer{Timeout: brokerDialTimeout},
	}, nil
}

func (p *kafkaProducer) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	return p.writer.WriteMessages(ctx, msgs...)
}

// Ping succeeds as soon as one broker accepts a connection.
func (p *kafkaProducer) Ping(ctx context.Context) error {
	var lastErr error
	for _, broker := range p.brokers {
		conn, err := p.dialer.DialContext(ctx, "tcp", broker)
		if err != nil {
			lastErr = err
			continue
		}
		return conn.Close()
	}
	return fmt.Errorf("no kafka broker reachable: %w", lastErr)
}

func (p *kafkaProducer) Close() error {
	return p.writer.Close()
}

// classifyPublishError marks broker errors that will fail the same way on
// every retry as non-retryable.
func classifyPublishError(err error) error {
	if err == nil {
		return nil
	}
	var kafkaErr kafka.Error
	if errors.As(err, &kafkaErr) && !kafkaErr.Temporary() {
		return registry.NewNonRetryableError(err)
	}
	return err
}
