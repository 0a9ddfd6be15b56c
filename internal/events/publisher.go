// Package events streams accepted interactions to Kafka for downstream consumers.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/mmuslimabdulj/gelly-pet/internal/domain"
)

// Publisher emits interaction events
type Publisher interface {
	PublishInteraction(ctx context.Context, evt domain.InteractionEvent) error
	Close() error
}

// NewAsyncProducer dials the brokers with fire-and-forget settings
func NewAsyncProducer(brokers []string) (sarama.AsyncProducer, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.RequiredAcks = sarama.WaitForLocal
	cfg.Producer.Compression = sarama.CompressionSnappy
	cfg.Producer.Flush.Frequency = 100 * time.Millisecond
	cfg.Producer.Retry.Max = 3
	cfg.Producer.Return.Successes = false
	cfg.Producer.Return.Errors = true

	producer, err := sarama.NewAsyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	return producer, nil
}

// KafkaPublisher writes events keyed by user id so one user's events stay ordered
type KafkaPublisher struct {
	producer sarama.AsyncProducer
	topic    string
	logger   *zap.Logger
	wg       sync.WaitGroup
	once     sync.Once
}

// NewKafkaPublisher wraps producer and starts draining its error channel
func NewKafkaPublisher(producer sarama.AsyncProducer, topic string, logger *zap.Logger) *KafkaPublisher {
	p := &KafkaPublisher{
		producer: producer,
		topic:    topic,
		logger:   logger,
	}

	p.wg.Add(1)
	go p.handleErrors()

	return p
}

// PublishInteraction enqueues evt. Delivery failures are logged, not returned.
func (p *KafkaPublisher) PublishInteraction(ctx context.Context, evt domain.InteractionEvent) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("encode interaction event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(evt.UserID),
		Value: sarama.ByteEncoder(data),
	}

	select {
	case p.producer.Input() <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *KafkaPublisher) handleErrors() {
	defer p.wg.Done()
	for perr := range p.producer.Errors() {
		if perr == nil {
			continue
		}
		p.logger.Error("kafka producer error",
			zap.Error(perr.Err),
			zap.String("topic", perr.Msg.Topic),
		)
	}
}

// Close flushes pending messages and stops the error drain
func (p *KafkaPublisher) Close() error {
	var err error
	p.once.Do(func() {
		if cerr := p.producer.Close(); cerr != nil {
			err = fmt.Errorf("close kafka producer: %w", cerr)
		}
		p.wg.Wait()
	})
	return err
}

// Noop drops every event
type Noop struct{}

func (Noop) PublishInteraction(context.Context, domain.InteractionEvent) error { return nil }
func (Noop) Close() error                                                      { return nil }

var (
	_ Publisher = (*KafkaPublisher)(nil)
	_ Publisher = Noop{}
)
