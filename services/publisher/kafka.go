package publisher

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/dealmungchi/jobcrawler/internal/crawler"
	"github.com/dealmungchi/jobcrawler/logger"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes records to a Kafka topic, keyed by record key
type KafkaPublisher struct {
	writer messageWriter
	log    *logger.Logger
}

// NewKafkaPublisher creates a Kafka publisher for the given broker and topic
func NewKafkaPublisher(broker, topic string) *KafkaPublisher {
	return NewKafkaPublisherWithWriter(&kafka.Writer{
		Addr:                   kafka.TCP(broker),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: false,
	})
}

// NewKafkaPublisherWithWriter builds a publisher on a custom writer (tests)
func NewKafkaPublisherWithWriter(writer messageWriter) *KafkaPublisher {
	return &KafkaPublisher{writer: writer, log: logger.ForPublisher()}
}

// Publish writes one record as JSON
func (p *KafkaPublisher) Publish(ctx context.Context, record crawler.JobRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return err
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.Itoa(record.Key)),
		Value: payload,
		Time:  time.Now().UTC(),
	})
	if err != nil {
		p.log.WithError(err).Debug().Int("key", record.Key).Msg("Kafka write failed")
	}
	return err
}

// Flush is a no-op; the writer flushes synchronously
func (p *KafkaPublisher) Flush(context.Context) error {
	return nil
}

// Close shuts down the underlying writer
func (p *KafkaPublisher) Close() error {
	if err := p.writer.Close(); err != nil {
		p.log.WithError(err).Warn().Msg("Failed to close Kafka writer")
		return err
	}
	return nil
}
