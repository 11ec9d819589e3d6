package kafka

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/gronit/club-portal/pkg/config"
	"github.com/twmb/franz-go/pkg/kgo"
)

// ProducerConfig holds producer settings
type ProducerConfig struct {
	Brokers      []string
	ClientID     string
	DefaultTopic string
	Linger       time.Duration
}

// ProducerConfigFrom maps application config onto producer settings
func ProducerConfigFrom(c config.KafkaConfig) *ProducerConfig {
	return &ProducerConfig{
		Brokers:      c.Brokers,
		ClientID:     c.ClientID,
		DefaultTopic: c.ContentTopic,
		Linger:       10 * time.Millisecond,
	}
}

// Producer publishes records synchronously through franz-go
type Producer struct {
	client *kgo.Client
	topic  string
}

// NewProducer creates a producer and verifies at least one broker answers
func NewProducer(ctx context.Context, cfg *ProducerConfig) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka: no brokers configured")
	}

	opts := []kgo.Opt{
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ClientID(cfg.ClientID),
		kgo.AllowAutoTopicCreation(),
		kgo.RequiredAcks(kgo.AllISRAcks()),
	}
	if cfg.DefaultTopic != "" {
		opts = append(opts, kgo.DefaultProduceTopic(cfg.DefaultTopic))
	}
	if cfg.Linger > 0 {
		opts = append(opts, kgo.ProducerLinger(cfg.Linger))
	}

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("kafka: create client: %w", err)
	}
	if err := client.Ping(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("kafka: ping brokers: %w", err)
	}

	return &Producer{client: client, topic: cfg.DefaultTopic}, nil
}

// Publish writes one record and waits for the broker ack. An empty topic uses the default topic.
func (p *Producer) Publish(ctx context.Context, topic, key string, value []byte, headers map[string]string) error {
	record := BuildRecord(topic, key, value, headers)
	if record.Topic == "" {
		record.Topic = p.topic
	}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("kafka: produce to %s: %w", record.Topic, err)
	}
	return nil
}

// BuildRecord assembles a record with headers in a stable order
func BuildRecord(topic, key string, value []byte, headers map[string]string) *kgo.Record {
	record := &kgo.Record{
		Topic: topic,
		Key:   []byte(key),
		Value: value,
	}

	names := make([]string, 0, len(headers))
	for k := range headers {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		record.Headers = append(record.Headers, kgo.RecordHeader{Key: k, Value: []byte(headers[k])})
	}
	return record
}

// HealthCheck pings the brokers
func (p *Producer) HealthCheck(ctx context.Context) error {
	return p.client.Ping(ctx)
}

// Close flushes buffered records and closes the client
func (p *Producer) Close(ctx context.Context) error {
	err := p.client.Flush(ctx)
	p.client.Close()
	return err
}
