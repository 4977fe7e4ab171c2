package verification

import (
	"context"
	"fmt"
	"time"

	"ticketforge/pkg/logger"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
)

// ProducerConfig contains configuration for the oracle request producer.
type ProducerConfig struct {
	Brokers          []string
	RequestTopic     string
	RetryMax         int
	TimeoutMs        int
	RequiredAcks     sarama.RequiredAcks
	CompressionType  sarama.CompressionCodec
	IdempotentWrites bool
}

// DefaultProducerConfig returns a default producer configuration.
func DefaultProducerConfig() *ProducerConfig {
	return &ProducerConfig{
		Brokers:          []string{"localhost:9092"},
		RequestTopic:     "oracle-verification-requests",
		RetryMax:         3,
		TimeoutMs:        10000,
		RequiredAcks:     sarama.WaitForAll,
		CompressionType:  sarama.CompressionSnappy,
		IdempotentWrites: true,
	}
}

// Producer publishes verification requests to the oracle topic. It
// satisfies the listing registry's dispatcher boundary.
type Producer struct {
	producer sarama.SyncProducer
	config   *ProducerConfig
}

func NewProducer(config *ProducerConfig) (*Producer, error) {
	saramaConfig := sarama.NewConfig()

	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.Return.Errors = true
	saramaConfig.Producer.RequiredAcks = config.RequiredAcks
	saramaConfig.Producer.Compression = config.CompressionType
	saramaConfig.Producer.Retry.Max = config.RetryMax
	saramaConfig.Producer.Timeout = time.Duration(config.TimeoutMs) * time.Millisecond
	saramaConfig.Producer.Idempotent = config.IdempotentWrites
	if config.IdempotentWrites {
		saramaConfig.Net.MaxOpenRequests = 1
	}

	// Hash partitioner keeps all messages for one request on one partition.
	saramaConfig.Producer.Partitioner = sarama.NewHashPartitioner

	producer, err := sarama.NewSyncProducer(config.Brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create verification producer: %w", err)
	}

	return &Producer{producer: producer, config: config}, nil
}

// RequestVerification publishes one verification request. The send is
// synchronous; an error here aborts the listing creation that asked for it.
func (p *Producer) RequestVerification(ctx context.Context, requestID, ticketID uuid.UUID) error {
	req := Request{RequestID: requestID, TicketID: ticketID}
	messageBytes, err := req.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal verification request: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: p.config.RequestTopic,
		Key:   sarama.StringEncoder(requestID.String()),
		Value: sarama.ByteEncoder(messageBytes),
	}

	partition, offset, err := p.producer.SendMessage(message)
	if err != nil {
		return fmt.Errorf("failed to publish verification request: %w", err)
	}

	logger.GetDefault().Info("Verification request published",
		"request_id", requestID.String(),
		"ticket_id", ticketID.String(),
		"partition", partition,
		"offset", offset,
	)
	return nil
}

func (p *Producer) Close() error {
	if p.producer == nil {
		return nil
	}
	if err := p.producer.Close(); err != nil {
		return fmt.Errorf("failed to close verification producer: %w", err)
	}
	return nil
}
