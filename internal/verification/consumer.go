package verification

import (
	"context"
	"fmt"
	"time"

	"ticketforge/pkg/logger"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
)

// ResultHandler applies a decoded oracle result. The listing registry
// satisfies this; duplicate deliveries are no-ops on its side.
type ResultHandler interface {
	OnVerificationResult(ctx context.Context, requestID uuid.UUID, success bool, payload int64) error
}

// ConsumerConfig contains configuration for the oracle result consumer.
type ConsumerConfig struct {
	Brokers          []string
	GroupID          string
	ResultTopic      string
	SessionTimeoutMs int
	HeartbeatMs      int
	OffsetOldest     bool
}

// DefaultConsumerConfig returns a default consumer configuration.
func DefaultConsumerConfig() *ConsumerConfig {
	return &ConsumerConfig{
		Brokers:          []string{"localhost:9092"},
		GroupID:          "ticketforge-verification",
		ResultTopic:      "oracle-verification-results",
		SessionTimeoutMs: 30000,
		HeartbeatMs:      3000,
		OffsetOldest:     true,
	}
}

// Consumer reads oracle results from Kafka and feeds them to the registry.
type Consumer struct {
	consumerGroup sarama.ConsumerGroup
	config        *ConsumerConfig
	handler       ResultHandler
	cancel        context.CancelFunc
	done          chan struct{}
}

func NewConsumer(config *ConsumerConfig, handler ResultHandler) (*Consumer, error) {
	saramaConfig := sarama.NewConfig()

	saramaConfig.Consumer.Group.Session.Timeout = time.Duration(config.SessionTimeoutMs) * time.Millisecond
	saramaConfig.Consumer.Group.Heartbeat.Interval = time.Duration(config.HeartbeatMs) * time.Millisecond
	saramaConfig.Consumer.Return.Errors = true
	saramaConfig.Consumer.Offsets.AutoCommit.Enable = true
	saramaConfig.Consumer.Offsets.AutoCommit.Interval = time.Second

	if config.OffsetOldest {
		saramaConfig.Consumer.Offsets.Initial = sarama.OffsetOldest
	} else {
		saramaConfig.Consumer.Offsets.Initial = sarama.OffsetNewest
	}

	consumerGroup, err := sarama.NewConsumerGroup(config.Brokers, config.GroupID, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create verification consumer group: %w", err)
	}

	return &Consumer{
		consumerGroup: consumerGroup,
		config:        config,
		handler:       handler,
		done:          make(chan struct{}),
	}, nil
}

// Start runs the consume loop until Stop is called.
func (c *Consumer) Start(ctx context.Context) {
	ctx, c.cancel = context.WithCancel(ctx)

	go c.handleErrors()
	go func() {
		defer close(c.done)
		handler := &resultGroupHandler{handler: c.handler}
		for {
			select {
			case <-ctx.Done():
				return
			default:
				if err := c.consumerGroup.Consume(ctx, []string{c.config.ResultTopic}, handler); err != nil {
					logger.GetDefault().Error("Verification consumer error", "error", err.Error())
					time.Sleep(time.Second)
				}
			}
		}
	}()
}

func (c *Consumer) handleErrors() {
	for err := range c.consumerGroup.Errors() {
		logger.GetDefault().Error("Verification consumer group error", "error", err.Error())
	}
}

// Stop cancels the consume loop and closes the group.
func (c *Consumer) Stop() error {
	if c.cancel != nil {
		c.cancel()
		<-c.done
	}
	if err := c.consumerGroup.Close(); err != nil {
		return fmt.Errorf("failed to close verification consumer group: %w", err)
	}
	return nil
}

type resultGroupHandler struct {
	handler ResultHandler
}

func (h *resultGroupHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *resultGroupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *resultGroupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message := <-claim.Messages():
			if message == nil {
				return nil
			}
			if err := h.processMessage(session.Context(), message); err != nil {
				logger.GetDefault().Error("Failed to process verification result",
					"topic", message.Topic,
					"partition", message.Partition,
					"offset", message.Offset,
					"error", err.Error(),
				)
			}
			// Mark regardless: a malformed or unknown-id result will never
			// become processable, and resolved listings ignore duplicates.
			session.MarkMessage(message, "")

		case <-session.Context().Done():
			return nil
		}
	}
}

func (h *resultGroupHandler) processMessage(ctx context.Context, message *sarama.ConsumerMessage) error {
	result, err := decodeResult(message.Value)
	if err != nil {
		return fmt.Errorf("failed to decode verification result: %w", err)
	}
	return h.handler.OnVerificationResult(ctx, result.RequestID, result.Success, result.Payload)
}
