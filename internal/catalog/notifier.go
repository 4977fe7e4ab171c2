package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ticketforge/internal/issuance"
	"ticketforge/pkg/logger"

	"github.com/IBM/sarama"
)

// NotifierConfig contains configuration for the catalog notifier.
type NotifierConfig struct {
	Brokers  []string
	Topic    string
	RetryMax int
}

// DefaultNotifierConfig returns a default notifier configuration.
func DefaultNotifierConfig() *NotifierConfig {
	return &NotifierConfig{
		Brokers:  []string{"localhost:9092"},
		Topic:    "catalog-ticket-issued",
		RetryMax: 3,
	}
}

// Notifier publishes issuance notifications to the external event catalog.
// Delivery is best-effort: a broker failure is logged and swallowed so it
// can never fail a mint.
type Notifier struct {
	producer sarama.SyncProducer
	config   *NotifierConfig
}

func NewNotifier(config *NotifierConfig) (*Notifier, error) {
	saramaConfig := sarama.NewConfig()

	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.Return.Errors = true
	saramaConfig.Producer.RequiredAcks = sarama.WaitForLocal
	saramaConfig.Producer.Retry.Max = config.RetryMax
	saramaConfig.Producer.Timeout = 5 * time.Second
	saramaConfig.Producer.Partitioner = sarama.NewHashPartitioner

	producer, err := sarama.NewSyncProducer(config.Brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create catalog notifier: %w", err)
	}

	return &Notifier{producer: producer, config: config}, nil
}

// TicketIssued publishes one issuance notification keyed by contract so the
// catalog sees each contract's mints in order.
func (n *Notifier) TicketIssued(ctx context.Context, notification issuance.CatalogNotification) {
	messageBytes, err := json.Marshal(notification)
	if err != nil {
		logger.GetDefault().Error("Failed to marshal catalog notification", "error", err.Error())
		return
	}

	message := &sarama.ProducerMessage{
		Topic: n.config.Topic,
		Key:   sarama.StringEncoder(notification.ContractAddr),
		Value: sarama.ByteEncoder(messageBytes),
	}

	if _, _, err := n.producer.SendMessage(message); err != nil {
		logger.GetDefault().Error("Failed to publish catalog notification",
			"contract_addr", notification.ContractAddr,
			"token_id", notification.TokenID,
			"error", err.Error(),
		)
		return
	}

	logger.GetDefault().Debug("Catalog notification published",
		"contract_addr", notification.ContractAddr,
		"token_id", notification.TokenID,
		"recipient", notification.Recipient,
	)
}

func (n *Notifier) Close() error {
	if n.producer == nil {
		return nil
	}
	if err := n.producer.Close(); err != nil {
		return fmt.Errorf("failed to close catalog notifier: %w", err)
	}
	return nil
}
