package producer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"

	"github.com/wodoo-app/subscription-service/internal/domain"
	"github.com/wodoo-app/subscription-service/pkg/logger"
)

const (
	TopicSubscriptionActivated = "subscription.activated"
	TopicSubscriptionRenewed   = "subscription.renewed"
	TopicSubscriptionExpired   = "subscription.expired"
	TopicSubscriptionCancelled = "subscription.cancelled"
	TopicPaymentFailed         = "payment.failed"
)

// LifecycleEvent represents a subscription lifecycle change for Kafka
type LifecycleEvent struct {
	UserID    string                    `json:"user_id"`
	Plan      domain.SubscriptionPlan   `json:"plan,omitempty"`
	Status    domain.SubscriptionStatus `json:"status,omitempty"`
	PaymentID string                    `json:"payment_id,omitempty"`
	Amount    float64                   `json:"amount,omitempty"`
	Reason    string                    `json:"reason,omitempty"`
	Timestamp time.Time                 `json:"timestamp"`
}

// LifecycleProducer publishes subscription lifecycle events
type LifecycleProducer interface {
	PublishActivated(ctx context.Context, userID string, sub domain.Subscription) error
	PublishRenewed(ctx context.Context, userID string, sub domain.Subscription) error
	PublishExpired(ctx context.Context, userID string, sub domain.Subscription) error
	PublishCancelled(ctx context.Context, userID string, sub domain.Subscription, reason string) error
	PublishPaymentFailed(ctx context.Context, userID string, plan domain.SubscriptionPlan, reason string) error
	Close() error
}

type kafkaLifecycleProducer struct {
	producer sarama.SyncProducer
	log      *logger.Logger
}

// NewKafkaLifecycleProducer creates a new lifecycle event producer
func NewKafkaLifecycleProducer(producer sarama.SyncProducer, log *logger.Logger) LifecycleProducer {
	return &kafkaLifecycleProducer{
		producer: producer,
		log:      log,
	}
}

// PublishActivated publishes a subscription activation event
func (p *kafkaLifecycleProducer) PublishActivated(ctx context.Context, userID string, sub domain.Subscription) error {
	return p.publishEvent(ctx, TopicSubscriptionActivated, LifecycleEvent{
		UserID:    userID,
		Plan:      sub.Plan,
		Status:    sub.Status,
		PaymentID: sub.PaymentID,
		Amount:    domain.PlanAmount(sub.Plan),
		Timestamp: time.Now(),
	})
}

// PublishRenewed publishes a subscription renewal event
func (p *kafkaLifecycleProducer) PublishRenewed(ctx context.Context, userID string, sub domain.Subscription) error {
	return p.publishEvent(ctx, TopicSubscriptionRenewed, LifecycleEvent{
		UserID:    userID,
		Plan:      sub.Plan,
		Status:    sub.Status,
		PaymentID: sub.PaymentID,
		Amount:    domain.PlanAmount(sub.Plan),
		Timestamp: time.Now(),
	})
}

// PublishExpired publishes a subscription expiry event
func (p *kafkaLifecycleProducer) PublishExpired(ctx context.Context, userID string, sub domain.Subscription) error {
	return p.publishEvent(ctx, TopicSubscriptionExpired, LifecycleEvent{
		UserID:    userID,
		Plan:      sub.Plan,
		Status:    sub.Status,
		Timestamp: time.Now(),
	})
}

// PublishCancelled publishes a subscription cancellation event
func (p *kafkaLifecycleProducer) PublishCancelled(ctx context.Context, userID string, sub domain.Subscription, reason string) error {
	return p.publishEvent(ctx, TopicSubscriptionCancelled, LifecycleEvent{
		UserID:    userID,
		Plan:      sub.Plan,
		Status:    sub.Status,
		Reason:    reason,
		Timestamp: time.Now(),
	})
}

// PublishPaymentFailed publishes a failed charge event
func (p *kafkaLifecycleProducer) PublishPaymentFailed(ctx context.Context, userID string, plan domain.SubscriptionPlan, reason string) error {
	return p.publishEvent(ctx, TopicPaymentFailed, LifecycleEvent{
		UserID:    userID,
		Plan:      plan,
		Reason:    reason,
		Timestamp: time.Now(),
	})
}

// publishEvent publishes one lifecycle event to Kafka.
// Messages are keyed by user so ordering holds per user.
func (p *kafkaLifecycleProducer) publishEvent(ctx context.Context, topic string, event LifecycleEvent) error {
	messageValue, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal lifecycle event: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(event.UserID),
		Value: sarama.ByteEncoder(messageValue),
		Headers: []sarama.RecordHeader{
			{
				Key:   []byte("event_type"),
				Value: []byte(topic),
			},
		},
		Timestamp: time.Now(),
	}

	partition, offset, err := p.producer.SendMessage(message)
	if err != nil {
		return fmt.Errorf("failed to publish lifecycle event: %w", err)
	}

	p.log.Info("Published lifecycle event to topic %s: partition=%d offset=%d",
		topic, partition, offset)

	return nil
}

// Close closes the underlying producer
func (p *kafkaLifecycleProducer) Close() error {
	return p.producer.Close()
}

// NopLifecycleProducer drops all events. Used when Kafka is not configured.
type NopLifecycleProducer struct{}

func (NopLifecycleProducer) PublishActivated(context.Context, string, domain.Subscription) error {
	return nil
}

func (NopLifecycleProducer) PublishRenewed(context.Context, string, domain.Subscription) error {
	return nil
}

func (NopLifecycleProducer) PublishExpired(context.Context, string, domain.Subscription) error {
	return nil
}

func (NopLifecycleProducer) PublishCancelled(context.Context, string, domain.Subscription, string) error {
	return nil
}

func (NopLifecycleProducer) PublishPaymentFailed(context.Context, string, domain.SubscriptionPlan, string) error {
	return nil
}

func (NopLifecycleProducer) Close() error { return nil }
