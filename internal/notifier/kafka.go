package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/retailcore/order-service/internal/config"
	"github.com/retailcore/order-service/internal/entities"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/segmentio/kafka-go"
)

var notificationsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "order_service",
	Subsystem: "notifier",
	Name:      "failed_total",
	Help:      "Total number of failed notification publishes.",
}, []string{"type"})

const (
	EventOrderCreated  = "order.created"
	EventStatusChanged = "order.status_changed"
)

// Event is what the downstream mailer consumes. The core publishes it
// once, best-effort; retries belong to the consumer side.
type Event struct {
	Type           string    `json:"type"`
	OrderID        string    `json:"order_id"`
	RecipientEmail string    `json:"recipient_email"`
	RecipientName  string    `json:"recipient_name"`
	Status         string    `json:"status"`
	TotalPrice     int64     `json:"total_price"`
	OccurredAt     time.Time `json:"occurred_at"`
}

type kafkaNotifier struct {
	logger  *slog.Logger
	writer  *kafka.Writer
	timeout time.Duration
}

func NewKafkaNotifier(logger *slog.Logger, cfg config.Kafka) *kafkaNotifier {
	return &kafkaNotifier{
		logger: logger.With(slog.String("notifier", "kafka")),
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.Topic,
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: cfg.BatchTimeout,
		},
		timeout: cfg.WriteTimeout,
	}
}

func (n *kafkaNotifier) OrderCreated(ctx context.Context, order entities.Order) error {
	return n.publish(ctx, Event{
		Type:           EventOrderCreated,
		OrderID:        order.ID,
		RecipientEmail: order.Purchaser.Email,
		RecipientName:  order.Purchaser.Name,
		Status:         string(order.Status),
		TotalPrice:     order.TotalPrice,
		OccurredAt:     order.CreatedAt,
	})
}

func (n *kafkaNotifier) StatusChanged(ctx context.Context, order entities.Order) error {
	return n.publish(ctx, Event{
		Type:           EventStatusChanged,
		OrderID:        order.ID,
		RecipientEmail: order.Purchaser.Email,
		RecipientName:  order.Purchaser.Name,
		Status:         string(order.Status),
		TotalPrice:     order.TotalPrice,
		OccurredAt:     order.UpdatedAt,
	})
}

func (n *kafkaNotifier) publish(ctx context.Context, e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	err = n.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(e.OrderID),
		Value: data,
	})
	if err != nil {
		notificationsFailed.WithLabelValues(e.Type).Inc()
		return fmt.Errorf("failed to publish %s: %w", e.Type, err)
	}
	return nil
}

func (n *kafkaNotifier) Close() error {
	return n.writer.Close()
}
