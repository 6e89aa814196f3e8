package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/holister/holister-api/internal/model"
	"github.com/holister/holister-api/internal/repository"
)

const (
	notificationQueue = "notifications"
	dlxExchange       = "notifications.dlx"
	dlqQueueName      = "notifications.dlq"
	idempotencyTTL    = 24 * time.Hour
)

// NotificationWorker consumes order-placed and password-reset events and
// delivers the corresponding emails. Deliveries are deduplicated through
// Redis so a redelivered message never emails twice.
type NotificationWorker struct {
	channel     *amqp.Channel
	orderRepo   repository.OrderRepository
	mailer      Mailer
	redisClient *redis.Client
	log         *slog.Logger
	done        chan struct{}
}

// Mailer sends the actual emails. The default implementation only logs;
// wiring a real provider is a deployment concern.
type Mailer interface {
	SendOrderConfirmation(ctx context.Context, email string, order *model.Order) error
	SendPasswordReset(ctx context.Context, email, token string) error
}

func NewNotificationWorker(
	ch *amqp.Channel,
	orderRepo repository.OrderRepository,
	mailer Mailer,
	redisClient *redis.Client,
	log *slog.Logger,
) *NotificationWorker {
	return &NotificationWorker{
		channel:     ch,
		orderRepo:   orderRepo,
		mailer:      mailer,
		redisClient: redisClient,
		log:         log,
		done:        make(chan struct{}),
	}
}

// SetupRabbitMQ declares exchanges, queues, and bindings (DLX/DLQ).
func SetupRabbitMQ(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(dlxExchange, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare DLX: %w", err)
	}
	if _, err := ch.QueueDeclare(dlqQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare DLQ: %w", err)
	}
	if err := ch.QueueBind(dlqQueueName, notificationQueue, dlxExchange, false, nil); err != nil {
		return fmt.Errorf("bind DLQ: %w", err)
	}
	if _, err := ch.QueueDeclare(notificationQueue, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange":    dlxExchange,
		"x-dead-letter-routing-key": notificationQueue,
	}); err != nil {
		return fmt.Errorf("declare notification queue: %w", err)
	}
	if err := ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("set QoS: %w", err)
	}
	return nil
}

func (w *NotificationWorker) Start(ctx context.Context) error {
	msgs, err := w.channel.Consume(notificationQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	go func() {
		for {
			select {
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				w.processMessage(ctx, msg)
			case <-w.done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	w.log.Info("notification worker started")
	return nil
}

func (w *NotificationWorker) Stop() { close(w.done) }

func (w *NotificationWorker) processMessage(ctx context.Context, msg amqp.Delivery) {
	var notification model.NotificationMessage
	if err := json.Unmarshal(msg.Body, &notification); err != nil {
		w.log.Error("unmarshal notification", "error", err)
		_ = msg.Nack(false, false)
		return
	}

	log := w.log.With("type", notification.Type, "user_id", notification.UserID)

	exists, err := w.redisClient.Exists(ctx, w.idempotencyKey(notification)).Result()
	if err != nil {
		log.Error("check idempotency key", "error", err)
		_ = msg.Nack(false, true)
		return
	}
	if exists > 0 {
		log.Info("notification already sent, skipping")
		_ = msg.Ack(false)
		return
	}

	if err := w.deliver(ctx, notification); err != nil {
		log.Error("deliver notification failed", "error", err)
		_ = msg.Nack(false, false) // to DLQ
		return
	}

	if err := w.redisClient.Set(ctx, w.idempotencyKey(notification), "1", idempotencyTTL).Err(); err != nil {
		log.Error("set idempotency key", "error", err)
	}

	_ = msg.Ack(false)
	log.Info("notification delivered")
}

func (w *NotificationWorker) deliver(ctx context.Context, n model.NotificationMessage) error {
	switch n.Type {
	case model.NotificationOrderPlaced:
		order, err := w.orderRepo.GetByID(ctx, n.OrderID)
		if err != nil {
			return fmt.Errorf("get order: %w", err)
		}
		if order == nil {
			return fmt.Errorf("order not found: %s", n.OrderID)
		}
		return w.mailer.SendOrderConfirmation(ctx, n.Email, order)
	case model.NotificationPasswordReset:
		return w.mailer.SendPasswordReset(ctx, n.Email, n.Token)
	default:
		return fmt.Errorf("unknown notification type: %s", n.Type)
	}
}

func (w *NotificationWorker) idempotencyKey(n model.NotificationMessage) string {
	if n.Type == model.NotificationOrderPlaced {
		return "notified:" + string(n.Type) + ":" + n.OrderID.String()
	}
	return "notified:" + string(n.Type) + ":" + n.UserID.String() + ":" + n.Token
}

// LogMailer writes notifications to the log instead of sending mail.
type LogMailer struct {
	Log *slog.Logger
}

func (m *LogMailer) SendOrderConfirmation(_ context.Context, email string, order *model.Order) error {
	m.Log.Info("order confirmation email",
		"to", email, "order_number", order.OrderNumber, "total", order.TotalAmount.StringFixed(2))
	return nil
}

func (m *LogMailer) SendPasswordReset(_ context.Context, email, token string) error {
	m.Log.Info("password reset email", "to", email, "token", token)
	return nil
}
