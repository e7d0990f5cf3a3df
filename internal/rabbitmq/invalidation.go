package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/course-entitlement/internal/lib/sl"
)

// InvalidationEvent событие изменения данных, влияющих на доступ:
// правка списков пользователя, цены курса или подтверждение оплаты.
type InvalidationEvent struct {
	UserID   string `json:"user_id,omitempty"`
	CourseID string `json:"course_id,omitempty"`
	Reason   string `json:"reason,omitempty"`
	// All подтверждает сброс всех решений. Без идентификаторов и без All событие отбрасывается.
	All bool `json:"all,omitempty"`
}

// Invalidator сбрасывает кешированные решения.
type Invalidator interface {
	Invalidate(ctx context.Context, userID, courseID string) error
}

// NewInvalidationHandler возвращает обработчик событий инвалидации.
// Некорректные сообщения подтверждаются и отбрасываются, ошибка инвалидации возвращает сообщение в очередь.
func NewInvalidationHandler(log *slog.Logger, inv Invalidator) Handler {
	return func(ctx context.Context, body []byte) error {
		const op = "rabbitmq.InvalidationHandler"
		log := log.With(sl.Op(op))

		var ev InvalidationEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			log.Warn("dropping malformed invalidation event", sl.Err(err), slog.Int("size", len(body)))
			return nil
		}
		ev.UserID, ev.CourseID = strings.TrimSpace(ev.UserID), strings.TrimSpace(ev.CourseID)
		if ev.UserID == "" && ev.CourseID == "" && !ev.All {
			log.Warn("dropping invalidation event without target", slog.Int("size", len(body)))
			return nil
		}

		if err := inv.Invalidate(ctx, ev.UserID, ev.CourseID); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		log.Info("invalidation event applied",
			slog.String("user_id", ev.UserID),
			slog.String("course_id", ev.CourseID),
			slog.String("reason", ev.Reason),
		)
		return nil
	}
}

// PublishMessage публикует сообщение в формате JSON.
func PublishMessage(ch *amqp.Channel, exchange string, routingKey string, message any) error {
	const op = "rabbitmq.PublishMessage"
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = ch.Publish(
		exchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			MessageId:    uuid.NewString(),
			Timestamp:    time.Now().UTC(),
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// PublishInvalidation публикует событие инвалидации в обменник топологии.
func PublishInvalidation(ch *amqp.Channel, t Topology, ev InvalidationEvent) error {
	return PublishMessage(ch, t.Exchange, t.RoutingKey, ev)
}
