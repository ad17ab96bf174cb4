package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/streadway/amqp"
)

// Channel часть *amqp.Channel, нужная для публикации.
type Channel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// PublishMessage публикует message в JSON.
func PublishMessage(ch Channel, exchange string, routingkey string, message any) error {
	const op = "rabbitmq.PublishMessage"
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = ch.Publish(
		exchange,
		routingkey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// RetryPolicy ограничивает повторные попытки публикации.
// Задержка удваивается после каждой неудачной попытки.
type RetryPolicy struct {
	MaxAttempts  int
	InitialDelay time.Duration
}

// PublishWithRetry публикует message, делая не более policy.MaxAttempts попыток.
func PublishWithRetry(ctx context.Context, ch Channel, policy RetryPolicy, exchange, routingkey string, message any) error {
	const op = "rabbitmq.PublishWithRetry"
	delay := policy.InitialDelay
	attempts := max(policy.MaxAttempts, 1)

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = PublishMessage(ch, exchange, routingkey, message); err == nil {
			return nil
		}
		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%s: %w", op, ctx.Err())
		case <-time.After(delay):
		}
		delay *= 2
	}
	return fmt.Errorf("%s: gave up after %d attempts: %w", op, attempts, err)
}
