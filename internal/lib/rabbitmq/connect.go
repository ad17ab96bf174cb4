// Package rabbitmq подключение к RabbitMQ и публикация уведомлений администраторам.
package rabbitmq

import (
	"fmt"
	"time"

	"github.com/streadway/amqp"
)

const (
	// Exchange обменник уведомлений.
	Exchange = "notifications"
	// AdminRoutingKey ключ маршрутизации уведомлений администраторам.
	AdminRoutingKey = "admin"
	// AdminQueue очередь уведомлений администраторам.
	AdminQueue = "notifications.admin"
)

// Connect подключается к RabbitMQ, делая не более retries попыток.
func Connect(connection string, retries int, delay time.Duration) (*amqp.Connection, error) {
	const op = "rabbitmq.Connect"
	var conn *amqp.Connection
	var err error

	for attempt := 0; attempt < max(retries, 1); attempt++ {
		conn, err = amqp.Dial(connection)
		if err == nil {
			return conn, nil
		}
		time.Sleep(delay)
	}

	return nil, fmt.Errorf("%s: %w", op, err)
}

// Declarer часть amqp.Channel, объявляющая топологию.
type Declarer interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
	Close() error
}

// SetupChannel открывает канал и объявляет обменник и очередь уведомлений администраторам.
func SetupChannel(conn *amqp.Connection) (*amqp.Channel, error) {
	const op = "rabbitmq.SetupChannel"
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := declareTopology(ch); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return ch, nil
}

// declareTopology объявляет обменник, очередь и привязку. При ошибке канал закрывается.
func declareTopology(ch Declarer) error {
	err := ch.ExchangeDeclare(
		Exchange,
		"direct",
		true,
		false,
		false,
		false,
		nil,
	)
	if err == nil {
		_, err = ch.QueueDeclare(
			AdminQueue,
			true,
			false,
			false,
			false,
			nil,
		)
	}
	if err == nil {
		err = ch.QueueBind(AdminQueue, AdminRoutingKey, Exchange, false, nil)
	}
	if err != nil {
		_ = ch.Close()
		return err
	}
	return nil
}
