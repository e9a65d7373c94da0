package rabbitmq

import amqp "github.com/rabbitmq/amqp091-go"

type Consumer interface {
	Consume(queue string) (<-chan amqp.Delivery, error)
}
