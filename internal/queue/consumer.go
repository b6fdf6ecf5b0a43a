package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Mailer delivers a reset code to a recipient. Implemented by the email
// service; kept as an interface so the consumer can be exercised
// without an SMTP relay.
type Mailer interface {
	IsConfigured() bool
	SendResetCode(ctx context.Context, to, name, code string) error
}

// StartResetCodeConsumer connects to RabbitMQ, declares the durable
// reset-code queue and consumes it, handing each event to the mailer.
// It runs a reconnect loop with capped backoff and keeps running for
// the life of the process; failed messages are rejected without requeue
// to avoid tight redelivery loops.
func StartResetCodeConsumer(mailer Mailer) {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(brokerURL())
		if err != nil {
			log.Printf("reset-mail-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		if err := consumeLoop(conn, mailer); err != nil {
			log.Printf("reset-mail-consumer: consume loop ended: %v; reconnecting", err)
			time.Sleep(2 * time.Second)
		}
	}
}

func consumeLoop(conn *amqp.Connection, mailer Mailer) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(resetCodeQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.Consume(resetCodeQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		if err := handleMessage(d.Body, mailer); err != nil {
			log.Printf("reset-mail-consumer: handle message failed: %v", err)
			_ = d.Nack(false, false)
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

func handleMessage(body []byte, mailer Mailer) error {
	var ev ResetCodeEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if !mailer.IsConfigured() {
		// No relay available; surface the code in the logs so support
		// can pass it along manually.
		log.Printf("reset-mail-consumer: SMTP not configured, code for %s: %s", ev.Email, ev.Code)
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := mailer.SendResetCode(ctx, ev.Email, ev.Name, ev.Code); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	log.Printf("reset-mail-consumer: reset code sent to %s", ev.Email)
	return nil
}
