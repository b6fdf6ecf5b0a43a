// Package queue moves reset-code mail delivery off the request path.
// The HTTP handler publishes an event to RabbitMQ and answers
// immediately; a background consumer picks the event up and talks to
// the SMTP relay.
package queue

// resetCodeQueueName is the durable queue carrying reset-code events.
const resetCodeQueueName = "password.reset_code"

// ResetCodeEvent is published when a user requests a password reset.
// It carries everything the mail consumer needs without querying the
// primary database.
type ResetCodeEvent struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Code  string `json:"code"`
}
