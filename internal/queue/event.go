// Package queue defines the seat change messages exchanged over RabbitMQ
// together with their publisher and the log-writing consumer.
package queue

// SeatsQueueName is the durable queue seat change events are routed to.
const SeatsQueueName = "seats.changed"

// SeatChangedEvent is published after a transaction that changed seat
// statuses has committed.  It carries enough for downstream consumers to
// log or update a read model without querying the primary database.
// Seats is empty when the change covers the whole event (reset).
type SeatChangedEvent struct {
	MessageID  string   `json:"message_id"`
	EventID    int64    `json:"event_id"`
	Op         string   `json:"op"`
	Seats      []string `json:"seats"`
	Status     string   `json:"status"`
	OccurredAt string   `json:"occurred_at"`
}
