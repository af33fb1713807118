package rabbitmq

import (
	"encoding/json"
	"fmt"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	amqp "github.com/rabbitmq/amqp091-go"
)

type Message struct {
	ID          string     `json:"id"`
	Body        []byte     `json:"content"`
	Headers     amqp.Table `json:"headers,omitempty"`
	Timestamp   time.Time  `json:"timestamp"`
	ContentType string     `json:"content_type"`
}

// NewMessage wraps a payload. Strings and byte slices are sent as is,
// everything else as JSON.
func NewMessage(payload any, headers amqp.Table) (*Message, error) {
	gid, err := gonanoid.New()
	if err != nil {
		return nil, err
	}
	now := time.Now()

	var body []byte
	var contentType string
	switch v := payload.(type) {
	case string:
		body = []byte(v)
		contentType = "text/plain"
	case []byte:
		body = v
		contentType = "application/octet-stream"
	default:
		body, err = json.Marshal(v)
		if err != nil {
			return nil, err
		}
		contentType = "application/json"
	}

	if headers == nil {
		headers = amqp.Table{}
	}

	return &Message{
		ID:          fmt.Sprintf("msg_%s_%d", gid, now.Unix()),
		Body:        body,
		Headers:     headers,
		Timestamp:   now,
		ContentType: contentType,
	}, nil
}

func (m *Message) GeneratePayload() *amqp.Publishing {
	m.Headers["id"] = m.ID

	return &amqp.Publishing{
		ContentType:  m.ContentType,
		Body:         m.Body,
		MessageId:    m.ID,
		Timestamp:    m.Timestamp,
		DeliveryMode: amqp.Persistent,
		Headers:      m.Headers,
	}
}

// Decode unmarshals a JSON delivery body.
func Decode[T any](msg *amqp.Delivery) (*T, error) {
	var v T
	if err := json.Unmarshal(msg.Body, &v); err != nil {
		return nil, fmt.Errorf("failed to decode message %s: %w", msg.MessageId, err)
	}
	return &v, nil
}
