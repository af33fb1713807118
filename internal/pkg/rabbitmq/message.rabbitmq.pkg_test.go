package rabbitmq

import (
	"strings"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	FlowID string `json:"flowId"`
	Stage  string `json:"stage"`
}

func TestNewMessage_JSONPayload(t *testing.T) {
	msg, err := NewMessage(sample{FlowID: "f1", Stage: "SUCCEEDED"}, nil)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(msg.ID, "msg_"))
	assert.Equal(t, "application/json", msg.ContentType)
	assert.JSONEq(t, `{"flowId":"f1","stage":"SUCCEEDED"}`, string(msg.Body))

	pub := msg.GeneratePayload()
	assert.Equal(t, msg.ID, pub.MessageId)
	assert.Equal(t, msg.ID, pub.Headers["id"])
	assert.Equal(t, amqp.Persistent, pub.DeliveryMode)
}

func TestNewMessage_RawPayloads(t *testing.T) {
	msg, err := NewMessage("hello", nil)
	require.NoError(t, err)
	assert.Equal(t, "text/plain", msg.ContentType)

	msg, err = NewMessage([]byte{1, 2}, amqp.Table{"x": "y"})
	require.NoError(t, err)
	assert.Equal(t, "application/octet-stream", msg.ContentType)
	assert.Equal(t, "y", msg.Headers["x"])
}

func TestDecode(t *testing.T) {
	got, err := Decode[sample](&amqp.Delivery{Body: []byte(`{"flowId":"f2","stage":"FAILED"}`)})
	require.NoError(t, err)
	assert.Equal(t, "f2", got.FlowID)

	_, err = Decode[sample](&amqp.Delivery{Body: []byte(`{`)})
	assert.Error(t, err)
}
