package events

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/booktag/internal/logging"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testEvent = VerificationCodeIssued{
	UserID:    "u-1",
	Email:     "alice@example.com",
	Code:      "004217",
	ExpiresAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
}

func TestLogPublisher_LogsWithoutCode(t *testing.T) {
	var buf bytes.Buffer
	p := NewLogPublisher(logging.NewJSONLogger(&buf, slog.LevelInfo))

	require.NoError(t, p.PublishVerificationCodeIssued(context.Background(), testEvent))
	require.NoError(t, p.Close())

	out := buf.String()
	assert.Contains(t, out, "verification code issued")
	assert.Contains(t, out, RoutingKeyVerificationCodeIssued)
	assert.Contains(t, out, "alice@example.com")
	assert.False(t, strings.Contains(out, "004217"))
}

func TestNewPublishing_JSONBody(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	msg, err := newPublishing(testEvent, now)
	require.NoError(t, err)

	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)
	assert.Equal(t, now, msg.Timestamp)

	var got map[string]any
	require.NoError(t, json.Unmarshal(msg.Body, &got))
	assert.Equal(t, "u-1", got["user_id"])
	assert.Equal(t, "alice@example.com", got["email"])
	assert.Equal(t, "004217", got["code"])
	assert.Equal(t, "2026-01-02T03:04:05Z", got["expires_at"])
}

// --- fakes ---

type fakeConn struct{ closed bool }

func (c *fakeConn) IsClosed() bool { return c.closed }
func (c *fakeConn) Close() error   { c.closed = true; return nil }

type fakeChannel struct {
	publishErr error
	onPublish  func()

	exchange string
	key      string
	msg      amqp.Publishing
	closed   bool
}

func (c *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	c.exchange, c.key, c.msg = exchange, key, msg
	if c.publishErr != nil {
		return c.publishErr
	}
	if c.onPublish != nil {
		c.onPublish()
	}
	return nil
}

func (c *fakeChannel) Close() error { c.closed = true; return nil }

func newFakePublisher(ch *fakeChannel) (*RabbitPublisher, chan amqp.Confirmation, chan amqp.Return) {
	confirms := make(chan amqp.Confirmation, 1)
	returns := make(chan amqp.Return, 1)
	return &RabbitPublisher{
		exchange:  DefaultExchange,
		conn:      &fakeConn{},
		ch:        ch,
		confirmCh: confirms,
		returnCh:  returns,
	}, confirms, returns
}

func TestRabbitPublisher_Publish_Ack(t *testing.T) {
	ch := &fakeChannel{}
	p, confirms, _ := newFakePublisher(ch)
	ch.onPublish = func() { confirms <- amqp.Confirmation{DeliveryTag: 1, Ack: true} }

	require.NoError(t, p.PublishVerificationCodeIssued(context.Background(), testEvent))
	assert.Equal(t, DefaultExchange, ch.exchange)
	assert.Equal(t, RoutingKeyVerificationCodeIssued, ch.key)
	assert.Contains(t, string(ch.msg.Body), `"user_id":"u-1"`)
}

func TestRabbitPublisher_Publish_Nack(t *testing.T) {
	ch := &fakeChannel{}
	p, confirms, _ := newFakePublisher(ch)
	ch.onPublish = func() { confirms <- amqp.Confirmation{DeliveryTag: 7, Ack: false} }

	err := p.PublishVerificationCodeIssued(context.Background(), testEvent)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nack")
}

func TestRabbitPublisher_Publish_Unroutable(t *testing.T) {
	ch := &fakeChannel{}
	p, confirms, returns := newFakePublisher(ch)
	ch.onPublish = func() {
		returns <- amqp.Return{ReplyCode: 312, ReplyText: "NO_ROUTE"}
		confirms <- amqp.Confirmation{DeliveryTag: 1, Ack: true}
	}

	err := p.PublishVerificationCodeIssued(context.Background(), testEvent)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unroutable")
}

func TestRabbitPublisher_Publish_ChannelErrorResetsConnection(t *testing.T) {
	ch := &fakeChannel{publishErr: errors.New("channel closed")}
	p, _, _ := newFakePublisher(ch)
	conn := p.conn.(*fakeConn)

	err := p.PublishVerificationCodeIssued(context.Background(), testEvent)
	require.Error(t, err)
	assert.True(t, ch.closed)
	assert.True(t, conn.closed)
	assert.Nil(t, p.ch)
	assert.Nil(t, p.conn)
}

func TestRabbitPublisher_Publish_ContextCancelled(t *testing.T) {
	ch := &fakeChannel{}
	p, _, _ := newFakePublisher(ch)

	ctx, cancel := context.WithCancel(context.Background())
	ch.onPublish = cancel

	err := p.PublishVerificationCodeIssued(ctx, testEvent)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRabbitPublisher_ReconnectFailure(t *testing.T) {
	orig := dialAMQP
	t.Cleanup(func() { dialAMQP = orig })
	dialAMQP = func(string) (*amqp.Connection, error) { return nil, errors.New("refused") }

	_, err := NewRabbitPublisher("amqp://nowhere")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rabbitmq dial")

	ch := &fakeChannel{}
	p, _, _ := newFakePublisher(ch)
	p.conn.(*fakeConn).closed = true

	err = p.PublishVerificationCodeIssued(context.Background(), testEvent)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refused")
}

func TestRabbitPublisher_Close(t *testing.T) {
	ch := &fakeChannel{}
	p, _, _ := newFakePublisher(ch)
	require.NoError(t, p.Close())
	assert.True(t, ch.closed)
}
