package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"hue-bridge-integration/internal/domain/model"
	"testing"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeToken struct {
	done chan struct{}
	err  error
}

func newToken(err error, finished bool) *fakeToken {
	t := &fakeToken{done: make(chan struct{}), err: err}
	if finished {
		close(t.done)
	}
	return t
}

func (t *fakeToken) Wait() bool                     { <-t.done; return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Done() <-chan struct{}          { return t.done }
func (t *fakeToken) Error() error                   { return t.err }

type published struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

type fakeClient struct {
	token pahomqtt.Token
	sent  []published
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) pahomqtt.Token {
	c.sent = append(c.sent, published{topic, qos, retained, payload.([]byte)})
	return c.token
}

func TestNotifier_Create(t *testing.T) {
	client := &fakeClient{token: newToken(nil, true)}
	n := NewNotifier(client, "home/hue/", 1)

	err := n.Create(context.Background(), model.Notification{ID: "hue_hub_firmware", Title: "Signify Hue", Message: "update"})
	require.NoError(t, err)

	require.Len(t, client.sent, 1)
	msg := client.sent[0]
	assert.Equal(t, "home/hue/notifications/hue_hub_firmware", msg.topic)
	assert.Equal(t, byte(1), msg.qos)
	assert.True(t, msg.retained)

	var got model.Notification
	require.NoError(t, json.Unmarshal(msg.payload, &got))
	assert.Equal(t, "Signify Hue", got.Title)
}

func TestNotifier_PublishError(t *testing.T) {
	n := NewNotifier(&fakeClient{token: newToken(errors.New("not connected"), true)}, "hue", 0)
	err := n.Create(context.Background(), model.Notification{ID: "x"})
	assert.ErrorIs(t, err, ErrPublishFailed)
}

func TestNotifier_ContextCancelled(t *testing.T) {
	n := NewNotifier(&fakeClient{token: newToken(nil, false)}, "hue", 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := n.Create(ctx, model.Notification{ID: "x"})
	assert.ErrorIs(t, err, context.Canceled)
	n.Close()
}

func TestNotifier_DismissClearsRetainedMessage(t *testing.T) {
	client := &fakeClient{token: newToken(nil, true)}
	n := NewNotifier(client, "hue", 1)

	require.NoError(t, n.Dismiss(context.Background(), "hue_hub_firmware"))

	require.Len(t, client.sent, 1)
	assert.Equal(t, "hue/notifications/hue_hub_firmware", client.sent[0].topic)
	assert.True(t, client.sent[0].retained)
	assert.Empty(t, client.sent[0].payload)
}
