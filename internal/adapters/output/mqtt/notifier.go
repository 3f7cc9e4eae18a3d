// Package mqtt publishes persistent notifications as retained MQTT messages.
package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hue-bridge-integration/internal/config"
	"hue-bridge-integration/internal/domain/model"
	"strings"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

const (
	connectTimeout    = 10 * time.Second
	disconnectQuiesce = 250 // milliseconds
)

var (
	ErrConnectionFailed = errors.New("mqtt: connection failed")
	ErrPublishFailed    = errors.New("mqtt: publish failed")
)

type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) pahomqtt.Token
}

// Notifier writes each notification to <prefix>/notifications/<id>. A newer
// notification with the same id replaces the retained one.
type Notifier struct {
	client     publisher
	prefix     string
	qos        byte
	disconnect func()
}

// Connect dials the broker described by cfg.
func Connect(cfg config.MQTTConfig) (*Notifier, error) {
	opts := pahomqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectTimeout(connectTimeout)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	client := pahomqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("%w: timeout after %v", ErrConnectionFailed, connectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	n := NewNotifier(client, cfg.TopicPrefix, byte(cfg.QoS))
	n.disconnect = func() { client.Disconnect(disconnectQuiesce) }
	return n, nil
}

func NewNotifier(client publisher, prefix string, qos byte) *Notifier {
	return &Notifier{
		client: client,
		prefix: strings.TrimSuffix(prefix, "/"),
		qos:    qos,
	}
}

func (n *Notifier) Topic(id string) string {
	return n.prefix + "/notifications/" + id
}

func (n *Notifier) Create(ctx context.Context, notification model.Notification) error {
	payload, err := json.Marshal(notification)
	if err != nil {
		return err
	}

	return n.publish(ctx, n.Topic(notification.ID), payload)
}

func (n *Notifier) publish(ctx context.Context, topic string, payload []byte) error {
	token := n.client.Publish(topic, n.qos, true, payload)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", ErrPublishFailed, ctx.Err())
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}
	return nil
}

// Dismiss clears the retained message of the notification.
func (n *Notifier) Dismiss(ctx context.Context, id string) error {
	return n.publish(ctx, n.Topic(id), []byte{})
}

func (n *Notifier) Close() {
	if n.disconnect != nil {
		n.disconnect()
	}
}
