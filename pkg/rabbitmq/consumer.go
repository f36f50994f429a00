package rabbitmq

import (
	"context"
	"fmt"
	"strings"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

// Handler processes one delivery. topic is the concrete topic the message
// arrived on, not the subscription filter.
type Handler func(topic string, message mqtt.Message) error

type IConsumer interface {
	ConsumeMessage(ctx context.Context) error
	SetHandler(handler Handler)
}

// Consumer subscribes one topic filter on a shared client.
type Consumer struct {
	client  mqtt.Client
	handler Handler
	topic   string
	log     *zap.Logger
}

func NewConsumer(client mqtt.Client, topic string, handler Handler, log *zap.Logger) *Consumer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Consumer{client: client, topic: topic, handler: handler, log: log}
}

func (c *Consumer) SetHandler(handler Handler) {
	c.handler = handler
}

// Device status is state, not a sample: losing one leaves a device stale
// until its next report.
func qosFor(topic string) byte {
	t := strings.TrimSpace(topic)
	if strings.HasPrefix(t, "device/status") {
		return 1
	}
	return 0
}

// ConsumeMessage subscribes and blocks until ctx is done, then unsubscribes.
func (c *Consumer) ConsumeMessage(ctx context.Context) error {
	token := c.client.Subscribe(c.topic, qosFor(c.topic), func(_ mqtt.Client, msg mqtt.Message) {
		if c.handler == nil {
			c.log.Warn("no handler set", zap.String("topic", c.topic))
			return
		}
		if err := c.handler(msg.Topic(), msg); err != nil {
			c.log.Warn("message handling failed", zap.String("topic", msg.Topic()), zap.Error(err))
		}
	})
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("subscribe %s: %w", c.topic, token.Error())
	}
	c.log.Info("subscribed", zap.String("topic", c.topic), zap.Uint8("qos", qosFor(c.topic)))

	<-ctx.Done()

	c.client.Unsubscribe(c.topic).Wait()
	return nil
}
