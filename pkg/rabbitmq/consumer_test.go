package rabbitmq

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type doneToken struct{ err error }

func (t doneToken) Wait() bool                     { return true }
func (t doneToken) WaitTimeout(time.Duration) bool { return true }
func (t doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (t doneToken) Error() error { return t.err }

// fakeClient records subscriptions; everything else panics via the nil
// embedded interface.
type fakeClient struct {
	mqtt.Client

	mu           sync.Mutex
	subErr       error
	subscribed   map[string]mqtt.MessageHandler
	qos          map[string]byte
	unsubscribed []string
}

func newFakeClient() *fakeClient {
	return &fakeClient{subscribed: map[string]mqtt.MessageHandler{}, qos: map[string]byte{}}
}

func (f *fakeClient) Subscribe(topic string, qos byte, cb mqtt.MessageHandler) mqtt.Token {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.subErr == nil {
		f.subscribed[topic] = cb
		f.qos[topic] = qos
	}
	return doneToken{err: f.subErr}
}

func (f *fakeClient) Unsubscribe(topics ...string) mqtt.Token {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unsubscribed = append(f.unsubscribed, topics...)
	return doneToken{}
}

func (f *fakeClient) handler(topic string) mqtt.MessageHandler {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.subscribed[topic]
}

type fakeMessage struct {
	mqtt.Message
	topic   string
	payload []byte
}

func (m fakeMessage) Topic() string   { return m.topic }
func (m fakeMessage) Payload() []byte { return m.payload }

func TestConsumeMessage(t *testing.T) {
	client := newFakeClient()
	var got []string
	c := NewConsumer(client, "device/status/#", func(topic string, msg mqtt.Message) error {
		got = append(got, topic+" "+string(msg.Payload()))
		return errors.New("ignored")
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- c.ConsumeMessage(ctx) }()

	require.Eventually(t, func() bool { return client.handler("device/status/#") != nil }, time.Second, time.Millisecond)
	client.handler("device/status/#")(client, fakeMessage{topic: "device/status/EST-001/NPK-001", payload: []byte("x")})

	cancel()
	require.NoError(t, <-errc)
	assert.Equal(t, []string{"device/status/EST-001/NPK-001 x"}, got)
	assert.Equal(t, byte(1), client.qos["device/status/#"])
	assert.Equal(t, []string{"device/status/#"}, client.unsubscribed)
}

func TestConsumeMessageSubscribeError(t *testing.T) {
	client := newFakeClient()
	client.subErr = errors.New("not authorized")
	c := NewConsumer(client, "device/status/#", nil, nil)

	err := c.ConsumeMessage(context.Background())
	assert.ErrorContains(t, err, "not authorized")
}

func TestQosFor(t *testing.T) {
	assert.Equal(t, byte(1), qosFor(" device/status/#"))
	assert.Equal(t, byte(0), qosFor("sensor/raw/#"))
	assert.Equal(t, byte(0), qosFor("ticket/TKT-001"))
}

func TestBrokerURL(t *testing.T) {
	cfg := &RabbitMQConfig{Host: "rabbitmq", Port: 1883}
	assert.Equal(t, "tcp://rabbitmq:1883", cfg.BrokerURL())
}
