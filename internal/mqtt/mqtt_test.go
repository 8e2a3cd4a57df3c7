package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/markusressel/fanhold/internal/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockToken struct {
	err error
}

func (t *mockToken) Wait() bool {
	return true
}

func (t *mockToken) WaitTimeout(time.Duration) bool {
	return true
}

func (t *mockToken) Done() <-chan struct{} {
	done := make(chan struct{})
	close(done)
	return done
}

func (t *mockToken) Error() error {
	return t.err
}

type mockMessage struct {
	topic   string
	payload []byte
}

func (m *mockMessage) Duplicate() bool   { return false }
func (m *mockMessage) Qos() byte         { return qosAtLeastOnce }
func (m *mockMessage) Retained() bool    { return false }
func (m *mockMessage) Topic() string     { return m.topic }
func (m *mockMessage) MessageID() uint16 { return 1 }
func (m *mockMessage) Payload() []byte   { return m.payload }
func (m *mockMessage) Ack()              {}

type published struct {
	topic    string
	retained bool
	payload  []byte
}

type mockClient struct {
	mu            sync.Mutex
	connectErrors []error
	connects      int
	disconnected  bool
	published     []published
	subscriptions map[string]paho.MessageHandler
}

func newMockClient() *mockClient {
	return &mockClient{subscriptions: map[string]paho.MessageHandler{}}
}

func (c *mockClient) Connect() paho.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connects++
	if len(c.connectErrors) > 0 {
		err := c.connectErrors[0]
		c.connectErrors = c.connectErrors[1:]
		return &mockToken{err: err}
	}
	return &mockToken{}
}

func (c *mockClient) Disconnect(uint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disconnected = true
}

func (c *mockClient) Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.published = append(c.published, published{topic: topic, retained: retained, payload: payload.([]byte)})
	return &mockToken{}
}

func (c *mockClient) Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscriptions[topic] = callback
	return &mockToken{}
}

func (c *mockClient) publishedCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.published)
}

func (c *mockClient) subscription(topic string) paho.MessageHandler {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.subscriptions[topic]
}

type mockHandler struct {
	mu       sync.Mutex
	commands []Command
	err      error
}

func (h *mockHandler) SetOverride(groupId string, enabled bool, tier int, persist bool) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.err != nil {
		return h.err
	}
	h.commands = append(h.commands, Command{Group: groupId, Enabled: enabled, Tier: tier, Persist: persist})
	return nil
}

func newTestPublisher(client Client, handler OverrideHandler) *Publisher {
	p := newPublisher(client, "fanhold", handler)
	p.backOff = func() backoff.BackOff {
		return &backoff.ZeroBackOff{}
	}
	return p
}

func startPublisher(t *testing.T, p *Publisher) (context.CancelFunc, chan error) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- p.Run(ctx)
	}()
	t.Cleanup(cancel)
	return cancel, done
}

func TestPublisher_PublishesRetainedState(t *testing.T) {
	// GIVEN
	client := newMockClient()
	p := newTestPublisher(client, &mockHandler{})
	cancel, done := startPublisher(t, p)

	// WHEN
	p.Observe(&engine.Snapshot{Tick: 3, Groups: []engine.GroupSnapshot{{ID: "system", CommittedTier: 2}}})

	// THEN
	require.Eventually(t, func() bool { return client.publishedCount() > 0 }, time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	message := client.published[0]
	assert.Equal(t, "fanhold/state", message.topic)
	assert.True(t, message.retained)

	snapshot := engine.Snapshot{}
	require.NoError(t, json.Unmarshal(message.payload, &snapshot))
	assert.Equal(t, uint64(3), snapshot.Tick)
	assert.Equal(t, 2, snapshot.FindGroup("system").CommittedTier)
	assert.True(t, client.disconnected)
}

func TestPublisher_ConnectRetry(t *testing.T) {
	// GIVEN
	client := newMockClient()
	client.connectErrors = []error{errors.New("connection refused"), errors.New("connection refused")}
	p := newTestPublisher(client, &mockHandler{})

	// WHEN
	cancel, done := startPublisher(t, p)

	// THEN
	require.Eventually(t, func() bool { return client.subscription(p.OverrideTopic()) != nil }, time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, 3, client.connects)
}

func TestPublisher_ConnectGivesUp(t *testing.T) {
	// GIVEN
	client := newMockClient()
	for i := 0; i < 5; i++ {
		client.connectErrors = append(client.connectErrors, fmt.Errorf("attempt %d failed", i))
	}
	p := newTestPublisher(client, &mockHandler{})
	p.backOff = func() backoff.BackOff {
		return backoff.WithMaxRetries(&backoff.ZeroBackOff{}, 2)
	}

	// WHEN
	err := p.Run(context.Background())

	// THEN
	require.Error(t, err)
	assert.Contains(t, err.Error(), "could not establish MQTT connection")
	assert.Equal(t, 3, client.connects)
}

func TestPublisher_OverrideCommand(t *testing.T) {
	// GIVEN
	client := newMockClient()
	handler := &mockHandler{}
	p := newTestPublisher(client, handler)
	startPublisher(t, p)
	require.Eventually(t, func() bool { return client.subscription("fanhold/override/set") != nil }, time.Second, 5*time.Millisecond)

	// WHEN
	client.subscription("fanhold/override/set")(nil, &mockMessage{
		topic:   "fanhold/override/set",
		payload: []byte(`{"group":"system","enabled":true,"tier":2,"persist":true}`),
	})

	// THEN
	assert.Equal(t, []Command{{Group: "system", Enabled: true, Tier: 2, Persist: true}}, handler.commands)
}

func TestPublisher_InvalidCommands(t *testing.T) {
	// GIVEN
	handler := &mockHandler{}
	p := newTestPublisher(newMockClient(), handler)

	// WHEN
	malformed := p.handleCommand([]byte(`{"group":`))
	missingGroup := p.handleCommand([]byte(`{"enabled":true,"tier":1}`))
	handler.err = errors.New("unknown group: disks")
	rejected := p.handleCommand([]byte(`{"group":"disks","enabled":true}`))

	// THEN
	assert.Error(t, malformed)
	assert.EqualError(t, missingGroup, "missing group")
	assert.EqualError(t, rejected, "unknown group: disks")
	assert.Empty(t, handler.commands)
}

func TestPublisher_ObserveDoesNotBlock(t *testing.T) {
	// GIVEN
	p := newTestPublisher(newMockClient(), &mockHandler{})

	// WHEN
	for i := 0; i < 10; i++ {
		p.Observe(&engine.Snapshot{Tick: uint64(i)})
	}

	// THEN
	assert.Equal(t, uint64(9), p.latest.Load().Tick)
	assert.Equal(t, 1, len(p.updates))
}
