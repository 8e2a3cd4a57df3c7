package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/markusressel/fanhold/internal/configuration"
	"github.com/markusressel/fanhold/internal/engine"
	"github.com/markusressel/fanhold/internal/ui"
)

const (
	stateTopicSuffix    = "/state"
	overrideTopicSuffix = "/override/set"

	qosAtLeastOnce = 1
	tokenTimeout   = 5 * time.Second
	disconnectMs   = 250
)

// Client is the subset of paho.Client used by the publisher.
type Client interface {
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
}

type OverrideHandler interface {
	SetOverride(groupId string, enabled bool, tier int, persist bool) error
}

// Command is the payload of <topic>/override/set
type Command struct {
	Group   string `json:"group"`
	Enabled bool   `json:"enabled"`
	Tier    int    `json:"tier"`
	Persist bool   `json:"persist"`
}

// Publisher mirrors the engine state to a broker and accepts override commands.
type Publisher struct {
	client  Client
	topic   string
	handler OverrideHandler
	backOff func() backoff.BackOff

	latest  atomic.Pointer[engine.Snapshot]
	updates chan struct{}
}

func NewPublisher(config configuration.MqttConfig, handler OverrideHandler) *Publisher {
	opts := paho.NewClientOptions()
	opts.AddBroker(config.Broker)
	opts.SetClientID(config.ClientId)
	opts.SetUsername(config.Username)
	opts.SetPassword(config.Password)
	// keep the subscription across reconnects
	opts.SetCleanSession(false)
	opts.SetAutoReconnect(true)
	opts.SetConnectionLostHandler(func(client paho.Client, err error) {
		ui.Warning("Lost connection to MQTT broker %s: %v", config.Broker, err)
	})

	return newPublisher(paho.NewClient(opts), config.Topic, handler)
}

func newPublisher(client Client, topic string, handler OverrideHandler) *Publisher {
	return &Publisher{
		client:  client,
		topic:   topic,
		handler: handler,
		backOff: func() backoff.BackOff {
			bo := backoff.NewExponentialBackOff()
			// retry until the daemon stops
			bo.MaxElapsedTime = 0
			bo.MaxInterval = time.Minute
			return bo
		},
		updates: make(chan struct{}, 1),
	}
}

func (p *Publisher) StateTopic() string {
	return p.topic + stateTopicSuffix
}

func (p *Publisher) OverrideTopic() string {
	return p.topic + overrideTopicSuffix
}

// Observe is registered as an engine listener. It never blocks the tick.
func (p *Publisher) Observe(snapshot *engine.Snapshot) {
	p.latest.Store(snapshot)
	select {
	case p.updates <- struct{}{}:
	default:
	}
}

// Run connects to the broker and publishes every observed snapshot until ctx is done.
func (p *Publisher) Run(ctx context.Context) error {
	if err := p.connect(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	defer p.client.Disconnect(disconnectMs)

	if err := waitFor(p.client.Subscribe(p.OverrideTopic(), qosAtLeastOnce, p.onMessage)); err != nil {
		return fmt.Errorf("cannot subscribe to %s: %w", p.OverrideTopic(), err)
	}

	for {
		select {
		case <-ctx.Done():
			ui.Info("Disconnecting from MQTT broker...")
			return nil
		case <-p.updates:
			if err := p.publish(p.latest.Load()); err != nil {
				ui.Warning("Cannot publish state: %v", err)
			}
		}
	}
}

func (p *Publisher) connect(ctx context.Context) error {
	err := backoff.Retry(func() error {
		err := waitFor(p.client.Connect())
		if err != nil {
			ui.Warning("Failed to connect to MQTT broker: %v", err)
		}
		return err
	}, backoff.WithContext(p.backOff(), ctx))
	if err != nil {
		return fmt.Errorf("could not establish MQTT connection: %w", err)
	}
	ui.Info("Connected to MQTT broker, publishing to %s", p.StateTopic())
	return nil
}

func (p *Publisher) publish(snapshot *engine.Snapshot) error {
	if snapshot == nil {
		return nil
	}
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	return waitFor(p.client.Publish(p.StateTopic(), qosAtLeastOnce, true, payload))
}

func (p *Publisher) onMessage(_ paho.Client, message paho.Message) {
	if err := p.handleCommand(message.Payload()); err != nil {
		ui.Warning("Ignoring override command on %s: %v", message.Topic(), err)
	}
}

func (p *Publisher) handleCommand(payload []byte) error {
	command := Command{}
	if err := json.Unmarshal(payload, &command); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}
	if len(command.Group) <= 0 {
		return errors.New("missing group")
	}
	return p.handler.SetOverride(command.Group, command.Enabled, command.Tier, command.Persist)
}

func waitFor(token paho.Token) error {
	if !token.WaitTimeout(tokenTimeout) {
		return errors.New("timeout waiting for broker")
	}
	return token.Error()
}
