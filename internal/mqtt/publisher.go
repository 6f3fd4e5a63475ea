package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/muurk/integra-bridge/internal/accessory"
	"github.com/muurk/integra-bridge/internal/logging"
	"github.com/muurk/integra-bridge/internal/protocol"
)

// Payloads
const (
	StatusOnline  = "online"
	StatusOffline = "offline"
	StateOn       = "ON"
	StateOff      = "OFF"
)

const (
	qos = 1

	defaultNetworkTimeout = 10 * time.Second
)

// Client is the part of paho's mqtt.Client the publisher uses.
type Client interface {
	Connect() paho.Token
	Disconnect(quiesce uint)
	IsConnected() bool
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

// Config holds the broker connection settings
type Config struct {
	Broker      string // e.g. tcp://localhost:1883
	TopicPrefix string // e.g. integra
	ClientID    string // generated when empty
	Username    string
	Password    string
}

// Publisher mirrors zone states and system info to an MQTT broker.
//
// Topics, under the configured prefix:
//
//	<prefix>/status             "online", or "offline" via the last will
//	<prefix>/info               system info JSON (retained)
//	<prefix>/zones              violated zone list JSON (retained)
//	<prefix>/zone/<n>/state     "ON" or "OFF" per configured zone (retained)
type Publisher struct {
	client  Client
	prefix  string
	zones   *accessory.Set
	timeout time.Duration

	mu      sync.Mutex
	last    protocol.ZoneStates
	hasLast bool
}

// New creates a Publisher backed by a paho client. Call Connect before
// publishing.
func New(cfg Config, zones *accessory.Set) *Publisher {
	prefix := strings.Trim(cfg.TopicPrefix, "/")
	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "integra-bridge-" + uuid.NewString()[:8]
	}

	mqttLog := zap.NewStdLog(logging.GetLogger().Named("paho"))
	paho.ERROR = mqttLog
	paho.CRITICAL = mqttLog

	p := &Publisher{prefix: prefix, zones: zones, timeout: defaultNetworkTimeout}

	opts := paho.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(clientID).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetAutoReconnect(true).
		SetCleanSession(true).
		SetConnectTimeout(defaultNetworkTimeout).
		SetKeepAlive(30*time.Second).
		SetWill(p.topic("status"), StatusOffline, qos, true).
		SetOnConnectHandler(func(paho.Client) { p.onConnect() }).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			logging.Warn("MQTT connection lost", zap.Error(err))
		})

	p.client = paho.NewClient(opts)
	logging.Debug("MQTT publisher created",
		zap.String("broker", cfg.Broker),
		zap.String("client_id", clientID),
		zap.String("prefix", prefix),
	)
	return p
}

// newWithClient is used by tests to inject a fake client.
func newWithClient(client Client, prefix string, zones *accessory.Set) *Publisher {
	return &Publisher{
		client:  client,
		prefix:  strings.Trim(prefix, "/"),
		zones:   zones,
		timeout: defaultNetworkTimeout,
	}
}

func (p *Publisher) topic(parts ...string) string {
	return p.prefix + "/" + strings.Join(parts, "/")
}

// ZoneTopic returns the state topic of zone n
func (p *Publisher) ZoneTopic(n int) string {
	return p.topic("zone", fmt.Sprint(n), "state")
}

// Connect connects to the broker. paho reconnects on its own afterwards.
func (p *Publisher) Connect(ctx context.Context) error {
	token := p.client.Connect()
	if err := p.wait(ctx, token, "connect"); err != nil {
		return err
	}
	logging.Info("MQTT connected", zap.String("prefix", p.prefix))
	return nil
}

// onConnect runs after every (re)connect. Retained topics are re-sent so a
// broker that lost its store catches up.
func (p *Publisher) onConnect() {
	if err := p.publish(p.topic("status"), true, StatusOnline); err != nil {
		logging.Warn("Failed to publish MQTT status", zap.Error(err))
	}

	p.mu.Lock()
	p.hasLast = false
	p.mu.Unlock()
}

// PublishInfo publishes the controller system info.
func (p *Publisher) PublishInfo(info protocol.SystemInfo) error {
	data, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("failed to marshal system info: %w", err)
	}
	return p.publish(p.topic("info"), true, data)
}

// PublishZones publishes a violated zones snapshot. Per-zone topics are
// only sent for zones whose state changed since the previous snapshot.
func (p *Publisher) PublishZones(violated protocol.ZoneStates) error {
	p.mu.Lock()
	prev, full := p.last, !p.hasLast
	p.last, p.hasLast = violated, true
	p.mu.Unlock()

	data, err := json.Marshal(violated)
	if err != nil {
		return fmt.Errorf("failed to marshal zones: %w", err)
	}

	var errs []error
	if err := p.publish(p.topic("zones"), true, data); err != nil {
		errs = append(errs, err)
	}

	var states []accessory.SensorState
	if full {
		states = p.zones.States(violated)
	} else {
		states = p.zones.Changed(prev, violated)
	}
	for _, s := range states {
		payload := StateOff
		if s.Violated {
			payload = StateOn
		}
		if err := p.publish(p.ZoneTopic(s.Number), true, payload); err != nil {
			errs = append(errs, err)
		}
	}

	if err := errors.Join(errs...); err != nil {
		// Force a full republish next time
		p.mu.Lock()
		p.hasLast = false
		p.mu.Unlock()
		return err
	}
	return nil
}

// Run publishes every snapshot from updates until the channel closes or
// ctx is done, then marks the bridge offline and disconnects.
func (p *Publisher) Run(ctx context.Context, updates <-chan protocol.ZoneStates) {
	defer p.Close()

	for {
		select {
		case violated, ok := <-updates:
			if !ok {
				return
			}
			if err := p.PublishZones(violated); err != nil {
				logging.Warn("Failed to publish zones to MQTT", zap.Error(err))
			}
		case <-ctx.Done():
			return
		}
	}
}

// Close publishes the offline status and disconnects.
func (p *Publisher) Close() {
	if !p.client.IsConnected() {
		return
	}
	if err := p.publish(p.topic("status"), true, StatusOffline); err != nil {
		logging.Debug("Failed to publish MQTT offline status", zap.Error(err))
	}
	p.client.Disconnect(250)
	logging.Info("MQTT disconnected")
}

func (p *Publisher) publish(topic string, retained bool, payload interface{}) error {
	token := p.client.Publish(topic, qos, retained, payload)
	return p.wait(context.Background(), token, "publish "+topic)
}

// wait blocks on a paho token. paho v1.2 tokens have no done channel, so
// the wait is bounded by the network timeout and ctx is checked after it.
func (p *Publisher) wait(ctx context.Context, token paho.Token, op string) error {
	if !token.WaitTimeout(p.timeout) {
		return fmt.Errorf("mqtt %s: timeout after %s", op, p.timeout)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt %s: %w", op, err)
	}
	return nil
}
