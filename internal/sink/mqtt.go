package sink

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/banshee-data/wallinput/internal/gesture"
	"github.com/banshee-data/wallinput/internal/monitoring"
)

// MQTTConfig configures an MQTT sink.
type MQTTConfig struct {
	Broker      string
	TopicPrefix string
	ClientID    string
	QoS         byte
}

// publisher is the part of mqtt.Client the sink uses.
type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
	IsConnectionOpen() bool
}

const (
	// ackWindow bounds how many publishes await broker acknowledgement.
	ackWindow  = 256
	ackTimeout = 5 * time.Second
)

// MQTT publishes each record as JSON on <prefix>/<source>/<kind>.
// Records are dropped while the broker connection is down rather than queued
// behind paho's reconnect.
type MQTT struct {
	client  publisher
	prefix  string
	qos     byte
	pending chan mqtt.Token
	stop    chan struct{}
	wg      sync.WaitGroup
	once    sync.Once
	failed  atomic.Int64
	dropped atomic.Int64
}

// NewMQTT connects to the broker.
func NewMQTT(cfg MQTTConfig) (*MQTT, error) {
	if cfg.ClientID == "" {
		cfg.ClientID = "wallinput-" + uuid.NewString()
	}
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			monitoring.Logf("sink: MQTT connection lost: %v", err)
		})

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10*time.Second) {
		monitoring.Logf("sink: MQTT broker %s not reachable yet; retrying in background", cfg.Broker)
	} else if err := token.Error(); err != nil {
		return nil, fmt.Errorf("MQTT connect error: %w", err)
	}
	monitoring.Logf("sink: publishing to %s under %q as %s", cfg.Broker, cfg.TopicPrefix, cfg.ClientID)
	return newMQTT(client, cfg), nil
}

func newMQTT(client publisher, cfg MQTTConfig) *MQTT {
	m := &MQTT{
		client:  client,
		prefix:  strings.TrimSuffix(cfg.TopicPrefix, "/"),
		qos:     cfg.QoS,
		pending: make(chan mqtt.Token, ackWindow),
		stop:    make(chan struct{}),
	}
	m.wg.Add(1)
	go m.confirm()
	return m
}

// confirm waits on acknowledgements one at a time so an unresponsive broker
// holds at most ackWindow tokens.
func (m *MQTT) confirm() {
	defer m.wg.Done()
	for {
		select {
		case <-m.stop:
			return
		case token := <-m.pending:
			if !m.await(token) {
				return
			}
		}
	}
}

// await reports false when the sink is closing.
func (m *MQTT) await(token mqtt.Token) bool {
	timer := time.NewTimer(ackTimeout)
	defer timer.Stop()
	select {
	case <-m.stop:
		return false
	case <-timer.C:
		m.failed.Add(1)
		monitoring.Debugf("sink: publish not acknowledged within %v", ackTimeout)
	case <-token.Done():
		if err := token.Error(); err != nil {
			m.failed.Add(1)
			monitoring.Debugf("sink: publish failed: %v", err)
		}
	}
	return true
}

// Topic is the topic a record is published on.
func Topic(prefix string, p gesture.DisplayPointer) string {
	src := strings.NewReplacer("/", "_", "+", "_", "#", "_").Replace(p.Source)
	if prefix == "" {
		return src + "/" + string(p.Kind)
	}
	return prefix + "/" + src + "/" + string(p.Kind)
}

// Send publishes p asynchronously. It never blocks on the broker.
func (m *MQTT) Send(p gesture.DisplayPointer) {
	if !m.client.IsConnectionOpen() {
		m.dropped.Add(1)
		return
	}
	payload, err := json.Marshal(p)
	if err != nil {
		m.failed.Add(1)
		monitoring.Logf("sink: failed to encode %s: %v", p.Source, err)
		return
	}
	token := m.client.Publish(Topic(m.prefix, p), m.qos, false, payload)
	select {
	case m.pending <- token:
	default:
		// Window full; the publish goes out but its outcome is not counted.
	}
}

// Failed is the number of records that could not be published.
func (m *MQTT) Failed() int64 { return m.failed.Load() }

// Dropped is the number of records discarded while the broker was unreachable.
func (m *MQTT) Dropped() int64 { return m.dropped.Load() }

// Close disconnects from the broker.
func (m *MQTT) Close() error {
	m.once.Do(func() {
		close(m.stop)
		m.wg.Wait()
		m.client.Disconnect(250)
	})
	return nil
}
