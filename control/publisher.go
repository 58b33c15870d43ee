package control

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/e7canasta/orion-blockrt/scheduler"
)

// Telemetry publishes periodic scheduler.Stats snapshots to an MQTT
// broker, mirroring the reference fleet's MQTTEmitter: a single
// long-lived client, auto-reconnect, and a running count of publishes
// and failures.
type Telemetry struct {
	broker     string
	clientID   string
	topic      string
	qos        byte
	statsEvery time.Duration

	client mqtt.Client

	mu        sync.RWMutex
	connected bool
	published uint64
	errors    uint64
}

// NewTelemetry constructs a Telemetry publisher for the given broker
// and topic. statsEvery controls how often Run takes a snapshot.
func NewTelemetry(broker, clientID, topic string, qos byte, statsEvery time.Duration) *Telemetry {
	if statsEvery <= 0 {
		statsEvery = 5 * time.Second
	}
	return &Telemetry{broker: broker, clientID: clientID, topic: topic, qos: qos, statsEvery: statsEvery}
}

// Connect establishes the MQTT connection used for publishing.
func (t *Telemetry) Connect() error {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(t.broker)
	opts.SetClientID(t.clientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.SetMaxReconnectInterval(30 * time.Second)

	opts.OnConnect = func(c mqtt.Client) {
		t.mu.Lock()
		t.connected = true
		t.mu.Unlock()
		slog.Info("telemetry mqtt connected", "broker", t.broker, "client_id", t.clientID)
	}
	opts.OnConnectionLost = func(c mqtt.Client, err error) {
		t.mu.Lock()
		t.connected = false
		t.mu.Unlock()
		slog.Warn("telemetry mqtt connection lost", "error", err, "broker", t.broker)
	}

	t.client = mqtt.NewClient(opts)
	token := t.client.Connect()
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("control: mqtt connect timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("control: mqtt connect failed: %w", err)
	}

	t.mu.Lock()
	t.connected = true
	t.mu.Unlock()
	return nil
}

// PublishSnapshot encodes one scheduler.Stats snapshot as a msgpack map
// keyed by block name and publishes it on the telemetry topic.
func (t *Telemetry) PublishSnapshot(stats []scheduler.BlockStats) error {
	if !t.isConnected() {
		t.mu.Lock()
		t.errors++
		t.mu.Unlock()
		return fmt.Errorf("control: mqtt not connected")
	}

	envelope := make(map[string]BlockStatsWire, len(stats))
	for _, s := range stats {
		envelope[s.Name] = BlockStatsWire{
			ItemsConsumed:      s.ItemsConsumed,
			ItemsProduced:      s.ItemsProduced,
			ContractViolations: s.ContractViolations,
			Calls:              s.Calls,
			LastActiveAt:       s.LastActiveAt.Unix(),
		}
	}

	payload, err := msgpack.Marshal(envelope)
	if err != nil {
		t.mu.Lock()
		t.errors++
		t.mu.Unlock()
		return fmt.Errorf("control: marshal snapshot: %w", err)
	}

	token := t.client.Publish(t.topic, t.qos, false, payload)
	if !token.WaitTimeout(2 * time.Second) {
		t.mu.Lock()
		t.errors++
		t.mu.Unlock()
		return fmt.Errorf("control: publish timeout")
	}
	if err := token.Error(); err != nil {
		t.mu.Lock()
		t.errors++
		t.mu.Unlock()
		return fmt.Errorf("control: publish failed: %w", err)
	}

	t.mu.Lock()
	t.published++
	t.mu.Unlock()
	return nil
}

// Run publishes a stats snapshot every statsEvery until stop is closed.
func (t *Telemetry) Run(stop <-chan struct{}, snapshot func() []scheduler.BlockStats) {
	ticker := time.NewTicker(t.statsEvery)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := t.PublishSnapshot(snapshot()); err != nil {
				slog.Warn("telemetry publish failed", "error", err)
			}
		}
	}
}

// Disconnect closes the MQTT connection.
func (t *Telemetry) Disconnect() {
	if t.client != nil && t.client.IsConnected() {
		t.client.Disconnect(250)
	}
	t.mu.Lock()
	t.connected = false
	t.mu.Unlock()
}

// Stats returns publish/error counters for observability.
func (t *Telemetry) Stats() (published, errors uint64) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.published, t.errors
}

func (t *Telemetry) isConnected() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.connected
}

// BlockStatsWire is the wire shape of one scheduler.BlockStats entry.
type BlockStatsWire struct {
	ItemsConsumed      uint64 `msgpack:"items_consumed"`
	ItemsProduced      uint64 `msgpack:"items_produced"`
	ContractViolations uint64 `msgpack:"contract_violations"`
	Calls              uint64 `msgpack:"calls"`
	LastActiveAt       int64  `msgpack:"last_active_at"`
}
