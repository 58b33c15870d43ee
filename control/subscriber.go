package control

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/e7canasta/orion-blockrt/pmt"
	"github.com/e7canasta/orion-blockrt/scheduler"
)

// Command names accepted on the control topic.
const (
	CommandStart = "start"
	CommandStop  = "stop"
	CommandPause = "pause"
)

// Commander subscribes to an MQTT command topic and drives a
// scheduler.Graph in response to start/stop/pause messages. Each
// command payload is a single pmt.Symbol naming the command.
type Commander struct {
	broker   string
	clientID string
	topic    string

	graph *scheduler.Graph

	mu      sync.Mutex
	cancel  context.CancelFunc
	running bool

	client mqtt.Client
}

// NewCommander constructs a Commander that will drive graph.
func NewCommander(broker, clientID, topic string, graph *scheduler.Graph) *Commander {
	return &Commander{broker: broker, clientID: clientID, topic: topic, graph: graph}
}

// Connect subscribes to the command topic and begins dispatching
// incoming commands.
func (c *Commander) Connect() error {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(c.broker)
	opts.SetClientID(c.clientID + "-ctl")
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(2 * time.Second)

	c.client = mqtt.NewClient(opts)
	token := c.client.Connect()
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("control: mqtt connect timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("control: mqtt connect failed: %w", err)
	}

	subToken := c.client.Subscribe(c.topic, 1, c.onMessage)
	if !subToken.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("control: subscribe timeout")
	}
	return subToken.Error()
}

func (c *Commander) onMessage(_ mqtt.Client, msg mqtt.Message) {
	v, err := pmt.Unmarshal(msg.Payload())
	if err != nil {
		slog.Warn("control: malformed command payload", "error", err)
		return
	}
	sym, ok := v.AsSymbol()
	if !ok {
		slog.Warn("control: command payload is not a symbol", "value", v)
		return
	}

	switch sym.String() {
	case CommandStart:
		c.handleStart()
	case CommandStop, CommandPause:
		c.handleStop()
	default:
		slog.Warn("control: unknown command", "command", sym.String())
	}
}

func (c *Commander) handleStart() {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.running = true
	c.mu.Unlock()

	go func() {
		if err := c.graph.Run(ctx); err != nil {
			slog.Warn("control: graph run failed", "error", err)
		}
		c.mu.Lock()
		c.running = false
		c.mu.Unlock()
	}()
}

// handleStop services both "stop" and "pause": this runtime has no
// resumable paused state, so pause is treated as a full stop.
func (c *Commander) handleStop() {
	c.mu.Lock()
	cancel := c.cancel
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	c.graph.Stop()
}

// Disconnect closes the MQTT connection.
func (c *Commander) Disconnect() {
	if c.client != nil && c.client.IsConnected() {
		c.client.Disconnect(250)
	}
}
