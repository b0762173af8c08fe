// Package mqtt connects the simulator to an MQTT broker. Commands arrive on
// <root>/cmd/# and <root>/simCmd/#; sensors, the aggregate state and the
// actuators are published retained at QoS 1 after every tick.
package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/profilgusto/sim-biorreator/internal/command"
	"github.com/profilgusto/sim-biorreator/internal/logging"
	"github.com/profilgusto/sim-biorreator/internal/sim"
)

const (
	qos            = 1
	publishTimeout = 150 * time.Millisecond
)

var ErrNotConnected = fmt.Errorf("mqtt: not connected: %w", sim.ErrPublisherOffline)

// Commander receives commands decoded from subscribed topics.
type Commander interface {
	Enqueue(c command.Command) bool
}

type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

type subscriber interface {
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
}

type Options struct {
	BrokerURL string
	ClientID  string
	TopicRoot string
}

// Bridge is a sim.Publisher backed by a paho client.
type Bridge struct {
	client paho.Client
	pub    publisher
	root   string
	target Commander
	onFail func(sink string)
	log    *slog.Logger
}

// NewBridge builds the client. Nothing is dialled until Connect.
func NewBridge(opts Options, target Commander) *Bridge {
	b := newBridge(nil, opts.TopicRoot, target)

	co := paho.NewClientOptions().
		AddBroker(opts.BrokerURL).
		SetClientID(opts.ClientID).
		SetKeepAlive(60 * time.Second).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(2 * time.Second).
		SetOnConnectHandler(func(c paho.Client) {
			b.log.Info("Connected to broker", "broker", opts.BrokerURL)
			b.subscribe(c)
		}).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			b.log.Warn("Connection to broker lost", "error", err)
		})

	b.client = paho.NewClient(co)
	b.pub = b.client
	return b
}

func newBridge(pub publisher, root string, target Commander) *Bridge {
	return &Bridge{
		pub:    pub,
		root:   strings.TrimSuffix(root, "/"),
		target: target,
		log:    logging.WithComponent("mqtt"),
	}
}

// OnPublishFailure registers fn to be called with "mqtt" for every failed publish.
func (b *Bridge) OnPublishFailure(fn func(sink string)) { b.onFail = fn }

// Connect starts the client. With connect-retry enabled the token completes
// once the first attempt is made; later attempts run in the background.
func (b *Bridge) Connect(ctx context.Context) error {
	token := b.client.Connect()
	select {
	case <-token.Done():
		if err := token.Error(); err != nil {
			return fmt.Errorf("mqtt connect: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close disconnects, waiting up to 250ms for in-flight messages.
func (b *Bridge) Close() {
	if b.client != nil {
		b.client.Disconnect(250)
	}
}

// Topics returns the command subscriptions.
func (b *Bridge) Topics() []string {
	return []string{b.root + "/cmd/#", b.root + "/simCmd/#"}
}

func (b *Bridge) subscribe(s subscriber) {
	for _, topic := range b.Topics() {
		topic := topic
		token := s.Subscribe(topic, qos, b.handleMessage)
		go func() {
			token.Wait()
			if err := token.Error(); err != nil {
				b.log.Error("Subscribe failed", "topic", topic, "error", err)
				return
			}
			b.log.Debug("Subscribed", "topic", topic)
		}()
	}
}

func (b *Bridge) handleMessage(_ paho.Client, msg paho.Message) {
	c := command.Command{Key: msg.Topic(), Value: string(msg.Payload())}
	if !b.target.Enqueue(c) {
		logging.WithTopic(msg.Topic()).Warn("Command dropped", "component", "mqtt")
	}
}

// Publish implements sim.Publisher.
func (b *Bridge) Publish(ctx context.Context, f sim.Frame) error {
	if b.client != nil && !b.client.IsConnectionOpen() {
		b.failed()
		return ErrNotConnected
	}

	msgs := Messages(b.root, f)
	tokens := make([]paho.Token, 0, len(msgs))
	for _, m := range msgs {
		tokens = append(tokens, b.pub.Publish(m.Topic, qos, true, m.Payload))
	}

	var errs []error
	deadline := time.Now().Add(publishTimeout)
	for i, t := range tokens {
		if !t.WaitTimeout(time.Until(deadline)) {
			continue
		}
		if err := t.Error(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", msgs[i].Topic, err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		b.failed()
		return err
	}
	return nil
}

func (b *Bridge) failed() {
	if b.onFail != nil {
		b.onFail("mqtt")
	}
}

// Message is one retained publication.
type Message struct {
	Topic   string
	Payload string
}

// Messages lays out a frame as MQTT publications: every sensor, the
// aggregate sensor JSON on <root>/state, then every actuator.
func Messages(root string, f sim.Frame) []Message {
	sensors := f.Readout.Sensors()
	actuators := f.Actuators.Readings()
	out := make([]Message, 0, len(sensors)+len(actuators)+1)

	for _, s := range sensors {
		out = append(out, Message{Topic: root + "/sensors/" + s.Key, Payload: FormatValue(s.Value)})
	}

	state, _ := json.Marshal(f.Readout.SensorMap())
	out = append(out, Message{Topic: root + "/state", Payload: string(state)})

	for _, a := range actuators {
		payload := FormatValue(a.Value)
		if a.Key == "valve_in" || a.Key == "valve_out" {
			payload = strconv.Itoa(int(a.Value))
		}
		out = append(out, Message{Topic: root + "/actuators/" + a.Key, Payload: payload})
	}

	return out
}

// FormatValue renders a reading as a decimal string that always carries a
// fractional part ("400.0", "6.82").
func FormatValue(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}
