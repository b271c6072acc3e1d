package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// AllDocuments is the topic level that selects every document.
const AllDocuments = "_all"

// MQTTCouplings connects a Service to an MQTT broker: raw text in,
// facts out.
//
// Raw text published to In/HOST/DOC is parsed and stored for HOST.
// The facts of every parse with a host, whatever its origin, are
// published to Out/HOST.  Failures of parses that arrived by MQTT
// are published to Out/HOST/error.
type MQTTCouplings struct {
	Client mqtt.Client
	Config MQTTConfig

	// Quiesce is the disconnection quiescence in milliseconds.
	Quiesce uint

	s *Service
}

// MQTTResult is the payload published for a completed parse.
type MQTTResult struct {
	Host      string      `json:"host"`
	At        string      `json:"at"`
	Documents []string    `json:"documents"`
	Facts     interface{} `json:"facts"`
}

func NewMQTTCouplings(ctx context.Context, cfg MQTTConfig, s *Service) *MQTTCouplings {
	mqtt.ERROR = log.New(os.Stderr, "mqtt.error ", 0)

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientId)
	opts.SetKeepAlive(cfg.KeepAlive.Duration)
	opts.Username = cfg.Username
	opts.Password = cfg.Password
	opts.AutoReconnect = true
	opts.CleanSession = true

	opts.OnConnectionLost = func(client mqtt.Client, err error) {
		log.Printf("MQTT connection lost: %v", err)
	}

	c := &MQTTCouplings{
		Config:  cfg,
		Quiesce: 100,
		s:       s,
	}

	opts.DefaultPublishHandler = func(client mqtt.Client, msg mqtt.Message) {
		go c.inHandler(ctx, msg.Topic(), msg.Payload())
	}

	c.Client = mqtt.NewClient(opts)

	return c
}

// ParseTopic extracts the host and the document names from an
// incoming topic.  No names means every document.
func ParseTopic(prefix, topic string) (string, []string, error) {
	rest := strings.TrimPrefix(topic, strings.TrimSuffix(prefix, "/")+"/")
	if rest == topic {
		return "", nil, fmt.Errorf("topic %q isn't under %q", topic, prefix)
	}
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", nil, fmt.Errorf("topic %q should be %s/HOST/DOCUMENT", topic, prefix)
	}
	if parts[1] == AllDocuments {
		return parts[0], nil, nil
	}
	return parts[0], []string{parts[1]}, nil
}

// inHandler handles messages sent to us from the MQTT broker due to
// our subscription.
func (c *MQTTCouplings) inHandler(ctx context.Context, topic string, payload []byte) {
	log.Printf("incoming: %s (%d bytes)", topic, len(payload))

	host, docs, err := ParseTopic(c.Config.In, topic)
	if err != nil {
		log.Printf("MQTTCouplings ignoring message: %v", err)
		return
	}

	op := &SOp{
		Parse: &ParseOp{
			Documents: docs,
			Contents:  string(payload),
			Host:      host,
		},
	}
	if err = op.Do(ctx, c.s); err != nil {
		js, _ := json.Marshal(map[string]string{
			"id":    op.Id,
			"error": op.Err,
		})
		if perr := c.publish(c.outTopic(host)+"/error", js); perr != nil {
			log.Printf("MQTTCouplings: %v", NewWrappedError(perr, err))
		}
	}
}

func (c *MQTTCouplings) outTopic(host string) string {
	return strings.TrimSuffix(c.Config.Out, "/") + "/" + host
}

func (c *MQTTCouplings) publish(topic string, payload []byte) error {
	t := c.Client.Publish(topic, c.Config.QoS, false, payload)
	if !t.WaitTimeout(10 * time.Second) {
		return fmt.Errorf("publish to %s timed out", topic)
	}
	return t.Error()
}

// outHook publishes the facts of parses with hosts.
func (c *MQTTCouplings) outHook(op *ParseOp) {
	if op.Host == "" || op.Result == nil {
		return
	}
	js, err := json.Marshal(&MQTTResult{
		Host:      op.Host,
		At:        op.At,
		Documents: op.Result.Documents,
		Facts:     op.Result.Facts,
	})
	if err != nil {
		log.Printf("MQTTCouplings Marshal error: %v", err)
		return
	}
	if err = c.publish(c.outTopic(op.Host), js); err != nil {
		log.Printf("MQTTCouplings publish error: %v", err)
	}
}

// Start creates the MQTT session, subscribes to the raw text topics,
// and hooks into the Service's results.
func (c *MQTTCouplings) Start(ctx context.Context) error {
	log.Printf("Attempting to connect to broker %s", c.Config.Broker)
	if t := c.Client.Connect(); t.Wait() && t.Error() != nil {
		return t.Error()
	}
	log.Printf("Connected to broker")

	topic := strings.TrimSuffix(c.Config.In, "/") + "/+/+"
	log.Printf("Subscribing to %s (%d)", topic, c.Config.QoS)
	if t := c.Client.Subscribe(topic, c.Config.QoS, nil); t.Wait() && t.Error() != nil {
		return t.Error()
	}

	c.s.Subs.Add(AllHosts, "mqtt", c.outHook)

	log.Printf("Couplings started")

	return nil
}

func (c *MQTTCouplings) Stop(ctx context.Context) {
	c.s.Subs.RemAll("mqtt")
	c.Client.Disconnect(c.Quiesce)
}
