package publisher

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"loadshape_toolkit/internal/analysis"
	"loadshape_toolkit/internal/config"
	"loadshape_toolkit/internal/timeseries"
)

const publishTimeout = 10 * time.Second

// client is the part of mqtt.Client the publisher uses.
type client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	IsConnected() bool
	Disconnect(quiesce uint)
}

// Publisher publishes peak summaries and loadshapes to an MQTT broker
type Publisher struct {
	client      client
	topicPrefix string
}

// New connects to the broker configured in cfg
func New(cfg config.MQTTConfig, topicPrefix string) (*Publisher, error) {
	if !cfg.Enabled {
		return nil, fmt.Errorf("MQTT publishing is not enabled in config")
	}
	if cfg.Broker == "" {
		return nil, fmt.Errorf("MQTT broker address is required when enabled")
	}

	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "loadshape"
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s", cfg.Broker))
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectTimeout(10 * time.Second)

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}

	c := mqtt.NewClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connecting to MQTT broker: %w", token.Error())
	}

	return &Publisher{client: c, topicPrefix: topicPrefix}, nil
}

// SummaryTopic returns the retained topic carrying a dataset's peak summary.
func (p *Publisher) SummaryTopic(dataset string) string {
	return fmt.Sprintf("%s/%s/peak", p.topicPrefix, dataset)
}

// LoadshapeTopic returns the retained topic carrying a dataset's hourly
// loadshape.
func (p *Publisher) LoadshapeTopic(dataset string) string {
	return fmt.Sprintf("%s/%s/loadshape", p.topicPrefix, dataset)
}

// PublishSummary publishes a peak summary as retained JSON with QoS 1.
func (p *Publisher) PublishSummary(dataset string, s analysis.Summary) error {
	return p.publishJSON(p.SummaryTopic(dataset), s)
}

// LoadshapePayload is the JSON published for a loadshape. NaN hours are null.
type LoadshapePayload struct {
	Days    int                   `json:"days"`
	Columns map[string][]*float64 `json:"columns"`
}

// PublishLoadshape publishes every column of ls as retained JSON with QoS 1.
func (p *Publisher) PublishLoadshape(dataset string, ls *timeseries.Loadshape) error {
	payload := LoadshapePayload{Days: ls.Days, Columns: make(map[string][]*float64, len(ls.Columns))}
	for _, col := range ls.Columns {
		payload.Columns[col] = analysis.Nullable(ls.Values[col])
	}
	return p.publishJSON(p.LoadshapeTopic(dataset), payload)
}

func (p *Publisher) publishJSON(topic string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding payload for %s: %w", topic, err)
	}

	token := p.client.Publish(topic, 1, true, data)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publishing to %s: timed out after %s", topic, publishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publishing to %s: %w", topic, err)
	}
	return nil
}

// Close disconnects from the MQTT broker
func (p *Publisher) Close() {
	if p.client != nil && p.client.IsConnected() {
		p.client.Disconnect(250)
	}
}
