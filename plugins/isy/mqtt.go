package isy

import (
	"context"
	"crypto/rand"
	"crypto/tls"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"isyhub/internal/config"
	"isyhub/internal/xmldict"
)

const commandTimeout = 30 * time.Second

// Bridge mirrors controller state onto an MQTT broker and accepts
// ON/OFF/level commands back on the set topics.
type Bridge struct {
	client   *Client
	mqtt     mqtt.Client
	prefix   string
	interval time.Duration
	logger   *slog.Logger
}

// NewBridge connects to the broker and subscribes to command topics.
func NewBridge(client *Client, cfg *config.MQTTConfig, logger *slog.Logger) (*Bridge, error) {
	b := &Bridge{
		client:   client,
		prefix:   cfg.TopicPrefix,
		interval: time.Duration(cfg.IntervalSeconds) * time.Second,
		logger:   logger.With("component", "mqtt_bridge"),
	}

	opts := mqtt.NewClientOptions()
	scheme := "tcp"
	if cfg.TLS {
		scheme = "ssl"
		opts.SetTLSConfig(&tls.Config{})
	}
	opts.AddBroker(fmt.Sprintf("%s://%s:%d", scheme, cfg.Host, cfg.Port))
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.SetClientID(randomClientID())
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectTimeout(10 * time.Second)
	opts.SetWill(b.availabilityTopic(), "offline", 1, true)
	opts.OnConnect = func(c mqtt.Client) {
		c.Publish(b.availabilityTopic(), 1, true, "online")
		if token := c.Subscribe(b.prefix+"/nodes/+/set", 0, b.handleCommand); token.Wait() && token.Error() != nil {
			b.logger.Error("command subscribe failed", "error", token.Error())
		}
	}

	mc := mqtt.NewClient(opts)
	if token := mc.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect: %w", token.Error())
	}
	b.mqtt = mc
	return b, nil
}

// Run publishes state on the configured interval until the context is
// cancelled, then marks the bridge offline and disconnects.
func (b *Bridge) Run(ctx context.Context) error {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	b.publishAll(ctx)
	for {
		select {
		case <-ctx.Done():
			b.mqtt.Publish(b.availabilityTopic(), 1, true, "offline").Wait()
			b.mqtt.Disconnect(250)
			return nil
		case <-ticker.C:
			b.publishAll(ctx)
		}
	}
}

type nodeState struct {
	Address   string        `json:"address"`
	Name      string        `json:"name"`
	State     *xmldict.Node `json:"state"`
	Formatted *xmldict.Node `json:"formatted"`
}

type groupState struct {
	Address     string `json:"address"`
	Name        string `json:"name"`
	MemberCount int    `json:"member_count"`
}

type programState struct {
	ID      string        `json:"id"`
	Name    string        `json:"name"`
	Enabled bool          `json:"enabled"`
	Status  bool          `json:"status"`
	LastRun *xmldict.Node `json:"last_run"`
}

func (b *Bridge) publishAll(ctx context.Context) {
	inventory, err := b.client.Inventory(ctx)
	if err != nil {
		b.logger.Error("inventory fetch failed", "error", err)
	} else {
		for _, rec := range inventory.Nodes {
			address := rec.Get("address").Text()
			state := nodeState{
				Address: address,
				Name:    rec.Get("name").ScalarText(),
			}
			if st := propertyByID(rec, "ST"); st != nil {
				state.State = st.Get("rawvalue")
				state.Formatted = st.Get("value")
			}
			b.publish(b.nodeTopic(address), state)
		}
		for _, rec := range inventory.Groups {
			address := rec.Get("address").Text()
			b.publish(b.groupTopic(address), groupState{
				Address:     address,
				Name:        rec.Get("name").ScalarText(),
				MemberCount: rec.Get("members").Len(),
			})
		}
	}

	programs, err := b.client.Programs(ctx)
	if err != nil {
		b.logger.Error("programs fetch failed", "error", err)
		return
	}
	for _, rec := range programs {
		program := Program{client: b.client, rec: rec}
		b.publish(b.programTopic(program.ID()), programState{
			ID:      program.ID(),
			Name:    program.Name(),
			Enabled: program.Enabled(),
			Status:  program.Status(),
			LastRun: rec.Get("lastRunTime"),
		})
	}
}

// handleCommand accepts ON, OFF, or a 0-100 level on a node's set topic.
func (b *Bridge) handleCommand(_ mqtt.Client, msg mqtt.Message) {
	rest := strings.TrimPrefix(msg.Topic(), b.prefix+"/nodes/")
	address := unslugAddress(strings.TrimSuffix(rest, "/set"))

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	payload := strings.ToUpper(strings.TrimSpace(string(msg.Payload())))
	var err error
	switch {
	case payload == "ON":
		err = b.client.NodeCommand(ctx, address, "DON")
	case payload == "OFF":
		err = b.client.NodeCommand(ctx, address, "DOF")
	default:
		level, convErr := strconv.Atoi(payload)
		if convErr != nil || level < 0 || level > 100 {
			b.logger.Warn("unrecognized command payload", "topic", msg.Topic(), "payload", payload)
			return
		}
		err = b.client.NodeCommand(ctx, address, "DON", strconv.Itoa(level*255/100))
	}
	if err != nil {
		b.logger.Error("command failed", "address", address, "error", err)
		return
	}
	b.logger.Info("command applied", "address", address, "payload", payload)
}

func (b *Bridge) publish(topic string, state any) {
	payload, err := json.Marshal(state)
	if err != nil {
		b.logger.Error("state marshal failed", "topic", topic, "error", err)
		return
	}
	if token := b.mqtt.Publish(topic, 0, true, payload); token.Wait() && token.Error() != nil {
		b.logger.Error("publish failed", "topic", topic, "error", token.Error())
	}
}

func (b *Bridge) availabilityTopic() string {
	return b.prefix + "/status"
}

func (b *Bridge) nodeTopic(address string) string {
	return b.prefix + "/nodes/" + slugAddress(address) + "/state"
}

func (b *Bridge) groupTopic(address string) string {
	return b.prefix + "/groups/" + slugAddress(address) + "/state"
}

func (b *Bridge) programTopic(id string) string {
	return b.prefix + "/programs/" + id + "/state"
}

// Controller addresses contain spaces ("AA BB CC 1"); topics cannot.
func slugAddress(address string) string {
	return strings.ReplaceAll(address, " ", "_")
}

func unslugAddress(segment string) string {
	return strings.ReplaceAll(segment, "_", " ")
}

func randomClientID() string {
	nonce := make([]byte, 8)
	_, _ = rand.Read(nonce)
	return "isyhub-" + base64.RawURLEncoding.EncodeToString(nonce)
}
