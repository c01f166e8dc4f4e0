package isy

import (
	"context"
	_ "embed"
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"isyhub/internal/config"
	"isyhub/internal/core"
	"isyhub/internal/rate"
)

//go:embed dashboard.json
var dashboardJSON []byte

// Plugin implements the hub plugin contract for the controller.
type Plugin struct {
	client        *Client
	mqttCfg       *config.MQTTConfig
	health        core.HealthStatus
	healthMessage string
}

var _ rate.RateLimited = (*Plugin)(nil)

// NewPlugin constructs the controller plugin from the loaded config.
func NewPlugin(cfg *config.Config) (Plugin, bool) {
	if cfg == nil || cfg.ISY == nil {
		return Plugin{}, false
	}

	clientCfg, err := FromConfig(cfg.ISY)
	if err != nil {
		return Plugin{health: core.HealthError, healthMessage: err.Error()}, true
	}

	client, err := NewClient(clientCfg)
	if err != nil {
		return Plugin{health: core.HealthError, healthMessage: err.Error()}, true
	}

	return Plugin{client: client, mqttCfg: cfg.MQTT, health: core.HealthHealthy}, true
}

func (p Plugin) ID() string {
	return "isy"
}

func (p Plugin) Manifest() core.Manifest {
	return core.Manifest{
		PluginID:    "isy",
		DisplayName: "ISY Controller",
		Version:     "0.1.0",
	}
}

func (p Plugin) Dashboards() []core.Dashboard {
	return []core.Dashboard{{Name: "isy-overview", JSON: dashboardJSON}}
}

func (p Plugin) RateLimits() rate.Declaration {
	if p.client == nil {
		return rate.Provider("isy")
	}
	return p.client.RateLimits()
}

func (p Plugin) Collectors() []prometheus.Collector {
	if p.client == nil {
		return nil
	}
	collectors := []prometheus.Collector{NewMetricsCollector(p.client)}
	return append(collectors, rate.MetricsCollectors()...)
}

func (p Plugin) Health() core.HealthStatus {
	return p.health
}

func (p Plugin) HealthMessage() string {
	return p.healthMessage
}

// RegisterRoutes mounts the controller API under /api/isy.
func (p Plugin) RegisterRoutes(r chi.Router) {
	if p.client == nil {
		return
	}
	registerRoutes(r, p.client)
}

// Run operates the MQTT state bridge when one is configured. The broker
// connection happens here so a down broker never blocks hub startup.
func (p Plugin) Run(ctx context.Context) error {
	if p.client == nil || p.mqttCfg == nil {
		return nil
	}
	bridge, err := NewBridge(p.client, p.mqttCfg, slog.Default())
	if err != nil {
		return err
	}
	return bridge.Run(ctx)
}
