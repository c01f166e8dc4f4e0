package overview

import (
	_ "embed"

	"github.com/prometheus/client_golang/prometheus"

	"isyhub/internal/config"
	"isyhub/internal/core"
)

//go:embed dashboard.json
var dashboardJSON []byte

// Plugin serves the hub-level overview dashboard. It owns no client and
// no collectors; it exists so Grafana provisioning picks the dashboard up
// alongside the plugin ones.
type Plugin struct{}

// NewPlugin constructs the overview plugin when the section is present.
func NewPlugin(cfg *config.Config) (Plugin, bool) {
	if cfg == nil || cfg.Overview == nil {
		return Plugin{}, false
	}
	return Plugin{}, true
}

func (p Plugin) ID() string {
	return "overview"
}

func (p Plugin) Manifest() core.Manifest {
	return core.Manifest{
		PluginID:    "overview",
		DisplayName: "Hub Overview",
		Version:     "0.1.0",
	}
}

func (p Plugin) Dashboards() []core.Dashboard {
	return []core.Dashboard{{Name: "hub-overview", JSON: dashboardJSON}}
}

func (p Plugin) Collectors() []prometheus.Collector {
	return nil
}

func (p Plugin) Health() core.HealthStatus {
	return core.HealthHealthy
}

func (p Plugin) HealthMessage() string {
	return ""
}
