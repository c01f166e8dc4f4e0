package core

import "github.com/prometheus/client_golang/prometheus"

// MetricsRegistry builds a registry from plugin collectors.
func MetricsRegistry(plugins []Plugin) *prometheus.Registry {
	registry := prometheus.NewRegistry()

	for _, plugin := range plugins {
		for _, collector := range plugin.Collectors() {
			registry.MustRegister(collector)
		}
	}

	return registry
}

// BuildInfo exposes a constant gauge carrying the hub version label.
func BuildInfo(version string) prometheus.Collector {
	gauge := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "isyhub_build_info",
		Help: "Build information",
	}, []string{"version"})
	gauge.WithLabelValues(version).Set(1)
	return gauge
}
