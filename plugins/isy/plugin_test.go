package isy

import (
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"isyhub/internal/config"
	"isyhub/internal/core"
)

func TestNewPluginGating(t *testing.T) {
	if _, ok := NewPlugin(nil); ok {
		t.Fatalf("expected no plugin without config")
	}
	if _, ok := NewPlugin(&config.Config{}); ok {
		t.Fatalf("expected no plugin without isy section")
	}

	plugin, ok := NewPlugin(&config.Config{ISY: &config.ISYConfig{
		Host:     "isy.local",
		Username: "admin",
		Password: "hub-secret",
	}})
	if !ok {
		t.Fatalf("expected plugin for configured section")
	}
	if plugin.Health() != core.HealthHealthy {
		t.Fatalf("unexpected health: %s", plugin.Health())
	}
	if plugin.ID() != "isy" {
		t.Fatalf("unexpected id: %s", plugin.ID())
	}
	if len(plugin.Dashboards()) != 1 {
		t.Fatalf("expected one dashboard, got %d", len(plugin.Dashboards()))
	}
	if len(plugin.Collectors()) == 0 {
		t.Fatalf("expected collectors")
	}
}

func TestNewPluginReportsBrokenConfig(t *testing.T) {
	plugin, ok := NewPlugin(&config.Config{ISY: &config.ISYConfig{
		Host:         "isy.local",
		Username:     "admin",
		PasswordFile: filepath.Join(t.TempDir(), "missing"),
	}})
	if !ok {
		t.Fatalf("a broken section should still register so it can report")
	}
	if plugin.Health() != core.HealthError {
		t.Fatalf("unexpected health: %s", plugin.Health())
	}
	if plugin.HealthMessage() == "" {
		t.Fatalf("expected a health message")
	}
	if plugin.Collectors() != nil {
		t.Fatalf("expected no collectors without a client")
	}
}

func TestMetricsCollector(t *testing.T) {
	controller := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/xml; charset=UTF-8")
		switch r.URL.Path {
		case "/rest/nodes":
			_, _ = io.WriteString(w, nodesDocument)
		case "/rest/programs":
			_, _ = io.WriteString(w, programsDocument)
		default:
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
	}))
	defer controller.Close()

	client, err := NewClient(Config{
		Host:              strings.TrimPrefix(controller.URL, "http://"),
		Username:          "admin",
		Password:          "hub-secret",
		RequestsPerSecond: 100,
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	registry := prometheus.NewPedanticRegistry()
	if err := registry.Register(NewMetricsCollector(client)); err != nil {
		t.Fatalf("register: %v", err)
	}

	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}

	values := map[string]float64{}
	for _, mf := range families {
		if len(mf.GetMetric()) == 0 {
			continue
		}
		values[mf.GetName()] = mf.GetMetric()[0].GetGauge().GetValue()
	}

	checks := map[string]float64{
		"isyhub_isy_scrape_success": 1,
		"isyhub_isy_nodes_total":    1,
		"isyhub_isy_groups_total":   1,
		// Three programs in the document, one of them a folder.
		"isyhub_isy_programs_total": 2,
		"isyhub_isy_node_state":     255,
		"isyhub_isy_group_members":  1,
		"isyhub_isy_rate_limit":     100,
	}
	for name, want := range checks {
		got, ok := values[name]
		if !ok {
			t.Fatalf("metric %s missing from %v", name, values)
		}
		if got != want {
			t.Fatalf("metric %s: expected %v, got %v", name, want, got)
		}
	}
}
