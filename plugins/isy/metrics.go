package isy

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"isyhub/internal/xmldict"
)

// MetricsCollector scrapes the controller on every Prometheus collect.
type MetricsCollector struct {
	client *Client

	nodeState      *prometheus.GaugeVec
	nodeEnabled    *prometheus.GaugeVec
	groupMembers   *prometheus.GaugeVec
	programStatus  *prometheus.GaugeVec
	programEnabled *prometheus.GaugeVec
	programLastRun *prometheus.GaugeVec
	programNextRun *prometheus.GaugeVec
	rateLimit      *prometheus.GaugeVec
	nodesTotal     prometheus.Gauge
	groupsTotal    prometheus.Gauge
	programsTotal  prometheus.Gauge
	lastSuccess    prometheus.Gauge
	success        prometheus.Gauge
}

func NewMetricsCollector(client *Client) *MetricsCollector {
	nodeLabels := []string{"address", "name"}
	programLabels := []string{"id", "name"}
	return &MetricsCollector{
		client: client,
		nodeState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "isyhub_isy_node_state",
			Help: "Raw ST property value per node (0-255 for dimmers)",
		}, nodeLabels),
		nodeEnabled: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "isyhub_isy_node_enabled_bool",
			Help: "Node enabled flag (1=enabled, 0=disabled)",
		}, nodeLabels),
		groupMembers: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "isyhub_isy_group_members",
			Help: "Number of links in the group",
		}, nodeLabels),
		programStatus: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "isyhub_isy_program_status_bool",
			Help: "Program condition status (1=true, 0=false)",
		}, programLabels),
		programEnabled: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "isyhub_isy_program_enabled_bool",
			Help: "Program enabled flag (1=enabled, 0=disabled)",
		}, programLabels),
		programLastRun: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "isyhub_isy_program_last_run_timestamp_seconds",
			Help: "Last program run (epoch seconds, absent when never run)",
		}, programLabels),
		programNextRun: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "isyhub_isy_program_next_scheduled_run_timestamp_seconds",
			Help: "Next scheduled program run (epoch seconds)",
		}, programLabels),
		rateLimit: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "isyhub_isy_rate_limit",
			Help: "Declared request budget against the controller",
		}, []string{"window"}),
		nodesTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "isyhub_isy_nodes_total",
			Help: "Device nodes reported by the controller",
		}),
		groupsTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "isyhub_isy_groups_total",
			Help: "Groups (scenes) reported by the controller",
		}),
		programsTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "isyhub_isy_programs_total",
			Help: "Programs reported by the controller, folders excluded",
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "isyhub_isy_last_success_timestamp_seconds",
			Help: "Last successful controller scrape timestamp (epoch seconds)",
		}),
		success: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "isyhub_isy_scrape_success",
			Help: "Last scrape success (1=ok, 0=error)",
		}),
	}
}

func (c *MetricsCollector) Describe(ch chan<- *prometheus.Desc) {
	c.nodeState.Describe(ch)
	c.nodeEnabled.Describe(ch)
	c.groupMembers.Describe(ch)
	c.programStatus.Describe(ch)
	c.programEnabled.Describe(ch)
	c.programLastRun.Describe(ch)
	c.programNextRun.Describe(ch)
	c.rateLimit.Describe(ch)
	c.nodesTotal.Describe(ch)
	c.groupsTotal.Describe(ch)
	c.programsTotal.Describe(ch)
	c.lastSuccess.Describe(ch)
	c.success.Describe(ch)
}

func (c *MetricsCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for window, limit := range c.client.RateLimits().Limits() {
		c.rateLimit.WithLabelValues(window.String()).Set(float64(limit))
	}

	inv, err := c.client.Inventory(ctx)
	if err != nil {
		c.success.Set(0)
		c.collectAll(ch)
		return
	}

	programs, err := c.client.Programs(ctx)
	if err != nil {
		c.success.Set(0)
		c.collectAll(ch)
		return
	}

	c.nodeState.Reset()
	c.nodeEnabled.Reset()
	c.groupMembers.Reset()
	c.programStatus.Reset()
	c.programEnabled.Reset()
	c.programLastRun.Reset()
	c.programNextRun.Reset()

	for _, rec := range inv.Nodes {
		address := rec.Get("address").Text()
		name := rec.Get("name").ScalarText()
		if address == "" {
			continue
		}
		if raw := propertyByID(rec, "ST").Get("rawvalue"); raw != nil && raw.Kind == xmldict.KindString {
			if v, err := strconv.ParseFloat(raw.Str, 64); err == nil {
				c.nodeState.WithLabelValues(address, name).Set(v)
			}
		}
		if enabled := rec.Get("enabled"); enabled != nil && enabled.Kind == xmldict.KindBool {
			c.nodeEnabled.WithLabelValues(address, name).Set(boolToFloat(enabled.Bool))
		}
	}

	for _, rec := range inv.Groups {
		address := rec.Get("address").Text()
		name := rec.Get("name").ScalarText()
		if address == "" {
			continue
		}
		c.groupMembers.WithLabelValues(address, name).Set(float64(rec.Get("members").Len()))
	}

	activePrograms := 0
	for _, rec := range programs {
		if folder := rec.Get("folder"); folder != nil && folder.Kind == xmldict.KindBool && folder.Bool {
			continue
		}
		activePrograms++
		id := rec.Get("id").Text()
		name := rec.Get("name").ScalarText()
		if id == "" {
			continue
		}
		if status := rec.Get("status"); status != nil && status.Kind == xmldict.KindBool {
			c.programStatus.WithLabelValues(id, name).Set(boolToFloat(status.Bool))
		}
		if enabled := rec.Get("enabled"); enabled != nil && enabled.Kind == xmldict.KindBool {
			c.programEnabled.WithLabelValues(id, name).Set(boolToFloat(enabled.Bool))
		}
		if last := rec.Get("lastRunTime"); last != nil && last.Kind == xmldict.KindTime {
			c.programLastRun.WithLabelValues(id, name).Set(float64(last.Time.Unix()))
		}
		if next := rec.Get("nextScheduledRunTime"); next != nil && next.Kind == xmldict.KindTime {
			c.programNextRun.WithLabelValues(id, name).Set(float64(next.Time.Unix()))
		}
	}

	c.nodesTotal.Set(float64(len(inv.Nodes)))
	c.groupsTotal.Set(float64(len(inv.Groups)))
	c.programsTotal.Set(float64(activePrograms))
	c.success.Set(1)
	c.lastSuccess.Set(float64(time.Now().Unix()))

	c.collectAll(ch)
}

func (c *MetricsCollector) collectAll(ch chan<- prometheus.Metric) {
	c.nodeState.Collect(ch)
	c.nodeEnabled.Collect(ch)
	c.groupMembers.Collect(ch)
	c.programStatus.Collect(ch)
	c.programEnabled.Collect(ch)
	c.programLastRun.Collect(ch)
	c.programNextRun.Collect(ch)
	c.rateLimit.Collect(ch)
	c.nodesTotal.Collect(ch)
	c.groupsTotal.Collect(ch)
	c.programsTotal.Collect(ch)
	c.lastSuccess.Collect(ch)
	c.success.Collect(ch)
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
