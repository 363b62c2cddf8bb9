// Package telemetry exposes Prometheus metrics for the CTAPHID framer and
// CTAP2 dispatcher, for observability only: no metric read ever influences
// protocol control flow.
package telemetry

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "fidocore"
	subsystem = "agent"
)

// Label names.
const (
	labelCommand = "command"
	labelCode    = "code"
)

// Collector holds all fidocore-agent Prometheus metrics.
type Collector struct {
	// PacketsHandled counts inbound HID packets processed by the framer.
	PacketsHandled prometheus.Counter

	// MessagesCompleted counts messages the framer delivered as complete,
	// labeled by CTAPHID command.
	MessagesCompleted *prometheus.CounterVec

	// FramingErrors counts CTAPHID_ERROR completions, labeled by error code.
	FramingErrors *prometheus.CounterVec

	// DispatchedCommands counts CTAP2 commands routed to a handler or to
	// authenticatorGetInfo, labeled by command byte.
	DispatchedCommands *prometheus.CounterVec

	// AllocatedChannels tracks the number of channel ids a Framer has
	// allocated over its lifetime.
	AllocatedChannels prometheus.Gauge
}

// NewCollector creates a Collector with all metrics registered against reg.
// If reg is nil, prometheus.DefaultRegisterer is used.
func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := newMetrics()

	reg.MustRegister(
		c.PacketsHandled,
		c.MessagesCompleted,
		c.FramingErrors,
		c.DispatchedCommands,
		c.AllocatedChannels,
	)

	return c
}

func newMetrics() *Collector {
	return &Collector{
		PacketsHandled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "hid_packets_handled_total",
			Help:      "Total inbound HID packets processed by the framer.",
		}),

		MessagesCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "hid_messages_completed_total",
			Help:      "Total complete CTAPHID messages delivered, by command.",
		}, []string{labelCommand}),

		FramingErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "hid_framing_errors_total",
			Help:      "Total CTAPHID_ERROR completions, by error code.",
		}, []string{labelCode}),

		DispatchedCommands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "ctap2_commands_dispatched_total",
			Help:      "Total CTAP2 commands dispatched, by command byte.",
		}, []string{labelCommand}),

		AllocatedChannels: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "hid_channels_allocated",
			Help:      "Number of CTAPHID channel ids allocated over the framer's lifetime.",
		}),
	}
}

// ObservePacket records one inbound HID packet handled by the framer.
func (c *Collector) ObservePacket() {
	c.PacketsHandled.Inc()
}

// ObserveMessageCompleted records a completed CTAPHID message for cmd.
func (c *Collector) ObserveMessageCompleted(cmd byte) {
	c.MessagesCompleted.WithLabelValues(commandLabel(cmd)).Inc()
}

// ObserveFramingError records a CTAPHID_ERROR completion with the given
// error code.
func (c *Collector) ObserveFramingError(code byte) {
	c.FramingErrors.WithLabelValues(fmt.Sprintf("0x%02X", code)).Inc()
}

// ObserveDispatch records one CTAP2 command dispatched by the
// authenticator, successful or not.
func (c *Collector) ObserveDispatch(command byte) {
	c.DispatchedCommands.WithLabelValues(commandLabel(command)).Inc()
}

// ObserveChannelAllocated records one new channel id allocation.
func (c *Collector) ObserveChannelAllocated() {
	c.AllocatedChannels.Inc()
}

func commandLabel(cmd byte) string {
	return fmt.Sprintf("0x%02X", cmd)
}
