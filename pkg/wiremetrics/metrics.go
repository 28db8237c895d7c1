// Package wiremetrics exports buffer and packet events as Prometheus
// metrics.
package wiremetrics

import (
	"errors"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rawbytedev/wirebuf"
)

// Collector owns one set of packet metrics. Observers handed out by For
// share it and label their events with the buffer name.
type Collector struct {
	registerOnce sync.Once

	written    *prometheus.CounterVec
	read       *prometheus.CounterVec
	incomplete *prometheus.CounterVec
	rejected   *prometheus.CounterVec
	compacted  *prometheus.CounterVec
	grown      *prometheus.CounterVec
	payload    *prometheus.HistogramVec
	capacity   *prometheus.GaugeVec
}

var sizeBuckets = prometheus.ExponentialBuckets(16, 4, 9)

func NewCollector(namespace string) *Collector {
	if namespace == "" {
		namespace = "wirebuf"
	}
	labels := []string{"buffer"}
	return &Collector{
		written: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "packet",
				Name:      "written_total",
				Help:      "Packets framed.",
			},
			labels,
		),
		read: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "packet",
				Name:      "read_total",
				Help:      "Packets consumed.",
			},
			labels,
		),
		incomplete: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "packet",
				Name:      "incomplete_total",
				Help:      "Read attempts that found a partial packet.",
			},
			labels,
		),
		rejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "packet",
				Name:      "rejected_total",
				Help:      "Packets rejected by framing checks.",
			},
			[]string{"buffer", "reason"},
		),
		compacted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "buffer",
				Name:      "compacted_bytes_total",
				Help:      "Bytes moved by compaction.",
			},
			labels,
		),
		grown: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "buffer",
				Name:      "grown_total",
				Help:      "Storage reallocations.",
			},
			labels,
		),
		payload: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "packet",
				Name:      "payload_bytes",
				Help:      "Payload size of framed packets.",
				Buckets:   sizeBuckets,
			},
			labels,
		),
		capacity: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "buffer",
				Name:      "capacity_bytes",
				Help:      "Storage capacity after the last growth.",
			},
			labels,
		),
	}
}

// Register adds the collector's metrics to reg, or to the default
// registerer when reg is nil. Repeated calls are no-ops.
func (c *Collector) Register(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	c.registerOnce.Do(func() {
		reg.MustRegister(c.written, c.read, c.incomplete, c.rejected,
			c.compacted, c.grown, c.payload, c.capacity)
	})
}

// For returns an observer reporting under the given buffer name.
func (c *Collector) For(name string) wirebuf.Observer {
	return &observer{c: c, name: name}
}

// Reason maps a framing error to its rejected_total label.
func Reason(err error) string {
	switch {
	case errors.Is(err, wirebuf.ErrCorruptLength):
		return "corrupt_length"
	case errors.Is(err, wirebuf.ErrPacketTooLarge):
		return "too_large"
	case errors.Is(err, wirebuf.ErrCorruption):
		return "checksum"
	default:
		return "other"
	}
}

type observer struct {
	c    *Collector
	name string
}

func (o *observer) PacketWritten(payload int) {
	o.c.written.WithLabelValues(o.name).Inc()
	o.c.payload.WithLabelValues(o.name).Observe(float64(payload))
}

func (o *observer) PacketRead(int) {
	o.c.read.WithLabelValues(o.name).Inc()
}

func (o *observer) PacketIncomplete() {
	o.c.incomplete.WithLabelValues(o.name).Inc()
}

func (o *observer) PacketRejected(err error) {
	o.c.rejected.WithLabelValues(o.name, Reason(err)).Inc()
}

func (o *observer) Compacted(moved int) {
	o.c.compacted.WithLabelValues(o.name).Add(float64(moved))
}

func (o *observer) Grew(_, to int) {
	o.c.grown.WithLabelValues(o.name).Inc()
	o.c.capacity.WithLabelValues(o.name).Set(float64(to))
}
