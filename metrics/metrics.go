package metrics

import (
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jrwynneiii/portarx/receiver"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DSP holds the collectors for pipeline timing and receiver health.
type DSP struct {
	registry *prometheus.Registry

	stageSeconds *prometheus.HistogramVec // by mode and stage
	load         *prometheus.GaugeVec     // fraction of the block period spent processing
	blocks       *prometheus.CounterVec
	level        *prometheus.GaugeVec
	quality      *prometheus.GaugeVec
	packets      *prometheus.CounterVec // by mode and result
}

// NewDSP registers every collector on a fresh registry.
func NewDSP() *DSP {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &DSP{
		registry: reg,
		stageSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "portarx_stage_duration_seconds",
				Help:    "Time spent in each pipeline stage per block",
				Buckets: prometheus.ExponentialBuckets(1e-6, 2, 14), // 1us to 8ms
			},
			[]string{"mode", "stage"},
		),
		load: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "portarx_dsp_load_ratio",
				Help: "Processing time of the last block over its duration",
			},
			[]string{"mode"},
		),
		blocks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portarx_blocks_total",
				Help: "Sample blocks processed",
			},
			[]string{"mode"},
		),
		level: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "portarx_signal_level",
				Help: "Smoothed mean magnitude after the front end decimators",
			},
			[]string{"mode"},
		),
		quality: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "portarx_symbol_snr_db",
				Help: "Estimated SNR of recovered symbols",
			},
			[]string{"mode"},
		),
		packets: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portarx_packets_total",
				Help: "Packets framed, by decode result",
			},
			[]string{"mode", "result"},
		),
	}
}

// WatchCounter exports a monotonically increasing value read on scrape,
// such as the double buffer overrun count.
func (d *DSP) WatchCounter(name, help string, read func() uint64) {
	promauto.With(d.registry).NewCounterFunc(
		prometheus.CounterOpts{Name: name, Help: help},
		func() float64 { return float64(read()) },
	)
}

// ForMode resolves the per mode series once so the block path does no label
// lookups.
func (d *DSP) ForMode(name string) receiver.BlockObserver {
	return &modeObserver{
		decimate: d.stageSeconds.WithLabelValues(name, "decimate"),
		channel:  d.stageSeconds.WithLabelValues(name, "channel_filter"),
		demod:    d.stageSeconds.WithLabelValues(name, "demodulate"),
		audio:    d.stageSeconds.WithLabelValues(name, "audio"),
		load:     d.load.WithLabelValues(name),
		blocks:   d.blocks.WithLabelValues(name),
		level:    d.level.WithLabelValues(name),
		quality:  d.quality.WithLabelValues(name),
	}
}

// Packet counts one framed packet. result is "ok" or the reason it was
// rejected.
func (d *DSP) Packet(mode, result string) {
	d.packets.WithLabelValues(mode, result).Inc()
}

func (d *DSP) Handler() http.Handler {
	return promhttp.HandlerFor(d.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on listen until the server fails.
func (d *DSP) Serve(listen string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", d.Handler())
	log.Infof("[metrics] Serving on %s/metrics", listen)
	if err := http.ListenAndServe(listen, mux); err != nil {
		log.Errorf("[metrics] Server stopped: %s", err.Error())
	}
}

type modeObserver struct {
	decimate prometheus.Observer
	channel  prometheus.Observer
	demod    prometheus.Observer
	audio    prometheus.Observer
	load     prometheus.Gauge
	blocks   prometheus.Counter
	level    prometheus.Gauge
	quality  prometheus.Gauge
}

func (m *modeObserver) ObserveBlock(ts receiver.Timestamps, blockPeriod time.Duration, level float32, quality float64) {
	m.decimate.Observe(ts.DecimateEnd.Sub(ts.Start).Seconds())
	m.channel.Observe(ts.ChannelFilterEnd.Sub(ts.DecimateEnd).Seconds())
	m.demod.Observe(ts.DemodulateEnd.Sub(ts.ChannelFilterEnd).Seconds())
	m.audio.Observe(ts.AudioEnd.Sub(ts.DemodulateEnd).Seconds())
	if blockPeriod > 0 {
		m.load.Set(ts.AudioEnd.Sub(ts.Start).Seconds() / blockPeriod.Seconds())
	}
	m.blocks.Inc()
	m.level.Set(float64(level))
	m.quality.Set(quality)
}
