package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jrwynneiii/portarx/receiver"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForMode_ObserveBlock(t *testing.T) {
	d := NewDSP()
	obs := d.ForMode("AIS")

	start := time.Unix(100, 0)
	ts := receiver.Timestamps{
		Start:            start,
		DecimateEnd:      start.Add(100 * time.Microsecond),
		ChannelFilterEnd: start.Add(150 * time.Microsecond),
		DemodulateEnd:    start.Add(200 * time.Microsecond),
		AudioEnd:         start.Add(200 * time.Microsecond),
	}
	obs.ObserveBlock(ts, 800*time.Microsecond, 42, 12.5)
	obs.ObserveBlock(ts, 800*time.Microsecond, 42, 12.5)

	assert.Equal(t, 2.0, testutil.ToFloat64(d.blocks.WithLabelValues("AIS")))
	assert.InDelta(t, 0.25, testutil.ToFloat64(d.load.WithLabelValues("AIS")), 1e-9)
	assert.Equal(t, 42.0, testutil.ToFloat64(d.level.WithLabelValues("AIS")))
	assert.Equal(t, 12.5, testutil.ToFloat64(d.quality.WithLabelValues("AIS")))
	assert.Equal(t, 4, testutil.CollectAndCount(d.stageSeconds))
}

func TestWatchCounterAndHandler(t *testing.T) {
	d := NewDSP()
	var overruns uint64 = 3
	d.WatchCounter("portarx_overruns_total", "Blocks lost to a slow pipeline", func() uint64 { return overruns })
	d.Packet("TPMS-ASK", "ok")

	rec := httptest.NewRecorder()
	d.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)

	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "portarx_overruns_total 3"), body)
	assert.True(t, strings.Contains(body, `portarx_packets_total{mode="TPMS-ASK",result="ok"} 1`), body)
}
