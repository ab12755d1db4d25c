// Package metrics exposes codec and stream counters to Prometheus.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/thesyncim/gocelt"
	"github.com/thesyncim/gocelt/celt"
)

var (
	framesEncoded = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "celt_frames_encoded_total",
		Help: "Total number of frames encoded.",
	})
	framesDecoded = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "celt_frames_decoded_total",
		Help: "Total number of packets decoded, losses included.",
	})
	lossesConcealed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "celt_losses_concealed_total",
		Help: "Total number of lost packets concealed.",
	})
	packetBytes = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "celt_packet_bytes_total",
		Help: "Total number of packet bytes produced by encoders.",
	})
	streamErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "celt_errors_total",
		Help: "Total number of stream errors by kind.",
	}, []string{"kind"})
	streamsStarted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "celt_streams_started_total",
		Help: "Total number of streams started.",
	})
	activeStreams = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "celt_streams_active",
		Help: "Current number of open streams.",
	})
	liveHandles = prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "celt_engine_live_handles",
		Help: "Engine encoder and decoder handles not yet destroyed.",
	}, func() float64 {
		s := celt.LiveObjects()
		return float64(s.Encoders + s.Decoders)
	})
)

func init() {
	prometheus.MustRegister(framesEncoded, framesDecoded, lossesConcealed, packetBytes,
		streamErrors, streamsStarted, activeStreams, liveHandles)
}

func RecordEncoded(packetLen int) {
	framesEncoded.Inc()
	packetBytes.Add(float64(packetLen))
}

// RecordDecoded counts one decoded packet; an empty packet is a loss.
func RecordDecoded(packetLen int) {
	framesDecoded.Inc()
	if packetLen == 0 {
		lossesConcealed.Inc()
	}
}

func RecordStreamStarted() {
	streamsStarted.Inc()
	activeStreams.Inc()
}

func RecordStreamEnded() {
	activeStreams.Dec()
}

func RecordError(err error) {
	streamErrors.WithLabelValues(ErrorKind(err)).Inc()
}

// ErrorKind names the error category used as the metric label.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, gocelt.ErrConfig):
		return "config"
	case errors.Is(err, gocelt.ErrSize):
		return "size"
	case errors.Is(err, gocelt.ErrMode):
		return "mode"
	case errors.Is(err, gocelt.ErrEngine):
		return "engine"
	case errors.Is(err, gocelt.ErrEncode):
		return "encode"
	case errors.Is(err, gocelt.ErrDecode):
		return "decode"
	}
	return "other"
}
