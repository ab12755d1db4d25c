package main

import (
	"encoding/json"
	"net/http"

	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/thesyncim/gocelt"
	"github.com/thesyncim/gocelt/celt"
	"github.com/thesyncim/gocelt/internal/config"
	log "github.com/thesyncim/gocelt/internal/logger"
	"github.com/thesyncim/gocelt/internal/transport"
)

type healthResponse struct {
	Status      string `json:"status"`
	Streams     int    `json:"streams"`
	LiveHandles int64  `json:"live_handles"`
	SharedModes int    `json:"shared_modes"`
}

// newHandler wires the stream endpoints, /metrics and /healthz.
func newHandler(cfg config.Config) (http.Handler, *transport.Server) {
	pool := gocelt.NewModePool(nil)
	var origins func(string) bool
	if len(cfg.AllowedOrigins) > 0 {
		origins = transport.AllowOrigins(cfg.AllowedOrigins)
	}
	srv := transport.NewServer(transport.Config{
		Defaults:        cfg.Codec,
		OriginValidator: origins,
		PingInterval:    cfg.WSPingInterval,
		PongWait:        cfg.WSPongWait,
		MaxStreams:      cfg.MaxStreams,
		Pool:            pool,
	})

	mux := http.NewServeMux()
	srv.Register(mux)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		live := celt.LiveObjects()
		resp := healthResponse{
			Status:      "ok",
			Streams:     srv.Count(),
			LiveHandles: live.Encoders + live.Decoders,
			SharedModes: pool.Len(),
		}
		if err := writeJSONResponse(w, resp); err != nil {
			log.Error("failed to encode health response", "err", err)
		}
	})
	return mux, srv
}

type responseWriter struct {
	http.ResponseWriter
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(status int) {
	rw.wroteHeader = true
	rw.ResponseWriter.WriteHeader(status)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	return rw.ResponseWriter.Write(b)
}

func writeJSONResponse(w http.ResponseWriter, v any) error {
	w.Header().Set("Content-Type", "application/json")
	rw := &responseWriter{ResponseWriter: w}
	if err := json.NewEncoder(rw).Encode(v); err != nil {
		if !rw.wroteHeader {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
		return err
	}
	return nil
}
