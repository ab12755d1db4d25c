// Package transport serves encode and decode streams over WebSocket. Each
// binary message is one chunk of the stream; an empty message sent to a
// decode stream is a lost packet.
package transport

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/thesyncim/gocelt"
	"github.com/thesyncim/gocelt/internal/config"
	log "github.com/thesyncim/gocelt/internal/logger"
	"github.com/thesyncim/gocelt/internal/metrics"
)

// StreamIDHeader carries the stream id in the upgrade response.
const StreamIDHeader = "X-Celt-Stream-Id"

const (
	KindEncode = "encode"
	KindDecode = "decode"
)

const (
	defaultPingInterval = 30 * time.Second
	defaultPongWait     = 60 * time.Second
	defaultMaxStreams   = 64
	maxMessageSize      = 64 * 1024
)

// Config configures a Server.
type Config struct {
	// Defaults fill in query parameters the client omits.
	Defaults config.Codec

	// OriginValidator accepts browser origins other than the server's own.
	// Requests without an Origin header are always accepted.
	OriginValidator func(string) bool

	PingInterval time.Duration
	PongWait     time.Duration
	MaxStreams   int

	// Pool shares engine modes between streams; nil uses a private pool.
	Pool *gocelt.ModePool
}

func (c *Config) applyDefaults() {
	if c.Defaults == (config.Codec{}) {
		c.Defaults = config.Default().Codec
	}
	if c.OriginValidator == nil {
		c.OriginValidator = func(string) bool { return false }
	}
	if c.PingInterval <= 0 {
		c.PingInterval = defaultPingInterval
	}
	if c.PongWait <= 0 {
		c.PongWait = defaultPongWait
	}
	if c.MaxStreams <= 0 {
		c.MaxStreams = defaultMaxStreams
	}
	if c.Pool == nil {
		c.Pool = gocelt.NewModePool(nil)
	}
}

// StreamInfo describes an open stream.
type StreamInfo struct {
	ID         string
	Kind       string
	Config     gocelt.Config
	Format     gocelt.SampleFormat
	PacketSize int
	Started    time.Time
}

// Server accepts WebSocket streams.
type Server struct {
	cfg      Config
	upgrader websocket.Upgrader

	mu      sync.Mutex
	streams map[string]StreamInfo
}

// NewServer returns a Server.
func NewServer(cfg Config) *Server {
	cfg.applyDefaults()
	s := &Server{cfg: cfg, streams: make(map[string]StreamInfo)}
	s.upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			if origin == "http://"+r.Host || origin == "https://"+r.Host {
				return true
			}
			return cfg.OriginValidator(origin)
		},
	}
	return s
}

// Register installs the stream endpoints on mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/ws/encode", s.HandleEncode)
	mux.HandleFunc("/ws/decode", s.HandleDecode)
}

// Count returns the number of open streams.
func (s *Server) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.streams)
}

// Streams returns the open streams, oldest first.
func (s *Server) Streams() []StreamInfo {
	s.mu.Lock()
	out := make([]StreamInfo, 0, len(s.streams))
	for _, info := range s.streams {
		out = append(out, info)
	}
	s.mu.Unlock()
	slices.SortFunc(out, func(a, b StreamInfo) int { return a.Started.Compare(b.Started) })
	return out
}

func (s *Server) admit(info StreamInfo) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.streams) >= s.cfg.MaxStreams {
		return false
	}
	s.streams[info.ID] = info
	return true
}

func (s *Server) remove(id string) {
	s.mu.Lock()
	delete(s.streams, id)
	s.mu.Unlock()
}

// AllowOrigins returns a validator accepting the listed origins; "*"
// accepts any origin.
func AllowOrigins(origins []string) func(string) bool {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return func(origin string) bool {
		return allowed["*"] || allowed[origin]
	}
}

// params are the stream settings requested in the query string.
type params struct {
	cfg        gocelt.Config
	format     gocelt.SampleFormat
	packetSize int
}

// parseParams reads rate, frame, channels, format and bytes, falling back
// to d for missing keys. Sessions are always manual so the handler can
// release them when the socket closes.
func parseParams(q url.Values, d config.Codec) (params, error) {
	p := params{cfg: d.SessionConfig(), packetSize: d.PacketSize}
	p.cfg.ResourceMode = gocelt.Manual

	var errs []error
	intParam := func(key string, dst *int) {
		if v := q.Get(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("invalid %s %q", key, v))
				return
			}
			*dst = n
		}
	}
	intParam("rate", &p.cfg.SampleRate)
	intParam("frame", &p.cfg.FrameSize)
	intParam("channels", &p.cfg.Channels)
	intParam("bytes", &p.packetSize)

	format := d.Format
	if v := q.Get("format"); v != "" {
		format = v
	}
	f, err := gocelt.ParseSampleFormat(format)
	if err != nil {
		errs = append(errs, err)
	}
	p.format = f

	if len(errs) == 0 {
		if err := p.cfg.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	if p.packetSize < 1 || p.packetSize > gocelt.MaxPacketSize {
		errs = append(errs, fmt.Errorf("invalid bytes %d: must be in [1, %d]", p.packetSize, gocelt.MaxPacketSize))
	}
	return p, errors.Join(errs...)
}

// newTransformer builds the session and stream adapter for kind. release
// destroys the session.
func newTransformer(kind string, p params, pool *gocelt.ModePool) (gocelt.Transformer, func() error, error) {
	opts := []gocelt.Option{gocelt.WithModePool(pool)}
	switch kind {
	case KindEncode:
		enc, err := gocelt.NewEncoder(p.cfg, opts...)
		if err != nil {
			return nil, nil, err
		}
		es, err := gocelt.NewEncodeStream(enc, p.format, p.packetSize)
		if err != nil {
			return nil, nil, errors.Join(err, enc.Release())
		}
		return es, enc.Release, nil
	case KindDecode:
		dec, err := gocelt.NewDecoder(p.cfg, opts...)
		if err != nil {
			return nil, nil, err
		}
		ds, err := gocelt.NewDecodeStream(dec, p.format)
		if err != nil {
			return nil, nil, errors.Join(err, dec.Release())
		}
		return ds, dec.Release, nil
	}
	return nil, nil, fmt.Errorf("transport: unknown stream kind %q", kind)
}

// HandleEncode serves /ws/encode: PCM frames in, packets out.
func (s *Server) HandleEncode(w http.ResponseWriter, r *http.Request) {
	s.serve(w, r, KindEncode)
}

// HandleDecode serves /ws/decode: packets in, PCM frames out.
func (s *Server) HandleDecode(w http.ResponseWriter, r *http.Request) {
	s.serve(w, r, KindDecode)
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request, kind string) {
	p, err := parseParams(r.URL.Query(), s.cfg.Defaults)
	if err != nil {
		metrics.RecordError(err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	info := StreamInfo{
		ID:         uuid.NewString(),
		Kind:       kind,
		Config:     p.cfg,
		Format:     p.format,
		PacketSize: p.packetSize,
		Started:    time.Now(),
	}
	if !s.admit(info) {
		http.Error(w, "too many streams", http.StatusServiceUnavailable)
		return
	}
	defer s.remove(info.ID)

	l := log.With("stream", info.ID, "kind", kind)

	t, release, err := newTransformer(kind, p, s.cfg.Pool)
	if err != nil {
		metrics.RecordError(err)
		l.Warn("Stream not created", "err", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer func() {
		if err := release(); err != nil {
			l.Warn("Session release failed", "err", err)
		}
	}()

	conn, err := s.upgrader.Upgrade(w, r, http.Header{StreamIDHeader: {info.ID}})
	if err != nil {
		l.Warn("WebSocket upgrade error", "err", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxMessageSize)

	metrics.RecordStreamStarted()
	defer metrics.RecordStreamEnded()
	l.Info("Stream opened",
		"rate", p.cfg.SampleRate, "frame", p.cfg.FrameSize,
		"channels", p.cfg.Channels, "format", p.format, "bytes", p.packetSize)

	var writeMu sync.Mutex
	stop := setupPingPong(conn, &writeMu, s.cfg.PingInterval, s.cfg.PongWait)
	defer stop()

	src := &wsSource{conn: conn}
	dst := &wsSink{conn: conn, mu: &writeMu, kind: kind, src: src}
	err = gocelt.RunStream(r.Context(), t, src, dst)
	switch {
	case err == nil:
		l.Info("Stream closed")
	case errors.Is(err, gocelt.ErrStreamFaulted):
		metrics.RecordError(err)
		l.Warn("Stream faulted", "err", err)
		sendClose(&writeMu, conn, closeCode(err), err.Error())
	case errors.Is(err, errTextMessage):
		sendClose(&writeMu, conn, websocket.CloseUnsupportedData, err.Error())
	default:
		l.Debug("Stream ended", "err", err)
	}
}
