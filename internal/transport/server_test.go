package transport

import (
	"encoding/binary"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thesyncim/gocelt"
	"github.com/thesyncim/gocelt/internal/config"
	"github.com/thesyncim/gocelt/internal/testsignal"
)

func newTestServer(t *testing.T, cfg Config) (*Server, *httptest.Server) {
	t.Helper()
	s := NewServer(cfg)
	mux := http.NewServeMux()
	s.Register(mux)
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return s, ts
}

func dial(t *testing.T, ts *httptest.Server, path string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	u := "ws" + strings.TrimPrefix(ts.URL, "http") + path
	conn, resp, err := websocket.DefaultDialer.Dial(u, nil)
	if conn != nil {
		t.Cleanup(func() { conn.Close() })
	}
	return conn, resp, err
}

func int16Frame(frame int) []byte {
	pcm := testsignal.Int16(testsignal.Sine(48000, 440, 0.5, 256, 1, frame*256))
	b := make([]byte, len(pcm)*2)
	for i, v := range pcm {
		binary.LittleEndian.PutUint16(b[2*i:], uint16(v))
	}
	return b
}

func closeNormally(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	require.NoError(t, conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second)))
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	s, ts := newTestServer(t, Config{})

	enc, resp, err := dial(t, ts, "/ws/encode?rate=48000&frame=256&channels=1&format=Int16&bytes=200")
	require.NoError(t, err)
	_, err = uuid.Parse(resp.Header.Get(StreamIDHeader))
	require.NoError(t, err, "stream id header")

	const frames = 8
	var packets [][]byte
	for f := range frames {
		require.NoError(t, enc.WriteMessage(websocket.BinaryMessage, int16Frame(f)))
		mt, p, err := enc.ReadMessage()
		require.NoError(t, err)
		require.Equal(t, websocket.BinaryMessage, mt)
		require.NotEmpty(t, p)
		require.LessOrEqual(t, len(p), 200)
		packets = append(packets, p)
	}
	require.Eventually(t, func() bool { return s.Count() == 1 }, time.Second, 10*time.Millisecond)
	info := s.Streams()[0]
	assert.Equal(t, KindEncode, info.Kind)
	assert.Equal(t, 200, info.PacketSize)
	closeNormally(t, enc)

	dec, _, err := dial(t, ts, "/ws/decode?format=Int16")
	require.NoError(t, err)
	packets[3] = []byte{}
	for i, p := range packets {
		require.NoError(t, dec.WriteMessage(websocket.BinaryMessage, p))
		_, pcm, err := dec.ReadMessage()
		require.NoError(t, err, "packet %d", i)
		assert.Len(t, pcm, 256*2, "packet %d", i)
	}
	closeNormally(t, dec)

	require.Eventually(t, func() bool { return s.Count() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestDefaultsFromConfig(t *testing.T) {
	defaults := config.Default().Codec
	defaults.Channels = 2
	defaults.Format = "Float32"
	_, ts := newTestServer(t, Config{Defaults: defaults})

	conn, _, err := dial(t, ts, "/ws/encode")
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, make([]byte, 256*2*4)))
	_, p, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.NotEmpty(t, p)
}

func TestBadParamsRejectedBeforeUpgrade(t *testing.T) {
	_, ts := newTestServer(t, Config{})

	tests := []struct {
		query string
		want  string
	}{
		{"channels=0", "channels"},
		{"rate=8000", "rate"},
		{"format=int16", "int16"},
		{"bytes=0", "bytes"},
		{"frame=abc", "frame"},
		{"channels=3", "encoder create"},
	}
	for _, tt := range tests {
		_, resp, err := dial(t, ts, "/ws/encode?"+tt.query)
		require.ErrorIs(t, err, websocket.ErrBadHandshake, tt.query)
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, tt.query)
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		assert.Contains(t, string(body), tt.want, tt.query)
	}
}

func closeErr(t *testing.T, conn *websocket.Conn) *websocket.CloseError {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	var ce *websocket.CloseError
	require.True(t, errors.As(err, &ce), "got %v", err)
	return ce
}

func TestSizeErrorClosesStream(t *testing.T) {
	_, ts := newTestServer(t, Config{})
	conn, _, err := dial(t, ts, "/ws/encode")
	require.NoError(t, err)

	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, make([]byte, 10)))
	ce := closeErr(t, conn)
	assert.Equal(t, websocket.CloseInvalidFramePayloadData, ce.Code)
	assert.Contains(t, ce.Text, "chunk has 10 bytes, want 512")
}

func counterValue(t *testing.T, name string) float64 {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() == name {
			return mf.GetMetric()[0].GetCounter().GetValue()
		}
	}
	t.Fatalf("metric %s not registered", name)
	return 0
}

func TestCorruptPacketClosesStream(t *testing.T) {
	_, ts := newTestServer(t, Config{})
	conn, _, err := dial(t, ts, "/ws/decode")
	require.NoError(t, err)

	before := counterValue(t, "celt_frames_decoded_total")
	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, make([]byte, gocelt.MaxPacketSize+1)))
	ce := closeErr(t, conn)
	assert.Equal(t, websocket.CloseInvalidFramePayloadData, ce.Code)
	assert.Equal(t, before, counterValue(t, "celt_frames_decoded_total"), "rejected packet counted as decoded")
}

func TestDecodedFramesCounted(t *testing.T) {
	_, ts := newTestServer(t, Config{})
	conn, _, err := dial(t, ts, "/ws/decode?rate=48000&frame=256&channels=1&format=Int16")
	require.NoError(t, err)

	decoded := counterValue(t, "celt_frames_decoded_total")
	lost := counterValue(t, "celt_losses_concealed_total")
	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, []byte{}))
	_, pcm, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Len(t, pcm, 512)
	assert.Equal(t, decoded+1, counterValue(t, "celt_frames_decoded_total"))
	assert.Equal(t, lost+1, counterValue(t, "celt_losses_concealed_total"))
}

func TestTruncateReason(t *testing.T) {
	assert.Equal(t, "short", truncateReason("short"))

	long := strings.Repeat("é", 100)
	got := truncateReason(long)
	assert.LessOrEqual(t, len(got), maxCloseReason)
	assert.True(t, utf8.ValidString(got))
	assert.Len(t, got, 122)

	ascii := strings.Repeat("a", 200)
	assert.Len(t, truncateReason(ascii), maxCloseReason)
}

func TestTextMessageClosesStream(t *testing.T) {
	_, ts := newTestServer(t, Config{})
	conn, _, err := dial(t, ts, "/ws/decode")
	require.NoError(t, err)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("hello")))
	ce := closeErr(t, conn)
	assert.Equal(t, websocket.CloseUnsupportedData, ce.Code)
}

func TestMaxStreams(t *testing.T) {
	s, ts := newTestServer(t, Config{MaxStreams: 1})
	_, _, err := dial(t, ts, "/ws/encode")
	require.NoError(t, err)
	require.Eventually(t, func() bool { return s.Count() == 1 }, time.Second, 10*time.Millisecond)

	_, resp, err := dial(t, ts, "/ws/decode")
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestOriginCheck(t *testing.T) {
	_, ts := newTestServer(t, Config{OriginValidator: AllowOrigins([]string{"https://ok.example"})})
	u := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/encode"

	for origin, ok := range map[string]bool{"https://ok.example": true, "https://evil.example": false} {
		conn, _, err := websocket.DefaultDialer.Dial(u, http.Header{"Origin": {origin}})
		if ok {
			require.NoError(t, err, origin)
			conn.Close()
		} else {
			require.ErrorIs(t, err, websocket.ErrBadHandshake, origin)
		}
	}
}

func TestAllowOrigins(t *testing.T) {
	assert.True(t, AllowOrigins([]string{"*"})("https://any.example"))
	assert.False(t, AllowOrigins(nil)("https://any.example"))
}

func TestParseParams(t *testing.T) {
	d := config.Default().Codec
	p, err := parseParams(url.Values{"rate": {"44100"}, "frame": {"512"}, "channels": {"2"}, "format": {"Float32"}, "bytes": {"300"}}, d)
	require.NoError(t, err)
	assert.Equal(t, gocelt.Config{SampleRate: 44100, FrameSize: 512, Channels: 2, ResourceMode: gocelt.Manual}, p.cfg)
	assert.Equal(t, gocelt.FormatFloat32LE, p.format)
	assert.Equal(t, 300, p.packetSize)

	_, err = parseParams(url.Values{"channels": {"0"}}, d)
	var ce *gocelt.ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "channels", ce.Field)
}
