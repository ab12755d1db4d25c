package main

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thesyncim/gocelt/internal/config"
)

func TestHealthz(t *testing.T) {
	handler, _ := newHandler(config.Default())
	ts := httptest.NewServer(handler)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var h healthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&h))
	assert.Equal(t, "ok", h.Status)
	assert.Zero(t, h.Streams)
}

func TestMetricsAfterStream(t *testing.T) {
	handler, srv := newHandler(config.Default())
	ts := httptest.NewServer(handler)
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws/encode", nil)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, make([]byte, 512)))
	_, packet, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.NotEmpty(t, packet)
	assert.Equal(t, 1, srv.Count())

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	var h healthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&h))
	resp.Body.Close()
	assert.Equal(t, 1, h.Streams)
	assert.Equal(t, 1, h.SharedModes)
	assert.GreaterOrEqual(t, h.LiveHandles, int64(1))
	conn.Close()

	resp, err = http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	for _, name := range []string{"celt_frames_encoded_total", "celt_packet_bytes_total", "celt_streams_active", "celt_engine_live_handles"} {
		assert.Contains(t, string(body), name)
	}
}

func TestWriteJSONResponse(t *testing.T) {
	rr := httptest.NewRecorder()
	require.NoError(t, writeJSONResponse(rr, healthResponse{Status: "ok"}))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok","streams":0,"live_handles":0,"shared_modes":0}`, rr.Body.String())

	rr = httptest.NewRecorder()
	assert.Error(t, writeJSONResponse(rr, make(chan int)))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}
