package metrics

import (
	"errors"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/thesyncim/gocelt"
)

func TestErrorKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&gocelt.ConfigError{Field: "channels"}, "config"},
		{&gocelt.SizeError{Got: 1, Want: 2}, "size"},
		{&gocelt.ModeError{Value: "x"}, "mode"},
		{&gocelt.EngineError{Op: "mode create", Err: errors.New("x")}, "engine"},
		{fmt.Errorf("stream: %w", &gocelt.EncodeError{Err: errors.New("x")}), "encode"},
		{&gocelt.DecodeError{Err: errors.New("x")}, "decode"},
		{errors.New("socket closed"), "other"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ErrorKind(tt.err), "%v", tt.err)
	}
}

func TestCounters(t *testing.T) {
	enc := testutil.ToFloat64(framesEncoded)
	bytes := testutil.ToFloat64(packetBytes)
	dec := testutil.ToFloat64(framesDecoded)
	lost := testutil.ToFloat64(lossesConcealed)

	RecordEncoded(120)
	RecordEncoded(80)
	RecordDecoded(120)
	RecordDecoded(0)

	assert.Equal(t, enc+2, testutil.ToFloat64(framesEncoded))
	assert.Equal(t, bytes+200, testutil.ToFloat64(packetBytes))
	assert.Equal(t, dec+2, testutil.ToFloat64(framesDecoded))
	assert.Equal(t, lost+1, testutil.ToFloat64(lossesConcealed))
}

func TestStreams(t *testing.T) {
	active := testutil.ToFloat64(activeStreams)
	RecordStreamStarted()
	assert.Equal(t, active+1, testutil.ToFloat64(activeStreams))
	RecordStreamEnded()
	assert.Equal(t, active, testutil.ToFloat64(activeStreams))

	before := testutil.ToFloat64(streamErrors.WithLabelValues("size"))
	RecordError(&gocelt.SizeError{Got: 1, Want: 256})
	assert.Equal(t, before+1, testutil.ToFloat64(streamErrors.WithLabelValues("size")))
}

func TestLiveHandles(t *testing.T) {
	before := testutil.ToFloat64(liveHandles)
	cfg := gocelt.DefaultConfig()
	cfg.ResourceMode = gocelt.Manual
	enc, err := gocelt.NewEncoder(cfg)
	if err != nil {
		t.Fatal(err)
	}
	assert.GreaterOrEqual(t, testutil.ToFloat64(liveHandles), before+1)
	assert.NoError(t, enc.Release())
}
