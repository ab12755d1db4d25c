package audiofile

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thesyncim/gocelt/internal/testsignal"
)

func TestWAV_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.wav")
	in := testsignal.Sine(44100, 440, 0.5, 1000, 2, 0)

	w, err := CreateWAV(path, 44100, 2)
	require.NoError(t, err)
	require.NoError(t, w.Write(in[:600]))
	require.NoError(t, w.Write(in[600:]))
	assert.Equal(t, int64(1000), w.Frames())
	require.Error(t, w.Write(in[:3]), "odd sample count for stereo")
	require.NoError(t, w.Close())

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()
	assert.Equal(t, 44100, r.SampleRate())
	assert.Equal(t, 2, r.Channels())
	assert.Equal(t, int64(1000), r.Frames())

	var out []float32
	buf := make([]float32, 256*2)
	for {
		n, err := r.ReadFrames(buf)
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		out = append(out, buf[:n*2]...)
	}
	require.Len(t, out, len(in))
	for i := range in {
		assert.InDelta(t, in[i], out[i], 1.0/32768, "sample %d", i)
	}
}

func TestWAV_Clamps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "loud.wav")
	w, err := CreateWAV(path, 48000, 1)
	require.NoError(t, err)
	require.NoError(t, w.Write([]float32{2, -2, 1, -1}))
	require.NoError(t, w.Close())

	r, err := OpenWAV(path)
	require.NoError(t, err)
	defer r.Close()
	got := make([]float32, 4)
	n, err := r.ReadFrames(got)
	require.NoError(t, err)
	require.Equal(t, 4, n)
	assert.InDelta(t, 32767.0/32768, got[0], 1e-7)
	assert.Equal(t, float32(-1), got[1])
	assert.InDelta(t, 32767.0/32768, got[2], 1e-7)
	assert.Equal(t, float32(-1), got[3])
}

func TestOpen_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := Open(filepath.Join(dir, "song.ogg"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = Open(filepath.Join(dir, "missing.wav"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	for _, name := range []string{"junk.wav", "junk.flac", "junk.mp3"} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte("definitely not audio"), 0o600))
		_, err := Open(path)
		assert.Error(t, err, name)
	}
}

func TestRemix(t *testing.T) {
	mono, err := Remix([]float32{1, 0, 0.5, 0.5}, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 0.5}, mono)

	stereo, err := Remix([]float32{0.25, -1}, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, []float32{0.25, 0.25, -1, -1}, stereo)

	same := []float32{1, 2}
	got, err := Remix(same, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, same, got)

	_, err = Remix([]float32{1, 2, 3}, 2, 1)
	assert.Error(t, err)
	_, err = Remix(make([]float32, 6), 3, 2)
	assert.Error(t, err)
}
