package cli

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func capture(t *testing.T) (out, errOut *bytes.Buffer) {
	t.Helper()
	out, errOut = &bytes.Buffer{}, &bytes.Buffer{}
	oldOut, oldErr := Stdout, Stderr
	Stdout, Stderr = out, errOut
	t.Cleanup(func() { Stdout, Stderr = oldOut, oldErr })
	return out, errOut
}

func TestPrinters(t *testing.T) {
	out, errOut := capture(t)

	PrintError("bad input")
	PrintWarning("clipping")
	PrintSuccess("done")
	PrintInfo("Rate", "48000 Hz")
	PrintSection("Stream")

	if s := errOut.String(); !strings.Contains(s, "Error:") || !strings.Contains(s, "bad input") || !strings.Contains(s, "clipping") {
		t.Fatalf("stderr %q", s)
	}
	for _, want := range []string{"done", "Rate:", "48000 Hz", "Stream"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("stdout missing %q: %q", want, out.String())
		}
	}
}

func TestPrintSummary(t *testing.T) {
	out, _ := capture(t)
	PrintSummary("Encoded", []Field{{"Frames", "100"}, {"Bitrate", "64.0 kbit/s"}})
	s := out.String()
	for _, want := range []string{"Encoded", "Frames:", "100", "Bitrate:", "64.0 kbit/s"} {
		if !strings.Contains(s, want) {
			t.Errorf("summary missing %q:\n%s", want, s)
		}
	}
}

func TestFormatters(t *testing.T) {
	tests := []struct{ got, want string }{
		{FormatDuration(250 * time.Millisecond), "250ms"},
		{FormatDuration(1500 * time.Millisecond), "1.5s"},
		{FormatBytes(512), "512 B"},
		{FormatBytes(1536), "1.5 KB"},
		{FormatBytes(3 << 20), "3.0 MB"},
		{FormatBitrate(8000, time.Second), "64.0 kbit/s"},
		{FormatBitrate(1, 0), "n/a"},
		{FormatSpeed(10*time.Second, time.Second), "10.0x realtime"},
		{FormatSpeed(time.Second, 0), "n/a"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}
}
