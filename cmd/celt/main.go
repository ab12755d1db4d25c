// Command celt encodes audio files to Ogg CELT, decodes them back to WAV
// and inspects streams.
package main

import (
	"os"

	"github.com/alecthomas/kong"

	"github.com/thesyncim/gocelt/internal/cli"
	"github.com/thesyncim/gocelt/internal/logger"
	"github.com/thesyncim/gocelt/internal/ui"
)

// version is set via ldflags at build time.
var version = "dev"

// Globals are the flags shared by every command.
type Globals struct {
	Verbose bool `short:"v" help:"Log debug messages to stderr."`
	Quiet   bool `short:"q" help:"Hide the progress bar and summary."`
}

var CLI struct {
	Globals

	Encode    EncodeCmd    `cmd:"" help:"Encode a WAV, FLAC or MP3 file to Ogg CELT."`
	Decode    DecodeCmd    `cmd:"" help:"Decode an Ogg CELT file to WAV."`
	Roundtrip RoundtripCmd `cmd:"" help:"Encode and decode in one pass, optionally dropping packets."`
	Info      InfoCmd      `cmd:"" help:"Show the headers and packet statistics of an Ogg CELT file."`
	Generate  GenerateCmd  `cmd:"" help:"Write a synthetic test signal to WAV."`
	Version   VersionCmd   `cmd:"" help:"Show version information."`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("celt"),
		kong.Description("Encode, decode and inspect CELT audio."),
		kong.UsageOnError(),
	)
	setupLogging(&CLI.Globals)
	if err := ctx.Run(&CLI.Globals); err != nil {
		cli.PrintError(err.Error())
		os.Exit(1)
	}
}

func setupLogging(g *Globals) {
	level := "warn"
	if g.Verbose {
		level = "debug"
	}
	logger.Setup(level, "text", os.Stderr)
}

// runJob runs work behind the progress view unless quiet.
func runJob(g *Globals, title string, work func(report func(ui.Progress)) error) error {
	if g.Quiet {
		return work(func(ui.Progress) {})
	}
	return ui.Run(os.Stderr, title, work)
}

// VersionCmd prints the version.
type VersionCmd struct{}

func (c *VersionCmd) Run(g *Globals) error {
	cli.PrintInfo("celt", version)
	return nil
}
