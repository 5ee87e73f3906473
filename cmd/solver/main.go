package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var cli struct {
	Debug bool `help:"enable debug logging" env:"SOLVER_DEBUG"`

	Train    TrainCmd    `cmd:"" help:"run CFR self-play and write checkpoint, strategy and blueprint"`
	Export   ExportCmd   `cmd:"" help:"recompute the equilibrium strategy from a checkpoint"`
	Inspect  InspectCmd  `cmd:"" help:"print the table rows of one information set"`
	Winrates WinratesCmd `cmd:"" help:"estimate the hole card win rate table"`
}

func main() {
	// .env is optional; flags and the process environment still apply
	_ = godotenv.Load()

	kctx := kong.Parse(&cli,
		kong.Name("solver"),
		kong.Description("Bounty hold'em CFR solver"),
		kong.UsageOnError(),
	)

	setupLogger(cli.Debug)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch kctx.Command() {
	case "train":
		err = cli.Train.Run(ctx)
	case "export":
		err = cli.Export.Run()
	case "inspect":
		err = cli.Inspect.Run(os.Stdout)
	case "winrates":
		err = cli.Winrates.Run(ctx)
	default:
		log.Fatal().Msgf("unknown command: %s", kctx.Command())
	}
	if err != nil {
		log.Fatal().Err(err).Str("command", kctx.Command()).Msg("command failed")
	}
}

func setupLogger(debug bool) {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level)
}

// applyLevel lowers the global level to the configured one unless --debug
// already asked for more.
func applyLevel(name string) {
	if cli.Debug || name == "" {
		return
	}
	if level, err := zerolog.ParseLevel(name); err == nil {
		log.Logger = log.Logger.Level(level)
	}
}
