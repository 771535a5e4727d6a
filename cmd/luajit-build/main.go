// luajit-build is invoked by meson to produce lua51.lib with the MSVC build
// script when it does not exist yet.
package main

import (
	"context"
	"os"

	"github.com/orchestra-mcp/fakesub/src/buildlib"
	"github.com/rs/zerolog"
)

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, NoColor: true})

	opts, err := buildlib.OptionsFromEnv()
	if err != nil {
		logger.Error().Err(err).Msg("bad environment")
		os.Exit(1)
	}

	if _, err := buildlib.Build(context.Background(), opts, logger); err != nil {
		logger.Error().Err(err).Msg("build failed")
		os.Exit(1)
	}
}
