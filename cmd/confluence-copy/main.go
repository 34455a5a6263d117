/*
Copyright © 2024 paul <paul@denknerd.org>
*/

package main

import (
	"context"
	"os"

	"github.com/rs/zerolog"
)

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger().Level(zerolog.InfoLevel)
	ctx := logger.WithContext(context.Background())

	if err := Execute(ctx); err != nil {
		logger.Fatal().Err(err).Send()
	}
}
