// Command patterngen writes the generated pattern tables in the text format
// read by pattern.LoadFile.
package main

import (
	"flag"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"gomoku/internal/pattern"
)

func main() {
	out := flag.String("out", "", "output file (default stdout)")
	flag.Parse()
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	tables := pattern.Generate()
	if *out == "" {
		if err := tables.Write(os.Stdout); err != nil {
			log.Fatal().Err(err).Msg("failed to write tables")
		}
		return
	}
	f, err := os.Create(*out)
	if err != nil {
		log.Fatal().Err(err).Str("path", *out).Msg("failed to create output")
	}
	if err := tables.Write(f); err != nil {
		f.Close()
		log.Fatal().Err(err).Msg("failed to write tables")
	}
	if err := f.Close(); err != nil {
		log.Fatal().Err(err).Msg("failed to close output")
	}
	log.Info().Str("path", *out).Msg("pattern tables written")
}
