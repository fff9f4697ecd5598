// Command evrpc-gen-descriptors loads a JSON method catalog and validates
// it, the way a protoc plugin would validate a descriptor set before a
// server trusts it at startup. It has no precedent in the teacher library
// (bgpfix ships no cmd/ binaries), but descriptor.Pool.LoadJSON otherwise
// has no exercised entry point outside tests; this gives it one.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/evrpc/evrpc/descriptor"
)

func main() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	if len(os.Args) != 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <catalog.json>\n", os.Args[0])
		os.Exit(2)
	}

	data, err := os.ReadFile(os.Args[1])
	if err != nil {
		log.Fatal().Err(err).Str("path", os.Args[1]).Msg("evrpc-gen-descriptors: read catalog")
	}

	pool := descriptor.NewPool()
	if err := pool.LoadJSON(data); err != nil {
		log.Fatal().Err(err).Msg("evrpc-gen-descriptors: invalid catalog")
	}

	log.Info().Str("path", os.Args[1]).Msg("evrpc-gen-descriptors: catalog OK")
}
