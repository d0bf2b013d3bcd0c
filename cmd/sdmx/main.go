package main

import (
	"flag"
	"net/http"
	"os"

	"github.com/rs/zerolog"

	"github.com/openstats/sdmx/cmd/sdmx/api"
	"github.com/openstats/sdmx/registry"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the configuration file")
	flag.Parse()

	log := zerolog.New(zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) { w.Out = os.Stdout })).With().Timestamp().Caller().Logger()
	log.Debug().Msg("Starting sdmx service")

	config, err := LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	client, err := registry.NewClient(registry.ClientConfig{
		BaseURL:     config.Registry.BaseURL,
		HTTPTimeout: config.Registry.HTTPTimeout,
		RetryMax:    config.Registry.RetryMax,
	}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create registry client")
	}

	resolver, err := registry.NewResolver(registry.ResolverConfig{
		Fetcher:    client,
		Sequential: config.Registry.Sequential,
	}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create resolver")
	}

	server, err := api.NewServer(api.ServerConfig{Resolver: resolver}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create API server")
	}

	log.Info().Str("listen", config.Server.Listen).Msg("Listening")
	if err := http.ListenAndServe(config.Server.Listen, server.Router()); err != nil {
		log.Fatal().Err(err).Msg("Server stopped")
	}
}
