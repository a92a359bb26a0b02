package main

import (
	"crypto/tls"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/openlands/preservemap/internal/arcgis"
	"github.com/openlands/preservemap/internal/config"
	"github.com/openlands/preservemap/internal/logger"
	"github.com/openlands/preservemap/internal/processor"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile  string `short:"c" long:"config"       env:"CONFIG_FILE"  description:"Path to configuration file"`
	OutputDir   string `short:"o" long:"output"       env:"OUTPUT_DIR"   description:"Directory for output artifacts" default:"data"`
	ImageFormat string `long:"image-format" env:"IMAGE_FORMAT" description:"Comparison image format" choice:"png" choice:"webp" default:"png"`
	SkipRoads   bool   `short:"R" long:"skip-roads"   description:"Skip road subtraction, save raw boundaries only"`
	SkipImages  bool   `short:"I" long:"skip-images"  description:"Skip comparison image generation"`
	Minify      bool   `short:"m" long:"minify"       description:"Write minified GeoJSON instead of indented"`
}

func main() {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	opts.Logger.Setup()

	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	client := &http.Client{
		Transport: &http.Transport{
			TLSNextProto:        make(map[string]func(string, *tls.Conn) http.RoundTripper),
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 100,
		},
		Timeout: 60 * time.Second,
	}

	pipeline := processor.NewPipeline(client, cfg, processor.Options{
		OutputDir:   opts.OutputDir,
		SkipRoads:   opts.SkipRoads,
		SkipImages:  opts.SkipImages,
		Minify:      opts.Minify,
		ImageFormat: opts.ImageFormat,
	})

	if err := pipeline.Run(); err != nil {
		if errors.Is(err, arcgis.ErrServiceNotFound) {
			// An empty catalog result is expected, not a crash.
			log.Error().Str("query", cfg.Catalog.Query).Msg("Could not find a matching boundary service")
			return
		}
		log.Fatal().Err(err).Msg("Boundary processing failed")
	}

	log.Info().Msg("Boundary processing finished successfully")
}
