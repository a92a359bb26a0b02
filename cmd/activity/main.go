package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/openlands/preservemap/internal/logger"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog/log"
)

const apiBase = "https://www.strava.com/api/v3"

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	Token  string `short:"t" long:"token" env:"STRAVA_ACCESS_TOKEN" description:"Strava API access token"`
	Output string `short:"o" long:"out" description:"Output file path. Defaults to activity_<id>.json"`

	Args struct {
		ActivityID string `positional-arg-name:"activity-id" description:"Activity to fetch"`
	} `positional-args:"true" required:"true"`
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

	if opts.Token == "" {
		log.Fatal().Msg("STRAVA_ACCESS_TOKEN is not set")
	}

	client := &http.Client{Timeout: 30 * time.Second}

	url := fmt.Sprintf("%s/activities/%s?include_all_efforts=false", apiBase, opts.Args.ActivityID)
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build request")
	}
	req.Header.Set("Authorization", "Bearer "+opts.Token)

	log.Info().Str("activity", opts.Args.ActivityID).Msg("Fetching activity")

	resp, err := client.Do(req)
	if err != nil {
		log.Fatal().Err(err).Msg("Request failed")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read response")
	}

	if resp.StatusCode != 200 {
		log.Error().
			Int("status", resp.StatusCode).
			Str("scopes", resp.Header.Get("X-OAuth-Scopes")).
			Str("body", string(body)).
			Msg("API request failed")
		os.Exit(1)
	}

	// Re-indent so the saved file is stable and readable.
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, body, "", "  "); err != nil {
		log.Fatal().Err(err).Msg("Unexpected response body")
	}

	outPath := opts.Output
	if outPath == "" {
		outPath = fmt.Sprintf("activity_%s.json", opts.Args.ActivityID)
	}

	if err := os.WriteFile(outPath, pretty.Bytes(), 0644); err != nil {
		log.Fatal().Err(err).Str("path", outPath).Msg("Failed to write output file")
	}

	var summary struct {
		Name     string  `json:"name"`
		Distance float64 `json:"distance"`
	}
	_ = json.Unmarshal(body, &summary)

	log.Info().
		Str("name", summary.Name).
		Float64("distance_m", summary.Distance).
		Str("path", outPath).
		Msg("Activity saved")
}
