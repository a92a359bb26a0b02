package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/openlands/preservemap/internal/logger"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog/log"
)

const apiBase = "https://www.strava.com/api/v3"

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	Token string `short:"t" long:"token" env:"STRAVA_ACCESS_TOKEN" description:"Strava API access token"`
}

type athlete struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
}

type activity struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
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

	log.Info().Str("token", mask(opts.Token)).Msg("Testing token")

	client := &http.Client{Timeout: 30 * time.Second}

	// 1. Who does this token belong to?
	resp, body, err := get(client, opts.Token, "/athlete")
	if err != nil {
		log.Fatal().Err(err).Msg("Profile request failed")
	}
	if resp.StatusCode != 200 {
		log.Fatal().
			Int("status", resp.StatusCode).
			Str("body", string(body)).
			Msg("Failed to fetch athlete profile")
	}

	var who athlete
	if err := json.Unmarshal(body, &who); err != nil {
		log.Fatal().Err(err).Msg("Unexpected profile response")
	}

	log.Info().
		Str("name", strings.TrimSpace(who.FirstName+" "+who.LastName)).
		Int64("id", who.ID).
		Str("username", who.Username).
		Msg("Token belongs to")

	// 2. Scopes ride along in a response header on every successful call.
	scopes := resp.Header.Get("X-OAuth-Scopes")
	log.Info().Str("scopes", scopes).Msg("Token scopes")

	if !strings.Contains(scopes, "activity:read") && !strings.Contains(scopes, "activity:read_all") {
		log.Warn().Msg("Missing 'activity:read': this token cannot fetch activities")
	}

	// 3. Can we see any activities at all?
	resp, body, err = get(client, opts.Token, "/athlete/activities?per_page=3")
	if err != nil {
		log.Fatal().Err(err).Msg("Activity list request failed")
	}
	if resp.StatusCode != 200 {
		log.Fatal().
			Int("status", resp.StatusCode).
			Str("body", string(body)).
			Msg("Failed to list activities")
	}

	var activities []activity
	if err := json.Unmarshal(body, &activities); err != nil {
		log.Fatal().Err(err).Msg("Unexpected activity list response")
	}

	log.Info().Int("count", len(activities)).Msg("Recent activities")
	for _, act := range activities {
		log.Info().Int64("id", act.ID).Str("name", act.Name).Msg("Activity")
	}
}

func get(client *http.Client, token, path string) (*http.Response, []byte, error) {
	req, err := http.NewRequest(http.MethodGet, apiBase+path, nil)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, err
	}

	return resp, body, nil
}

func mask(token string) string {
	if len(token) < 12 {
		return "***"
	}
	return fmt.Sprintf("%s...%s", token[:6], token[len(token)-4:])
}
