// Command toggle-billpayers enables or disables every billpayer in a
// branch through the guardian edit form. Failures on individual
// billpayers are logged and the rest of the branch is still processed.
package main

import (
	"context"
	"errors"
	"flag"
	"time"

	"github.com/omhartigan/billpayer-recon/internal/childpaths"
	"github.com/omhartigan/billpayer-recon/internal/config"
	"github.com/omhartigan/billpayer-recon/internal/logger"
	"github.com/omhartigan/billpayer-recon/internal/recon"
)

func main() {
	baseURL := flag.String("base-url", "", "Account system base URL (defaults to production)")
	branch := flag.String("branch", "", "Branch value whose billpayers to toggle")
	enable := flag.Bool("enable", false, "Enable billpayers instead of disabling them")
	flag.Parse()

	log := logger.New()
	if *branch == "" {
		log.Fatal().Msg("-branch is required")
	}

	creds, err := config.LoadCredentials()
	if err != nil {
		log.Fatal().Err(err).Msg("Missing credentials")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	client := childpaths.NewClient(*baseURL)
	session, err := client.Authenticate(ctx, creds.Email, creds.Password)
	if err != nil {
		log.Fatal().Err(err).Msg("Login failed")
	}

	roster, err := client.ListBillpayers(ctx, session, *branch)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load billpayer roster")
	}
	log.Info().Int("billpayers", len(roster)).Bool("enable", *enable).Msg("Toggling billpayers")

	var failed int
	for _, bp := range roster {
		if err := client.SetBillpayerEnabled(ctx, session, bp.RemoteID, *enable); err != nil {
			if errors.Is(err, recon.ErrSessionInvalid) {
				log.Fatal().Err(err).Str("billpayer", bp.DisplayName).Msg("Session lost, aborting")
			}
			failed++
			log.Error().Err(err).Str("billpayer", bp.DisplayName).Msg("Toggle failed")
			continue
		}
		log.Info().Str("billpayer", bp.DisplayName).Msg("Toggled")
	}

	log.Info().Int("total", len(roster)).Int("failed", failed).Msg("Done")
}
