// Command billpayers lists the billpayer roster for a branch, optionally
// exporting it as CSV for offline matching checks.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/omhartigan/billpayer-recon/internal/childpaths"
	"github.com/omhartigan/billpayer-recon/internal/config"
	"github.com/omhartigan/billpayer-recon/internal/logger"
)

func main() {
	baseURL := flag.String("base-url", "", "Account system base URL (defaults to production)")
	branch := flag.String("branch", "", "Branch value to list billpayers for")
	out := flag.String("out", "", "Write the roster as CSV to this path instead of stdout")
	flag.Parse()

	log := logger.New()
	if *branch == "" {
		log.Fatal().Msg("-branch is required")
	}

	creds, err := config.LoadCredentials()
	if err != nil {
		log.Fatal().Err(err).Msg("Missing credentials")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
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

	if *out == "" {
		for _, bp := range roster {
			fmt.Printf("%s\t%s\n", bp.RemoteID, bp.DisplayName)
		}
		return
	}

	f, err := os.Create(*out)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create output file")
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"ID", "Name"}); err != nil {
		log.Fatal().Err(err).Msg("Failed to write roster")
	}
	for _, bp := range roster {
		if err := w.Write([]string{bp.RemoteID, bp.DisplayName}); err != nil {
			log.Fatal().Err(err).Msg("Failed to write roster")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		log.Fatal().Err(err).Msg("Failed to write roster")
	}
	log.Info().Int("billpayers", len(roster)).Str("out", *out).Msg("Roster exported")
}
