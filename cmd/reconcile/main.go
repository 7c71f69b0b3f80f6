// Command reconcile runs one batch reconciliation: it reads a ledger
// export CSV, resolves each bill payer against the branch roster, ensures
// a deposit account per billpayer, posts deposits (and withdrawals for
// returned or zero rows) and writes the outcome report.
//
// Credentials come from CHILDPATHS_EMAIL and CHILDPATHS_PASSWORD.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/omhartigan/billpayer-recon/internal/bqaudit"
	"github.com/omhartigan/billpayer-recon/internal/childpaths"
	"github.com/omhartigan/billpayer-recon/internal/config"
	"github.com/omhartigan/billpayer-recon/internal/csvsource"
	"github.com/omhartigan/billpayer-recon/internal/gcsreport"
	"github.com/omhartigan/billpayer-recon/internal/logger"
	"github.com/omhartigan/billpayer-recon/internal/recon"
	"github.com/omhartigan/billpayer-recon/internal/report"
)

func main() {
	csvPath := flag.String("csv", "transactions.csv", "Path to the transactions CSV")
	reportPath := flag.String("report", "transaction_report.csv", "Path for the outcome report CSV")
	logPath := flag.String("log", "transaction_debug.log", "Path for the debug log")
	baseURL := flag.String("base-url", "", "Account system base URL (defaults to production)")
	branch := flag.String("branch", "", "Branch value to reconcile against (prompted when empty)")
	threshold := flag.Float64("threshold", 0, "Auto-accept confidence in [0,1] (default 0.95, or 0.6 with -batch)")
	batch := flag.Bool("batch", false, "Non-interactive mode: never prompt, skip low-confidence names")
	gcsBucket := flag.String("gcs-bucket", os.Getenv("GCS_BUCKET"), "Upload run artifacts to this GCS bucket (or set GCS_BUCKET env)")
	bqProject := flag.String("bq-project", os.Getenv("BQ_PROJECT"), "Record outcomes in this BigQuery project's audit table (or set BQ_PROJECT env)")
	flag.Parse()

	log, logFile, err := logger.NewWithDebugFile(*logPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "opening debug log: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()

	creds, err := config.LoadCredentials()
	if err != nil {
		log.Fatal().Err(err).Msg("Missing credentials")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Hour)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	runID := uuid.NewString()
	runTime := time.Now()
	log.Info().Str("run_id", runID).Str("csv", *csvPath).Msg("Starting reconciliation run")

	rows, err := csvsource.ReadFile(*csvPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read transactions")
	}
	log.Info().Int("rows", len(rows)).Msg("Transactions loaded")

	client := childpaths.NewClient(*baseURL)
	session, err := client.Authenticate(ctx, creds.Email, creds.Password)
	if err != nil {
		log.Fatal().Err(err).Msg("Login failed")
	}
	log.Info().Msg("Logged in")

	branchValue, err := chooseBranch(ctx, client, session, *branch, *batch)
	if err != nil {
		log.Fatal().Err(err).Msg("Branch selection failed")
	}
	log.Info().Str("branch", branchValue).Msg("Branch selected")

	roster, err := client.ListBillpayers(ctx, session, branchValue)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load billpayer roster")
	}
	log.Info().Int("billpayers", len(roster)).Msg("Roster loaded")

	accept := *threshold
	var prompter recon.Prompter
	if *batch {
		if accept == 0 {
			accept = recon.BatchThreshold
		}
	} else {
		if accept == 0 {
			accept = recon.DefaultThreshold
		}
		prompter = &terminalPrompter{in: bufio.NewScanner(os.Stdin)}
	}

	runner := recon.NewRunner(client, session, branchValue, roster, recon.NewPolicy(accept, prompter))
	records, runErr := runner.Run(ctx, rows)

	// The report is written even when the session died mid-run, covering
	// the rows processed so far.
	if err := report.WriteFile(*reportPath, records); err != nil {
		log.Fatal().Err(err).Msg("Failed to write report")
	}
	log.Info().Str("report", *reportPath).Int("records", len(records)).Msg("Report written")

	archiveRun(ctx, log, runID, runTime, branchValue, records, *gcsBucket, *bqProject, *reportPath, *logPath)

	if runErr != nil {
		log.Error().Err(runErr).Msg("Run aborted; report covers rows processed so far")
		logFile.Close()
		os.Exit(1)
	}
	fmt.Printf("Done. Report saved to %s\n", *reportPath)
	fmt.Printf("Debug log saved to %s\n", *logPath)
}

// archiveRun ships the run's artifacts to the configured sinks. Sink
// failures are logged but never fail the run: the local report already
// exists.
func archiveRun(ctx context.Context, log zerolog.Logger, runID string, runTime time.Time, branch string, records []recon.OutcomeRecord, gcsBucket, bqProject, reportPath, logPath string) {
	if gcsBucket != "" {
		for _, path := range []string{reportPath, logPath} {
			object := gcsreport.ObjectName(runID, runTime, path)
			if err := gcsreport.UploadFile(ctx, gcsBucket, object, path); err != nil {
				log.Warn().Err(err).Str("object", object).Msg("GCS upload failed")
				continue
			}
			log.Info().Str("object", "gs://"+gcsBucket+"/"+object).Msg("Artifact uploaded")
		}
	}

	if bqProject != "" {
		w, err := bqaudit.NewWriter(ctx, bqProject)
		if err != nil {
			log.Warn().Err(err).Msg("BigQuery audit writer unavailable")
			return
		}
		defer w.Close()
		if err := w.InsertOutcomes(ctx, runID, branch, records); err != nil {
			log.Warn().Err(err).Msg("BigQuery audit insert failed")
			return
		}
		log.Info().Str("run_id", runID).Msg("Outcomes recorded in audit table")
	}
}

// chooseBranch resolves the branch to run against: the -branch flag value
// when given, otherwise an interactive pick from the remote branch list.
func chooseBranch(ctx context.Context, client *childpaths.Client, session recon.Session, flagValue string, batch bool) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if batch {
		return "", fmt.Errorf("-branch is required in batch mode")
	}

	branches, err := client.ListBranches(ctx, session)
	if err != nil {
		return "", err
	}
	if len(branches) == 0 {
		return "", fmt.Errorf("no branches available")
	}

	fmt.Println("\nSelect a branch:")
	for i, b := range branches {
		fmt.Printf("%d: %s [%s]\n", i, b.Label, b.Value)
	}

	in := bufio.NewScanner(os.Stdin)
	fmt.Print("Branch number: ")
	if !in.Scan() {
		return "", fmt.Errorf("no branch selected")
	}
	idx, err := strconv.Atoi(strings.TrimSpace(in.Text()))
	if err != nil || idx < 0 || idx >= len(branches) {
		return "", fmt.Errorf("invalid branch number %q", in.Text())
	}
	return branches[idx].Value, nil
}

// terminalPrompter asks the operator to disambiguate a low-confidence name
// on stdin. An "s" answer (or anything unparseable) skips the name.
type terminalPrompter struct {
	in *bufio.Scanner
}

func (p *terminalPrompter) Choose(name string, candidates []recon.Candidate) (int, bool) {
	fmt.Printf("\nNo strong match for %q. Select the best match or type 's' to skip:\n", name)
	for i, c := range candidates {
		fmt.Printf("%d: %s (score: %d%%)\n", i, c.Identity.DisplayName, int(c.Score*100))
	}
	fmt.Print("Pick option number (or 's' to skip): ")

	if !p.in.Scan() {
		return 0, false
	}
	answer := strings.TrimSpace(p.in.Text())
	if strings.EqualFold(answer, "s") {
		return 0, false
	}
	idx, err := strconv.Atoi(answer)
	if err != nil || idx < 0 || idx >= len(candidates) {
		return 0, false
	}
	return idx, true
}
