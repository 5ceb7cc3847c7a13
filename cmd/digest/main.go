package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gosuri/uitable"
	"github.com/joho/godotenv"
	"github.com/juju/clock"
	"github.com/juju/loggo/v2"

	"lifeline/internal/apiclient"
	"lifeline/internal/config"
	"lifeline/internal/database"
	"lifeline/internal/models"
	"lifeline/internal/repository"
	"lifeline/internal/security"
	"lifeline/internal/service"
)

var logger = loggo.GetLogger("lifeline.digest")

// sessionLister lists the sessions that are still valid at now
type sessionLister interface {
	ActiveSessions(ctx context.Context) ([]models.Session, error)
}

// mailer delivers one user's digest
type mailer interface {
	SendInventoryDigest(ctx context.Context, to string, digest *service.InventoryDigest) error
}

// digestRun sends or prints the inventory digest of every signed-in user
type digestRun struct {
	sessions   sessionLister
	newBackend func(token string) service.Backend
	mail       mailer
	clock      clock.Clock
	out        io.Writer
	dryRun     bool
}

func main() {
	sendCmd := flag.NewFlagSet("send", flag.ExitOnError)
	dryRun := sendCmd.Bool("dry-run", false, "Print the digests instead of emailing them")

	if len(os.Args) < 2 || os.Args[1] != "send" {
		printUsage()
		os.Exit(1)
	}
	_ = sendCmd.Parse(os.Args[2:])

	if err := send(*dryRun); err != nil {
		logger.Criticalf("%v", err)
		os.Exit(1)
	}
}

func send(dryRun bool) error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := loggo.ConfigureLoggers(cfg.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	if cfg.UsesDevSessionSecret() {
		logger.Warningf("SESSION_SECRET is not set; using the development secret")
	}

	ctx := context.Background()

	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	// Run migrations to ensure schema is up to date
	if err := db.RunMigrations(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	apiClient := apiclient.New(cfg.APIBaseURL(), apiclient.WithTimeout(cfg.APITimeout))
	sessionRepo := repository.NewSessionRepository(db, security.NewTokenBox(cfg.SessionSecret))
	authService := service.NewAuthService(sessionRepo, apiClient, clock.WallClock, cfg.SessionDuration)

	emailService, err := service.NewEmailService(ctx, cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName, cfg.PublicBaseURL)
	if err != nil {
		return err
	}
	if !dryRun && !emailService.IsEnabled() {
		return fmt.Errorf("SES_FROM_EMAIL is not configured; use -dry-run to print digests")
	}

	run := &digestRun{
		sessions: authService,
		newBackend: func(token string) service.Backend {
			return apiClient.WithSession(token, nil)
		},
		mail:   emailService,
		clock:  clock.WallClock,
		out:    os.Stdout,
		dryRun: dryRun,
	}
	return run.Run(ctx)
}

// Run builds one digest per user email. Users whose backend view fails are
// logged and skipped.
func (d *digestRun) Run(ctx context.Context) error {
	sessions, err := d.sessions.ActiveSessions(ctx)
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}

	now := d.clock.Now()
	table := uitable.New()
	table.MaxColWidth = 40
	table.AddRow("EMAIL", "STATUS", "MEDICATION", "QUANTITY", "EXPIRES")

	seen := make(map[string]bool)
	sent, failed := 0, 0
	for _, s := range sessions {
		if s.UserEmail == "" || seen[s.UserEmail] {
			continue
		}
		seen[s.UserEmail] = true

		digest, err := service.DigestService{}.Build(ctx, d.newBackend(s.Token), now)
		if err != nil {
			logger.Warningf("skipping %s: %v", s.UserEmail, err)
			failed++
			continue
		}
		if digest.Empty() {
			continue
		}

		if d.dryRun {
			addRows(table, s.UserEmail, "expired", digest.Expired, now)
			addRows(table, s.UserEmail, "low stock", digest.LowStock, now)
			continue
		}
		if err := d.mail.SendInventoryDigest(ctx, s.UserEmail, digest); err != nil {
			logger.Errorf("failed to send digest to %s: %v", s.UserEmail, err)
			failed++
			continue
		}
		sent++
	}

	if d.dryRun {
		fmt.Fprintln(d.out, table)
		return nil
	}
	logger.Infof("sent %d digests (%d failed)", sent, failed)
	return nil
}

func addRows(table *uitable.Table, email, label string, meds []models.Medication, now time.Time) {
	for _, m := range meds {
		expires := "-"
		if m.ExpirationDate != nil {
			expires = humanize.RelTime(m.ExpirationDate.Time, now, "ago", "from now")
		}
		table.AddRow(email, label, m.Name, m.Quantity, expires)
	}
}

func printUsage() {
	fmt.Println("LifeLine inventory digest")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  digest send [-dry-run]")
	fmt.Println()
	fmt.Println("Builds the expired and low-stock medication digest of every signed-in")
	fmt.Println("user and emails it through Amazon SES.")
}
