package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/stratomail/blast/internal/campaign"
	"github.com/stratomail/blast/internal/config"
	"github.com/stratomail/blast/internal/dkim"
	"github.com/stratomail/blast/internal/email"
	"github.com/stratomail/blast/internal/metrics"
	"github.com/stratomail/blast/internal/recipient"
	"github.com/stratomail/blast/internal/smtp"
	"github.com/stratomail/blast/internal/suppress"
	"github.com/stratomail/blast/internal/template"
)

var (
	sendTo       string
	sendList     string
	sendTemplate string
	sendSubject  string
	sendFromName string
	sendReplyTo  string
	sendRate     float64
	sendDryRun   bool
	sendPreviews string
	sendVerbose  bool
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send a campaign or a single test email",
	Long: `Send renders the HTML template once per recipient and delivers the
result over a single SMTP session, paced to the configured rate.

Exactly one of --to or --list must be given. --to sends one test email
to the address; --list runs the full campaign from a JSON recipient file.`,
	RunE: runSend,
}

func init() {
	sendCmd.Flags().StringVar(&sendTo, "to", "", "Send a single test email to this address")
	sendCmd.Flags().StringVar(&sendList, "list", "", "Path to the JSON recipient list")
	sendCmd.Flags().StringVar(&sendTemplate, "template", "", "HTML template path (overrides config)")
	sendCmd.Flags().StringVar(&sendSubject, "subject", "", "Subject line (overrides config and per-recipient subjects)")
	sendCmd.Flags().StringVar(&sendFromName, "from-name", "", "Sender display name (overrides config)")
	sendCmd.Flags().StringVar(&sendReplyTo, "reply-to", "", "Reply-To address (overrides config)")
	sendCmd.Flags().Float64Var(&sendRate, "rate", -1, "Emails per minute, 0 disables pacing (overrides config)")
	sendCmd.Flags().BoolVar(&sendDryRun, "dry-run", false, "Run the full pipeline without opening an SMTP session")
	sendCmd.Flags().StringVar(&sendPreviews, "previews", "", "Write rendered HTML previews to this directory")
	sendCmd.Flags().BoolVarP(&sendVerbose, "verbose", "v", false, "Log every recipient outcome")

	rootCmd.AddCommand(sendCmd)
}

// validateMode enforces the single-test / list-file mode selection.
func validateMode(to, list string) error {
	if to == "" && list == "" {
		return fmt.Errorf("one of --to or --list is required")
	}
	if to != "" && list != "" {
		return fmt.Errorf("--to and --list are mutually exclusive")
	}
	return nil
}

func runSend(cmd *cobra.Command, args []string) error {
	if err := validateMode(sendTo, sendList); err != nil {
		return err
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applySendOverrides(cfg)

	logger := setupLogger(cfg.Logging)

	if cfg.Campaign.FromEmail == "" {
		return fmt.Errorf("no sender address: set campaign.from_email or smtp.username")
	}
	if cfg.Campaign.TemplatePath == "" {
		return fmt.Errorf("no template: set campaign.template_path or use --template")
	}

	tmpl, err := template.LoadFile(cfg.Campaign.TemplatePath)
	if err != nil {
		return err
	}

	list, rejected, err := buildRecipientList()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dialer := smtp.NewClient(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		smtp.Encryption(cfg.SMTP.Encryption),
		cfg.SMTP.Username,
		cfg.SMTP.Password,
		logger,
	)

	driver := campaign.NewDriver(dialer, tmpl, campaign.Options{
		FromName:        cfg.Campaign.FromName,
		FromEmail:       cfg.Campaign.FromEmail,
		Subject:         cfg.Campaign.Subject,
		SubjectOverride: sendSubject,
		ReplyTo:         cfg.Campaign.ReplyTo,
		RatePerMinute:   cfg.Campaign.RatePerMinute,
		DryRun:          sendDryRun,
		PreviewDir:      cfg.Campaign.PreviewDir,
		SingleTest:      sendTo != "",
		Verbose:         sendVerbose,
	}, logger)

	if cfg.Suppression.Path != "" && sendTo == "" {
		store, err := suppress.Open(cfg.Suppression.Path)
		if err != nil {
			return fmt.Errorf("failed to open suppression list: %w", err)
		}
		defer store.Close()
		driver.SetSuppressor(store)
	}

	if cfg.DKIM.Enabled {
		domain := cfg.DKIM.Domain
		if domain == "" {
			domain = email.ExtractDomain(cfg.Campaign.FromEmail)
		}
		signer, err := dkim.NewSignerFromFile(cfg.DKIM.KeyFile, domain, cfg.DKIM.Selector)
		if err != nil {
			return fmt.Errorf("failed to load DKIM key: %w", err)
		}
		driver.SetSigner(signer)
	}

	if cfg.Metrics.Enabled {
		m := metrics.New()
		driver.SetMetrics(m)
		srv := metrics.NewServer(m, cfg.Metrics.ListenAddr, cfg.Metrics.Path, logger)
		srv.Start()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()
	}

	sum, err := driver.Run(ctx, list, rejected)
	if sum != nil {
		printSummary(sum)
	}
	return err
}

// applySendOverrides folds command-line flags into the loaded config.
func applySendOverrides(cfg *config.Config) {
	if sendTemplate != "" {
		cfg.Campaign.TemplatePath = sendTemplate
	}
	if sendFromName != "" {
		cfg.Campaign.FromName = sendFromName
	}
	if sendReplyTo != "" {
		cfg.Campaign.ReplyTo = sendReplyTo
	}
	if sendRate >= 0 {
		cfg.Campaign.RatePerMinute = sendRate
	}
	if sendPreviews != "" {
		cfg.Campaign.PreviewDir = sendPreviews
	}
	if sendVerbose && cfg.Logging.Level != "debug" {
		cfg.Logging.Level = "debug"
	}
}

// buildRecipientList resolves the mode selection into a normalized
// recipient list. Test mode skips loading and normalization entirely.
func buildRecipientList() ([]recipient.Recipient, []recipient.Rejection, error) {
	if sendTo != "" {
		if !email.ValidSyntax(sendTo) {
			return nil, nil, fmt.Errorf("invalid test address: %s", sendTo)
		}
		return []recipient.Recipient{recipient.Single(sendTo)}, nil, nil
	}

	records, err := recipient.LoadFile(sendList)
	if err != nil {
		return nil, nil, err
	}
	list, rejected := recipient.Normalize(records)
	return list, rejected, nil
}

func printSummary(sum *campaign.Summary) {
	fmt.Printf("\nCampaign %s\n", sum.RunID)
	fmt.Printf("  Duration:   %s\n", sum.FinishedAt.Sub(sum.StartedAt).Round(time.Millisecond))
	fmt.Printf("  Recipients: %d\n", sum.Total())
	if sum.Sent > 0 {
		fmt.Printf("  Sent:       %d\n", sum.Sent)
	}
	if sum.WouldSend > 0 {
		fmt.Printf("  Would send: %d (dry-run)\n", sum.WouldSend)
	}
	if sum.SkippedInvalid > 0 {
		fmt.Printf("  Invalid:    %d\n", sum.SkippedInvalid)
	}
	if sum.SkippedDuplicate > 0 {
		fmt.Printf("  Duplicates: %d\n", sum.SkippedDuplicate)
	}
	if sum.SkippedSuppressed > 0 {
		fmt.Printf("  Suppressed: %d\n", sum.SkippedSuppressed)
	}
	if sum.Failed > 0 {
		fmt.Printf("  Failed:     %d\n", sum.Failed)
		for _, f := range sum.Failures {
			fmt.Printf("    %s: %s\n", f.Address, f.Reason)
		}
	}
}
