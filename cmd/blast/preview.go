package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stratomail/blast/internal/campaign"
	"github.com/stratomail/blast/internal/config"
	"github.com/stratomail/blast/internal/recipient"
	"github.com/stratomail/blast/internal/template"
)

var (
	previewList     string
	previewOut      string
	previewSubject  string
	previewTemplate string
)

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Render every recipient's email to disk without sending",
	RunE:  runPreview,
}

func init() {
	previewCmd.Flags().StringVar(&previewList, "list", "", "Path to the JSON recipient list (required)")
	previewCmd.Flags().StringVar(&previewOut, "out", "previews", "Output directory for rendered HTML")
	previewCmd.Flags().StringVar(&previewSubject, "subject", "", "Subject line override")
	previewCmd.Flags().StringVar(&previewTemplate, "template", "", "HTML template path (overrides config)")
	previewCmd.MarkFlagRequired("list")

	rootCmd.AddCommand(previewCmd)
}

func runPreview(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if previewTemplate != "" {
		cfg.Campaign.TemplatePath = previewTemplate
	}
	if cfg.Campaign.TemplatePath == "" {
		return fmt.Errorf("no template: set campaign.template_path or use --template")
	}

	logger := setupLogger(cfg.Logging)

	tmpl, err := template.LoadFile(cfg.Campaign.TemplatePath)
	if err != nil {
		return err
	}

	records, err := recipient.LoadFile(previewList)
	if err != nil {
		return err
	}
	list, rejected := recipient.Normalize(records)

	driver := campaign.NewDriver(nil, tmpl, campaign.Options{
		FromName:        cfg.Campaign.FromName,
		FromEmail:       cfg.Campaign.FromEmail,
		Subject:         cfg.Campaign.Subject,
		SubjectOverride: previewSubject,
		DryRun:          true,
		PreviewDir:      previewOut,
	}, logger)

	sum, err := driver.Run(context.Background(), list, rejected)
	if err != nil {
		return err
	}

	fmt.Printf("Wrote %d previews to %s\n", sum.WouldSend, previewOut)
	if sum.Failed > 0 {
		fmt.Printf("%d recipients failed to render:\n", sum.Failed)
		for _, f := range sum.Failures {
			fmt.Printf("  %s: %s\n", f.Address, f.Reason)
		}
	}
	return nil
}
