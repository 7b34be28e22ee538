package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/stratomail/blast/internal/config"
	"github.com/stratomail/blast/internal/recipient"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration commands",
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	RunE:  runConfigValidate,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Recipient list commands",
}

var listValidateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Load and normalize a recipient list without sending",
	Args:  cobra.ExactArgs(1),
	RunE:  runListValidate,
}

func init() {
	configCmd.AddCommand(configValidateCmd)
	listCmd.AddCommand(listValidateCmd)
	rootCmd.AddCommand(configCmd, listCmd)
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	if cfgFile == "" {
		return fmt.Errorf("config file is required (use -c flag)")
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("configuration is invalid: %w", err)
	}

	fmt.Printf("Configuration is valid\n")
	fmt.Printf("  SMTP: %s:%d (%s)\n", cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Encryption)
	fmt.Printf("  From: %s\n", cfg.Campaign.FromEmail)
	if cfg.Campaign.TemplatePath != "" {
		fmt.Printf("  Template: %s\n", cfg.Campaign.TemplatePath)
	}
	if cfg.DKIM.Enabled {
		fmt.Printf("  DKIM: %s (selector %s)\n", cfg.DKIM.Domain, cfg.DKIM.Selector)
	}
	if cfg.Suppression.Path != "" {
		fmt.Printf("  Suppression: %s\n", cfg.Suppression.Path)
	}

	return nil
}

func runListValidate(cmd *cobra.Command, args []string) error {
	records, err := recipient.LoadFile(args[0])
	if err != nil {
		return err
	}
	list, rejected := recipient.Normalize(records)

	fmt.Printf("%d records: %d valid, %d rejected\n", len(records), len(list), len(rejected))

	if len(rejected) > 0 {
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "\nINDEX\tREASON\tADDRESS")
		for _, rej := range rejected {
			addr := rej.Address
			if addr == "" {
				addr = "-"
			}
			fmt.Fprintf(w, "%d\t%s\t%s\n", rej.Index, rej.Reason, addr)
		}
		w.Flush()
	}

	return nil
}
