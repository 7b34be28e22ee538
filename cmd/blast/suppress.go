package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/stratomail/blast/internal/config"
	"github.com/stratomail/blast/internal/email"
	"github.com/stratomail/blast/internal/suppress"
)

var suppressReason string

var suppressCmd = &cobra.Command{
	Use:   "suppress",
	Short: "Manage the suppression list",
	Long: `The suppression list holds addresses that must never receive campaign
email (unsubscribes, hard bounces). Suppressed addresses are skipped at
send time and counted in the campaign summary.`,
}

var suppressAddCmd = &cobra.Command{
	Use:   "add <address>",
	Short: "Add an address to the suppression list",
	Args:  cobra.ExactArgs(1),
	RunE:  runSuppressAdd,
}

var suppressRemoveCmd = &cobra.Command{
	Use:   "remove <address>",
	Short: "Remove an address from the suppression list",
	Args:  cobra.ExactArgs(1),
	RunE:  runSuppressRemove,
}

var suppressListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print all suppressed addresses",
	RunE:  runSuppressList,
}

func init() {
	suppressAddCmd.Flags().StringVar(&suppressReason, "reason", "manual", "Why the address is suppressed")

	suppressCmd.AddCommand(suppressAddCmd, suppressRemoveCmd, suppressListCmd)
	rootCmd.AddCommand(suppressCmd)
}

func openSuppressionStore() (*suppress.Store, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Suppression.Path == "" {
		return nil, fmt.Errorf("no suppression list configured (set suppression.path)")
	}
	return suppress.Open(cfg.Suppression.Path)
}

func runSuppressAdd(cmd *cobra.Command, args []string) error {
	addr := args[0]
	if !email.ValidSyntax(addr) {
		return fmt.Errorf("invalid address: %s", addr)
	}

	store, err := openSuppressionStore()
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Add(addr, suppressReason); err != nil {
		return err
	}
	fmt.Printf("Suppressed %s (%s)\n", email.Canonical(addr), suppressReason)
	return nil
}

func runSuppressRemove(cmd *cobra.Command, args []string) error {
	store, err := openSuppressionStore()
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Remove(args[0]); err != nil {
		return err
	}
	fmt.Printf("Removed %s\n", email.Canonical(args[0]))
	return nil
}

func runSuppressList(cmd *cobra.Command, args []string) error {
	store, err := openSuppressionStore()
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.List()
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("Suppression list is empty")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ADDRESS\tREASON\tADDED")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\n", e.Address, e.Reason, e.AddedAt.Format("2006-01-02 15:04"))
	}
	return w.Flush()
}
