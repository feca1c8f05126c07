package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"weavemart/config"
	"weavemart/internal/database"
	"weavemart/internal/router"
	"weavemart/internal/service"

	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:     "ledgerctl",
		Short:   "Operator tools for weavemart payouts and referrals",
		Version: Version,
	}

	rootCmd.AddCommand(dueCmd())
	rootCmd.AddCommand(sellersCmd())
	rootCmd.AddCommand(reconcileCmd())
	rootCmd.AddCommand(milestoneCmd())
	rootCmd.AddCommand(historyCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// connect loads config and opens the ledger database the same way the server does.
func connect() (*router.Services, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	config.SetupLogging(&cfg.Log)
	db, err := database.NewDB(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	return router.NewServices(cfg, db, nil, nil), nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func dueCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "due [seller-email]",
		Short: "Show what a seller is owed right now",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := connect()
			if err != nil {
				return err
			}
			due, err := svc.Payout.ComputeDue(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(due)
		},
	}
}

func sellersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sellers",
		Short: "List sellers with unpaid sales",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := connect()
			if err != nil {
				return err
			}
			list, err := svc.Payout.ListSellersDue(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(list)
		},
	}
}

func reconcileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile [payment-id]",
		Short: "Finish the watermark sweep of a recorded payment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := connect()
			if err != nil {
				return err
			}
			res, err := svc.Payout.Reconcile(cmd.Context(), args[0])
			if res != nil {
				if perr := printJSON(res); perr != nil {
					return perr
				}
			}
			if errors.Is(err, service.ErrPartialSettlement) {
				return fmt.Errorf("reconcile incomplete, rerun later: %w", err)
			}
			return err
		},
	}
}

func milestoneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "milestone [user-email]",
		Short: "Run the referral milestone check for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := connect()
			if err != nil {
				return err
			}
			p, err := svc.Referral.CheckMilestone(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(p)
		},
	}
}

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [seller-email]",
		Short: "Print a seller's payment history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := connect()
			if err != nil {
				return err
			}
			year, _ := cmd.Flags().GetInt("year")
			if year > 0 {
				a, err := svc.Sales.Analytics(cmd.Context(), args[0], year)
				if err != nil {
					return err
				}
				return printJSON(a)
			}
			list, err := svc.Payout.PaymentHistory(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(list)
		},
	}
	cmd.Flags().Int("year", 0, "Print the analytics rollup for this year instead")
	return cmd
}
