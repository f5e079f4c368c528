package main

import (
	"context"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/sells-group/merchant-ops/internal/store"
)

var lockReason string

var locksCmd = &cobra.Command{
	Use:   "locks",
	Short: "Manage merchant price locks",
	Long:  "Locked products keep their current price no matter what the pipeline proposes.",
}

var locksSetCmd = &cobra.Command{
	Use:   "set <merchant> <product>",
	Short: "Lock a product at its current price",
	Args:  cobra.ExactArgs(2),
	RunE: withLockStore(func(ctx context.Context, st store.Store, args []string) error {
		return setLock(ctx, st, os.Stdout, args[0], args[1], lockReason)
	}),
}

var locksListCmd = &cobra.Command{
	Use:   "list [merchant]",
	Short: "List a merchant's locks, or every merchant with locks",
	Args:  cobra.MaximumNArgs(1),
	RunE: withLockStore(func(ctx context.Context, st store.Store, args []string) error {
		if len(args) == 0 {
			return listMerchants(ctx, st, os.Stdout)
		}
		return listLocks(ctx, st, os.Stdout, args[0])
	}),
}

var locksClearCmd = &cobra.Command{
	Use:   "clear <merchant> [product...]",
	Short: "Remove product locks; with no products, remove all of the merchant's locks",
	Args:  cobra.MinimumNArgs(1),
	RunE: withLockStore(func(ctx context.Context, st store.Store, args []string) error {
		return clearLocks(ctx, st, os.Stdout, args[0], args[1:]...)
	}),
}

func init() {
	locksSetCmd.Flags().StringVar(&lockReason, "reason", "Merchant override", "why the price is locked")
	locksCmd.AddCommand(locksSetCmd, locksListCmd, locksClearCmd)
	rootCmd.AddCommand(locksCmd)
}

type lockFunc func(ctx context.Context, st store.Store, args []string) error

func withLockStore(fn lockFunc) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("locks"); err != nil {
			return err
		}
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		return fn(ctx, st, args)
	}
}

func setLock(ctx context.Context, st store.Store, w io.Writer, merchantID, productID, reason string) error {
	if err := st.SetLock(ctx, merchantID, productID, reason); err != nil {
		return err
	}
	green.Fprintf(w, "locked %s/%s: %s\n", merchantID, productID, reason)
	return nil
}

func listLocks(ctx context.Context, st store.Store, w io.Writer, merchantID string) error {
	locks, err := st.GetLocks(ctx, merchantID)
	if err != nil {
		return err
	}
	if len(locks) == 0 {
		fmt.Fprintf(w, "%s has no locks\n", merchantID)
		return nil
	}
	for _, id := range slices.Sorted(maps.Keys(locks)) {
		fmt.Fprintf(w, "%s\t%s\n", id, locks[id])
	}
	return nil
}

func listMerchants(ctx context.Context, st store.Store, w io.Writer) error {
	merchants, err := st.ListMerchants(ctx)
	if err != nil {
		return err
	}
	for _, m := range merchants {
		fmt.Fprintln(w, m)
	}
	return nil
}

func clearLocks(ctx context.Context, st store.Store, w io.Writer, merchantID string, productIDs ...string) error {
	n, err := st.ClearLocks(ctx, merchantID, productIDs...)
	if err != nil {
		return err
	}
	yellow.Fprintf(w, "cleared %d lock(s) for %s\n", n, merchantID)
	return nil
}
