package cmd

import (
	"fmt"
	"sort"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"

	"github.com/azargarov/bankpool/index"
	"github.com/azargarov/bankpool/ledger"
)

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Write the configured accounts to the index unless already present",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return withIndex(cmd, cfg.IndexDir, func(store *index.Store) error {
				ids := make([]string, 0, len(cfg.Accounts))
				for id := range cfg.Accounts {
					ids = append(ids, id)
				}
				sort.Strings(ids)

				var fresh []ledger.Balance
				for _, id := range ids {
					_, ok, err := store.Get(id)
					if err != nil {
						return err
					}
					if !ok {
						fresh = append(fresh, ledger.Balance{ID: id, Balance: cfg.Accounts[id]})
					}
				}
				if err := store.Flush(fresh); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "seeded %d of %d accounts\n", len(fresh), len(ids))
				return nil
			})
		},
	}
	return cmd
}

func balanceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "balance <account>",
		Short: "Print the stored balance of an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			id := args[0]
			return withIndex(cmd, cfg.IndexDir, func(store *index.Store) error {
				balance, ok, err := store.Get(id)
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("account %s: %w", id, ledger.ErrAccountNotFound)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\n", id, balance)
				return nil
			})
		},
	}
	return cmd
}

func accountsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "List every stored account in id order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return withIndex(cmd, cfg.IndexDir, func(store *index.Store) error {
				return store.Scan(func(b ledger.Balance) error {
					_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\n", b.ID, b.Balance)
					return err
				})
			})
		},
	}
	return cmd
}

func withIndex(cmd *cobra.Command, dir string, fn func(*index.Store) error) error {
	store, err := openIndex(cmd.Context(), dir)
	if err != nil {
		return err
	}
	return multierror.Append(fn(store), store.Close()).ErrorOrNil()
}
