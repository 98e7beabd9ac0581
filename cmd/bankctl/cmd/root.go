package cmd

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"

	wp "github.com/azargarov/bankpool"
	"github.com/azargarov/bankpool/index"
	"github.com/azargarov/bankpool/internal/config"
)

// RootCmd is the root Cobra command that gets called from the main func.
// All other sub-commands should be registered here.
func RootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "bankctl",
		Short:        "bankctl runs the bank teller and inspects its balance index.",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().String("config", "", "Path to a config file")
	cmd.PersistentFlags().String("index-dir", "", "Directory of the balance index, overrides indexDir")

	cmd.AddCommand(
		runCmd(),
		seedCmd(),
		balanceCmd(),
		accountsCmd(),
	)

	return cmd
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := RootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	flags := cmd.Root().PersistentFlags()
	path, err := flags.GetString("config")
	if err != nil {
		return config.Config{}, err
	}
	v, err := config.New(path)
	if err != nil {
		return config.Config{}, err
	}
	if err := v.BindPFlag("indexDir", flags.Lookup("index-dir")); err != nil {
		return config.Config{}, err
	}
	return config.Load(v)
}

var openPolicy = wp.RetryPolicy{
	Attempts: 5,
	Initial:  50 * time.Millisecond,
	Max:      time.Second,
}

// openIndex retries while another process still holds the index lock.
func openIndex(ctx context.Context, dir string) (*index.Store, error) {
	var store *index.Store
	err := wp.Retry(ctx, openPolicy, func(context.Context) error {
		s, err := index.Open(dir, index.Options{})
		if err != nil {
			return err
		}
		store = s
		return nil
	})
	return store, err
}
