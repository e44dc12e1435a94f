package cmd

import (
	"encoding/json"
	"fmt"
	"runtime/debug"

	dbm "github.com/cosmos/cosmos-db"
	"github.com/spf13/cobra"

	"github.com/provlabs/cellar/config"
	"github.com/provlabs/cellar/simapp"
)

// stateDBName names the state database under the node home.
const stateDBName = "state"

// Version is set at build time.
var Version = ""

// NewRootCmd creates the cellard root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "cellard",
		Short:        "Cellar vault engine simulator",
		SilenceUsage: true,
	}
	config.RegisterFlags(rootCmd.PersistentFlags())
	initRootCmd(rootCmd)
	return rootCmd
}

func initRootCmd(rootCmd *cobra.Command) {
	rootCmd.AddCommand(
		simulateCommand(),
		genesisCommand(),
		queryCommand(),
		versionCommand(),
	)
}

// openApp loads the configuration and opens the app over the configured
// state database. The caller closes the returned database.
func openApp(cmd *cobra.Command) (*simapp.SimApp, dbm.DB, config.Config, error) {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return nil, nil, config.Config{}, err
	}
	logger, err := cfg.Logger(cmd.ErrOrStderr())
	if err != nil {
		return nil, nil, config.Config{}, err
	}
	db, err := cfg.OpenDB(stateDBName)
	if err != nil {
		return nil, nil, config.Config{}, fmt.Errorf("failed to open state database: %w", err)
	}
	app, err := simapp.NewSimApp(logger, db, cfg)
	if err != nil {
		_ = db.Close()
		return nil, nil, config.Config{}, err
	}
	return app, db, cfg, nil
}

// openMemApp opens an app over a throwaway in-memory database.
func openMemApp(cmd *cobra.Command) (*simapp.SimApp, error) {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return nil, err
	}
	logger, err := cfg.Logger(cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	return simapp.NewSimApp(logger, dbm.NewMemDB(), cfg)
}

// readBlock opens a block after the last committed one for reading. It is
// never committed.
func readBlock(app *simapp.SimApp) error {
	if app.LastBlockHeight() == 0 {
		return fmt.Errorf("chain is not initialized")
	}
	return app.BeginBlock(app.LastBlockTime())
}

func printJSON(cmd *cobra.Command, v any) error {
	bz, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(bz))
	return err
}

func versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the cellard version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v := Version
			if v == "" {
				v = "devel"
				if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
					v = info.Main.Version
				}
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "cellard %s\n", v)
			return err
		},
	}
}
