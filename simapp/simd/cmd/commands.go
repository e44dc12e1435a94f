package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/provlabs/cellar/simapp"
	"github.com/provlabs/cellar/simulation"
	"github.com/provlabs/cellar/types"
)

const (
	flagBlocks          = "blocks"
	flagBlockSize       = "block-size"
	flagSeed            = "seed"
	flagAccounts        = "accounts"
	flagInvariantPeriod = "invariant-period"
	flagGenesisTime     = "genesis-time"
	flagTrustedOnly     = "trusted-only"
)

func simulateCommand() *cobra.Command {
	d := simulation.DefaultConfig()
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run random cellar operations against the state database",
		Long: `Run random cellar operations against the state database. A fresh
database is initialized with a randomized genesis first; an existing one resumes
after its last committed block with the accounts derived from --seed.`,
		Args: cobra.NoArgs,
		RunE: runSimulate,
	}
	cmd.Flags().Int(flagBlocks, d.NumBlocks, "number of blocks to simulate")
	cmd.Flags().Int(flagBlockSize, d.BlockSize, "operations per block")
	cmd.Flags().Int64(flagSeed, d.Seed, "random seed")
	cmd.Flags().Int(flagAccounts, d.NumAccounts, "number of simulated accounts")
	cmd.Flags().Int(flagInvariantPeriod, d.InvariantPeriod, "check invariants every n blocks, 0 disables")
	return cmd
}

func runSimulate(cmd *cobra.Command, _ []string) error {
	app, db, cfg, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	simCfg := simulation.DefaultConfig()
	simCfg.BlockTime = cfg.BlockTime
	flags := cmd.Flags()
	if simCfg.NumBlocks, err = flags.GetInt(flagBlocks); err != nil {
		return err
	}
	if simCfg.BlockSize, err = flags.GetInt(flagBlockSize); err != nil {
		return err
	}
	if simCfg.Seed, err = flags.GetInt64(flagSeed); err != nil {
		return err
	}
	if simCfg.NumAccounts, err = flags.GetInt(flagAccounts); err != nil {
		return err
	}
	if simCfg.InvariantPeriod, err = flags.GetInt(flagInvariantPeriod); err != nil {
		return err
	}
	if simCfg.NumAccounts <= 0 || simCfg.BlockSize <= 0 || simCfg.NumBlocks < 0 {
		return fmt.Errorf("accounts and block size must be positive and blocks non-negative")
	}

	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(app.Registry, promhttp.HandlerOpts{}))
		srv := &http.Server{Addr: cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				app.Logger().Error("metrics server failed", "err", err)
			}
		}()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(ctx)
		}()
		app.Logger().Info("serving metrics", "addr", cfg.MetricsAddr)
	}

	r := rand.New(rand.NewSource(simCfg.Seed))
	var accs []simulation.Account
	if app.LastBlockHeight() == 0 {
		if accs, err = simulation.InitApp(app, r, simCfg); err != nil {
			return err
		}
	} else {
		accs = simulation.RandomAccounts(r, simCfg.NumAccounts)
		if err := app.BeginBlock(app.LastBlockTime().Add(simCfg.BlockTime)); err != nil {
			return err
		}
	}

	stats, simErr := simulation.Simulate(app, r, accs, simCfg)
	if simErr == nil {
		if err := app.EndBlock(); err != nil {
			return err
		}
		if err := app.Commit(); err != nil {
			return err
		}
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "OPERATION\tOK\tFAILED\n")
	for _, name := range stats.Names() {
		st := stats.Ops[name]
		fmt.Fprintf(w, "%s\t%d\t%d\n", name, st.OK, st.Failed)
	}
	fmt.Fprintf(w, "blocks\t%d\theight %d\n", stats.Blocks, app.LastBlockHeight())
	if err := w.Flush(); err != nil {
		return err
	}
	return simErr
}

func genesisCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "genesis",
		Short: "Genesis subcommands",
	}

	defaultCmd := &cobra.Command{
		Use:   "default",
		Short: "Print the genesis of an empty chain",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := openMemApp(cmd)
			if err != nil {
				return err
			}
			gs, err := app.DefaultGenesis()
			if err != nil {
				return err
			}
			return printJSON(cmd, gs)
		},
	}

	fixtureCmd := &cobra.Command{
		Use:   "fixture [address...]",
		Short: "Print a genesis with priced assets, protocol venues and positions, funding each address",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openMemApp(cmd)
			if err != nil {
				return err
			}
			gs, err := app.FixtureGenesis(args...)
			if err != nil {
				return err
			}
			return printJSON(cmd, gs)
		},
	}

	validateCmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Validate a genesis file by initializing a throwaway chain from it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gs, err := readGenesis(args[0])
			if err != nil {
				return err
			}
			app, err := openMemApp(cmd)
			if err != nil {
				return err
			}
			if err := app.InitChain(gs, time.Now().UTC()); err != nil {
				return fmt.Errorf("invalid genesis: %w", err)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s is a valid genesis file\n", args[0])
			return err
		},
	}

	initCmd := &cobra.Command{
		Use:   "init <file>",
		Short: "Initialize the state database from a genesis file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gs, err := readGenesis(args[0])
			if err != nil {
				return err
			}
			app, db, _, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer db.Close()
			genesisTime := time.Now().UTC()
			if s, _ := cmd.Flags().GetString(flagGenesisTime); s != "" {
				if genesisTime, err = time.Parse(time.RFC3339, s); err != nil {
					return fmt.Errorf("invalid genesis time: %w", err)
				}
			}
			return app.InitChain(gs, genesisTime)
		},
	}
	initCmd.Flags().String(flagGenesisTime, "", "genesis block time (RFC3339), defaults to now")

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Export the state of the last committed block",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, db, _, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := readBlock(app); err != nil {
				return err
			}
			gs, err := app.ExportGenesis()
			if err != nil {
				return err
			}
			return printJSON(cmd, gs)
		},
	}

	cmd.AddCommand(defaultCmd, fixtureCmd, validateCmd, initCmd, exportCmd)
	return cmd
}

func readGenesis(path string) (simapp.GenesisState, error) {
	bz, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var gs simapp.GenesisState
	if err := json.Unmarshal(bz, &gs); err != nil {
		return nil, fmt.Errorf("failed to decode genesis file %s: %w", path, err)
	}
	return gs, nil
}

func queryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "query",
		Aliases: []string{"q"},
		Short:   "Query the state of the last committed block",
	}

	// run opens a read block and passes the cellar query service to fn.
	run := func(cmd *cobra.Command, fn func(ctx context.Context, q types.QueryServer) (any, error)) error {
		app, db, _, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := readBlock(app); err != nil {
			return err
		}
		resp, err := fn(app.Context(), app.QueryServer())
		if err != nil {
			return err
		}
		return printJSON(cmd, resp)
	}

	paramsCmd := &cobra.Command{
		Use:   "params",
		Short: "Show the cellar module params",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, func(ctx context.Context, q types.QueryServer) (any, error) {
				return q.Params(ctx, &types.QueryParamsRequest{})
			})
		},
	}

	cellarsCmd := &cobra.Command{
		Use:   "cellars",
		Short: "List every cellar",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, func(ctx context.Context, q types.QueryServer) (any, error) {
				return q.Cellars(ctx, &types.QueryCellarsRequest{})
			})
		},
	}

	cellarCmd := &cobra.Command{
		Use:   "cellar <id>",
		Short: "Show one cellar with its positions and catalogues",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseCellarID(args[0])
			if err != nil {
				return err
			}
			return run(cmd, func(ctx context.Context, q types.QueryServer) (any, error) {
				return q.Cellar(ctx, &types.QueryCellarRequest{CellarID: id})
			})
		},
	}

	positionsCmd := &cobra.Command{
		Use:   "positions",
		Short: "List the position registry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			trustedOnly, err := cmd.Flags().GetBool(flagTrustedOnly)
			if err != nil {
				return err
			}
			return run(cmd, func(ctx context.Context, q types.QueryServer) (any, error) {
				return q.Positions(ctx, &types.QueryPositionsRequest{TrustedOnly: trustedOnly})
			})
		},
	}
	positionsCmd.Flags().Bool(flagTrustedOnly, false, "list trusted positions only")

	totalAssetsCmd := &cobra.Command{
		Use:   "total-assets <id>",
		Short: "Show the total and withdrawable assets of a cellar",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseCellarID(args[0])
			if err != nil {
				return err
			}
			return run(cmd, func(ctx context.Context, q types.QueryServer) (any, error) {
				return q.TotalAssets(ctx, &types.QueryTotalAssetsRequest{CellarID: id})
			})
		},
	}

	cmd.AddCommand(paramsCmd, cellarsCmd, cellarCmd, positionsCmd, totalAssetsCmd)
	return cmd
}

func parseCellarID(s string) (uint32, error) {
	id, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid cellar id %q: %w", s, err)
	}
	return uint32(id), nil
}
