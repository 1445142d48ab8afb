package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	apperrors "github.com/chainsafe/multiasset/pkg/app/errors"
	"github.com/chainsafe/multiasset/pkg/commands"
	"github.com/chainsafe/multiasset/pkg/config"
	"github.com/chainsafe/multiasset/pkg/deployments"
	"github.com/chainsafe/multiasset/pkg/ledger"
	"github.com/chainsafe/multiasset/pkg/ledger/evm"
	"github.com/chainsafe/multiasset/pkg/pgutil"
)

// app holds the process state shared by all subcommands. It is filled by the root
// command's pre-run hook.
type app struct {
	configPath string
	cfg        *config.Config
	logger     *zap.Logger
	runner     *commands.Runner
	closers    []func()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	a := &app{}
	err := newRootCmd(a).ExecuteContext(ctx)
	a.shutdown()
	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(apperrors.ExitCode(err))
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "multiasset",
		Short:         "Deploy and operate a multi-asset token contract",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return a.setup()
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "Path to configuration file")
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return apperrors.BadRequestError(err, err.Error())
	})

	root.AddGroup(
		&cobra.Group{ID: "core", Title: "Contract operations:"},
		&cobra.Group{ID: "info", Title: "Queries:"},
		&cobra.Group{ID: "wallet", Title: "Wallet:"},
	)
	for _, cmd := range coreCommands(a) {
		cmd.GroupID = "core"
		root.AddCommand(cmd)
	}
	for _, cmd := range infoCommands(a) {
		cmd.GroupID = "info"
		root.AddCommand(cmd)
	}
	wallet := keygenCmd(a)
	wallet.GroupID = "wallet"
	root.AddCommand(wallet)
	return root
}

func (a *app) setup() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return apperrors.BadRequestError(err, err.Error())
	}
	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		return apperrors.BadRequestError(err, err.Error())
	}
	a.cfg, a.logger = cfg, logger
	a.closers = append(a.closers, func() { _ = logger.Sync() })

	env := commands.Env{
		Config: cfg,
		Logger: logger,
		Dial:   dialer(cfg, logger),
	}
	// only deploy and deployments touch the journal, so it is connected on first use
	if cfg.Database.Enabled {
		env.OpenJournal = a.openJournal
	}
	a.runner, err = commands.New(env)
	return err
}

func (a *app) openJournal(ctx context.Context) (deployments.Store, error) {
	db, err := pgutil.ConnectDB(ctx, &a.cfg.Database)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() { _ = db.Close() })
	return deployments.NewStore(db), nil
}

func dialer(cfg *config.Config, logger *zap.Logger) commands.Dialer {
	return func(ctx context.Context, rpcURL string) (ledger.Ledger, func(), error) {
		c, err := evm.Dial(ctx, &cfg.Ledger, rpcURL, logger)
		if err != nil {
			return nil, nil, err
		}
		return c, c.Close, nil
	}
}

// shutdown writes the metrics of this run and releases resources in reverse order.
func (a *app) shutdown() {
	if a.cfg != nil && a.cfg.Monitoring.MetricsTextfile != "" {
		if err := prometheus.WriteToTextfile(a.cfg.Monitoring.MetricsTextfile, prometheus.DefaultGatherer); err != nil && a.logger != nil {
			a.logger.Warn("Failed to write metrics textfile", zap.Error(err))
		}
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}
