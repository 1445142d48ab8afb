package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/uptrace/bun/migrate"
	"go.uber.org/zap"

	"github.com/chainsafe/multiasset/pkg/config"
	"github.com/chainsafe/multiasset/pkg/migrations/deploydb"
	"github.com/chainsafe/multiasset/pkg/pgutil"
	mghelper "github.com/chainsafe/multiasset/pkg/pgutil/migrations"
)

func main() {
	cfgPath := flag.String("config", "", "Path to configuration file")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage:\n  multiasset-migrate [--config file] <command>\n\n%s\n", mghelper.UsageText)
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error reading configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx := context.Background()
	db, err := pgutil.ConnectDB(ctx, &cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	logger.Info("Running deployment journal migrations", zap.String("database", cfg.Database.Database))

	migrator := migrate.NewMigrator(db, deploydb.Migrations)
	if err := mghelper.RunMigrations(ctx, migrator, logger, flag.Args()...); err != nil {
		if errors.Is(err, mghelper.ErrNoCommand) {
			flag.Usage()
			os.Exit(2)
		}
		logger.Error("Migration failed", zap.Error(err))
		os.Exit(1)
	}
}
