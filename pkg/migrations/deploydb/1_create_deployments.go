package deploydb

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/chainsafe/multiasset/pkg/deployments"
	mghelper "github.com/chainsafe/multiasset/pkg/pgutil/migrations"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		if err := mghelper.CreateSchema(ctx, db, &deployments.DeploymentDao{}); err != nil {
			return err
		}
		return mghelper.CreateModelIndexes(ctx, db, &deployments.DeploymentDao{}, "deployer", "phase")
	}, func(ctx context.Context, db *bun.DB) error {
		return mghelper.DropTables(ctx, db, &deployments.DeploymentDao{})
	})
}
