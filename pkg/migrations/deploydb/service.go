// Package deploydb holds the migrations for the deployment journal database
package deploydb

import (
	"github.com/uptrace/bun/migrate"
)

// Migrations is the collection of all migrations for the deployment journal
var Migrations = migrate.NewMigrations()
