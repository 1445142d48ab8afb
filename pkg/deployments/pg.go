package deployments

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/chainsafe/multiasset/pkg/identity"
)

type pgStore struct {
	db *bun.DB
}

// NewStore creates a PostgreSQL backed deployment journal
func NewStore(db *bun.DB) Store {
	return &pgStore{db: db}
}

func (s *pgStore) Save(ctx context.Context, rec *Record) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	dao := toDeploymentDao(rec)
	now := time.Now().UTC()
	dao.CreatedAt = now
	dao.UpdatedAt = now

	_, err := s.db.NewInsert().
		Model(dao).
		On("CONFLICT (contract) DO UPDATE").
		Set("phase = EXCLUDED.phase").
		Set("updated_at = EXCLUDED.updated_at").
		Returning("*").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to save deployment %s: %w", rec.Contract, err)
	}

	saved, err := fromDeploymentDao(dao)
	if err != nil {
		return fmt.Errorf("failed to decode deployment %s: %w", rec.Contract, err)
	}
	*rec = *saved
	return nil
}

func (s *pgStore) Get(ctx context.Context, contract identity.Fingerprint) (*Record, error) {
	dao := new(DeploymentDao)
	err := s.db.NewSelect().
		Model(dao).
		Where("contract = ?", contract.String()).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get deployment %s: %w", contract, err)
	}
	return fromDeploymentDao(dao)
}

func (s *pgStore) List(ctx context.Context) ([]*Record, error) {
	var daos []DeploymentDao
	err := s.db.NewSelect().
		Model(&daos).
		Order("created_at ASC", "id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list deployments: %w", err)
	}

	out := make([]*Record, 0, len(daos))
	for i := range daos {
		rec, err := fromDeploymentDao(&daos[i])
		if err != nil {
			return nil, fmt.Errorf("failed to decode deployment %s: %w", daos[i].Contract, err)
		}
		out = append(out, rec)
	}
	return out, nil
}
